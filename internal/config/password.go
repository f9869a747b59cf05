package config

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
)

// RandomPassword returns a url safe random password built from length random bytes.
func RandomPassword(length int) (string, error) {
	if length <= 0 {
		return "", fmt.Errorf("password length must be > 0")
	}
	raw := make([]byte, length)
	if _, err := rand.Read(raw); err != nil {
		return "", fmt.Errorf("generate random password bytes: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(raw), nil
}
