package docker

import (
	"errors"
	"fmt"
	"os"
)

// InDir runs fn with dir as the process working directory. The previous
// working directory is restored on every return path, including panics.
//
// The working directory is process wide; callers must not run InDir
// concurrently.
func InDir(dir string, fn func() error) (err error) {
	prev, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("failed to get working directory: %w", err)
	}
	if err := os.Chdir(dir); err != nil {
		return fmt.Errorf("failed to change to %s: %w", dir, err)
	}
	defer func() {
		if cerr := os.Chdir(prev); cerr != nil {
			err = errors.Join(err, fmt.Errorf("failed to restore working directory %s: %w", prev, cerr))
		}
	}()
	return fn()
}
