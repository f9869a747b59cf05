package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/sarth-shah20/mwdocker/internal/extension"
)

// FileName is the name of the persisted instance configuration.
const FileName = "MwConfig.json"

// ConfigPath returns {docker_path}/{container_base_name}/MwConfig.json.
func (c *Config) ConfigPath() string {
	return filepath.Join(c.ArtifactDir(), FileName)
}

// Save writes the configuration as JSON. An empty path means ConfigPath.
// The file is replaced atomically.
func (c *Config) Save(path string) (string, error) {
	if path == "" {
		path = c.ConfigPath()
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", fmt.Errorf("create config dir: %w", err)
	}
	b, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal config: %w", err)
	}
	b = append(b, '\n')

	tmpPath := path + ".tmp"
	if err := os.WriteFile(tmpPath, b, 0o600); err != nil {
		return "", fmt.Errorf("write temp config: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		return "", fmt.Errorf("replace config atomically: %w", err)
	}
	return path, nil
}

// LoadInstance reads a configuration saved with Save. Extensions are
// resolved again by name against catalog when it is not nil; unknown names
// are returned.
func LoadInstance(path string, catalog *extension.Catalog) (*Config, []string, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, fmt.Errorf("read config: %w", err)
	}
	var c Config
	if err := json.Unmarshal(b, &c); err != nil {
		return nil, nil, fmt.Errorf("parse config json %s: %w", path, err)
	}
	if err := c.Derive(); err != nil {
		return nil, nil, err
	}
	var unknown []string
	if catalog != nil {
		unknown = c.ResolveExtensions(catalog)
	}
	return &c, unknown, nil
}
