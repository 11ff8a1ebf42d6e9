package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/Faultbox/terrastage/internal/engine/renderer"
)

// Path returns the file preferences are saved to: the file the config was
// loaded from, or config.yaml in ConfigDir.
func (c *Config) Path() string {
	if c.path != "" {
		return c.path
	}
	return filepath.Join(ConfigDir(), "config.yaml")
}

// ApplyPreferences copies the runtime editor settings into c.
func (c *Config) ApplyPreferences(p renderer.Preferences) {
	c.Editor.LockMouseInPlay = p.LockMouseInPlay
	c.Editor.MoveSpeed = p.MoveSpeed
	c.Editor.MouseSensitivity = p.MouseSensitivity
	c.Editor.OrbitSensitivity = p.OrbitSensitivity
}

// SavePreferences merges p into the file at Path. The file is re-read first
// so values that came from command line flags are not written back.
func (c *Config) SavePreferences(p renderer.Preferences) error {
	path := c.Path()

	stored := Default()
	if _, err := os.Stat(path); err == nil {
		if err := loadFromFile(stored, path); err != nil {
			return fmt.Errorf("reading %s: %w", path, err)
		}
	}
	stored.ApplyPreferences(p)
	if err := stored.SaveTo(path); err != nil {
		return fmt.Errorf("saving %s: %w", path, err)
	}

	c.ApplyPreferences(p)
	c.path = path
	return nil
}

// SaveTo writes the config to a specific path.
func (c *Config) SaveTo(path string) error {
	// Create parent directory if needed
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0644)
}
