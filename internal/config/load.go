package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	"gopkg.in/yaml.v3"
)

// Load loads configuration with priority: defaults < file. An empty path
// falls back to the standard config locations.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path == "" {
		path = findConfigFile()
	}
	if path != "" {
		if err := loadFromFile(cfg, path); err != nil {
			return nil, fmt.Errorf("loading config from %s: %w", path, err)
		}
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects settings the pipeline cannot run with.
func (c *Config) Validate() error {
	if c.Merge.MaxVertices <= 0 {
		return fmt.Errorf("merge.max_vertices must be positive, got %d", c.Merge.MaxVertices)
	}
	if c.Merge.MaxSlots <= 0 {
		return fmt.Errorf("merge.max_slots must be positive, got %d", c.Merge.MaxSlots)
	}
	if c.Atlas.MaxSize <= 0 {
		return fmt.Errorf("atlas.max_size must be positive, got %d", c.Atlas.MaxSize)
	}
	if c.Atlas.Padding < 0 {
		return fmt.Errorf("atlas.padding must not be negative, got %d", c.Atlas.Padding)
	}
	if c.Atlas.MinFootprint <= 0 {
		return fmt.Errorf("atlas.min_footprint must be positive, got %d", c.Atlas.MinFootprint)
	}
	if c.Atlas.Cell <= 0 {
		return fmt.Errorf("atlas.cell must be positive, got %d", c.Atlas.Cell)
	}
	if c.Bake.Concurrency < 0 {
		return fmt.Errorf("bake.concurrency must not be negative, got %d", c.Bake.Concurrency)
	}
	return nil
}

// findConfigFile looks for config in standard locations.
func findConfigFile() string {
	candidates := []string{
		"./meshforge.yaml",
		filepath.Join(ConfigDir(), "config.yaml"),
	}

	for _, path := range candidates {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}

// ConfigDir returns the OS-appropriate config directory.
func ConfigDir() string {
	switch runtime.GOOS {
	case "darwin":
		home, _ := os.UserHomeDir()
		return filepath.Join(home, "Library", "Application Support", "Meshforge")
	case "windows":
		return filepath.Join(os.Getenv("APPDATA"), "Meshforge")
	default: // Linux and others
		if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
			return filepath.Join(xdg, "meshforge")
		}
		home, _ := os.UserHomeDir()
		return filepath.Join(home, ".config", "meshforge")
	}
}

// loadFromFile loads config from a YAML file, merging with existing values.
func loadFromFile(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return yaml.Unmarshal(data, cfg)
}
