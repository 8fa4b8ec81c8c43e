package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Config holds the user-adjustable settings read from config.yaml in the
// data directory.
type Config struct {
	PageSize         string  `yaml:"page_size"`
	MarginPt         float64 `yaml:"margin_pt"`
	FontSizePt       float64 `yaml:"font_size_pt"`
	LineHeightPt     float64 `yaml:"line_height_pt"`
	DefaultDirection string  `yaml:"default_direction"`
	SaveDelayMs      int     `yaml:"save_delay_ms"`
}

// Default returns the configuration used when no config file exists.
func Default() *Config {
	return &Config{
		PageSize:         "A4",
		MarginPt:         54,
		FontSizePt:       12,
		LineHeightPt:     18,
		DefaultDirection: "auto",
		SaveDelayMs:      400,
	}
}

// DataDir resolves the data directory: the QUOTETPL_DIR environment
// variable when set, otherwise ~/.quotetpl.
func DataDir() (string, error) {
	if dir := os.Getenv("QUOTETPL_DIR"); dir != "" {
		return dir, nil
	}
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(homeDir, ".quotetpl"), nil
}

// Load reads config.yaml from baseDir, falling back to defaults for a
// missing file or missing keys.
func Load(baseDir string) (*Config, error) {
	cfg := Default()
	data, err := os.ReadFile(filepath.Join(baseDir, "config.yaml"))
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	cfg.fillDefaults()
	return cfg, nil
}

// Save writes the configuration to config.yaml under baseDir.
func (c *Config) Save(baseDir string) error {
	if err := os.MkdirAll(baseDir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	return os.WriteFile(filepath.Join(baseDir, "config.yaml"), data, 0644)
}

func (c *Config) fillDefaults() {
	def := Default()
	if c.PageSize == "" {
		c.PageSize = def.PageSize
	}
	if c.MarginPt <= 0 {
		c.MarginPt = def.MarginPt
	}
	if c.FontSizePt <= 0 {
		c.FontSizePt = def.FontSizePt
	}
	if c.LineHeightPt <= 0 {
		c.LineHeightPt = def.LineHeightPt
	}
	if c.DefaultDirection == "" {
		c.DefaultDirection = def.DefaultDirection
	}
	if c.SaveDelayMs <= 0 {
		c.SaveDelayMs = def.SaveDelayMs
	}
}
