// Package config loads the scanner's YAML configuration file.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// ReaderConfig selects the tag transport.
type ReaderConfig struct {
	// Type is "pcsc" or "sim".
	Type string `yaml:"type"`

	// Index is the PC/SC reader index (0-based).
	Index int `yaml:"index"`
}

// SubmitConfig configures submission to the append service.
type SubmitConfig struct {
	// Endpoint is the append service URL. Empty disables submission and
	// the scanner runs in degraded mode.
	Endpoint string `yaml:"endpoint"`

	// Timeout bounds each submission request, connect included.
	Timeout time.Duration `yaml:"timeout"`
}

// Config is the scanner configuration.
type Config struct {
	Reader        ReaderConfig  `yaml:"reader"`
	Submit        SubmitConfig  `yaml:"submit"`
	MaterialsFile string        `yaml:"materials_file"`
	PollInterval  time.Duration `yaml:"poll_interval"`
}

// Defaults returns the built-in configuration.
func Defaults() *Config {
	return &Config{
		Reader:       ReaderConfig{Type: "pcsc", Index: 0},
		Submit:       SubmitConfig{Timeout: 10 * time.Second},
		PollInterval: 250 * time.Millisecond,
	}
}

// Load reads the YAML file at path over the defaults. An empty path
// returns the defaults unchanged; a path that does not exist is an
// error, so a typo'd flag cannot silently run with default settings.
func Load(path string) (*Config, error) {
	cfg := Defaults()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
	}
	return cfg, nil
}
