// Package config loads workspace configuration for ember from
// .ember/config.yaml. Missing files fall back to defaults so a bare
// workspace works without any setup.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Default values for Config.
const (
	DefaultHostURL  = "ws://localhost:8374/events"
	DefaultLogLevel = "info"
)

// Config holds workspace-level settings.
type Config struct {
	// HostURL is the websocket endpoint of the agent host's event socket.
	HostURL string `yaml:"host_url"`

	// LogLevel is the minimum log level (debug, info, warn, error).
	LogLevel string `yaml:"log_level"`

	// DefaultMaxIterations is applied at initiation when the
	// --max-iterations flag is omitted. Zero means unbounded.
	DefaultMaxIterations int `yaml:"default_max_iterations"`
}

// DefaultConfig returns a Config with sensible default values.
func DefaultConfig() Config {
	return Config{
		HostURL:  DefaultHostURL,
		LogLevel: DefaultLogLevel,
	}
}

// ValidationError represents a configuration validation error.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("validation error: %s: %s", e.Field, e.Message)
}

// IsValidationError checks if an error is a ValidationError.
func IsValidationError(err error) bool {
	var ve ValidationError
	return errors.As(err, &ve)
}

// Load reads and parses .ember/config.yaml from the given base path.
// If the file doesn't exist, returns default config. Applies defaults for
// any missing fields.
func Load(basePath string) (*Config, error) {
	configPath := filepath.Join(basePath, ".ember", "config.yaml")

	data, err := os.ReadFile(configPath)
	if err != nil {
		if os.IsNotExist(err) {
			cfg := DefaultConfig()
			return &cfg, nil
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	if err := Validate(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate checks that all config values are valid.
func Validate(cfg *Config) error {
	if cfg.HostURL == "" {
		return ValidationError{Field: "host_url", Message: "required field is empty"}
	}
	if cfg.DefaultMaxIterations < 0 {
		return ValidationError{Field: "default_max_iterations", Message: "must be non-negative"}
	}
	return nil
}
