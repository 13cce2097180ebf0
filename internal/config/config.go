// Package config holds the semcalc configuration, loaded from
// .semcalc/config.yaml with environment overrides.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all semcalc configuration.
type Config struct {
	// Core settings
	Name    string `yaml:"name"`
	Version string `yaml:"version"`

	// Persistence backend
	Storage StorageConfig `yaml:"storage"`

	// Collection and timeline caps
	Limits LimitsConfig `yaml:"limits"`

	// Write coalescing windows
	Debounce DebounceConfig `yaml:"debounce"`

	// Logging
	Logging LoggingConfig `yaml:"logging"`
}

// StorageConfig configures the persistence gateway.
type StorageConfig struct {
	Backend      string `yaml:"backend"` // sqlite, memory
	DatabasePath string `yaml:"database_path"`
}

// DebounceConfig configures the coalescing windows as duration strings.
type DebounceConfig struct {
	// History is how long an edit burst may continue before the
	// pre-edit state is committed to the undo timeline.
	History string `yaml:"history"`
	// Persist is how long a changed document waits before being
	// written to the backend.
	Persist string `yaml:"persist"`
}

// Backend names accepted by storage.backend.
var ValidBackends = []string{"sqlite", "memory"}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Name:    "semcalc",
		Version: "1.0.0",

		Storage: StorageConfig{
			Backend:      "sqlite",
			DatabasePath: "data/semcalc.db",
		},

		Limits: LimitsConfig{
			HistoryLimit:  80,
			MaxTemplates:  12,
			SnapshotLimit: 30,
		},

		Debounce: DebounceConfig{
			History: "160ms",
			Persist: "180ms",
		},

		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// Load loads configuration from a YAML file.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			// Return defaults if config file doesn't exist
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	// Override with environment variables
	cfg.applyEnvOverrides()

	return cfg, nil
}

// Save saves configuration to a YAML file.
func (c *Config) Save(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}

	return nil
}

// applyEnvOverrides applies environment variable overrides.
func (c *Config) applyEnvOverrides() {
	if path := os.Getenv("SEMCALC_DB"); path != "" {
		c.Storage.DatabasePath = path
	}
	if backend := os.Getenv("SEMCALC_BACKEND"); backend != "" {
		c.Storage.Backend = backend
	}
	if level := os.Getenv("SEMCALC_LOG_LEVEL"); level != "" {
		c.Logging.Level = level
	}
}

// HistoryDebounce returns the history coalescing window as a duration.
func (c *Config) HistoryDebounce() time.Duration {
	d, err := time.ParseDuration(c.Debounce.History)
	if err != nil || d <= 0 {
		return 160 * time.Millisecond
	}
	return d
}

// PersistDebounce returns the persistence window as a duration.
func (c *Config) PersistDebounce() time.Duration {
	d, err := time.ParseDuration(c.Debounce.Persist)
	if err != nil || d <= 0 {
		return 180 * time.Millisecond
	}
	return d
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	validBackend := false
	for _, b := range ValidBackends {
		if c.Storage.Backend == b {
			validBackend = true
			break
		}
	}
	if !validBackend {
		return fmt.Errorf("invalid storage backend: %s (valid: %v)", c.Storage.Backend, ValidBackends)
	}
	if c.Storage.Backend == "sqlite" && c.Storage.DatabasePath == "" {
		return fmt.Errorf("storage.database_path required for the sqlite backend")
	}
	return c.ValidateLimits()
}
