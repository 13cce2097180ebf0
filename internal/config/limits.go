package config

import "fmt"

// LimitsConfig enforces the collection and timeline caps.
type LimitsConfig struct {
	HistoryLimit  int `yaml:"history_limit"`  // Max undo entries per timeline
	MaxTemplates  int `yaml:"max_templates"`  // Stored template cap
	SnapshotLimit int `yaml:"snapshot_limit"` // Named snapshots per history
}

// ValidateLimits checks that limits are within acceptable ranges.
func (c *Config) ValidateLimits() error {
	if c.Limits.HistoryLimit < 1 {
		return fmt.Errorf("limits.history_limit must be >= 1")
	}
	if c.Limits.MaxTemplates < 1 {
		return fmt.Errorf("limits.max_templates must be >= 1")
	}
	if c.Limits.SnapshotLimit < 1 {
		return fmt.Errorf("limits.snapshot_limit must be >= 1")
	}
	return nil
}
