package config

import (
	"path/filepath"
	"testing"
	"time"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	if cfg.Name != "semcalc" {
		t.Errorf("expected Name=semcalc, got %s", cfg.Name)
	}
	if cfg.Storage.Backend != "sqlite" {
		t.Errorf("expected Backend=sqlite, got %s", cfg.Storage.Backend)
	}
	if cfg.Limits.HistoryLimit != 80 {
		t.Errorf("expected HistoryLimit=80, got %d", cfg.Limits.HistoryLimit)
	}
	if cfg.Limits.MaxTemplates != 12 {
		t.Errorf("expected MaxTemplates=12, got %d", cfg.Limits.MaxTemplates)
	}
	if cfg.Limits.SnapshotLimit != 30 {
		t.Errorf("expected SnapshotLimit=30, got %d", cfg.Limits.SnapshotLimit)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config should validate: %v", err)
	}
}

func TestConfig_SaveLoad(t *testing.T) {
	t.Setenv("SEMCALC_DB", "")
	t.Setenv("SEMCALC_BACKEND", "")

	tmpDir := t.TempDir()
	path := filepath.Join(tmpDir, "config.yaml")

	cfg := DefaultConfig()
	cfg.Storage.Backend = "memory"
	cfg.Limits.HistoryLimit = 40
	cfg.Debounce.Persist = "250ms"

	if err := cfg.Save(path); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if loaded.Storage.Backend != "memory" {
		t.Errorf("expected Backend=memory, got %s", loaded.Storage.Backend)
	}
	if loaded.Limits.HistoryLimit != 40 {
		t.Errorf("expected HistoryLimit=40, got %d", loaded.Limits.HistoryLimit)
	}
	if loaded.PersistDebounce() != 250*time.Millisecond {
		t.Errorf("expected PersistDebounce=250ms, got %v", loaded.PersistDebounce())
	}
}

func TestConfig_MissingFileReturnsDefaults(t *testing.T) {
	t.Setenv("SEMCALC_DB", "")
	t.Setenv("SEMCALC_BACKEND", "")

	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Storage.Backend != "sqlite" {
		t.Errorf("expected default backend, got %s", cfg.Storage.Backend)
	}
}

func TestConfig_EnvOverrides(t *testing.T) {
	t.Setenv("SEMCALC_DB", "/tmp/other.db")
	t.Setenv("SEMCALC_BACKEND", "memory")
	t.Setenv("SEMCALC_LOG_LEVEL", "debug")

	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Storage.DatabasePath != "/tmp/other.db" {
		t.Errorf("expected SEMCALC_DB override, got %s", cfg.Storage.DatabasePath)
	}
	if cfg.Storage.Backend != "memory" {
		t.Errorf("expected SEMCALC_BACKEND override, got %s", cfg.Storage.Backend)
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("expected SEMCALC_LOG_LEVEL override, got %s", cfg.Logging.Level)
	}
}

func TestConfig_Validate(t *testing.T) {
	cfg := DefaultConfig()

	cfg.Storage.Backend = "postgres"
	if err := cfg.Validate(); err == nil {
		t.Error("expected error for unknown backend")
	}

	cfg = DefaultConfig()
	cfg.Storage.DatabasePath = ""
	if err := cfg.Validate(); err == nil {
		t.Error("expected error for sqlite without a database path")
	}

	cfg = DefaultConfig()
	cfg.Limits.HistoryLimit = 0
	if err := cfg.Validate(); err == nil {
		t.Error("expected error for history_limit < 1")
	}

	cfg = DefaultConfig()
	cfg.Limits.SnapshotLimit = -1
	if err := cfg.Validate(); err == nil {
		t.Error("expected error for snapshot_limit < 1")
	}
}

func TestConfig_DebounceFallbacks(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Debounce.History = "garbage"
	cfg.Debounce.Persist = "-5ms"

	if cfg.HistoryDebounce() != 160*time.Millisecond {
		t.Errorf("expected 160ms fallback, got %v", cfg.HistoryDebounce())
	}
	if cfg.PersistDebounce() != 180*time.Millisecond {
		t.Errorf("expected 180ms fallback, got %v", cfg.PersistDebounce())
	}
}

func TestLoggingConfig_IsCategoryEnabled(t *testing.T) {
	lc := LoggingConfig{DebugMode: false}
	if lc.IsCategoryEnabled("store") {
		t.Error("production mode disables every category")
	}

	lc = LoggingConfig{DebugMode: true}
	if !lc.IsCategoryEnabled("store") {
		t.Error("debug mode with no filter enables every category")
	}

	lc = LoggingConfig{DebugMode: true, Categories: map[string]bool{"store": false}}
	if lc.IsCategoryEnabled("store") {
		t.Error("explicitly disabled category")
	}
	if !lc.IsCategoryEnabled("timeline") {
		t.Error("unlisted category defaults to enabled")
	}
}
