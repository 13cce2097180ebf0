package storage

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	_ "modernc.org/sqlite"

	"semestercalc/internal/logging"
)

// Local is the SQLite-backed Gateway. All documents live in a single
// kv table; the single-connection limit plus the mutex keep writes
// serialized, which SQLite wants anyway.
type Local struct {
	db     *sql.DB
	mu     sync.RWMutex
	dbPath string
}

// NewLocal opens (or creates) the SQLite database at the given path.
func NewLocal(path string) (*Local, error) {
	timer := logging.StartTimer(logging.CategoryStore, "NewLocal")
	defer timer.Stop()

	logging.Store("Opening local store at path: %s", path)

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		logging.StoreError("Failed to create directory %s: %v", dir, err)
		return nil, fmt.Errorf("failed to create directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		logging.StoreError("Failed to open database at %s: %v", path, err)
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	if _, err := db.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		logging.StoreDebug("Failed to set sqlite busy_timeout: %v", err)
	}
	if _, err := db.Exec("PRAGMA journal_mode = WAL"); err != nil {
		logging.StoreDebug("Failed to set sqlite journal_mode=WAL: %v", err)
	}
	// synchronous=NORMAL is safe under WAL and much faster than FULL.
	if _, err := db.Exec("PRAGMA synchronous = NORMAL"); err != nil {
		logging.StoreDebug("Failed to set sqlite synchronous=NORMAL: %v", err)
	}

	s := &Local{db: db, dbPath: path}
	if err := s.initialize(); err != nil {
		logging.StoreError("Failed to initialize schema: %v", err)
		db.Close()
		return nil, err
	}

	logging.StoreDebug("Local store ready at %s", path)
	return s, nil
}

// initialize creates the kv table.
func (s *Local) initialize() error {
	schema := `
	CREATE TABLE IF NOT EXISTS documents (
		key        TEXT PRIMARY KEY,
		value      TEXT NOT NULL,
		updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);`
	if _, err := s.db.Exec(schema); err != nil {
		return fmt.Errorf("failed to create documents table: %w", err)
	}
	return nil
}

func (s *Local) Load(key string) (string, bool, error) {
	if key == "" {
		return "", false, ErrEmptyKey
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	var value string
	err := s.db.QueryRow("SELECT value FROM documents WHERE key = ?", key).Scan(&value)
	if err == sql.ErrNoRows {
		return "", false, nil
	}
	if err != nil {
		logging.StoreError("Failed to load document %q: %v", key, err)
		return "", false, fmt.Errorf("failed to load document %q: %w", key, err)
	}
	return value, true, nil
}

func (s *Local) Save(key, value string) error {
	if key == "" {
		return ErrEmptyKey
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.Exec(`
		INSERT INTO documents (key, value, updated_at) VALUES (?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = CURRENT_TIMESTAMP`,
		key, value)
	if err != nil {
		logging.StoreError("Failed to save document %q: %v", key, err)
		return fmt.Errorf("failed to save document %q: %w", key, err)
	}
	logging.StoreDebug("Saved document %q (%d bytes)", key, len(value))
	return nil
}

func (s *Local) Delete(key string) error {
	if key == "" {
		return ErrEmptyKey
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.db.Exec("DELETE FROM documents WHERE key = ?", key); err != nil {
		logging.StoreError("Failed to delete document %q: %v", key, err)
		return fmt.Errorf("failed to delete document %q: %w", key, err)
	}
	return nil
}

// Close closes the underlying database.
func (s *Local) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	logging.Store("Closing local store at %s", s.dbPath)
	return s.db.Close()
}
