// Package storage implements the persistence gateway: a small
// string-keyed document store with a durable tier for the root store
// document and per-history tiers for timelines and snapshots, plus a
// debounced writer that coalesces the high-frequency saves the
// calculator produces while typing.
package storage

import (
	"errors"
	"strings"
)

// StorageKey is the root document key. Per-history documents derive
// their keys from it; stores written by earlier versions are read
// back unchanged.
const StorageKey = "semester_avg_app_v1"

const (
	timelineKeyPrefix  = StorageKey + ":timeline:"
	snapshotsKeyPrefix = StorageKey + ":snapshots:"
)

// ErrEmptyKey is returned by gateways for a blank key.
var ErrEmptyKey = errors.New("storage: empty key")

// Gateway is the persistence backend: an atomic string-keyed document
// store. Implementations are safe for concurrent use.
type Gateway interface {
	// Load returns the document at key. ok is false when absent.
	Load(key string) (value string, ok bool, err error)
	// Save writes (or replaces) the document at key.
	Save(key, value string) error
	// Delete removes the document at key. Deleting an absent key is
	// not an error.
	Delete(key string) error
	// Close releases the backend. Further calls fail.
	Close() error
}

// TimelineKey returns the per-history timeline document key, or ""
// for a blank history id.
func TimelineKey(historyID string) string {
	id := strings.TrimSpace(historyID)
	if id == "" {
		return ""
	}
	return timelineKeyPrefix + id
}

// SnapshotsKey returns the per-history snapshot collection key, or ""
// for a blank history id.
func SnapshotsKey(historyID string) string {
	id := strings.TrimSpace(historyID)
	if id == "" {
		return ""
	}
	return snapshotsKeyPrefix + id
}
