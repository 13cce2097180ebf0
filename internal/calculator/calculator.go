// Package calculator is the orchestrator: it owns the live row
// document, the undo/redo recorder, the history/template store, and
// the persistence writer, and exposes the actions the shell commands
// call. All methods are safe for concurrent use; a single mutex
// serializes every action, so an edit batch and its side effects are
// atomic with respect to the debounce timers.
package calculator

import (
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"semestercalc/internal/logging"
	"semestercalc/internal/registry"
	"semestercalc/internal/row"
	"semestercalc/internal/storage"
	"semestercalc/internal/timeline"
)

// Options configures a Calculator. Zero fields take defaults.
type Options struct {
	// Gateway is the persistence backend. Required.
	Gateway storage.Gateway

	HistoryLimit  int // undo entries per timeline; default timeline.DefaultCap
	MaxTemplates  int // stored template cap; default registry.MaxTemplateStorage
	SnapshotLimit int // named snapshots per history; default DefaultSnapshotLimit

	HistoryDebounce time.Duration // edit coalescing; default timeline.DefaultDebounce
	PersistDebounce time.Duration // write coalescing; default storage.DefaultWriteDebounce

	// Now is the clock, injectable for tests. Defaults to time.Now.
	Now func() time.Time
	// NewSnapshotID mints snapshot ids. Defaults to uuid.NewString.
	NewSnapshotID func() string
}

// Calculator orchestrates the whole semester-average workspace.
type Calculator struct {
	mu sync.Mutex

	gateway storage.Gateway
	writer  *storage.Writer

	store    registry.Store
	present  timeline.Document
	recorder *timeline.Recorder

	snapshots     []Snapshot
	snapshotLimit int
	maxTemplates  int

	now           func() time.Time
	newSnapshotID func() string
}

// New loads the persisted store, restores the selected history's
// timeline and snapshots, and returns a ready calculator.
func New(opts Options) (*Calculator, error) {
	if opts.Gateway == nil {
		return nil, fmt.Errorf("calculator: gateway required")
	}

	timer := logging.StartTimer(logging.CategoryCalculator, "calculator.New")
	defer timer.Stop()

	c := &Calculator{
		gateway:       opts.Gateway,
		writer:        storage.NewWriter(opts.Gateway, opts.PersistDebounce),
		snapshotLimit: opts.SnapshotLimit,
		maxTemplates:  opts.MaxTemplates,
		now:           opts.Now,
		newSnapshotID: opts.NewSnapshotID,
	}
	if c.snapshotLimit <= 0 {
		c.snapshotLimit = DefaultSnapshotLimit
	}
	if c.maxTemplates <= 0 {
		c.maxTemplates = registry.MaxTemplateStorage
	}
	if c.now == nil {
		c.now = time.Now
	}
	if c.newSnapshotID == nil {
		c.newSnapshotID = uuid.NewString
	}
	c.recorder = timeline.NewRecorder(opts.HistoryLimit, opts.HistoryDebounce, c.onPushMature)

	raw, ok, err := c.gateway.Load(storage.StorageKey)
	if err != nil {
		return nil, fmt.Errorf("calculator: load store: %w", err)
	}
	var data []byte
	if ok {
		data = []byte(raw)
	}
	c.store = registry.NormalizeStore(data, c.nowMs())

	if selected := c.store.FindHistory(c.store.SelectedHistoryID); selected != nil {
		c.present = documentFromRows(selected.Rows)
		c.recorder.Load(c.loadTimeline(selected.ID))
		c.snapshots = c.loadSnapshots(selected.ID)
		logging.Calculator("Restored history %q (%d past, %d future, %d snapshots)",
			selected.ID, c.recorder.PastLen(), c.recorder.FutureLen(), len(c.snapshots))
	} else {
		c.store.SelectedHistoryID = ""
		c.present = defaultDocument()
	}

	// Mirrors the initial persist pass so legacy migrations reach disk
	// even if no action ever runs.
	c.scheduleStore()

	return c, nil
}

// Flush settles any still-debouncing edit batch onto the timeline and
// synchronously writes every pending document.
func (c *Calculator) Flush() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.settleTimeline()
	return c.writer.Flush()
}

// Close flushes pending state and closes the backend.
func (c *Calculator) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.settleTimeline()
	if err := c.writer.Close(); err != nil {
		c.gateway.Close()
		return err
	}
	return c.gateway.Close()
}

// settleTimeline completes a pending edit-batch push without waiting
// out the debounce. Call with the lock held.
func (c *Calculator) settleTimeline() {
	if c.recorder.CompletePendingNow() {
		c.scheduleTimeline()
	}
}

// onPushMature is the recorder's debounce callback: an edit batch went
// quiet, so the pre-edit snapshot lands on the past stack.
func (c *Calculator) onPushMature(generation uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.recorder.CompletePush(generation) {
		logging.TimelineDebug("Edit batch recorded (%d past entries)", c.recorder.PastLen())
		c.scheduleTimeline()
	}
}

func (c *Calculator) nowMs() int64 {
	return c.now().UnixMilli()
}

// defaultDocument is the workspace shown when no history is selected.
func defaultDocument() timeline.Document {
	return timeline.Document{Rows: registry.DefaultRows()}
}

func documentFromRows(rows []row.Row) timeline.Document {
	return timeline.Document{Rows: row.CloneRows(rows)}
}

// syncAfterEdit runs the side effects of a present-document change:
// mirror the rows into the stored history, then schedule both
// persistence tiers. Call with the lock held.
func (c *Calculator) syncAfterEdit() {
	c.mirrorRows()
	c.scheduleStore()
	c.scheduleTimeline()
}

// mirrorRows copies the live rows into the selected stored history.
// Structurally unchanged rows never touch updatedAt.
func (c *Calculator) mirrorRows() {
	id := c.store.SelectedHistoryID
	if id == "" {
		return
	}
	if c.store.UpdateHistoryRows(id, c.present.Rows, c.nowMs()) {
		logging.RegistryDebug("Mirrored live rows into history %q", id)
	}
}

func (c *Calculator) scheduleStore() {
	data, err := json.Marshal(c.store)
	if err != nil {
		logging.StoreError("Failed to serialize store: %v", err)
		return
	}
	c.writer.Schedule(storage.StorageKey, string(data))
}

func (c *Calculator) scheduleTimeline() {
	id := c.store.SelectedHistoryID
	if id == "" {
		return
	}
	data, err := json.Marshal(c.recorder.State())
	if err != nil {
		logging.StoreError("Failed to serialize timeline for %q: %v", id, err)
		return
	}
	c.writer.Schedule(storage.TimelineKey(id), string(data))
}

// persistTimelineNow writes a timeline synchronously, superseding any
// pending debounced write. Used where a half-written timeline would be
// wrong: reset, history creation, timeline-resetting selection.
func (c *Calculator) persistTimelineNow(historyID string, t timeline.Timeline) {
	key := storage.TimelineKey(historyID)
	if key == "" {
		return
	}
	data, err := json.Marshal(t)
	if err != nil {
		logging.StoreError("Failed to serialize timeline for %q: %v", historyID, err)
		return
	}
	if err := c.writer.SaveNow(key, string(data)); err != nil {
		logging.StoreError("Failed to persist timeline for %q: %v", historyID, err)
	}
}

func (c *Calculator) loadTimeline(historyID string) timeline.Timeline {
	key := storage.TimelineKey(historyID)
	if key == "" {
		return timeline.Timeline{}
	}
	raw, ok, err := c.writer.Load(key)
	if err != nil {
		logging.StoreError("Failed to load timeline for %q: %v", historyID, err)
		return timeline.Timeline{}
	}
	if !ok {
		return timeline.Timeline{}
	}
	return timeline.ParsePayload([]byte(raw))
}

// dropHistoryStorage removes a history's per-history tiers.
func (c *Calculator) dropHistoryStorage(historyID string) {
	if key := storage.TimelineKey(historyID); key != "" {
		if err := c.writer.DeleteNow(key); err != nil {
			logging.StoreError("Failed to clear timeline for %q: %v", historyID, err)
		}
	}
	if key := storage.SnapshotsKey(historyID); key != "" {
		if err := c.writer.DeleteNow(key); err != nil {
			logging.StoreError("Failed to clear snapshots for %q: %v", historyID, err)
		}
	}
}
