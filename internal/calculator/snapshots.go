package calculator

import (
	"encoding/json"
	"fmt"

	"semestercalc/internal/logging"
	"semestercalc/internal/row"
	"semestercalc/internal/storage"
	"semestercalc/internal/timeline"
)

// DefaultSnapshotLimit caps the named snapshots kept per history;
// saving past it drops the oldest.
const DefaultSnapshotLimit = 30

// Snapshot is a manually saved copy of the present document that can
// be restored at any time, independently of the undo timeline.
type Snapshot struct {
	ID        string            `json:"id"`
	Label     string            `json:"label"`
	CreatedAt int64             `json:"createdAt"`
	State     timeline.Document `json:"state"`
}

// snapshotPayload tolerates schema drift in persisted snapshots.
type snapshotPayload struct {
	ID        string `json:"id"`
	Label     string `json:"label"`
	CreatedAt int64  `json:"createdAt"`
	State     *struct {
		Rows *[]row.Payload `json:"rows"`
	} `json:"state"`
}

// SaveSnapshot captures the present document under a generated label.
// Newest first; the collection is truncated to the snapshot limit.
func (c *Calculator) SaveSnapshot() (Snapshot, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	id := c.store.SelectedHistoryID
	if id == "" {
		return Snapshot{}, false
	}

	now := c.now()
	snap := Snapshot{
		ID:        c.newSnapshotID(),
		Label:     fmt.Sprintf("Snapshot %d · %s", len(c.snapshots)+1, now.Format("02/01 15:04:05")),
		CreatedAt: now.UnixMilli(),
		State:     c.present.Clone(),
	}

	c.snapshots = append([]Snapshot{snap}, c.snapshots...)
	if len(c.snapshots) > c.snapshotLimit {
		c.snapshots = c.snapshots[:c.snapshotLimit]
	}

	logging.Calculator("Saved snapshot %q for history %q", snap.Label, id)
	c.scheduleSnapshots()
	return snap, true
}

// RestoreSnapshot reinstates a saved snapshot as the present document.
// The restore itself is undoable: the pre-restore state is pushed to
// the past stack and the future queue is cleared.
func (c *Calculator) RestoreSnapshot(snapshotID string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.store.SelectedHistoryID == "" {
		return false
	}

	var found *Snapshot
	for i := range c.snapshots {
		if c.snapshots[i].ID == snapshotID {
			found = &c.snapshots[i]
			break
		}
	}
	if found == nil {
		return false
	}

	c.recorder.PushNow(c.present)

	c.recorder.BeginRestore()
	defer c.recorder.EndRestore()

	c.present = found.State.Clone()
	logging.Calculator("Restored snapshot %q", found.Label)
	c.syncAfterEdit()
	return true
}

// DeleteSnapshot removes a saved snapshot.
func (c *Calculator) DeleteSnapshot(snapshotID string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.store.SelectedHistoryID == "" {
		return false
	}

	for i := range c.snapshots {
		if c.snapshots[i].ID == snapshotID {
			c.snapshots = append(c.snapshots[:i], c.snapshots[i+1:]...)
			c.scheduleSnapshots()
			return true
		}
	}
	return false
}

func (c *Calculator) scheduleSnapshots() {
	id := c.store.SelectedHistoryID
	if id == "" {
		return
	}
	data, err := json.Marshal(c.snapshots)
	if err != nil {
		logging.StoreError("Failed to serialize snapshots for %q: %v", id, err)
		return
	}
	c.writer.Schedule(storage.SnapshotsKey(id), string(data))
}

// loadSnapshots reads and repairs a history's persisted snapshot
// collection. Broken entries are dropped, never fatal.
func (c *Calculator) loadSnapshots(historyID string) []Snapshot {
	key := storage.SnapshotsKey(historyID)
	if key == "" {
		return nil
	}
	raw, ok, err := c.writer.Load(key)
	if err != nil {
		logging.StoreError("Failed to load snapshots for %q: %v", historyID, err)
		return nil
	}
	if !ok {
		return nil
	}

	var parsed []snapshotPayload
	if err := json.Unmarshal([]byte(raw), &parsed); err != nil {
		logging.StoreWarn("Malformed snapshot collection for %q dropped", historyID)
		return nil
	}

	snapshots := make([]Snapshot, 0, len(parsed))
	for _, sp := range parsed {
		if sp.ID == "" || sp.State == nil || sp.State.Rows == nil {
			continue
		}
		snapshots = append(snapshots, Snapshot{
			ID:        sp.ID,
			Label:     sp.Label,
			CreatedAt: sp.CreatedAt,
			State:     timeline.NewDocument(*sp.State.Rows),
		})
	}
	if len(snapshots) > c.snapshotLimit {
		snapshots = snapshots[:c.snapshotLimit]
	}
	return snapshots
}
