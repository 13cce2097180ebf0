package calculator

import (
	"strings"

	"semestercalc/internal/logging"
	"semestercalc/internal/registry"
	"semestercalc/internal/row"
	"semestercalc/internal/timeline"
)

// SelectHistory switches the workspace to the given history: its rows
// become the present document and its persisted timeline and snapshots
// are restored. When resetTimeline is set the timeline starts empty
// instead (used right after instantiating a template).
//
// Navigating away from a pristine template instantiation garbage
// collects it: the history, its timeline, and its snapshots are
// removed.
func (c *Calculator) SelectHistory(historyID string, resetTimeline bool) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	h := c.store.FindHistory(historyID)
	if h == nil {
		return false
	}

	c.recorder.CancelPending()

	previous := c.store.SelectedHistoryID
	if previous != "" && previous != h.ID {
		prevHistory := c.store.FindHistory(previous)
		if registry.IsTemplateHistoryEmpty(prevHistory, c.present.Rows) {
			c.store.DeleteHistory(previous)
			c.dropHistoryStorage(previous)
			logging.Registry("Discarded pristine template history %q", previous)
			// Deleting can reindex the slice; re-resolve the target.
			h = c.store.FindHistory(historyID)
			if h == nil {
				return false
			}
		}
	}

	c.recorder.BeginRestore()
	defer c.recorder.EndRestore()

	c.store.SelectedHistoryID = h.ID
	c.present = documentFromRows(h.Rows)

	if resetTimeline {
		c.recorder.Reset()
		c.persistTimelineNow(h.ID, timeline.Timeline{})
	} else {
		c.recorder.Load(c.loadTimeline(h.ID))
	}
	c.snapshots = c.loadSnapshots(h.ID)

	logging.Calculator("Selected history %q", h.ID)
	c.scheduleStore()
	return true
}

// DiscardSelectedTemplateHistoryIfEmpty garbage collects the selected
// history when it is a pristine template instantiation, clearing the
// selection back to the default workspace. Returns false when the
// selected history has been touched (or none is selected).
func (c *Calculator) DiscardSelectedTemplateHistoryIfEmpty() bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	id := c.store.SelectedHistoryID
	if id == "" {
		return false
	}
	h := c.store.FindHistory(id)
	if !registry.IsTemplateHistoryEmpty(h, c.present.Rows) {
		return false
	}

	c.recorder.CancelPending()
	c.dropHistoryStorage(id)
	c.store.DeleteHistory(id)

	c.recorder.BeginRestore()
	defer c.recorder.EndRestore()

	c.store.SelectedHistoryID = ""
	c.present = defaultDocument()
	c.recorder.Reset()
	c.snapshots = nil

	logging.Registry("Discarded pristine template history %q", id)
	c.scheduleStore()
	return true
}

// CreateHistoryFromTemplate instantiates a template as a new history
// with an empty timeline. The caller typically follows up with
// SelectHistory(id, true).
func (c *Calculator) CreateHistoryFromTemplate(templateID string) (registry.History, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	h := c.store.CreateHistoryFromTemplate(templateID, c.nowMs())
	if h == nil {
		return registry.History{}, false
	}
	c.persistTimelineNow(h.ID, timeline.Timeline{})
	logging.Registry("Created history %q from template %q", h.ID, templateID)
	c.scheduleStore()
	return registry.CloneHistory(*h), true
}

// CreateHistoryFromModule creates a single-module ad-hoc history.
func (c *Calculator) CreateHistoryFromModule(p row.Payload) (registry.History, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	h := c.store.CreateHistoryFromModule(p, c.nowMs())
	if h == nil {
		return registry.History{}, false
	}
	c.persistTimelineNow(h.ID, timeline.Timeline{})
	logging.Registry("Created history %q", h.ID)
	c.scheduleStore()
	return registry.CloneHistory(*h), true
}

// DuplicateHistory clones a history under "<name> Copy". Duplicating
// the selected history copies the live rows, so unmirrored edits come
// along.
func (c *Calculator) DuplicateHistory(historyID string) (registry.History, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	var liveRows []row.Row
	if c.store.SelectedHistoryID != "" && c.store.SelectedHistoryID == strings.TrimSpace(historyID) {
		liveRows = c.present.Rows
	}

	h := c.store.DuplicateHistory(historyID, liveRows, c.nowMs())
	if h == nil {
		return registry.History{}, false
	}
	c.persistTimelineNow(h.ID, timeline.Timeline{})
	logging.Registry("Duplicated history %q as %q", historyID, h.ID)
	c.scheduleStore()
	return registry.CloneHistory(*h), true
}

// RenameHistory sets a new name. Blank names are rejected.
func (c *Calculator) RenameHistory(historyID, name string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.store.RenameHistory(historyID, name, c.nowMs()) {
		return false
	}
	c.scheduleStore()
	return true
}

// DeleteHistory removes a history and its persisted tiers. Deleting
// the selected history clears the selection and resets the workspace
// to the default rows.
func (c *Calculator) DeleteHistory(historyID string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	id := strings.TrimSpace(historyID)
	if id == "" {
		return false
	}

	removed := c.store.DeleteHistory(id)
	c.dropHistoryStorage(id)

	if c.store.SelectedHistoryID == id {
		c.recorder.CancelPending()
		c.recorder.BeginRestore()
		defer c.recorder.EndRestore()

		c.store.SelectedHistoryID = ""
		c.present = defaultDocument()
		c.recorder.Reset()
		c.snapshots = nil
	}

	if removed {
		logging.Registry("Deleted history %q", id)
		c.scheduleStore()
	}
	return removed
}

// ToggleHistoryPinned flips a history's pin.
func (c *Calculator) ToggleHistoryPinned(historyID string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.store.ToggleHistoryPinned(historyID, c.nowMs()) {
		return false
	}
	c.scheduleStore()
	return true
}

// Undo steps the present document back to the most recent history
// entry. The undone state is redoable.
func (c *Calculator) Undo() bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.store.SelectedHistoryID == "" {
		return false
	}
	restored, ok := c.recorder.Undo(c.present)
	if !ok {
		return false
	}

	c.recorder.BeginRestore()
	defer c.recorder.EndRestore()

	c.present = restored.Clone()
	logging.Timeline("Undo (%d past, %d future)", c.recorder.PastLen(), c.recorder.FutureLen())
	c.syncAfterEdit()
	return true
}

// Redo reapplies the most recently undone state.
func (c *Calculator) Redo() bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.store.SelectedHistoryID == "" {
		return false
	}
	restored, ok := c.recorder.Redo(c.present)
	if !ok {
		return false
	}

	c.recorder.BeginRestore()
	defer c.recorder.EndRestore()

	c.present = restored.Clone()
	logging.Timeline("Redo (%d past, %d future)", c.recorder.PastLen(), c.recorder.FutureLen())
	c.syncAfterEdit()
	return true
}

// ResetAll restores the present document to the selected history's
// stored rows and clears the whole timeline. The cleared timeline is
// persisted immediately; this is not undoable.
func (c *Calculator) ResetAll() bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	id := c.store.SelectedHistoryID
	if id == "" {
		return false
	}
	h := c.store.FindHistory(id)
	if h == nil {
		return false
	}

	c.recorder.BeginRestore()
	defer c.recorder.EndRestore()

	c.present = documentFromRows(h.Rows)
	c.recorder.Reset()
	c.persistTimelineNow(id, timeline.Timeline{})

	logging.Calculator("Reset history %q to stored rows", id)
	c.scheduleStore()
	return true
}
