package calculator

import (
	"semestercalc/internal/registry"
	"semestercalc/internal/row"
)

// Rows returns a copy of the live row document.
func (c *Calculator) Rows() []row.Row {
	c.mu.Lock()
	defer c.mu.Unlock()
	return row.CloneRows(c.present.Rows)
}

// Summary computes the per-row finals and the semester average from
// the live rows.
func (c *Calculator) Summary() row.Summary {
	c.mu.Lock()
	defer c.mu.Unlock()
	return row.ComputeSummary(c.present.Rows)
}

// Histories returns the history collection in display order: pinned
// first, then most recently touched.
func (c *Calculator) Histories() []registry.History {
	c.mu.Lock()
	defer c.mu.Unlock()
	sorted := registry.SortHistories(c.store.Histories)
	for i := range sorted {
		sorted[i] = registry.CloneHistory(sorted[i])
	}
	return sorted
}

// Templates returns the template collection.
func (c *Calculator) Templates() []registry.Template {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]registry.Template, 0, len(c.store.Templates))
	for _, t := range c.store.Templates {
		out = append(out, registry.CloneTemplate(t))
	}
	return out
}

// HistoryByID returns a copy of the named history.
func (c *Calculator) HistoryByID(id string) (registry.History, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	h := c.store.FindHistory(id)
	if h == nil {
		return registry.History{}, false
	}
	return registry.CloneHistory(*h), true
}

// TemplateByID returns a copy of the named template.
func (c *Calculator) TemplateByID(id string) (registry.Template, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	t := c.store.FindTemplate(id)
	if t == nil {
		return registry.Template{}, false
	}
	return registry.CloneTemplate(*t), true
}

// SelectedHistoryID returns the selected history id, or "".
func (c *Calculator) SelectedHistoryID() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.store.SelectedHistoryID
}

// HistoryCount returns the monotonic id-disambiguation counter.
func (c *Calculator) HistoryCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.store.HistoryCount
}

// TimelineStatus reports the undo/redo stack depths.
type TimelineStatus struct {
	CanUndo     bool
	CanRedo     bool
	PastCount   int
	FutureCount int
}

// Timeline returns the current undo/redo status.
func (c *Calculator) Timeline() TimelineStatus {
	c.mu.Lock()
	defer c.mu.Unlock()
	return TimelineStatus{
		CanUndo:     c.recorder.CanUndo(),
		CanRedo:     c.recorder.CanRedo(),
		PastCount:   c.recorder.PastLen(),
		FutureCount: c.recorder.FutureLen(),
	}
}

// Snapshots returns the selected history's saved snapshots, newest
// first.
func (c *Calculator) Snapshots() []Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]Snapshot, 0, len(c.snapshots))
	for _, s := range c.snapshots {
		s.State = s.State.Clone()
		out = append(out, s)
	}
	return out
}
