// Package registry implements the persisted Store document: the
// collections of named calculation histories and reusable templates,
// their uniqueness and ordering invariants, and normalization of
// persisted payloads (including migration of the legacy
// single-workspace format).
package registry

import (
	"sort"
	"strings"

	"semestercalc/internal/row"
)

// MaxTemplateStorage caps the stored template collection. Creating a
// template past the cap fails with nil rather than evicting.
const MaxTemplateStorage = 12

// Fallback names applied during normalization.
const (
	fallbackHistoryName  = "Untitled History"
	fallbackTemplateName = "Custom Template"
	fallbackModuleName   = "Custom History"
)

// History is one independent, named calculation workspace.
//
// SourceTemplateID records lineage for histories instantiated from a
// template; it stays empty for ad-hoc histories. A template-sourced
// history that never received a score is considered pristine and is
// garbage-collected when the user navigates away from it.
type History struct {
	ID     string    `json:"id"`
	Name   string    `json:"name"`
	Pinned bool      `json:"pinned"`
	Rows   []row.Row `json:"rows"`
	// CreatedAt/UpdatedAt are Unix milliseconds, matching the stores
	// written by earlier versions.
	CreatedAt        int64  `json:"createdAt"`
	UpdatedAt        int64  `json:"updatedAt"`
	SourceTemplateID string `json:"sourceTemplateId"`
}

// Template is a reusable row blueprint. Template rows never carry
// scores; they are cleared at every construction boundary.
type Template struct {
	ID       string    `json:"id"`
	Name     string    `json:"name"`
	Year     string    `json:"year"`
	Semester string    `json:"semester"`
	Rows     []row.Row `json:"rows"`
}

// Store is the root persisted document.
//
// HistoryCount is a monotonically non-decreasing counter used only to
// disambiguate generated ids. It deliberately never decreases, even
// when histories are deleted: resetting it could reissue an id that a
// stale timeline document still references.
type Store struct {
	Templates []Template `json:"templates"`
	Histories []History  `json:"histories"`
	// SelectedHistoryID is empty when nothing is selected. (The legacy
	// web client wrote null; empty string reads back identically.)
	SelectedHistoryID string `json:"selectedHistoryId"`
	HistoryCount      int    `json:"historyCount"`
}

// FindHistory returns the history with the given id, or nil.
func (s *Store) FindHistory(id string) *History {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil
	}
	for i := range s.Histories {
		if s.Histories[i].ID == id {
			return &s.Histories[i]
		}
	}
	return nil
}

// FindTemplate returns the template with the given id, or nil.
func (s *Store) FindTemplate(id string) *Template {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil
	}
	for i := range s.Templates {
		if s.Templates[i].ID == id {
			return &s.Templates[i]
		}
	}
	return nil
}

// CloneHistory returns a deep copy.
func CloneHistory(h History) History {
	h.Rows = row.CloneRows(h.Rows)
	return h
}

// CloneTemplate returns a deep copy.
func CloneTemplate(t Template) Template {
	t.Rows = row.CloneRows(t.Rows)
	return t
}

// IsTemplateHistoryEmpty reports whether a template-sourced history is
// still pristine: no score entered in any row. rowsOverride, when
// non-nil, is checked instead of the stored rows (the live present
// document for the selected history). Histories without template
// lineage are never "empty" in this sense.
func IsTemplateHistoryEmpty(h *History, rowsOverride []row.Row) bool {
	if h == nil || h.SourceTemplateID == "" {
		return false
	}
	rows := h.Rows
	if rowsOverride != nil {
		rows = rowsOverride
	}
	if len(rows) == 0 {
		return true
	}
	for _, r := range rows {
		examEmpty := !r.IncludeExam || r.Exam.IsEmpty()
		caEmpty := !r.IncludeCA || r.CA.IsEmpty()
		if !examEmpty || !caEmpty {
			return false
		}
	}
	return true
}

// SortHistories orders for display: pinned first, then most recently
// touched. Does not mutate the input.
func SortHistories(histories []History) []History {
	out := append([]History(nil), histories...)
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Pinned != out[j].Pinned {
			return out[i].Pinned
		}
		return out[i].UpdatedAt > out[j].UpdatedAt
	})
	return out
}
