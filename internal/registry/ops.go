package registry

import (
	"strings"

	"semestercalc/internal/row"
)

// TemplateDetails carries the user-supplied metadata for a new
// template; blank fields take defaults from the source history.
type TemplateDetails struct {
	Name     string
	Year     string
	Semester string
}

// TemplateUpdates is a partial template edit. Nil fields are left
// untouched; a provided field whose trimmed value is empty keeps the
// existing value (blank input never erases).
type TemplateUpdates struct {
	Name     *string
	Year     *string
	Semester *string
}

// CreateHistoryFromTemplate instantiates a template as a new history:
// rows cloned with scores as authored, fresh unique id, prepended to
// the list. Returns nil when the template is missing.
func (s *Store) CreateHistoryFromTemplate(templateID string, nowMs int64) *History {
	t := s.FindTemplate(templateID)
	if t == nil {
		return nil
	}

	id, usedCount := s.NextUniqueHistoryID(t.Name, s.HistoryCount)
	h := History{
		ID:               id,
		Name:             t.Name,
		Rows:             clonedRows(t.Rows),
		CreatedAt:        nowMs,
		UpdatedAt:        nowMs,
		SourceTemplateID: t.ID,
	}

	s.prependHistory(h, usedCount)
	return s.FindHistory(id)
}

// CreateHistoryFromModule creates a single-row history around one
// ad-hoc module.
func (s *Store) CreateHistoryFromModule(p row.Payload, nowMs int64) *History {
	name := strings.TrimSpace(p.Name)
	if name == "" {
		name = fallbackModuleName
	}

	id, usedCount := s.NextUniqueHistoryID(name, s.HistoryCount)
	h := History{
		ID:        id,
		Name:      name,
		Rows:      []row.Row{row.NormalizeRow(p, false)},
		CreatedAt: nowMs,
		UpdatedAt: nowMs,
	}

	s.prependHistory(h, usedCount)
	return s.FindHistory(id)
}

// DuplicateHistory clones a history under "<name> Copy". liveRows,
// when non-nil, are cloned instead of the stored rows — the caller
// passes the present document when duplicating the selected history so
// the copy reflects unmirrored edits. Lineage is preserved.
func (s *Store) DuplicateHistory(historyID string, liveRows []row.Row, nowMs int64) *History {
	source := s.FindHistory(historyID)
	if source == nil {
		return nil
	}

	rows := source.Rows
	if liveRows != nil {
		rows = liveRows
	}

	name := strings.TrimSpace(source.Name)
	if name == "" {
		name = "History"
	}
	name += " Copy"

	id, usedCount := s.NextUniqueHistoryID(name, s.HistoryCount)
	h := History{
		ID:               id,
		Name:             name,
		Rows:             clonedRows(rows),
		CreatedAt:        nowMs,
		UpdatedAt:        nowMs,
		SourceTemplateID: source.SourceTemplateID,
	}

	s.prependHistory(h, usedCount)
	return s.FindHistory(id)
}

// RenameHistory sets a new trimmed name and bumps updatedAt. False when
// the trimmed name is empty or the history is missing.
func (s *Store) RenameHistory(historyID, name string, nowMs int64) bool {
	trimmed := strings.TrimSpace(name)
	if trimmed == "" {
		return false
	}
	h := s.FindHistory(historyID)
	if h == nil {
		return false
	}
	h.Name = trimmed
	h.UpdatedAt = nowMs
	return true
}

// DeleteHistory removes a history from the collection. The caller is
// responsible for clearing its timeline tier and fixing selection.
func (s *Store) DeleteHistory(historyID string) bool {
	id := strings.TrimSpace(historyID)
	if id == "" {
		return false
	}
	for i := range s.Histories {
		if s.Histories[i].ID == id {
			s.Histories = append(s.Histories[:i], s.Histories[i+1:]...)
			return true
		}
	}
	return false
}

// ToggleHistoryPinned flips the pin flag and bumps updatedAt.
func (s *Store) ToggleHistoryPinned(historyID string, nowMs int64) bool {
	h := s.FindHistory(historyID)
	if h == nil {
		return false
	}
	h.Pinned = !h.Pinned
	h.UpdatedAt = nowMs
	return true
}

// UpdateHistoryRows mirrors the live present document into the stored
// history. No-op (false) when the rows are structurally unchanged, so
// recomputation-only renders do not touch updatedAt.
func (s *Store) UpdateHistoryRows(historyID string, rows []row.Row, nowMs int64) bool {
	h := s.FindHistory(historyID)
	if h == nil {
		return false
	}
	if row.RowsEqual(h.Rows, rows) {
		return false
	}
	h.Rows = row.CloneRows(rows)
	h.UpdatedAt = nowMs
	return true
}

// CreateTemplateFromHistory captures a history's rows as a reusable
// blueprint with scores cleared. Fails with nil when the template
// collection is at capacity (maxTemplates; <=0 means the default cap)
// or the source history is missing.
func (s *Store) CreateTemplateFromHistory(historyID string, details TemplateDetails, maxTemplates int) *Template {
	if maxTemplates <= 0 {
		maxTemplates = MaxTemplateStorage
	}
	if len(s.Templates) >= maxTemplates {
		return nil
	}

	h := s.FindHistory(historyID)
	if h == nil {
		return nil
	}

	name := strings.TrimSpace(details.Name)
	if name == "" {
		name = h.Name
	}
	year := strings.TrimSpace(details.Year)
	if year == "" {
		year = "Custom"
	}
	semester := strings.TrimSpace(details.Semester)
	if semester == "" {
		semester = "--"
	}

	t := Template{
		ID:       s.NextUniqueTemplateID(name),
		Name:     name,
		Year:     year,
		Semester: semester,
		Rows:     clearedRows(h.Rows),
	}
	s.Templates = append(s.Templates, t)
	return s.FindTemplate(t.ID)
}

// DeleteTemplate removes a template. Histories created from it keep
// their lineage id; they simply no longer resolve to a template.
func (s *Store) DeleteTemplate(templateID string) bool {
	id := strings.TrimSpace(templateID)
	if id == "" {
		return false
	}
	for i := range s.Templates {
		if s.Templates[i].ID == id {
			s.Templates = append(s.Templates[:i], s.Templates[i+1:]...)
			return true
		}
	}
	return false
}

// UpdateTemplate applies a partial metadata edit. Returns false when
// nothing effectively changed.
func (s *Store) UpdateTemplate(templateID string, updates TemplateUpdates) bool {
	t := s.FindTemplate(templateID)
	if t == nil {
		return false
	}

	next := func(update *string, current string) string {
		if update == nil {
			return current
		}
		if trimmed := strings.TrimSpace(*update); trimmed != "" {
			return trimmed
		}
		return current
	}

	name := next(updates.Name, t.Name)
	year := next(updates.Year, t.Year)
	semester := next(updates.Semester, t.Semester)

	if name == t.Name && year == t.Year && semester == t.Semester {
		return false
	}
	t.Name = name
	t.Year = year
	t.Semester = semester
	return true
}

func (s *Store) prependHistory(h History, usedCount int) {
	s.Histories = append([]History{h}, s.Histories...)
	if usedCount+1 > s.HistoryCount {
		s.HistoryCount = usedCount + 1
	}
}

func clonedRows(rows []row.Row) []row.Row {
	out := make([]row.Row, 0, len(rows))
	for _, r := range rows {
		out = append(out, row.CloneRow(r, false))
	}
	return out
}
