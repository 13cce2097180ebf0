package registry

import (
	"encoding/json"
	"math"
	"strings"

	"semestercalc/internal/row"
)

// Loose payload shapes for persisted documents. Every field tolerates
// absence; rows tolerate per-row schema drift via row.Payload.

type templatePayload struct {
	ID       string         `json:"id"`
	Name     string         `json:"name"`
	Title    string         `json:"title"` // very old stores used title
	Year     string         `json:"year"`
	Semester string         `json:"semester"`
	Rows     *[]row.Payload `json:"rows"`
}

type historyPayload struct {
	ID               string         `json:"id"`
	Name             string         `json:"name"`
	Pinned           bool           `json:"pinned"`
	Rows             *[]row.Payload `json:"rows"`
	CreatedAt        *float64       `json:"createdAt"`
	UpdatedAt        *float64       `json:"updatedAt"`
	SourceTemplateID *string        `json:"sourceTemplateId"`
}

type presentPayload struct {
	Rows *[]row.Payload `json:"rows"`
}

type storePayload struct {
	Templates         []templatePayload `json:"templates"`
	Histories         *[]historyPayload `json:"histories"`
	SelectedHistoryID *string           `json:"selectedHistoryId"`
	HistoryCount      *float64          `json:"historyCount"`

	// Legacy single-workspace fields (pre-histories format).
	Present    *presentPayload `json:"present"`
	TemplateID *string         `json:"templateId"`
}

// NormalizeStore decodes and repairs a persisted store document.
// Malformed or absent data falls back to the seeded default store;
// individual broken entries are dropped rather than failing the load.
// A legacy single-workspace document is migrated into a one-history
// store. nowMs stamps migrated or timestamp-less histories.
func NormalizeStore(data []byte, nowMs int64) Store {
	if len(data) == 0 {
		return EmptyStore()
	}
	var parsed storePayload
	if err := json.Unmarshal(data, &parsed); err != nil {
		return EmptyStore()
	}

	templates := mergeTemplates(seedTemplates(), parsed.Templates)

	if parsed.Histories == nil {
		migrated := migrateLegacyStore(parsed, templates, nowMs)
		migrated.Templates = templates
		return migrated
	}

	histories := make([]History, 0, len(*parsed.Histories))
	for _, hp := range *parsed.Histories {
		if h := normalizeHistory(hp, nowMs); h != nil {
			histories = append(histories, *h)
		}
	}

	selected := ""
	if parsed.SelectedHistoryID != nil {
		selected = strings.TrimSpace(*parsed.SelectedHistoryID)
	}
	selectedExists := false
	for _, h := range histories {
		if h.ID == selected {
			selectedExists = true
			break
		}
	}
	if !selectedExists {
		selected = ""
	}

	count := len(histories)
	if parsed.HistoryCount != nil && !math.IsNaN(*parsed.HistoryCount) && !math.IsInf(*parsed.HistoryCount, 0) {
		count = int(math.Floor(*parsed.HistoryCount))
		if count < 0 {
			count = 0
		}
	}

	return Store{
		Templates:         templates,
		Histories:         histories,
		SelectedHistoryID: selected,
		HistoryCount:      count,
	}
}

// EmptyStore returns the default store: seed templates, no histories.
func EmptyStore() Store {
	return Store{
		Templates: mergeTemplates(seedTemplates(), nil),
		Histories: []History{},
	}
}

func normalizeTemplate(tp templatePayload) *Template {
	id := strings.TrimSpace(tp.ID)
	if id == "" {
		return nil
	}

	name := strings.TrimSpace(tp.Name)
	if name == "" {
		name = strings.TrimSpace(tp.Title)
	}
	if name == "" {
		name = fallbackTemplateName
	}

	var rows []row.Row
	if tp.Rows != nil {
		rows = make([]row.Row, 0, len(*tp.Rows))
		for _, rp := range *tp.Rows {
			rows = append(rows, row.NormalizeRow(rp, true))
		}
	} else {
		rows = clearedRows(DefaultRows())
	}

	year := tp.Year
	if year == "" {
		year = "Custom"
	}
	semester := tp.Semester
	if semester == "" {
		semester = "--"
	}

	return &Template{ID: id, Name: name, Year: year, Semester: semester, Rows: rows}
}

func normalizeHistory(hp historyPayload, nowMs int64) *History {
	id := strings.TrimSpace(hp.ID)
	if id == "" {
		return nil
	}

	name := strings.TrimSpace(hp.Name)
	if name == "" {
		name = fallbackHistoryName
	}

	var rows []row.Row
	if hp.Rows != nil {
		rows = make([]row.Row, 0, len(*hp.Rows))
		for _, rp := range *hp.Rows {
			rows = append(rows, row.NormalizeRow(rp, false))
		}
	} else {
		rows = DefaultRows()
	}

	createdAt := timestampOr(hp.CreatedAt, nowMs)
	updatedAt := timestampOr(hp.UpdatedAt, nowMs)

	source := ""
	if hp.SourceTemplateID != nil {
		source = *hp.SourceTemplateID
	}

	return &History{
		ID:               id,
		Name:             name,
		Pinned:           hp.Pinned,
		Rows:             rows,
		CreatedAt:        createdAt,
		UpdatedAt:        updatedAt,
		SourceTemplateID: source,
	}
}

// mergeTemplates overlays persisted templates on the seeded defaults:
// a persisted template with a default's id replaces it in place, new
// ones append in order. The result is truncated to the storage cap.
func mergeTemplates(defaults []Template, persisted []templatePayload) []Template {
	byID := make(map[string]int, len(defaults))
	merged := make([]Template, 0, len(defaults)+len(persisted))

	for _, t := range defaults {
		byID[t.ID] = len(merged)
		merged = append(merged, t)
	}
	for _, tp := range persisted {
		t := normalizeTemplate(tp)
		if t == nil {
			continue
		}
		if at, exists := byID[t.ID]; exists {
			merged[at] = *t
		} else {
			byID[t.ID] = len(merged)
			merged = append(merged, *t)
		}
	}

	if len(merged) > MaxTemplateStorage {
		merged = merged[:MaxTemplateStorage]
	}
	return merged
}

// migrateLegacyStore lifts the pre-histories single-workspace format
// (a bare present document plus an optional template id) into a store
// with one synthetic history.
func migrateLegacyStore(parsed storePayload, templates []Template, nowMs int64) Store {
	if parsed.Present == nil || parsed.Present.Rows == nil {
		return Store{Histories: []History{}}
	}

	name := "Migrated History"
	source := ""
	if parsed.TemplateID != nil {
		source = *parsed.TemplateID
		for _, t := range templates {
			if t.ID == source {
				name = t.Name
				break
			}
		}
	}

	rows := make([]row.Row, 0, len(*parsed.Present.Rows))
	for _, rp := range *parsed.Present.Rows {
		rows = append(rows, row.NormalizeRow(rp, false))
	}

	migrated := History{
		ID:               "history-migrated-0",
		Name:             name,
		Rows:             rows,
		CreatedAt:        nowMs,
		UpdatedAt:        nowMs,
		SourceTemplateID: source,
	}

	return Store{
		Histories:         []History{migrated},
		SelectedHistoryID: migrated.ID,
		HistoryCount:      1,
	}
}

func timestampOr(v *float64, fallback int64) int64 {
	if v == nil || math.IsNaN(*v) || math.IsInf(*v, 0) {
		return fallback
	}
	return int64(*v)
}

func clearedRows(rows []row.Row) []row.Row {
	out := make([]row.Row, 0, len(rows))
	for _, r := range rows {
		out = append(out, row.CloneRow(r, true))
	}
	return out
}
