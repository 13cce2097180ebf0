// Package timeline implements the per-history undo/redo timeline: a
// bounded stack of past row documents, a queue of undone futures, and a
// debounced recorder that coalesces rapid edits into single history
// entries.
//
// Timelines are working memory, not durable content: they persist in a
// separate, more ephemeral storage tier than the Store document and an
// absent timeline is simply an empty one.
package timeline

import (
	"encoding/json"

	"semestercalc/internal/row"
)

// Document is one snapshot of a history's rows.
type Document struct {
	Rows []row.Row `json:"rows"`
}

// Clone returns an independent copy of the document.
func (d Document) Clone() Document {
	return Document{Rows: row.CloneRows(d.Rows)}
}

// NewDocument normalizes payload rows into a snapshot document.
func NewDocument(payloads []row.Payload) Document {
	rows := make([]row.Row, 0, len(payloads))
	for _, p := range payloads {
		rows = append(rows, row.NormalizeRow(p, false))
	}
	return Document{Rows: rows}
}

// Timeline is the serialized undo/redo state for one history.
type Timeline struct {
	Past   []Document `json:"past"`
	Future []Document `json:"future"`
}

// payloadDocument mirrors Document with loose row typing, so persisted
// timelines survive schema drift in individual rows. A nil Rows pointer
// marks an entry with no rows array at all, which is dropped.
type payloadDocument struct {
	Rows *[]row.Payload `json:"rows"`
}

type payloadTimeline struct {
	Past   []payloadDocument `json:"past"`
	Future []payloadDocument `json:"future"`
}

// ParsePayload decodes a persisted timeline document. Malformed JSON,
// a missing document, or entries without a rows array all degrade to
// empty rather than failing: a timeline that cannot be read is treated
// as one that never existed.
func ParsePayload(data []byte) Timeline {
	if len(data) == 0 {
		return Timeline{}
	}
	var parsed payloadTimeline
	if err := json.Unmarshal(data, &parsed); err != nil {
		return Timeline{}
	}
	return Timeline{
		Past:   normalizeEntries(parsed.Past),
		Future: normalizeEntries(parsed.Future),
	}
}

func normalizeEntries(entries []payloadDocument) []Document {
	out := make([]Document, 0, len(entries))
	for _, e := range entries {
		if e.Rows == nil {
			continue
		}
		out = append(out, NewDocument(*e.Rows))
	}
	return out
}
