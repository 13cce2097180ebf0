package registry

import (
	"fmt"
	"strings"
)

// sanitizeSegment slugs a display name for use inside an id: lowercase,
// runs of non-alphanumerics collapsed to single dashes, edges trimmed.
// Falls back to "item" so an all-punctuation name still slugs.
func sanitizeSegment(value string) string {
	var b strings.Builder
	lastDash := true // suppress a leading dash
	for _, r := range strings.ToLower(strings.TrimSpace(value)) {
		isAlnum := (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9')
		if isAlnum {
			b.WriteRune(r)
			lastDash = false
		} else if !lastDash {
			b.WriteByte('-')
			lastDash = true
		}
	}
	slug := strings.TrimRight(b.String(), "-")
	if slug == "" {
		return "item"
	}
	return slug
}

func historyID(name string, count int) string {
	return fmt.Sprintf("history-%s-%d", sanitizeSegment(name), count)
}

func templateID(name string, count int) string {
	return fmt.Sprintf("template-%s-%d", sanitizeSegment(name), count)
}

// NextUniqueHistoryID derives a collision-free history id: the slug of
// the name plus the smallest counter >= startCount that is not already
// taken. usedCount reports the counter actually consumed so the caller
// can advance the store's monotonic disambiguation counter past it.
func (s *Store) NextUniqueHistoryID(name string, startCount int) (id string, usedCount int) {
	existing := make(map[string]struct{}, len(s.Histories))
	for _, h := range s.Histories {
		existing[h.ID] = struct{}{}
	}

	count := startCount
	if count < 0 {
		count = 0
	}
	id = historyID(name, count)
	for {
		if _, taken := existing[id]; !taken {
			return id, count
		}
		count++
		id = historyID(name, count)
	}
}

// NextUniqueTemplateID derives a collision-free template id, starting
// the counter at the current template count.
func (s *Store) NextUniqueTemplateID(name string) string {
	existing := make(map[string]struct{}, len(s.Templates))
	for _, t := range s.Templates {
		existing[t.ID] = struct{}{}
	}

	count := len(s.Templates)
	id := templateID(name, count)
	for {
		if _, taken := existing[id]; !taken {
			return id
		}
		count++
		id = templateID(name, count)
	}
}
