package calculator

import (
	"semestercalc/internal/logging"
	"semestercalc/internal/row"
)

// Field names a directly editable row column.
type Field string

const (
	FieldName Field = "name"
	FieldCoef Field = "coef"
	FieldExam Field = "exam"
	FieldCA   Field = "ca"
)

// StatUpdates is a partial edit of a row's weighting controls. Nil
// fields are left untouched.
type StatUpdates struct {
	ExamWeight  *float64
	CAWeight    *float64
	IncludeExam *bool
	IncludeCA   *bool
}

// UpdateRow applies one keystroke-level edit to a row field. Grade and
// coefficient input runs through the typing filters, so an invalid
// character leaves the field as it was. Returns false when nothing
// changed (no history entry, no persistence).
func (c *Calculator) UpdateRow(index int, field Field, value string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.store.SelectedHistoryID == "" {
		return false
	}
	if index < 0 || index >= len(c.present.Rows) {
		return false
	}

	current := c.present.Rows[index]
	next := current

	switch field {
	case FieldName:
		if value == current.Name {
			return false
		}
		next.Name = value
	case FieldCoef:
		filtered := row.NormalizeCoefInput(value, string(current.Coef))
		if filtered == string(current.Coef) {
			return false
		}
		next.Coef = row.Numeric(filtered)
	case FieldExam:
		filtered := row.NormalizeGradeInput(value, string(current.Exam))
		if filtered == string(current.Exam) {
			return false
		}
		next.Exam = row.Numeric(filtered)
	case FieldCA:
		filtered := row.NormalizeGradeInput(value, string(current.CA))
		if filtered == string(current.CA) {
			return false
		}
		next.CA = row.Numeric(filtered)
	default:
		return false
	}

	next = row.NormalizeWeights(next)
	if row.IsSameRow(current, next) {
		return false
	}

	c.recorder.SchedulePush(c.present)
	c.present.Rows[index] = next
	c.syncAfterEdit()
	return true
}

// UpdateRowStats applies a weighting edit (weights, component
// includes). The result always re-establishes weight complementarity.
func (c *Calculator) UpdateRowStats(index int, updates StatUpdates) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.store.SelectedHistoryID == "" {
		return false
	}
	if index < 0 || index >= len(c.present.Rows) {
		return false
	}

	current := c.present.Rows[index]
	next := current
	if updates.ExamWeight != nil {
		next.ExamWeight = *updates.ExamWeight
	}
	if updates.CAWeight != nil {
		next.CAWeight = *updates.CAWeight
	}
	if updates.IncludeExam != nil {
		next.IncludeExam = *updates.IncludeExam
	}
	if updates.IncludeCA != nil {
		next.IncludeCA = *updates.IncludeCA
	}

	next = row.NormalizeWeights(next)
	if row.IsSameRow(current, next) {
		return false
	}

	c.recorder.SchedulePush(c.present)
	c.present.Rows[index] = next
	c.syncAfterEdit()
	return true
}

// AddRow appends a new module row built from the payload.
func (c *Calculator) AddRow(p row.Payload) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.store.SelectedHistoryID == "" {
		return false
	}

	newRow := row.NormalizeRow(p, false)
	c.recorder.SchedulePush(c.present)
	c.present.Rows = append(row.CloneRows(c.present.Rows), newRow)
	logging.Calculator("Added module %q", newRow.Name)
	c.syncAfterEdit()
	return true
}

// RemoveRow deletes the row at index.
func (c *Calculator) RemoveRow(index int) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.store.SelectedHistoryID == "" {
		return false
	}
	if index < 0 || index >= len(c.present.Rows) {
		return false
	}

	c.recorder.SchedulePush(c.present)
	rows := row.CloneRows(c.present.Rows)
	c.present.Rows = append(rows[:index], rows[index+1:]...)
	c.syncAfterEdit()
	return true
}
