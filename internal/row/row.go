// Package row implements the module row model: normalization of row
// fields, exam/CA weight complementarity, numeric text input filtering,
// and the summary engine that folds rows into per-module finals and a
// semester average.
package row

import (
	"bytes"
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

// Grade bounds and row defaults.
const (
	GradeMin = 0.0
	GradeMax = 20.0

	DefaultExamWeight = 0.6
	DefaultCAWeight   = 0.4

	// DefaultName is used when a row payload carries no usable name.
	DefaultName = "New module"
)

// Numeric is numeric text as the user typed it. The empty string is a
// distinct "not entered" state, never conflated with 0. Mid-edit text
// such as "3." is preserved verbatim so typing is not disrupted.
//
// On the wire it accepts both JSON numbers and JSON strings (older
// stores persisted whichever form the value happened to be in) and
// marshals canonical numeric text back as a number.
type Numeric string

// UnmarshalJSON accepts a JSON number, string, or null.
func (n *Numeric) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || string(data) == "null" {
		*n = ""
		return nil
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*n = Numeric(s)
		return nil
	}
	// Raw number token: keep its original text.
	var f float64
	if err := json.Unmarshal(data, &f); err != nil {
		return err
	}
	*n = Numeric(data)
	return nil
}

// MarshalJSON emits a number when the text is canonical numeric form,
// otherwise a string (covers "" and in-edit text like "3." or "3.50").
func (n Numeric) MarshalJSON() ([]byte, error) {
	if f, ok := n.Float(); ok {
		canonical := strconv.FormatFloat(f, 'f', -1, 64)
		if string(n) == canonical {
			return []byte(canonical), nil
		}
	}
	return json.Marshal(string(n))
}

// Float parses the text as a number. Returns false for empty or
// non-numeric text.
func (n Numeric) Float() (float64, bool) {
	s := strings.TrimSpace(string(n))
	if s == "" {
		return 0, false
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsInf(f, 0) || math.IsNaN(f) {
		return 0, false
	}
	return f, true
}

// Value coerces the text to a number the way the summary engine sees
// it: empty and non-numeric text both count as 0.
func (n Numeric) Value() float64 {
	f, ok := n.Float()
	if !ok {
		return 0
	}
	return f
}

// IsEmpty reports whether no value has been entered.
func (n Numeric) IsEmpty() bool {
	return strings.TrimSpace(string(n)) == ""
}

// Row is one graded module entry. All invariants (weight
// complementarity, at-least-one-include) are established by
// NormalizeRow/NormalizeWeights at every construction boundary, so a
// Row in circulation can be trusted without re-checking.
type Row struct {
	Name        string  `json:"name"`
	Coef        Numeric `json:"coef"`
	Exam        Numeric `json:"exam"`
	CA          Numeric `json:"ca"`
	ExamWeight  float64 `json:"examWeight"`
	CAWeight    float64 `json:"caWeight"`
	IncludeExam bool    `json:"includeExam"`
	IncludeCA   bool    `json:"includeCa"`
}

// Payload is a loosely-typed row as it arrives from persisted JSON, a
// template, or a shell command. Missing fields take defaults during
// normalization.
type Payload struct {
	Name        string   `json:"name"`
	Coef        *Numeric `json:"coef"`
	Exam        *Numeric `json:"exam"`
	CA          *Numeric `json:"ca"`
	ExamWeight  *Numeric `json:"examWeight"`
	CAWeight    *Numeric `json:"caWeight"`
	IncludeExam *bool    `json:"includeExam"`
	IncludeCA   *bool    `json:"includeCa"`
}

// PayloadFromRow converts an existing row back into a payload, used
// when cloning rows between templates and histories.
func PayloadFromRow(r Row) Payload {
	coef, exam, ca := r.Coef, r.Exam, r.CA
	examW := Numeric(strconv.FormatFloat(r.ExamWeight, 'f', -1, 64))
	caW := Numeric(strconv.FormatFloat(r.CAWeight, 'f', -1, 64))
	includeExam, includeCA := r.IncludeExam, r.IncludeCA
	return Payload{
		Name:        r.Name,
		Coef:        &coef,
		Exam:        &exam,
		CA:          &ca,
		ExamWeight:  &examW,
		CAWeight:    &caW,
		IncludeExam: &includeExam,
		IncludeCA:   &includeCA,
	}
}

// NormalizeRow builds a well-formed Row from a payload: trims and
// defaults the name, clamps coef to >= 0, clamps weights into [0,1],
// clears scores when clearScores is set (template creation), and runs
// weight renormalization. Idempotent: normalizing an already-normalized
// row returns it unchanged.
func NormalizeRow(p Payload, clearScores bool) Row {
	name := strings.TrimSpace(p.Name)
	if name == "" {
		name = DefaultName
	}

	coefValue := 1.0
	if p.Coef != nil {
		coefValue = p.Coef.Value()
	}
	coefValue = math.Max(0, coefValue)

	var exam, ca Numeric
	if !clearScores {
		if p.Exam != nil {
			exam = *p.Exam
		}
		if p.CA != nil {
			ca = *p.CA
		}
	}

	examWeight := DefaultExamWeight
	if p.ExamWeight != nil {
		examWeight = clampRange(p.ExamWeight.Value(), 0, 1)
	}
	caWeight := DefaultCAWeight
	if p.CAWeight != nil {
		caWeight = clampRange(p.CAWeight.Value(), 0, 1)
	}

	includeExam, includeCA := true, true
	if p.IncludeExam != nil {
		includeExam = *p.IncludeExam
	}
	if p.IncludeCA != nil {
		includeCA = *p.IncludeCA
	}

	return NormalizeWeights(Row{
		Name:        name,
		Coef:        formatNumeric(coefValue),
		Exam:        exam,
		CA:          ca,
		ExamWeight:  examWeight,
		CAWeight:    caWeight,
		IncludeExam: includeExam,
		IncludeCA:   includeCA,
	})
}

// CloneRow re-normalizes a row for use in a new history or template.
// With clearScores set the exam and CA entries are blanked (template
// rows never carry scores).
func CloneRow(r Row, clearScores bool) Row {
	return NormalizeRow(PayloadFromRow(r), clearScores)
}

// NormalizeWeights enforces the include/weight invariants:
//
//   - at least one of IncludeExam/IncludeCA is true (exam wins a tie);
//   - a single included component takes the full weight ({1,0}/{0,1});
//   - with both included, weights are rescaled to sum to exactly 1,
//     where the CA weight is derived as round2(1-examWeight) so the
//     pair is complementary with no floating drift.
//
// Deterministic and idempotent: the same raw weights always produce the
// same normalized pair.
func NormalizeWeights(r Row) Row {
	includeExam := r.IncludeExam
	includeCA := r.IncludeCA
	if !includeExam && !includeCA {
		includeExam = true
	}

	examWeight := clampRange(r.ExamWeight, 0, 1)
	caWeight := clampRange(r.CAWeight, 0, 1)

	switch {
	case !includeExam:
		examWeight, caWeight = 0, 1
	case !includeCA:
		examWeight, caWeight = 1, 0
	default:
		total := examWeight + caWeight
		if total <= 0 {
			examWeight, caWeight = DefaultExamWeight, DefaultCAWeight
		} else {
			examWeight = Round2(examWeight / total)
			caWeight = Round2(1 - examWeight)
		}
	}

	r.IncludeExam = includeExam
	r.IncludeCA = includeCA
	r.ExamWeight = examWeight
	r.CAWeight = caWeight
	return r
}

// IsSameRow reports structural equality over every row field. Used to
// skip no-op updates so they neither touch the timeline nor schedule a
// persist.
func IsSameRow(a, b Row) bool {
	return a.Name == b.Name &&
		a.Coef == b.Coef &&
		a.Exam == b.Exam &&
		a.CA == b.CA &&
		a.ExamWeight == b.ExamWeight &&
		a.CAWeight == b.CAWeight &&
		a.IncludeExam == b.IncludeExam &&
		a.IncludeCA == b.IncludeCA
}

// RowsEqual reports structural equality of two row slices.
func RowsEqual(a, b []Row) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !IsSameRow(a[i], b[i]) {
			return false
		}
	}
	return true
}

// CloneRows returns an independent copy of rows. Row has no reference
// fields, so a slice copy is a deep copy.
func CloneRows(rows []Row) []Row {
	if rows == nil {
		return nil
	}
	out := make([]Row, len(rows))
	copy(out, rows)
	return out
}

// Round2 rounds half away from zero to 2 decimals. This is the only
// rounding rule in the engine; every displayed value goes through it.
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}

func clampRange(v, min, max float64) float64 {
	if math.IsNaN(v) {
		v = 0
	}
	return math.Min(max, math.Max(min, v))
}

// formatNumeric renders a float as canonical numeric text: integers
// without a decimal part, fractions trimmed of trailing zeros.
func formatNumeric(v float64) Numeric {
	if math.IsInf(v, 0) || math.IsNaN(v) {
		return ""
	}
	return Numeric(strconv.FormatFloat(v, 'f', -1, 64))
}
