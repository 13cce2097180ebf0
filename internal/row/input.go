package row

import (
	"math"
	"regexp"
	"strconv"
	"strings"
)

// numericPattern accepts partial numeric entry: digits with at most one
// decimal point, including "", ".", "3." and ".5".
var numericPattern = regexp.MustCompile(`^\d*\.?\d*$`)

type inputMode int

const (
	inputEmpty inputMode = iota
	inputInvalid
	inputPartial
	inputTrailingDot
	inputNumeric
)

// normalizedInput is the result of filtering one keystroke's worth of
// raw text against the previous field value.
type normalizedInput struct {
	mode  inputMode
	text  string
	value float64
}

// normalizeNumericText cleans raw typed text: trims, substitutes the
// first comma with a dot, and classifies the result. Invalid input
// resolves to the previous value so a stray character never clobbers
// the field.
func normalizeNumericText(raw, previous string) normalizedInput {
	next := strings.Replace(strings.TrimSpace(raw), ",", ".", 1)

	if next == "" {
		return normalizedInput{mode: inputEmpty}
	}
	if !numericPattern.MatchString(next) {
		return normalizedInput{mode: inputInvalid, text: previous}
	}
	if next == "." {
		return normalizedInput{mode: inputPartial, text: "0."}
	}
	if strings.HasSuffix(next, ".") {
		return normalizedInput{mode: inputTrailingDot, text: next}
	}

	value, err := strconv.ParseFloat(next, 64)
	if err != nil || math.IsInf(value, 0) || math.IsNaN(value) {
		return normalizedInput{mode: inputInvalid, text: previous}
	}
	return normalizedInput{mode: inputNumeric, text: next, value: value}
}

// NormalizeCoefInput filters live-typed coefficient text. Completed
// numbers are clamped to >= 0; a trailing decimal point is preserved so
// typing "3." does not snap back to "3"; out-of-pattern input reverts
// to the previous value.
func NormalizeCoefInput(raw, previous string) string {
	n := normalizeNumericText(raw, previous)
	switch n.mode {
	case inputEmpty:
		return ""
	case inputInvalid:
		return n.text
	case inputPartial:
		return "0."
	case inputTrailingDot:
		whole := strings.TrimSuffix(n.text, ".")
		if whole == "" {
			return "0."
		}
		wholeValue, err := strconv.ParseFloat(whole, 64)
		if err != nil {
			return previous
		}
		return formatInput(math.Max(0, wholeValue)) + "."
	}

	clamped := math.Max(0, n.value)
	if clamped == n.value && hasTrailingFractionZero(n.text) {
		// "3.50" stays as typed; reformatting would eat the zero the
		// user just entered.
		return n.text
	}
	return formatInput(clamped)
}

// NormalizeGradeInput filters live-typed exam/CA text the same way as
// NormalizeCoefInput but clamps completed entries into [GradeMin,
// GradeMax].
func NormalizeGradeInput(raw, previous string) string {
	n := normalizeNumericText(raw, previous)
	switch n.mode {
	case inputEmpty:
		return ""
	case inputInvalid:
		return n.text
	case inputPartial:
		return "0."
	case inputTrailingDot:
		whole := strings.TrimSuffix(n.text, ".")
		if whole == "" {
			return "0."
		}
		wholeValue, err := strconv.ParseFloat(whole, 64)
		if err != nil {
			return previous
		}
		clampedWhole := math.Min(GradeMax, math.Max(GradeMin, wholeValue))
		return formatInput(clampedWhole) + "."
	}

	clamped := math.Min(GradeMax, math.Max(GradeMin, n.value))
	if clamped == n.value && hasTrailingFractionZero(n.text) {
		return n.text
	}
	return formatInput(clamped)
}

// hasTrailingFractionZero reports whether the text has a fractional
// part ending in zero ("3.50", "1.0"), which the filters keep verbatim
// while the value is unchanged by clamping.
func hasTrailingFractionZero(text string) bool {
	dot := strings.IndexByte(text, '.')
	if dot < 0 {
		return false
	}
	fraction := text[dot+1:]
	return fraction != "" && strings.HasSuffix(fraction, "0")
}

// formatInput renders a filtered value back to text: integers plain,
// fractions rounded to 2 decimals with trailing zeros trimmed.
func formatInput(v float64) string {
	if math.IsInf(v, 0) || math.IsNaN(v) {
		return ""
	}
	return strconv.FormatFloat(Round2(v), 'f', -1, 64)
}
