package row

// ComputedRow is a row annotated with its weighted final grade.
// ModuleFinal stays empty until at least one included score field has
// text in it; a module the user never graded shows blank, not 0.
type ComputedRow struct {
	Row
	ModuleFinal Numeric `json:"moduleFinal"`
}

// Summary is the aggregate over one history's rows.
type Summary struct {
	PerRow      []ComputedRow `json:"perRow"`
	SumCoef     float64       `json:"sumCoef"`
	SemesterAvg Numeric       `json:"semesterAvg"`
}

// ComputeSummary folds rows into per-module finals and the semester
// weighted average. Pure: rows are not mutated and the function is safe
// to run on every recompute. It always works from raw rows, never from
// a previous Summary.
//
// A row joins the semester aggregate only when it has at least one
// entered grade and a positive coefficient. Scores are clamped into the
// grade range here, at computation time; the raw text on the row is
// left exactly as typed.
func ComputeSummary(rows []Row) Summary {
	perRow := make([]ComputedRow, 0, len(rows))
	var sumWeighted, sumCoef float64

	for _, r := range rows {
		coef := r.Coef.Value()
		exam := clampRange(r.Exam.Value(), GradeMin, GradeMax)
		ca := clampRange(r.CA.Value(), GradeMin, GradeMax)
		examWeight := clampRange(r.ExamWeight, 0, 1)
		caWeight := clampRange(r.CAWeight, 0, 1)

		var activeWeight, rawFinal float64
		if r.IncludeExam {
			activeWeight += examWeight
			rawFinal += exam * examWeight
		}
		if r.IncludeCA {
			activeWeight += caWeight
			rawFinal += ca * caWeight
		}

		hasExamGrade := r.IncludeExam && !r.Exam.IsEmpty()
		hasCAGrade := r.IncludeCA && !r.CA.IsEmpty()
		hasAnyGrade := hasExamGrade || hasCAGrade

		var moduleFinal float64
		if activeWeight > 0 {
			moduleFinal = rawFinal / activeWeight
		}

		if hasAnyGrade && coef > 0 {
			sumWeighted += moduleFinal * coef
			sumCoef += coef
		}

		computed := ComputedRow{Row: r}
		if hasAnyGrade {
			computed.ModuleFinal = formatNumeric(Round2(moduleFinal))
		}
		perRow = append(perRow, computed)
	}

	summary := Summary{PerRow: perRow, SumCoef: sumCoef}
	if sumCoef > 0 {
		summary.SemesterAvg = formatNumeric(Round2(sumWeighted / sumCoef))
	}
	return summary
}
