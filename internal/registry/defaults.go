package registry

import (
	"strconv"

	"semestercalc/internal/row"
)

// seedRow builds a blueprint row with no scores entered.
func seedRow(name string, coef int, opts ...func(*row.Row)) row.Row {
	r := row.Row{
		Name:        name,
		Coef:        row.Numeric(strconv.Itoa(coef)),
		ExamWeight:  row.DefaultExamWeight,
		CAWeight:    row.DefaultCAWeight,
		IncludeExam: true,
		IncludeCA:   true,
	}
	for _, opt := range opts {
		opt(&r)
	}
	return row.NormalizeWeights(r)
}

func weighted(exam, ca float64) func(*row.Row) {
	return func(r *row.Row) {
		r.ExamWeight = exam
		r.CAWeight = ca
	}
}

func examOnly() func(*row.Row) {
	return func(r *row.Row) {
		r.ExamWeight = 1
		r.CAWeight = 0
		r.IncludeCA = false
	}
}

// DefaultRows is the row set a fresh workspace starts with (the first
// seed template's modules).
func DefaultRows() []row.Row {
	return []row.Row{
		seedRow("Algorithmique et Complexite avancees", 4),
		seedRow("BDD: Administration et architecture", 4),
		seedRow("Fondements de l'IA (FIA)", 2),
		seedRow("Genie Logiciel", 4),
		seedRow("Systeme d'Exploitation: Synchro et comm (SYS2)", 3),
		seedRow("Techniques d'Optimisation (TOp)", 3),
	}
}

// seedTemplates are the built-in curriculum templates merged into every
// loaded store (persisted edits to them win by id).
func seedTemplates() []Template {
	return []Template{
		{
			ID:       "software-engineering-3y-s1-engineering",
			Name:     "Software Engineering",
			Year:     "3rd Year",
			Semester: "S1",
			Rows:     DefaultRows(),
		},
		{
			ID:       "cyber-security-3y-s1-engineering",
			Name:     "Cyber Security",
			Year:     "3rd Year",
			Semester: "S1",
			Rows: []row.Row{
				seedRow("Compilation", 4, weighted(0.5, 0.5)),
				seedRow("Software Engineering", 2),
				seedRow("Mathematical Tools for Cryptography", 4, weighted(0.5, 0.5)),
				seedRow("Operational Research", 4, weighted(0.5, 0.5)),
				seedRow("Python Programming", 2),
				seedRow("Web Development", 2),
				seedRow("Business Intelligence", 1, examOnly()),
				seedRow("Theory of Information and Coding", 1),
			},
		},
		{
			ID:       "computer-science-3y-s1-engineering",
			Name:     "Computer Science",
			Year:     "3rd Year",
			Semester: "S1",
			Rows: []row.Row{
				seedRow("SE", 3, weighted(0.5, 0.5)),
				seedRow("RO", 2, weighted(0.67, 0.33)),
				seedRow("RIP", 3, weighted(0.5, 0.5)),
				seedRow("ABD", 2, weighted(0.5, 0.5)),
				seedRow("IS", 2, weighted(0.5, 0.5)),
				seedRow("COMP", 2, weighted(0.67, 0.33)),
				seedRow("GL", 2, weighted(0.67, 0.33)),
			},
		},
	}
}
