package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"semestercalc/internal/calculator"
	"semestercalc/internal/row"
)

var (
	addCoef string
	addExam string
	addCA   string

	statExamWeight float64
	statCAWeight   float64
	statIncExam    bool
	statIncCA      bool
)

// moduleCmd edits the selected sheet's rows
var moduleCmd = &cobra.Command{
	Use:   "module",
	Short: "Edit the selected sheet's module rows",
}

var moduleAddCmd = &cobra.Command{
	Use:   "add [name]",
	Short: "Append a module row",
	Args:  cobra.MinimumNArgs(1),
	RunE:  addModule,
}

var moduleSetCmd = &cobra.Command{
	Use:   "set [row] [field] [value]",
	Short: "Set a row field: name, coef, exam or ca",
	Long: `Sets one field of a row (rows are numbered from 1, as printed by show).

Grade and coefficient input goes through the same typing filters as the
web sheet: stray characters leave the field untouched, grades clamp
into 0..20, coefficients clamp at 0.

Examples:
  semcalc module set 3 exam 14.5
  semcalc module set 3 name "Genie Logiciel"`,
	Args: cobra.ExactArgs(3),
	RunE: setModule,
}

var moduleStatsCmd = &cobra.Command{
	Use:   "stats [row]",
	Short: "Adjust a row's exam/CA weighting and inclusion",
	Long: `Adjusts how a module's final is weighted. Weights are renormalized
against their sum; excluding a component moves all weight to the other.

Examples:
  semcalc module stats 2 --exam-weight 0.7 --ca-weight 0.3
  semcalc module stats 2 --include-ca=false`,
	Args: cobra.ExactArgs(1),
	RunE: statModule,
}

var moduleRemoveCmd = &cobra.Command{
	Use:   "remove [row]",
	Short: "Remove a module row",
	Args:  cobra.ExactArgs(1),
	RunE:  removeModule,
}

// parseRowIndex converts a 1-based row number from the command line to
// the 0-based index the engine uses.
func parseRowIndex(arg string) (int, error) {
	n, err := strconv.Atoi(arg)
	if err != nil || n < 1 {
		return 0, fmt.Errorf("invalid row number %q (rows are numbered from 1)", arg)
	}
	return n - 1, nil
}

func addModule(cmd *cobra.Command, args []string) error {
	if err := requireSelection(); err != nil {
		return err
	}

	payload := row.Payload{Name: strings.Join(args, " ")}
	if addCoef != "" {
		v := row.Numeric(addCoef)
		payload.Coef = &v
	}
	if addExam != "" {
		v := row.Numeric(addExam)
		payload.Exam = &v
	}
	if addCA != "" {
		v := row.Numeric(addCA)
		payload.CA = &v
	}

	if !calc.AddRow(payload) {
		return fmt.Errorf("could not add module")
	}
	fmt.Printf("Added module %d\n", len(calc.Rows()))
	return nil
}

func setModule(cmd *cobra.Command, args []string) error {
	if err := requireSelection(); err != nil {
		return err
	}

	index, err := parseRowIndex(args[0])
	if err != nil {
		return err
	}

	var field calculator.Field
	switch strings.ToLower(args[1]) {
	case "name":
		field = calculator.FieldName
	case "coef":
		field = calculator.FieldCoef
	case "exam":
		field = calculator.FieldExam
	case "ca":
		field = calculator.FieldCA
	default:
		return fmt.Errorf("unknown field %q (expected name, coef, exam or ca)", args[1])
	}

	if index >= len(calc.Rows()) {
		return fmt.Errorf("row %d does not exist", index+1)
	}
	if !calc.UpdateRow(index, field, args[2]) {
		fmt.Println("No change.")
		return nil
	}
	printRowLine(index)
	return nil
}

func statModule(cmd *cobra.Command, args []string) error {
	if err := requireSelection(); err != nil {
		return err
	}

	index, err := parseRowIndex(args[0])
	if err != nil {
		return err
	}
	if index >= len(calc.Rows()) {
		return fmt.Errorf("row %d does not exist", index+1)
	}

	var updates calculator.StatUpdates
	if cmd.Flags().Changed("exam-weight") {
		updates.ExamWeight = &statExamWeight
	}
	if cmd.Flags().Changed("ca-weight") {
		updates.CAWeight = &statCAWeight
	}
	if cmd.Flags().Changed("include-exam") {
		updates.IncludeExam = &statIncExam
	}
	if cmd.Flags().Changed("include-ca") {
		updates.IncludeCA = &statIncCA
	}

	if !calc.UpdateRowStats(index, updates) {
		fmt.Println("No change.")
		return nil
	}
	printRowLine(index)
	return nil
}

func removeModule(cmd *cobra.Command, args []string) error {
	if err := requireSelection(); err != nil {
		return err
	}

	index, err := parseRowIndex(args[0])
	if err != nil {
		return err
	}
	rows := calc.Rows()
	if index >= len(rows) {
		return fmt.Errorf("row %d does not exist", index+1)
	}
	name := rows[index].Name
	if !calc.RemoveRow(index) {
		return fmt.Errorf("could not remove row %d", index+1)
	}
	fmt.Printf("Removed %q\n", name)
	return nil
}

func printRowLine(index int) {
	summary := calc.Summary()
	if index >= len(summary.PerRow) {
		return
	}
	r := summary.PerRow[index]
	fmt.Printf("%d. %s  coef=%s exam=%s ca=%s weights=%s final=%s\n",
		index+1, r.Name,
		orDash(string(r.Coef)), orDash(string(r.Exam)), orDash(string(r.CA)),
		weightsLabel(r.Row), orDash(string(r.ModuleFinal)))
	if !summary.SemesterAvg.IsEmpty() {
		fmt.Printf("Semester average: %s / 20\n", summary.SemesterAvg)
	}
}

func init() {
	moduleAddCmd.Flags().StringVar(&addCoef, "coef", "", "Coefficient")
	moduleAddCmd.Flags().StringVar(&addExam, "exam", "", "Exam score")
	moduleAddCmd.Flags().StringVar(&addCA, "ca", "", "Continuous assessment score")

	moduleStatsCmd.Flags().Float64Var(&statExamWeight, "exam-weight", 0, "Exam weight (0..1)")
	moduleStatsCmd.Flags().Float64Var(&statCAWeight, "ca-weight", 0, "CA weight (0..1)")
	moduleStatsCmd.Flags().BoolVar(&statIncExam, "include-exam", true, "Include the exam component")
	moduleStatsCmd.Flags().BoolVar(&statIncCA, "include-ca", true, "Include the CA component")

	moduleCmd.AddCommand(moduleAddCmd)
	moduleCmd.AddCommand(moduleSetCmd)
	moduleCmd.AddCommand(moduleStatsCmd)
	moduleCmd.AddCommand(moduleRemoveCmd)
}
