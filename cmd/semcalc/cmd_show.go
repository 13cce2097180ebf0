package main

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"semestercalc/internal/row"
)

// showCmd prints the current sheet
var showCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the current sheet: rows, per-module finals, semester average",
	RunE:  showWorkspace,
}

func showWorkspace(cmd *cobra.Command, args []string) error {
	selected := calc.SelectedHistoryID()
	if selected == "" {
		fmt.Println("No history selected; showing the default sheet.")
		fmt.Println("Start one with \"semcalc history new <template-id>\".")
	} else if h, ok := calc.HistoryByID(selected); ok {
		pin := ""
		if h.Pinned {
			pin = " [pinned]"
		}
		fmt.Printf("History: %s (%s)%s\n", h.Name, h.ID, pin)
	}
	fmt.Println()

	summary := calc.Summary()
	w := tabwriter.NewWriter(os.Stdout, 2, 4, 2, ' ', 0)
	fmt.Fprintln(w, "#\tMODULE\tCOEF\tEXAM\tCA\tWEIGHTS\tFINAL")
	for i, r := range summary.PerRow {
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\t%s\t%s\n",
			i+1, r.Name,
			orDash(string(r.Coef)), orDash(string(r.Exam)), orDash(string(r.CA)),
			weightsLabel(r.Row), orDash(string(r.ModuleFinal)))
	}
	w.Flush()

	fmt.Println()
	fmt.Printf("Sum of coefficients: %s\n", strconv.FormatFloat(summary.SumCoef, 'f', -1, 64))
	if summary.SemesterAvg.IsEmpty() {
		fmt.Println("Semester average:    --")
	} else {
		fmt.Printf("Semester average:    %s / 20\n", summary.SemesterAvg)
	}

	status := calc.Timeline()
	fmt.Printf("Timeline:            %d undo / %d redo\n", status.PastCount, status.FutureCount)
	return nil
}

func orDash(s string) string {
	if strings.TrimSpace(s) == "" {
		return "--"
	}
	return s
}

func weightsLabel(r row.Row) string {
	switch {
	case !r.IncludeExam:
		return "CA only"
	case !r.IncludeCA:
		return "Exam only"
	default:
		return fmt.Sprintf("%.0f/%.0f", r.ExamWeight*100, r.CAWeight*100)
	}
}
