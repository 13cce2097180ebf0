package main

import (
	"fmt"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"semestercalc/internal/row"
)

var moduleCoef string

// historyCmd manages grade-sheet histories
var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Manage grade-sheet histories",
}

var historyListCmd = &cobra.Command{
	Use:   "list",
	Short: "List histories, pinned first",
	RunE:  listHistories,
}

var historyNewCmd = &cobra.Command{
	Use:   "new [template-id]",
	Short: "Instantiate a template as a new history and select it",
	Long: `Creates a history from a template and selects it with a fresh timeline.

A template history that never receives a score is discarded again the
moment you navigate away from it, so experimenting is free.

Example:
  semcalc history new cyber-security-3y-s1-engineering`,
	Args: cobra.ExactArgs(1),
	RunE: newHistory,
}

var historyStartCmd = &cobra.Command{
	Use:   "start [module name]",
	Short: "Start an ad-hoc single-module history and select it",
	Args:  cobra.MinimumNArgs(1),
	RunE:  startHistory,
}

var historySelectCmd = &cobra.Command{
	Use:   "select [history-id]",
	Short: "Select a history, restoring its timeline and snapshots",
	Args:  cobra.ExactArgs(1),
	RunE:  selectHistory,
}

var historyRenameCmd = &cobra.Command{
	Use:   "rename [history-id] [new name]",
	Short: "Rename a history",
	Args:  cobra.MinimumNArgs(2),
	RunE:  renameHistory,
}

var historyDuplicateCmd = &cobra.Command{
	Use:   "duplicate [history-id]",
	Short: "Duplicate a history under \"<name> Copy\"",
	Args:  cobra.ExactArgs(1),
	RunE:  duplicateHistory,
}

var historyDeleteCmd = &cobra.Command{
	Use:   "delete [history-id]",
	Short: "Delete a history with its timeline and snapshots",
	Args:  cobra.ExactArgs(1),
	RunE:  deleteHistory,
}

var historyPinCmd = &cobra.Command{
	Use:   "pin [history-id]",
	Short: "Toggle a history's pin",
	Args:  cobra.ExactArgs(1),
	RunE:  pinHistory,
}

func listHistories(cmd *cobra.Command, args []string) error {
	histories := calc.Histories()
	if len(histories) == 0 {
		fmt.Println("No histories yet. Create one with \"semcalc history new <template-id>\".")
		return nil
	}

	selected := calc.SelectedHistoryID()
	w := tabwriter.NewWriter(os.Stdout, 2, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tMODULES\tUPDATED\t")
	for _, h := range histories {
		var marks []string
		if h.Pinned {
			marks = append(marks, "pinned")
		}
		if h.ID == selected {
			marks = append(marks, "selected")
		}
		fmt.Fprintf(w, "%s\t%s\t%d\t%s\t%s\n",
			h.ID, h.Name, len(h.Rows),
			time.UnixMilli(h.UpdatedAt).Format("2006-01-02 15:04"),
			strings.Join(marks, ","))
	}
	return w.Flush()
}

func newHistory(cmd *cobra.Command, args []string) error {
	templateID := args[0]
	h, ok := calc.CreateHistoryFromTemplate(templateID)
	if !ok {
		return fmt.Errorf("unknown template %q", templateID)
	}
	calc.SelectHistory(h.ID, true)
	logger.Info("History created", zap.String("id", h.ID), zap.String("template", templateID))
	fmt.Printf("Created and selected %q (%s)\n", h.Name, h.ID)
	return nil
}

func startHistory(cmd *cobra.Command, args []string) error {
	payload := row.Payload{Name: strings.Join(args, " ")}
	if moduleCoef != "" {
		coef := row.Numeric(moduleCoef)
		payload.Coef = &coef
	}
	h, ok := calc.CreateHistoryFromModule(payload)
	if !ok {
		return fmt.Errorf("could not create history")
	}
	calc.SelectHistory(h.ID, true)
	fmt.Printf("Created and selected %q (%s)\n", h.Name, h.ID)
	return nil
}

func selectHistory(cmd *cobra.Command, args []string) error {
	if !calc.SelectHistory(args[0], false) {
		return fmt.Errorf("unknown history %q", args[0])
	}
	return showWorkspace(cmd, nil)
}

func renameHistory(cmd *cobra.Command, args []string) error {
	id := args[0]
	name := strings.Join(args[1:], " ")
	if !calc.RenameHistory(id, name) {
		return fmt.Errorf("could not rename history %q (unknown id or blank name)", id)
	}
	fmt.Printf("Renamed %s to %q\n", id, strings.TrimSpace(name))
	return nil
}

func duplicateHistory(cmd *cobra.Command, args []string) error {
	dup, ok := calc.DuplicateHistory(args[0])
	if !ok {
		return fmt.Errorf("unknown history %q", args[0])
	}
	fmt.Printf("Duplicated as %q (%s)\n", dup.Name, dup.ID)
	return nil
}

func deleteHistory(cmd *cobra.Command, args []string) error {
	id := args[0]
	wasSelected := calc.SelectedHistoryID() == id
	if !calc.DeleteHistory(id) {
		return fmt.Errorf("unknown history %q", id)
	}
	logger.Info("History deleted", zap.String("id", id))
	fmt.Printf("Deleted %s\n", id)
	if wasSelected {
		fmt.Println("It was the selected history; the workspace is back to the default sheet.")
	}
	return nil
}

func pinHistory(cmd *cobra.Command, args []string) error {
	id := args[0]
	if !calc.ToggleHistoryPinned(id) {
		return fmt.Errorf("unknown history %q", id)
	}
	if h, ok := calc.HistoryByID(id); ok && h.Pinned {
		fmt.Printf("Pinned %q\n", h.Name)
	} else if ok {
		fmt.Printf("Unpinned %q\n", h.Name)
	}
	return nil
}

func init() {
	historyStartCmd.Flags().StringVar(&moduleCoef, "coef", "", "Coefficient for the first module")

	historyCmd.AddCommand(historyListCmd)
	historyCmd.AddCommand(historyNewCmd)
	historyCmd.AddCommand(historyStartCmd)
	historyCmd.AddCommand(historySelectCmd)
	historyCmd.AddCommand(historyRenameCmd)
	historyCmd.AddCommand(historyDuplicateCmd)
	historyCmd.AddCommand(historyDeleteCmd)
	historyCmd.AddCommand(historyPinCmd)
}
