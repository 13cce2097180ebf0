package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

// undoCmd steps the sheet back one edit batch
var undoCmd = &cobra.Command{
	Use:   "undo",
	Short: "Undo the last edit batch",
	RunE:  runUndo,
}

// redoCmd reapplies the last undone state
var redoCmd = &cobra.Command{
	Use:   "redo",
	Short: "Redo the last undone edit",
	RunE:  runRedo,
}

// resetCmd clears the timeline, not undoable
var resetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Reset the sheet to its stored rows and clear the timeline",
	Long: `Restores the selected history's stored rows as the working sheet and
wipes its undo/redo timeline. This cannot be undone.`,
	RunE: runReset,
}

func runUndo(cmd *cobra.Command, args []string) error {
	if err := requireSelection(); err != nil {
		return err
	}
	if !calc.Undo() {
		fmt.Println("Nothing to undo.")
		return nil
	}
	status := calc.Timeline()
	fmt.Printf("Undone (%d undo / %d redo left)\n", status.PastCount, status.FutureCount)
	return nil
}

func runRedo(cmd *cobra.Command, args []string) error {
	if err := requireSelection(); err != nil {
		return err
	}
	if !calc.Redo() {
		fmt.Println("Nothing to redo.")
		return nil
	}
	status := calc.Timeline()
	fmt.Printf("Redone (%d undo / %d redo left)\n", status.PastCount, status.FutureCount)
	return nil
}

func runReset(cmd *cobra.Command, args []string) error {
	if err := requireSelection(); err != nil {
		return err
	}
	if !calc.ResetAll() {
		return fmt.Errorf("could not reset")
	}
	fmt.Println("Timeline cleared; sheet reset to stored rows.")
	return nil
}
