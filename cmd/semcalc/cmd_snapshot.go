package main

import (
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
)

// snapshotCmd manages named snapshots of the selected sheet
var snapshotCmd = &cobra.Command{
	Use:   "snapshot",
	Short: "Save and restore named snapshots of the selected sheet",
	Long: `Snapshots are manual save points, independent of the undo timeline.
Each history keeps its own collection, newest first. Restoring a
snapshot is itself undoable.`,
}

var snapshotSaveCmd = &cobra.Command{
	Use:   "save",
	Short: "Save the current sheet as a snapshot",
	RunE:  saveSnapshot,
}

var snapshotListCmd = &cobra.Command{
	Use:   "list",
	Short: "List the selected history's snapshots",
	RunE:  listSnapshots,
}

var snapshotRestoreCmd = &cobra.Command{
	Use:   "restore [snapshot-id]",
	Short: "Restore a snapshot (undoable)",
	Args:  cobra.ExactArgs(1),
	RunE:  restoreSnapshot,
}

var snapshotDeleteCmd = &cobra.Command{
	Use:   "delete [snapshot-id]",
	Short: "Delete a snapshot",
	Args:  cobra.ExactArgs(1),
	RunE:  deleteSnapshot,
}

func saveSnapshot(cmd *cobra.Command, args []string) error {
	if err := requireSelection(); err != nil {
		return err
	}
	snap, ok := calc.SaveSnapshot()
	if !ok {
		return fmt.Errorf("could not save snapshot")
	}
	fmt.Printf("Saved %q (%s)\n", snap.Label, snap.ID)
	return nil
}

func listSnapshots(cmd *cobra.Command, args []string) error {
	if err := requireSelection(); err != nil {
		return err
	}
	snapshots := calc.Snapshots()
	if len(snapshots) == 0 {
		fmt.Println("No snapshots yet. Save one with \"semcalc snapshot save\".")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 2, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tLABEL\tCREATED\tMODULES")
	for _, s := range snapshots {
		fmt.Fprintf(w, "%s\t%s\t%s\t%d\n",
			s.ID, s.Label,
			time.UnixMilli(s.CreatedAt).Format("2006-01-02 15:04:05"),
			len(s.State.Rows))
	}
	return w.Flush()
}

func restoreSnapshot(cmd *cobra.Command, args []string) error {
	if err := requireSelection(); err != nil {
		return err
	}
	if !calc.RestoreSnapshot(args[0]) {
		return fmt.Errorf("unknown snapshot %q", args[0])
	}
	fmt.Println("Snapshot restored (undo to go back).")
	return showWorkspace(cmd, nil)
}

func deleteSnapshot(cmd *cobra.Command, args []string) error {
	if err := requireSelection(); err != nil {
		return err
	}
	if !calc.DeleteSnapshot(args[0]) {
		return fmt.Errorf("unknown snapshot %q", args[0])
	}
	fmt.Printf("Deleted snapshot %s\n", args[0])
	return nil
}

func init() {
	snapshotCmd.AddCommand(snapshotSaveCmd)
	snapshotCmd.AddCommand(snapshotListCmd)
	snapshotCmd.AddCommand(snapshotRestoreCmd)
	snapshotCmd.AddCommand(snapshotDeleteCmd)
}
