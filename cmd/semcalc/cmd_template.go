package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"semestercalc/internal/registry"
)

var (
	templateName     string
	templateYear     string
	templateSemester string
)

// templateCmd manages reusable sheet templates
var templateCmd = &cobra.Command{
	Use:   "template",
	Short: "Manage reusable sheet templates",
}

var templateListCmd = &cobra.Command{
	Use:   "list",
	Short: "List templates",
	RunE:  listTemplates,
}

var templateCreateCmd = &cobra.Command{
	Use:   "create [history-id]",
	Short: "Capture a history as a template (scores cleared)",
	Long: `Captures a history's module layout as a reusable template. Scores are
never stored on templates; only names, coefficients and weightings.

Example:
  semcalc template create my-sheet-0 --name "My Plan" --year "4th Year" --semester S2`,
	Args: cobra.ExactArgs(1),
	RunE: createTemplate,
}

var templateUpdateCmd = &cobra.Command{
	Use:   "update [template-id]",
	Short: "Edit a template's name, year or semester",
	Args:  cobra.ExactArgs(1),
	RunE:  updateTemplate,
}

var templateDeleteCmd = &cobra.Command{
	Use:   "delete [template-id]",
	Short: "Delete a template (histories made from it are kept)",
	Args:  cobra.ExactArgs(1),
	RunE:  deleteTemplate,
}

func listTemplates(cmd *cobra.Command, args []string) error {
	templates := calc.Templates()
	w := tabwriter.NewWriter(os.Stdout, 2, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tYEAR\tSEMESTER\tMODULES")
	for _, t := range templates {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%d\n", t.ID, t.Name, t.Year, t.Semester, len(t.Rows))
	}
	return w.Flush()
}

func createTemplate(cmd *cobra.Command, args []string) error {
	historyID := args[0]
	t, ok := calc.CreateTemplateFromHistory(historyID, registry.TemplateDetails{
		Name:     templateName,
		Year:     templateYear,
		Semester: templateSemester,
	})
	if !ok {
		if _, found := calc.HistoryByID(historyID); !found {
			return fmt.Errorf("unknown history %q", historyID)
		}
		return fmt.Errorf("template storage is full (%d templates); delete one first", len(calc.Templates()))
	}
	fmt.Printf("Created template %q (%s)\n", t.Name, t.ID)
	return nil
}

func updateTemplate(cmd *cobra.Command, args []string) error {
	var updates registry.TemplateUpdates
	if cmd.Flags().Changed("name") {
		updates.Name = &templateName
	}
	if cmd.Flags().Changed("year") {
		updates.Year = &templateYear
	}
	if cmd.Flags().Changed("semester") {
		updates.Semester = &templateSemester
	}

	if !calc.UpdateTemplate(args[0], updates) {
		fmt.Println("No change.")
		return nil
	}
	t, _ := calc.TemplateByID(args[0])
	fmt.Printf("Updated %q (%s, %s)\n", t.Name, t.Year, t.Semester)
	return nil
}

func deleteTemplate(cmd *cobra.Command, args []string) error {
	if !calc.DeleteTemplate(args[0]) {
		return fmt.Errorf("unknown template %q", args[0])
	}
	fmt.Printf("Deleted template %s\n", args[0])
	return nil
}

func init() {
	for _, c := range []*cobra.Command{templateCreateCmd, templateUpdateCmd} {
		c.Flags().StringVar(&templateName, "name", "", "Template name")
		c.Flags().StringVar(&templateYear, "year", "", "Academic year label")
		c.Flags().StringVar(&templateSemester, "semester", "", "Semester label")
	}

	templateCmd.AddCommand(templateListCmd)
	templateCmd.AddCommand(templateCreateCmd)
	templateCmd.AddCommand(templateUpdateCmd)
	templateCmd.AddCommand(templateDeleteCmd)
}
