package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/okian/ageincome/internal/adapters/export"
	"github.com/okian/ageincome/internal/domain/project"
)

var projectFlags struct {
	input    string
	output   string
	baseYear int
	toYear   int
}

var projectCmd = &cobra.Command{
	Use:   "project",
	Short: "Append a projected income year to an existing artifact",
	Long: "project carries the newest observed income year forward with age-banded\n" +
		"BLS wage growth factors. Projected cells are flagged as estimated and carry\n" +
		"no sample count; they are an explicit stopgap until the next ASEC lands.",
	RunE: runProject,
}

func init() {
	f := projectCmd.Flags()
	f.StringVarP(&projectFlags.input, "input", "i", "income_percentiles.json", "artifact to read")
	f.StringVarP(&projectFlags.output, "output", "o", "", "output path (default: overwrite input)")
	f.IntVar(&projectFlags.baseYear, "base-year", 2024, "observed income year to project from")
	f.IntVar(&projectFlags.toYear, "to-year", 0, "income year to synthesize (default: base-year + 1)")
}

func runProject(cmd *cobra.Command, _ []string) error {
	output := projectFlags.output
	if output == "" {
		output = projectFlags.input
	}
	toYear := projectFlags.toYear
	if toYear == 0 {
		toYear = projectFlags.baseYear + 1
	}

	out, err := export.ReadJSON(projectFlags.input)
	if err != nil {
		return err
	}

	if _, exists := out.Data[fmt.Sprint(toYear)]; exists {
		fmt.Fprintf(cmd.ErrOrStderr(), "warning: income year %d already present; overwriting projection\n", toYear)
	}
	if err := project.Forward(out, projectFlags.baseYear, toYear, project.DefaultBands()); err != nil {
		return err
	}

	if err := export.WriteJSON(output, out); err != nil {
		return fmt.Errorf("write artifact: %w", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "projected income year %d from %d -> %s\n",
		toYear, projectFlags.baseYear, output)
	return nil
}
