// Command ageincome computes population-representative income percentiles
// by single year of age and survey year from IPUMS-CPS ASEC microdata.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// version is set at build time via -ldflags.
var version = "dev"

var rootCmd = &cobra.Command{
	Use:   "ageincome",
	Short: "Income percentiles by age and year from CPS ASEC microdata",
	Long: "ageincome turns an IPUMS-CPS ASEC extract into a compact per-(year, age)\n" +
		"statistical summary: weighted percentiles, weighted mean, sample count and\n" +
		"estimated workforce, ready for the visualization layer.",
	CompletionOptions: cobra.CompletionOptions{
		HiddenDefaultCmd: true,
	},
}

func init() {
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(projectCmd)
	rootCmd.Version = version
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
