package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/okian/ageincome/internal/adapters/export"
	"github.com/okian/ageincome/internal/app"
	"github.com/okian/ageincome/internal/config"
	"github.com/okian/ageincome/internal/domain/model"
	"github.com/okian/ageincome/pkg/logger"
)

var runFlags struct {
	input          string
	output         string
	noWorkerScreen bool
	includeZero    bool
	ageMin         int
	ageMax         int
	workers        int
	noCSV          bool
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Compute percentiles from an extract and write the artifact",
	RunE:  runRun,
}

func init() {
	f := runCmd.Flags()
	f.StringVarP(&runFlags.input, "input", "i", "", "path to the IPUMS extract (default: auto-detect)")
	f.StringVarP(&runFlags.output, "output", "o", "", "output JSON path")
	f.BoolVar(&runFlags.noWorkerScreen, "no-worker-screen", false, "include all persons, not just workers")
	f.BoolVar(&runFlags.includeZero, "include-zero", false, "include zero-income persons")
	f.IntVar(&runFlags.ageMin, "age-min", 0, "minimum age")
	f.IntVar(&runFlags.ageMax, "age-max", 0, "maximum age")
	f.IntVar(&runFlags.workers, "workers", 0, "concurrent bucket workers")
	f.BoolVar(&runFlags.noCSV, "no-csv", false, "skip the flat companion CSV")
}

func runRun(cmd *cobra.Command, _ []string) error {
	if err := logger.Init(); err != nil {
		return fmt.Errorf("initialize logging: %w", err)
	}
	log := logger.Get()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(ctx)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	applyRunFlags(cmd, cfg)
	// Flags can push an already-validated config back out of bounds.
	if err := cfg.Validate(); err != nil {
		return err
	}

	if err := logger.SetLevelString(cfg.LogLevel); err != nil {
		log.Warn(ctx, "invalid log_level; falling back to info", logger.String("log_level", cfg.LogLevel))
		_ = logger.SetLevelString("info")
	}

	if cfg.InputPath == "" {
		path, err := findExtract()
		if err != nil {
			return err
		}
		cfg.InputPath = path
	}
	log.Info(ctx, "processing extract", logger.String("input", cfg.InputPath))

	svc := app.New(cfg, app.WithLogger(log))
	out, diag, err := svc.Run(ctx)
	if err != nil {
		return fmt.Errorf("run failed: %w", err)
	}

	if err := export.WriteJSON(cfg.OutputPath, out); err != nil {
		return fmt.Errorf("write artifact: %w", err)
	}
	if cfg.WriteCSV {
		csvPath := csvSibling(cfg.OutputPath)
		if err := export.WriteCSV(csvPath, out); err != nil {
			return fmt.Errorf("write companion csv: %w", err)
		}
	}

	log.Info(ctx, "artifact written",
		logger.String("output", cfg.OutputPath),
		logger.Int("rows_read", diag.RowsRead),
		logger.Int("cells", diag.CellsEmitted),
	)
	printSummary(cmd.OutOrStdout(), out)
	return nil
}

// applyRunFlags lets explicit flags override file/env configuration.
func applyRunFlags(cmd *cobra.Command, cfg *config.Config) {
	f := cmd.Flags()
	if f.Changed("input") {
		cfg.InputPath = runFlags.input
	}
	if f.Changed("output") {
		cfg.OutputPath = runFlags.output
	}
	if f.Changed("no-worker-screen") {
		cfg.NoWorkerScreen = runFlags.noWorkerScreen
	}
	if f.Changed("include-zero") {
		cfg.IncludeZeroIncome = runFlags.includeZero
	}
	if f.Changed("age-min") {
		cfg.AgeMin = runFlags.ageMin
	}
	if f.Changed("age-max") {
		cfg.AgeMax = runFlags.ageMax
	}
	if f.Changed("workers") {
		cfg.WorkerCount = runFlags.workers
	}
	if f.Changed("no-csv") {
		cfg.WriteCSV = !runFlags.noCSV
	}
}

// findExtract probes the conventional extract names in the working
// directory, newest naming first.
func findExtract() (string, error) {
	candidates := []string{
		"cps_asec.csv.gz", "cps_asec.csv",
		"cps_00001.csv.gz", "cps_00001.csv",
	}
	for _, c := range candidates {
		if _, err := os.Stat(c); err == nil {
			return c, nil
		}
	}
	return "", fmt.Errorf("no extract found; looked for %s (use --input)", strings.Join(candidates, ", "))
}

// csvSibling swaps the artifact's extension for .csv.
func csvSibling(jsonPath string) string {
	if strings.HasSuffix(jsonPath, ".json") {
		return strings.TrimSuffix(jsonPath, ".json") + ".csv"
	}
	return jsonPath + ".csv"
}

// printSummary traces one example age across all output years, mirroring
// the human check operators do first after a run.
func printSummary(w io.Writer, out *model.RunOutput) {
	const exampleAge = 29
	years := out.Years()
	if len(years) == 0 {
		fmt.Fprintln(w, "no cells emitted")
		return
	}
	fmt.Fprintf(w, "income years %d-%d (%d years)\n", years[0], years[len(years)-1], len(years))
	fmt.Fprintf(w, "age %d over time:\n", exampleAge)
	fmt.Fprintf(w, "%6s %12s %12s %12s %8s\n", "year", "p50", "p90", "p99", "n")
	for _, year := range years {
		cell, ok := out.Cell(year, exampleAge)
		if !ok {
			continue
		}
		fmt.Fprintf(w, "%6d %12.0f %12.0f %12.0f %8d\n",
			year, cell.Percentiles[50], cell.Percentiles[90], cell.Percentiles[99], cell.NSamples)
	}
}
