// Package config defines the run configuration and its loading hooks.
//
// Conventions:
// - Provide New() to build a Config with defaults.
// - Load(ctx) layers defaults, an optional YAML file, and env vars.
// - External errors must be wrapped via this package's error helpers.
//
// Every field that affects the statistics (income variable, weight variable,
// screen codes, percentile ranks, exclusions) is threaded explicitly through
// the pipeline and recorded verbatim in the artifact metadata; nothing is
// held as ambient global state.
package config

import (
	"runtime"
)

// Config contains the full run configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// InputPath points at the IPUMS extract (CSV, optionally .gz).
	// Empty means auto-detect among the conventional extract names.
	InputPath string `koanf:"input"`

	// OutputPath is the JSON artifact destination.
	OutputPath string `koanf:"output"`

	// IncomeVariable and WeightVariable name the extract columns used.
	IncomeVariable string `koanf:"income_variable"`
	WeightVariable string `koanf:"weight_variable"`

	// ScreenCodes lists accepted employment-status codes. Empty means the
	// default worker screen. Ignored when NoWorkerScreen is set.
	ScreenCodes    []int `koanf:"screen_codes"`
	NoWorkerScreen bool  `koanf:"no_worker_screen"`

	// IncludeZeroIncome keeps zero-income records in the population.
	IncludeZeroIncome bool `koanf:"include_zero_income"`

	// Percentiles is the closed, strictly increasing rank list.
	Percentiles []float64 `koanf:"percentiles"`

	// AgeMin and AgeMax bound the ages that form output cells, inclusive.
	AgeMin int `koanf:"age_min"`
	AgeMax int `koanf:"age_max"`

	// MinCellSize omits cells with fewer valid observations; thin cells
	// make tail percentile estimates meaningless.
	MinCellSize int `koanf:"min_cell_size"`

	// WorkerCount sets how many buckets are summarized concurrently.
	WorkerCount int `koanf:"worker_count"`

	// WriteCSV also emits the flat companion CSV next to the artifact.
	WriteCSV bool `koanf:"write_csv"`
}

// DefaultPercentiles is the published rank list.
func DefaultPercentiles() []float64 {
	return []float64{1, 5, 10, 25, 50, 75, 90, 95, 99}
}

// New creates a Config with defaults matching the published methodology.
func New() *Config {
	return &Config{
		LogLevel:       "info",
		OutputPath:     "income_percentiles.json",
		IncomeVariable: "INCTOT",
		WeightVariable: "ASECWT",
		Percentiles:    DefaultPercentiles(),
		AgeMin:         16,
		AgeMax:         75,
		MinCellSize:    25,
		WorkerCount:    runtime.NumCPU(),
		WriteCSV:       true,
	}
}
