package config

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// Load builds a Config by layering defaults, optional file, and env vars.
// Order of precedence (low -> high):
//  1. defaults (New())
//  2. file (YAML) if AGEINCOME_CONFIG is set
//  3. env (prefix AGEINCOME_)
func Load(ctx context.Context) (*Config, error) {
	base := New()

	k := koanf.New(".")

	if path := os.Getenv("AGEINCOME_CONFIG"); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrLoadConfig, err)
		}
	}

	// Environment variables: AGEINCOME_INPUT, AGEINCOME_AGE_MIN, ...
	// Preserve underscores to match koanf tags on the struct.
	envProvider := env.Provider("AGEINCOME_", ".", func(s string) string {
		s = strings.ToLower(s)
		s = strings.TrimPrefix(s, "ageincome_")
		return s
	})
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrLoadConfig, err)
	}

	cfg := *base
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrLoadConfig, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate rejects configurations the engine cannot honor. Percentile ranks
// must form a strictly increasing set inside [0,100]; the rest are sanity
// bounds on the run parameters.
func (c *Config) Validate() error {
	if c.OutputPath == "" {
		return fmt.Errorf("%w: output must not be empty", ErrInvalidConfig)
	}
	if len(c.Percentiles) == 0 {
		return fmt.Errorf("%w: percentiles must not be empty", ErrInvalidConfig)
	}
	prev := -1.0
	for _, r := range c.Percentiles {
		if r < 0 || r > 100 {
			return fmt.Errorf("%w: percentile rank %v outside [0,100]", ErrInvalidConfig, r)
		}
		if r <= prev {
			return fmt.Errorf("%w: percentile ranks must be strictly increasing", ErrInvalidConfig)
		}
		prev = r
	}
	if c.AgeMin > c.AgeMax {
		return fmt.Errorf("%w: age_min %d greater than age_max %d", ErrInvalidConfig, c.AgeMin, c.AgeMax)
	}
	if c.AgeMin < 0 {
		return fmt.Errorf("%w: age_min must not be negative", ErrInvalidConfig)
	}
	if c.MinCellSize < 1 {
		return fmt.Errorf("%w: min_cell_size must be at least 1", ErrInvalidConfig)
	}
	if c.WorkerCount < 1 {
		return fmt.Errorf("%w: worker_count must be at least 1", ErrInvalidConfig)
	}
	if c.IncomeVariable == "" || c.WeightVariable == "" {
		return fmt.Errorf("%w: income_variable and weight_variable must not be empty", ErrInvalidConfig)
	}
	return nil
}
