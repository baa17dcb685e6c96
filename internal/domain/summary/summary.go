// Package summary packages per-bucket statistics into the run artifact.
//
// Build is the unit the output schema is built around: one bucket's pairs in,
// one BucketSummary out. Assemble nests summaries by year and age and
// attaches the metadata block that records every parameter affecting the
// statistics.
package summary

import (
	"fmt"
	"math"
	"strconv"
	"time"

	"github.com/okian/ageincome/internal/domain/model"
	"github.com/okian/ageincome/internal/domain/stats"
)

// PercentileMethod names the interpolation rule for the methodology block.
const PercentileMethod = "Weighted linear interpolation (midpoint CDF)"

// Build computes one BucketSummary from a bucket's (value, weight) pairs.
// The caller guarantees a non-empty bucket; empty or invalid input is a
// contract violation surfaced as an error from the stats package.
// Income values are rounded to cents; the workforce estimate is truncated to
// a whole-person count.
func Build(pairs []stats.Pair, ranks []float64) (model.BucketSummary, error) {
	percentiles, err := stats.Percentiles(pairs, ranks)
	if err != nil {
		return model.BucketSummary{}, fmt.Errorf("percentiles: %w", err)
	}
	mean, err := stats.WeightedMean(pairs)
	if err != nil {
		return model.BucketSummary{}, fmt.Errorf("mean: %w", err)
	}

	set := make(model.PercentileSet, len(percentiles))
	for rank, value := range percentiles {
		set[rank] = round2(value)
	}
	return model.BucketSummary{
		Percentiles:  set,
		Mean:         round2(mean),
		NSamples:     len(pairs),
		EstWorkforce: math.Trunc(stats.TotalWeight(pairs)),
	}, nil
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// Params captures the run configuration that Assemble records verbatim in
// the artifact's metadata.
type Params struct {
	IncomeVariable string
	WeightVariable string
	Population     string // the screen configuration, rendered
	IncludeZero    bool
	Ranks          []float64
	// YearOffset is subtracted from each bucket's survey year to produce
	// the output's income-year keys. The ASEC asks about the prior
	// calendar year, so the offset is normally 1.
	YearOffset int
}

// Source and citation strings for the IPUMS-CPS ASEC extract.
const (
	description = "U.S. individual income percentiles by age and year"
	source      = "Census Bureau CPS ASEC via IPUMS-CPS"
	citation    = "Sarah Flood, Miriam King, Renae Rodgers, Steven Ruggles, " +
		"J. Robert Warren, et al. IPUMS CPS: Version 13.0 [dataset]. " +
		"Minneapolis, MN: IPUMS, 2025. https://doi.org/10.18128/D030.V13.0"
)

// Assemble builds the immutable RunOutput from all computed cells.
// Cells are keyed by (survey year, age); the emitted year keys are income
// years. generatedAt is injected so a run is reproducible byte for byte.
func Assemble(cells map[model.BucketKey]model.BucketSummary, p Params, generatedAt time.Time) *model.RunOutput {
	data := make(map[string]map[string]model.BucketSummary)
	for key, cell := range cells {
		year := strconv.Itoa(key.Year - p.YearOffset)
		if _, ok := data[year]; !ok {
			data[year] = make(map[string]model.BucketSummary)
		}
		data[year][strconv.Itoa(key.Age)] = cell
	}

	exclusions := "NIU, missing, zero, and negative values excluded"
	if p.IncludeZero {
		exclusions = "NIU, missing, and negative values excluded"
	}

	ranks := make([]float64, len(p.Ranks))
	copy(ranks, p.Ranks)

	return &model.RunOutput{
		Metadata: model.Metadata{
			Description: description,
			Source:      source,
			Citation:    citation,
			Methodology: model.Methodology{
				IncomeVariable:   p.IncomeVariable,
				WeightVariable:   p.WeightVariable,
				Population:       p.Population,
				IncomeType:       "Gross (pre-tax)",
				IncomeExclusions: exclusions,
				PercentileMethod: PercentileMethod,
			},
			PercentilesComputed: ranks,
			CPIU:                cpiTable(),
			GeneratedAt:         generatedAt.UTC().Format(time.RFC3339),
		},
		Data: data,
	}
}
