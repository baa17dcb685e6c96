// Package project produces an estimated income year by carrying the latest
// observed year forward with age-banded nominal wage growth factors.
//
// The ASEC for an income year is not published until roughly 21 months after
// the year ends, so the newest observed year always lags. Projection fills
// that gap with an explicitly-flagged estimate; projected cells carry
// n_samples = 0 and an "estimated" marker so consumers can distinguish them
// from sampled data.
package project

import (
	"fmt"
	"math"
	"sort"
	"strconv"

	"github.com/okian/ageincome/internal/domain/model"
)

// Band maps an inclusive age range to a nominal growth factor.
type Band struct {
	Lo, Hi int
	Factor float64
}

// DefaultBands holds the 2024 -> 2025 growth factors derived from BLS Usual
// Weekly Earnings quarterly data and the Employment Cost Index. Younger
// workers saw the strongest nominal gains.
func DefaultBands() []Band {
	return []Band{
		{16, 24, 1.055},
		{25, 34, 1.045},
		{35, 44, 1.042},
		{45, 54, 1.038},
		{55, 64, 1.035},
		{65, 75, 1.033},
	}
}

// Factor returns the growth factor for an age, falling back to the nearest
// band for ages outside every range.
func Factor(age int, bands []Band) float64 {
	for _, b := range bands {
		if age >= b.Lo && age <= b.Hi {
			return b.Factor
		}
	}
	sorted := make([]Band, len(bands))
	copy(sorted, bands)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Lo < sorted[j].Lo })
	if age < sorted[0].Lo {
		return sorted[0].Factor
	}
	return sorted[len(sorted)-1].Factor
}

// Forward inserts a projected year derived from baseYear's cells. Percentile
// values and the mean are scaled by the age's growth factor and re-rounded to
// cents; the workforce estimate carries over and n_samples drops to zero.
// An existing toYear entry is overwritten, which lets a stale projection be
// refreshed in place.
func Forward(out *model.RunOutput, baseYear, toYear int, bands []Band) error {
	base, ok := out.Data[strconv.Itoa(baseYear)]
	if !ok {
		return fmt.Errorf("%w: base year %d", ErrBaseYearMissing, baseYear)
	}
	if len(bands) == 0 {
		bands = DefaultBands()
	}

	projected := make(map[string]model.BucketSummary, len(base))
	for ageKey, cell := range base {
		age, err := strconv.Atoi(ageKey)
		if err != nil {
			continue
		}
		factor := Factor(age, bands)

		set := make(model.PercentileSet, len(cell.Percentiles))
		for rank, value := range cell.Percentiles {
			set[rank] = roundCents(value * factor)
		}
		projected[ageKey] = model.BucketSummary{
			Percentiles:  set,
			Mean:         roundCents(cell.Mean * factor),
			NSamples:     0,
			EstWorkforce: cell.EstWorkforce,
			Estimated:    true,
		}
	}

	out.Data[strconv.Itoa(toYear)] = projected
	out.Metadata.Projection = fmt.Sprintf(
		"Income year %d projected from %d ASEC using age-differentiated BLS wage growth factors; not observed data",
		toYear, baseYear)
	return nil
}

func roundCents(v float64) float64 {
	return math.Round(v*100) / 100
}
