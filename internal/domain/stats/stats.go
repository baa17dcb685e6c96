// Package stats implements the weighted statistics at the heart of the
// aggregation engine: weighted percentiles via linear interpolation on the
// midpoint cumulative weight distribution, and the weighted mean.
//
// The weighted definition differs materially from an unweighted percentile
// computed by ignoring the weight field; survey microdata aggregated without
// its weights silently produces a non-representative result.
package stats

import (
	"fmt"
	"math"
	"sort"
)

// Pair is one (value, weight) observation inside a bucket.
type Pair struct {
	Value  float64
	Weight float64
}

// Percentiles computes weighted percentiles for the given percent ranks.
//
// The pairs are sorted by value; the midpoint cumulative weight of the i-th
// sorted element is cum(i-1) + weight_i/2. For a rank r the target cumulative
// weight is r/100 * totalWeight, and the result is linearly interpolated
// between the two bracketing midpoints. Targets below the first midpoint or
// above the last clamp to the first/last value; there is no extrapolation
// beyond observed values.
//
// Empty input, a rank outside [0,100] or a non-positive weight is a contract
// violation on the caller's side and returns an error; callers must abort
// the run rather than emit a silently wrong statistic.
func Percentiles(pairs []Pair, ranks []float64) (map[float64]float64, error) {
	if len(pairs) == 0 {
		return nil, ErrNoObservations
	}
	for _, r := range ranks {
		if r < 0 || r > 100 || math.IsNaN(r) {
			return nil, fmt.Errorf("%w: rank %v", ErrRankOutOfRange, r)
		}
	}

	sorted := make([]Pair, len(pairs))
	copy(sorted, pairs)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Value < sorted[j].Value })

	// Midpoint cumulative weights. Compensated summation keeps the running
	// total stable across millions of small survey weights.
	midpoints := make([]float64, len(sorted))
	var cum kahan
	for i, p := range sorted {
		if p.Weight <= 0 || math.IsNaN(p.Weight) {
			return nil, fmt.Errorf("%w: weight %v at value %v", ErrNonPositiveWeight, p.Weight, p.Value)
		}
		midpoints[i] = cum.total() + p.Weight/2
		cum.add(p.Weight)
	}
	totalWeight := cum.total()

	out := make(map[float64]float64, len(ranks))
	for _, r := range ranks {
		out[r] = interpolate(sorted, midpoints, r/100*totalWeight)
	}
	return out, nil
}

// interpolate locates target on the midpoint cumulative axis and linearly
// interpolates the value between the bracketing observations.
func interpolate(sorted []Pair, midpoints []float64, target float64) float64 {
	n := len(sorted)
	if target <= midpoints[0] {
		return sorted[0].Value
	}
	if target >= midpoints[n-1] {
		return sorted[n-1].Value
	}
	// First index whose midpoint is >= target; the bracket is [i-1, i].
	i := sort.SearchFloat64s(midpoints, target)
	if midpoints[i] == target {
		return sorted[i].Value
	}
	span := midpoints[i] - midpoints[i-1]
	frac := (target - midpoints[i-1]) / span
	return sorted[i-1].Value + frac*(sorted[i].Value-sorted[i-1].Value)
}

// WeightedMean returns sum(value*weight)/sum(weight).
func WeightedMean(pairs []Pair) (float64, error) {
	if len(pairs) == 0 {
		return 0, ErrNoObservations
	}
	var num, den kahan
	for _, p := range pairs {
		if p.Weight <= 0 || math.IsNaN(p.Weight) {
			return 0, fmt.Errorf("%w: weight %v at value %v", ErrNonPositiveWeight, p.Weight, p.Value)
		}
		num.add(p.Value * p.Weight)
		den.add(p.Weight)
	}
	return num.total() / den.total(), nil
}

// TotalWeight returns the compensated sum of all weights in the bucket.
func TotalWeight(pairs []Pair) float64 {
	var sum kahan
	for _, p := range pairs {
		sum.add(p.Weight)
	}
	return sum.total()
}

// kahan is a compensated (Kahan-Babuska) accumulator. Naive sequential
// addition loses low-order bits once the running sum dwarfs the addends,
// which matters when accumulating millions of weighted rows.
type kahan struct {
	sum float64
	c   float64
}

func (k *kahan) add(x float64) {
	t := k.sum + x
	if math.Abs(k.sum) >= math.Abs(x) {
		k.c += (k.sum - t) + x
	} else {
		k.c += (x - t) + k.sum
	}
	k.sum = t
}

func (k *kahan) total() float64 { return k.sum + k.c }
