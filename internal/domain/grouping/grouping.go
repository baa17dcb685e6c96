// Package grouping partitions screened records into (year, age) buckets of
// (value, weight) pairs, dropping unusable rows with per-reason counters.
//
// Drops here are expected, low-rate artifacts of real extracts and are never
// fatal; the counts are surfaced in run diagnostics. Age and year are read
// as provided: top-coded ages pass through as ordinary bucket keys and no
// clamping or correction is applied.
package grouping

import (
	"math"

	"github.com/okian/ageincome/internal/domain/model"
	"github.com/okian/ageincome/internal/domain/stats"
)

// Drops counts records excluded during grouping, by reason.
type Drops struct {
	InvalidWeight  int // non-positive or NaN weight
	IncomeSentinel int // NIU / missing income codes
	IncomeExcluded int // zero or negative income under the default methodology
	AgeOutOfRange  int // outside the configured age window
}

// Total returns the sum across all drop reasons.
func (d Drops) Total() int {
	return d.InvalidWeight + d.IncomeSentinel + d.IncomeExcluded + d.AgeOutOfRange
}

// Index accumulates buckets over one sequential pass of the record stream.
// Not safe for concurrent Add; parallel chunked producers must each build
// their own Index and Merge the results.
type Index struct {
	buckets map[model.BucketKey][]stats.Pair
	drops   Drops

	ageMin      int
	ageMax      int
	includeZero bool
}

// Option applies a configuration option to the Index.
type Option func(*Index)

// WithAgeRange bounds the ages that form buckets, inclusive on both ends.
func WithAgeRange(ageMin, ageMax int) Option {
	return func(ix *Index) {
		if ageMin <= ageMax {
			ix.ageMin = ageMin
			ix.ageMax = ageMax
		}
	}
}

// WithZeroIncome keeps zero-income records instead of excluding them.
// Negative incomes (net losses) remain excluded either way.
func WithZeroIncome(include bool) Option {
	return func(ix *Index) {
		ix.includeZero = include
	}
}

// Default age window, matching the published methodology.
const (
	defaultAgeMin = 16
	defaultAgeMax = 75
)

// New creates an empty Index.
func New(opts ...Option) *Index {
	ix := &Index{
		buckets: make(map[model.BucketKey][]stats.Pair),
		ageMin:  defaultAgeMin,
		ageMax:  defaultAgeMax,
	}
	for _, opt := range opts {
		opt(ix)
	}
	return ix
}

// Add routes one screened record into its bucket, or counts it as a drop.
func (ix *Index) Add(r model.Record) {
	switch {
	case r.Weight <= 0 || math.IsNaN(r.Weight):
		ix.drops.InvalidWeight++
	case r.Income == model.IncomeNIU || r.Income == model.IncomeMissing:
		ix.drops.IncomeSentinel++
	case r.Income < 0 || (!ix.includeZero && r.Income == 0):
		ix.drops.IncomeExcluded++
	case r.Age < ix.ageMin || r.Age > ix.ageMax:
		ix.drops.AgeOutOfRange++
	default:
		key := model.BucketKey{Year: r.Year, Age: r.Age}
		ix.buckets[key] = append(ix.buckets[key], stats.Pair{Value: r.Income, Weight: r.Weight})
	}
}

// Merge unions another index's buckets and drop counts into this one.
// A record's bucket key depends only on its own fields, so chunked producers
// can group independently and merge afterwards.
func (ix *Index) Merge(other *Index) {
	for key, pairs := range other.buckets {
		ix.buckets[key] = append(ix.buckets[key], pairs...)
	}
	ix.drops.InvalidWeight += other.drops.InvalidWeight
	ix.drops.IncomeSentinel += other.drops.IncomeSentinel
	ix.drops.IncomeExcluded += other.drops.IncomeExcluded
	ix.drops.AgeOutOfRange += other.drops.AgeOutOfRange
}

// Buckets exposes the accumulated buckets. The returned map is the index's
// own storage; callers must not mutate it while still adding records.
func (ix *Index) Buckets() map[model.BucketKey][]stats.Pair {
	return ix.buckets
}

// Drops returns the per-reason drop counters accumulated so far.
func (ix *Index) Drops() Drops {
	return ix.drops
}

// Len returns the number of non-empty buckets.
func (ix *Index) Len() int {
	return len(ix.buckets)
}
