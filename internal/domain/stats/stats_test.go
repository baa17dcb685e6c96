package stats_test

import (
	"testing"

	"github.com/okian/ageincome/internal/domain/stats"
	. "github.com/smartystreets/goconvey/convey"
)

func TestPercentiles_Interpolation(t *testing.T) {
	Convey("Given four equally weighted incomes", t, func() {
		pairs := []stats.Pair{
			{Value: 10000, Weight: 1},
			{Value: 20000, Weight: 1},
			{Value: 30000, Weight: 1},
			{Value: 40000, Weight: 1},
		}

		Convey("When computing the quartile ranks", func() {
			got, err := stats.Percentiles(pairs, []float64{25, 50, 75})

			Convey("Then the median interpolates to the midpoint of the middle values", func() {
				So(err, ShouldBeNil)
				So(got[50], ShouldAlmostEqual, 25000)
			})

			Convey("And the outer quartiles interpolate symmetrically", func() {
				So(err, ShouldBeNil)
				So(got[25], ShouldAlmostEqual, 15000)
				So(got[75], ShouldAlmostEqual, 35000)
			})
		})

		Convey("When the input order is shuffled", func() {
			shuffled := []stats.Pair{pairs[2], pairs[0], pairs[3], pairs[1]}
			a, errA := stats.Percentiles(pairs, []float64{25, 50, 75})
			b, errB := stats.Percentiles(shuffled, []float64{25, 50, 75})

			Convey("Then the result is identical", func() {
				So(errA, ShouldBeNil)
				So(errB, ShouldBeNil)
				So(b, ShouldResemble, a)
			})
		})
	})
}

func TestPercentiles_WeightDominance(t *testing.T) {
	Convey("Given two values with highly unequal weights", t, func() {
		pairs := []stats.Pair{
			{Value: 10000, Weight: 1},
			{Value: 1000000, Weight: 99},
		}

		Convey("When computing the median", func() {
			got, err := stats.Percentiles(pairs, []float64{50})

			Convey("Then the heavy value dominates", func() {
				So(err, ShouldBeNil)
				// An unweighted median would sit at 505000; the
				// weighted one must land near the heavy value.
				So(got[50], ShouldBeGreaterThan, 900000)
			})
		})
	})
}

func TestPercentiles_Boundaries(t *testing.T) {
	Convey("Given a single-record bucket", t, func() {
		pairs := []stats.Pair{{Value: 52000, Weight: 1234.5}}

		Convey("When computing any rank", func() {
			got, err := stats.Percentiles(pairs, []float64{0, 1, 50, 99, 100})

			Convey("Then every rank returns the record's value", func() {
				So(err, ShouldBeNil)
				for _, v := range got {
					So(v, ShouldEqual, 52000)
				}
			})
		})
	})

	Convey("Given several records", t, func() {
		pairs := []stats.Pair{
			{Value: 100, Weight: 2},
			{Value: 200, Weight: 2},
			{Value: 300, Weight: 2},
		}

		Convey("When asking for the extreme ranks", func() {
			got, err := stats.Percentiles(pairs, []float64{0, 100})

			Convey("Then the results clamp to observed values", func() {
				So(err, ShouldBeNil)
				So(got[0], ShouldEqual, 100)
				So(got[100], ShouldEqual, 300)
			})
		})
	})
}

func TestPercentiles_Monotonicity(t *testing.T) {
	Convey("Given a non-degenerate bucket", t, func() {
		pairs := []stats.Pair{
			{Value: 12000, Weight: 810.2},
			{Value: 18000, Weight: 455.9},
			{Value: 23000, Weight: 1204.4},
			{Value: 41000, Weight: 330.1},
			{Value: 67000, Weight: 921.7},
			{Value: 150000, Weight: 101.3},
		}

		Convey("When computing the full rank list", func() {
			ranks := []float64{1, 5, 10, 25, 50, 75, 90, 95, 99}
			got, err := stats.Percentiles(pairs, ranks)

			Convey("Then values never decrease as rank increases", func() {
				So(err, ShouldBeNil)
				for i := 1; i < len(ranks); i++ {
					So(got[ranks[i]], ShouldBeGreaterThanOrEqualTo, got[ranks[i-1]])
				}
			})

			Convey("And the median lies between the outer quartiles", func() {
				So(err, ShouldBeNil)
				So(got[50], ShouldBeGreaterThanOrEqualTo, got[25])
				So(got[50], ShouldBeLessThanOrEqualTo, got[75])
			})
		})
	})
}

func TestPercentiles_WeightResponse(t *testing.T) {
	Convey("Given a bucket and a copy with extra weight on the top value", t, func() {
		base := []stats.Pair{
			{Value: 100, Weight: 1},
			{Value: 200, Weight: 1},
			{Value: 300, Weight: 1},
			{Value: 400, Weight: 1},
			{Value: 500, Weight: 1},
		}
		heavier := make([]stats.Pair, len(base))
		copy(heavier, base)
		heavier[4].Weight = 5

		Convey("When computing the same ranks on both", func() {
			ranks := []float64{10, 25, 50, 75, 90}
			before, errA := stats.Percentiles(base, ranks)
			after, errB := stats.Percentiles(heavier, ranks)

			Convey("Then no rank's value decreases", func() {
				So(errA, ShouldBeNil)
				So(errB, ShouldBeNil)
				for _, r := range ranks {
					So(after[r], ShouldBeGreaterThanOrEqualTo, before[r])
				}
			})
		})
	})
}

func TestPercentiles_TiedValues(t *testing.T) {
	Convey("Given tied values with different weights", t, func() {
		pairs := []stats.Pair{
			{Value: 5000, Weight: 1},
			{Value: 5000, Weight: 3},
			{Value: 10000, Weight: 1},
		}

		Convey("When computing the median", func() {
			got, err := stats.Percentiles(pairs, []float64{50})

			Convey("Then weight simply accumulates at the tied point", func() {
				So(err, ShouldBeNil)
				So(got[50], ShouldEqual, 5000)
			})
		})
	})
}

func TestPercentiles_EqualWeightsMatchUnweighted(t *testing.T) {
	Convey("Given a bucket where every weight is equal", t, func() {
		values := []float64{4, 8, 15, 16, 23, 42}
		unit := make([]stats.Pair, len(values))
		scaled := make([]stats.Pair, len(values))
		for i, v := range values {
			unit[i] = stats.Pair{Value: v, Weight: 1}
			scaled[i] = stats.Pair{Value: v, Weight: 731.5}
		}

		Convey("When computing percentiles at both weight scales", func() {
			ranks := []float64{10, 25, 50, 75, 90}
			a, errA := stats.Percentiles(unit, ranks)
			b, errB := stats.Percentiles(scaled, ranks)

			Convey("Then the common weight cancels out", func() {
				So(errA, ShouldBeNil)
				So(errB, ShouldBeNil)
				for _, r := range ranks {
					So(b[r], ShouldAlmostEqual, a[r])
				}
			})
		})

		Convey("When computing the weighted mean", func() {
			mean, err := stats.WeightedMean(scaled)

			Convey("Then it equals the arithmetic mean", func() {
				So(err, ShouldBeNil)
				So(mean, ShouldAlmostEqual, 18)
			})
		})
	})
}

func TestPercentiles_ContractViolations(t *testing.T) {
	Convey("Given contract-violating input", t, func() {
		valid := []stats.Pair{{Value: 1, Weight: 1}}

		Convey("When the pair set is empty", func() {
			_, err := stats.Percentiles(nil, []float64{50})

			Convey("Then it reports no observations", func() {
				So(err, ShouldWrap, stats.ErrNoObservations)
			})
		})

		Convey("When a rank is out of range", func() {
			_, errHigh := stats.Percentiles(valid, []float64{101})
			_, errLow := stats.Percentiles(valid, []float64{-0.5})

			Convey("Then it reports the bad rank", func() {
				So(errHigh, ShouldWrap, stats.ErrRankOutOfRange)
				So(errLow, ShouldWrap, stats.ErrRankOutOfRange)
			})
		})

		Convey("When a weight is not strictly positive", func() {
			bad := []stats.Pair{{Value: 1, Weight: 1}, {Value: 2, Weight: 0}}
			_, err := stats.Percentiles(bad, []float64{50})
			_, meanErr := stats.WeightedMean(bad)

			Convey("Then both entry points refuse", func() {
				So(err, ShouldWrap, stats.ErrNonPositiveWeight)
				So(meanErr, ShouldWrap, stats.ErrNonPositiveWeight)
			})
		})
	})
}

func TestWeightedMean(t *testing.T) {
	Convey("Given weighted observations", t, func() {
		pairs := []stats.Pair{
			{Value: 10000, Weight: 1},
			{Value: 20000, Weight: 3},
		}

		Convey("When computing the mean", func() {
			mean, err := stats.WeightedMean(pairs)

			Convey("Then it is the weight-proportional average", func() {
				So(err, ShouldBeNil)
				So(mean, ShouldAlmostEqual, 17500)
			})
		})
	})

	Convey("Given a large bucket of small weights", t, func() {
		pairs := make([]stats.Pair, 0, 100000)
		for i := 0; i < 100000; i++ {
			pairs = append(pairs, stats.Pair{Value: 1000, Weight: 0.1})
		}

		Convey("When summing the total weight", func() {
			total := stats.TotalWeight(pairs)

			Convey("Then compensated summation holds the exact total", func() {
				So(total, ShouldAlmostEqual, 10000, 1e-6)
			})
		})
	})
}
