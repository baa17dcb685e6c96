package model

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// PercentileSet maps a percent rank in [0,100] to an income value. The rank
// list is fixed by configuration, not by data.
type PercentileSet map[float64]float64

// Ranks returns the ranks present in the set in ascending order.
func (p PercentileSet) Ranks() []float64 {
	ranks := make([]float64, 0, len(p))
	for r := range p {
		ranks = append(ranks, r)
	}
	sort.Float64s(ranks)
	return ranks
}

// BucketSummary is the statistical summary of one (year, age) cell.
// A summary only exists for cells with at least one surviving observation;
// empty cells are omitted from the output entirely.
type BucketSummary struct {
	Percentiles  PercentileSet
	Mean         float64
	NSamples     int
	EstWorkforce float64 // sum of weights of contributing records

	// Estimated marks a projected cell: derived from another year's
	// observations rather than sampled, with NSamples forced to zero.
	Estimated bool
}

// rankKey renders a percent rank as its wire key, e.g. 50 -> "p50".
func rankKey(rank float64) string {
	return "p" + strconv.FormatFloat(rank, 'f', -1, 64)
}

// MarshalJSON emits the wire shape consumed by the visualization layer:
// percentile fields in ascending rank order, then mean, n_samples and
// est_workforce. Field order is fixed so identical runs produce identical
// bytes.
func (s BucketSummary) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, r := range s.Percentiles.Ranks() {
		if i > 0 {
			buf.WriteByte(',')
		}
		fmt.Fprintf(&buf, "%q:%s", rankKey(r), formatNumber(s.Percentiles[r]))
	}
	if len(s.Percentiles) > 0 {
		buf.WriteByte(',')
	}
	fmt.Fprintf(&buf, `"mean":%s,`, formatNumber(s.Mean))
	fmt.Fprintf(&buf, `"n_samples":%d,`, s.NSamples)
	fmt.Fprintf(&buf, `"est_workforce":%d`, int64(s.EstWorkforce))
	if s.Estimated {
		buf.WriteString(`,"estimated":true`)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON reads the wire shape back, recovering percentile ranks from
// their "pN" keys. Used when post-processing an existing artifact.
func (s *BucketSummary) UnmarshalJSON(data []byte) error {
	raw := make(map[string]json.RawMessage)
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	number := func(key string, dst *float64) error {
		msg, ok := raw[key]
		if !ok {
			return nil
		}
		if err := json.Unmarshal(msg, dst); err != nil {
			return fmt.Errorf("%s: %w", key, err)
		}
		return nil
	}
	if err := number("mean", &s.Mean); err != nil {
		return err
	}
	if err := number("est_workforce", &s.EstWorkforce); err != nil {
		return err
	}
	if msg, ok := raw["n_samples"]; ok {
		if err := json.Unmarshal(msg, &s.NSamples); err != nil {
			return fmt.Errorf("n_samples: %w", err)
		}
	}
	if msg, ok := raw["estimated"]; ok {
		if err := json.Unmarshal(msg, &s.Estimated); err != nil {
			return fmt.Errorf("estimated: %w", err)
		}
	}
	s.Percentiles = make(PercentileSet)
	for key, msg := range raw {
		if !strings.HasPrefix(key, "p") {
			continue
		}
		rank, err := strconv.ParseFloat(key[1:], 64)
		if err != nil {
			continue
		}
		var v float64
		if err := json.Unmarshal(msg, &v); err != nil {
			return fmt.Errorf("%s: %w", key, err)
		}
		s.Percentiles[rank] = v
	}
	return nil
}

// formatNumber renders a float without exponent notation and without a
// trailing ".0" for integral values, matching the artifact's number style.
func formatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// Methodology records, verbatim, every parameter that affects the
// statistics so a consumer can display provenance and a re-run can be
// verified to reproduce the same artifact.
type Methodology struct {
	IncomeVariable   string `json:"income_variable"`
	WeightVariable   string `json:"weight_variable"`
	Population       string `json:"population"`
	IncomeType       string `json:"income_type"`
	IncomeExclusions string `json:"income_exclusions"`
	PercentileMethod string `json:"percentile_method"`
}

// Metadata is the provenance block attached to every run artifact.
type Metadata struct {
	Description         string             `json:"description"`
	Source              string             `json:"source"`
	Citation            string             `json:"citation"`
	Methodology         Methodology        `json:"methodology"`
	PercentilesComputed []float64          `json:"percentiles_computed"`
	CPIU                map[string]float64 `json:"cpi_u,omitempty"`
	Projection          string             `json:"projection,omitempty"`
	GeneratedAt         string             `json:"generated_at"`
}

// RunOutput is the sole artifact of a pipeline run: metadata plus a
// year -> age -> summary mapping. Year and age keys are string-encoded
// integers per the wire contract. Immutable after assembly.
type RunOutput struct {
	Metadata Metadata                            `json:"metadata"`
	Data     map[string]map[string]BucketSummary `json:"data"`
}

// Years returns the output's year keys in ascending numeric order.
func (o *RunOutput) Years() []int {
	return sortedIntKeys(len(o.Data), func(emit func(string)) {
		for y := range o.Data {
			emit(y)
		}
	})
}

// Ages returns the age keys present for a year in ascending numeric order.
func (o *RunOutput) Ages(year int) []int {
	cells := o.Data[strconv.Itoa(year)]
	return sortedIntKeys(len(cells), func(emit func(string)) {
		for a := range cells {
			emit(a)
		}
	})
}

// Cell returns the summary for (year, age), if present.
func (o *RunOutput) Cell(year, age int) (BucketSummary, bool) {
	cells, ok := o.Data[strconv.Itoa(year)]
	if !ok {
		return BucketSummary{}, false
	}
	s, ok := cells[strconv.Itoa(age)]
	return s, ok
}

func sortedIntKeys(n int, visit func(emit func(string))) []int {
	keys := make([]int, 0, n)
	visit(func(k string) {
		v, err := strconv.Atoi(k)
		if err != nil {
			return
		}
		keys = append(keys, v)
	})
	sort.Ints(keys)
	return keys
}
