// Package extract decodes an IPUMS-CPS ASEC microdata extract into Records.
//
// The extract is a delimited file, optionally gzip-compressed, with
// uppercase IPUMS column names. The reader maps the configured income and
// weight variables, tolerates the older WTSUPP weight naming, and skips
// malformed rows with a counter instead of failing the run: partial-field
// rows are an expected, low-rate artifact of real extracts.
package extract

import (
	"compress/gzip"
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/okian/ageincome/internal/domain/model"
)

// Default IPUMS variable names.
const (
	DefaultIncomeVariable = "INCTOT"
	DefaultWeightVariable = "ASECWT"
	legacyWeightVariable  = "WTSUPP" // pre-2014 IPUMS naming for ASECWT

	ageColumn        = "AGE"
	yearColumn       = "YEAR"
	employmentColumn = "EMPSTAT"

	// How often the row loop checks for cancellation.
	cancelCheckEvery = 8192
)

// Stats summarizes one read pass for run diagnostics.
type Stats struct {
	RowsRead         int  // data rows consumed, malformed or not
	RowsMalformed    int  // rows skipped: short rows or non-numeric mandatory fields
	HasEmployment    bool // whether the extract carried the employment column
	UsedLegacyWeight bool // weight read from WTSUPP instead of ASECWT
}

// RowFunc receives each decoded record in file order.
type RowFunc func(model.Record)

// Reader decodes extracts. Construct with New.
type Reader struct {
	incomeVariable string
	weightVariable string
}

// Option applies a configuration option to the Reader.
type Option func(*Reader)

// WithIncomeVariable overrides the income column name.
func WithIncomeVariable(name string) Option {
	return func(r *Reader) {
		if name != "" {
			r.incomeVariable = strings.ToUpper(name)
		}
	}
}

// WithWeightVariable overrides the weight column name.
func WithWeightVariable(name string) Option {
	return func(r *Reader) {
		if name != "" {
			r.weightVariable = strings.ToUpper(name)
		}
	}
}

// New creates a Reader for the standard INCTOT/ASECWT extract layout.
func New(opts ...Option) *Reader {
	r := &Reader{
		incomeVariable: DefaultIncomeVariable,
		weightVariable: DefaultWeightVariable,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Layout describes what a header sniff found in the extract.
type Layout struct {
	HasEmployment    bool // employment column present; screening is possible
	UsedLegacyWeight bool // weight resolved through WTSUPP
}

// Describe reads only the header and reports the extract's layout, letting
// the pipeline decide about screening before the full pass starts.
func (r *Reader) Describe(ctx context.Context, path string) (Layout, error) {
	var layout Layout
	err := r.withSource(path, func(src io.Reader) error {
		header, err := csv.NewReader(src).Read()
		if err != nil {
			return fmt.Errorf("%w: reading header: %v", ErrSourceUnavailable, err)
		}
		cols, usedLegacy, err := r.resolveColumns(header)
		if err != nil {
			return err
		}
		layout = Layout{
			HasEmployment:    cols.employment >= 0,
			UsedLegacyWeight: usedLegacy,
		}
		return nil
	})
	return layout, err
}

// Read opens path, decodes every row and hands records to fn. A missing or
// undecodable file, or a header lacking a mandatory column, is fatal and
// returns an error before fn ever runs.
func (r *Reader) Read(ctx context.Context, path string, fn RowFunc) (Stats, error) {
	var stats Stats
	err := r.withSource(path, func(src io.Reader) error {
		var err error
		stats, err = r.decode(ctx, src, fn)
		return err
	})
	return stats, err
}

// withSource opens path, layering gzip decompression when the name calls
// for it, and hands the plaintext stream to fn.
func (r *Reader) withSource(path string, fn func(io.Reader) error) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrSourceUnavailable, err)
	}
	defer f.Close()

	var src io.Reader = f
	if strings.HasSuffix(path, ".gz") {
		gz, err := gzip.NewReader(f)
		if err != nil {
			return fmt.Errorf("%w: gzip: %v", ErrSourceUnavailable, err)
		}
		defer gz.Close()
		src = gz
	}
	return fn(src)
}

// columns holds the resolved index of each variable in the header.
type columns struct {
	age, income, weight, year int
	employment                int // -1 when absent
}

func (r *Reader) decode(ctx context.Context, src io.Reader, fn RowFunc) (Stats, error) {
	cr := csv.NewReader(src)
	cr.ReuseRecord = true
	// Extracts occasionally carry ragged trailing columns.
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if err != nil {
		return Stats{}, fmt.Errorf("%w: reading header: %v", ErrSourceUnavailable, err)
	}

	var stats Stats
	cols, usedLegacy, err := r.resolveColumns(header)
	if err != nil {
		return Stats{}, err
	}
	stats.UsedLegacyWeight = usedLegacy
	stats.HasEmployment = cols.employment >= 0

	for {
		if stats.RowsRead%cancelCheckEvery == 0 {
			select {
			case <-ctx.Done():
				return stats, ctx.Err()
			default:
			}
		}

		row, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			stats.RowsRead++
			stats.RowsMalformed++
			continue
		}
		stats.RowsRead++

		rec, ok := parseRow(row, cols)
		if !ok {
			stats.RowsMalformed++
			continue
		}
		fn(rec)
	}
	return stats, nil
}

// resolveColumns maps the header to column indexes, applying the WTSUPP
// fallback when the configured weight variable is absent.
func (r *Reader) resolveColumns(header []string) (columns, bool, error) {
	index := make(map[string]int, len(header))
	for i, h := range header {
		index[strings.ToUpper(strings.TrimSpace(h))] = i
	}

	cols := columns{age: -1, income: -1, weight: -1, year: -1, employment: -1}
	usedLegacy := false

	lookup := func(name string) int {
		if i, ok := index[name]; ok {
			return i
		}
		return -1
	}

	cols.age = lookup(ageColumn)
	cols.year = lookup(yearColumn)
	cols.income = lookup(r.incomeVariable)
	cols.weight = lookup(r.weightVariable)
	cols.employment = lookup(employmentColumn)

	if cols.weight < 0 && r.weightVariable == DefaultWeightVariable {
		if i := lookup(legacyWeightVariable); i >= 0 {
			cols.weight = i
			usedLegacy = true
		}
	}

	var missing []string
	for _, c := range []struct {
		name string
		idx  int
	}{
		{ageColumn, cols.age},
		{yearColumn, cols.year},
		{r.incomeVariable, cols.income},
		{r.weightVariable, cols.weight},
	} {
		if c.idx < 0 {
			missing = append(missing, c.name)
		}
	}
	if len(missing) > 0 {
		return columns{}, false, fmt.Errorf("%w: %s", ErrMissingColumns, strings.Join(missing, ", "))
	}
	return cols, usedLegacy, nil
}

// parseRow decodes one data row. Rows missing a mandatory field or holding a
// non-numeric value in a numeric field report !ok and are counted as
// malformed by the caller.
func parseRow(row []string, cols columns) (model.Record, bool) {
	maxIdx := cols.age
	for _, i := range []int{cols.income, cols.weight, cols.year} {
		if i > maxIdx {
			maxIdx = i
		}
	}
	if len(row) <= maxIdx {
		return model.Record{}, false
	}

	age, err := strconv.Atoi(strings.TrimSpace(row[cols.age]))
	if err != nil || age < 0 {
		return model.Record{}, false
	}
	year, err := strconv.Atoi(strings.TrimSpace(row[cols.year]))
	if err != nil {
		return model.Record{}, false
	}
	// ParseFloat accepts NaN and Inf spellings; a non-finite value would sail
	// past the grouping guards and corrupt the bucket statistics.
	income, err := strconv.ParseFloat(strings.TrimSpace(row[cols.income]), 64)
	if err != nil || math.IsNaN(income) || math.IsInf(income, 0) {
		return model.Record{}, false
	}
	weight, err := strconv.ParseFloat(strings.TrimSpace(row[cols.weight]), 64)
	if err != nil || math.IsNaN(weight) || math.IsInf(weight, 0) {
		return model.Record{}, false
	}

	rec := model.Record{
		Year:   year,
		Age:    age,
		Income: income,
		Weight: weight,
	}
	if cols.employment >= 0 && cols.employment < len(row) {
		// A blank or garbled status code keeps the record but leaves the
		// code at zero, which no screen accepts.
		if code, err := strconv.Atoi(strings.TrimSpace(row[cols.employment])); err == nil {
			rec.EmploymentStatus = code
		}
	}
	return rec, true
}
