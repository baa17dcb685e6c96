// Package model contains domain models passed between pipeline stages.
package model

// IPUMS-CPS sentinel codes for INCTOT. Rows carrying these values hold no
// usable income observation and must be excluded before aggregation.
const (
	IncomeNIU     = 99999999 // not in universe
	IncomeMissing = 99999998 // missing/unknown
)

// Record is one respondent-year observation from the microdata extract.
// It is immutable once read; the pipeline run that created it owns it and
// discards it after it has contributed to a bucket.
type Record struct {
	Year             int     // survey year (the March supplement year)
	Age              int     // age in years; top-coded values pass through as-is
	Income           float64 // total personal income; may be negative (net losses)
	Weight           float64 // survey person weight; must be > 0 to count
	EmploymentStatus int     // EMPSTAT categorical code; 0 when absent from the extract
}

// IncomeYear returns the calendar year the record's income was earned in.
// The ASEC supplement conducted in March of year Y asks about income earned
// in year Y-1.
func (r Record) IncomeYear() int { return r.Year - 1 }

// BucketKey identifies one (survey year, age) aggregation cell.
type BucketKey struct {
	Year int
	Age  int
}
