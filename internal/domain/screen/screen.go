// Package screen decides which records count toward the measured population.
//
// The default screen keeps workers: respondents who were employed or
// unemployed and looking for work in the reference year. The screen
// determines population scope, so its configuration is recorded verbatim in
// the run artifact's metadata.
package screen

import (
	"fmt"
	"sort"

	"github.com/okian/ageincome/internal/domain/model"
)

// IPUMS-CPS EMPSTAT codes.
const (
	EmpAtWork          = 10 // at work
	EmpHasJobNotAtWork = 12 // has job, not at work last week
	UnempExperienced   = 20 // unemployed
	UnempLooking       = 21 // unemployed, experienced worker
	UnempNewWorker     = 22 // unemployed, new worker
)

// WorkerCodes is the default screen: employed plus unemployed/looking.
func WorkerCodes() []int {
	return []int{EmpAtWork, EmpHasJobNotAtWork, UnempExperienced, UnempLooking, UnempNewWorker}
}

// Filter is a pure predicate over employment-status codes. The zero value is
// not useful; construct with New.
type Filter struct {
	codes map[int]struct{}
	all   bool
}

// Option applies a configuration option to the Filter.
type Option func(*Filter)

// WithCodes replaces the accepted employment-status code set.
func WithCodes(codes ...int) Option {
	return func(f *Filter) {
		if len(codes) == 0 {
			return
		}
		f.codes = make(map[int]struct{}, len(codes))
		for _, c := range codes {
			f.codes[c] = struct{}{}
		}
	}
}

// WithAll disables screening so every record is included.
func WithAll() Option {
	return func(f *Filter) {
		f.all = true
	}
}

// New builds a Filter. With no options it applies the default worker screen.
func New(opts ...Option) *Filter {
	f := &Filter{}
	WithCodes(WorkerCodes()...)(f)
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Include reports whether the record counts toward the population.
// Pure and total; never fails.
func (f *Filter) Include(r model.Record) bool {
	if f.all {
		return true
	}
	_, ok := f.codes[r.EmploymentStatus]
	return ok
}

// Codes returns the accepted code set in ascending order, or nil when
// screening is disabled.
func (f *Filter) Codes() []int {
	if f.all {
		return nil
	}
	codes := make([]int, 0, len(f.codes))
	for c := range f.codes {
		codes = append(codes, c)
	}
	sort.Ints(codes)
	return codes
}

// Describe renders the screen for the artifact's methodology block.
func (f *Filter) Describe() string {
	if f.all {
		return "All persons (no employment screen)"
	}
	if equalCodes(f.Codes(), WorkerCodes()) {
		return "Workers (employed + unemployed/looking for work)"
	}
	return fmt.Sprintf("Employment status codes %v", f.Codes())
}

func equalCodes(a, b []int) bool {
	if len(a) != len(b) {
		return false
	}
	sort.Ints(b)
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
