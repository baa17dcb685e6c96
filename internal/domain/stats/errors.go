package stats

import (
	"errors"
)

// Sentinel error kinds for this package. These allow errors.Is/As from callers.
// All three mark caller contract violations: the pipeline must abort the run
// when one surfaces, never skip the bucket.
var (
	ErrNoObservations    = errors.New("stats: no observations")
	ErrRankOutOfRange    = errors.New("stats: rank outside [0,100]")
	ErrNonPositiveWeight = errors.New("stats: non-positive weight")
)
