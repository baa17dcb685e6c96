package extract

import (
	"errors"
)

// Sentinel error kinds for this package. Both are fatal: the run must be
// reported to the operator before any output is attempted.
var (
	ErrSourceUnavailable = errors.New("extract: source unavailable")
	ErrMissingColumns    = errors.New("extract: missing required columns")
)
