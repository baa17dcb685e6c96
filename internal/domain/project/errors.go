package project

import (
	"errors"
)

// Sentinel error kinds for this package.
var (
	ErrBaseYearMissing = errors.New("project: base year not present in data")
)
