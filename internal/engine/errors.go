package engine

import "github.com/rotisserie/eris"

// The pipeline surfaces exactly two error kinds. Numeric edge cases
// (division by zero, NaN propagation, degenerate normalization ranges)
// are handled by clipping and imputation rules and never error.
var (
	// ErrDataUnavailable means the program table is missing or empty.
	// Fatal for the request; never retried.
	ErrDataUnavailable = eris.New("program data unavailable")

	// ErrInvalidFilter means a filter value is outside its documented
	// domain. Rejected before the pipeline runs, never coerced.
	ErrInvalidFilter = eris.New("invalid filter")
)
