package expr

import "errors"

var (
	// ErrDataUnavailable indicates that the requested study could not be
	// retrieved from the remote catalog.
	ErrDataUnavailable = errors.New("expr: data unavailable")

	// ErrInvalidInput indicates malformed upstream data: negative or
	// non-finite counts, non-positive gene lengths, or unrecognized
	// categorical codes. These are treated as data corruption and are never
	// coerced.
	ErrInvalidInput = errors.New("expr: invalid input")

	// ErrAlignment indicates that the sample identifiers of a matrix and its
	// metadata diverged.
	ErrAlignment = errors.New("expr: matrix/metadata misalignment")

	// ErrDegenerateInput indicates that a computation cannot proceed on the
	// given shape, e.g. fewer than 2 samples or a constant feature.
	ErrDegenerateInput = errors.New("expr: degenerate input")
)
