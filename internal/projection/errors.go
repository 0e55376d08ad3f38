package projection

import "errors"

var (
	// ErrInvalidArgument is returned for malformed inputs such as an empty or
	// duplicated axis set, or non-finite coordinates.
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrDegenerateInput is returned when a direction has (numerically) zero
	// length and no unit vector can be derived from it.
	ErrDegenerateInput = errors.New("degenerate input")
)
