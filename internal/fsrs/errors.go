package fsrs

import "errors"

// Sentinel errors; check with errors.Is.
var (
	ErrInvalidWeights = errors.New("fsrs: weights out of bounds")
	ErrInvalidConfig  = errors.New("fsrs: invalid scheduler configuration")
)
