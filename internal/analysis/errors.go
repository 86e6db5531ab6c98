package analysis

import (
	"errors"
	"math"
)

// Kind is the coarse failure class a calculator call can end in.
type Kind string

const (
	KindNone             Kind = ""
	KindInvalidInput     Kind = "invalid_input"
	KindInsufficientData Kind = "insufficient_data"
	KindUnknownReference Kind = "unknown_reference"
	KindComputation      Kind = "computation_failure"
)

// ErrInvalidInput is the only calculator failure that reaches callers.
var ErrInvalidInput = errors.New("invalid input")

// Classify maps an error returned by this package to its Kind.
// Insufficient data and unknown grades never produce errors, so they are
// only reported by the calculators' documented defaults.
func Classify(err error) Kind {
	switch {
	case err == nil:
		return KindNone
	case errors.Is(err, ErrInvalidInput):
		return KindInvalidInput
	default:
		return KindComputation
	}
}

func finite(v float64) bool { return !math.IsNaN(v) && !math.IsInf(v, 0) }
