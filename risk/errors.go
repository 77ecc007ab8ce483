package risk

import (
	"errors"
	"fmt"
	"math"
)

// ErrInvalidArgument is wrapped by every error caused by bad input:
// non-positive balances, malformed symbol specs, out of range limits.
var ErrInvalidArgument = errors.New("invalid argument")

func invalid(field string, value float64, msg string) error {
	return fmt.Errorf("%w: %s=%v %s", ErrInvalidArgument, field, value, msg)
}

func requirePositive(field string, v float64) error {
	if math.IsNaN(v) || math.IsInf(v, 0) || v <= 0 {
		return invalid(field, v, "must be positive")
	}
	return nil
}

func requireFinite(field string, v float64) error {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return invalid(field, v, "must be finite")
	}
	return nil
}

// requireFraction checks 0 < v <= 1.
func requireFraction(field string, v float64) error {
	if err := requirePositive(field, v); err != nil {
		return err
	}
	if v > 1 {
		return invalid(field, v, "must be at most 1")
	}
	return nil
}
