package validation

import (
	"errors"
	"fmt"
	"math"
)

// ErrInvalidParameter marks an out-of-domain input. Callers test for it with
// errors.Is; no computation runs once it is returned.
var ErrInvalidParameter = errors.New("invalid parameter")

func invalid(name string, value interface{}, want string) error {
	return fmt.Errorf("%w: %s must be %s, got %v", ErrInvalidParameter, name, want, value)
}

// Finite rejects NaN and infinities.
func Finite(name string, value float64) error {
	if math.IsNaN(value) || math.IsInf(value, 0) {
		return invalid(name, value, "a finite number")
	}
	return nil
}

// Positive requires a finite value strictly greater than zero.
func Positive(name string, value float64) error {
	if err := Finite(name, value); err != nil {
		return err
	}
	if value <= 0 {
		return invalid(name, value, "greater than 0")
	}
	return nil
}

// NonNegative requires a finite value greater than or equal to zero.
func NonNegative(name string, value float64) error {
	if err := Finite(name, value); err != nil {
		return err
	}
	if value < 0 {
		return invalid(name, value, "at least 0")
	}
	return nil
}

// Probability requires a value in the closed interval [0, 1].
func Probability(name string, value float64) error {
	if math.IsNaN(value) || value < 0 || value > 1 {
		return invalid(name, value, "within [0, 1]")
	}
	return nil
}

// OpenProbability requires a value in (0, 1].
func OpenProbability(name string, value float64) error {
	if math.IsNaN(value) || value <= 0 || value > 1 {
		return invalid(name, value, "within (0, 1]")
	}
	return nil
}

// AtLeast requires an integer no smaller than min.
func AtLeast(name string, value, min int) error {
	if value < min {
		return invalid(name, value, fmt.Sprintf("at least %d", min))
	}
	return nil
}

// First returns the first non-nil error, so callers can list every check
// for a struct in one place and still fail on the earliest violation.
func First(errs ...error) error {
	for _, err := range errs {
		if err != nil {
			return err
		}
	}
	return nil
}
