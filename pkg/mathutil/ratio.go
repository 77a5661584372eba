// Package mathutil provides common mathematical utility functions.
package mathutil

import (
	"math"

	"github.com/iwvelando/airline-analytics/pkg/constants"
)

// Percent expresses value as a percentage of base. The caller guarantees
// base is non-zero.
func Percent(value, base float64) float64 {
	return value / base * constants.PercentageMultiplier
}

// Fraction returns count/total, or 0 when total is zero.
func Fraction(count, total int) float64 {
	if total == 0 {
		return 0
	}
	return float64(count) / float64(total)
}

// Clamp01 bounds a probability to [0, 1].
func Clamp01(p float64) float64 {
	return math.Min(1, math.Max(0, p))
}

// WithinTolerance checks if two values are within a specified absolute tolerance
func WithinTolerance(val1, val2, tolerance float64) bool {
	return math.Abs(val1-val2) <= tolerance
}

// SignificantDigitsMatch reports whether a and b agree to the given number
// of significant digits, measured relative to the larger magnitude.
func SignificantDigitsMatch(a, b float64, digits int) bool {
	if a == b {
		return true
	}
	scale := math.Max(math.Abs(a), math.Abs(b))
	return math.Abs(a-b) <= scale*0.5*math.Pow(10, float64(1-digits))
}
