// Package domain provides core domain types shared by the pricing modules.
package domain

import (
	"fmt"
	"math"
)

// Fixed numerical precisions. Simulated levels are rounded so that barrier
// comparisons at the level boundary are stable across runs.
const (
	// PathPrecision is the number of decimals kept on simulated paths
	PathPrecision = 6
	// StrikePrecision is the number of decimals kept on strikes, rebates and payouts
	StrikePrecision = 5
	// DefaultTradingDays is the default day-count convention of a calendar
	DefaultTradingDays = 365.0
)

// ValueMethod says whether a level is quoted as an absolute price or relative to spot
type ValueMethod string

const (
	// ValueAbsolute uses the level as given
	ValueAbsolute ValueMethod = "absolute"
	// ValueRelative multiplies the level by the reference spot
	ValueRelative ValueMethod = "relative"
)

// ParseValueMethod validates a value method string. Empty defaults to absolute.
func ParseValueMethod(s string) (ValueMethod, error) {
	switch ValueMethod(s) {
	case "", ValueAbsolute:
		return ValueAbsolute, nil
	case ValueRelative:
		return ValueRelative, nil
	}
	return "", fmt.Errorf("%w: unknown value method %q", ErrInvalidConfig, s)
}

// Resolve converts a quoted level into an absolute price level.
func (m ValueMethod) Resolve(level, referenceSpot float64) float64 {
	if m == ValueRelative {
		return level * referenceSpot
	}
	return level
}

// ExerciseStyle is the exercise (or barrier observation) style
type ExerciseStyle string

const (
	// European exercises (or observes) on explicit dates only
	European ExerciseStyle = "EU"
	// American exercises (or observes) on every calendar date
	American ExerciseStyle = "US"
)

// ParseExerciseStyle validates an exercise style string. Empty defaults to European.
func ParseExerciseStyle(s string) (ExerciseStyle, error) {
	switch ExerciseStyle(s) {
	case "", European:
		return European, nil
	case American:
		return American, nil
	}
	return "", fmt.Errorf("%w: unknown exercise style %q", ErrInvalidConfig, s)
}

// Round rounds x to the given number of decimals, half to even.
func Round(x float64, decimals int) float64 {
	scale := math.Pow10(decimals)
	return math.RoundToEven(x*scale) / scale
}
