// Package mathutil provides common mathematical utility functions.
package mathutil

import (
	"math"

	"github.com/iwvelando/deal-calculator/pkg/constants"
	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromFloat(constants.PercentageMultiplier)

// Sanitize clamps malformed numeric input to zero. NaN, infinities and
// negative values all become 0.
func Sanitize(val float64) float64 {
	if math.IsNaN(val) || math.IsInf(val, 0) || val < 0 {
		return 0
	}
	return val
}

// SanitizePtr dereferences an optional value and sanitizes it. A nil pointer
// yields 0.
func SanitizePtr(val *float64) float64 {
	if val == nil {
		return 0
	}
	return Sanitize(*val)
}

// ToDecimal converts a float to a decimal after sanitizing it.
func ToDecimal(val float64) decimal.Decimal {
	return decimal.NewFromFloat(Sanitize(val))
}

// RoundDecimal rounds half-up to whole currency units. Inputs are expected to
// be non-negative, where decimal's half-away-from-zero rounding is half-up.
func RoundDecimal(val decimal.Decimal) decimal.Decimal {
	return val.Round(constants.CurrencyDecimalPlaces)
}

// Round rounds a value to whole currency units using the same rule as
// RoundDecimal.
func Round(val float64) float64 {
	if math.IsNaN(val) || math.IsInf(val, 0) {
		return 0
	}
	return RoundDecimal(decimal.NewFromFloat(val)).InexactFloat64()
}

// PercentOf returns value * percentage / 100.
func PercentOf(value, percentage decimal.Decimal) decimal.Decimal {
	return value.Mul(percentage).Div(hundred)
}

// SafeDivide divides numerator by denominator, returning 0 when the
// denominator is not positive.
func SafeDivide(numerator, denominator float64) float64 {
	if math.IsNaN(denominator) || denominator <= 0 || math.IsNaN(numerator) || math.IsInf(numerator, 0) {
		return 0
	}
	return numerator / denominator
}

// WithinTolerance checks if two values are within a specified tolerance
func WithinTolerance(val1, val2, tolerance float64) bool {
	return math.Abs(val1-val2) <= tolerance
}
