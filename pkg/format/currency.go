// Package format renders currency amounts for display.
package format

import (
	"fmt"
	"math"
	"strings"

	"github.com/iwvelando/deal-calculator/pkg/constants"
	"github.com/iwvelando/deal-calculator/pkg/mathutil"
)

// Currency returns a whole-unit currency string with a shekel sign and
// thousands separators (e.g., "-₪1,235").
func Currency(amount float64) string {
	formatted := formatPositive(math.Abs(amount), 0)
	if amount < 0 && formatted != "0" {
		return "-" + constants.CurrencySymbol + formatted
	}
	return constants.CurrencySymbol + formatted
}

// CurrencyPrecise is Currency with two decimal places, for mortgage figures.
func CurrencyPrecise(amount float64) string {
	formatted := formatPositive(math.Abs(amount), 2)
	if amount < 0 && formatted != "0.00" {
		return "-" + constants.CurrencySymbol + formatted
	}
	return constants.CurrencySymbol + formatted
}

// NumericCurrency returns a whole-unit amount without a currency symbol but
// with separators (e.g., "-1,235").
func NumericCurrency(amount float64) string {
	formatted := formatPositive(math.Abs(amount), 0)
	if amount < 0 && formatted != "0" {
		return "-" + formatted
	}
	return formatted
}

// Percent renders a percentage value such as 2.5 as "2.5%".
func Percent(value float64) string {
	return strings.TrimSuffix(strings.TrimRight(fmt.Sprintf("%.2f", value), "0"), ".") + "%"
}

func formatPositive(value float64, decimals int) string {
	if decimals == 0 {
		value = mathutil.Round(value)
	}
	formatted := fmt.Sprintf("%.*f", decimals, value)
	parts := strings.SplitN(formatted, ".", 2)
	intPart := parts[0]

	if len(intPart) > 3 {
		var builder strings.Builder
		for i, digit := range intPart {
			if i > 0 && (len(intPart)-i)%3 == 0 {
				builder.WriteByte(',')
			}
			builder.WriteRune(digit)
		}
		intPart = builder.String()
	}

	if len(parts) == 2 {
		return intPart + "." + parts[1]
	}
	return intPart
}
