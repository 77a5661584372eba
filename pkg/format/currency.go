// Package format renders money and probabilities for human-readable output.
package format

import (
	"strings"

	"github.com/iwvelando/airline-analytics/pkg/constants"
	"github.com/shopspring/decimal"
)

// Currency returns a currency string with a dollar sign and thousands separators (e.g., "-$1,234.56").
func Currency(amount float64) string {
	d := decimal.NewFromFloat(amount).Round(constants.DecimalPlaces)
	formatted := formatPositiveCurrency(d.Abs())
	if d.IsNegative() {
		return "-$" + formatted
	}
	return "$" + formatted
}

// NumericCurrency returns a currency string without a currency symbol but with separators (e.g., "-1,234.56").
func NumericCurrency(amount float64) string {
	d := decimal.NewFromFloat(amount).Round(constants.DecimalPlaces)
	sign := ""
	if d.IsNegative() {
		sign = "-"
	}
	return sign + formatPositiveCurrency(d.Abs())
}

// Percent renders a fraction in [0, 1] as a percentage with two decimals (e.g., 0.0712 -> "7.12%").
func Percent(fraction float64) string {
	return PercentagePoints(fraction * constants.PercentageMultiplier)
}

// PercentagePoints renders a value already expressed in percent (e.g., an ROI of 140 -> "140.00%").
func PercentagePoints(value float64) string {
	return decimal.NewFromFloat(value).StringFixed(constants.DecimalPlaces) + "%"
}

func formatPositiveCurrency(value decimal.Decimal) string {
	formatted := value.StringFixed(constants.DecimalPlaces)
	parts := strings.SplitN(formatted, ".", 2)
	intPart := parts[0]
	decPart := "00"
	if len(parts) == 2 {
		decPart = parts[1]
	}

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

	return intPart + "." + decPart
}
