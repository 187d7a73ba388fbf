// Package format renders numbers for human-readable reports.
package format

import (
	"strings"

	"github.com/shopspring/decimal"
)

// Amount returns v rounded half away from zero to two decimals with
// thousands separators (e.g., "-1,234.56").
func Amount(v float64) string {
	d := decimal.NewFromFloat(v).Round(2)
	sign := ""
	if d.IsNegative() {
		sign = "-"
	}
	return sign + group(d.Abs().StringFixed(2))
}

// Fixed returns v rounded to two decimals without separators, suitable for
// machine-readable output.
func Fixed(v float64) string {
	return decimal.NewFromFloat(v).Round(2).StringFixed(2)
}

// Percent renders a ratio as a percentage with two decimals (0.4333 -> "43.33%").
func Percent(ratio float64) string {
	return decimal.NewFromFloat(ratio).Shift(2).Round(2).StringFixed(2) + "%"
}

func group(fixed string) string {
	parts := strings.SplitN(fixed, ".", 2)
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
