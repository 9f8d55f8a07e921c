package utils

import (
	"strings"

	"github.com/shopspring/decimal"
)

// FormatCurrencyIDR formats an amount as Indonesian Rupiah.
// Example: 15000.50 -> "Rp 15.000,50", 24000 -> "Rp 24.000"
func FormatCurrencyIDR(amount decimal.Decimal) string {
	sign := ""
	if amount.IsNegative() {
		sign = "-"
		amount = amount.Neg()
	}

	rounded := amount.Round(2)
	integer := rounded.Truncate(0)
	fraction := rounded.Sub(integer)

	digits := integer.String()
	var groups []string
	for i := len(digits); i > 0; i -= 3 {
		start := i - 3
		if start < 0 {
			start = 0
		}
		groups = append([]string{digits[start:i]}, groups...)
	}

	result := "Rp " + sign + strings.Join(groups, ".")
	if fraction.IsPositive() {
		// "0.50" -> "50"
		result += "," + strings.TrimPrefix(fraction.StringFixed(2), "0.")
	}
	return result
}
