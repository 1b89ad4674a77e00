package utils

import (
	"strings"

	"github.com/shopspring/decimal"
)

// ParseNumOrZero reads a numeric form input. Empty, whitespace-only and
// non-numeric inputs read as zero.
func ParseNumOrZero(s string) decimal.Decimal {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero
	}
	return d
}

// FormatFixed2 rounds half away from zero and renders exactly two decimals.
func FormatFixed2(d decimal.Decimal) string {
	return d.StringFixed(2)
}
