// Package money converts between integer cents, the storage unit for every
// amount, and the two-place decimal strings used on the wire.
package money

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// FromCents converts minor units into a decimal amount.
func FromCents(cents int64) decimal.Decimal {
	return decimal.New(cents, -2)
}

// ToCents rounds a decimal amount half away from zero to whole cents.
func ToCents(amount decimal.Decimal) int64 {
	return amount.Mul(hundred).Round(0).IntPart()
}

// Format renders cents as a fixed two-place string, e.g. 12958 -> "129.58".
func Format(cents int64) string {
	return FromCents(cents).StringFixed(2)
}

// FormatPtr is Format for optional amounts.
func FormatPtr(cents *int64) *string {
	if cents == nil {
		return nil
	}
	formatted := Format(*cents)
	return &formatted
}

// ParseCents parses a decimal string such as "59.99" into cents.
func ParseCents(raw string) (int64, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return 0, fmt.Errorf("amount is required")
	}
	amount, err := decimal.NewFromString(trimmed)
	if err != nil {
		return 0, fmt.Errorf("invalid amount %q: %w", raw, err)
	}
	return ToCents(amount), nil
}

// MulRate applies a rate to cents, rounding the result to whole cents.
func MulRate(cents int64, rate decimal.Decimal) int64 {
	return decimal.NewFromInt(cents).Mul(rate).Round(0).IntPart()
}
