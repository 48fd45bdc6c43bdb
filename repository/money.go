package repository

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// Amounts are stored in minor units with two decimal places.
const minorUnitExp = -2

// ToMajor converts minor units to a decimal in major units.
func ToMajor(minor int64) decimal.Decimal {
	return decimal.New(minor, minorUnitExp)
}

// FormatAmount renders minor units as a fixed two-place major amount, e.g.
// 12345 -> "123.45".
func FormatAmount(minor int64) string {
	return ToMajor(minor).StringFixed(2)
}

// ParseAmount parses a major-unit amount such as "12.5" into minor units.
// More than two decimal places is an error.
func ParseAmount(s string) (int64, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0, fmt.Errorf("invalid amount %q: %w", s, err)
	}
	minor := d.Shift(-minorUnitExp)
	if !minor.Equal(minor.Truncate(0)) {
		return 0, fmt.Errorf("invalid amount %q: more than two decimal places", s)
	}
	return minor.IntPart(), nil
}
