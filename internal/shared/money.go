package shared

import (
	"fmt"
	"strconv"
	"strings"
)

// MinorUnits is the number of minor units in one major currency unit.
const MinorUnits = 100

// Money is an amount expressed in integer minor units (cents).
type Money int64

// ParseMoney parses a decimal string such as "12", "12.5" or "12.50" exactly.
func ParseMoney(raw string) (Money, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, fmt.Errorf("%w: amount is empty", ErrValidation)
	}
	neg := false
	if strings.HasPrefix(raw, "-") {
		neg = true
		raw = raw[1:]
	}
	whole, frac, hasFrac := strings.Cut(raw, ".")
	if whole == "" {
		whole = "0"
	}
	if hasFrac && (len(frac) == 0 || len(frac) > 2) {
		return 0, fmt.Errorf("%w: amount %q must have at most two decimals", ErrValidation, raw)
	}
	units, err := strconv.ParseInt(whole, 10, 64)
	if err != nil || units < 0 {
		return 0, fmt.Errorf("%w: invalid amount %q", ErrValidation, raw)
	}
	var cents int64
	if hasFrac {
		if len(frac) == 1 {
			frac += "0"
		}
		cents, err = strconv.ParseInt(frac, 10, 64)
		if err != nil || cents < 0 {
			return 0, fmt.Errorf("%w: invalid amount %q", ErrValidation, raw)
		}
	}
	m := Money(units*MinorUnits + cents)
	if neg {
		m = -m
	}
	return m, nil
}

// Mul multiplies the amount by an integer quantity.
func (m Money) Mul(qty int) Money {
	return m * Money(qty)
}

// Major returns the amount in major units for display purposes only.
func (m Money) Major() float64 {
	return float64(m) / MinorUnits
}

// String renders the amount with two decimals, e.g. "1234.50".
func (m Money) String() string {
	sign := ""
	v := int64(m)
	if v < 0 {
		sign = "-"
		v = -v
	}
	return fmt.Sprintf("%s%d.%02d", sign, v/MinorUnits, v%MinorUnits)
}
