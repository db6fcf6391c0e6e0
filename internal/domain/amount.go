package domain

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// AmountScale is the number of decimal places held in minor units (cents).
const AmountScale = 2

var maxAmount = decimal.New(1<<63-1, -AmountScale)

// Amount is a monetary value in integer minor units. Money never passes
// through a binary float: the wire form is parsed as a decimal.
type Amount int64

// AmountFromDecimal converts a decimal major-unit value into minor units.
// Values with more than AmountScale fractional digits, or outside int64 range, are rejected.
func AmountFromDecimal(d decimal.Decimal) (Amount, error) {
	if !d.Equal(d.Truncate(AmountScale)) {
		return 0, fmt.Errorf("%w: %s has more than %d decimal places", ErrInvalidAmount, d.String(), AmountScale)
	}
	if d.Abs().GreaterThan(maxAmount) {
		return 0, fmt.Errorf("%w: %s is out of range", ErrInvalidAmount, d.String())
	}
	return Amount(d.Shift(AmountScale).IntPart()), nil
}

// ParseAmount parses a decimal string such as "12.50" into minor units.
func ParseAmount(s string) (Amount, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidAmount, s)
	}
	return AmountFromDecimal(d)
}

// Decimal returns the major-unit decimal value.
func (a Amount) Decimal() decimal.Decimal {
	return decimal.New(int64(a), -AmountScale)
}

func (a Amount) String() string {
	return a.Decimal().StringFixed(AmountScale)
}

// MarshalJSON renders the amount as a plain JSON number, e.g. 150.00.
func (a Amount) MarshalJSON() ([]byte, error) {
	return []byte(a.String()), nil
}

// UnmarshalJSON accepts a JSON number or a quoted decimal string.
func (a *Amount) UnmarshalJSON(b []byte) error {
	var d decimal.Decimal
	if err := d.UnmarshalJSON(b); err != nil {
		return fmt.Errorf("%w: %s", ErrInvalidAmount, string(b))
	}
	v, err := AmountFromDecimal(d)
	if err != nil {
		return err
	}
	*a = v
	return nil
}
