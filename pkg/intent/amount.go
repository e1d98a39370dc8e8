package intent

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// Amount is a quantity of an asset. Value is a decimal string in canonical
// smallest units; it is never a floating-point type, to avoid precision loss.
type Amount struct {
	Value        string `json:"value"`
	DisplayValue string `json:"display_value,omitempty"`
	Currency     string `json:"currency"`
	Decimals     int32  `json:"decimals"`
}

// NewAmount converts a display-unit value (e.g. "1.5" ZEC) into an amount in
// canonical smallest units. The display value must be representable exactly
// at the given precision.
func NewAmount(displayValue, currency string, decimals int32) (Amount, error) {
	if decimals < 0 || decimals > 18 {
		return Amount{}, fmt.Errorf("%w: decimals must be in [0,18], got %d", ErrInvalidIntent, decimals)
	}
	d, err := decimal.NewFromString(displayValue)
	if err != nil {
		return Amount{}, fmt.Errorf("%w: invalid amount %q: %v", ErrInvalidIntent, displayValue, err)
	}
	if d.IsNegative() {
		return Amount{}, fmt.Errorf("%w: amount cannot be negative", ErrInvalidIntent)
	}
	smallest := d.Shift(decimals)
	if !smallest.IsInteger() {
		return Amount{}, fmt.Errorf("%w: amount %s is not representable at %d decimals",
			ErrInvalidIntent, displayValue, decimals)
	}
	return Amount{
		Value:        smallest.String(),
		DisplayValue: d.String(),
		Currency:     currency,
		Decimals:     decimals,
	}, nil
}

// Validate checks the amount's invariants: the value parses to a
// non-negative integer number of smallest units
func (a Amount) Validate() error {
	if a.Currency == "" {
		return fmt.Errorf("%w: amount currency is required", ErrInvalidIntent)
	}
	if a.Decimals < 0 || a.Decimals > 18 {
		return fmt.Errorf("%w: amount decimals must be in [0,18], got %d", ErrInvalidIntent, a.Decimals)
	}
	d, err := decimal.NewFromString(a.Value)
	if err != nil {
		return fmt.Errorf("%w: invalid amount value %q: %v", ErrInvalidIntent, a.Value, err)
	}
	if d.IsNegative() {
		return fmt.Errorf("%w: amount value cannot be negative", ErrInvalidIntent)
	}
	if !d.IsInteger() {
		return fmt.Errorf("%w: amount value %q is not a whole number of smallest units",
			ErrInvalidIntent, a.Value)
	}
	return nil
}

// Decimal returns the value in smallest units as a decimal
func (a Amount) Decimal() (decimal.Decimal, error) {
	return decimal.NewFromString(a.Value)
}

// Positive reports whether the amount is strictly greater than zero
func (a Amount) Positive() bool {
	d, err := decimal.NewFromString(a.Value)
	return err == nil && d.IsPositive()
}

// Display returns the amount in display units, derived from the canonical
// value when no display value was recorded
func (a Amount) Display() string {
	if a.DisplayValue != "" {
		return a.DisplayValue
	}
	d, err := decimal.NewFromString(a.Value)
	if err != nil {
		return a.Value
	}
	return d.Shift(-a.Decimals).String()
}
