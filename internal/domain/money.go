package domain

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// Money is a fixed-point currency amount with two decimal places.
// The zero value is 0.00.
type Money struct {
	d decimal.Decimal
}

const moneyPlaces = 2

// Bounds applied before any rescaling. Rounding a decimal with a huge
// exponent allocates one digit per unit of exponent.
const (
	maxMoneyInput    = 40
	minMoneyExponent = -18
	maxMoneyExponent = 15
)

// NewMoney builds an amount from minor units (cents).
func NewMoney(cents int64) Money {
	return Money{d: decimal.New(cents, -moneyPlaces)}
}

// ParseMoney parses a decimal string such as "200" or "200.50".
// More than two fractional digits is rejected rather than rounded.
func ParseMoney(raw string) (Money, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return Money{}, fmt.Errorf("empty amount")
	}
	if len(raw) > maxMoneyInput {
		return Money{}, fmt.Errorf("amount is longer than %d characters", maxMoneyInput)
	}
	d, err := decimal.NewFromString(raw)
	if err != nil {
		return Money{}, fmt.Errorf("parse amount %q: %w", raw, err)
	}
	if err := checkExponent(d); err != nil {
		return Money{}, fmt.Errorf("amount %q: %w", raw, err)
	}
	if !d.Equal(d.Round(moneyPlaces)) {
		return Money{}, fmt.Errorf("amount %q has more than %d decimal places", raw, moneyPlaces)
	}
	return Money{d: d}, nil
}

// ParseAmount parses a transfer amount, which must be strictly positive.
func ParseAmount(raw string) (Money, error) {
	m, err := ParseMoney(raw)
	if err != nil {
		return Money{}, fmt.Errorf("%w: %v", ErrInvalidAmount, err)
	}
	if !m.IsPositive() {
		return Money{}, fmt.Errorf("%w: amount must be positive", ErrInvalidAmount)
	}
	return m, nil
}

func (m Money) Add(o Money) Money { return Money{d: m.d.Add(o.d)} }
func (m Money) Sub(o Money) Money { return Money{d: m.d.Sub(o.d)} }

// Cmp returns -1, 0 or +1.
func (m Money) Cmp(o Money) int { return m.d.Cmp(o.d) }

func (m Money) LessThan(o Money) bool { return m.d.LessThan(o.d) }
func (m Money) Equal(o Money) bool    { return m.d.Equal(o.d) }
func (m Money) IsPositive() bool      { return m.d.IsPositive() }
func (m Money) IsNegative() bool      { return m.d.IsNegative() }
func (m Money) IsZero() bool          { return m.d.IsZero() }

// String renders the amount with exactly two decimals, e.g. "800.00".
func (m Money) String() string { return m.d.StringFixed(moneyPlaces) }

// MarshalJSON writes an unquoted JSON number with two decimals.
func (m Money) MarshalJSON() ([]byte, error) {
	return []byte(m.String()), nil
}

// UnmarshalJSON accepts a JSON number or a quoted decimal string.
func (m *Money) UnmarshalJSON(data []byte) error {
	if len(data) > maxMoneyInput+2 {
		return fmt.Errorf("decode money: literal is longer than %d characters", maxMoneyInput)
	}
	var d decimal.Decimal
	if err := d.UnmarshalJSON(data); err != nil {
		return fmt.Errorf("decode money: %w", err)
	}
	if err := checkExponent(d); err != nil {
		return fmt.Errorf("decode money: %w", err)
	}
	m.d = d.Round(moneyPlaces)
	return nil
}

func checkExponent(d decimal.Decimal) error {
	if e := d.Exponent(); e < minMoneyExponent || e > maxMoneyExponent {
		return fmt.Errorf("exponent %d out of range", e)
	}
	return nil
}
