package domain

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// ErrMoneyOverflow is returned when an amount exceeds the DECIMAL(10,2)
// storage range.
var ErrMoneyOverflow = errors.New("money: amount exceeds DECIMAL(10,2)")

// maxMoney is the largest representable amount: 9,999,999,999.99.
var maxMoney = decimal.New(999999999999, -2)

// Money is a fixed-point decimal amount at scale exactly 2. The zero value
// is 0.00. Money is signed so that colour price adjustments can be negative;
// persisted totals are validated non-negative at the service boundary.
type Money struct {
	dec decimal.Decimal
}

// Zero returns 0.00.
func Zero() Money {
	return Money{dec: decimal.Zero}
}

// NewMoney builds a Money from an arbitrary decimal, rounding half-up to
// scale 2 and rejecting amounts outside the DECIMAL(10,2) range.
func NewMoney(d decimal.Decimal) (Money, error) {
	rounded := d.Round(2)
	if rounded.Abs().GreaterThan(maxMoney) {
		return Money{}, fmt.Errorf("%w: %s", ErrMoneyOverflow, rounded.String())
	}
	return Money{dec: rounded}, nil
}

// ParseMoney parses a decimal string such as "1000.00".
func ParseMoney(value string) (Money, error) {
	d, err := decimal.NewFromString(value)
	if err != nil {
		return Money{}, fmt.Errorf("money: parse %q: %w", value, err)
	}
	return NewMoney(d)
}

// MustMoney parses a decimal string and panics on failure. Intended for
// constants and tests.
func MustMoney(value string) Money {
	m, err := ParseMoney(value)
	if err != nil {
		panic(err)
	}
	return m
}

// MoneyFromCents builds a Money from an integer number of cents.
func MoneyFromCents(cents int64) Money {
	m, _ := NewMoney(decimal.New(cents, -2))
	return m
}

// Decimal exposes the underlying decimal at scale 2.
func (m Money) Decimal() decimal.Decimal {
	return m.dec.Round(2)
}

// String renders the amount with exactly two fractional digits.
func (m Money) String() string {
	return m.dec.StringFixed(2)
}

// Add returns m + other. Addition is exact at scale 2.
func (m Money) Add(other Money) (Money, error) {
	return NewMoney(m.dec.Add(other.dec))
}

// Sub returns m − other.
func (m Money) Sub(other Money) (Money, error) {
	return NewMoney(m.dec.Sub(other.dec))
}

// MulQty multiplies by a non-negative integer quantity. Exact at scale 2.
func (m Money) MulQty(qty int) (Money, error) {
	if qty < 0 {
		return Money{}, fmt.Errorf("money: negative quantity %d", qty)
	}
	return NewMoney(m.dec.Mul(decimal.NewFromInt(int64(qty))))
}

// Percent applies a percentage in [0,100] with half-up rounding to scale 2.
func (m Money) Percent(pct decimal.Decimal) (Money, error) {
	return NewMoney(m.dec.Mul(pct).Div(decimal.NewFromInt(100)))
}

// Cmp compares two amounts on the fixed-point representation.
func (m Money) Cmp(other Money) int {
	return m.dec.Cmp(other.dec)
}

// Equal reports scale-2 fixed-point equality.
func (m Money) Equal(other Money) bool {
	return m.dec.Equal(other.dec)
}

// IsZero reports whether the amount is 0.00.
func (m Money) IsZero() bool {
	return m.dec.IsZero()
}

// IsNegative reports whether the amount is below zero.
func (m Money) IsNegative() bool {
	return m.dec.IsNegative()
}

// IsPositive reports whether the amount is above zero.
func (m Money) IsPositive() bool {
	return m.dec.IsPositive()
}

// Min returns the smaller of the two amounts.
func (m Money) Min(other Money) Money {
	if m.Cmp(other) <= 0 {
		return m
	}
	return other
}

// ClampZero returns max(m, 0.00).
func (m Money) ClampZero() Money {
	if m.IsNegative() {
		return Zero()
	}
	return m
}

// MarshalJSON renders the amount as a JSON string at scale 2.
func (m Money) MarshalJSON() ([]byte, error) {
	return []byte(`"` + m.String() + `"`), nil
}

// UnmarshalJSON accepts a JSON string or number at scale <= 2.
func (m *Money) UnmarshalJSON(data []byte) error {
	raw := string(data)
	if len(raw) >= 2 && raw[0] == '"' && raw[len(raw)-1] == '"' {
		raw = raw[1 : len(raw)-1]
	}
	parsed, err := ParseMoney(raw)
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}
