// Package core provides the domain types shared by the engine, the stores and the API.
//
// This file contains the Money type and the parser used at ingestion time. Money is
// backed by an arbitrary precision decimal so sums over many small transactions never
// drift the way float64 would.
package core

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"strings"
	"unicode"

	"github.com/shopspring/decimal"
)

// Money is a currency-agnostic exact decimal amount.
type Money struct {
	d decimal.Decimal
}

// Zero is the zero amount.
var Zero = Money{}

// NewMoney wraps a decimal value.
func NewMoney(d decimal.Decimal) Money {
	return Money{d: d}
}

// MoneyFromCents builds an amount from an integer number of hundredths.
func MoneyFromCents(cents int64) Money {
	return Money{d: decimal.New(cents, -2)}
}

// MoneyFromInt builds a whole-unit amount.
func MoneyFromInt(units int64) Money {
	return Money{d: decimal.NewFromInt(units)}
}

// MustMoney parses s and panics on failure. Intended for tests and constants.
func MustMoney(s string) Money {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(fmt.Sprintf("core: invalid money literal %q: %v", s, err))
	}
	return Money{d: d}
}

// ParseAmount converts a user supplied decimal string to Money.
//
// It accepts both dot (12.34) and comma (12,34) decimal separators and keeps every
// fractional digit provided. Signs, exponents and grouping characters are rejected,
// so the result is always finite and non-negative.
//
// Examples:
//
//	ParseAmount("12.34") -> 12.34
//	ParseAmount("12,345") -> 12.345
//	ParseAmount("0") -> 0
//	ParseAmount("-1") -> ErrInvalidAmount
func ParseAmount(s string) (Money, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Zero, ErrInvalidAmount
	}
	s = strings.ReplaceAll(s, ",", ".")
	parts := strings.Split(s, ".")
	if len(parts) > 2 {
		return Zero, ErrInvalidAmount
	}
	intPart := parts[0]
	fracPart := ""
	if len(parts) == 2 {
		fracPart = parts[1]
	}
	if intPart == "" && fracPart == "" {
		return Zero, ErrInvalidAmount
	}
	for _, r := range intPart + fracPart {
		if !unicode.IsDigit(r) {
			return Zero, ErrInvalidAmount
		}
	}
	if intPart == "" {
		intPart = "0"
	}
	if fracPart != "" {
		intPart += "." + fracPart
	}
	d, err := decimal.NewFromString(intPart)
	if err != nil {
		return Zero, ErrInvalidAmount
	}
	return Money{d: d}, nil
}

// Decimal exposes the underlying value.
func (m Money) Decimal() decimal.Decimal { return m.d }

func (m Money) Add(o Money) Money { return Money{d: m.d.Add(o.d)} }
func (m Money) Sub(o Money) Money { return Money{d: m.d.Sub(o.d)} }
func (m Money) Neg() Money { return Money{d: m.d.Neg()} }

// DivInt divides by a positive integer count, keeping decimal.DivisionPrecision digits.
func (m Money) DivInt(n int64) Money {
	return Money{d: m.d.Div(decimal.NewFromInt(n))}
}

func (m Money) Cmp(o Money) int { return m.d.Cmp(o.d) }
func (m Money) Equal(o Money) bool { return m.d.Equal(o.d) }
func (m Money) GreaterThan(o Money) bool { return m.d.GreaterThan(o.d) }
func (m Money) LessThan(o Money) bool { return m.d.LessThan(o.d) }
func (m Money) IsZero() bool { return m.d.IsZero() }
func (m Money) IsPositive() bool { return m.d.IsPositive() }
func (m Money) IsNegative() bool { return m.d.IsNegative() }

// Max returns the larger of m and o.
func (m Money) Max(o Money) Money {
	if m.d.GreaterThanOrEqual(o.d) {
		return m
	}
	return o
}

// Float64 returns an approximate value for display and percentage maths.
func (m Money) Float64() float64 {
	f, _ := m.d.Float64()
	return f
}

// Cents returns the amount rounded half-up to hundredths.
func (m Money) Cents() int64 {
	return m.d.Shift(2).Round(0).IntPart()
}

// String renders the amount with at least two fractional digits.
func (m Money) String() string {
	if m.d.Exponent() >= -2 {
		return m.d.StringFixed(2)
	}
	return m.d.String()
}

// StringFixed renders the amount rounded to places digits.
func (m Money) StringFixed(places int32) string {
	return m.d.StringFixed(places)
}

// Validate rejects negative amounts.
func (m Money) Validate() error {
	if m.d.IsNegative() {
		return ErrInvalidAmount
	}
	return nil
}

// MarshalJSON encodes the amount as a decimal string.
func (m Money) MarshalJSON() ([]byte, error) {
	return json.Marshal(m.String())
}

// UnmarshalJSON accepts either a JSON string or a JSON number.
func (m *Money) UnmarshalJSON(data []byte) error {
	s := strings.Trim(string(data), `"`)
	if s == "" || s == "null" {
		*m = Zero
		return nil
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return fmt.Errorf("%w: %q", ErrInvalidAmount, s)
	}
	*m = Money{d: d}
	return nil
}

// Scan implements sql.Scanner.
func (m *Money) Scan(value any) error {
	var d decimal.Decimal
	if err := d.Scan(value); err != nil {
		return fmt.Errorf("scan money: %w", err)
	}
	*m = Money{d: d}
	return nil
}

// Value implements driver.Valuer. Amounts are stored as decimal text.
func (m Money) Value() (driver.Value, error) {
	return m.d.String(), nil
}
