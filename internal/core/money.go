// Package core provides money parsing and handling utilities.
//
// Every monetary amount in the ledger is an integer count of minor units
// (kuruş for TRY). Floating point only appears at the input and display
// boundaries.
package core

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
	"unicode"

	"github.com/Rhymond/go-money"
)

// DefaultCurrency is the ISO code used when none is configured.
const DefaultCurrency = "TRY"

// Money is an amount in integer minor units.
type Money struct {
	Cents int64
}

// ToMinorUnits converts a major-unit float (e.g. 12.5 lira) to minor units,
// rounding half away from zero. NaN and infinities map to 0.
func ToMinorUnits(x float64) int64 {
	if math.IsNaN(x) || math.IsInf(x, 0) {
		return 0
	}
	return int64(math.Round(x * 100))
}

// ToDisplay is the inverse of ToMinorUnits, for presentation only.
func ToDisplay(cents int64) float64 {
	return float64(cents) / 100.0
}

// ParseDecimalToCents converts a decimal string to cents with proper rounding.
//
// It accepts both dot (12.34) and comma (12,34) decimal separators and performs
// half-up rounding on the third decimal place. The result is always positive cents.
// Returns an error for invalid formats, negative values, or zero amounts.
//
// Examples:
//
//	ParseDecimalToCents("12.34") -> 1234, nil
//	ParseDecimalToCents("12,34") -> 1234, nil
//	ParseDecimalToCents("12.345") -> 1235, nil (rounds up)
//	ParseDecimalToCents("12.344") -> 1234, nil
func ParseDecimalToCents(s string) (int64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, ErrInvalidAmount
	}
	s = strings.ReplaceAll(s, ",", ".")
	if strings.HasPrefix(s, "+") || strings.HasPrefix(s, "-") {
		return 0, ErrInvalidAmount
	}
	parts := strings.Split(s, ".")
	if len(parts) > 2 {
		return 0, ErrInvalidAmount
	}
	intPart := parts[0]
	fracPart := ""
	if len(parts) == 2 {
		fracPart = parts[1]
	}
	if intPart == "" {
		intPart = "0"
	}
	for _, r := range intPart + fracPart {
		if !unicode.IsDigit(r) {
			return 0, ErrInvalidAmount
		}
	}
	iv, err := strconv.ParseInt(intPart, 10, 64)
	if err != nil {
		return 0, ErrInvalidAmount
	}
	const maxSafeInt64 = (1<<63 - 1) / 100
	if iv > maxSafeInt64 {
		return 0, ErrInvalidAmount
	}
	var fracCents int64
	if len(fracPart) > 0 {
		fracCents = int64(fracPart[0]-'0') * 10
		if len(fracPart) > 1 {
			fracCents += int64(fracPart[1] - '0')
			if len(fracPart) > 2 && fracPart[2] >= '5' {
				fracCents++
			}
		}
	}
	cents := iv*100 + fracCents
	if cents <= 0 {
		return 0, ErrInvalidAmount
	}
	return cents, nil
}

// Major returns the amount in major units for display purposes.
// Use Cents for calculations.
func (m Money) Major() float64 {
	return ToDisplay(m.Cents)
}

func (m Money) Add(n Money) Money { return Money{Cents: m.Cents + n.Cents} }
func (m Money) Sub(n Money) Money { return Money{Cents: m.Cents - n.Cents} }
func (m Money) Neg() Money        { return Money{Cents: -m.Cents} }
func (m Money) IsZero() bool      { return m.Cents == 0 }

// Validate rejects zero and negative amounts.
func (m Money) Validate() error {
	if m.Cents <= 0 {
		return ErrInvalidAmount
	}
	return nil
}

// MarshalJSON stores the amount as a bare integer.
func (m Money) MarshalJSON() ([]byte, error) {
	return strconv.AppendInt(nil, m.Cents, 10), nil
}

// UnmarshalJSON accepts integers, and rounds fractional numbers so that no
// stored amount is ever fractional. Numeric strings are tolerated because
// older documents occasionally carried them.
func (m *Money) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		m.Cents = 0
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		data = []byte(strings.TrimSpace(s))
		if len(data) == 0 {
			m.Cents = 0
			return nil
		}
	}
	if i, err := strconv.ParseInt(string(data), 10, 64); err == nil {
		m.Cents = i
		return nil
	}
	f, err := strconv.ParseFloat(string(data), 64)
	if err != nil {
		return fmt.Errorf("decode money %q: %w", data, ErrInvalidAmount)
	}
	m.Cents = int64(math.Round(f))
	return nil
}

// Formatter renders minor units with a currency's separators and symbol.
type Formatter struct {
	code string
	f    *money.Formatter
}

// NewFormatter returns a Formatter for the given ISO currency code. TRY uses
// the Turkish layout with a trailing symbol ("1.234,50 ₺").
func NewFormatter(code string) (*Formatter, error) {
	code = strings.ToUpper(strings.TrimSpace(code))
	if code == "" {
		code = DefaultCurrency
	}
	if code == DefaultCurrency {
		return &Formatter{code: code, f: money.NewFormatter(2, ",", ".", "₺", "1 $")}, nil
	}
	cur := money.GetCurrency(code)
	if cur == nil {
		return nil, fmt.Errorf("unknown currency %q", code)
	}
	return &Formatter{code: code, f: cur.Formatter()}, nil
}

// Code returns the ISO currency code.
func (f *Formatter) Code() string { return f.code }

// Format renders an amount in minor units.
func (f *Formatter) Format(cents int64) string {
	return f.f.Format(cents)
}

// FormatMoney renders cents in the default currency.
func FormatMoney(cents int64) string {
	f, _ := NewFormatter(DefaultCurrency)
	return f.Format(cents)
}
