// Package core provides money parsing and handling utilities.
//
// This file contains functions for parsing monetary amounts from strings
// and converting between cents and Rupiah representations.
package core

import (
	"fmt"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/shopspring/decimal"
)

// Money is an amount in hundredths of a Rupiah.
type Money struct {
	Cents int64
}

// maxAmount keeps Cents far away from int64 overflow when amounts are summed.
var maxAmount = decimal.New(1, 15)

// ParseAmount converts a user-entered decimal string to Money.
//
// It accepts both dot (12.34) and comma (12,34) decimal separators and rounds
// half-up to two decimals. Negative, empty and non-numeric input fails with
// ErrInvalidAmount. Zero is accepted.
//
// Examples:
//
//	ParseAmount("30000")  -> Money{Cents: 3000000}, nil
//	ParseAmount("12,345") -> Money{Cents: 1235}, nil
//	ParseAmount("-5")     -> Money{}, ErrInvalidAmount
func ParseAmount(s string) (Money, error) {
	d, err := parseDecimal(s)
	if err != nil {
		return Money{}, err
	}
	if d.IsNegative() {
		return Money{}, fmt.Errorf("%w: negative value %q", ErrInvalidAmount, s)
	}
	return MoneyFromDecimal(d), nil
}

// ParseImportAmount is ParseAmount for externally supplied rows: a negative
// value, as written by the legacy signed-expense format, is coerced to its
// absolute value instead of being rejected.
func ParseImportAmount(s string) (Money, error) {
	d, err := parseDecimal(s)
	if err != nil {
		return Money{}, err
	}
	return MoneyFromDecimal(d.Abs()), nil
}

func parseDecimal(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero, fmt.Errorf("%w: empty value", ErrInvalidAmount)
	}
	s = strings.ReplaceAll(s, ",", ".")
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: %q", ErrInvalidAmount, s)
	}
	if d.Abs().GreaterThan(maxAmount) {
		return decimal.Zero, fmt.Errorf("%w: %q out of range", ErrInvalidAmount, s)
	}
	return d, nil
}

// MoneyFromDecimal rounds d half-up to two decimals.
func MoneyFromDecimal(d decimal.Decimal) Money {
	return Money{Cents: d.Round(2).Shift(2).IntPart()}
}

func (m Money) Validate() error {
	if m.Cents < 0 {
		return ErrInvalidAmount
	}
	return nil
}

func (m Money) Add(o Money) Money {
	return Money{Cents: m.Cents + o.Cents}
}

func (m Money) Sub(o Money) Money {
	return Money{Cents: m.Cents - o.Cents}
}

func (m Money) IsZero() bool {
	return m.Cents == 0
}

// Decimal returns the amount in Rupiah.
func (m Money) Decimal() decimal.Decimal {
	return decimal.New(m.Cents, -2)
}

// Plain formats the amount without currency or grouping, as used by exports ("30000", "12.5").
func (m Money) Plain() string {
	return m.Decimal().String()
}

// String formats the amount for display, e.g. "Rp 100,000" or "-Rp 1,234.50".
func (m Money) String() string {
	cents := m.Cents
	sign := ""
	if cents < 0 {
		sign = "-"
		cents = -cents
	}
	s := "Rp " + humanize.Comma(cents/100)
	if rem := cents % 100; rem != 0 {
		s += fmt.Sprintf(".%02d", rem)
	}
	return sign + s
}
