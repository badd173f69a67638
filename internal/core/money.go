// Package core holds the domain types and the pure date, period and
// normalization rules of the budget engine.
//
// This file contains amount parsing. Amounts are exact decimals rounded to
// the currency minor unit (two places) on input.
package core

import (
	"strings"

	"github.com/shopspring/decimal"
)

// AmountPlaces is the number of decimal places kept for money values.
const AmountPlaces = 2

// ParseAmount converts a user supplied amount to a positive decimal.
//
// It accepts both dot (12.34) and comma (12,34) decimal separators and rounds
// half away from zero to two places. Zero, negative and malformed values fail
// with ErrInvalidAmount.
//
// Examples:
//
//	ParseAmount("12.34")  -> 12.34
//	ParseAmount("12,34")  -> 12.34
//	ParseAmount("12.345") -> 12.35
//	ParseAmount("15000")  -> 15000
func ParseAmount(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero, ErrInvalidAmount
	}
	s = strings.ReplaceAll(s, ",", ".")
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, ErrInvalidAmount
	}
	d = d.Round(AmountPlaces)
	if !d.IsPositive() {
		return decimal.Zero, ErrInvalidAmount
	}
	return d, nil
}

// Percent returns 100 * part / whole at full division precision. It fails
// with ErrDivision when whole is zero.
func Percent(part, whole decimal.Decimal) (decimal.Decimal, error) {
	if whole.IsZero() {
		return decimal.Zero, ErrZeroSalary
	}
	return part.Mul(decimal.NewFromInt(100)).Div(whole), nil
}
