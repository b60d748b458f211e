// Package core provides money parsing and handling utilities.
//
// This file contains helpers for parsing amounts with an invariant decimal
// point and formatting them for tables.
package core

import (
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

var ErrInvalidAmount = errors.New("invalid amount")

// ParseAmount parses a signed decimal amount. Only the dot is accepted as
// decimal separator, so "12,50" is rejected rather than guessed.
//
// Examples:
//
//	ParseAmount("-50")   -> -50, nil
//	ParseAmount("12.34") -> 12.34, nil
//	ParseAmount("12,34") -> 0, ErrInvalidAmount
func ParseAmount(s string) (decimal.Decimal, error) {
	if s == "" || strings.ContainsAny(s, ", \t") {
		return decimal.Zero, fmt.Errorf("%w: %q", ErrInvalidAmount, s)
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: %q", ErrInvalidAmount, s)
	}
	return d, nil
}

// FormatAmount renders the amount the way it is written to files: shortest
// form, no trailing zeros.
func FormatAmount(d decimal.Decimal) string {
	return d.String()
}

// FormatMoney renders an amount with two fixed decimals for report tables.
func FormatMoney(d decimal.Decimal) string {
	return d.StringFixed(2)
}
