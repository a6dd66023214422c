// Package core provides the domain types and input validation for the
// ledger: transactions, budgets, dates, and monetary amount parsing.
package core

import (
	"strings"

	"github.com/shopspring/decimal"
)

// amountCeiling rejects absurdly large values before they reach the store.
var amountCeiling = decimal.NewFromInt(1_000_000_000)

var currencySymbols = []string{"R$", "US$", "$", "€", "£"}

// ParseAmount converts a raw user-supplied amount string to a non-negative
// decimal. Currency symbols and spaces are stripped first. When the
// remainder contains a comma it is treated as the decimal separator and any
// dots as thousand separators ("1.500,50" -> 1500.50); otherwise a single
// dot is accepted as the decimal point.
//
// Negative values, unparseable remainders, and values above the ceiling
// return ErrInvalidAmount.
func ParseAmount(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	for _, sym := range currencySymbols {
		s = strings.ReplaceAll(s, sym, "")
	}
	s = strings.ReplaceAll(s, " ", "")
	if s == "" {
		return decimal.Zero, ErrInvalidAmount
	}

	if strings.Contains(s, ",") {
		if strings.Count(s, ",") > 1 {
			return decimal.Zero, ErrInvalidAmount
		}
		s = strings.ReplaceAll(s, ".", "")
		s = strings.Replace(s, ",", ".", 1)
	} else if strings.Count(s, ".") > 1 {
		return decimal.Zero, ErrInvalidAmount
	}

	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, ErrInvalidAmount
	}
	if d.IsNegative() || d.GreaterThan(amountCeiling) {
		return decimal.Zero, ErrInvalidAmount
	}
	return d, nil
}
