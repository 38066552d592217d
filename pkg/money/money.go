// Package money handles statement amounts. Amounts are carried as
// shopspring/decimal values in memory, stored as integer minor units (paise)
// and displayed through go-money so every sink formats them the same way.
package money

import (
	"errors"
	"fmt"
	"strings"

	"github.com/Rhymond/go-money"
	"github.com/shopspring/decimal"
)

// INR is the only currency Axis card statements are issued in.
const INR = "INR"

var ErrInvalidAmount = errors.New("invalid amount")

var currencyTokens = []string{"₹", "Rs.", "Rs", "INR"}

// ParseAmount parses a statement amount such as "1,234.56", "₹ 1,234.56" or
// "Rs. 500.00". The result is always a non-negative magnitude; the direction
// of a transaction is carried separately.
func ParseAmount(s string) (decimal.Decimal, error) {
	raw := strings.TrimSpace(s)
	for _, tok := range currencyTokens {
		raw = strings.TrimPrefix(raw, tok)
		raw = strings.TrimSpace(raw)
	}
	raw = strings.ReplaceAll(raw, ",", "")
	raw = strings.ReplaceAll(raw, " ", "")
	if raw == "" {
		return decimal.Zero, fmt.Errorf("%w: %q", ErrInvalidAmount, s)
	}

	d, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: %q", ErrInvalidAmount, s)
	}
	return d.Abs(), nil
}

// ToMinor converts an amount to minor units of currencyCode, rounding half
// away from zero.
func ToMinor(amount decimal.Decimal, currencyCode string) int64 {
	return amount.Shift(int32(fraction(currencyCode))).Round(0).IntPart()
}

// FromMinor converts minor units back to a decimal amount.
func FromMinor(minor int64, currencyCode string) decimal.Decimal {
	return decimal.New(minor, -int32(fraction(currencyCode)))
}

// Format renders amount with the currency's symbol and grouping, e.g.
// "₹1,234.56".
func Format(amount decimal.Decimal, currencyCode string) string {
	return money.New(ToMinor(amount, currencyCode), code(currencyCode)).Display()
}

func code(currencyCode string) string {
	if money.GetCurrency(currencyCode) == nil {
		return INR
	}
	return currencyCode
}

func fraction(currencyCode string) int {
	return money.GetCurrency(code(currencyCode)).Fraction
}
