// Package money provides the fixed-precision decimal type used on every
// monetary path in the venue: prices, quantities, balances, fees. All
// arithmetic is exact; binary floating point never appears here.
package money

import (
	"github.com/shopspring/decimal"
)

// Decimal is an arbitrary-precision decimal, comfortably exceeding the
// 18-integer/8-fractional-digit floor required for prices, quantities and
// balances. Comparisons and arithmetic are exact.
type Decimal = decimal.Decimal

// Zero returns the additive identity.
func Zero() Decimal {
	return decimal.Zero
}

// New builds a Decimal from an integer mantissa and base-10 exponent,
// e.g. New(12345, -2) == 123.45.
func New(value int64, exp int32) Decimal {
	return decimal.New(value, exp)
}

// MustParse parses a decimal literal, panicking on malformed input. Use
// only for constants known at compile time (config defaults, test
// fixtures); parse user/wire input with Parse.
func MustParse(s string) Decimal {
	return decimal.RequireFromString(s)
}

// Parse parses a decimal literal from wire or config input.
func Parse(s string) (Decimal, error) {
	return decimal.NewFromString(s)
}

// Notional returns price * quantity, the exact value locked or released
// for a quote-asset leg of an order.
func Notional(price, quantity Decimal) Decimal {
	return price.Mul(quantity)
}

// IsPositive reports whether d > 0.
func IsPositive(d Decimal) bool {
	return d.Sign() > 0
}

// IsNonNegative reports whether d >= 0.
func IsNonNegative(d Decimal) bool {
	return d.Sign() >= 0
}
