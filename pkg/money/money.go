// Package money provides currency-safe amount handling for receipt extraction
// using integer cents and the Fowler Money pattern. Receipt amounts arrive as
// loosely formatted strings ("$1,234.56", "9.79") and leave as 2-decimal values.
package money

import (
	"fmt"
	"strings"

	"github.com/Rhymond/go-money"
	"github.com/shopspring/decimal"
)

// USD is the default currency for extracted receipt amounts.
const USD = "USD"

// Amount represents a monetary value with currency.
// It wraps go-money for safe arithmetic and shopspring/decimal for precision.
type Amount struct {
	m *money.Money
}

// New creates an Amount from cents (minor units) and currency code.
func New(cents int64, currencyCode string) *Amount {
	return &Amount{m: money.New(cents, currencyCode)}
}

// NewFromFloat creates an Amount from a floating-point value, rounding to cents.
func NewFromFloat(value float64, currencyCode string) *Amount {
	currency := money.GetCurrency(currencyCode)
	if currency == nil {
		currency = money.GetCurrency(USD)
	}

	d := decimal.NewFromFloat(value)
	multiplier := decimal.New(1, int32(currency.Fraction))
	cents := d.Mul(multiplier).Round(0).IntPart()

	return New(cents, currencyCode)
}

// ParseString parses a loosely formatted amount string into an Amount.
// Accepts formats like "9.79", "$1,234.56", "1 234.56".
func ParseString(raw string, currencyCode string) (*Amount, error) {
	raw = strings.TrimSpace(raw)
	raw = strings.ReplaceAll(raw, " ", "")

	for _, sym := range []string{"$", "€", "£", "R$", "¥", "₹"} {
		raw = strings.ReplaceAll(raw, sym, "")
	}
	raw = strings.ReplaceAll(raw, ",", "")

	d, err := decimal.NewFromString(raw)
	if err != nil {
		return nil, fmt.Errorf("invalid amount %q: %w", raw, err)
	}

	currency := money.GetCurrency(currencyCode)
	if currency == nil {
		currency = money.GetCurrency(USD)
	}
	multiplier := decimal.New(1, int32(currency.Fraction))
	cents := d.Mul(multiplier).Round(0).IntPart()

	return New(cents, currencyCode), nil
}

// Cents returns the amount in minor units.
func (a *Amount) Cents() int64 {
	if a == nil || a.m == nil {
		return 0
	}
	return a.m.Amount()
}

// Currency returns the ISO-4217 currency code.
func (a *Amount) Currency() string {
	if a == nil || a.m == nil {
		return ""
	}
	return a.m.Currency().Code
}

// IsPositive returns true if the amount is strictly greater than zero.
func (a *Amount) IsPositive() bool {
	return a != nil && a.m != nil && a.m.IsPositive()
}

// Float64 converts to float64 for the JSON response (display only).
func (a *Amount) Float64() float64 {
	return a.ToDecimal().InexactFloat64()
}

// ToDecimal converts to decimal.Decimal for precise calculations.
func (a *Amount) ToDecimal() decimal.Decimal {
	if a == nil || a.m == nil {
		return decimal.Zero
	}
	currency := a.m.Currency()
	d := decimal.NewFromInt(a.m.Amount())
	divisor := decimal.New(1, int32(currency.Fraction))
	return d.Div(divisor)
}

// WithinOneCent reports whether two float amounts agree to one cent.
// The suggestion composer uses this to suppress subtotal lines that just
// restate the total.
func WithinOneCent(a, b float64) bool {
	diff := decimal.NewFromFloat(a).Sub(decimal.NewFromFloat(b)).Abs()
	return diff.LessThanOrEqual(decimal.NewFromFloat(0.01))
}

// FormatCents renders a float amount with exactly two decimals ("6.87").
func FormatCents(value float64) string {
	return decimal.NewFromFloat(value).StringFixed(2)
}

// Display returns a formatted string for display (e.g., "$1,234.56").
func (a *Amount) Display() string {
	if a == nil || a.m == nil {
		return "$0.00"
	}
	return a.m.Display()
}

// String returns the amount as a decimal string (e.g., "1234.56").
func (a *Amount) String() string {
	if a == nil || a.m == nil {
		return "0.00"
	}
	return a.ToDecimal().StringFixed(2)
}
