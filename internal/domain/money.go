package domain

import (
	"github.com/shopspring/decimal"
)

// Money is an immutable amount paired with a currency code.
// Arithmetic between differing currencies always fails.
type Money struct {
	Amount   decimal.Decimal
	Currency string
}

func NewMoney(amount decimal.Decimal, currency string) (Money, error) {
	if currency == "" {
		return Money{}, invalidArgument("currency is required")
	}
	return Money{Amount: amount, Currency: currency}, nil
}

// Zero returns the zero amount in the given currency.
func Zero(currency string) Money {
	return Money{Amount: decimal.Zero, Currency: currency}
}

func (m Money) Add(other Money) (Money, error) {
	if m.Currency != other.Currency {
		return Money{}, &CurrencyMismatchError{Left: m.Currency, Right: other.Currency}
	}
	return Money{Amount: m.Amount.Add(other.Amount), Currency: m.Currency}, nil
}

func (m Money) Subtract(other Money) (Money, error) {
	if m.Currency != other.Currency {
		return Money{}, &CurrencyMismatchError{Left: m.Currency, Right: other.Currency}
	}
	return Money{Amount: m.Amount.Sub(other.Amount), Currency: m.Currency}, nil
}

// MultiplyByScalar scales the amount; the currency is unchanged.
func (m Money) MultiplyByScalar(factor int64) Money {
	return Money{Amount: m.Amount.Mul(decimal.NewFromInt(factor)), Currency: m.Currency}
}

// Equal reports structural equality: same amount and same currency.
func (m Money) Equal(other Money) bool {
	return m.Currency == other.Currency && m.Amount.Equal(other.Amount)
}

func (m Money) IsNegative() bool {
	return m.Amount.IsNegative()
}

// IsUnset reports whether the value carries no currency, i.e. was never constructed.
func (m Money) IsUnset() bool {
	return m.Currency == ""
}

func (m Money) String() string {
	return m.Amount.StringFixed(2) + " " + m.Currency
}
