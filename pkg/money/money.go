// Package money provides an exact-decimal money value type. Amounts are
// always quantized to two decimal places with half-up rounding, and
// arithmetic is only defined between values of the same currency.
package money

import (
	"encoding/json"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/cadencehq/cadence/pkg/errs"
)

// Money is an immutable value: an exact decimal amount plus a 3-letter
// uppercase currency code. The zero value is not valid; use a constructor.
type Money struct {
	amount   decimal.Decimal
	currency string
}

// FromString builds Money from a numeric string. Floating-point input has
// no constructor on purpose: binary floats cannot represent most decimal
// amounts exactly.
func FromString(amount, currency string) (Money, error) {
	d, err := decimal.NewFromString(amount)
	if err != nil {
		return Money{}, errs.Validationf("invalid amount: %q", amount)
	}
	return FromDecimal(d, currency)
}

// FromInt builds Money from an integer amount of whole currency units.
func FromInt(amount int64, currency string) (Money, error) {
	return FromDecimal(decimal.NewFromInt(amount), currency)
}

// FromDecimal builds Money from a decimal amount, quantizing to 2 places.
func FromDecimal(amount decimal.Decimal, currency string) (Money, error) {
	cur, err := NormalizeCurrency(currency)
	if err != nil {
		return Money{}, err
	}
	return Money{amount: Round(amount), currency: cur}, nil
}

// MustFromString is FromString that panics on error. For tests and static
// configuration only.
func MustFromString(amount, currency string) Money {
	m, err := FromString(amount, currency)
	if err != nil {
		panic(err)
	}
	return m
}

// Zero returns a zero amount in the given currency. The currency is
// normalized but assumed valid; callers pass currencies taken from
// already-constructed Money values or validated entities.
func Zero(currency string) Money {
	m, err := FromInt(0, currency)
	if err != nil {
		panic(err)
	}
	return m
}

// NormalizeCurrency trims, uppercases and validates a currency code.
func NormalizeCurrency(currency string) (string, error) {
	cur := ""
	for _, r := range currency {
		if r == ' ' || r == '\t' {
			continue
		}
		cur += string(r)
	}
	if len(cur) != 3 {
		return "", errs.Validationf("invalid currency: %q", currency)
	}
	out := make([]byte, 3)
	for i := 0; i < 3; i++ {
		c := cur[i]
		switch {
		case c >= 'a' && c <= 'z':
			out[i] = c - 'a' + 'A'
		case c >= 'A' && c <= 'Z':
			out[i] = c
		default:
			return "", errs.Validationf("invalid currency: %q", currency)
		}
	}
	return string(out), nil
}

// Round quantizes a decimal to 2 places, half away from zero.
func Round(d decimal.Decimal) decimal.Decimal {
	return d.Round(2)
}

// Amount returns the quantized decimal amount.
func (m Money) Amount() decimal.Decimal { return m.amount }

// Currency returns the 3-letter uppercase currency code.
func (m Money) Currency() string { return m.currency }

// IsZero reports whether the amount is zero.
func (m Money) IsZero() bool { return m.amount.IsZero() }

// IsNegative reports whether the amount is below zero.
func (m Money) IsNegative() bool { return m.amount.IsNegative() }

// Equal reports whether both amount and currency match.
func (m Money) Equal(other Money) bool {
	return m.currency == other.currency && m.amount.Equal(other.amount)
}

// Add returns m + other. Fails if the currencies differ.
func (m Money) Add(other Money) (Money, error) {
	if err := m.assertSameCurrency(other); err != nil {
		return Money{}, err
	}
	return Money{amount: m.amount.Add(other.amount), currency: m.currency}, nil
}

// Sub returns m - other. Fails if the currencies differ.
func (m Money) Sub(other Money) (Money, error) {
	if err := m.assertSameCurrency(other); err != nil {
		return Money{}, err
	}
	return Money{amount: m.amount.Sub(other.amount), currency: m.currency}, nil
}

// Neg returns the negated amount in the same currency.
func (m Money) Neg() Money {
	return Money{amount: m.amount.Neg(), currency: m.currency}
}

// Scale multiplies the amount by factor and re-quantizes to 2 places.
func (m Money) Scale(factor decimal.Decimal) Money {
	return Money{amount: Round(m.amount.Mul(factor)), currency: m.currency}
}

func (m Money) assertSameCurrency(other Money) error {
	if m.currency != other.currency {
		return errs.CurrencyMismatch(m.currency, other.currency)
	}
	return nil
}

// String renders "20.00 EUR".
func (m Money) String() string {
	return fmt.Sprintf("%s %s", m.amount.StringFixed(2), m.currency)
}

type moneyJSON struct {
	Amount   string `json:"amount"`
	Currency string `json:"currency"`
}

// MarshalJSON renders {"amount":"20.00","currency":"EUR"}.
func (m Money) MarshalJSON() ([]byte, error) {
	return json.Marshal(moneyJSON{Amount: m.amount.StringFixed(2), Currency: m.currency})
}

// UnmarshalJSON parses the wire form produced by MarshalJSON.
func (m *Money) UnmarshalJSON(data []byte) error {
	var raw moneyJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	parsed, err := FromString(raw.Amount, raw.Currency)
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}
