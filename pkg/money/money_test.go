package money

import (
	"encoding/json"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cadencehq/cadence/pkg/errs"
)

func TestFromStringQuantizesToTwoPlaces(t *testing.T) {
	m, err := FromString("20", "EUR")
	require.NoError(t, err)
	assert.Equal(t, "20.00 EUR", m.String())

	m, err = FromString("19.999", "EUR")
	require.NoError(t, err)
	assert.Equal(t, "20.00 EUR", m.String())

	m, err = FromString("19.994", "EUR")
	require.NoError(t, err)
	assert.Equal(t, "19.99 EUR", m.String())
}

func TestHalfUpRounding(t *testing.T) {
	m, err := FromString("2.005", "EUR")
	require.NoError(t, err)
	assert.Equal(t, "2.01 EUR", m.String())

	m, err = FromString("-2.005", "EUR")
	require.NoError(t, err)
	assert.Equal(t, "-2.01 EUR", m.String())
}

func TestRoundTripIsIdempotent(t *testing.T) {
	m, err := FromString("10.555", "usd")
	require.NoError(t, err)

	again, err := FromString(m.Amount().String(), m.Currency())
	require.NoError(t, err)
	assert.True(t, m.Equal(again))
	assert.Equal(t, int32(-2), again.Amount().Exponent())
}

func TestCurrencyNormalization(t *testing.T) {
	m, err := FromString("5", " eur ")
	require.NoError(t, err)
	assert.Equal(t, "EUR", m.Currency())
}

func TestInvalidCurrency(t *testing.T) {
	for _, cur := range []string{"", "EU", "EURO", "E1R", "12A"} {
		_, err := FromString("5", cur)
		assert.True(t, errs.IsValidation(err), "currency %q should be rejected", cur)
	}
}

func TestInvalidAmount(t *testing.T) {
	for _, amt := range []string{"", "abc", "1.2.3", "NaN"} {
		_, err := FromString(amt, "EUR")
		assert.Error(t, err, "amount %q should be rejected", amt)
	}
}

func TestAddSubSameCurrency(t *testing.T) {
	a := MustFromString("10.50", "EUR")
	b := MustFromString("2.25", "EUR")

	sum, err := a.Add(b)
	require.NoError(t, err)
	assert.Equal(t, "12.75 EUR", sum.String())

	diff, err := a.Sub(b)
	require.NoError(t, err)
	assert.Equal(t, "8.25 EUR", diff.String())
}

func TestAddDifferentCurrencyFails(t *testing.T) {
	a := MustFromString("10", "EUR")
	b := MustFromString("10", "USD")

	_, err := a.Add(b)
	assert.True(t, errs.IsCurrencyMismatch(err))

	_, err = a.Sub(b)
	assert.True(t, errs.IsCurrencyMismatch(err))
}

func TestZeroAndSigns(t *testing.T) {
	z := Zero("EUR")
	assert.True(t, z.IsZero())
	assert.False(t, z.IsNegative())
	assert.Equal(t, "0.00 EUR", z.String())

	neg := MustFromString("3.10", "EUR").Neg()
	assert.True(t, neg.IsNegative())
	assert.Equal(t, "-3.10 EUR", neg.String())
}

func TestScaleRounds(t *testing.T) {
	m := MustFromString("20", "EUR")
	half := m.Scale(decimal.NewFromFloat(0.5))
	assert.Equal(t, "10.00 EUR", half.String())

	third := MustFromString("10", "EUR").Scale(decimal.NewFromInt(1).Div(decimal.NewFromInt(3)))
	assert.Equal(t, "3.33 EUR", third.String())
}

func TestJSONRoundTrip(t *testing.T) {
	m := MustFromString("12.50", "EUR")

	data, err := json.Marshal(m)
	require.NoError(t, err)
	assert.JSONEq(t, `{"amount":"12.50","currency":"EUR"}`, string(data))

	var back Money
	require.NoError(t, json.Unmarshal(data, &back))
	assert.True(t, m.Equal(back))
}
