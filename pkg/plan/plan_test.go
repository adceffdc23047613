package plan

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cadencehq/cadence/pkg/errs"
	"github.com/cadencehq/cadence/pkg/money"
)

func TestFreePlanAlwaysZero(t *testing.T) {
	p, err := NewFree("FREE", "Free", "EUR")
	require.NoError(t, err)

	for _, seats := range []int{1, 5, 100} {
		price, err := p.MonthlyPriceFor(seats)
		require.NoError(t, err)
		assert.Equal(t, "0.00 EUR", price.String())
	}
	assert.False(t, p.RequiresSeats())
}

func TestFlatPlanIgnoresSeats(t *testing.T) {
	p, err := NewFlat("PRO", "Pro", "EUR", money.MustFromString("20", "EUR"))
	require.NoError(t, err)

	one, err := p.MonthlyPriceFor(1)
	require.NoError(t, err)
	ten, err := p.MonthlyPriceFor(10)
	require.NoError(t, err)
	assert.Equal(t, "20.00 EUR", one.String())
	assert.True(t, one.Equal(ten))
}

func TestPerSeatPlanScalesWithSeats(t *testing.T) {
	p, err := NewPerSeat("TEAM", "Team", "EUR",
		money.MustFromString("10", "EUR"), money.MustFromString("5", "EUR"))
	require.NoError(t, err)
	assert.True(t, p.RequiresSeats())

	price, err := p.MonthlyPriceFor(3)
	require.NoError(t, err)
	assert.Equal(t, "25.00 EUR", price.String())
}

func TestPerSeatMonotonicInSeats(t *testing.T) {
	p, err := NewPerSeat("TEAM", "Team", "EUR",
		money.MustFromString("10", "EUR"), money.MustFromString("5", "EUR"))
	require.NoError(t, err)

	prev := money.Zero("EUR")
	for seats := 1; seats <= 20; seats++ {
		price, err := p.MonthlyPriceFor(seats)
		require.NoError(t, err)
		diff, err := price.Sub(prev)
		require.NoError(t, err)
		assert.False(t, diff.IsNegative(), "price decreased at %d seats", seats)
		prev = price
	}
}

func TestPerSeatRejectsZeroSeats(t *testing.T) {
	p, err := NewPerSeat("TEAM", "Team", "EUR",
		money.MustFromString("10", "EUR"), money.MustFromString("5", "EUR"))
	require.NoError(t, err)

	for _, seats := range []int{0, -1, -10} {
		_, err := p.MonthlyPriceFor(seats)
		assert.True(t, errs.IsValidation(err), "seats=%d must fail", seats)
	}
}

func TestPlanCurrencyMismatchRejected(t *testing.T) {
	_, err := NewFlat("PRO", "Pro", "EUR", money.MustFromString("20", "USD"))
	assert.True(t, errs.IsConfig(err))

	_, err = NewPerSeat("TEAM", "Team", "EUR",
		money.MustFromString("10", "EUR"), money.MustFromString("5", "USD"))
	assert.True(t, errs.IsConfig(err))
}
