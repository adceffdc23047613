package plan

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cadencehq/cadence/pkg/errs"
)

func TestParseDSL(t *testing.T) {
	p, err := Parse("free;FREE;Free;EUR")
	require.NoError(t, err)
	assert.IsType(t, &Free{}, p)
	assert.Equal(t, "FREE", p.Code())
	assert.Equal(t, "EUR", p.Currency())

	p, err = Parse("flat;PRO;Pro;EUR;20")
	require.NoError(t, err)
	flat := p.(*Flat)
	assert.Equal(t, "20.00 EUR", flat.Monthly().String())

	p, err = Parse("per_seat;TEAM;Team;EUR;10;5")
	require.NoError(t, err)
	ps := p.(*PerSeat)
	assert.Equal(t, "10.00 EUR", ps.Base().String())
	assert.Equal(t, "5.00 EUR", ps.PerSeatPrice().String())
}

func TestParseDSLTrimsFields(t *testing.T) {
	p, err := Parse("flat; PRO ; Pro ; eur ; 20 ")
	require.NoError(t, err)
	assert.Equal(t, "PRO", p.Code())
	assert.Equal(t, "EUR", p.Currency())
}

func TestParseJSONObject(t *testing.T) {
	p, err := Parse(`{"type":"per_seat","code":"TEAM","name":"Team","currency":"EUR","base":10,"per_seat":5}`)
	require.NoError(t, err)
	price, err := p.MonthlyPriceFor(2)
	require.NoError(t, err)
	assert.Equal(t, "20.00 EUR", price.String())
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name   string
		config string
	}{
		{"empty", ""},
		{"unknown type", "gold;X;X;EUR"},
		{"free wrong arity", "free;FREE;Free"},
		{"flat wrong arity", "flat;PRO;Pro;EUR"},
		{"flat extra field", "flat;PRO;Pro;EUR;20;5"},
		{"per_seat wrong arity", "per_seat;TEAM;Team;EUR;10"},
		{"bad price", "flat;PRO;Pro;EUR;abc"},
		{"bad currency", "flat;PRO;Pro;EURO;20"},
		{"bad json", "{not json"},
		{"json missing type", `{"code":"X"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(tt.config)
			require.Error(t, err)
			assert.True(t, errs.IsConfig(err), "want config error, got %v", err)
		})
	}
}

func TestFromMappingUnknownType(t *testing.T) {
	_, err := FromMapping(map[string]any{"type": "metered", "code": "X"})
	assert.True(t, errs.IsConfig(err))

	_, err = FromMapping(map[string]any{"code": "X"})
	assert.True(t, errs.IsConfig(err))
}

func TestFlatMappingRequiresPrice(t *testing.T) {
	_, err := FromMapping(map[string]any{
		"type": "flat", "code": "PRO", "name": "Pro", "currency": "EUR",
	})
	assert.True(t, errs.IsConfig(err))
}

func TestDefaults(t *testing.T) {
	plans := Defaults()
	require.Len(t, plans, 3)

	codes := make([]string, 0, len(plans))
	for _, p := range plans {
		codes = append(codes, p.Code())
	}
	assert.Equal(t, []string{"FREE", "PRO", "TEAM"}, codes)
}
