// Package plan defines the pricing plan variants and the configuration
// formats they are built from.
//
// Three variants exist: free, flat monthly, and per-seat monthly. New
// variants register a factory under a type tag; Parse dispatches on that
// tag, whether the config arrived as a compact DSL string, a JSON object,
// or a structured mapping.
package plan

import (
	"github.com/shopspring/decimal"

	"github.com/cadencehq/cadence/pkg/errs"
	"github.com/cadencehq/cadence/pkg/money"
)

// Plan is the pricing contract every variant satisfies. Plans are immutable
// once constructed and identified by a unique code.
type Plan interface {
	Code() string
	Name() string
	Currency() string

	// RequiresSeats reports whether the price depends on the seat count.
	RequiresSeats() bool

	// MonthlyPriceFor returns the monthly price at the given seat count.
	MonthlyPriceFor(seats int) (money.Money, error)
}

type details struct {
	code     string
	name     string
	currency string
}

func (d details) Code() string     { return d.code }
func (d details) Name() string     { return d.name }
func (d details) Currency() string { return d.currency }

func newDetails(code, name, currency string) (details, error) {
	if code == "" {
		return details{}, errs.Configf("plan code must be non-empty")
	}
	if name == "" {
		return details{}, errs.Configf("plan name must be non-empty")
	}
	cur, err := money.NormalizeCurrency(currency)
	if err != nil {
		return details{}, errs.Configf("plan %s: %v", code, err)
	}
	return details{code: code, name: name, currency: cur}, nil
}

// Free is a plan with no charge at any seat count.
type Free struct {
	details
}

// NewFree constructs a free plan.
func NewFree(code, name, currency string) (*Free, error) {
	d, err := newDetails(code, name, currency)
	if err != nil {
		return nil, err
	}
	return &Free{details: d}, nil
}

func (p *Free) RequiresSeats() bool { return false }

func (p *Free) MonthlyPriceFor(seats int) (money.Money, error) {
	return money.Zero(p.currency), nil
}

// Flat is a fixed monthly price regardless of seats.
type Flat struct {
	details
	monthly money.Money
}

// NewFlat constructs a flat monthly plan.
func NewFlat(code, name, currency string, monthly money.Money) (*Flat, error) {
	d, err := newDetails(code, name, currency)
	if err != nil {
		return nil, err
	}
	if monthly.Currency() != d.currency {
		return nil, errs.Configf("plan %s: price currency %s does not match plan currency %s",
			code, monthly.Currency(), d.currency)
	}
	return &Flat{details: d, monthly: monthly}, nil
}

func (p *Flat) RequiresSeats() bool { return false }

func (p *Flat) MonthlyPriceFor(seats int) (money.Money, error) {
	return p.monthly, nil
}

// Monthly returns the fixed monthly price.
func (p *Flat) Monthly() money.Money { return p.monthly }

// PerSeat charges a base price plus a per-seat price times the seat count.
type PerSeat struct {
	details
	base    money.Money
	perSeat money.Money
}

// NewPerSeat constructs a per-seat monthly plan.
func NewPerSeat(code, name, currency string, base, perSeat money.Money) (*PerSeat, error) {
	d, err := newDetails(code, name, currency)
	if err != nil {
		return nil, err
	}
	if base.Currency() != d.currency || perSeat.Currency() != d.currency {
		return nil, errs.Configf("plan %s: price currency does not match plan currency %s", code, d.currency)
	}
	return &PerSeat{details: d, base: base, perSeat: perSeat}, nil
}

func (p *PerSeat) RequiresSeats() bool { return true }

func (p *PerSeat) MonthlyPriceFor(seats int) (money.Money, error) {
	if seats < 1 {
		return money.Money{}, errs.Validationf("seats must be >= 1, got %d", seats)
	}
	return p.base.Add(p.perSeat.Scale(decimal.NewFromInt(int64(seats))))
}

// Base returns the base monthly price.
func (p *PerSeat) Base() money.Money { return p.base }

// PerSeatPrice returns the price added per seat.
func (p *PerSeat) PerSeatPrice() money.Money { return p.perSeat }
