// Package promo implements promotional discount codes: a percent or fixed
// reduction with a validity predicate. Per-customer usage is tracked by the
// promo store, not on the code itself.
package promo

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/cadencehq/cadence/pkg/errs"
	"github.com/cadencehq/cadence/pkg/money"
)

// Kind discriminates the discount rule.
type Kind string

const (
	KindPercent Kind = "percent"
	KindFixed   Kind = "fixed"
)

// PromoCode is an immutable discount rule.
type PromoCode struct {
	Code          string       `json:"code"`
	Kind          Kind         `json:"kind"`
	Percent       *int         `json:"percent,omitempty"`
	FixedDiscount *money.Money `json:"fixed_discount,omitempty"`
	ValidUntil    *time.Time   `json:"valid_until,omitempty"`
	SingleUse     bool         `json:"is_single_use"`
}

// ValidateFor checks whether the code can be applied for the given
// customer on the given business date. alreadyUsed is the per-customer
// usage flag maintained by the promo store.
func (p PromoCode) ValidateFor(today time.Time, customerID string, alreadyUsed bool) error {
	if p.Code == "" {
		return errs.Validationf("promo code must not be empty")
	}
	if customerID == "" {
		return errs.Validationf("customer id must not be empty")
	}

	if p.ValidUntil != nil && dateAfter(today, *p.ValidUntil) {
		return errs.PromoNotValid(p.Code, "expired")
	}

	if p.SingleUse && alreadyUsed {
		return errs.PromoNotValid(p.Code, "already used")
	}

	switch p.Kind {
	case KindPercent:
		if p.Percent == nil {
			return errs.PromoNotValid(p.Code, "missing percent")
		}
		if *p.Percent < 0 || *p.Percent > 100 {
			return errs.PromoNotValid(p.Code, "percent must be between 0 and 100")
		}
	case KindFixed:
		if p.FixedDiscount == nil {
			return errs.PromoNotValid(p.Code, "missing fixed discount")
		}
	}

	return nil
}

// Apply returns the subtotal after the discount. Percent discounts are
// rounded half-up to two places; fixed discounts floor the result at zero.
func (p PromoCode) Apply(subtotal money.Money) (money.Money, error) {
	switch p.Kind {
	case KindPercent:
		if p.Percent == nil {
			return money.Money{}, errs.PromoNotValid(p.Code, "missing percent")
		}
		factor := decimal.NewFromInt(int64(100 - *p.Percent)).Div(decimal.NewFromInt(100))
		return subtotal.Scale(factor), nil

	case KindFixed:
		if p.FixedDiscount == nil {
			return money.Money{}, errs.PromoNotValid(p.Code, "missing fixed discount")
		}
		if p.FixedDiscount.Currency() != subtotal.Currency() {
			return money.Money{}, errs.PromoNotValid(p.Code, "currency mismatch with subtotal")
		}
		result, err := subtotal.Sub(*p.FixedDiscount)
		if err != nil {
			return money.Money{}, err
		}
		if result.IsNegative() {
			return money.Zero(subtotal.Currency()), nil
		}
		return result, nil
	}

	return money.Money{}, errs.PromoNotValid(p.Code, "unknown kind")
}

// dateAfter compares calendar dates, ignoring time of day.
func dateAfter(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	if ay != by {
		return ay > by
	}
	if am != bm {
		return am > bm
	}
	return ad > bd
}
