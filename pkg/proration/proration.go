// Package proration computes the credit/charge line items produced when a
// subscription's price changes mid-period. The remaining fraction of the
// period is priced on both the old and the new monthly price; each side is
// rounded independently.
package proration

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/cadencehq/cadence/pkg/errs"
	"github.com/cadencehq/cadence/pkg/invoice"
	"github.com/cadencehq/cadence/pkg/money"
)

const (
	creditDescription = "Proration credit (unused old plan)"
	chargeDescription = "Proration charge (remaining new plan)"
)

// LineItems computes up to two line items for a price change on changeDate
// within [periodStart, periodEnd]: a negative credit for the unused part of
// the old price and a positive charge for the remaining part of the new
// price. Zero-amount items are omitted. A change on the period end yields
// no items: it takes effect at the boundary.
func LineItems(oldMonthly, newMonthly money.Money, periodStart, periodEnd, changeDate time.Time) ([]invoice.LineItem, error) {
	if periodEnd.Before(periodStart) {
		return nil, errs.Validationf("period_end must not be before period_start")
	}
	if changeDate.Before(periodStart) || changeDate.After(periodEnd) {
		return nil, errs.Validationf("change_date must be within period_start and period_end")
	}
	if oldMonthly.Currency() != newMonthly.Currency() {
		return nil, errs.CurrencyMismatch(oldMonthly.Currency(), newMonthly.Currency())
	}

	fullDays := daysBetween(periodStart, periodEnd)
	remainingDays := daysBetween(changeDate, periodEnd)
	if remainingDays <= 0 {
		return nil, nil
	}

	fraction := decimal.NewFromInt(int64(remainingDays)).Div(decimal.NewFromInt(int64(fullDays)))

	credit := oldMonthly.Scale(fraction).Neg()
	charge := newMonthly.Scale(fraction)

	var items []invoice.LineItem
	if !credit.IsZero() {
		items = append(items, invoice.LineItem{Description: creditDescription, Amount: credit})
	}
	if !charge.IsZero() {
		items = append(items, invoice.LineItem{Description: chargeDescription, Amount: charge})
	}
	return items, nil
}

func daysBetween(from, to time.Time) int {
	return int(to.Truncate(24*time.Hour).Sub(from.Truncate(24*time.Hour)) / (24 * time.Hour))
}
