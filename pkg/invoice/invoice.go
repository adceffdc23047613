// Package invoice implements the invoice aggregate: a draft line-item
// accumulator that moves strictly forward through DRAFT -> ISSUED -> PAID.
package invoice

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/cadencehq/cadence/pkg/errs"
	"github.com/cadencehq/cadence/pkg/money"
)

// Status is the lifecycle state of an invoice.
type Status string

const (
	StatusDraft  Status = "draft"
	StatusIssued Status = "issued"
	StatusPaid   Status = "paid"
)

// LineItem is an immutable description + amount pair.
type LineItem struct {
	Description string      `json:"description"`
	Amount      money.Money `json:"amount"`
}

// Invoice accumulates line items while DRAFT. Every line item must carry
// the invoice currency.
type Invoice struct {
	ID          string
	CreatedAt   time.Time
	CustomerID  string
	PeriodStart time.Time
	PeriodEnd   time.Time
	Currency    string
	Status      Status

	items []LineItem
}

// New creates a DRAFT invoice covering [periodStart, periodEnd).
func New(customerID string, periodStart, periodEnd time.Time, currency string) (*Invoice, error) {
	if customerID == "" {
		return nil, errs.Validationf("customer_id must be non-empty")
	}
	if !periodEnd.After(periodStart) {
		return nil, errs.Validationf("period_end must be after period_start")
	}
	cur, err := money.NormalizeCurrency(currency)
	if err != nil {
		return nil, err
	}

	return &Invoice{
		ID:          uuid.NewString(),
		CreatedAt:   time.Now().UTC(),
		CustomerID:  customerID,
		PeriodStart: periodStart,
		PeriodEnd:   periodEnd,
		Currency:    cur,
		Status:      StatusDraft,
	}, nil
}

// Restore rebuilds an invoice from persisted state without re-running the
// draft-only checks. For store implementations only.
func Restore(id string, createdAt time.Time, customerID string, periodStart, periodEnd time.Time,
	currency string, status Status, items []LineItem) *Invoice {
	return &Invoice{
		ID:          id,
		CreatedAt:   createdAt,
		CustomerID:  customerID,
		PeriodStart: periodStart,
		PeriodEnd:   periodEnd,
		Currency:    currency,
		Status:      status,
		items:       append([]LineItem(nil), items...),
	}
}

// AddLineItem appends a line item. Only DRAFT invoices accept items, and
// only in the invoice currency.
func (inv *Invoice) AddLineItem(item LineItem) error {
	if inv.Status != StatusDraft {
		return errs.InvalidTransition("invoice", string(inv.Status), "add_line_item")
	}
	if item.Amount.Currency() != inv.Currency {
		return errs.CurrencyMismatch(item.Amount.Currency(), inv.Currency)
	}
	inv.items = append(inv.items, item)
	return nil
}

// Items returns a copy of the line items.
func (inv *Invoice) Items() []LineItem {
	return append([]LineItem(nil), inv.items...)
}

// Len returns the line item count.
func (inv *Invoice) Len() int { return len(inv.items) }

// Total sums all line items, starting from zero in the invoice currency.
// The currency invariant on AddLineItem makes the additions infallible.
func (inv *Invoice) Total() money.Money {
	total := money.Zero(inv.Currency)
	for _, li := range inv.items {
		total, _ = total.Add(li.Amount)
	}
	return total
}

// Issue moves DRAFT -> ISSUED.
func (inv *Invoice) Issue() error {
	if inv.Status != StatusDraft {
		return errs.InvalidTransition("invoice", string(inv.Status), "issued")
	}
	inv.Status = StatusIssued
	return nil
}

// Pay moves ISSUED -> PAID.
func (inv *Invoice) Pay() error {
	if inv.Status != StatusIssued {
		return errs.InvalidTransition("invoice", string(inv.Status), "paid")
	}
	inv.Status = StatusPaid
	return nil
}

type invoiceJSON struct {
	ID          string      `json:"invoice_id"`
	CreatedAt   time.Time   `json:"created_at"`
	CustomerID  string      `json:"customer_id"`
	PeriodStart time.Time   `json:"period_start"`
	PeriodEnd   time.Time   `json:"period_end"`
	Currency    string      `json:"currency"`
	Status      Status      `json:"status"`
	Items       []LineItem  `json:"items"`
	Total       money.Money `json:"total"`
}

// MarshalJSON includes the line items and the computed total.
func (inv *Invoice) MarshalJSON() ([]byte, error) {
	return json.Marshal(invoiceJSON{
		ID:          inv.ID,
		CreatedAt:   inv.CreatedAt,
		CustomerID:  inv.CustomerID,
		PeriodStart: inv.PeriodStart,
		PeriodEnd:   inv.PeriodEnd,
		Currency:    inv.Currency,
		Status:      inv.Status,
		Items:       inv.Items(),
		Total:       inv.Total(),
	})
}

// UnmarshalJSON restores an invoice from its wire form.
func (inv *Invoice) UnmarshalJSON(data []byte) error {
	var raw invoiceJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*inv = *Restore(raw.ID, raw.CreatedAt, raw.CustomerID, raw.PeriodStart, raw.PeriodEnd,
		raw.Currency, raw.Status, raw.Items)
	return nil
}
