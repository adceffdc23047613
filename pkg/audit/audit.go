// Package audit records a trail of completed billing operations: who was
// billed, which entity changed, and how. Loggers are pluggable; the SQLite
// logger persists entries locally, the memory logger backs tests, and the
// multi logger fans out to several destinations.
package audit

import (
	"context"
	"time"
)

// Operation identifies the billing operation that produced an entry.
type Operation string

const (
	OpSubscriptionCreate  Operation = "subscription.create"
	OpSubscriptionCancel  Operation = "subscription.cancel"
	OpSubscriptionUpgrade Operation = "subscription.upgrade"
	OpSeatsChange         Operation = "subscription.change_seats"
	OpPromoApply          Operation = "subscription.apply_promo"
	OpInvoiceIssue        Operation = "invoice.issue"
	OpInvoicePay          Operation = "invoice.pay"
)

// Entry is a single audit record.
type Entry struct {
	Operation  Operation         `json:"operation"`
	EntityKind string            `json:"entity_kind"`
	EntityID   string            `json:"entity_id"`
	CustomerID string            `json:"customer_id"`
	Detail     map[string]string `json:"detail,omitempty"`
	At         time.Time         `json:"at"`
}

// Logger receives audit entries. Implementations must be safe for
// concurrent use.
type Logger interface {
	Log(ctx context.Context, entry Entry) error
	Close() error
}

// Nop is a Logger that discards everything.
type Nop struct{}

func (Nop) Log(ctx context.Context, entry Entry) error { return nil }
func (Nop) Close() error                               { return nil }
