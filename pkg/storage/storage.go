// Package storage defines the store interfaces the billing service runs
// against, plus the in-memory reference implementations, an LRU-cached
// plan store, and a Redis-backed promo usage store. SQL-backed stores live
// in the postgres subpackage.
package storage

import (
	"github.com/cadencehq/cadence/pkg/invoice"
	"github.com/cadencehq/cadence/pkg/plan"
	"github.com/cadencehq/cadence/pkg/promo"
	"github.com/cadencehq/cadence/pkg/subscription"
)

// PlanStore holds the plan catalog, keyed by plan code.
type PlanStore interface {
	Add(p plan.Plan) error
	Get(code string) (plan.Plan, error)
	List() ([]plan.Plan, error)

	// Replace swaps the whole catalog atomically (catalog hot reload).
	Replace(plans []plan.Plan) error
}

// SubscriptionStore persists subscriptions keyed by generated id.
type SubscriptionStore interface {
	Save(sub *subscription.Subscription) error
	Get(id string) (*subscription.Subscription, error)
}

// InvoiceStore persists invoices keyed by generated id.
type InvoiceStore interface {
	Save(inv *invoice.Invoice) error
	Get(id string) (*invoice.Invoice, error)
}

// PromoStore holds promo code definitions keyed by code.
type PromoStore interface {
	Add(p promo.PromoCode) error
	Get(code string) (promo.PromoCode, error)
}

// PromoUsageStore tracks which (code, customer) pairs have redeemed a
// single-use promo.
type PromoUsageStore interface {
	IsUsed(code, customerID string) (bool, error)
	MarkUsed(code, customerID string) error
}

// Stores bundles everything the billing service needs.
type Stores struct {
	Plans         PlanStore
	Subscriptions SubscriptionStore
	Invoices      InvoiceStore
	Promos        PromoStore
	PromoUsage    PromoUsageStore
}

// NewMemoryStores returns a Stores bundle backed entirely by memory.
func NewMemoryStores() Stores {
	promos := NewMemoryPromoStore()
	return Stores{
		Plans:         NewMemoryPlanStore(),
		Subscriptions: NewMemorySubscriptionStore(),
		Invoices:      NewMemoryInvoiceStore(),
		Promos:        promos,
		PromoUsage:    promos,
	}
}
