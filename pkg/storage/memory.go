package storage

import (
	"sync"

	"github.com/cadencehq/cadence/pkg/errs"
	"github.com/cadencehq/cadence/pkg/invoice"
	"github.com/cadencehq/cadence/pkg/plan"
	"github.com/cadencehq/cadence/pkg/promo"
	"github.com/cadencehq/cadence/pkg/subscription"
)

// MemoryPlanStore is a map-backed PlanStore safe for concurrent use.
type MemoryPlanStore struct {
	mu    sync.RWMutex
	plans map[string]plan.Plan
	order []string
}

// NewMemoryPlanStore creates an empty in-memory plan store.
func NewMemoryPlanStore() *MemoryPlanStore {
	return &MemoryPlanStore{plans: make(map[string]plan.Plan)}
}

// Add registers a plan, replacing any plan with the same code.
func (s *MemoryPlanStore) Add(p plan.Plan) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.plans[p.Code()]; !exists {
		s.order = append(s.order, p.Code())
	}
	s.plans[p.Code()] = p
	return nil
}

// Get returns the plan with the given code.
func (s *MemoryPlanStore) Get(code string) (plan.Plan, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.plans[code]
	if !ok {
		return nil, errs.NotFound("plan", code)
	}
	return p, nil
}

// List returns all plans in insertion order.
func (s *MemoryPlanStore) List() ([]plan.Plan, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]plan.Plan, 0, len(s.order))
	for _, code := range s.order {
		out = append(out, s.plans[code])
	}
	return out, nil
}

// Replace swaps the whole catalog atomically.
func (s *MemoryPlanStore) Replace(plans []plan.Plan) error {
	next := make(map[string]plan.Plan, len(plans))
	order := make([]string, 0, len(plans))
	for _, p := range plans {
		if _, exists := next[p.Code()]; !exists {
			order = append(order, p.Code())
		}
		next[p.Code()] = p
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.plans = next
	s.order = order
	return nil
}

// MemorySubscriptionStore is a map-backed SubscriptionStore.
type MemorySubscriptionStore struct {
	mu   sync.RWMutex
	subs map[string]*subscription.Subscription
}

// NewMemorySubscriptionStore creates an empty in-memory subscription store.
func NewMemorySubscriptionStore() *MemorySubscriptionStore {
	return &MemorySubscriptionStore{subs: make(map[string]*subscription.Subscription)}
}

// Save upserts a subscription by id.
func (s *MemorySubscriptionStore) Save(sub *subscription.Subscription) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.subs[sub.ID] = sub
	return nil
}

// Get returns the subscription with the given id.
func (s *MemorySubscriptionStore) Get(id string) (*subscription.Subscription, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sub, ok := s.subs[id]
	if !ok {
		return nil, errs.NotFound("subscription", id)
	}
	return sub, nil
}

// MemoryInvoiceStore is a map-backed InvoiceStore.
type MemoryInvoiceStore struct {
	mu       sync.RWMutex
	invoices map[string]*invoice.Invoice
}

// NewMemoryInvoiceStore creates an empty in-memory invoice store.
func NewMemoryInvoiceStore() *MemoryInvoiceStore {
	return &MemoryInvoiceStore{invoices: make(map[string]*invoice.Invoice)}
}

// Save upserts an invoice by id.
func (s *MemoryInvoiceStore) Save(inv *invoice.Invoice) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.invoices[inv.ID] = inv
	return nil
}

// Get returns the invoice with the given id.
func (s *MemoryInvoiceStore) Get(id string) (*invoice.Invoice, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	inv, ok := s.invoices[id]
	if !ok {
		return nil, errs.NotFound("invoice", id)
	}
	return inv, nil
}

// MemoryPromoStore is a map-backed PromoStore that also tracks per-customer
// usage, satisfying PromoUsageStore.
type MemoryPromoStore struct {
	mu     sync.RWMutex
	promos map[string]promo.PromoCode
	used   map[[2]string]struct{} // (code, customer_id)
}

// NewMemoryPromoStore creates an empty in-memory promo store.
func NewMemoryPromoStore() *MemoryPromoStore {
	return &MemoryPromoStore{
		promos: make(map[string]promo.PromoCode),
		used:   make(map[[2]string]struct{}),
	}
}

// Add registers a promo code.
func (s *MemoryPromoStore) Add(p promo.PromoCode) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.promos[p.Code] = p
	return nil
}

// Get returns the promo with the given code.
func (s *MemoryPromoStore) Get(code string) (promo.PromoCode, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.promos[code]
	if !ok {
		return promo.PromoCode{}, errs.NotFound("promo", code)
	}
	return p, nil
}

// IsUsed reports whether the customer already redeemed the code.
func (s *MemoryPromoStore) IsUsed(code, customerID string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.used[[2]string{code, customerID}]
	return ok, nil
}

// MarkUsed records a redemption for the (code, customer) pair.
func (s *MemoryPromoStore) MarkUsed(code, customerID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.used[[2]string{code, customerID}] = struct{}{}
	return nil
}
