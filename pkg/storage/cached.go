package storage

import (
	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/cadencehq/cadence/pkg/plan"
)

// CachedPlanStore is a read-through LRU cache in front of another
// PlanStore. Intended for SQL-backed catalogs where Get is on the hot path
// of every billing operation.
type CachedPlanStore struct {
	inner PlanStore
	cache *lru.Cache[string, plan.Plan]

	// OnHit and OnMiss, when set, are called on every cache lookup.
	// Instrumentation hooks; both must be safe for concurrent use.
	OnHit  func()
	OnMiss func()
}

// NewCachedPlanStore wraps inner with an LRU cache of the given size.
func NewCachedPlanStore(inner PlanStore, size int) (*CachedPlanStore, error) {
	cache, err := lru.New[string, plan.Plan](size)
	if err != nil {
		return nil, err
	}
	return &CachedPlanStore{inner: inner, cache: cache}, nil
}

// Add writes through to the inner store and refreshes the cache entry.
func (s *CachedPlanStore) Add(p plan.Plan) error {
	if err := s.inner.Add(p); err != nil {
		return err
	}
	s.cache.Add(p.Code(), p)
	return nil
}

// Get serves from cache when possible, falling back to the inner store.
func (s *CachedPlanStore) Get(code string) (plan.Plan, error) {
	if p, ok := s.cache.Get(code); ok {
		if s.OnHit != nil {
			s.OnHit()
		}
		return p, nil
	}
	if s.OnMiss != nil {
		s.OnMiss()
	}
	p, err := s.inner.Get(code)
	if err != nil {
		return nil, err
	}
	s.cache.Add(code, p)
	return p, nil
}

// List always hits the inner store; listing is not on the hot path.
func (s *CachedPlanStore) List() ([]plan.Plan, error) {
	return s.inner.List()
}

// Replace swaps the inner catalog and drops the whole cache.
func (s *CachedPlanStore) Replace(plans []plan.Plan) error {
	if err := s.inner.Replace(plans); err != nil {
		return err
	}
	s.cache.Purge()
	return nil
}
