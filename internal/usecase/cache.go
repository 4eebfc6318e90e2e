package usecase

import (
	"sync"

	"github.com/iho/stripe-datev/internal/domain"
)

// RunCache memoizes values for the duration of one export run.
//
// Entries are populated once and never evicted. When two callers compute the
// same key concurrently the first stored value wins and both observe it.
type RunCache[V any] struct {
	mu      sync.Mutex
	entries map[string]V
}

// NewRunCache creates an empty RunCache.
func NewRunCache[V any]() *RunCache[V] {
	return &RunCache[V]{entries: make(map[string]V)}
}

// Get returns the cached value for key.
func (c *RunCache[V]) Get(key string) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.entries[key]
	return v, ok
}

// GetOrCompute returns the cached value for key, computing and storing it if absent.
// compute runs without the lock held; errors are not cached.
func (c *RunCache[V]) GetOrCompute(key string, compute func() (V, error)) (V, bool, error) {
	if v, ok := c.Get(key); ok {
		return v, true, nil
	}

	v, err := compute()
	if err != nil {
		var zero V
		return zero, false, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if existing, ok := c.entries[key]; ok {
		return existing, true, nil
	}
	c.entries[key] = v
	return v, false, nil
}

// Len returns the number of cached entries.
func (c *RunCache[V]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

type classification struct {
	profile domain.TaxProfile
	diags   []domain.Diagnostic
}

// LookupMemo bundles the caches shared by the builders of one run.
type LookupMemo struct {
	customers *RunCache[*domain.Customer]
	taxRates  *RunCache[*domain.TaxRate]
	profiles  *RunCache[classification]
}

// NewLookupMemo creates the caches for a new run.
func NewLookupMemo() *LookupMemo {
	return &LookupMemo{
		customers: NewRunCache[*domain.Customer](),
		taxRates:  NewRunCache[*domain.TaxRate](),
		profiles:  NewRunCache[classification](),
	}
}

// Customer resolves id through lookup, at most once per run.
func (m *LookupMemo) Customer(lookup CustomerLookup, id string) (*domain.Customer, error) {
	c, _, err := m.customers.GetOrCompute(id, func() (*domain.Customer, error) {
		if lookup == nil {
			return nil, domain.ErrMissingCustomer
		}
		return lookup.LookupCustomer(id)
	})
	return c, err
}

// RememberCustomer stores an expanded customer so later lookups reuse it.
func (m *LookupMemo) RememberCustomer(c *domain.Customer) *domain.Customer {
	stored, _, _ := m.customers.GetOrCompute(c.ID, func() (*domain.Customer, error) {
		return c, nil
	})
	return stored
}

// TaxRate resolves id through lookup, at most once per run.
func (m *LookupMemo) TaxRate(lookup TaxRateLookup, id string) (*domain.TaxRate, error) {
	r, _, err := m.taxRates.GetOrCompute(id, func() (*domain.TaxRate, error) {
		return lookup.LookupTaxRate(id)
	})
	return r, err
}
