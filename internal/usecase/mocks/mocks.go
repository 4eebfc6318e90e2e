package mocks

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/iho/stripe-datev/internal/domain"
)

// CustomerStore is an in-memory customer lookup and directory.
type CustomerStore struct {
	mu        sync.RWMutex
	customers map[string]*domain.Customer
	order     []string
	lookups   map[string]int

	LookupCustomerFunc   func(id string) (*domain.Customer, error)
	SetAccountNumberFunc func(ctx context.Context, customerID, accountNumber string, clearKeys []string) error
}

// NewCustomerStore creates a store holding customers, listed in the given order.
func NewCustomerStore(customers ...domain.Customer) *CustomerStore {
	s := &CustomerStore{
		customers: make(map[string]*domain.Customer),
		lookups:   make(map[string]int),
	}
	for i := range customers {
		c := customers[i]
		s.customers[c.ID] = &c
		s.order = append(s.order, c.ID)
	}
	return s
}

func (s *CustomerStore) LookupCustomer(id string) (*domain.Customer, error) {
	s.mu.Lock()
	s.lookups[id]++
	s.mu.Unlock()

	if s.LookupCustomerFunc != nil {
		return s.LookupCustomerFunc(id)
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	if c, ok := s.customers[id]; ok {
		return c, nil
	}
	return nil, fmt.Errorf("%w: %s", domain.ErrMissingCustomer, id)
}

// Lookups returns how often id was looked up.
func (s *CustomerStore) Lookups(id string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lookups[id]
}

func (s *CustomerStore) ListCustomers(ctx context.Context) ([]domain.Customer, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.Customer, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, *s.customers[id])
	}
	return out, nil
}

func (s *CustomerStore) SetAccountNumber(ctx context.Context, customerID, accountNumber string, clearKeys []string) error {
	if s.SetAccountNumberFunc != nil {
		return s.SetAccountNumberFunc(ctx, customerID, accountNumber, clearKeys)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.customers[customerID]
	if !ok {
		return fmt.Errorf("%w: %s", domain.ErrMissingCustomer, customerID)
	}
	md := make(map[string]string, len(c.Metadata)+1)
	for k, v := range c.Metadata {
		md[k] = v
	}
	md[domain.MetadataAccountNumber] = accountNumber
	for _, k := range clearKeys {
		delete(md, k)
	}
	c.Metadata = md
	return nil
}

// TaxRateStore is an in-memory tax rate lookup.
type TaxRateStore struct {
	rates map[string]*domain.TaxRate

	LookupTaxRateFunc func(id string) (*domain.TaxRate, error)
}

func NewTaxRateStore(rates ...domain.TaxRate) *TaxRateStore {
	s := &TaxRateStore{rates: make(map[string]*domain.TaxRate)}
	for i := range rates {
		r := rates[i]
		s.rates[r.ID] = &r
	}
	return s
}

func (s *TaxRateStore) LookupTaxRate(id string) (*domain.TaxRate, error) {
	if s.LookupTaxRateFunc != nil {
		return s.LookupTaxRateFunc(id)
	}
	if r, ok := s.rates[id]; ok {
		return r, nil
	}
	return nil, fmt.Errorf("tax rate %s not found", id)
}

// ArchiveStore is an in-memory archive repository.
type ArchiveStore struct {
	mu    sync.RWMutex
	files []*domain.ExportedFile

	SaveFunc func(ctx context.Context, file *domain.ExportedFile) error
}

func NewArchiveStore() *ArchiveStore {
	return &ArchiveStore{}
}

func (s *ArchiveStore) Save(ctx context.Context, file *domain.ExportedFile) error {
	if s.SaveFunc != nil {
		return s.SaveFunc(ctx, file)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.files = append(s.files, file)
	return nil
}

func (s *ArchiveStore) GetByID(ctx context.Context, id string) (*domain.ExportedFile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, f := range s.files {
		if f.ID == id {
			return f, nil
		}
	}
	return nil, domain.ErrBatchNotFound
}

func (s *ArchiveStore) FindLatest(ctx context.Context, kind domain.RecordKind, month, fromMonth string) (*domain.ExportedFile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for i := len(s.files) - 1; i >= 0; i-- {
		f := s.files[i]
		if f.Kind == kind && f.Month == month && f.FromMonth == fromMonth {
			return f, nil
		}
	}
	return nil, domain.ErrBatchNotFound
}

func (s *ArchiveStore) List(ctx context.Context, filter domain.ArchiveFilter) ([]*domain.ExportedFile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*domain.ExportedFile
	for _, f := range s.files {
		if filter.Kind != "" && f.Kind != filter.Kind {
			continue
		}
		if filter.Month != "" && f.Month != filter.Month {
			continue
		}
		out = append(out, f)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if filter.Offset >= len(out) {
		return nil, nil
	}
	out = out[filter.Offset:]
	if filter.Limit > 0 && filter.Limit < len(out) {
		out = out[:filter.Limit]
	}
	return out, nil
}

func (s *ArchiveStore) ListRecords(ctx context.Context, fileID string) ([]domain.Record, error) {
	f, err := s.GetByID(ctx, fileID)
	if err != nil {
		return nil, err
	}
	return f.Records, nil
}

// SequenceIDGenerator returns prefix-1, prefix-2, ...
type SequenceIDGenerator struct {
	mu     sync.Mutex
	Prefix string
	n      int
}

func (g *SequenceIDGenerator) Generate() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.n++
	return fmt.Sprintf("%s-%d", g.Prefix, g.n)
}
