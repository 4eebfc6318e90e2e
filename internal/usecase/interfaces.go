package usecase

import (
	"context"

	"github.com/iho/stripe-datev/internal/domain"
)

// CustomerLookup resolves customers that were not expanded on a source record.
type CustomerLookup interface {
	LookupCustomer(id string) (*domain.Customer, error)
}

// TaxRateLookup resolves tax rates referenced by invoices.
type TaxRateLookup interface {
	LookupTaxRate(id string) (*domain.TaxRate, error)
}

// CustomerDirectory lists customers and stores their ledger account numbers.
type CustomerDirectory interface {
	ListCustomers(ctx context.Context) ([]domain.Customer, error)
	SetAccountNumber(ctx context.Context, customerID, accountNumber string, clearKeys []string) error
}

// ArchiveRepository defines data access for exported files.
type ArchiveRepository interface {
	Save(ctx context.Context, file *domain.ExportedFile) error
	GetByID(ctx context.Context, id string) (*domain.ExportedFile, error)
	FindLatest(ctx context.Context, kind domain.RecordKind, month, fromMonth string) (*domain.ExportedFile, error)
	List(ctx context.Context, filter domain.ArchiveFilter) ([]*domain.ExportedFile, error)
	ListRecords(ctx context.Context, fileID string) ([]domain.Record, error)
}

// IDGenerator generates unique IDs.
type IDGenerator interface {
	Generate() string
}
