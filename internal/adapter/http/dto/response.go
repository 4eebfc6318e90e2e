package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/iho/stripe-datev/internal/domain"
)

// BatchResponse represents an archived DATEV file in API responses.
type BatchResponse struct {
	ID          string    `json:"id"`
	RunID       string    `json:"run_id"`
	Kind        string    `json:"kind"`
	Month       string    `json:"month"`
	FromMonth   string    `json:"from_month"`
	FileName    string    `json:"file_name"`
	Checksum    string    `json:"checksum"`
	RecordCount int       `json:"record_count"`
	CreatedAt   time.Time `json:"created_at"`
}

// BatchFromDomain converts an archived file to a response.
func BatchFromDomain(f *domain.ExportedFile) *BatchResponse {
	return &BatchResponse{
		ID:          f.ID,
		RunID:       f.RunID,
		Kind:        string(f.Kind),
		Month:       f.Month,
		FromMonth:   f.FromMonth,
		FileName:    f.FileName,
		Checksum:    f.Checksum,
		RecordCount: f.RecordCount,
		CreatedAt:   f.CreatedAt,
	}
}

// BatchesFromDomain converts archived files to responses.
func BatchesFromDomain(files []*domain.ExportedFile) []*BatchResponse {
	result := make([]*BatchResponse, len(files))
	for i, f := range files {
		result[i] = BatchFromDomain(f)
	}
	return result
}

// RecordResponse represents one archived posting.
type RecordResponse struct {
	Date           string          `json:"date"`
	Amount         decimal.Decimal `json:"amount"`
	Side           string          `json:"side"`
	Currency       string          `json:"currency"`
	Account        string          `json:"account"`
	CounterAccount string          `json:"counter_account"`
	TaxKey         string          `json:"tax_key,omitempty"`
	Text           string          `json:"text"`
	DocumentRef    string          `json:"document_ref,omitempty"`
	EUVATID        string          `json:"eu_vat_id,omitempty"`
}

// RecordsFromDomain converts archived postings to responses.
func RecordsFromDomain(records []domain.Record) []RecordResponse {
	result := make([]RecordResponse, len(records))
	for i, r := range records {
		result[i] = RecordResponse{
			Date:           r.Date.Format(time.DateOnly),
			Amount:         r.Amount,
			Side:           string(r.Side),
			Currency:       r.Currency,
			Account:        r.Account,
			CounterAccount: r.CounterAccount,
			TaxKey:         r.TaxKey,
			Text:           r.Text,
			DocumentRef:    r.DocumentRef,
			EUVATID:        r.EUVATID,
		}
	}
	return result
}

// ListResponse wraps a page of results.
type ListResponse[T any] struct {
	Data   []T `json:"data"`
	Limit  int `json:"limit"`
	Offset int `json:"offset"`
}

// ErrorResponse represents an error in API responses.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}
