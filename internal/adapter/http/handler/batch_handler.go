package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/iho/stripe-datev/internal/adapter/http/dto"
	"github.com/iho/stripe-datev/internal/domain"
	"github.com/iho/stripe-datev/internal/usecase"
)

// ArchiveReader reads the export archive.
type ArchiveReader interface {
	GetFile(ctx context.Context, id string) (*domain.ExportedFile, error)
	ListFiles(ctx context.Context, filter domain.ArchiveFilter) ([]*domain.ExportedFile, error)
	ListRecords(ctx context.Context, id string) ([]domain.Record, error)
}

// BatchHandler serves archived DATEV batches.
type BatchHandler struct {
	archive ArchiveReader
}

// NewBatchHandler creates a new BatchHandler.
func NewBatchHandler(archive ArchiveReader) *BatchHandler {
	return &BatchHandler{archive: archive}
}

// List handles GET /batches.
func (h *BatchHandler) List(w http.ResponseWriter, r *http.Request) {
	filter := domain.ArchiveFilter{
		Kind:   domain.RecordKind(r.URL.Query().Get("kind")),
		Month:  r.URL.Query().Get("month"),
		Limit:  parseIntQuery(r, "limit", usecase.DefaultArchiveLimit),
		Offset: parseIntQuery(r, "offset", 0),
	}

	if filter.Limit == 0 {
		filter.Limit = usecase.DefaultArchiveLimit
	}

	if filter.Kind != "" && !knownKind(filter.Kind) {
		writeError(w, http.StatusBadRequest, "invalid kind", string(filter.Kind))
		return
	}
	if filter.Month != "" {
		if _, err := time.Parse("2006-01", filter.Month); err != nil {
			writeError(w, http.StatusBadRequest, "invalid month", "expected YYYY-MM")
			return
		}
	}

	files, err := h.archive.ListFiles(r.Context(), filter)
	if err != nil {
		writeError(w, mapDomainError(err), "failed to list batches", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, dto.ListResponse[*dto.BatchResponse]{
		Data:   dto.BatchesFromDomain(files),
		Limit:  filter.Limit,
		Offset: filter.Offset,
	})
}

// Get handles GET /batches/{id}.
func (h *BatchHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	file, err := h.archive.GetFile(r.Context(), id)
	if err != nil {
		writeError(w, mapDomainError(err), "batch not found", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, dto.BatchFromDomain(file))
}

// Records handles GET /batches/{id}/records.
func (h *BatchHandler) Records(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	records, err := h.archive.ListRecords(r.Context(), id)
	if err != nil {
		writeError(w, mapDomainError(err), "failed to list records", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, dto.RecordsFromDomain(records))
}

func knownKind(kind domain.RecordKind) bool {
	switch kind {
	case domain.RecordKindRevenue, domain.RecordKindCharges, domain.RecordKindTransfers,
		domain.RecordKindPayouts, domain.RecordKindContributions:
		return true
	}
	return false
}
