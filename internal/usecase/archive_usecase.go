package usecase

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/iho/stripe-datev/internal/domain"
)

// ArchiveUseCase keeps exported files so later exports can be compared with them.
type ArchiveUseCase struct {
	repo  ArchiveRepository
	idGen IDGenerator
}

// NewArchiveUseCase creates a new ArchiveUseCase.
func NewArchiveUseCase(repo ArchiveRepository, idGen IDGenerator) *ArchiveUseCase {
	return &ArchiveUseCase{
		repo:  repo,
		idGen: idGen,
	}
}

// Archive stores every file of an export run. A file whose content differs
// from the one archived last for the same kind and months raises an
// ArchiveMismatch advisory: the ledger already holds the older content.
func (uc *ArchiveUseCase) Archive(ctx context.Context, runID string, files []ExportFile) ([]domain.Diagnostic, error) {
	var diags []domain.Diagnostic
	now := time.Now().UTC()

	for _, f := range files {
		checksum := Checksum(f.Records)

		prev, err := uc.repo.FindLatest(ctx, f.Kind, f.Month, f.FromMonth)
		switch {
		case errors.Is(err, domain.ErrBatchNotFound):
		case err != nil:
			return nil, fmt.Errorf("find archived %s: %w", f.FileName, err)
		case prev.Checksum != checksum:
			diags = append(diags, domain.Advisory(domain.CodeArchiveMismatch, f.FileName,
				"content differs from archived batch %s of %s", prev.ID, prev.CreatedAt.Format(time.RFC3339)))
		}

		file := &domain.ExportedFile{
			ID:          uc.idGen.Generate(),
			RunID:       runID,
			Kind:        f.Kind,
			Month:       f.Month,
			FromMonth:   f.FromMonth,
			FileName:    f.FileName,
			Checksum:    checksum,
			RecordCount: len(f.Records),
			CreatedAt:   now,
			Records:     f.Records,
		}
		if err := uc.repo.Save(ctx, file); err != nil {
			return nil, fmt.Errorf("archive %s: %w", f.FileName, err)
		}
	}

	return diags, nil
}

// GetFile returns an archived file without its records.
func (uc *ArchiveUseCase) GetFile(ctx context.Context, id string) (*domain.ExportedFile, error) {
	return uc.repo.GetByID(ctx, id)
}

// ListFiles returns archived files, newest first.
func (uc *ArchiveUseCase) ListFiles(ctx context.Context, filter domain.ArchiveFilter) ([]*domain.ExportedFile, error) {
	if filter.Limit <= 0 {
		filter.Limit = DefaultArchiveLimit
	}
	if filter.Offset < 0 {
		filter.Offset = 0
	}
	return uc.repo.List(ctx, filter)
}

// ListRecords returns the records of an archived file.
func (uc *ArchiveUseCase) ListRecords(ctx context.Context, id string) ([]domain.Record, error) {
	if _, err := uc.repo.GetByID(ctx, id); err != nil {
		return nil, err
	}
	return uc.repo.ListRecords(ctx, id)
}

// Checksum fingerprints the booking content of records.
func Checksum(records []domain.Record) string {
	h := sha256.New()
	for _, r := range records {
		fmt.Fprintf(h, "%s|%s|%s|%s|%s|%s|%s|%s|%s|%s\n",
			r.Date.UTC().Format(time.RFC3339),
			r.Amount.StringFixed(domain.MoneyPlaces),
			r.Side,
			r.Currency,
			r.Account,
			r.CounterAccount,
			r.TaxKey,
			r.Text,
			r.DocumentRef,
			r.EUVATID,
		)
	}
	return hex.EncodeToString(h.Sum(nil))
}
