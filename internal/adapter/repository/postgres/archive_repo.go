package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/iho/stripe-datev/internal/domain"
	"github.com/iho/stripe-datev/internal/infrastructure/postgres/generated"
)

type pgxDB interface {
	generated.DBTX
	Begin(context.Context) (pgx.Tx, error)
}

// ArchiveRepository implements usecase.ArchiveRepository.
type ArchiveRepository struct {
	db      pgxDB
	queries *generated.Queries
	retrier *Retrier
}

// NewArchiveRepository creates a new ArchiveRepository.
func NewArchiveRepository(pool *pgxpool.Pool, retrier *Retrier) *ArchiveRepository {
	return newArchiveRepository(pool, retrier)
}

func newArchiveRepository(db pgxDB, retrier *Retrier) *ArchiveRepository {
	return &ArchiveRepository{
		db:      db,
		queries: generated.New(db),
		retrier: retrier,
	}
}

// Save stores a file and its records in one transaction.
func (r *ArchiveRepository) Save(ctx context.Context, file *domain.ExportedFile) error {
	return r.retrier.Retry(ctx, func() error {
		return r.withTx(ctx, func(q *generated.Queries) error {
			err := q.CreateExportedFile(ctx, generated.CreateExportedFileParams{
				ID:          file.ID,
				RunID:       file.RunID,
				Kind:        string(file.Kind),
				Month:       file.Month,
				FromMonth:   file.FromMonth,
				FileName:    file.FileName,
				Checksum:    file.Checksum,
				RecordCount: int32(file.RecordCount),
				CreatedAt:   timeToPgTimestamptz(file.CreatedAt),
			})
			if err != nil {
				return fmt.Errorf("insert file: %w", err)
			}

			for i, rec := range file.Records {
				err := q.CreateExportedRecord(ctx, generated.CreateExportedRecordParams{
					FileID:         file.ID,
					Position:       int32(i),
					BookedAt:       timeToPgTimestamptz(rec.Date),
					Amount:         decimalToNumeric(rec.Amount),
					Side:           string(rec.Side),
					Currency:       rec.Currency,
					Account:        rec.Account,
					CounterAccount: rec.CounterAccount,
					TaxKey:         rec.TaxKey,
					Text:           rec.Text,
					DocumentRef:    rec.DocumentRef,
					EuVatID:        rec.EUVATID,
				})
				if err != nil {
					return fmt.Errorf("insert record %d: %w", i, err)
				}
			}
			return nil
		})
	})
}

func (r *ArchiveRepository) withTx(ctx context.Context, fn func(q *generated.Queries) error) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return err
	}
	if err := fn(r.queries.WithTx(tx)); err != nil {
		_ = tx.Rollback(ctx)
		return err
	}
	return tx.Commit(ctx)
}

// GetByID retrieves a file without its records.
func (r *ArchiveRepository) GetByID(ctx context.Context, id string) (*domain.ExportedFile, error) {
	row, err := r.queries.GetExportedFile(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrBatchNotFound
		}
		return nil, err
	}
	return rowToFile(row), nil
}

// FindLatest retrieves the newest file archived for kind and months.
func (r *ArchiveRepository) FindLatest(ctx context.Context, kind domain.RecordKind, month, fromMonth string) (*domain.ExportedFile, error) {
	row, err := r.queries.GetLatestExportedFile(ctx, generated.GetLatestExportedFileParams{
		Kind:      string(kind),
		Month:     month,
		FromMonth: fromMonth,
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrBatchNotFound
		}
		return nil, err
	}
	return rowToFile(row), nil
}

// List lists files newest first.
func (r *ArchiveRepository) List(ctx context.Context, filter domain.ArchiveFilter) ([]*domain.ExportedFile, error) {
	rows, err := r.queries.ListExportedFiles(ctx, generated.ListExportedFilesParams{
		Kind:   string(filter.Kind),
		Month:  filter.Month,
		Limit:  int32(filter.Limit),
		Offset: int32(filter.Offset),
	})
	if err != nil {
		return nil, err
	}

	files := make([]*domain.ExportedFile, 0, len(rows))
	for _, row := range rows {
		files = append(files, rowToFile(row))
	}
	return files, nil
}

// ListRecords lists the records of a file in export order.
func (r *ArchiveRepository) ListRecords(ctx context.Context, fileID string) ([]domain.Record, error) {
	rows, err := r.queries.ListExportedRecords(ctx, fileID)
	if err != nil {
		return nil, err
	}

	records := make([]domain.Record, 0, len(rows))
	for _, row := range rows {
		records = append(records, domain.Record{
			Date:           row.BookedAt.Time,
			Amount:         numericToDecimal(row.Amount),
			Side:           domain.Side(row.Side),
			Currency:       row.Currency,
			Account:        row.Account,
			CounterAccount: row.CounterAccount,
			TaxKey:         row.TaxKey,
			Text:           row.Text,
			DocumentRef:    row.DocumentRef,
			EUVATID:        row.EuVatID,
		})
	}
	return records, nil
}

func rowToFile(row generated.ExportedFile) *domain.ExportedFile {
	return &domain.ExportedFile{
		ID:          row.ID,
		RunID:       row.RunID,
		Kind:        domain.RecordKind(row.Kind),
		Month:       row.Month,
		FromMonth:   row.FromMonth,
		FileName:    row.FileName,
		Checksum:    row.Checksum,
		RecordCount: int(row.RecordCount),
		CreatedAt:   row.CreatedAt.Time,
	}
}

// Type conversion helpers.
func decimalToNumeric(d decimal.Decimal) pgtype.Numeric {
	var n pgtype.Numeric

	_ = n.Scan(d.String())

	return n
}

func numericToDecimal(n pgtype.Numeric) decimal.Decimal {
	if !n.Valid {
		return decimal.Zero
	}

	d, _ := decimal.NewFromString(n.Int.String())
	if n.Exp != 0 {
		d = d.Shift(n.Exp)
	}

	return d
}

func timeToPgTimestamptz(t time.Time) pgtype.Timestamptz {
	return pgtype.Timestamptz{Time: t, Valid: true}
}
