package postgres

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/iho/stripe-datev/internal/domain"
)

var fileColumns = []string{"id", "run_id", "kind", "month", "from_month", "file_name", "checksum", "record_count", "created_at"}

var recordColumns = []string{"file_id", "position", "booked_at", "amount", "side", "currency", "account",
	"counter_account", "tax_key", "text", "document_ref", "eu_vat_id"}

func newMockPool(t *testing.T) pgxmock.PgxPoolIface {
	t.Helper()
	pool, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("failed to create pgxmock pool: %v", err)
	}
	t.Cleanup(pool.Close)
	return pool
}

func assertExpectations(t *testing.T, pool pgxmock.PgxPoolIface) {
	t.Helper()
	if err := pool.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations were not met: %v", err)
	}
}

func fastRetrier() *Retrier {
	r := NewRetrier(zerolog.Nop())
	r.initialInterval = time.Millisecond
	r.maxInterval = 2 * time.Millisecond
	return r
}

func testFile() *domain.ExportedFile {
	return &domain.ExportedFile{
		ID:          "01FILE",
		RunID:       "01RUN",
		Kind:        domain.RecordKindRevenue,
		Month:       "2021-05",
		FromMonth:   "2021-05",
		FileName:    "EXTF_2021-05_Revenue.csv",
		Checksum:    "abc",
		RecordCount: 1,
		CreatedAt:   time.Date(2021, 6, 1, 8, 0, 0, 0, time.UTC),
		Records: []domain.Record{{
			Date:           time.Date(2021, 5, 10, 0, 0, 0, 0, time.UTC),
			Amount:         decimal.RequireFromString("119"),
			Side:           domain.SideDebit,
			Currency:       "EUR",
			Account:        "10001",
			CounterAccount: "8400",
			TaxKey:         "9",
			Text:           "Invoice RE-1",
			DocumentRef:    "RE-1",
		}},
	}
}

func expectSave(mock pgxmock.PgxPoolIface) {
	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO exported_files").
		WithArgs("01FILE", "01RUN", "Revenue", "2021-05", "2021-05", "EXTF_2021-05_Revenue.csv", "abc", pgxmock.AnyArg(), pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectExec("INSERT INTO exported_records").
		WithArgs("01FILE", pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), "S", "EUR", "10001", "8400", "9",
			"Invoice RE-1", "RE-1", "").
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
}

func TestArchiveRepositorySave(t *testing.T) {
	mock := newMockPool(t)
	expectSave(mock)
	mock.ExpectCommit()

	repo := newArchiveRepository(mock, fastRetrier())
	if err := repo.Save(context.Background(), testFile()); err != nil {
		t.Fatalf("save failed: %v", err)
	}

	assertExpectations(t, mock)
}

func TestArchiveRepositorySaveRollsBack(t *testing.T) {
	mock := newMockPool(t)
	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO exported_files").WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectExec("INSERT INTO exported_records").WillReturnError(errors.New("disk full"))
	mock.ExpectRollback()

	repo := newArchiveRepository(mock, fastRetrier())
	err := repo.Save(context.Background(), testFile())
	if err == nil || !strings.Contains(err.Error(), "insert record 0") {
		t.Fatalf("expected record insert error, got %v", err)
	}

	assertExpectations(t, mock)
}

func TestArchiveRepositorySaveRetriesSerializationFailure(t *testing.T) {
	mock := newMockPool(t)
	expectSave(mock)
	mock.ExpectCommit().WillReturnError(&pgconn.PgError{Code: pgErrSerializationFailure})
	expectSave(mock)
	mock.ExpectCommit()

	repo := newArchiveRepository(mock, fastRetrier())
	if err := repo.Save(context.Background(), testFile()); err != nil {
		t.Fatalf("expected save to succeed on retry, got %v", err)
	}

	assertExpectations(t, mock)
}

func TestArchiveRepositoryGetByIDNotFound(t *testing.T) {
	mock := newMockPool(t)
	mock.ExpectQuery("FROM exported_files").WithArgs("missing").WillReturnError(pgx.ErrNoRows)

	repo := newArchiveRepository(mock, fastRetrier())
	if _, err := repo.GetByID(context.Background(), "missing"); !errors.Is(err, domain.ErrBatchNotFound) {
		t.Fatalf("expected ErrBatchNotFound, got %v", err)
	}

	assertExpectations(t, mock)
}

func TestArchiveRepositoryFindLatest(t *testing.T) {
	mock := newMockPool(t)
	created := time.Date(2021, 6, 1, 8, 0, 0, 0, time.UTC)
	mock.ExpectQuery("FROM exported_files").
		WithArgs("Revenue", "2021-05", "2021-05").
		WillReturnRows(pgxmock.NewRows(fileColumns).
			AddRow("01FILE", "01RUN", "Revenue", "2021-05", "2021-05", "EXTF_2021-05_Revenue.csv", "abc", int32(3), created))

	repo := newArchiveRepository(mock, fastRetrier())
	file, err := repo.FindLatest(context.Background(), domain.RecordKindRevenue, "2021-05", "2021-05")
	if err != nil {
		t.Fatalf("find latest failed: %v", err)
	}
	if file.ID != "01FILE" || file.RecordCount != 3 || file.Kind != domain.RecordKindRevenue {
		t.Errorf("unexpected file %+v", file)
	}
	if !file.CreatedAt.Equal(created) {
		t.Errorf("created at = %s", file.CreatedAt)
	}

	assertExpectations(t, mock)
}

func TestArchiveRepositoryList(t *testing.T) {
	mock := newMockPool(t)
	created := time.Date(2021, 6, 1, 8, 0, 0, 0, time.UTC)
	mock.ExpectQuery("FROM exported_files").
		WithArgs("", "2021-05", int32(10), int32(0)).
		WillReturnRows(pgxmock.NewRows(fileColumns).
			AddRow("02FILE", "02RUN", "Charges", "2021-05", "2021-05", "EXTF_2021-05_Charges.csv", "def", int32(1), created).
			AddRow("01FILE", "01RUN", "Revenue", "2021-05", "2021-05", "EXTF_2021-05_Revenue.csv", "abc", int32(3), created))

	repo := newArchiveRepository(mock, fastRetrier())
	files, err := repo.List(context.Background(), domain.ArchiveFilter{Month: "2021-05", Limit: 10})
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(files) != 2 || files[0].ID != "02FILE" {
		t.Fatalf("unexpected files %+v", files)
	}

	assertExpectations(t, mock)
}

func TestArchiveRepositoryListRecords(t *testing.T) {
	mock := newMockPool(t)
	booked := time.Date(2021, 5, 10, 0, 0, 0, 0, time.UTC)
	mock.ExpectQuery("FROM exported_records").
		WithArgs("01FILE").
		WillReturnRows(pgxmock.NewRows(recordColumns).
			AddRow("01FILE", int32(0), booked, "1234.50", "H", "EUR", "8400", "10001", "", "Refund", "RE-1", "FR123"))

	repo := newArchiveRepository(mock, fastRetrier())
	records, err := repo.ListRecords(context.Background(), "01FILE")
	if err != nil {
		t.Fatalf("list records failed: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("expected 1 record, got %d", len(records))
	}
	r := records[0]
	if !r.Amount.Equal(decimal.RequireFromString("1234.5")) || r.Side != domain.SideCredit || r.EUVATID != "FR123" {
		t.Errorf("unexpected record %+v", r)
	}
	if !r.Date.Equal(booked) {
		t.Errorf("date = %s", r.Date)
	}

	assertExpectations(t, mock)
}

func TestNumericRoundTrip(t *testing.T) {
	for _, s := range []string{"0", "1234.5", "-0.01", "99999999.99"} {
		d := decimal.RequireFromString(s)
		if got := numericToDecimal(decimalToNumeric(d)); !got.Equal(d) {
			t.Errorf("%s round tripped to %s", s, got)
		}
	}
}
