package usecase_test

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iho/stripe-datev/internal/domain"
	"github.com/iho/stripe-datev/internal/usecase"
	"github.com/iho/stripe-datev/internal/usecase/mocks"
)

func newTestExport() *usecase.ExportUseCase {
	return usecase.NewExportUseCase(usecase.ExportConfig{
		Accounts: testAccounts(),
		Location: berlin,
		MinYear:  2020,
		MaxYear:  2030,
	}, mocks.NewCustomerStore(), mocks.NewTaxRateStore(domain.TaxRate{ID: "txr_19", Percentage: money("19")}))
}

func mayWindow() domain.Window {
	return domain.Window{
		From: time.Date(2021, 5, 1, 0, 0, 0, 0, berlin),
		To:   time.Date(2021, 6, 1, 0, 0, 0, 0, berlin),
	}
}

func testBatch() domain.Batch {
	annual := baseInvoice()
	annual.ID = "in_annual"
	annual.Number = "RE-2"
	annual.FinalizedAt = timePtr(at(2021, time.May, 20, 10, 0))
	annual.Customer = customerFR()
	annual.CustomerID = "cus_fr"
	annual.Total = money("1200.00")
	annual.Tax = nil
	annual.TotalTaxAmounts = nil
	annual.Lines = []domain.InvoiceLine{{
		Description: "Annual plan",
		Amount:      money("1200.00"),
		Period:      &domain.Period{Start: time.Date(2021, 5, 20, 0, 0, 0, 0, berlin), End: time.Date(2022, 5, 19, 23, 59, 59, 0, berlin)},
	}}

	voided := baseInvoice()
	voided.ID = "in_void"
	voided.Number = "RE-3"
	voided.Status = domain.InvoiceStatusVoid
	voided.FinalizedAt = timePtr(at(2021, time.May, 11, 10, 0))
	voided.VoidedAt = timePtr(at(2021, time.May, 12, 10, 0))

	monthly := baseInvoice()

	return domain.Batch{
		Invoices: []domain.Invoice{annual, voided, monthly},
		Charges:  []domain.Charge{baseCharge()},
		Payouts: []domain.Payout{{
			ID: "po_1", Created: at(2021, time.May, 14, 2, 0), Amount: money("100.00"), Currency: "eur", Status: "paid",
		}},
		Contributions: []domain.BalanceTransaction{{
			ID: "txn_1", Amount: money("-1.00"), Currency: "eur", Created: at(2021, time.May, 3, 0, 0),
		}},
	}
}

func fileNames(files []usecase.ExportFile) []string {
	names := make([]string, 0, len(files))
	for _, f := range files {
		names = append(names, f.FileName)
	}
	return names
}

func TestExportUseCase_Run(t *testing.T) {
	result, err := newTestExport().Run(testBatch(), mayWindow())
	require.NoError(t, err)

	t.Run("revenue items in creation order", func(t *testing.T) {
		var ids []string
		for _, item := range result.RevenueItems {
			ids = append(ids, item.ID)
		}
		assert.Equal(t, []string{"in_1", "ch_1", "in_void", "in_annual"}, ids)
	})

	t.Run("file layout", func(t *testing.T) {
		names := fileNames(result.Files)
		assert.Equal(t, "EXTF_2021-05_Revenue.csv", names[0])
		assert.Contains(t, names, "EXTF_2021-06_Revenue_From_2021-05.csv")
		assert.Contains(t, names, "EXTF_2022-05_Revenue_From_2021-05.csv")
		assert.Contains(t, names, "EXTF_2021-05_Charges.csv")
		assert.Equal(t, []string{
			"EXTF_2021-05_Transfers.csv",
			"EXTF_2021-05_Payouts.csv",
			"EXTF_2021-05_Contributions.csv",
		}, names[len(names)-3:])

		first := result.Files[0]
		assert.Equal(t, domain.RecordKindRevenue, first.Kind)
		assert.Equal(t, "Stripe Revenue 2021-05 from 2021-05", first.Description)
		assert.True(t, first.From.Equal(time.Date(2021, 5, 1, 0, 0, 0, 0, berlin)))
		assert.True(t, first.To.Equal(time.Date(2021, 5, 31, 23, 59, 59, 0, berlin)))

		transfers := result.Files[len(result.Files)-3]
		assert.Empty(t, transfers.Records)
		assert.Equal(t, "Stripe Transfers 2021-05", transfers.Description)
	})

	t.Run("every record is filed under its own month", func(t *testing.T) {
		for _, f := range result.Files {
			if f.Kind != domain.RecordKindRevenue && f.Kind != domain.RecordKindCharges {
				continue
			}
			for _, r := range f.Records {
				assert.Equal(t, f.Month, domain.MonthKey(r.Date.In(berlin)), f.FileName)
			}
		}
	})

	t.Run("voided invoice nets to zero", func(t *testing.T) {
		var voided []domain.Record
		for _, r := range result.Records(domain.RecordKindRevenue) {
			if r.DocumentRef == "RE-3" {
				voided = append(voided, r)
			}
		}
		require.Len(t, voided, 2)
		assert.True(t, sumSigned(voided).IsZero())
	})

	t.Run("deferred revenue is released completely", func(t *testing.T) {
		balances := usecase.AccountBalances(result.Records(domain.RecordKindRevenue))
		assert.True(t, balances["0990"].IsZero(), "prap balance %s", balances["0990"])
	})
}

func TestExportUseCase_Idempotent(t *testing.T) {
	uc := newTestExport()

	first, err := uc.Run(testBatch(), mayWindow())
	require.NoError(t, err)
	second, err := uc.Run(testBatch(), mayWindow())
	require.NoError(t, err)

	require.Equal(t, len(first.Files), len(second.Files))
	for i := range first.Files {
		assert.Equal(t, first.Files[i].FileName, second.Files[i].FileName)
		assert.Equal(t, usecase.Checksum(first.Files[i].Records), usecase.Checksum(second.Files[i].Records))
	}
	assert.Equal(t, first.Diagnostics, second.Diagnostics)
}

func TestExportUseCase_FatalStopsRun(t *testing.T) {
	batch := testBatch()
	batch.Charges[0].Refunds = []domain.Refund{{ID: "re_1", Amount: money("1.00")}}

	result, err := newTestExport().Run(batch, mayWindow())
	require.Error(t, err)
	assert.Nil(t, result)
	assert.True(t, errors.Is(err, domain.ErrUnsupportedRefundPattern))
	assert.Equal(t, "ch_1", domain.SourceOf(err))
}

func TestLateReversals(t *testing.T) {
	window := mayWindow()

	lateVoid := domain.Invoice{
		ID:          "in_old",
		FinalizedAt: timePtr(at(2021, time.March, 3, 10, 0)),
		VoidedAt:    timePtr(at(2021, time.May, 2, 10, 0)),
	}
	earlyVoid := domain.Invoice{
		ID:          "in_older",
		FinalizedAt: timePtr(at(2021, time.February, 3, 10, 0)),
		VoidedAt:    timePtr(at(2021, time.April, 2, 10, 0)),
	}
	lateWriteOff := domain.Invoice{
		ID:                    "in_bad",
		FinalizedAt:           timePtr(at(2021, time.January, 3, 10, 0)),
		MarkedUncollectibleAt: timePtr(window.From),
	}

	batch := domain.Batch{
		RecentInvoices: []domain.Invoice{lateVoid, earlyVoid, lateWriteOff},
		CreditNotes: []domain.CreditNote{
			{ID: "cn_1", Number: "CN-1", InvoiceFinalizedAt: timePtr(at(2021, time.April, 30, 23, 0))},
			{ID: "cn_2", Number: "CN-2", InvoiceFinalizedAt: timePtr(at(2021, time.May, 2, 0, 0))},
			{ID: "cn_3", Number: "CN-3"},
		},
	}

	diags := usecase.LateReversals(batch, window)
	require.Len(t, diags, 3)

	assert.Equal(t, domain.CodeLateReversal, diags[0].Code)
	assert.Equal(t, "in_old", diags[0].SourceID)
	assert.Contains(t, diags[0].Message, "consider downloading 2021-03")
	assert.Equal(t, "in_bad", diags[1].SourceID)
	assert.Contains(t, diags[1].Message, "2021-01")
	assert.Equal(t, domain.CodeEarlierCreditNote, diags[2].Code)
	assert.Contains(t, diags[2].Message, "CN-1")
	assert.Contains(t, diags[2].Message, "2021-04")
}

func TestGroupByMonth(t *testing.T) {
	records := []domain.Record{
		{Date: at(2021, time.June, 1, 0, 0), Text: "a"},
		{Date: at(2021, time.May, 31, 23, 30), Text: "b"},
		{Date: at(2021, time.June, 15, 0, 0), Text: "c"},
		// 22:30 UTC on May 31 is already June in Berlin
		{Date: time.Date(2021, 5, 31, 22, 30, 0, 0, time.UTC), Text: "d"},
	}

	groups := usecase.GroupByMonth(records, berlin)
	require.Len(t, groups, 2)

	assert.Equal(t, "2021-05", groups[0].Month)
	assert.Equal(t, "2021-06", groups[1].Month)
	require.Len(t, groups[1].Records, 3)
	assert.Equal(t, "a", groups[1].Records[0].Text)
	assert.Equal(t, "c", groups[1].Records[1].Text)
	assert.Equal(t, "d", groups[1].Records[2].Text)
}

func TestFileName(t *testing.T) {
	assert.Equal(t, "EXTF_2021-05_Revenue.csv", usecase.FileName(domain.RecordKindRevenue, "2021-05", "2021-05"))
	assert.Equal(t, "EXTF_2021-07_Charges_From_2021-05.csv", usecase.FileName(domain.RecordKindCharges, "2021-07", "2021-05"))
}
