package usecase

import (
	"fmt"
	"sort"
	"time"

	"github.com/iho/stripe-datev/internal/domain"
	"github.com/iho/stripe-datev/internal/recognition"
)

// ExportFile is one ledger file an export run produces.
type ExportFile struct {
	Kind        domain.RecordKind
	Month       string
	FromMonth   string
	FileName    string
	Description string
	From        time.Time
	To          time.Time
	Records     []domain.Record
}

// ExportResult is everything an export run derived from its batch.
type ExportResult struct {
	RevenueItems []domain.RevenueItem
	Files        []ExportFile
	Diagnostics  []domain.Diagnostic
}

// Records returns the records of all files of kind, in file order.
func (r *ExportResult) Records(kind domain.RecordKind) []domain.Record {
	var out []domain.Record
	for _, f := range r.Files {
		if f.Kind == kind {
			out = append(out, f.Records...)
		}
	}
	return out
}

// ExportConfig configures the export pipeline.
type ExportConfig struct {
	Accounts domain.ChartOfAccounts
	Location *time.Location
	MinYear  int
	MaxYear  int
}

// ExportUseCase turns a retrieved batch into ledger files.
type ExportUseCase struct {
	accounts  domain.ChartOfAccounts
	extractor *recognition.PeriodExtractor
	customers CustomerLookup
	taxRates  TaxRateLookup
	loc       *time.Location
}

// NewExportUseCase creates a new ExportUseCase.
func NewExportUseCase(cfg ExportConfig, customers CustomerLookup, taxRates TaxRateLookup) *ExportUseCase {
	loc := cfg.Location
	if loc == nil {
		loc = time.UTC
	}
	minYear := cfg.MinYear
	if minYear == 0 {
		minYear = recognition.DefaultMinYear
	}
	maxYear := cfg.MaxYear
	if maxYear == 0 {
		maxYear = time.Now().Year() + 5
	}
	return &ExportUseCase{
		accounts:  cfg.Accounts,
		extractor: recognition.NewPeriodExtractor(minYear, maxYear),
		customers: customers,
		taxRates:  taxRates,
		loc:       loc,
	}
}

// Location returns the accounting time zone.
func (uc *ExportUseCase) Location() *time.Location {
	return uc.loc
}

// Run processes the batch retrieved for window. The result depends only on
// the batch, the window and the lookups.
func (uc *ExportUseCase) Run(batch domain.Batch, window domain.Window) (*ExportResult, error) {
	diags := &domain.Diagnostics{}
	memo := NewLookupMemo()
	classifier := NewTaxClassifier(uc.accounts)
	builder := NewRevenueBuilder(classifier, uc.extractor, uc.customers, uc.taxRates, memo, uc.loc)
	generator := NewLedgerGenerator(uc.accounts)
	recorder := NewPaymentRecorder(uc.accounts, classifier, uc.customers, memo, uc.loc)

	items, err := builder.BuildFromInvoices(batch.Invoices, diags)
	if err != nil {
		return nil, err
	}
	chargeItems, err := builder.BuildFromCharges(batch.Charges, diags)
	if err != nil {
		return nil, err
	}
	items = append(items, chargeItems...)
	SortRevenueItems(items)

	revenue, err := generator.GenerateAll(items)
	if err != nil {
		return nil, err
	}
	charges, err := recorder.ChargeRecords(batch.Charges)
	if err != nil {
		return nil, err
	}
	transfers, err := recorder.TransferRecords(batch.Transfers)
	if err != nil {
		return nil, err
	}
	payouts, err := recorder.PayoutRecords(batch.Payouts)
	if err != nil {
		return nil, err
	}
	contributions, err := recorder.ContributionRecords(batch.Contributions)
	if err != nil {
		return nil, err
	}

	window = domain.Window{From: window.From.In(uc.loc), To: window.To.In(uc.loc)}
	thisMonth := domain.MonthKey(window.From)

	var files []ExportFile
	files = append(files, uc.monthlyFiles(domain.RecordKindRevenue, "Stripe Revenue", revenue, thisMonth)...)
	files = append(files, uc.monthlyFiles(domain.RecordKindCharges, "Stripe Charges/Fees", charges, thisMonth)...)
	files = append(files,
		uc.windowFile(domain.RecordKindTransfers, transfers, window, thisMonth),
		uc.windowFile(domain.RecordKindPayouts, payouts, window, thisMonth),
		uc.windowFile(domain.RecordKindContributions, contributions, window, thisMonth),
	)

	diags.Add(LateReversals(batch, window)...)

	return &ExportResult{
		RevenueItems: items,
		Files:        files,
		Diagnostics:  diags.Items(),
	}, nil
}

func (uc *ExportUseCase) monthlyFiles(kind domain.RecordKind, label string, records []domain.Record, thisMonth string) []ExportFile {
	groups := GroupByMonth(records, uc.loc)
	files := make([]ExportFile, 0, len(groups))
	for _, g := range groups {
		start, _ := time.ParseInLocation("2006-01", g.Month, uc.loc)
		files = append(files, ExportFile{
			Kind:        kind,
			Month:       g.Month,
			FromMonth:   thisMonth,
			FileName:    FileName(kind, g.Month, thisMonth),
			Description: fmt.Sprintf("%s %s from %s", label, g.Month, thisMonth),
			From:        start,
			To:          domain.EndOfMonth(start),
			Records:     g.Records,
		})
	}
	return files
}

func (uc *ExportUseCase) windowFile(kind domain.RecordKind, records []domain.Record, window domain.Window, thisMonth string) ExportFile {
	return ExportFile{
		Kind:        kind,
		Month:       thisMonth,
		FromMonth:   thisMonth,
		FileName:    fmt.Sprintf("EXTF_%s_%s.csv", thisMonth, kind),
		Description: fmt.Sprintf("Stripe %s %s", kind, thisMonth),
		From:        window.From,
		To:          window.To.Add(-time.Second),
		Records:     records,
	}
}

// FileName returns the ledger file name for records of kind booked in month
// by the export of fromMonth.
func FileName(kind domain.RecordKind, month, fromMonth string) string {
	if month == fromMonth {
		return fmt.Sprintf("EXTF_%s_%s.csv", month, kind)
	}
	return fmt.Sprintf("EXTF_%s_%s_From_%s.csv", month, kind, fromMonth)
}

// SortRevenueItems orders items by creation time, then by id.
func SortRevenueItems(items []domain.RevenueItem) {
	sort.SliceStable(items, func(i, j int) bool {
		if !items[i].Created.Equal(items[j].Created) {
			return items[i].Created.Before(items[j].Created)
		}
		return items[i].ID < items[j].ID
	})
}

// GroupByMonth splits records by the calendar month of their date in loc.
// Groups are ordered by month; records keep their relative order.
func GroupByMonth(records []domain.Record, loc *time.Location) []domain.MonthGroup {
	index := make(map[string]int)
	var groups []domain.MonthGroup
	for _, r := range records {
		m := domain.MonthKey(r.Date.In(loc))
		i, ok := index[m]
		if !ok {
			i = len(groups)
			index[m] = i
			groups = append(groups, domain.MonthGroup{Month: m})
		}
		groups[i].Records = append(groups[i].Records, r)
	}
	sort.SliceStable(groups, func(i, j int) bool {
		return groups[i].Month < groups[j].Month
	})
	return groups
}

// LateReversals reports changes inside the window to invoices booked by an
// earlier export, which require that export to be repeated.
func LateReversals(batch domain.Batch, window domain.Window) []domain.Diagnostic {
	var diags []domain.Diagnostic

	for _, inv := range batch.RecentInvoices {
		late := (inv.VoidedAt != nil && !inv.VoidedAt.Before(window.From)) ||
			(inv.MarkedUncollectibleAt != nil && !inv.MarkedUncollectibleAt.Before(window.From))
		if late {
			diags = append(diags, domain.Advisory(domain.CodeLateReversal, inv.ID,
				"earlier invoice voided or marked uncollectible in this month, consider downloading %s",
				domain.MonthKey(inv.Finalized().In(window.From.Location()))))
		}
	}

	for _, cn := range batch.CreditNotes {
		if cn.InvoiceFinalizedAt != nil && cn.InvoiceFinalizedAt.Before(window.From) {
			diags = append(diags, domain.Advisory(domain.CodeEarlierCreditNote, cn.ID,
				"credit note %s for earlier invoice, consider downloading %s",
				cn.Number, domain.MonthKey(cn.InvoiceFinalizedAt.In(window.From.Location()))))
		}
	}

	return diags
}
