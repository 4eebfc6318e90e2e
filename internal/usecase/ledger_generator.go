package usecase

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/iho/stripe-datev/internal/domain"
	"github.com/iho/stripe-datev/internal/recognition"
)

// LedgerGenerator turns revenue items into ledger postings.
type LedgerGenerator struct {
	accounts domain.ChartOfAccounts
}

// NewLedgerGenerator creates a new LedgerGenerator.
func NewLedgerGenerator(accounts domain.ChartOfAccounts) *LedgerGenerator {
	return &LedgerGenerator{accounts: accounts}
}

// GenerateAll generates the postings of every item, in item order.
func (g *LedgerGenerator) GenerateAll(items []domain.RevenueItem) ([]domain.Record, error) {
	var records []domain.Record
	for i := range items {
		recs, err := g.Generate(&items[i])
		if err != nil {
			return nil, err
		}
		records = append(records, recs...)
	}
	return records, nil
}

// Generate returns the postings for one revenue item.
//
// A positive gross amount is booked to the customer account on the creation
// date. A reversal in the lifecycle is booked back on its own date. Unless
// the reversal fully cancels the item inside the month it was booked in, the
// parts of each line item that fall into later months are moved to the
// prepaid revenue account and released again month by month.
func (g *LedgerGenerator) Generate(item *domain.RevenueItem) ([]domain.Record, error) {
	if !item.Gross.IsPositive() {
		return nil, nil
	}

	profile := item.Profile
	records := []domain.Record{
		g.record(item, item.Created, item.Gross, domain.SideDebit,
			profile.CustomerAccount, profile.RevenueAccount, profile.TaxKey, item.Text),
	}

	lc := item.Lifecycle
	switch lc.Kind() {
	case domain.LifecycleVoided, domain.LifecycleUncollectible:
		records = append(records, g.record(item, lc.At(), item.Gross, domain.SideCredit,
			profile.CustomerAccount, profile.RevenueAccount, profile.TaxKey, "Storno "+item.Text))
	case domain.LifecycleCredited:
		records = append(records, g.record(item, lc.At(), lc.Amount(), domain.SideCredit,
			profile.CustomerAccount, profile.RevenueAccount, profile.TaxKey, "Erstattung "+item.Text))
	}

	if reversedInBookingMonth(item) {
		return records, nil
	}

	if !g.accounts.DeferralEnabled() {
		return records, nil
	}

	for _, li := range item.LineItems {
		deferred, err := g.deferLineItem(item, li)
		if err != nil {
			return nil, domain.NewProcessingError("generate records", item.ID, err)
		}
		records = append(records, deferred...)
	}

	return records, nil
}

func reversedInBookingMonth(item *domain.RevenueItem) bool {
	at, ok := item.Lifecycle.ReversedAt()
	if !ok {
		return false
	}
	if domain.MonthKey(at.In(item.Created.Location())) != domain.MonthKey(item.Created) {
		return false
	}
	if item.Lifecycle.Kind() == domain.LifecycleCredited {
		return item.Lifecycle.Amount().Equal(item.Gross)
	}
	return true
}

func (g *LedgerGenerator) deferLineItem(item *domain.RevenueItem, li domain.LineItem) ([]domain.Record, error) {
	loc := item.Created.Location()

	buckets, err := recognition.SplitMonths(li.Period.In(loc), li.Gross)
	if err != nil {
		return nil, fmt.Errorf("line item %d: %w", li.Index, err)
	}

	var forward []domain.MonthBucket
	forwardAmount := decimal.Zero
	for _, b := range buckets {
		if b.Start.After(item.Created) {
			forward = append(forward, b)
			forwardAmount = forwardAmount.Add(b.Amounts[0])
		}
	}
	if len(forward) == 0 || forwardAmount.IsZero() {
		return nil, nil
	}

	months := domain.MonthKey(forward[0].Start)
	if len(forward) > 1 {
		months += ".." + domain.MonthKey(forward[len(forward)-1].Start)
	}

	profile := item.Profile
	records := []domain.Record{
		g.record(item, item.Created, forwardAmount, domain.SideDebit,
			profile.RevenueAccount, g.accounts.PRAP, "", fmt.Sprintf("pRAP nach %s / %s", months, li.Text)),
	}

	releaseText := fmt.Sprintf("pRAP aus %s / %s", domain.MonthKey(item.Created), li.Text)
	reversedAt, reversed := item.Lifecycle.ReversedAt()
	for _, b := range forward {
		date := b.Start
		if reversed {
			date = reversedAt
		}
		records = append(records, g.record(item, date, b.Amounts[0], domain.SideDebit,
			g.accounts.PRAP, profile.RevenueAccount, "", releaseText))
	}

	return records, nil
}

func (g *LedgerGenerator) record(
	item *domain.RevenueItem,
	date time.Time,
	amount decimal.Decimal,
	side domain.Side,
	account, counter, taxKey, text string,
) domain.Record {
	return domain.Record{
		Date:           date,
		Amount:         amount,
		Side:           side,
		Currency:       domain.SettlementCurrency,
		Account:        account,
		CounterAccount: counter,
		TaxKey:         taxKey,
		Text:           domain.TruncateText(text, domain.MaxRecordText),
		DocumentRef:    item.Number,
		EUVATID:        item.Profile.VATID,
	}
}

// AccountBalances sums the postings per account. A debit posting raises the
// balance of Account and lowers that of CounterAccount.
func AccountBalances(records []domain.Record) map[string]decimal.Decimal {
	balances := make(map[string]decimal.Decimal)
	for _, r := range records {
		amount := r.SignedAmount()
		balances[r.Account] = balances[r.Account].Add(amount)
		balances[r.CounterAccount] = balances[r.CounterAccount].Sub(amount)
	}
	return balances
}
