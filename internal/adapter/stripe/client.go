package stripe

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"time"

	"github.com/rs/zerolog"
	stripego "github.com/stripe/stripe-go/v81"

	"github.com/iho/stripe-datev/internal/domain"
)

// How far before the window invoices are listed. An invoice may be created
// in one month and finalized in the next.
const invoiceLookback = -1

// How far back invoices are checked for reversals that happened in the window.
const recentInvoiceMonths = -6

// Client retrieves export batches and lookups from Stripe.
type Client struct {
	api     API
	retrier *Retrier
	cache   LookupCache
	logger  zerolog.Logger
}

// NewClient creates a new Client. A nil cache keeps lookups in memory.
func NewClient(api API, retrier *Retrier, cache LookupCache, logger zerolog.Logger) *Client {
	if cache == nil {
		cache = NewMemoryCache()
	}
	return &Client{
		api:     api,
		retrier: retrier,
		cache:   cache,
		logger:  logger,
	}
}

// call runs fn through the retrier.
func call[T any](ctx context.Context, r *Retrier, op string, fn func() (T, error)) (T, error) {
	var out T
	err := r.Retry(ctx, op, func() error {
		var err error
		out, err = fn()
		return err
	})
	if err != nil {
		return out, fmt.Errorf("stripe: %s: %w", op, err)
	}
	return out, nil
}

func createdRange(from, to time.Time) *stripego.RangeQueryParams {
	return &stripego.RangeQueryParams{
		GreaterThanOrEqual: from.Unix(),
		LesserThan:         to.Unix(),
	}
}

// FetchBatch retrieves every source record of the window.
func (c *Client) FetchBatch(ctx context.Context, window domain.Window) (domain.Batch, error) {
	var (
		batch domain.Batch
		err   error
	)

	if batch.Invoices, err = c.FetchInvoices(ctx, window); err != nil {
		return batch, err
	}
	if batch.Charges, err = c.FetchCharges(ctx, window); err != nil {
		return batch, err
	}
	if batch.Payouts, err = c.FetchPayouts(ctx, window); err != nil {
		return batch, err
	}
	if batch.Transfers, err = c.FetchTransfers(ctx, window); err != nil {
		return batch, err
	}
	if batch.Contributions, err = c.FetchContributions(ctx, window); err != nil {
		return batch, err
	}
	if batch.RecentInvoices, err = c.FetchRecentInvoices(ctx, window); err != nil {
		return batch, err
	}
	if batch.CreditNotes, err = c.FetchCreditNotes(ctx, window); err != nil {
		return batch, err
	}

	c.logger.Info().
		Time("from", window.From).
		Time("to", window.To).
		Int("invoices", len(batch.Invoices)).
		Int("charges", len(batch.Charges)).
		Int("payouts", len(batch.Payouts)).
		Int("transfers", len(batch.Transfers)).
		Int("contributions", len(batch.Contributions)).
		Msg("batch retrieved")

	return batch, nil
}

// FetchInvoices lists the invoices finalized inside the window, oldest first.
// Credited invoices carry their credit notes.
func (c *Client) FetchInvoices(ctx context.Context, window domain.Window) ([]domain.Invoice, error) {
	params := &stripego.InvoiceListParams{
		CreatedRange: createdRange(window.From.AddDate(0, invoiceLookback, 0), window.To),
	}
	params.Context = ctx
	params.AddExpand("data.customer")
	params.AddExpand("data.customer.tax_ids")

	raw, err := call(ctx, c.retrier, "list invoices", func() ([]*stripego.Invoice, error) {
		return c.api.ListInvoices(params)
	})
	if err != nil {
		return nil, err
	}

	var invoices []domain.Invoice
	for _, r := range raw {
		inv := MapInvoice(r)
		if inv.Status == domain.InvoiceStatusDraft || inv.FinalizedAt == nil || !window.Contains(*inv.FinalizedAt) {
			continue
		}
		if inv.PostPaymentCreditNotesAmount.IsPositive() {
			if inv.CreditNotes, err = c.invoiceCreditNotes(ctx, inv.ID); err != nil {
				return nil, err
			}
		}
		invoices = append(invoices, inv)
	}
	sortInvoices(invoices)
	return invoices, nil
}

// FetchRecentInvoices lists the invoices created in the months before the window.
func (c *Client) FetchRecentInvoices(ctx context.Context, window domain.Window) ([]domain.Invoice, error) {
	params := &stripego.InvoiceListParams{
		CreatedRange: createdRange(window.From.AddDate(0, recentInvoiceMonths, 0), window.From),
	}
	params.Context = ctx

	raw, err := call(ctx, c.retrier, "list recent invoices", func() ([]*stripego.Invoice, error) {
		return c.api.ListInvoices(params)
	})
	if err != nil {
		return nil, err
	}

	invoices := make([]domain.Invoice, 0, len(raw))
	for _, r := range raw {
		if inv := MapInvoice(r); inv.Status != domain.InvoiceStatusDraft {
			invoices = append(invoices, inv)
		}
	}
	sortInvoices(invoices)
	return invoices, nil
}

// FetchOpenInvoices lists candidates for the open item report at ref: the
// invoices created in the year up to ref. With openOnly only currently open
// invoices are listed.
func (c *Client) FetchOpenInvoices(ctx context.Context, ref time.Time, openOnly bool) ([]domain.Invoice, error) {
	params := &stripego.InvoiceListParams{
		CreatedRange: &stripego.RangeQueryParams{
			GreaterThanOrEqual: ref.AddDate(-1, 0, 0).Unix(),
			LesserThanOrEqual:  ref.Unix(),
		},
	}
	if openOnly {
		params.Status = stripego.String(string(domain.InvoiceStatusOpen))
	}
	params.Context = ctx
	params.AddExpand("data.customer")

	raw, err := call(ctx, c.retrier, "list open invoices", func() ([]*stripego.Invoice, error) {
		return c.api.ListInvoices(params)
	})
	if err != nil {
		return nil, err
	}

	invoices := make([]domain.Invoice, 0, len(raw))
	for _, r := range raw {
		invoices = append(invoices, MapInvoice(r))
	}
	sortInvoices(invoices)
	return invoices, nil
}

func (c *Client) invoiceCreditNotes(ctx context.Context, invoiceID string) ([]domain.CreditNote, error) {
	params := &stripego.CreditNoteListParams{Invoice: stripego.String(invoiceID)}
	params.Context = ctx

	raw, err := call(ctx, c.retrier, "list credit notes", func() ([]*stripego.CreditNote, error) {
		return c.api.ListCreditNotes(params)
	})
	if err != nil {
		return nil, err
	}
	notes := make([]domain.CreditNote, 0, len(raw))
	for _, cn := range raw {
		notes = append(notes, MapCreditNote(cn))
	}
	return notes, nil
}

// FetchCreditNotes lists the credit notes issued inside the window.
func (c *Client) FetchCreditNotes(ctx context.Context, window domain.Window) ([]domain.CreditNote, error) {
	params := &stripego.CreditNoteListParams{}
	params.Context = ctx
	params.Filters.AddFilter("created", "gte", strconv.FormatInt(window.From.Unix(), 10))
	params.Filters.AddFilter("created", "lt", strconv.FormatInt(window.To.Unix(), 10))
	params.AddExpand("data.invoice")

	raw, err := call(ctx, c.retrier, "list window credit notes", func() ([]*stripego.CreditNote, error) {
		return c.api.ListCreditNotes(params)
	})
	if err != nil {
		return nil, err
	}

	notes := make([]domain.CreditNote, 0, len(raw))
	for _, r := range raw {
		notes = append(notes, MapCreditNote(r))
	}
	sort.SliceStable(notes, func(i, j int) bool {
		return notes[i].Created.Before(notes[j].Created)
	})
	return notes, nil
}

// FetchCharges lists the charges created inside the window, oldest first.
// Direct charges carry the checkout session they were paid through.
func (c *Client) FetchCharges(ctx context.Context, window domain.Window) ([]domain.Charge, error) {
	params := &stripego.ChargeListParams{CreatedRange: createdRange(window.From, window.To)}
	params.Context = ctx
	params.AddExpand("data.customer")
	params.AddExpand("data.customer.tax_ids")
	params.AddExpand("data.invoice")
	params.AddExpand("data.refunds")
	params.AddExpand("data.balance_transaction")

	raw, err := call(ctx, c.retrier, "list charges", func() ([]*stripego.Charge, error) {
		return c.api.ListCharges(params)
	})
	if err != nil {
		return nil, err
	}

	charges := make([]domain.Charge, 0, len(raw))
	for _, r := range raw {
		ch := MapCharge(r)
		if ch.Direct() && r.PaymentIntent != nil {
			if ch.CheckoutSession, err = c.checkoutSession(ctx, r.PaymentIntent.ID); err != nil {
				return nil, err
			}
		}
		charges = append(charges, ch)
	}
	sort.SliceStable(charges, func(i, j int) bool {
		return charges[i].Created.Before(charges[j].Created)
	})
	return charges, nil
}

func (c *Client) checkoutSession(ctx context.Context, paymentIntentID string) (*domain.CheckoutSession, error) {
	params := &stripego.CheckoutSessionListParams{PaymentIntent: stripego.String(paymentIntentID)}
	params.Context = ctx
	params.AddExpand("data.line_items")

	sessions, err := call(ctx, c.retrier, "list checkout sessions", func() ([]*stripego.CheckoutSession, error) {
		return c.api.ListCheckoutSessions(params)
	})
	if err != nil || len(sessions) == 0 {
		return nil, err
	}
	return MapCheckoutSession(sessions[0]), nil
}

// FetchPayouts lists the payouts created inside the window.
func (c *Client) FetchPayouts(ctx context.Context, window domain.Window) ([]domain.Payout, error) {
	params := &stripego.PayoutListParams{CreatedRange: createdRange(window.From, window.To)}
	params.Context = ctx
	params.AddExpand("data.balance_transaction")

	raw, err := call(ctx, c.retrier, "list payouts", func() ([]*stripego.Payout, error) {
		return c.api.ListPayouts(params)
	})
	if err != nil {
		return nil, err
	}

	payouts := make([]domain.Payout, 0, len(raw))
	for _, r := range raw {
		payouts = append(payouts, MapPayout(r))
	}
	sort.SliceStable(payouts, func(i, j int) bool {
		return payouts[i].Created.Before(payouts[j].Created)
	})
	return payouts, nil
}

// FetchTransfers lists the transfers created inside the window.
func (c *Client) FetchTransfers(ctx context.Context, window domain.Window) ([]domain.Transfer, error) {
	params := &stripego.TransferListParams{CreatedRange: createdRange(window.From, window.To)}
	params.Context = ctx
	params.AddExpand("data.destination")
	params.AddExpand("data.source_transaction")
	params.AddExpand("data.source_transaction.invoice")

	raw, err := call(ctx, c.retrier, "list transfers", func() ([]*stripego.Transfer, error) {
		return c.api.ListTransfers(params)
	})
	if err != nil {
		return nil, err
	}

	transfers := make([]domain.Transfer, 0, len(raw))
	for _, r := range raw {
		transfers = append(transfers, MapTransfer(r))
	}
	sort.SliceStable(transfers, func(i, j int) bool {
		return transfers[i].Created.Before(transfers[j].Created)
	})
	return transfers, nil
}

// FetchContributions lists the contribution balance transactions of the window.
func (c *Client) FetchContributions(ctx context.Context, window domain.Window) ([]domain.BalanceTransaction, error) {
	params := &stripego.BalanceTransactionListParams{
		CreatedRange: createdRange(window.From, window.To),
		Type:         stripego.String("contribution"),
	}
	params.Context = ctx

	raw, err := call(ctx, c.retrier, "list contributions", func() ([]*stripego.BalanceTransaction, error) {
		return c.api.ListBalanceTransactions(params)
	})
	if err != nil {
		return nil, err
	}

	txs := make([]domain.BalanceTransaction, 0, len(raw))
	for _, r := range raw {
		txs = append(txs, *MapBalanceTransaction(r))
	}
	sort.SliceStable(txs, func(i, j int) bool {
		return txs[i].Created.Before(txs[j].Created)
	})
	return txs, nil
}

// LookupCustomer resolves a customer with its tax ids.
func (c *Client) LookupCustomer(id string) (*domain.Customer, error) {
	ctx := context.Background()
	return cached(ctx, c.cache, "customer:"+id, func() (*domain.Customer, error) {
		params := &stripego.CustomerParams{}
		params.Context = ctx
		params.AddExpand("tax_ids")
		cus, err := call(ctx, c.retrier, "get customer "+id, func() (*stripego.Customer, error) {
			return c.api.GetCustomer(id, params)
		})
		if err != nil {
			return nil, err
		}
		return MapCustomer(cus), nil
	})
}

// LookupTaxRate resolves a tax rate.
func (c *Client) LookupTaxRate(id string) (*domain.TaxRate, error) {
	ctx := context.Background()
	return cached(ctx, c.cache, "tax_rate:"+id, func() (*domain.TaxRate, error) {
		params := &stripego.TaxRateParams{}
		params.Context = ctx
		rate, err := call(ctx, c.retrier, "get tax rate "+id, func() (*stripego.TaxRate, error) {
			return c.api.GetTaxRate(id, params)
		})
		if err != nil {
			return nil, err
		}
		return MapTaxRate(rate), nil
	})
}

// ListCustomers lists every customer with its tax ids.
func (c *Client) ListCustomers(ctx context.Context) ([]domain.Customer, error) {
	params := &stripego.CustomerListParams{}
	params.Context = ctx
	params.AddExpand("data.tax_ids")

	raw, err := call(ctx, c.retrier, "list customers", func() ([]*stripego.Customer, error) {
		return c.api.ListCustomers(params)
	})
	if err != nil {
		return nil, err
	}

	customers := make([]domain.Customer, 0, len(raw))
	for _, r := range raw {
		customers = append(customers, *MapCustomer(r))
	}
	return customers, nil
}

// SetAccountNumber stores the ledger account number on a customer and
// removes the given metadata keys.
func (c *Client) SetAccountNumber(ctx context.Context, customerID, accountNumber string, clearKeys []string) error {
	params := &stripego.CustomerParams{}
	params.Context = ctx
	params.AddMetadata(domain.MetadataAccountNumber, accountNumber)
	for _, key := range clearKeys {
		params.AddMetadata(key, "")
	}

	_, err := call(ctx, c.retrier, "update customer "+customerID, func() (*stripego.Customer, error) {
		return c.api.UpdateCustomer(customerID, params)
	})
	if err != nil {
		return err
	}

	c.logger.Info().
		Str("customer_id", customerID).
		Str("account_number", accountNumber).
		Msg("account number assigned")
	return nil
}

func sortInvoices(invoices []domain.Invoice) {
	sort.SliceStable(invoices, func(i, j int) bool {
		return invoices[i].Created.Before(invoices[j].Created)
	})
}
