package stripe

import (
	stripego "github.com/stripe/stripe-go/v81"
	"github.com/stripe/stripe-go/v81/client"
)

// API is the subset of the Stripe API the exporter reads from. List calls
// drain the whole result set.
type API interface {
	ListInvoices(params *stripego.InvoiceListParams) ([]*stripego.Invoice, error)
	ListCreditNotes(params *stripego.CreditNoteListParams) ([]*stripego.CreditNote, error)
	ListCharges(params *stripego.ChargeListParams) ([]*stripego.Charge, error)
	ListCheckoutSessions(params *stripego.CheckoutSessionListParams) ([]*stripego.CheckoutSession, error)
	ListPayouts(params *stripego.PayoutListParams) ([]*stripego.Payout, error)
	ListTransfers(params *stripego.TransferListParams) ([]*stripego.Transfer, error)
	ListBalanceTransactions(params *stripego.BalanceTransactionListParams) ([]*stripego.BalanceTransaction, error)
	ListCustomers(params *stripego.CustomerListParams) ([]*stripego.Customer, error)
	GetCustomer(id string, params *stripego.CustomerParams) (*stripego.Customer, error)
	UpdateCustomer(id string, params *stripego.CustomerParams) (*stripego.Customer, error)
	GetTaxRate(id string, params *stripego.TaxRateParams) (*stripego.TaxRate, error)
}

type sdk struct {
	sc *client.API
}

// NewAPI returns an API backed by the official client.
func NewAPI(secretKey string) API {
	sc := &client.API{}
	sc.Init(secretKey, nil)
	return &sdk{sc: sc}
}

func (s *sdk) ListInvoices(params *stripego.InvoiceListParams) ([]*stripego.Invoice, error) {
	var out []*stripego.Invoice
	iter := s.sc.Invoices.List(params)
	for iter.Next() {
		out = append(out, iter.Invoice())
	}
	return out, iter.Err()
}

func (s *sdk) ListCreditNotes(params *stripego.CreditNoteListParams) ([]*stripego.CreditNote, error) {
	var out []*stripego.CreditNote
	iter := s.sc.CreditNotes.List(params)
	for iter.Next() {
		out = append(out, iter.CreditNote())
	}
	return out, iter.Err()
}

func (s *sdk) ListCharges(params *stripego.ChargeListParams) ([]*stripego.Charge, error) {
	var out []*stripego.Charge
	iter := s.sc.Charges.List(params)
	for iter.Next() {
		out = append(out, iter.Charge())
	}
	return out, iter.Err()
}

func (s *sdk) ListCheckoutSessions(params *stripego.CheckoutSessionListParams) ([]*stripego.CheckoutSession, error) {
	var out []*stripego.CheckoutSession
	iter := s.sc.CheckoutSessions.List(params)
	for iter.Next() {
		out = append(out, iter.CheckoutSession())
	}
	return out, iter.Err()
}

func (s *sdk) ListPayouts(params *stripego.PayoutListParams) ([]*stripego.Payout, error) {
	var out []*stripego.Payout
	iter := s.sc.Payouts.List(params)
	for iter.Next() {
		out = append(out, iter.Payout())
	}
	return out, iter.Err()
}

func (s *sdk) ListTransfers(params *stripego.TransferListParams) ([]*stripego.Transfer, error) {
	var out []*stripego.Transfer
	iter := s.sc.Transfers.List(params)
	for iter.Next() {
		out = append(out, iter.Transfer())
	}
	return out, iter.Err()
}

func (s *sdk) ListBalanceTransactions(params *stripego.BalanceTransactionListParams) ([]*stripego.BalanceTransaction, error) {
	var out []*stripego.BalanceTransaction
	iter := s.sc.BalanceTransactions.List(params)
	for iter.Next() {
		out = append(out, iter.BalanceTransaction())
	}
	return out, iter.Err()
}

func (s *sdk) ListCustomers(params *stripego.CustomerListParams) ([]*stripego.Customer, error) {
	var out []*stripego.Customer
	iter := s.sc.Customers.List(params)
	for iter.Next() {
		out = append(out, iter.Customer())
	}
	return out, iter.Err()
}

func (s *sdk) GetCustomer(id string, params *stripego.CustomerParams) (*stripego.Customer, error) {
	return s.sc.Customers.Get(id, params)
}

func (s *sdk) UpdateCustomer(id string, params *stripego.CustomerParams) (*stripego.Customer, error) {
	return s.sc.Customers.Update(id, params)
}

func (s *sdk) GetTaxRate(id string, params *stripego.TaxRateParams) (*stripego.TaxRate, error) {
	return s.sc.TaxRates.Get(id, params)
}
