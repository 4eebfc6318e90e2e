package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Metadata key that excludes a document from revenue export.
const MetadataIgnore = "stripe-datev-exporter:ignore"

// Metadata key holding the ledger account number of a customer or connected account.
const MetadataAccountNumber = "accountNumber"

// InvoiceStatus mirrors the billing platform invoice states.
type InvoiceStatus string

const (
	InvoiceStatusDraft         InvoiceStatus = "draft"
	InvoiceStatusOpen          InvoiceStatus = "open"
	InvoiceStatusPaid          InvoiceStatus = "paid"
	InvoiceStatusVoid          InvoiceStatus = "void"
	InvoiceStatusUncollectible InvoiceStatus = "uncollectible"
)

// Address is a postal address.
type Address struct {
	Line1      string
	Line2      string
	PostalCode string
	City       string
	State      string
	Country    string
}

// TaxID is a tax identifier registered on a customer.
type TaxID struct {
	Type     string
	Value    string
	Verified bool
}

// Customer is a billing platform customer.
type Customer struct {
	ID              string
	Name            string
	Description     string
	Email           string
	Deleted         bool
	Created         time.Time
	Address         *Address
	ShippingAddress *Address
	TaxExempt       TaxExemptStatus
	TaxIDs          []TaxID
	Metadata        map[string]string
}

// DisplayName returns the best human label for the customer.
func (c *Customer) DisplayName() string {
	if c.Deleted {
		return c.ID
	}
	if c.Description != "" {
		return c.Description
	}
	if c.Name != "" {
		return c.Name
	}
	return c.ID
}

// AccountNumber returns the personal ledger account stored on the customer.
func (c *Customer) AccountNumber() string {
	return c.Metadata[MetadataAccountNumber]
}

// TaxRate is a configured tax rate.
type TaxRate struct {
	ID         string
	Percentage decimal.Decimal
	Inclusive  bool
	Country    string
}

// TaxAmount is a tax portion attached to an invoice or line.
type TaxAmount struct {
	Amount    decimal.Decimal
	Inclusive bool
	TaxRateID string
}

// InvoiceLine is one line of an invoice.
type InvoiceLine struct {
	ID              string
	Description     string
	Amount          decimal.Decimal
	Period          *Period
	DiscountAmounts []decimal.Decimal
	TaxAmounts      []TaxAmount
}

// CreditNote is a credit note issued against an invoice.
type CreditNote struct {
	ID        string
	Number    string
	Created   time.Time
	Amount    decimal.Decimal
	InvoiceID string
	// InvoiceFinalizedAt is set when the credited invoice was expanded.
	InvoiceFinalizedAt *time.Time
}

// Invoice is a finalized billing document.
type Invoice struct {
	ID                           string
	Number                       string
	Status                       InvoiceStatus
	Currency                     string
	Created                      time.Time
	FinalizedAt                  *time.Time
	PaidAt                       *time.Time
	VoidedAt                     *time.Time
	MarkedUncollectibleAt        *time.Time
	DueDate                      *time.Time
	Total                        decimal.Decimal
	Tax                          *decimal.Decimal
	CustomerID                   string
	Customer                     *Customer
	CustomerTaxExempt            *TaxExemptStatus
	AutomaticTax                 bool
	PostPaymentCreditNotesAmount decimal.Decimal
	CreditNotes                  []CreditNote
	TotalTaxAmounts              []TaxAmount
	Lines                        []InvoiceLine
	SubscriptionID               string
	Metadata                     map[string]string
}

// Ignored reports whether the invoice carries the export ignore flag.
func (i *Invoice) Ignored() bool {
	return i.Metadata[MetadataIgnore] == "true"
}

// Finalized returns the finalization instant, falling back to creation.
func (i *Invoice) Finalized() time.Time {
	if i.FinalizedAt != nil {
		return *i.FinalizedAt
	}
	return i.Created
}

// Refund is a refund of a charge.
type Refund struct {
	ID      string
	Amount  decimal.Decimal
	Created time.Time
}

// FeeDetail is one fee component of a balance transaction.
type FeeDetail struct {
	Amount      decimal.Decimal
	Currency    string
	Description string
	Type        string
}

// BalanceTransaction is a movement on the platform balance.
type BalanceTransaction struct {
	ID          string
	Type        string
	Amount      decimal.Decimal
	Currency    string
	Created     time.Time
	Description string
	FeeDetails  []FeeDetail
}

// CheckoutSession is the hosted checkout a charge originated from.
type CheckoutSession struct {
	ID               string
	AmountTax        *decimal.Decimal
	LineDescriptions []string
}

// Charge is a captured card payment.
type Charge struct {
	ID                   string
	Created              time.Time
	Amount               decimal.Decimal
	AmountRefunded       decimal.Decimal
	ApplicationFeeAmount decimal.Decimal
	Currency             string
	Paid                 bool
	Captured             bool
	Refunded             bool
	Refunds              []Refund
	Description          string
	ReceiptNumber        string
	CustomerID           string
	Customer             *Customer
	InvoiceID            string
	InvoiceNumber        string
	CheckoutSession      *CheckoutSession
	BalanceTransaction   *BalanceTransaction
	Metadata             map[string]string
}

// Ignored reports whether the charge carries the export ignore flag.
func (c *Charge) Ignored() bool {
	return c.Metadata[MetadataIgnore] == "true"
}

// Direct reports whether the charge was not raised by an invoice.
func (c *Charge) Direct() bool {
	return c.InvoiceID == ""
}

// Payout is a transfer of the platform balance to the bank.
type Payout struct {
	ID          string
	Created     time.Time
	ArrivalDate time.Time
	Amount      decimal.Decimal
	Currency    string
	Status      string
	Description string
	FeeDetails  []FeeDetail
}

// ConnectedAccount is the destination of a transfer.
type ConnectedAccount struct {
	ID       string
	Metadata map[string]string
}

// Transfer moves part of a charge to a connected account.
type Transfer struct {
	ID          string
	Created     time.Time
	Amount      decimal.Decimal
	Currency    string
	Reversed    bool
	Description string
	Source      *Charge
	Destination *ConnectedAccount
}

// Batch is the closed set of source records one export run processes.
type Batch struct {
	Invoices      []Invoice
	Charges       []Charge
	Payouts       []Payout
	Transfers     []Transfer
	Contributions []BalanceTransaction
	// RecentInvoices are invoices finalized before the window, used for late reversal checks.
	RecentInvoices []Invoice
	// CreditNotes are all credit notes issued inside the window.
	CreditNotes []CreditNote
}
