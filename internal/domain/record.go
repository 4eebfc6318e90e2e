package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Side is the debit/credit marker of a posting.
type Side string

const (
	SideDebit  Side = "S"
	SideCredit Side = "H"
)

// MaxRecordText is the longest posting text the export format accepts.
const MaxRecordText = 60

// Record is one ledger posting. Account is debited and CounterAccount credited for SideDebit.
type Record struct {
	Date           time.Time
	Amount         decimal.Decimal
	Side           Side
	Currency       string
	Account        string
	CounterAccount string
	TaxKey         string
	Text           string
	DocumentRef    string
	EUVATID        string
}

// SignedAmount returns the amount positive for debit, negative for credit.
func (r Record) SignedAmount() decimal.Decimal {
	if r.Side == SideCredit {
		return r.Amount.Neg()
	}
	return r.Amount
}

// TruncateText shortens s to at most n runes.
func TruncateText(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}

// RecordKind names a family of exported postings.
type RecordKind string

const (
	RecordKindRevenue       RecordKind = "Revenue"
	RecordKindCharges       RecordKind = "Charges"
	RecordKindTransfers     RecordKind = "Transfers"
	RecordKindPayouts       RecordKind = "Payouts"
	RecordKindContributions RecordKind = "Contributions"
)

// MonthGroup is the slice of records booked in one accounting month.
type MonthGroup struct {
	Month   string
	Records []Record
}
