package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// RevenueSource identifies the kind of document a revenue item came from.
type RevenueSource string

const (
	RevenueSourceInvoice RevenueSource = "invoice"
	RevenueSourceCharge  RevenueSource = "charge"
)

// LifecycleKind enumerates revenue item lifecycle states.
type LifecycleKind int

const (
	LifecycleActive LifecycleKind = iota
	LifecycleVoided
	LifecycleUncollectible
	LifecycleCredited
)

func (k LifecycleKind) String() string {
	switch k {
	case LifecycleVoided:
		return "voided"
	case LifecycleUncollectible:
		return "uncollectible"
	case LifecycleCredited:
		return "credited"
	default:
		return "active"
	}
}

// Lifecycle is the reversal state of a revenue item. The zero value is Active.
type Lifecycle struct {
	kind   LifecycleKind
	at     time.Time
	amount decimal.Decimal
}

// Active returns the lifecycle of an item that was never reversed.
func Active() Lifecycle {
	return Lifecycle{kind: LifecycleActive}
}

// Voided returns the lifecycle of an item voided at t.
func Voided(at time.Time) Lifecycle {
	return Lifecycle{kind: LifecycleVoided, at: at}
}

// Uncollectible returns the lifecycle of an item written off at t.
func Uncollectible(at time.Time) Lifecycle {
	return Lifecycle{kind: LifecycleUncollectible, at: at}
}

// Credited returns the lifecycle of an item credited by amount at t.
func Credited(at time.Time, amount decimal.Decimal) Lifecycle {
	return Lifecycle{kind: LifecycleCredited, at: at, amount: amount}
}

// Kind returns the lifecycle state.
func (l Lifecycle) Kind() LifecycleKind {
	return l.kind
}

// At returns the reversal instant; zero for Active.
func (l Lifecycle) At() time.Time {
	return l.at
}

// Amount returns the credited amount; zero unless Credited.
func (l Lifecycle) Amount() decimal.Decimal {
	return l.amount
}

// ReversedAt returns the reversal instant and whether a reversal occurred.
func (l Lifecycle) ReversedAt() (time.Time, bool) {
	if l.kind == LifecycleActive {
		return time.Time{}, false
	}
	return l.at, true
}

// LineItem is one recognizable portion of a revenue item.
type LineItem struct {
	Index  int
	Period Period
	Net    decimal.Decimal
	Gross  decimal.Decimal
	Text   string
}

// RevenueItem is a normalized revenue-bearing document.
type RevenueItem struct {
	ID             string
	Number         string
	Source         RevenueSource
	CustomerID     string
	Customer       *Customer
	Created        time.Time
	Net            decimal.Decimal
	Gross          decimal.Decimal
	TaxPercentage  *decimal.Decimal
	Text           string
	LineItems      []LineItem
	Profile        TaxProfile
	Lifecycle      Lifecycle
	IsSubscription bool
}

// LastLineEnd returns the latest recognition end across all line items.
func (r *RevenueItem) LastLineEnd() time.Time {
	end := r.Created
	for _, li := range r.LineItems {
		if li.Period.End.After(end) {
			end = li.Period.End
		}
	}
	return end
}
