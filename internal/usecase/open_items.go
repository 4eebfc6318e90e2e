package usecase

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/iho/stripe-datev/internal/domain"
)

// OpenItem is an invoice still unpaid at the reference instant.
type OpenItem struct {
	InvoiceID   string
	Number      string
	Total       decimal.Decimal
	CustomerID  string
	Email       string
	DueDate     time.Time
	OverdueDays int
}

// OpenItemsReport lists the open invoices as of Ref.
type OpenItemsReport struct {
	Ref   time.Time
	Items []OpenItem
	Total decimal.Decimal
}

// OpenItems returns the invoices finalized by ref that were neither paid,
// voided nor written off by then.
func OpenItems(invoices []domain.Invoice, customers CustomerLookup, ref time.Time) (*OpenItemsReport, error) {
	memo := NewLookupMemo()
	report := &OpenItemsReport{Ref: ref, Total: decimal.Zero}

	for i := range invoices {
		inv := &invoices[i]
		if inv.FinalizedAt == nil || inv.FinalizedAt.After(ref) {
			continue
		}
		if settledBy(inv.MarkedUncollectibleAt, ref) || settledBy(inv.VoidedAt, ref) || settledBy(inv.PaidAt, ref) {
			continue
		}

		var cus *domain.Customer
		switch {
		case inv.Customer != nil:
			cus = memo.RememberCustomer(inv.Customer)
		case inv.CustomerID != "":
			c, err := memo.Customer(customers, inv.CustomerID)
			if err != nil {
				return nil, domain.NewProcessingError("open items", inv.ID,
					fmt.Errorf("customer %s: %w", inv.CustomerID, err))
			}
			cus = c
		}

		due := inv.Created
		if inv.DueDate != nil {
			due = *inv.DueDate
		}

		item := OpenItem{
			InvoiceID: inv.ID,
			Number:    inv.Number,
			Total:     domain.RoundMoney(inv.Total),
			DueDate:   due,
		}
		if cus != nil {
			item.CustomerID = cus.ID
			item.Email = cus.Email
		}
		if due.Before(ref) {
			item.OverdueDays = int(ref.Sub(due).Hours() / 24)
		}

		report.Items = append(report.Items, item)
		report.Total = report.Total.Add(item.Total)
	}

	return report, nil
}

func settledBy(at *time.Time, ref time.Time) bool {
	return at != nil && !at.After(ref)
}
