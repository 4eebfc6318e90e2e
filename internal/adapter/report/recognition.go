package report

import (
	"strconv"
	"time"

	"github.com/shopspring/decimal"

	"github.com/iho/stripe-datev/internal/domain"
	"github.com/iho/stripe-datev/internal/recognition"
)

// Revenue types of the monthly recognition report.
const (
	RevenuePrepaid   = "Prepaid"
	RevenuePayPerUse = "PayPerUse"
)

// prepaidAfter is how far beyond its creation an item must extend to count as prepaid.
const prepaidAfter = 24 * time.Hour

var recognitionHeader = []string{
	"invoice_id",
	"invoice_number",
	"invoice_date",
	"recognition_start",
	"recognition_end",
	"recognition_month",
	"line_item_idx",
	"line_item_desc",
	"line_item_net",
	"customer_id",
	"customer_name",
	"country",
	"accounting_date",
	"revenue_type",
	"is_recurring",
}

const (
	colNet            = 8
	colAccountingDate = 12
)

// MonthlyRecognition splits the net amount of every line item across its
// recognition months. A reversed item gets a negative counter row per month:
// the full amount for voids and write-offs, the credited share for credit notes.
func MonthlyRecognition(items []domain.RevenueItem, loc *time.Location) ([][]string, error) {
	rows := [][]string{recognitionHeader}

	for i := range items {
		item := &items[i]

		revenueType := RevenuePayPerUse
		if item.Created.Add(prepaidAfter).Before(item.LastLineEnd()) {
			revenueType = RevenuePrepaid
		}
		created := item.Created.In(loc)
		reversedAt, reversed := item.Lifecycle.ReversedAt()

		for _, li := range item.LineItems {
			end := li.Period.End
			if reversed {
				end = reversedAt
			}

			buckets, err := recognition.SplitMonths(li.Period.In(loc), li.Net)
			if err != nil {
				return nil, domain.NewProcessingError("recognition report", item.ID, err)
			}

			for _, month := range buckets {
				date := month.Start
				if end.Before(month.Start) {
					date = end
				}

				row := []string{
					item.ID,
					item.Number,
					created.Format("2006-01-02"),
					li.Period.Start.In(loc).Format("2006-01-02"),
					li.Period.End.In(loc).Format("2006-01-02"),
					month.Start.Format("2006-01") + "-01",
					strconv.Itoa(li.Index + 1),
					li.Text,
					month.Amounts[0].StringFixed(domain.MoneyPlaces),
					item.CustomerID,
					customerName(item.Customer),
					customerCountry(item.Customer),
					latest(created, date).In(loc).Format("2006-01-02"),
					revenueType,
					strconv.FormatBool(item.IsSubscription),
				}
				rows = append(rows, row)

				if !reversed {
					continue
				}

				amount := month.Amounts[0].Neg()
				if item.Lifecycle.Kind() == domain.LifecycleCredited {
					amount = creditedShare(amount, item.Lifecycle.Amount(), item.Gross)
				}
				reverseDate := month.Start
				if end.Before(month.End) {
					reverseDate = end
				}

				reverse := append([]string(nil), row...)
				reverse[colNet] = amount.StringFixed(domain.MoneyPlaces)
				reverse[colAccountingDate] = latest(created, reverseDate).In(loc).Format("2006-01-02")
				rows = append(rows, reverse)
			}
		}
	}

	return rows, nil
}

func creditedShare(amount, credited, gross decimal.Decimal) decimal.Decimal {
	if gross.IsZero() {
		return decimal.Zero
	}
	return amount.Mul(credited).Div(gross)
}

func latest(a, b time.Time) time.Time {
	if b.After(a) {
		return b
	}
	return a
}

func customerCountry(c *domain.Customer) string {
	if c == nil || c.Address == nil {
		return ""
	}
	return c.Address.Country
}
