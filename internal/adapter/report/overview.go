package report

import (
	"time"

	"github.com/iho/stripe-datev/internal/domain"
)

var overviewHeader = []string{
	"invoice_id",
	"invoice_number",
	"date",
	"total_before_tax",
	"tax",
	"tax_percent",
	"total",
	"customer_id",
	"customer_name",
	"country",
	"vat_region",
	"vat_id",
	"tax_exempt",
	"customer_account",
	"revenue_account",
	"datev_tax_key",
}

// Overview lists one row per revenue item with its tax treatment.
// Voided items are left out.
func Overview(items []domain.RevenueItem, loc *time.Location) [][]string {
	rows := [][]string{overviewHeader}
	for i := range items {
		item := &items[i]
		if item.Lifecycle.Kind() == domain.LifecycleVoided {
			continue
		}

		tax, pct := "", ""
		if item.TaxPercentage != nil {
			tax = item.Gross.Sub(item.Net).StringFixed(domain.MoneyPlaces)
			pct = item.TaxPercentage.StringFixed(0)
		}

		p := item.Profile
		rows = append(rows, []string{
			item.ID,
			item.Number,
			item.Created.In(loc).Format("2006-01-02"),
			item.Net.StringFixed(domain.MoneyPlaces),
			tax,
			pct,
			item.Gross.StringFixed(domain.MoneyPlaces),
			item.CustomerID,
			customerName(item.Customer),
			p.Country,
			string(p.VATRegion),
			p.VATID,
			string(p.TaxExempt),
			p.CustomerAccount,
			p.RevenueAccount,
			p.TaxKey,
		})
	}
	return rows
}

func customerName(c *domain.Customer) string {
	if c == nil {
		return ""
	}
	return c.DisplayName()
}
