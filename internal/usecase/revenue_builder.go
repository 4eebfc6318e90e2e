package usecase

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/iho/stripe-datev/internal/domain"
	"github.com/iho/stripe-datev/internal/recognition"
)

// RevenueBuilder normalizes invoices and direct charges into revenue items.
type RevenueBuilder struct {
	classifier *TaxClassifier
	extractor  *recognition.PeriodExtractor
	customers  CustomerLookup
	taxRates   TaxRateLookup
	memo       *LookupMemo
	loc        *time.Location
}

// NewRevenueBuilder creates a new RevenueBuilder.
func NewRevenueBuilder(
	classifier *TaxClassifier,
	extractor *recognition.PeriodExtractor,
	customers CustomerLookup,
	taxRates TaxRateLookup,
	memo *LookupMemo,
	loc *time.Location,
) *RevenueBuilder {
	if memo == nil {
		memo = NewLookupMemo()
	}
	if loc == nil {
		loc = time.UTC
	}
	return &RevenueBuilder{
		classifier: classifier,
		extractor:  extractor,
		customers:  customers,
		taxRates:   taxRates,
		memo:       memo,
		loc:        loc,
	}
}

// BuildFromInvoices builds one revenue item per finalized invoice.
func (b *RevenueBuilder) BuildFromInvoices(invoices []domain.Invoice, diags *domain.Diagnostics) ([]domain.RevenueItem, error) {
	items := make([]domain.RevenueItem, 0, len(invoices))
	for i := range invoices {
		inv := &invoices[i]
		if inv.Status == domain.InvoiceStatusDraft {
			continue
		}
		if inv.Ignored() {
			diags.Add(domain.Advisory(domain.CodeIgnored, inv.ID, "skipping invoice %s (ignore)", inv.Number))
			continue
		}

		item, err := b.buildInvoice(inv, diags)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, nil
}

func (b *RevenueBuilder) buildInvoice(inv *domain.Invoice, diags *domain.Diagnostics) (domain.RevenueItem, error) {
	const op = "build invoice"

	if !domain.IsSettlementCurrency(inv.Currency) {
		return domain.RevenueItem{}, domain.NewProcessingError(op, inv.ID,
			fmt.Errorf("%w: %s", domain.ErrUnexpectedCurrency, inv.Currency))
	}

	lifecycle, err := b.invoiceLifecycle(inv)
	if err != nil {
		return domain.RevenueItem{}, domain.NewProcessingError(op, inv.ID, err)
	}

	cus, err := b.resolveCustomer(inv.Customer, inv.CustomerID)
	if err != nil {
		return domain.RevenueItem{}, domain.NewProcessingError(op, inv.ID, err)
	}

	profile := b.profile(cus.ID+"/"+inv.ID, diags, func() (domain.TaxProfile, []domain.Diagnostic) {
		return b.classifier.ClassifyInvoice(cus, inv)
	})

	gross := domain.RoundMoney(inv.Total)
	net := gross
	if inv.Tax != nil {
		net = gross.Sub(domain.RoundMoney(*inv.Tax))
	}

	var taxPercentage *decimal.Decimal
	if len(inv.TotalTaxAmounts) > 0 && inv.TotalTaxAmounts[0].TaxRateID != "" {
		rate, err := b.memo.TaxRate(b.taxRates, inv.TotalTaxAmounts[0].TaxRateID)
		if err != nil {
			return domain.RevenueItem{}, domain.NewProcessingError(op, inv.ID,
				fmt.Errorf("tax rate %s: %w", inv.TotalTaxAmounts[0].TaxRateID, err))
		}
		pct := rate.Percentage
		taxPercentage = &pct
	}

	created := inv.Finalized().In(b.loc)
	reference := inv.Created.In(b.loc)

	lines := make([]domain.LineItem, 0, len(inv.Lines))
	for idx, line := range inv.Lines {
		liNet := domain.RoundMoney(line.Amount)
		for _, discount := range line.DiscountAmounts {
			liNet = liNet.Sub(domain.RoundMoney(discount))
		}
		liGross := liNet
		for _, tax := range line.TaxAmounts {
			if tax.Inclusive {
				liNet = liNet.Sub(domain.RoundMoney(tax.Amount))
			} else {
				liGross = liGross.Add(domain.RoundMoney(tax.Amount))
			}
		}

		text := fmt.Sprintf("Invoice %s / %s", inv.Number, line.Description)
		lines = append(lines, domain.LineItem{
			Index:  idx,
			Period: b.recognitionPeriod(line.Period, line.Description, reference, inv.ID, diags),
			Net:    liNet,
			Gross:  liGross,
			Text:   text,
		})
	}

	return domain.RevenueItem{
		ID:             inv.ID,
		Number:         inv.Number,
		Source:         domain.RevenueSourceInvoice,
		CustomerID:     cus.ID,
		Customer:       cus,
		Created:        created,
		Net:            net,
		Gross:          gross,
		TaxPercentage:  taxPercentage,
		Text:           "Invoice " + inv.Number,
		LineItems:      lines,
		Profile:        profile,
		Lifecycle:      lifecycle,
		IsSubscription: inv.SubscriptionID != "",
	}, nil
}

func (b *RevenueBuilder) invoiceLifecycle(inv *domain.Invoice) (domain.Lifecycle, error) {
	switch inv.Status {
	case domain.InvoiceStatusVoid:
		if inv.VoidedAt == nil {
			return domain.Lifecycle{}, fmt.Errorf("%w: voided_at", domain.ErrIncompleteSource)
		}
		return domain.Voided(inv.VoidedAt.In(b.loc)), nil
	case domain.InvoiceStatusUncollectible:
		if inv.MarkedUncollectibleAt == nil {
			return domain.Lifecycle{}, fmt.Errorf("%w: marked_uncollectible_at", domain.ErrIncompleteSource)
		}
		return domain.Uncollectible(inv.MarkedUncollectibleAt.In(b.loc)), nil
	}

	if inv.PostPaymentCreditNotesAmount.IsPositive() {
		if len(inv.CreditNotes) != 1 {
			return domain.Lifecycle{}, fmt.Errorf("%w: %d credit notes", domain.ErrUnsupportedRefundPattern, len(inv.CreditNotes))
		}
		cn := inv.CreditNotes[0]
		return domain.Credited(cn.Created.In(b.loc), domain.RoundMoney(inv.PostPaymentCreditNotesAmount)), nil
	}

	return domain.Active(), nil
}

// BuildFromCharges builds revenue items for charges that were not raised by an invoice.
func (b *RevenueBuilder) BuildFromCharges(charges []domain.Charge, diags *domain.Diagnostics) ([]domain.RevenueItem, error) {
	items := make([]domain.RevenueItem, 0, len(charges))
	for i := range charges {
		ch := &charges[i]
		if !ch.Paid || !ch.Captured || !ch.Direct() {
			continue
		}
		if ch.Ignored() {
			diags.Add(domain.Advisory(domain.CodeIgnored, ch.ID, "skipping charge (ignore)"))
			continue
		}

		skip, err := b.checkRefunds(ch, diags)
		if err != nil {
			return nil, err
		}
		if skip {
			continue
		}

		if strings.Contains(ch.Description, InvoiceReferenceMarker) {
			diags.Add(domain.Advisory(domain.CodeInvoiceReference, ch.ID,
				"skipping charge referencing invoice: %s", ch.Description))
			continue
		}

		item, err := b.buildCharge(ch, diags)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, nil
}

// checkRefunds reports whether the charge is fully refunded by a single refund.
// Any other refund shape is fatal.
func (b *RevenueBuilder) checkRefunds(ch *domain.Charge, diags *domain.Diagnostics) (bool, error) {
	if !ch.Refunded && len(ch.Refunds) == 0 && !ch.AmountRefunded.IsPositive() {
		return false, nil
	}
	if len(ch.Refunds) == 1 && ch.Refunds[0].Amount.Equal(ch.Amount) {
		diags.Add(domain.Advisory(domain.CodeFullyRefunded, ch.ID, "skipping fully refunded charge"))
		return true, nil
	}
	return false, domain.NewProcessingError("build charge", ch.ID,
		fmt.Errorf("%w: %d refunds over %s of %s", domain.ErrUnsupportedRefundPattern,
			len(ch.Refunds), ch.AmountRefunded.StringFixed(2), ch.Amount.StringFixed(2)))
}

func (b *RevenueBuilder) buildCharge(ch *domain.Charge, diags *domain.Diagnostics) (domain.RevenueItem, error) {
	const op = "build charge"

	if !domain.IsSettlementCurrency(ch.Currency) {
		return domain.RevenueItem{}, domain.NewProcessingError(op, ch.ID,
			fmt.Errorf("%w: %s", domain.ErrUnexpectedCurrency, ch.Currency))
	}

	cus, err := b.resolveCustomer(ch.Customer, ch.CustomerID)
	if err != nil {
		return domain.RevenueItem{}, domain.NewProcessingError(op, ch.ID, err)
	}

	profile := b.profile(cus.ID+"/"+ch.ID, diags, func() (domain.TaxProfile, []domain.Diagnostic) {
		return b.classifier.ClassifyCheckout(cus, ch.ID, ch.CheckoutSession)
	})

	text := "Charge " + ch.ID
	if ch.ReceiptNumber != "" {
		text = "Receipt " + ch.ReceiptNumber
	}
	description := ChargeDescription(ch)
	if description != "" {
		text += " / " + description
	}

	created := ch.Created.In(b.loc)
	gross := domain.RoundMoney(ch.Amount)
	net := gross

	var taxPercentage *decimal.Decimal
	if ch.CheckoutSession != nil && ch.CheckoutSession.AmountTax != nil {
		tax := domain.RoundMoney(*ch.CheckoutSession.AmountTax)
		net = gross.Sub(tax)
		if pct, ok := domain.Percentage(tax, net); ok {
			taxPercentage = &pct
		}
	}

	return domain.RevenueItem{
		ID:            ch.ID,
		Number:        ch.ReceiptNumber,
		Source:        domain.RevenueSourceCharge,
		CustomerID:    cus.ID,
		Customer:      cus,
		Created:       created,
		Net:           net,
		Gross:         gross,
		TaxPercentage: taxPercentage,
		Text:          text,
		LineItems: []domain.LineItem{{
			Index:  0,
			Period: b.recognitionPeriod(nil, description, created, ch.ID, diags),
			Net:    net,
			Gross:  gross,
			Text:   text,
		}},
		Profile:   profile,
		Lifecycle: domain.Active(),
	}, nil
}

// ChargeDescription returns the charge description, falling back to the
// line item descriptions of the checkout session it was paid through.
func ChargeDescription(ch *domain.Charge) string {
	if ch.Description != "" || ch.CheckoutSession == nil {
		return ch.Description
	}
	return strings.Join(ch.CheckoutSession.LineDescriptions, ", ")
}

func (b *RevenueBuilder) resolveCustomer(expanded *domain.Customer, id string) (*domain.Customer, error) {
	if expanded != nil {
		return b.memo.RememberCustomer(expanded), nil
	}
	if id == "" {
		return nil, domain.ErrMissingCustomer
	}
	cus, err := b.memo.Customer(b.customers, id)
	if err != nil {
		return nil, fmt.Errorf("customer %s: %w", id, err)
	}
	if cus == nil {
		return nil, fmt.Errorf("%w: %s", domain.ErrMissingCustomer, id)
	}
	return cus, nil
}

// profile classifies once per key; advisories are reported on first computation only.
func (b *RevenueBuilder) profile(key string, diags *domain.Diagnostics, classify func() (domain.TaxProfile, []domain.Diagnostic)) domain.TaxProfile {
	c, cached, _ := b.memo.profiles.GetOrCompute(key, func() (classification, error) {
		profile, found := classify()
		return classification{profile: profile, diags: found}, nil
	})
	if !cached {
		diags.Add(c.diags...)
	}
	return c.profile
}

// recognitionPeriod prefers a structured non-degenerate period, then a period
// named in text, and finally the reference instant.
func (b *RevenueBuilder) recognitionPeriod(structured *domain.Period, text string, reference time.Time, sourceID string, diags *domain.Diagnostics) domain.Period {
	if structured != nil && !structured.IsInstant() && structured.Valid() {
		return structured.In(b.loc)
	}

	if p, ok := b.extractor.Extract(text, &reference, b.loc); ok {
		return p.In(b.loc)
	}

	code := domain.CodeMissingPeriod
	if b.extractor.Mentions(text) {
		code = domain.CodeExtractionAmbiguous
	}
	diags.Add(domain.Advisory(code, sourceID, "unknown period for line item %q", text))

	return domain.InstantPeriod(reference)
}
