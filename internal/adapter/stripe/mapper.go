package stripe

import (
	"reflect"
	"time"

	"github.com/shopspring/decimal"
	stripego "github.com/stripe/stripe-go/v81"

	"github.com/iho/stripe-datev/internal/domain"
)

// cents converts a minor unit amount into a decimal major unit amount.
func cents(v int64) decimal.Decimal {
	return domain.Cents(v)
}

func unix(ts int64) time.Time {
	return time.Unix(ts, 0).UTC()
}

// optionalUnix maps an unset timestamp (0) to nil.
func optionalUnix(ts int64) *time.Time {
	if ts == 0 {
		return nil
	}
	t := unix(ts)
	return &t
}

// enumValue reads a typed string enum whether Stripe models it as a value
// or as a nullable pointer.
func enumValue(v any) string {
	rv := reflect.ValueOf(v)
	for rv.Kind() == reflect.Pointer {
		if rv.IsNil() {
			return ""
		}
		rv = rv.Elem()
	}
	if rv.Kind() != reflect.String {
		return ""
	}
	return rv.String()
}

func mapAddress(a *stripego.Address) *domain.Address {
	if a == nil {
		return nil
	}
	return &domain.Address{
		Line1:      a.Line1,
		Line2:      a.Line2,
		PostalCode: a.PostalCode,
		City:       a.City,
		State:      a.State,
		Country:    a.Country,
	}
}

// MapCustomer converts a Stripe customer. Tax ids must be expanded to be carried over.
func MapCustomer(c *stripego.Customer) *domain.Customer {
	if c == nil {
		return nil
	}
	cus := &domain.Customer{
		ID:          c.ID,
		Name:        c.Name,
		Description: c.Description,
		Email:       c.Email,
		Deleted:     c.Deleted,
		Address:     mapAddress(c.Address),
		TaxExempt:   domain.TaxExemptStatus(enumValue(c.TaxExempt)),
		Metadata:    c.Metadata,
	}
	if c.Created != 0 {
		cus.Created = unix(c.Created)
	}
	if c.Shipping != nil {
		cus.ShippingAddress = mapAddress(c.Shipping.Address)
	}
	if c.TaxIDs != nil {
		for _, id := range c.TaxIDs.Data {
			cus.TaxIDs = append(cus.TaxIDs, domain.TaxID{
				Type:     string(id.Type),
				Value:    id.Value,
				Verified: id.Verification != nil && string(id.Verification.Status) == "verified",
			})
		}
	}
	return cus
}

// MapTaxRate converts a Stripe tax rate.
func MapTaxRate(r *stripego.TaxRate) *domain.TaxRate {
	return &domain.TaxRate{
		ID:         r.ID,
		Percentage: decimal.NewFromFloat(r.Percentage),
		Inclusive:  r.Inclusive,
		Country:    r.Country,
	}
}

// MapInvoice converts a Stripe invoice. The invoice tax is the sum of its
// tax amounts and stays nil when no tax rate applied.
func MapInvoice(inv *stripego.Invoice) domain.Invoice {
	out := domain.Invoice{
		ID:                           inv.ID,
		Number:                       inv.Number,
		Status:                       domain.InvoiceStatus(inv.Status),
		Currency:                     string(inv.Currency),
		Created:                      unix(inv.Created),
		DueDate:                      optionalUnix(inv.DueDate),
		Total:                        cents(inv.Total),
		PostPaymentCreditNotesAmount: cents(inv.PostPaymentCreditNotesAmount),
		Metadata:                     inv.Metadata,
	}

	if st := inv.StatusTransitions; st != nil {
		out.FinalizedAt = optionalUnix(st.FinalizedAt)
		out.PaidAt = optionalUnix(st.PaidAt)
		out.VoidedAt = optionalUnix(st.VoidedAt)
		out.MarkedUncollectibleAt = optionalUnix(st.MarkedUncollectibleAt)
	}

	if inv.Customer != nil {
		out.CustomerID = inv.Customer.ID
		if inv.Customer.Created != 0 || inv.Customer.Deleted {
			out.Customer = MapCustomer(inv.Customer)
		}
	}
	if exempt := enumValue(inv.CustomerTaxExempt); exempt != "" {
		status := domain.TaxExemptStatus(exempt)
		out.CustomerTaxExempt = &status
	}
	if inv.AutomaticTax != nil {
		out.AutomaticTax = inv.AutomaticTax.Enabled
	}
	if inv.Subscription != nil {
		out.SubscriptionID = inv.Subscription.ID
	}

	if len(inv.TotalTaxAmounts) > 0 {
		tax := decimal.Zero
		for _, ta := range inv.TotalTaxAmounts {
			amount := domain.TaxAmount{Amount: cents(ta.Amount), Inclusive: ta.Inclusive}
			if ta.TaxRate != nil {
				amount.TaxRateID = ta.TaxRate.ID
			}
			out.TotalTaxAmounts = append(out.TotalTaxAmounts, amount)
			tax = tax.Add(amount.Amount)
		}
		out.Tax = &tax
	}

	if inv.Lines != nil {
		for _, li := range inv.Lines.Data {
			line := domain.InvoiceLine{
				ID:          li.ID,
				Description: li.Description,
				Amount:      cents(li.Amount),
			}
			if li.Period != nil && (li.Period.Start != 0 || li.Period.End != 0) {
				line.Period = &domain.Period{Start: unix(li.Period.Start), End: unix(li.Period.End)}
			}
			for _, da := range li.DiscountAmounts {
				line.DiscountAmounts = append(line.DiscountAmounts, cents(da.Amount))
			}
			for _, ta := range li.TaxAmounts {
				amount := domain.TaxAmount{Amount: cents(ta.Amount), Inclusive: ta.Inclusive}
				if ta.TaxRate != nil {
					amount.TaxRateID = ta.TaxRate.ID
				}
				line.TaxAmounts = append(line.TaxAmounts, amount)
			}
			out.Lines = append(out.Lines, line)
		}
	}

	return out
}

// MapCreditNote converts a Stripe credit note. The credited invoice should be expanded.
func MapCreditNote(cn *stripego.CreditNote) domain.CreditNote {
	out := domain.CreditNote{
		ID:      cn.ID,
		Number:  cn.Number,
		Created: unix(cn.Created),
		Amount:  cents(cn.Amount),
	}
	if cn.Invoice != nil {
		out.InvoiceID = cn.Invoice.ID
		if cn.Invoice.StatusTransitions != nil {
			out.InvoiceFinalizedAt = optionalUnix(cn.Invoice.StatusTransitions.FinalizedAt)
		}
	}
	return out
}

// MapBalanceTransaction converts a Stripe balance transaction.
func MapBalanceTransaction(bt *stripego.BalanceTransaction) *domain.BalanceTransaction {
	if bt == nil {
		return nil
	}
	out := &domain.BalanceTransaction{
		ID:          bt.ID,
		Type:        string(bt.Type),
		Amount:      cents(bt.Amount),
		Currency:    string(bt.Currency),
		Created:     unix(bt.Created),
		Description: bt.Description,
	}
	for _, fd := range bt.FeeDetails {
		out.FeeDetails = append(out.FeeDetails, domain.FeeDetail{
			Amount:      cents(fd.Amount),
			Currency:    string(fd.Currency),
			Description: fd.Description,
			Type:        string(fd.Type),
		})
	}
	return out
}

// MapCheckoutSession converts a checkout session with expanded line items.
func MapCheckoutSession(s *stripego.CheckoutSession) *domain.CheckoutSession {
	if s == nil {
		return nil
	}
	out := &domain.CheckoutSession{ID: s.ID}
	if s.TotalDetails != nil {
		tax := cents(s.TotalDetails.AmountTax)
		out.AmountTax = &tax
	}
	if s.LineItems != nil {
		for _, li := range s.LineItems.Data {
			out.LineDescriptions = append(out.LineDescriptions, li.Description)
		}
	}
	return out
}

// MapCharge converts a Stripe charge. Customer, invoice, refunds and balance
// transaction are carried over when expanded.
func MapCharge(ch *stripego.Charge) domain.Charge {
	out := domain.Charge{
		ID:                   ch.ID,
		Created:              unix(ch.Created),
		Amount:               cents(ch.Amount),
		AmountRefunded:       cents(ch.AmountRefunded),
		ApplicationFeeAmount: cents(ch.ApplicationFeeAmount),
		Currency:             string(ch.Currency),
		Paid:                 ch.Paid,
		Captured:             ch.Captured,
		Refunded:             ch.Refunded,
		Description:          ch.Description,
		ReceiptNumber:        ch.ReceiptNumber,
		BalanceTransaction:   MapBalanceTransaction(ch.BalanceTransaction),
		Metadata:             ch.Metadata,
	}
	if ch.Customer != nil {
		out.CustomerID = ch.Customer.ID
		if ch.Customer.Created != 0 || ch.Customer.Deleted {
			out.Customer = MapCustomer(ch.Customer)
		}
	}
	if ch.Invoice != nil {
		out.InvoiceID = ch.Invoice.ID
		out.InvoiceNumber = ch.Invoice.Number
	}
	if ch.Refunds != nil {
		for _, r := range ch.Refunds.Data {
			out.Refunds = append(out.Refunds, domain.Refund{
				ID:      r.ID,
				Amount:  cents(r.Amount),
				Created: unix(r.Created),
			})
		}
	}
	return out
}

// MapPayout converts a paid payout. The balance transaction should be expanded.
func MapPayout(po *stripego.Payout) domain.Payout {
	out := domain.Payout{
		ID:          po.ID,
		Created:     unix(po.Created),
		ArrivalDate: unix(po.ArrivalDate),
		Amount:      cents(po.Amount),
		Currency:    string(po.Currency),
		Status:      string(po.Status),
		Description: po.Description,
	}
	if bt := MapBalanceTransaction(po.BalanceTransaction); bt != nil {
		out.FeeDetails = bt.FeeDetails
	}
	return out
}

// MapTransfer converts a transfer with expanded destination and source charge.
func MapTransfer(tr *stripego.Transfer) domain.Transfer {
	out := domain.Transfer{
		ID:          tr.ID,
		Created:     unix(tr.Created),
		Amount:      cents(tr.Amount),
		Currency:    string(tr.Currency),
		Reversed:    tr.Reversed,
		Description: tr.Description,
	}
	if tr.SourceTransaction != nil {
		src := MapCharge(tr.SourceTransaction)
		out.Source = &src
	}
	if tr.Destination != nil {
		out.Destination = &domain.ConnectedAccount{
			ID:       tr.Destination.ID,
			Metadata: tr.Destination.Metadata,
		}
	}
	return out
}
