package usecase

import (
	"github.com/shopspring/decimal"

	"github.com/iho/stripe-datev/internal/domain"
)

// TaxInput carries the signals the tax treatment of a customer is derived from.
type TaxInput struct {
	CustomerID string
	DocumentID string
	Country    string
	TaxExempt  domain.TaxExemptStatus
	// TaxAmount is nil when the document carries no tax information at all.
	TaxAmount *decimal.Decimal
	VATID     string
	// Invoiced is set when the signals come from an invoice, which enables
	// the document consistency advisories.
	Invoiced bool
}

func (in TaxInput) hasTax() bool {
	return in.TaxAmount != nil && !in.TaxAmount.IsZero()
}

// TaxClassifier derives revenue accounts and tax keys for customers.
type TaxClassifier struct {
	accounts domain.ChartOfAccounts
}

// NewTaxClassifier creates a new TaxClassifier.
func NewTaxClassifier(accounts domain.ChartOfAccounts) *TaxClassifier {
	return &TaxClassifier{accounts: accounts}
}

// Classify runs the tax decision tree.
func (c *TaxClassifier) Classify(in TaxInput) (domain.TaxProfile, []domain.Diagnostic) {
	var diags []domain.Diagnostic

	profile := domain.TaxProfile{
		Country:         in.Country,
		VATRegion:       domain.VATRegionWorld,
		TaxExempt:       in.TaxExempt,
		VATID:           in.VATID,
		CustomerAccount: c.accounts.CollectiveDebtor,
	}

	if in.Country == "" {
		diags = append(diags, domain.Advisory(domain.CodeMissingAddress, in.CustomerID,
			"customer has neither billing nor shipping address"))
	}

	if in.Country == "DE" {
		if in.Invoiced && !in.hasTax() {
			diags = append(diags, domain.Advisory(domain.CodeMissingDomesticTax, in.DocumentID,
				"no tax on invoice of DE customer %s", in.CustomerID))
		}
		if in.TaxExempt != domain.TaxExemptNone {
			diags = append(diags, domain.Advisory(domain.CodeDomesticTaxExempt, in.CustomerID,
				"DE customer tax status is %q", in.TaxExempt))
		}
		profile.VATRegion = domain.VATRegionDE
		profile.RevenueAccount = c.accounts.RevenueGermanVAT
		profile.TaxKey = c.accounts.TaxKeyGermany
		return profile, diags
	}

	if domain.IsEUCountry(in.Country) {
		profile.VATRegion = domain.VATRegionEU
	}

	switch {
	case in.TaxExempt == domain.TaxExemptReverse || in.TaxExempt == domain.TaxExemptExempt || !in.hasTax():
		if in.Invoiced {
			switch in.TaxExempt {
			case domain.TaxExemptExempt:
				diags = append(diags, domain.Advisory(domain.CodeExemptAsReverse, in.CustomerID,
					"tax exempt customer, treating like reverse"))
				profile.TaxExempt = domain.TaxExemptReverse
			case domain.TaxExemptNone:
				diags = append(diags, domain.Advisory(domain.CodeUntaxedAsReverse, in.CustomerID,
					"taxable customer without tax on invoice %s, treating like reverse", in.DocumentID))
				profile.TaxExempt = domain.TaxExemptReverse
			}
			if in.hasTax() {
				diags = append(diags, domain.Advisory(domain.CodeTaxOnReverseCharge, in.DocumentID,
					"tax on invoice of reverse charge customer %s", in.CustomerID))
			}
			if profile.VATRegion == domain.VATRegionEU && in.VATID == "" {
				diags = append(diags, domain.Advisory(domain.CodeMissingVATID, in.CustomerID,
					"EU reverse charge customer without VAT ID"))
			}
		}

		if profile.VATRegion == domain.VATRegionEU && in.VATID != "" {
			profile.RevenueAccount = c.accounts.RevenueReverseChargeEU
		} else {
			profile.RevenueAccount = c.accounts.RevenueReverseChargeWorld
		}
		profile.TaxKey = c.accounts.TaxKeyReverse
		return profile, diags

	case in.TaxExempt == domain.TaxExemptNone:
		// below the distance selling threshold, booked like domestic revenue

	default:
		diags = append(diags, domain.Advisory(domain.CodeUnknownTaxStatus, in.CustomerID,
			"unknown tax status %q", in.TaxExempt))
	}

	profile.RevenueAccount = c.accounts.RevenueGermanVAT
	return profile, diags
}

// ClassifyCustomer classifies a customer without a document.
func (c *TaxClassifier) ClassifyCustomer(cus *domain.Customer) (domain.TaxProfile, []domain.Diagnostic) {
	return c.Classify(TaxInput{
		CustomerID: cus.ID,
		Country:    CustomerCountry(cus),
		TaxExempt:  cus.TaxExempt,
		VATID:      CustomerVATID(cus),
	})
}

// ClassifyInvoice classifies a customer in the context of one of its invoices.
func (c *TaxClassifier) ClassifyInvoice(cus *domain.Customer, inv *domain.Invoice) (domain.TaxProfile, []domain.Diagnostic) {
	return c.Classify(TaxInput{
		CustomerID: cus.ID,
		DocumentID: inv.ID,
		Country:    CustomerCountry(cus),
		TaxExempt:  EffectiveTaxExempt(cus, inv),
		TaxAmount:  inv.Tax,
		VATID:      CustomerVATID(cus),
		Invoiced:   true,
	})
}

// ClassifyCheckout classifies a customer paying through a checkout session.
func (c *TaxClassifier) ClassifyCheckout(cus *domain.Customer, chargeID string, session *domain.CheckoutSession) (domain.TaxProfile, []domain.Diagnostic) {
	in := TaxInput{
		CustomerID: cus.ID,
		DocumentID: chargeID,
		Country:    CustomerCountry(cus),
		TaxExempt:  cus.TaxExempt,
		VATID:      CustomerVATID(cus),
	}
	if session != nil {
		in.TaxAmount = session.AmountTax
	}
	return c.Classify(in)
}

// CustomerCountry returns the billing country, falling back to the shipping address.
func CustomerCountry(cus *domain.Customer) string {
	if cus.Address != nil && cus.Address.Country != "" {
		return cus.Address.Country
	}
	if cus.ShippingAddress != nil {
		return cus.ShippingAddress.Country
	}
	return ""
}

// CustomerVATID returns the first verified EU VAT id of the customer.
func CustomerVATID(cus *domain.Customer) string {
	for _, id := range cus.TaxIDs {
		if id.Type == "eu_vat" && id.Verified {
			return id.Value
		}
	}
	return ""
}

// EffectiveTaxExempt prefers the status frozen on the invoice unless tax was computed automatically.
func EffectiveTaxExempt(cus *domain.Customer, inv *domain.Invoice) domain.TaxExemptStatus {
	if inv != nil && inv.CustomerTaxExempt != nil && !inv.AutomaticTax {
		return *inv.CustomerTaxExempt
	}
	return cus.TaxExempt
}
