package usecase

const (
	// FirstAccountNumber is assigned when no customer has a personal account yet.
	FirstAccountNumber = 10100

	// InvoiceReferenceMarker in a charge description means the charge settles an invoice.
	InvoiceReferenceMarker = "in_"

	// PrepaidThresholdDays separates prepaid from pay-per-use revenue in recognition reports.
	PrepaidThresholdDays = 1

	// DefaultArchiveLimit is the page size for archive listings.
	DefaultArchiveLimit = 50
)

// Metadata keys cleared when an account number is assigned.
var legacyCustomerMetadata = []string{
	"subscribedNetPrice",
	"subscribedProduct",
	"subscribedProductName",
	"subscribedTaxRate",
	"subscribedTotal",
}
