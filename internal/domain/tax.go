package domain

// VATRegion is the VAT jurisdiction class of a customer.
type VATRegion string

const (
	VATRegionDE    VATRegion = "DE"
	VATRegionEU    VATRegion = "EU"
	VATRegionWorld VATRegion = "World"
)

// TaxExemptStatus is the tax exemption declared for a customer or document.
type TaxExemptStatus string

const (
	TaxExemptNone    TaxExemptStatus = "none"
	TaxExemptExempt  TaxExemptStatus = "exempt"
	TaxExemptReverse TaxExemptStatus = "reverse"
)

// Known reports whether the status is one of the recognized values.
func (s TaxExemptStatus) Known() bool {
	switch s {
	case TaxExemptNone, TaxExemptExempt, TaxExemptReverse:
		return true
	}
	return false
}

// Country codes treated as European Union member states.
var euCountries = map[string]bool{
	"AT": true, "BE": true, "BG": true, "CY": true, "CZ": true, "DE": true,
	"DK": true, "EE": true, "ES": true, "FI": true, "FR": true, "GR": true,
	"HR": true, "HU": true, "IE": true, "IT": true, "LT": true, "LU": true,
	"LV": true, "MT": true, "NL": true, "PL": true, "PT": true, "RO": true,
	"SE": true, "SI": true, "SK": true,
}

// IsEUCountry reports whether an ISO-3166 alpha-2 code is an EU member state.
func IsEUCountry(code string) bool {
	return euCountries[code]
}

// TaxProfile is the accounting treatment derived for a customer and document.
type TaxProfile struct {
	Country         string
	VATRegion       VATRegion
	TaxExempt       TaxExemptStatus
	VATID           string
	CustomerAccount string
	RevenueAccount  string
	TaxKey          string
}
