package domain

// ChartOfAccounts maps accounting roles to ledger accounts and tax keys.
type ChartOfAccounts struct {
	Bank                      string
	Fees                      string
	PRAP                      string
	RevenueReverseChargeEU    string
	RevenueReverseChargeWorld string
	RevenueGermanVAT          string
	CollectiveDebtor          string
	Transit                   string
	Contributions             string
	ExternalServices          string
	TaxKeyGermany             string
	TaxKeyReverse             string
}

// DeferralEnabled reports whether a prepaid-revenue clearing account is configured.
func (c ChartOfAccounts) DeferralEnabled() bool {
	return c.PRAP != ""
}
