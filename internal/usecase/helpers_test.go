package usecase_test

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/iho/stripe-datev/internal/domain"
)

var berlin = mustLoadLocation("Europe/Berlin")

func mustLoadLocation(name string) *time.Location {
	loc, err := time.LoadLocation(name)
	if err != nil {
		panic(err)
	}
	return loc
}

func testAccounts() domain.ChartOfAccounts {
	return domain.ChartOfAccounts{
		Bank:                      "1201",
		Fees:                      "4970",
		PRAP:                      "0990",
		RevenueReverseChargeEU:    "8336",
		RevenueReverseChargeWorld: "8338",
		RevenueGermanVAT:          "8400",
		CollectiveDebtor:          "10001",
		Transit:                   "1360",
		Contributions:             "6300",
		ExternalServices:          "5900",
		TaxKeyGermany:             "9",
		TaxKeyReverse:             "94",
	}
}

func money(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func moneyPtr(s string) *decimal.Decimal {
	d := money(s)
	return &d
}

func at(year int, month time.Month, day, hour, minute int) time.Time {
	return time.Date(year, month, day, hour, minute, 0, 0, berlin)
}

func timePtr(t time.Time) *time.Time {
	return &t
}

func customerDE() *domain.Customer {
	return &domain.Customer{
		ID:        "cus_de",
		Name:      "Muster GmbH",
		Email:     "billing@muster.de",
		Address:   &domain.Address{Country: "DE", City: "Berlin"},
		TaxExempt: domain.TaxExemptNone,
	}
}

func customerFR() *domain.Customer {
	return &domain.Customer{
		ID:        "cus_fr",
		Name:      "Exemple SARL",
		Address:   &domain.Address{Country: "FR", City: "Paris"},
		TaxExempt: domain.TaxExemptReverse,
		TaxIDs:    []domain.TaxID{{Type: "eu_vat", Value: "FR12345678901", Verified: true}},
	}
}

func customerUS() *domain.Customer {
	return &domain.Customer{
		ID:        "cus_us",
		Name:      "Example Inc",
		Address:   &domain.Address{Country: "US"},
		TaxExempt: domain.TaxExemptNone,
	}
}

func codes(diags []domain.Diagnostic) []domain.DiagnosticCode {
	out := make([]domain.DiagnosticCode, 0, len(diags))
	for _, d := range diags {
		out = append(out, d.Code)
	}
	return out
}

func moneyList(values ...string) []decimal.Decimal {
	out := make([]decimal.Decimal, 0, len(values))
	for _, v := range values {
		out = append(out, money(v))
	}
	return out
}
