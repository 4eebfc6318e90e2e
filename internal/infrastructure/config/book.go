package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/iho/stripe-datev/internal/domain"
)

var ErrInvalidBook = errors.New("invalid bookkeeping config")

// Book is the bookkeeping configuration: company, DATEV client and chart of accounts.
type Book struct {
	Company  Company  `toml:"company"`
	Datev    Datev    `toml:"datev"`
	Accounts Accounts `toml:"accounts"`
}

// Company holds company-wide settings.
type Company struct {
	Timezone string `toml:"timezone"`
}

// Datev holds the DATEV consultant and client numbers.
type Datev struct {
	BeraterNr   string `toml:"berater_nr"`
	MandantenNr string `toml:"mandanten_nr"`
	// LegacyMandantenNr is the misspelled key older config files carry.
	LegacyMandantenNr string `toml:"mandenten_nr"`
}

// Client returns the DATEV client number.
func (d Datev) Client() string {
	if d.MandantenNr != "" {
		return d.MandantenNr
	}
	return d.LegacyMandantenNr
}

// Accounts is the chart of accounts as written in the config file.
type Accounts struct {
	Bank                      string `toml:"bank"`
	StripeFees                string `toml:"stripe_fees"`
	PRAP                      string `toml:"prap"`
	RevenueReverseChargeEU    string `toml:"revenue_reverse_charge_eu"`
	AccountReverseChargeWorld string `toml:"account_reverse_charge_world"`
	RevenueGermanVAT          string `toml:"revenue_german_vat"`
	SammelDebitor             string `toml:"sammel_debitor"`
	Transit                   string `toml:"transit"`
	Contributions             string `toml:"contributions"`
	ExternalServices          string `toml:"external_services"`
	DatevTaxKeyGermany        string `toml:"datev_tax_key_germany"`
	DatevTaxKeyReverse        string `toml:"datev_tax_key_reverse"`
}

// LoadBook reads and validates a bookkeeping config file.
func LoadBook(path string) (*Book, error) {
	var book Book
	if _, err := toml.DecodeFile(path, &book); err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	if err := book.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return &book, nil
}

// ParseBook decodes a bookkeeping config from TOML text.
func ParseBook(data string) (*Book, error) {
	var book Book
	if _, err := toml.Decode(data, &book); err != nil {
		return nil, fmt.Errorf("decode book: %w", err)
	}
	if err := book.Validate(); err != nil {
		return nil, err
	}
	return &book, nil
}

// Validate checks that every required setting is present. The prepaid
// revenue account may be empty.
func (b *Book) Validate() error {
	if _, err := b.Location(); err != nil {
		return err
	}
	required := []struct{ key, value string }{
		{"datev.berater_nr", b.Datev.BeraterNr},
		{"datev.mandanten_nr", b.Datev.Client()},
		{"accounts.bank", b.Accounts.Bank},
		{"accounts.stripe_fees", b.Accounts.StripeFees},
		{"accounts.revenue_reverse_charge_eu", b.Accounts.RevenueReverseChargeEU},
		{"accounts.account_reverse_charge_world", b.Accounts.AccountReverseChargeWorld},
		{"accounts.revenue_german_vat", b.Accounts.RevenueGermanVAT},
		{"accounts.sammel_debitor", b.Accounts.SammelDebitor},
		{"accounts.transit", b.Accounts.Transit},
		{"accounts.contributions", b.Accounts.Contributions},
		{"accounts.external_services", b.Accounts.ExternalServices},
		{"accounts.datev_tax_key_germany", b.Accounts.DatevTaxKeyGermany},
		{"accounts.datev_tax_key_reverse", b.Accounts.DatevTaxKeyReverse},
	}
	var missing []error
	for _, r := range required {
		if r.value == "" {
			missing = append(missing, fmt.Errorf("%w: %s is not set", ErrInvalidBook, r.key))
		}
	}
	return errors.Join(missing...)
}

// Location returns the accounting time zone.
func (b *Book) Location() (*time.Location, error) {
	if b.Company.Timezone == "" {
		return nil, fmt.Errorf("%w: company.timezone is not set", ErrInvalidBook)
	}
	loc, err := time.LoadLocation(b.Company.Timezone)
	if err != nil {
		return nil, fmt.Errorf("%w: company.timezone: %v", ErrInvalidBook, err)
	}
	return loc, nil
}

// ChartOfAccounts converts the accounts section into the domain chart.
func (b *Book) ChartOfAccounts() domain.ChartOfAccounts {
	a := b.Accounts
	return domain.ChartOfAccounts{
		Bank:                      a.Bank,
		Fees:                      a.StripeFees,
		PRAP:                      a.PRAP,
		RevenueReverseChargeEU:    a.RevenueReverseChargeEU,
		RevenueReverseChargeWorld: a.AccountReverseChargeWorld,
		RevenueGermanVAT:          a.RevenueGermanVAT,
		CollectiveDebtor:          a.SammelDebitor,
		Transit:                   a.Transit,
		Contributions:             a.Contributions,
		ExternalServices:          a.ExternalServices,
		TaxKeyGermany:             a.DatevTaxKeyGermany,
		TaxKeyReverse:             a.DatevTaxKeyReverse,
	}
}
