// Package datev writes ledger records in the DATEV EXTF import format.
package datev

import (
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"

	"github.com/iho/stripe-datev/internal/domain"
)

const (
	formatVersion   = "700"
	categoryBooking = "21"
	categoryAccount = "16"
	origin          = "BH"
	accountLength   = "4"
)

// Client identifies the tax advisor and client the files are addressed to.
type Client struct {
	BeraterNr   string
	MandantenNr string
}

// Options narrow and label a booking file.
type Options struct {
	// From and To bound the records written, both inclusive. Zero means unbounded.
	From        time.Time
	To          time.Time
	Description string
}

// Writer renders DATEV files.
type Writer struct {
	client Client
	loc    *time.Location
	now    func() time.Time
}

// NewWriter creates a Writer that formats dates in loc.
func NewWriter(client Client, loc *time.Location) *Writer {
	if loc == nil {
		loc = time.UTC
	}
	return &Writer{client: client, loc: loc, now: time.Now}
}

// WithClock replaces the clock used for the creation timestamp.
func (w *Writer) WithClock(now func() time.Time) *Writer {
	w.now = now
	return w
}

// WriteRecords writes records as a Buchungsstapel and returns the number of
// records written. Nothing is written when no record passes the filter.
// Records of more than one calendar year are rejected before any output.
func (w *Writer) WriteRecords(out io.Writer, records []domain.Record, opts Options) (int, error) {
	records = Filter(records, opts.From, opts.To)
	if len(records) == 0 {
		return 0, nil
	}

	if years := w.years(records); len(years) > 1 {
		return 0, fmt.Errorf("%w: %s", domain.ErrMultiYearBatch, strings.Join(years, ", "))
	}

	minTime, maxTime := opts.From, opts.To
	if minTime.IsZero() || maxTime.IsZero() {
		lo, hi := dateRange(records)
		if minTime.IsZero() {
			minTime = lo
		}
		if maxTime.IsZero() {
			maxTime = hi
		}
	}
	minTime, maxTime = minTime.In(w.loc), maxTime.In(w.loc)

	description := ""
	if opts.Description != "" {
		description = quote(opts.Description)
	}

	var b strings.Builder
	writeLine(&b, []string{
		quote("EXTF"),
		formatVersion,
		categoryBooking,
		"Buchungsstapel",
		"5",
		w.now().In(w.loc).Format("20060102150405"),
		"",
		origin,
		"",
		"",
		w.client.BeraterNr,
		w.client.MandantenNr,
		minTime.Format("2006") + "0101",
		accountLength,
		minTime.Format("20060102"),
		maxTime.Format("20060102"),
		description,
		"",
		"1",
		"0",
		"0",
	})
	writeLine(&b, bookingFields)

	for _, r := range records {
		values := w.bookingValues(r)
		row := make([]string, len(bookingFields))
		for i, f := range bookingFields {
			row[i] = values[f]
		}
		writeLine(&b, row)
	}

	if err := encode(out, b.String()); err != nil {
		return 0, err
	}
	return len(records), nil
}

func (w *Writer) bookingValues(r domain.Record) map[string]string {
	return map[string]string{
		"Umsatz (ohne Soll/Haben-Kz)":    domain.FormatAmount(r.Amount),
		"Soll/Haben-Kennzeichen":         string(r.Side),
		"WKZ Umsatz":                     r.Currency,
		"Konto":                          r.Account,
		"Gegenkonto (ohne BU-Schlüssel)": r.CounterAccount,
		"BU-Schlüssel":                   r.TaxKey,
		"Belegdatum":                     r.Date.In(w.loc).Format("0201"),
		"Belegfeld 1":                    r.DocumentRef,
		"Buchungstext":                   quote(domain.TruncateText(r.Text, domain.MaxRecordText)),
		"EU-Land u. UStID":               r.EUVATID,
	}
}

func (w *Writer) years(records []domain.Record) []string {
	seen := make(map[string]bool)
	var years []string
	for _, r := range records {
		y := r.Date.In(w.loc).Format("2006")
		if !seen[y] {
			seen[y] = true
			years = append(years, y)
		}
	}
	sort.Strings(years)
	return years
}

// Account is one row of a Debitoren/Kreditoren file.
type Account struct {
	Number  string
	Name    string
	VATID   string
	Address *domain.Address
	Email   string
}

// WriteAccounts writes personal accounts as a Debitoren/Kreditoren file.
func (w *Writer) WriteAccounts(out io.Writer, accounts []Account) error {
	var b strings.Builder
	writeLine(&b, []string{
		quote("EXTF"),
		formatVersion,
		categoryAccount,
		"Debitoren/Kreditoren",
		"5",
		w.now().In(w.loc).Format("20060102150405"),
		"",
		origin,
		"",
		"",
		w.client.BeraterNr,
		w.client.MandantenNr,
		w.now().In(w.loc).Format("2006") + "0101",
		accountLength,
		"",
		"",
		"",
		"",
		"0",
		"0",
		"0",
	})
	writeLine(&b, accountFields)

	for _, a := range accounts {
		values := map[string]string{
			"Konto":                          a.Number,
			"Name (Adressattyp Unternehmen)": a.Name,
			"Adressattyp":                    "2",
			"E-Mail":                         a.Email,
		}
		if len(a.VATID) > 2 {
			values["EU-Land"] = a.VATID[:2]
			values["EU-UStID"] = a.VATID[2:]
		}
		if a.Address != nil {
			values["Straße"] = a.Address.Line1
			values["Adresszusatz"] = a.Address.Line2
			values["Postleitzahl"] = a.Address.PostalCode
			values["Ort"] = a.Address.City
			values["Land"] = a.Address.Country
		}

		row := make([]string, len(accountFields))
		for i, f := range accountFields {
			// the format repeats "Leerfeld"; only named fields carry values
			row[i] = values[f]
		}
		writeLine(&b, row)
	}

	return encode(out, b.String())
}

// Filter returns the records dated within [from, to]. Zero bounds are open.
func Filter(records []domain.Record, from, to time.Time) []domain.Record {
	if from.IsZero() && to.IsZero() {
		return records
	}
	out := make([]domain.Record, 0, len(records))
	for _, r := range records {
		if !from.IsZero() && r.Date.Before(from) {
			continue
		}
		if !to.IsZero() && r.Date.After(to) {
			continue
		}
		out = append(out, r)
	}
	return out
}

func dateRange(records []domain.Record) (time.Time, time.Time) {
	lo, hi := records[0].Date, records[0].Date
	for _, r := range records[1:] {
		if r.Date.Before(lo) {
			lo = r.Date
		}
		if r.Date.After(hi) {
			hi = r.Date
		}
	}
	return lo, hi
}

func quote(s string) string {
	return `"` + s + `"`
}

func writeLine(b *strings.Builder, values []string) {
	b.WriteString(strings.Join(values, ";"))
	b.WriteByte('\n')
}

// encode writes s as ISO 8859-1, replacing characters it cannot represent.
func encode(out io.Writer, s string) error {
	enc := encoding.ReplaceUnsupported(charmap.ISO8859_1.NewEncoder())
	latin1, err := enc.String(s)
	if err != nil {
		return fmt.Errorf("encode latin-1: %w", err)
	}
	if _, err := io.WriteString(out, latin1); err != nil {
		return fmt.Errorf("write datev file: %w", err)
	}
	return nil
}
