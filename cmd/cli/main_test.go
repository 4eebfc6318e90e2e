package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/iho/stripe-datev/internal/domain"
	"github.com/iho/stripe-datev/internal/usecase"
)

func berlin(t *testing.T) *time.Location {
	t.Helper()
	loc, err := time.LoadLocation("Europe/Berlin")
	if err != nil {
		t.Fatalf("load location: %v", err)
	}
	return loc
}

func TestExportWindow(t *testing.T) {
	loc := berlin(t)

	w, err := exportWindow(2021, 3, loc)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !w.From.Equal(time.Date(2021, 3, 1, 0, 0, 0, 0, loc)) || !w.To.Equal(time.Date(2021, 4, 1, 0, 0, 0, 0, loc)) {
		t.Fatalf("unexpected month window: %v - %v", w.From, w.To)
	}
	if got := w.To.Sub(w.From); got != 31*24*time.Hour-time.Hour {
		t.Fatalf("expected March to lose an hour to DST, got %v", got)
	}

	w, err = exportWindow(2021, 0, loc)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !w.To.Equal(time.Date(2022, 1, 1, 0, 0, 0, 0, loc)) {
		t.Fatalf("expected whole year window, got %v - %v", w.From, w.To)
	}

	for _, tc := range [][2]int{{2021, 13}, {2021, -1}, {1969, 1}} {
		if _, err := exportWindow(tc[0], tc[1], loc); err == nil {
			t.Fatalf("expected error for %v", tc)
		}
	}
}

func TestOverviewLabel(t *testing.T) {
	loc := berlin(t)

	month, _ := exportWindow(2021, 5, loc)
	if got := overviewLabel(month); got != "2021-05" {
		t.Fatalf("expected 2021-05, got %s", got)
	}

	year, _ := exportWindow(2021, 0, loc)
	if got := overviewLabel(year); got != "2021-00" {
		t.Fatalf("expected 2021-00, got %s", got)
	}
}

func TestOposReference(t *testing.T) {
	loc := berlin(t)
	now := time.Date(2021, 6, 15, 10, 0, 0, 0, time.UTC)

	ref, openOnly, err := oposReference(nil, now, loc)
	if err != nil || !openOnly || !ref.Equal(now) {
		t.Fatalf("expected now with open only, got %v %v %v", ref, openOnly, err)
	}

	ref, openOnly, err = oposReference([]string{"2021", "5", "31"}, now, loc)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if openOnly {
		t.Fatal("a past reference day must consider all invoices")
	}
	if want := time.Date(2021, 5, 31, 23, 59, 59, 0, loc); !ref.Equal(want) {
		t.Fatalf("expected %v, got %v", want, ref)
	}

	if _, _, err := oposReference([]string{"2021", "2", "30"}, now, loc); err == nil {
		t.Fatal("expected error for a day that does not exist")
	}
	if _, _, err := oposReference([]string{"2021", "may", "1"}, now, loc); err == nil {
		t.Fatal("expected error for a non-numeric month")
	}
}

func TestPrintOpenItems(t *testing.T) {
	loc := berlin(t)
	report := &usecase.OpenItemsReport{
		Ref: time.Date(2021, 5, 31, 21, 59, 59, 0, time.UTC),
		Items: []usecase.OpenItem{{
			InvoiceID:   "in_1",
			Number:      "RE-1",
			Total:       decimal.RequireFromString("119"),
			Email:       "billing@example.com",
			DueDate:     time.Date(2021, 5, 20, 0, 0, 0, 0, time.UTC),
			OverdueDays: 11,
		}},
		Total: decimal.RequireFromString("119"),
	}

	var buf bytes.Buffer
	printOpenItems(&buf, report, loc)

	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	if len(lines) != 3 {
		t.Fatalf("expected 3 lines, got %q", buf.String())
	}
	if !strings.HasPrefix(lines[0], "Unpaid invoices as of 2021-05-31T23:59:59+02:00") {
		t.Fatalf("unexpected header: %q", lines[0])
	}
	if !strings.Contains(lines[1], "RE-1") || !strings.Contains(lines[1], "119.00 EUR") || !strings.Contains(lines[1], "(11 overdue)") {
		t.Fatalf("unexpected item line: %q", lines[1])
	}
	if lines[2] != "TOTAL             119.00 EUR" {
		t.Fatalf("unexpected total line: %q", lines[2])
	}
}

func TestPrintPlan(t *testing.T) {
	plan := &usecase.AccountPlan{
		Highest: 10104,
		Assignments: []usecase.AccountAssignment{
			{CustomerID: "cus_old", AccountNumber: "10105"},
			{CustomerID: "cus_new", AccountNumber: "10106"},
		},
	}

	var buf bytes.Buffer
	printPlan(&buf, plan, false)
	out := buf.String()
	if !strings.HasPrefix(out, "2 customers without account number, highest number is 10104\n") {
		t.Fatalf("unexpected summary: %q", out)
	}
	if !strings.Contains(out, "cus_old 10105\ncus_new 10106\n") || !strings.Contains(out, "--apply") {
		t.Fatalf("unexpected plan output: %q", out)
	}

	buf.Reset()
	printPlan(&buf, plan, true)
	if strings.Contains(buf.String(), "--apply") {
		t.Fatalf("applied plan should not mention dry run: %q", buf.String())
	}
}

func TestToDatevAccounts(t *testing.T) {
	customers := []domain.Customer{
		{
			ID:       "cus_1",
			Name:     "Muster GmbH",
			Email:    "a@example.com",
			Metadata: map[string]string{domain.MetadataAccountNumber: "10100"},
			TaxIDs:   []domain.TaxID{{Type: "eu_vat", Value: "DE123456789", Verified: true}},
		},
		{ID: "cus_2", Name: "Without Number"},
		{ID: "cus_3", Deleted: true, Metadata: map[string]string{domain.MetadataAccountNumber: "10101"}},
	}

	accounts := toDatevAccounts(customers)
	if len(accounts) != 1 {
		t.Fatalf("expected 1 account, got %+v", accounts)
	}
	if accounts[0].Number != "10100" || accounts[0].Name != "Muster GmbH" || accounts[0].VATID != "DE123456789" {
		t.Fatalf("unexpected account: %+v", accounts[0])
	}
}

func TestLogDiagnostics(t *testing.T) {
	var buf bytes.Buffer
	logDiagnostics(zerolog.New(&buf), []domain.Diagnostic{
		domain.Advisory(domain.CodeMissingVATID, "in_1", "no vat id"),
	})

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("expected JSON log line, got %q", buf.String())
	}
	if entry["level"] != "warn" || entry["code"] != "MissingVATID" || entry["source_id"] != "in_1" {
		t.Fatalf("unexpected log entry: %+v", entry)
	}
}

func TestWriteCSVFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "overview", "overview-2021-05.csv")

	if err := writeCSVFile(path, [][]string{{"a", "b"}, {"1", "2"}}); err != nil {
		t.Fatalf("write failed: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read failed: %v", err)
	}
	if !strings.Contains(string(data), "1") {
		t.Fatalf("unexpected content: %q", data)
	}
}

func TestRootCmdRejectsBadArguments(t *testing.T) {
	tests := [][]string{
		{"download", "2021"},
		{"download", "2021", "may"},
		{"opos", "2021"},
		{"list-accounts", "a.csv", "b.csv"},
		{"unknown"},
	}

	for _, args := range tests {
		t.Run(strings.Join(args, " "), func(t *testing.T) {
			cmd := newRootCmd()
			cmd.SetArgs(args)
			cmd.SetOut(&bytes.Buffer{})
			cmd.SetErr(&bytes.Buffer{})
			if err := cmd.Execute(); err == nil {
				t.Fatalf("expected %v to fail", args)
			}
		})
	}
}
