package domain

import (
	"fmt"
	"sync"
)

// Severity classifies a diagnostic.
type Severity string

const (
	SeverityAdvisory Severity = "advisory"
	SeverityFatal    Severity = "fatal"
)

// DiagnosticCode identifies the condition a diagnostic reports.
type DiagnosticCode string

const (
	CodeExtractionAmbiguous      DiagnosticCode = "ExtractionAmbiguous"
	CodeMissingPeriod            DiagnosticCode = "MissingPeriod"
	CodeUnknownTaxStatus         DiagnosticCode = "UnknownTaxStatus"
	CodeMissingDomesticTax       DiagnosticCode = "MissingDomesticTax"
	CodeDomesticTaxExempt        DiagnosticCode = "DomesticTaxExempt"
	CodeExemptAsReverse          DiagnosticCode = "ExemptTreatedAsReverse"
	CodeUntaxedAsReverse         DiagnosticCode = "UntaxedTreatedAsReverse"
	CodeTaxOnReverseCharge       DiagnosticCode = "TaxOnReverseCharge"
	CodeMissingVATID             DiagnosticCode = "MissingVATID"
	CodeIgnored                  DiagnosticCode = "Ignored"
	CodeFullyRefunded            DiagnosticCode = "FullyRefunded"
	CodeInvoiceReference         DiagnosticCode = "InvoiceReference"
	CodeLateReversal             DiagnosticCode = "LateReversal"
	CodeEarlierCreditNote        DiagnosticCode = "EarlierCreditNote"
	CodeArchiveMismatch          DiagnosticCode = "ArchiveMismatch"
	CodeMissingAddress           DiagnosticCode = "MissingAddress"
	CodeUnsupportedRefundPattern DiagnosticCode = "UnsupportedRefundPattern"
	CodeUnexpectedCurrency       DiagnosticCode = "UnexpectedCurrency"
	CodeUnexpectedFeeShape       DiagnosticCode = "UnexpectedFeeShape"
	CodeMultiYearBatch           DiagnosticCode = "MultiYearBatch"
)

// Diagnostic is a structured note produced while processing a batch.
type Diagnostic struct {
	Severity Severity
	Code     DiagnosticCode
	SourceID string
	Message  string
}

func (d Diagnostic) String() string {
	return fmt.Sprintf("%s %s [%s]: %s", d.Severity, d.Code, d.SourceID, d.Message)
}

// Advisory builds an advisory diagnostic.
func Advisory(code DiagnosticCode, sourceID, format string, args ...any) Diagnostic {
	return Diagnostic{
		Severity: SeverityAdvisory,
		Code:     code,
		SourceID: sourceID,
		Message:  fmt.Sprintf(format, args...),
	}
}

// Diagnostics collects diagnostics in the order they were raised.
type Diagnostics struct {
	mu    sync.Mutex
	items []Diagnostic
}

// Add appends diagnostics.
func (d *Diagnostics) Add(items ...Diagnostic) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.items = append(d.items, items...)
}

// Items returns a copy of the collected diagnostics.
func (d *Diagnostics) Items() []Diagnostic {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([]Diagnostic, len(d.items))
	copy(out, d.items)
	return out
}

// Len returns the number of collected diagnostics.
func (d *Diagnostics) Len() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.items)
}

// Count returns how many diagnostics carry code.
func (d *Diagnostics) Count(code DiagnosticCode) int {
	d.mu.Lock()
	defer d.mu.Unlock()
	n := 0
	for _, it := range d.items {
		if it.Code == code {
			n++
		}
	}
	return n
}
