// Package report renders revenue items as spreadsheet-friendly CSV reports.
package report

import (
	"fmt"
	"io"
	"strings"
)

const separator = ";"

var fieldEscaper = strings.NewReplacer(
	"\r\n", " ",
	"\r", " ",
	"\n", " ",
	separator, ":",
	".", ",",
)

// EscapeField makes a value safe for a semicolon separated, decimal comma sheet.
func EscapeField(s string) string {
	return fieldEscaper.Replace(s)
}

// WriteCSV writes rows with a leading separator hint line.
func WriteCSV(w io.Writer, rows [][]string) error {
	var b strings.Builder
	b.WriteString("sep=" + separator + "\n")
	for i, row := range rows {
		if i > 0 {
			b.WriteByte('\n')
		}
		for j, f := range row {
			if j > 0 {
				b.WriteString(separator)
			}
			b.WriteString(EscapeField(f))
		}
	}
	if _, err := io.WriteString(w, b.String()); err != nil {
		return fmt.Errorf("write csv: %w", err)
	}
	return nil
}
