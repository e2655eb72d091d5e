package core

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// ErrNothingToExport is returned when an export is requested for an empty
// expense collection; the caller must surface it instead of producing an
// empty file.
var ErrNothingToExport = errors.New("nothing to export")

var exportHeader = []string{"Date", "Description", "Category", "Amount", "Notes"}

// EncodeCSV serializes expenses to a CSV document with a header row.
// Dates are yyyy-MM-dd, amounts carry exactly two decimals, and text
// fields are always double-quoted with embedded quotes doubled.
func EncodeCSV(expenses []Expense) ([]byte, error) {
	if len(expenses) == 0 {
		return nil, ErrNothingToExport
	}

	var b strings.Builder
	b.WriteString(strings.Join(exportHeader, ","))
	for _, e := range expenses {
		b.WriteByte('\n')
		b.WriteString(strings.Join([]string{
			e.Date.Key(),
			quoteField(e.Description),
			quoteField(e.CategoryName()),
			e.Amount.Format(),
			quoteField(e.Notes),
		}, ","))
	}
	return []byte(b.String()), nil
}

// quoteField wraps s in double quotes, doubling any embedded quote so the
// row stays parseable when descriptions contain commas or quotes.
func quoteField(s string) string {
	return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
}

// ExportFilename names the downloadable artifact for the month of t,
// e.g. "expenses_2024-03.csv".
func ExportFilename(t time.Time) string {
	return fmt.Sprintf("expenses_%04d-%02d.csv", t.Year(), int(t.Month()))
}
