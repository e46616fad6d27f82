// Package export renders invoices as CSV or XLSX spreadsheets.
package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/zuma-group/bill-integration-platform/internal/domain"
)

// UTF-8 BOM bytes for Excel compatibility on Windows.
var BOM = []byte{0xEF, 0xBB, 0xBF}

// columns defines the header row shared by every export format.
var columns = []string{
	"Invoice ID",
	"Invoice Number",
	"Status",
	"Invoice Date",
	"Due Date",
	"Customer PO Number",
	"Vendor Name",
	"Vendor Tax ID",
	"Customer Name",
	"Subtotal",
	"Tax Type",
	"Tax Amount",
	"Total",
	"Currency",
	"Payment Terms",
	"Line Item Count",
	"Pages",
	"Task ID",
	"Extracted At",
	"Synced At",
	"Created At",
}

// Writer wraps csv.Writer for exporting invoices as CSV.
type Writer struct {
	csv *csv.Writer
}

// NewWriter creates a Writer that writes CSV to w.
func NewWriter(w io.Writer) *Writer {
	return &Writer{csv: csv.NewWriter(w)}
}

// WriteHeader writes the header row.
func (w *Writer) WriteHeader() error {
	return w.csv.Write(columns)
}

// WriteInvoices converts a batch of invoices to rows and writes them.
func (w *Writer) WriteInvoices(invoices []domain.Invoice) error {
	for i := range invoices {
		if err := w.csv.Write(invoiceToRow(&invoices[i])); err != nil {
			return err
		}
	}
	return nil
}

// Flush flushes the underlying csv.Writer buffer.
func (w *Writer) Flush() {
	w.csv.Flush()
}

// Error returns any error from the underlying csv.Writer.
func (w *Writer) Error() error {
	return w.csv.Error()
}

func invoiceToRow(inv *domain.Invoice) []string {
	row := make([]string, len(columns))
	row[0] = inv.ID.String()
	row[1] = inv.InvoiceNumber
	row[2] = string(inv.Status)
	row[3] = inv.InvoiceDate
	row[4] = inv.DueDate
	row[5] = inv.CustomerPONumber
	row[6] = inv.Vendor.Name
	row[7] = inv.Vendor.TaxID
	row[8] = inv.Customer.Name
	row[9] = formatMoney(inv.Subtotal)
	row[10] = inv.TaxType
	row[11] = formatMoney(inv.TaxAmount)
	row[12] = formatMoney(inv.Total)
	row[13] = inv.Currency
	row[14] = inv.PaymentTerms
	row[15] = strconv.Itoa(len(inv.LineItems))
	row[16] = formatPages(inv)
	row[17] = inv.TaskID
	row[18] = formatTime(inv.ExtractedAt)
	row[19] = formatTime(inv.SyncedAt)
	if !inv.CreatedAt.IsZero() {
		row[20] = inv.CreatedAt.Format(time.RFC3339)
	}
	return row
}

func formatMoney(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}

func formatPages(inv *domain.Invoice) string {
	pages := inv.PageNumbers
	if len(pages) == 0 && inv.PageNumber > 0 {
		pages = []int{inv.PageNumber}
	}
	parts := make([]string, len(pages))
	for i, p := range pages {
		parts[i] = strconv.Itoa(p)
	}
	return strings.Join(parts, ",")
}

func formatTime(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Format(time.RFC3339)
}

// nonAlphanumeric matches characters that are not alphanumeric, hyphen, or underscore.
var nonAlphanumeric = regexp.MustCompile(`[^a-zA-Z0-9_-]+`)

// multiUnderscore matches consecutive underscores.
var multiUnderscore = regexp.MustCompile(`_{2,}`)

// SanitizeFilename cleans a name for use in Content-Disposition.
// Replaces non-alphanumeric chars (except - _) with _, collapses consecutive
// underscores, and truncates to 100 chars.
func SanitizeFilename(name string) string {
	s := nonAlphanumeric.ReplaceAllString(name, "_")
	s = multiUnderscore.ReplaceAllString(s, "_")
	s = strings.Trim(s, "_")
	if len(s) > 100 {
		s = s[:100]
	}
	return s
}

// BuildFilename returns {sanitized base}_{YYYY-MM-DD}.{ext}.
func BuildFilename(base, ext string, now time.Time) string {
	return fmt.Sprintf("%s_%s.%s", SanitizeFilename(base), now.Format("2006-01-02"), ext)
}
