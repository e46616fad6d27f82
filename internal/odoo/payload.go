// Package odoo builds accounting payloads from extracted invoices and
// delivers them to the Odoo webhook.
package odoo

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/zuma-group/bill-integration-platform/internal/datenorm"
	"github.com/zuma-group/bill-integration-platform/internal/domain"
	"github.com/zuma-group/bill-integration-platform/internal/reconcile"
)

// Payload formats accepted by config.OdooConfig.PayloadFormat.
const (
	FormatStandard = "standard"
	FormatBill     = "bill"
)

// Attachment is a document the accounting system fetches by URL.
type Attachment struct {
	Filename string `json:"filename"`
	URL      string `json:"url"`
}

// Line is one reconciled invoice line in the accounting system's shape.
type Line struct {
	ProductCode string  `json:"product_code"`
	Description string  `json:"description"`
	Quantity    float64 `json:"quantity"`
	UnitPrice   float64 `json:"unit_price"`
	Discount    float64 `json:"discount"`
	Taxes       []any   `json:"taxes"`
	Subtotal    float64 `json:"subtotal"`
}

// StandardInvoice mirrors the extracted invoice with reconciled money
// fields and normalised dates.
type StandardInvoice struct {
	InvoiceNumber    string               `json:"invoiceNumber"`
	CustomerPONumber string               `json:"customerPoNumber"`
	InvoiceDate      string               `json:"invoiceDate"`
	DueDate          string               `json:"dueDate"`
	Vendor           domain.Vendor        `json:"vendor"`
	Customer         domain.Customer      `json:"customer"`
	Lines            []Line               `json:"lines"`
	Taxes            []reconcile.TaxLine  `json:"taxes"`
	Subtotal         float64              `json:"subtotal"`
	TaxAmount        float64              `json:"taxAmount"`
	TaxType          string               `json:"taxType,omitempty"`
	Total            float64              `json:"total"`
	Currency         string               `json:"currency"`
	PaymentTerms     string               `json:"paymentTerms"`
	PageNumber       int                  `json:"pageNumber,omitempty"`
	PageNumbers      []int                `json:"pageNumbers,omitempty"`
	ID               *uuid.UUID           `json:"id,omitempty"`
	Status           domain.InvoiceStatus `json:"status,omitempty"`
	ExtractedAt      *time.Time           `json:"extractedAt,omitempty"`
	TaskID           string               `json:"taskId,omitempty"`
	BatchID          string               `json:"batchId,omitempty"`
	Attachments      []Attachment         `json:"attachments"`
}

// BillInvoice is the Odoo bill creation API shape.
type BillInvoice struct {
	InvoiceNo        string       `json:"Invoice-No"`
	InvoiceDate      string       `json:"Invoice-Date"`
	CustomerPONumber string       `json:"Customer PO Number"`
	Customer         string       `json:"Customer"`
	PaymentTerms     string       `json:"Payment Terms"`
	Subtotal         string       `json:"Subtotal"`
	TaxAmount        string       `json:"Tax Amount"`
	TotalAmount      string       `json:"Total Amount"`
	InvoiceOrCredit  string       `json:"invoice-or-credit"`
	Lines            []Line       `json:"lines"`
	Attachments      []Attachment `json:"attachments"`
}

// Payload is the webhook request body.
type Payload struct {
	Invoices []any `json:"invoices"`
}

// Builder turns invoices into payload entries of one format.
type Builder struct {
	format       string
	currency     string
	paymentTerms string
}

// NewBuilder creates a Builder. Unknown formats fall back to standard.
func NewBuilder(format, currency, paymentTerms string) *Builder {
	if format != FormatBill {
		format = FormatStandard
	}
	return &Builder{format: format, currency: currency, paymentTerms: paymentTerms}
}

// Format reports the payload format in use.
func (b *Builder) Format() string {
	return b.format
}

// Build reconciles inv and renders it with its attachment. index is the
// invoice's position in the batch and names invoices that have no number.
func (b *Builder) Build(inv *domain.Invoice, index int, att Attachment) any {
	items := make([]reconcile.LineInput, len(inv.LineItems))
	for i, li := range inv.LineItems {
		items[i] = reconcile.LineInput{Quantity: li.Quantity, UnitPrice: li.UnitPrice, Amount: li.Amount, Tax: li.Tax}
	}
	summary := reconcile.ReconcileInvoice(items, inv.TaxAmount, inv.TaxType)

	lines := make([]Line, len(summary.Lines))
	for i, l := range summary.Lines {
		lines[i] = Line{
			ProductCode: inv.LineItems[i].PartNumber,
			Description: inv.LineItems[i].Description,
			Quantity:    l.Quantity,
			UnitPrice:   l.UnitPrice,
			Discount:    l.Discount,
			Taxes:       []any{},
			Subtotal:    l.Subtotal,
		}
	}

	number := InvoiceNumber(inv, index)
	terms := inv.PaymentTerms
	if terms == "" {
		terms = b.paymentTerms
	}
	attachments := []Attachment{att}

	if b.format == FormatBill {
		kind := "INVOICE"
		if summary.Total < 0 {
			kind = "CREDIT"
		}
		return BillInvoice{
			InvoiceNo:        number,
			InvoiceDate:      datenorm.Normalize(inv.InvoiceDate),
			CustomerPONumber: inv.CustomerPONumber,
			Customer:         inv.Customer.Name,
			PaymentTerms:     terms,
			Subtotal:         money(summary.Subtotal),
			TaxAmount:        money(summary.TaxTotal),
			TotalAmount:      money(summary.Total),
			InvoiceOrCredit:  kind,
			Lines:            lines,
			Attachments:      attachments,
		}
	}

	out := StandardInvoice{
		InvoiceNumber:    number,
		CustomerPONumber: inv.CustomerPONumber,
		InvoiceDate:      datenorm.Normalize(inv.InvoiceDate),
		DueDate:          datenorm.Normalize(inv.DueDate),
		Vendor:           inv.Vendor,
		Customer:         inv.Customer,
		Lines:            lines,
		Taxes:            summary.Taxes,
		Subtotal:         summary.Subtotal,
		TaxAmount:        summary.TaxTotal,
		TaxType:          inv.TaxType,
		Total:            summary.Total,
		Currency:         b.currency,
		PaymentTerms:     terms,
		PageNumber:       inv.PageNumber,
		PageNumbers:      inv.PageNumbers,
		Status:           inv.Status,
		ExtractedAt:      inv.ExtractedAt,
		TaskID:           inv.TaskID,
		BatchID:          inv.BatchID,
		Attachments:      attachments,
	}
	if out.Taxes == nil {
		out.Taxes = []reconcile.TaxLine{}
	}
	if inv.ID != uuid.Nil {
		id := inv.ID
		out.ID = &id
	}
	return out
}

// InvoiceNumber is the invoice's number, or INV-<n> for the n-th invoice of
// the batch when it has none.
func InvoiceNumber(inv *domain.Invoice, index int) string {
	if inv.InvoiceNumber != "" {
		return inv.InvoiceNumber
	}
	return fmt.Sprintf("INV-%d", index+1)
}

// AttachmentFilename names the per-invoice PDF:
// INV_<number with non-alphanumerics as '_'>_<first 8 alphanumerics of key>.pdf.
func AttachmentFilename(inv *domain.Invoice, index int) string {
	number := replaceNonAlnum(InvoiceNumber(inv, index), '_')
	suffix := alnumPrefix(inv.Key(), 8)
	if suffix == "" {
		suffix = fmt.Sprintf("IDX%d", index)
	}
	return fmt.Sprintf("INV_%s_%s.pdf", number, suffix)
}

func money(v float64) string {
	return fmt.Sprintf("%.2f", v)
}

func isAlnum(r rune) bool {
	return (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9')
}

func replaceNonAlnum(s string, with rune) string {
	return strings.Map(func(r rune) rune {
		if isAlnum(r) {
			return r
		}
		return with
	}, s)
}

func alnumPrefix(s string, n int) string {
	var b strings.Builder
	for _, r := range s {
		if b.Len() == n {
			break
		}
		if isAlnum(r) {
			b.WriteRune(r)
		}
	}
	return b.String()
}
