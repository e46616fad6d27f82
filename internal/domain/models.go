package domain

import (
	"time"

	"github.com/google/uuid"
)

// Vendor is the party that issued an invoice.
type Vendor struct {
	Name    string `json:"name"`
	Address string `json:"address"`
	TaxID   string `json:"taxId"`
	Email   string `json:"email"`
	Phone   string `json:"phone"`
}

// Customer is the billed party.
type Customer struct {
	Name    string `json:"name"`
	Address string `json:"address"`
}

// LineItem is one billable row of an invoice as extracted or edited.
type LineItem struct {
	ID          uuid.UUID `db:"id" json:"-"`
	InvoiceID   uuid.UUID `db:"invoice_id" json:"-"`
	Position    int       `db:"position" json:"-"`
	Description string    `db:"description" json:"description"`
	PartNumber  string    `db:"part_number" json:"partNumber,omitempty"`
	Quantity    float64   `db:"quantity" json:"quantity"`
	UnitPrice   float64   `db:"unit_price" json:"unitPrice"`
	Amount      float64   `db:"amount" json:"amount"`
	Discount    float64   `db:"discount" json:"discount,omitempty"`
	Tax         float64   `db:"tax" json:"tax"`
}

// Attachment is a stored PDF linked to an invoice.
type Attachment struct {
	ID          uuid.UUID `db:"id" json:"-"`
	InvoiceID   uuid.UUID `db:"invoice_id" json:"-"`
	Filename    string    `db:"filename" json:"filename"`
	URL         string    `db:"url" json:"url"`
	S3Key       string    `db:"s3_key" json:"-"`
	ContentType string    `db:"content_type" json:"-"`
	SizeBytes   int64     `db:"size_bytes" json:"-"`
	CreatedAt   time.Time `db:"created_at" json:"-"`
}

// Invoice is one extracted invoice. Dates stay in the free-form text the OCR
// produced and are normalised only when sent to the accounting system.
type Invoice struct {
	ID               uuid.UUID     `json:"id"`
	InvoiceNumber    string        `json:"invoiceNumber"`
	CustomerPONumber string        `json:"customerPoNumber,omitempty"`
	InvoiceDate      string        `json:"invoiceDate"`
	DueDate          string        `json:"dueDate"`
	Vendor           Vendor        `json:"vendor"`
	Customer         Customer      `json:"customer"`
	LineItems        []LineItem    `json:"lineItems"`
	Subtotal         float64       `json:"subtotal"`
	TaxAmount        float64       `json:"taxAmount"`
	TaxType          string        `json:"taxType,omitempty"`
	Total            float64       `json:"total"`
	Currency         string        `json:"currency"`
	PaymentTerms     string        `json:"paymentTerms"`
	PageNumber       int           `json:"pageNumber,omitempty"`
	PageNumbers      []int         `json:"pageNumbers,omitempty"`
	Status           InvoiceStatus `json:"status"`
	ExtractedAt      *time.Time    `json:"extractedAt,omitempty"`
	SyncedAt         *time.Time    `json:"syncedAt,omitempty"`
	TaskID           string        `json:"taskId,omitempty"`
	BatchID          string        `json:"batchId,omitempty"`
	PdfURL           string        `json:"pdfUrl,omitempty"`
	Attachments      []Attachment  `json:"attachments,omitempty"`
	CreatedAt        time.Time     `json:"createdAt"`
	UpdatedAt        time.Time     `json:"updatedAt"`
}

// Key identifies the invoice within a batch: its id, else its number.
// Empty when neither is set.
func (inv *Invoice) Key() string {
	if inv.ID != uuid.Nil {
		return inv.ID.String()
	}
	return inv.InvoiceNumber
}

// OCRResult is the structured document returned by the extraction service.
type OCRResult struct {
	DocumentType DocumentType `json:"documentType"`
	InvoiceCount int          `json:"invoiceCount"`
	Invoices     []Invoice    `json:"invoices"`
	TaskID       string       `json:"taskId,omitempty"`
	ModelUsed    string       `json:"modelUsed,omitempty"`
	Repaired     bool         `json:"repaired,omitempty"`
}
