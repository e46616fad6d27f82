package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/zuma-group/bill-integration-platform/internal/domain"
	"github.com/zuma-group/bill-integration-platform/internal/export"
	"github.com/zuma-group/bill-integration-platform/internal/port"
)

// Export formats.
const (
	ExportCSV  = "csv"
	ExportXLSX = "xlsx"
)

// exportPageSize bounds each repository read during export.
const exportPageSize = 200

// AttachmentInput links an already stored document to an invoice.
type AttachmentInput struct {
	Filename string `json:"filename"`
	URL      string `json:"url"`
	MimeType string `json:"mimeType"`
	SizeKB   int64  `json:"sizeKb"`
}

// UpdateInvoiceInput carries the fields to change; nil fields are kept.
// A non-nil LineItems replaces every line item.
type UpdateInvoiceInput struct {
	InvoiceNumber    *string               `json:"invoiceNumber"`
	CustomerPONumber *string               `json:"customerPoNumber"`
	InvoiceDate      *string               `json:"invoiceDate"`
	DueDate          *string               `json:"dueDate"`
	Vendor           *domain.Vendor        `json:"vendor"`
	Customer         *domain.Customer      `json:"customer"`
	Subtotal         *float64              `json:"subtotal"`
	TaxAmount        *float64              `json:"taxAmount"`
	Total            *float64              `json:"total"`
	TaxType          *string               `json:"taxType"`
	Currency         *string               `json:"currency"`
	PaymentTerms     *string               `json:"paymentTerms"`
	PageNumber       *int                  `json:"pageNumber"`
	PageNumbers      []int                 `json:"pageNumbers"`
	Status           *domain.InvoiceStatus `json:"status"`
	TaskID           *string               `json:"taskId"`
	BatchID          *string               `json:"batchId"`
	LineItems        *[]domain.LineItem    `json:"lineItems"`
	Attachment       *AttachmentInput      `json:"attachment"`
}

// ExportOutput is a rendered export.
type ExportOutput struct {
	ContentType string
	Filename    string
	Body        []byte
}

// InvoiceService manages stored invoices.
type InvoiceService interface {
	List(ctx context.Context, offset, limit int) ([]domain.Invoice, int, error)
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Invoice, error)
	CreateBatch(ctx context.Context, invoices []domain.Invoice) ([]domain.Invoice, error)
	Update(ctx context.Context, id uuid.UUID, input UpdateInvoiceInput) (*domain.Invoice, error)
	Delete(ctx context.Context, id uuid.UUID) error
	Export(ctx context.Context, format string) (*ExportOutput, error)
}

type invoiceService struct {
	repo            port.InvoiceRepository
	defaultCurrency string
	now             func() time.Time
}

// NewInvoiceService creates an InvoiceService.
func NewInvoiceService(repo port.InvoiceRepository, defaultCurrency string) InvoiceService {
	if defaultCurrency == "" {
		defaultCurrency = "USD"
	}
	return &invoiceService{repo: repo, defaultCurrency: defaultCurrency, now: time.Now}
}

func (s *invoiceService) List(ctx context.Context, offset, limit int) ([]domain.Invoice, int, error) {
	return s.repo.List(ctx, offset, limit)
}

func (s *invoiceService) GetByID(ctx context.Context, id uuid.UUID) (*domain.Invoice, error) {
	inv, err := s.repo.GetByID(ctx, id)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, domain.ErrInvoiceNotFound
	}
	return inv, err
}

func (s *invoiceService) CreateBatch(ctx context.Context, invoices []domain.Invoice) ([]domain.Invoice, error) {
	if len(invoices) == 0 {
		return nil, domain.ErrNoInvoices
	}
	now := s.now().UTC()
	out := make([]domain.Invoice, len(invoices))
	for i, inv := range invoices {
		if inv.ID == uuid.Nil {
			inv.ID = uuid.New()
		}
		if inv.Currency == "" {
			inv.Currency = s.defaultCurrency
		}
		if inv.Status == "" {
			inv.Status = domain.InvoiceStatusExtracted
		}
		inv.Status = domain.InvoiceStatus(strings.ToLower(string(inv.Status)))
		if inv.ExtractedAt == nil {
			inv.ExtractedAt = &now
		}
		inv.CreatedAt = now
		inv.UpdatedAt = now
		for pos := range inv.LineItems {
			inv.LineItems[pos].ID = uuid.New()
			inv.LineItems[pos].InvoiceID = inv.ID
			if inv.LineItems[pos].Position == 0 {
				inv.LineItems[pos].Position = pos + 1
			}
		}
		inv.Attachments = nil
		if inv.PdfURL != "" {
			inv.Attachments = []domain.Attachment{{
				ID:          uuid.New(),
				InvoiceID:   inv.ID,
				Filename:    attachmentNameFromURL(inv),
				URL:         inv.PdfURL,
				ContentType: "application/pdf",
				CreatedAt:   now,
			}}
		}
		out[i] = inv
	}
	if err := s.repo.CreateBatch(ctx, out); err != nil {
		return nil, fmt.Errorf("creating invoices: %w", err)
	}
	return out, nil
}

func (s *invoiceService) Update(ctx context.Context, id uuid.UUID, input UpdateInvoiceInput) (*domain.Invoice, error) {
	inv, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	applyUpdate(inv, &input)
	inv.UpdatedAt = s.now().UTC()
	if err := s.repo.Update(ctx, inv); err != nil {
		return nil, fmt.Errorf("updating invoice: %w", err)
	}

	if input.LineItems != nil {
		items := *input.LineItems
		for pos := range items {
			items[pos].ID = uuid.New()
			items[pos].InvoiceID = id
			if items[pos].Position == 0 {
				items[pos].Position = pos + 1
			}
		}
		if err := s.repo.ReplaceLineItems(ctx, id, items); err != nil {
			return nil, fmt.Errorf("replacing line items: %w", err)
		}
	}

	if input.Attachment != nil && input.Attachment.URL != "" {
		att := &domain.Attachment{
			ID:          uuid.New(),
			InvoiceID:   id,
			Filename:    input.Attachment.Filename,
			URL:         input.Attachment.URL,
			ContentType: input.Attachment.MimeType,
			SizeBytes:   input.Attachment.SizeKB * 1024,
			CreatedAt:   s.now().UTC(),
		}
		if att.Filename == "" {
			att.Filename = fmt.Sprintf("INV-%s.pdf", id)
		}
		if att.ContentType == "" {
			att.ContentType = "application/pdf"
		}
		if err := s.repo.AddAttachment(ctx, att); err != nil {
			return nil, fmt.Errorf("adding attachment: %w", err)
		}
	}

	return s.GetByID(ctx, id)
}

func (s *invoiceService) Delete(ctx context.Context, id uuid.UUID) error {
	err := s.repo.Delete(ctx, id)
	if errors.Is(err, domain.ErrNotFound) {
		return domain.ErrInvoiceNotFound
	}
	return err
}

func (s *invoiceService) Export(ctx context.Context, format string) (*ExportOutput, error) {
	format = strings.ToLower(format)
	if format == "" {
		format = ExportCSV
	}
	if format != ExportCSV && format != ExportXLSX {
		return nil, fmt.Errorf("%w: export format %q", domain.ErrInvalidInput, format)
	}

	var all []domain.Invoice
	for offset := 0; ; offset += exportPageSize {
		page, total, err := s.repo.List(ctx, offset, exportPageSize)
		if err != nil {
			return nil, fmt.Errorf("listing invoices: %w", err)
		}
		all = append(all, page...)
		if len(page) < exportPageSize || len(all) >= total {
			break
		}
	}

	var buf bytes.Buffer
	out := &ExportOutput{Filename: export.BuildFilename("invoices", format, s.now())}
	if format == ExportXLSX {
		if err := export.WriteXLSX(&buf, all); err != nil {
			return nil, err
		}
		out.ContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	} else {
		buf.Write(export.BOM)
		w := export.NewWriter(&buf)
		if err := w.WriteHeader(); err != nil {
			return nil, err
		}
		if err := w.WriteInvoices(all); err != nil {
			return nil, err
		}
		w.Flush()
		if err := w.Error(); err != nil {
			return nil, err
		}
		out.ContentType = "text/csv; charset=utf-8"
	}
	out.Body = buf.Bytes()
	return out, nil
}

func applyUpdate(inv *domain.Invoice, in *UpdateInvoiceInput) {
	setString(&inv.InvoiceNumber, in.InvoiceNumber)
	setString(&inv.CustomerPONumber, in.CustomerPONumber)
	setString(&inv.InvoiceDate, in.InvoiceDate)
	setString(&inv.DueDate, in.DueDate)
	setString(&inv.TaxType, in.TaxType)
	setString(&inv.Currency, in.Currency)
	setString(&inv.PaymentTerms, in.PaymentTerms)
	setString(&inv.TaskID, in.TaskID)
	setString(&inv.BatchID, in.BatchID)
	if in.Vendor != nil {
		inv.Vendor = *in.Vendor
	}
	if in.Customer != nil {
		inv.Customer = *in.Customer
	}
	if in.Subtotal != nil {
		inv.Subtotal = *in.Subtotal
	}
	if in.TaxAmount != nil {
		inv.TaxAmount = *in.TaxAmount
	}
	if in.Total != nil {
		inv.Total = *in.Total
	}
	if in.PageNumber != nil {
		inv.PageNumber = *in.PageNumber
	}
	if in.PageNumbers != nil {
		inv.PageNumbers = in.PageNumbers
	}
	if in.Status != nil && *in.Status != "" {
		inv.Status = domain.InvoiceStatus(strings.ToLower(string(*in.Status)))
	}
}

func setString(dst *string, v *string) {
	if v != nil {
		*dst = *v
	}
}

func attachmentNameFromURL(inv domain.Invoice) string {
	u := inv.PdfURL
	if i := strings.LastIndex(u, "/"); i >= 0 {
		u = u[i+1:]
	}
	if i := strings.IndexAny(u, "?#"); i >= 0 {
		u = u[:i]
	}
	if u != "" {
		return u
	}
	number := inv.InvoiceNumber
	if number == "" {
		number = "INV"
	}
	return fmt.Sprintf("%s-%d.pdf", number, time.Now().UnixMilli())
}
