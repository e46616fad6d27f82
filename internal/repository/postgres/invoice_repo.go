package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/zuma-group/bill-integration-platform/internal/domain"
	"github.com/zuma-group/bill-integration-platform/internal/port"
)

type invoiceRepo struct {
	db *sqlx.DB
}

// NewInvoiceRepo creates a new PostgreSQL-backed InvoiceRepository.
func NewInvoiceRepo(db *sqlx.DB) port.InvoiceRepository {
	return &invoiceRepo{db: db}
}

// invoiceRow is the invoices table layout. Vendor, customer and page
// numbers are stored as JSONB.
type invoiceRow struct {
	ID               uuid.UUID  `db:"id"`
	InvoiceNumber    string     `db:"invoice_number"`
	CustomerPONumber string     `db:"customer_po_number"`
	InvoiceDate      string     `db:"invoice_date"`
	DueDate          string     `db:"due_date"`
	Vendor           []byte     `db:"vendor"`
	Customer         []byte     `db:"customer"`
	Subtotal         float64    `db:"subtotal"`
	TaxAmount        float64    `db:"tax_amount"`
	TaxType          string     `db:"tax_type"`
	Total            float64    `db:"total"`
	Currency         string     `db:"currency"`
	PaymentTerms     string     `db:"payment_terms"`
	PageNumber       int        `db:"page_number"`
	PageNumbers      []byte     `db:"page_numbers"`
	Status           string     `db:"status"`
	ExtractedAt      *time.Time `db:"extracted_at"`
	SyncedAt         *time.Time `db:"synced_at"`
	TaskID           string     `db:"task_id"`
	BatchID          string     `db:"batch_id"`
	PdfURL           string     `db:"pdf_url"`
	CreatedAt        time.Time  `db:"created_at"`
	UpdatedAt        time.Time  `db:"updated_at"`
}

func toRow(inv *domain.Invoice) (*invoiceRow, error) {
	vendor, err := json.Marshal(inv.Vendor)
	if err != nil {
		return nil, fmt.Errorf("encoding vendor: %w", err)
	}
	customer, err := json.Marshal(inv.Customer)
	if err != nil {
		return nil, fmt.Errorf("encoding customer: %w", err)
	}
	pages := inv.PageNumbers
	if pages == nil {
		pages = []int{}
	}
	pageJSON, err := json.Marshal(pages)
	if err != nil {
		return nil, fmt.Errorf("encoding page numbers: %w", err)
	}
	return &invoiceRow{
		ID:               inv.ID,
		InvoiceNumber:    inv.InvoiceNumber,
		CustomerPONumber: inv.CustomerPONumber,
		InvoiceDate:      inv.InvoiceDate,
		DueDate:          inv.DueDate,
		Vendor:           vendor,
		Customer:         customer,
		Subtotal:         inv.Subtotal,
		TaxAmount:        inv.TaxAmount,
		TaxType:          inv.TaxType,
		Total:            inv.Total,
		Currency:         inv.Currency,
		PaymentTerms:     inv.PaymentTerms,
		PageNumber:       inv.PageNumber,
		PageNumbers:      pageJSON,
		Status:           string(inv.Status),
		ExtractedAt:      inv.ExtractedAt,
		SyncedAt:         inv.SyncedAt,
		TaskID:           inv.TaskID,
		BatchID:          inv.BatchID,
		PdfURL:           inv.PdfURL,
		CreatedAt:        inv.CreatedAt,
		UpdatedAt:        inv.UpdatedAt,
	}, nil
}

func (row *invoiceRow) toDomain() (domain.Invoice, error) {
	inv := domain.Invoice{
		ID:               row.ID,
		InvoiceNumber:    row.InvoiceNumber,
		CustomerPONumber: row.CustomerPONumber,
		InvoiceDate:      row.InvoiceDate,
		DueDate:          row.DueDate,
		Subtotal:         row.Subtotal,
		TaxAmount:        row.TaxAmount,
		TaxType:          row.TaxType,
		Total:            row.Total,
		Currency:         row.Currency,
		PaymentTerms:     row.PaymentTerms,
		PageNumber:       row.PageNumber,
		Status:           domain.InvoiceStatus(row.Status),
		ExtractedAt:      row.ExtractedAt,
		SyncedAt:         row.SyncedAt,
		TaskID:           row.TaskID,
		BatchID:          row.BatchID,
		PdfURL:           row.PdfURL,
		CreatedAt:        row.CreatedAt,
		UpdatedAt:        row.UpdatedAt,
		LineItems:        []domain.LineItem{},
	}
	if len(row.Vendor) > 0 {
		if err := json.Unmarshal(row.Vendor, &inv.Vendor); err != nil {
			return inv, fmt.Errorf("decoding vendor: %w", err)
		}
	}
	if len(row.Customer) > 0 {
		if err := json.Unmarshal(row.Customer, &inv.Customer); err != nil {
			return inv, fmt.Errorf("decoding customer: %w", err)
		}
	}
	if len(row.PageNumbers) > 0 {
		if err := json.Unmarshal(row.PageNumbers, &inv.PageNumbers); err != nil {
			return inv, fmt.Errorf("decoding page numbers: %w", err)
		}
		if len(inv.PageNumbers) == 0 {
			inv.PageNumbers = nil
		}
	}
	return inv, nil
}

const insertInvoice = `INSERT INTO invoices (
	id, invoice_number, customer_po_number, invoice_date, due_date,
	vendor, customer, subtotal, tax_amount, tax_type, total,
	currency, payment_terms, page_number, page_numbers, status,
	extracted_at, synced_at, task_id, batch_id, pdf_url,
	created_at, updated_at
) VALUES (
	:id, :invoice_number, :customer_po_number, :invoice_date, :due_date,
	:vendor, :customer, :subtotal, :tax_amount, :tax_type, :total,
	:currency, :payment_terms, :page_number, :page_numbers, :status,
	:extracted_at, :synced_at, :task_id, :batch_id, :pdf_url,
	:created_at, :updated_at
)`

const insertLineItem = `INSERT INTO invoice_line_items (
	id, invoice_id, position, description, part_number,
	quantity, unit_price, amount, discount, tax
) VALUES (
	:id, :invoice_id, :position, :description, :part_number,
	:quantity, :unit_price, :amount, :discount, :tax
)`

const insertAttachment = `INSERT INTO invoice_attachments (
	id, invoice_id, filename, url, s3_key, content_type, size_bytes, created_at
) VALUES (
	:id, :invoice_id, :filename, :url, :s3_key, :content_type, :size_bytes, :created_at
)`

func (r *invoiceRepo) CreateBatch(ctx context.Context, invoices []domain.Invoice) error {
	return withTx(ctx, r.db, func(tx *sqlx.Tx) error {
		for i := range invoices {
			inv := &invoices[i]
			row, err := toRow(inv)
			if err != nil {
				return fmt.Errorf("invoiceRepo.CreateBatch: %w", err)
			}
			if _, err := tx.NamedExecContext(ctx, insertInvoice, row); err != nil {
				return fmt.Errorf("invoiceRepo.CreateBatch invoice %d: %w", i, err)
			}
			if err := insertLineItems(ctx, tx, inv.LineItems); err != nil {
				return fmt.Errorf("invoiceRepo.CreateBatch line items %d: %w", i, err)
			}
			for j := range inv.Attachments {
				if _, err := tx.NamedExecContext(ctx, insertAttachment, &inv.Attachments[j]); err != nil {
					return fmt.Errorf("invoiceRepo.CreateBatch attachment %d: %w", i, err)
				}
			}
		}
		return nil
	})
}

func insertLineItems(ctx context.Context, tx *sqlx.Tx, items []domain.LineItem) error {
	for i := range items {
		if _, err := tx.NamedExecContext(ctx, insertLineItem, &items[i]); err != nil {
			return err
		}
	}
	return nil
}

func (r *invoiceRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Invoice, error) {
	var row invoiceRow
	err := r.db.GetContext(ctx, &row, "SELECT * FROM invoices WHERE id = $1", id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("invoiceRepo.GetByID: %w", err)
	}
	inv, err := row.toDomain()
	if err != nil {
		return nil, fmt.Errorf("invoiceRepo.GetByID: %w", err)
	}
	invoices := []domain.Invoice{inv}
	if err := r.loadChildren(ctx, invoices); err != nil {
		return nil, err
	}
	return &invoices[0], nil
}

func (r *invoiceRepo) List(ctx context.Context, offset, limit int) ([]domain.Invoice, int, error) {
	var total int
	if err := r.db.GetContext(ctx, &total, "SELECT COUNT(*) FROM invoices"); err != nil {
		return nil, 0, fmt.Errorf("invoiceRepo.List count: %w", err)
	}

	var rows []invoiceRow
	err := r.db.SelectContext(ctx, &rows,
		"SELECT * FROM invoices ORDER BY created_at DESC, id LIMIT $1 OFFSET $2", limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("invoiceRepo.List: %w", err)
	}
	invoices := make([]domain.Invoice, len(rows))
	for i := range rows {
		inv, err := rows[i].toDomain()
		if err != nil {
			return nil, 0, fmt.Errorf("invoiceRepo.List: %w", err)
		}
		invoices[i] = inv
	}
	if err := r.loadChildren(ctx, invoices); err != nil {
		return nil, 0, err
	}
	return invoices, total, nil
}

// loadChildren fills line items and attachments for invoices with two
// queries.
func (r *invoiceRepo) loadChildren(ctx context.Context, invoices []domain.Invoice) error {
	if len(invoices) == 0 {
		return nil
	}
	ids := make([]uuid.UUID, len(invoices))
	index := make(map[uuid.UUID]int, len(invoices))
	for i := range invoices {
		ids[i] = invoices[i].ID
		index[invoices[i].ID] = i
	}

	query, args, err := sqlx.In(
		"SELECT * FROM invoice_line_items WHERE invoice_id IN (?) ORDER BY invoice_id, position", ids)
	if err != nil {
		return fmt.Errorf("invoiceRepo.loadChildren: %w", err)
	}
	var items []domain.LineItem
	if err := r.db.SelectContext(ctx, &items, r.db.Rebind(query), args...); err != nil {
		return fmt.Errorf("invoiceRepo.loadChildren line items: %w", err)
	}
	for _, item := range items {
		i := index[item.InvoiceID]
		invoices[i].LineItems = append(invoices[i].LineItems, item)
	}

	query, args, err = sqlx.In(
		"SELECT * FROM invoice_attachments WHERE invoice_id IN (?) ORDER BY invoice_id, created_at", ids)
	if err != nil {
		return fmt.Errorf("invoiceRepo.loadChildren: %w", err)
	}
	var atts []domain.Attachment
	if err := r.db.SelectContext(ctx, &atts, r.db.Rebind(query), args...); err != nil {
		return fmt.Errorf("invoiceRepo.loadChildren attachments: %w", err)
	}
	for _, att := range atts {
		i := index[att.InvoiceID]
		invoices[i].Attachments = append(invoices[i].Attachments, att)
	}
	return nil
}

func (r *invoiceRepo) Update(ctx context.Context, inv *domain.Invoice) error {
	row, err := toRow(inv)
	if err != nil {
		return fmt.Errorf("invoiceRepo.Update: %w", err)
	}
	query := `UPDATE invoices SET
		invoice_number = :invoice_number, customer_po_number = :customer_po_number,
		invoice_date = :invoice_date, due_date = :due_date,
		vendor = :vendor, customer = :customer,
		subtotal = :subtotal, tax_amount = :tax_amount, tax_type = :tax_type, total = :total,
		currency = :currency, payment_terms = :payment_terms,
		page_number = :page_number, page_numbers = :page_numbers, status = :status,
		task_id = :task_id, batch_id = :batch_id, updated_at = :updated_at
		WHERE id = :id`
	result, err := r.db.NamedExecContext(ctx, query, row)
	if err != nil {
		return fmt.Errorf("invoiceRepo.Update: %w", err)
	}
	return requireRow(result)
}

func (r *invoiceRepo) ReplaceLineItems(ctx context.Context, invoiceID uuid.UUID, items []domain.LineItem) error {
	return withTx(ctx, r.db, func(tx *sqlx.Tx) error {
		if _, err := tx.ExecContext(ctx, "DELETE FROM invoice_line_items WHERE invoice_id = $1", invoiceID); err != nil {
			return fmt.Errorf("invoiceRepo.ReplaceLineItems delete: %w", err)
		}
		if err := insertLineItems(ctx, tx, items); err != nil {
			return fmt.Errorf("invoiceRepo.ReplaceLineItems insert: %w", err)
		}
		_, err := tx.ExecContext(ctx, "UPDATE invoices SET updated_at = $1 WHERE id = $2", time.Now().UTC(), invoiceID)
		if err != nil {
			return fmt.Errorf("invoiceRepo.ReplaceLineItems touch: %w", err)
		}
		return nil
	})
}

func (r *invoiceRepo) AddAttachment(ctx context.Context, att *domain.Attachment) error {
	if att.CreatedAt.IsZero() {
		att.CreatedAt = time.Now().UTC()
	}
	if _, err := r.db.NamedExecContext(ctx, insertAttachment, att); err != nil {
		return fmt.Errorf("invoiceRepo.AddAttachment: %w", err)
	}
	return nil
}

func (r *invoiceRepo) MarkSynced(ctx context.Context, ids []uuid.UUID) error {
	if len(ids) == 0 {
		return nil
	}
	now := time.Now().UTC()
	query, args, err := sqlx.In(
		"UPDATE invoices SET status = ?, synced_at = ?, updated_at = ? WHERE id IN (?)",
		string(domain.InvoiceStatusSynced), now, now, ids)
	if err != nil {
		return fmt.Errorf("invoiceRepo.MarkSynced: %w", err)
	}
	if _, err := r.db.ExecContext(ctx, r.db.Rebind(query), args...); err != nil {
		return fmt.Errorf("invoiceRepo.MarkSynced: %w", err)
	}
	return nil
}

func (r *invoiceRepo) Delete(ctx context.Context, id uuid.UUID) error {
	result, err := r.db.ExecContext(ctx, "DELETE FROM invoices WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("invoiceRepo.Delete: %w", err)
	}
	return requireRow(result)
}

func requireRow(result sql.Result) error {
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("reading rows affected: %w", err)
	}
	if n == 0 {
		return domain.ErrNotFound
	}
	return nil
}
