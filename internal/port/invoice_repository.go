package port

import (
	"context"

	"github.com/google/uuid"

	"github.com/zuma-group/bill-integration-platform/internal/domain"
)

// InvoiceRepository persists invoices with their line items and attachments.
type InvoiceRepository interface {
	CreateBatch(ctx context.Context, invoices []domain.Invoice) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Invoice, error)
	List(ctx context.Context, offset, limit int) ([]domain.Invoice, int, error)
	Update(ctx context.Context, inv *domain.Invoice) error
	ReplaceLineItems(ctx context.Context, invoiceID uuid.UUID, items []domain.LineItem) error
	AddAttachment(ctx context.Context, att *domain.Attachment) error
	MarkSynced(ctx context.Context, ids []uuid.UUID) error
	Delete(ctx context.Context, id uuid.UUID) error
}
