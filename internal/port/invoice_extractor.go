package port

import (
	"context"

	"github.com/zuma-group/bill-integration-platform/internal/domain"
)

// ExtractInput carries a source document for OCR.
type ExtractInput struct {
	FileBytes   []byte
	ContentType string
}

// InvoiceExtractor abstracts LLM-based invoice extraction.
type InvoiceExtractor interface {
	Extract(ctx context.Context, input ExtractInput) (*domain.OCRResult, error)
}
