package service

import (
	"context"
	"fmt"
	"net/http"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/zuma-group/bill-integration-platform/internal/config"
	"github.com/zuma-group/bill-integration-platform/internal/domain"
	"github.com/zuma-group/bill-integration-platform/internal/logger"
	"github.com/zuma-group/bill-integration-platform/internal/port"
)

// ExtractInput is the DTO for an OCR request.
type ExtractInput struct {
	Data        []byte
	ContentType string
	// SourceName names the cached source document. Defaults to
	// <taskId>_<Filename>.
	SourceName string
	Filename   string
}

// ExtractionService runs OCR on a document and prepares the invoices found.
type ExtractionService interface {
	Extract(ctx context.Context, input ExtractInput) (*domain.OCRResult, error)
}

type extractionService struct {
	extractor   port.InvoiceExtractor
	attachments AttachmentService
	maxBytes    int64
	now         func() time.Time
}

// NewExtractionService creates an ExtractionService.
func NewExtractionService(extractor port.InvoiceExtractor, attachments AttachmentService, s3Cfg *config.S3Config) ExtractionService {
	return &extractionService{
		extractor:   extractor,
		attachments: attachments,
		maxBytes:    s3Cfg.MaxFileSizeMB * 1024 * 1024,
		now:         time.Now,
	}
}

var unsafeSourceName = regexp.MustCompile(`[^a-zA-Z0-9_.-]`)

func (s *extractionService) Extract(ctx context.Context, input ExtractInput) (*domain.OCRResult, error) {
	if len(input.Data) == 0 {
		return nil, fmt.Errorf("%w: empty document", domain.ErrInvalidInput)
	}
	if s.maxBytes > 0 && int64(len(input.Data)) > s.maxBytes {
		return nil, domain.ErrFileTooLarge
	}
	contentType, err := resolveContentType(input.ContentType, input.Filename, input.Data)
	if err != nil {
		return nil, err
	}

	taskID := NewTaskID()
	log := logger.WithComponent("service.extraction")
	log.Info().Str("task_id", taskID).Str("content_type", contentType).Int("bytes", len(input.Data)).Msg("extracting invoices")

	result, err := s.extractor.Extract(ctx, port.ExtractInput{FileBytes: input.Data, ContentType: contentType})
	if err != nil {
		log.Error().Err(err).Str("task_id", taskID).Msg("extraction failed")
		return nil, err
	}

	name := input.SourceName
	if name == "" {
		filename := input.Filename
		if filename == "" {
			filename = "document"
		}
		name = taskID + "_" + filename
	}
	name = unsafeSourceName.ReplaceAllString(name, "_")
	pdfURL, err := s.attachments.Cache(name, input.Data, contentType)
	if err != nil {
		return nil, fmt.Errorf("caching source document: %w", err)
	}

	now := s.now().UTC()
	result.TaskID = taskID
	for i := range result.Invoices {
		inv := &result.Invoices[i]
		inv.ID = uuid.New()
		if inv.Status == "" {
			inv.Status = domain.InvoiceStatusExtracted
		}
		inv.ExtractedAt = &now
		inv.TaskID = taskID
		inv.PdfURL = pdfURL
	}
	if result.InvoiceCount == 0 {
		result.InvoiceCount = len(result.Invoices)
	}

	log.Info().
		Str("task_id", taskID).
		Int("invoices", len(result.Invoices)).
		Bool("repaired", result.Repaired).
		Str("model", result.ModelUsed).
		Msg("extraction complete")
	return result, nil
}

// resolveContentType accepts the declared type when it is supported, then
// the filename extension, and otherwise sniffs the bytes.
func resolveContentType(declared, filename string, data []byte) (string, error) {
	if ft, ok := domain.AllowedContentTypes[declared]; ok {
		return domain.AllowedFileTypes[ft], nil
	}
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(filename), "."))
	if ft, ok := domain.AllowedExtensions[ext]; ok {
		return domain.AllowedFileTypes[ft], nil
	}
	detected := http.DetectContentType(data)
	if ft, ok := domain.AllowedContentTypes[detected]; ok {
		return domain.AllowedFileTypes[ft], nil
	}
	return "", fmt.Errorf("%w: %s", domain.ErrUnsupportedFileType, declared)
}
