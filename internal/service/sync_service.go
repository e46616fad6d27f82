package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/zuma-group/bill-integration-platform/internal/domain"
	"github.com/zuma-group/bill-integration-platform/internal/logger"
	"github.com/zuma-group/bill-integration-platform/internal/odoo"
	"github.com/zuma-group/bill-integration-platform/internal/pdfsplit"
	"github.com/zuma-group/bill-integration-platform/internal/port"
)

// PushInput is the DTO for a push to the accounting system.
type PushInput struct {
	Invoices  []domain.Invoice
	SourcePDF []byte
}

// AttachmentInfo describes the PDF stored for one pushed invoice.
type AttachmentInfo struct {
	InvoiceID     string `json:"invoiceId"`
	InvoiceNumber string `json:"invoiceNumber"`
	Filename      string `json:"filename"`
	Size          string `json:"size"`
	URL           string `json:"url"`
}

// SyncConfiguration reports which integrations are set up.
type SyncConfiguration struct {
	WebhookConfigured bool   `json:"webhookConfigured"`
	S3Configured      bool   `json:"s3Configured"`
	PayloadFormat     string `json:"payloadFormat"`
}

// PushResult is the outcome of a push.
type PushResult struct {
	TaskID         string              `json:"taskId"`
	Message        string              `json:"message"`
	InvoiceCount   int                 `json:"invoiceCount"`
	Payload        odoo.Payload        `json:"payload"`
	OdooResponse   *port.WebhookResult `json:"odooResponse"`
	OdooSucceeded  bool                `json:"odooSucceeded"`
	AttachmentInfo []AttachmentInfo    `json:"attachmentInfo"`
	Warning        string              `json:"warning,omitempty"`
	Configuration  SyncConfiguration   `json:"configuration"`
}

// SyncService pushes invoices to the accounting system.
type SyncService interface {
	Push(ctx context.Context, input PushInput) (*PushResult, error)
}

type syncService struct {
	splitter    *pdfsplit.Splitter
	attachments AttachmentService
	builder     *odoo.Builder
	webhook     port.AccountingWebhook
	invoiceRepo port.InvoiceRepository
	notifier    port.Notifier
	concurrency int
}

// NewSyncService creates a SyncService. invoiceRepo may be nil when no
// database is configured.
func NewSyncService(
	splitter *pdfsplit.Splitter,
	attachments AttachmentService,
	builder *odoo.Builder,
	webhook port.AccountingWebhook,
	invoiceRepo port.InvoiceRepository,
	notifier port.Notifier,
	concurrency int,
) SyncService {
	if concurrency <= 0 {
		concurrency = 4
	}
	return &syncService{
		splitter:    splitter,
		attachments: attachments,
		builder:     builder,
		webhook:     webhook,
		invoiceRepo: invoiceRepo,
		notifier:    notifier,
		concurrency: concurrency,
	}
}

func (s *syncService) Push(ctx context.Context, input PushInput) (*PushResult, error) {
	if len(input.Invoices) == 0 {
		return nil, domain.ErrNoInvoices
	}
	if !s.webhook.Configured() {
		return nil, domain.ErrWebhookNotConfigured
	}

	taskID := NewTaskID()
	log := logger.WithComponent("service.sync").With().Str("task_id", taskID).Logger()
	log.Info().Int("invoices", len(input.Invoices)).Bool("has_source", len(input.SourcePDF) > 0).Msg("push started")

	keys := invoiceKeys(input.Invoices)
	var split map[string][]byte
	if len(input.SourcePDF) > 0 {
		targets := make([]pdfsplit.Target, len(input.Invoices))
		for i := range input.Invoices {
			inv := &input.Invoices[i]
			targets[i] = pdfsplit.Target{Key: keys[i], PageNumbers: inv.PageNumbers, PageNumber: inv.PageNumber}
		}
		var err error
		split, err = s.splitter.Split(ctx, input.SourcePDF, targets)
		if err != nil {
			return nil, fmt.Errorf("splitting source pdf: %w", err)
		}
	}

	entries := make([]any, len(input.Invoices))
	infos := make([]AttachmentInfo, len(input.Invoices))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.concurrency)
	for i := range input.Invoices {
		g.Go(func() error {
			inv := &input.Invoices[i]
			pdf, err := s.documentFor(gctx, inv, split[keys[i]], input.SourcePDF)
			if err != nil {
				return fmt.Errorf("invoice %s: %w", odoo.InvoiceNumber(inv, i), err)
			}
			filename := odoo.AttachmentFilename(inv, i)
			link, err := s.attachments.Store(gctx, filename, pdf)
			if err != nil {
				return fmt.Errorf("invoice %s: %w", odoo.InvoiceNumber(inv, i), err)
			}
			entries[i] = s.builder.Build(inv, i, odoo.Attachment{Filename: filename, URL: link})
			infos[i] = AttachmentInfo{
				InvoiceID:     keys[i],
				InvoiceNumber: odoo.InvoiceNumber(inv, i),
				Filename:      filename,
				Size:          fmt.Sprintf("%d KB", (len(pdf)+512)/1024),
				URL:           link,
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	payload := odoo.Payload{Invoices: entries}
	res, err := s.webhook.Send(ctx, payload)
	if err != nil {
		log.Error().Err(err).Msg("webhook delivery failed")
		res = &port.WebhookResult{Error: err.Error()}
	}

	out := &PushResult{
		TaskID:         taskID,
		InvoiceCount:   len(input.Invoices),
		Payload:        payload,
		OdooResponse:   res,
		OdooSucceeded:  res.Success,
		AttachmentInfo: infos,
		Configuration: SyncConfiguration{
			WebhookConfigured: true,
			S3Configured:      s.attachments.StorageConfigured(),
			PayloadFormat:     s.builder.Format(),
		},
	}
	if !out.Configuration.S3Configured {
		out.Warning = "object storage is not configured; attachments are served from the in-memory cache only"
	}

	if res.Success {
		out.Message = "Data sent to Odoo"
		s.markSynced(ctx, input.Invoices)
	} else {
		out.Message = "Data sent to Odoo but may have failed"
		s.notifyFailure(ctx, taskID, input.Invoices, res)
	}
	log.Info().Bool("succeeded", res.Success).Int("status", res.StatusCode).Msg("push finished")
	return out, nil
}

// documentFor picks the PDF for one invoice: its split pages, the whole
// source, or the document its pdfUrl points at.
func (s *syncService) documentFor(ctx context.Context, inv *domain.Invoice, split, source []byte) ([]byte, error) {
	if len(split) > 0 {
		return split, nil
	}
	if len(source) > 0 {
		return source, nil
	}
	if inv.PdfURL == "" {
		return nil, fmt.Errorf("%w: no source pdf and no pdfUrl", domain.ErrInvalidInput)
	}
	return s.attachments.Resolve(ctx, inv.PdfURL)
}

func (s *syncService) markSynced(ctx context.Context, invoices []domain.Invoice) {
	if s.invoiceRepo == nil {
		return
	}
	var ids []uuid.UUID
	for i := range invoices {
		if invoices[i].ID != uuid.Nil {
			ids = append(ids, invoices[i].ID)
		}
	}
	if len(ids) == 0 {
		return
	}
	if err := s.invoiceRepo.MarkSynced(ctx, ids); err != nil {
		log := logger.WithComponent("service.sync")
		log.Warn().Err(err).Int("invoices", len(ids)).Msg("marking invoices synced failed")
	}
}

func (s *syncService) notifyFailure(ctx context.Context, taskID string, invoices []domain.Invoice, res *port.WebhookResult) {
	if s.notifier == nil {
		return
	}
	numbers := make([]string, len(invoices))
	for i := range invoices {
		numbers[i] = odoo.InvoiceNumber(&invoices[i], i)
	}
	err := s.notifier.NotifySyncFailure(ctx, port.SyncFailure{
		TaskID:         taskID,
		InvoiceNumbers: numbers,
		StatusCode:     res.StatusCode,
		Reason:         res.Error,
	})
	if err != nil {
		log := logger.WithComponent("service.sync")
		log.Warn().Err(err).Str("task_id", taskID).Msg("sync failure notification failed")
	}
}

// invoiceKeys returns each invoice's split key, falling back to its position
// so that keyless invoices never collide.
func invoiceKeys(invoices []domain.Invoice) []string {
	keys := make([]string, len(invoices))
	seen := make(map[string]bool, len(invoices))
	for i := range invoices {
		k := invoices[i].Key()
		if k == "" || seen[k] {
			k = fmt.Sprintf("#%d", i)
		}
		seen[k] = true
		keys[i] = k
	}
	return keys
}
