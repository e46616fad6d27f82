package service

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"regexp"
	"slices"
	"strings"

	"github.com/zuma-group/bill-integration-platform/internal/config"
	"github.com/zuma-group/bill-integration-platform/internal/domain"
	"github.com/zuma-group/bill-integration-platform/internal/gmail"
	"github.com/zuma-group/bill-integration-platform/internal/logger"
	"github.com/zuma-group/bill-integration-platform/internal/port"
	"github.com/zuma-group/bill-integration-platform/internal/queue"
)

// MessageOutcome reports what happened to one mailbox message.
type MessageOutcome struct {
	MessageID   string `json:"messageId"`
	Subject     string `json:"subject,omitempty"`
	Attachments int    `json:"attachments"`
	Invoices    int    `json:"invoices"`
	Skipped     bool   `json:"skipped,omitempty"`
	Error       string `json:"error,omitempty"`
}

// IngestResult summarises a poll or notification run.
type IngestResult struct {
	Processed   int              `json:"processed"`
	Skipped     int              `json:"skipped"`
	Invoices    int              `json:"invoices"`
	QueueSize   int              `json:"queueSize"`
	HistoryID   string           `json:"historyId,omitempty"`
	Messages    []MessageOutcome `json:"messages"`
	FailedCount int              `json:"failed"`
}

// PubSubNotification is the decoded body of a Gmail push message.
type PubSubNotification struct {
	EmailAddress string          `json:"emailAddress"`
	HistoryID    json.RawMessage `json:"historyId"`
}

// GmailService ingests invoices from a mailbox into the pending queue.
type GmailService interface {
	Poll(ctx context.Context, max int) (*IngestResult, error)
	HandleNotification(ctx context.Context, data string) (*IngestResult, error)
	Watch(ctx context.Context, labelIDs []string) (*port.WatchResult, error)
	Enabled() bool
}

type gmailService struct {
	mailbox    port.Mailbox
	extraction ExtractionService
	pending    *queue.Pending
	history    *gmail.HistoryState
	cfg        config.GmailConfig
}

// NewGmailService creates a GmailService. mailbox may be nil, in which case
// every operation returns domain.ErrMailboxDisabled.
func NewGmailService(
	mailbox port.Mailbox,
	extraction ExtractionService,
	pending *queue.Pending,
	history *gmail.HistoryState,
	cfg config.GmailConfig,
) GmailService {
	if history == nil {
		history = gmail.NewHistoryState(cfg.StartHistoryID)
	}
	if cfg.MaxPerPoll <= 0 {
		cfg.MaxPerPoll = 10
	}
	return &gmailService{
		mailbox:    mailbox,
		extraction: extraction,
		pending:    pending,
		history:    history,
		cfg:        cfg,
	}
}

func (s *gmailService) Enabled() bool {
	return s.mailbox != nil
}

func (s *gmailService) Poll(ctx context.Context, max int) (*IngestResult, error) {
	if s.mailbox == nil {
		return nil, domain.ErrMailboxDisabled
	}
	if max <= 0 {
		max = s.cfg.MaxPerPoll
	}
	labelID, err := s.mailbox.EnsureLabel(ctx, s.cfg.ProcessedLabel)
	if err != nil {
		return nil, fmt.Errorf("ensuring processed label: %w", err)
	}
	messages, err := s.mailbox.ListCandidates(ctx, s.cfg.Query, max)
	if err != nil {
		return nil, fmt.Errorf("listing candidate messages: %w", err)
	}

	result := &IngestResult{Messages: []MessageOutcome{}}
	for i := range messages {
		s.ingest(ctx, &messages[i], labelID, result)
	}
	result.QueueSize = s.pending.Size()
	result.HistoryID = s.history.Last()
	return result, nil
}

func (s *gmailService) HandleNotification(ctx context.Context, data string) (*IngestResult, error) {
	if s.mailbox == nil {
		return nil, domain.ErrMailboxDisabled
	}
	note, err := DecodePubSubData(data)
	if err != nil {
		return nil, err
	}
	notified := historyIDString(note.HistoryID)

	log := logger.WithComponent("service.gmail")
	log.Info().Str("email", note.EmailAddress).Str("history_id", notified).Msg("gmail notification received")

	start := s.history.Last()
	if start == "" {
		start = notified
	}
	result := &IngestResult{Messages: []MessageOutcome{}}
	if start == "" {
		result.QueueSize = s.pending.Size()
		return result, nil
	}

	ids, latest, err := s.mailbox.MessagesAddedSince(ctx, start)
	if err != nil {
		return nil, fmt.Errorf("listing mailbox history: %w", err)
	}
	labelID, err := s.mailbox.EnsureLabel(ctx, s.cfg.ProcessedLabel)
	if err != nil {
		return nil, fmt.Errorf("ensuring processed label: %w", err)
	}

	for _, id := range ids {
		msg, err := s.mailbox.GetMessage(ctx, id)
		if err != nil {
			result.FailedCount++
			result.Messages = append(result.Messages, MessageOutcome{MessageID: id, Error: err.Error()})
			continue
		}
		s.ingest(ctx, msg, labelID, result)
	}

	s.history.Advance(latest)
	s.history.Advance(notified)
	result.HistoryID = s.history.Last()
	result.QueueSize = s.pending.Size()
	return result, nil
}

func (s *gmailService) Watch(ctx context.Context, labelIDs []string) (*port.WatchResult, error) {
	if s.mailbox == nil {
		return nil, domain.ErrMailboxDisabled
	}
	if s.cfg.PubSubTopic == "" {
		return nil, fmt.Errorf("%w: gmail pubsub topic is not configured", domain.ErrInvalidInput)
	}
	res, err := s.mailbox.Watch(ctx, s.cfg.PubSubTopic, labelIDs)
	if err != nil {
		return nil, fmt.Errorf("starting gmail watch: %w", err)
	}
	s.history.Advance(res.HistoryID)
	return res, nil
}

var unsafeAttachmentName = regexp.MustCompile(`[^a-zA-Z0-9_.-]`)

// ingest extracts every invoice attachment of msg, queues the invoices and
// labels the message. A message already carrying the label is skipped.
func (s *gmailService) ingest(ctx context.Context, msg *port.MailMessage, labelID string, result *IngestResult) {
	log := logger.WithComponent("service.gmail")
	outcome := MessageOutcome{MessageID: msg.ID, Subject: msg.Subject}

	if slices.Contains(msg.LabelIDs, labelID) {
		outcome.Skipped = true
		result.Skipped++
		result.Messages = append(result.Messages, outcome)
		return
	}

	attachments, err := s.mailbox.Attachments(ctx, msg.ID)
	if err != nil {
		log.Error().Err(err).Str("message_id", msg.ID).Msg("fetching attachments failed")
		outcome.Error = err.Error()
		result.FailedCount++
		result.Messages = append(result.Messages, outcome)
		return
	}
	outcome.Attachments = len(attachments)

	var failures []string
	for _, att := range attachments {
		safe := unsafeAttachmentName.ReplaceAllString(att.Filename, "_")
		ocr, err := s.extraction.Extract(ctx, ExtractInput{
			Data:        att.Data,
			ContentType: att.MimeType,
			SourceName:  msg.ID + "_" + safe,
			Filename:    safe,
		})
		if err != nil {
			log.Warn().Err(err).Str("message_id", msg.ID).Str("filename", att.Filename).Msg("attachment extraction failed")
			failures = append(failures, att.Filename+": "+err.Error())
			continue
		}
		for i := range ocr.Invoices {
			ocr.Invoices[i].BatchID = msg.ID
		}
		s.pending.Enqueue(ocr.Invoices...)
		outcome.Invoices += len(ocr.Invoices)
	}

	if len(failures) > 0 {
		outcome.Error = strings.Join(failures, "; ")
	}
	if len(failures) == len(attachments) && len(attachments) > 0 {
		result.FailedCount++
		result.Messages = append(result.Messages, outcome)
		return
	}

	if err := s.mailbox.AddLabel(ctx, msg.ID, labelID); err != nil {
		log.Warn().Err(err).Str("message_id", msg.ID).Msg("labelling message failed")
	}
	result.Processed++
	result.Invoices += outcome.Invoices
	result.Messages = append(result.Messages, outcome)
	log.Info().Str("message_id", msg.ID).Int("invoices", outcome.Invoices).Msg("message ingested")
}

// DecodePubSubData decodes the base64 data field of a Pub/Sub push message.
func DecodePubSubData(data string) (*PubSubNotification, error) {
	if data == "" {
		return nil, fmt.Errorf("%w: empty notification data", domain.ErrInvalidInput)
	}
	raw, err := base64.StdEncoding.DecodeString(data)
	if err != nil {
		raw, err = base64.URLEncoding.DecodeString(data)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: notification data is not base64", domain.ErrInvalidInput)
	}
	var note PubSubNotification
	if err := json.Unmarshal(raw, &note); err != nil {
		return nil, fmt.Errorf("%w: notification data is not json", domain.ErrInvalidInput)
	}
	return &note, nil
}

// historyIDString accepts the history id as either a JSON string or number.
func historyIDString(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	var n json.Number
	if err := json.Unmarshal(raw, &n); err == nil {
		return n.String()
	}
	return ""
}
