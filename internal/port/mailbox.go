package port

import "context"

// MailMessage is a candidate message from the ingestion mailbox.
type MailMessage struct {
	ID       string
	ThreadID string
	Subject  string
	From     string
	LabelIDs []string
}

// MailAttachment is a decoded attachment of a message.
type MailAttachment struct {
	Filename string
	MimeType string
	Data     []byte
}

// WatchResult is the mailbox's answer to a push-notification subscription.
type WatchResult struct {
	HistoryID  string
	Expiration int64
}

// Mailbox abstracts the Gmail API operations used for invoice ingestion.
type Mailbox interface {
	EnsureLabel(ctx context.Context, name string) (string, error)
	ListCandidates(ctx context.Context, query string, max int) ([]MailMessage, error)
	Attachments(ctx context.Context, messageID string) ([]MailAttachment, error)
	AddLabel(ctx context.Context, messageID, labelID string) error
	MessagesAddedSince(ctx context.Context, historyID string) ([]string, string, error)
	GetMessage(ctx context.Context, messageID string) (*MailMessage, error)
	Watch(ctx context.Context, topic string, labelIDs []string) (*WatchResult, error)
}
