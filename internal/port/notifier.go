package port

import "context"

// SyncFailure describes a push to the accounting system that did not succeed.
type SyncFailure struct {
	TaskID         string
	InvoiceNumbers []string
	StatusCode     int
	Reason         string
}

// Notifier tells operators about failed syncs.
type Notifier interface {
	NotifySyncFailure(ctx context.Context, failure SyncFailure) error
}
