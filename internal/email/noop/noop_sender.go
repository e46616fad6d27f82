package noop

import (
	"context"
	"strings"

	"github.com/zuma-group/bill-integration-platform/internal/logger"
	"github.com/zuma-group/bill-integration-platform/internal/port"
)

type noopSender struct{}

// NewNoopSender creates a Notifier that only logs sync failures.
func NewNoopSender() port.Notifier {
	return noopSender{}
}

func (noopSender) NotifySyncFailure(_ context.Context, failure port.SyncFailure) error {
	log := logger.WithComponent("email.noop")
	log.Warn().
		Str("task_id", failure.TaskID).
		Int("status", failure.StatusCode).
		Str("reason", failure.Reason).
		Str("invoices", strings.Join(failure.InvoiceNumbers, ",")).
		Msg("odoo sync failed")
	return nil
}
