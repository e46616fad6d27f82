package port

import (
	"context"
	"encoding/json"
)

// WebhookResult is the accounting system's answer to a push. A non-2xx
// answer is a result with Error set, not a Go error.
type WebhookResult struct {
	StatusCode  int             `json:"status"`
	Success     bool            `json:"success"`
	Body        json.RawMessage `json:"data,omitempty"`
	RawResponse string          `json:"rawResponse,omitempty"`
	Error       string          `json:"error,omitempty"`
}

// AccountingWebhook delivers invoice payloads to the accounting system.
type AccountingWebhook interface {
	Send(ctx context.Context, payload any) (*WebhookResult, error)
	Configured() bool
}
