package odoo

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/zuma-group/bill-integration-platform/internal/config"
	"github.com/zuma-group/bill-integration-platform/internal/domain"
	"github.com/zuma-group/bill-integration-platform/internal/logger"
	"github.com/zuma-group/bill-integration-platform/internal/port"
)

// Client posts payloads to the Odoo webhook.
type Client struct {
	url    string
	apiKey string
	client *http.Client
}

// NewClient creates a webhook client from cfg.
func NewClient(cfg config.OdooConfig) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		url:    cfg.WebhookURL,
		apiKey: cfg.APIKey,
		client: &http.Client{Timeout: timeout},
	}
}

// Configured reports whether a webhook URL is set.
func (c *Client) Configured() bool {
	return c.url != ""
}

// Send posts payload as JSON. A non-2xx answer is reported through the
// result; only transport and encoding failures are returned as errors.
func (c *Client) Send(ctx context.Context, payload any) (*port.WebhookResult, error) {
	if !c.Configured() {
		return nil, domain.ErrWebhookNotConfigured
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshaling payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("X-API-Key", c.apiKey)
	}

	log := logger.WithComponent("odoo")
	start := time.Now()
	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("calling odoo webhook: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading webhook response: %w", err)
	}

	result := &port.WebhookResult{
		StatusCode: resp.StatusCode,
		Success:    resp.StatusCode >= 200 && resp.StatusCode < 300,
	}
	if json.Valid(respBody) {
		result.Body = json.RawMessage(respBody)
	} else {
		result.RawResponse = string(respBody)
	}
	if !result.Success {
		result.Error = fmt.Sprintf("odoo webhook returned %s", resp.Status)
	}

	log.Info().
		Int("status", resp.StatusCode).
		Int("request_bytes", len(body)).
		Dur("latency", time.Since(start)).
		Bool("success", result.Success).
		Msg("webhook delivered")
	return result, nil
}
