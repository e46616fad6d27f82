package gemini

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/zuma-group/bill-integration-platform/internal/config"
	"github.com/zuma-group/bill-integration-platform/internal/domain"
	"github.com/zuma-group/bill-integration-platform/internal/parser"
	"github.com/zuma-group/bill-integration-platform/internal/port"
)

const (
	apiBaseURL   = "https://generativelanguage.googleapis.com/v1beta/models"
	providerName = "gemini"
)

func init() {
	parser.RegisterProvider(providerName, func(cfg *config.ParserProviderConfig) (port.InvoiceExtractor, error) {
		if cfg.APIKey == "" {
			return nil, fmt.Errorf("gemini api key is not configured")
		}
		return NewParser(cfg), nil
	})
}

// Parser implements port.InvoiceExtractor using Google's Gemini API.
type Parser struct {
	apiKey   string
	model    string
	endpoint string
	client   *http.Client
}

// NewParser creates a Gemini-based invoice extractor.
func NewParser(cfg *config.ParserProviderConfig) *Parser {
	return newParser(cfg, "")
}

// NewParserWithEndpoint creates a parser pointing at a custom API endpoint (for testing).
func NewParserWithEndpoint(cfg *config.ParserProviderConfig, endpoint string) *Parser {
	return newParser(cfg, endpoint)
}

func newParser(cfg *config.ParserProviderConfig, endpoint string) *Parser {
	model := cfg.DefaultModel
	if model == "" {
		model = "gemini-2.5-flash"
	}
	timeout := time.Duration(cfg.TimeoutSecs) * time.Second
	if timeout == 0 {
		timeout = 120 * time.Second
	}
	if endpoint == "" {
		endpoint = fmt.Sprintf("%s/%s:generateContent", apiBaseURL, model)
	}
	return &Parser{
		apiKey:   cfg.APIKey,
		model:    model,
		endpoint: endpoint,
		client:   &http.Client{Timeout: timeout},
	}
}

func (p *Parser) Extract(ctx context.Context, input port.ExtractInput) (*domain.OCRResult, error) {
	mimeType, err := toGeminiMimeType(input.ContentType)
	if err != nil {
		return nil, err
	}

	reqBody := map[string]interface{}{
		"contents": []map[string]interface{}{
			{
				"role": "user",
				"parts": []map[string]interface{}{
					{
						"text": parser.BuildInvoicePrompt(),
					},
					{
						"inline_data": map[string]interface{}{
							"mime_type": mimeType,
							"data":      base64.StdEncoding.EncodeToString(input.FileBytes),
						},
					},
				},
			},
		},
		"generationConfig": map[string]interface{}{
			"temperature":      0.1,
			"responseMimeType": "application/json",
		},
	}

	bodyBytes, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("marshaling request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.endpoint, bytes.NewReader(bodyBytes))
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-goog-api-key", p.apiKey)

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("calling gemini API: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		apiErr := fmt.Errorf("%s%s", statusMessage(resp.StatusCode), apiErrorDetail(respBody))
		if resp.StatusCode == http.StatusTooManyRequests {
			return nil, parser.NewRateLimitError(providerName, apiErr, parser.ParseRetryAfterHeader(resp.Header.Get("Retry-After")))
		}
		return nil, apiErr
	}

	result, err := parseResponse(respBody)
	if err != nil {
		return nil, err
	}
	result.ModelUsed = p.model
	return result, nil
}

func toGeminiMimeType(contentType string) (string, error) {
	switch contentType {
	case "application/pdf":
		return "application/pdf", nil
	case "image/jpeg", "image/jpg":
		return "image/jpeg", nil
	case "image/png":
		return "image/png", nil
	default:
		return "", fmt.Errorf("%w for OCR: %s", domain.ErrUnsupportedFileType, contentType)
	}
}

func statusMessage(status int) string {
	switch status {
	case http.StatusBadRequest:
		return "gemini bad request: invalid request format or parameters"
	case http.StatusUnauthorized:
		return "gemini unauthorized: invalid API key"
	case http.StatusForbidden:
		return "gemini forbidden: API key lacks required permissions"
	case http.StatusTooManyRequests:
		return "gemini rate limit exceeded"
	case http.StatusInternalServerError:
		return "gemini internal server error"
	case http.StatusServiceUnavailable:
		return "gemini service unavailable: temporarily down or overloaded"
	default:
		return fmt.Sprintf("gemini API error (status %d)", status)
	}
}

func apiErrorDetail(body []byte) string {
	var payload struct {
		Error struct {
			Message string `json:"message"`
		} `json:"error"`
	}
	if err := json.Unmarshal(body, &payload); err != nil || payload.Error.Message == "" {
		return ""
	}
	return ": " + payload.Error.Message
}

// geminiResponse models the Gemini API response.
type geminiResponse struct {
	Candidates []struct {
		Content struct {
			Parts []struct {
				Text string `json:"text"`
			} `json:"parts"`
		} `json:"content"`
		FinishReason string `json:"finishReason"`
	} `json:"candidates"`
}

func parseResponse(body []byte) (*domain.OCRResult, error) {
	var resp geminiResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("unmarshaling response: %w", err)
	}

	if len(resp.Candidates) == 0 {
		return nil, fmt.Errorf("empty response from API: no candidates")
	}

	if len(resp.Candidates[0].Content.Parts) == 0 || resp.Candidates[0].Content.Parts[0].Text == "" {
		return nil, fmt.Errorf("empty response from API: no parts")
	}

	text := resp.Candidates[0].Content.Parts[0].Text
	result, err := parser.DecodeOCRResult(text)
	if err != nil {
		return nil, fmt.Errorf("%w (finish reason %q, raw: %s)", err, resp.Candidates[0].FinishReason, truncate(text, 500))
	}
	return result, nil
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}
