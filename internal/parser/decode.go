package parser

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"github.com/zuma-group/bill-integration-platform/internal/domain"
	"github.com/zuma-group/bill-integration-platform/internal/jsonrepair"
	"github.com/zuma-group/bill-integration-platform/internal/logger"
)

var claimedCountRe = regexp.MustCompile(`"invoiceCount":\s*(\d+)`)

// DecodeOCRResult decodes the provider's JSON text into an OCRResult.
//
// Well-formed text must carry documentType and an invoices array. Text that
// is not well-formed is assumed truncated and goes through jsonrepair; a
// repaired document is accepted as is, with Repaired set. When even the
// repaired text cannot be decoded a *TruncatedResponseError is returned.
func DecodeOCRResult(text string) (*domain.OCRResult, error) {
	text = stripCodeFence(text)

	if json.Valid([]byte(text)) {
		var raw struct {
			domain.OCRResult
			Invoices *[]domain.Invoice `json:"invoices"`
		}
		if err := json.Unmarshal([]byte(text), &raw); err != nil {
			return nil, fmt.Errorf("decoding OCR response: %w", err)
		}
		if raw.DocumentType == "" || raw.Invoices == nil {
			return nil, ErrMissingFields
		}
		result := raw.OCRResult
		result.Invoices = *raw.Invoices
		return &result, nil
	}

	repaired := jsonrepair.Repair(text)
	var result domain.OCRResult
	if err := json.Unmarshal([]byte(repaired), &result); err != nil {
		claimed := "unknown"
		if m := claimedCountRe.FindStringSubmatch(text); m != nil {
			claimed = m[1]
		}
		return nil, &TruncatedResponseError{ClaimedCount: claimed, Err: err}
	}
	if result.Invoices == nil {
		result.Invoices = []domain.Invoice{}
	}
	result.Repaired = true

	log := logger.WithComponent("parser")
	log.Warn().
		Int("claimed", result.InvoiceCount).
		Int("salvaged", len(result.Invoices)).
		Msg("repaired truncated OCR response")
	return &result, nil
}

// stripCodeFence removes a ```json fence some models wrap around JSON output.
func stripCodeFence(text string) string {
	t := strings.TrimSpace(text)
	if !strings.HasPrefix(t, "```") {
		return t
	}
	t = strings.TrimPrefix(t, "```json")
	t = strings.TrimPrefix(t, "```")
	t = strings.TrimSuffix(strings.TrimSpace(t), "```")
	return strings.TrimSpace(t)
}
