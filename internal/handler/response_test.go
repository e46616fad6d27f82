package handler_test

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/zuma-group/bill-integration-platform/internal/domain"
	"github.com/zuma-group/bill-integration-platform/internal/handler"
	"github.com/zuma-group/bill-integration-platform/internal/parser"
	"github.com/zuma-group/bill-integration-platform/internal/pdfsplit"
)

func TestMapDomainError(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
		code   string
	}{
		{"invoice not found", domain.ErrInvoiceNotFound, http.StatusNotFound, "INVOICE_NOT_FOUND"},
		{"attachment not found", domain.ErrAttachmentNotFound, http.StatusNotFound, "ATTACHMENT_NOT_FOUND"},
		{"generic not found", domain.ErrNotFound, http.StatusNotFound, "NOT_FOUND"},
		{"bad link", domain.ErrInvalidLinkToken, http.StatusForbidden, "INVALID_LINK_TOKEN"},
		{"unsupported", fmt.Errorf("%w: text/plain", domain.ErrUnsupportedFileType), http.StatusBadRequest, "UNSUPPORTED_FILE_TYPE"},
		{"too large", domain.ErrFileTooLarge, http.StatusRequestEntityTooLarge, "FILE_TOO_LARGE"},
		{"upload", domain.ErrUploadFailed, http.StatusInternalServerError, "UPLOAD_FAILED"},
		{"no invoices", domain.ErrNoInvoices, http.StatusBadRequest, "NO_INVOICES"},
		{"invalid input", domain.ErrInvalidInput, http.StatusBadRequest, "INVALID_INPUT"},
		{"webhook", domain.ErrWebhookNotConfigured, http.StatusInternalServerError, "WEBHOOK_NOT_CONFIGURED"},
		{"mailbox", domain.ErrMailboxDisabled, http.StatusServiceUnavailable, "GMAIL_DISABLED"},
		{"invalid pdf", fmt.Errorf("split: %w", pdfsplit.ErrInvalidPDF), http.StatusBadRequest, "INVALID_PDF"},
		{"truncated", &parser.TruncatedResponseError{ClaimedCount: "3", Salvaged: 1, Err: errors.New("eof")}, http.StatusBadGateway, "OCR_RESPONSE_TRUNCATED"},
		{"rate limited", parser.NewRateLimitError("gemini", errors.New("429"), 30), http.StatusTooManyRequests, "OCR_RATE_LIMITED"},
		{"missing fields", parser.ErrMissingFields, http.StatusBadGateway, "OCR_RESPONSE_INVALID"},
		{"unknown", errors.New("boom"), http.StatusInternalServerError, "INTERNAL_ERROR"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, code, _ := handler.MapDomainError(tt.err)
			assert.Equal(t, tt.status, status)
			assert.Equal(t, tt.code, code)
		})
	}
}
