package handler

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/zuma-group/bill-integration-platform/internal/domain"
	"github.com/zuma-group/bill-integration-platform/internal/logger"
	"github.com/zuma-group/bill-integration-platform/internal/parser"
	"github.com/zuma-group/bill-integration-platform/internal/pdfsplit"
)

// APIResponse is the standard envelope for all API responses.
type APIResponse struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   *APIError   `json:"error,omitempty"`
	Meta    *PagMeta    `json:"meta,omitempty"`
}

// APIError holds error details in the response.
type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// PagMeta holds pagination metadata.
type PagMeta struct {
	Total  int `json:"total"`
	Offset int `json:"offset"`
	Limit  int `json:"limit"`
}

// RespondOK sends a 200 success response.
func RespondOK(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, APIResponse{Success: true, Data: data})
}

// RespondCreated sends a 201 success response.
func RespondCreated(c *gin.Context, data interface{}) {
	c.JSON(http.StatusCreated, APIResponse{Success: true, Data: data})
}

// RespondPaginated sends a 200 success response with pagination metadata.
func RespondPaginated(c *gin.Context, data interface{}, meta PagMeta) {
	c.JSON(http.StatusOK, APIResponse{Success: true, Data: data, Meta: &meta})
}

// RespondError sends an error response with the given status code.
func RespondError(c *gin.Context, status int, code, msg string) {
	c.JSON(status, APIResponse{
		Success: false,
		Error:   &APIError{Code: code, Message: msg},
	})
}

// MapDomainError translates domain errors to HTTP status codes and error codes.
func MapDomainError(err error) (status int, code, msg string) {
	var truncated *parser.TruncatedResponseError
	var rateLimited *parser.RateLimitError
	switch {
	case errors.As(err, &truncated):
		return http.StatusBadGateway, "OCR_RESPONSE_TRUNCATED", truncated.Error()
	case errors.As(err, &rateLimited):
		return http.StatusTooManyRequests, "OCR_RATE_LIMITED",
			fmt.Sprintf("OCR provider is rate limited; retry after %s", rateLimited.RetryAfter)
	case errors.Is(err, parser.ErrMissingFields):
		return http.StatusBadGateway, "OCR_RESPONSE_INVALID", "OCR response is missing required fields"
	case errors.Is(err, pdfsplit.ErrInvalidPDF):
		return http.StatusBadRequest, "INVALID_PDF", "source document is not a readable PDF"
	case errors.Is(err, domain.ErrInvoiceNotFound):
		return http.StatusNotFound, "INVOICE_NOT_FOUND", "invoice not found"
	case errors.Is(err, domain.ErrAttachmentNotFound):
		return http.StatusNotFound, "ATTACHMENT_NOT_FOUND", "attachment not found or expired"
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound, "NOT_FOUND", "resource not found"
	case errors.Is(err, domain.ErrInvalidLinkToken):
		return http.StatusForbidden, "INVALID_LINK_TOKEN", "attachment link is invalid or expired"
	case errors.Is(err, domain.ErrUnsupportedFileType):
		return http.StatusBadRequest, "UNSUPPORTED_FILE_TYPE", "unsupported file type; allowed: pdf, jpg, png"
	case errors.Is(err, domain.ErrFileTooLarge):
		return http.StatusRequestEntityTooLarge, "FILE_TOO_LARGE", "file exceeds maximum allowed size"
	case errors.Is(err, domain.ErrUploadFailed):
		return http.StatusInternalServerError, "UPLOAD_FAILED", "file upload to storage failed"
	case errors.Is(err, domain.ErrNoInvoices):
		return http.StatusBadRequest, "NO_INVOICES", "no invoices provided"
	case errors.Is(err, domain.ErrInvalidInput):
		return http.StatusBadRequest, "INVALID_INPUT", err.Error()
	case errors.Is(err, domain.ErrWebhookNotConfigured):
		return http.StatusInternalServerError, "WEBHOOK_NOT_CONFIGURED", "Odoo webhook URL not configured"
	case errors.Is(err, domain.ErrMailboxDisabled):
		return http.StatusServiceUnavailable, "GMAIL_DISABLED", "gmail ingestion is not enabled"
	default:
		return http.StatusInternalServerError, "INTERNAL_ERROR", "an internal error occurred"
	}
}

// HandleError maps a domain error and sends the appropriate error response.
func HandleError(c *gin.Context, err error) {
	status, code, msg := MapDomainError(err)
	if status >= 500 {
		l := logger.FromContext(c.Request.Context())
		l.Error().Err(err).Str("code", code).Msg("request failed")
	}
	RespondError(c, status, code, msg)
}
