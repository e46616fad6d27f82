package handler

import (
	"github.com/zuma-group/bill-integration-platform/internal/domain"
)

// Swagger type definitions for API documentation.

// --- Request Types ---

// OCRRequest is the JSON form of an OCR request.
type OCRRequest struct {
	Base64   string `json:"base64" example:"data:application/pdf;base64,JVBERi0xLjQK..."`
	MimeType string `json:"mimeType" example:"application/pdf"`
	Filename string `json:"filename" example:"scan.pdf"`
}

// PushRequest is the JSON form of a push to Odoo.
type PushRequest struct {
	Invoices          []domain.Invoice `json:"invoices"`
	OriginalPdfBase64 string           `json:"originalPdfBase64" example:"JVBERi0xLjQK..."`
}

// CreateInvoicesRequest documents the wrapper form of POST /invoices.
type CreateInvoicesRequest struct {
	Invoices []domain.Invoice `json:"invoices"`
}

// UploadRequest is the JSON form of a direct upload.
type UploadRequest struct {
	Base64            string `json:"base64"`
	PdfBase64         string `json:"pdfBase64"`
	OriginalPdfBase64 string `json:"originalPdfBase64"`
	DataURL           string `json:"dataUrl"`
	Filename          string `json:"filename" example:"invoice.pdf"`
	Folder            string `json:"folder" example:"bills/2024"`
	Key               string `json:"key"`
	MimeType          string `json:"mimeType" example:"application/pdf"`
}

// PubSubPushRequest is the envelope Google Pub/Sub posts to push endpoints.
type PubSubPushRequest struct {
	Message struct {
		Data      string `json:"data"`
		MessageID string `json:"messageId"`
	} `json:"message"`
	Subscription string `json:"subscription"`
}

// WatchRequest limits a mailbox watch to some labels.
type WatchRequest struct {
	LabelIDs []string `json:"labelIds" example:"INBOX"`
}

// --- Response Types ---

// Response is the generic success envelope.
type Response struct {
	Success bool        `json:"success" example:"true"`
	Data    interface{} `json:"data"`
	Meta    *PagMeta    `json:"meta,omitempty"`
}

// ErrorResponseBody is the error envelope.
type ErrorResponseBody struct {
	Success bool     `json:"success" example:"false"`
	Error   APIError `json:"error"`
}

// MessageResponse carries a plain confirmation.
type MessageResponse struct {
	Message string `json:"message" example:"invoice deleted"`
}

// PushStatusResponse answers a push status lookup.
type PushStatusResponse struct {
	TaskID  string `json:"taskId" example:"TASK-1700000000000-ab12cd34e"`
	Message string `json:"message"`
	Info    string `json:"info"`
}

// PendingResponse is a drained batch of queued invoices.
type PendingResponse struct {
	Invoices  []domain.Invoice `json:"invoices"`
	Count     int              `json:"count" example:"2"`
	Remaining int              `json:"remaining" example:"0"`
}

// WatchResponse is the outcome of a mailbox watch.
type WatchResponse struct {
	HistoryID  string `json:"historyId" example:"123456"`
	Expiration int64  `json:"expiration" example:"1700604800000"`
}

// OAuthCallbackResponse carries the refresh token from a completed consent.
type OAuthCallbackResponse struct {
	RefreshToken string `json:"refreshToken"`
	Message      string `json:"message"`
}
