package domain

import "errors"

var (
	ErrNotFound             = errors.New("resource not found")
	ErrInvoiceNotFound      = errors.New("invoice not found")
	ErrAttachmentNotFound   = errors.New("attachment not found")
	ErrUnsupportedFileType  = errors.New("unsupported file type")
	ErrFileTooLarge         = errors.New("file exceeds maximum allowed size")
	ErrUploadFailed         = errors.New("file upload to storage failed")
	ErrNoInvoices           = errors.New("no invoices provided")
	ErrInvalidInput         = errors.New("invalid input")
	ErrWebhookNotConfigured = errors.New("accounting webhook url is not configured")
	ErrInvalidLinkToken     = errors.New("attachment link is invalid or expired")
	ErrMailboxDisabled      = errors.New("gmail ingestion is not enabled")
)
