package service_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/zuma-group/bill-integration-platform/internal/domain"
	"github.com/zuma-group/bill-integration-platform/internal/port"
	"github.com/zuma-group/bill-integration-platform/internal/service"
	"github.com/zuma-group/bill-integration-platform/mocks"
)

func newExtraction(extractor port.InvoiceExtractor) (service.ExtractionService, service.AttachmentService) {
	attachments, _ := newAttachments(nil, "")
	s3Cfg := testS3Config()
	return service.NewExtractionService(extractor, attachments, &s3Cfg), attachments
}

func TestExtractionService_Extract_Success(t *testing.T) {
	extractor := new(mocks.MockInvoiceExtractor)
	svc, attachments := newExtraction(extractor)

	extractor.On("Extract", mock.Anything, port.ExtractInput{FileBytes: pdfContent(), ContentType: "application/pdf"}).
		Return(&domain.OCRResult{
			DocumentType: domain.DocumentTypeMultiple,
			Invoices:     []domain.Invoice{{InvoiceNumber: "A-1"}, {InvoiceNumber: "A-2"}},
			ModelUsed:    "gemini-2.5-flash",
		}, nil)

	result, err := svc.Extract(context.Background(), service.ExtractInput{
		Data:        pdfContent(),
		ContentType: "application/pdf",
		Filename:    "scan 1.pdf",
	})

	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(result.TaskID, "TASK-"))
	assert.Equal(t, 2, result.InvoiceCount)
	require.Len(t, result.Invoices, 2)
	for _, inv := range result.Invoices {
		assert.NotEqual(t, uuid.Nil, inv.ID)
		assert.Equal(t, domain.InvoiceStatusExtracted, inv.Status)
		assert.Equal(t, result.TaskID, inv.TaskID)
		assert.NotNil(t, inv.ExtractedAt)
		assert.Contains(t, inv.PdfURL, "/api/v1/attachments/"+result.TaskID+"_scan_1.pdf")
	}
	assert.NotEqual(t, result.Invoices[0].ID, result.Invoices[1].ID)

	data, err := attachments.Resolve(context.Background(), result.Invoices[0].PdfURL)
	require.NoError(t, err)
	assert.Equal(t, pdfContent(), data)
	extractor.AssertExpectations(t)
}

func TestExtractionService_Extract_SniffsContentType(t *testing.T) {
	extractor := new(mocks.MockInvoiceExtractor)
	svc, _ := newExtraction(extractor)

	extractor.On("Extract", mock.Anything, mock.MatchedBy(func(in port.ExtractInput) bool {
		return in.ContentType == "application/pdf"
	})).Return(&domain.OCRResult{DocumentType: domain.DocumentTypeNone, Invoices: []domain.Invoice{}}, nil)

	result, err := svc.Extract(context.Background(), service.ExtractInput{
		Data:        pdfContent(),
		ContentType: "application/octet-stream",
		SourceName:  "msg1_scan.pdf",
	})

	require.NoError(t, err)
	assert.Empty(t, result.Invoices)
	assert.Equal(t, 0, result.InvoiceCount)
	extractor.AssertExpectations(t)
}

func TestExtractionService_Extract_ContentTypeFromExtension(t *testing.T) {
	extractor := new(mocks.MockInvoiceExtractor)
	svc, _ := newExtraction(extractor)

	extractor.On("Extract", mock.Anything, mock.MatchedBy(func(in port.ExtractInput) bool {
		return in.ContentType == "image/jpeg"
	})).Return(&domain.OCRResult{DocumentType: domain.DocumentTypeNone, Invoices: []domain.Invoice{}}, nil)

	_, err := svc.Extract(context.Background(), service.ExtractInput{
		Data:        []byte("not sniffable"),
		ContentType: "application/octet-stream",
		Filename:    "receipt.JPEG",
	})

	require.NoError(t, err)
	extractor.AssertExpectations(t)
}

func TestExtractionService_Extract_Rejections(t *testing.T) {
	extractor := new(mocks.MockInvoiceExtractor)
	svc, _ := newExtraction(extractor)

	_, err := svc.Extract(context.Background(), service.ExtractInput{})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = svc.Extract(context.Background(), service.ExtractInput{Data: []byte("plain text"), ContentType: "text/plain"})
	assert.ErrorIs(t, err, domain.ErrUnsupportedFileType)

	_, err = svc.Extract(context.Background(), service.ExtractInput{Data: make([]byte, 2*1024*1024), ContentType: "application/pdf"})
	assert.ErrorIs(t, err, domain.ErrFileTooLarge)

	extractor.AssertNotCalled(t, "Extract", mock.Anything, mock.Anything)
}

func TestExtractionService_Extract_ProviderError(t *testing.T) {
	extractor := new(mocks.MockInvoiceExtractor)
	svc, _ := newExtraction(extractor)
	providerErr := errors.New("gemini service unavailable")

	extractor.On("Extract", mock.Anything, mock.Anything).Return(nil, providerErr)

	_, err := svc.Extract(context.Background(), service.ExtractInput{Data: pdfContent(), ContentType: "application/pdf"})
	assert.ErrorIs(t, err, providerErr)
}
