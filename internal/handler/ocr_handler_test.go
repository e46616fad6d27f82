package handler_test

import (
	"encoding/base64"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/zuma-group/bill-integration-platform/internal/domain"
	"github.com/zuma-group/bill-integration-platform/internal/handler"
	"github.com/zuma-group/bill-integration-platform/internal/parser"
	"github.com/zuma-group/bill-integration-platform/internal/service"
	"github.com/zuma-group/bill-integration-platform/mocks"
)

var pdfBytes = []byte("%PDF-1.4 test content")

func TestOCRHandler_Extract_Multipart(t *testing.T) {
	svc := new(mocks.MockExtractionService)
	h := handler.NewOCRHandler(svc)

	svc.On("Extract", mock.Anything, mock.MatchedBy(func(in service.ExtractInput) bool {
		return in.Filename == "scan.pdf" && string(in.Data) == string(pdfBytes)
	})).Return(&domain.OCRResult{DocumentType: domain.DocumentTypeSingle, InvoiceCount: 1, TaskID: "TASK-1"}, nil)

	body, ct := multipartBody(t, nil, "file", "scan.pdf", pdfBytes)
	c, w := newContext(http.MethodPost, "/api/v1/ocr", body, ct)

	h.Extract(c)

	assert.Equal(t, http.StatusOK, w.Code)
	resp := decodeResponse(t, w)
	assert.True(t, resp.Success)
	svc.AssertExpectations(t)
}

func TestOCRHandler_Extract_DataURL(t *testing.T) {
	svc := new(mocks.MockExtractionService)
	h := handler.NewOCRHandler(svc)

	svc.On("Extract", mock.Anything, mock.MatchedBy(func(in service.ExtractInput) bool {
		return in.ContentType == "image/png" && string(in.Data) == "png-bytes"
	})).Return(&domain.OCRResult{}, nil)

	c, w := jsonContext(http.MethodPost, "/api/v1/ocr", map[string]string{
		"base64": "data:image/png;base64," + base64.StdEncoding.EncodeToString([]byte("png-bytes")),
	})

	h.Extract(c)

	assert.Equal(t, http.StatusOK, w.Code)
	svc.AssertExpectations(t)
}

func TestOCRHandler_Extract_MissingFile(t *testing.T) {
	svc := new(mocks.MockExtractionService)
	h := handler.NewOCRHandler(svc)

	body, ct := multipartBody(t, map[string]string{"other": "x"}, "", "", nil)
	c, w := newContext(http.MethodPost, "/api/v1/ocr", body, ct)

	h.Extract(c)

	assertErrorCode(t, w, http.StatusBadRequest, "MISSING_FILE")
	svc.AssertNotCalled(t, "Extract", mock.Anything, mock.Anything)
}

func TestOCRHandler_Extract_InvalidBase64(t *testing.T) {
	svc := new(mocks.MockExtractionService)
	h := handler.NewOCRHandler(svc)

	c, w := jsonContext(http.MethodPost, "/api/v1/ocr", map[string]string{"base64": "***"})

	h.Extract(c)

	assertErrorCode(t, w, http.StatusBadRequest, "INVALID_INPUT")
}

func TestOCRHandler_Extract_Truncated(t *testing.T) {
	svc := new(mocks.MockExtractionService)
	h := handler.NewOCRHandler(svc)

	svc.On("Extract", mock.Anything, mock.Anything).
		Return(nil, &parser.TruncatedResponseError{ClaimedCount: "4", Salvaged: 0})

	body, ct := multipartBody(t, nil, "file", "scan.pdf", pdfBytes)
	c, w := newContext(http.MethodPost, "/api/v1/ocr", body, ct)

	h.Extract(c)

	assertErrorCode(t, w, http.StatusBadGateway, "OCR_RESPONSE_TRUNCATED")
}
