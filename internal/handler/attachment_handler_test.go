package handler_test

import (
	"encoding/base64"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/zuma-group/bill-integration-platform/internal/domain"
	"github.com/zuma-group/bill-integration-platform/internal/handler"
	"github.com/zuma-group/bill-integration-platform/internal/port"
	"github.com/zuma-group/bill-integration-platform/internal/service"
	"github.com/zuma-group/bill-integration-platform/mocks"
)

func TestAttachmentHandler_Get(t *testing.T) {
	svc := new(mocks.MockAttachmentService)
	h := handler.NewAttachmentHandler(svc)
	svc.On("Get", mock.Anything, "INV_1.pdf", "tok").Return(&port.CachedFile{Data: pdfBytes}, nil)

	c, w := newContext(http.MethodGet, "/api/v1/attachments/INV_1.pdf?token=tok", nil, "")
	c.Params = gin.Params{{Key: "filename", Value: "INV_1.pdf"}}
	h.Get(c)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/pdf", w.Header().Get("Content-Type"))
	assert.Equal(t, `inline; filename="INV_1.pdf"`, w.Header().Get("Content-Disposition"))
	assert.Equal(t, "public, max-age=3600", w.Header().Get("Cache-Control"))
	assert.Equal(t, pdfBytes, w.Body.Bytes())
}

func TestAttachmentHandler_Get_Errors(t *testing.T) {
	tests := []struct {
		err    error
		status int
		code   string
	}{
		{domain.ErrAttachmentNotFound, http.StatusNotFound, "ATTACHMENT_NOT_FOUND"},
		{domain.ErrInvalidLinkToken, http.StatusForbidden, "INVALID_LINK_TOKEN"},
	}
	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			svc := new(mocks.MockAttachmentService)
			h := handler.NewAttachmentHandler(svc)
			svc.On("Get", mock.Anything, "x.pdf", "").Return(nil, tt.err)

			c, w := newContext(http.MethodGet, "/api/v1/attachments/x.pdf", nil, "")
			c.Params = gin.Params{{Key: "filename", Value: "x.pdf"}}
			h.Get(c)

			assertErrorCode(t, w, tt.status, tt.code)
		})
	}
}

func TestAttachmentHandler_Upload_Multipart(t *testing.T) {
	svc := new(mocks.MockAttachmentService)
	h := handler.NewAttachmentHandler(svc)
	svc.On("Upload", mock.Anything, mock.MatchedBy(func(in service.UploadObjectInput) bool {
		return in.Filename == "bill.pdf" && in.Folder == "bills" && string(in.Data) == string(pdfBytes)
	})).Return(&service.UploadObjectResult{Key: "bills/bill.pdf"}, nil)

	body, ct := multipartBody(t, map[string]string{"folder": "bills"}, "pdf", "bill.pdf", pdfBytes)
	c, w := newContext(http.MethodPost, "/api/v1/invoices/upload-to-s3", body, ct)
	h.Upload(c)

	assert.Equal(t, http.StatusOK, w.Code)
	svc.AssertExpectations(t)
}

func TestAttachmentHandler_Upload_JSONAliases(t *testing.T) {
	encoded := base64.StdEncoding.EncodeToString(pdfBytes)
	for _, field := range []string{"base64", "pdfBase64", "originalPdfBase64", "dataUrl"} {
		t.Run(field, func(t *testing.T) {
			svc := new(mocks.MockAttachmentService)
			h := handler.NewAttachmentHandler(svc)
			svc.On("Upload", mock.Anything, mock.MatchedBy(func(in service.UploadObjectInput) bool {
				return string(in.Data) == string(pdfBytes) && in.Key == "custom/key.pdf"
			})).Return(&service.UploadObjectResult{Key: "custom/key.pdf"}, nil)

			c, w := jsonContext(http.MethodPost, "/api/v1/invoices/upload-to-s3", map[string]string{
				field: encoded,
				"key": "custom/key.pdf",
			})
			h.Upload(c)

			assert.Equal(t, http.StatusOK, w.Code)
			svc.AssertExpectations(t)
		})
	}
}

func TestAttachmentHandler_Upload_Missing(t *testing.T) {
	svc := new(mocks.MockAttachmentService)
	h := handler.NewAttachmentHandler(svc)

	c, w := jsonContext(http.MethodPost, "/api/v1/invoices/upload-to-s3", map[string]string{"filename": "a.pdf"})
	h.Upload(c)

	assertErrorCode(t, w, http.StatusBadRequest, "MISSING_FILE")
}

func TestAttachmentHandler_Upload_TooLarge(t *testing.T) {
	svc := new(mocks.MockAttachmentService)
	h := handler.NewAttachmentHandler(svc)
	svc.On("Upload", mock.Anything, mock.Anything).Return(nil, domain.ErrFileTooLarge)

	body, ct := multipartBody(t, nil, "pdf", "bill.pdf", pdfBytes)
	c, w := newContext(http.MethodPost, "/api/v1/invoices/upload-to-s3", body, ct)
	h.Upload(c)

	assertErrorCode(t, w, http.StatusRequestEntityTooLarge, "FILE_TOO_LARGE")
}
