package handler_test

import (
	"encoding/base64"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/zuma-group/bill-integration-platform/internal/domain"
	"github.com/zuma-group/bill-integration-platform/internal/handler"
	"github.com/zuma-group/bill-integration-platform/internal/service"
	"github.com/zuma-group/bill-integration-platform/mocks"
)

func TestSyncHandler_Push_Multipart(t *testing.T) {
	svc := new(mocks.MockSyncService)
	h := handler.NewSyncHandler(svc)

	invoices := []domain.Invoice{{InvoiceNumber: "INV-1", PageNumbers: []int{1}}}
	raw, _ := json.Marshal(invoices)

	svc.On("Push", mock.Anything, mock.MatchedBy(func(in service.PushInput) bool {
		return len(in.Invoices) == 1 && in.Invoices[0].InvoiceNumber == "INV-1" && string(in.SourcePDF) == string(pdfBytes)
	})).Return(&service.PushResult{TaskID: "TASK-1", InvoiceCount: 1, OdooSucceeded: true}, nil)

	body, ct := multipartBody(t, map[string]string{"invoices": string(raw)}, "pdf", "source.pdf", pdfBytes)
	c, w := newContext(http.MethodPost, "/api/v1/push-to-odoo", body, ct)

	h.Push(c)

	assert.Equal(t, http.StatusOK, w.Code)
	svc.AssertExpectations(t)
}

func TestSyncHandler_Push_JSON(t *testing.T) {
	svc := new(mocks.MockSyncService)
	h := handler.NewSyncHandler(svc)

	svc.On("Push", mock.Anything, mock.MatchedBy(func(in service.PushInput) bool {
		return len(in.Invoices) == 2 && string(in.SourcePDF) == string(pdfBytes)
	})).Return(&service.PushResult{TaskID: "TASK-2", InvoiceCount: 2}, nil)

	c, w := jsonContext(http.MethodPost, "/api/v1/push-to-odoo", map[string]interface{}{
		"invoices":          []domain.Invoice{{InvoiceNumber: "A"}, {InvoiceNumber: "B"}},
		"originalPdfBase64": base64.StdEncoding.EncodeToString(pdfBytes),
	})

	h.Push(c)

	assert.Equal(t, http.StatusOK, w.Code)
	svc.AssertExpectations(t)
}

func TestSyncHandler_Push_MissingInvoicesField(t *testing.T) {
	svc := new(mocks.MockSyncService)
	h := handler.NewSyncHandler(svc)

	body, ct := multipartBody(t, nil, "pdf", "source.pdf", pdfBytes)
	c, w := newContext(http.MethodPost, "/api/v1/push-to-odoo", body, ct)

	h.Push(c)

	assertErrorCode(t, w, http.StatusBadRequest, "NO_INVOICES")
}

func TestSyncHandler_Push_WebhookNotConfigured(t *testing.T) {
	svc := new(mocks.MockSyncService)
	h := handler.NewSyncHandler(svc)

	svc.On("Push", mock.Anything, mock.Anything).Return(nil, domain.ErrWebhookNotConfigured)

	c, w := jsonContext(http.MethodPost, "/api/v1/push-to-odoo", map[string]interface{}{
		"invoices": []domain.Invoice{{InvoiceNumber: "A"}},
	})

	h.Push(c)

	assertErrorCode(t, w, http.StatusInternalServerError, "WEBHOOK_NOT_CONFIGURED")
}

func TestSyncHandler_Status(t *testing.T) {
	h := handler.NewSyncHandler(new(mocks.MockSyncService))

	c, w := newContext(http.MethodGet, "/api/v1/push-to-odoo?taskId=TASK-9", nil, "")
	h.Status(c)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "TASK-9")

	c, w = newContext(http.MethodGet, "/api/v1/push-to-odoo", nil, "")
	h.Status(c)
	assertErrorCode(t, w, http.StatusBadRequest, "MISSING_TASK_ID")
}
