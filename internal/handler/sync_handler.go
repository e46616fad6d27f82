package handler

import (
	"encoding/json"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/zuma-group/bill-integration-platform/internal/domain"
	"github.com/zuma-group/bill-integration-platform/internal/service"
)

// SyncHandler handles pushes to the accounting system.
type SyncHandler struct {
	sync service.SyncService
}

// NewSyncHandler creates a new SyncHandler.
func NewSyncHandler(sync service.SyncService) *SyncHandler {
	return &SyncHandler{sync: sync}
}

// Push handles POST /api/v1/push-to-odoo
// @Summary Push invoices to Odoo
// @Description Splits the source PDF per invoice, stores each part and posts the payload to the Odoo webhook. Accepts multipart (invoices JSON field and pdf file) or JSON.
// @Tags sync
// @Accept multipart/form-data,json
// @Produce json
// @Param invoices formData string false "JSON array of invoices"
// @Param pdf formData file false "Source PDF"
// @Param body body PushRequest false "JSON push request"
// @Success 200 {object} Response{data=service.PushResult} "Push result"
// @Failure 400 {object} ErrorResponseBody "No invoices or invalid PDF"
// @Failure 500 {object} ErrorResponseBody "Webhook not configured"
// @Router /push-to-odoo [post]
func (h *SyncHandler) Push(c *gin.Context) {
	var input service.PushInput
	if isMultipart(c.ContentType()) {
		raw := c.PostForm("invoices")
		if raw == "" {
			HandleError(c, domain.ErrNoInvoices)
			return
		}
		if err := json.Unmarshal([]byte(raw), &input.Invoices); err != nil {
			RespondError(c, http.StatusBadRequest, "INVALID_INPUT", "invoices must be a JSON array")
			return
		}
		if header, err := c.FormFile("pdf"); err == nil {
			data, err := readFormFile(header)
			if err != nil {
				HandleError(c, err)
				return
			}
			input.SourcePDF = data
		}
	} else {
		var req PushRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			RespondError(c, http.StatusBadRequest, "INVALID_INPUT", "request body must be JSON")
			return
		}
		input.Invoices = req.Invoices
		if req.OriginalPdfBase64 != "" {
			data, _, err := decodeDocument(req.OriginalPdfBase64)
			if err != nil {
				HandleError(c, err)
				return
			}
			input.SourcePDF = data
		}
	}

	result, err := h.sync.Push(c.Request.Context(), input)
	if err != nil {
		HandleError(c, err)
		return
	}
	RespondOK(c, result)
}

// Status handles GET /api/v1/push-to-odoo
// @Summary Describe a push task
// @Description Pushes are synchronous; this echoes the task id with usage information.
// @Tags sync
// @Produce json
// @Param taskId query string true "Task id returned by a push"
// @Success 200 {object} Response{data=PushStatusResponse}
// @Failure 400 {object} ErrorResponseBody "Missing taskId"
// @Router /push-to-odoo [get]
func (h *SyncHandler) Status(c *gin.Context) {
	taskID := c.Query("taskId")
	if taskID == "" {
		RespondError(c, http.StatusBadRequest, "MISSING_TASK_ID", "taskId parameter is required")
		return
	}
	RespondOK(c, PushStatusResponse{
		TaskID:  taskID,
		Message: "This is a push-based integration. Invoice data is sent directly to Odoo via POST request.",
		Info:    "To send invoices to Odoo, use POST /api/v1/push-to-odoo with invoice data and PDF.",
	})
}
