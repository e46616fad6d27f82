package handler

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/zuma-group/bill-integration-platform/internal/config"
	"github.com/zuma-group/bill-integration-platform/internal/domain"
	"github.com/zuma-group/bill-integration-platform/internal/queue"
	"github.com/zuma-group/bill-integration-platform/internal/service"
)

const (
	defaultListLimit = 50
	maxListLimit     = 200
)

// InvoiceHandler handles stored invoice endpoints and the pending queue.
type InvoiceHandler struct {
	invoices service.InvoiceService
	pending  *queue.Pending
	queueCfg config.QueueConfig
}

// NewInvoiceHandler creates a new InvoiceHandler.
func NewInvoiceHandler(invoices service.InvoiceService, pending *queue.Pending, queueCfg config.QueueConfig) *InvoiceHandler {
	return &InvoiceHandler{invoices: invoices, pending: pending, queueCfg: queueCfg}
}

// List handles GET /api/v1/invoices
// @Summary List invoices
// @Description Lists stored invoices, newest first
// @Tags invoices
// @Produce json
// @Param take query int false "Page size (1-200)" default(50)
// @Param skip query int false "Offset" default(0)
// @Success 200 {object} Response{data=[]domain.Invoice,meta=PagMeta}
// @Failure 400 {object} ErrorResponseBody
// @Router /invoices [get]
func (h *InvoiceHandler) List(c *gin.Context) {
	take, err := intQuery(c, "take", defaultListLimit)
	if err != nil || take < 1 || take > maxListLimit {
		RespondError(c, http.StatusBadRequest, "INVALID_INPUT", fmt.Sprintf("take must be between 1 and %d", maxListLimit))
		return
	}
	skip, err := intQuery(c, "skip", 0)
	if err != nil || skip < 0 {
		RespondError(c, http.StatusBadRequest, "INVALID_INPUT", "skip must be zero or greater")
		return
	}

	invoices, total, err := h.invoices.List(c.Request.Context(), skip, take)
	if err != nil {
		HandleError(c, err)
		return
	}
	RespondPaginated(c, invoices, PagMeta{Total: total, Offset: skip, Limit: take})
}

// Create handles POST /api/v1/invoices
// @Summary Store invoices
// @Description Stores one invoice, an array of invoices or {"invoices": [...]}
// @Tags invoices
// @Accept json
// @Produce json
// @Param body body CreateInvoicesRequest true "Invoices"
// @Success 201 {object} Response{data=[]domain.Invoice}
// @Failure 400 {object} ErrorResponseBody
// @Router /invoices [post]
func (h *InvoiceHandler) Create(c *gin.Context) {
	body, err := c.GetRawData()
	if err != nil {
		RespondError(c, http.StatusBadRequest, "INVALID_INPUT", "could not read request body")
		return
	}
	invoices, err := decodeInvoiceBatch(body)
	if err != nil {
		RespondError(c, http.StatusBadRequest, "INVALID_INPUT", err.Error())
		return
	}

	created, err := h.invoices.CreateBatch(c.Request.Context(), invoices)
	if err != nil {
		HandleError(c, err)
		return
	}
	RespondCreated(c, created)
}

// decodeInvoiceBatch accepts an array, an {"invoices": [...]} wrapper or a
// single invoice object.
func decodeInvoiceBatch(body []byte) ([]domain.Invoice, error) {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 {
		return nil, fmt.Errorf("request body is empty")
	}
	if trimmed[0] == '[' {
		var list []domain.Invoice
		if err := json.Unmarshal(trimmed, &list); err != nil {
			return nil, fmt.Errorf("invalid invoice array: %w", err)
		}
		return list, nil
	}

	var wrapper struct {
		Invoices *[]domain.Invoice `json:"invoices"`
	}
	if err := json.Unmarshal(trimmed, &wrapper); err != nil {
		return nil, fmt.Errorf("invalid invoice payload: %w", err)
	}
	if wrapper.Invoices != nil {
		return *wrapper.Invoices, nil
	}

	var single domain.Invoice
	if err := json.Unmarshal(trimmed, &single); err != nil {
		return nil, fmt.Errorf("invalid invoice: %w", err)
	}
	return []domain.Invoice{single}, nil
}

// GetByID handles GET /api/v1/invoices/:id
// @Summary Get invoice
// @Tags invoices
// @Produce json
// @Param id path string true "Invoice ID"
// @Success 200 {object} Response{data=domain.Invoice}
// @Failure 400 {object} ErrorResponseBody
// @Failure 404 {object} ErrorResponseBody
// @Router /invoices/{id} [get]
func (h *InvoiceHandler) GetByID(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	inv, err := h.invoices.GetByID(c.Request.Context(), id)
	if err != nil {
		HandleError(c, err)
		return
	}
	RespondOK(c, inv)
}

// Update handles PATCH /api/v1/invoices/:id
// @Summary Update invoice
// @Description Changes the supplied fields; lineItems replaces every line item and attachment links a stored document
// @Tags invoices
// @Accept json
// @Produce json
// @Param id path string true "Invoice ID"
// @Param body body service.UpdateInvoiceInput true "Fields to change"
// @Success 200 {object} Response{data=domain.Invoice}
// @Failure 400 {object} ErrorResponseBody
// @Failure 404 {object} ErrorResponseBody
// @Router /invoices/{id} [patch]
func (h *InvoiceHandler) Update(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	var input service.UpdateInvoiceInput
	if err := c.ShouldBindJSON(&input); err != nil {
		RespondError(c, http.StatusBadRequest, "INVALID_INPUT", "invalid request body")
		return
	}
	inv, err := h.invoices.Update(c.Request.Context(), id, input)
	if err != nil {
		HandleError(c, err)
		return
	}
	RespondOK(c, inv)
}

// Delete handles DELETE /api/v1/invoices/:id
// @Summary Delete invoice
// @Tags invoices
// @Produce json
// @Param id path string true "Invoice ID"
// @Success 200 {object} Response{data=MessageResponse}
// @Failure 404 {object} ErrorResponseBody
// @Router /invoices/{id} [delete]
func (h *InvoiceHandler) Delete(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	if err := h.invoices.Delete(c.Request.Context(), id); err != nil {
		HandleError(c, err)
		return
	}
	RespondOK(c, MessageResponse{Message: "invoice deleted"})
}

// Export handles GET /api/v1/invoices/export
// @Summary Export invoices
// @Description Downloads every stored invoice as CSV or XLSX
// @Tags invoices
// @Produce text/csv,application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Param format query string false "csv or xlsx" default(csv)
// @Success 200 {file} file
// @Failure 400 {object} ErrorResponseBody
// @Router /invoices/export [get]
func (h *InvoiceHandler) Export(c *gin.Context) {
	out, err := h.invoices.Export(c.Request.Context(), c.Query("format"))
	if err != nil {
		HandleError(c, err)
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, out.Filename))
	c.Data(http.StatusOK, out.ContentType, out.Body)
}

// Pending handles GET /api/v1/invoices/pending
// @Summary Drain pending invoices
// @Description Removes and returns up to max invoices ingested from the mailbox
// @Tags invoices
// @Produce json
// @Param max query int false "Maximum invoices to return"
// @Success 200 {object} Response{data=PendingResponse}
// @Router /invoices/pending [get]
func (h *InvoiceHandler) Pending(c *gin.Context) {
	requested, err := intQuery(c, "max", 0)
	if err != nil {
		requested = 0
	}
	n := queue.ClampDrain(requested, h.queueCfg.DefaultDrain, h.queueCfg.MaxDrain)
	invoices := h.pending.Drain(n)
	RespondOK(c, PendingResponse{
		Invoices:  invoices,
		Count:     len(invoices),
		Remaining: h.pending.Size(),
	})
}

func parseID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "INVALID_ID", "invalid invoice ID")
		return uuid.Nil, false
	}
	return id, true
}

func intQuery(c *gin.Context, name string, def int) (int, error) {
	raw := c.Query(name)
	if raw == "" {
		return def, nil
	}
	return strconv.Atoi(raw)
}
