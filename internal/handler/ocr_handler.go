package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/zuma-group/bill-integration-platform/internal/service"
)

// OCRHandler handles invoice extraction requests.
type OCRHandler struct {
	extraction service.ExtractionService
}

// NewOCRHandler creates a new OCRHandler.
func NewOCRHandler(extraction service.ExtractionService) *OCRHandler {
	return &OCRHandler{extraction: extraction}
}

// Extract handles POST /api/v1/ocr
// @Summary Extract invoices from a document
// @Description Runs OCR on a PDF or image sent as multipart "file" or JSON base64 and returns every invoice found
// @Tags ocr
// @Accept multipart/form-data,json
// @Produce json
// @Param file formData file false "Document (PDF, JPG or PNG)"
// @Param body body OCRRequest false "Base64 document"
// @Success 200 {object} Response{data=domain.OCRResult} "Extraction result"
// @Failure 400 {object} ErrorResponseBody "Missing or unsupported document"
// @Failure 413 {object} ErrorResponseBody "File too large"
// @Failure 429 {object} ErrorResponseBody "Rate limited"
// @Failure 502 {object} ErrorResponseBody "OCR response truncated"
// @Router /ocr [post]
func (h *OCRHandler) Extract(c *gin.Context) {
	var input service.ExtractInput
	if isMultipart(c.ContentType()) {
		header, err := c.FormFile("file")
		if err != nil {
			RespondError(c, http.StatusBadRequest, "MISSING_FILE", "file field is required")
			return
		}
		data, err := readFormFile(header)
		if err != nil {
			HandleError(c, err)
			return
		}
		input = service.ExtractInput{
			Data:        data,
			ContentType: header.Header.Get("Content-Type"),
			Filename:    header.Filename,
		}
	} else {
		var req OCRRequest
		if err := c.ShouldBindJSON(&req); err != nil || req.Base64 == "" {
			RespondError(c, http.StatusBadRequest, "MISSING_FILE", "provide a multipart file or base64 document")
			return
		}
		data, mimeType, err := decodeDocument(req.Base64)
		if err != nil {
			HandleError(c, err)
			return
		}
		if req.MimeType != "" {
			mimeType = req.MimeType
		}
		input = service.ExtractInput{Data: data, ContentType: mimeType, Filename: req.Filename}
	}

	result, err := h.extraction.Extract(c.Request.Context(), input)
	if err != nil {
		HandleError(c, err)
		return
	}
	RespondOK(c, result)
}
