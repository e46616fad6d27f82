package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/zuma-group/bill-integration-platform/internal/service"
)

// AttachmentHandler serves cached documents and direct uploads.
type AttachmentHandler struct {
	attachments service.AttachmentService
}

// NewAttachmentHandler creates a new AttachmentHandler.
func NewAttachmentHandler(attachments service.AttachmentService) *AttachmentHandler {
	return &AttachmentHandler{attachments: attachments}
}

// Get handles GET /api/v1/attachments/:filename
// @Summary Download an attachment
// @Description Serves a split invoice PDF or cached source document. A token is required when link signing is enabled.
// @Tags attachments
// @Produce application/pdf
// @Param filename path string true "Attachment filename"
// @Param token query string false "Signed link token"
// @Success 200 {file} file
// @Failure 403 {object} ErrorResponseBody
// @Failure 404 {object} ErrorResponseBody
// @Router /attachments/{filename} [get]
func (h *AttachmentHandler) Get(c *gin.Context) {
	filename := c.Param("filename")
	file, err := h.attachments.Get(c.Request.Context(), filename, c.Query("token"))
	if err != nil {
		HandleError(c, err)
		return
	}
	contentType := file.ContentType
	if contentType == "" {
		contentType = "application/pdf"
	}
	c.Header("Content-Disposition", `inline; filename="`+filename+`"`)
	c.Header("Cache-Control", "public, max-age=3600")
	c.Data(http.StatusOK, contentType, file.Data)
}

// Upload handles POST /api/v1/invoices/upload-to-s3
// @Summary Upload a document to object storage
// @Description Accepts multipart "pdf" or JSON with a base64 document
// @Tags attachments
// @Accept multipart/form-data,json
// @Produce json
// @Param pdf formData file false "Document"
// @Param body body UploadRequest false "Base64 document"
// @Success 200 {object} Response{data=service.UploadObjectResult}
// @Failure 400 {object} ErrorResponseBody
// @Failure 413 {object} ErrorResponseBody
// @Failure 500 {object} ErrorResponseBody
// @Router /invoices/upload-to-s3 [post]
func (h *AttachmentHandler) Upload(c *gin.Context) {
	var input service.UploadObjectInput
	if isMultipart(c.ContentType()) {
		header, err := c.FormFile("pdf")
		if err != nil {
			RespondError(c, http.StatusBadRequest, "MISSING_FILE", "pdf field is required")
			return
		}
		data, err := readFormFile(header)
		if err != nil {
			HandleError(c, err)
			return
		}
		input = service.UploadObjectInput{
			Data:     data,
			Filename: firstNonEmpty(c.PostForm("filename"), header.Filename),
			MimeType: firstNonEmpty(c.PostForm("mimeType"), header.Header.Get("Content-Type")),
			Folder:   c.PostForm("folder"),
			Key:      c.PostForm("key"),
		}
	} else {
		var req UploadRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			RespondError(c, http.StatusBadRequest, "INVALID_INPUT", "request body must be JSON")
			return
		}
		encoded := firstNonEmpty(req.Base64, req.PdfBase64, req.OriginalPdfBase64, req.DataURL)
		if encoded == "" {
			RespondError(c, http.StatusBadRequest, "MISSING_FILE", "provide a multipart pdf or base64 document")
			return
		}
		data, mimeType, err := decodeDocument(encoded)
		if err != nil {
			HandleError(c, err)
			return
		}
		input = service.UploadObjectInput{
			Data:     data,
			Filename: req.Filename,
			MimeType: firstNonEmpty(req.MimeType, mimeType),
			Folder:   req.Folder,
			Key:      req.Key,
		}
	}

	result, err := h.attachments.Upload(c.Request.Context(), input)
	if err != nil {
		HandleError(c, err)
		return
	}
	RespondOK(c, result)
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
