package domain

// FileType represents the document types accepted for OCR.
type FileType string

const (
	FileTypePDF FileType = "pdf"
	FileTypeJPG FileType = "jpg"
	FileTypePNG FileType = "png"
)

// AllowedFileTypes maps FileType to its MIME content type.
var AllowedFileTypes = map[FileType]string{
	FileTypePDF: "application/pdf",
	FileTypeJPG: "image/jpeg",
	FileTypePNG: "image/png",
}

// AllowedContentTypes maps MIME content types back to FileType.
var AllowedContentTypes = map[string]FileType{
	"application/pdf": FileTypePDF,
	"image/jpeg":      FileTypeJPG,
	"image/jpg":       FileTypeJPG,
	"image/png":       FileTypePNG,
}

// AllowedExtensions maps file extensions (without dot) to FileType.
var AllowedExtensions = map[string]FileType{
	"pdf":  FileTypePDF,
	"jpg":  FileTypeJPG,
	"jpeg": FileTypeJPG,
	"png":  FileTypePNG,
}

// InvoiceStatus is the lifecycle of an extracted invoice.
type InvoiceStatus string

const (
	InvoiceStatusExtracted InvoiceStatus = "extracted"
	InvoiceStatusSynced    InvoiceStatus = "synced"
)

// DocumentType is the OCR classification of a source document.
type DocumentType string

const (
	DocumentTypeSingle   DocumentType = "single"
	DocumentTypeMultiple DocumentType = "multiple"
	DocumentTypeNone     DocumentType = "none"
)
