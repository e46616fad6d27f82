package handler

import (
	"encoding/base64"
	"fmt"
	"io"
	"mime/multipart"
	"strings"

	"github.com/zuma-group/bill-integration-platform/internal/domain"
)

// decodeDocument decodes a base64 document, accepting an optional
// data:<mime>;base64, prefix. The mime type from the prefix is returned
// when present.
func decodeDocument(encoded string) ([]byte, string, error) {
	encoded = strings.TrimSpace(encoded)
	var mimeType string
	if strings.HasPrefix(encoded, "data:") {
		comma := strings.Index(encoded, ",")
		if comma < 0 {
			return nil, "", fmt.Errorf("%w: malformed data url", domain.ErrInvalidInput)
		}
		header := encoded[len("data:"):comma]
		mimeType = strings.TrimSuffix(header, ";base64")
		encoded = encoded[comma+1:]
	}
	data, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return nil, "", fmt.Errorf("%w: document is not valid base64", domain.ErrInvalidInput)
	}
	return data, mimeType, nil
}

// readFormFile reads a multipart file completely.
func readFormFile(header *multipart.FileHeader) ([]byte, error) {
	f, err := header.Open()
	if err != nil {
		return nil, fmt.Errorf("opening upload: %w", err)
	}
	defer func() { _ = f.Close() }()
	return io.ReadAll(f)
}

func isMultipart(contentType string) bool {
	return strings.HasPrefix(contentType, "multipart/form-data")
}
