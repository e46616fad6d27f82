package service_test

import (
	"bytes"
	"fmt"
	"strings"
	"time"

	"github.com/zuma-group/bill-integration-platform/internal/cache"
	"github.com/zuma-group/bill-integration-platform/internal/config"
	"github.com/zuma-group/bill-integration-platform/internal/linksign"
	"github.com/zuma-group/bill-integration-platform/internal/port"
	"github.com/zuma-group/bill-integration-platform/internal/service"
)

func testS3Config() config.S3Config {
	return config.S3Config{
		Region:        "us-east-1",
		Bucket:        "test-bucket",
		MaxFileSizeMB: 1,
		PresignExpiry: 3600,
	}
}

func testAttachmentConfig() config.AttachmentConfig {
	return config.AttachmentConfig{
		CacheTTL:      time.Hour,
		KeyPrefix:     "odoo",
		PublicBaseURL: "https://bills.example.com",
	}
}

// newAttachments wires an AttachmentService around a real cache. storage may
// be nil.
func newAttachments(storage port.ObjectStorage, secret string) (service.AttachmentService, *cache.AttachmentCache) {
	s3Cfg := testS3Config()
	attCfg := testAttachmentConfig()
	c := cache.NewAttachmentCache(time.Hour, cache.SystemClock)
	return service.NewAttachmentService(storage, c, linksign.NewSigner(secret, time.Hour), &s3Cfg, &attCfg), c
}

// pdfContent returns minimal PDF-looking bytes for content sniffing.
func pdfContent() []byte {
	return []byte("%PDF-1.4 test content that is at least a few bytes long for detection purposes")
}

// buildPDF writes a minimal valid PDF with one empty page per width.
func buildPDF(widths ...int) []byte {
	var buf bytes.Buffer
	var offsets []int
	buf.WriteString("%PDF-1.4\n")
	obj := func(body string) {
		offsets = append(offsets, buf.Len())
		fmt.Fprintf(&buf, "%d 0 obj\n%s\nendobj\n", len(offsets), body)
	}

	obj("<< /Type /Catalog /Pages 2 0 R >>")
	kids := make([]string, len(widths))
	for i := range widths {
		kids[i] = fmt.Sprintf("%d 0 R", i+3)
	}
	obj(fmt.Sprintf("<< /Type /Pages /Kids [%s] /Count %d /Resources << >> >>", strings.Join(kids, " "), len(widths)))
	for _, w := range widths {
		obj(fmt.Sprintf("<< /Type /Page /Parent 2 0 R /MediaBox [0 0 %d 792] >>", w))
	}

	xref := buf.Len()
	fmt.Fprintf(&buf, "xref\n0 %d\n", len(offsets)+1)
	buf.WriteString("0000000000 65535 f \n")
	for _, off := range offsets {
		fmt.Fprintf(&buf, "%010d 00000 n \n", off)
	}
	fmt.Fprintf(&buf, "trailer\n<< /Size %d /Root 1 0 R >>\nstartxref\n%d\n%%%%EOF\n", len(offsets)+1, xref)
	return buf.Bytes()
}
