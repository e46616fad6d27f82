package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"path"
	"regexp"
	"strings"
	"time"

	"github.com/zuma-group/bill-integration-platform/internal/config"
	"github.com/zuma-group/bill-integration-platform/internal/domain"
	"github.com/zuma-group/bill-integration-platform/internal/linksign"
	"github.com/zuma-group/bill-integration-platform/internal/logger"
	"github.com/zuma-group/bill-integration-platform/internal/port"
)

// AttachmentRoute is the path prefix under which attachments are served.
const AttachmentRoute = "/api/v1/attachments/"

// UploadObjectInput is the DTO for a direct upload to object storage.
type UploadObjectInput struct {
	Data     []byte
	Filename string
	MimeType string
	Folder   string
	Key      string
}

// UploadObjectResult describes a stored object.
type UploadObjectResult struct {
	Key      string `json:"key"`
	URL      string `json:"url"`
	Filename string `json:"filename"`
	MimeType string `json:"mimeType"`
	SizeKB   int64  `json:"sizeKb"`
}

// AttachmentService stores and serves invoice documents.
type AttachmentService interface {
	// Cache keeps a document in memory and returns its link.
	Cache(filename string, data []byte, contentType string) (string, error)
	// Store uploads a PDF under the attachment prefix, caches it and returns its link.
	Store(ctx context.Context, filename string, data []byte) (string, error)
	// Get returns a document by name after checking its link token.
	Get(ctx context.Context, filename, token string) (*port.CachedFile, error)
	// Resolve loads the document a pdfUrl points at.
	Resolve(ctx context.Context, rawURL string) ([]byte, error)
	// Upload writes a document to object storage under a sanitised key.
	Upload(ctx context.Context, input UploadObjectInput) (*UploadObjectResult, error)
	// StorageConfigured reports whether object storage is available.
	StorageConfigured() bool
}

type attachmentService struct {
	storage port.ObjectStorage
	cache   port.AttachmentCache
	signer  *linksign.Signer
	s3Cfg   *config.S3Config
	cfg     *config.AttachmentConfig
	client  *http.Client
}

// NewAttachmentService creates an AttachmentService. storage may be nil when
// no bucket is configured; documents are then only cached.
func NewAttachmentService(
	storage port.ObjectStorage,
	cache port.AttachmentCache,
	signer *linksign.Signer,
	s3Cfg *config.S3Config,
	cfg *config.AttachmentConfig,
) AttachmentService {
	return &attachmentService{
		storage: storage,
		cache:   cache,
		signer:  signer,
		s3Cfg:   s3Cfg,
		cfg:     cfg,
		client:  &http.Client{Timeout: 60 * time.Second},
	}
}

func (s *attachmentService) StorageConfigured() bool {
	return s.storage != nil && s.s3Cfg.Bucket != ""
}

func (s *attachmentService) Cache(filename string, data []byte, contentType string) (string, error) {
	s.cache.Put(filename, data, contentType)
	return s.link(filename)
}

func (s *attachmentService) Store(ctx context.Context, filename string, data []byte) (string, error) {
	if s.StorageConfigured() {
		key := s.objectKey(filename)
		_, err := s.storage.Upload(ctx, port.UploadInput{
			Bucket:      s.s3Cfg.Bucket,
			Key:         key,
			Body:        bytes.NewReader(data),
			ContentType: "application/pdf",
			Size:        int64(len(data)),
		})
		if err != nil {
			log := logger.WithComponent("service.attachment")
			log.Error().Err(err).Str("key", key).Msg("upload failed")
			return "", fmt.Errorf("%w: %s", domain.ErrUploadFailed, key)
		}
	}
	return s.Cache(filename, data, "application/pdf")
}

func (s *attachmentService) Get(ctx context.Context, filename, token string) (*port.CachedFile, error) {
	if err := s.signer.Verify(token, filename); err != nil {
		return nil, err
	}
	return s.load(ctx, filename)
}

func (s *attachmentService) load(ctx context.Context, filename string) (*port.CachedFile, error) {
	if filename == "" || strings.Contains(filename, "/") {
		return nil, domain.ErrAttachmentNotFound
	}
	if f, ok := s.cache.Get(filename); ok {
		return f, nil
	}
	if !s.StorageConfigured() {
		return nil, domain.ErrAttachmentNotFound
	}
	data, err := s.storage.Download(ctx, s.s3Cfg.Bucket, s.objectKey(filename))
	if errors.Is(err, domain.ErrNotFound) {
		return nil, domain.ErrAttachmentNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("downloading attachment %s: %w", filename, err)
	}
	contentType := http.DetectContentType(data)
	s.cache.Put(filename, data, contentType)
	return &port.CachedFile{Data: data, ContentType: contentType, StoredAt: time.Now()}, nil
}

func (s *attachmentService) Resolve(ctx context.Context, rawURL string) ([]byte, error) {
	u, err := url.Parse(rawURL)
	if err != nil || rawURL == "" {
		return nil, fmt.Errorf("%w: pdf url %q", domain.ErrInvalidInput, rawURL)
	}
	if idx := strings.Index(u.Path, AttachmentRoute); idx >= 0 {
		name, err := url.PathUnescape(u.Path[idx+len(AttachmentRoute):])
		if err != nil {
			return nil, fmt.Errorf("%w: pdf url %q", domain.ErrInvalidInput, rawURL)
		}
		f, err := s.load(ctx, name)
		if err != nil {
			return nil, err
		}
		return f.Data, nil
	}
	if !u.IsAbs() {
		return nil, fmt.Errorf("%w: pdf url %q", domain.ErrInvalidInput, rawURL)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching %s: %w", rawURL, err)
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetching %s: status %d", rawURL, resp.StatusCode)
	}
	return io.ReadAll(resp.Body)
}

var (
	unsafeFolder = regexp.MustCompile(`[^a-zA-Z0-9/_-]`)
	unsafeName   = regexp.MustCompile(`[^a-zA-Z0-9_.-]`)
)

func (s *attachmentService) Upload(ctx context.Context, input UploadObjectInput) (*UploadObjectResult, error) {
	if !s.StorageConfigured() {
		return nil, fmt.Errorf("%w: object storage is not configured", domain.ErrUploadFailed)
	}
	if len(input.Data) == 0 {
		return nil, fmt.Errorf("%w: empty document", domain.ErrInvalidInput)
	}
	if limit := s.s3Cfg.MaxFileSizeMB * 1024 * 1024; limit > 0 && int64(len(input.Data)) > limit {
		return nil, domain.ErrFileTooLarge
	}

	folder := input.Folder
	if folder == "" {
		folder = "uploads"
	}
	folder = strings.Trim(unsafeFolder.ReplaceAllString(folder, ""), "/")
	name := input.Filename
	if name == "" {
		name = "document.pdf"
	}
	name = unsafeName.ReplaceAllString(name, "_")
	mimeType := input.MimeType
	if mimeType == "" {
		mimeType = "application/pdf"
	}
	key := input.Key
	if key == "" {
		key = path.Join(folder, name)
	}

	_, err := s.storage.Upload(ctx, port.UploadInput{
		Bucket:      s.s3Cfg.Bucket,
		Key:         key,
		Body:        bytes.NewReader(input.Data),
		ContentType: mimeType,
		Size:        int64(len(input.Data)),
	})
	if err != nil {
		log := logger.WithComponent("service.attachment")
		log.Error().Err(err).Str("key", key).Msg("upload failed")
		return nil, domain.ErrUploadFailed
	}

	presigned, err := s.storage.GetPresignedURL(ctx, s.s3Cfg.Bucket, key, s.s3Cfg.PresignExpiry)
	if err != nil {
		return nil, fmt.Errorf("presigning %s: %w", key, err)
	}
	return &UploadObjectResult{
		Key:      key,
		URL:      presigned,
		Filename: name,
		MimeType: mimeType,
		SizeKB:   (int64(len(input.Data)) + 512) / 1024,
	}, nil
}

func (s *attachmentService) objectKey(filename string) string {
	prefix := strings.Trim(s.cfg.KeyPrefix, "/")
	if prefix == "" {
		return filename
	}
	return prefix + "/" + filename
}

// link builds the public URL of an attachment, signed when signing is on.
func (s *attachmentService) link(filename string) (string, error) {
	u := strings.TrimRight(s.cfg.PublicBaseURL, "/") + AttachmentRoute + url.PathEscape(filename)
	token, err := s.signer.Sign(filename)
	if err != nil {
		return "", err
	}
	if token != "" {
		u += "?token=" + url.QueryEscape(token)
	}
	return u, nil
}
