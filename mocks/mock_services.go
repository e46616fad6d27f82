package mocks

import (
	"context"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"github.com/zuma-group/bill-integration-platform/internal/domain"
	"github.com/zuma-group/bill-integration-platform/internal/port"
	"github.com/zuma-group/bill-integration-platform/internal/service"
)

// MockExtractionService is a mock implementation of service.ExtractionService.
type MockExtractionService struct {
	mock.Mock
}

func (m *MockExtractionService) Extract(ctx context.Context, input service.ExtractInput) (*domain.OCRResult, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.OCRResult), args.Error(1)
}

// MockSyncService is a mock implementation of service.SyncService.
type MockSyncService struct {
	mock.Mock
}

func (m *MockSyncService) Push(ctx context.Context, input service.PushInput) (*service.PushResult, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.PushResult), args.Error(1)
}

// MockInvoiceService is a mock implementation of service.InvoiceService.
type MockInvoiceService struct {
	mock.Mock
}

func (m *MockInvoiceService) List(ctx context.Context, offset, limit int) ([]domain.Invoice, int, error) {
	args := m.Called(ctx, offset, limit)
	if args.Get(0) == nil {
		return nil, args.Int(1), args.Error(2)
	}
	return args.Get(0).([]domain.Invoice), args.Int(1), args.Error(2)
}

func (m *MockInvoiceService) GetByID(ctx context.Context, id uuid.UUID) (*domain.Invoice, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Invoice), args.Error(1)
}

func (m *MockInvoiceService) CreateBatch(ctx context.Context, invoices []domain.Invoice) ([]domain.Invoice, error) {
	args := m.Called(ctx, invoices)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Invoice), args.Error(1)
}

func (m *MockInvoiceService) Update(ctx context.Context, id uuid.UUID, input service.UpdateInvoiceInput) (*domain.Invoice, error) {
	args := m.Called(ctx, id, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Invoice), args.Error(1)
}

func (m *MockInvoiceService) Delete(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockInvoiceService) Export(ctx context.Context, format string) (*service.ExportOutput, error) {
	args := m.Called(ctx, format)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.ExportOutput), args.Error(1)
}

// MockAttachmentService is a mock implementation of service.AttachmentService.
type MockAttachmentService struct {
	mock.Mock
}

func (m *MockAttachmentService) Cache(filename string, data []byte, contentType string) (string, error) {
	args := m.Called(filename, data, contentType)
	return args.String(0), args.Error(1)
}

func (m *MockAttachmentService) Store(ctx context.Context, filename string, data []byte) (string, error) {
	args := m.Called(ctx, filename, data)
	return args.String(0), args.Error(1)
}

func (m *MockAttachmentService) Get(ctx context.Context, filename, token string) (*port.CachedFile, error) {
	args := m.Called(ctx, filename, token)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*port.CachedFile), args.Error(1)
}

func (m *MockAttachmentService) Resolve(ctx context.Context, rawURL string) ([]byte, error) {
	args := m.Called(ctx, rawURL)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]byte), args.Error(1)
}

func (m *MockAttachmentService) Upload(ctx context.Context, input service.UploadObjectInput) (*service.UploadObjectResult, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.UploadObjectResult), args.Error(1)
}

func (m *MockAttachmentService) StorageConfigured() bool {
	args := m.Called()
	return args.Bool(0)
}

// MockGmailService is a mock implementation of service.GmailService.
type MockGmailService struct {
	mock.Mock
}

func (m *MockGmailService) Poll(ctx context.Context, max int) (*service.IngestResult, error) {
	args := m.Called(ctx, max)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.IngestResult), args.Error(1)
}

func (m *MockGmailService) HandleNotification(ctx context.Context, data string) (*service.IngestResult, error) {
	args := m.Called(ctx, data)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.IngestResult), args.Error(1)
}

func (m *MockGmailService) Watch(ctx context.Context, labelIDs []string) (*port.WatchResult, error) {
	args := m.Called(ctx, labelIDs)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*port.WatchResult), args.Error(1)
}

func (m *MockGmailService) Enabled() bool {
	args := m.Called()
	return args.Bool(0)
}
