package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/zuma-group/bill-integration-platform/internal/port"
)

// MockMailbox is a mock implementation of port.Mailbox.
type MockMailbox struct {
	mock.Mock
}

func (m *MockMailbox) EnsureLabel(ctx context.Context, name string) (string, error) {
	args := m.Called(ctx, name)
	return args.String(0), args.Error(1)
}

func (m *MockMailbox) ListCandidates(ctx context.Context, query string, max int) ([]port.MailMessage, error) {
	args := m.Called(ctx, query, max)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]port.MailMessage), args.Error(1)
}

func (m *MockMailbox) Attachments(ctx context.Context, messageID string) ([]port.MailAttachment, error) {
	args := m.Called(ctx, messageID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]port.MailAttachment), args.Error(1)
}

func (m *MockMailbox) AddLabel(ctx context.Context, messageID, labelID string) error {
	args := m.Called(ctx, messageID, labelID)
	return args.Error(0)
}

func (m *MockMailbox) MessagesAddedSince(ctx context.Context, historyID string) ([]string, string, error) {
	args := m.Called(ctx, historyID)
	if args.Get(0) == nil {
		return nil, args.String(1), args.Error(2)
	}
	return args.Get(0).([]string), args.String(1), args.Error(2)
}

func (m *MockMailbox) GetMessage(ctx context.Context, messageID string) (*port.MailMessage, error) {
	args := m.Called(ctx, messageID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*port.MailMessage), args.Error(1)
}

func (m *MockMailbox) Watch(ctx context.Context, topic string, labelIDs []string) (*port.WatchResult, error) {
	args := m.Called(ctx, topic, labelIDs)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*port.WatchResult), args.Error(1)
}
