package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/zuma-group/bill-integration-platform/internal/port"
)

// MockNotifier is a mock implementation of port.Notifier.
type MockNotifier struct {
	mock.Mock
}

func (m *MockNotifier) NotifySyncFailure(ctx context.Context, failure port.SyncFailure) error {
	args := m.Called(ctx, failure)
	return args.Error(0)
}
