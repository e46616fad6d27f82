package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/zuma-group/bill-integration-platform/internal/port"
)

// MockAccountingWebhook is a mock implementation of port.AccountingWebhook.
type MockAccountingWebhook struct {
	mock.Mock
}

func (m *MockAccountingWebhook) Send(ctx context.Context, payload any) (*port.WebhookResult, error) {
	args := m.Called(ctx, payload)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*port.WebhookResult), args.Error(1)
}

func (m *MockAccountingWebhook) Configured() bool {
	args := m.Called()
	return args.Bool(0)
}
