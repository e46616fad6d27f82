package handler_test

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"golang.org/x/oauth2"

	"github.com/zuma-group/bill-integration-platform/internal/domain"
	"github.com/zuma-group/bill-integration-platform/internal/gmail"
	"github.com/zuma-group/bill-integration-platform/internal/handler"
	"github.com/zuma-group/bill-integration-platform/internal/port"
	"github.com/zuma-group/bill-integration-platform/internal/service"
	"github.com/zuma-group/bill-integration-platform/mocks"
)

type fakeConsent struct {
	configured bool
	token      *oauth2.Token
	err        error
}

func (f *fakeConsent) Configured() bool { return f.configured }

func (f *fakeConsent) AuthURL(state string) string {
	return "https://accounts.example.com/auth?state=" + state
}

func (f *fakeConsent) Exchange(_ context.Context, _ string) (*oauth2.Token, error) {
	return f.token, f.err
}

func TestGmailHandler_Poll_ClampsMax(t *testing.T) {
	tests := []struct {
		query string
		want  int
	}{
		{"", 10},
		{"?max=0", 1},
		{"?max=500", 50},
		{"?max=7", 7},
	}
	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			svc := new(mocks.MockGmailService)
			h := handler.NewGmailHandler(svc, nil)
			svc.On("Poll", mock.Anything, tt.want).Return(&service.IngestResult{Processed: 1}, nil)

			c, w := newContext(http.MethodPost, "/api/v1/gmail/poll"+tt.query, nil, "")
			h.Poll(c)

			assert.Equal(t, http.StatusOK, w.Code)
			svc.AssertExpectations(t)
		})
	}
}

func TestGmailHandler_Poll_Disabled(t *testing.T) {
	svc := new(mocks.MockGmailService)
	h := handler.NewGmailHandler(svc, nil)
	svc.On("Poll", mock.Anything, 10).Return(nil, domain.ErrMailboxDisabled)

	c, w := newContext(http.MethodPost, "/api/v1/gmail/poll", nil, "")
	h.Poll(c)

	assertErrorCode(t, w, http.StatusServiceUnavailable, "GMAIL_DISABLED")
}

func TestGmailHandler_Notification(t *testing.T) {
	svc := new(mocks.MockGmailService)
	h := handler.NewGmailHandler(svc, nil)
	svc.On("HandleNotification", mock.Anything, "eyJoaXN0b3J5SWQiOjF9").Return(&service.IngestResult{HistoryID: "1"}, nil)

	c, w := jsonContext(http.MethodPost, "/api/v1/gmail/notifications", map[string]interface{}{
		"message":      map[string]string{"data": "eyJoaXN0b3J5SWQiOjF9", "messageId": "1"},
		"subscription": "projects/p/subscriptions/s",
	})
	h.Notification(c)

	assert.Equal(t, http.StatusOK, w.Code)
	svc.AssertExpectations(t)
}

func TestGmailHandler_Notification_MissingData(t *testing.T) {
	h := handler.NewGmailHandler(new(mocks.MockGmailService), nil)

	c, w := jsonContext(http.MethodPost, "/api/v1/gmail/notifications", map[string]interface{}{"message": map[string]string{}})
	h.Notification(c)

	assertErrorCode(t, w, http.StatusBadRequest, "INVALID_INPUT")
}

func TestGmailHandler_Watch(t *testing.T) {
	svc := new(mocks.MockGmailService)
	h := handler.NewGmailHandler(svc, nil)
	svc.On("Watch", mock.Anything, []string{"INBOX"}).Return(&port.WatchResult{HistoryID: "77", Expiration: 1000}, nil)

	c, w := jsonContext(http.MethodPost, "/api/v1/gmail/watch", map[string]interface{}{"labelIds": []string{"INBOX"}})
	h.Watch(c)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"historyId":"77"`)
}

func TestGmailHandler_Auth(t *testing.T) {
	h := handler.NewGmailHandler(new(mocks.MockGmailService), &fakeConsent{configured: true})

	c, w := newContext(http.MethodGet, "/api/v1/gmail/auth", nil, "")
	h.Auth(c)

	assert.Equal(t, http.StatusFound, w.Code)
	assert.Contains(t, w.Header().Get("Location"), "https://accounts.example.com/auth?state=")
}

func TestGmailHandler_Auth_NotConfigured(t *testing.T) {
	h := handler.NewGmailHandler(new(mocks.MockGmailService), &fakeConsent{})

	c, w := newContext(http.MethodGet, "/api/v1/gmail/auth", nil, "")
	h.Auth(c)

	assertErrorCode(t, w, http.StatusServiceUnavailable, "OAUTH_NOT_CONFIGURED")
}

func TestGmailHandler_Callback(t *testing.T) {
	tests := []struct {
		name    string
		query   string
		consent *fakeConsent
		status  int
		code    string
	}{
		{"missing code", "", &fakeConsent{configured: true}, http.StatusBadRequest, "MISSING_CODE"},
		{"denied", "?error=access_denied", &fakeConsent{configured: true}, http.StatusBadRequest, "OAUTH_DENIED"},
		{"no refresh token", "?code=c", &fakeConsent{configured: true, token: &oauth2.Token{}, err: gmail.ErrNoRefreshToken}, http.StatusBadRequest, "NO_REFRESH_TOKEN"},
		{"exchange failed", "?code=c", &fakeConsent{configured: true, err: errors.New("boom")}, http.StatusBadGateway, "OAUTH_EXCHANGE_FAILED"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := handler.NewGmailHandler(new(mocks.MockGmailService), tt.consent)
			c, w := newContext(http.MethodGet, "/api/v1/gmail/callback"+tt.query, nil, "")
			h.Callback(c)
			assertErrorCode(t, w, tt.status, tt.code)
		})
	}
}

func TestGmailHandler_Callback_Success(t *testing.T) {
	consent := &fakeConsent{configured: true, token: &oauth2.Token{RefreshToken: "refresh-123"}}
	h := handler.NewGmailHandler(new(mocks.MockGmailService), consent)

	c, w := newContext(http.MethodGet, "/api/v1/gmail/callback?code=abc", nil, "")
	h.Callback(c)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "refresh-123")
}
