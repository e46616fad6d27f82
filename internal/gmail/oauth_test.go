package gmail_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"

	"github.com/zuma-group/bill-integration-platform/internal/config"
	"github.com/zuma-group/bill-integration-platform/internal/gmail"
)

func TestConsent_AuthURL(t *testing.T) {
	c := gmail.NewConsent(config.GmailConfig{
		ClientID:     "client",
		ClientSecret: "secret",
		RedirectURL:  "https://bills.example.com/api/v1/gmail/callback",
	})
	require.True(t, c.Configured())

	u, err := url.Parse(c.AuthURL("state-1"))
	require.NoError(t, err)
	q := u.Query()
	assert.Equal(t, "accounts.google.com", u.Host)
	assert.Equal(t, "client", q.Get("client_id"))
	assert.Equal(t, "offline", q.Get("access_type"))
	assert.Equal(t, "consent", q.Get("prompt"))
	assert.Equal(t, "state-1", q.Get("state"))
	assert.Contains(t, q.Get("scope"), "gmail.modify")
}

func TestConsent_NotConfigured(t *testing.T) {
	assert.False(t, gmail.NewConsent(config.GmailConfig{ClientID: "client"}).Configured())
}

func tokenServer(t *testing.T, body string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil || r.Form.Get("code") != "good-code" {
			w.WriteHeader(http.StatusBadRequest)
			_, _ = w.Write([]byte(`{"error":"invalid_grant"}`))
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(body))
	}))
}

func consentFor(server *httptest.Server) *gmail.Consent {
	return gmail.NewConsentWithConfig(&oauth2.Config{
		ClientID:     "client",
		ClientSecret: "secret",
		RedirectURL:  "https://bills.example.com/cb",
		Endpoint:     oauth2.Endpoint{AuthURL: server.URL + "/auth", TokenURL: server.URL + "/token"},
	})
}

func TestConsent_Exchange(t *testing.T) {
	server := tokenServer(t, `{"access_token":"at","refresh_token":"rt","token_type":"Bearer","expires_in":3600}`)
	defer server.Close()

	tok, err := consentFor(server).Exchange(context.Background(), "good-code")

	require.NoError(t, err)
	assert.Equal(t, "rt", tok.RefreshToken)
}

func TestConsent_Exchange_NoRefreshToken(t *testing.T) {
	server := tokenServer(t, `{"access_token":"at","token_type":"Bearer","expires_in":3600}`)
	defer server.Close()

	tok, err := consentFor(server).Exchange(context.Background(), "good-code")

	assert.ErrorIs(t, err, gmail.ErrNoRefreshToken)
	assert.Equal(t, "at", tok.AccessToken)
}

func TestConsent_Exchange_BadCode(t *testing.T) {
	server := tokenServer(t, `{}`)
	defer server.Close()

	_, err := consentFor(server).Exchange(context.Background(), "bad-code")
	assert.Error(t, err)
}
