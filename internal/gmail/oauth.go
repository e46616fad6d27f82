package gmail

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/oauth2"

	"github.com/zuma-group/bill-integration-platform/internal/config"
)

// ErrNoRefreshToken is returned when the consent exchange yields no
// refresh token, which happens when the user had already granted access.
var ErrNoRefreshToken = errors.New("google returned no refresh token; repeat consent with prompt=consent")

// Consent runs the offline OAuth consent flow that produces the refresh
// token the mailbox client needs.
type Consent struct {
	cfg *oauth2.Config
}

// NewConsent creates a Consent for the configured OAuth client.
func NewConsent(cfg config.GmailConfig) *Consent {
	return &Consent{cfg: OAuthConfig(cfg)}
}

// NewConsentWithConfig creates a Consent around an explicit OAuth config.
func NewConsentWithConfig(cfg *oauth2.Config) *Consent {
	return &Consent{cfg: cfg}
}

// Configured reports whether an OAuth client and redirect URL are set.
func (c *Consent) Configured() bool {
	return c.cfg.ClientID != "" && c.cfg.ClientSecret != "" && c.cfg.RedirectURL != ""
}

// AuthURL returns the Google consent page URL. Offline access and a forced
// prompt make Google issue a refresh token every time.
func (c *Consent) AuthURL(state string) string {
	return c.cfg.AuthCodeURL(state, oauth2.AccessTypeOffline, oauth2.SetAuthURLParam("prompt", "consent"))
}

// Exchange trades an authorisation code for a token.
func (c *Consent) Exchange(ctx context.Context, code string) (*oauth2.Token, error) {
	tok, err := c.cfg.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("exchanging oauth code: %w", err)
	}
	if tok.RefreshToken == "" {
		return tok, ErrNoRefreshToken
	}
	return tok, nil
}
