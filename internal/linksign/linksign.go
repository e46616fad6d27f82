// Package linksign issues and checks short-lived tokens that authorise
// downloads of a single cached attachment.
package linksign

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/zuma-group/bill-integration-platform/internal/domain"
)

const audience = "attachment"

// Signer signs attachment filenames. A Signer with an empty secret is
// disabled: it issues no tokens and accepts any request.
type Signer struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewSigner creates a Signer. A non-positive ttl means seven days.
func NewSigner(secret string, ttl time.Duration) *Signer {
	if ttl <= 0 {
		ttl = 7 * 24 * time.Hour
	}
	return &Signer{secret: []byte(secret), ttl: ttl, now: time.Now}
}

// Enabled reports whether links are signed.
func (s *Signer) Enabled() bool {
	return s != nil && len(s.secret) > 0
}

// Sign returns a token bound to filename, or "" when signing is disabled.
func (s *Signer) Sign(filename string) (string, error) {
	if !s.Enabled() {
		return "", nil
	}
	now := s.now()
	claims := jwt.RegisteredClaims{
		Subject:   filename,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
		Audience:  jwt.ClaimStrings{audience},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("signing attachment link: %w", err)
	}
	return token, nil
}

// Verify checks that token was issued for filename and has not expired.
// It always succeeds when signing is disabled.
func (s *Signer) Verify(token, filename string) error {
	if !s.Enabled() {
		return nil
	}
	if token == "" {
		return domain.ErrInvalidLinkToken
	}
	claims := &jwt.RegisteredClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return s.secret, nil
	},
		jwt.WithAudience(audience),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil || !parsed.Valid {
		return fmt.Errorf("%w: %v", domain.ErrInvalidLinkToken, err)
	}
	if claims.Subject != filename {
		return domain.ErrInvalidLinkToken
	}
	return nil
}
