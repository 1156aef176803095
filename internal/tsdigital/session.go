package tsdigital

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"net/http"
	"net/url"

	"github.com/ginjaninja78/sdi-invoice-sender/internal/credentials"
)

// Session is the login state for one company. It is read-only once Login
// returns, and may be shared between goroutines.
type Session struct {
	email        string
	passwordHash string
	taxID        string
	token        string
}

// NewSession creates an unauthenticated session. The password is hashed
// immediately and not kept.
func NewSession(creds credentials.Credentials) *Session {
	return &Session{
		email:        creds.Email,
		passwordHash: PasswordHash(creds.Email, creds.Password),
		taxID:        creds.VATNumber,
	}
}

// Email returns the login email.
func (s *Session) Email() string { return s.email }

// TaxID returns the VAT number used as transmitter and sender.
func (s *Session) TaxID() string { return s.taxID }

// Authenticated reports whether login succeeded.
func (s *Session) Authenticated() bool {
	return s != nil && s.token != ""
}

func (s *Session) authorization() string {
	return "Bearer " + s.token
}

// PasswordHash returns hex(sha256(email || password)).
func PasswordHash(email, password string) string {
	sum := sha256.Sum256([]byte(email + password))
	return hex.EncodeToString(sum[:])
}

// LoginDigest returns hex(sha256(passwordHash || nonce)).
func LoginDigest(passwordHash, nonce string) string {
	sum := sha256.Sum256([]byte(passwordHash + nonce))
	return hex.EncodeToString(sum[:])
}

// Login authenticates creds against the portal.
//
// The returned session is never nil. When err is non-nil the session is
// unauthenticated and every call made with it fails with ErrNotAuthenticated.
func (c *Client) Login(ctx context.Context, creds credentials.Credentials) (*Session, error) {
	s := NewSession(creds)

	nonce, err := c.nonce(ctx, s.email)
	if err != nil {
		return s, fmt.Errorf("%w: %w", ErrLoginFailed, err)
	}

	req, err := c.newRequest(ctx, http.MethodPost, c.loginURL+"/login/agyo", map[string]string{
		"id":     s.email,
		"digest": LoginDigest(s.passwordHash, nonce),
	})
	if err != nil {
		return s, fmt.Errorf("%w: %w", ErrLoginFailed, err)
	}

	var resp struct {
		Token string `json:"token"`
	}
	if err := c.do(req, http.StatusOK, &resp); err != nil {
		return s, fmt.Errorf("%w: %w", ErrLoginFailed, err)
	}
	if resp.Token == "" {
		return s, fmt.Errorf("%w: empty token", ErrLoginFailed)
	}

	s.token = resp.Token
	c.logger.Info("logged in to TS Digital", "email", s.email)
	return s, nil
}

func (c *Client) nonce(ctx context.Context, email string) (string, error) {
	q := url.Values{"userId": {email}}
	req, err := c.newRequest(ctx, http.MethodGet, c.loginURL+"/login/agyo/nonce?"+q.Encode(), nil)
	if err != nil {
		return "", err
	}

	var resp struct {
		Nonce string `json:"nonce"`
	}
	if err := c.do(req, http.StatusOK, &resp); err != nil {
		return "", err
	}
	return resp.Nonce, nil
}
