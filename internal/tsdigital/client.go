// =============================================================================
// SDI Invoice Sender - TS Digital Client
// =============================================================================
//
// This package is a thin JSON client for the TS Digital portal, covering the
// calls needed to hand an XML invoice to the SDI:
//
//   1. GET  {login}/login/agyo/nonce          - single-use login nonce
//   2. POST {login}/login/agyo                - digest login, returns a token
//   3. POST {console}/xmlInvoices/extractBaseInfo
//                                             - parse XML, return metadata
//   4. POST {console}/invoices                - submit the invoice (201)
//
// Every failed call is logged with its status and body and returned as an
// error. Nothing is retried.
//
// =============================================================================

package tsdigital

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-git/go-billy/v5"
	"github.com/google/uuid"

	"github.com/ginjaninja78/sdi-invoice-sender/internal/config"
)

var (
	// ErrLoginFailed wraps any failure of the nonce or login call.
	ErrLoginFailed = errors.New("TS Digital login failed")

	// ErrNotAuthenticated is returned, without a network call, for a session
	// that has no token.
	ErrNotAuthenticated = errors.New("TS Digital session is not authenticated")

	// ErrNotXML is returned for an empty path list or a path not ending in .xml.
	ErrNotXML = errors.New("only XML invoices can be sent")

	// ErrNoBaseInfo means extraction returned no usable data for the invoice.
	ErrNoBaseInfo = errors.New("TS Digital could not extract invoice data")

	// ErrUnexpectedStatus is returned when a response has a status other than
	// the one the call expects.
	ErrUnexpectedStatus = errors.New("TS Digital request failed")
)

// Client talks to TS Digital. Documents are read from fs.
type Client struct {
	http   *http.Client
	fs     billy.Filesystem
	logger *slog.Logger

	loginURL   string
	consoleURL string
	appName    string
	appVersion string
	flowType   string
}

// New creates a Client for the endpoints in cfg.
func New(cfg config.APIConfig, fs billy.Filesystem, logger *slog.Logger) *Client {
	return &Client{
		http:       &http.Client{Timeout: cfg.Timeout},
		fs:         fs,
		logger:     logger,
		loginURL:   strings.TrimSuffix(cfg.LoginURL, "/"),
		consoleURL: strings.TrimSuffix(cfg.ConsoleURL, "/"),
		appName:    cfg.AppName,
		appVersion: cfg.AppVersion,
		flowType:   cfg.FlowType,
	}
}

// WithHTTPClient replaces the underlying HTTP client.
func (c *Client) WithHTTPClient(h *http.Client) *Client {
	c.http = h
	return c
}

func (c *Client) newRequest(ctx context.Context, method, url string, body any) (*http.Request, error) {
	var r io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to encode request: %w", err)
		}
		r = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, r)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("x-correlation-id", uuid.NewString())
	req.Header.Set("x-app-name", c.appName)
	req.Header.Set("x-app-version", c.appVersion)
	if body != nil {
		req.Header.Set("content-type", "application/json;charset=UTF-8")
	}
	return req, nil
}

// do sends req and decodes the JSON response into out when the status is
// want. Any other status is logged and reported as ErrUnexpectedStatus.
func (c *Client) do(req *http.Request, want int, out any) error {
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", req.Method, req.URL.Path, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("%s %s: failed to read response: %w", req.Method, req.URL.Path, err)
	}

	if resp.StatusCode != want {
		c.logger.Error("TS Digital request failed",
			"method", req.Method,
			"path", req.URL.Path,
			"status", resp.StatusCode,
			"body", string(body),
			"correlation_id", req.Header.Get("x-correlation-id"),
		)
		return fmt.Errorf("%w: %s %s returned %d", ErrUnexpectedStatus, req.Method, req.URL.Path, resp.StatusCode)
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("%s %s: failed to decode response: %w", req.Method, req.URL.Path, err)
	}
	return nil
}
