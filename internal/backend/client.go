// Package backend is the outbound HTTP client for the external AI backend.
package backend

import (
	"bytes"
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/Prathap331/SB-Next/internal/clock"
)

var (
	// ErrTimeout means the call exceeded its wait budget.
	ErrTimeout = errors.New("backend request timed out")
	// ErrUnreachable means the backend could not be reached at all.
	ErrUnreachable = errors.New("backend unreachable")
)

// maxResponseBytes caps how much of a backend body is buffered.
const maxResponseBytes = 16 << 20

// Response is a fully buffered backend response.
type Response struct {
	Header     http.Header
	Status     string
	Body       []byte
	StatusCode int
}

// OK reports a 2xx status.
func (r *Response) OK() bool {
	return r.StatusCode >= 200 && r.StatusCode < 300
}

// Client sends requests to a fixed backend origin.
type Client struct {
	httpClient *http.Client
	clock      clock.Clock
	baseURL    string
}

// Option customises a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithClock replaces the clock used by WaitReady.
func WithClock(clk clock.Clock) Option {
	return func(c *Client) { c.clock = clk }
}

// NewClient creates a client for baseURL. Per-call deadlines come from the
// caller's context, so the http.Client itself has no overall timeout.
// Proxy support comes from the stdlib's default transport (HTTP_PROXY, HTTPS_PROXY).
func NewClient(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		clock:   clock.New(),
		httpClient: &http.Client{
			Transport: &http.Transport{
				Proxy: http.ProxyFromEnvironment,
				DialContext: (&net.Dialer{
					Timeout:   30 * time.Second,
					KeepAlive: 30 * time.Second,
				}).DialContext,
				TLSClientConfig:     &tls.Config{MinVersion: tls.VersionTLS12},
				TLSHandshakeTimeout: 10 * time.Second,
				MaxIdleConns:        100,
				IdleConnTimeout:     90 * time.Second,
			},
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// BaseURL returns the backend origin.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// URL joins path onto the backend origin.
func (c *Client) URL(path string) string {
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	return c.baseURL + path
}

// PostJSON posts body to path and buffers the response, all within timeout.
// Failures are classified as ErrTimeout or ErrUnreachable; cancellation of
// ctx itself is returned as the context error.
func (c *Client) PostJSON(
	ctx context.Context, path string, header http.Header, body []byte, timeout time.Duration,
) (*Response, error) {
	return c.do(ctx, http.MethodPost, path, header, body, timeout)
}

// Get issues a GET against path within timeout.
func (c *Client) Get(ctx context.Context, path string, timeout time.Duration) (*Response, error) {
	return c.do(ctx, http.MethodGet, path, nil, nil, timeout)
}

func (c *Client) do(
	ctx context.Context, method, path string, header http.Header, body []byte, timeout time.Duration,
) (*Response, error) {
	callCtx := ctx
	if timeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(callCtx, method, c.URL(path), reader)
	if err != nil {
		return nil, fmt.Errorf("failed to build backend request: %w", err)
	}
	for key, values := range header {
		for _, value := range values {
			req.Header.Add(key, value)
		}
	}
	if body != nil && req.Header.Get("Content-Type") == "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if req.Header.Get("Accept") == "" {
		req.Header.Set("Accept", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, classify(ctx, callCtx, err)
	}
	defer func() { _ = resp.Body.Close() }()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, classify(ctx, callCtx, err)
	}

	return &Response{
		StatusCode: resp.StatusCode,
		Status:     resp.Status,
		Header:     resp.Header,
		Body:       data,
	}, nil
}

// classify maps a transport error onto the package sentinels.
func classify(parent, callCtx context.Context, err error) error {
	if parentErr := parent.Err(); parentErr != nil {
		return fmt.Errorf("backend request cancelled: %w", parentErr)
	}
	if errors.Is(callCtx.Err(), context.DeadlineExceeded) || errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %w", ErrTimeout, err)
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return fmt.Errorf("%w: %w", ErrTimeout, err)
	}
	return fmt.Errorf("%w: %w", ErrUnreachable, err)
}
