// Package client calls the storybit /api routes the way the browser pages do.
package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/Prathap331/SB-Next/internal/api"
	"github.com/Prathap331/SB-Next/internal/backend"
	"github.com/Prathap331/SB-Next/internal/logging"
)

var (
	// ErrTimeout means the route did not answer within the client's wait.
	ErrTimeout = errors.New("request timeout - API took too long to respond")
	// ErrUnreachable means the route could not be reached.
	ErrUnreachable = errors.New("network error: unable to connect to the API server")
	// ErrUnauthorized means the route answered 401; the stored credential has
	// already been cleared.
	ErrUnauthorized = errors.New("unauthorized")
)

// StatusError is a non-2xx answer from a route.
type StatusError struct {
	Message string
	Code    int
}

// statusHints replace the generic message for statuses that usually mean a
// misconfigured or cold server.
var statusHints = map[int]string{
	http.StatusMethodNotAllowed:    "Method Not Allowed (405). The API endpoint may not support POST requests or the endpoint URL is incorrect.",
	http.StatusBadGateway:          "Server temporarily unavailable (502 Bad Gateway). The API server may be starting up or overloaded.",
	http.StatusNotFound:            "API endpoint not found (404). Please check if the API URL is correct and the endpoint exists.",
	http.StatusInternalServerError: "Internal server error (500). The API server encountered an error processing your request.",
}

func (e *StatusError) Error() string {
	if hint, ok := statusHints[e.Code]; ok {
		return hint + " " + e.Message
	}
	return fmt.Sprintf("API request failed: %d %s. %s", e.Code, http.StatusText(e.Code), e.Message)
}

// IsRetryable reports whether err is worth retrying against a cold backend:
// a 502, or a message saying the service is temporarily unavailable.
func IsRetryable(err error) bool {
	var statusErr *StatusError
	if errors.As(err, &statusErr) && statusErr.Code == http.StatusBadGateway {
		return true
	}
	return err != nil && strings.Contains(strings.ToLower(err.Error()), "temporarily unavailable")
}

// TokenSource supplies and clears the bearer credential.
type TokenSource interface {
	AccessToken(ctx context.Context) (string, error)
	Clear(ctx context.Context) error
}

// Client talks to a storybit server.
type Client struct {
	http    *backend.Client
	tokens  TokenSource
	timeout time.Duration
}

// New creates a client for the server at serverURL. tokens may be nil.
func New(serverURL string, tokens TokenSource, timeout time.Duration, opts ...backend.Option) *Client {
	return &Client{
		http:    backend.NewClient(serverURL, opts...),
		tokens:  tokens,
		timeout: timeout,
	}
}

// ProcessTopic asks for script ideas about topic.
func (c *Client) ProcessTopic(ctx context.Context, topic string) (*api.ProcessTopicResponse, error) {
	var out api.ProcessTopicResponse
	if err := c.post(ctx, "/api/process-topic", api.ProcessTopicRequest{Topic: topic}, &out); err != nil {
		return nil, err
	}
	if out.Ideas == nil {
		out.Ideas = []string{}
	}
	if out.Descriptions == nil {
		out.Descriptions = []string{}
	}
	return &out, nil
}

// GenerateScript asks for a full script.
func (c *Client) GenerateScript(ctx context.Context, req api.GenerationRequest) (*api.ScriptResult, error) {
	var out api.ScriptResult
	if err := c.post(ctx, "/api/generate-script", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// CreateOrder asks for a payment order.
func (c *Client) CreateOrder(ctx context.Context, req api.CreateOrderRequest) (*api.CreateOrderResponse, error) {
	var out api.CreateOrderResponse
	if err := c.post(ctx, "/api/payments/create-order", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) post(ctx context.Context, path string, in, out any) error {
	logger := logging.Get(ctx)

	body, err := json.Marshal(in)
	if err != nil {
		return fmt.Errorf("failed to encode request: %w", err)
	}

	header := http.Header{}
	if c.tokens != nil {
		token, tokenErr := c.tokens.AccessToken(ctx)
		if tokenErr != nil {
			logger.Warn().Err(tokenErr).Msg("failed to read stored credential")
		}
		if token != "" {
			header.Set("Authorization", "Bearer "+token)
		}
	}

	logger.Debug().Str("path", path).Msg("making API request")
	resp, err := c.http.PostJSON(ctx, path, header, body, c.timeout)
	switch {
	case errors.Is(err, backend.ErrTimeout):
		return fmt.Errorf("%w (up to %s)", ErrTimeout, c.timeout)
	case errors.Is(err, backend.ErrUnreachable):
		return fmt.Errorf("%w: %w", ErrUnreachable, err)
	case err != nil:
		return err //nolint:wrapcheck // cancellation is returned as-is
	}
	logger.Debug().Str("path", path).Int("status", resp.StatusCode).Msg("API response")

	if resp.StatusCode == http.StatusUnauthorized {
		if c.tokens != nil {
			if clearErr := c.tokens.Clear(ctx); clearErr != nil {
				logger.Warn().Err(clearErr).Msg("failed to clear credential after 401")
			}
		}
		return ErrUnauthorized
	}

	if !resp.OK() {
		return &StatusError{Code: resp.StatusCode, Message: errorMessage(resp)}
	}

	if err := json.Unmarshal(resp.Body, out); err != nil {
		return fmt.Errorf("failed to decode response from %s: %w", path, err)
	}
	return nil
}

// errorMessage prefers the route's JSON error field over the raw body.
func errorMessage(resp *backend.Response) string {
	var body api.ErrorBody
	if err := json.Unmarshal(resp.Body, &body); err == nil && body.Error != "" {
		return body.Error
	}
	if text := strings.TrimSpace(string(resp.Body)); text != "" {
		return text
	}
	return resp.Status
}
