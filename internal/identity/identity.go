// Package identity talks to the hosted identity provider's REST auth API.
package identity

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/Prathap331/SB-Next/internal/backend"
	"github.com/Prathap331/SB-Next/internal/logging"
)

// ErrMissingAnonKey means no anon key is configured.
var ErrMissingAnonKey = errors.New("identity anon key is not defined")

const requestTimeout = 30 * time.Second

// AuthError is an error answer from the provider.
type AuthError struct {
	Message string
	Status  int
}

func (e *AuthError) Error() string {
	return e.Message
}

// SignUpResponse is the created user, or the session when email
// confirmation is disabled.
type SignUpResponse struct {
	ID          string `json:"id,omitempty"`
	Email       string `json:"email,omitempty"`
	AccessToken string `json:"access_token,omitempty"`
}

// Client calls the provider's auth endpoints.
type Client struct {
	http    *backend.Client
	anonKey string
}

// New creates a client for the provider at baseURL.
func New(baseURL, anonKey string, opts ...backend.Option) *Client {
	return &Client{http: backend.NewClient(baseURL, opts...), anonKey: anonKey}
}

// SignUp registers a new account.
func (c *Client) SignUp(ctx context.Context, email, password, fullName string) (*SignUpResponse, error) {
	body := map[string]any{
		"email":    email,
		"password": password,
		"data":     map[string]string{"full_name": fullName},
	}
	raw, err := c.post(ctx, "/auth/v1/signup", body, "Sign-up failed.")
	if err != nil {
		return nil, err
	}

	var out SignUpResponse
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("failed to decode sign-up response: %w", err)
	}
	logging.Get(ctx).Info().Str("email", email).Msg("signed up")
	return &out, nil
}

// SignIn exchanges a password for a session. The session is returned as
// received so it can be stored verbatim.
func (c *Client) SignIn(ctx context.Context, email, password string) ([]byte, error) {
	body := map[string]string{"email": email, "password": password}
	raw, err := c.post(ctx, "/auth/v1/token?grant_type=password", body, "Sign-in failed.")
	if err != nil {
		return nil, err
	}
	logging.Get(ctx).Info().Str("email", email).Msg("signed in")
	return raw, nil
}

func (c *Client) post(ctx context.Context, path string, body any, fallback string) ([]byte, error) {
	if strings.TrimSpace(c.anonKey) == "" {
		return nil, ErrMissingAnonKey
	}

	data, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("failed to encode request: %w", err)
	}
	header := http.Header{}
	header.Set("apikey", c.anonKey)

	resp, err := c.http.PostJSON(ctx, path, header, data, requestTimeout)
	if err != nil {
		return nil, fmt.Errorf("identity request failed: %w", err)
	}
	if !resp.OK() {
		return nil, &AuthError{Status: resp.StatusCode, Message: errorMessage(resp.Body, fallback)}
	}
	return resp.Body, nil
}

// errorMessage reads the provider's error fields, most specific first.
func errorMessage(body []byte, fallback string) string {
	var payload struct {
		ErrorDescription string `json:"error_description"`
		Msg              string `json:"msg"`
		Message          string `json:"message"`
	}
	if json.Unmarshal(body, &payload) == nil {
		for _, msg := range []string{payload.ErrorDescription, payload.Msg, payload.Message} {
			if msg != "" {
				return msg
			}
		}
	}
	return fallback
}
