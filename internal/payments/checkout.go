package payments

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
	// ErrNotAuthenticated means there is no usable credential.
	ErrNotAuthenticated = errors.New("user not authenticated, please login first")
	// ErrUnauthorized means the backend rejected the credential.
	ErrUnauthorized = errors.New("unauthorized, please login again")
)

// Currency is the only currency orders are created in.
const Currency = "INR"

const orderTimeout = 60 * time.Second

// TokenSource supplies the bearer credential.
type TokenSource interface {
	AccessToken(ctx context.Context) (string, error)
}

// Checkout creates payment orders on the backend.
type Checkout struct {
	backend *backend.Client
	tokens  TokenSource
	ready   backend.ReadyOptions
}

// NewCheckout wires a checkout against the backend.
func NewCheckout(b *backend.Client, tokens TokenSource, ready backend.ReadyOptions) *Checkout {
	return &Checkout{backend: b, tokens: tokens, ready: ready}
}

// CreateOrder waits for the backend to come up, then creates an order for
// amount rupees on tier. The returned amount is in paise.
func (c *Checkout) CreateOrder(ctx context.Context, amount int, tier string) (*api.CreateOrderResponse, error) {
	token, err := c.tokens.AccessToken(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to read credential: %w", err)
	}
	if token == "" {
		return nil, ErrNotAuthenticated
	}

	if err := c.backend.WaitReady(ctx, c.ready); err != nil {
		return nil, err //nolint:wrapcheck // readiness errors are user-facing as-is
	}

	return CreateOrder(ctx, c.backend, "Bearer "+token, api.CreateOrderRequest{
		Amount:     amount,
		Currency:   Currency,
		TargetTier: tier,
	})
}

// CreateOrder posts req to the backend's create-order endpoint with the given
// Authorization value.
func CreateOrder(
	ctx context.Context, b *backend.Client, authorization string, req api.CreateOrderRequest,
) (*api.CreateOrderResponse, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to encode order: %w", err)
	}
	header := http.Header{}
	header.Set("Authorization", authorization)

	resp, err := b.PostJSON(ctx, "/payments/create-order", header, body, orderTimeout)
	if err != nil {
		return nil, fmt.Errorf("failed to create order: %w", err)
	}
	if resp.StatusCode == http.StatusUnauthorized {
		return nil, ErrUnauthorized
	}
	if !resp.OK() {
		return nil, fmt.Errorf("failed to create order: %s", strings.TrimSpace(string(resp.Body)))
	}

	var order api.CreateOrderResponse
	if err := json.Unmarshal(resp.Body, &order); err != nil {
		return nil, fmt.Errorf("failed to decode order: %w", err)
	}
	logging.Get(ctx).Info().
		Str("order_id", order.OrderID).
		Int("amount", order.Amount).
		Str("tier", req.TargetTier).
		Msg("created payment order")
	return &order, nil
}
