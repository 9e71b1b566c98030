package payments

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Prathap331/SB-Next/internal/api"
	"github.com/Prathap331/SB-Next/internal/backend"
	"github.com/Prathap331/SB-Next/internal/testutil"
)

func TestParseEvent(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		body    string
		event   string
		entity  Entity
		settles bool
	}{
		{
			name:    "payment captured",
			body:    `{"event":"payment.captured","payload":{"payment":{"entity":{"id":"pay_1","order_id":"order_1","amount":150000}}}}`,
			event:   "payment.captured",
			entity:  Entity{ID: "pay_1", OrderID: "order_1", Amount: "150000"},
			settles: true,
		},
		{
			name:    "order paid uses order entity",
			body:    `{"event":"order.paid","payload":{"order":{"entity":{"id":"order_2","amount":2500}}}}`,
			event:   "order.paid",
			entity:  Entity{ID: "order_2", Amount: "2500"},
			settles: true,
		},
		{
			name:  "other event",
			body:  `{"event":"refund.created"}`,
			event: "refund.created",
		},
		{
			name: "no event",
			body: `{"foo":1}`,
		},
		{
			name:  "odd payload shape",
			body:  `{"event":"payment.captured","payload":"nope"}`,
			event: "payment.captured",
			// still routed, no entity
			settles: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			event, err := ParseEvent([]byte(tt.body))
			require.NoError(t, err)
			assert.Equal(t, tt.event, event.Name)
			assert.Equal(t, tt.settles, event.Settles())
			assert.Equal(t, tt.entity, event.Entity())
			assert.Equal(t, tt.body, string(event.Raw))
		})
	}
}

func TestParseEventRejectsNonObjects(t *testing.T) {
	t.Parallel()

	for _, body := range []string{"", "not json", "null", `"str"`, "[1,2]"} {
		_, err := ParseEvent([]byte(body))
		assert.ErrorIs(t, err, ErrInvalidPayload, body)
	}
}

type staticTokens string

func (s staticTokens) AccessToken(context.Context) (string, error) { return string(s), nil }

func fastReady() backend.ReadyOptions {
	return backend.ReadyOptions{Attempts: 3, Delay: time.Second, Timeout: 10 * time.Second}
}

func TestCheckoutRequiresCredential(t *testing.T) {
	t.Parallel()
	ctx, _ := testutil.NewTestContext(t)

	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) { hits.Add(1) }))
	defer srv.Close()

	_, err := NewCheckout(backend.NewClient(srv.URL), staticTokens(""), fastReady()).CreateOrder(ctx, 1250, "basic")

	require.ErrorIs(t, err, ErrNotAuthenticated)
	assert.Zero(t, hits.Load())
}

func TestCheckoutWaitsForBackendThenCreatesOrder(t *testing.T) {
	t.Parallel()
	ctx, _ := testutil.NewTestContext(t)

	var probes atomic.Int32
	var got api.CreateOrderRequest
	var gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/":
			if probes.Add(1) < 2 {
				w.WriteHeader(http.StatusServiceUnavailable)
				return
			}
			w.WriteHeader(http.StatusOK)
		case "/payments/create-order":
			gotAuth = r.Header.Get("Authorization")
			_ = json.NewDecoder(r.Body).Decode(&got)
			_, _ = w.Write([]byte(`{"order_id":"order_9","key_id":"rzp_key","amount":125000,"currency":"INR"}`))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer srv.Close()

	clk := testutil.NewFakeClock(time.Now())
	b := backend.NewClient(srv.URL, backend.WithClock(clk))
	order, err := NewCheckout(b, staticTokens("tok"), fastReady()).CreateOrder(ctx, 1250, "basic")
	require.NoError(t, err)

	assert.Equal(t, int32(2), probes.Load())
	assert.Equal(t, "Bearer tok", gotAuth)
	assert.Equal(t, api.CreateOrderRequest{Amount: 1250, Currency: "INR", TargetTier: "basic"}, got)
	assert.Equal(t, "order_9", order.OrderID)
	assert.Equal(t, 125000, order.Amount)
}

func TestCreateOrderErrors(t *testing.T) {
	t.Parallel()
	ctx, _ := testutil.NewTestContext(t)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") == "Bearer bad" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte("invalid tier"))
	}))
	defer srv.Close()
	b := backend.NewClient(srv.URL)

	_, err := CreateOrder(ctx, b, "Bearer bad", api.CreateOrderRequest{Amount: 1})
	require.ErrorIs(t, err, ErrUnauthorized)

	_, err = CreateOrder(ctx, b, "Bearer ok", api.CreateOrderRequest{Amount: 1})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid tier")
}
