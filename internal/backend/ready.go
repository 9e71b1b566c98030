package backend

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/Prathap331/SB-Next/internal/logging"
)

// ErrNotReady is returned by WaitReady when the backend never answered 200.
var ErrNotReady = errors.New("backend not ready")

// probeTimeout bounds a single readiness probe.
const probeTimeout = 10 * time.Second

// ReadyOptions bounds WaitReady. Hosted backends spin down when idle and take
// a while to answer after the first request.
type ReadyOptions struct {
	Attempts int
	Delay    time.Duration
	Timeout  time.Duration
}

// DefaultReadyOptions mirrors the checkout flow: ten probes two seconds apart
// within thirty seconds.
func DefaultReadyOptions() ReadyOptions {
	return ReadyOptions{Attempts: 10, Delay: 2 * time.Second, Timeout: 30 * time.Second}
}

// Probe issues a single GET against the backend root and returns its status.
func (c *Client) Probe(ctx context.Context) (int, error) {
	resp, err := c.Get(ctx, "/", probeTimeout)
	if err != nil {
		return 0, err
	}
	return resp.StatusCode, nil
}

// WaitReady probes the backend until it answers 200, the attempts run out, or
// the overall timeout passes.
func (c *Client) WaitReady(ctx context.Context, opts ReadyOptions) error {
	logger := logging.Get(ctx)
	start := c.clock.Now()

	for attempt := 1; attempt <= opts.Attempts; attempt++ {
		if c.clock.Now().Sub(start) > opts.Timeout {
			return fmt.Errorf("%w: health check timed out, try again in a moment", ErrNotReady)
		}

		status, err := c.Probe(ctx)
		if err == nil && status == http.StatusOK {
			logger.Debug().Int("attempt", attempt).Msg("backend ready")
			return nil
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return fmt.Errorf("backend health check cancelled: %w", ctxErr)
		}

		event := logger.Debug().Int("attempt", attempt).Int("status", status)
		if err != nil {
			event = event.Err(err)
		}
		event.Msg("backend not ready yet")

		if attempt == opts.Attempts {
			if err != nil {
				return fmt.Errorf("%w: server is not responding, try again in a moment: %w", ErrNotReady, err)
			}
			break
		}
		if err := c.clock.Sleep(ctx, opts.Delay); err != nil {
			return fmt.Errorf("backend health check cancelled: %w", err)
		}
	}

	return fmt.Errorf("%w: server is taking longer than expected to start, try again in a moment", ErrNotReady)
}
