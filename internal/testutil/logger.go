// Package testutil holds helpers shared by storybit tests.
package testutil

import (
	"context"
	"strings"
	"sync"
	"testing"

	"github.com/rs/zerolog"

	"github.com/Prathap331/SB-Next/internal/logging"
)

// lockedBuilder guards a strings.Builder so log output can be read while
// goroutines are still writing.
type lockedBuilder struct {
	mu  sync.Mutex
	buf strings.Builder
}

func (b *lockedBuilder) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p) //nolint:wrapcheck // in-memory writer
}

func (b *lockedBuilder) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

// NewTestContext creates a context with logger for race-safe testing.
// Returns a context with logger attached and a function to retrieve log output.
func NewTestContext(t *testing.T) (ctx context.Context, getLogOutput func() string) {
	t.Helper()

	logOutput := &lockedBuilder{}

	ctx, err := logging.New(context.Background(), nil, logging.Config{
		Service: "test",
		Writer:  logOutput,
		Level:   zerolog.DebugLevel,
	})
	if err != nil {
		t.Fatalf("Failed to create test logger: %v", err)
	}

	return ctx, logOutput.String
}
