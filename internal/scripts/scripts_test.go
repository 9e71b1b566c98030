package scripts

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Prathap331/SB-Next/internal/api"
	"github.com/Prathap331/SB-Next/internal/client"
	"github.com/Prathap331/SB-Next/internal/kv"
	"github.com/Prathap331/SB-Next/internal/testutil"
)

var epoch = time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)

type fakeBackend struct {
	err  error
	reqs []api.GenerationRequest
	mu   sync.Mutex
}

func (f *fakeBackend) GenerateScript(_ context.Context, req api.GenerationRequest) (*api.ScriptResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.reqs = append(f.reqs, req)
	if f.err != nil {
		return nil, f.err
	}
	return &api.ScriptResult{Script: "Once upon a time: " + req.Topic, EstimatedWordCount: 4, SourceURLs: []string{}}, nil
}

func (f *fakeBackend) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.reqs)
}

func TestNormalizeID(t *testing.T) {
	t.Parallel()

	tests := []struct {
		raw  string
		want string
	}{
		{raw: "  AI   &  Robotics ", want: "ai & robotics"},
		{raw: "AI%20%26%20Robotics", want: "ai & robotics"},
		{raw: "Tabs\tand\nnewlines", want: "tabs and newlines"},
		{raw: "50%", want: "50%"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, NormalizeID(tt.raw), tt.raw)
	}
	assert.Equal(t, "an idea", CacheID(api.GenerationRequest{Topic: "topic", IdeaTitle: " An Idea"}))
	assert.Equal(t, "topic", CacheID(api.GenerationRequest{Topic: "Topic", IdeaTitle: "  "}))
}

func TestStashTakeIsOneShot(t *testing.T) {
	t.Parallel()
	stash := NewStash(testutil.NewFakeClock(epoch), 0)
	tab := NewTabID()

	stash.Put(tab, api.GenerationRequest{Topic: "go"})

	req, ok := stash.Take(tab)
	require.True(t, ok)
	assert.Equal(t, "go", req.Topic)

	_, ok = stash.Take(tab)
	assert.False(t, ok)
}

func TestStashExpires(t *testing.T) {
	t.Parallel()
	clk := testutil.NewFakeClock(epoch)
	stash := NewStash(clk, time.Minute)

	stash.Put("tab", api.GenerationRequest{Topic: "go"})
	clk.Advance(time.Minute)

	_, ok := stash.Peek("tab")
	assert.False(t, ok)
}

func TestStashTabsAreIsolated(t *testing.T) {
	t.Parallel()
	stash := NewStash(testutil.NewFakeClock(epoch), 0)
	a, b := NewTabID(), NewTabID()
	require.NotEqual(t, a, b)

	stash.Put(a, api.GenerationRequest{Topic: "a"})
	stash.Put(b, api.GenerationRequest{Topic: "b"})

	req, ok := stash.Take(b)
	require.True(t, ok)
	assert.Equal(t, "b", req.Topic)
	_, ok = stash.Peek(a)
	assert.True(t, ok)
}

func TestGenerateConsumesParamsAndCaches(t *testing.T) {
	t.Parallel()
	ctx, _ := testutil.NewTestContext(t)
	clk := testutil.NewFakeClock(epoch)
	backend := &fakeBackend{}
	stash := NewStash(clk, 0)
	gen := NewGenerator(backend, stash, NewCache(kv.NewMemoryStore(0), clk, time.Hour))

	stash.Put("tab", api.GenerationRequest{Topic: "Go Routines", DurationMinutes: 10})
	result, err := gen.Generate(ctx, "tab")
	require.NoError(t, err)
	assert.False(t, result.FromCache)
	assert.Equal(t, "Once upon a time: Go Routines", result.Script.Script)
	assert.Equal(t, 10, result.Request.DurationMinutes)

	_, err = gen.Generate(ctx, "tab")
	require.ErrorIs(t, err, ErrNoParams)

	stash.Put("other", api.GenerationRequest{Topic: "  go   routines"})
	cached, err := gen.Generate(ctx, "other")
	require.NoError(t, err)
	assert.True(t, cached.FromCache)
	assert.Equal(t, 1, backend.calls())
}

func TestGenerateFailureKeepsParams(t *testing.T) {
	t.Parallel()
	ctx, _ := testutil.NewTestContext(t)
	clk := testutil.NewFakeClock(epoch)
	backend := &fakeBackend{err: client.ErrTimeout}
	stash := NewStash(clk, 0)
	gen := NewGenerator(backend, stash, nil)

	stash.Put("tab", api.GenerationRequest{Topic: "go"})
	_, err := gen.Generate(ctx, "tab")
	require.ErrorIs(t, err, client.ErrTimeout)

	_, ok := stash.Peek("tab")
	assert.True(t, ok, "a failed generation can be retried")
}

func TestGenerateUnauthorized(t *testing.T) {
	t.Parallel()
	ctx, _ := testutil.NewTestContext(t)
	clk := testutil.NewFakeClock(epoch)
	stash := NewStash(clk, 0)
	gen := NewGenerator(&fakeBackend{err: client.ErrUnauthorized}, stash, nil)

	stash.Put("tab", api.GenerationRequest{Topic: "go"})
	_, err := gen.Generate(ctx, "tab")

	require.ErrorIs(t, err, ErrSignInRequired)
	_, ok := stash.Peek("tab")
	assert.False(t, ok)
}

func TestScriptCacheExpiryAndMalformed(t *testing.T) {
	t.Parallel()
	ctx, _ := testutil.NewTestContext(t)
	clk := testutil.NewFakeClock(epoch)
	store := kv.NewMemoryStore(0)
	cache := NewCache(store, clk, time.Hour)

	cache.Put(ctx, "go", &api.ScriptResult{Script: "x"})
	_, ok := cache.Get(ctx, "go")
	require.True(t, ok)

	clk.Advance(time.Hour)
	_, ok = cache.Get(ctx, "go")
	assert.False(t, ok)

	require.NoError(t, store.Set(ctx, "script:bad", []byte(`{"key":"bad"}`)))
	_, ok = cache.Get(ctx, "bad")
	assert.False(t, ok)
	assert.Zero(t, store.Len())

	cache.Put(ctx, "a", &api.ScriptResult{Script: "x"})
	require.NoError(t, store.Set(ctx, "topic:keep", []byte("{}")))
	removed, err := cache.Clear(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, removed)
	assert.Equal(t, 1, store.Len())
}

func TestGenerateCancelled(t *testing.T) {
	t.Parallel()
	logCtx, _ := testutil.NewTestContext(t)
	ctx, cancel := context.WithCancel(logCtx)
	cancel()

	stash := NewStash(testutil.NewFakeClock(epoch), 0)
	stash.Put("tab", api.GenerationRequest{Topic: "go"})
	_, err := NewGenerator(&fakeBackend{err: context.Canceled}, stash, nil).Generate(ctx, "tab")

	assert.True(t, errors.Is(err, context.Canceled))
}
