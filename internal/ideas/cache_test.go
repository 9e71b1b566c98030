package ideas

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Prathap331/SB-Next/internal/database"
	"github.com/Prathap331/SB-Next/internal/kv"
	"github.com/Prathap331/SB-Next/internal/testutil"
)

var epoch = time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)

func newSQLStore(t *testing.T) *kv.SQLStore {
	t.Helper()

	manager, err := database.NewManager(context.Background(), database.MemoryDSN)
	require.NoError(t, err)
	t.Cleanup(func() { _ = manager.Close() })
	return kv.NewSQLStore(manager.DB(), 0)
}

func entryAt(topic string, at time.Time) Entry {
	return Entry{Key: topic, Ideas: FallbackIdeas(topic), Timestamp: at.UnixMilli()}
}

func TestCachePersistentHitRefreshesMemory(t *testing.T) {
	t.Parallel()
	ctx, _ := testutil.NewTestContext(t)
	clk := testutil.NewFakeClock(epoch)
	store := newSQLStore(t)

	writer := NewCache(store, clk, time.Hour)
	writer.Put(ctx, entryAt("go", epoch))

	reader := NewCache(store, clk, time.Hour)
	entry, ok := reader.Get(ctx, "go")
	require.True(t, ok)
	assert.Equal(t, "go", entry.Key)

	require.NoError(t, store.Delete(ctx, storeKey("go")))
	_, ok = reader.getMemory("go")
	assert.True(t, ok, "persistent hit should populate memory")
}

func TestCacheMemoryHitRefreshesPersistent(t *testing.T) {
	t.Parallel()
	ctx, _ := testutil.NewTestContext(t)
	clk := testutil.NewFakeClock(epoch)
	store := kv.NewMemoryStore(0)

	cache := NewCache(store, clk, time.Hour)
	cache.Put(ctx, entryAt("go", epoch))
	require.NoError(t, store.Delete(ctx, storeKey("go")))

	_, ok := cache.Get(ctx, "go")
	require.True(t, ok)

	_, ok, err := store.Get(ctx, storeKey("go"))
	require.NoError(t, err)
	assert.True(t, ok, "memory hit should repopulate the persistent tier")
}

func TestCacheNeverReturnsExpiredEntries(t *testing.T) {
	t.Parallel()
	ctx, _ := testutil.NewTestContext(t)
	clk := testutil.NewFakeClock(epoch)
	store := kv.NewMemoryStore(0)

	cache := NewCache(store, clk, time.Hour)
	cache.Put(ctx, entryAt("go", epoch))

	clk.Advance(time.Hour - time.Millisecond)
	_, ok := cache.Get(ctx, "go")
	require.True(t, ok)

	clk.Advance(time.Millisecond)
	_, ok = cache.Get(ctx, "go")
	assert.False(t, ok)
	assert.Zero(t, store.Len(), "expired entry should be removed from the store")
}

func TestCacheDropsMalformedEntries(t *testing.T) {
	t.Parallel()
	ctx, logs := testutil.NewTestContext(t)
	store := kv.NewMemoryStore(0)
	require.NoError(t, store.Set(ctx, storeKey("go"), []byte("{not json")))
	require.NoError(t, store.Set(ctx, storeKey("rust"), []byte(`{"key":"rust","timestamp":1}`)))

	cache := NewCache(store, testutil.NewFakeClock(epoch), time.Hour)

	_, ok := cache.Get(ctx, "go")
	assert.False(t, ok)
	_, ok = cache.Get(ctx, "rust")
	assert.False(t, ok)
	assert.Zero(t, store.Len())
	assert.Contains(t, logs(), "removing malformed cache entry")
}

func TestCacheKeysAreCaseSensitive(t *testing.T) {
	t.Parallel()
	ctx, _ := testutil.NewTestContext(t)

	cache := NewCache(kv.NewMemoryStore(0), testutil.NewFakeClock(epoch), time.Hour)
	cache.Put(ctx, entryAt("Go", epoch))

	_, ok := cache.Get(ctx, "go")
	assert.False(t, ok)
	_, ok = cache.Get(ctx, "Go")
	assert.True(t, ok)
}

type failingStore struct{ *kv.MemoryStore }

func (failingStore) Set(context.Context, string, []byte) error {
	return errors.New("read-only database")
}

func TestCachePersistentFailureKeepsMemory(t *testing.T) {
	t.Parallel()
	ctx, logs := testutil.NewTestContext(t)

	cache := NewCache(failingStore{kv.NewMemoryStore(0)}, testutil.NewFakeClock(epoch), time.Hour)
	cache.Put(ctx, entryAt("go", epoch))

	_, ok := cache.Get(ctx, "go")
	assert.True(t, ok)
	assert.Contains(t, logs(), "failed to persist cache entry")
}

func TestCacheEvictsWhenQuotaExceeded(t *testing.T) {
	t.Parallel()
	ctx, _ := testutil.NewTestContext(t)
	store := kv.NewMemoryStore(2)

	cache := NewCache(store, testutil.NewFakeClock(epoch), time.Hour)
	cache.Put(ctx, entryAt("a", epoch))
	cache.Put(ctx, entryAt("b", epoch))
	cache.Put(ctx, entryAt("c", epoch))

	_, ok, err := store.Get(ctx, storeKey("c"))
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestCachePruneAndClear(t *testing.T) {
	t.Parallel()
	ctx, _ := testutil.NewTestContext(t)
	clk := testutil.NewFakeClock(epoch)
	store := newSQLStore(t)

	cache := NewCache(store, clk, time.Hour)
	cache.Put(ctx, entryAt("old", epoch.Add(-2*time.Hour)))
	cache.Put(ctx, entryAt("new", epoch))
	require.NoError(t, store.Set(ctx, storeKey("broken"), []byte("nope")))
	require.NoError(t, store.Set(ctx, "script:keep", []byte("{}")))

	removed, err := cache.Prune(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, removed)

	keys, err := store.Keys(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, []string{"script:keep", "topic:new"}, keys)

	removed, err = cache.Clear(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, removed)
	_, ok := cache.Get(ctx, "new")
	assert.False(t, ok)
}
