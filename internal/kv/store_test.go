package kv

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Prathap331/SB-Next/internal/database"
)

func newSQLStore(t *testing.T, maxEntries int) *SQLStore {
	t.Helper()

	manager, err := database.NewManager(context.Background(), database.MemoryDSN)
	require.NoError(t, err)
	t.Cleanup(func() { _ = manager.Close() })

	store := NewSQLStore(manager.DB(), maxEntries)
	// deterministic, strictly increasing write times
	var tick int64
	store.now = func() time.Time {
		tick++
		return time.Unix(0, tick)
	}
	return store
}

// stores runs the same behavioural test against both implementations.
func stores(t *testing.T, maxEntries int) map[string]Store {
	t.Helper()
	return map[string]Store{
		"sqlite": newSQLStore(t, maxEntries),
		"memory": NewMemoryStore(maxEntries),
	}
}

func TestStoreGetSetDelete(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	for name, store := range stores(t, 0) {
		t.Run(name, func(t *testing.T) {
			_, ok, err := store.Get(ctx, "topic:missing")
			require.NoError(t, err)
			assert.False(t, ok)

			require.NoError(t, store.Set(ctx, "topic:go", []byte(`{"a":1}`)))
			value, ok, err := store.Get(ctx, "topic:go")
			require.NoError(t, err)
			require.True(t, ok)
			assert.JSONEq(t, `{"a":1}`, string(value))

			require.NoError(t, store.Set(ctx, "topic:go", []byte(`{"a":2}`)))
			value, _, err = store.Get(ctx, "topic:go")
			require.NoError(t, err)
			assert.JSONEq(t, `{"a":2}`, string(value))

			require.NoError(t, store.Delete(ctx, "topic:go"))
			_, ok, err = store.Get(ctx, "topic:go")
			require.NoError(t, err)
			assert.False(t, ok)
		})
	}
}

func TestStoreQuotaAndEviction(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	for name, store := range stores(t, 3) {
		t.Run(name, func(t *testing.T) {
			for i := range 3 {
				require.NoError(t, store.Set(ctx, fmt.Sprintf("k%d", i), []byte("v")))
			}

			err := store.Set(ctx, "k3", []byte("v"))
			require.ErrorIs(t, err, ErrQuotaExceeded)

			// overwriting an existing key never hits the quota
			require.NoError(t, store.Set(ctx, "k1", []byte("v2")))

			evicted, err := store.EvictOldest(ctx, 1)
			require.NoError(t, err)
			assert.Equal(t, 1, evicted)

			_, ok, err := store.Get(ctx, "k0")
			require.NoError(t, err)
			assert.False(t, ok, "k0 was the oldest write and should be gone")

			_, ok, err = store.Get(ctx, "k1")
			require.NoError(t, err)
			assert.True(t, ok, "k1 was rewritten and should survive")
		})
	}
}

func TestStoreDeletePrefix(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	for name, store := range stores(t, 0) {
		t.Run(name, func(t *testing.T) {
			require.NoError(t, store.Set(ctx, "topic:a", []byte("1")))
			require.NoError(t, store.Set(ctx, "topic:b", []byte("1")))
			require.NoError(t, store.Set(ctx, "script:a", []byte("1")))
			require.NoError(t, store.Set(ctx, "topic_x", []byte("1")))

			removed, err := store.DeletePrefix(ctx, "topic:")
			require.NoError(t, err)
			assert.Equal(t, 2, removed)

			_, ok, _ := store.Get(ctx, "script:a")
			assert.True(t, ok)
			_, ok, _ = store.Get(ctx, "topic_x")
			assert.True(t, ok, "underscore must not act as a LIKE wildcard")
		})
	}
}

func TestStoreKeys(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	for name, store := range stores(t, 0) {
		t.Run(name, func(t *testing.T) {
			require.NoError(t, store.Set(ctx, "topic:b", []byte("1")))
			require.NoError(t, store.Set(ctx, "topic:a", []byte("1")))
			require.NoError(t, store.Set(ctx, "script:a", []byte("1")))

			keys, err := store.Keys(ctx, "topic:")
			require.NoError(t, err)
			assert.Equal(t, []string{"topic:a", "topic:b"}, keys)

			keys, err = store.Keys(ctx, "nothing:")
			require.NoError(t, err)
			assert.Empty(t, keys)
		})
	}
}

func TestPutEvictsAndRetries(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	store := NewMemoryStore(2)
	require.NoError(t, store.Set(ctx, "old1", []byte("x")))
	require.NoError(t, store.Set(ctx, "old2", []byte("x")))

	require.NoError(t, Put(ctx, store, "new", []byte("y")))

	value, ok, err := store.Get(ctx, "new")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "y", string(value))
}

type alwaysFullStore struct {
	*MemoryStore
	sets   int
	evicts int
}

func (s *alwaysFullStore) Set(context.Context, string, []byte) error {
	s.sets++
	return ErrQuotaExceeded
}

func (s *alwaysFullStore) EvictOldest(context.Context, int) (int, error) {
	s.evicts++
	return 0, nil
}

func TestPutGivesUpAfterBoundedAttempts(t *testing.T) {
	t.Parallel()

	store := &alwaysFullStore{MemoryStore: NewMemoryStore(0)}

	err := Put(context.Background(), store, "k", []byte("v"))

	require.ErrorIs(t, err, ErrQuotaExceeded)
	assert.Equal(t, putAttempts, store.sets)
	assert.Equal(t, putAttempts, store.evicts)
}

type brokenStore struct{ *MemoryStore }

func (brokenStore) Set(context.Context, string, []byte) error {
	return errors.New("disk on fire")
}

func TestPutDoesNotRetryOtherErrors(t *testing.T) {
	t.Parallel()

	err := Put(context.Background(), brokenStore{NewMemoryStore(0)}, "k", []byte("v"))

	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrQuotaExceeded)
	assert.Contains(t, err.Error(), "disk on fire")
}
