// Package kv is the persistent key-value tier behind the result caches.
//
// It stands in for browser-local storage: small JSON values under namespaced
// keys, a bounded quota, and best-effort oldest-first eviction.
package kv

import (
	"context"
	"errors"
	"fmt"

	"github.com/Prathap331/SB-Next/internal/logging"
)

// ErrQuotaExceeded is returned by Set when the store is full.
var ErrQuotaExceeded = errors.New("kv quota exceeded")

const (
	// putAttempts bounds the cleanup-and-retry loop in Put.
	putAttempts = 3
	// evictBatch is how many entries each cleanup pass removes.
	evictBatch = 5
)

// Store is a namespaced key-value store.
type Store interface {
	// Get returns the value for key; ok is false on a miss.
	Get(ctx context.Context, key string) (value []byte, ok bool, err error)
	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
	// EvictOldest removes up to n least recently written entries.
	EvictOldest(ctx context.Context, n int) (int, error)
	// DeletePrefix removes every key starting with prefix.
	DeletePrefix(ctx context.Context, prefix string) (int, error)
	// Keys lists every key starting with prefix, in sorted order.
	Keys(ctx context.Context, prefix string) ([]string, error)
}

// Put writes value, evicting the oldest entries and retrying when the store
// reports ErrQuotaExceeded. It gives up after a bounded number of attempts.
func Put(ctx context.Context, store Store, key string, value []byte) error {
	var err error
	for attempt := 1; attempt <= putAttempts; attempt++ {
		err = store.Set(ctx, key, value)
		if err == nil {
			return nil
		}
		if !errors.Is(err, ErrQuotaExceeded) {
			return fmt.Errorf("failed to store %q: %w", key, err)
		}

		evicted, evictErr := store.EvictOldest(ctx, evictBatch)
		logging.Get(ctx).Debug().
			Str("key", key).
			Int("attempt", attempt).
			Int("evicted", evicted).
			Msg("kv quota exceeded, evicted oldest entries")
		if evictErr != nil {
			return fmt.Errorf("failed to evict entries for %q: %w", key, evictErr)
		}
	}
	return fmt.Errorf("failed to store %q after %d attempts: %w", key, putAttempts, err)
}
