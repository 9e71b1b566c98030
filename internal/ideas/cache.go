package ideas

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/Prathap331/SB-Next/internal/clock"
	"github.com/Prathap331/SB-Next/internal/constants"
	"github.com/Prathap331/SB-Next/internal/kv"
	"github.com/Prathap331/SB-Next/internal/logging"
)

// Cache holds resolved topics in process memory and in a persistent store.
// Both tiers apply the same freshness window; stale or malformed entries are
// removed when they are read.
type Cache struct {
	store  kv.Store
	clock  clock.Clock
	memory map[string]Entry
	ttl    time.Duration
	mu     sync.RWMutex
}

// NewCache creates a cache over store. store may be nil for a memory-only cache.
func NewCache(store kv.Store, clk clock.Clock, ttl time.Duration) *Cache {
	return &Cache{
		store:  store,
		clock:  clk,
		ttl:    ttl,
		memory: make(map[string]Entry),
	}
}

func storeKey(topic string) string {
	return constants.TopicKeyPrefix + topic
}

func (c *Cache) fresh(entry Entry) bool {
	age := c.clock.Now().Sub(time.UnixMilli(entry.Timestamp))
	return age < c.ttl
}

// Get returns the fresh entry for topic. The persistent tier is consulted
// first; a hit in either tier refreshes the other.
func (c *Cache) Get(ctx context.Context, topic string) (Entry, bool) {
	if entry, ok := c.getPersistent(ctx, topic); ok {
		metricCacheLookups.WithLabelValues("persistent", "hit").Inc()
		c.setMemory(entry)
		return entry, true
	}
	metricCacheLookups.WithLabelValues("persistent", "miss").Inc()

	if entry, ok := c.getMemory(topic); ok {
		metricCacheLookups.WithLabelValues("memory", "hit").Inc()
		c.putPersistent(ctx, entry)
		return entry, true
	}
	metricCacheLookups.WithLabelValues("memory", "miss").Inc()
	return Entry{}, false
}

// Put stores entry in both tiers. A failed persistent write is logged and
// does not affect the memory tier.
func (c *Cache) Put(ctx context.Context, entry Entry) {
	c.setMemory(entry)
	c.putPersistent(ctx, entry)
}

// Clear removes every topic from both tiers.
func (c *Cache) Clear(ctx context.Context) (int, error) {
	c.mu.Lock()
	c.memory = make(map[string]Entry)
	c.mu.Unlock()

	if c.store == nil {
		return 0, nil
	}
	return c.store.DeletePrefix(ctx, constants.TopicKeyPrefix) //nolint:wrapcheck // kv errors carry context
}

// Prune removes stale and malformed topics from the persistent tier.
func (c *Cache) Prune(ctx context.Context) (int, error) {
	if c.store == nil {
		return 0, nil
	}
	keys, err := c.store.Keys(ctx, constants.TopicKeyPrefix)
	if err != nil {
		return 0, err //nolint:wrapcheck // kv errors carry context
	}

	removed := 0
	for _, key := range keys {
		raw, ok, err := c.store.Get(ctx, key)
		if err != nil {
			return removed, err //nolint:wrapcheck // kv errors carry context
		}
		if !ok {
			continue
		}
		var entry Entry
		if json.Unmarshal(raw, &entry) == nil && entry.Ideas != nil && c.fresh(entry) {
			continue
		}
		if err := c.store.Delete(ctx, key); err != nil {
			return removed, err //nolint:wrapcheck // kv errors carry context
		}
		removed++
	}
	return removed, nil
}

func (c *Cache) getMemory(topic string) (Entry, bool) {
	c.mu.RLock()
	entry, ok := c.memory[topic]
	c.mu.RUnlock()
	if !ok {
		return Entry{}, false
	}
	if c.fresh(entry) {
		return entry, true
	}

	c.mu.Lock()
	if current, still := c.memory[topic]; still && current.Timestamp == entry.Timestamp {
		delete(c.memory, topic)
	}
	c.mu.Unlock()
	return Entry{}, false
}

func (c *Cache) setMemory(entry Entry) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.memory[entry.Key] = entry
}

func (c *Cache) getPersistent(ctx context.Context, topic string) (Entry, bool) {
	if c.store == nil {
		return Entry{}, false
	}
	logger := logging.Get(ctx)
	key := storeKey(topic)

	raw, ok, err := c.store.Get(ctx, key)
	if err != nil {
		logger.Warn().Err(err).Str("topic", topic).Msg("failed to read persistent cache")
		return Entry{}, false
	}
	if !ok {
		return Entry{}, false
	}

	var entry Entry
	if err := json.Unmarshal(raw, &entry); err != nil || entry.Ideas == nil {
		logger.Warn().Str("topic", topic).Msg("removing malformed cache entry")
		c.delete(ctx, key)
		return Entry{}, false
	}
	if !c.fresh(entry) {
		logger.Debug().Str("topic", topic).Msg("cache entry expired")
		c.delete(ctx, key)
		return Entry{}, false
	}
	entry.Key = topic
	return entry, true
}

func (c *Cache) putPersistent(ctx context.Context, entry Entry) {
	if c.store == nil {
		return
	}
	data, err := json.Marshal(entry)
	if err != nil {
		logging.Get(ctx).Warn().Err(err).Str("topic", entry.Key).Msg("failed to encode cache entry")
		return
	}
	if err := kv.Put(ctx, c.store, storeKey(entry.Key), data); err != nil {
		logging.Get(ctx).Warn().Err(err).Str("topic", entry.Key).Msg("failed to persist cache entry")
	}
}

func (c *Cache) delete(ctx context.Context, key string) {
	if err := c.store.Delete(ctx, key); err != nil {
		logging.Get(ctx).Warn().Err(err).Str("key", key).Msg("failed to remove cache entry")
	}
}
