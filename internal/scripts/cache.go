package scripts

import (
	"context"
	"encoding/json"
	"net/url"
	"strings"
	"time"

	"github.com/Prathap331/SB-Next/internal/api"
	"github.com/Prathap331/SB-Next/internal/clock"
	"github.com/Prathap331/SB-Next/internal/constants"
	"github.com/Prathap331/SB-Next/internal/kv"
	"github.com/Prathap331/SB-Next/internal/logging"
)

// NormalizeID folds a topic or idea title into a cache id: decoded once,
// trimmed, lower-cased, inner whitespace collapsed.
func NormalizeID(raw string) string {
	decoded, err := url.PathUnescape(raw)
	if err != nil {
		decoded = raw
	}
	return strings.Join(strings.Fields(strings.ToLower(decoded)), " ")
}

// CacheID picks the id a request is cached under.
func CacheID(req api.GenerationRequest) string {
	subject := req.IdeaTitle
	if strings.TrimSpace(subject) == "" {
		subject = req.Topic
	}
	return NormalizeID(subject)
}

type cacheEntry struct {
	Result    *api.ScriptResult `json:"result"`
	Key       string            `json:"key"`
	Timestamp int64             `json:"timestamp"`
}

// Cache keeps generated scripts in the persistent tier.
type Cache struct {
	store kv.Store
	clock clock.Clock
	ttl   time.Duration
}

// NewCache creates a script cache over store.
func NewCache(store kv.Store, clk clock.Clock, ttl time.Duration) *Cache {
	return &Cache{store: store, clock: clk, ttl: ttl}
}

// Get returns the fresh script cached under id.
func (c *Cache) Get(ctx context.Context, id string) (*api.ScriptResult, bool) {
	if c.store == nil || id == "" {
		return nil, false
	}
	logger := logging.Get(ctx)
	key := constants.ScriptKeyPrefix + id

	raw, ok, err := c.store.Get(ctx, key)
	if err != nil {
		logger.Warn().Err(err).Str("id", id).Msg("failed to read script cache")
		return nil, false
	}
	if !ok {
		return nil, false
	}

	var entry cacheEntry
	if err := json.Unmarshal(raw, &entry); err != nil || entry.Result == nil {
		logger.Warn().Str("id", id).Msg("removing malformed script cache entry")
		c.delete(ctx, key)
		return nil, false
	}
	if c.clock.Now().Sub(time.UnixMilli(entry.Timestamp)) >= c.ttl {
		c.delete(ctx, key)
		return nil, false
	}
	return entry.Result, true
}

// Put caches result under id. Failures are logged.
func (c *Cache) Put(ctx context.Context, id string, result *api.ScriptResult) {
	if c.store == nil || id == "" {
		return
	}
	data, err := json.Marshal(cacheEntry{Key: id, Result: result, Timestamp: c.clock.Now().UnixMilli()})
	if err != nil {
		logging.Get(ctx).Warn().Err(err).Str("id", id).Msg("failed to encode script")
		return
	}
	if err := kv.Put(ctx, c.store, constants.ScriptKeyPrefix+id, data); err != nil {
		logging.Get(ctx).Warn().Err(err).Str("id", id).Msg("failed to persist script")
	}
}

// Clear removes every cached script.
func (c *Cache) Clear(ctx context.Context) (int, error) {
	if c.store == nil {
		return 0, nil
	}
	return c.store.DeletePrefix(ctx, constants.ScriptKeyPrefix) //nolint:wrapcheck // kv errors carry context
}

func (c *Cache) delete(ctx context.Context, key string) {
	if err := c.store.Delete(ctx, key); err != nil {
		logging.Get(ctx).Warn().Err(err).Str("key", key).Msg("failed to remove script cache entry")
	}
}
