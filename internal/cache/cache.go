// Package cache is a thin Redis JSON cache for completed evaluation
// results, keyed by a content fingerprint of the inputs. All
// operations are best-effort: errors are logged at debug and never
// reach the caller.
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

// DefaultTTL matches CACHE_TTL_SECONDS=86400.
const DefaultTTL = 24 * time.Hour

// Cache wraps a Redis client. A nil or unreachable client degrades to
// a permanent miss.
type Cache struct {
	client *redis.Client
	ttl    time.Duration
}

// New connects to the given Redis URL. A bad URL yields a cache that
// misses everything rather than an error.
func New(url string, ttl time.Duration) *Cache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	opts, err := redis.ParseURL(url)
	if err != nil {
		slog.Warn("redis url unparseable, cache disabled", "url", url, "err", err)
		return &Cache{ttl: ttl}
	}
	return &Cache{client: redis.NewClient(opts), ttl: ttl}
}

// Ping reports whether the cache backend is reachable.
func (c *Cache) Ping(ctx context.Context) bool {
	if c == nil || c.client == nil {
		return false
	}
	return c.client.Ping(ctx).Err() == nil
}

// GetJSON fetches a cached payload. Any failure is a miss.
func (c *Cache) GetJSON(ctx context.Context, key string) (json.RawMessage, bool) {
	if c == nil || c.client == nil {
		return nil, false
	}
	raw, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		if err != redis.Nil {
			slog.Debug("cache get failed", "key", key, "err", err)
		}
		return nil, false
	}
	return raw, true
}

// SetJSON stores a payload under the configured TTL. Failures are
// swallowed.
func (c *Cache) SetJSON(ctx context.Context, key string, value any) {
	if c == nil || c.client == nil {
		return
	}
	payload, err := json.Marshal(value)
	if err != nil {
		slog.Debug("cache marshal failed", "key", key, "err", err)
		return
	}
	if err := c.client.Set(ctx, key, payload, c.ttl).Err(); err != nil {
		slog.Debug("cache set failed", "key", key, "err", err)
	}
}

// Key builds the content-addressed cache key: a sha256 over the two
// blobs, the algorithm, the pipeline and the software version, with
// "|" separators to avoid ambiguity.
func Key(refBytes, hypBytes []byte, algorithm, pipeline, version string) string {
	h := sha256.New()
	h.Write(refBytes)
	h.Write([]byte("|"))
	h.Write(hypBytes)
	h.Write([]byte("|"))
	h.Write([]byte(algorithm))
	h.Write([]byte("|"))
	h.Write([]byte(pipeline))
	h.Write([]byte("|"))
	h.Write([]byte(version))
	return fmt.Sprintf("nedc:%s:%s:%s", algorithm, pipeline, hex.EncodeToString(h.Sum(nil)))
}
