// Package cache provides the short-lived full-page response cache used for
// the home listing. It is backed by Redis when one is reachable and falls
// back to an in-process store otherwise, so the application (and its tests)
// run fine without a Redis server.
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// keyPrefix namespaces the page cache keys in a shared Redis.
const keyPrefix = "page:"

// page is the cached rendering of a response.
type page struct {
	Body        []byte `json:"body"`
	ContentType string `json:"content_type"`
}

type memoryEntry struct {
	page      page
	expiresAt time.Time
}

// PageCache caches rendered responses keyed by request URI for a fixed
// interval. Within that window the stale body is served even if the
// underlying data changed; only Invalidate forces a fresh render early.
type PageCache struct {
	// When Redis is available, client is used for all operations.
	client *redis.Client
	// When Redis is unavailable, entries live in an in-process map.
	mu  sync.Mutex
	mem map[string]memoryEntry

	ttl    time.Duration
	logger *zap.SugaredLogger
}

// New connects to Redis at addr and returns a PageCache with the given
// time-to-live. If Redis does not respond, the cache silently degrades to
// in-memory mode.
func New(addr string, ttl time.Duration, logger *zap.SugaredLogger) *PageCache {
	client := redis.NewClient(&redis.Options{
		Addr:         addr,
		DialTimeout:  2 * time.Second,
		ReadTimeout:  2 * time.Second,
		WriteTimeout: 2 * time.Second,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		if logger != nil {
			logger.Warnw("redis unavailable, page cache running in memory", "addr", addr, "error", err)
		}
		return NewMemory(ttl, logger)
	}

	return &PageCache{
		client: client,
		ttl:    ttl,
		logger: logger,
	}
}

// NewMemory returns a PageCache that never touches Redis.
func NewMemory(ttl time.Duration, logger *zap.SugaredLogger) *PageCache {
	return &PageCache{
		mem:    make(map[string]memoryEntry),
		ttl:    ttl,
		logger: logger,
	}
}

// InMemory reports whether the cache runs without Redis.
func (c *PageCache) InMemory() bool {
	return c.client == nil
}

// Get returns the cached body and content type for a key, if present and
// not expired.
func (c *PageCache) Get(ctx context.Context, key string) ([]byte, string, bool) {
	if c.client != nil {
		val, err := c.client.Get(ctx, keyPrefix+key).Bytes()
		if err != nil {
			if err != redis.Nil && c.logger != nil {
				c.logger.Errorw("page cache get failed", "key", key, "error", err)
			}
			return nil, "", false
		}
		var p page
		if err := json.Unmarshal(val, &p); err != nil {
			return nil, "", false
		}
		return p.Body, p.ContentType, true
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	entry, ok := c.mem[key]
	if !ok || time.Now().After(entry.expiresAt) {
		delete(c.mem, key)
		return nil, "", false
	}
	return entry.page.Body, entry.page.ContentType, true
}

// Set stores a rendered body under a key for the configured interval.
func (c *PageCache) Set(ctx context.Context, key string, body []byte, contentType string) error {
	p := page{Body: body, ContentType: contentType}

	if c.client != nil {
		data, err := json.Marshal(p)
		if err != nil {
			return fmt.Errorf("page cache marshal: %w", err)
		}
		if err := c.client.Set(ctx, keyPrefix+key, data, c.ttl).Err(); err != nil {
			if c.logger != nil {
				c.logger.Errorw("page cache set failed", "key", key, "error", err)
			}
			return fmt.Errorf("page cache set: %w", err)
		}
		return nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.mem[key] = memoryEntry{page: p, expiresAt: time.Now().Add(c.ttl)}
	return nil
}

// Invalidate drops every cached page, forcing fresh renders before expiry.
func (c *PageCache) Invalidate(ctx context.Context) error {
	if c.client != nil {
		iter := c.client.Scan(ctx, 0, keyPrefix+"*", 0).Iterator()
		for iter.Next(ctx) {
			if err := c.client.Del(ctx, iter.Val()).Err(); err != nil {
				return fmt.Errorf("page cache invalidate: %w", err)
			}
		}
		if err := iter.Err(); err != nil {
			return fmt.Errorf("page cache invalidate: %w", err)
		}
		return nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.mem = make(map[string]memoryEntry)
	return nil
}

// Close releases the Redis connection if one is in use.
func (c *PageCache) Close() error {
	if c.client != nil {
		return c.client.Close()
	}
	return nil
}
