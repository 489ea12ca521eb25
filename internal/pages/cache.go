package pages

import (
	"context"
	"encoding/json"
	"errors"
	"html/template"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/vimeoalbum/backend/internal/i18n"
	"github.com/vimeoalbum/backend/internal/logging"
)

const keyPrefix = "vimeoalbum:page:"

// Entry is the cached part of a render. Notices are never cached.
type Entry struct {
	Title string        `json:"title"`
	Body  template.HTML `json:"body"`
}

type cacheEntry struct {
	entry   Entry
	expires time.Time
}

// Cache keeps rendered page bodies for ttl. With a Redis client configured,
// Redis is the only store so a purge on one instance is seen by every
// instance. Without one, entries live in a bounded in-process map.
type Cache struct {
	ttl        time.Duration
	maxEntries int
	redis      redis.UniversalClient
	now        func() time.Time

	mu    sync.RWMutex
	items map[string]cacheEntry
}

// NewCache returns a Cache holding entries for ttl. rdb may be nil.
func NewCache(ttl time.Duration, maxEntries int, rdb redis.UniversalClient) *Cache {
	if ttl <= 0 {
		ttl = time.Hour
	}
	if maxEntries <= 0 {
		maxEntries = 1000
	}
	return &Cache{
		ttl:        ttl,
		maxEntries: maxEntries,
		redis:      rdb,
		now:        time.Now,
		items:      make(map[string]cacheEntry),
	}
}

// Key builds the cache key for one page as seen in lang by a privileged or anonymous viewer.
func Key(pageID string, lang i18n.Lang, privileged bool) string {
	audience := "anon"
	if privileged {
		audience = "priv"
	}
	return keyPrefix + pageID + ":" + string(lang) + ":" + audience
}

// pageKeys lists every key a page can be cached under.
func pageKeys(pageID string) []string {
	keys := make([]string, 0, len(i18n.Supported)*2)
	for _, lang := range i18n.Supported {
		keys = append(keys, Key(pageID, lang, false), Key(pageID, lang, true))
	}
	return keys
}

// Get returns the entry stored under key.
func (c *Cache) Get(ctx context.Context, key string) (Entry, bool) {
	if c == nil {
		return Entry{}, false
	}
	if c.redis != nil {
		return c.getRedis(ctx, key)
	}

	c.mu.RLock()
	item, ok := c.items[key]
	c.mu.RUnlock()
	if ok && c.now().Before(item.expires) {
		return item.entry, true
	}
	return Entry{}, false
}

func (c *Cache) getRedis(ctx context.Context, key string) (Entry, bool) {
	raw, err := c.redis.Get(ctx, key).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			logging.FromContext(ctx).Warn("render cache read failed", "key", key, "error", err)
		}
		return Entry{}, false
	}

	var entry Entry
	if err := json.Unmarshal(raw, &entry); err != nil {
		logging.FromContext(ctx).Warn("render cache entry corrupt", "key", key, "error", err)
		return Entry{}, false
	}
	return entry, true
}

// Set stores entry under key. A failed Redis write leaves the render uncached.
func (c *Cache) Set(ctx context.Context, key string, entry Entry) {
	if c == nil {
		return
	}
	if c.redis == nil {
		c.store(key, entry, c.now())
		return
	}

	raw, err := json.Marshal(entry)
	if err != nil {
		return
	}
	if err := c.redis.Set(ctx, key, raw, c.ttl).Err(); err != nil {
		logging.FromContext(ctx).Warn("render cache write failed", "key", key, "error", err)
	}
}

// DeletePage drops every cached variant of a page, and nothing else.
func (c *Cache) DeletePage(ctx context.Context, pageID string) {
	if c == nil {
		return
	}
	keys := pageKeys(pageID)

	c.mu.Lock()
	for _, key := range keys {
		delete(c.items, key)
	}
	c.mu.Unlock()

	if c.redis == nil {
		return
	}
	if err := c.redis.Del(ctx, keys...).Err(); err != nil {
		logging.FromContext(ctx).Warn("render cache purge failed", "page_id", pageID, "error", err)
	}
}

// Len reports the number of in-process entries, expired ones included.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.items)
}

func (c *Cache) store(key string, entry Entry, now time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.items[key]; !exists && len(c.items) >= c.maxEntries {
		c.evict(now)
	}
	c.items[key] = cacheEntry{entry: entry, expires: now.Add(c.ttl)}
}

// evict drops expired entries, or the entry closest to expiry when none have expired.
// Callers hold c.mu.
func (c *Cache) evict(now time.Time) {
	var (
		oldestKey string
		oldest    time.Time
	)
	for key, item := range c.items {
		if !now.Before(item.expires) {
			delete(c.items, key)
			continue
		}
		if oldestKey == "" || item.expires.Before(oldest) {
			oldestKey, oldest = key, item.expires
		}
	}
	if len(c.items) >= c.maxEntries && oldestKey != "" {
		delete(c.items, oldestKey)
	}
}
