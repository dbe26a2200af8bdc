package catalog

import (
	"net/url"
	"sync"
	"time"
)

// Cache memoizes raw catalog response bodies for a fixed TTL, keyed by
// request signature. Expired entries are dropped lazily on access. Values
// are raw bytes so each lookup decodes its own copy; callers never share
// mutable decoded state.
type Cache struct {
	mu      sync.Mutex
	ttl     time.Duration
	now     func() time.Time
	entries map[string]cacheEntry
}

type cacheEntry struct {
	body    []byte
	expires time.Time
}

// NewCache creates a response cache with the given TTL.
func NewCache(ttl time.Duration) *Cache {
	return newCacheAt(ttl, time.Now)
}

func newCacheAt(ttl time.Duration, now func() time.Time) *Cache {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	if now == nil {
		now = time.Now
	}
	return &Cache{
		ttl:     ttl,
		now:     now,
		entries: make(map[string]cacheEntry),
	}
}

// CacheKey builds a stable request signature from an endpoint and its
// encoded parameters.
func CacheKey(endpoint string, params url.Values) string {
	if len(params) == 0 {
		return endpoint
	}
	return endpoint + "?" + params.Encode()
}

// Get returns the cached body for key if present and unexpired.
func (c *Cache) Get(key string) ([]byte, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	entry, ok := c.entries[key]
	if !ok {
		return nil, false
	}
	if c.now().After(entry.expires) {
		delete(c.entries, key)
		return nil, false
	}
	return entry.body, true
}

// Put stores a response body under key for the cache TTL.
func (c *Cache) Put(key string, body []byte) {
	stored := make([]byte, len(body))
	copy(stored, body)
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = cacheEntry{body: stored, expires: c.now().Add(c.ttl)}
}

// Purge clears every cached entry.
func (c *Cache) Purge() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]cacheEntry)
}

// Len reports the number of cached entries, expired or not.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}
