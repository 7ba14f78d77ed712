package smapi

import (
	"container/list"
	"context"
	"errors"
	"sync"
	"time"
)

// Cache stores GET responses so repeated reads of slow control-plane
// resources can be served locally. Session state is never cached.
type Cache interface {
	Get(ctx context.Context, key string) (*CacheEntry, error)
	Set(ctx context.Context, key string, entry *CacheEntry) error
	Delete(ctx context.Context, key string) error
	Clear(ctx context.Context) error
	Has(ctx context.Context, key string) bool
}

// CacheEntry is a cached response body with its expiry.
type CacheEntry struct {
	Body      []byte    `json:"body"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Expired reports whether the entry's TTL has elapsed.
func (e *CacheEntry) Expired() bool {
	return !e.ExpiresAt.IsZero() && time.Now().After(e.ExpiresAt)
}

// Cache errors.
var (
	ErrCacheMiss     = errors.New("cache miss")
	ErrCacheDisabled = errors.New("cache disabled")
)

// CacheOptions holds common knobs applied to any backend.
type CacheOptions struct {
	// TTL applied to entries stored without an explicit expiry.
	TTL time.Duration
}

// DefaultCacheOptions returns the default cache options.
func DefaultCacheOptions() *CacheOptions {
	return &CacheOptions{TTL: 5 * time.Minute}
}

// MemoryCache is an in-process LRU cache with per-entry TTL.
type MemoryCache struct {
	mu      sync.Mutex
	maxSize int
	entries map[string]*list.Element
	order   *list.List
}

type memoryCacheItem struct {
	key   string
	entry *CacheEntry
}

// NewMemoryCache creates a memory cache holding at most maxSize entries.
func NewMemoryCache(maxSize int) *MemoryCache {
	if maxSize <= 0 {
		maxSize = 1000
	}

	return &MemoryCache{
		maxSize: maxSize,
		entries: make(map[string]*list.Element),
		order:   list.New(),
	}
}

// Get retrieves an entry, evicting it if expired.
func (c *MemoryCache) Get(ctx context.Context, key string) (*CacheEntry, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	element, ok := c.entries[key]
	if !ok {
		return nil, ErrCacheMiss
	}

	item, _ := element.Value.(*memoryCacheItem)
	if item.entry.Expired() {
		c.order.Remove(element)
		delete(c.entries, key)

		return nil, ErrCacheMiss
	}

	c.order.MoveToFront(element)

	return item.entry, nil
}

// Set stores an entry, evicting the least recently used one when full.
func (c *MemoryCache) Set(ctx context.Context, key string, entry *CacheEntry) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if element, ok := c.entries[key]; ok {
		item, _ := element.Value.(*memoryCacheItem)
		item.entry = entry
		c.order.MoveToFront(element)

		return nil
	}

	if c.order.Len() >= c.maxSize {
		oldest := c.order.Back()
		if oldest != nil {
			item, _ := oldest.Value.(*memoryCacheItem)
			c.order.Remove(oldest)
			delete(c.entries, item.key)
		}
	}

	c.entries[key] = c.order.PushFront(&memoryCacheItem{key: key, entry: entry})

	return nil
}

// Delete removes an entry.
func (c *MemoryCache) Delete(ctx context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if element, ok := c.entries[key]; ok {
		c.order.Remove(element)
		delete(c.entries, key)
	}

	return nil
}

// Clear removes all entries.
func (c *MemoryCache) Clear(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries = make(map[string]*list.Element)
	c.order.Init()

	return nil
}

// Has checks if a non-expired entry exists.
func (c *MemoryCache) Has(ctx context.Context, key string) bool {
	_, err := c.Get(ctx, key)

	return err == nil
}

// NoOpCache is a cache that does nothing (no caching).
type NoOpCache struct{}

// NewNoOpCache creates a new no-op cache.
func NewNoOpCache() *NoOpCache {
	return &NoOpCache{}
}

// Get always returns an error (nothing cached).
func (c *NoOpCache) Get(ctx context.Context, key string) (*CacheEntry, error) {
	return nil, ErrCacheDisabled
}

// Set does nothing.
func (c *NoOpCache) Set(ctx context.Context, key string, entry *CacheEntry) error {
	return nil
}

// Delete does nothing.
func (c *NoOpCache) Delete(ctx context.Context, key string) error {
	return nil
}

// Clear does nothing.
func (c *NoOpCache) Clear(ctx context.Context) error {
	return nil
}

// Has always returns false.
func (c *NoOpCache) Has(ctx context.Context, key string) bool {
	return false
}
