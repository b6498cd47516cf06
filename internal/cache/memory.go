package cache

import (
	"bytes"
	"time"

	gocache "github.com/patrickmn/go-cache"
)

// MemoryCache keeps serialized transactions in process memory. Fast but
// lost on exit; the disk layer underneath it carries state between runs.
//
// Values are cloned on the way in and out. Raw transaction bytes get
// sliced into scripts and payloads downstream, and a caller mutating its
// copy must not corrupt what a later re-audit reads back.
type MemoryCache struct {
	cache *gocache.Cache
}

// NewMemoryCache creates a memory cache with the given default TTL.
func NewMemoryCache(defaultTTL, cleanupInterval time.Duration) *MemoryCache {
	return &MemoryCache{
		cache: gocache.New(defaultTTL, cleanupInterval),
	}
}

// Get returns a copy of the cached value.
func (c *MemoryCache) Get(key string) ([]byte, bool) {
	val, found := c.cache.Get(key)
	if !found {
		return nil, false
	}
	entry, ok := val.([]byte)
	if !ok {
		// Foreign value under our key; treat as a miss.
		c.cache.Delete(key)
		return nil, false
	}
	return bytes.Clone(entry), true
}

// Set stores a copy of the value with the given TTL.
func (c *MemoryCache) Set(key string, value []byte, ttl time.Duration) error {
	c.cache.Set(key, bytes.Clone(value), ttl)
	return nil
}

// Delete removes a value from the cache.
func (c *MemoryCache) Delete(key string) error {
	c.cache.Delete(key)
	return nil
}

// Clear removes all values from the cache.
func (c *MemoryCache) Clear() error {
	c.cache.Flush()
	return nil
}
