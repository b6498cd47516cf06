// Package cache stores fetched chain transactions so repeated audits of the
// same certificate do not hit the chain API again. Keys are display-order
// transaction ids; values are opaque serialized entries owned by the caller.
package cache

import "time"

// Cache is the storage interface shared by all layers.
type Cache interface {
	// Get returns the cached value and whether it was present and fresh.
	Get(key string) ([]byte, bool)

	// Set stores a value; a zero ttl means the cache's default.
	Set(key string, value []byte, ttl time.Duration) error

	// Delete removes a single entry.
	Delete(key string) error

	// Clear removes every entry.
	Clear() error
}
