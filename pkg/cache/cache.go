// Package cache provides response caching for verified-source lookups.
//
// Fetching verified contract source from a block explorer is slow and
// rate-limited, so responses are cached between runs. The Cache interface
// abstracts the storage backend:
//   - file: per-user cache directory for CLI usage (default)
//   - redis: shared cache for server deployments
//   - mongo: shared cache backed by a document store
//   - null: caching disabled
//
// Keys are hashed before hitting the backend so arbitrary strings (URLs,
// contract addresses) are safe to use as keys.
package cache

import (
	"context"
	"time"
)

// Cache is the interface for response cache backends.
// Implementations must be safe for concurrent use.
type Cache interface {
	// Get retrieves a value. The second return value reports whether the
	// key was present and unexpired.
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set stores a value with the given TTL. A zero TTL means no expiry.
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error

	// Delete removes a value. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// Close releases backend resources.
	Close() error
}

// DefaultTTL is the default lifetime of cached source-code responses.
// Verified source for a deployed contract never changes, but a long finite
// TTL keeps the cache from growing without bound.
const DefaultTTL = 7 * 24 * time.Hour
