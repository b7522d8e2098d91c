package domain

import (
	"context"
	"time"
)

// CacheError represents an error originating from the cache.
type CacheError string

func (e CacheError) Error() string {
	return string(e)
}

// ErrCacheMiss is returned when a key is not found in the cache.
const ErrCacheMiss = CacheError("cache: key not found")

// Cache is the port for the optional session cache.
// The durable SessionStore stays the source of truth; cache entries may vanish at any time.
type Cache interface {
	// Get returns ErrCacheMiss if the key is not found.
	Get(ctx context.Context, key string) (string, error)

	// Set overwrites key. An expiration of 0 keeps the entry until it is evicted.
	Set(ctx context.Context, key string, value string, expiration time.Duration) error

	// SetNX writes key only if it is absent and reports whether it wrote.
	SetNX(ctx context.Context, key string, value string, expiration time.Duration) (bool, error)

	// Delete removes key. Missing keys are not an error.
	Delete(ctx context.Context, key string) error

	Ping(ctx context.Context) error
}
