// Package cache provides the best-effort key-value cache used for
// cache-aside lookups on the download path. The service must behave
// identically (just slower) when the cache is absent or always misses.
package cache

import (
	"context"
	"time"
)

// Cache is a TTL-bounded key-value store. Get returns (nil, false, nil) on a
// miss; errors are reserved for backend failures.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Close() error
}

// Noop is the absent-cache fallback: every Get misses, every Set succeeds.
type Noop struct{}

func (Noop) Get(ctx context.Context, key string) ([]byte, bool, error) { return nil, false, nil }

func (Noop) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	return nil
}

func (Noop) Close() error { return nil }
