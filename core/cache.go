package core

import (
	"context"
	"time"
)

// Cache stores JSON-serializable values under string keys for a limited time.
type Cache interface {
	// Get decodes the value stored under key into dest. found is false on a miss.
	Get(ctx context.Context, key string, dest interface{}) (found bool, err error)
	// Set stores val under key. A ttl <= 0 uses the backend default.
	Set(ctx context.Context, key string, val interface{}, ttl time.Duration) error
	Delete(ctx context.Context, keys ...string) error
}

// CacheKey joins parts into a namespaced cache key.
func CacheKey(parts ...string) string {
	key := "bunkguard"
	for _, p := range parts {
		key += ":" + p
	}
	return key
}
