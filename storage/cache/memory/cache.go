// Package memcache implements core.Cache in process memory.
package memcache

import (
	"context"
	"encoding/json"
	"time"

	gocache "github.com/patrickmn/go-cache"
	"github.com/pkg/errors"

	"github.com/trezcool/bunkguard/core"
)

// Cache keeps values JSON-encoded so that callers never share memory with the cache.
type Cache struct {
	store *gocache.Cache
}

var _ core.Cache = (*Cache)(nil) // interface compliance check

func New(conf *core.Config) *Cache {
	ttl, cleanup := conf.Cache.TTL, conf.Cache.CleanupInterval
	if cleanup <= 0 {
		cleanup = ttl * 2
	}
	return &Cache{store: gocache.New(ttl, cleanup)}
}

func (c *Cache) Get(_ context.Context, key string, dest interface{}) (bool, error) {
	val, found := c.store.Get(key)
	if !found {
		return false, nil
	}
	data, ok := val.([]byte)
	if !ok {
		return false, errors.Errorf("cached value of %q is a %T", key, val)
	}
	if err := json.Unmarshal(data, dest); err != nil {
		return false, errors.Wrapf(err, "decoding cached %q", key)
	}
	return true, nil
}

func (c *Cache) Set(_ context.Context, key string, val interface{}, ttl time.Duration) error {
	data, err := json.Marshal(val)
	if err != nil {
		return errors.Wrapf(err, "encoding %q", key)
	}
	if ttl <= 0 {
		ttl = gocache.DefaultExpiration
	}
	c.store.Set(key, data, ttl)
	return nil
}

func (c *Cache) Delete(_ context.Context, keys ...string) error {
	for _, key := range keys {
		c.store.Delete(key)
	}
	return nil
}

// Flush removes every item.
func (c *Cache) Flush() {
	c.store.Flush()
}
