// Package rediscache implements core.Cache on Redis.
package rediscache

import (
	"context"
	"encoding/json"
	"time"

	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"

	"github.com/trezcool/bunkguard/core"
)

const dialTimeout = 5 * time.Second

type Cache struct {
	client *redis.Client
	ttl    time.Duration
}

var _ core.Cache = (*Cache)(nil) // interface compliance check

// New connects to conf.Cache.RedisURL (redis://[:password@]host:port/db) and pings the server.
func New(ctx context.Context, conf *core.Config) (*Cache, error) {
	opts, err := redis.ParseURL(conf.Cache.RedisURL)
	if err != nil {
		return nil, errors.Wrap(err, "parsing redis URL")
	}
	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(ctx, dialTimeout)
	defer cancel()
	if err = client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, errors.Wrap(err, "pinging redis")
	}
	return &Cache{client: client, ttl: conf.Cache.TTL}, nil
}

func (c *Cache) Get(ctx context.Context, key string, dest interface{}) (bool, error) {
	data, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return false, nil
		}
		return false, errors.Wrapf(err, "getting %q", key)
	}
	if err = json.Unmarshal(data, dest); err != nil {
		return false, errors.Wrapf(err, "decoding cached %q", key)
	}
	return true, nil
}

func (c *Cache) Set(ctx context.Context, key string, val interface{}, ttl time.Duration) error {
	data, err := json.Marshal(val)
	if err != nil {
		return errors.Wrapf(err, "encoding %q", key)
	}
	if ttl <= 0 {
		ttl = c.ttl
	}
	return errors.Wrapf(c.client.Set(ctx, key, data, ttl).Err(), "setting %q", key)
}

func (c *Cache) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	return errors.Wrap(c.client.Del(ctx, keys...).Err(), "deleting keys")
}

func (c *Cache) Close() error {
	return c.client.Close()
}
