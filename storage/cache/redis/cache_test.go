package rediscache

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/bunkguard/core"
)

// TestCache runs against the server named by TEST_REDIS_URL, if any.
func TestCache(t *testing.T) {
	url := os.Getenv("TEST_REDIS_URL")
	if url == "" {
		t.Skip("TEST_REDIS_URL not set")
	}

	ctx := context.Background()
	conf := core.NewTestConfig()
	conf.Cache.RedisURL = url
	conf.Cache.TTL = time.Minute

	c, err := New(ctx, conf)
	require.NoError(t, err)
	defer func() { _ = c.Close() }()

	key := core.CacheKey("test", t.Name())
	require.NoError(t, c.Set(ctx, key, map[string]int{"attended": 3}, 0))

	var got map[string]int
	found, err := c.Get(ctx, key, &got)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, map[string]int{"attended": 3}, got)

	require.NoError(t, c.Delete(ctx, key))
	found, err = c.Get(ctx, key, &got)
	require.NoError(t, err)
	assert.False(t, found)
}

func TestNew_BadURL(t *testing.T) {
	conf := core.NewTestConfig()
	conf.Cache.RedisURL = "not a url"
	_, err := New(context.Background(), conf)
	assert.Error(t, err)
}
