package memcache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/bunkguard/core"
)

type item struct {
	Name  string   `json:"name"`
	Count int      `json:"count"`
	Tags  []string `json:"tags"`
}

func newCache(ttl time.Duration) *Cache {
	conf := core.NewTestConfig()
	conf.Cache.TTL = ttl
	conf.Cache.CleanupInterval = time.Minute
	return New(conf)
}

func TestCache_SetGetDelete(t *testing.T) {
	ctx := context.Background()
	c := newCache(time.Minute)

	var got item
	found, err := c.Get(ctx, "missing", &got)
	require.NoError(t, err)
	assert.False(t, found)

	want := item{Name: "maths", Count: 3, Tags: []string{"a", "b"}}
	require.NoError(t, c.Set(ctx, "k", want, 0))

	found, err = c.Get(ctx, "k", &got)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, want, got)

	// the cached copy is not shared
	got.Tags[0] = "z"
	var again item
	_, err = c.Get(ctx, "k", &again)
	require.NoError(t, err)
	assert.Equal(t, "a", again.Tags[0])

	require.NoError(t, c.Delete(ctx, "k", "missing"))
	found, err = c.Get(ctx, "k", &got)
	require.NoError(t, err)
	assert.False(t, found)
}

func TestCache_Expiration(t *testing.T) {
	ctx := context.Background()
	c := newCache(time.Minute)

	require.NoError(t, c.Set(ctx, "short", item{Name: "x"}, 10*time.Millisecond))
	time.Sleep(30 * time.Millisecond)

	var got item
	found, err := c.Get(ctx, "short", &got)
	require.NoError(t, err)
	assert.False(t, found)
}

func TestCache_Flush(t *testing.T) {
	ctx := context.Background()
	c := newCache(time.Minute)

	require.NoError(t, c.Set(ctx, "a", 1, 0))
	require.NoError(t, c.Set(ctx, "b", 2, 0))
	c.Flush()

	var n int
	found, err := c.Get(ctx, "a", &n)
	require.NoError(t, err)
	assert.False(t, found)
}
