package utils

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestCache(t *testing.T) (*RedisCache, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return NewRedisCache(rdb), mr
}

type cachedPage struct {
	Total int      `json:"total"`
	Names []string `json:"names"`
}

func TestRedisCache_SetGet(t *testing.T) {
	c, mr := newTestCache(t)
	ctx := context.Background()

	var miss cachedPage
	found, err := c.Get(ctx, "page", &miss)
	require.NoError(t, err)
	assert.False(t, found)

	require.NoError(t, c.Set(ctx, "page", cachedPage{Total: 2, Names: []string{"CASH", "DANA"}}, time.Minute))
	var hit cachedPage
	found, err = c.Get(ctx, "page", &hit)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, cachedPage{Total: 2, Names: []string{"CASH", "DANA"}}, hit)

	mr.FastForward(2 * time.Minute)
	found, err = c.Get(ctx, "page", &hit)
	require.NoError(t, err)
	assert.False(t, found, "entry expires after its TTL")
}

func TestRedisCache_DeletePrefix(t *testing.T) {
	c, mr := newTestCache(t)
	ctx := context.Background()
	for _, k := range []string{"txlist:a", "txlist:b", "summary"} {
		require.NoError(t, c.Set(ctx, k, 1, time.Minute))
	}
	require.NoError(t, c.DeletePrefix(ctx, "txlist:"))
	assert.Equal(t, []string{"summary"}, mr.Keys())

	require.NoError(t, c.Delete(ctx, "summary", "missing"))
	assert.Empty(t, mr.Keys())
	require.NoError(t, c.Delete(ctx))
}

func TestRedisCache_ClaimOnlyOnce(t *testing.T) {
	c, mr := newTestCache(t)
	ctx := context.Background()

	won, err := c.Claim(ctx, "reconcile", time.Hour)
	require.NoError(t, err)
	assert.True(t, won)

	won, err = c.Claim(ctx, "reconcile", time.Hour)
	require.NoError(t, err)
	assert.False(t, won)

	mr.FastForward(time.Hour)
	won, err = c.Claim(ctx, "reconcile", time.Hour)
	require.NoError(t, err)
	assert.True(t, won)
}

func TestRedisCache_ErrorsWhenServerIsDown(t *testing.T) {
	c, mr := newTestCache(t)
	mr.Close()

	var v int
	_, err := c.Get(context.Background(), "k", &v)
	assert.Error(t, err)
}

func TestNopCache(t *testing.T) {
	var c Cache = NopCache{}
	ctx := context.Background()
	require.NoError(t, c.Set(ctx, "k", 1, time.Minute))
	var v int
	found, err := c.Get(ctx, "k", &v)
	require.NoError(t, err)
	assert.False(t, found)
	won, err := c.Claim(ctx, "k", time.Minute)
	require.NoError(t, err)
	assert.True(t, won)
}
