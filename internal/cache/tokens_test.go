package cache

import (
	"context"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func memoryCache() *TokenCache {
	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel)
	return NewTokenCache(nil, logger)
}

func TestTokenCacheSetAndGet(t *testing.T) {
	c := memoryCache()
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "facta:token:online", "tok-1", time.Minute))

	val, err := c.Get(ctx, "facta:token:online")
	require.NoError(t, err)
	assert.Equal(t, "tok-1", val)
}

func TestTokenCacheMissReturnsEmpty(t *testing.T) {
	c := memoryCache()

	val, err := c.Get(context.Background(), "nothing")
	require.NoError(t, err)
	assert.Empty(t, val)
}

func TestTokenCacheExpiry(t *testing.T) {
	c := memoryCache()
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "k", "v", time.Millisecond))
	time.Sleep(5 * time.Millisecond)

	val, err := c.Get(ctx, "k")
	require.NoError(t, err)
	assert.Empty(t, val)
}

func TestTokenCacheRejectsNonPositiveTTL(t *testing.T) {
	c := memoryCache()

	assert.Error(t, c.Set(context.Background(), "k", "v", 0))
	assert.Error(t, c.Set(context.Background(), "k", "v", -time.Second))
}

func TestTokenCacheDelete(t *testing.T) {
	c := memoryCache()
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "k", "v", time.Minute))
	require.NoError(t, c.Delete(ctx, "k"))

	val, err := c.Get(ctx, "k")
	require.NoError(t, err)
	assert.Empty(t, val)
}

func TestTokenCacheOverwrite(t *testing.T) {
	c := memoryCache()
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "k", "old", time.Minute))
	require.NoError(t, c.Set(ctx, "k", "new", time.Minute))

	val, err := c.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, "new", val)
}
