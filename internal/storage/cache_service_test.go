package storage

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMiniredisCache(t *testing.T, ttl time.Duration) (*CacheService, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	return NewCacheService(NewRedisCacheFromClient(client), ttl), mr
}

type cachedThing struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

func TestCacheService_SetGetRoundTrip(t *testing.T) {
	cache, _ := newMiniredisCache(t, time.Minute)
	ctx := context.Background()

	key := cache.GenerateAccountKey("0xABCD")
	require.NoError(t, cache.Set(ctx, key, &cachedThing{Name: "x", Count: 3}))

	var got cachedThing
	hit, err := cache.Get(ctx, key, &got)
	require.NoError(t, err)
	require.True(t, hit)
	assert.Equal(t, "x", got.Name)
	assert.Equal(t, 3, got.Count)
}

func TestCacheService_MissIsNotAnError(t *testing.T) {
	cache, _ := newMiniredisCache(t, time.Minute)

	var got cachedThing
	hit, err := cache.Get(context.Background(), "account:0xmissing", &got)
	require.NoError(t, err)
	assert.False(t, hit)
}

func TestCacheService_KeysAreLowercased(t *testing.T) {
	cache, _ := newMiniredisCache(t, time.Minute)

	assert.Equal(t, cache.GenerateAccountKey("0xABCD"), cache.GenerateAccountKey("0xabcd"))
}

func TestCacheService_InvalidateAccount(t *testing.T) {
	cache, _ := newMiniredisCache(t, time.Minute)
	ctx := context.Background()

	key := cache.GenerateAccountKey("0xABCD")
	require.NoError(t, cache.Set(ctx, key, &cachedThing{Name: "x"}))
	require.NoError(t, cache.InvalidateAccount(ctx, "0xabcd"))

	var got cachedThing
	hit, err := cache.Get(ctx, key, &got)
	require.NoError(t, err)
	assert.False(t, hit)
}

func TestCacheService_EntriesExpire(t *testing.T) {
	cache, mr := newMiniredisCache(t, time.Second)
	ctx := context.Background()

	key := cache.GenerateAccountKey("0xABCD")
	require.NoError(t, cache.Set(ctx, key, &cachedThing{Name: "x"}))

	mr.FastForward(2 * time.Second)

	var got cachedThing
	hit, err := cache.Get(ctx, key, &got)
	require.NoError(t, err)
	assert.False(t, hit)
}
