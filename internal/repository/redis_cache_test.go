package repository

import (
	"context"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"

	appErrors "github.com/noah-isme/placement-api/pkg/errors"
)

func TestRedisCacheWithoutClient(t *testing.T) {
	cache := NewRedisCache(nil, nil)
	ctx := context.Background()

	var dest []string
	assert.ErrorIs(t, cache.Get(ctx, "discovery:s1:all:2025-01-01", &dest), appErrors.ErrCacheMiss)
	assert.NoError(t, cache.Set(ctx, "k", []string{"v"}, time.Minute))
	assert.NoError(t, cache.DeleteByPattern(ctx, "discovery:*"))
	n, err := cache.Incr(ctx, "discovery-generation")
	assert.NoError(t, err)
	assert.Zero(t, n)
}

func TestRedisCacheSurfacesConnectionErrors(t *testing.T) {
	client := redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 50 * time.Millisecond,
		MaxRetries:  -1,
	})
	defer client.Close()
	cache := NewRedisCache(client, nil)
	ctx := context.Background()

	var dest []string
	err := cache.Get(ctx, "k", &dest)
	assert.Error(t, err)
	assert.NotErrorIs(t, err, appErrors.ErrCacheMiss)
	assert.Error(t, cache.DeleteByPattern(ctx, "discovery:*"))
	_, err = cache.Incr(ctx, "discovery-generation")
	assert.Error(t, err)
}
