package cache

import (
	"context"
	"time"

	gocache "github.com/patrickmn/go-cache"
)

type goCacheWrapper struct {
	cache *gocache.Cache
}

// NewGoCache creates the in-process backend backed by go-cache.
func NewGoCache(config LocalConfig) Cache {
	defaultExpiration := config.DefaultExpiration
	if defaultExpiration == 0 {
		defaultExpiration = 5 * time.Minute
	}
	cleanupInterval := config.CleanupInterval
	if cleanupInterval == 0 {
		cleanupInterval = 10 * time.Minute
	}
	return &goCacheWrapper{cache: gocache.New(defaultExpiration, cleanupInterval)}
}

func (gc *goCacheWrapper) Get(ctx context.Context, key string) (interface{}, bool) {
	return gc.cache.Get(key)
}

func (gc *goCacheWrapper) Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error {
	gc.cache.Set(key, value, expiration)
	return nil
}

func (gc *goCacheWrapper) Delete(ctx context.Context, key string) error {
	gc.cache.Delete(key)
	return nil
}

func (gc *goCacheWrapper) Exists(ctx context.Context, key string) bool {
	_, found := gc.cache.Get(key)
	return found
}

func (gc *goCacheWrapper) Increment(ctx context.Context, key string, value int64) (int64, error) {
	if newValue, err := gc.cache.IncrementInt64(key, value); err == nil {
		return newValue, nil
	}
	// Key absent or held a non-integer: start the counter fresh.
	gc.cache.Set(key, value, gocache.DefaultExpiration)
	return value, nil
}

func (gc *goCacheWrapper) GetWithTTL(ctx context.Context, key string) (interface{}, time.Duration, bool) {
	value, expiration, found := gc.cache.GetWithExpiration(key)
	if !found {
		return nil, 0, false
	}
	var ttl time.Duration
	if !expiration.IsZero() {
		ttl = time.Until(expiration)
		if ttl < 0 {
			ttl = 0
		}
	}
	return value, ttl, true
}

func (gc *goCacheWrapper) Close() error {
	return nil
}
