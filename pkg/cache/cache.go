package cache

import (
	"context"
	"time"
)

// Cache is the shared TTL cache used by the location resolver and the
// notification failure counter. Backends must be safe for concurrent use.
type Cache interface {
	Get(ctx context.Context, key string) (interface{}, bool)
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error
	Delete(ctx context.Context, key string) error
	Exists(ctx context.Context, key string) bool
	Increment(ctx context.Context, key string, value int64) (int64, error)
	GetWithTTL(ctx context.Context, key string) (interface{}, time.Duration, bool)
	Close() error
}

type Config struct {
	// "local" or "redis"
	Type string `env:"CACHE_TYPE"`

	Redis RedisConfig
	Local LocalConfig
}

type RedisConfig struct {
	Addr         string        `env:"REDIS_ADDR"`
	Password     string        `env:"REDIS_PASSWORD"`
	DB           int           `env:"REDIS_DB"`
	PoolSize     int           `env:"REDIS_POOL_SIZE"`
	DialTimeout  time.Duration `env:"REDIS_DIAL_TIMEOUT"`
	ReadTimeout  time.Duration `env:"REDIS_READ_TIMEOUT"`
	WriteTimeout time.Duration `env:"REDIS_WRITE_TIMEOUT"`
}

type LocalConfig struct {
	DefaultExpiration time.Duration `env:"LOCAL_CACHE_DEFAULT_EXPIRATION"`
	CleanupInterval   time.Duration `env:"LOCAL_CACHE_CLEANUP_INTERVAL"`
}
