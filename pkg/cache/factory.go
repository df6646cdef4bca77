package cache

import (
	"fmt"
	"strings"
)

// NewCache builds a backend from config. Unknown types are an error so a
// typo in CACHE_TYPE fails at startup instead of silently degrading.
func NewCache(config Config) (Cache, error) {
	switch strings.ToLower(config.Type) {
	case "", "local", "gocache":
		return NewGoCache(config.Local), nil
	case "redis":
		return NewRedisCache(config.Redis)
	default:
		return nil, fmt.Errorf("unsupported cache type: %s", config.Type)
	}
}
