package cache

import (
	"context"
	"testing"
	"time"
)

func TestGoCache(t *testing.T) {
	c := NewGoCache(LocalConfig{
		DefaultExpiration: 5 * time.Minute,
		CleanupInterval:   10 * time.Minute,
	})
	defer c.Close()

	ctx := context.Background()

	t.Run("Set and Get", func(t *testing.T) {
		if err := c.Set(ctx, "k", "v", time.Minute); err != nil {
			t.Errorf("Failed to set cache: %v", err)
		}
		if got, exists := c.Get(ctx, "k"); !exists {
			t.Error("Cache value not found")
		} else if got != "v" {
			t.Errorf("Expected v, got %v", got)
		}
	})

	t.Run("Expired entry is a miss", func(t *testing.T) {
		c.Set(ctx, "gone", 1, time.Millisecond)
		time.Sleep(5 * time.Millisecond)
		if _, exists := c.Get(ctx, "gone"); exists {
			t.Error("Expired value still present")
		}
	})

	t.Run("Increment", func(t *testing.T) {
		n, err := c.Increment(ctx, "counter", 1)
		if err != nil || n != 1 {
			t.Errorf("Expected 1, got %d (err %v)", n, err)
		}
		n, _ = c.Increment(ctx, "counter", 2)
		if n != 3 {
			t.Errorf("Expected 3, got %d", n)
		}
	})

	t.Run("GetWithTTL", func(t *testing.T) {
		c.Set(ctx, "ttl", "x", time.Hour)
		_, ttl, found := c.GetWithTTL(ctx, "ttl")
		if !found || ttl <= 0 || ttl > time.Hour {
			t.Errorf("Unexpected ttl %v found=%v", ttl, found)
		}
	})
}

func TestFactoryRejectsUnknownType(t *testing.T) {
	if _, err := NewCache(Config{Type: "memcached"}); err == nil {
		t.Error("Expected error for unsupported cache type")
	}
}
