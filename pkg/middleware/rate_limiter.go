package middleware

import (
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/ulule/limiter/v3"
	"github.com/ulule/limiter/v3/drivers/store/memory"
)

// RateLimiterConfig keys requests by client IP. Rate uses the limiter
// formatted form, e.g. "30-M" for 30 per minute. SkipPaths are prefix
// matched so /health and /metrics stay unthrottled.
type RateLimiterConfig struct {
	Rate        string   `json:"rate"`
	SkipPaths   []string `json:"skip_paths"`
	AddHeaders  bool     `json:"add_headers"`
	DenyMessage string   `json:"deny_message"`
}

type RateLimiter struct {
	mu  sync.RWMutex
	cfg RateLimiterConfig
	lim *limiter.Limiter
}

func NewRateLimiter(cfg RateLimiterConfig, store limiter.Store) *RateLimiter {
	if store == nil {
		store = memory.NewStore()
	}
	rate, err := limiter.NewRateFromFormatted(cfg.Rate)
	if err != nil {
		rate = limiter.Rate{Period: time.Minute, Limit: 30}
	}
	return &RateLimiter{cfg: cfg, lim: limiter.New(store, rate)}
}

func (l *RateLimiter) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		l.mu.RLock()
		cfg := l.cfg
		lim := l.lim
		l.mu.RUnlock()

		if pathSkipped(cfg.SkipPaths, c.Request.URL.Path) {
			c.Next()
			return
		}

		key := "ip:" + clientIP(c)
		lctx, err := lim.Get(c, key)
		if err != nil {
			c.Next()
			return
		}
		if cfg.AddHeaders {
			c.Header("X-RateLimit-Limit", strconv.FormatInt(lctx.Limit, 10))
			c.Header("X-RateLimit-Remaining", strconv.FormatInt(lctx.Remaining, 10))
		}
		if lctx.Reached {
			retry := int(time.Until(time.Unix(lctx.Reset, 0)).Seconds())
			if retry < 0 {
				retry = 0
			}
			c.Header("Retry-After", strconv.Itoa(retry))
			msg := cfg.DenyMessage
			if msg == "" {
				msg = "Too Many Requests"
			}
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": msg})
			return
		}
		c.Next()
	}
}

// UpdateConfig swaps rate and skip lists at runtime.
func (l *RateLimiter) UpdateConfig(cfg RateLimiterConfig, store limiter.Store) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if store == nil {
		store = memory.NewStore()
	}
	rate, err := limiter.NewRateFromFormatted(cfg.Rate)
	if err != nil {
		rate = limiter.Rate{Period: time.Minute, Limit: 30}
	}
	l.cfg = cfg
	l.lim = limiter.New(store, rate)
}

func pathSkipped(prefixes []string, path string) bool {
	for _, pref := range prefixes {
		if pref != "" && strings.HasPrefix(path, pref) {
			return true
		}
	}
	return false
}

func clientIP(c *gin.Context) string {
	ip := c.ClientIP()
	return strings.TrimPrefix(ip, "::ffff:")
}
