package ratelimit

import (
	"context"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

// Limiter decides whether one more request for key fits the quota
type Limiter interface {
	Allow(ctx context.Context, key string) (bool, error)
}

// Config defines rate limiter configuration
type Config struct {
	// Limit is the maximum number of requests allowed per Window
	Limit int64
	// Window is the time window for the rate limit
	Window time.Duration
	// KeyPrefix is prepended to all redis keys
	KeyPrefix string
}

// LocalLimiter keeps one token bucket per key in process memory
type LocalLimiter struct {
	mu       sync.Mutex
	limiters map[string]*rate.Limiter
	every    rate.Limit
	burst    int
}

// NewLocalLimiter allows limit requests per window with bursts up to limit
func NewLocalLimiter(cfg Config) *LocalLimiter {
	if cfg.Limit <= 0 {
		cfg.Limit = 1
	}
	if cfg.Window <= 0 {
		cfg.Window = time.Minute
	}
	return &LocalLimiter{
		limiters: make(map[string]*rate.Limiter),
		every:    rate.Every(cfg.Window / time.Duration(cfg.Limit)),
		burst:    int(cfg.Limit),
	}
}

func (l *LocalLimiter) limiter(key string) *rate.Limiter {
	l.mu.Lock()
	defer l.mu.Unlock()
	limiter, ok := l.limiters[key]
	if !ok {
		limiter = rate.NewLimiter(l.every, l.burst)
		l.limiters[key] = limiter
	}
	return limiter
}

func (l *LocalLimiter) Allow(_ context.Context, key string) (bool, error) {
	return l.limiter(key).Allow(), nil
}

// KeyFunc extracts the rate limit key from the request
type KeyFunc func(*gin.Context) string

// IPKeyFunc extracts IP address from request
func IPKeyFunc(c *gin.Context) string {
	return c.ClientIP()
}

// UserKeyFunc uses the authenticated user id, falling back to the client IP
func UserKeyFunc(c *gin.Context) string {
	if id := c.GetString("user_id"); id != "" {
		return "user:" + id
	}
	return "ip:" + c.ClientIP()
}
