package health

import (
	"context"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
)

// RedisChecker checks the change-notification broker
type RedisChecker struct {
	client  redis.UniversalClient
	timeout time.Duration
}

// NewRedisChecker creates a new Redis health checker
func NewRedisChecker(client redis.UniversalClient, timeout time.Duration) *RedisChecker {
	if timeout == 0 {
		timeout = 3 * time.Second
	}
	return &RedisChecker{client: client, timeout: timeout}
}

// Check pings Redis. Notifications are best effort so a slow broker is only degraded.
func (c *RedisChecker) Check(ctx context.Context) CheckResult {
	start := time.Now()
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	pong, err := c.client.Ping(ctx).Result()
	if err != nil {
		return NewUnhealthyResult(c.Name(), err).WithDuration(time.Since(start))
	}
	if pong != "PONG" {
		return NewUnhealthyResult(c.Name(), fmt.Errorf("unexpected ping response %q", pong)).
			WithDuration(time.Since(start))
	}

	elapsed := time.Since(start)
	if elapsed > c.timeout/2 {
		return NewDegradedResult(c.Name(), "slow ping").WithDuration(elapsed)
	}
	return NewHealthyResult(c.Name(), "connected").
		WithDuration(elapsed).
		WithMetadata("pool_total_conns", c.client.PoolStats().TotalConns)
}

// Name returns the checker name
func (c *RedisChecker) Name() string {
	return "redis"
}
