package ratelimit

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

// RedisLimiter is a sliding-window limiter shared by every instance
// connected to the same redis.
type RedisLimiter struct {
	client *redis.Client
	config Config
	logger *zap.Logger
	now    func() time.Time
}

func NewRedisLimiter(client *redis.Client, config Config, logger *zap.Logger) *RedisLimiter {
	if config.KeyPrefix == "" {
		config.KeyPrefix = "backoffice:ratelimit"
	}
	if config.Window <= 0 {
		config.Window = time.Minute
	}
	return &RedisLimiter{
		client: client,
		config: config,
		logger: logger,
		now:    time.Now,
	}
}

// Allow records the request and reports whether the window count stays
// within the limit.
func (l *RedisLimiter) Allow(ctx context.Context, key string) (bool, error) {
	redisKey := l.makeKey(key)
	now := l.now()
	windowStart := now.Add(-l.config.Window)
	member := now.UnixNano()

	pipe := l.client.TxPipeline()
	pipe.ZRemRangeByScore(ctx, redisKey, "0", strconv.FormatInt(windowStart.UnixNano(), 10))
	pipe.ZAdd(ctx, redisKey, &redis.Z{Score: float64(member), Member: member})
	count := pipe.ZCard(ctx, redisKey)
	pipe.Expire(ctx, redisKey, l.config.Window*2)

	if _, err := pipe.Exec(ctx); err != nil {
		l.logger.Error("Failed to execute rate limit pipeline",
			zap.Error(err),
			zap.String("key", key))
		return false, fmt.Errorf("rate limit check failed: %w", err)
	}

	current := count.Val()
	if current > l.config.Limit {
		l.logger.Debug("Rate limit exceeded",
			zap.String("key", key),
			zap.Int64("current", current),
			zap.Int64("limit", l.config.Limit))
		return false, nil
	}
	return true, nil
}

func (l *RedisLimiter) makeKey(key string) string {
	return fmt.Sprintf("%s:%s", l.config.KeyPrefix, key)
}
