package docstore

import (
	"context"
	"fmt"
	"sync"

	"github.com/go-redis/redis/v8"
	"github.com/sony/gobreaker"
	"go.uber.org/zap"
)

const changeChannelPrefix = "backoffice:changes:"

// RedisNotifier shares change signals between instances through redis pub/sub
type RedisNotifier struct {
	client  *redis.Client
	breaker *gobreaker.CircuitBreaker
	logger  *zap.Logger

	mu     sync.Mutex
	closed bool
	subs   map[*redis.PubSub]struct{}
}

func NewRedisNotifier(client *redis.Client, breaker *gobreaker.CircuitBreaker, logger *zap.Logger) *RedisNotifier {
	return &RedisNotifier{
		client:  client,
		breaker: breaker,
		logger:  logger,
		subs:    make(map[*redis.PubSub]struct{}),
	}
}

func channelFor(collection string) string {
	return changeChannelPrefix + collection
}

func (n *RedisNotifier) Publish(ctx context.Context, collection string) error {
	_, err := n.breaker.Execute(func() (interface{}, error) {
		return nil, n.client.Publish(ctx, channelFor(collection), "changed").Err()
	})
	if err != nil {
		return fmt.Errorf("publish change for %s: %w", collection, err)
	}
	return nil
}

func (n *RedisNotifier) Listen(ctx context.Context, collection string) (<-chan struct{}, func(), error) {
	n.mu.Lock()
	if n.closed {
		n.mu.Unlock()
		return nil, nil, fmt.Errorf("redis notifier closed")
	}
	n.mu.Unlock()

	pubsub := n.client.Subscribe(ctx, channelFor(collection))
	if _, err := pubsub.Receive(ctx); err != nil {
		_ = pubsub.Close()
		return nil, nil, fmt.Errorf("subscribe to %s: %w", collection, err)
	}

	n.mu.Lock()
	n.subs[pubsub] = struct{}{}
	n.mu.Unlock()

	out := make(chan struct{}, 1)
	done := make(chan struct{})
	go func() {
		defer close(out)
		msgs := pubsub.Channel()
		for {
			select {
			case <-done:
				return
			case _, ok := <-msgs:
				if !ok {
					return
				}
				select {
				case out <- struct{}{}:
				default:
				}
			}
		}
	}()

	var once sync.Once
	stop := func() {
		once.Do(func() {
			close(done)
			n.mu.Lock()
			delete(n.subs, pubsub)
			n.mu.Unlock()
			if err := pubsub.Close(); err != nil {
				n.logger.Debug("closing pubsub", zap.String("collection", collection), zap.Error(err))
			}
		})
	}
	return out, stop, nil
}

// Close stops all listeners. The redis client is owned by the caller.
func (n *RedisNotifier) Close() error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.closed = true
	for pubsub := range n.subs {
		_ = pubsub.Close()
		delete(n.subs, pubsub)
	}
	return nil
}
