package docstore

import (
	"context"
	"sync"
	"time"

	"github.com/stack-service/backoffice/pkg/metrics"
)

// Snapshot is one delivery of a live query
type Snapshot[T any] struct {
	Items []T
	Err   error
	At    time.Time
}

// Subscription is a live query. Only the latest snapshot is buffered, so a
// slow reader skips intermediate states.
type Subscription[T any] struct {
	updates chan Snapshot[T]
	cancel  context.CancelFunc
	done    chan struct{}
	once    sync.Once
}

func subscribe[T any](ctx context.Context, c *Collection[T], q Query) (*Subscription[T], error) {
	ctx, cancel := context.WithCancel(ctx)

	changes, stop, err := c.store.notifier.Listen(ctx, c.name)
	if err != nil {
		cancel()
		return nil, err
	}

	sub := &Subscription[T]{
		updates: make(chan Snapshot[T], 1),
		cancel:  cancel,
		done:    make(chan struct{}),
	}

	metrics.ActiveSubscriptionsGauge.Inc()
	go func() {
		defer metrics.ActiveSubscriptionsGauge.Dec()
		defer close(sub.done)
		defer close(sub.updates)
		defer stop()

		sub.deliver(c.snapshot(ctx, q))
		for {
			select {
			case <-ctx.Done():
				return
			case _, ok := <-changes:
				if !ok {
					return
				}
				snap := c.snapshot(ctx, q)
				if ctx.Err() != nil {
					return
				}
				sub.deliver(snap)
			}
		}
	}()

	return sub, nil
}

func (c *Collection[T]) snapshot(ctx context.Context, q Query) Snapshot[T] {
	items, err := c.Find(ctx, q)
	return Snapshot[T]{Items: items, Err: err, At: time.Now().UTC()}
}

// deliver replaces any unread snapshot with snap
func (s *Subscription[T]) deliver(snap Snapshot[T]) {
	select {
	case s.updates <- snap:
		return
	default:
	}
	select {
	case <-s.updates:
	default:
	}
	s.updates <- snap
}

// Updates returns the snapshot channel. It is closed after Unsubscribe.
func (s *Subscription[T]) Updates() <-chan Snapshot[T] {
	return s.updates
}

// Unsubscribe stops delivery and waits for the subscription to wind down.
// Calling it more than once is safe.
func (s *Subscription[T]) Unsubscribe() {
	s.once.Do(s.cancel)
	<-s.done
}
