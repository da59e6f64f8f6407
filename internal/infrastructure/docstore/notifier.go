package docstore

import (
	"context"
	"sync"
)

// Notifier carries "collection changed" signals between writers and subscribers
type Notifier interface {
	Publish(ctx context.Context, collection string) error
	// Listen returns a channel that receives a value after each change of
	// collection. Signals may be coalesced. The returned func stops listening.
	Listen(ctx context.Context, collection string) (<-chan struct{}, func(), error)
	Close() error
}

// LocalNotifier fans out change signals inside one process
type LocalNotifier struct {
	mu     sync.Mutex
	nextID int
	subs   map[string]map[int]chan struct{}
}

func NewLocalNotifier() *LocalNotifier {
	return &LocalNotifier{subs: make(map[string]map[int]chan struct{})}
}

func (n *LocalNotifier) Publish(ctx context.Context, collection string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	for _, ch := range n.subs[collection] {
		select {
		case ch <- struct{}{}:
		default:
		}
	}
	return nil
}

func (n *LocalNotifier) Listen(ctx context.Context, collection string) (<-chan struct{}, func(), error) {
	ch := make(chan struct{}, 1)

	n.mu.Lock()
	id := n.nextID
	n.nextID++
	if n.subs[collection] == nil {
		n.subs[collection] = make(map[int]chan struct{})
	}
	n.subs[collection][id] = ch
	n.mu.Unlock()

	var once sync.Once
	stop := func() {
		once.Do(func() {
			n.mu.Lock()
			defer n.mu.Unlock()
			if _, ok := n.subs[collection][id]; ok {
				delete(n.subs[collection], id)
				close(ch)
			}
		})
	}
	return ch, stop, nil
}

func (n *LocalNotifier) Close() error {
	n.mu.Lock()
	defer n.mu.Unlock()
	for collection, subs := range n.subs {
		for id, ch := range subs {
			close(ch)
			delete(subs, id)
		}
		delete(n.subs, collection)
	}
	return nil
}
