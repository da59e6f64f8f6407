package docstore

import (
	"context"
	"sync"
	"time"
)

// MemoryBackend keeps documents in process. It serves tests and local runs.
// A transaction holds the write lock until it finishes, so fn must only use
// the context it is given.
type MemoryBackend struct {
	mu   sync.RWMutex
	data map[string]map[string]Document
	now  func() time.Time
}

// MemoryOption configures a MemoryBackend
type MemoryOption func(*MemoryBackend)

// WithClock overrides the clock used for server timestamps
func WithClock(now func() time.Time) MemoryOption {
	return func(b *MemoryBackend) {
		b.now = now
	}
}

func NewMemoryBackend(opts ...MemoryOption) *MemoryBackend {
	b := &MemoryBackend{
		data: make(map[string]map[string]Document),
		now:  time.Now,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

type memTxKey struct{}

type memTx struct {
	data map[string]map[string]Document
}

// view runs fn against the transaction snapshot or the live data
func (b *MemoryBackend) view(ctx context.Context, fn func(data map[string]map[string]Document)) {
	if tx, ok := ctx.Value(memTxKey{}).(*memTx); ok {
		fn(tx.data)
		return
	}
	b.mu.RLock()
	defer b.mu.RUnlock()
	fn(b.data)
}

func (b *MemoryBackend) mutate(ctx context.Context, fn func(data map[string]map[string]Document) error) error {
	if tx, ok := ctx.Value(memTxKey{}).(*memTx); ok {
		return fn(tx.data)
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	return fn(b.data)
}

func (b *MemoryBackend) Get(ctx context.Context, collection, id string) (Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var (
		doc   Document
		found bool
	)
	b.view(ctx, func(data map[string]map[string]Document) {
		doc, found = data[collection][id]
		if found {
			doc = deepCopy(doc)
		}
	})
	if !found {
		return nil, ErrNotFound
	}
	return doc, nil
}

func (b *MemoryBackend) Find(ctx context.Context, collection string, q Query) ([]Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var out []Document
	b.view(ctx, func(data map[string]map[string]Document) {
		for _, doc := range data[collection] {
			if matches(doc, q.Filters) {
				out = append(out, deepCopy(doc))
			}
		}
	})
	sortDocuments(out, q.OrderBy)
	if q.Limit > 0 && len(out) > q.Limit {
		out = out[:q.Limit]
	}
	return out, nil
}

func (b *MemoryBackend) Create(ctx context.Context, collection string, doc Document, serverTime []string) (Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var created Document
	err := b.mutate(ctx, func(data map[string]map[string]Document) error {
		coll, ok := data[collection]
		if !ok {
			coll = make(map[string]Document)
			data[collection] = coll
		}
		if _, exists := coll[doc.ID()]; exists {
			return ErrAlreadyExists
		}

		now := b.now().UTC()
		stored := deepCopy(doc)
		for _, field := range serverTime {
			stored[field] = now
		}
		stored[FieldCreatedAt] = now
		stored[FieldUpdatedAt] = now

		coll[doc.ID()] = stored
		created = deepCopy(stored)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

func (b *MemoryBackend) Update(ctx context.Context, collection, id string, fields Fields) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return b.mutate(ctx, func(data map[string]map[string]Document) error {
		existing, ok := data[collection][id]
		if !ok {
			return ErrNotFound
		}

		now := b.now().UTC()
		updated := deepCopy(existing)
		for k, v := range fields {
			if v == ServerTimestamp {
				updated[k] = now
				continue
			}
			updated[k] = deepCopyValue(v)
		}
		updated[FieldUpdatedAt] = now

		data[collection][id] = updated
		return nil
	})
}

func (b *MemoryBackend) Delete(ctx context.Context, collection, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return b.mutate(ctx, func(data map[string]map[string]Document) error {
		if _, ok := data[collection][id]; !ok {
			return ErrNotFound
		}
		delete(data[collection], id)
		return nil
	})
}

// RunInTransaction applies fn to a private snapshot and swaps it in on success
func (b *MemoryBackend) RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	if _, ok := ctx.Value(memTxKey{}).(*memTx); ok {
		return fn(ctx)
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	// Stored documents are never mutated in place, so copying the maps is enough.
	snapshot := make(map[string]map[string]Document, len(b.data))
	for name, coll := range b.data {
		cp := make(map[string]Document, len(coll))
		for id, doc := range coll {
			cp[id] = doc
		}
		snapshot[name] = cp
	}

	if err := fn(context.WithValue(ctx, memTxKey{}, &memTx{data: snapshot})); err != nil {
		return err
	}
	b.data = snapshot
	return nil
}

func (b *MemoryBackend) Close(ctx context.Context) error {
	return nil
}
