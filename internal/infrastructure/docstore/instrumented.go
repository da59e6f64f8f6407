package docstore

import (
	"context"
	"time"

	"github.com/stack-service/backoffice/pkg/metrics"
	"github.com/stack-service/backoffice/pkg/tracing"
)

// InstrumentedBackend records a span and latency metrics for every call
type InstrumentedBackend struct {
	next   Backend
	system string
}

// Instrument wraps next. system names the database in spans, e.g. "postgresql".
func Instrument(next Backend, system string) *InstrumentedBackend {
	return &InstrumentedBackend{next: next, system: system}
}

func (b *InstrumentedBackend) observe(ctx context.Context, op, collection string, fn func(ctx context.Context) error) error {
	ctx, span := tracing.StartStoreSpan(ctx, b.system, op, collection)
	start := time.Now()
	err := fn(ctx)
	metrics.RecordStoreOperation(op, collection, time.Since(start).Seconds(), err)
	tracing.EndStoreSpan(span, err, ErrNotFound)
	return err
}

func (b *InstrumentedBackend) Get(ctx context.Context, collection, id string) (Document, error) {
	var doc Document
	err := b.observe(ctx, "get", collection, func(ctx context.Context) (err error) {
		doc, err = b.next.Get(ctx, collection, id)
		return err
	})
	return doc, err
}

func (b *InstrumentedBackend) Find(ctx context.Context, collection string, q Query) ([]Document, error) {
	var docs []Document
	err := b.observe(ctx, "find", collection, func(ctx context.Context) (err error) {
		docs, err = b.next.Find(ctx, collection, q)
		return err
	})
	return docs, err
}

func (b *InstrumentedBackend) Create(ctx context.Context, collection string, doc Document, serverTime []string) (Document, error) {
	var created Document
	err := b.observe(ctx, "create", collection, func(ctx context.Context) (err error) {
		created, err = b.next.Create(ctx, collection, doc, serverTime)
		return err
	})
	return created, err
}

func (b *InstrumentedBackend) Update(ctx context.Context, collection, id string, fields Fields) error {
	return b.observe(ctx, "update", collection, func(ctx context.Context) error {
		return b.next.Update(ctx, collection, id, fields)
	})
}

func (b *InstrumentedBackend) Delete(ctx context.Context, collection, id string) error {
	return b.observe(ctx, "delete", collection, func(ctx context.Context) error {
		return b.next.Delete(ctx, collection, id)
	})
}

func (b *InstrumentedBackend) RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return b.observe(ctx, "transaction", "", func(ctx context.Context) error {
		return b.next.RunInTransaction(ctx, fn)
	})
}

func (b *InstrumentedBackend) Close(ctx context.Context) error {
	return b.next.Close(ctx)
}
