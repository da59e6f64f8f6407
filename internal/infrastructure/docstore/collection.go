package docstore

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
)

// Collection is a typed view over one named collection. T must round-trip
// through encoding/json and carry its id in an "id" field.
type Collection[T any] struct {
	store *Store
	name  string
}

func NewCollection[T any](store *Store, name string) *Collection[T] {
	return &Collection[T]{store: store, name: name}
}

func (c *Collection[T]) Name() string {
	return c.name
}

func encode(v interface{}) (Document, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encode document: %w", err)
	}
	doc := Document{}
	if err := decodeJSON(raw, &doc); err != nil {
		return nil, fmt.Errorf("encode document: %w", err)
	}
	return doc, nil
}

func decode[T any](doc Document) (*T, error) {
	raw, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("decode document: %w", err)
	}
	var out T
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("decode document %s: %w", doc.ID(), err)
	}
	return &out, nil
}

func (c *Collection[T]) Get(ctx context.Context, id string) (*T, error) {
	doc, err := c.store.Get(ctx, c.name, id)
	if err != nil {
		return nil, err
	}
	return decode[T](doc)
}

func (c *Collection[T]) Find(ctx context.Context, q Query) ([]T, error) {
	docs, err := c.store.Find(ctx, c.name, q)
	if err != nil {
		return nil, err
	}
	out := make([]T, 0, len(docs))
	for _, doc := range docs {
		item, err := decode[T](doc)
		if err != nil {
			return nil, err
		}
		out = append(out, *item)
	}
	return out, nil
}

// Create stores v, assigning a random id when v has none, and returns the
// stored value with its server timestamps.
func (c *Collection[T]) Create(ctx context.Context, v *T, serverTime ...string) (*T, error) {
	doc, err := encode(v)
	if err != nil {
		return nil, err
	}
	if doc.ID() == "" {
		doc[FieldID] = uuid.NewString()
	}
	created, err := c.store.Create(ctx, c.name, doc, serverTime...)
	if err != nil {
		return nil, err
	}
	return decode[T](created)
}

func (c *Collection[T]) Update(ctx context.Context, id string, fields Fields) error {
	return c.store.Update(ctx, c.name, id, fields)
}

func (c *Collection[T]) Delete(ctx context.Context, id string) error {
	return c.store.Delete(ctx, c.name, id)
}

// Watch delivers the result of q now and again after every change to the
// collection, until ctx ends or the subscription is cancelled.
func (c *Collection[T]) Watch(ctx context.Context, q Query) (*Subscription[T], error) {
	if err := normalizeQuery(q).validate(); err != nil {
		return nil, err
	}
	return subscribe(ctx, c, q)
}
