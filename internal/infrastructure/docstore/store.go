// Package docstore is the data-access layer over named document collections.
//
// A Backend persists schemaless documents (postgres JSONB, mongo, or memory).
// Store adds change notification on top of a Backend, and Collection[T] gives
// callers a typed view with live subscriptions.
package docstore

import (
	"context"
	"errors"
	"sync"

	"go.uber.org/zap"
)

var (
	ErrNotFound         = errors.New("docstore: document not found")
	ErrAlreadyExists    = errors.New("docstore: document already exists")
	ErrPermissionDenied = errors.New("docstore: permission denied")
	ErrInvalidQuery     = errors.New("docstore: invalid query")
)

// Reserved document fields. The backend owns CreatedAt and UpdatedAt.
const (
	FieldID        = "id"
	FieldCreatedAt = "createdAt"
	FieldUpdatedAt = "updatedAt"
)

// Document is a decoded record. Values are JSON-shaped: string, json.Number
// (float64 is also accepted), bool, nil, []interface{}, map[string]interface{},
// plus time.Time for server timestamps.
type Document map[string]interface{}

// ID returns the document id
func (d Document) ID() string {
	id, _ := d[FieldID].(string)
	return id
}

// Fields is a partial update of top-level document fields
type Fields map[string]interface{}

type serverTimestamp struct{}

// ServerTimestamp, used as a Fields value, is replaced by the backend clock
var ServerTimestamp = serverTimestamp{}

// Op is a filter comparison operator
type Op string

const (
	OpEq  Op = "=="
	OpNe  Op = "!="
	OpLt  Op = "<"
	OpLte Op = "<="
	OpGt  Op = ">"
	OpGte Op = ">="
	OpIn  Op = "in"
)

// Filter restricts a query on one field. Nested fields use dot paths.
type Filter struct {
	Field string
	Op    Op
	Value interface{}
}

// Order sorts query results on one field
type Order struct {
	Field string
	Desc  bool
}

// Query describes a filtered, ordered read of a collection
type Query struct {
	Filters []Filter
	OrderBy []Order
	Limit   int
}

// Where returns a copy of q with an extra filter
func (q Query) Where(field string, op Op, value interface{}) Query {
	q.Filters = append(append([]Filter(nil), q.Filters...), Filter{Field: field, Op: op, Value: value})
	return q
}

// OrderByField returns a copy of q with an extra sort key
func (q Query) OrderByField(field string, desc bool) Query {
	q.OrderBy = append(append([]Order(nil), q.OrderBy...), Order{Field: field, Desc: desc})
	return q
}

// WithLimit returns a copy of q limited to n results
func (q Query) WithLimit(n int) Query {
	q.Limit = n
	return q
}

func (q Query) validate() error {
	for _, f := range q.Filters {
		if f.Field == "" {
			return ErrInvalidQuery
		}
		switch f.Op {
		case OpEq, OpNe, OpLt, OpLte, OpGt, OpGte:
		case OpIn:
			if _, ok := f.Value.([]interface{}); !ok {
				return ErrInvalidQuery
			}
		default:
			return ErrInvalidQuery
		}
	}
	for _, o := range q.OrderBy {
		if o.Field == "" {
			return ErrInvalidQuery
		}
	}
	if q.Limit < 0 {
		return ErrInvalidQuery
	}
	return nil
}

// Backend persists documents in named collections
type Backend interface {
	Get(ctx context.Context, collection, id string) (Document, error)
	Find(ctx context.Context, collection string, q Query) ([]Document, error)
	// Create stores doc and returns it as stored. serverTime names extra
	// fields set from the backend clock.
	Create(ctx context.Context, collection string, doc Document, serverTime []string) (Document, error)
	Update(ctx context.Context, collection, id string, fields Fields) error
	Delete(ctx context.Context, collection, id string) error
	// RunInTransaction runs fn so that every call made with the context it
	// receives commits or rolls back together.
	RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error
	Close(ctx context.Context) error
}

// Transactor runs a unit of work atomically
type Transactor interface {
	RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

// Store is a Backend with change notification
type Store struct {
	backend  Backend
	notifier Notifier
	logger   *zap.Logger
}

// NewStore creates a store. A nil notifier falls back to in-process fan-out.
func NewStore(backend Backend, notifier Notifier, logger *zap.Logger) *Store {
	if notifier == nil {
		notifier = NewLocalNotifier()
	}
	return &Store{
		backend:  backend,
		notifier: notifier,
		logger:   logger,
	}
}

// Backend returns the underlying backend
func (s *Store) Backend() Backend {
	return s.backend
}

type txChangesKey struct{}

type txChanges struct {
	mu          sync.Mutex
	collections map[string]struct{}
}

// RunInTransaction runs fn atomically and publishes changes once it commits
func (s *Store) RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	if _, nested := ctx.Value(txChangesKey{}).(*txChanges); nested {
		return fn(ctx)
	}

	changes := &txChanges{collections: make(map[string]struct{})}
	txCtx := context.WithValue(ctx, txChangesKey{}, changes)

	if err := s.backend.RunInTransaction(txCtx, fn); err != nil {
		return err
	}

	for collection := range changes.collections {
		s.publish(ctx, collection)
	}
	return nil
}

func (s *Store) changed(ctx context.Context, collection string) {
	if changes, ok := ctx.Value(txChangesKey{}).(*txChanges); ok {
		changes.mu.Lock()
		changes.collections[collection] = struct{}{}
		changes.mu.Unlock()
		return
	}
	s.publish(ctx, collection)
}

func (s *Store) publish(ctx context.Context, collection string) {
	if err := s.notifier.Publish(context.WithoutCancel(ctx), collection); err != nil {
		s.logger.Warn("failed to publish collection change",
			zap.String("collection", collection),
			zap.Error(err),
		)
	}
}

func (s *Store) Get(ctx context.Context, collection, id string) (Document, error) {
	return s.backend.Get(ctx, collection, id)
}

func (s *Store) Find(ctx context.Context, collection string, q Query) ([]Document, error) {
	q = normalizeQuery(q)
	if err := q.validate(); err != nil {
		return nil, err
	}
	return s.backend.Find(ctx, collection, q)
}

func (s *Store) Create(ctx context.Context, collection string, doc Document, serverTime ...string) (Document, error) {
	if doc.ID() == "" {
		return nil, ErrInvalidQuery
	}
	clean := make(Document, len(doc))
	for k, v := range doc {
		if k == FieldCreatedAt || k == FieldUpdatedAt {
			continue
		}
		clean[k] = normalizeValue(v)
	}

	created, err := s.backend.Create(ctx, collection, clean, serverTime)
	if err != nil {
		return nil, err
	}
	s.changed(ctx, collection)
	return created, nil
}

func (s *Store) Update(ctx context.Context, collection, id string, fields Fields) error {
	clean := make(Fields, len(fields))
	for k, v := range fields {
		if k == FieldID || k == FieldCreatedAt || k == FieldUpdatedAt {
			continue
		}
		if v == ServerTimestamp {
			clean[k] = v
			continue
		}
		clean[k] = normalizeValue(v)
	}

	if err := s.backend.Update(ctx, collection, id, clean); err != nil {
		return err
	}
	s.changed(ctx, collection)
	return nil
}

func (s *Store) Delete(ctx context.Context, collection, id string) error {
	if err := s.backend.Delete(ctx, collection, id); err != nil {
		return err
	}
	s.changed(ctx, collection)
	return nil
}

// Close closes the notifier and the backend
func (s *Store) Close(ctx context.Context) error {
	nErr := s.notifier.Close()
	if err := s.backend.Close(ctx); err != nil {
		return err
	}
	return nErr
}
