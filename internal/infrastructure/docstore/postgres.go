package docstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"go.uber.org/zap"
)

const documentColumns = "id, data, created_at, updated_at"

// PostgresBackend stores each document as a JSONB row of the documents table
type PostgresBackend struct {
	db     *sqlx.DB
	logger *zap.Logger
}

func NewPostgresBackend(db *sqlx.DB, logger *zap.Logger) *PostgresBackend {
	return &PostgresBackend{db: db, logger: logger}
}

type documentRow struct {
	ID        string    `db:"id"`
	Data      []byte    `db:"data"`
	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
}

func (r documentRow) toDocument() (Document, error) {
	doc := Document{}
	if len(r.Data) > 0 {
		if err := decodeJSON(r.Data, &doc); err != nil {
			return nil, fmt.Errorf("decode document %s: %w", r.ID, err)
		}
	}
	doc[FieldID] = r.ID
	doc[FieldCreatedAt] = r.CreatedAt.UTC()
	doc[FieldUpdatedAt] = r.UpdatedAt.UTC()
	return doc, nil
}

type pgTxKey struct{}

type queryer interface {
	sqlx.ExtContext
	GetContext(ctx context.Context, dest interface{}, query string, args ...interface{}) error
	SelectContext(ctx context.Context, dest interface{}, query string, args ...interface{}) error
}

func (b *PostgresBackend) conn(ctx context.Context) (queryer, bool) {
	if tx, ok := ctx.Value(pgTxKey{}).(*sqlx.Tx); ok {
		return tx, true
	}
	return b.db, false
}

func mapPostgresError(err error) error {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch pqErr.Code {
		case "42501":
			return fmt.Errorf("%w: %s", ErrPermissionDenied, pqErr.Message)
		case "23505":
			return ErrAlreadyExists
		}
	}
	return err
}

func (b *PostgresBackend) Get(ctx context.Context, collection, id string) (Document, error) {
	q, inTx := b.conn(ctx)
	query := "SELECT " + documentColumns + " FROM documents WHERE collection = $1 AND id = $2"
	if inTx {
		query += " FOR UPDATE"
	}

	var row documentRow
	if err := q.GetContext(ctx, &row, query, collection, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		b.logger.Error("failed to get document",
			zap.String("collection", collection),
			zap.String("id", id),
			zap.Error(err),
		)
		return nil, mapPostgresError(err)
	}
	return row.toDocument()
}

// sqlArgs numbers positional placeholders as they are added
type sqlArgs struct {
	values []interface{}
}

func (a *sqlArgs) add(v interface{}) string {
	a.values = append(a.values, v)
	return fmt.Sprintf("$%d", len(a.values))
}

func columnFor(field string) (string, bool) {
	switch field {
	case FieldID:
		return "id", true
	case FieldCreatedAt:
		return "created_at", true
	case FieldUpdatedAt:
		return "updated_at", true
	}
	return "", false
}

func (a *sqlArgs) jsonPath(field string) string {
	return "(data #> " + a.add(pq.Array(strings.Split(field, "."))) + "::text[])"
}

func (a *sqlArgs) jsonValue(v interface{}) (string, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return "", err
	}
	return a.add(string(raw)) + "::jsonb", nil
}

func (a *sqlArgs) columnValue(column string, v interface{}) (string, error) {
	if column == "id" {
		s, ok := v.(string)
		if !ok {
			return "", ErrInvalidQuery
		}
		return a.add(s), nil
	}
	t, ok := asTime(v)
	if !ok {
		return "", ErrInvalidQuery
	}
	return a.add(t), nil
}

func (a *sqlArgs) condition(f Filter) (string, error) {
	if column, ok := columnFor(f.Field); ok {
		if f.Op == OpIn {
			values := f.Value.([]interface{})
			if column == "id" {
				ids := make([]string, 0, len(values))
				for _, v := range values {
					s, ok := v.(string)
					if !ok {
						return "", ErrInvalidQuery
					}
					ids = append(ids, s)
				}
				return column + " = ANY(" + a.add(pq.Array(ids)) + ")", nil
			}
			return "", ErrInvalidQuery
		}
		placeholder, err := a.columnValue(column, f.Value)
		if err != nil {
			return "", err
		}
		op := string(f.Op)
		switch f.Op {
		case OpEq:
			op = "="
		case OpNe:
			op = "<>"
		}
		return column + " " + op + " " + placeholder, nil
	}

	path := a.jsonPath(f.Field)
	switch f.Op {
	case OpIn:
		list, err := a.jsonValue(f.Value)
		if err != nil {
			return "", err
		}
		return "(" + path + " IS NOT NULL AND " + list + " @> jsonb_build_array(" + path + "))", nil
	case OpEq:
		value, err := a.jsonValue(f.Value)
		if err != nil {
			return "", err
		}
		return path + " = " + value, nil
	case OpNe:
		value, err := a.jsonValue(f.Value)
		if err != nil {
			return "", err
		}
		return "(" + path + " IS NOT NULL AND " + path + " <> " + value + ")", nil
	default:
		value, err := a.jsonValue(f.Value)
		if err != nil {
			return "", err
		}
		// jsonb ordering across types is not meaningful, so both sides must share one
		return "(jsonb_typeof(" + path + ") = jsonb_typeof(" + value + ") AND " +
			path + " " + string(f.Op) + " " + value + ")", nil
	}
}

func buildFindQuery(collection string, q Query) (string, []interface{}, error) {
	args := &sqlArgs{}
	var sb strings.Builder
	sb.WriteString("SELECT " + documentColumns + " FROM documents WHERE collection = ")
	sb.WriteString(args.add(collection))

	for _, f := range q.Filters {
		cond, err := args.condition(f)
		if err != nil {
			return "", nil, err
		}
		sb.WriteString(" AND ")
		sb.WriteString(cond)
	}

	sb.WriteString(" ORDER BY ")
	for _, o := range q.OrderBy {
		expr, ok := columnFor(o.Field)
		if !ok {
			expr = args.jsonPath(o.Field)
		}
		sb.WriteString(expr)
		if o.Desc {
			sb.WriteString(" DESC NULLS LAST, ")
		} else {
			sb.WriteString(" ASC NULLS FIRST, ")
		}
	}
	sb.WriteString("id ASC")

	if q.Limit > 0 {
		sb.WriteString(" LIMIT ")
		sb.WriteString(args.add(q.Limit))
	}
	return sb.String(), args.values, nil
}

func (b *PostgresBackend) Find(ctx context.Context, collection string, q Query) ([]Document, error) {
	query, args, err := buildFindQuery(collection, q)
	if err != nil {
		return nil, err
	}

	conn, _ := b.conn(ctx)
	var rows []documentRow
	if err := conn.SelectContext(ctx, &rows, query, args...); err != nil {
		b.logger.Error("failed to query documents",
			zap.String("collection", collection),
			zap.Error(err),
		)
		return nil, mapPostgresError(err)
	}

	docs := make([]Document, 0, len(rows))
	for _, row := range rows {
		doc, err := row.toDocument()
		if err != nil {
			return nil, err
		}
		docs = append(docs, doc)
	}
	return docs, nil
}

// serverTimeObject renders a jsonb object setting each field to now()
func serverTimeObject(fields []string) string {
	parts := make([]string, 0, len(fields)*2)
	for _, f := range fields {
		parts = append(parts, pq.QuoteLiteral(f), "to_jsonb(now())")
	}
	return "jsonb_build_object(" + strings.Join(parts, ", ") + ")"
}

func (b *PostgresBackend) Create(ctx context.Context, collection string, doc Document, serverTime []string) (Document, error) {
	body := make(map[string]interface{}, len(doc))
	for k, v := range doc {
		if k == FieldID {
			continue
		}
		body[k] = v
	}
	raw, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("encode document: %w", err)
	}

	data := "$3::jsonb"
	if len(serverTime) > 0 {
		data += " || " + serverTimeObject(serverTime)
	}
	query := "INSERT INTO documents (collection, id, data) VALUES ($1, $2, " + data + ") " +
		"ON CONFLICT (collection, id) DO NOTHING RETURNING " + documentColumns

	conn, _ := b.conn(ctx)
	var row documentRow
	if err := conn.GetContext(ctx, &row, query, collection, doc.ID(), string(raw)); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrAlreadyExists
		}
		b.logger.Error("failed to create document",
			zap.String("collection", collection),
			zap.String("id", doc.ID()),
			zap.Error(err),
		)
		return nil, mapPostgresError(err)
	}
	return row.toDocument()
}

func (b *PostgresBackend) Update(ctx context.Context, collection, id string, fields Fields) error {
	plain := make(map[string]interface{}, len(fields))
	var serverTime []string
	for k, v := range fields {
		if v == ServerTimestamp {
			serverTime = append(serverTime, k)
			continue
		}
		plain[k] = v
	}
	raw, err := json.Marshal(plain)
	if err != nil {
		return fmt.Errorf("encode fields: %w", err)
	}

	data := "data || $3::jsonb"
	if len(serverTime) > 0 {
		data += " || " + serverTimeObject(serverTime)
	}
	query := "UPDATE documents SET data = " + data + ", updated_at = now() WHERE collection = $1 AND id = $2"

	conn, _ := b.conn(ctx)
	res, err := conn.ExecContext(ctx, query, collection, id, string(raw))
	if err != nil {
		b.logger.Error("failed to update document",
			zap.String("collection", collection),
			zap.String("id", id),
			zap.Error(err),
		)
		return mapPostgresError(err)
	}
	return requireAffected(res)
}

func (b *PostgresBackend) Delete(ctx context.Context, collection, id string) error {
	conn, _ := b.conn(ctx)
	res, err := conn.ExecContext(ctx, "DELETE FROM documents WHERE collection = $1 AND id = $2", collection, id)
	if err != nil {
		b.logger.Error("failed to delete document",
			zap.String("collection", collection),
			zap.String("id", id),
			zap.Error(err),
		)
		return mapPostgresError(err)
	}
	return requireAffected(res)
}

func requireAffected(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func (b *PostgresBackend) RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) (err error) {
	if _, ok := ctx.Value(pgTxKey{}).(*sqlx.Tx); ok {
		return fn(ctx)
	}

	tx, err := b.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", mapPostgresError(err))
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
	}()

	if err := fn(context.WithValue(ctx, pgTxKey{}, tx)); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			b.logger.Error("failed to rollback transaction", zap.Error(rbErr))
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", mapPostgresError(err))
	}
	return nil
}

func (b *PostgresBackend) Close(ctx context.Context) error {
	return b.db.Close()
}
