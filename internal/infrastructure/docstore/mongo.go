package docstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

// MongoBackend maps each collection to a mongo collection keyed by _id.
// Transactions need a replica set deployment.
type MongoBackend struct {
	client *mongo.Client
	db     *mongo.Database
	logger *zap.Logger
}

func NewMongoBackend(client *mongo.Client, database string, logger *zap.Logger) *MongoBackend {
	return &MongoBackend{
		client: client,
		db:     client.Database(database),
		logger: logger,
	}
}

func mapMongoError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, mongo.ErrNoDocuments):
		return ErrNotFound
	case mongo.IsDuplicateKeyError(err):
		return ErrAlreadyExists
	}
	var se mongo.ServerError
	if errors.As(err, &se) && (se.HasErrorCode(13) || se.HasErrorMessage("not authorized")) {
		return fmt.Errorf("%w: %v", ErrPermissionDenied, err)
	}
	return err
}

func mongoField(field string) string {
	if field == FieldID {
		return "_id"
	}
	return field
}

// mongoValue aligns a filter value with how the field is stored.
// Server timestamps are BSON dates; every other time is an RFC3339 string.
func mongoValue(field string, v interface{}) interface{} {
	if isTimestampField(field) {
		if t, ok := asTime(v); ok {
			return t
		}
		return v
	}
	if t, ok := v.(time.Time); ok {
		return t.UTC().Format(time.RFC3339Nano)
	}
	return toBSON(v)
}

// toBSON stores json.Number values as Decimal128 so amounts keep every digit
func toBSON(v interface{}) interface{} {
	switch t := v.(type) {
	case json.Number:
		d, err := primitive.ParseDecimal128(string(t))
		if err != nil {
			return string(t)
		}
		return d
	case map[string]interface{}:
		out := make(bson.M, len(t))
		for k, e := range t {
			out[k] = toBSON(e)
		}
		return out
	case Document:
		return toBSON(map[string]interface{}(t))
	case []interface{}:
		out := make(bson.A, len(t))
		for i, e := range t {
			out[i] = toBSON(e)
		}
		return out
	}
	return v
}

var mongoOps = map[Op]string{
	OpEq:  "$eq",
	OpNe:  "$ne",
	OpLt:  "$lt",
	OpLte: "$lte",
	OpGt:  "$gt",
	OpGte: "$gte",
	OpIn:  "$in",
}

func buildMongoFilter(filters []Filter) bson.D {
	filter := bson.D{}
	for _, f := range filters {
		field := mongoField(f.Field)
		var value interface{}
		if f.Op == OpIn {
			list := f.Value.([]interface{})
			values := make(bson.A, 0, len(list))
			for _, v := range list {
				values = append(values, mongoValue(f.Field, v))
			}
			value = values
		} else {
			value = mongoValue(f.Field, f.Value)
		}

		cond := bson.D{{Key: mongoOps[f.Op], Value: value}}
		if f.Op == OpNe {
			cond = append(cond, bson.E{Key: "$exists", Value: true})
		}
		filter = append(filter, bson.E{Key: field, Value: cond})
	}
	return filter
}

// fromBSON converts a decoded mongo value into the document value space
func fromBSON(v interface{}) interface{} {
	switch t := v.(type) {
	case primitive.DateTime:
		return t.Time().UTC()
	case time.Time:
		return t.UTC()
	case int32:
		return json.Number(strconv.FormatInt(int64(t), 10))
	case int64:
		return json.Number(strconv.FormatInt(t, 10))
	case float64:
		return json.Number(strconv.FormatFloat(t, 'f', -1, 64))
	case primitive.Decimal128:
		return json.Number(t.String())
	case bson.M:
		out := make(map[string]interface{}, len(t))
		for k, e := range t {
			out[k] = fromBSON(e)
		}
		return out
	case bson.D:
		out := make(map[string]interface{}, len(t))
		for _, e := range t {
			out[e.Key] = fromBSON(e.Value)
		}
		return out
	case bson.A:
		out := make([]interface{}, len(t))
		for i, e := range t {
			out[i] = fromBSON(e)
		}
		return out
	case map[string]interface{}:
		return fromBSON(bson.M(t))
	case []interface{}:
		return fromBSON(bson.A(t))
	}
	return v
}

func toDocument(raw bson.M) Document {
	doc := Document{}
	for k, v := range raw {
		if k == "_id" {
			doc[FieldID] = fmt.Sprint(v)
			continue
		}
		doc[k] = fromBSON(v)
	}
	return doc
}

func (b *MongoBackend) Get(ctx context.Context, collection, id string) (Document, error) {
	var raw bson.M
	err := b.db.Collection(collection).FindOne(ctx, bson.M{"_id": id}).Decode(&raw)
	if err != nil {
		if !errors.Is(err, mongo.ErrNoDocuments) {
			b.logger.Error("failed to get document",
				zap.String("collection", collection),
				zap.String("id", id),
				zap.Error(err),
			)
		}
		return nil, mapMongoError(err)
	}
	return toDocument(raw), nil
}

func (b *MongoBackend) Find(ctx context.Context, collection string, q Query) ([]Document, error) {
	opts := options.Find()
	sort := bson.D{}
	for _, o := range q.OrderBy {
		dir := 1
		if o.Desc {
			dir = -1
		}
		sort = append(sort, bson.E{Key: mongoField(o.Field), Value: dir})
	}
	sort = append(sort, bson.E{Key: "_id", Value: 1})
	opts.SetSort(sort)
	if q.Limit > 0 {
		opts.SetLimit(int64(q.Limit))
	}

	cursor, err := b.db.Collection(collection).Find(ctx, buildMongoFilter(q.Filters), opts)
	if err != nil {
		b.logger.Error("failed to query documents",
			zap.String("collection", collection),
			zap.Error(err),
		)
		return nil, mapMongoError(err)
	}
	defer cursor.Close(ctx)

	var raws []bson.M
	if err := cursor.All(ctx, &raws); err != nil {
		return nil, mapMongoError(err)
	}

	docs := make([]Document, 0, len(raws))
	for _, raw := range raws {
		docs = append(docs, toDocument(raw))
	}
	return docs, nil
}

func currentDate(fields ...string) bson.M {
	out := bson.M{}
	for _, f := range fields {
		out[f] = true
	}
	return out
}

func (b *MongoBackend) Create(ctx context.Context, collection string, doc Document, serverTime []string) (Document, error) {
	body := bson.M{"_id": doc.ID()}
	for k, v := range doc {
		if k == FieldID {
			continue
		}
		body[k] = toBSON(v)
	}

	coll := b.db.Collection(collection)
	if _, err := coll.InsertOne(ctx, body); err != nil {
		if !mongo.IsDuplicateKeyError(err) {
			b.logger.Error("failed to create document",
				zap.String("collection", collection),
				zap.String("id", doc.ID()),
				zap.Error(err),
			)
		}
		return nil, mapMongoError(err)
	}

	stamps := append([]string{FieldCreatedAt, FieldUpdatedAt}, serverTime...)
	if _, err := coll.UpdateByID(ctx, doc.ID(), bson.M{"$currentDate": currentDate(stamps...)}); err != nil {
		return nil, mapMongoError(err)
	}
	return b.Get(ctx, collection, doc.ID())
}

func (b *MongoBackend) Update(ctx context.Context, collection, id string, fields Fields) error {
	set := bson.M{}
	stamps := []string{FieldUpdatedAt}
	for k, v := range fields {
		if v == ServerTimestamp {
			stamps = append(stamps, k)
			continue
		}
		set[k] = toBSON(v)
	}

	update := bson.M{"$currentDate": currentDate(stamps...)}
	if len(set) > 0 {
		update["$set"] = set
	}

	res, err := b.db.Collection(collection).UpdateByID(ctx, id, update)
	if err != nil {
		b.logger.Error("failed to update document",
			zap.String("collection", collection),
			zap.String("id", id),
			zap.Error(err),
		)
		return mapMongoError(err)
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (b *MongoBackend) Delete(ctx context.Context, collection, id string) error {
	res, err := b.db.Collection(collection).DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return mapMongoError(err)
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (b *MongoBackend) RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	if mongo.SessionFromContext(ctx) != nil {
		return fn(ctx)
	}

	session, err := b.client.StartSession()
	if err != nil {
		return fmt.Errorf("start session: %w", mapMongoError(err))
	}
	defer session.EndSession(ctx)

	_, err = session.WithTransaction(ctx, func(sc mongo.SessionContext) (interface{}, error) {
		return nil, fn(sc)
	})
	return mapMongoError(err)
}

func (b *MongoBackend) Close(ctx context.Context) error {
	return b.client.Disconnect(ctx)
}
