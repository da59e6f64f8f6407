package docstore

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

func TestBuildMongoFilter(t *testing.T) {
	at := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	amount, err := primitive.ParseDecimal128("100.25")
	require.NoError(t, err)

	tests := []struct {
		name   string
		filter Filter
		want   bson.D
	}{
		{
			name:   "id maps to _id",
			filter: Filter{Field: FieldID, Op: OpEq, Value: "inv-1"},
			want:   bson.D{{Key: "_id", Value: bson.D{{Key: "$eq", Value: "inv-1"}}}},
		},
		{
			name:   "not equal requires the field",
			filter: Filter{Field: "status", Op: OpNe, Value: "Closed"},
			want: bson.D{{Key: "status", Value: bson.D{
				{Key: "$ne", Value: "Closed"},
				{Key: "$exists", Value: true},
			}}},
		},
		{
			name:   "in builds a list",
			filter: Filter{Field: "country", Op: OpIn, Value: []interface{}{"UK", "FR"}},
			want:   bson.D{{Key: "country", Value: bson.D{{Key: "$in", Value: bson.A{"UK", "FR"}}}}},
		},
		{
			name:   "server timestamps stay dates",
			filter: Filter{Field: FieldCreatedAt, Op: OpGte, Value: at},
			want:   bson.D{{Key: FieldCreatedAt, Value: bson.D{{Key: "$gte", Value: at}}}},
		},
		{
			name:   "server timestamps parse strings",
			filter: Filter{Field: FieldUpdatedAt, Op: OpLt, Value: "2024-05-01T10:00:00Z"},
			want:   bson.D{{Key: FieldUpdatedAt, Value: bson.D{{Key: "$lt", Value: at}}}},
		},
		{
			name:   "other times become strings",
			filter: Filter{Field: "date", Op: OpLte, Value: at},
			want:   bson.D{{Key: "date", Value: bson.D{{Key: "$lte", Value: "2024-05-01T10:00:00Z"}}}},
		},
		{
			name:   "numbers become decimals",
			filter: Filter{Field: "amount", Op: OpGt, Value: json.Number("100.25")},
			want:   bson.D{{Key: "amount", Value: bson.D{{Key: "$gt", Value: amount}}}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, buildMongoFilter([]Filter{tt.filter}))
		})
	}
}

func TestBuildMongoFilter_Empty(t *testing.T) {
	assert.Equal(t, bson.D{}, buildMongoFilter(nil))
}

func TestFromBSON(t *testing.T) {
	at := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	dec, err := primitive.ParseDecimal128("12345678901234567890.12")
	require.NoError(t, err)

	tests := []struct {
		name string
		in   interface{}
		want interface{}
	}{
		{"date time", primitive.NewDateTimeFromTime(at), at},
		{"time in another zone", at.In(time.FixedZone("X", 3600)), at},
		{"int32", int32(7), json.Number("7")},
		{"int64", int64(9000000000), json.Number("9000000000")},
		{"double", 2.5, json.Number("2.5")},
		{"decimal", dec, json.Number("12345678901234567890.12")},
		{"string", "Ada", "Ada"},
		{
			"nested document",
			bson.M{"inner": bson.D{{Key: "n", Value: int32(1)}}},
			map[string]interface{}{"inner": map[string]interface{}{"n": json.Number("1")}},
		},
		{
			"array",
			bson.A{int64(1), "x", bson.M{"ok": true}},
			[]interface{}{json.Number("1"), "x", map[string]interface{}{"ok": true}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, fromBSON(tt.in))
		})
	}
}

func TestToBSON(t *testing.T) {
	want, err := primitive.ParseDecimal128("1500.50")
	require.NoError(t, err)

	got := toBSON(map[string]interface{}{
		"balance": json.Number("1500.50"),
		"history": []interface{}{json.Number("1500.50"), "note"},
	})
	assert.Equal(t, bson.M{
		"balance": want,
		"history": bson.A{want, "note"},
	}, got)

	assert.Equal(t, "abc", toBSON(json.Number("abc")))
	assert.Equal(t, true, toBSON(true))
}

func TestToDocument(t *testing.T) {
	at := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	doc := toDocument(bson.M{
		"_id":            "inv-1",
		"name":           "Ada",
		"currentBalance": int32(1000),
		FieldCreatedAt:   primitive.NewDateTimeFromTime(at),
	})

	assert.Equal(t, "inv-1", doc.ID())
	assert.Equal(t, "Ada", doc["name"])
	assert.Equal(t, json.Number("1000"), doc["currentBalance"])
	assert.Equal(t, at, doc[FieldCreatedAt])
	_, hasRawID := doc["_id"]
	assert.False(t, hasRawID)
}

func TestMapMongoError(t *testing.T) {
	other := errors.New("socket closed")

	assert.NoError(t, mapMongoError(nil))
	assert.ErrorIs(t, mapMongoError(mongo.ErrNoDocuments), ErrNotFound)
	assert.ErrorIs(t, mapMongoError(mongo.WriteException{
		WriteErrors: []mongo.WriteError{{Code: 11000, Message: "E11000 duplicate key error"}},
	}), ErrAlreadyExists)
	assert.ErrorIs(t, mapMongoError(mongo.CommandError{Code: 13, Message: "not authorized on backoffice"}), ErrPermissionDenied)
	assert.Equal(t, other, mapMongoError(other))
}
