package docstore

import (
	"bytes"
	"encoding/json"
	"reflect"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// decodeJSON unmarshals raw keeping numbers as json.Number so amounts
// survive without float rounding.
func decodeJSON(raw []byte, v interface{}) error {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	return dec.Decode(v)
}

// normalizeValue converts v into the JSON-shaped form documents hold.
// time.Time is kept as a UTC instant.
func normalizeValue(v interface{}) interface{} {
	switch t := v.(type) {
	case nil, string, bool, float64, json.Number:
		return v
	case time.Time:
		return t.UTC()
	case *time.Time:
		if t == nil {
			return nil
		}
		return t.UTC()
	case int:
		return json.Number(strconv.FormatInt(int64(t), 10))
	case int64:
		return json.Number(strconv.FormatInt(t, 10))
	case int32:
		return json.Number(strconv.FormatInt(int64(t), 10))
	case []interface{}:
		out := make([]interface{}, len(t))
		for i, e := range t {
			out[i] = normalizeValue(e)
		}
		return out
	case map[string]interface{}:
		out := make(map[string]interface{}, len(t))
		for k, e := range t {
			out[k] = normalizeValue(e)
		}
		return out
	case Document:
		return normalizeValue(map[string]interface{}(t))
	}

	raw, err := json.Marshal(v)
	if err != nil {
		return v
	}
	var out interface{}
	if err := decodeJSON(raw, &out); err != nil {
		return v
	}
	return out
}

// asNumber reads float64 and json.Number values as exact decimals
func asNumber(v interface{}) (decimal.Decimal, bool) {
	switch t := v.(type) {
	case json.Number:
		d, err := decimal.NewFromString(string(t))
		return d, err == nil
	case float64:
		return decimal.NewFromFloat(t), true
	}
	return decimal.Decimal{}, false
}

func normalizeQuery(q Query) Query {
	out := Query{Limit: q.Limit, OrderBy: append([]Order(nil), q.OrderBy...)}
	for _, f := range q.Filters {
		f.Value = normalizeValue(f.Value)
		out.Filters = append(out.Filters, f)
	}
	return out
}

func isTimestampField(field string) bool {
	return field == FieldCreatedAt || field == FieldUpdatedAt
}

// lookup resolves a dot path inside doc
func lookup(doc Document, path string) (interface{}, bool) {
	var cur interface{} = map[string]interface{}(doc)
	for _, part := range strings.Split(path, ".") {
		m, ok := cur.(map[string]interface{})
		if !ok {
			if d, isDoc := cur.(Document); isDoc {
				m = d
			} else {
				return nil, false
			}
		}
		cur, ok = m[part]
		if !ok {
			return nil, false
		}
	}
	return cur, true
}

func asTime(v interface{}) (time.Time, bool) {
	switch t := v.(type) {
	case time.Time:
		return t, true
	case string:
		parsed, err := time.Parse(time.RFC3339Nano, t)
		if err != nil {
			return time.Time{}, false
		}
		return parsed, true
	}
	return time.Time{}, false
}

// compareValues orders two scalar values. ok is false when they are not comparable.
func compareValues(a, b interface{}) (int, bool) {
	if a == nil || b == nil {
		if a == nil && b == nil {
			return 0, true
		}
		return 0, false
	}

	_, aTime := a.(time.Time)
	_, bTime := b.(time.Time)
	if aTime || bTime {
		ta, okA := asTime(a)
		tb, okB := asTime(b)
		if !okA || !okB {
			return 0, false
		}
		return ta.Compare(tb), true
	}

	if an, ok := asNumber(a); ok {
		bn, ok := asNumber(b)
		if !ok {
			return 0, false
		}
		return an.Cmp(bn), true
	}

	switch av := a.(type) {
	case string:
		bv, ok := b.(string)
		if !ok {
			return 0, false
		}
		return strings.Compare(av, bv), true
	case bool:
		bv, ok := b.(bool)
		if !ok {
			return 0, false
		}
		switch {
		case av == bv:
			return 0, true
		case !av:
			return -1, true
		}
		return 1, true
	}
	return 0, false
}

func valuesEqual(a, b interface{}) bool {
	if c, ok := compareValues(a, b); ok {
		return c == 0
	}
	return reflect.DeepEqual(a, b)
}

func matches(doc Document, filters []Filter) bool {
	for _, f := range filters {
		v, ok := lookup(doc, f.Field)
		if !ok {
			return false
		}
		switch f.Op {
		case OpEq:
			if !valuesEqual(v, f.Value) {
				return false
			}
		case OpNe:
			if valuesEqual(v, f.Value) {
				return false
			}
		case OpIn:
			found := false
			for _, candidate := range f.Value.([]interface{}) {
				if valuesEqual(v, candidate) {
					found = true
					break
				}
			}
			if !found {
				return false
			}
		default:
			c, comparable := compareValues(v, f.Value)
			if !comparable {
				return false
			}
			switch f.Op {
			case OpLt:
				if c >= 0 {
					return false
				}
			case OpLte:
				if c > 0 {
					return false
				}
			case OpGt:
				if c <= 0 {
					return false
				}
			case OpGte:
				if c < 0 {
					return false
				}
			}
		}
	}
	return true
}

func typeRank(v interface{}) int {
	switch v.(type) {
	case nil:
		return 0
	case bool:
		return 1
	case float64, json.Number:
		return 2
	case string:
		return 3
	case time.Time:
		return 4
	}
	return 5
}

func compareForSort(a, b interface{}) int {
	if c, ok := compareValues(a, b); ok {
		return c
	}
	ra, rb := typeRank(a), typeRank(b)
	switch {
	case ra < rb:
		return -1
	case ra > rb:
		return 1
	}
	return 0
}

// sortDocuments orders docs by the given keys, falling back to id
func sortDocuments(docs []Document, orders []Order) {
	sort.SliceStable(docs, func(i, j int) bool {
		for _, o := range orders {
			a, _ := lookup(docs[i], o.Field)
			b, _ := lookup(docs[j], o.Field)
			c := compareForSort(a, b)
			if c == 0 {
				continue
			}
			if o.Desc {
				return c > 0
			}
			return c < 0
		}
		return docs[i].ID() < docs[j].ID()
	})
}

func deepCopyValue(v interface{}) interface{} {
	switch t := v.(type) {
	case map[string]interface{}:
		out := make(map[string]interface{}, len(t))
		for k, e := range t {
			out[k] = deepCopyValue(e)
		}
		return out
	case Document:
		return map[string]interface{}(deepCopy(t))
	case []interface{}:
		out := make([]interface{}, len(t))
		for i, e := range t {
			out[i] = deepCopyValue(e)
		}
		return out
	}
	return v
}

func deepCopy(doc Document) Document {
	if doc == nil {
		return nil
	}
	out := make(Document, len(doc))
	for k, v := range doc {
		out[k] = deepCopyValue(v)
	}
	return out
}
