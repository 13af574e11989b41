package orm

import (
	"encoding/json"
	"strconv"
	"strings"
	"time"
)

// Server-side datetime layouts.
const (
	DateLayout     = "2006-01-02"
	DatetimeLayout = "2006-01-02 15:04:05"
)

// Many2One is a relational reference rendered by the backend as [id, display_name].
type Many2One struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// Valid reports whether the reference points at a record.
func (m Many2One) Valid() bool { return m.ID > 0 }

// Record is one row returned by SearchRead. Empty values arrive as false.
type Record map[string]any

// ID returns the record id.
func (r Record) ID() int64 { return r.Int64("id") }

// Int64 reads an integer field, returning 0 for missing or false values.
func (r Record) Int64(field string) int64 {
	return toInt64(r[field])
}

// Float reads a numeric field, returning 0 for missing or false values.
func (r Record) Float(field string) float64 {
	switch v := r[field].(type) {
	case json.Number:
		f, err := v.Float64()
		if err != nil {
			return 0
		}
		return f
	case float64:
		return v
	case int64:
		return float64(v)
	case int:
		return float64(v)
	default:
		return 0
	}
}

// Has reports whether the field is present and not false/null.
func (r Record) Has(field string) bool {
	v, ok := r[field]
	if !ok || v == nil {
		return false
	}
	if b, isBool := v.(bool); isBool && !b {
		return false
	}
	return true
}

// String reads a text field; false and null become "".
func (r Record) String(field string) string {
	switch v := r[field].(type) {
	case string:
		return v
	case json.Number:
		return v.String()
	default:
		return ""
	}
}

// Bool reads a boolean field.
func (r Record) Bool(field string) bool {
	b, _ := r[field].(bool)
	return b
}

// Many2One reads a relational [id, name] pair.
func (r Record) Many2One(field string) Many2One {
	pair, ok := r[field].([]any)
	if !ok || len(pair) == 0 {
		return Many2One{}
	}
	ref := Many2One{ID: toInt64(pair[0])}
	if len(pair) > 1 {
		ref.Name, _ = pair[1].(string)
	}
	return ref
}

// IDs reads a one2many/many2many id list.
func (r Record) IDs(field string) []int64 {
	list, ok := r[field].([]any)
	if !ok {
		return nil
	}
	ids := make([]int64, 0, len(list))
	for _, item := range list {
		if id := toInt64(item); id > 0 {
			ids = append(ids, id)
		}
	}
	return ids
}

// Time parses a date or datetime field in UTC. Zero time means empty or unparseable.
func (r Record) Time(field string) time.Time {
	raw := strings.TrimSpace(r.String(field))
	if raw == "" {
		return time.Time{}
	}
	for _, layout := range []string{DatetimeLayout, DateLayout, time.RFC3339} {
		if t, err := time.ParseInLocation(layout, raw, time.UTC); err == nil {
			return t
		}
	}
	return time.Time{}
}

func toInt64(v any) int64 {
	switch val := v.(type) {
	case json.Number:
		if i, err := val.Int64(); err == nil {
			return i
		}
		f, err := val.Float64()
		if err != nil {
			return 0
		}
		return int64(f)
	case float64:
		return int64(val)
	case int64:
		return val
	case int:
		return int64(val)
	case string:
		i, err := strconv.ParseInt(val, 10, 64)
		if err != nil {
			return 0
		}
		return i
	default:
		return 0
	}
}
