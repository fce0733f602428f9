// Package domain defines the record model, transactional store contracts,
// typed tool errors and rule evaluation primitives shared by toolcore.
package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Collection names a namespaced set of records (e.g. "users", "sales_orders").
type Collection string

// TimestampLayout is the ISO-8601 UTC layout used for created_at/updated_at/issued_at fields.
const TimestampLayout = "2006-01-02T15:04:05Z"

// Conventional record fields with store-level significance.
const (
	FieldStatus    = "status"
	FieldCreatedAt = "created_at"
	FieldUpdatedAt = "updated_at"
	FieldIssuedAt  = "issued_at"
)

// Record is an open key/value entity as it appears in a dataset file.
type Record map[string]any

// Clone returns a deep copy of the record. Nested maps and slices decoded from
// JSON are copied so callers cannot mutate state held by the store.
func (r Record) Clone() Record {
	if r == nil {
		return nil
	}
	out := make(Record, len(r))
	for k, v := range r {
		out[k] = cloneValue(v)
	}
	return out
}

// String returns the field as a string, canonicalizing integral numbers.
func (r Record) String(field string) string {
	v, ok := r[field]
	if !ok || v == nil {
		return ""
	}
	if s, ok := CanonicalID(v); ok {
		return s
	}
	return fmt.Sprint(v)
}

// Status returns the conventional status field.
func (r Record) Status() string { return r.String(FieldStatus) }

func cloneValue(v any) any {
	switch t := v.(type) {
	case map[string]any:
		cp := make(map[string]any, len(t))
		for k, inner := range t {
			cp[k] = cloneValue(inner)
		}
		return cp
	case Record:
		return t.Clone()
	case []any:
		cp := make([]any, len(t))
		for i, inner := range t {
			cp[i] = cloneValue(inner)
		}
		return cp
	case []string:
		return append([]string(nil), t...)
	default:
		return v
	}
}

// Entry pairs a record with its id inside a collection.
type Entry struct {
	ID     string `json:"id"`
	Record Record `json:"record"`
}

// CollectionSpec declares a collection and the id policy used when minting keys.
type CollectionSpec struct {
	Name     Collection
	IDPolicy IDPolicy
}

// ID is a record identifier. Datasets encode ids both as bare integers and as
// strings; decoding accepts either and canonicalizes to the string form.
type ID string

// String returns the id as a plain string.
func (id ID) String() string { return string(id) }

// UnmarshalJSON accepts JSON strings and integral numbers.
func (id *ID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*id = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*id = ID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("id must be a string or integer: %w", err)
	}
	s, ok := canonicalNumber(n.String())
	if !ok {
		return fmt.Errorf("id %s is not an integer", n.String())
	}
	*id = ID(s)
	return nil
}

// CanonicalID converts an id value decoded from JSON into its canonical string
// form. Integral numbers are rendered without a fractional part.
func CanonicalID(v any) (string, bool) {
	switch t := v.(type) {
	case string:
		return t, true
	case ID:
		return string(t), true
	case float64:
		return integralFloat(t)
	case int:
		return strconv.Itoa(t), true
	case int64:
		return strconv.FormatInt(t, 10), true
	case json.Number:
		return canonicalNumber(t.String())
	default:
		return "", false
	}
}

func canonicalNumber(s string) (string, bool) {
	if i, err := strconv.ParseInt(s, 10, 64); err == nil {
		return strconv.FormatInt(i, 10), true
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return "", false
	}
	return integralFloat(f)
}

// integralFloat formats f as an integer id. Fractions and values outside the
// int64 range are rejected.
func integralFloat(f float64) (string, bool) {
	if f != math.Trunc(f) || f >= math.MaxInt64 || f < math.MinInt64 {
		return "", false
	}
	return strconv.FormatInt(int64(f), 10), true
}

// IsIDField reports whether a property name denotes an identifier.
func IsIDField(name string) bool {
	return name == "id" || strings.HasSuffix(name, "_id") || strings.HasSuffix(name, "_ids")
}
