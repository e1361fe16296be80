package domain

import (
	"strings"
	"time"
)

// Record is a raw stored record as exchanged with a document store.
// Values are JSON-compatible: strings, float64, bool, nil, []any and
// map[string]any. Stores may also hand back time.Time values.
type Record map[string]any

// StoredRecord pairs a record with its identifier inside a collection.
type StoredRecord struct {
	ID   string
	Data Record
}

// DocumentRef is a slash-separated path to a stored record,
// "<collection path>/<id>".
type DocumentRef string

// NewDocumentRef joins a collection path and an id into a reference.
func NewDocumentRef(collection, id string) DocumentRef {
	return DocumentRef(strings.TrimSuffix(collection, "/") + "/" + id)
}

// Collection returns the collection path portion of the reference.
func (r DocumentRef) Collection() string {
	i := strings.LastIndex(string(r), "/")
	if i < 0 {
		return ""
	}
	return string(r[:i])
}

// ID returns the final path segment.
func (r DocumentRef) ID() string {
	i := strings.LastIndex(string(r), "/")
	return string(r[i+1:])
}

// IsValid reports whether both the collection and the id are non-empty.
func (r DocumentRef) IsValid() bool {
	return r.Collection() != "" && r.ID() != ""
}

// String returns the path.
func (r DocumentRef) String() string {
	return string(r)
}

// OrgCollection returns the collection path of an entity inside an organisation.
func OrgCollection(org, name string) string {
	return "org/" + org + "/" + name
}

// Clone returns a deep copy of the record.
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

func cloneValue(v any) any {
	switch val := v.(type) {
	case Record:
		return val.Clone()
	case map[string]any:
		return map[string]any(Record(val).Clone())
	case []any:
		out := make([]any, len(val))
		for i := range val {
			out[i] = cloneValue(val[i])
		}
		return out
	case []string:
		return append([]string(nil), val...)
	default:
		return v
	}
}

// Merge applies patch onto r. Nested maps merge recursively; every other
// value, including slices, replaces what was there.
func (r Record) Merge(patch Record) {
	for k, v := range patch {
		incoming, isMap := asMap(v)
		if !isMap {
			r[k] = cloneValue(v)
			continue
		}
		existing, ok := asMap(r[k])
		if !ok {
			r[k] = map[string]any(Record(incoming).Clone())
			continue
		}
		merged := Record(existing).Clone()
		merged.Merge(incoming)
		r[k] = map[string]any(merged)
	}
}

// Lookup resolves a dotted field path such as "party.name".
func (r Record) Lookup(path string) (any, bool) {
	var current any = map[string]any(r)
	for _, part := range strings.Split(path, ".") {
		m, ok := asMap(current)
		if !ok {
			return nil, false
		}
		current, ok = m[part]
		if !ok {
			return nil, false
		}
	}
	return current, true
}

func asMap(v any) (map[string]any, bool) {
	switch val := v.(type) {
	case Record:
		return val, true
	case map[string]any:
		return val, true
	default:
		return nil, false
	}
}

// AsTime converts a stored date value. Stores persist dates as RFC 3339
// strings; in-process stores may keep time.Time.
func AsTime(v any) (time.Time, bool) {
	switch val := v.(type) {
	case time.Time:
		return val, true
	case *time.Time:
		if val == nil {
			return time.Time{}, false
		}
		return *val, true
	case string:
		t, err := time.Parse(time.RFC3339Nano, val)
		if err != nil {
			return time.Time{}, false
		}
		return t, true
	default:
		return time.Time{}, false
	}
}

// AsNumber converts a stored numeric value.
func AsNumber(v any) (float64, bool) {
	switch val := v.(type) {
	case float64:
		return val, true
	case float32:
		return float64(val), true
	case int:
		return float64(val), true
	case int32:
		return float64(val), true
	case int64:
		return float64(val), true
	default:
		return 0, false
	}
}

// FormatTime renders a date the way stores persist it.
func FormatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}
