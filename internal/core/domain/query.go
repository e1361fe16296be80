package domain

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// FilterOp is a comparison used in a query filter.
type FilterOp string

// Supported filter operators.
const (
	OpEqual    FilterOp = "=="
	OpNotEqual FilterOp = "!="
	OpIn       FilterOp = "in"
	OpExists   FilterOp = "exists"
)

// Filter is a single predicate on a dotted field path.
type Filter struct {
	Field string
	Op    FilterOp
	Value any
}

// Query selects records from one collection. The zero value selects everything.
type Query struct {
	// Filters are combined with AND.
	Filters []Filter

	// OrderBy is an optional dotted field path to sort by.
	OrderBy string

	// Descending reverses the sort.
	Descending bool

	// Limit caps the result size when positive.
	Limit int
}

// Where returns a copy of q with an equality filter appended.
func (q Query) Where(field string, value any) Query {
	q.Filters = append(append([]Filter(nil), q.Filters...), Filter{Field: field, Op: OpEqual, Value: value})
	return q
}

// Matches reports whether the record satisfies every filter.
func (q Query) Matches(r Record) bool {
	for _, f := range q.Filters {
		if !f.matches(r) {
			return false
		}
	}
	return true
}

// Apply filters, orders and limits records. Input order is preserved for
// records that compare equal; ids break ties when no order is requested.
func (q Query) Apply(records []StoredRecord) []StoredRecord {
	out := make([]StoredRecord, 0, len(records))
	for _, rec := range records {
		if q.Matches(rec.Data) {
			out = append(out, rec)
		}
	}

	sort.SliceStable(out, func(i, j int) bool {
		if q.OrderBy != "" {
			a, _ := out[i].Data.Lookup(q.OrderBy)
			b, _ := out[j].Data.Lookup(q.OrderBy)
			if c := compareValues(a, b); c != 0 {
				if q.Descending {
					return c > 0
				}
				return c < 0
			}
		}
		return out[i].ID < out[j].ID
	})

	if q.Limit > 0 && len(out) > q.Limit {
		out = out[:q.Limit]
	}
	return out
}

// EqualityFilters returns the field/value pairs of every == filter.
// Stores that can push equality down use this and evaluate the rest in memory.
func (q Query) EqualityFilters() map[string]any {
	eq := make(map[string]any)
	for _, f := range q.Filters {
		if f.Op == OpEqual {
			eq[f.Field] = f.Value
		}
	}
	return eq
}

// TextEqualities returns the == filters whose value is a string that can
// only equal a string field. Strings that read as numbers, booleans, null or
// containers also match non-string fields here, so they are left out.
func (q Query) TextEqualities() map[string]string {
	out := make(map[string]string)
	for field, value := range q.EqualityFilters() {
		if str, ok := value.(string); ok && textOnly(str) {
			out[field] = str
		}
	}
	return out
}

func textOnly(v string) bool {
	if _, err := strconv.ParseFloat(v, 64); err == nil {
		return false
	}
	switch v {
	case "true", "false", "<nil>":
		return false
	}
	return !strings.HasPrefix(v, "[") && !strings.HasPrefix(v, "map[")
}

func (f Filter) matches(r Record) bool {
	v, ok := r.Lookup(f.Field)
	switch f.Op {
	case OpExists:
		return ok && v != nil
	case OpEqual:
		return ok && valuesEqual(v, f.Value)
	case OpNotEqual:
		return !ok || !valuesEqual(v, f.Value)
	case OpIn:
		if !ok {
			return false
		}
		for _, candidate := range toSlice(f.Value) {
			if valuesEqual(v, candidate) {
				return true
			}
		}
		return false
	default:
		return false
	}
}

// ParseFilter parses "field=value", "field!=value" or "field" (exists).
func ParseFilter(expr string) (Filter, error) {
	expr = strings.TrimSpace(expr)
	if expr == "" {
		return Filter{}, fmt.Errorf("%w: empty filter", ErrInvalidInput)
	}
	if field, value, ok := strings.Cut(expr, "!="); ok {
		return Filter{Field: strings.TrimSpace(field), Op: OpNotEqual, Value: strings.TrimSpace(value)}, nil
	}
	if field, value, ok := strings.Cut(expr, "="); ok {
		field = strings.TrimSpace(field)
		if field == "" {
			return Filter{}, fmt.Errorf("%w: filter %q has no field", ErrInvalidInput, expr)
		}
		return Filter{Field: field, Op: OpEqual, Value: strings.TrimSpace(value)}, nil
	}
	return Filter{Field: expr, Op: OpExists}, nil
}

func toSlice(v any) []any {
	switch val := v.(type) {
	case []any:
		return val
	case []string:
		out := make([]any, len(val))
		for i := range val {
			out[i] = val[i]
		}
		return out
	default:
		return []any{v}
	}
}

func valuesEqual(a, b any) bool {
	if x, ok := AsNumber(a); ok {
		if y, ok := AsNumber(b); ok {
			return x == y
		}
	}
	return fmt.Sprint(a) == fmt.Sprint(b)
}

func compareValues(a, b any) int {
	if x, ok := AsNumber(a); ok {
		if y, ok := AsNumber(b); ok {
			switch {
			case x < y:
				return -1
			case x > y:
				return 1
			default:
				return 0
			}
		}
	}
	if x, ok := AsTime(a); ok {
		if y, ok := AsTime(b); ok {
			return x.Compare(y)
		}
	}
	if a == nil && b != nil {
		return -1
	}
	if a != nil && b == nil {
		return 1
	}
	return strings.Compare(fmt.Sprint(a), fmt.Sprint(b))
}
