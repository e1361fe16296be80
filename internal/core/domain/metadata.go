package domain

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// MetadataKind records where a metadata value came from.
type MetadataKind string

// Metadata kinds.
const (
	// MetadataComputed is derived by the system.
	MetadataComputed MetadataKind = "computed"

	// MetadataEdited was entered by a user.
	MetadataEdited MetadataKind = "edited"

	// MetadataDocument was extracted from a source document.
	MetadataDocument MetadataKind = "document"
)

// IsValid returns true if the kind is recognised.
func (k MetadataKind) IsValid() bool {
	switch k {
	case MetadataComputed, MetadataEdited, MetadataDocument:
		return true
	default:
		return false
	}
}

// Number is a plain quantity such as a share count.
type Number float64

// Price is a monetary amount in dollars.
type Price float64

// MetadataValue constrains the values a Metadata can wrap.
type MetadataValue interface {
	time.Time | Number | Price
}

// Metadata wraps a value with its provenance. The display string is always
// rendered from Value, so the two cannot disagree.
type Metadata[T MetadataValue] struct {
	// Value is the wrapped value.
	Value T

	// Kind is the provenance tag.
	Kind MetadataKind

	// SourceRef points at the provenance document when Kind is MetadataDocument.
	SourceRef DocumentRef

	// Source is SourceRef resolved during enrichment. It is never stored.
	Source *Document
}

// Metadata instantiations used by relation fields.
type (
	MetadataDate   = Metadata[time.Time]
	MetadataNumber = Metadata[Number]
	MetadataPrice  = Metadata[Price]
)

// Edited wraps a user-entered value.
func Edited[T MetadataValue](v T) *Metadata[T] {
	return &Metadata[T]{Value: v, Kind: MetadataEdited}
}

// Computed wraps a system-derived value.
func Computed[T MetadataValue](v T) *Metadata[T] {
	return &Metadata[T]{Value: v, Kind: MetadataComputed}
}

// FromDocument wraps a value extracted from the referenced document.
func FromDocument[T MetadataValue](v T, ref DocumentRef) *Metadata[T] {
	return &Metadata[T]{Value: v, Kind: MetadataDocument, SourceRef: ref}
}

// String renders the value for display: dates as M/D/YYYY (UTC), numbers
// grouped with up to three decimals, prices as dollars with two decimals.
func (m Metadata[T]) String() string {
	switch v := any(m.Value).(type) {
	case time.Time:
		return v.UTC().Format("1/2/2006")
	case Number:
		rounded := math.Round(float64(v)*1000) / 1000
		return groupThousands(strconv.FormatFloat(rounded, 'f', -1, 64))
	case Price:
		return "$" + groupThousands(strconv.FormatFloat(float64(v), 'f', 2, 64))
	default:
		return fmt.Sprint(v)
	}
}

// Stripped returns a copy without the resolved source.
func (m Metadata[T]) Stripped() *Metadata[T] {
	m.Source = nil
	return &m
}

// Record returns the storage shape: value, type and, for document-sourced
// values, the source reference.
func (m Metadata[T]) Record() map[string]any {
	rec := map[string]any{
		"value": m.storedValue(),
		"type":  string(m.Kind),
	}
	if m.Kind == MetadataDocument {
		rec["sourceRef"] = string(m.SourceRef)
	}
	return rec
}

// MarshalJSON renders the enriched shape including the display string and
// any resolved source.
func (m Metadata[T]) MarshalJSON() ([]byte, error) {
	out := struct {
		Value     any          `json:"value"`
		Kind      MetadataKind `json:"type"`
		SourceRef DocumentRef  `json:"sourceRef,omitempty"`
		Source    *Document    `json:"source,omitempty"`
		String    string       `json:"string"`
	}{
		Value:     m.storedValue(),
		Kind:      m.Kind,
		SourceRef: m.SourceRef,
		Source:    m.Source,
		String:    m.String(),
	}
	return json.Marshal(out)
}

func (m Metadata[T]) storedValue() any {
	switch v := any(m.Value).(type) {
	case time.Time:
		return FormatTime(v)
	case Number:
		return float64(v)
	case Price:
		return float64(v)
	default:
		return v
	}
}

// ParseMetadata validates a stored metadata object for entity.field.
func ParseMetadata[T MetadataValue](entity, field string, raw any) (*Metadata[T], error) {
	obj, ok := asMap(raw)
	if !ok {
		return nil, NewValidationError(entity, field, "expected metadata object")
	}

	kindRaw, ok := obj["type"].(string)
	if !ok || !MetadataKind(kindRaw).IsValid() {
		return nil, NewValidationError(entity, field+".type", "expected one of computed, edited, document")
	}

	rawValue, ok := obj["value"]
	if !ok {
		return nil, NewValidationError(entity, field+".value", "required")
	}
	value, err := parseMetadataValue[T](entity, field+".value", rawValue)
	if err != nil {
		return nil, err
	}

	m := &Metadata[T]{Value: value, Kind: MetadataKind(kindRaw)}
	if m.Kind == MetadataDocument {
		ref, ok := obj["sourceRef"].(string)
		if !ok || !DocumentRef(ref).IsValid() {
			return nil, NewValidationError(entity, field+".sourceRef", "expected document reference")
		}
		m.SourceRef = DocumentRef(ref)
	}
	return m, nil
}

func parseMetadataValue[T MetadataValue](entity, field string, raw any) (T, error) {
	var zero T
	switch any(zero).(type) {
	case time.Time:
		t, ok := AsTime(raw)
		if !ok {
			return zero, NewValidationError(entity, field, "malformed date")
		}
		return any(t).(T), nil
	case Number:
		n, ok := AsNumber(raw)
		if !ok {
			return zero, NewValidationError(entity, field, "expected number")
		}
		return any(Number(n)).(T), nil
	case Price:
		n, ok := AsNumber(raw)
		if !ok {
			return zero, NewValidationError(entity, field, "expected number")
		}
		return any(Price(n)).(T), nil
	default:
		return zero, NewValidationError(entity, field, "unsupported metadata value")
	}
}

// groupThousands inserts commas into the integer part of a decimal string.
func groupThousands(s string) string {
	sign := ""
	if strings.HasPrefix(s, "-") {
		sign, s = "-", s[1:]
	}
	intPart, frac, hasFrac := strings.Cut(s, ".")

	var b strings.Builder
	for i, r := range intPart {
		if i > 0 && (len(intPart)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(r)
	}
	if hasFrac {
		b.WriteByte('.')
		b.WriteString(frac)
	}
	return sign + b.String()
}
