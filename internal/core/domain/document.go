package domain

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// DocumentCollection is the entity name under which documents are stored.
const DocumentCollection = "doc"

// Party is the counterparty named on a document or relation.
type Party struct {
	Name  string `json:"name"`
	Email string `json:"email,omitempty"`
}

// Property is an ordered key/value pair extracted from a document.
type Property struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

// Document represents a single stored legal document.
// Exactly one of the contentful or contentless shapes holds, chosen by Type:
// contentless documents only carry Type.
type Document struct {
	// ID is the record identifier inside the document collection.
	ID string

	// Ref is the full reference the document was resolved from.
	Ref DocumentRef

	// Type determines the shape of the document.
	Type DocType

	// Party is the optional counterparty.
	Party *Party

	// StartDate is required for contentful documents.
	StartDate time.Time

	// EndDate is the optional expiry.
	EndDate *time.Time

	// Group is the optional version lineage key.
	Group string

	// Properties are extracted key/value pairs in document order.
	Properties []Property
}

// IsContentful reports whether the document carries party, dates and properties.
func (d *Document) IsContentful() bool {
	return d.Type.IsContentful()
}

// IsCurrent reports whether now falls inside [StartDate, EndDate).
// Contentless documents are never current.
func (d *Document) IsCurrent(now time.Time) bool {
	if !d.IsContentful() {
		return false
	}
	return !now.Before(d.StartDate) && (d.EndDate == nil || now.Before(*d.EndDate))
}

// State classifies a contentful document relative to now.
func (d *Document) State(isLatest bool, now time.Time) DocState {
	switch {
	case d.IsCurrent(now):
		return DocStateActive
	case isLatest:
		return DocStateOutdated
	default:
		return DocStateInactive
	}
}

// Record returns the storage shape of the document.
func (d *Document) Record() Record {
	rec := Record{"type": string(d.Type)}
	if !d.IsContentful() {
		return rec
	}
	if d.Party != nil {
		rec["party"] = d.Party.record()
	}
	rec["startDate"] = FormatTime(d.StartDate)
	if d.EndDate != nil {
		rec["endDate"] = FormatTime(*d.EndDate)
	}
	if d.Group != "" {
		rec["group"] = d.Group
	}
	if d.Properties != nil {
		props := make([]any, len(d.Properties))
		for i, p := range d.Properties {
			props[i] = map[string]any{"key": p.Key, "value": p.Value}
		}
		rec["properties"] = props
	}
	return rec
}

// MarshalJSON renders the document in the shape matching its type.
func (d Document) MarshalJSON() ([]byte, error) {
	type contentless struct {
		ID   string      `json:"id,omitempty"`
		Ref  DocumentRef `json:"ref,omitempty"`
		Type DocType     `json:"type"`
	}
	type contentful struct {
		ID         string      `json:"id,omitempty"`
		Ref        DocumentRef `json:"ref,omitempty"`
		Type       DocType     `json:"type"`
		Party      *Party      `json:"party,omitempty"`
		StartDate  time.Time   `json:"startDate"`
		EndDate    *time.Time  `json:"endDate,omitempty"`
		Group      string      `json:"group,omitempty"`
		Properties []Property  `json:"properties,omitempty"`
	}
	if !d.IsContentful() {
		return json.Marshal(contentless{ID: d.ID, Ref: d.Ref, Type: d.Type})
	}
	return json.Marshal(contentful{
		ID:         d.ID,
		Ref:        d.Ref,
		Type:       d.Type,
		Party:      d.Party,
		StartDate:  d.StartDate,
		EndDate:    d.EndDate,
		Group:      d.Group,
		Properties: d.Properties,
	})
}

// ParseDocument validates a raw record against the document shape.
// Contentless records are normalised: anything besides the type is dropped.
func ParseDocument(r Record) (*Document, error) {
	rawType, ok := r["type"].(string)
	if !ok {
		return nil, NewValidationError(DocumentCollection, "type", "expected string")
	}
	docType := DocType(rawType)
	if !docType.IsValid() {
		return nil, NewValidationError(DocumentCollection, "type", fmt.Sprintf("unknown document type %q", rawType))
	}

	doc := &Document{Type: docType}
	if !docType.IsContentful() {
		return doc, nil
	}

	start, present, err := parseDateField(DocumentCollection, "startDate", r)
	if err != nil {
		return nil, err
	}
	if !present {
		return nil, NewValidationError(DocumentCollection, "startDate", "required")
	}
	doc.StartDate = start

	end, present, err := parseDateField(DocumentCollection, "endDate", r)
	if err != nil {
		return nil, err
	}
	if present {
		doc.EndDate = &end
	}

	if raw, ok := r["party"]; ok && raw != nil {
		party, err := ParseParty(DocumentCollection, "party", raw)
		if err != nil {
			return nil, err
		}
		doc.Party = party
	}

	if raw, ok := r["group"]; ok && raw != nil {
		group, ok := raw.(string)
		if !ok {
			return nil, NewValidationError(DocumentCollection, "group", "expected string")
		}
		doc.Group = group
	}

	if raw, ok := r["properties"]; ok && raw != nil {
		props, err := parseProperties(raw)
		if err != nil {
			return nil, err
		}
		doc.Properties = props
	}

	return doc, nil
}

// ParseParty validates a party object.
func ParseParty(entity, field string, raw any) (*Party, error) {
	m, ok := asMap(raw)
	if !ok {
		return nil, NewValidationError(entity, field, "expected object")
	}
	name, ok := m["name"].(string)
	if !ok {
		return nil, NewValidationError(entity, field+".name", "expected string")
	}
	party := &Party{Name: name}
	if rawEmail, ok := m["email"]; ok && rawEmail != nil {
		email, ok := rawEmail.(string)
		if !ok {
			return nil, NewValidationError(entity, field+".email", "expected string")
		}
		if !isEmail(email) {
			return nil, NewValidationError(entity, field+".email", "invalid email")
		}
		party.Email = email
	}
	return party, nil
}

func (p *Party) record() map[string]any {
	rec := map[string]any{"name": p.Name}
	if p.Email != "" {
		rec["email"] = p.Email
	}
	return rec
}

func parseProperties(raw any) ([]Property, error) {
	items, ok := raw.([]any)
	if !ok {
		return nil, NewValidationError(DocumentCollection, "properties", "expected array")
	}
	props := make([]Property, 0, len(items))
	for i, item := range items {
		m, ok := asMap(item)
		if !ok {
			return nil, NewValidationError(DocumentCollection, fmt.Sprintf("properties[%d]", i), "expected object")
		}
		key, keyOK := m["key"].(string)
		value, valueOK := m["value"].(string)
		if !keyOK || !valueOK {
			return nil, NewValidationError(DocumentCollection, fmt.Sprintf("properties[%d]", i), "expected string key and value")
		}
		props = append(props, Property{Key: key, Value: value})
	}
	return props, nil
}

// parseDateField reads an optional date. present is false when the key is
// absent or null.
func parseDateField(entity, field string, r Record) (time.Time, bool, error) {
	raw, ok := r[field]
	if !ok || raw == nil {
		return time.Time{}, false, nil
	}
	t, ok := AsTime(raw)
	if !ok {
		return time.Time{}, false, NewValidationError(entity, field, "malformed date")
	}
	return t, true, nil
}

func isEmail(s string) bool {
	local, domain, ok := strings.Cut(s, "@")
	if !ok || local == "" || domain == "" {
		return false
	}
	if strings.ContainsAny(s, " \t\r\n") || strings.Contains(domain, "@") {
		return false
	}
	dot := strings.LastIndex(domain, ".")
	return dot > 0 && dot < len(domain)-1
}
