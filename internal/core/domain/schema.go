package domain

import (
	"fmt"
	"slices"
	"time"
)

// Relation field names as they appear in stored records.
const (
	FieldDocRefs          = "docRefs"
	FieldParty            = "party"
	FieldState            = "state"
	FieldJurisdiction     = "jurisdiction"
	FieldFundraisingRound = "fundraisingRound"
	FieldStartDate        = "startDate"
	FieldEndDate          = "endDate"
	FieldSalary           = "salary"
	FieldInvestment       = "investment"
	FieldSharePrice       = "sharePrice"
	FieldValuation        = "valuation"
	FieldShares           = "shares"
	FieldPoolSize         = "poolSize"
)

// FieldKind is the value shape of a schema field.
type FieldKind int

// Field kinds.
const (
	FieldKindString FieldKind = iota
	FieldKindEnum
	FieldKindParty
	FieldKindDate
	FieldKindNumber
	FieldKindPrice

	// FieldKindUnion is a union discriminated on a tag key. Schemas using it
	// are rejected at registration.
	FieldKindUnion
)

var fieldOrder = []string{
	FieldParty, FieldState, FieldJurisdiction, FieldFundraisingRound,
	FieldStartDate, FieldEndDate, FieldSalary, FieldInvestment,
	FieldSharePrice, FieldValuation, FieldShares, FieldPoolSize,
}

var fieldCatalog = map[string]FieldKind{
	FieldParty:            FieldKindParty,
	FieldState:            FieldKindEnum,
	FieldJurisdiction:     FieldKindString,
	FieldFundraisingRound: FieldKindString,
	FieldStartDate:        FieldKindDate,
	FieldEndDate:          FieldKindDate,
	FieldSalary:           FieldKindPrice,
	FieldInvestment:       FieldKindPrice,
	FieldSharePrice:       FieldKindPrice,
	FieldValuation:        FieldKindPrice,
	FieldShares:           FieldKindNumber,
	FieldPoolSize:         FieldKindNumber,
}

// reservedKeys are output keys that roles and fields may not shadow.
var reservedKeys = []string{"id", FieldDocRefs, "docs", "isComplete", "isCurrent", "status"}

// Field declares one stored field of an entity.
type Field struct {
	Name     string
	Kind     FieldKind
	Required bool

	// Enum lists the allowed values of a FieldKindEnum field.
	Enum []string

	// Discriminator is the tag key of a FieldKindUnion field.
	Discriminator string
}

// Role maps a semantic role name to the document type that fills it.
type Role struct {
	Name    string
	DocType DocType
}

// Schema declares the stored shape of an entity and the roles its
// enrichment resolves.
type Schema struct {
	Entity Entity
	Fields []Field

	// Roles are in declaration order; the first is the primary document.
	Roles []Role

	// Enrich is false for entities stored and served without a transform.
	Enrich bool

	// Derived names fields that enrichment computes and storage never holds.
	Derived []string

	// Discriminator is set when the entity itself is a tagged union.
	Discriminator string
}

// Check verifies the schema can be validated and stripped losslessly.
func (s *Schema) Check() error {
	fail := func(format string, args ...any) error {
		return &ConfigurationError{Entity: string(s.Entity), Reason: fmt.Sprintf(format, args...)}
	}

	if s.Entity == "" {
		return fail("entity name is empty")
	}
	if s.Discriminator != "" {
		return fail("discriminated union on %q cannot have derived fields stripped", s.Discriminator)
	}
	if !s.Enrich && (len(s.Roles) > 0 || len(s.Derived) > 0) {
		return fail("roles and derived fields require enrichment")
	}

	seen := make(map[string]bool)
	for _, f := range s.Fields {
		if f.Kind == FieldKindUnion {
			return fail("field %q is a discriminated union on %q and cannot be stripped", f.Name, f.Discriminator)
		}
		kind, known := fieldCatalog[f.Name]
		if !known {
			return fail("unknown field %q", f.Name)
		}
		if kind != f.Kind {
			return fail("field %q declared with the wrong kind", f.Name)
		}
		if f.Kind == FieldKindEnum && len(f.Enum) == 0 {
			return fail("enum field %q has no values", f.Name)
		}
		if seen[f.Name] {
			return fail("duplicate field %q", f.Name)
		}
		seen[f.Name] = true
	}

	for _, name := range s.Derived {
		if _, known := fieldCatalog[name]; !known {
			return fail("unknown derived field %q", name)
		}
		if seen[name] {
			return fail("field %q is both stored and derived", name)
		}
		seen[name] = true
	}

	for _, r := range s.Roles {
		if !r.DocType.IsContentful() {
			return fail("role %q expects non-contentful type %q", r.Name, r.DocType)
		}
		if seen[r.Name] || slices.Contains(reservedKeys, r.Name) {
			return fail("role %q collides with another key", r.Name)
		}
		seen[r.Name] = true
	}
	return nil
}

// Field returns the declaration of a stored field.
func (s *Schema) Field(name string) (Field, bool) {
	for _, f := range s.Fields {
		if f.Name == name {
			return f, true
		}
	}
	return Field{}, false
}

// Validate checks a raw record against the stored shape and returns the
// typed relation. Unknown keys are dropped. The first violation is reported.
func (s *Schema) Validate(rec Record) (*Relation, error) {
	entity := string(s.Entity)
	r := &Relation{}

	refs, err := parseDocRefs(entity, rec[FieldDocRefs], true)
	if err != nil {
		return nil, err
	}
	r.DocRefs = refs

	for _, f := range s.Fields {
		raw, ok := rec[f.Name]
		if !ok || raw == nil {
			if f.Required {
				return nil, NewValidationError(entity, f.Name, "required")
			}
			continue
		}
		if err := r.decode(entity, f, raw); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// Encode returns the storage shape of the fields the schema declares.
func (s *Schema) Encode(r *Relation) Record {
	refs := make([]any, len(r.DocRefs))
	for i, ref := range r.DocRefs {
		refs[i] = string(ref)
	}
	rec := Record{FieldDocRefs: refs}
	for _, f := range s.Fields {
		if v, ok := r.value(f.Name, false); ok {
			rec[f.Name] = v
		}
	}
	return rec
}

// CoercePartial turns a patch written against the enriched shape into a
// deep-partial stored record: derived keys, role keys, unknown keys and
// rendered metadata parts are dropped, and what remains is validated.
func (s *Schema) CoercePartial(patch Record) (Record, error) {
	entity := string(s.Entity)
	out := Record{}
	for key, raw := range patch {
		if key == FieldDocRefs {
			refs, err := parseDocRefs(entity, raw, true)
			if err != nil {
				return nil, err
			}
			stored := make([]any, len(refs))
			for i, ref := range refs {
				stored[i] = string(ref)
			}
			out[key] = stored
			continue
		}

		f, ok := s.Field(key)
		if !ok {
			continue
		}
		if raw == nil {
			if f.Required {
				return nil, NewValidationError(entity, key, "required")
			}
			out[key] = nil
			continue
		}

		v, err := coercePartialField(entity, f, raw)
		if err != nil {
			return nil, err
		}
		out[key] = v
	}
	return out, nil
}

func coercePartialField(entity string, f Field, raw any) (any, error) {
	switch f.Kind {
	case FieldKindString, FieldKindEnum:
		return parseString(entity, f, raw)
	case FieldKindParty:
		m, ok := asMap(raw)
		if !ok {
			return nil, NewValidationError(entity, f.Name, "expected object")
		}
		out := map[string]any{}
		if name, ok := m["name"]; ok {
			s, ok := name.(string)
			if !ok {
				return nil, NewValidationError(entity, f.Name+".name", "expected string")
			}
			out["name"] = s
		}
		if email, ok := m["email"]; ok && email != nil {
			s, ok := email.(string)
			if !ok || !isEmail(s) {
				return nil, NewValidationError(entity, f.Name+".email", "invalid email")
			}
			out["email"] = s
		}
		return out, nil
	case FieldKindDate, FieldKindNumber, FieldKindPrice:
		return coercePartialMetadata(entity, f, raw)
	default:
		return nil, NewValidationError(entity, f.Name, "unsupported field kind")
	}
}

func coercePartialMetadata(entity string, f Field, raw any) (map[string]any, error) {
	m, ok := asMap(raw)
	if !ok {
		return nil, NewValidationError(entity, f.Name, "expected metadata object")
	}
	out := map[string]any{}
	if kind, ok := m["type"]; ok {
		s, ok := kind.(string)
		if !ok || !MetadataKind(s).IsValid() {
			return nil, NewValidationError(entity, f.Name+".type", "expected one of computed, edited, document")
		}
		out["type"] = s
	}
	if value, ok := m["value"]; ok {
		if f.Kind == FieldKindDate {
			t, ok := AsTime(value)
			if !ok {
				return nil, NewValidationError(entity, f.Name+".value", "malformed date")
			}
			out["value"] = FormatTime(t)
		} else {
			n, ok := AsNumber(value)
			if !ok {
				return nil, NewValidationError(entity, f.Name+".value", "expected number")
			}
			out["value"] = n
		}
	}
	if ref, ok := m["sourceRef"]; ok && ref != nil {
		s, ok := ref.(string)
		if !ok || !DocumentRef(s).IsValid() {
			return nil, NewValidationError(entity, f.Name+".sourceRef", "expected document reference")
		}
		out["sourceRef"] = s
	}
	return out, nil
}

func parseDocRefs(entity string, raw any, required bool) ([]DocumentRef, error) {
	if raw == nil {
		if required {
			return nil, NewValidationError(entity, FieldDocRefs, "required")
		}
		return nil, nil
	}
	var items []any
	switch v := raw.(type) {
	case []any:
		items = v
	case []string:
		for _, s := range v {
			items = append(items, s)
		}
	case []DocumentRef:
		for _, ref := range v {
			items = append(items, string(ref))
		}
	default:
		return nil, NewValidationError(entity, FieldDocRefs, "expected array")
	}

	refs := make([]DocumentRef, 0, len(items))
	for i, item := range items {
		s, ok := item.(string)
		if !ok || !DocumentRef(s).IsValid() {
			return nil, NewValidationError(entity, fmt.Sprintf("%s[%d]", FieldDocRefs, i), "expected document reference")
		}
		refs = append(refs, DocumentRef(s))
	}
	return refs, nil
}

func parseString(entity string, f Field, raw any) (string, error) {
	s, ok := raw.(string)
	if !ok {
		return "", NewValidationError(entity, f.Name, "expected string")
	}
	if s == "" {
		return "", NewValidationError(entity, f.Name, "must not be empty")
	}
	if f.Kind == FieldKindEnum && !slices.Contains(f.Enum, s) {
		return "", NewValidationError(entity, f.Name, fmt.Sprintf("expected one of %v", f.Enum))
	}
	return s, nil
}

func (r *Relation) decode(entity string, f Field, raw any) error {
	var err error
	switch f.Name {
	case FieldParty:
		r.Party, err = ParseParty(entity, f.Name, raw)
	case FieldState:
		r.State, err = parseString(entity, f, raw)
	case FieldJurisdiction:
		r.Jurisdiction, err = parseString(entity, f, raw)
	case FieldFundraisingRound:
		r.FundraisingRound, err = parseString(entity, f, raw)
	case FieldStartDate:
		r.StartDate, err = ParseMetadata[time.Time](entity, f.Name, raw)
	case FieldEndDate:
		r.EndDate, err = ParseMetadata[time.Time](entity, f.Name, raw)
	case FieldSalary:
		r.Salary, err = ParseMetadata[Price](entity, f.Name, raw)
	case FieldInvestment:
		r.Investment, err = ParseMetadata[Price](entity, f.Name, raw)
	case FieldSharePrice:
		r.SharePrice, err = ParseMetadata[Price](entity, f.Name, raw)
	case FieldValuation:
		r.Valuation, err = ParseMetadata[Price](entity, f.Name, raw)
	case FieldShares:
		r.Shares, err = ParseMetadata[Number](entity, f.Name, raw)
	case FieldPoolSize:
		r.PoolSize, err = ParseMetadata[Number](entity, f.Name, raw)
	default:
		err = NewValidationError(entity, f.Name, "unknown field")
	}
	return err
}

// value returns a field in storage shape, or in output shape when output
// is set. ok is false when the field is unset.
func (r *Relation) value(name string, output bool) (any, bool) {
	switch name {
	case FieldParty:
		if r.Party == nil {
			return nil, false
		}
		if output {
			return r.Party, true
		}
		return r.Party.record(), true
	case FieldState:
		return r.State, r.State != ""
	case FieldJurisdiction:
		return r.Jurisdiction, r.Jurisdiction != ""
	case FieldFundraisingRound:
		return r.FundraisingRound, r.FundraisingRound != ""
	case FieldStartDate:
		return metadataValue(r.StartDate, output)
	case FieldEndDate:
		return metadataValue(r.EndDate, output)
	case FieldSalary:
		return metadataValue(r.Salary, output)
	case FieldInvestment:
		return metadataValue(r.Investment, output)
	case FieldSharePrice:
		return metadataValue(r.SharePrice, output)
	case FieldValuation:
		return metadataValue(r.Valuation, output)
	case FieldShares:
		return metadataValue(r.Shares, output)
	case FieldPoolSize:
		return metadataValue(r.PoolSize, output)
	default:
		return nil, false
	}
}

func metadataValue[T MetadataValue](m *Metadata[T], output bool) (any, bool) {
	if m == nil {
		return nil, false
	}
	if output {
		return m, true
	}
	return m.Record(), true
}
