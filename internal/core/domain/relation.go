package domain

import (
	"encoding/json"
	"time"
)

// Entity names a relation type. It doubles as the collection name.
type Entity string

// Relation entities.
const (
	EntityState       Entity = "state"
	EntityLocal       Entity = "local"
	EntityEmployee    Entity = "employee"
	EntityOfficer     Entity = "officer"
	EntityDirector    Entity = "director"
	EntityAdvisor     Entity = "advisor"
	EntityContractor  Entity = "contractor"
	EntityCommon      Entity = "common"
	EntityOption      Entity = "option"
	EntitySafe        Entity = "safe"
	EntityPreferred   Entity = "preferred"
	EntityOptionPlan  Entity = "optionPlan"
	EntityFundraising Entity = "fundraising"
	EntityValuation   Entity = "valuation"
)

// String returns the entity name.
func (e Entity) String() string {
	return string(e)
}

// Status is the derived validity of a relation.
type Status string

// Relation statuses.
const (
	// StatusCurrent means every slot is filled and the relation is in force.
	StatusCurrent Status = "Current"

	// StatusOutdated means every slot is filled but the relation is not in force.
	StatusOutdated Status = "Outdated"

	// StatusIncomplete means at least one required document is missing.
	StatusIncomplete Status = "Incomplete"
)

// Relation is the stored shape of a business entity. It is a union of the
// fields every entity may use; the entity schema decides which are allowed.
type Relation struct {
	// ID is the record identifier. It is not part of the stored data.
	ID string

	DocRefs          []DocumentRef
	Party            *Party
	State            string
	Jurisdiction     string
	FundraisingRound string
	StartDate        *MetadataDate
	EndDate          *MetadataDate
	Salary           *MetadataPrice
	Investment       *MetadataPrice
	SharePrice       *MetadataPrice
	Valuation        *MetadataPrice
	Shares           *MetadataNumber
	PoolSize         *MetadataNumber
}

// Clone returns a copy that shares no mutable state with r.
func (r *Relation) Clone() *Relation {
	out := *r
	out.DocRefs = append([]DocumentRef(nil), r.DocRefs...)
	if r.Party != nil {
		p := *r.Party
		out.Party = &p
	}
	out.StartDate = cloneMetadata(r.StartDate)
	out.EndDate = cloneMetadata(r.EndDate)
	out.Salary = cloneMetadata(r.Salary)
	out.Investment = cloneMetadata(r.Investment)
	out.SharePrice = cloneMetadata(r.SharePrice)
	out.Valuation = cloneMetadata(r.Valuation)
	out.Shares = cloneMetadata(r.Shares)
	out.PoolSize = cloneMetadata(r.PoolSize)
	return &out
}

// StripSources clears every resolved metadata source.
func (r *Relation) StripSources() {
	r.StartDate = stripMetadata(r.StartDate)
	r.EndDate = stripMetadata(r.EndDate)
	r.Salary = stripMetadata(r.Salary)
	r.Investment = stripMetadata(r.Investment)
	r.SharePrice = stripMetadata(r.SharePrice)
	r.Valuation = stripMetadata(r.Valuation)
	r.Shares = stripMetadata(r.Shares)
	r.PoolSize = stripMetadata(r.PoolSize)
}

// IsCurrent reports whether now is inside the relation's window: the start
// is inclusive and the end exclusive. Absent bounds are open.
func (r *Relation) IsCurrent(now time.Time) bool {
	if r.StartDate != nil && r.StartDate.Value.After(now) {
		return false
	}
	if r.EndDate != nil && !r.EndDate.Value.After(now) {
		return false
	}
	return true
}

// Slot is one declared role of a relation. Doc is nil when no resolved
// document has the expected type.
type Slot struct {
	Role    string
	DocType DocType
	Doc     *Document
}

// IsMissing reports whether the slot is unfilled.
func (s Slot) IsMissing() bool {
	return s.Doc == nil
}

// MarshalJSON renders a filled slot as its document and an empty slot as
// the missing sentinel.
func (s Slot) MarshalJSON() ([]byte, error) {
	if s.Doc != nil {
		return json.Marshal(s.Doc)
	}
	return json.Marshal(struct {
		Type    string  `json:"type"`
		DocType DocType `json:"docType"`
	}{Type: "MISSING", DocType: s.DocType})
}

// EnrichedRelation is the derived view of a relation. Nothing beyond the
// embedded Relation is ever persisted.
type EnrichedRelation struct {
	Relation

	// Entity is the schema the relation was validated against.
	Entity Entity

	// Enriched is false for entities without an enrichment transform; the
	// derived fields below are then empty.
	Enriched bool

	// Docs holds the resolved references in reference order; unresolved
	// references are nil.
	Docs []*Document

	IsComplete bool
	IsCurrent  bool
	Status     Status

	// Slots are in role declaration order.
	Slots []Slot
}

// Slot returns the slot for a role.
func (e *EnrichedRelation) Slot(role string) (Slot, bool) {
	for _, s := range e.Slots {
		if s.Role == role {
			return s, true
		}
	}
	return Slot{}, false
}

// MissingSlots returns the unfilled slots.
func (e *EnrichedRelation) MissingSlots() []Slot {
	var missing []Slot
	for _, s := range e.Slots {
		if s.IsMissing() {
			missing = append(missing, s)
		}
	}
	return missing
}

// MarshalJSON renders the relation fields followed by the derived fields,
// with one key per role.
func (e EnrichedRelation) MarshalJSON() ([]byte, error) {
	out := e.Relation.outputFields()
	if e.ID != "" {
		out["id"] = e.ID
	}
	if e.Enriched {
		out["docs"] = e.Docs
		out["isComplete"] = e.IsComplete
		out["isCurrent"] = e.IsCurrent
		out["status"] = e.Status
		for _, s := range e.Slots {
			out[s.Role] = s
		}
	}
	return json.Marshal(out)
}

func (r *Relation) outputFields() map[string]any {
	out := map[string]any{}
	refs := make([]string, len(r.DocRefs))
	for i, ref := range r.DocRefs {
		refs[i] = string(ref)
	}
	out[FieldDocRefs] = refs
	for _, name := range fieldOrder {
		if v, ok := r.value(name, true); ok {
			out[name] = v
		}
	}
	return out
}

func cloneMetadata[T MetadataValue](m *Metadata[T]) *Metadata[T] {
	if m == nil {
		return nil
	}
	c := *m
	return &c
}

func stripMetadata[T MetadataValue](m *Metadata[T]) *Metadata[T] {
	if m == nil {
		return nil
	}
	return m.Stripped()
}
