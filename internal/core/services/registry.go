package services

import (
	"fmt"

	"github.com/custodia-labs/charterbook/internal/core/domain"
)

// DeriveFunc computes derived fields of a relation in place. It runs after
// validation and before currency is evaluated.
type DeriveFunc func(r *domain.Relation)

// Definition registers an entity schema together with its derivation step.
type Definition struct {
	Schema *domain.Schema
	Derive DeriveFunc
}

// Registry holds the schema of every known entity.
type Registry struct {
	order       []domain.Entity
	definitions map[domain.Entity]Definition
}

// NewRegistry checks and registers definitions. Any unusable schema or a
// duplicate entity fails the whole registry.
func NewRegistry(defs ...Definition) (*Registry, error) {
	r := &Registry{definitions: make(map[domain.Entity]Definition, len(defs))}
	for _, def := range defs {
		if def.Schema == nil {
			return nil, &domain.ConfigurationError{Reason: "nil schema"}
		}
		if err := def.Schema.Check(); err != nil {
			return nil, err
		}
		if def.Derive != nil && len(def.Schema.Derived) == 0 {
			return nil, &domain.ConfigurationError{
				Entity: string(def.Schema.Entity),
				Reason: "derivation declared without derived fields",
			}
		}
		if _, dup := r.definitions[def.Schema.Entity]; dup {
			return nil, &domain.ConfigurationError{
				Entity: string(def.Schema.Entity),
				Reason: "entity registered twice",
			}
		}
		r.order = append(r.order, def.Schema.Entity)
		r.definitions[def.Schema.Entity] = def
	}
	return r, nil
}

// MustDefaultRegistry returns the registry of built-in entities. It panics
// if a built-in schema is unusable, which is a programming error.
func MustDefaultRegistry() *Registry {
	r, err := NewRegistry(DefaultDefinitions()...)
	if err != nil {
		panic(fmt.Sprintf("default schemas: %v", err))
	}
	return r
}

// Entities lists the registered entities in registration order.
func (r *Registry) Entities() []domain.Entity {
	return append([]domain.Entity(nil), r.order...)
}

// Lookup returns the definition of an entity.
func (r *Registry) Lookup(entity domain.Entity) (Definition, error) {
	def, ok := r.definitions[entity]
	if !ok {
		return Definition{}, fmt.Errorf("%w: %s", domain.ErrUnknownEntity, entity)
	}
	return def, nil
}

// ToStorageShape strips everything enrichment added, so that
// ToStorageShape(enrich(x)) equals x.
func (r *Registry) ToStorageShape(e *domain.EnrichedRelation) (domain.Record, error) {
	def, err := r.Lookup(e.Entity)
	if err != nil {
		return nil, err
	}
	stored := e.Relation.Clone()
	stored.StripSources()
	for _, name := range def.Schema.Derived {
		clearField(stored, name)
	}
	return def.Schema.Encode(stored), nil
}

func clearField(r *domain.Relation, name string) {
	switch name {
	case domain.FieldParty:
		r.Party = nil
	case domain.FieldState:
		r.State = ""
	case domain.FieldJurisdiction:
		r.Jurisdiction = ""
	case domain.FieldFundraisingRound:
		r.FundraisingRound = ""
	case domain.FieldStartDate:
		r.StartDate = nil
	case domain.FieldEndDate:
		r.EndDate = nil
	case domain.FieldSalary:
		r.Salary = nil
	case domain.FieldInvestment:
		r.Investment = nil
	case domain.FieldSharePrice:
		r.SharePrice = nil
	case domain.FieldValuation:
		r.Valuation = nil
	case domain.FieldShares:
		r.Shares = nil
	case domain.FieldPoolSize:
		r.PoolSize = nil
	}
}
