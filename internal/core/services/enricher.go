package services

import (
	"context"
	"fmt"
	"sort"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/custodia-labs/charterbook/internal/core/domain"
	"github.com/custodia-labs/charterbook/internal/core/ports/driven"
)

// Enricher validates stored relations and attaches their documents,
// completeness and status.
type Enricher struct {
	registry     *Registry
	resolver     *Resolver
	preferLatest bool
	observer     driven.Observer
	now          func() time.Time
}

// NewEnricher creates an enricher. observer may be nil.
func NewEnricher(registry *Registry, resolver *Resolver, settings domain.EnrichmentSettings, observer driven.Observer) *Enricher {
	return &Enricher{
		registry:     registry,
		resolver:     resolver,
		preferLatest: settings.PreferLatestSlot,
		observer:     observerOrNop(observer),
		now:          time.Now,
	}
}

// SetClock replaces the wall clock used to evaluate currency.
func (e *Enricher) SetClock(now func() time.Time) {
	e.now = now
}

// NewPass starts a resolution pass. Relations enriched with the same loader
// share its fetches.
func (e *Enricher) NewPass() *Loader {
	return e.resolver.NewLoader()
}

// Enrich validates a stored record and derives its enriched view. Any
// resolution failure fails the whole relation.
func (e *Enricher) Enrich(ctx context.Context, loader *Loader, entity domain.Entity, id string, raw domain.Record) (*domain.EnrichedRelation, error) {
	def, err := e.registry.Lookup(entity)
	if err != nil {
		return nil, err
	}

	rel, err := def.Schema.Validate(raw)
	if err != nil {
		return nil, err
	}
	rel.ID = id
	if def.Derive != nil {
		def.Derive(rel)
	}

	out := &domain.EnrichedRelation{Relation: *rel, Entity: entity}
	if !def.Schema.Enrich {
		return out, nil
	}

	ctx, span := tracer.Start(ctx, "relation.enrich", trace.WithAttributes(
		attribute.String("entity", string(entity)),
		attribute.String("id", id),
		attribute.Int("refs", len(rel.DocRefs)),
	))
	defer span.End()
	started := time.Now()

	if err := e.resolve(ctx, loader, out); err != nil {
		span.RecordError(err)
		e.observer.EnrichmentFailed(entity, err)
		return nil, fmt.Errorf("enrich %s %s: %w", entity, id, err)
	}

	out.Enriched = true
	out.Slots = e.fillSlots(def.Schema.Roles, out.Docs)
	out.IsComplete = len(out.MissingSlots()) == 0
	out.IsCurrent = out.Relation.IsCurrent(e.now())
	out.Status = statusOf(out.IsComplete, out.IsCurrent)

	span.SetAttributes(attribute.String("status", string(out.Status)))
	e.observer.RelationEnriched(entity, out.Status, time.Since(started))
	return out, nil
}

// resolve loads the referenced documents and every metadata source in one
// batch.
func (e *Enricher) resolve(ctx context.Context, loader *Loader, out *domain.EnrichedRelation) error {
	sources := metadataSources(&out.Relation)

	refs := make([]domain.DocumentRef, 0, len(out.DocRefs)+len(sources))
	refs = append(refs, out.DocRefs...)
	for _, s := range sources {
		refs = append(refs, s.ref)
	}

	docs, err := loader.ResolveMany(ctx, refs)
	if err != nil {
		return err
	}

	out.Docs = docs[:len(out.DocRefs):len(out.DocRefs)]
	for i, s := range sources {
		s.set(docs[len(out.DocRefs)+i])
	}
	return nil
}

// fillSlots assigns each role the first resolved document of its type, or
// the most recent one when preferLatest is set.
func (e *Enricher) fillSlots(roles []domain.Role, docs []*domain.Document) []domain.Slot {
	candidates := make([]*domain.Document, 0, len(docs))
	for _, d := range docs {
		if d != nil {
			candidates = append(candidates, d)
		}
	}
	if e.preferLatest {
		sort.SliceStable(candidates, func(i, j int) bool {
			return candidates[i].StartDate.After(candidates[j].StartDate)
		})
	}

	slots := make([]domain.Slot, len(roles))
	for i, role := range roles {
		slots[i] = domain.Slot{Role: role.Name, DocType: role.DocType}
		for _, d := range candidates {
			if d.Type == role.DocType {
				slots[i].Doc = d
				break
			}
		}
	}
	return slots
}

func statusOf(complete, current bool) domain.Status {
	switch {
	case !complete:
		return domain.StatusIncomplete
	case current:
		return domain.StatusCurrent
	default:
		return domain.StatusOutdated
	}
}

type metadataSource struct {
	ref domain.DocumentRef
	set func(*domain.Document)
}

func metadataSources(r *domain.Relation) []metadataSource {
	var out []metadataSource
	out = appendSource(out, r.StartDate)
	out = appendSource(out, r.EndDate)
	out = appendSource(out, r.Salary)
	out = appendSource(out, r.Investment)
	out = appendSource(out, r.SharePrice)
	out = appendSource(out, r.Valuation)
	out = appendSource(out, r.Shares)
	out = appendSource(out, r.PoolSize)
	return out
}

func appendSource[T domain.MetadataValue](out []metadataSource, m *domain.Metadata[T]) []metadataSource {
	if m == nil || m.Kind != domain.MetadataDocument {
		return out
	}
	return append(out, metadataSource{
		ref: m.SourceRef,
		set: func(d *domain.Document) { m.Source = d },
	})
}
