package services

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/custodia-labs/charterbook/internal/core/domain"
	"github.com/custodia-labs/charterbook/internal/core/ports/driven"
	"github.com/custodia-labs/charterbook/internal/core/ports/driving"
	"github.com/custodia-labs/charterbook/internal/logger"
)

// Ensure RelationService implements the interface.
var _ driving.RelationService = (*RelationService)(nil)

// RelationService reads and writes relations scoped to one organisation.
type RelationService struct {
	store       driven.DocumentStore
	registry    *Registry
	enricher    *Enricher
	org         string
	concurrency int
	observer    driven.Observer
}

// NewRelationService creates a new relation service. observer may be nil.
func NewRelationService(
	store driven.DocumentStore,
	registry *Registry,
	enricher *Enricher,
	org string,
	concurrency int,
	observer driven.Observer,
) *RelationService {
	if concurrency <= 0 {
		concurrency = domain.DefaultAppSettings().Enrichment.Concurrency
	}
	return &RelationService{
		store:       store,
		registry:    registry,
		enricher:    enricher,
		org:         org,
		concurrency: concurrency,
		observer:    observerOrNop(observer),
	}
}

// Entities lists the registered entities in registration order.
func (s *RelationService) Entities() []domain.Entity {
	return s.registry.Entities()
}

// Schema returns the schema of an entity.
func (s *RelationService) Schema(entity domain.Entity) (*domain.Schema, error) {
	def, err := s.registry.Lookup(entity)
	if err != nil {
		return nil, err
	}
	return def.Schema, nil
}

func (s *RelationService) collection(entity domain.Entity) string {
	return domain.OrgCollection(s.org, string(entity))
}

func (s *RelationService) docCollection() string {
	return domain.OrgCollection(s.org, domain.DocumentCollection)
}

// List returns one enriched snapshot of the relations matching q.
func (s *RelationService) List(ctx context.Context, entity domain.Entity, q domain.Query) (*driving.QuerySnapshot, error) {
	if _, err := s.registry.Lookup(entity); err != nil {
		return nil, err
	}

	records, err := s.store.Query(ctx, s.collection(entity), q)
	if err != nil {
		return nil, fmt.Errorf("query %s: %w", entity, err)
	}

	logger.Debug("Enriching %d %s relations", len(records), entity)
	return &driving.QuerySnapshot{Items: s.enrichAll(ctx, entity, records)}, nil
}

// enrichAll enriches sibling relations concurrently within one resolution
// pass. A failing relation only fails its own item.
func (s *RelationService) enrichAll(ctx context.Context, entity domain.Entity, records []domain.StoredRecord) []driving.QueryItem {
	items := make([]driving.QueryItem, len(records))
	loader := s.enricher.NewPass()

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.concurrency)
	for i, rec := range records {
		items[i].ID = rec.ID
		g.Go(func() error {
			data, err := s.enricher.Enrich(gctx, loader, entity, rec.ID, rec.Data)
			if err != nil {
				logger.Warn("relation %s/%s: %v", entity, rec.ID, err)
				items[i].Err = err
				return nil
			}
			items[i].Data = data
			return nil
		})
	}
	_ = g.Wait()
	return items
}

// Get returns one enriched relation.
func (s *RelationService) Get(ctx context.Context, entity domain.Entity, id string) (*domain.EnrichedRelation, error) {
	if _, err := s.registry.Lookup(entity); err != nil {
		return nil, err
	}

	raw, err := s.store.Get(ctx, s.collection(entity), id)
	if err != nil {
		return nil, fmt.Errorf("get %s %s: %w", entity, id, err)
	}
	return s.enricher.Enrich(ctx, s.enricher.NewPass(), entity, id, raw)
}

// WatchQuery delivers a fresh snapshot after every change that may affect q.
func (s *RelationService) WatchQuery(ctx context.Context, entity domain.Entity, q domain.Query) (<-chan driving.QuerySnapshot, error) {
	if _, err := s.registry.Lookup(entity); err != nil {
		return nil, err
	}

	changes, err := s.watch(ctx, entity, nil)
	if err != nil {
		return nil, err
	}

	out := make(chan driving.QuerySnapshot)
	go func() {
		defer close(out)
		for {
			snap, err := s.List(ctx, entity, q)
			if err != nil {
				snap = &driving.QuerySnapshot{Err: err}
			}
			select {
			case out <- *snap:
				s.observer.SnapshotDelivered(entity)
			case <-ctx.Done():
				return
			}
			if !waitForChange(ctx, changes) {
				return
			}
		}
	}()
	return out, nil
}

// WatchOne delivers a fresh snapshot of one relation after every change that
// may affect it.
func (s *RelationService) WatchOne(ctx context.Context, entity domain.Entity, id string) (<-chan driving.DocumentSnapshot, error) {
	if _, err := s.registry.Lookup(entity); err != nil {
		return nil, err
	}

	changes, err := s.watch(ctx, entity, func(ev domain.ChangeEvent) bool { return ev.ID == id })
	if err != nil {
		return nil, err
	}

	out := make(chan driving.DocumentSnapshot)
	go func() {
		defer close(out)
		for {
			snap := driving.DocumentSnapshot{ID: id}
			data, err := s.Get(ctx, entity, id)
			switch {
			case errors.Is(err, domain.ErrNotFound):
			case err != nil:
				snap.Err = err
			default:
				snap.Data = data
			}
			select {
			case out <- snap:
				s.observer.SnapshotDelivered(entity)
			case <-ctx.Done():
				return
			}
			if !waitForChange(ctx, changes) {
				return
			}
		}
	}()
	return out, nil
}

// watch merges change events from the entity collection, optionally
// filtered, with every change to the document collection.
func (s *RelationService) watch(ctx context.Context, entity domain.Entity, keep func(domain.ChangeEvent) bool) (<-chan struct{}, error) {
	relEvents, err := s.store.Watch(ctx, s.collection(entity))
	if err != nil {
		return nil, fmt.Errorf("watch %s: %w", entity, err)
	}
	docEvents, err := s.store.Watch(ctx, s.docCollection())
	if err != nil {
		return nil, fmt.Errorf("watch documents: %w", err)
	}

	changed := make(chan struct{}, 1)
	notify := func() {
		select {
		case changed <- struct{}{}:
		default:
		}
	}

	go func() {
		defer close(changed)
		for relEvents != nil || docEvents != nil {
			select {
			case ev, ok := <-relEvents:
				if !ok {
					relEvents = nil
					continue
				}
				if keep == nil || keep(ev) {
					notify()
				}
			case _, ok := <-docEvents:
				if !ok {
					docEvents = nil
					continue
				}
				notify()
			case <-ctx.Done():
				return
			}
		}
	}()
	return changed, nil
}

// waitForChange blocks until the next change. It returns false once the
// watch has ended.
func waitForChange(ctx context.Context, changes <-chan struct{}) bool {
	select {
	case _, ok := <-changes:
		return ok
	case <-ctx.Done():
		return false
	}
}

// Add validates data and stores it under a new id.
func (s *RelationService) Add(ctx context.Context, entity domain.Entity, data domain.Record) (string, error) {
	rec, err := s.storageShape(entity, data)
	if err != nil {
		return "", err
	}
	id, err := s.store.Add(ctx, s.collection(entity), rec)
	if err != nil {
		return "", fmt.Errorf("add %s: %w", entity, err)
	}
	return id, nil
}

// Set validates data and creates or replaces the relation.
func (s *RelationService) Set(ctx context.Context, entity domain.Entity, id string, data domain.Record) error {
	rec, err := s.storageShape(entity, data)
	if err != nil {
		return err
	}
	if err := s.store.Set(ctx, s.collection(entity), id, rec); err != nil {
		return fmt.Errorf("set %s %s: %w", entity, id, err)
	}
	return nil
}

// Update coerces a patch to the stored shape, checks that the merged record
// still validates and hands the patch to the store.
func (s *RelationService) Update(ctx context.Context, entity domain.Entity, id string, patch domain.Record) error {
	def, err := s.registry.Lookup(entity)
	if err != nil {
		return err
	}

	coerced, err := def.Schema.CoercePartial(patch)
	if err != nil {
		return err
	}
	if len(coerced) == 0 {
		return nil
	}

	current, err := s.store.Get(ctx, s.collection(entity), id)
	if err != nil {
		return fmt.Errorf("get %s %s: %w", entity, id, err)
	}
	merged := current.Clone()
	merged.Merge(coerced)
	if _, err := def.Schema.Validate(merged); err != nil {
		return err
	}

	if err := s.store.Update(ctx, s.collection(entity), id, coerced); err != nil {
		return fmt.Errorf("update %s %s: %w", entity, id, err)
	}
	return nil
}

// Delete removes a relation.
func (s *RelationService) Delete(ctx context.Context, entity domain.Entity, id string) error {
	if _, err := s.registry.Lookup(entity); err != nil {
		return err
	}
	if err := s.store.Delete(ctx, s.collection(entity), id); err != nil {
		return fmt.Errorf("delete %s %s: %w", entity, id, err)
	}
	return nil
}

func (s *RelationService) storageShape(entity domain.Entity, data domain.Record) (domain.Record, error) {
	def, err := s.registry.Lookup(entity)
	if err != nil {
		return nil, err
	}
	rel, err := def.Schema.Validate(data)
	if err != nil {
		return nil, err
	}
	return def.Schema.Encode(rel), nil
}
