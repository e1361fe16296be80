package services

import (
	"context"
	"fmt"

	"github.com/graph-gophers/dataloader/v7"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/custodia-labs/charterbook/internal/core/domain"
	"github.com/custodia-labs/charterbook/internal/core/ports/driven"
)

var tracer = otel.Tracer("github.com/custodia-labs/charterbook/internal/core/services")

// Resolver turns document references into documents. Each resolution pass
// gets its own Loader so that caching never outlives the pass.
type Resolver struct {
	store    driven.DocumentStore
	settings domain.ResolverSettings
	observer driven.Observer
}

// NewResolver creates a resolver backed by store. observer may be nil.
func NewResolver(store driven.DocumentStore, settings domain.ResolverSettings, observer driven.Observer) *Resolver {
	if settings.BatchCapacity <= 0 {
		settings.BatchCapacity = domain.DefaultAppSettings().Resolver.BatchCapacity
	}
	return &Resolver{store: store, settings: settings, observer: observer}
}

// Loader resolves references for one pass. Every distinct reference is
// fetched at most once per Loader; concurrent loads issued within the batch
// window share one multi-get per collection.
type Loader struct {
	dl *dataloader.Loader[domain.DocumentRef, *domain.Document]
}

// NewLoader starts a resolution pass.
func (r *Resolver) NewLoader() *Loader {
	opts := []dataloader.Option[domain.DocumentRef, *domain.Document]{
		dataloader.WithBatchCapacity[domain.DocumentRef, *domain.Document](r.settings.BatchCapacity),
	}
	if r.settings.BatchWait > 0 {
		opts = append(opts, dataloader.WithWait[domain.DocumentRef, *domain.Document](r.settings.BatchWait))
	}
	return &Loader{dl: dataloader.NewBatchedLoader(r.batch, opts...)}
}

// ResolveMany resolves refs in order. Missing documents are nil entries.
// The first failure aborts the whole call.
func (l *Loader) ResolveMany(ctx context.Context, refs []domain.DocumentRef) ([]*domain.Document, error) {
	thunks := make([]dataloader.Thunk[*domain.Document], len(refs))
	for i, ref := range refs {
		thunks[i] = l.dl.Load(ctx, ref)
	}

	docs := make([]*domain.Document, len(refs))
	for i, thunk := range thunks {
		doc, err := thunk()
		if err != nil {
			return nil, err
		}
		docs[i] = doc
	}
	return docs, nil
}

// Resolve resolves a single reference. A missing document is nil.
func (l *Loader) Resolve(ctx context.Context, ref domain.DocumentRef) (*domain.Document, error) {
	return l.dl.Load(ctx, ref)()
}

func (r *Resolver) batch(ctx context.Context, refs []domain.DocumentRef) []*dataloader.Result[*domain.Document] {
	ctx, span := tracer.Start(ctx, "resolver.batch", trace.WithAttributes(attribute.Int("refs", len(refs))))
	defer span.End()

	results := make([]*dataloader.Result[*domain.Document], len(refs))

	var collections []string
	positions := make(map[string][]int)
	for i, ref := range refs {
		if !ref.IsValid() {
			results[i] = &dataloader.Result[*domain.Document]{}
			continue
		}
		c := ref.Collection()
		if _, seen := positions[c]; !seen {
			collections = append(collections, c)
		}
		positions[c] = append(positions[c], i)
	}

	for _, collection := range collections {
		idx := positions[collection]
		ids := make([]string, len(idx))
		for j, i := range idx {
			ids[j] = refs[i].ID()
		}

		if r.observer != nil {
			r.observer.ResolverBatch(collection, len(ids))
		}

		records, err := r.store.GetMany(ctx, collection, ids)
		if err == nil && len(records) != len(ids) {
			err = fmt.Errorf("store returned %d records for %d ids", len(records), len(ids))
		}
		if err != nil {
			span.RecordError(err)
			for _, i := range idx {
				results[i] = &dataloader.Result[*domain.Document]{Error: &domain.ResolutionError{Ref: refs[i], Err: err}}
			}
			continue
		}

		for j, i := range idx {
			results[i] = parseResolved(refs[i], records[j])
		}
	}
	return results
}

func parseResolved(ref domain.DocumentRef, rec domain.Record) *dataloader.Result[*domain.Document] {
	if rec == nil {
		return &dataloader.Result[*domain.Document]{}
	}
	doc, err := domain.ParseDocument(rec)
	if err != nil {
		return &dataloader.Result[*domain.Document]{Error: fmt.Errorf("parse document %s: %w", ref, err)}
	}
	doc.ID = ref.ID()
	doc.Ref = ref
	return &dataloader.Result[*domain.Document]{Data: doc}
}
