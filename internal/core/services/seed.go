package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/custodia-labs/charterbook/internal/core/domain"
	"github.com/custodia-labs/charterbook/internal/core/ports/driven"
	"github.com/custodia-labs/charterbook/internal/core/ports/driving"
	"github.com/custodia-labs/charterbook/internal/logger"
)

// Ensure SeedService implements the interface.
var _ driving.SeedService = (*SeedService)(nil)

// SeedService writes fixture data into an organisation.
type SeedService struct {
	loader   driven.FixtureLoader
	store    driven.DocumentStore
	registry *Registry
	org      string
}

// NewSeedService creates a new seed service.
func NewSeedService(loader driven.FixtureLoader, store driven.DocumentStore, registry *Registry, org string) *SeedService {
	return &SeedService{loader: loader, store: store, registry: registry, org: org}
}

// Seed loads a fixture and writes every record with its fixture id.
// Documents are written before relations so references resolve at once.
func (s *SeedService) Seed(ctx context.Context, path string) (int, error) {
	if s.loader == nil {
		return 0, domain.ErrNotImplemented
	}

	fixture, err := s.loader.Load(ctx, path)
	if err != nil {
		return 0, fmt.Errorf("load fixture: %w", err)
	}

	for entity := range fixture.Relations {
		if _, err := s.registry.Lookup(entity); err != nil {
			return 0, err
		}
	}

	logger.Section("Seed")
	docCollection := domain.OrgCollection(s.org, domain.DocumentCollection)

	written := 0
	for _, rec := range fixture.Documents {
		doc, err := domain.ParseDocument(rec.Data)
		if err != nil {
			return written, fmt.Errorf("document %s: %w", rec.ID, err)
		}
		if err := s.store.Set(ctx, docCollection, rec.ID, doc.Record()); err != nil {
			return written, fmt.Errorf("seed document %s: %w", rec.ID, err)
		}
		written++
	}
	logger.Info("Seeded %d documents", written)

	for _, entity := range s.registry.Entities() {
		def, _ := s.registry.Lookup(entity)
		collection := domain.OrgCollection(s.org, string(entity))
		for _, rec := range fixture.Relations[entity] {
			data := qualifyRefs(rec.Data, docCollection)
			rel, err := def.Schema.Validate(data)
			if err != nil {
				return written, fmt.Errorf("%s %s: %w", entity, rec.ID, err)
			}
			if err := s.store.Set(ctx, collection, rec.ID, def.Schema.Encode(rel)); err != nil {
				return written, fmt.Errorf("seed %s %s: %w", entity, rec.ID, err)
			}
			written++
		}
		logger.Debug("Seeded %d %s relations", len(fixture.Relations[entity]), entity)
	}
	return written, nil
}

// qualifyRefs expands bare document ids in docRefs and metadata source
// references into references inside docCollection.
func qualifyRefs(data domain.Record, docCollection string) domain.Record {
	out := data.Clone()
	qualify := func(v any) any {
		if s, ok := v.(string); ok && s != "" && !strings.Contains(s, "/") {
			return string(domain.NewDocumentRef(docCollection, s))
		}
		return v
	}

	if refs, ok := out[domain.FieldDocRefs].([]any); ok {
		for i := range refs {
			refs[i] = qualify(refs[i])
		}
	}
	for key, v := range out {
		if m, ok := v.(map[string]any); ok {
			if ref, has := m["sourceRef"]; has {
				m["sourceRef"] = qualify(ref)
				out[key] = m
			}
		}
	}
	return out
}
