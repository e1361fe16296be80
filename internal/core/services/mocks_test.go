package services

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/charterbook/internal/adapters/driven/fixtures"
	"github.com/custodia-labs/charterbook/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/charterbook/internal/core/domain"
	"github.com/custodia-labs/charterbook/internal/core/ports/driven"
)

const testOrg = "acme"

// june2022 is the clock used by tests that evaluate currency against the demo set.
var june2022 = time.Date(2022, 6, 1, 0, 0, 0, 0, time.UTC)

// countingStore wraps a store and records every multi-get.
type countingStore struct {
	driven.DocumentStore

	mu         sync.Mutex
	getMany    [][]string
	getManyErr error
	queryErr   error
}

func newCountingStore() *countingStore {
	return &countingStore{DocumentStore: memory.NewDocumentStore()}
}

func (s *countingStore) GetMany(ctx context.Context, collection string, ids []string) ([]domain.Record, error) {
	s.mu.Lock()
	s.getMany = append(s.getMany, append([]string(nil), ids...))
	err := s.getManyErr
	s.mu.Unlock()
	if err != nil {
		return nil, err
	}
	return s.DocumentStore.GetMany(ctx, collection, ids)
}

func (s *countingStore) Query(ctx context.Context, collection string, q domain.Query) ([]domain.StoredRecord, error) {
	if s.queryErr != nil {
		return nil, s.queryErr
	}
	return s.DocumentStore.Query(ctx, collection, q)
}

func (s *countingStore) calls() [][]string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([][]string(nil), s.getMany...)
}

func (s *countingStore) fetchedIDs() []string {
	var ids []string
	for _, call := range s.calls() {
		ids = append(ids, call...)
	}
	return ids
}

// recordingObserver keeps every measurement it receives.
type recordingObserver struct {
	mu       sync.Mutex
	enriched map[domain.Status]int
	failed   int
	batches  int
	snaps    int
}

func newRecordingObserver() *recordingObserver {
	return &recordingObserver{enriched: make(map[domain.Status]int)}
}

func (o *recordingObserver) RelationEnriched(_ domain.Entity, status domain.Status, _ time.Duration) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.enriched[status]++
}

func (o *recordingObserver) EnrichmentFailed(domain.Entity, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.failed++
}

func (o *recordingObserver) ResolverBatch(string, int) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.batches++
}

func (o *recordingObserver) SnapshotDelivered(domain.Entity) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.snaps++
}

func (o *recordingObserver) snapshots() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.snaps
}

// testEnv bundles services over one store.
type testEnv struct {
	store     *countingStore
	registry  *Registry
	resolver  *Resolver
	enricher  *Enricher
	relations *RelationService
	observer  *recordingObserver
}

func newTestEnv(t *testing.T, settings domain.EnrichmentSettings) *testEnv {
	t.Helper()
	store := newCountingStore()
	t.Cleanup(func() { _ = store.Close() })

	observer := newRecordingObserver()
	registry := MustDefaultRegistry()
	resolver := NewResolver(store, domain.ResolverSettings{BatchWait: time.Millisecond, BatchCapacity: 100}, observer)
	enricher := NewEnricher(registry, resolver, settings, observer)
	enricher.SetClock(func() time.Time { return june2022 })

	return &testEnv{
		store:     store,
		registry:  registry,
		resolver:  resolver,
		enricher:  enricher,
		relations: NewRelationService(store, registry, enricher, testOrg, 4, observer),
		observer:  observer,
	}
}

// seedDemo writes the built-in demo set into the environment's store.
func (e *testEnv) seedDemo(t *testing.T) int {
	t.Helper()
	seeder := NewSeedService(fixtures.NewLoader(), e.store, e.registry, testOrg)
	n, err := seeder.Seed(context.Background(), "")
	require.NoError(t, err)
	return n
}

func (e *testEnv) putDoc(t *testing.T, id string, rec domain.Record) domain.DocumentRef {
	t.Helper()
	collection := domain.OrgCollection(testOrg, domain.DocumentCollection)
	require.NoError(t, e.store.Set(context.Background(), collection, id, rec))
	return domain.NewDocumentRef(collection, id)
}

func docRef(id string) string {
	return string(domain.NewDocumentRef(domain.OrgCollection(testOrg, domain.DocumentCollection), id))
}

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func contentful(docType domain.DocType, start time.Time) domain.Record {
	return domain.Record{"type": string(docType), "startDate": domain.FormatTime(start)}
}

func edited(v any) map[string]any {
	if t, ok := v.(time.Time); ok {
		v = domain.FormatTime(t)
	}
	return map[string]any{"value": v, "type": "edited"}
}
