// Package memory provides in-process implementations of the driven ports.
// Nothing survives a restart.
package memory

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/custodia-labs/charterbook/internal/adapters/driven/storage/broadcast"
	"github.com/custodia-labs/charterbook/internal/core/domain"
	"github.com/custodia-labs/charterbook/internal/core/ports/driven"
)

// Ensure DocumentStore implements the interface.
var _ driven.DocumentStore = (*DocumentStore)(nil)

// DocumentStore keeps records per collection behind a single lock.
// Records pass through a JSON round trip on write so readers see the same
// value shapes a persistent store returns.
type DocumentStore struct {
	mu          sync.RWMutex
	collections map[string]map[string]domain.Record
	hub         *broadcast.Hub
	newID       func() string
}

// NewDocumentStore creates an empty document store.
func NewDocumentStore() *DocumentStore {
	return &DocumentStore{
		collections: make(map[string]map[string]domain.Record),
		hub:         broadcast.NewHub(),
		newID:       uuid.NewString,
	}
}

// Get retrieves a record.
func (s *DocumentStore) Get(_ context.Context, collection, id string) (domain.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.collections[collection][id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return rec.Clone(), nil
}

// GetMany retrieves several records; absent ones are nil.
func (s *DocumentStore) GetMany(_ context.Context, collection string, ids []string) ([]domain.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.Record, len(ids))
	records := s.collections[collection]
	for i, id := range ids {
		if rec, ok := records[id]; ok {
			out[i] = rec.Clone()
		}
	}
	return out, nil
}

// Query returns the matching records of a collection.
func (s *DocumentStore) Query(_ context.Context, collection string, q domain.Query) ([]domain.StoredRecord, error) {
	s.mu.RLock()
	records := make([]domain.StoredRecord, 0, len(s.collections[collection]))
	for id, rec := range s.collections[collection] {
		records = append(records, domain.StoredRecord{ID: id, Data: rec.Clone()})
	}
	s.mu.RUnlock()
	return q.Apply(records), nil
}

// Watch streams change events for a collection.
func (s *DocumentStore) Watch(ctx context.Context, collection string) (<-chan domain.ChangeEvent, error) {
	return s.hub.Subscribe(ctx, collection), nil
}

// Add stores a record under a new UUID.
func (s *DocumentStore) Add(ctx context.Context, collection string, data domain.Record) (string, error) {
	id := s.newID()
	if err := s.Set(ctx, collection, id, data); err != nil {
		return "", err
	}
	return id, nil
}

// Set creates or replaces a record.
func (s *DocumentStore) Set(_ context.Context, collection, id string, data domain.Record) error {
	rec, err := normalise(data)
	if err != nil {
		return fmt.Errorf("set %s/%s: %w", collection, id, err)
	}

	s.mu.Lock()
	records, ok := s.collections[collection]
	if !ok {
		records = make(map[string]domain.Record)
		s.collections[collection] = records
	}
	change := domain.ChangeUpdated
	if _, exists := records[id]; !exists {
		change = domain.ChangeCreated
	}
	records[id] = rec
	s.mu.Unlock()

	s.hub.Publish(domain.ChangeEvent{Type: change, Collection: collection, ID: id})
	return nil
}

// Update deep-merges patch into an existing record.
func (s *DocumentStore) Update(_ context.Context, collection, id string, patch domain.Record) error {
	normalised, err := normalise(patch)
	if err != nil {
		return fmt.Errorf("update %s/%s: %w", collection, id, err)
	}

	s.mu.Lock()
	rec, ok := s.collections[collection][id]
	if !ok {
		s.mu.Unlock()
		return domain.ErrNotFound
	}
	rec.Merge(normalised)
	s.mu.Unlock()

	s.hub.Publish(domain.ChangeEvent{Type: domain.ChangeUpdated, Collection: collection, ID: id})
	return nil
}

// Delete removes a record.
func (s *DocumentStore) Delete(_ context.Context, collection, id string) error {
	s.mu.Lock()
	if _, ok := s.collections[collection][id]; !ok {
		s.mu.Unlock()
		return domain.ErrNotFound
	}
	delete(s.collections[collection], id)
	s.mu.Unlock()

	s.hub.Publish(domain.ChangeEvent{Type: domain.ChangeDeleted, Collection: collection, ID: id})
	return nil
}

// Close ends every watch.
func (s *DocumentStore) Close() error {
	s.hub.Close()
	return nil
}

func normalise(data domain.Record) (domain.Record, error) {
	raw, err := json.Marshal(data)
	if err != nil {
		return nil, fmt.Errorf("encode record: %w", err)
	}
	rec := domain.Record{}
	if err := json.Unmarshal(raw, &rec); err != nil {
		return nil, fmt.Errorf("decode record: %w", err)
	}
	return rec, nil
}
