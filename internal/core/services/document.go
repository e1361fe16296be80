package services

import (
	"context"
	"fmt"
	"time"

	"github.com/custodia-labs/charterbook/internal/core/domain"
	"github.com/custodia-labs/charterbook/internal/core/ports/driven"
	"github.com/custodia-labs/charterbook/internal/core/ports/driving"
	"github.com/custodia-labs/charterbook/internal/logger"
)

// Ensure DocumentService implements the interface.
var _ driving.DocumentService = (*DocumentService)(nil)

// DocumentService reads and files the documents of one organisation.
type DocumentService struct {
	store driven.DocumentStore
	org   string
	now   func() time.Time
}

// NewDocumentService creates a new document service.
func NewDocumentService(store driven.DocumentStore, org string) *DocumentService {
	return &DocumentService{store: store, org: org, now: time.Now}
}

// SetClock replaces the wall clock used to classify documents.
func (s *DocumentService) SetClock(now func() time.Time) {
	s.now = now
}

func (s *DocumentService) collection() string {
	return domain.OrgCollection(s.org, domain.DocumentCollection)
}

// List returns every valid document in id order.
func (s *DocumentService) List(ctx context.Context) ([]*domain.Document, error) {
	records, err := s.store.Query(ctx, s.collection(), domain.Query{})
	if err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
	}

	docs := make([]*domain.Document, 0, len(records))
	for _, rec := range records {
		doc, err := domain.ParseDocument(rec.Data)
		if err != nil {
			logger.Warn("skipping document %s: %v", rec.ID, err)
			continue
		}
		s.identify(doc, rec.ID)
		docs = append(docs, doc)
	}
	return docs, nil
}

// Get retrieves a document by ID.
func (s *DocumentService) Get(ctx context.Context, id string) (*domain.Document, error) {
	raw, err := s.store.Get(ctx, s.collection(), id)
	if err != nil {
		return nil, fmt.Errorf("get document %s: %w", id, err)
	}
	doc, err := domain.ParseDocument(raw)
	if err != nil {
		return nil, err
	}
	s.identify(doc, id)
	return doc, nil
}

// Groups returns the version groups matching q.
func (s *DocumentService) Groups(ctx context.Context, q domain.DocQuery) ([]domain.DocumentGroup, error) {
	docs, err := s.List(ctx)
	if err != nil {
		return nil, err
	}
	return domain.QueryGroups(docs, q, s.now()), nil
}

// Search returns the groups of contentful documents matching text.
func (s *DocumentService) Search(ctx context.Context, text string) ([]domain.DocumentGroup, error) {
	docs, err := s.List(ctx)
	if err != nil {
		return nil, err
	}
	logger.Debug("Searching %d documents for %q", len(docs), text)
	return domain.SearchGroups(docs, text), nil
}

// ActionItems returns groups that are outdated or still uncategorised.
func (s *DocumentService) ActionItems(ctx context.Context) ([]domain.DocumentGroup, error) {
	docs, err := s.List(ctx)
	if err != nil {
		return nil, err
	}
	return domain.ActionItems(domain.ToDocGroups(docs), s.now()), nil
}

// Add validates and stores a new document.
func (s *DocumentService) Add(ctx context.Context, data domain.Record) (string, error) {
	doc, err := domain.ParseDocument(data)
	if err != nil {
		return "", err
	}
	id, err := s.store.Add(ctx, s.collection(), doc.Record())
	if err != nil {
		return "", fmt.Errorf("add document: %w", err)
	}
	return id, nil
}

// Recategorize replaces a contentless document with a contentful one.
func (s *DocumentService) Recategorize(ctx context.Context, id string, data domain.Record) error {
	current, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	if current.IsContentful() {
		return fmt.Errorf("%w: document %s is already categorised as %s", domain.ErrInvalidInput, id, current.Type)
	}

	doc, err := domain.ParseDocument(data)
	if err != nil {
		return err
	}
	if !doc.IsContentful() {
		return fmt.Errorf("%w: %s is not a document category", domain.ErrInvalidInput, doc.Type)
	}

	if err := s.store.Set(ctx, s.collection(), id, doc.Record()); err != nil {
		return fmt.Errorf("recategorize document %s: %w", id, err)
	}
	return nil
}

// Update merges a patch into a document and stores the validated result.
func (s *DocumentService) Update(ctx context.Context, id string, patch domain.Record) error {
	raw, err := s.store.Get(ctx, s.collection(), id)
	if err != nil {
		return fmt.Errorf("get document %s: %w", id, err)
	}
	merged := raw.Clone()
	merged.Merge(patch)

	doc, err := domain.ParseDocument(merged)
	if err != nil {
		return err
	}
	if err := s.store.Set(ctx, s.collection(), id, doc.Record()); err != nil {
		return fmt.Errorf("update document %s: %w", id, err)
	}
	return nil
}

func (s *DocumentService) identify(doc *domain.Document, id string) {
	doc.ID = id
	doc.Ref = domain.NewDocumentRef(s.collection(), id)
}
