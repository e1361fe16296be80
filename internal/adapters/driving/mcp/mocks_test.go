package mcp

import (
	"context"
	"time"

	"github.com/custodia-labs/charterbook/internal/core/domain"
	"github.com/custodia-labs/charterbook/internal/core/ports/driving"
)

// mockRelationService is a mock implementation of driving.RelationService.
type mockRelationService struct {
	entities  []domain.Entity
	schemas   map[domain.Entity]*domain.Schema
	snapshot  *driving.QuerySnapshot
	relation  *domain.EnrichedRelation
	err       error
	lastQuery domain.Query
}

func (m *mockRelationService) Entities() []domain.Entity {
	return m.entities
}

func (m *mockRelationService) Schema(entity domain.Entity) (*domain.Schema, error) {
	s, ok := m.schemas[entity]
	if !ok {
		return nil, domain.ErrUnknownEntity
	}
	return s, nil
}

func (m *mockRelationService) List(_ context.Context, _ domain.Entity, q domain.Query) (*driving.QuerySnapshot, error) {
	m.lastQuery = q
	return m.snapshot, m.err
}

func (m *mockRelationService) Get(_ context.Context, _ domain.Entity, _ string) (*domain.EnrichedRelation, error) {
	return m.relation, m.err
}

func (m *mockRelationService) WatchQuery(
	_ context.Context,
	_ domain.Entity,
	_ domain.Query,
) (<-chan driving.QuerySnapshot, error) {
	return nil, m.err
}

func (m *mockRelationService) WatchOne(
	_ context.Context,
	_ domain.Entity,
	_ string,
) (<-chan driving.DocumentSnapshot, error) {
	return nil, m.err
}

func (m *mockRelationService) Add(_ context.Context, _ domain.Entity, _ domain.Record) (string, error) {
	return "", m.err
}

func (m *mockRelationService) Set(_ context.Context, _ domain.Entity, _ string, _ domain.Record) error {
	return m.err
}

func (m *mockRelationService) Update(_ context.Context, _ domain.Entity, _ string, _ domain.Record) error {
	return m.err
}

func (m *mockRelationService) Delete(_ context.Context, _ domain.Entity, _ string) error {
	return m.err
}

// mockDocumentService is a mock implementation of driving.DocumentService.
type mockDocumentService struct {
	documents []*domain.Document
	document  *domain.Document
	groups    []domain.DocumentGroup
	err       error
	lastQuery domain.DocQuery
	lastText  string
}

func (m *mockDocumentService) List(_ context.Context) ([]*domain.Document, error) {
	return m.documents, m.err
}

func (m *mockDocumentService) Get(_ context.Context, _ string) (*domain.Document, error) {
	return m.document, m.err
}

func (m *mockDocumentService) Groups(_ context.Context, q domain.DocQuery) ([]domain.DocumentGroup, error) {
	m.lastQuery = q
	return m.groups, m.err
}

func (m *mockDocumentService) Search(_ context.Context, text string) ([]domain.DocumentGroup, error) {
	m.lastText = text
	return m.groups, m.err
}

func (m *mockDocumentService) ActionItems(_ context.Context) ([]domain.DocumentGroup, error) {
	return m.groups, m.err
}

func (m *mockDocumentService) Add(_ context.Context, _ domain.Record) (string, error) {
	return "", m.err
}

func (m *mockDocumentService) Recategorize(_ context.Context, _ string, _ domain.Record) error {
	return m.err
}

func (m *mockDocumentService) Update(_ context.Context, _ string, _ domain.Record) error {
	return m.err
}

// mockCapTableService is a mock implementation of driving.CapTableService.
type mockCapTableService struct {
	table *domain.CapTable
	err   error
}

func (m *mockCapTableService) Get(_ context.Context) (*domain.CapTable, error) {
	return m.table, m.err
}

var licenseDoc = &domain.Document{
	ID:        "wa-license",
	Ref:       "org/acme/doc/wa-license",
	Type:      domain.DocTypeBusinessLicense,
	StartDate: time.Date(2022, 1, 1, 0, 0, 0, 0, time.UTC),
	Group:     "wa-license",
}

// stateRelation is a complete, current state registration.
func stateRelation() *domain.EnrichedRelation {
	return &domain.EnrichedRelation{
		Relation: domain.Relation{
			ID:      "washington",
			DocRefs: []domain.DocumentRef{licenseDoc.Ref},
			State:   "Washington",
		},
		Entity:     domain.EntityState,
		Enriched:   true,
		Docs:       []*domain.Document{licenseDoc},
		IsComplete: true,
		IsCurrent:  true,
		Status:     domain.StatusCurrent,
		Slots: []domain.Slot{
			{Role: "license", DocType: domain.DocTypeBusinessLicense, Doc: licenseDoc},
			{Role: "registeredAgent", DocType: domain.DocTypeRegisteredAgent},
		},
	}
}

func newTestServer(relations *mockRelationService, documents *mockDocumentService) *Server {
	server, err := NewServer(&Ports{Relations: relations, Documents: documents})
	if err != nil {
		panic(err)
	}
	return server
}
