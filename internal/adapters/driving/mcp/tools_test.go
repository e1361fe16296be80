package mcp

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/charterbook/internal/core/domain"
	"github.com/custodia-labs/charterbook/internal/core/ports/driving"
)

func TestServer_handleListRelations(t *testing.T) {
	ctx := context.Background()

	t.Run("returns relations and per-item errors", func(t *testing.T) {
		relations := &mockRelationService{snapshot: &driving.QuerySnapshot{Items: []driving.QueryItem{
			{ID: "washington", Data: stateRelation()},
			{ID: "broken", Err: errors.New("invalid relation")},
		}}}
		server := newTestServer(relations, &mockDocumentService{})

		input := ListRelationsInput{Entity: "state", Where: []string{"state=Washington"}, Limit: 5}
		_, output, err := server.handleListRelations(ctx, nil, input)

		require.NoError(t, err)
		assert.Equal(t, "state", output.Entity)
		assert.Equal(t, 2, output.Count)
		assert.Equal(t, "Current", output.Relations[0].Status)
		assert.Equal(t, "Washington", output.Relations[0].Relation["state"])
		assert.Equal(t, map[string]any{"type": "MISSING", "docType": "REGISTERED_AGENT"},
			output.Relations[0].Relation["registeredAgent"])
		assert.Equal(t, "invalid relation", output.Relations[1].Error)
		assert.Nil(t, output.Relations[1].Relation)

		assert.Equal(t, 5, relations.lastQuery.Limit)
		require.Len(t, relations.lastQuery.Filters, 1)
		assert.Equal(t, "state", relations.lastQuery.Filters[0].Field)
	})

	t.Run("rejects malformed filters", func(t *testing.T) {
		server := newTestServer(&mockRelationService{}, &mockDocumentService{})

		_, _, err := server.handleListRelations(ctx, nil, ListRelationsInput{Entity: "state", Where: []string{"=x"}})

		assert.ErrorIs(t, err, domain.ErrInvalidInput)
	})

	t.Run("returns error on list failure", func(t *testing.T) {
		server := newTestServer(&mockRelationService{err: domain.ErrUnknownEntity}, &mockDocumentService{})

		_, _, err := server.handleListRelations(ctx, nil, ListRelationsInput{Entity: "unicorn"})

		assert.ErrorIs(t, err, domain.ErrUnknownEntity)
	})
}

func TestServer_handleGetRelation(t *testing.T) {
	ctx := context.Background()

	t.Run("returns relation with missing slots", func(t *testing.T) {
		server := newTestServer(&mockRelationService{relation: stateRelation()}, &mockDocumentService{})

		_, output, err := server.handleGetRelation(ctx, nil, GetRelationInput{Entity: "state", ID: "washington"})

		require.NoError(t, err)
		assert.Equal(t, "washington", output.Relation["id"])
		assert.Equal(t, []string{"registeredAgent"}, output.MissingSlots)
	})

	t.Run("requires id", func(t *testing.T) {
		server := newTestServer(&mockRelationService{}, &mockDocumentService{})

		_, _, err := server.handleGetRelation(ctx, nil, GetRelationInput{Entity: "state"})

		require.Error(t, err)
	})

	t.Run("propagates not found", func(t *testing.T) {
		server := newTestServer(&mockRelationService{err: domain.ErrNotFound}, &mockDocumentService{})

		_, _, err := server.handleGetRelation(ctx, nil, GetRelationInput{Entity: "state", ID: "nope"})

		assert.ErrorIs(t, err, domain.ErrNotFound)
	})
}

func TestServer_handleSearchDocuments(t *testing.T) {
	documents := &mockDocumentService{groups: []domain.DocumentGroup{{Latest: licenseDoc, Previous: []*domain.Document{}}}}
	server := newTestServer(&mockRelationService{}, documents)

	_, output, err := server.handleSearchDocuments(context.Background(), nil, SearchDocumentsInput{Query: "license"})

	require.NoError(t, err)
	assert.Equal(t, "license", documents.lastText)
	assert.Equal(t, 1, output.Count)
	latest := output.Groups[0]["latest"].(map[string]any)
	assert.Equal(t, "wa-license", latest["id"])
	assert.Equal(t, "BUSINESS_LICENSE", latest["type"])
}

func TestServer_handleListDocumentGroups(t *testing.T) {
	ctx := context.Background()

	t.Run("passes filters through", func(t *testing.T) {
		documents := &mockDocumentService{groups: []domain.DocumentGroup{}}
		server := newTestServer(&mockRelationService{}, documents)

		input := ListDocumentGroupsInput{Types: []string{"BUSINESS_LICENSE"}, States: []string{"outdated"}}
		_, output, err := server.handleListDocumentGroups(ctx, nil, input)

		require.NoError(t, err)
		assert.Equal(t, 0, output.Count)
		assert.NotNil(t, output.Groups)
		assert.Equal(t, []domain.DocType{domain.DocTypeBusinessLicense}, documents.lastQuery.Types)
		assert.Equal(t, []domain.DocState{domain.DocStateOutdated}, documents.lastQuery.States)
	})

	tests := []struct {
		name  string
		input ListDocumentGroupsInput
	}{
		{"unknown type", ListDocumentGroupsInput{Types: []string{"NAPKIN"}}},
		{"unknown state", ListDocumentGroupsInput{States: []string{"stale"}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := newTestServer(&mockRelationService{}, &mockDocumentService{})

			_, _, err := server.handleListDocumentGroups(ctx, nil, tt.input)

			assert.ErrorIs(t, err, domain.ErrInvalidInput)
		})
	}
}

func TestServer_handleActionItems(t *testing.T) {
	documents := &mockDocumentService{groups: []domain.DocumentGroup{
		{Latest: &domain.Document{ID: "scan-1", Type: domain.DocTypeUncategorized}, Previous: []*domain.Document{}},
	}}
	server := newTestServer(&mockRelationService{}, documents)

	_, output, err := server.handleActionItems(context.Background(), nil, ActionItemsInput{})

	require.NoError(t, err)
	require.Equal(t, 1, output.Count)
	assert.Equal(t, map[string]any{"id": "scan-1", "type": "UNCATEGORIZED"}, output.Groups[0]["latest"])
}

func TestServer_handleCapTable(t *testing.T) {
	ctx := context.Background()

	t.Run("without service", func(t *testing.T) {
		server := newTestServer(&mockRelationService{}, &mockDocumentService{})

		_, _, err := server.handleCapTable(ctx, nil, CapTableInput{})

		assert.ErrorIs(t, err, domain.ErrNotImplemented)
	})

	t.Run("returns the table", func(t *testing.T) {
		server, err := NewServer(&Ports{
			Relations: &mockRelationService{},
			Documents: &mockDocumentService{},
			CapTable:  &mockCapTableService{table: &domain.CapTable{CommonShares: 100, TotalShares: 100}},
		})
		require.NoError(t, err)

		_, output, err := server.handleCapTable(ctx, nil, CapTableInput{})

		require.NoError(t, err)
		assert.Equal(t, 100.0, output.TotalShares)
	})

	t.Run("returns error on failure", func(t *testing.T) {
		server, err := NewServer(&Ports{
			Relations: &mockRelationService{},
			Documents: &mockDocumentService{},
			CapTable:  &mockCapTableService{err: errors.New("store offline")},
		})
		require.NoError(t, err)

		_, _, err = server.handleCapTable(ctx, nil, CapTableInput{})

		assert.EqualError(t, err, "store offline")
	})
}
