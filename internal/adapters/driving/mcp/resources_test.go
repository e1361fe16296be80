package mcp

import (
	"context"
	"errors"
	"testing"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/charterbook/internal/core/domain"
	"github.com/custodia-labs/charterbook/internal/core/ports/driving"
)

func TestExtractRelationPath(t *testing.T) {
	tests := []struct {
		name   string
		uri    string
		entity string
		id     string
	}{
		{name: "listing", uri: "charterbook://relations/state", entity: "state"},
		{name: "single relation", uri: "charterbook://relations/state/washington", entity: "state", id: "washington"},
		{name: "too many segments", uri: "charterbook://relations/state/a/b"},
		{name: "invalid prefix", uri: "file://relations/state"},
		{name: "no entity", uri: "charterbook://relations/"},
		{name: "empty URI", uri: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			entity, id := extractRelationPath(tt.uri)
			assert.Equal(t, tt.entity, entity)
			assert.Equal(t, tt.id, id)
		})
	}
}

func TestExtractDocumentID(t *testing.T) {
	tests := []struct {
		name     string
		uri      string
		expected string
	}{
		{name: "valid document URI", uri: "charterbook://documents/doc-456", expected: "doc-456"},
		{name: "invalid prefix", uri: "file://documents/doc-456", expected: ""},
		{name: "empty URI", uri: "", expected: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, extractDocumentID(tt.uri))
		})
	}
}

func makeReadResourceRequest(uri string) *mcp.ReadResourceRequest {
	return &mcp.ReadResourceRequest{
		Params: &mcp.ReadResourceParams{
			URI: uri,
		},
	}
}

func TestServer_handleEntitiesResource(t *testing.T) {
	relations := &mockRelationService{
		entities: []domain.Entity{domain.EntityState},
		schemas: map[domain.Entity]*domain.Schema{
			domain.EntityState: {
				Entity: domain.EntityState,
				Fields: []domain.Field{{Name: domain.FieldState, Kind: domain.FieldKindEnum, Enum: []string{"Washington"}}},
				Roles:  []domain.Role{{Name: "license", DocType: domain.DocTypeBusinessLicense}},
				Enrich: true,
			},
		},
	}
	server := newTestServer(relations, &mockDocumentService{})

	result, err := server.handleEntitiesResource(context.Background(), makeReadResourceRequest("charterbook://entities"))

	require.NoError(t, err)
	require.Len(t, result.Contents, 1)
	assert.Equal(t, "application/json", result.Contents[0].MIMEType)
	assert.JSONEq(t, `[{"name":"state","fields":["state"],"roles":{"license":"BUSINESS_LICENSE"}}]`, result.Contents[0].Text)

	t.Run("unknown schema fails", func(t *testing.T) {
		relations := &mockRelationService{entities: []domain.Entity{"unicorn"}}
		server := newTestServer(relations, &mockDocumentService{})

		_, err := server.handleEntitiesResource(context.Background(), makeReadResourceRequest("charterbook://entities"))

		assert.ErrorIs(t, err, domain.ErrUnknownEntity)
	})
}

func TestServer_handleRelationsResource(t *testing.T) {
	ctx := context.Background()

	t.Run("invalid URI returns not found", func(t *testing.T) {
		server := newTestServer(&mockRelationService{}, &mockDocumentService{})

		_, err := server.handleRelationsResource(ctx, makeReadResourceRequest("charterbook://invalid/uri"))

		require.Error(t, err)
	})

	t.Run("lists relations and skips failures", func(t *testing.T) {
		relations := &mockRelationService{snapshot: &driving.QuerySnapshot{Items: []driving.QueryItem{
			{ID: "washington", Data: stateRelation()},
			{ID: "broken", Err: errors.New("bad record")},
		}}}
		server := newTestServer(relations, &mockDocumentService{})

		result, err := server.handleRelationsResource(ctx, makeReadResourceRequest("charterbook://relations/state"))

		require.NoError(t, err)
		require.Len(t, result.Contents, 1)
		assert.Contains(t, result.Contents[0].Text, `"washington"`)
		assert.NotContains(t, result.Contents[0].Text, "broken")
	})

	t.Run("returns one relation", func(t *testing.T) {
		server := newTestServer(&mockRelationService{relation: stateRelation()}, &mockDocumentService{})

		result, err := server.handleRelationsResource(ctx, makeReadResourceRequest("charterbook://relations/state/washington"))

		require.NoError(t, err)
		assert.Contains(t, result.Contents[0].Text, `"status": "Current"`)
		assert.Contains(t, result.Contents[0].Text, `"MISSING"`)
	})

	t.Run("missing relation returns not found", func(t *testing.T) {
		server := newTestServer(&mockRelationService{err: domain.ErrNotFound}, &mockDocumentService{})

		_, err := server.handleRelationsResource(ctx, makeReadResourceRequest("charterbook://relations/state/nope"))

		require.Error(t, err)
		assert.NotErrorIs(t, err, domain.ErrNotFound)
	})

	t.Run("store failure is wrapped", func(t *testing.T) {
		server := newTestServer(&mockRelationService{err: errors.New("store offline")}, &mockDocumentService{})

		_, err := server.handleRelationsResource(ctx, makeReadResourceRequest("charterbook://relations/state"))

		require.Error(t, err)
		assert.Contains(t, err.Error(), "listing relations")
	})
}

func TestServer_handleDocumentResource(t *testing.T) {
	ctx := context.Background()

	t.Run("invalid URI returns not found", func(t *testing.T) {
		server := newTestServer(&mockRelationService{}, &mockDocumentService{})

		_, err := server.handleDocumentResource(ctx, makeReadResourceRequest("charterbook://invalid/uri"))

		require.Error(t, err)
	})

	t.Run("returns document successfully", func(t *testing.T) {
		server := newTestServer(&mockRelationService{}, &mockDocumentService{document: licenseDoc})

		result, err := server.handleDocumentResource(ctx, makeReadResourceRequest("charterbook://documents/wa-license"))

		require.NoError(t, err)
		require.Len(t, result.Contents, 1)
		assert.Contains(t, result.Contents[0].Text, "BUSINESS_LICENSE")
		assert.Contains(t, result.Contents[0].Text, "2022-01-01T00:00:00Z")
	})

	t.Run("store failure is wrapped", func(t *testing.T) {
		server := newTestServer(&mockRelationService{}, &mockDocumentService{err: errors.New("store offline")})

		_, err := server.handleDocumentResource(ctx, makeReadResourceRequest("charterbook://documents/wa-license"))

		require.Error(t, err)
		assert.Contains(t, err.Error(), "getting document")
	})
}
