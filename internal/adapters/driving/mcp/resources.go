package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/custodia-labs/charterbook/internal/core/domain"
)

const (
	// uriScheme is the custom URI scheme for charterbook resources.
	uriScheme = "charterbook://"
)

// registerResources registers all resource handlers with the MCP server.
func (s *Server) registerResources() {
	s.server.AddResource(&mcp.Resource{
		URI:         uriScheme + "entities",
		Name:        "entities",
		Description: "Registered relation entities with their fields and roles",
		MIMEType:    "application/json",
	}, s.handleEntitiesResource)

	s.server.AddResourceTemplate(&mcp.ResourceTemplate{
		URITemplate: uriScheme + "relations/{entity}",
		Name:        "entity-relations",
		Description: "Enriched relations of one entity",
		MIMEType:    "application/json",
	}, s.handleRelationsResource)

	s.server.AddResourceTemplate(&mcp.ResourceTemplate{
		URITemplate: uriScheme + "relations/{entity}/{relationId}",
		Name:        "relation",
		Description: "A single enriched relation",
		MIMEType:    "application/json",
	}, s.handleRelationsResource)

	s.server.AddResourceTemplate(&mcp.ResourceTemplate{
		URITemplate: uriScheme + "documents/{documentId}",
		Name:        "document",
		Description: "A single filed document",
		MIMEType:    "application/json",
	}, s.handleDocumentResource)
}

// entityInfo describes one registered entity.
type entityInfo struct {
	Name    string            `json:"name"`
	Fields  []string          `json:"fields"`
	Derived []string          `json:"derived,omitempty"`
	Roles   map[string]string `json:"roles,omitempty"`
}

func (s *Server) handleEntitiesResource(
	_ context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	entities := s.ports.Relations.Entities()
	infos := make([]entityInfo, 0, len(entities))
	for _, e := range entities {
		schema, err := s.ports.Relations.Schema(e)
		if err != nil {
			return nil, fmt.Errorf("reading schema %s: %w", e, err)
		}
		info := entityInfo{Name: string(e), Derived: schema.Derived}
		for _, f := range schema.Fields {
			info.Fields = append(info.Fields, f.Name)
		}
		if len(schema.Roles) > 0 {
			info.Roles = make(map[string]string, len(schema.Roles))
			for _, r := range schema.Roles {
				info.Roles[r.Name] = string(r.DocType)
			}
		}
		infos = append(infos, info)
	}

	return jsonResource(req.Params.URI, infos)
}

// handleRelationsResource serves both the listing and single relation
// templates.
func (s *Server) handleRelationsResource(
	ctx context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	entity, id := extractRelationPath(req.Params.URI)
	if entity == "" {
		return nil, mcp.ResourceNotFoundError(req.Params.URI)
	}

	if id != "" {
		rel, err := s.ports.Relations.Get(ctx, domain.Entity(entity), id)
		if errors.Is(err, domain.ErrNotFound) || errors.Is(err, domain.ErrUnknownEntity) {
			return nil, mcp.ResourceNotFoundError(req.Params.URI)
		}
		if err != nil {
			return nil, fmt.Errorf("getting relation: %w", err)
		}
		return jsonResource(req.Params.URI, rel)
	}

	snap, err := s.ports.Relations.List(ctx, domain.Entity(entity), domain.Query{})
	if errors.Is(err, domain.ErrUnknownEntity) {
		return nil, mcp.ResourceNotFoundError(req.Params.URI)
	}
	if err != nil {
		return nil, fmt.Errorf("listing relations: %w", err)
	}

	rels := make([]*domain.EnrichedRelation, 0, len(snap.Items))
	for _, item := range snap.Items {
		if item.Err == nil {
			rels = append(rels, item.Data)
		}
	}
	return jsonResource(req.Params.URI, rels)
}

func (s *Server) handleDocumentResource(
	ctx context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	docID := extractDocumentID(req.Params.URI)
	if docID == "" {
		return nil, mcp.ResourceNotFoundError(req.Params.URI)
	}

	doc, err := s.ports.Documents.Get(ctx, docID)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, mcp.ResourceNotFoundError(req.Params.URI)
	}
	if err != nil {
		return nil, fmt.Errorf("getting document: %w", err)
	}
	return jsonResource(req.Params.URI, doc)
}

func jsonResource(uri string, v any) (*mcp.ReadResourceResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshalling resource: %w", err)
	}

	return &mcp.ReadResourceResult{
		Contents: []*mcp.ResourceContents{{
			URI:      uri,
			MIMEType: "application/json",
			Text:     string(data),
		}},
	}, nil
}

// extractRelationPath splits a URI like charterbook://relations/{entity}/{id}.
// The id is empty for listing URIs.
func extractRelationPath(uri string) (entity, id string) {
	const prefix = uriScheme + "relations/"

	rest, ok := strings.CutPrefix(uri, prefix)
	if !ok || rest == "" {
		return "", ""
	}

	entity, id, _ = strings.Cut(rest, "/")
	if strings.Contains(id, "/") {
		return "", ""
	}
	return entity, id
}

// extractDocumentID extracts the document ID from a URI like charterbook://documents/{documentId}.
func extractDocumentID(uri string) string {
	const prefix = uriScheme + "documents/"

	if !strings.HasPrefix(uri, prefix) {
		return ""
	}

	return strings.TrimPrefix(uri, prefix)
}
