package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/custodia-labs/charterbook/internal/core/domain"
)

// ListRelationsInput is the input schema for the list_relations tool.
type ListRelationsInput struct {
	Entity string   `json:"entity" jsonschema:"relation entity such as employee, state or valuation"`
	Where  []string `json:"where,omitempty" jsonschema:"equality filters written as field=value, for example party.name=Ada Lovelace"`
	Limit  int      `json:"limit,omitempty" jsonschema:"maximum number of relations to return (default all)"`
}

// RelationItemOutput is one relation in a listing. Relation is empty and
// Error is set when the stored record could not be enriched.
type RelationItemOutput struct {
	ID       string         `json:"id"`
	Status   string         `json:"status,omitempty"`
	Relation map[string]any `json:"relation,omitempty"`
	Error    string         `json:"error,omitempty"`
}

// ListRelationsOutput is the output schema for the list_relations tool.
type ListRelationsOutput struct {
	Entity    string               `json:"entity"`
	Relations []RelationItemOutput `json:"relations"`
	Count     int                  `json:"count"`
}

// GetRelationInput is the input schema for the get_relation tool.
type GetRelationInput struct {
	Entity string `json:"entity" jsonschema:"relation entity"`
	ID     string `json:"id" jsonschema:"relation id"`
}

// GetRelationOutput is the output schema for the get_relation tool.
type GetRelationOutput struct {
	Relation     map[string]any `json:"relation"`
	MissingSlots []string       `json:"missing_slots,omitempty"`
}

// SearchDocumentsInput is the input schema for the search_documents tool.
type SearchDocumentsInput struct {
	Query string `json:"query" jsonschema:"text matched against document type, labels and party name"`
}

// ListDocumentGroupsInput is the input schema for the list_document_groups tool.
type ListDocumentGroupsInput struct {
	Types  []string `json:"types,omitempty" jsonschema:"document types to keep, for example BUSINESS_LICENSE"`
	States []string `json:"states,omitempty" jsonschema:"states of the latest document to keep: active, inactive or outdated"`
}

// ActionItemsInput is the input schema for the action_items tool.
type ActionItemsInput struct{}

// CapTableInput is the input schema for the cap_table tool.
type CapTableInput struct{}

// DocumentGroupsOutput lists version groups, latest document first.
type DocumentGroupsOutput struct {
	Groups []map[string]any `json:"groups"`
	Count  int              `json:"count"`
}

// registerTools registers all tool handlers with the MCP server.
func (s *Server) registerTools() {
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "list_relations",
		Description: "List the relations of one entity with their documents, completeness and status",
	}, s.handleListRelations)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "get_relation",
		Description: "Get one enriched relation including its role slots",
	}, s.handleGetRelation)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "search_documents",
		Description: "Search filed documents by type, label or party name",
	}, s.handleSearchDocuments)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "list_document_groups",
		Description: "List document version groups filtered by type and state",
	}, s.handleListDocumentGroups)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "action_items",
		Description: "List outdated documents and uploads that still need a category",
	}, s.handleActionItems)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "cap_table",
		Description: "Summarise share ownership across common, preferred, option and SAFE holders",
	}, s.handleCapTable)
}

func (s *Server) handleListRelations(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input ListRelationsInput,
) (*mcp.CallToolResult, ListRelationsOutput, error) {
	q := domain.Query{Limit: input.Limit}
	for _, expr := range input.Where {
		f, err := domain.ParseFilter(expr)
		if err != nil {
			return nil, ListRelationsOutput{}, err
		}
		q.Filters = append(q.Filters, f)
	}

	entity := domain.Entity(input.Entity)
	snap, err := s.ports.Relations.List(ctx, entity, q)
	if err != nil {
		return nil, ListRelationsOutput{}, err
	}

	output := ListRelationsOutput{
		Entity:    input.Entity,
		Relations: make([]RelationItemOutput, len(snap.Items)),
		Count:     len(snap.Items),
	}
	for i, item := range snap.Items {
		out := RelationItemOutput{ID: item.ID}
		if item.Err != nil {
			out.Error = item.Err.Error()
		} else {
			out.Status = string(item.Data.Status)
			out.Relation, err = toMap(item.Data)
			if err != nil {
				return nil, ListRelationsOutput{}, err
			}
		}
		output.Relations[i] = out
	}

	return nil, output, nil
}

func (s *Server) handleGetRelation(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input GetRelationInput,
) (*mcp.CallToolResult, GetRelationOutput, error) {
	if input.ID == "" {
		return nil, GetRelationOutput{}, errors.New("id is required")
	}

	rel, err := s.ports.Relations.Get(ctx, domain.Entity(input.Entity), input.ID)
	if err != nil {
		return nil, GetRelationOutput{}, err
	}

	data, err := toMap(rel)
	if err != nil {
		return nil, GetRelationOutput{}, err
	}

	output := GetRelationOutput{Relation: data}
	for _, slot := range rel.MissingSlots() {
		output.MissingSlots = append(output.MissingSlots, slot.Role)
	}
	return nil, output, nil
}

func (s *Server) handleSearchDocuments(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input SearchDocumentsInput,
) (*mcp.CallToolResult, DocumentGroupsOutput, error) {
	groups, err := s.ports.Documents.Search(ctx, input.Query)
	if err != nil {
		return nil, DocumentGroupsOutput{}, err
	}
	output, err := groupsOutput(groups)
	return nil, output, err
}

func (s *Server) handleListDocumentGroups(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input ListDocumentGroupsInput,
) (*mcp.CallToolResult, DocumentGroupsOutput, error) {
	var q domain.DocQuery
	for _, t := range input.Types {
		dt := domain.DocType(t)
		if !dt.IsValid() {
			return nil, DocumentGroupsOutput{}, fmt.Errorf("%w: unknown document type %q", domain.ErrInvalidInput, t)
		}
		q.Types = append(q.Types, dt)
	}
	for _, st := range input.States {
		state := domain.DocState(st)
		if !state.IsValid() {
			return nil, DocumentGroupsOutput{}, fmt.Errorf("%w: unknown document state %q", domain.ErrInvalidInput, st)
		}
		q.States = append(q.States, state)
	}

	groups, err := s.ports.Documents.Groups(ctx, q)
	if err != nil {
		return nil, DocumentGroupsOutput{}, err
	}
	output, err := groupsOutput(groups)
	return nil, output, err
}

func (s *Server) handleActionItems(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	_ ActionItemsInput,
) (*mcp.CallToolResult, DocumentGroupsOutput, error) {
	groups, err := s.ports.Documents.ActionItems(ctx)
	if err != nil {
		return nil, DocumentGroupsOutput{}, err
	}
	output, err := groupsOutput(groups)
	return nil, output, err
}

func (s *Server) handleCapTable(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	_ CapTableInput,
) (*mcp.CallToolResult, domain.CapTable, error) {
	if s.ports.CapTable == nil {
		return nil, domain.CapTable{}, domain.ErrNotImplemented
	}
	ct, err := s.ports.CapTable.Get(ctx)
	if err != nil {
		return nil, domain.CapTable{}, err
	}
	return nil, *ct, nil
}

func groupsOutput(groups []domain.DocumentGroup) (DocumentGroupsOutput, error) {
	output := DocumentGroupsOutput{
		Groups: make([]map[string]any, len(groups)),
		Count:  len(groups),
	}
	for i, g := range groups {
		m, err := toMap(g)
		if err != nil {
			return DocumentGroupsOutput{}, err
		}
		output.Groups[i] = m
	}
	return output, nil
}

// toMap renders v through its JSON encoding so tool results carry the same
// shape as the HTTP API.
func toMap(v any) (map[string]any, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encoding result: %w", err)
	}
	var m map[string]any
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("encoding result: %w", err)
	}
	return m, nil
}
