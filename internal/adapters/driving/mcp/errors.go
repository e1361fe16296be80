// Package mcp provides an MCP (Model Context Protocol) server adapter for
// charterbook. It lets AI assistants read enriched relations, document groups
// and the cap table of the configured organisation.
package mcp

import "errors"

var (
	// ErrMissingRelationService is returned when the relation service is not provided.
	ErrMissingRelationService = errors.New("mcp: relation service is required")

	// ErrMissingDocumentService is returned when the document service is not provided.
	ErrMissingDocumentService = errors.New("mcp: document service is required")
)
