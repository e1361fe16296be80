package mcp

import (
	"github.com/custodia-labs/charterbook/internal/core/ports/driving"
)

// Ports aggregates all driving port interfaces required by the MCP server.
// This provides a single injection point for dependency injection.
type Ports struct {
	// Relations reads enriched relations.
	Relations driving.RelationService

	// Documents reads documents and their version groups.
	Documents driving.DocumentService

	// CapTable is optional; the cap_table tool reports an error without it.
	CapTable driving.CapTableService
}

// Validate ensures all required ports are set.
// Returns an error if any required port is nil.
func (p *Ports) Validate() error {
	if p.Relations == nil {
		return ErrMissingRelationService
	}
	if p.Documents == nil {
		return ErrMissingDocumentService
	}
	return nil
}
