// Package domain defines the core business entities for charterbook.
//
// This package is part of the hexagonal architecture's innermost layer.
// It has NO external dependencies and defines the fundamental types:
//
//   - Document: A stored legal document (contentful or contentless)
//   - DocumentGroup: A derived version lineage over documents sharing a group key
//   - Relation: A business entity that declares document role slots
//   - Metadata: A tagged value wrapper with provenance and display rendering
//   - Schema: The declarative description of one relation entity
//
// # Architectural Position
//
// Domain is at the centre of the hexagon. It may only import
// the Go standard library. All other packages depend on domain,
// never the reverse.
//
// # Import Rules
//
//   - Can Import: Standard library only
//   - Cannot Import: Any internal/ package, any external dependency
package domain
