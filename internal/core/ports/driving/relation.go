package driving

import (
	"context"

	"github.com/custodia-labs/charterbook/internal/core/domain"
)

// RelationService reads and writes relations of every registered entity.
// Reads return enriched relations; writes accept the stored shape.
type RelationService interface {
	// Entities lists the registered entities in registration order.
	Entities() []domain.Entity

	// Schema returns the schema of an entity.
	// Returns domain.ErrUnknownEntity if the entity is not registered.
	Schema(entity domain.Entity) (*domain.Schema, error)

	// List returns one enriched snapshot of the relations matching q.
	// Per-relation failures are reported on the item, not on the snapshot.
	List(ctx context.Context, entity domain.Entity, q domain.Query) (*QuerySnapshot, error)

	// Get returns one enriched relation. Returns domain.ErrNotFound if absent.
	Get(ctx context.Context, entity domain.Entity, id string) (*domain.EnrichedRelation, error)

	// WatchQuery delivers an initial snapshot and then a fresh one after every
	// change to the relation or document collections. The channel closes
	// when ctx is cancelled.
	WatchQuery(ctx context.Context, entity domain.Entity, q domain.Query) (<-chan QuerySnapshot, error)

	// WatchOne is WatchQuery for a single relation.
	WatchOne(ctx context.Context, entity domain.Entity, id string) (<-chan DocumentSnapshot, error)

	// Add validates data and stores it under a new id.
	Add(ctx context.Context, entity domain.Entity, data domain.Record) (string, error)

	// Set validates data and creates or replaces the relation.
	Set(ctx context.Context, entity domain.Entity, id string, data domain.Record) error

	// Update applies a patch written against the enriched shape. Derived
	// and role fields are dropped before the patch reaches the store.
	Update(ctx context.Context, entity domain.Entity, id string, patch domain.Record) error

	// Delete removes a relation.
	Delete(ctx context.Context, entity domain.Entity, id string) error
}

// QueryItem is one relation of a query snapshot.
type QueryItem struct {
	ID   string
	Data *domain.EnrichedRelation

	// Err is set when this relation failed validation or enrichment.
	Err error
}

// QuerySnapshot is the state of a query at one point in time.
type QuerySnapshot struct {
	Items []QueryItem

	// Err is set when the query itself failed; Items is then empty.
	Err error
}

// DocumentSnapshot is the state of a single relation at one point in time.
type DocumentSnapshot struct {
	ID string

	// Data is nil when the relation does not exist.
	Data *domain.EnrichedRelation
	Err  error
}
