package driven

import (
	"context"

	"github.com/custodia-labs/charterbook/internal/core/domain"
)

// DocumentStore is opaque keyed storage organised in collections.
// Collections are slash paths such as "org/acme/employee".
// Implementations own concurrency control; the core takes no locks around them.
type DocumentStore interface {
	// Get retrieves a record. Returns domain.ErrNotFound if absent.
	Get(ctx context.Context, collection, id string) (domain.Record, error)

	// GetMany retrieves several records of one collection in a single round
	// trip. The result has one entry per id in the same order; absent
	// records are nil.
	GetMany(ctx context.Context, collection string, ids []string) ([]domain.Record, error)

	// Query returns the records matching q.
	Query(ctx context.Context, collection string, q domain.Query) ([]domain.StoredRecord, error)

	// Watch streams change events for a collection until ctx is cancelled,
	// after which the channel is closed. Events may be coalesced or dropped
	// when the consumer falls behind; consumers re-read on every event.
	Watch(ctx context.Context, collection string) (<-chan domain.ChangeEvent, error)

	// Add stores a record under a generated id and returns the id.
	Add(ctx context.Context, collection string, data domain.Record) (string, error)

	// Set creates or replaces a record.
	Set(ctx context.Context, collection, id string, data domain.Record) error

	// Update deep-merges a partial record into an existing one. Nested maps
	// merge, everything else replaces; a nil value stores null.
	// Returns domain.ErrNotFound if absent.
	Update(ctx context.Context, collection, id string, patch domain.Record) error

	// Delete removes a record. Returns domain.ErrNotFound if absent.
	Delete(ctx context.Context, collection, id string) error

	// Close releases resources held by the store.
	Close() error
}
