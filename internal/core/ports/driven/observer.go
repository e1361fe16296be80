package driven

import (
	"time"

	"github.com/custodia-labs/charterbook/internal/core/domain"
)

// Observer receives measurements from the core. Implementations must be
// safe for concurrent use and must not block.
type Observer interface {
	// RelationEnriched records one finished enrichment.
	RelationEnriched(entity domain.Entity, status domain.Status, elapsed time.Duration)

	// EnrichmentFailed records an enrichment aborted by err.
	EnrichmentFailed(entity domain.Entity, err error)

	// ResolverBatch records one multi-get issued by the resolver.
	ResolverBatch(collection string, keys int)

	// SnapshotDelivered records a snapshot pushed to a watcher.
	SnapshotDelivered(entity domain.Entity)
}
