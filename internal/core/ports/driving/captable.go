package driving

import (
	"context"

	"github.com/custodia-labs/charterbook/internal/core/domain"
)

// CapTableService aggregates equity relations.
type CapTableService interface {
	Get(ctx context.Context) (*domain.CapTable, error)
}

// SeedService loads fixture data into the store.
type SeedService interface {
	// Seed loads the fixture at path, or the built-in demo set when path is
	// empty, and returns the number of records written.
	Seed(ctx context.Context, path string) (int, error)
}
