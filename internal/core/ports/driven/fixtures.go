package driven

import (
	"context"

	"github.com/custodia-labs/charterbook/internal/core/domain"
)

// FixtureLoader reads seed data. An empty path selects the built-in demo set.
type FixtureLoader interface {
	Load(ctx context.Context, path string) (*domain.Fixture, error)
}
