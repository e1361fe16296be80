package driving

import (
	"context"

	"github.com/custodia-labs/charterbook/internal/core/domain"
)

// DocumentService reads and files stored documents.
type DocumentService interface {
	// List returns every valid document. Records that fail validation are skipped.
	List(ctx context.Context) ([]*domain.Document, error)

	// Get retrieves a document by ID.
	Get(ctx context.Context, id string) (*domain.Document, error)

	// Groups returns the version groups matching q.
	Groups(ctx context.Context, q domain.DocQuery) ([]domain.DocumentGroup, error)

	// Search returns the groups of contentful documents matching text.
	Search(ctx context.Context, text string) ([]domain.DocumentGroup, error)

	// ActionItems returns groups that are outdated or still uncategorised.
	ActionItems(ctx context.Context) ([]domain.DocumentGroup, error)

	// Add validates and stores a new document.
	Add(ctx context.Context, data domain.Record) (string, error)

	// Recategorize replaces a contentless document with a contentful one.
	Recategorize(ctx context.Context, id string, data domain.Record) error

	// Update merges a patch into a document and validates the result.
	Update(ctx context.Context, id string, patch domain.Record) error
}
