package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/charterbook/internal/core/domain"
)

func TestMustDefaultRegistry(t *testing.T) {
	r := MustDefaultRegistry()

	entities := r.Entities()
	assert.Len(t, entities, 14)
	assert.Equal(t, domain.EntityState, entities[0])
	assert.Equal(t, domain.EntityValuation, entities[len(entities)-1])

	for _, e := range entities {
		def, err := r.Lookup(e)
		require.NoError(t, err, e)
		assert.Equal(t, e, def.Schema.Entity)
	}
}

func TestRegistry_EntitiesIsACopy(t *testing.T) {
	r := MustDefaultRegistry()

	entities := r.Entities()
	entities[0] = "tampered"

	assert.Equal(t, domain.EntityState, r.Entities()[0])
}

func TestRegistry_Lookup_Unknown(t *testing.T) {
	_, err := MustDefaultRegistry().Lookup("unicorn")

	assert.ErrorIs(t, err, domain.ErrUnknownEntity)
	assert.Contains(t, err.Error(), "unicorn")
}

func TestNewRegistry_Rejects(t *testing.T) {
	valid := func() *domain.Schema {
		return &domain.Schema{
			Entity: domain.EntityContractor,
			Enrich: true,
			Fields: []domain.Field{fieldParty, fieldStartDate},
			Roles:  []domain.Role{{Name: "agreement", DocType: domain.DocTypeContractorAgreement}},
		}
	}

	tests := []struct {
		name string
		defs []Definition
	}{
		{"nil schema", []Definition{{}}},
		{"duplicate entity", []Definition{{Schema: valid()}, {Schema: valid()}}},
		{"derive without derived fields", []Definition{{Schema: valid(), Derive: deriveValuationExpiry}}},
		{"unusable schema", []Definition{{Schema: &domain.Schema{
			Entity: domain.EntityContractor,
			Roles:  []domain.Role{{Name: "agreement", DocType: domain.DocTypeContractorAgreement}},
		}}}},
		{"contentless role", []Definition{{Schema: &domain.Schema{
			Entity: domain.EntityContractor,
			Enrich: true,
			Roles:  []domain.Role{{Name: "inbox", DocType: domain.DocTypeUncategorized}},
		}}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, err := NewRegistry(tt.defs...)

			assert.Nil(t, r)
			assert.ErrorIs(t, err, domain.ErrInvalidConfiguration)
			var cerr *domain.ConfigurationError
			assert.ErrorAs(t, err, &cerr)
		})
	}
}

func TestRegistry_ToStorageShape(t *testing.T) {
	r := MustDefaultRegistry()
	report := domain.DocumentRef(docRef("409a"))

	enriched := &domain.EnrichedRelation{
		Relation: domain.Relation{
			ID:        "v1",
			DocRefs:   []domain.DocumentRef{report},
			StartDate: domain.Edited(date(2021, 5, 1)),
			EndDate:   domain.Computed(date(2022, 5, 1)),
			Valuation: &domain.MetadataPrice{
				Value:     8_000_000,
				Kind:      domain.MetadataDocument,
				SourceRef: report,
				Source:    &domain.Document{ID: "409a", Type: domain.DocType409AReport},
			},
		},
		Entity:     domain.EntityValuation,
		Enriched:   true,
		IsComplete: true,
		Status:     domain.StatusCurrent,
	}

	rec, err := r.ToStorageShape(enriched)
	require.NoError(t, err)

	assert.Equal(t, domain.Record{
		"docRefs":   []any{string(report)},
		"startDate": map[string]any{"value": "2021-05-01T00:00:00Z", "type": "edited"},
		"valuation": map[string]any{"value": 8_000_000.0, "type": "document", "sourceRef": string(report)},
	}, rec)
	assert.NotNil(t, enriched.Valuation.Source, "input is not modified")
	assert.NotNil(t, enriched.EndDate)
}

func TestRegistry_ToStorageShape_UnknownEntity(t *testing.T) {
	_, err := MustDefaultRegistry().ToStorageShape(&domain.EnrichedRelation{Entity: "unicorn"})

	assert.ErrorIs(t, err, domain.ErrUnknownEntity)
}
