package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/charterbook/internal/core/domain"
)

func employeeRecord(start time.Time, refs ...domain.DocumentRef) domain.Record {
	docRefs := make([]any, len(refs))
	for i, ref := range refs {
		docRefs[i] = string(ref)
	}
	return domain.Record{
		"docRefs":   docRefs,
		"party":     map[string]any{"name": "Ada Lovelace"},
		"startDate": edited(start),
	}
}

func (e *testEnv) enrich(t *testing.T, entity domain.Entity, raw domain.Record) (*domain.EnrichedRelation, error) {
	t.Helper()
	return e.enricher.Enrich(context.Background(), e.enricher.NewPass(), entity, "rel-1", raw)
}

func TestEnricher_Enrich_Statuses(t *testing.T) {
	env := newTestEnv(t, domain.EnrichmentSettings{})
	offer := env.putDoc(t, "offer", contentful(domain.DocTypeOfferLetter, date(2020, 1, 1)))
	employment := env.putDoc(t, "employment", contentful(domain.DocTypeEmploymentAgreement, date(2020, 1, 5)))
	assignment := env.putDoc(t, "assignment", contentful(domain.DocTypeInventionAssignment, date(2020, 1, 5)))

	ended := employeeRecord(date(2020, 1, 1), offer, employment, assignment)
	ended["endDate"] = edited(date(2022, 1, 1))

	notStarted := employeeRecord(date(2023, 1, 1), offer, employment, assignment)

	endsToday := employeeRecord(date(2020, 1, 1), offer, employment, assignment)
	endsToday["endDate"] = edited(june2022)

	tests := []struct {
		name     string
		raw      domain.Record
		status   domain.Status
		complete bool
		current  bool
	}{
		{"all slots filled and in force", employeeRecord(date(2020, 1, 1), offer, employment, assignment), domain.StatusCurrent, true, true},
		{"missing assignment", employeeRecord(date(2020, 1, 1), offer, employment), domain.StatusIncomplete, false, true},
		{"ended", ended, domain.StatusOutdated, true, false},
		{"not started", notStarted, domain.StatusOutdated, true, false},
		{"end is exclusive", endsToday, domain.StatusOutdated, true, false},
		{"incomplete wins over outdated", func() domain.Record {
			r := employeeRecord(date(2020, 1, 1), offer)
			r["endDate"] = edited(date(2021, 1, 1))
			return r
		}(), domain.StatusIncomplete, false, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := env.enrich(t, domain.EntityEmployee, tt.raw)

			require.NoError(t, err)
			assert.True(t, out.Enriched)
			assert.Equal(t, tt.status, out.Status)
			assert.Equal(t, tt.complete, out.IsComplete)
			assert.Equal(t, tt.current, out.IsCurrent)
			assert.Equal(t, "rel-1", out.ID)
		})
	}
}

func TestEnricher_Enrich_MissingSlotRendersSentinel(t *testing.T) {
	env := newTestEnv(t, domain.EnrichmentSettings{})
	offer := env.putDoc(t, "offer", contentful(domain.DocTypeOfferLetter, date(2020, 1, 1)))
	gone := domain.DocumentRef(docRef("deleted"))

	out, err := env.enrich(t, domain.EntityEmployee, employeeRecord(date(2020, 1, 1), offer, gone))
	require.NoError(t, err)

	require.Len(t, out.Docs, 2)
	assert.NotNil(t, out.Docs[0])
	assert.Nil(t, out.Docs[1])

	missing := out.MissingSlots()
	require.Len(t, missing, 2)
	assert.Equal(t, "employment", missing[0].Role)
	assert.Equal(t, "assignment", missing[1].Role)

	data, err := json.Marshal(out)
	require.NoError(t, err)

	var rendered map[string]any
	require.NoError(t, json.Unmarshal(data, &rendered))
	assert.Equal(t, map[string]any{
		"type":    "MISSING",
		"docType": string(domain.DocTypeInventionAssignment),
	}, rendered["assignment"])
	assert.Equal(t, "offer", rendered["offer"].(map[string]any)["id"])
	assert.Equal(t, "Incomplete", rendered["status"])
	assert.Equal(t, false, rendered["isComplete"])
	assert.Equal(t, []any{docRef("offer"), docRef("deleted")}, rendered["docRefs"])
}

func TestEnricher_Enrich_SlotSelection(t *testing.T) {
	tests := []struct {
		name         string
		preferLatest bool
		want         string
	}{
		{"first in reference order", false, "offer-2020"},
		{"latest start date", true, "offer-2021"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t, domain.EnrichmentSettings{PreferLatestSlot: tt.preferLatest})
			older := env.putDoc(t, "offer-2020", contentful(domain.DocTypeOfferLetter, date(2020, 1, 1)))
			newer := env.putDoc(t, "offer-2021", contentful(domain.DocTypeOfferLetter, date(2021, 1, 1)))

			out, err := env.enrich(t, domain.EntityEmployee, employeeRecord(date(2020, 1, 1), older, newer))
			require.NoError(t, err)

			slot, ok := out.Slot("offer")
			require.True(t, ok)
			require.NotNil(t, slot.Doc)
			assert.Equal(t, tt.want, slot.Doc.ID)
			assert.Equal(t, older, out.Docs[0].Ref, "docs keep reference order")
		})
	}
}

func TestEnricher_Enrich_ResolvesMetadataSources(t *testing.T) {
	env := newTestEnv(t, domain.EnrichmentSettings{})
	offer := env.putDoc(t, "offer", contentful(domain.DocTypeOfferLetter, date(2020, 1, 1)))
	raw := employeeRecord(date(2020, 1, 1), offer)
	raw["salary"] = map[string]any{"value": 120000.0, "type": "document", "sourceRef": string(offer)}

	out, err := env.enrich(t, domain.EntityEmployee, raw)
	require.NoError(t, err)

	require.NotNil(t, out.Salary)
	require.NotNil(t, out.Salary.Source)
	assert.Equal(t, "offer", out.Salary.Source.ID)
	assert.Equal(t, "$120,000.00", out.Salary.String())
	assert.Nil(t, out.StartDate.Source)
	assert.Len(t, env.store.fetchedIDs(), 1, "source shares the fetch of the doc ref")
}

func TestEnricher_Enrich_DerivesValuationExpiry(t *testing.T) {
	env := newTestEnv(t, domain.EnrichmentSettings{})
	report := env.putDoc(t, "409a", contentful(domain.DocType409AReport, date(2021, 5, 1)))
	consent := env.putDoc(t, "consent", contentful(domain.DocTypeBoardConsent, date(2021, 5, 2)))

	raw := domain.Record{
		"docRefs":   []any{string(report), string(consent)},
		"valuation": map[string]any{"value": 8000000.0, "type": "document", "sourceRef": string(report)},
		"startDate": edited(date(2021, 5, 1)),
		"endDate":   edited(date(2030, 1, 1)),
	}

	out, err := env.enrich(t, domain.EntityValuation, raw)
	require.NoError(t, err)

	require.NotNil(t, out.EndDate)
	assert.Equal(t, date(2022, 5, 1), out.EndDate.Value)
	assert.Equal(t, domain.MetadataComputed, out.EndDate.Kind)
	assert.Equal(t, domain.StatusOutdated, out.Status)

	env.enricher.SetClock(func() time.Time { return date(2021, 12, 1) })
	out, err = env.enrich(t, domain.EntityValuation, raw)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusCurrent, out.Status)
}

func TestEnricher_Enrich_WithoutTransform(t *testing.T) {
	env := newTestEnv(t, domain.EnrichmentSettings{})
	raw := domain.Record{
		"docRefs": []any{docRef("seed-spa")},
		"party":   map[string]any{"name": "Lin Ventures"},
		"shares":  edited(1000000.0),
	}

	out, err := env.enrich(t, domain.EntityPreferred, raw)

	require.NoError(t, err)
	assert.False(t, out.Enriched)
	assert.Empty(t, out.Slots)
	assert.Empty(t, out.Status)
	assert.Empty(t, env.store.calls())

	data, err := json.Marshal(out)
	require.NoError(t, err)
	assert.NotContains(t, string(data), "status")
}

func TestEnricher_Enrich_Failures(t *testing.T) {
	t.Run("unknown entity", func(t *testing.T) {
		env := newTestEnv(t, domain.EnrichmentSettings{})
		_, err := env.enrich(t, domain.Entity("unicorn"), domain.Record{})
		assert.ErrorIs(t, err, domain.ErrUnknownEntity)
	})

	t.Run("validation", func(t *testing.T) {
		env := newTestEnv(t, domain.EnrichmentSettings{})
		_, err := env.enrich(t, domain.EntityState, domain.Record{"docRefs": []any{}, "state": "Texas"})

		var verr *domain.ValidationError
		require.ErrorAs(t, err, &verr)
		assert.Equal(t, "state", verr.Field)
		assert.Empty(t, env.store.calls())
	})

	t.Run("resolution", func(t *testing.T) {
		env := newTestEnv(t, domain.EnrichmentSettings{})
		offer := env.putDoc(t, "offer", contentful(domain.DocTypeOfferLetter, date(2020, 1, 1)))
		env.store.getManyErr = errors.New("timeout")

		out, err := env.enrich(t, domain.EntityEmployee, employeeRecord(date(2020, 1, 1), offer))

		assert.Nil(t, out)
		assert.ErrorIs(t, err, domain.ErrResolution)
		assert.Equal(t, 1, env.observer.failed)
	})
}

func TestEnricher_ToStorageShape_RoundTrip(t *testing.T) {
	env := newTestEnv(t, domain.EnrichmentSettings{})
	types := []domain.DocType{
		domain.DocTypeOfferLetter,
		domain.DocTypeEmploymentAgreement,
		domain.DocTypeInventionAssignment,
		domain.DocType409AReport,
		domain.DocTypeBoardConsent,
	}
	var pool []domain.DocumentRef
	for i, dt := range types {
		pool = append(pool, env.putDoc(t, fmt.Sprintf("doc-%d", i), contentful(dt, date(2020, time.Month(i+1), 1))))
	}
	pool = append(pool, domain.DocumentRef(docRef("absent")))

	rng := rand.New(rand.NewSource(7))
	randomDate := func() time.Time {
		return date(2018+rng.Intn(8), time.Month(1+rng.Intn(12)), 1+rng.Intn(28))
	}
	randomMeta := func(value any) map[string]any {
		if rng.Intn(2) == 0 {
			return edited(value)
		}
		if t, ok := value.(time.Time); ok {
			value = domain.FormatTime(t)
		}
		return map[string]any{"value": value, "type": "document", "sourceRef": string(pool[rng.Intn(len(pool))])}
	}
	randomRefs := func() []any {
		refs := make([]any, rng.Intn(5))
		for i := range refs {
			refs[i] = string(pool[rng.Intn(len(pool))])
		}
		return refs
	}

	for i := 0; i < 200; i++ {
		entity := domain.EntityEmployee
		raw := domain.Record{"docRefs": randomRefs(), "startDate": randomMeta(randomDate())}
		if i%2 == 0 {
			entity = domain.EntityValuation
			raw["valuation"] = randomMeta(float64(rng.Intn(10_000_000)))
		} else {
			raw["party"] = map[string]any{"name": fmt.Sprintf("Person %d", i)}
			raw["salary"] = randomMeta(float64(rng.Intn(300_000)) + 0.25)
			if rng.Intn(2) == 0 {
				raw["endDate"] = randomMeta(randomDate())
			}
		}

		def, err := env.registry.Lookup(entity)
		require.NoError(t, err)
		validated, err := def.Schema.Validate(raw)
		require.NoError(t, err)

		enriched, err := env.enrich(t, entity, raw)
		require.NoError(t, err)
		stored, err := env.registry.ToStorageShape(enriched)
		require.NoError(t, err)

		require.Equal(t, def.Schema.Encode(validated), stored, "iteration %d", i)
	}
}
