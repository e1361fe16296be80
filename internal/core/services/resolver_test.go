package services

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/charterbook/internal/core/domain"
)

func TestLoader_ResolveMany_FetchesEachRefOnce(t *testing.T) {
	env := newTestEnv(t, domain.EnrichmentSettings{})
	a := env.putDoc(t, "a", contentful(domain.DocTypeOfferLetter, date(2020, 1, 1)))
	b := env.putDoc(t, "b", contentful(domain.DocTypeBoardConsent, date(2020, 2, 1)))
	missing := domain.DocumentRef(docRef("missing"))

	loader := env.resolver.NewLoader()
	docs, err := loader.ResolveMany(context.Background(), []domain.DocumentRef{a, b, a, missing})

	require.NoError(t, err)
	require.Len(t, docs, 4)
	assert.Equal(t, "a", docs[0].ID)
	assert.Equal(t, a, docs[0].Ref)
	assert.Equal(t, domain.DocTypeBoardConsent, docs[1].Type)
	assert.Same(t, docs[0], docs[2])
	assert.Nil(t, docs[3])
	assert.ElementsMatch(t, []string{"a", "b", "missing"}, env.store.fetchedIDs())

	// A second resolution on the same loader is served from its cache.
	doc, err := loader.Resolve(context.Background(), b)
	require.NoError(t, err)
	assert.Equal(t, "b", doc.ID)
	assert.Len(t, env.store.fetchedIDs(), 3)
}

func TestLoader_SeparatePassesDoNotShareCache(t *testing.T) {
	env := newTestEnv(t, domain.EnrichmentSettings{})
	a := env.putDoc(t, "a", contentful(domain.DocTypeOfferLetter, date(2020, 1, 1)))

	_, err := env.resolver.NewLoader().Resolve(context.Background(), a)
	require.NoError(t, err)
	_, err = env.resolver.NewLoader().Resolve(context.Background(), a)
	require.NoError(t, err)

	assert.Equal(t, []string{"a", "a"}, env.store.fetchedIDs())
}

func TestLoader_GroupsByCollection(t *testing.T) {
	env := newTestEnv(t, domain.EnrichmentSettings{})
	a := env.putDoc(t, "a", contentful(domain.DocTypeOfferLetter, date(2020, 1, 1)))

	other := domain.OrgCollection("other", domain.DocumentCollection)
	require.NoError(t, env.store.Set(context.Background(), other, "x",
		contentful(domain.DocTypeBoardConsent, date(2021, 1, 1))))
	x := domain.NewDocumentRef(other, "x")

	docs, err := env.resolver.NewLoader().ResolveMany(context.Background(), []domain.DocumentRef{a, x})

	require.NoError(t, err)
	require.Len(t, docs, 2)
	assert.Equal(t, x, docs[1].Ref)
	assert.ElementsMatch(t, [][]string{{"a"}, {"x"}}, env.store.calls())
	assert.Equal(t, 2, env.observer.batches)
}

func TestLoader_InvalidRefIsNil(t *testing.T) {
	env := newTestEnv(t, domain.EnrichmentSettings{})

	doc, err := env.resolver.NewLoader().Resolve(context.Background(), domain.DocumentRef("no-collection"))

	require.NoError(t, err)
	assert.Nil(t, doc)
	assert.Empty(t, env.store.calls())
}

func TestLoader_StoreFailureIsResolutionError(t *testing.T) {
	env := newTestEnv(t, domain.EnrichmentSettings{})
	a := env.putDoc(t, "a", contentful(domain.DocTypeOfferLetter, date(2020, 1, 1)))
	storeErr := errors.New("connection reset")
	env.store.getManyErr = storeErr

	docs, err := env.resolver.NewLoader().ResolveMany(context.Background(), []domain.DocumentRef{a})

	require.Error(t, err)
	assert.Nil(t, docs)
	assert.ErrorIs(t, err, domain.ErrResolution)
	assert.ErrorIs(t, err, storeErr)

	var resErr *domain.ResolutionError
	require.ErrorAs(t, err, &resErr)
	assert.Equal(t, a, resErr.Ref)
}

func TestLoader_InvalidStoredDocumentFails(t *testing.T) {
	env := newTestEnv(t, domain.EnrichmentSettings{})
	bad := env.putDoc(t, "bad", domain.Record{"type": string(domain.DocTypeOfferLetter)})

	_, err := env.resolver.NewLoader().Resolve(context.Background(), bad)

	require.Error(t, err)
	var verr *domain.ValidationError
	assert.ErrorAs(t, err, &verr)
}

func TestNewResolver_DefaultsBatchCapacity(t *testing.T) {
	r := NewResolver(newCountingStore(), domain.ResolverSettings{}, nil)

	assert.Equal(t, domain.DefaultAppSettings().Resolver.BatchCapacity, r.settings.BatchCapacity)
}
