// Package storetest holds behaviour every driven.DocumentStore must share.
package storetest

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/charterbook/internal/core/domain"
	"github.com/custodia-labs/charterbook/internal/core/ports/driven"
)

// Run exercises store against the DocumentStore contract. Each subtest
// writes to its own collection so backends may share one server.
func Run(t *testing.T, store driven.DocumentStore) {
	t.Helper()

	t.Run("get missing", func(t *testing.T) {
		_, err := store.Get(context.Background(), collection(), "nope")
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})

	t.Run("set get replace", func(t *testing.T) {
		ctx := context.Background()
		c := collection()

		require.NoError(t, store.Set(ctx, c, "e1", domain.Record{"name": "Ada", "shares": 100, "refs": []any{"a"}}))
		rec, err := store.Get(ctx, c, "e1")
		require.NoError(t, err)
		assert.Equal(t, domain.Record{"name": "Ada", "shares": 100.0, "refs": []any{"a"}}, rec)

		require.NoError(t, store.Set(ctx, c, "e1", domain.Record{"name": "Grace"}))
		rec, err = store.Get(ctx, c, "e1")
		require.NoError(t, err)
		assert.Equal(t, domain.Record{"name": "Grace"}, rec)
	})

	t.Run("add", func(t *testing.T) {
		ctx := context.Background()
		c := collection()

		id, err := store.Add(ctx, c, domain.Record{"n": 1})
		require.NoError(t, err)
		assert.NotEmpty(t, id)

		rec, err := store.Get(ctx, c, id)
		require.NoError(t, err)
		assert.Equal(t, 1.0, rec["n"])
	})

	t.Run("get many", func(t *testing.T) {
		ctx := context.Background()
		c := collection()
		require.NoError(t, store.Set(ctx, c, "a", domain.Record{"n": "a"}))
		require.NoError(t, store.Set(ctx, c, "b", domain.Record{"n": "b"}))

		got, err := store.GetMany(ctx, c, []string{"b", "x", "a"})
		require.NoError(t, err)
		require.Len(t, got, 3)
		assert.Equal(t, "b", got[0]["n"])
		assert.Nil(t, got[1])
		assert.Equal(t, "a", got[2]["n"])
	})

	t.Run("update merges", func(t *testing.T) {
		ctx := context.Background()
		c := collection()
		require.NoError(t, store.Set(ctx, c, "e1", domain.Record{
			"name":     "Ada",
			"refs":     []any{"a", "b"},
			"metadata": map[string]any{"shares": map[string]any{"value": 10, "sourceRef": "d1"}},
		}))

		require.NoError(t, store.Update(ctx, c, "e1", domain.Record{
			"refs":     []any{"c"},
			"metadata": map[string]any{"shares": map[string]any{"value": 20}},
		}))

		rec, err := store.Get(ctx, c, "e1")
		require.NoError(t, err)
		assert.Equal(t, "Ada", rec["name"])
		assert.Equal(t, []any{"c"}, rec["refs"])
		shares, _ := rec.Lookup("metadata.shares")
		assert.Equal(t, map[string]any{"value": 20.0, "sourceRef": "d1"}, shares)

		assert.ErrorIs(t, store.Update(ctx, c, "missing", domain.Record{"a": 1}), domain.ErrNotFound)
	})

	t.Run("delete", func(t *testing.T) {
		ctx := context.Background()
		c := collection()
		require.NoError(t, store.Set(ctx, c, "e1", domain.Record{}))

		require.NoError(t, store.Delete(ctx, c, "e1"))
		_, err := store.Get(ctx, c, "e1")
		assert.ErrorIs(t, err, domain.ErrNotFound)
		assert.ErrorIs(t, store.Delete(ctx, c, "e1"), domain.ErrNotFound)
	})

	t.Run("query", func(t *testing.T) {
		ctx := context.Background()
		c := collection()
		require.NoError(t, store.Set(ctx, c, "e1", domain.Record{"team": "eng", "level": 2, "info": map[string]any{"city": "Oslo"}}))
		require.NoError(t, store.Set(ctx, c, "e2", domain.Record{"team": "ops", "level": 1, "info": map[string]any{"city": "Lima"}}))
		require.NoError(t, store.Set(ctx, c, "e3", domain.Record{"team": "eng", "level": 3, "info": map[string]any{"city": "Lima"}}))

		tests := []struct {
			name  string
			query domain.Query
			want  []string
		}{
			{"all", domain.Query{}, []string{"e1", "e2", "e3"}},
			{"text", domain.Query{}.Where("team", "eng"), []string{"e1", "e3"}},
			{"nested", domain.Query{}.Where("info.city", "Lima").Where("team", "eng"), []string{"e3"}},
			{"number as text", domain.Query{}.Where("level", "2"), []string{"e1"}},
			{"ordered", domain.Query{OrderBy: "level", Descending: true}, []string{"e3", "e1", "e2"}},
			{"limited", domain.Query{OrderBy: "level", Limit: 1}, []string{"e2"}},
		}
		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				got, err := store.Query(ctx, c, tt.query)
				require.NoError(t, err)
				assert.Equal(t, tt.want, IDs(got))
			})
		}
	})

	t.Run("watch", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		c := collection()

		events, err := store.Watch(ctx, c)
		require.NoError(t, err)

		require.NoError(t, store.Set(ctx, c, "e1", domain.Record{}))
		require.NoError(t, store.Update(ctx, c, "e1", domain.Record{"a": 1}))
		require.NoError(t, store.Delete(ctx, c, "e1"))
		require.NoError(t, store.Set(ctx, collection(), "other", domain.Record{}))

		for _, want := range []domain.ChangeType{domain.ChangeCreated, domain.ChangeUpdated, domain.ChangeDeleted} {
			ev := NextEvent(t, events, 5*time.Second)
			assert.Equal(t, want, ev.Type)
			assert.Equal(t, c, ev.Collection)
			assert.Equal(t, "e1", ev.ID)
		}

		cancel()
		require.Eventually(t, func() bool {
			select {
			case _, ok := <-events:
				return !ok
			default:
				return false
			}
		}, 5*time.Second, 10*time.Millisecond)
	})
}

// NextEvent waits for one change event.
func NextEvent(t *testing.T, events <-chan domain.ChangeEvent, timeout time.Duration) domain.ChangeEvent {
	t.Helper()
	select {
	case ev, ok := <-events:
		require.True(t, ok, "event channel closed")
		return ev
	case <-time.After(timeout):
		t.Fatal("timed out waiting for change event")
		return domain.ChangeEvent{}
	}
}

// IDs returns the record ids in order.
func IDs(records []domain.StoredRecord) []string {
	ids := make([]string, len(records))
	for i := range records {
		ids[i] = records[i].ID
	}
	return ids
}

func collection() string {
	return domain.OrgCollection("test-"+uuid.NewString()[:8], "employee")
}
