package sqlite

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/charterbook/internal/adapters/driven/storage/storetest"
	"github.com/custodia-labs/charterbook/internal/core/domain"
)

const employees = "org/acme/employee"

// setupTestStore creates a temporary SQLite store for testing.
func setupTestStore(t *testing.T) (*Store, string, func()) {
	t.Helper()

	tempDir, err := os.MkdirTemp("", "charterbook-test-*")
	require.NoError(t, err)

	store, err := NewStore(tempDir)
	require.NoError(t, err)
	require.NotNil(t, store)

	cleanup := func() {
		assert.NoError(t, store.Close())
		assert.NoError(t, os.RemoveAll(tempDir))
	}

	return store, tempDir, cleanup
}

func TestStore_Conformance(t *testing.T) {
	store, _, cleanup := setupTestStore(t)
	defer cleanup()
	storetest.Run(t, store)
}

func TestStore_QueryPushesTextFiltersDown(t *testing.T) {
	store, _, cleanup := setupTestStore(t)
	defer cleanup()
	ctx := context.Background()

	require.NoError(t, store.Set(ctx, employees, "e1", domain.Record{"party": map[string]any{"name": "Ada"}}))
	require.NoError(t, store.Set(ctx, employees, "e2", domain.Record{"party": map[string]any{"name": "Grace"}}))
	require.NoError(t, store.Set(ctx, employees, "e3", domain.Record{"party": "Ada"}))

	got, err := store.Query(ctx, employees, domain.Query{}.Where("party.name", "Ada"))
	require.NoError(t, err)
	assert.Equal(t, []string{"e1"}, storetest.IDs(got))
}

func TestNewStore_CreatesDatabase(t *testing.T) {
	store, dir, cleanup := setupTestStore(t)
	defer cleanup()

	assert.Equal(t, filepath.Join(dir, DBFile), store.Path())
	_, err := os.Stat(store.Path())
	assert.NoError(t, err)

	var version int
	require.NoError(t, store.db.QueryRow("SELECT MAX(version) FROM schema_migrations").Scan(&version))
	assert.Equal(t, 1, version)
}

func TestNewStore_ReopenKeepsData(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	first, err := NewStore(dir)
	require.NoError(t, err)
	require.NoError(t, first.Set(ctx, employees, "e1", domain.Record{"name": "Ada"}))
	require.NoError(t, first.Close())

	second, err := NewStore(dir)
	require.NoError(t, err)
	defer second.Close()

	rec, err := second.Get(ctx, employees, "e1")
	require.NoError(t, err)
	assert.Equal(t, "Ada", rec["name"])
}

func TestStore_WatchSeesOtherConnections(t *testing.T) {
	watching, dir, cleanup := setupTestStore(t)
	defer cleanup()

	writer, err := NewStore(dir)
	require.NoError(t, err)
	defer writer.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	events, err := watching.Watch(ctx, employees)
	require.NoError(t, err)

	require.NoError(t, writer.Set(ctx, employees, "e9", domain.Record{"name": "Hopper"}))

	ev := storetest.NextEvent(t, events, 5*time.Second)
	assert.Equal(t, "e9", ev.ID)
	assert.Equal(t, domain.ChangeCreated, ev.Type)
}

func TestHandleFsEvent(t *testing.T) {
	store := &Store{path: filepath.Join("/data", DBFile)}

	tests := []struct {
		name  string
		event fsnotify.Event
		want  bool
	}{
		{"db write", fsnotify.Event{Name: "/data/" + DBFile, Op: fsnotify.Write}, true},
		{"wal write", fsnotify.Event{Name: "/data/" + DBFile + "-wal", Op: fsnotify.Write}, true},
		{"wal create", fsnotify.Event{Name: "/data/" + DBFile + "-wal", Op: fsnotify.Create}, true},
		{"shm write", fsnotify.Event{Name: "/data/" + DBFile + "-shm", Op: fsnotify.Write}, false},
		{"db chmod", fsnotify.Event{Name: "/data/" + DBFile, Op: fsnotify.Chmod}, false},
		{"db remove", fsnotify.Event{Name: "/data/" + DBFile, Op: fsnotify.Remove}, false},
		{"other file", fsnotify.Event{Name: "/data/notes.txt", Op: fsnotify.Write}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, store.handleFsEvent(tt.event))
		})
	}
}

func TestJSONPath(t *testing.T) {
	assert.Equal(t, `$."team"`, jsonPath("team"))
	assert.Equal(t, `$."metadata"."shares"."value"`, jsonPath("metadata.shares.value"))
}
