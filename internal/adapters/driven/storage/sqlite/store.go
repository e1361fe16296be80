package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite" // SQLite driver

	"github.com/custodia-labs/charterbook/internal/adapters/driven/storage/broadcast"
	"github.com/custodia-labs/charterbook/internal/adapters/driven/storage/sqlite/migrations"
	"github.com/custodia-labs/charterbook/internal/core/domain"
	"github.com/custodia-labs/charterbook/internal/core/ports/driven"
)

// DBFile is the database file name inside the data directory.
const DBFile = "charterbook.db"

// changeRetention is how many change rows survive a reopen.
const changeRetention = 10000

// Ensure Store implements the interface.
var _ driven.DocumentStore = (*Store)(nil)

// Store is a SQLite-backed document store.
type Store struct {
	db   *sql.DB
	path string
	hub  *broadcast.Hub

	pollMu  sync.Mutex
	lastSeq int64

	watchOnce sync.Once
	watchErr  error
	done      chan struct{}
	closeOnce sync.Once
}

// NewStore opens (or creates) the database inside dataDir.
// If dataDir is empty, defaults to ~/.charterbook/data.
func NewStore(dataDir string) (*Store, error) {
	if dataDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("getting home directory: %w", err)
		}
		dataDir = filepath.Join(home, ".charterbook", "data")
	}

	if err := os.MkdirAll(dataDir, 0700); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}

	dbPath := filepath.Join(dataDir, DBFile)

	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_txlock=immediate")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &Store{
		db:   db,
		path: dbPath,
		hub:  broadcast.NewHub(),
		done: make(chan struct{}),
	}

	if err := s.migrate(migrations.FS); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	if err := s.compactChanges(); err != nil {
		db.Close()
		return nil, err
	}

	return s, nil
}

// Close stops the change watcher and closes the database connection.
func (s *Store) Close() error {
	s.closeOnce.Do(func() {
		close(s.done)
		s.hub.Close()
	})
	return s.db.Close()
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.path
}

// migrate applies every NNN_name.up.sql newer than the recorded version.
func (s *Store) migrate(fsys fs.FS) error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)
	`)
	if err != nil {
		return fmt.Errorf("creating schema_migrations table: %w", err)
	}

	var currentVersion int
	row := s.db.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_migrations")
	if err := row.Scan(&currentVersion); err != nil {
		return fmt.Errorf("getting current version: %w", err)
	}

	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return fmt.Errorf("reading migrations directory: %w", err)
	}

	var upFiles []string
	for _, entry := range entries {
		if strings.HasSuffix(entry.Name(), ".up.sql") {
			upFiles = append(upFiles, entry.Name())
		}
	}
	sort.Strings(upFiles)

	for _, name := range upFiles {
		var version int
		if _, err := fmt.Sscanf(name, "%d_", &version); err != nil {
			continue
		}
		if version <= currentVersion {
			continue
		}

		content, err := fs.ReadFile(fsys, name)
		if err != nil {
			return fmt.Errorf("reading migration %s: %w", name, err)
		}

		tx, err := s.db.Begin()
		if err != nil {
			return fmt.Errorf("beginning migration %s: %w", name, err)
		}
		if _, err := tx.Exec(string(content)); err != nil {
			tx.Rollback()
			return fmt.Errorf("executing migration %s: %w", name, err)
		}
		if _, err := tx.Exec("INSERT INTO schema_migrations (version) VALUES (?)", version); err != nil {
			tx.Rollback()
			return fmt.Errorf("recording migration %s: %w", name, err)
		}
		if err := tx.Commit(); err != nil {
			return fmt.Errorf("committing migration %s: %w", name, err)
		}
	}

	return nil
}

// compactChanges trims the change log and positions the feed at its tail.
func (s *Store) compactChanges() error {
	var maxSeq int64
	if err := s.db.QueryRow("SELECT COALESCE(MAX(seq), 0) FROM changes").Scan(&maxSeq); err != nil {
		return fmt.Errorf("reading change log: %w", err)
	}
	if _, err := s.db.Exec("DELETE FROM changes WHERE seq <= ?", maxSeq-changeRetention); err != nil {
		return fmt.Errorf("compacting change log: %w", err)
	}
	s.lastSeq = maxSeq
	return nil
}

// Get retrieves a record.
func (s *Store) Get(ctx context.Context, collection, id string) (domain.Record, error) {
	var data string
	err := s.db.QueryRowContext(ctx,
		"SELECT data FROM records WHERE collection = ? AND id = ?", collection, id,
	).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("getting record: %w", err)
	}
	return decodeRecord(data)
}

// GetMany retrieves several records with one query.
func (s *Store) GetMany(ctx context.Context, collection string, ids []string) ([]domain.Record, error) {
	out := make([]domain.Record, len(ids))
	if len(ids) == 0 {
		return out, nil
	}

	args := make([]any, 0, len(ids)+1)
	args = append(args, collection)
	for _, id := range ids {
		args = append(args, id)
	}
	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(ids)), ",")

	rows, err := s.db.QueryContext(ctx,
		"SELECT id, data FROM records WHERE collection = ? AND id IN ("+placeholders+")", args...)
	if err != nil {
		return nil, fmt.Errorf("getting records: %w", err)
	}
	defer rows.Close()

	found := make(map[string]string, len(ids))
	for rows.Next() {
		var id, data string
		if err := rows.Scan(&id, &data); err != nil {
			return nil, fmt.Errorf("scanning record: %w", err)
		}
		found[id] = data
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating records: %w", err)
	}

	for i, id := range ids {
		data, ok := found[id]
		if !ok {
			continue
		}
		rec, err := decodeRecord(data)
		if err != nil {
			return nil, err
		}
		out[i] = rec
	}
	return out, nil
}

// Query returns the matching records of a collection. Equality filters on
// plain text run in SQL; the full query is then applied to the candidates.
func (s *Store) Query(ctx context.Context, collection string, q domain.Query) ([]domain.StoredRecord, error) {
	stmt := "SELECT id, data FROM records WHERE collection = ?"
	args := []any{collection}

	eq := q.TextEqualities()
	fields := make([]string, 0, len(eq))
	for field := range eq {
		fields = append(fields, field)
	}
	sort.Strings(fields)
	for _, field := range fields {
		stmt += " AND json_extract(data, ?) = ?"
		args = append(args, jsonPath(field), eq[field])
	}

	rows, err := s.db.QueryContext(ctx, stmt, args...)
	if err != nil {
		return nil, fmt.Errorf("querying records: %w", err)
	}
	defer rows.Close()

	var records []domain.StoredRecord
	for rows.Next() {
		var id, data string
		if err := rows.Scan(&id, &data); err != nil {
			return nil, fmt.Errorf("scanning record: %w", err)
		}
		rec, err := decodeRecord(data)
		if err != nil {
			return nil, err
		}
		records = append(records, domain.StoredRecord{ID: id, Data: rec})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating records: %w", err)
	}

	return q.Apply(records), nil
}

// Add stores a record under a new UUID.
func (s *Store) Add(ctx context.Context, collection string, data domain.Record) (string, error) {
	id := uuid.NewString()
	if err := s.Set(ctx, collection, id, data); err != nil {
		return "", err
	}
	return id, nil
}

// Set creates or replaces a record.
func (s *Store) Set(ctx context.Context, collection, id string, data domain.Record) error {
	encoded, err := encodeRecord(data)
	if err != nil {
		return err
	}

	err = s.write(ctx, func(tx *sql.Tx, now time.Time) (domain.ChangeType, error) {
		var exists int
		err := tx.QueryRowContext(ctx,
			"SELECT COUNT(*) FROM records WHERE collection = ? AND id = ?", collection, id,
		).Scan(&exists)
		if err != nil {
			return 0, fmt.Errorf("checking record: %w", err)
		}

		_, err = tx.ExecContext(ctx, `
			INSERT INTO records (collection, id, data, created_at, updated_at)
			VALUES (?, ?, ?, ?, ?)
			ON CONFLICT(collection, id) DO UPDATE SET
				data = excluded.data,
				updated_at = excluded.updated_at
		`, collection, id, encoded, now, now)
		if err != nil {
			return 0, fmt.Errorf("saving record: %w", err)
		}

		if exists > 0 {
			return domain.ChangeUpdated, nil
		}
		return domain.ChangeCreated, nil
	}, collection, id)
	return err
}

// Update deep-merges patch into an existing record.
func (s *Store) Update(ctx context.Context, collection, id string, patch domain.Record) error {
	encodedPatch, err := encodeRecord(patch)
	if err != nil {
		return err
	}
	normalised, err := decodeRecord(encodedPatch)
	if err != nil {
		return err
	}

	return s.write(ctx, func(tx *sql.Tx, now time.Time) (domain.ChangeType, error) {
		var data string
		err := tx.QueryRowContext(ctx,
			"SELECT data FROM records WHERE collection = ? AND id = ?", collection, id,
		).Scan(&data)
		if errors.Is(err, sql.ErrNoRows) {
			return 0, domain.ErrNotFound
		}
		if err != nil {
			return 0, fmt.Errorf("getting record: %w", err)
		}

		rec, err := decodeRecord(data)
		if err != nil {
			return 0, err
		}
		rec.Merge(normalised)

		encoded, err := encodeRecord(rec)
		if err != nil {
			return 0, err
		}
		_, err = tx.ExecContext(ctx,
			"UPDATE records SET data = ?, updated_at = ? WHERE collection = ? AND id = ?",
			encoded, now, collection, id)
		if err != nil {
			return 0, fmt.Errorf("updating record: %w", err)
		}
		return domain.ChangeUpdated, nil
	}, collection, id)
}

// Delete removes a record.
func (s *Store) Delete(ctx context.Context, collection, id string) error {
	return s.write(ctx, func(tx *sql.Tx, _ time.Time) (domain.ChangeType, error) {
		result, err := tx.ExecContext(ctx,
			"DELETE FROM records WHERE collection = ? AND id = ?", collection, id)
		if err != nil {
			return 0, fmt.Errorf("deleting record: %w", err)
		}
		n, err := result.RowsAffected()
		if err != nil {
			return 0, fmt.Errorf("checking rows affected: %w", err)
		}
		if n == 0 {
			return 0, domain.ErrNotFound
		}
		return domain.ChangeDeleted, nil
	}, collection, id)
}

// write runs fn in a transaction, logs the change it reports and feeds
// in-process watchers once committed.
func (s *Store) write(
	ctx context.Context,
	fn func(tx *sql.Tx, now time.Time) (domain.ChangeType, error),
	collection, id string,
) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	now := time.Now().UTC()
	change, err := fn(tx, now)
	if err != nil {
		return err
	}

	_, err = tx.ExecContext(ctx,
		"INSERT INTO changes (collection, record_id, change, changed_at) VALUES (?, ?, ?, ?)",
		collection, id, change.String(), now)
	if err != nil {
		return fmt.Errorf("logging change: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}

	s.poll(context.WithoutCancel(ctx))
	return nil
}

func encodeRecord(data domain.Record) (string, error) {
	if data == nil {
		data = domain.Record{}
	}
	raw, err := json.Marshal(data)
	if err != nil {
		return "", fmt.Errorf("marshalling record: %w", err)
	}
	return string(raw), nil
}

func decodeRecord(data string) (domain.Record, error) {
	rec := domain.Record{}
	if err := json.Unmarshal([]byte(data), &rec); err != nil {
		return nil, fmt.Errorf("unmarshalling record: %w", err)
	}
	return rec, nil
}

// jsonPath converts a dotted field path to a quoted SQLite JSON path.
func jsonPath(field string) string {
	var b strings.Builder
	b.WriteString("$")
	for _, part := range strings.Split(field, ".") {
		b.WriteString(".")
		b.WriteString(strconv.Quote(part))
	}
	return b.String()
}
