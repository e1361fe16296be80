// Package postgres implements driven.DocumentStore on PostgreSQL.
//
// Records of every collection live in one jsonb table. Writes raise a
// pg_notify on the charterbook_changes channel inside their transaction, and
// watchers share a single LISTEN connection per store.
package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/custodia-labs/charterbook/internal/adapters/driven/storage/broadcast"
	"github.com/custodia-labs/charterbook/internal/core/domain"
	"github.com/custodia-labs/charterbook/internal/core/ports/driven"
)

// NotifyChannel is the LISTEN/NOTIFY channel carrying change events.
const NotifyChannel = "charterbook_changes"

const schema = `
CREATE TABLE IF NOT EXISTS charterbook_records (
    collection TEXT NOT NULL,
    id TEXT NOT NULL,
    data JSONB NOT NULL,
    created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
    updated_at TIMESTAMPTZ NOT NULL DEFAULT now(),
    PRIMARY KEY (collection, id)
);
CREATE INDEX IF NOT EXISTS idx_charterbook_records_data ON charterbook_records USING GIN (data jsonb_path_ops);
`

// Ensure Store implements the interface.
var _ driven.DocumentStore = (*Store)(nil)

// Store is a PostgreSQL-backed document store.
type Store struct {
	pool *pgxpool.Pool
	hub  *broadcast.Hub

	listenOnce sync.Once
	listenErr  error
	listenCtx  context.Context
	stop       context.CancelFunc
	listening  sync.WaitGroup
}

// NewStore connects to dsn and ensures the schema exists.
func NewStore(ctx context.Context, dsn string) (*Store, error) {
	if dsn == "" {
		return nil, fmt.Errorf("%w: postgres dsn is empty", domain.ErrInvalidConfiguration)
	}

	poolConfig, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to parse database URL: %w", err)
	}
	if poolConfig.MaxConnIdleTime == 0 {
		poolConfig.MaxConnIdleTime = 30 * time.Minute
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	if _, err := pool.Exec(ctx, schema); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}

	listenCtx, stop := context.WithCancel(context.Background())
	return &Store{pool: pool, hub: broadcast.NewHub(), listenCtx: listenCtx, stop: stop}, nil
}

// Close stops the listener and closes the pool.
func (s *Store) Close() error {
	s.stop()
	s.listening.Wait()
	s.hub.Close()
	s.pool.Close()
	return nil
}

// Get retrieves a record.
func (s *Store) Get(ctx context.Context, collection, id string) (domain.Record, error) {
	var data []byte
	err := s.pool.QueryRow(ctx,
		`SELECT data FROM charterbook_records WHERE collection = $1 AND id = $2`, collection, id,
	).Scan(&data)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get record: %w", err)
	}
	return decodeRecord(data)
}

// GetMany retrieves several records with one query.
func (s *Store) GetMany(ctx context.Context, collection string, ids []string) ([]domain.Record, error) {
	out := make([]domain.Record, len(ids))
	if len(ids) == 0 {
		return out, nil
	}

	rows, err := s.pool.Query(ctx,
		`SELECT id, data FROM charterbook_records WHERE collection = $1 AND id = ANY($2)`, collection, ids)
	if err != nil {
		return nil, fmt.Errorf("get records: %w", err)
	}
	defer rows.Close()

	found := make(map[string][]byte, len(ids))
	for rows.Next() {
		var (
			id   string
			data []byte
		)
		if err := rows.Scan(&id, &data); err != nil {
			return nil, fmt.Errorf("scan record: %w", err)
		}
		found[id] = data
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate records: %w", err)
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

// Query returns the matching records of a collection. Text equality filters
// become a jsonb containment test; the full query is applied afterwards.
func (s *Store) Query(ctx context.Context, collection string, q domain.Query) ([]domain.StoredRecord, error) {
	stmt := `SELECT id, data FROM charterbook_records WHERE collection = $1`
	args := []any{collection}

	if doc := containment(q.TextEqualities()); len(doc) > 0 {
		raw, err := json.Marshal(doc)
		if err != nil {
			return nil, fmt.Errorf("encode filter: %w", err)
		}
		stmt += ` AND data @> $2::jsonb`
		args = append(args, string(raw))
	}

	rows, err := s.pool.Query(ctx, stmt, args...)
	if err != nil {
		return nil, fmt.Errorf("query records: %w", err)
	}
	defer rows.Close()

	var records []domain.StoredRecord
	for rows.Next() {
		var (
			id   string
			data []byte
		)
		if err := rows.Scan(&id, &data); err != nil {
			return nil, fmt.Errorf("scan record: %w", err)
		}
		rec, err := decodeRecord(data)
		if err != nil {
			return nil, err
		}
		records = append(records, domain.StoredRecord{ID: id, Data: rec})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate records: %w", err)
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

	return s.write(ctx, collection, id, func(tx pgx.Tx) (domain.ChangeType, error) {
		var inserted bool
		err := tx.QueryRow(ctx, `
			INSERT INTO charterbook_records (collection, id, data)
			VALUES ($1, $2, $3::jsonb)
			ON CONFLICT (collection, id) DO UPDATE SET
				data = excluded.data,
				updated_at = now()
			RETURNING (xmax = 0)
		`, collection, id, encoded).Scan(&inserted)
		if err != nil {
			return 0, fmt.Errorf("set record: %w", err)
		}
		if inserted {
			return domain.ChangeCreated, nil
		}
		return domain.ChangeUpdated, nil
	})
}

// Update deep-merges patch into an existing record under a row lock.
func (s *Store) Update(ctx context.Context, collection, id string, patch domain.Record) error {
	encodedPatch, err := encodeRecord(patch)
	if err != nil {
		return err
	}
	normalised, err := decodeRecord([]byte(encodedPatch))
	if err != nil {
		return err
	}

	return s.write(ctx, collection, id, func(tx pgx.Tx) (domain.ChangeType, error) {
		var data []byte
		err := tx.QueryRow(ctx,
			`SELECT data FROM charterbook_records WHERE collection = $1 AND id = $2 FOR UPDATE`, collection, id,
		).Scan(&data)
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, domain.ErrNotFound
		}
		if err != nil {
			return 0, fmt.Errorf("get record: %w", err)
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

		if _, err := tx.Exec(ctx,
			`UPDATE charterbook_records SET data = $3::jsonb, updated_at = now() WHERE collection = $1 AND id = $2`,
			collection, id, encoded); err != nil {
			return 0, fmt.Errorf("update record: %w", err)
		}
		return domain.ChangeUpdated, nil
	})
}

// Delete removes a record.
func (s *Store) Delete(ctx context.Context, collection, id string) error {
	return s.write(ctx, collection, id, func(tx pgx.Tx) (domain.ChangeType, error) {
		tag, err := tx.Exec(ctx,
			`DELETE FROM charterbook_records WHERE collection = $1 AND id = $2`, collection, id)
		if err != nil {
			return 0, fmt.Errorf("delete record: %w", err)
		}
		if tag.RowsAffected() == 0 {
			return 0, domain.ErrNotFound
		}
		return domain.ChangeDeleted, nil
	})
}

// write runs fn in a transaction and notifies listeners on commit.
func (s *Store) write(ctx context.Context, collection, id string, fn func(tx pgx.Tx) (domain.ChangeType, error)) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	change, err := fn(tx)
	if err != nil {
		return err
	}

	payload, err := json.Marshal(domain.ChangeEvent{Type: change, Collection: collection, ID: id})
	if err != nil {
		return fmt.Errorf("encode change: %w", err)
	}
	if _, err := tx.Exec(ctx, `SELECT pg_notify($1, $2)`, NotifyChannel, string(payload)); err != nil {
		return fmt.Errorf("notify change: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

func encodeRecord(data domain.Record) (string, error) {
	if data == nil {
		data = domain.Record{}
	}
	raw, err := json.Marshal(data)
	if err != nil {
		return "", fmt.Errorf("marshal record: %w", err)
	}
	return string(raw), nil
}

func decodeRecord(data []byte) (domain.Record, error) {
	rec := domain.Record{}
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("unmarshal record: %w", err)
	}
	return rec, nil
}

// containment nests dotted equality filters into a jsonb document. Filters
// whose paths collide with an earlier one are left to the in-memory pass.
func containment(eq map[string]string) map[string]any {
	fields := make([]string, 0, len(eq))
	for field := range eq {
		fields = append(fields, field)
	}
	sort.Strings(fields)

	doc := make(map[string]any)
	for _, field := range fields {
		parts := strings.Split(field, ".")
		node := doc
		ok := true
		for _, part := range parts[:len(parts)-1] {
			next, exists := node[part]
			if !exists {
				child := make(map[string]any)
				node[part] = child
				node = child
				continue
			}
			child, isMap := next.(map[string]any)
			if !isMap {
				ok = false
				break
			}
			node = child
		}
		leaf := parts[len(parts)-1]
		if _, exists := node[leaf]; !ok || exists {
			continue
		}
		node[leaf] = eq[field]
	}
	return doc
}
