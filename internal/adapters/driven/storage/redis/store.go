// Package redis implements driven.DocumentStore on Redis.
//
// Each collection is one hash, charterbook:<collection>, mapping record ids
// to JSON. Writes publish a change event on charterbook:changes:<collection>
// so every process sharing the server can watch.
package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/custodia-labs/charterbook/internal/core/domain"
	"github.com/custodia-labs/charterbook/internal/core/ports/driven"
	"github.com/custodia-labs/charterbook/internal/logger"
)

const (
	keyPrefix     = "charterbook:"
	channelPrefix = "charterbook:changes:"

	// maxUpdateAttempts bounds optimistic retries when a watched hash changes
	// between read and write.
	maxUpdateAttempts = 16
)

// Ensure Store implements the interface.
var _ driven.DocumentStore = (*Store)(nil)

// Store is a Redis-backed document store.
type Store struct {
	client *redis.Client
}

// NewStore connects to addr, either "host:port" or a redis:// URL.
func NewStore(ctx context.Context, addr string) (*Store, error) {
	if addr == "" {
		return nil, fmt.Errorf("%w: redis address is empty", domain.ErrInvalidConfiguration)
	}

	opts := &redis.Options{Addr: addr}
	if strings.Contains(addr, "://") {
		parsed, err := redis.ParseURL(addr)
		if err != nil {
			return nil, fmt.Errorf("parse redis URL: %w", err)
		}
		opts = parsed
	}

	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}
	return &Store{client: client}, nil
}

// NewStoreWithClient wraps an existing client. The store takes ownership.
func NewStoreWithClient(client *redis.Client) *Store {
	return &Store{client: client}
}

// Close closes the client.
func (s *Store) Close() error {
	return s.client.Close()
}

func hashKey(collection string) string {
	return keyPrefix + collection
}

func channel(collection string) string {
	return channelPrefix + collection
}

// Get retrieves a record.
func (s *Store) Get(ctx context.Context, collection, id string) (domain.Record, error) {
	data, err := s.client.HGet(ctx, hashKey(collection), id).Result()
	if errors.Is(err, redis.Nil) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get record: %w", err)
	}
	return decodeRecord(data)
}

// GetMany retrieves several records with one HMGET.
func (s *Store) GetMany(ctx context.Context, collection string, ids []string) ([]domain.Record, error) {
	out := make([]domain.Record, len(ids))
	if len(ids) == 0 {
		return out, nil
	}

	values, err := s.client.HMGet(ctx, hashKey(collection), ids...).Result()
	if err != nil {
		return nil, fmt.Errorf("get records: %w", err)
	}
	for i, v := range values {
		str, ok := v.(string)
		if !ok {
			continue
		}
		rec, err := decodeRecord(str)
		if err != nil {
			return nil, err
		}
		out[i] = rec
	}
	return out, nil
}

// Query loads the whole collection and applies q in memory.
func (s *Store) Query(ctx context.Context, collection string, q domain.Query) ([]domain.StoredRecord, error) {
	all, err := s.client.HGetAll(ctx, hashKey(collection)).Result()
	if err != nil {
		return nil, fmt.Errorf("query records: %w", err)
	}

	records := make([]domain.StoredRecord, 0, len(all))
	for id, data := range all {
		rec, err := decodeRecord(data)
		if err != nil {
			return nil, err
		}
		records = append(records, domain.StoredRecord{ID: id, Data: rec})
	}
	return q.Apply(records), nil
}

// Watch subscribes to the collection's change channel.
func (s *Store) Watch(ctx context.Context, collection string) (<-chan domain.ChangeEvent, error) {
	pubsub := s.client.Subscribe(ctx, channel(collection))
	if _, err := pubsub.Receive(ctx); err != nil {
		pubsub.Close()
		return nil, fmt.Errorf("subscribe %s: %w", collection, err)
	}

	out := make(chan domain.ChangeEvent, 64)
	messages := pubsub.Channel()

	go func() {
		defer close(out)
		defer pubsub.Close()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-messages:
				if !ok {
					return
				}
				var ev domain.ChangeEvent
				if err := json.Unmarshal([]byte(msg.Payload), &ev); err != nil {
					logger.Warn("redis change event: %v", err)
					continue
				}
				select {
				case out <- ev:
				default:
				}
			}
		}
	}()
	return out, nil
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
	added, err := s.client.HSet(ctx, hashKey(collection), id, encoded).Result()
	if err != nil {
		return fmt.Errorf("set record: %w", err)
	}

	change := domain.ChangeUpdated
	if added > 0 {
		change = domain.ChangeCreated
	}
	s.publish(ctx, domain.ChangeEvent{Type: change, Collection: collection, ID: id})
	return nil
}

// Update deep-merges patch into an existing record under WATCH.
func (s *Store) Update(ctx context.Context, collection, id string, patch domain.Record) error {
	encodedPatch, err := encodeRecord(patch)
	if err != nil {
		return err
	}
	normalised, err := decodeRecord(encodedPatch)
	if err != nil {
		return err
	}

	key := hashKey(collection)
	txf := func(tx *redis.Tx) error {
		data, err := tx.HGet(ctx, key, id).Result()
		if errors.Is(err, redis.Nil) {
			return domain.ErrNotFound
		}
		if err != nil {
			return err
		}
		rec, err := decodeRecord(data)
		if err != nil {
			return err
		}
		rec.Merge(normalised.Clone())
		encoded, err := encodeRecord(rec)
		if err != nil {
			return err
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.HSet(ctx, key, id, encoded)
			return nil
		})
		return err
	}

	for attempt := 0; attempt < maxUpdateAttempts; attempt++ {
		err = s.client.Watch(ctx, txf, key)
		if errors.Is(err, redis.TxFailedErr) {
			continue
		}
		if errors.Is(err, domain.ErrNotFound) {
			return err
		}
		if err != nil {
			return fmt.Errorf("update record: %w", err)
		}
		s.publish(ctx, domain.ChangeEvent{Type: domain.ChangeUpdated, Collection: collection, ID: id})
		return nil
	}
	return fmt.Errorf("update record: %w", err)
}

// Delete removes a record.
func (s *Store) Delete(ctx context.Context, collection, id string) error {
	removed, err := s.client.HDel(ctx, hashKey(collection), id).Result()
	if err != nil {
		return fmt.Errorf("delete record: %w", err)
	}
	if removed == 0 {
		return domain.ErrNotFound
	}
	s.publish(ctx, domain.ChangeEvent{Type: domain.ChangeDeleted, Collection: collection, ID: id})
	return nil
}

// publish announces a committed write. Failures are logged.
func (s *Store) publish(ctx context.Context, ev domain.ChangeEvent) {
	payload, err := json.Marshal(ev)
	if err != nil {
		logger.Warn("redis change event: %v", err)
		return
	}
	if err := s.client.Publish(context.WithoutCancel(ctx), channel(ev.Collection), payload).Err(); err != nil {
		logger.Warn("redis publish %s: %v", ev.Collection, err)
	}
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

func decodeRecord(data string) (domain.Record, error) {
	rec := domain.Record{}
	if err := json.Unmarshal([]byte(data), &rec); err != nil {
		return nil, fmt.Errorf("unmarshal record: %w", err)
	}
	return rec, nil
}
