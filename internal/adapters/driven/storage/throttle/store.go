// Package throttle rate-limits reads against a driven.DocumentStore with a
// token bucket. Writes and watches pass through untouched.
package throttle

import (
	"context"
	"fmt"

	"golang.org/x/time/rate"

	"github.com/custodia-labs/charterbook/internal/core/domain"
	"github.com/custodia-labs/charterbook/internal/core/ports/driven"
)

// Ensure Store implements the interface.
var _ driven.DocumentStore = (*Store)(nil)

// Config holds the token bucket parameters.
type Config struct {
	// RequestsPerSecond is the sustained read rate.
	RequestsPerSecond float64

	// Burst is the maximum burst size.
	Burst int
}

// Store wraps another store and waits for a token before every read.
type Store struct {
	next    driven.DocumentStore
	limiter *rate.Limiter
}

// Wrap returns next unchanged when cfg disables throttling.
func Wrap(next driven.DocumentStore, cfg Config) driven.DocumentStore {
	if cfg.RequestsPerSecond <= 0 {
		return next
	}
	burst := cfg.Burst
	if burst < 1 {
		burst = 1
	}
	return &Store{
		next:    next,
		limiter: rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), burst),
	}
}

func (s *Store) wait(ctx context.Context) error {
	if err := s.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("store read throttled: %w", err)
	}
	return nil
}

// Get waits for a token, then reads.
func (s *Store) Get(ctx context.Context, collection, id string) (domain.Record, error) {
	if err := s.wait(ctx); err != nil {
		return nil, err
	}
	return s.next.Get(ctx, collection, id)
}

// GetMany spends one token per call, not per id.
func (s *Store) GetMany(ctx context.Context, collection string, ids []string) ([]domain.Record, error) {
	if err := s.wait(ctx); err != nil {
		return nil, err
	}
	return s.next.GetMany(ctx, collection, ids)
}

// Query waits for a token, then reads.
func (s *Store) Query(ctx context.Context, collection string, q domain.Query) ([]domain.StoredRecord, error) {
	if err := s.wait(ctx); err != nil {
		return nil, err
	}
	return s.next.Query(ctx, collection, q)
}

// Watch is not throttled.
func (s *Store) Watch(ctx context.Context, collection string) (<-chan domain.ChangeEvent, error) {
	return s.next.Watch(ctx, collection)
}

// Add is not throttled.
func (s *Store) Add(ctx context.Context, collection string, data domain.Record) (string, error) {
	return s.next.Add(ctx, collection, data)
}

// Set is not throttled.
func (s *Store) Set(ctx context.Context, collection, id string, data domain.Record) error {
	return s.next.Set(ctx, collection, id, data)
}

// Update is not throttled.
func (s *Store) Update(ctx context.Context, collection, id string, patch domain.Record) error {
	return s.next.Update(ctx, collection, id, patch)
}

// Delete is not throttled.
func (s *Store) Delete(ctx context.Context, collection, id string) error {
	return s.next.Delete(ctx, collection, id)
}

// Close closes the wrapped store.
func (s *Store) Close() error {
	return s.next.Close()
}
