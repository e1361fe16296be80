package sqlite

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/fsnotify/fsnotify"

	"github.com/custodia-labs/charterbook/internal/core/domain"
	"github.com/custodia-labs/charterbook/internal/logger"
)

// Watch streams change events for a collection. The first call starts a
// file watcher so writes from other processes are seen too.
func (s *Store) Watch(ctx context.Context, collection string) (<-chan domain.ChangeEvent, error) {
	s.watchOnce.Do(func() {
		s.watchErr = s.startFileWatch()
	})
	if s.watchErr != nil {
		return nil, fmt.Errorf("watching %s: %w", collection, s.watchErr)
	}
	return s.hub.Subscribe(ctx, collection), nil
}

// startFileWatch watches the database directory and polls the change log
// whenever the database or its WAL is written.
func (s *Store) startFileWatch() error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating file watcher: %w", err)
	}
	if err := watcher.Add(filepath.Dir(s.path)); err != nil {
		watcher.Close()
		return fmt.Errorf("watching data directory: %w", err)
	}

	trigger := make(chan struct{}, 1)

	go func() {
		defer watcher.Close()
		for {
			select {
			case <-s.done:
				return
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if !s.handleFsEvent(event) {
					continue
				}
				select {
				case trigger <- struct{}{}:
				default:
				}
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				logger.Warn("sqlite file watch: %v", err)
			}
		}
	}()

	go func() {
		for {
			select {
			case <-s.done:
				return
			case <-trigger:
				s.poll(context.Background())
			}
		}
	}()

	return nil
}

// handleFsEvent reports whether event signals a write to the database.
func (s *Store) handleFsEvent(event fsnotify.Event) bool {
	switch filepath.Base(event.Name) {
	case DBFile, DBFile + "-wal":
	default:
		return false
	}
	return event.Has(fsnotify.Write) || event.Has(fsnotify.Create)
}

// poll publishes every logged change newer than the last one seen.
func (s *Store) poll(ctx context.Context) {
	s.pollMu.Lock()
	defer s.pollMu.Unlock()

	select {
	case <-s.done:
		return
	default:
	}

	rows, err := s.db.QueryContext(ctx,
		"SELECT seq, collection, record_id, change FROM changes WHERE seq > ? ORDER BY seq", s.lastSeq)
	if err != nil {
		logger.Warn("sqlite change poll: %v", err)
		return
	}
	defer rows.Close()

	for rows.Next() {
		var (
			seq        int64
			collection string
			id         string
			change     string
		)
		if err := rows.Scan(&seq, &collection, &id, &change); err != nil {
			logger.Warn("sqlite change poll: %v", err)
			return
		}
		s.lastSeq = seq
		s.hub.Publish(domain.ChangeEvent{Type: parseChange(change), Collection: collection, ID: id})
	}
	if err := rows.Err(); err != nil {
		logger.Warn("sqlite change poll: %v", err)
	}
}

func parseChange(s string) domain.ChangeType {
	switch s {
	case domain.ChangeCreated.String():
		return domain.ChangeCreated
	case domain.ChangeDeleted.String():
		return domain.ChangeDeleted
	default:
		return domain.ChangeUpdated
	}
}
