package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/custodia-labs/charterbook/internal/core/domain"
	"github.com/custodia-labs/charterbook/internal/logger"
)

// listenRetry is the pause before reconnecting a dropped listener.
const listenRetry = time.Second

// Watch streams change events for a collection. The first call starts the
// store's LISTEN connection.
func (s *Store) Watch(ctx context.Context, collection string) (<-chan domain.ChangeEvent, error) {
	s.listenOnce.Do(func() {
		s.listenErr = s.startListener(ctx)
	})
	if s.listenErr != nil {
		return nil, fmt.Errorf("watch %s: %w", collection, s.listenErr)
	}
	return s.hub.Subscribe(ctx, collection), nil
}

func (s *Store) startListener(ctx context.Context) error {
	conn, err := s.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire listen connection: %w", err)
	}
	if _, err := conn.Exec(ctx, "LISTEN "+NotifyChannel); err != nil {
		conn.Release()
		return fmt.Errorf("listen: %w", err)
	}

	listenCtx := s.listenCtx
	s.listening.Add(1)

	go func() {
		defer s.listening.Done()
		for {
			err := s.receive(listenCtx, conn.Conn())
			conn.Release()
			if listenCtx.Err() != nil {
				return
			}
			logger.Warn("postgres listener: %v", err)

			for {
				select {
				case <-listenCtx.Done():
					return
				case <-time.After(listenRetry):
				}
				conn, err = s.pool.Acquire(listenCtx)
				if err == nil {
					if _, err = conn.Exec(listenCtx, "LISTEN "+NotifyChannel); err == nil {
						break
					}
					conn.Release()
				}
				logger.Warn("postgres listener reconnect: %v", err)
			}
		}
	}()
	return nil
}

// notificationWaiter is the part of *pgx.Conn the listener uses.
type notificationWaiter interface {
	WaitForNotification(ctx context.Context) (*pgconn.Notification, error)
}

func (s *Store) receive(ctx context.Context, conn notificationWaiter) error {
	for {
		n, err := conn.WaitForNotification(ctx)
		if err != nil {
			return err
		}
		var ev domain.ChangeEvent
		if err := json.Unmarshal([]byte(n.Payload), &ev); err != nil {
			logger.Warn("postgres change event: %v", err)
			continue
		}
		s.hub.Publish(ev)
	}
}
