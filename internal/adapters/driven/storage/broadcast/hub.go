// Package broadcast fans store change events out to in-process watchers.
package broadcast

import (
	"context"
	"sync"

	"github.com/custodia-labs/charterbook/internal/core/domain"
)

// DefaultBuffer is the per-subscriber channel capacity.
const DefaultBuffer = 64

type subscriber struct {
	ch chan domain.ChangeEvent
}

// Hub delivers published events to subscribers of the event's collection.
// A subscriber that falls behind by more than its buffer misses events.
type Hub struct {
	mu     sync.Mutex
	subs   map[string]map[*subscriber]struct{}
	buffer int
	closed bool
}

// NewHub creates a hub with the default buffer.
func NewHub() *Hub {
	return &Hub{subs: make(map[string]map[*subscriber]struct{}), buffer: DefaultBuffer}
}

// Subscribe returns a channel of events for collection. The channel is
// closed when ctx is cancelled or the hub is closed.
func (h *Hub) Subscribe(ctx context.Context, collection string) <-chan domain.ChangeEvent {
	sub := &subscriber{ch: make(chan domain.ChangeEvent, h.buffer)}

	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		close(sub.ch)
		return sub.ch
	}
	if h.subs[collection] == nil {
		h.subs[collection] = make(map[*subscriber]struct{})
	}
	h.subs[collection][sub] = struct{}{}
	h.mu.Unlock()

	go func() {
		<-ctx.Done()
		h.remove(collection, sub)
	}()
	return sub.ch
}

func (h *Hub) remove(collection string, sub *subscriber) {
	h.mu.Lock()
	defer h.mu.Unlock()
	subs, ok := h.subs[collection]
	if !ok {
		return
	}
	if _, ok := subs[sub]; !ok {
		return
	}
	delete(subs, sub)
	if len(subs) == 0 {
		delete(h.subs, collection)
	}
	close(sub.ch)
}

// Publish delivers ev without blocking.
func (h *Hub) Publish(ev domain.ChangeEvent) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for sub := range h.subs[ev.Collection] {
		select {
		case sub.ch <- ev:
		default:
		}
	}
}

// Subscribers returns the number of live subscriptions to collection.
func (h *Hub) Subscribers(collection string) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs[collection])
}

// Close ends every subscription.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return
	}
	h.closed = true
	for collection, subs := range h.subs {
		for sub := range subs {
			close(sub.ch)
		}
		delete(h.subs, collection)
	}
}
