package broadcast

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/charterbook/internal/core/domain"
)

func TestHub_PublishReachesCollectionSubscribers(t *testing.T) {
	hub := NewHub()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	employees := hub.Subscribe(ctx, "org/acme/employee")
	docs := hub.Subscribe(ctx, "org/acme/doc")

	ev := domain.ChangeEvent{Type: domain.ChangeCreated, Collection: "org/acme/employee", ID: "e1"}
	hub.Publish(ev)

	select {
	case got := <-employees:
		assert.Equal(t, ev, got)
	case <-time.After(time.Second):
		t.Fatal("event not delivered")
	}

	select {
	case got := <-docs:
		t.Fatalf("unexpected event %v", got)
	default:
	}
}

func TestHub_CancelClosesChannel(t *testing.T) {
	hub := NewHub()
	ctx, cancel := context.WithCancel(context.Background())

	ch := hub.Subscribe(ctx, "c")
	require.Equal(t, 1, hub.Subscribers("c"))

	cancel()
	select {
	case _, ok := <-ch:
		assert.False(t, ok)
	case <-time.After(time.Second):
		t.Fatal("channel not closed")
	}
	assert.Equal(t, 0, hub.Subscribers("c"))
}

func TestHub_SlowSubscriberDropsInsteadOfBlocking(t *testing.T) {
	hub := NewHub()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	ch := hub.Subscribe(ctx, "c")
	for i := 0; i < DefaultBuffer*2; i++ {
		hub.Publish(domain.ChangeEvent{Collection: "c", ID: "x"})
	}
	assert.Len(t, ch, DefaultBuffer)
}

func TestHub_Close(t *testing.T) {
	hub := NewHub()
	ch := hub.Subscribe(context.Background(), "c")

	hub.Close()
	_, ok := <-ch
	assert.False(t, ok)

	late := hub.Subscribe(context.Background(), "c")
	_, ok = <-late
	assert.False(t, ok)

	hub.Close()
}
