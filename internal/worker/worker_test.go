package worker

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"engagement/internal/queue"
)

// =============================================================================
// MOCK DISPATCHER
// =============================================================================

type mockDispatcher struct {
	mu     sync.Mutex
	events []queue.EngagementEvent
	err    error
	done   chan struct{}
}

func newMockDispatcher() *mockDispatcher {
	return &mockDispatcher{done: make(chan struct{}, 8)}
}

func (m *mockDispatcher) Dispatch(ctx context.Context, event queue.EngagementEvent) error {
	m.mu.Lock()
	m.events = append(m.events, event)
	m.mu.Unlock()
	m.done <- struct{}{}
	return m.err
}

func (m *mockDispatcher) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.events)
}

// =============================================================================
// HANDLER TESTS
// =============================================================================

func TestHandler_HandleEvent(t *testing.T) {
	t.Run("comment created dispatched", func(t *testing.T) {
		dispatcher := newMockDispatcher()
		h := NewHandler(dispatcher)

		event := queue.EngagementEvent{Type: queue.EventCommentCreated, CommentID: 11, TargetType: "post", TargetID: 5, ActorID: 1}
		if err := h.HandleEvent(context.Background(), event); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if dispatcher.count() != 1 {
			t.Errorf("dispatched %d events, want 1", dispatcher.count())
		}
	})

	t.Run("comment deleted dispatched", func(t *testing.T) {
		dispatcher := newMockDispatcher()
		h := NewHandler(dispatcher)

		event := queue.EngagementEvent{Type: queue.EventCommentDeleted, CommentID: 11}
		if err := h.HandleEvent(context.Background(), event); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	})

	t.Run("unknown type rejected without dispatch", func(t *testing.T) {
		dispatcher := newMockDispatcher()
		h := NewHandler(dispatcher)

		err := h.HandleEvent(context.Background(), queue.EngagementEvent{Type: "post_liked"})
		if err == nil {
			t.Fatal("expected error for unknown event type")
		}
		if dispatcher.count() != 0 {
			t.Error("unknown events must not reach the dispatcher")
		}
	})

	t.Run("dispatcher error surfaces", func(t *testing.T) {
		dispatcher := newMockDispatcher()
		dispatcher.err = errors.New("mailer down")
		h := NewHandler(dispatcher)

		err := h.HandleEvent(context.Background(), queue.EngagementEvent{Type: queue.EventCommentCreated})
		if !errors.Is(err, dispatcher.err) {
			t.Errorf("error = %v, want the dispatcher's", err)
		}
	})
}

// =============================================================================
// INLINE PUBLISHER TESTS
// =============================================================================

func TestInlinePublisher_HandlesOnDetachedGoroutine(t *testing.T) {
	dispatcher := newMockDispatcher()
	p := NewInlinePublisher(NewHandler(dispatcher))

	// A cancelled request context must not cancel delivery.
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	event := queue.EngagementEvent{Type: queue.EventCommentCreated, CommentID: 11, ActorID: 1}
	if _, err := p.Publish(ctx, queue.StreamEngagement, event); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	select {
	case <-dispatcher.done:
	case <-time.After(2 * time.Second):
		t.Fatal("event never reached the dispatcher")
	}

	if dispatcher.events[0].CommentID != 11 {
		t.Errorf("event = %+v, want comment 11", dispatcher.events[0])
	}
}

func TestInlinePublisher_DispatchErrorIsSwallowed(t *testing.T) {
	dispatcher := newMockDispatcher()
	dispatcher.err = errors.New("smtp refused")
	p := NewInlinePublisher(NewHandler(dispatcher))

	if _, err := p.Publish(context.Background(), queue.StreamEngagement, queue.EngagementEvent{Type: queue.EventCommentCreated}); err != nil {
		t.Fatalf("inline publish must never surface handler errors, got: %v", err)
	}

	select {
	case <-dispatcher.done:
	case <-time.After(2 * time.Second):
		t.Fatal("event never reached the dispatcher")
	}
}
