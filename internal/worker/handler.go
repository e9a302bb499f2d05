package worker

import (
	"context"
	"fmt"
	"log"
	"time"

	"engagement/internal/queue"
)

// EventDispatcher turns one engagement event into its notifications. This
// abstracts the notifier service so workers don't depend on it directly.
type EventDispatcher interface {
	Dispatch(ctx context.Context, event queue.EngagementEvent) error
}

// Handler processes engagement events from the queue.
type Handler struct {
	dispatcher EventDispatcher
}

// NewHandler creates a new event handler.
func NewHandler(dispatcher EventDispatcher) *Handler {
	return &Handler{dispatcher: dispatcher}
}

// HandleEvent routes an event to the appropriate handler based on type.
func (h *Handler) HandleEvent(ctx context.Context, event queue.EngagementEvent) error {
	startTime := time.Now()
	var err error

	switch event.Type {
	case queue.EventCommentCreated, queue.EventCommentDeleted:
		err = h.dispatcher.Dispatch(ctx, event)
	default:
		log.Printf("[Worker] Unknown event type: %s", event.Type)
		return fmt.Errorf("unknown event type: %s", event.Type)
	}

	if err != nil {
		log.Printf("[Worker] HandleEvent FAILED: type=%s comment=%d duration=%v err=%v",
			event.Type, event.CommentID, time.Since(startTime), err)
		return err
	}

	log.Printf("[Worker] HandleEvent OK: type=%s comment=%d duration=%v",
		event.Type, event.CommentID, time.Since(startTime))
	return nil
}
