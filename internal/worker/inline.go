package worker

import (
	"context"
	"log"
	"time"

	"engagement/internal/queue"
)

// InlinePublisher satisfies queue.Publisher without a broker: each published
// event is handled on a detached goroutine in the same process. Used when
// queued dispatch is disabled so the notification path stays identical either
// way, only the transport changes.
type InlinePublisher struct {
	handler *Handler
	timeout time.Duration
}

func NewInlinePublisher(handler *Handler) *InlinePublisher {
	return &InlinePublisher{
		handler: handler,
		timeout: 30 * time.Second,
	}
}

// Publish hands the event to the handler on a new goroutine. The request
// context is deliberately not reused: the request finishing must not cancel
// notification delivery.
func (p *InlinePublisher) Publish(_ context.Context, stream string, event queue.EngagementEvent) (string, error) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), p.timeout)
		defer cancel()

		if err := p.handler.HandleEvent(ctx, event); err != nil {
			log.Printf("[InlinePublisher] stream=%s type=%s err=%v", stream, event.Type, err)
		}
	}()
	return "inline", nil
}
