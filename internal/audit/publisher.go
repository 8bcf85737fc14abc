package audit

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
)

// Publisher hands events to the background worker through a buffered
// channel. Emit never blocks the business operation: when the buffer is
// full the event is dropped and counted in the log.
type Publisher struct {
	inbox  chan Event
	logger *slog.Logger
}

// NewPublisher creates a publisher with the given buffer size.
func NewPublisher(buffer int, logger *slog.Logger) *Publisher {
	if buffer <= 0 {
		buffer = 256
	}
	return &Publisher{
		inbox:  make(chan Event, buffer),
		logger: logger,
	}
}

// Inbox exposes the channel the worker consumes.
func (p *Publisher) Inbox() <-chan Event { return p.inbox }

// Emit enqueues one event, filling in ID and timestamp.
func (p *Publisher) Emit(ctx context.Context, event Event) {
	event.ID = uuid.New()
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}

	select {
	case p.inbox <- event:
	default:
		p.logger.WarnContext(ctx, "audit buffer full, event dropped",
			"action", string(event.Action),
			"entity", event.Entity,
		)
	}
}
