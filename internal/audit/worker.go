package audit

import (
	"context"
	"encoding/json"
	"log/slog"

	"backoffice/internal/platform/kafka"
	"backoffice/pkg/platform/circuit"
)

// Worker consumes events from the publisher inbox, persists them and
// optionally forwards them to kafka. It keeps background processing off the
// request path. A circuit breaker guards the kafka sink so a broker outage
// does not stall the worker on every event; the store remains the durable
// record either way.
// probeEvery is how many events are dropped from the sink between probe
// publishes while the circuit is open.
const probeEvery = 10

type Worker struct {
	store   Store
	inbox   <-chan Event
	sink    *kafka.Producer
	breaker *circuit.Breaker
	logger  *slog.Logger
	skipped int
}

// NewWorker wires the worker. sink may be nil (no kafka configured).
func NewWorker(store Store, inbox <-chan Event, sink *kafka.Producer, logger *slog.Logger) *Worker {
	return &Worker{
		store:   store,
		inbox:   inbox,
		sink:    sink,
		breaker: circuit.New("audit-kafka", circuit.WithFailureThreshold(5)),
		logger:  logger,
	}
}

// Run drains the inbox until ctx is cancelled. Persistence failures are
// logged, not fatal.
func (w *Worker) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case event := <-w.inbox:
			w.handle(ctx, event)
		}
	}
}

func (w *Worker) handle(ctx context.Context, event Event) {
	if err := w.store.Append(ctx, event); err != nil {
		w.logger.ErrorContext(ctx, "append audit event",
			"action", string(event.Action),
			"error", err.Error(),
		)
	}
	if w.sink == nil {
		return
	}
	if w.breaker.IsOpen() {
		w.skipped++
		if w.skipped%probeEvery != 0 {
			return
		}
		// Let this event through as a probe so the breaker can close again.
	}
	payload, err := json.Marshal(event)
	if err != nil {
		w.logger.ErrorContext(ctx, "marshal audit event", "error", err.Error())
		return
	}
	if err := w.sink.Publish(ctx, []byte(event.Entity), payload); err != nil {
		_, change := w.breaker.RecordFailure()
		if change.Opened {
			w.logger.WarnContext(ctx, "audit kafka sink circuit opened", "error", err.Error())
		} else {
			w.logger.ErrorContext(ctx, "publish audit event", "error", err.Error())
		}
		return
	}
	if _, change := w.breaker.RecordSuccess(); change.Closed {
		w.skipped = 0
		w.logger.InfoContext(ctx, "audit kafka sink circuit closed")
	}
}
