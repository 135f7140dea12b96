// Package worker drains the audit fan-out inbox into a downstream sink.
package worker

import (
	"context"
	"log/slog"

	audit "custos/pkg/platform/audit"
)

// Sink receives events drained from the inbox, typically the Kafka writer.
type Sink interface {
	Publish(ctx context.Context, event audit.Event) error
}

// Worker consumes audit events from a channel and forwards them to the sink.
// Publish failures are logged and skipped: the store already holds the
// event, so losing a stream copy is an observability gap, not data loss.
type Worker struct {
	sink   Sink
	inbox  <-chan audit.Event
	logger *slog.Logger
}

// New constructs a Worker.
func New(sink Sink, inbox <-chan audit.Event, logger *slog.Logger) *Worker {
	return &Worker{sink: sink, inbox: inbox, logger: logger}
}

// Run forwards events until the context is cancelled.
func (w *Worker) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event := <-w.inbox:
			if err := w.sink.Publish(ctx, event); err != nil {
				w.logger.ErrorContext(ctx, "audit stream publish failed",
					"action", event.Action,
					"event_id", event.ID,
					"error", err,
				)
			}
		}
	}
}
