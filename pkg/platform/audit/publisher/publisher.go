// Package publisher emits audit events with fail-closed semantics.
//
// Emit writes to the store and the caller blocks until the write succeeds.
// If the write fails, an error is returned and the calling operation MUST
// fail: a transfer whose decision cannot be recorded does not execute.
// Downstream fan-out (Kafka) is asynchronous via the inbox channel and never
// blocks or fails the caller.
package publisher

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	audit "custos/pkg/platform/audit"
)

// Publisher persists audit events synchronously and fans them out to an
// optional inbox for asynchronous consumers.
type Publisher struct {
	store   audit.Store
	inbox   chan<- audit.Event
	logger  *slog.Logger
	metrics *Metrics
}

// Option configures the Publisher.
type Option func(*Publisher)

// WithLogger sets a logger for error reporting.
func WithLogger(logger *slog.Logger) Option {
	return func(p *Publisher) {
		p.logger = logger
	}
}

// WithMetrics sets the metrics collector.
func WithMetrics(m *Metrics) Option {
	return func(p *Publisher) {
		p.metrics = m
	}
}

// WithInbox attaches a fan-out channel, typically drained by the Kafka
// worker. Fan-out is best-effort: a full inbox drops the copy and counts it,
// the store remains the source of truth.
func WithInbox(inbox chan<- audit.Event) Option {
	return func(p *Publisher) {
		p.inbox = inbox
	}
}

// New creates a publisher over the given store.
func New(store audit.Store, opts ...Option) *Publisher {
	p := &Publisher{store: store, logger: slog.Default()}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Emit synchronously writes an event to the audit store. Returns an error if
// persistence fails - the caller MUST fail its operation.
func (p *Publisher) Emit(ctx context.Context, event audit.Event) error {
	start := time.Now()

	if event.Action == "" {
		return fmt.Errorf("audit event requires an action")
	}
	if event.ID == uuid.Nil {
		event.ID = uuid.New()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}

	if err := p.store.Append(ctx, event); err != nil {
		p.metrics.IncPersistFailures()
		p.logger.ErrorContext(ctx, "audit persistence failed",
			"action", event.Action,
			"request_id", event.RequestID,
			"error", err,
		)
		return fmt.Errorf("audit persistence failed: %w", err)
	}

	p.metrics.ObservePersistDuration(time.Since(start).Seconds())
	p.metrics.IncEventsEmitted()

	if p.inbox != nil {
		select {
		case p.inbox <- event:
		default:
			p.metrics.IncFanoutDropped()
			p.logger.WarnContext(ctx, "audit fan-out inbox full, event dropped from stream",
				"action", event.Action,
				"event_id", event.ID,
			)
		}
	}
	return nil
}
