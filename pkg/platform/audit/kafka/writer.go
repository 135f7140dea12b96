// Package kafka streams audit events to a Kafka topic for external
// consumers (regulators, SIEM, downstream reconciliation). The Postgres
// store remains the source of truth; this stream is fan-out only.
package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/twmb/franz-go/pkg/kgo"

	audit "custos/pkg/platform/audit"
)

// payload is the JSON published per event. Decision fields follow the fixed
// external contract: consumers match on the literal reasonCode values.
type payload struct {
	ID         string `json:"id"`
	Timestamp  string `json:"timestamp"`
	LedgerID   string `json:"ledgerId"`
	Action     string `json:"action"`
	Allowed    bool   `json:"allowed"`
	ReasonCode uint8  `json:"reasonCode"`
	Spender    string `json:"spender,omitempty"`
	From       string `json:"from,omitempty"`
	To         string `json:"to,omitempty"`
	Value      uint64 `json:"value"`
	Actor      string `json:"actor,omitempty"`
	Detail     string `json:"detail,omitempty"`
	RequestID  string `json:"requestId,omitempty"`
}

// Writer publishes audit events to one topic.
type Writer struct {
	client *kgo.Client
	topic  string
}

// NewWriter connects to the brokers and returns a Writer.
func NewWriter(brokers []string, topic string) (*Writer, error) {
	client, err := kgo.NewClient(
		kgo.SeedBrokers(brokers...),
		kgo.DefaultProduceTopic(topic),
		kgo.ProducerBatchCompression(kgo.SnappyCompression()),
	)
	if err != nil {
		return nil, fmt.Errorf("create kafka client: %w", err)
	}
	return &Writer{client: client, topic: topic}, nil
}

// Publish produces one event, keyed by ledger ID so per-deployment ordering
// is preserved within a partition.
func (w *Writer) Publish(ctx context.Context, event audit.Event) error {
	body, err := json.Marshal(payload{
		ID:         event.ID.String(),
		Timestamp:  event.Timestamp.UTC().Format(time.RFC3339Nano),
		LedgerID:   event.LedgerID.String(),
		Action:     string(event.Action),
		Allowed:    event.Allowed,
		ReasonCode: event.ReasonCode,
		Spender:    event.Spender.String(),
		From:       event.From.String(),
		To:         event.To.String(),
		Value:      event.Value,
		Actor:      event.Actor.String(),
		Detail:     event.Detail,
		RequestID:  event.RequestID,
	})
	if err != nil {
		return fmt.Errorf("marshal audit payload: %w", err)
	}

	record := &kgo.Record{
		Topic: w.topic,
		Key:   []byte(event.LedgerID.String()),
		Value: body,
	}
	if err := w.client.ProduceSync(ctx, record).FirstErr(); err != nil {
		return fmt.Errorf("produce audit event: %w", err)
	}
	return nil
}

// Close flushes and closes the underlying client.
func (w *Writer) Close() {
	w.client.Close()
}
