// Package kafka publishes audit events to a Kafka topic. Deployments that
// need the trail outside the process (SIEM, compliance archiving) configure
// brokers; single-node setups fall back to the in-process store.
package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/twmb/franz-go/pkg/kadm"
	"github.com/twmb/franz-go/pkg/kgo"

	audit "sigil/pkg/platform/audit"
)

// Publisher produces audit events to a single topic, keyed by record ID so
// per-record event order is preserved within a partition.
type Publisher struct {
	client *kgo.Client
	topic  string
	logger *slog.Logger
}

// envelope is the wire form of an audit event.
type envelope struct {
	Name                string `json:"name"`
	Category            string `json:"category"`
	Timestamp           string `json:"timestamp"`
	RecordID            uint64 `json:"record_id,omitempty"`
	DisclosureRequestID string `json:"disclosure_request_id,omitempty"`
	Field               string `json:"field,omitempty"`
	Actor               string `json:"actor,omitempty"`
	RequestID           string `json:"request_id,omitempty"`
	Reason              string `json:"reason,omitempty"`
}

// New connects to the brokers and ensures the topic exists. Topic creation
// failures are logged, not fatal: brokers commonly auto-create or the topic
// is provisioned out of band.
func New(ctx context.Context, brokers []string, topic string, logger *slog.Logger) (*Publisher, error) {
	client, err := kgo.NewClient(
		kgo.SeedBrokers(brokers...),
		kgo.DefaultProduceTopic(topic),
		kgo.ProducerBatchCompression(kgo.SnappyCompression()),
	)
	if err != nil {
		return nil, fmt.Errorf("kafka client: %w", err)
	}

	admin := kadm.NewClient(client)
	if _, err := admin.CreateTopic(ctx, 1, -1, nil, topic); err != nil {
		logger.Warn("audit topic create skipped", "topic", topic, "err", err)
	}

	return &Publisher{client: client, topic: topic, logger: logger}, nil
}

// Emit produces the event asynchronously. Delivery failures are logged; the
// domain operation is never failed for an audit transport error.
func (p *Publisher) Emit(ctx context.Context, event audit.Event) error {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	if event.Category == "" {
		event.Category = event.Name.Category()
	}
	payload, err := json.Marshal(envelope{
		Name:                string(event.Name),
		Category:            string(event.Category),
		Timestamp:           event.Timestamp.UTC().Format(time.RFC3339Nano),
		RecordID:            uint64(event.RecordID),
		DisclosureRequestID: event.DisclosureRequestID.String(),
		Field:               event.Field.String(),
		Actor:               event.Actor,
		RequestID:           event.RequestID,
		Reason:              event.Reason,
	})
	if err != nil {
		return fmt.Errorf("marshal audit event: %w", err)
	}

	record := &kgo.Record{
		Topic: p.topic,
		Key:   []byte(event.RecordID.String()),
		Value: payload,
	}
	p.client.Produce(ctx, record, func(_ *kgo.Record, err error) {
		if err != nil {
			p.logger.Error("audit event delivery failed",
				"topic", p.topic, "event", string(event.Name), "err", err)
		}
	})
	return nil
}

// Close flushes outstanding produces and releases the client.
func (p *Publisher) Close() {
	p.client.Close()
}
