package audit

import (
	"context"
	"log/slog"
	"time"
)

// Publisher is the emission side of the audit trail. Domain services hold a
// Publisher; wiring decides whether events land in an in-process store, a
// Kafka topic, or both.
type Publisher interface {
	Emit(ctx context.Context, event Event) error
}

// ChannelPublisher buffers events on a channel consumed by a Worker. Emit
// never blocks the domain operation: when the buffer is full the event is
// dropped and logged, which is acceptable for operations events and flagged
// loudly for compliance ones.
type ChannelPublisher struct {
	inbox  chan Event
	logger *slog.Logger
}

func NewChannelPublisher(buffer int, logger *slog.Logger) *ChannelPublisher {
	return &ChannelPublisher{
		inbox:  make(chan Event, buffer),
		logger: logger,
	}
}

// Inbox exposes the channel for the consuming Worker.
func (p *ChannelPublisher) Inbox() <-chan Event { return p.inbox }

func (p *ChannelPublisher) Emit(_ context.Context, event Event) error {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	if event.Category == "" {
		event.Category = event.Name.Category()
	}
	select {
	case p.inbox <- event:
		return nil
	default:
		p.logger.Error("audit inbox full, dropping event",
			"event", string(event.Name),
			"category", string(event.Category),
			"record_id", event.RecordID.String())
		return nil
	}
}

// Fanout emits to every publisher, returning the first error after all have
// been attempted.
type Fanout []Publisher

func (f Fanout) Emit(ctx context.Context, event Event) error {
	var first error
	for _, p := range f {
		if err := p.Emit(ctx, event); err != nil && first == nil {
			first = err
		}
	}
	return first
}

// Discard drops all events. Useful in unit tests that don't assert on audit.
type Discard struct{}

func (Discard) Emit(context.Context, Event) error { return nil }
