package audit

import (
	"context"
	"sync"

	"sigil/pkg/domain"
)

// Store persists audit events. Implementations must be safe for concurrent
// use; the worker and synchronous publishers may append from different
// goroutines.
type Store interface {
	Append(ctx context.Context, event Event) error
}

// MemoryStore keeps events in memory. Suitable for tests and for the UI's
// polling endpoint in single-node deployments.
type MemoryStore struct {
	mu     sync.RWMutex
	events []Event
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (s *MemoryStore) Append(_ context.Context, event Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, event)
	return nil
}

// ByRecord returns all events for a record in append order.
func (s *MemoryStore) ByRecord(_ context.Context, id domain.RecordID) []Event {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []Event
	for _, e := range s.events {
		if e.RecordID == id {
			out = append(out, e)
		}
	}
	return out
}

// All returns a snapshot of every stored event in append order.
func (s *MemoryStore) All(_ context.Context) []Event {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Event, len(s.events))
	copy(out, s.events)
	return out
}
