package plan

import (
	"context"
	"sync"
	"time"

	"sigil/internal/capability"
	"sigil/pkg/domain"
	"sigil/pkg/platform/sentinel"
)

// MemoryStore is the in-memory plan store for single-node deployments and
// tests.
type MemoryStore struct {
	mu    sync.RWMutex
	plans map[domain.RecordID]*Plan
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{plans: make(map[domain.RecordID]*Plan)}
}

func (s *MemoryStore) Put(_ context.Context, id domain.RecordID, fields [FieldCount]capability.Ciphertext, generatedAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored := [FieldCount]capability.Ciphertext{}
	for i, f := range fields {
		stored[i] = append(capability.Ciphertext(nil), f...)
	}
	p := &Plan{
		RecordID:    id,
		Fields:      stored,
		GeneratedAt: generatedAt,
	}
	for i := range p.States {
		p.States[i] = FieldSealed
	}
	s.plans[id] = p
	return nil
}

func (s *MemoryStore) Find(_ context.Context, id domain.RecordID) (*Plan, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.plans[id]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return copyPlan(p), nil
}

func (s *MemoryStore) MarkFieldPending(_ context.Context, id domain.RecordID, field domain.PlanField) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.plans[id]
	if !ok {
		return sentinel.ErrNotFound
	}
	idx := field.Index()
	if p.States[idx] != FieldSealed {
		return sentinel.ErrInvalidState
	}
	p.States[idx] = FieldPendingDisclosure
	return nil
}

func (s *MemoryStore) MarkFieldDisclosed(_ context.Context, id domain.RecordID, field domain.PlanField, cleartext string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.plans[id]
	if !ok {
		return sentinel.ErrNotFound
	}
	idx := field.Index()
	if p.States[idx] != FieldPendingDisclosure {
		return sentinel.ErrInvalidState
	}
	p.States[idx] = FieldDisclosed
	p.Cleartext[idx] = cleartext
	return nil
}

func copyPlan(p *Plan) *Plan {
	out := *p
	for i, f := range p.Fields {
		out.Fields[i] = append(capability.Ciphertext(nil), f...)
	}
	return &out
}
