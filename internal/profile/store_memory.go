package profile

import (
	"context"
	"sync"
	"time"

	"sigil/internal/capability"
	"sigil/pkg/domain"
	"sigil/pkg/platform/sentinel"
)

// MemoryStore is the in-memory profile store for single-node deployments and
// tests.
type MemoryStore struct {
	mu      sync.RWMutex
	nextID  domain.RecordID
	records map[domain.RecordID]*Profile
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		nextID:  1,
		records: make(map[domain.RecordID]*Profile),
	}
}

func (s *MemoryStore) Create(_ context.Context, fields [FieldCount]capability.Ciphertext, createdAt time.Time) (domain.RecordID, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := s.nextID
	s.nextID++

	stored := [FieldCount]capability.Ciphertext{}
	for i, f := range fields {
		stored[i] = append(capability.Ciphertext(nil), f...)
	}
	s.records[id] = &Profile{
		ID:        id,
		Fields:    stored,
		CreatedAt: createdAt,
		State:     StateSealed,
	}
	return id, nil
}

func (s *MemoryStore) Find(_ context.Context, id domain.RecordID) (*Profile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	record, ok := s.records[id]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return copyProfile(record), nil
}

func (s *MemoryStore) MarkPending(_ context.Context, id domain.RecordID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	record, ok := s.records[id]
	if !ok {
		return sentinel.ErrNotFound
	}
	if record.State != StateSealed {
		return sentinel.ErrInvalidState
	}
	record.State = StatePendingDisclosure
	return nil
}

func (s *MemoryStore) MarkDisclosed(_ context.Context, id domain.RecordID, cleartexts []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	record, ok := s.records[id]
	if !ok {
		return sentinel.ErrNotFound
	}
	if record.State != StatePendingDisclosure {
		return sentinel.ErrInvalidState
	}
	record.State = StateDisclosed
	record.Cleartext = append([]string(nil), cleartexts...)
	return nil
}

// copyProfile returns a defensive copy so callers cannot mutate stored state.
func copyProfile(p *Profile) *Profile {
	out := *p
	out.Cleartext = append([]string(nil), p.Cleartext...)
	for i, f := range p.Fields {
		out.Fields[i] = append(capability.Ciphertext(nil), f...)
	}
	return &out
}
