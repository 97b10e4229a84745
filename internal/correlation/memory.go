package correlation

import (
	"context"
	"sync"

	"sigil/pkg/domain"
	"sigil/pkg/platform/sentinel"
)

// MemoryTable is the in-memory correlation table for single-node deployments
// and tests.
type MemoryTable struct {
	mu      sync.Mutex
	entries map[domain.RequestID]Target
}

func NewMemoryTable() *MemoryTable {
	return &MemoryTable{entries: make(map[domain.RequestID]Target)}
}

func (t *MemoryTable) Register(_ context.Context, requestID domain.RequestID, target Target) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if _, exists := t.entries[requestID]; exists {
		return sentinel.ErrConflict
	}
	t.entries[requestID] = target
	return nil
}

func (t *MemoryTable) Consume(_ context.Context, requestID domain.RequestID) (Target, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	target, exists := t.entries[requestID]
	if !exists {
		return Target{}, sentinel.ErrNotFound
	}
	delete(t.entries, requestID)
	return target, nil
}

// Outstanding returns the number of unconsumed entries.
func (t *MemoryTable) Outstanding() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.entries)
}
