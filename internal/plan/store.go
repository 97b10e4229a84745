package plan

import (
	"context"
	"time"

	"sigil/internal/capability"
	"sigil/pkg/domain"
)

// Store persists learning plans. Like the profile store, per-field state
// transitions are enforced here so replays and races cannot double-apply.
type Store interface {
	// Put creates or overwrites the plan for the record. Overwriting resets
	// every field to sealed and clears any previously disclosed cleartext.
	Put(ctx context.Context, id domain.RecordID, fields [FieldCount]capability.Ciphertext, generatedAt time.Time) error

	// Find returns the plan or sentinel.ErrNotFound.
	Find(ctx context.Context, id domain.RecordID) (*Plan, error)

	// MarkFieldPending transitions one field sealed -> pending_disclosure.
	MarkFieldPending(ctx context.Context, id domain.RecordID, field domain.PlanField) error

	// MarkFieldDisclosed transitions one field pending_disclosure -> disclosed
	// and persists its cleartext.
	MarkFieldDisclosed(ctx context.Context, id domain.RecordID, field domain.PlanField, cleartext string) error
}
