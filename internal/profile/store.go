package profile

import (
	"context"
	"time"

	"sigil/internal/capability"
	"sigil/pkg/domain"
)

// Store persists encrypted profiles and their disclosure state. Stores
// enforce the state machine at the persistence layer: transition methods
// fail with sentinel.ErrInvalidState when the record is not in the expected
// source state, so a racing or replayed operation can never double-apply.
type Store interface {
	// Create allocates the next record ID (starting at 1, never 0) and
	// stores the fields with state Sealed.
	Create(ctx context.Context, fields [FieldCount]capability.Ciphertext, createdAt time.Time) (domain.RecordID, error)

	// Find returns the profile or sentinel.ErrNotFound. Never a zero-valued
	// record.
	Find(ctx context.Context, id domain.RecordID) (*Profile, error)

	// MarkPending transitions Sealed -> PendingDisclosure.
	MarkPending(ctx context.Context, id domain.RecordID) error

	// MarkDisclosed transitions PendingDisclosure -> Disclosed and stores the
	// cleartext fields. The write is all-or-nothing.
	MarkDisclosed(ctx context.Context, id domain.RecordID, cleartexts []string) error
}
