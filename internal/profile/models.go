package profile

import (
	"time"

	"sigil/internal/capability"
	"sigil/pkg/domain"
)

// FieldCount is the fixed arity of a student profile: learning style, study
// environment, comprehension level.
const FieldCount = 3

// DisclosureState tracks a profile through its one-way lifecycle.
// Sealed -> PendingDisclosure -> Disclosed; a record never re-enters an
// earlier state, and re-disclosure is rejected rather than re-run.
type DisclosureState string

const (
	StateSealed             DisclosureState = "sealed"
	StatePendingDisclosure  DisclosureState = "pending_disclosure"
	StateDisclosed          DisclosureState = "disclosed"
)

// Profile is an encrypted student profile. Fields are opaque ciphertext
// handles; Cleartext is populated only once the record is Disclosed.
// Invariant: len(Cleartext) > 0 iff State == StateDisclosed.
type Profile struct {
	ID        domain.RecordID
	Fields    [FieldCount]capability.Ciphertext
	CreatedAt time.Time
	State     DisclosureState
	Cleartext []string
}

// Revealed reports whether cleartext is available.
func (p *Profile) Revealed() bool { return p.State == StateDisclosed }
