// Package plan holds the learning-plan artifact derived from an encrypted
// profile. A plan carries one ciphertext per plan field and discloses
// field-by-field, unlike profiles which disclose whole.
package plan

import (
	"time"

	"sigil/internal/capability"
	"sigil/pkg/domain"
)

// FieldCount is the number of encrypted fields in a plan: method,
// difficulty, pacing.
const FieldCount = len(domain.PlanFields)

// FieldState tracks disclosure per field. Transitions are one-way:
// sealed -> pending_disclosure -> disclosed.
type FieldState string

const (
	FieldSealed            FieldState = "sealed"
	FieldPendingDisclosure FieldState = "pending_disclosure"
	FieldDisclosed         FieldState = "disclosed"
)

// Plan is a generated learning plan keyed by the profile it was derived
// from. Cleartext[i] is non-empty only when States[i] is disclosed.
type Plan struct {
	RecordID    domain.RecordID
	Fields      [FieldCount]capability.Ciphertext
	States      [FieldCount]FieldState
	Cleartext   [FieldCount]string
	GeneratedAt time.Time
}

// FieldRevealed reports whether the given field's cleartext is available.
func (p *Plan) FieldRevealed(field domain.PlanField) bool {
	idx := field.Index()
	return idx >= 0 && p.States[idx] == FieldDisclosed
}
