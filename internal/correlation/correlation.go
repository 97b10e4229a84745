// Package correlation tracks outstanding disclosure requests. Every request
// the capability issues gets exactly one entry here, and the matching
// callback consumes it exactly once. The atomic consume is the only thing
// standing between a replayed callback and a double write, so both backends
// treat it as the invariant to protect.
package correlation

import (
	"context"

	"sigil/pkg/domain"
)

// Target identifies what an outstanding disclosure request concerns.
// A nil Field means "all profile fields"; a non-nil Field names the single
// learning-plan field being disclosed.
type Target struct {
	RecordID domain.RecordID
	Field    *domain.PlanField
}

// Table maps outstanding request identifiers to their targets.
type Table interface {
	// Register records a new outstanding request. Request identifiers from
	// the capability are assumed collision-free, but a duplicate is rejected
	// with sentinel.ErrConflict rather than silently overwritten.
	Register(ctx context.Context, requestID domain.RequestID, target Target) error

	// Consume atomically looks up and removes the entry. A missing or
	// already-consumed identifier yields sentinel.ErrNotFound. Concurrent
	// deliveries of the same identifier must resolve to exactly one winner.
	Consume(ctx context.Context, requestID domain.RequestID) (Target, error)
}
