package audit

import (
	"time"

	"sigil/pkg/domain"
)

// EventCategory classifies audit events by their primary purpose.
// This enables different retention policies, storage backends, and routing.
type EventCategory string

const (
	// CategoryCompliance covers events with legal/regulatory significance.
	// Disclosing a student's cleartext data always lands here.
	CategoryCompliance EventCategory = "compliance"

	// CategorySecurity covers events relevant to security monitoring and
	// forensics, e.g. rejected or replayed disclosure callbacks.
	CategorySecurity EventCategory = "security"

	// CategoryOperations covers events useful for debugging and operational
	// visibility: submissions, analysis requests, plan generation.
	CategoryOperations EventCategory = "operations"
)

// Event is emitted from domain logic to capture key actions. Keep it
// transport-agnostic so stores and sinks can fan out.
type Event struct {
	Name      EventName
	Category  EventCategory
	Timestamp time.Time

	// RecordID is the affected profile/plan identifier. Zero only for events
	// that could not be correlated to a record (e.g. unknown-request
	// callbacks).
	RecordID domain.RecordID

	// DisclosureRequestID is the capability-issued request identifier, set on
	// disclosure request/callback events.
	DisclosureRequestID domain.RequestID

	// Field is set on per-field plan disclosure events.
	Field domain.PlanField

	// Actor identifies who triggered the action, when authenticated.
	Actor string

	// RequestID is the HTTP correlation ID from the request context.
	RequestID string

	// Reason carries the rejection cause on security events.
	Reason string
}

// EventName identifies a kind of audit event.
type EventName string

const (
	// Profile lifecycle
	EventProfileSubmitted    EventName = "profile_submitted"
	EventDisclosureRequested EventName = "disclosure_requested"
	EventProfileDisclosed    EventName = "profile_disclosed"

	// Learning-plan lifecycle
	EventAnalysisRequested       EventName = "analysis_requested"
	EventPlanGenerated           EventName = "plan_generated"
	EventPlanDisclosureRequested EventName = "plan_disclosure_requested"
	EventPlanFieldDisclosed      EventName = "plan_field_disclosed"

	// Security
	EventCallbackRejected EventName = "callback_rejected"
)

// eventCategories maps each audit event to its category.
var eventCategories = map[EventName]EventCategory{
	EventProfileSubmitted:        CategoryOperations,
	EventDisclosureRequested:     CategoryCompliance,
	EventProfileDisclosed:        CategoryCompliance,
	EventAnalysisRequested:       CategoryOperations,
	EventPlanGenerated:           CategoryOperations,
	EventPlanDisclosureRequested: CategoryCompliance,
	EventPlanFieldDisclosed:      CategoryCompliance,
	EventCallbackRejected:        CategorySecurity,
}

// Category returns the EventCategory for this audit event.
// Unknown events default to CategoryOperations.
func (e EventName) Category() EventCategory {
	if cat, ok := eventCategories[e]; ok {
		return cat
	}
	return CategoryOperations
}
