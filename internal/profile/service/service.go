// Package service orchestrates the encrypted-profile lifecycle: submission,
// disclosure request issuance, and authenticated callback handling. All
// mutating paths funnel through here so the one-way state machine and the
// consume-once correlation discipline hold no matter which transport calls
// in.
package service

import (
	"context"
	"errors"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"sigil/internal/authz"
	"sigil/internal/capability"
	"sigil/internal/correlation"
	"sigil/internal/profile"
	"sigil/internal/profile/metrics"
	"sigil/pkg/domain"
	dErrors "sigil/pkg/domain-errors"
	audit "sigil/pkg/platform/audit"
	"sigil/pkg/platform/sentinel"
	"sigil/pkg/requestcontext"
)

// Service implements the primary-record disclosure protocol.
type Service struct {
	store   profile.Store
	table   correlation.Table
	cap     capability.Capability
	policy  authz.Policy
	audit   audit.Publisher
	metrics *metrics.Metrics
	tracer  trace.Tracer
}

// NewService wires the disclosure protocol. metrics may be nil in tests.
func NewService(store profile.Store, table correlation.Table, cap capability.Capability, policy authz.Policy, auditPub audit.Publisher, m *metrics.Metrics) *Service {
	return &Service{
		store:   store,
		table:   table,
		cap:     cap,
		policy:  policy,
		audit:   auditPub,
		metrics: m,
		tracer:  otel.Tracer("sigil/profile"),
	}
}

// Submit stores an encrypted profile and returns its newly allocated ID.
func (s *Service) Submit(ctx context.Context, fields [profile.FieldCount]capability.Ciphertext) (domain.RecordID, error) {
	ctx, span := s.tracer.Start(ctx, "profile.Submit")
	defer span.End()

	caller := requestcontext.Caller(ctx)
	if !s.policy.Can(ctx, caller, authz.ActionSubmit, 0) {
		return 0, dErrors.New(dErrors.CodeForbidden, "caller may not submit profiles")
	}
	for _, f := range fields {
		if len(f) == 0 {
			return 0, dErrors.New(dErrors.CodeBadRequest, "profile fields must all be encrypted values")
		}
	}

	id, err := s.store.Create(ctx, fields, requestcontext.Now(ctx))
	if err != nil {
		return 0, dErrors.Wrap(dErrors.CodeInternal, "store profile", err)
	}

	s.emit(ctx, audit.Event{
		Name:     audit.EventProfileSubmitted,
		RecordID: id,
		Actor:    caller.Subject,
	})
	if s.metrics != nil {
		s.metrics.IncrementProfilesSubmitted()
	}
	return id, nil
}

// Get returns the stored profile without touching disclosure state.
func (s *Service) Get(ctx context.Context, id domain.RecordID) (*profile.Profile, error) {
	caller := requestcontext.Caller(ctx)
	if !s.policy.Can(ctx, caller, authz.ActionRead, id) {
		return nil, dErrors.New(dErrors.CodeForbidden, "caller may not read profiles")
	}
	record, err := s.store.Find(ctx, id)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "no such profile")
		}
		return nil, dErrors.Wrap(dErrors.CodeInternal, "find profile", err)
	}
	return record, nil
}

// RequestDisclosure asks the capability to disclose every field of a sealed
// profile. The returned request ID will be carried by the eventual callback.
func (s *Service) RequestDisclosure(ctx context.Context, id domain.RecordID) (domain.RequestID, error) {
	ctx, span := s.tracer.Start(ctx, "profile.RequestDisclosure")
	defer span.End()

	caller := requestcontext.Caller(ctx)
	if !s.policy.Can(ctx, caller, authz.ActionRequestDisclosure, id) {
		return "", dErrors.New(dErrors.CodeForbidden, "caller may not request disclosure")
	}

	record, err := s.store.Find(ctx, id)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return "", dErrors.New(dErrors.CodeNotFound, "no such profile")
		}
		return "", dErrors.Wrap(dErrors.CodeInternal, "find profile", err)
	}
	switch record.State {
	case profile.StateDisclosed:
		return "", dErrors.New(dErrors.CodeAlreadyDisclosed, "profile already disclosed")
	case profile.StatePendingDisclosure:
		return "", dErrors.New(dErrors.CodeAlreadyPending, "disclosure already outstanding")
	}

	handles := make([]capability.Handle, 0, profile.FieldCount)
	for _, f := range record.Fields {
		h, err := s.cap.ToRequestHandle(f)
		if err != nil {
			return "", dErrors.Wrap(dErrors.CodeInternal, "convert ciphertext handle", err)
		}
		handles = append(handles, h)
	}

	requestID, err := s.cap.RequestDisclosure(ctx, handles)
	if err != nil {
		return "", dErrors.Wrap(dErrors.CodeInternal, "issue disclosure request", err)
	}

	if err := s.table.Register(ctx, requestID, correlation.Target{RecordID: id}); err != nil {
		// Capability request IDs are assumed collision-free; a conflict here
		// means something is badly wrong upstream.
		return "", dErrors.Wrap(dErrors.CodeInternal, "register correlation entry", err)
	}
	if err := s.store.MarkPending(ctx, id); err != nil {
		return "", dErrors.Wrap(dErrors.CodeInternal, "mark profile pending", err)
	}

	s.emit(ctx, audit.Event{
		Name:                audit.EventDisclosureRequested,
		RecordID:            id,
		DisclosureRequestID: requestID,
		Actor:               caller.Subject,
	})
	if s.metrics != nil {
		s.metrics.IncrementDisclosuresRequested()
	}
	return requestID, nil
}

// HandleDisclosureCallback authenticates and applies a disclosure result.
//
// Order matters: arity and proof are checked before the correlation entry is
// consumed so that a malformed or forged delivery leaves both the record and
// the table untouched, while the atomic consume remains the sole gate
// against double application of a genuine result.
func (s *Service) HandleDisclosureCallback(ctx context.Context, requestID domain.RequestID, cleartexts []string, proof []byte) error {
	ctx, span := s.tracer.Start(ctx, "profile.HandleDisclosureCallback")
	defer span.End()

	if len(cleartexts) != profile.FieldCount {
		s.reject(ctx, requestID, 0, "arity mismatch")
		return dErrors.New(dErrors.CodeArityMismatch, "cleartext count disagrees with field count")
	}

	ok, err := s.cap.Verify(ctx, requestID, cleartexts, proof)
	if err != nil {
		return dErrors.Wrap(dErrors.CodeInternal, "verify disclosure proof", err)
	}
	if !ok {
		s.reject(ctx, requestID, 0, "invalid proof")
		return dErrors.New(dErrors.CodeInvalidProof, "disclosure proof did not verify")
	}

	target, err := s.table.Consume(ctx, requestID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			s.reject(ctx, requestID, 0, "unknown or consumed request")
			return dErrors.New(dErrors.CodeUnknownRequest, "no outstanding request for identifier")
		}
		return dErrors.Wrap(dErrors.CodeInternal, "consume correlation entry", err)
	}

	if err := s.store.MarkDisclosed(ctx, target.RecordID, cleartexts); err != nil {
		return dErrors.Wrap(dErrors.CodeInternal, "mark profile disclosed", err)
	}

	s.emit(ctx, audit.Event{
		Name:                audit.EventProfileDisclosed,
		RecordID:            target.RecordID,
		DisclosureRequestID: requestID,
	})
	if s.metrics != nil {
		s.metrics.IncrementProfilesDisclosed()
	}
	return nil
}

// ReadDisclosed projects the disclosure result. When the profile is not yet
// revealed the fields are empty, never stale or partial.
func (s *Service) ReadDisclosed(ctx context.Context, id domain.RecordID) ([]string, bool, error) {
	record, err := s.Get(ctx, id)
	if err != nil {
		return nil, false, err
	}
	if !record.Revealed() {
		return []string{}, false, nil
	}
	return record.Cleartext, true, nil
}

func (s *Service) reject(ctx context.Context, requestID domain.RequestID, id domain.RecordID, reason string) {
	s.emit(ctx, audit.Event{
		Name:                audit.EventCallbackRejected,
		RecordID:            id,
		DisclosureRequestID: requestID,
		Reason:              reason,
	})
	if s.metrics != nil {
		s.metrics.IncrementCallbacksRejected()
	}
}

func (s *Service) emit(ctx context.Context, event audit.Event) {
	event.RequestID = requestcontext.RequestID(ctx)
	event.Timestamp = requestcontext.Now(ctx)
	_ = s.audit.Emit(ctx, event)
}
