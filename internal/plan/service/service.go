// Package service runs the learning-plan side of the system: analysis
// requests, plan submission by the analysis service, and the per-field
// disclosure protocol. It reuses the same correlation machinery as the
// profile protocol but through an independent table instance, so plan
// request IDs can never redeem profile disclosures or vice versa.
package service

import (
	"context"
	"errors"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"sigil/internal/authz"
	"sigil/internal/capability"
	"sigil/internal/correlation"
	"sigil/internal/plan"
	"sigil/internal/plan/metrics"
	"sigil/internal/profile"
	"sigil/pkg/domain"
	dErrors "sigil/pkg/domain-errors"
	audit "sigil/pkg/platform/audit"
	"sigil/pkg/platform/sentinel"
	"sigil/pkg/requestcontext"
)

// ProfileDirectory is the slice of the profile store the plan service needs:
// plans may only exist for records that do.
type ProfileDirectory interface {
	Find(ctx context.Context, id domain.RecordID) (*profile.Profile, error)
}

// Service implements the learning-plan protocol.
type Service struct {
	store    plan.Store
	profiles ProfileDirectory
	table    correlation.Table
	cap      capability.Capability
	policy   authz.Policy
	audit    audit.Publisher
	metrics  *metrics.Metrics
	tracer   trace.Tracer
}

// NewService wires the plan protocol. metrics may be nil in tests.
func NewService(store plan.Store, profiles ProfileDirectory, table correlation.Table, cap capability.Capability, policy authz.Policy, auditPub audit.Publisher, m *metrics.Metrics) *Service {
	return &Service{
		store:    store,
		profiles: profiles,
		table:    table,
		cap:      cap,
		policy:   policy,
		audit:    auditPub,
		metrics:  m,
		tracer:   otel.Tracer("sigil/plan"),
	}
}

// RequestAnalysis records that a caller asked for a learning-style analysis
// of the given profile. It changes no state; the analysis service answers
// out of band by calling SubmitPlan.
func (s *Service) RequestAnalysis(ctx context.Context, id domain.RecordID) error {
	ctx, span := s.tracer.Start(ctx, "plan.RequestAnalysis")
	defer span.End()

	caller := requestcontext.Caller(ctx)
	if !s.policy.Can(ctx, caller, authz.ActionRequestAnalysis, id) {
		return dErrors.New(dErrors.CodeForbidden, "caller may not request analysis")
	}
	if err := s.profileExists(ctx, id); err != nil {
		return err
	}

	s.emit(ctx, audit.Event{
		Name:     audit.EventAnalysisRequested,
		RecordID: id,
		Actor:    caller.Subject,
	})
	if s.metrics != nil {
		s.metrics.IncrementAnalysesRequested()
	}
	return nil
}

// SubmitPlan stores the encrypted plan produced for a record. Resubmission
// overwrites: a regenerated plan supersedes the old one wholesale, including
// any disclosure progress on it.
func (s *Service) SubmitPlan(ctx context.Context, id domain.RecordID, fields [plan.FieldCount]capability.Ciphertext) error {
	ctx, span := s.tracer.Start(ctx, "plan.SubmitPlan")
	defer span.End()

	caller := requestcontext.Caller(ctx)
	if !s.policy.Can(ctx, caller, authz.ActionSubmitPlan, id) {
		return dErrors.New(dErrors.CodeForbidden, "caller may not submit plans")
	}
	for _, f := range fields {
		if len(f) == 0 {
			return dErrors.New(dErrors.CodeBadRequest, "plan fields must all be encrypted values")
		}
	}
	if err := s.profileExists(ctx, id); err != nil {
		return err
	}

	if err := s.store.Put(ctx, id, fields, requestcontext.Now(ctx)); err != nil {
		return dErrors.Wrap(dErrors.CodeInternal, "store plan", err)
	}

	s.emit(ctx, audit.Event{
		Name:     audit.EventPlanGenerated,
		RecordID: id,
		Actor:    caller.Subject,
	})
	if s.metrics != nil {
		s.metrics.IncrementPlansGenerated()
	}
	return nil
}

// Get returns the stored plan without touching disclosure state.
func (s *Service) Get(ctx context.Context, id domain.RecordID) (*plan.Plan, error) {
	caller := requestcontext.Caller(ctx)
	if !s.policy.Can(ctx, caller, authz.ActionRead, id) {
		return nil, dErrors.New(dErrors.CodeForbidden, "caller may not read plans")
	}
	p, err := s.store.Find(ctx, id)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "no plan for record")
		}
		return nil, dErrors.Wrap(dErrors.CodeInternal, "find plan", err)
	}
	return p, nil
}

// RequestFieldDisclosure asks the capability to disclose a single plan
// field. Each field runs its own sealed -> pending -> disclosed lifecycle.
func (s *Service) RequestFieldDisclosure(ctx context.Context, id domain.RecordID, field domain.PlanField) (domain.RequestID, error) {
	ctx, span := s.tracer.Start(ctx, "plan.RequestFieldDisclosure")
	defer span.End()

	caller := requestcontext.Caller(ctx)
	if !s.policy.Can(ctx, caller, authz.ActionRequestPlanDisclosure, id) {
		return "", dErrors.New(dErrors.CodeForbidden, "caller may not request plan disclosure")
	}
	idx := field.Index()
	if idx < 0 {
		return "", dErrors.New(dErrors.CodeBadRequest, "unknown plan field")
	}

	p, err := s.store.Find(ctx, id)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return "", dErrors.New(dErrors.CodeNotFound, "no plan for record")
		}
		return "", dErrors.Wrap(dErrors.CodeInternal, "find plan", err)
	}
	switch p.States[idx] {
	case plan.FieldDisclosed:
		return "", dErrors.New(dErrors.CodeAlreadyDisclosed, "plan field already disclosed")
	case plan.FieldPendingDisclosure:
		return "", dErrors.New(dErrors.CodeAlreadyPending, "field disclosure already outstanding")
	}

	handle, err := s.cap.ToRequestHandle(p.Fields[idx])
	if err != nil {
		return "", dErrors.Wrap(dErrors.CodeInternal, "convert ciphertext handle", err)
	}
	requestID, err := s.cap.RequestDisclosure(ctx, []capability.Handle{handle})
	if err != nil {
		return "", dErrors.Wrap(dErrors.CodeInternal, "issue disclosure request", err)
	}

	if err := s.table.Register(ctx, requestID, correlation.Target{RecordID: id, Field: &field}); err != nil {
		return "", dErrors.Wrap(dErrors.CodeInternal, "register correlation entry", err)
	}
	if err := s.store.MarkFieldPending(ctx, id, field); err != nil {
		return "", dErrors.Wrap(dErrors.CodeInternal, "mark plan field pending", err)
	}

	s.emit(ctx, audit.Event{
		Name:                audit.EventPlanDisclosureRequested,
		RecordID:            id,
		DisclosureRequestID: requestID,
		Field:               field,
		Actor:               caller.Subject,
	})
	if s.metrics != nil {
		s.metrics.IncrementDisclosuresRequested(field.String())
	}
	return requestID, nil
}

// HandleFieldCallback authenticates and applies a single-field disclosure
// result. Same discipline as the profile callback: proof before consume,
// consume before write.
func (s *Service) HandleFieldCallback(ctx context.Context, requestID domain.RequestID, cleartext string, proof []byte) error {
	ctx, span := s.tracer.Start(ctx, "plan.HandleFieldCallback")
	defer span.End()

	ok, err := s.cap.Verify(ctx, requestID, []string{cleartext}, proof)
	if err != nil {
		return dErrors.Wrap(dErrors.CodeInternal, "verify disclosure proof", err)
	}
	if !ok {
		s.reject(ctx, requestID, "invalid proof")
		return dErrors.New(dErrors.CodeInvalidProof, "disclosure proof did not verify")
	}

	target, err := s.table.Consume(ctx, requestID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			s.reject(ctx, requestID, "unknown or consumed request")
			return dErrors.New(dErrors.CodeUnknownRequest, "no outstanding request for identifier")
		}
		return dErrors.Wrap(dErrors.CodeInternal, "consume correlation entry", err)
	}
	if target.Field == nil {
		return dErrors.New(dErrors.CodeInternal, "correlation entry missing field")
	}

	if err := s.store.MarkFieldDisclosed(ctx, target.RecordID, *target.Field, cleartext); err != nil {
		return dErrors.Wrap(dErrors.CodeInternal, "mark plan field disclosed", err)
	}

	s.emit(ctx, audit.Event{
		Name:                audit.EventPlanFieldDisclosed,
		RecordID:            target.RecordID,
		DisclosureRequestID: requestID,
		Field:               *target.Field,
	})
	if s.metrics != nil {
		s.metrics.IncrementFieldsDisclosed(target.Field.String())
	}
	return nil
}

// ReadDisclosedField projects one field's disclosure result. Fields not yet
// disclosed read as empty.
func (s *Service) ReadDisclosedField(ctx context.Context, id domain.RecordID, field domain.PlanField) (string, bool, error) {
	idx := field.Index()
	if idx < 0 {
		return "", false, dErrors.New(dErrors.CodeBadRequest, "unknown plan field")
	}
	p, err := s.Get(ctx, id)
	if err != nil {
		return "", false, err
	}
	if p.States[idx] != plan.FieldDisclosed {
		return "", false, nil
	}
	return p.Cleartext[idx], true, nil
}

func (s *Service) profileExists(ctx context.Context, id domain.RecordID) error {
	if _, err := s.profiles.Find(ctx, id); err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return dErrors.New(dErrors.CodeNotFound, "no such profile")
		}
		return dErrors.Wrap(dErrors.CodeInternal, "find profile", err)
	}
	return nil
}

func (s *Service) reject(ctx context.Context, requestID domain.RequestID, reason string) {
	s.emit(ctx, audit.Event{
		Name:                audit.EventCallbackRejected,
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
