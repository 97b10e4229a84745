// Package handler exposes the learning-plan protocol over HTTP.
package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"sigil/internal/capability"
	"sigil/internal/plan"
	"sigil/pkg/domain"
	dErrors "sigil/pkg/domain-errors"
	"sigil/pkg/platform/httputil"
	"sigil/pkg/requestcontext"
)

// Service defines the plan operations the handler delegates to.
type Service interface {
	RequestAnalysis(ctx context.Context, id domain.RecordID) error
	SubmitPlan(ctx context.Context, id domain.RecordID, fields [plan.FieldCount]capability.Ciphertext) error
	Get(ctx context.Context, id domain.RecordID) (*plan.Plan, error)
	RequestFieldDisclosure(ctx context.Context, id domain.RecordID, field domain.PlanField) (domain.RequestID, error)
	HandleFieldCallback(ctx context.Context, requestID domain.RequestID, cleartext string, proof []byte) error
	ReadDisclosedField(ctx context.Context, id domain.RecordID, field domain.PlanField) (string, bool, error)
}

// Handler handles learning-plan endpoints.
type Handler struct {
	logger  *slog.Logger
	service Service
}

// New creates a plan Handler.
func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{
		logger:  logger,
		service: service,
	}
}

// RegisterAPI adds the bearer-token-protected plan routes. The caller
// applies the auth middleware to the router it passes in.
func (h *Handler) RegisterAPI(r chi.Router) {
	r.Post("/profiles/{id}/analysis", h.handleRequestAnalysis)
	r.Put("/profiles/{id}/plan", h.handleSubmitPlan)
	r.Get("/profiles/{id}/plan", h.handleGet)
	r.Post("/profiles/{id}/plan/{field}/disclosure", h.handleRequestFieldDisclosure)
	r.Get("/profiles/{id}/plan/{field}", h.handleReadField)
}

// RegisterCallbacks adds the proof-authenticated capability callback route.
func (h *Handler) RegisterCallbacks(r chi.Router) {
	r.Post("/callbacks/plan-disclosure", h.handleFieldCallback)
}

func (h *Handler) handleRequestAnalysis(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id, ok := h.recordID(w, r)
	if !ok {
		return
	}

	if err := h.service.RequestAnalysis(ctx, id); err != nil {
		h.writeServiceError(ctx, w, "request analysis", err)
		return
	}

	w.WriteHeader(http.StatusAccepted)
}

func (h *Handler) handleSubmitPlan(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id, ok := h.recordID(w, r)
	if !ok {
		return
	}

	var req submitPlanRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}

	fields := [plan.FieldCount]capability.Ciphertext{req.Method, req.Difficulty, req.Pacing}
	if err := h.service.SubmitPlan(ctx, id, fields); err != nil {
		h.writeServiceError(ctx, w, "submit plan", err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id, ok := h.recordID(w, r)
	if !ok {
		return
	}

	p, err := h.service.Get(ctx, id)
	if err != nil {
		h.writeServiceError(ctx, w, "get plan", err)
		return
	}

	states := make(map[string]string, plan.FieldCount)
	for i, field := range domain.PlanFields {
		states[field.String()] = string(p.States[i])
	}
	httputil.WriteJSON(w, http.StatusOK, planResponse{
		RecordID:    uint64(p.RecordID),
		GeneratedAt: p.GeneratedAt,
		Fields:      states,
	})
}

func (h *Handler) handleRequestFieldDisclosure(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id, ok := h.recordID(w, r)
	if !ok {
		return
	}
	field, ok := h.planField(w, r)
	if !ok {
		return
	}

	requestID, err := h.service.RequestFieldDisclosure(ctx, id, field)
	if err != nil {
		h.writeServiceError(ctx, w, "request plan field disclosure", err)
		return
	}

	httputil.WriteJSON(w, http.StatusAccepted, disclosureRequestResponse{RequestID: requestID.String()})
}

func (h *Handler) handleReadField(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id, ok := h.recordID(w, r)
	if !ok {
		return
	}
	field, ok := h.planField(w, r)
	if !ok {
		return
	}

	value, revealed, err := h.service.ReadDisclosedField(ctx, id, field)
	if err != nil {
		h.writeServiceError(ctx, w, "read plan field", err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, fieldResponse{Revealed: revealed, Value: value})
}

func (h *Handler) handleFieldCallback(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req fieldCallbackRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}
	if req.RequestID == "" {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "request_id is required"))
		return
	}

	err := h.service.HandleFieldCallback(ctx, domain.RequestID(req.RequestID), req.Cleartext, req.Proof)
	if err != nil {
		h.writeServiceError(ctx, w, "plan disclosure callback", err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) recordID(w http.ResponseWriter, r *http.Request) (domain.RecordID, bool) {
	id, err := domain.ParseRecordID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid record id"))
		return 0, false
	}
	return id, true
}

func (h *Handler) planField(w http.ResponseWriter, r *http.Request) (domain.PlanField, bool) {
	field, err := domain.ParsePlanField(chi.URLParam(r, "field"))
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "unknown plan field"))
		return "", false
	}
	return field, true
}

func (h *Handler) writeServiceError(ctx context.Context, w http.ResponseWriter, op string, err error) {
	if dErrors.CodeOf(err) == dErrors.CodeInternal {
		h.logger.ErrorContext(ctx, "operation failed",
			"op", op,
			"error", err.Error(),
			"request_id", requestcontext.RequestID(ctx))
	} else {
		h.logger.WarnContext(ctx, "request rejected",
			"op", op,
			"error", err.Error(),
			"request_id", requestcontext.RequestID(ctx))
	}
	httputil.WriteError(w, err)
}
