// Package handler exposes the profile vault over HTTP. It is a thin layer:
// decode, delegate, encode. All protocol decisions live in the service.
package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"sigil/internal/capability"
	"sigil/internal/profile"
	"sigil/pkg/domain"
	dErrors "sigil/pkg/domain-errors"
	"sigil/pkg/platform/httputil"
	"sigil/pkg/requestcontext"
)

// Service defines the profile operations the handler delegates to.
type Service interface {
	Submit(ctx context.Context, fields [profile.FieldCount]capability.Ciphertext) (domain.RecordID, error)
	Get(ctx context.Context, id domain.RecordID) (*profile.Profile, error)
	RequestDisclosure(ctx context.Context, id domain.RecordID) (domain.RequestID, error)
	HandleDisclosureCallback(ctx context.Context, requestID domain.RequestID, cleartexts []string, proof []byte) error
	ReadDisclosed(ctx context.Context, id domain.RecordID) ([]string, bool, error)
}

// Handler handles profile vault endpoints.
type Handler struct {
	logger  *slog.Logger
	service Service
}

// New creates a profile Handler.
func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{
		logger:  logger,
		service: service,
	}
}

// RegisterVault adds the bearer-token-protected vault routes. The caller
// applies the auth middleware to the router it passes in.
func (h *Handler) RegisterVault(r chi.Router) {
	r.Post("/profiles", h.handleSubmit)
	r.Get("/profiles/{id}", h.handleGet)
	r.Post("/profiles/{id}/disclosure", h.handleRequestDisclosure)
	r.Get("/profiles/{id}/disclosed", h.handleReadDisclosed)
}

// RegisterCallbacks adds the capability callback route. It is
// proof-authenticated, not token-authenticated, so it stays outside the
// auth-protected group.
func (h *Handler) RegisterCallbacks(r chi.Router) {
	r.Post("/callbacks/profile-disclosure", h.handleDisclosureCallback)
}

func (h *Handler) handleSubmit(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req submitProfileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}

	fields := [profile.FieldCount]capability.Ciphertext{
		req.LearningStyle, req.StudyEnvironment, req.Comprehension,
	}
	id, err := h.service.Submit(ctx, fields)
	if err != nil {
		h.writeServiceError(ctx, w, "submit profile", err)
		return
	}

	httputil.WriteJSON(w, http.StatusCreated, submitProfileResponse{RecordID: uint64(id)})
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id, ok := h.recordID(w, r)
	if !ok {
		return
	}

	record, err := h.service.Get(ctx, id)
	if err != nil {
		h.writeServiceError(ctx, w, "get profile", err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, profileResponse{
		RecordID:  uint64(record.ID),
		State:     string(record.State),
		CreatedAt: record.CreatedAt,
	})
}

func (h *Handler) handleRequestDisclosure(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id, ok := h.recordID(w, r)
	if !ok {
		return
	}

	requestID, err := h.service.RequestDisclosure(ctx, id)
	if err != nil {
		h.writeServiceError(ctx, w, "request disclosure", err)
		return
	}

	httputil.WriteJSON(w, http.StatusAccepted, disclosureRequestResponse{RequestID: requestID.String()})
}

func (h *Handler) handleReadDisclosed(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id, ok := h.recordID(w, r)
	if !ok {
		return
	}

	fields, revealed, err := h.service.ReadDisclosed(ctx, id)
	if err != nil {
		h.writeServiceError(ctx, w, "read disclosed profile", err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, disclosedResponse{Revealed: revealed, Fields: fields})
}

func (h *Handler) handleDisclosureCallback(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req disclosureCallbackRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}
	if req.RequestID == "" {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "request_id is required"))
		return
	}

	err := h.service.HandleDisclosureCallback(ctx, domain.RequestID(req.RequestID), req.Cleartexts, req.Proof)
	if err != nil {
		h.writeServiceError(ctx, w, "disclosure callback", err)
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
