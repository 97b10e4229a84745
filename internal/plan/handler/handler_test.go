package handler

import (
	"context"
	"log/slog"
	"net/http"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"sigil/internal/authz"
	"sigil/internal/capability"
	"sigil/internal/correlation"
	"sigil/internal/plan"
	"sigil/internal/plan/service"
	"sigil/internal/platform/middleware"
	"sigil/internal/profile"
	"sigil/pkg/domain"
	audit "sigil/pkg/platform/audit"
	"sigil/pkg/testutil"
)

// HandlerSuite drives the plan routes through the real router with real
// in-memory stores and the dev capability.
type HandlerSuite struct {
	suite.Suite
	router   http.Handler
	cap      *capability.DevCapability
	parser   *authz.TokenParser
	profiles *profile.MemoryStore
}

func (s *HandlerSuite) SetupTest() {
	devCap, err := capability.NewDevCapability("test-proof-key")
	require.NoError(s.T(), err)
	s.cap = devCap
	s.parser = authz.NewTokenParser("test-signing-key")
	s.profiles = profile.NewMemoryStore()

	svc := service.NewService(
		plan.NewMemoryStore(),
		s.profiles,
		correlation.NewMemoryTable(),
		devCap,
		authz.RolePolicy{},
		audit.Discard{},
		nil,
	)

	logger := slog.New(slog.DiscardHandler)
	h := New(svc, logger)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RequestTime)
	r.Route("/v1", func(v chi.Router) {
		v.Use(middleware.RequireAuth(s.parser, logger))
		h.RegisterAPI(v)
	})
	h.RegisterCallbacks(r)
	s.router = r
}

func TestHandlerSuite(t *testing.T) {
	suite.Run(t, new(HandlerSuite))
}

func (s *HandlerSuite) bearer(req *http.Request, role domain.Role) *http.Request {
	token, err := s.parser.IssueToken(domain.Caller{Subject: "tester", Role: role})
	require.NoError(s.T(), err)
	req.Header.Set("Authorization", "Bearer "+token)
	return req
}

func (s *HandlerSuite) seedProfile() domain.RecordID {
	fields := [profile.FieldCount]capability.Ciphertext{
		s.cap.Encrypt("visual"), s.cap.Encrypt("calm"), s.cap.Encrypt("80%"),
	}
	id, err := s.profiles.Create(context.Background(), fields, time.Now())
	require.NoError(s.T(), err)
	return id
}

func (s *HandlerSuite) planBody() submitPlanRequest {
	return submitPlanRequest{
		Method:     s.cap.Encrypt("spaced repetition"),
		Difficulty: s.cap.Encrypt("intermediate"),
		Pacing:     s.cap.Encrypt("weekly"),
	}
}

func (s *HandlerSuite) submitPlan() {
	req := s.bearer(testutil.NewJSONRequest(s.T(), http.MethodPut, "/v1/profiles/1/plan", s.planBody()), domain.RoleService)
	rec := testutil.DoRequest(s.router, req)
	testutil.AssertStatus(s.T(), rec, http.StatusNoContent)
}

func (s *HandlerSuite) TestRequestAnalysis() {
	s.seedProfile()

	req := s.bearer(testutil.NewJSONRequest(s.T(), http.MethodPost, "/v1/profiles/1/analysis", nil), domain.RoleCounselor)
	rec := testutil.DoRequest(s.router, req)
	testutil.AssertStatus(s.T(), rec, http.StatusAccepted)
}

func (s *HandlerSuite) TestRequestAnalysis_UnknownProfile() {
	req := s.bearer(testutil.NewJSONRequest(s.T(), http.MethodPost, "/v1/profiles/42/analysis", nil), domain.RoleCounselor)
	rec := testutil.DoRequest(s.router, req)
	testutil.AssertStatusAndError(s.T(), rec, http.StatusNotFound, "not_found")
}

func (s *HandlerSuite) TestSubmitPlan() {
	s.seedProfile()
	s.submitPlan()

	req := s.bearer(testutil.NewJSONRequest(s.T(), http.MethodGet, "/v1/profiles/1/plan", nil), domain.RoleCounselor)
	rec := testutil.DoRequest(s.router, req)
	testutil.AssertStatus(s.T(), rec, http.StatusOK)
	got := testutil.UnmarshalResponse[planResponse](s.T(), rec)
	assert.Equal(s.T(), uint64(1), got.RecordID)
	assert.Equal(s.T(), "sealed", got.Fields["method"])
	assert.Equal(s.T(), "sealed", got.Fields["difficulty"])
	assert.Equal(s.T(), "sealed", got.Fields["pacing"])
}

func (s *HandlerSuite) TestSubmitPlan_CounselorForbidden() {
	s.seedProfile()
	req := s.bearer(testutil.NewJSONRequest(s.T(), http.MethodPut, "/v1/profiles/1/plan", s.planBody()), domain.RoleCounselor)
	rec := testutil.DoRequest(s.router, req)
	testutil.AssertStatusAndError(s.T(), rec, http.StatusForbidden, "forbidden")
}

func (s *HandlerSuite) TestFieldDisclosureFlow() {
	s.seedProfile()
	s.submitPlan()

	// Counselor asks for one field.
	req := s.bearer(testutil.NewJSONRequest(s.T(), http.MethodPost, "/v1/profiles/1/plan/method/disclosure", nil), domain.RoleCounselor)
	rec := testutil.DoRequest(s.router, req)
	testutil.AssertStatus(s.T(), rec, http.StatusAccepted)
	requestID := testutil.UnmarshalResponse[disclosureRequestResponse](s.T(), rec).RequestID
	require.NotEmpty(s.T(), requestID)

	// The decryption agent delivers the single-field callback.
	callback := fieldCallbackRequest{
		RequestID: requestID,
		Cleartext: "spaced repetition",
		Proof:     s.cap.ProofFor(domain.RequestID(requestID), []string{"spaced repetition"}),
	}
	rec = testutil.DoRequest(s.router, testutil.NewJSONRequest(s.T(), http.MethodPost, "/callbacks/plan-disclosure", callback))
	testutil.AssertStatus(s.T(), rec, http.StatusNoContent)

	// The field reads back; its siblings stay sealed.
	req = s.bearer(testutil.NewJSONRequest(s.T(), http.MethodGet, "/v1/profiles/1/plan/method", nil), domain.RoleCounselor)
	rec = testutil.DoRequest(s.router, req)
	testutil.AssertStatus(s.T(), rec, http.StatusOK)
	field := testutil.UnmarshalResponse[fieldResponse](s.T(), rec)
	assert.True(s.T(), field.Revealed)
	assert.Equal(s.T(), "spaced repetition", field.Value)

	req = s.bearer(testutil.NewJSONRequest(s.T(), http.MethodGet, "/v1/profiles/1/plan/pacing", nil), domain.RoleCounselor)
	rec = testutil.DoRequest(s.router, req)
	testutil.AssertStatus(s.T(), rec, http.StatusOK)
	sibling := testutil.UnmarshalResponse[fieldResponse](s.T(), rec)
	assert.False(s.T(), sibling.Revealed)
	assert.Empty(s.T(), sibling.Value)

	// Replay conflicts.
	rec = testutil.DoRequest(s.router, testutil.NewJSONRequest(s.T(), http.MethodPost, "/callbacks/plan-disclosure", callback))
	testutil.AssertStatusAndError(s.T(), rec, http.StatusConflict, "unknown_request")
}

func (s *HandlerSuite) TestFieldDisclosure_UnknownField() {
	s.seedProfile()
	s.submitPlan()

	req := s.bearer(testutil.NewJSONRequest(s.T(), http.MethodPost, "/v1/profiles/1/plan/mood/disclosure", nil), domain.RoleCounselor)
	rec := testutil.DoRequest(s.router, req)
	testutil.AssertStatusAndError(s.T(), rec, http.StatusBadRequest, "bad_request")
}

func (s *HandlerSuite) TestFieldCallback_InvalidProof() {
	s.seedProfile()
	s.submitPlan()

	req := s.bearer(testutil.NewJSONRequest(s.T(), http.MethodPost, "/v1/profiles/1/plan/difficulty/disclosure", nil), domain.RoleCounselor)
	rec := testutil.DoRequest(s.router, req)
	testutil.AssertStatus(s.T(), rec, http.StatusAccepted)
	requestID := testutil.UnmarshalResponse[disclosureRequestResponse](s.T(), rec).RequestID

	callback := fieldCallbackRequest{
		RequestID: requestID,
		Cleartext: "intermediate",
		Proof:     []byte("forged"),
	}
	rec = testutil.DoRequest(s.router, testutil.NewJSONRequest(s.T(), http.MethodPost, "/callbacks/plan-disclosure", callback))
	testutil.AssertStatusAndError(s.T(), rec, http.StatusUnauthorized, "invalid_proof")
}

func (s *HandlerSuite) TestGetPlan_NonePresent() {
	s.seedProfile()
	req := s.bearer(testutil.NewJSONRequest(s.T(), http.MethodGet, "/v1/profiles/1/plan", nil), domain.RoleCounselor)
	rec := testutil.DoRequest(s.router, req)
	testutil.AssertStatusAndError(s.T(), rec, http.StatusNotFound, "not_found")
}
