package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/scholarship-api/internal/dto"
	"github.com/noah-isme/scholarship-api/internal/eligibility"
	"github.com/noah-isme/scholarship-api/internal/handler"
	"github.com/noah-isme/scholarship-api/internal/lifecycle"
	"github.com/noah-isme/scholarship-api/internal/models"
	"github.com/noah-isme/scholarship-api/internal/service"
)

var handlerNow = time.Date(2026, 2, 10, 9, 30, 0, 0, time.UTC)

type stubApplicationService struct {
	createReq   dto.CreateApplicationRequest
	decideReq   dto.DecisionRequest
	withdrawReq dto.WithdrawRequest
	actor       lifecycle.Actor
	now         time.Time

	application dto.ApplicationResponse
	transition  dto.TransitionResponse
	list        []dto.ApplicationResponse
	expired     []string
	err         error
}

func (s *stubApplicationService) Create(_ context.Context, req dto.CreateApplicationRequest, now time.Time) (dto.ApplicationResponse, error) {
	s.createReq = req
	s.now = now
	return s.application, s.err
}

func (s *stubApplicationService) Get(_ context.Context, _ string, actor lifecycle.Actor) (dto.ApplicationResponse, error) {
	s.actor = actor
	return s.application, s.err
}

func (s *stubApplicationService) ListForStudent(_ context.Context, actor lifecycle.Actor) ([]dto.ApplicationResponse, error) {
	s.actor = actor
	return s.list, s.err
}

func (s *stubApplicationService) Submit(_ context.Context, _ string, actor lifecycle.Actor, now time.Time) (dto.TransitionResponse, error) {
	s.actor = actor
	s.now = now
	return s.transition, s.err
}

func (s *stubApplicationService) Decide(_ context.Context, _ string, req dto.DecisionRequest, actor lifecycle.Actor, now time.Time) (dto.TransitionResponse, error) {
	s.decideReq = req
	s.actor = actor
	s.now = now
	return s.transition, s.err
}

func (s *stubApplicationService) Withdraw(_ context.Context, _ string, req dto.WithdrawRequest, actor lifecycle.Actor, now time.Time) (dto.TransitionResponse, error) {
	s.withdrawReq = req
	s.actor = actor
	s.now = now
	return s.transition, s.err
}

func (s *stubApplicationService) ExpireOverdue(_ context.Context, now time.Time) ([]string, error) {
	s.now = now
	return s.expired, s.err
}

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Meta    json.RawMessage `json:"meta"`
	Details json.RawMessage `json:"details"`
	Message string          `json:"message"`
}

func withActor(id uint, role string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		c.Locals("user_id", id)
		c.Locals("user_role", role)
		return c.Next()
	}
}

func newApplicationApp(svc service.ApplicationService, actorID uint, role string) *fiber.App {
	h := handler.NewApplicationHandler(svc, zerolog.New(io.Discard)).WithClock(func() time.Time { return handlerNow })

	app := fiber.New()
	group := app.Group("/api/v1/applications", withActor(actorID, role))
	h.Register(group, handler.ApplicationGuards{})
	return app
}

func doRequest(t *testing.T, app *fiber.App, method, path string, payload interface{}) (int, envelope) {
	t.Helper()

	var body io.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		require.NoError(t, err)
		body = bytes.NewReader(raw)
	}

	req := httptest.NewRequest(method, path, body)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	var decoded envelope
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&decoded))
	return resp.StatusCode, decoded
}

func TestApplicationHandlerCreateUsesTokenStudent(t *testing.T) {
	svc := &stubApplicationService{application: dto.ApplicationResponse{ID: "app-1", Status: models.ApplicationStatusDraft}}
	app := newApplicationApp(svc, 77, "student")

	status, body := doRequest(t, app, http.MethodPost, "/api/v1/applications", map[string]interface{}{
		"scholarship_id":     5,
		"personal_statement": "Hello",
	})

	require.Equal(t, http.StatusCreated, status)
	require.True(t, body.Success)
	require.Equal(t, uint(77), svc.createReq.StudentID)
	require.Equal(t, uint(5), svc.createReq.ScholarshipID)
	require.Equal(t, "Hello", svc.createReq.PersonalStatement)
	require.True(t, svc.now.Equal(handlerNow))

	var created dto.ApplicationResponse
	require.NoError(t, json.Unmarshal(body.Data, &created))
	require.Equal(t, "app-1", created.ID)
}

func TestApplicationHandlerRejectsMalformedBody(t *testing.T) {
	svc := &stubApplicationService{}
	app := newApplicationApp(svc, 77, "student")

	req := httptest.NewRequest(http.MethodPost, "/api/v1/applications", bytes.NewBufferString("{not json"))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestApplicationHandlerDecisionPassesPayload(t *testing.T) {
	svc := &stubApplicationService{transition: dto.TransitionResponse{
		Application: dto.ApplicationResponse{ID: "app-9", Status: models.ApplicationStatusApproved},
		Event:       lifecycle.StatusChanged{ApplicationID: "app-9", From: models.ApplicationStatusInterviewCompleted, To: models.ApplicationStatusApproved},
	}}
	app := newApplicationApp(svc, 3, "Reviewer")

	status, body := doRequest(t, app, http.MethodPost, "/api/v1/applications/app-9/decision", map[string]interface{}{
		"status":           "approved",
		"awarded_amount":   "15000.00",
		"evaluation_score": 88.5,
		"note":             "panel agreed",
	})

	require.Equal(t, http.StatusOK, status)
	require.True(t, body.Success)
	require.Equal(t, models.ApplicationStatusApproved, svc.decideReq.Status)
	require.True(t, svc.decideReq.AwardedAmount.Valid)
	require.Equal(t, "15000", svc.decideReq.AwardedAmount.Decimal.String())
	require.NotNil(t, svc.decideReq.EvaluationScore)
	require.Equal(t, lifecycle.Actor{ID: 3, Role: lifecycle.RoleReviewer}, svc.actor)

	var resp dto.TransitionResponse
	require.NoError(t, json.Unmarshal(body.Data, &resp))
	require.Equal(t, models.ApplicationStatusInterviewCompleted, resp.Event.From)
}

func TestApplicationHandlerWithdrawAcceptsEmptyBody(t *testing.T) {
	svc := &stubApplicationService{}
	app := newApplicationApp(svc, 12, "student")

	status, _ := doRequest(t, app, http.MethodPost, "/api/v1/applications/app-1/withdraw", nil)
	require.Equal(t, http.StatusOK, status)
	require.Empty(t, svc.withdrawReq.Reason)

	status, _ = doRequest(t, app, http.MethodPost, "/api/v1/applications/app-1/withdraw", map[string]string{"reason": "accepted elsewhere"})
	require.Equal(t, http.StatusOK, status)
	require.Equal(t, "accepted elsewhere", svc.withdrawReq.Reason)
}

func TestApplicationHandlerListIncludesCount(t *testing.T) {
	svc := &stubApplicationService{list: []dto.ApplicationResponse{{ID: "a"}, {ID: "b"}}}
	app := newApplicationApp(svc, 12, "student")

	status, body := doRequest(t, app, http.MethodGet, "/api/v1/applications", nil)
	require.Equal(t, http.StatusOK, status)

	var meta map[string]int
	require.NoError(t, json.Unmarshal(body.Meta, &meta))
	require.Equal(t, 2, meta["count"])
}

func TestApplicationHandlerErrorMapping(t *testing.T) {
	cases := []struct {
		name   string
		err    error
		status int
	}{
		{name: "validation", err: &service.ValidationError{Field: "status", Message: "bad"}, status: http.StatusBadRequest},
		{name: "forbidden", err: service.ErrForbidden, status: http.StatusForbidden},
		{name: "owner only", err: lifecycle.ErrOwnerOnly, status: http.StatusForbidden},
		{name: "not found", err: service.ErrApplicationNotFound, status: http.StatusNotFound},
		{name: "duplicate", err: &service.DuplicateApplicationError{ExistingID: "app-0"}, status: http.StatusConflict},
		{name: "invalid transition", err: &lifecycle.InvalidTransitionError{From: models.ApplicationStatusDraft, To: models.ApplicationStatusApproved}, status: http.StatusConflict},
		{name: "capacity", err: lifecycle.ErrCapacityExceeded, status: http.StatusConflict},
		{name: "payout transition", err: &lifecycle.InvalidDisbursementTransitionError{From: models.DisbursementCompleted, To: models.DisbursementPending}, status: http.StatusConflict},
		{name: "payout missing", err: service.ErrDisbursementNotFound, status: http.StatusNotFound},
		{name: "not eligible", err: &eligibility.NotEligibleError{Reasons: []eligibility.Reason{eligibility.ReasonCountyMismatch}}, status: http.StatusUnprocessableEntity},
		{name: "closed", err: service.ErrScholarshipNotOpen, status: http.StatusUnprocessableEntity},
		{name: "unexpected", err: errors.New("database exploded"), status: http.StatusInternalServerError},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			svc := &stubApplicationService{err: tc.err}
			app := newApplicationApp(svc, 12, "student")

			status, body := doRequest(t, app, http.MethodPost, "/api/v1/applications/app-1/submit", nil)
			require.Equal(t, tc.status, status)
			require.False(t, body.Success)
			if tc.status == http.StatusInternalServerError {
				require.Equal(t, "internal server error", body.Message)
			}
		})
	}
}

func TestApplicationHandlerErrorDetails(t *testing.T) {
	svc := &stubApplicationService{err: &service.DuplicateApplicationError{ExistingID: "app-0"}}
	app := newApplicationApp(svc, 12, "student")

	_, body := doRequest(t, app, http.MethodPost, "/api/v1/applications", map[string]int{"scholarship_id": 1})
	var details map[string]string
	require.NoError(t, json.Unmarshal(body.Details, &details))
	require.Equal(t, "app-0", details["existing_application_id"])

	svc.err = &eligibility.NotEligibleError{Reasons: []eligibility.Reason{eligibility.ReasonGPABelowMinimum, eligibility.ReasonAgeOutOfRange}}
	_, body = doRequest(t, app, http.MethodPost, "/api/v1/applications/app-1/submit", nil)
	var reasons struct {
		Reasons []eligibility.Reason `json:"reasons"`
	}
	require.NoError(t, json.Unmarshal(body.Details, &reasons))
	require.Equal(t, []eligibility.Reason{eligibility.ReasonGPABelowMinimum, eligibility.ReasonAgeOutOfRange}, reasons.Reasons)
}
