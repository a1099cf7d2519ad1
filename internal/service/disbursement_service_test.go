package service

import (
	"context"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/scholarship-api/internal/dto"
	"github.com/noah-isme/scholarship-api/internal/lifecycle"
	"github.com/noah-isme/scholarship-api/internal/models"
	"github.com/noah-isme/scholarship-api/internal/repository"
)

var adminActor = lifecycle.Actor{ID: 1, Role: lifecycle.RoleAdmin}

func approvedApplication(t *testing.T, f applicationFixture) (models.Student, dto.ApplicationResponse) {
	t.Helper()
	ctx := context.Background()
	student := seedStudent(t, f.db, nil)
	scholarship := seedScholarship(t, f.db, nil)
	created := f.create(t, student, scholarship)

	_, err := f.svc.Submit(ctx, created.ID, studentActor(student), svcNow)
	require.NoError(t, err)
	for _, status := range []models.ApplicationStatus{
		models.ApplicationStatusUnderReview,
		models.ApplicationStatusShortlisted,
		models.ApplicationStatusInterviewScheduled,
		models.ApplicationStatusInterviewCompleted,
	} {
		f.decide(t, created.ID, status)
	}

	approved, err := f.svc.Decide(ctx, created.ID, dto.DecisionRequest{
		Status:        models.ApplicationStatusApproved,
		AwardedAmount: decimal.NewNullDecimal(decimal.NewFromInt(35000)),
	}, reviewerActor, svcNow)
	require.NoError(t, err)
	return student, approved.Application
}

func newDisbursementService(f applicationFixture) DisbursementService {
	return NewDisbursementService(
		repository.NewDisbursementRepository(f.db),
		f.repo,
		validator.New(validator.WithRequiredStructEnabled()),
		testLogger(),
	)
}

func TestDisbursementServicePayoutLifecycle(t *testing.T) {
	f := newApplicationFixture(t)
	svc := newDisbursementService(f)
	student, app := approvedApplication(t, f)
	ctx := context.Background()

	listed, err := svc.ListForApplication(ctx, app.ID, studentActor(student))
	require.NoError(t, err)
	require.Len(t, listed, 1)
	pending := listed[0]
	require.Equal(t, models.DisbursementPending, pending.Status)
	require.True(t, pending.Amount.Equal(decimal.NewFromInt(35000)))

	processed, err := svc.Transition(ctx, pending.ID, dto.DisbursementTransitionRequest{
		Status: models.DisbursementProcessed,
		Method: models.MethodMobileMoney,
		Note:   "<b>batch 12</b>",
	}, adminActor, svcNow)
	require.NoError(t, err)
	require.Equal(t, models.DisbursementProcessed, processed.Status)
	require.Equal(t, models.MethodMobileMoney, processed.Method)
	require.Equal(t, "batch 12", processed.History[1].Note)

	completed, err := svc.Transition(ctx, pending.ID, dto.DisbursementTransitionRequest{
		Status:          models.DisbursementCompleted,
		ReferenceNumber: "MPESA-SK29XQ",
	}, adminActor, svcNow)
	require.NoError(t, err)
	require.Equal(t, models.DisbursementCompleted, completed.Status)
	require.Len(t, completed.History, 3)

	stored, err := f.repo.GetByID(ctx, app.ID)
	require.NoError(t, err)
	require.True(t, stored.TotalDisbursed.Equal(decimal.NewFromInt(35000)), stored.TotalDisbursed.String())

	_, err = svc.Transition(ctx, pending.ID, dto.DisbursementTransitionRequest{Status: models.DisbursementCancelled}, adminActor, svcNow)
	var invalid *lifecycle.InvalidDisbursementTransitionError
	require.ErrorAs(t, err, &invalid)
	require.Equal(t, models.DisbursementCompleted, invalid.From)
}

func TestDisbursementServiceValidation(t *testing.T) {
	f := newApplicationFixture(t)
	svc := newDisbursementService(f)
	_, app := approvedApplication(t, f)
	ctx := context.Background()

	listed, err := svc.ListForApplication(ctx, app.ID, reviewerActor)
	require.NoError(t, err)
	id := listed[0].ID

	_, err = svc.Transition(ctx, id, dto.DisbursementTransitionRequest{Status: models.DisbursementProcessed, Method: models.MethodCash}, reviewerActor, svcNow)
	require.ErrorIs(t, err, ErrForbidden)

	var validationErr *ValidationError
	_, err = svc.Transition(ctx, id, dto.DisbursementTransitionRequest{Status: "paid"}, adminActor, svcNow)
	require.ErrorAs(t, err, &validationErr)
	require.Equal(t, "status", validationErr.Field)

	_, err = svc.Transition(ctx, id, dto.DisbursementTransitionRequest{Status: models.DisbursementProcessed, Method: "barter"}, adminActor, svcNow)
	require.ErrorAs(t, err, &validationErr)

	_, err = svc.Transition(ctx, id, dto.DisbursementTransitionRequest{Status: models.DisbursementProcessed}, adminActor, svcNow)
	require.ErrorAs(t, err, &validationErr)
	require.Equal(t, "method", validationErr.Field)

	_, err = svc.Transition(ctx, id, dto.DisbursementTransitionRequest{Status: models.DisbursementProcessed, Method: models.MethodCheque}, adminActor, svcNow)
	require.NoError(t, err)

	_, err = svc.Transition(ctx, id, dto.DisbursementTransitionRequest{Status: models.DisbursementCompleted}, adminActor, svcNow)
	require.ErrorAs(t, err, &validationErr)
	require.Equal(t, "reference_number", validationErr.Field)

	_, err = svc.Transition(ctx, "missing", dto.DisbursementTransitionRequest{Status: models.DisbursementCancelled}, adminActor, svcNow)
	require.ErrorIs(t, err, ErrDisbursementNotFound)
}

func TestDisbursementServiceListVisibility(t *testing.T) {
	f := newApplicationFixture(t)
	svc := newDisbursementService(f)
	_, app := approvedApplication(t, f)
	ctx := context.Background()

	_, err := svc.ListForApplication(ctx, app.ID, lifecycle.Actor{ID: 4242, Role: lifecycle.RoleStudent})
	require.ErrorIs(t, err, ErrForbidden)

	_, err = svc.ListForApplication(ctx, "missing", adminActor)
	require.ErrorIs(t, err, ErrApplicationNotFound)

	listed, err := svc.ListForApplication(ctx, app.ID, adminActor)
	require.NoError(t, err)
	require.Len(t, listed, 1)
}
