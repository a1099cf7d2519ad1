package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/microcosm-cc/bluemonday"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/noah-isme/scholarship-api/internal/dto"
	"github.com/noah-isme/scholarship-api/internal/lifecycle"
	"github.com/noah-isme/scholarship-api/internal/models"
	"github.com/noah-isme/scholarship-api/internal/observability"
	"github.com/noah-isme/scholarship-api/internal/repository"
)

// DisbursementService tracks payouts of approved awards.
type DisbursementService interface {
	ListForApplication(ctx context.Context, applicationID string, actor lifecycle.Actor) ([]dto.DisbursementResponse, error)
	Transition(ctx context.Context, id string, req dto.DisbursementTransitionRequest, actor lifecycle.Actor, now time.Time) (dto.DisbursementResponse, error)
}

type disbursementService struct {
	disbursements repository.DisbursementRepository
	applications  repository.ApplicationRepository
	validator     *validator.Validate
	sanitizer     *bluemonday.Policy
	logger        zerolog.Logger
	tracer        trace.Tracer
}

// NewDisbursementService constructs the payout tracking service.
func NewDisbursementService(
	disbursements repository.DisbursementRepository,
	applications repository.ApplicationRepository,
	validate *validator.Validate,
	logger zerolog.Logger,
) DisbursementService {
	if validate == nil {
		validate = validator.New(validator.WithRequiredStructEnabled())
	}

	return &disbursementService{
		disbursements: disbursements,
		applications:  applications,
		validator:     validate,
		sanitizer:     bluemonday.StrictPolicy(),
		logger:        logger.With().Str("component", "disbursement_service").Logger(),
		tracer:        otel.Tracer("github.com/noah-isme/scholarship-api/internal/service/disbursement"),
	}
}

func (s *disbursementService) ListForApplication(ctx context.Context, applicationID string, actor lifecycle.Actor) ([]dto.DisbursementResponse, error) {
	applicationID = strings.TrimSpace(applicationID)
	if applicationID == "" {
		return nil, ErrApplicationNotFound
	}

	app, err := s.applications.GetByID(ctx, applicationID)
	if err != nil {
		return nil, notFoundOr(err, ErrApplicationNotFound)
	}
	if !canView(actor, app) {
		return nil, ErrForbidden
	}

	disbursements, err := s.disbursements.ListByApplication(ctx, app.ID)
	if err != nil {
		return nil, fmt.Errorf("list disbursements: %w", err)
	}

	return dto.NewDisbursementResponseSlice(disbursements), nil
}

func (s *disbursementService) Transition(ctx context.Context, id string, req dto.DisbursementTransitionRequest, actor lifecycle.Actor, now time.Time) (dto.DisbursementResponse, error) {
	if actor.Role != lifecycle.RoleAdmin {
		return dto.DisbursementResponse{}, ErrForbidden
	}
	if err := s.validator.Struct(req); err != nil {
		return dto.DisbursementResponse{}, newValidationError(err)
	}
	if !req.Status.Valid() {
		return dto.DisbursementResponse{}, &ValidationError{Field: "status", Message: fmt.Sprintf("%q is not a disbursement status", req.Status)}
	}

	ctx, span := s.tracer.Start(ctx, "disbursements.transition", trace.WithAttributes(
		attribute.String("disbursement.id", id),
		attribute.String("disbursement.to", string(req.Status)),
	))
	defer span.End()

	current, err := s.load(ctx, id)
	if err != nil {
		return dto.DisbursementResponse{}, err
	}

	tr, err := lifecycle.PlanDisbursement(current, req.Status, actor, lifecycle.DisbursementInput{
		Method:          req.Method,
		ReferenceNumber: req.ReferenceNumber,
		Note:            strings.TrimSpace(s.sanitizer.Sanitize(req.Note)),
	}, now)
	if err != nil {
		span.RecordError(err)
		switch {
		case errors.Is(err, lifecycle.ErrDisbursementMethodRequired):
			return dto.DisbursementResponse{}, &ValidationError{Field: "method", Message: err.Error(), Err: err}
		case errors.Is(err, lifecycle.ErrDisbursementReferenceRequired):
			return dto.DisbursementResponse{}, &ValidationError{Field: "reference_number", Message: err.Error(), Err: err}
		}
		return dto.DisbursementResponse{}, err
	}

	err = s.disbursements.CommitTransition(ctx, repository.DisbursementUpdate{
		Disbursement:      tr.Disbursement,
		ExpectedStatus:    tr.From,
		History:           tr.Entry,
		CreditApplication: tr.CreditsApplication,
	})
	if err != nil {
		if errors.Is(err, repository.ErrStaleDisbursement) {
			latest, getErr := s.load(ctx, id)
			if getErr != nil {
				return dto.DisbursementResponse{}, getErr
			}
			return dto.DisbursementResponse{}, &lifecycle.InvalidDisbursementTransitionError{From: latest.Status, To: tr.To}
		}
		span.RecordError(err)
		return dto.DisbursementResponse{}, fmt.Errorf("commit disbursement: %w", err)
	}

	observability.DisbursementTransitions().WithLabelValues(string(tr.From), string(tr.To)).Inc()
	s.logger.Info().
		Str("disbursement_id", current.ID).
		Str("application_id", current.ApplicationID).
		Str("from", string(tr.From)).
		Str("to", string(tr.To)).
		Msg("disbursement status changed")

	updated, err := s.load(ctx, id)
	if err != nil {
		return dto.DisbursementResponse{}, fmt.Errorf("reload disbursement: %w", err)
	}
	return dto.NewDisbursementResponse(updated), nil
}

func (s *disbursementService) load(ctx context.Context, id string) (models.Disbursement, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return models.Disbursement{}, ErrDisbursementNotFound
	}

	disbursement, err := s.disbursements.GetByID(ctx, id)
	if err != nil {
		return models.Disbursement{}, notFoundOr(err, ErrDisbursementNotFound)
	}
	return disbursement, nil
}
