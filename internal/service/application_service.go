package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/microcosm-cc/bluemonday"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/noah-isme/scholarship-api/internal/dto"
	"github.com/noah-isme/scholarship-api/internal/eligibility"
	"github.com/noah-isme/scholarship-api/internal/events"
	"github.com/noah-isme/scholarship-api/internal/lifecycle"
	"github.com/noah-isme/scholarship-api/internal/models"
	"github.com/noah-isme/scholarship-api/internal/observability"
	"github.com/noah-isme/scholarship-api/internal/repository"
)

const expiryNote = "application deadline passed"

// ApplicationService drives applications through their lifecycle.
type ApplicationService interface {
	Create(ctx context.Context, req dto.CreateApplicationRequest, now time.Time) (dto.ApplicationResponse, error)
	Get(ctx context.Context, id string, actor lifecycle.Actor) (dto.ApplicationResponse, error)
	ListForStudent(ctx context.Context, actor lifecycle.Actor) ([]dto.ApplicationResponse, error)
	Submit(ctx context.Context, id string, actor lifecycle.Actor, now time.Time) (dto.TransitionResponse, error)
	Decide(ctx context.Context, id string, req dto.DecisionRequest, actor lifecycle.Actor, now time.Time) (dto.TransitionResponse, error)
	Withdraw(ctx context.Context, id string, req dto.WithdrawRequest, actor lifecycle.Actor, now time.Time) (dto.TransitionResponse, error)
	ExpireOverdue(ctx context.Context, now time.Time) ([]string, error)
}

type applicationService struct {
	applications repository.ApplicationRepository
	scholarships repository.ScholarshipRepository
	students     repository.StudentRepository
	guard        DuplicateGuard
	publisher    events.Publisher
	validator    *validator.Validate
	sanitizer    *bluemonday.Policy
	logger       zerolog.Logger
	tracer       trace.Tracer
	newID        func() string
}

// NewApplicationService constructs the application lifecycle service. The
// publisher may be nil when no broker is configured.
func NewApplicationService(
	applications repository.ApplicationRepository,
	scholarships repository.ScholarshipRepository,
	students repository.StudentRepository,
	publisher events.Publisher,
	validate *validator.Validate,
	logger zerolog.Logger,
) ApplicationService {
	if validate == nil {
		validate = validator.New(validator.WithRequiredStructEnabled())
	}

	return &applicationService{
		applications: applications,
		scholarships: scholarships,
		students:     students,
		guard:        NewDuplicateGuard(applications),
		publisher:    publisher,
		validator:    validate,
		sanitizer:    bluemonday.StrictPolicy(),
		logger:       logger.With().Str("component", "application_service").Logger(),
		tracer:       otel.Tracer("github.com/noah-isme/scholarship-api/internal/service/application"),
		newID:        uuid.NewString,
	}
}

func (s *applicationService) Create(ctx context.Context, req dto.CreateApplicationRequest, now time.Time) (dto.ApplicationResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return dto.ApplicationResponse{}, newValidationError(err)
	}

	ctx, span := s.tracer.Start(ctx, "applications.create", trace.WithAttributes(
		attribute.Int64("student.id", int64(req.StudentID)),
		attribute.Int64("scholarship.id", int64(req.ScholarshipID)),
	))
	defer span.End()

	if _, err := s.loadStudent(ctx, req.StudentID); err != nil {
		span.RecordError(err)
		return dto.ApplicationResponse{}, err
	}

	scholarship, err := s.loadScholarship(ctx, req.ScholarshipID)
	if err != nil {
		span.RecordError(err)
		return dto.ApplicationResponse{}, err
	}
	if !scholarship.AcceptingApplications(now) {
		return dto.ApplicationResponse{}, ErrScholarshipNotOpen
	}

	allowed, existingID, err := s.guard.CanCreate(ctx, req.StudentID, req.ScholarshipID)
	if err != nil {
		span.RecordError(err)
		return dto.ApplicationResponse{}, fmt.Errorf("check duplicate application: %w", err)
	}
	if !allowed {
		return dto.ApplicationResponse{}, &DuplicateApplicationError{ExistingID: existingID}
	}

	app := models.Application{
		ID:                   s.newID(),
		StudentID:            req.StudentID,
		ScholarshipID:        req.ScholarshipID,
		Status:               models.ApplicationStatusDraft,
		PersonalStatement:    s.clean(req.PersonalStatement),
		MotivationLetter:     s.clean(req.MotivationLetter),
		CareerGoals:          s.clean(req.CareerGoals),
		SpecialCircumstances: s.clean(req.SpecialCircumstances),
		ReferenceContacts:    s.referenceContacts(req.ReferenceContacts),
		CreatedAt:            now,
		UpdatedAt:            now,
	}
	entry := models.ApplicationStatusHistory{
		ToStatus:   models.ApplicationStatusDraft,
		ActorID:    req.StudentID,
		ActorRole:  lifecycle.RoleStudent,
		OccurredAt: now,
	}

	if err := s.applications.Create(ctx, &app, entry); err != nil {
		if errors.Is(err, repository.ErrDuplicateActive) {
			return dto.ApplicationResponse{}, s.duplicateFromStore(ctx, req.StudentID, req.ScholarshipID)
		}
		span.RecordError(err)
		return dto.ApplicationResponse{}, fmt.Errorf("create application: %w", err)
	}

	s.logger.Info().
		Str("application_id", app.ID).
		Uint("student_id", app.StudentID).
		Uint("scholarship_id", app.ScholarshipID).
		Msg("application draft created")

	created, err := s.applications.GetByID(ctx, app.ID)
	if err != nil {
		return dto.ApplicationResponse{}, fmt.Errorf("reload application: %w", err)
	}

	return dto.NewApplicationResponse(created), nil
}

func (s *applicationService) Get(ctx context.Context, id string, actor lifecycle.Actor) (dto.ApplicationResponse, error) {
	app, err := s.loadApplication(ctx, id)
	if err != nil {
		return dto.ApplicationResponse{}, err
	}
	if !canView(actor, app) {
		return dto.ApplicationResponse{}, ErrForbidden
	}

	return dto.NewApplicationResponse(app), nil
}

func (s *applicationService) ListForStudent(ctx context.Context, actor lifecycle.Actor) ([]dto.ApplicationResponse, error) {
	if actor.Role != lifecycle.RoleStudent || actor.ID == 0 {
		return nil, ErrForbidden
	}

	apps, err := s.applications.ListByStudent(ctx, actor.ID)
	if err != nil {
		return nil, err
	}

	return dto.NewApplicationResponseSlice(apps), nil
}

func (s *applicationService) Submit(ctx context.Context, id string, actor lifecycle.Actor, now time.Time) (dto.TransitionResponse, error) {
	ctx, span := s.tracer.Start(ctx, "applications.submit", trace.WithAttributes(attribute.String("application.id", id)))
	defer span.End()

	app, err := s.loadApplication(ctx, id)
	if err != nil {
		return dto.TransitionResponse{}, err
	}
	if !ownsApplication(actor, app) {
		return dto.TransitionResponse{}, ErrForbidden
	}

	scholarship, err := s.loadScholarship(ctx, app.ScholarshipID)
	if err != nil {
		return dto.TransitionResponse{}, err
	}
	student, err := s.loadStudent(ctx, app.StudentID)
	if err != nil {
		return dto.TransitionResponse{}, err
	}

	result := eligibility.Evaluate(student, scholarship, now)
	for _, reason := range result.Reasons {
		observability.EligibilityFailures().WithLabelValues(string(reason)).Inc()
	}

	tr, err := lifecycle.Plan(app, scholarship, models.ApplicationStatusSubmitted, actor, lifecycle.Input{Eligibility: &result}, now)
	if err != nil {
		s.recordRejection(models.ApplicationStatusSubmitted, err)
		span.RecordError(err)
		return dto.TransitionResponse{}, err
	}

	return s.commit(ctx, tr)
}

func (s *applicationService) Decide(ctx context.Context, id string, req dto.DecisionRequest, actor lifecycle.Actor, now time.Time) (dto.TransitionResponse, error) {
	if actor.Role != lifecycle.RoleReviewer && actor.Role != lifecycle.RoleAdmin {
		return dto.TransitionResponse{}, ErrForbidden
	}
	if err := s.validator.Struct(req); err != nil {
		return dto.TransitionResponse{}, newValidationError(err)
	}
	if !lifecycle.IsReviewDecision(req.Status) {
		return dto.TransitionResponse{}, &ValidationError{Field: "status", Message: fmt.Sprintf("%q is not a reviewer decision", req.Status)}
	}
	if req.Status != models.ApplicationStatusApproved && req.AwardedAmount.Valid {
		return dto.TransitionResponse{}, &ValidationError{Field: "awarded_amount", Message: "only allowed when approving"}
	}

	ctx, span := s.tracer.Start(ctx, "applications.decide", trace.WithAttributes(
		attribute.String("application.id", id),
		attribute.String("application.to", string(req.Status)),
	))
	defer span.End()

	app, err := s.loadApplication(ctx, id)
	if err != nil {
		return dto.TransitionResponse{}, err
	}

	// Only approval checks the award amount and capacity.
	var scholarship models.Scholarship
	if req.Status == models.ApplicationStatusApproved {
		scholarship, err = s.loadScholarship(ctx, app.ScholarshipID)
		if err != nil {
			return dto.TransitionResponse{}, err
		}
	}

	tr, err := lifecycle.Plan(app, scholarship, req.Status, actor, lifecycle.Input{
		AwardedAmount:   req.AwardedAmount,
		EvaluationScore: req.EvaluationScore,
		Note:            s.clean(req.Note),
	}, now)
	if err != nil {
		s.recordRejection(req.Status, err)
		span.RecordError(err)
		if errors.Is(err, lifecycle.ErrAwardAmountRequired) || errors.Is(err, lifecycle.ErrAwardAmountTooHigh) {
			return dto.TransitionResponse{}, &ValidationError{Field: "awarded_amount", Message: err.Error(), Err: err}
		}
		return dto.TransitionResponse{}, err
	}

	return s.commit(ctx, tr)
}

func (s *applicationService) Withdraw(ctx context.Context, id string, req dto.WithdrawRequest, actor lifecycle.Actor, now time.Time) (dto.TransitionResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return dto.TransitionResponse{}, newValidationError(err)
	}

	ctx, span := s.tracer.Start(ctx, "applications.withdraw", trace.WithAttributes(attribute.String("application.id", id)))
	defer span.End()

	app, err := s.loadApplication(ctx, id)
	if err != nil {
		return dto.TransitionResponse{}, err
	}
	if !ownsApplication(actor, app) {
		return dto.TransitionResponse{}, ErrForbidden
	}

	// Withdrawal never consults the scholarship.
	tr, err := lifecycle.Plan(app, models.Scholarship{}, models.ApplicationStatusWithdrawn, actor, lifecycle.Input{Note: s.clean(req.Reason)}, now)
	if err != nil {
		s.recordRejection(models.ApplicationStatusWithdrawn, err)
		return dto.TransitionResponse{}, err
	}

	return s.commit(ctx, tr)
}

// ExpireOverdue moves every submitted or waitlisted application past its
// scholarship deadline to expired. Running it again at the same time is a no-op.
func (s *applicationService) ExpireOverdue(ctx context.Context, now time.Time) ([]string, error) {
	ctx, span := s.tracer.Start(ctx, "applications.expire_overdue")
	defer span.End()

	overdue, err := s.applications.ListOverdue(ctx, now)
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("list overdue applications: %w", err)
	}

	expired := make([]string, 0, len(overdue))
	scholarships := make(map[uint]models.Scholarship)

	for _, app := range overdue {
		scholarship, ok := scholarships[app.ScholarshipID]
		if !ok {
			scholarship, err = s.loadScholarship(ctx, app.ScholarshipID)
			if err != nil {
				return expired, err
			}
			scholarships[app.ScholarshipID] = scholarship
		}

		tr, err := lifecycle.Plan(app, scholarship, models.ApplicationStatusExpired, lifecycle.SystemActor, lifecycle.Input{Note: expiryNote}, now)
		if err != nil {
			s.logger.Debug().Err(err).Str("application_id", app.ID).Msg("skipping application during expiry sweep")
			continue
		}

		if _, err := s.commit(ctx, tr); err != nil {
			var invalid *lifecycle.InvalidTransitionError
			if errors.As(err, &invalid) {
				continue
			}
			span.RecordError(err)
			return expired, err
		}
		expired = append(expired, app.ID)
	}

	if len(expired) > 0 {
		observability.ExpiredApplications().Add(float64(len(expired)))
		s.logger.Info().Int("count", len(expired)).Msg("expired overdue applications")
	}

	return expired, nil
}

func (s *applicationService) commit(ctx context.Context, tr lifecycle.Transition) (dto.TransitionResponse, error) {
	update := repository.StatusUpdate{
		Application:     tr.Application,
		ExpectedStatus:  tr.From,
		History:         tr.Entry,
		ConsumeCapacity: tr.ConsumesCapacity,
	}
	if tr.To == models.ApplicationStatusApproved {
		disbursement, opened := lifecycle.OpenDisbursement(tr.Application, tr.Event.Actor, tr.Event.Timestamp)
		disbursement.ID = s.newID()
		update.Disbursement = &disbursement
		update.DisbursementEntry = opened
	}

	err := s.applications.CommitTransition(ctx, update)
	if err != nil {
		if errors.Is(err, repository.ErrStaleStatus) {
			current, getErr := s.applications.GetByID(ctx, tr.Application.ID)
			if getErr != nil {
				return dto.TransitionResponse{}, getErr
			}
			err = &lifecycle.InvalidTransitionError{From: current.Status, To: tr.To}
		}
		s.recordRejection(tr.To, err)
		return dto.TransitionResponse{}, err
	}

	observability.Transitions().WithLabelValues(string(tr.From), string(tr.To)).Inc()
	s.logger.Info().
		Str("application_id", tr.Application.ID).
		Str("from", string(tr.From)).
		Str("to", string(tr.To)).
		Str("actor_role", tr.Event.Actor.Role).
		Msg("application status changed")

	s.publish(ctx, tr.Event)

	updated, err := s.applications.GetByID(ctx, tr.Application.ID)
	if err != nil {
		return dto.TransitionResponse{}, fmt.Errorf("reload application: %w", err)
	}

	return dto.TransitionResponse{
		Application: dto.NewApplicationResponse(updated),
		Event:       tr.Event,
	}, nil
}

func (s *applicationService) publish(ctx context.Context, event lifecycle.StatusChanged) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.Publish(ctx, event); err != nil {
		s.logger.Warn().Err(err).Str("application_id", event.ApplicationID).Msg("failed to publish status event")
	}
}

func (s *applicationService) recordRejection(to models.ApplicationStatus, err error) {
	var (
		invalid     *lifecycle.InvalidTransitionError
		notEligible *eligibility.NotEligibleError
	)

	reason := "other"
	switch {
	case errors.As(err, &invalid):
		reason = "invalid_transition"
	case errors.As(err, &notEligible):
		reason = "not_eligible"
	case errors.Is(err, lifecycle.ErrCapacityExceeded):
		reason = "capacity_exceeded"
	case errors.Is(err, lifecycle.ErrAwardAmountRequired), errors.Is(err, lifecycle.ErrAwardAmountTooHigh):
		reason = "invalid_award"
	}

	observability.TransitionRejections().WithLabelValues(string(to), reason).Inc()
}

func (s *applicationService) duplicateFromStore(ctx context.Context, studentID, scholarshipID uint) error {
	existing, err := s.applications.FindActive(ctx, studentID, scholarshipID)
	if err != nil {
		s.logger.Warn().Err(err).Msg("failed to look up conflicting application")
		return &DuplicateApplicationError{}
	}
	return &DuplicateApplicationError{ExistingID: existing.ID}
}

func (s *applicationService) loadApplication(ctx context.Context, id string) (models.Application, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return models.Application{}, ErrApplicationNotFound
	}

	app, err := s.applications.GetByID(ctx, id)
	if err != nil {
		return models.Application{}, notFoundOr(err, ErrApplicationNotFound)
	}
	return app, nil
}

func (s *applicationService) loadScholarship(ctx context.Context, id uint) (models.Scholarship, error) {
	scholarship, err := s.scholarships.GetByID(ctx, id)
	if err != nil {
		return models.Scholarship{}, notFoundOr(err, ErrScholarshipNotFound)
	}
	return scholarship, nil
}

func (s *applicationService) loadStudent(ctx context.Context, id uint) (models.Student, error) {
	student, err := s.students.GetByID(ctx, id)
	if err != nil {
		return models.Student{}, notFoundOr(err, ErrStudentNotFound)
	}
	return student, nil
}

func (s *applicationService) clean(value string) string {
	return strings.TrimSpace(s.sanitizer.Sanitize(value))
}

func (s *applicationService) referenceContacts(contacts []dto.ReferenceContactRequest) []models.ReferenceContact {
	cleaned := make([]models.ReferenceContact, 0, len(contacts))
	for _, contact := range contacts {
		cleaned = append(cleaned, models.ReferenceContact{
			Name:         s.clean(contact.Name),
			Relationship: s.clean(contact.Relationship),
			Phone:        strings.TrimSpace(contact.Phone),
			Email:        strings.ToLower(strings.TrimSpace(contact.Email)),
		})
	}
	return cleaned
}

func ownsApplication(actor lifecycle.Actor, app models.Application) bool {
	return actor.Role == lifecycle.RoleStudent && actor.ID != 0 && actor.ID == app.StudentID
}

func canView(actor lifecycle.Actor, app models.Application) bool {
	switch actor.Role {
	case lifecycle.RoleReviewer, lifecycle.RoleAdmin:
		return true
	case lifecycle.RoleStudent:
		return ownsApplication(actor, app)
	}
	return false
}
