package lifecycle

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/noah-isme/scholarship-api/internal/eligibility"
	"github.com/noah-isme/scholarship-api/internal/models"
)

// Actor roles recorded in the status history.
const (
	RoleStudent  = "student"
	RoleReviewer = "reviewer"
	RoleAdmin    = "admin"
	RoleSystem   = "system"
)

// Actor identifies who requested a transition.
type Actor struct {
	ID   uint   `json:"id"`
	Role string `json:"role"`
}

// SystemActor is used for scheduler-driven transitions.
var SystemActor = Actor{Role: RoleSystem}

// StatusChanged is emitted after every committed transition.
type StatusChanged struct {
	ApplicationID string                   `json:"application_id"`
	StudentID     uint                     `json:"student_id"`
	ScholarshipID uint                     `json:"scholarship_id"`
	From          models.ApplicationStatus `json:"from"`
	To            models.ApplicationStatus `json:"to"`
	Actor         Actor                    `json:"actor"`
	Timestamp     time.Time                `json:"timestamp"`
}

// Input carries the optional data some transitions need.
type Input struct {
	// Eligibility must be supplied when submitting.
	Eligibility     *eligibility.Result
	AwardedAmount   decimal.NullDecimal
	EvaluationScore *float64
	Note            string
}

// Transition is a planned, not yet persisted, status change.
type Transition struct {
	From             models.ApplicationStatus
	To               models.ApplicationStatus
	Application      models.Application
	Entry            models.ApplicationStatusHistory
	Event            StatusChanged
	ConsumesCapacity bool
}

// Plan validates a status change and returns the resulting application
// snapshot. The input application is never modified; on error nothing changes.
func Plan(app models.Application, scholarship models.Scholarship, to models.ApplicationStatus, actor Actor, input Input, now time.Time) (Transition, error) {
	from := app.Status
	if !CanTransition(from, to) {
		return Transition{}, &InvalidTransitionError{From: from, To: to}
	}

	next := app
	next.History = nil

	switch to {
	case models.ApplicationStatusSubmitted:
		if input.Eligibility == nil {
			return Transition{}, ErrEligibilityRequired
		}
		if err := input.Eligibility.Err(); err != nil {
			return Transition{}, err
		}
		if next.SubmissionDate == nil {
			submitted := now
			next.SubmissionDate = &submitted
		}

	case models.ApplicationStatusApproved:
		amount := input.AwardedAmount
		if !amount.Valid || !amount.Decimal.IsPositive() {
			return Transition{}, ErrAwardAmountRequired
		}
		if scholarship.AmountPerBeneficiary.IsPositive() && amount.Decimal.GreaterThan(scholarship.AmountPerBeneficiary) {
			return Transition{}, ErrAwardAmountTooHigh
		}
		if scholarship.RemainingAwards() < 1 {
			return Transition{}, ErrCapacityExceeded
		}
		next.AwardedAmount = amount
		stampDecision(&next, now)

	case models.ApplicationStatusRejected:
		stampDecision(&next, now)

	case models.ApplicationStatusWithdrawn:
		if actor.Role != RoleStudent || actor.ID != app.StudentID {
			return Transition{}, ErrOwnerOnly
		}

	case models.ApplicationStatusExpired:
		if actor.Role != RoleSystem {
			return Transition{}, ErrSystemOnly
		}
		if !IsOverdue(app, scholarship, now) {
			return Transition{}, ErrNotOverdue
		}
	}

	if input.EvaluationScore != nil {
		score := *input.EvaluationScore
		next.EvaluationScore = &score
	}

	next.Status = to
	next.UpdatedAt = now

	entry := models.ApplicationStatusHistory{
		ApplicationID: app.ID,
		FromStatus:    from,
		ToStatus:      to,
		ActorID:       actor.ID,
		ActorRole:     actor.Role,
		Note:          input.Note,
		OccurredAt:    now,
	}

	return Transition{
		From:        from,
		To:          to,
		Application: next,
		Entry:       entry,
		Event: StatusChanged{
			ApplicationID: app.ID,
			StudentID:     app.StudentID,
			ScholarshipID: app.ScholarshipID,
			From:          from,
			To:            to,
			Actor:         actor,
			Timestamp:     now,
		},
		ConsumesCapacity: to == models.ApplicationStatusApproved,
	}, nil
}

// IsOverdue reports whether the scheduler should expire the application.
func IsOverdue(app models.Application, scholarship models.Scholarship, now time.Time) bool {
	if app.Status != models.ApplicationStatusSubmitted && app.Status != models.ApplicationStatusWaitlisted {
		return false
	}
	return scholarship.IsPastDeadline(now)
}

func stampDecision(app *models.Application, now time.Time) {
	if app.DecisionDate == nil {
		decided := now
		app.DecisionDate = &decided
	}
}
