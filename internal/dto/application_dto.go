package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/noah-isme/scholarship-api/internal/lifecycle"
	"github.com/noah-isme/scholarship-api/internal/models"
)

// ReferenceContactRequest is a referee supplied on a draft.
type ReferenceContactRequest struct {
	Name         string `json:"name" validate:"required,min=2,max=200"`
	Relationship string `json:"relationship" validate:"required,max=100"`
	Phone        string `json:"phone" validate:"omitempty,max=20"`
	Email        string `json:"email" validate:"omitempty,email"`
}

// ApplicationDraft carries the free-text sections of an application.
type ApplicationDraft struct {
	PersonalStatement    string                    `json:"personal_statement" validate:"omitempty,max=5000"`
	MotivationLetter     string                    `json:"motivation_letter" validate:"omitempty,max=5000"`
	CareerGoals          string                    `json:"career_goals" validate:"omitempty,max=2000"`
	SpecialCircumstances string                    `json:"special_circumstances" validate:"omitempty,max=2000"`
	ReferenceContacts    []ReferenceContactRequest `json:"reference_contacts" validate:"omitempty,max=5,dive"`
}

// CreateApplicationRequest opens a draft. StudentID comes from the caller's token.
type CreateApplicationRequest struct {
	StudentID     uint `json:"-" validate:"required,gt=0"`
	ScholarshipID uint `json:"scholarship_id" validate:"required,gt=0"`
	ApplicationDraft
}

// DecisionRequest is a reviewer's status decision.
type DecisionRequest struct {
	Status          models.ApplicationStatus `json:"status" validate:"required"`
	AwardedAmount   decimal.NullDecimal      `json:"awarded_amount"`
	EvaluationScore *float64                 `json:"evaluation_score" validate:"omitempty,gte=0,lte=100"`
	Note            string                   `json:"note" validate:"omitempty,max=2000"`
}

// WithdrawRequest optionally explains a withdrawal.
type WithdrawRequest struct {
	Reason string `json:"reason" validate:"omitempty,max=1000"`
}

// HistoryEntryResponse serializes one audit entry.
type HistoryEntryResponse struct {
	FromStatus models.ApplicationStatus `json:"from_status"`
	ToStatus   models.ApplicationStatus `json:"to_status"`
	ActorID    uint                     `json:"actor_id"`
	ActorRole  string                   `json:"actor_role"`
	Note       string                   `json:"note"`
	OccurredAt time.Time                `json:"occurred_at"`
}

// ApplicationResponse is returned to API clients when viewing applications.
type ApplicationResponse struct {
	ID                   string                     `json:"id"`
	StudentID            uint                       `json:"student_id"`
	ScholarshipID        uint                       `json:"scholarship_id"`
	Status               models.ApplicationStatus   `json:"status"`
	AllowedTransitions   []models.ApplicationStatus `json:"allowed_transitions"`
	SubmissionDate       *time.Time                 `json:"submission_date"`
	DecisionDate         *time.Time                 `json:"decision_date"`
	EvaluationScore      *float64                   `json:"evaluation_score"`
	AwardedAmount        decimal.NullDecimal        `json:"awarded_amount"`
	TotalDisbursed       decimal.Decimal            `json:"total_disbursed"`
	PersonalStatement    string                     `json:"personal_statement"`
	MotivationLetter     string                     `json:"motivation_letter"`
	CareerGoals          string                     `json:"career_goals"`
	SpecialCircumstances string                     `json:"special_circumstances"`
	ReferenceContacts    []models.ReferenceContact  `json:"reference_contacts"`
	History              []HistoryEntryResponse     `json:"history"`
	CreatedAt            time.Time                  `json:"created_at"`
	UpdatedAt            time.Time                  `json:"updated_at"`
}

// TransitionResponse pairs the updated application with the emitted event.
type TransitionResponse struct {
	Application ApplicationResponse     `json:"application"`
	Event       lifecycle.StatusChanged `json:"event"`
}

// ExpireResponse reports the applications moved to expired by one sweep.
type ExpireResponse struct {
	Expired []string `json:"expired"`
	Count   int      `json:"count"`
}

// NewApplicationResponse maps a model into its API representation.
func NewApplicationResponse(app models.Application) ApplicationResponse {
	contacts := make([]models.ReferenceContact, len(app.ReferenceContacts))
	copy(contacts, app.ReferenceContacts)

	allowed := lifecycle.AllowedTransitions(app.Status)
	if allowed == nil {
		allowed = []models.ApplicationStatus{}
	}

	history := make([]HistoryEntryResponse, 0, len(app.History))
	for _, entry := range app.History {
		history = append(history, HistoryEntryResponse{
			FromStatus: entry.FromStatus,
			ToStatus:   entry.ToStatus,
			ActorID:    entry.ActorID,
			ActorRole:  entry.ActorRole,
			Note:       entry.Note,
			OccurredAt: entry.OccurredAt,
		})
	}

	return ApplicationResponse{
		ID:                   app.ID,
		StudentID:            app.StudentID,
		ScholarshipID:        app.ScholarshipID,
		Status:               app.Status,
		AllowedTransitions:   allowed,
		SubmissionDate:       app.SubmissionDate,
		DecisionDate:         app.DecisionDate,
		EvaluationScore:      app.EvaluationScore,
		AwardedAmount:        app.AwardedAmount,
		TotalDisbursed:       app.TotalDisbursed,
		PersonalStatement:    app.PersonalStatement,
		MotivationLetter:     app.MotivationLetter,
		CareerGoals:          app.CareerGoals,
		SpecialCircumstances: app.SpecialCircumstances,
		ReferenceContacts:    contacts,
		History:              history,
		CreatedAt:            app.CreatedAt,
		UpdatedAt:            app.UpdatedAt,
	}
}

// NewApplicationResponseSlice maps a list of models.
func NewApplicationResponseSlice(apps []models.Application) []ApplicationResponse {
	responses := make([]ApplicationResponse, 0, len(apps))
	for _, app := range apps {
		responses = append(responses, NewApplicationResponse(app))
	}
	return responses
}
