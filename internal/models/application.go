package models

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

// ApplicationStatus is the lifecycle state of an application. The string
// values are part of the public API.
type ApplicationStatus string

const (
	ApplicationStatusDraft              ApplicationStatus = "draft"
	ApplicationStatusSubmitted          ApplicationStatus = "submitted"
	ApplicationStatusUnderReview        ApplicationStatus = "under_review"
	ApplicationStatusShortlisted        ApplicationStatus = "shortlisted"
	ApplicationStatusInterviewScheduled ApplicationStatus = "interview_scheduled"
	ApplicationStatusInterviewCompleted ApplicationStatus = "interview_completed"
	ApplicationStatusApproved           ApplicationStatus = "approved"
	ApplicationStatusRejected           ApplicationStatus = "rejected"
	ApplicationStatusWaitlisted         ApplicationStatus = "waitlisted"
	ApplicationStatusWithdrawn          ApplicationStatus = "withdrawn"
	ApplicationStatusExpired            ApplicationStatus = "expired"
)

// ApplicationStatuses lists every status in lifecycle order.
var ApplicationStatuses = []ApplicationStatus{
	ApplicationStatusDraft,
	ApplicationStatusSubmitted,
	ApplicationStatusUnderReview,
	ApplicationStatusShortlisted,
	ApplicationStatusInterviewScheduled,
	ApplicationStatusInterviewCompleted,
	ApplicationStatusApproved,
	ApplicationStatusRejected,
	ApplicationStatusWaitlisted,
	ApplicationStatusWithdrawn,
	ApplicationStatusExpired,
}

// Valid reports whether the status is a known lifecycle state.
func (s ApplicationStatus) Valid() bool {
	for _, status := range ApplicationStatuses {
		if status == s {
			return true
		}
	}
	return false
}

// BlocksReapplication reports whether an application in this status prevents
// the same student from applying to the same scholarship again.
func (s ApplicationStatus) BlocksReapplication() bool {
	return s != ApplicationStatusWithdrawn && s != ApplicationStatusExpired
}

// ReferenceContact is a referee listed on an application draft.
type ReferenceContact struct {
	Name         string `json:"name"`
	Relationship string `json:"relationship"`
	Phone        string `json:"phone"`
	Email        string `json:"email"`
}

// Application is a student's application to one scholarship. Rows are never
// deleted; withdrawn and expired are terminal statuses.
//
// The partial unique index keeps at most one live application per
// (student, scholarship) pair.
type Application struct {
	ID                   string                                `gorm:"primaryKey;size:36" json:"id"`
	StudentID            uint                                  `gorm:"not null;uniqueIndex:idx_applications_active_pair,where:status <> 'withdrawn' AND status <> 'expired'" json:"student_id"`
	ScholarshipID        uint                                  `gorm:"not null;uniqueIndex:idx_applications_active_pair;index" json:"scholarship_id"`
	Status               ApplicationStatus                     `gorm:"size:32;not null;index" json:"status"`
	SubmissionDate       *time.Time                            `json:"submission_date"`
	DecisionDate         *time.Time                            `json:"decision_date"`
	EvaluationScore      *float64                              `json:"evaluation_score"`
	AwardedAmount        decimal.NullDecimal                   `gorm:"type:numeric(14,2)" json:"awarded_amount"`
	TotalDisbursed       decimal.Decimal                       `gorm:"type:numeric(14,2);not null;default:0" json:"total_disbursed"`
	PersonalStatement    string                                `gorm:"type:text" json:"personal_statement"`
	MotivationLetter     string                                `gorm:"type:text" json:"motivation_letter"`
	CareerGoals          string                                `gorm:"type:text" json:"career_goals"`
	SpecialCircumstances string                                `gorm:"type:text" json:"special_circumstances"`
	ReferenceContacts    datatypes.JSONSlice[ReferenceContact] `json:"reference_contacts"`
	CreatedAt            time.Time                             `json:"created_at"`
	UpdatedAt            time.Time                             `json:"updated_at"`
	History              []ApplicationStatusHistory            `gorm:"foreignKey:ApplicationID" json:"history"`
}

// ApplicationStatusHistory is one append-only audit entry.
type ApplicationStatusHistory struct {
	ID            uint              `gorm:"primaryKey" json:"id"`
	ApplicationID string            `gorm:"size:36;not null;index" json:"application_id"`
	FromStatus    ApplicationStatus `gorm:"size:32" json:"from_status"`
	ToStatus      ApplicationStatus `gorm:"size:32;not null" json:"to_status"`
	ActorID       uint              `json:"actor_id"`
	ActorRole     string            `gorm:"size:32;not null" json:"actor_role"`
	Note          string            `gorm:"type:text" json:"note"`
	OccurredAt    time.Time         `gorm:"not null" json:"occurred_at"`
}

// TableName keeps the audit table name stable.
func (ApplicationStatusHistory) TableName() string {
	return "application_status_history"
}
