package models

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

// Scholarship carries the eligibility criteria and award capacity of a
// funding opportunity. Empty target sets mean "no restriction".
type Scholarship struct {
	ID                    uint                                `gorm:"primaryKey" json:"id"`
	Title                 string                              `gorm:"size:300;not null" json:"title"`
	Status                ScholarshipStatus                   `gorm:"size:16;not null;default:active;index" json:"status"`
	TargetCounties        datatypes.JSONSlice[County]         `json:"target_counties"`
	TargetEducationLevels datatypes.JSONSlice[EducationLevel] `json:"target_education_levels"`
	GenderRestriction     GenderRestriction                   `gorm:"size:16;not null;default:any" json:"gender_restriction"`
	MinimumGPA            *float64                            `json:"minimum_gpa"`
	MaximumFamilyIncome   decimal.NullDecimal                 `gorm:"type:numeric(14,2)" json:"maximum_family_income"`
	MinimumAge            *int                                `json:"minimum_age"`
	MaximumAge            *int                                `json:"maximum_age"`
	ForOrphansOnly        bool                                `gorm:"not null;default:false" json:"for_orphans_only"`
	ForDisabledOnly       bool                                `gorm:"not null;default:false" json:"for_disabled_only"`
	RequiredDocuments     datatypes.JSONSlice[DocumentType]   `json:"required_documents"`
	ApplicationStart      time.Time                           `gorm:"not null" json:"application_start"`
	ApplicationDeadline   time.Time                           `gorm:"not null;index" json:"application_deadline"`
	NumberOfAwards        int                                 `gorm:"not null" json:"number_of_awards"`
	AwardsGranted         int                                 `gorm:"not null;default:0" json:"awards_granted"`
	ApplicationsSubmitted int                                 `gorm:"not null;default:0" json:"applications_submitted"`
	AmountPerBeneficiary  decimal.Decimal                     `gorm:"type:numeric(14,2);not null" json:"amount_per_beneficiary"`
	CreatedAt             time.Time                           `json:"created_at"`
	UpdatedAt             time.Time                           `json:"updated_at"`
}

// RemainingAwards returns how many awards can still be granted.
func (s Scholarship) RemainingAwards() int {
	remaining := s.NumberOfAwards - s.AwardsGranted
	if remaining < 0 {
		return 0
	}
	return remaining
}

// WindowOpen reports whether now falls inside [ApplicationStart, ApplicationDeadline].
func (s Scholarship) WindowOpen(now time.Time) bool {
	return !now.Before(s.ApplicationStart) && !now.After(s.ApplicationDeadline)
}

// IsPastDeadline returns true once the application deadline has passed.
func (s Scholarship) IsPastDeadline(now time.Time) bool {
	return now.After(s.ApplicationDeadline)
}

// AcceptingApplications combines publication status with the application window.
func (s Scholarship) AcceptingApplications(now time.Time) bool {
	return s.Status == ScholarshipActive && s.WindowOpen(now)
}
