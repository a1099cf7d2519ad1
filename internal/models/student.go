package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Student is the applicant profile read by the matching engine. It is owned by
// the profile service; this API never mutates it.
type Student struct {
	ID               uint                `gorm:"primaryKey" json:"id"`
	FirstName        string              `gorm:"size:100;not null" json:"first_name"`
	LastName         string              `gorm:"size:100;not null" json:"last_name"`
	Email            string              `gorm:"size:255" json:"email"`
	PhoneNumber      string              `gorm:"size:20" json:"phone_number"`
	County           County              `gorm:"size:32;not null;index" json:"county"`
	EducationLevel   EducationLevel      `gorm:"size:32;not null" json:"education_level"`
	GPA              *float64            `json:"gpa"`
	FamilyIncome     decimal.NullDecimal `gorm:"type:numeric(14,2)" json:"family_income"`
	Gender           Gender              `gorm:"size:1;not null" json:"gender"`
	DateOfBirth      time.Time           `gorm:"type:date;not null" json:"date_of_birth"`
	DisabilityStatus DisabilityStatus    `gorm:"size:32;not null;default:none" json:"disability_status"`
	IsOrphan         bool                `gorm:"not null;default:false" json:"is_orphan"`
	CreatedAt        time.Time           `json:"created_at"`
	UpdatedAt        time.Time           `json:"updated_at"`
}

// FullName joins the first and last name.
func (s Student) FullName() string {
	if s.LastName == "" {
		return s.FirstName
	}
	return s.FirstName + " " + s.LastName
}

// AgeAt returns the student's age in whole years on the reference time's
// calendar date. DateOfBirth is a calendar date, so its own year, month and
// day are used whatever location it was loaded in.
func (s Student) AgeAt(reference time.Time) int {
	if s.DateOfBirth.IsZero() {
		return 0
	}
	birthYear, birthMonth, birthDay := s.DateOfBirth.Date()
	year, month, day := reference.Date()

	age := year - birthYear
	if month < birthMonth || (month == birthMonth && day < birthDay) {
		age--
	}
	if age < 0 {
		return 0
	}
	return age
}

// HasDisability reports whether any disability is recorded.
func (s Student) HasDisability() bool {
	return s.DisabilityStatus != "" && s.DisabilityStatus != DisabilityNone
}
