// Package eligibility decides whether a student may apply to a scholarship and
// how well the two match. Everything here is a pure function of its inputs;
// the reference time is always passed in.
package eligibility

import (
	"fmt"
	"strings"
	"time"

	"github.com/noah-isme/scholarship-api/internal/models"
)

// Reason is a failed hard criterion. Values are part of the public API.
type Reason string

const (
	ReasonOutsideWindow             Reason = "outside_window"
	ReasonCountyMismatch            Reason = "county_mismatch"
	ReasonEducationLevelMismatch    Reason = "education_level_mismatch"
	ReasonGenderMismatch            Reason = "gender_mismatch"
	ReasonGPABelowMinimum           Reason = "gpa_below_minimum"
	ReasonGPAUnknown                Reason = "gpa_unknown"
	ReasonIncomeAboveMaximum        Reason = "income_above_maximum"
	ReasonIncomeUnknown             Reason = "income_unknown"
	ReasonAgeOutOfRange             Reason = "age_out_of_range"
	ReasonSpecialPopulationMismatch Reason = "special_population_mismatch"
)

// Result is the outcome of Evaluate.
type Result struct {
	Eligible          bool                  `json:"eligible"`
	Reasons           []Reason              `json:"reasons"`
	RequiredDocuments []models.DocumentType `json:"required_documents"`
}

// NotEligibleError is returned when a student fails one or more hard criteria.
type NotEligibleError struct {
	Reasons []Reason
}

func (e *NotEligibleError) Error() string {
	codes := make([]string, 0, len(e.Reasons))
	for _, reason := range e.Reasons {
		codes = append(codes, string(reason))
	}
	return fmt.Sprintf("student is not eligible: %s", strings.Join(codes, ", "))
}

// Err converts a failed result into a *NotEligibleError, or nil when eligible.
func (r Result) Err() error {
	if r.Eligible {
		return nil
	}
	reasons := make([]Reason, len(r.Reasons))
	copy(reasons, r.Reasons)
	return &NotEligibleError{Reasons: reasons}
}

// Evaluate checks every hard criterion independently and reports all
// failures. Reasons are ordered: window, county, education, gender, GPA,
// income, age, special population.
func Evaluate(student models.Student, scholarship models.Scholarship, now time.Time) Result {
	reasons := make([]Reason, 0, 4)

	if !scholarship.WindowOpen(now) {
		reasons = append(reasons, ReasonOutsideWindow)
	}

	if !countyAllowed(student.County, scholarship.TargetCounties) {
		reasons = append(reasons, ReasonCountyMismatch)
	}

	if !educationAllowed(student.EducationLevel, scholarship.TargetEducationLevels) {
		reasons = append(reasons, ReasonEducationLevelMismatch)
	}

	if !scholarship.GenderRestriction.Allows(student.Gender) {
		reasons = append(reasons, ReasonGenderMismatch)
	}

	if scholarship.MinimumGPA != nil {
		switch {
		case student.GPA == nil:
			reasons = append(reasons, ReasonGPAUnknown)
		case *student.GPA < *scholarship.MinimumGPA:
			reasons = append(reasons, ReasonGPABelowMinimum)
		}
	}

	if scholarship.MaximumFamilyIncome.Valid {
		switch {
		case !student.FamilyIncome.Valid:
			reasons = append(reasons, ReasonIncomeUnknown)
		case student.FamilyIncome.Decimal.GreaterThan(scholarship.MaximumFamilyIncome.Decimal):
			reasons = append(reasons, ReasonIncomeAboveMaximum)
		}
	}

	if !ageAllowed(student.AgeAt(now), scholarship.MinimumAge, scholarship.MaximumAge) {
		reasons = append(reasons, ReasonAgeOutOfRange)
	}

	if !specialPopulationAllowed(student, scholarship) {
		reasons = append(reasons, ReasonSpecialPopulationMismatch)
	}

	documents := make([]models.DocumentType, len(scholarship.RequiredDocuments))
	copy(documents, scholarship.RequiredDocuments)

	return Result{
		Eligible:          len(reasons) == 0,
		Reasons:           reasons,
		RequiredDocuments: documents,
	}
}

func countyAllowed(county models.County, targets []models.County) bool {
	if len(targets) == 0 {
		return true
	}
	for _, target := range targets {
		if target == county {
			return true
		}
	}
	return false
}

func educationAllowed(level models.EducationLevel, targets []models.EducationLevel) bool {
	if len(targets) == 0 {
		return true
	}
	for _, target := range targets {
		if target == level {
			return true
		}
	}
	return false
}

func ageAllowed(age int, minimum, maximum *int) bool {
	if minimum != nil && age < *minimum {
		return false
	}
	if maximum != nil && age > *maximum {
		return false
	}
	return true
}

func specialPopulationAllowed(student models.Student, scholarship models.Scholarship) bool {
	if scholarship.ForOrphansOnly && !student.IsOrphan {
		return false
	}
	if scholarship.ForDisabledOnly && !student.HasDisability() {
		return false
	}
	return true
}
