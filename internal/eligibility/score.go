package eligibility

import (
	"math"

	"github.com/noah-isme/scholarship-api/internal/models"
)

// ScoreVersion identifies the weighting below. Changing any weight means a
// new version, not a runtime setting.
const ScoreVersion = "v1"

const (
	weightCounty    = 30
	weightEducation = 25
	weightGPA       = 20

	// The remaining 25 points are split across secondary signals.
	weightIncomeHeadroom    = 10.0
	weightAgeBand           = 10.0
	weightSpecialPopulation = 5.0

	maxScore = 100
)

// Score returns the advisory 0-100 match between a student and a scholarship.
// It never gates an application. Age is taken at the application deadline.
func Score(student models.Student, scholarship models.Scholarship) int {
	total := 0

	if countyAllowed(student.County, scholarship.TargetCounties) {
		total += weightCounty
	}
	if educationAllowed(student.EducationLevel, scholarship.TargetEducationLevels) {
		total += weightEducation
	}
	if scholarship.MinimumGPA == nil || (student.GPA != nil && *student.GPA >= *scholarship.MinimumGPA) {
		total += weightGPA
	}

	secondary := incomeHeadroomSignal(student, scholarship) +
		ageBandSignal(student, scholarship) +
		specialPopulationSignal(student, scholarship)
	total += int(math.Floor(secondary))

	return clamp(total, 0, maxScore)
}

// incomeHeadroomSignal gives half the weight for being under the ceiling and
// scales the other half by how far under it the family income sits.
func incomeHeadroomSignal(student models.Student, scholarship models.Scholarship) float64 {
	if !scholarship.MaximumFamilyIncome.Valid {
		return weightIncomeHeadroom
	}
	if !student.FamilyIncome.Valid {
		return 0
	}

	ceiling := scholarship.MaximumFamilyIncome.Decimal
	income := student.FamilyIncome.Decimal
	if income.GreaterThan(ceiling) {
		return 0
	}
	if !ceiling.IsPositive() {
		return weightIncomeHeadroom
	}

	headroom, _ := ceiling.Sub(income).Div(ceiling).Float64()
	if headroom < 0 {
		headroom = 0
	}
	if headroom > 1 {
		headroom = 1
	}
	return weightIncomeHeadroom/2 + headroom*weightIncomeHeadroom/2
}

func ageBandSignal(student models.Student, scholarship models.Scholarship) float64 {
	if scholarship.MinimumAge == nil && scholarship.MaximumAge == nil {
		return weightAgeBand
	}
	if ageAllowed(student.AgeAt(scholarship.ApplicationDeadline), scholarship.MinimumAge, scholarship.MaximumAge) {
		return weightAgeBand
	}
	return 0
}

func specialPopulationSignal(student models.Student, scholarship models.Scholarship) float64 {
	required := 0
	matched := 0
	if scholarship.ForOrphansOnly {
		required++
		if student.IsOrphan {
			matched++
		}
	}
	if scholarship.ForDisabledOnly {
		required++
		if student.HasDisability() {
			matched++
		}
	}
	if required == 0 {
		return weightSpecialPopulation
	}
	return weightSpecialPopulation * float64(matched) / float64(required)
}

func clamp(value, low, high int) int {
	if value < low {
		return low
	}
	if value > high {
		return high
	}
	return value
}
