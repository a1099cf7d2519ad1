package eligibility

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/scholarship-api/internal/models"
)

var testNow = time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)

func floatPtr(v float64) *float64 { return &v }

func intPtr(v int) *int { return &v }

func baseStudent() models.Student {
	return models.Student{
		ID:               1,
		FirstName:        "Wanjiru",
		LastName:         "Kamau",
		County:           models.CountyNairobi,
		EducationLevel:   models.EducationUndergraduate,
		GPA:              floatPtr(3.5),
		FamilyIncome:     decimal.NewNullDecimal(decimal.NewFromInt(40000)),
		Gender:           models.GenderFemale,
		DateOfBirth:      time.Date(2005, 6, 15, 0, 0, 0, 0, time.UTC),
		DisabilityStatus: models.DisabilityNone,
	}
}

func baseScholarship() models.Scholarship {
	return models.Scholarship{
		ID:                    10,
		Title:                 "Nairobi STEM Bursary",
		Status:                models.ScholarshipActive,
		TargetCounties:        []models.County{models.CountyNairobi, models.CountyKiambu},
		TargetEducationLevels: []models.EducationLevel{models.EducationUndergraduate},
		GenderRestriction:     models.GenderAny,
		MinimumGPA:            floatPtr(3.0),
		RequiredDocuments:     []models.DocumentType{models.DocumentNationalID, models.DocumentAcademicTranscript},
		ApplicationStart:      testNow.AddDate(0, -1, 0),
		ApplicationDeadline:   testNow.AddDate(0, 1, 0),
		NumberOfAwards:        5,
		AmountPerBeneficiary:  decimal.NewFromInt(60000),
	}
}

func TestEvaluateEligibleStudent(t *testing.T) {
	result := Evaluate(baseStudent(), baseScholarship(), testNow)

	require.True(t, result.Eligible)
	require.Empty(t, result.Reasons)
	require.NotNil(t, result.Reasons)
	require.Equal(t, []models.DocumentType{models.DocumentNationalID, models.DocumentAcademicTranscript}, result.RequiredDocuments)
	require.NoError(t, result.Err())
}

func TestEvaluateIncomeAboveMaximum(t *testing.T) {
	student := baseStudent()
	student.FamilyIncome = decimal.NewNullDecimal(decimal.NewFromInt(120000))
	scholarship := baseScholarship()
	scholarship.MaximumFamilyIncome = decimal.NewNullDecimal(decimal.NewFromInt(50000))

	result := Evaluate(student, scholarship, testNow)

	require.False(t, result.Eligible)
	require.Equal(t, []Reason{ReasonIncomeAboveMaximum}, result.Reasons)

	var notEligible *NotEligibleError
	require.ErrorAs(t, result.Err(), &notEligible)
	require.Equal(t, result.Reasons, notEligible.Reasons)
}

func TestEvaluateReportsEveryFailureInOrder(t *testing.T) {
	student := baseStudent()
	student.County = models.CountyTurkana
	student.EducationLevel = models.EducationSecondary
	student.Gender = models.GenderMale
	student.GPA = floatPtr(2.1)
	student.FamilyIncome = decimal.NewNullDecimal(decimal.NewFromInt(90000))
	student.DateOfBirth = time.Date(1980, 1, 1, 0, 0, 0, 0, time.UTC)

	scholarship := baseScholarship()
	scholarship.GenderRestriction = models.GenderFemaleOnly
	scholarship.MaximumFamilyIncome = decimal.NewNullDecimal(decimal.NewFromInt(50000))
	scholarship.MaximumAge = intPtr(30)
	scholarship.ForOrphansOnly = true
	scholarship.ApplicationDeadline = testNow.Add(-time.Hour)

	result := Evaluate(student, scholarship, testNow)

	require.Equal(t, []Reason{
		ReasonOutsideWindow,
		ReasonCountyMismatch,
		ReasonEducationLevelMismatch,
		ReasonGenderMismatch,
		ReasonGPABelowMinimum,
		ReasonIncomeAboveMaximum,
		ReasonAgeOutOfRange,
		ReasonSpecialPopulationMismatch,
	}, result.Reasons)
}

func TestEvaluateUnknownValuesFailConfiguredThresholds(t *testing.T) {
	student := baseStudent()
	student.GPA = nil
	student.FamilyIncome = decimal.NullDecimal{}

	scholarship := baseScholarship()
	scholarship.MaximumFamilyIncome = decimal.NewNullDecimal(decimal.NewFromInt(50000))

	result := Evaluate(student, scholarship, testNow)
	require.Equal(t, []Reason{ReasonGPAUnknown, ReasonIncomeUnknown}, result.Reasons)

	scholarship.MinimumGPA = nil
	scholarship.MaximumFamilyIncome = decimal.NullDecimal{}
	require.True(t, Evaluate(student, scholarship, testNow).Eligible)
}

func TestEvaluateEmptyTargetsAreUnrestricted(t *testing.T) {
	student := baseStudent()
	restricted := baseScholarship()
	open := baseScholarship()
	open.TargetCounties = nil
	open.TargetEducationLevels = nil

	require.True(t, Evaluate(student, restricted, testNow).Eligible)
	require.True(t, Evaluate(student, open, testNow).Eligible)
	require.GreaterOrEqual(t, Score(student, open), Score(student, restricted))

	student.County = models.CountyMombasa
	student.EducationLevel = models.EducationDiploma
	require.True(t, Evaluate(student, open, testNow).Eligible)
}

func TestEvaluateAgeBoundsAreInclusive(t *testing.T) {
	student := baseStudent()
	student.DateOfBirth = time.Date(2006, 5, 1, 0, 0, 0, 0, time.UTC) // turns 20 on testNow

	scholarship := baseScholarship()
	scholarship.MinimumAge = intPtr(20)
	scholarship.MaximumAge = intPtr(20)
	require.True(t, Evaluate(student, scholarship, testNow).Eligible)

	scholarship.MinimumAge = intPtr(21)
	scholarship.MaximumAge = nil
	require.Equal(t, []Reason{ReasonAgeOutOfRange}, Evaluate(student, scholarship, testNow).Reasons)

	scholarship.MinimumAge = nil
	scholarship.MaximumAge = intPtr(19)
	require.Equal(t, []Reason{ReasonAgeOutOfRange}, Evaluate(student, scholarship, testNow).Reasons)
}

func TestEvaluateAgeBoundUsesCalendarBirthDate(t *testing.T) {
	student := baseStudent()
	student.DateOfBirth = time.Date(2008, 6, 1, 0, 0, 0, 0, time.FixedZone("EAT", 3*60*60))

	scholarship := baseScholarship()
	scholarship.MinimumAge = intPtr(18)
	scholarship.ApplicationStart = time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)
	scholarship.ApplicationDeadline = time.Date(2026, 6, 30, 0, 0, 0, 0, time.UTC)

	dayBefore := time.Date(2026, 5, 31, 10, 0, 0, 0, time.UTC)
	result := Evaluate(student, scholarship, dayBefore)
	require.False(t, result.Eligible)
	require.Equal(t, []Reason{ReasonAgeOutOfRange}, result.Reasons)

	birthday := time.Date(2026, 6, 1, 10, 0, 0, 0, time.UTC)
	require.True(t, Evaluate(student, scholarship, birthday).Eligible)
}

func TestEvaluateWindowBoundsAreInclusive(t *testing.T) {
	scholarship := baseScholarship()

	require.True(t, Evaluate(baseStudent(), scholarship, scholarship.ApplicationStart).Eligible)
	require.True(t, Evaluate(baseStudent(), scholarship, scholarship.ApplicationDeadline).Eligible)

	result := Evaluate(baseStudent(), scholarship, scholarship.ApplicationStart.Add(-time.Second))
	require.Equal(t, []Reason{ReasonOutsideWindow}, result.Reasons)
}

func TestEvaluateSpecialPopulations(t *testing.T) {
	scholarship := baseScholarship()
	scholarship.ForOrphansOnly = true
	scholarship.ForDisabledOnly = true

	student := baseStudent()
	student.IsOrphan = true
	require.Equal(t, []Reason{ReasonSpecialPopulationMismatch}, Evaluate(student, scholarship, testNow).Reasons)

	student.DisabilityStatus = models.DisabilityVisual
	require.True(t, Evaluate(student, scholarship, testNow).Eligible)
}

func TestEvaluateGenderRestriction(t *testing.T) {
	scholarship := baseScholarship()
	scholarship.GenderRestriction = models.GenderMaleOnly

	require.Equal(t, []Reason{ReasonGenderMismatch}, Evaluate(baseStudent(), scholarship, testNow).Reasons)

	student := baseStudent()
	student.Gender = models.GenderMale
	require.True(t, Evaluate(student, scholarship, testNow).Eligible)
}

func TestEvaluateIsDeterministic(t *testing.T) {
	student := baseStudent()
	student.GPA = nil
	scholarship := baseScholarship()

	first := Evaluate(student, scholarship, testNow)
	for i := 0; i < 20; i++ {
		require.Equal(t, first, Evaluate(student, scholarship, testNow))
	}
}

func TestResultErrCopiesReasons(t *testing.T) {
	result := Result{Reasons: []Reason{ReasonCountyMismatch}}
	err := result.Err()
	result.Reasons[0] = ReasonGenderMismatch

	var notEligible *NotEligibleError
	require.ErrorAs(t, err, &notEligible)
	require.Equal(t, []Reason{ReasonCountyMismatch}, notEligible.Reasons)
	require.Contains(t, err.Error(), "county_mismatch")
}
