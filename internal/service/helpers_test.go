package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/noah-isme/scholarship-api/internal/database"
	"github.com/noah-isme/scholarship-api/internal/lifecycle"
	"github.com/noah-isme/scholarship-api/internal/models"
)

var svcNow = time.Date(2026, 3, 15, 10, 0, 0, 0, time.UTC)

func testLogger() zerolog.Logger {
	return zerolog.Nop()
}

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{TranslateError: true})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, database.Migrate(db))
	return db
}

func seedStudent(t *testing.T, db *gorm.DB, mutate func(*models.Student)) models.Student {
	t.Helper()
	gpa := 3.6
	student := models.Student{
		FirstName:      "Amina",
		LastName:       "Hassan",
		County:         models.CountyMombasa,
		EducationLevel: models.EducationUndergraduate,
		GPA:            &gpa,
		FamilyIncome:   decimal.NewNullDecimal(decimal.NewFromInt(30000)),
		Gender:         models.GenderFemale,
		DateOfBirth:    time.Date(2005, 9, 1, 0, 0, 0, 0, time.UTC),
	}
	if mutate != nil {
		mutate(&student)
	}
	require.NoError(t, db.Create(&student).Error)
	return student
}

func seedScholarship(t *testing.T, db *gorm.DB, mutate func(*models.Scholarship)) models.Scholarship {
	t.Helper()
	minGPA := 3.0
	scholarship := models.Scholarship{
		Title:                 "Coast Scholars Fund",
		Status:                models.ScholarshipActive,
		TargetCounties:        []models.County{models.CountyMombasa, models.CountyKilifi},
		TargetEducationLevels: []models.EducationLevel{models.EducationUndergraduate},
		GenderRestriction:     models.GenderAny,
		MinimumGPA:            &minGPA,
		MaximumFamilyIncome:   decimal.NewNullDecimal(decimal.NewFromInt(50000)),
		ApplicationStart:      svcNow.AddDate(0, -1, 0),
		ApplicationDeadline:   svcNow.AddDate(0, 1, 0),
		NumberOfAwards:        2,
		AmountPerBeneficiary:  decimal.NewFromInt(40000),
	}
	if mutate != nil {
		mutate(&scholarship)
	}
	require.NoError(t, db.Create(&scholarship).Error)
	return scholarship
}

func studentActor(student models.Student) lifecycle.Actor {
	return lifecycle.Actor{ID: student.ID, Role: lifecycle.RoleStudent}
}

var reviewerActor = lifecycle.Actor{ID: 900, Role: lifecycle.RoleReviewer}

type recordingPublisher struct {
	mu     sync.Mutex
	events []lifecycle.StatusChanged
	err    error
}

func (p *recordingPublisher) Publish(ctx context.Context, event lifecycle.StatusChanged) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
	return p.err
}

func (p *recordingPublisher) Events() []lifecycle.StatusChanged {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]lifecycle.StatusChanged, len(p.events))
	copy(out, p.events)
	return out
}

var errBrokerDown = errors.New("broker unavailable")
