package repository

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/noah-isme/scholarship-api/internal/database"
	"github.com/noah-isme/scholarship-api/internal/lifecycle"
	"github.com/noah-isme/scholarship-api/internal/models"
)

var repoNow = time.Date(2026, 4, 1, 8, 0, 0, 0, time.UTC)

func setupTestDB(t *testing.T) *gorm.DB {
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

func seedScholarship(t *testing.T, db *gorm.DB, awards int, deadline time.Time) models.Scholarship {
	t.Helper()
	scholarship := models.Scholarship{
		Title:                "Equity Wings",
		Status:               models.ScholarshipActive,
		ApplicationStart:     repoNow.AddDate(0, -2, 0),
		ApplicationDeadline:  deadline,
		NumberOfAwards:       awards,
		AmountPerBeneficiary: decimal.NewFromInt(30000),
	}
	require.NoError(t, db.Create(&scholarship).Error)
	return scholarship
}

func newApplication(studentID, scholarshipID uint, status models.ApplicationStatus) models.Application {
	return models.Application{
		ID:            uuid.NewString(),
		StudentID:     studentID,
		ScholarshipID: scholarshipID,
		Status:        status,
		CreatedAt:     repoNow,
		UpdatedAt:     repoNow,
	}
}

func creationEntry() models.ApplicationStatusHistory {
	return models.ApplicationStatusHistory{
		ToStatus:   models.ApplicationStatusDraft,
		ActorID:    1,
		ActorRole:  lifecycle.RoleStudent,
		OccurredAt: repoNow,
	}
}

func TestApplicationRepositoryCreateAndGet(t *testing.T) {
	db := setupTestDB(t)
	repo := NewApplicationRepository(db)
	scholarship := seedScholarship(t, db, 1, repoNow.AddDate(0, 1, 0))

	app := newApplication(1, scholarship.ID, models.ApplicationStatusDraft)
	app.ReferenceContacts = []models.ReferenceContact{{Name: "Mwalimu Njeri", Relationship: "teacher"}}
	require.NoError(t, repo.Create(context.Background(), &app, creationEntry()))

	stored, err := repo.GetByID(context.Background(), app.ID)
	require.NoError(t, err)
	require.Equal(t, models.ApplicationStatusDraft, stored.Status)
	require.Len(t, stored.History, 1)
	require.Equal(t, models.ApplicationStatusDraft, stored.History[0].ToStatus)
	require.Equal(t, app.ID, stored.History[0].ApplicationID)
	require.Len(t, stored.ReferenceContacts, 1)

	_, err = repo.GetByID(context.Background(), "missing")
	require.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestApplicationRepositoryUniqueLivePair(t *testing.T) {
	db := setupTestDB(t)
	repo := NewApplicationRepository(db)
	scholarship := seedScholarship(t, db, 1, repoNow.AddDate(0, 1, 0))
	ctx := context.Background()

	first := newApplication(1, scholarship.ID, models.ApplicationStatusDraft)
	require.NoError(t, repo.Create(ctx, &first, creationEntry()))

	second := newApplication(1, scholarship.ID, models.ApplicationStatusDraft)
	require.ErrorIs(t, repo.Create(ctx, &second, creationEntry()), ErrDuplicateActive)

	active, err := repo.FindActive(ctx, 1, scholarship.ID)
	require.NoError(t, err)
	require.Equal(t, first.ID, active.ID)

	withdrawn := first
	withdrawn.Status = models.ApplicationStatusWithdrawn
	require.NoError(t, repo.CommitTransition(ctx, StatusUpdate{
		Application:    withdrawn,
		ExpectedStatus: models.ApplicationStatusDraft,
		History:        models.ApplicationStatusHistory{FromStatus: models.ApplicationStatusDraft, ToStatus: models.ApplicationStatusWithdrawn, ActorRole: lifecycle.RoleStudent, OccurredAt: repoNow},
	}))

	_, err = repo.FindActive(ctx, 1, scholarship.ID)
	require.ErrorIs(t, err, gorm.ErrRecordNotFound)

	third := newApplication(1, scholarship.ID, models.ApplicationStatusDraft)
	require.NoError(t, repo.Create(ctx, &third, creationEntry()))

	listed, err := repo.ListByStudent(ctx, 1)
	require.NoError(t, err)
	require.Len(t, listed, 2)
}

func TestApplicationRepositoryCommitTransitionCompareAndSwap(t *testing.T) {
	db := setupTestDB(t)
	repo := NewApplicationRepository(db)
	scholarship := seedScholarship(t, db, 1, repoNow.AddDate(0, 1, 0))
	ctx := context.Background()

	app := newApplication(1, scholarship.ID, models.ApplicationStatusDraft)
	require.NoError(t, repo.Create(ctx, &app, creationEntry()))

	submitted := app
	submitted.Status = models.ApplicationStatusSubmitted
	submittedAt := repoNow
	submitted.SubmissionDate = &submittedAt
	update := StatusUpdate{
		Application:    submitted,
		ExpectedStatus: models.ApplicationStatusDraft,
		History:        models.ApplicationStatusHistory{FromStatus: models.ApplicationStatusDraft, ToStatus: models.ApplicationStatusSubmitted, ActorRole: lifecycle.RoleStudent, OccurredAt: repoNow},
	}
	require.NoError(t, repo.CommitTransition(ctx, update))
	require.ErrorIs(t, repo.CommitTransition(ctx, update), ErrStaleStatus)

	stored, err := repo.GetByID(ctx, app.ID)
	require.NoError(t, err)
	require.Equal(t, models.ApplicationStatusSubmitted, stored.Status)
	require.NotNil(t, stored.SubmissionDate)
	require.Len(t, stored.History, 2)

	var counted models.Scholarship
	require.NoError(t, db.First(&counted, scholarship.ID).Error)
	require.Equal(t, 1, counted.ApplicationsSubmitted)
}

func TestApplicationRepositoryCountsOnlyDraftSubmissions(t *testing.T) {
	db := setupTestDB(t)
	repo := NewApplicationRepository(db)
	scholarship := seedScholarship(t, db, 1, repoNow.AddDate(0, 1, 0))
	ctx := context.Background()

	app := newApplication(1, scholarship.ID, models.ApplicationStatusSubmitted)
	require.NoError(t, repo.Create(ctx, &app, creationEntry()))

	reviewing := app
	reviewing.Status = models.ApplicationStatusUnderReview
	require.NoError(t, repo.CommitTransition(ctx, StatusUpdate{
		Application:    reviewing,
		ExpectedStatus: models.ApplicationStatusSubmitted,
		History:        models.ApplicationStatusHistory{FromStatus: models.ApplicationStatusSubmitted, ToStatus: models.ApplicationStatusUnderReview, ActorRole: lifecycle.RoleReviewer, OccurredAt: repoNow},
	}))

	var stored models.Scholarship
	require.NoError(t, db.First(&stored, scholarship.ID).Error)
	require.Zero(t, stored.ApplicationsSubmitted)
}

func TestApplicationRepositoryApprovalOpensDisbursement(t *testing.T) {
	db := setupTestDB(t)
	repo := NewApplicationRepository(db)
	scholarship := seedScholarship(t, db, 1, repoNow.AddDate(0, 1, 0))
	ctx := context.Background()

	first := newApplication(1, scholarship.ID, models.ApplicationStatusInterviewCompleted)
	second := newApplication(2, scholarship.ID, models.ApplicationStatusInterviewCompleted)
	for _, app := range []*models.Application{&first, &second} {
		require.NoError(t, repo.Create(ctx, app, creationEntry()))
	}

	approve := func(app models.Application) error {
		approved := app
		approved.Status = models.ApplicationStatusApproved
		approved.AwardedAmount = decimal.NewNullDecimal(decimal.NewFromInt(30000))
		disbursement, opened := lifecycle.OpenDisbursement(approved, lifecycle.Actor{ID: 9, Role: lifecycle.RoleReviewer}, repoNow)
		disbursement.ID = uuid.NewString()
		return repo.CommitTransition(ctx, StatusUpdate{
			Application:       approved,
			ExpectedStatus:    models.ApplicationStatusInterviewCompleted,
			History:           models.ApplicationStatusHistory{FromStatus: app.Status, ToStatus: models.ApplicationStatusApproved, ActorRole: lifecycle.RoleReviewer, OccurredAt: repoNow},
			ConsumeCapacity:   true,
			Disbursement:      &disbursement,
			DisbursementEntry: opened,
		})
	}

	require.NoError(t, approve(first))
	require.ErrorIs(t, approve(second), lifecycle.ErrCapacityExceeded)

	disbursements := NewDisbursementRepository(db)
	opened, err := disbursements.ListByApplication(ctx, first.ID)
	require.NoError(t, err)
	require.Len(t, opened, 1)
	require.Equal(t, models.DisbursementPending, opened[0].Status)
	require.True(t, opened[0].Amount.Equal(decimal.NewFromInt(30000)))
	require.Len(t, opened[0].History, 1)
	require.Equal(t, models.DisbursementPending, opened[0].History[0].ToStatus)

	rolledBack, err := disbursements.ListByApplication(ctx, second.ID)
	require.NoError(t, err)
	require.Empty(t, rolledBack)

	var count int64
	require.NoError(t, db.Model(&models.DisbursementStatusHistory{}).Count(&count).Error)
	require.Equal(t, int64(1), count)
}

func TestApplicationRepositoryCapacityIsAtomic(t *testing.T) {
	db := setupTestDB(t)
	repo := NewApplicationRepository(db)
	scholarship := seedScholarship(t, db, 1, repoNow.AddDate(0, 1, 0))
	ctx := context.Background()

	const contenders = 50
	apps := make([]models.Application, 0, contenders)
	for i := 0; i < contenders; i++ {
		app := newApplication(uint(i+1), scholarship.ID, models.ApplicationStatusInterviewCompleted)
		require.NoError(t, repo.Create(ctx, &app, creationEntry()))
		apps = append(apps, app)
	}

	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		successes int
		exceeded  int
	)
	for _, app := range apps {
		wg.Add(1)
		go func(app models.Application) {
			defer wg.Done()
			approved := app
			approved.Status = models.ApplicationStatusApproved
			approved.AwardedAmount = decimal.NewNullDecimal(decimal.NewFromInt(30000))
			err := repo.CommitTransition(ctx, StatusUpdate{
				Application:     approved,
				ExpectedStatus:  models.ApplicationStatusInterviewCompleted,
				History:         models.ApplicationStatusHistory{FromStatus: app.Status, ToStatus: models.ApplicationStatusApproved, ActorRole: lifecycle.RoleReviewer, OccurredAt: repoNow},
				ConsumeCapacity: true,
			})
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				successes++
			case errors.Is(err, lifecycle.ErrCapacityExceeded):
				exceeded++
			}
		}(app)
	}
	wg.Wait()

	require.Equal(t, 1, successes)
	require.Equal(t, contenders-1, exceeded)

	var stored models.Scholarship
	require.NoError(t, db.First(&stored, scholarship.ID).Error)
	require.Equal(t, 1, stored.AwardsGranted)

	var approvedCount int64
	require.NoError(t, db.Model(&models.Application{}).Where("status = ?", models.ApplicationStatusApproved).Count(&approvedCount).Error)
	require.Equal(t, int64(1), approvedCount)
}

func TestApplicationRepositoryListOverdue(t *testing.T) {
	db := setupTestDB(t)
	repo := NewApplicationRepository(db)
	ctx := context.Background()

	closed := seedScholarship(t, db, 3, repoNow.Add(-time.Hour))
	open := seedScholarship(t, db, 3, repoNow.AddDate(0, 0, 10))

	overdue := newApplication(1, closed.ID, models.ApplicationStatusSubmitted)
	waitlisted := newApplication(2, closed.ID, models.ApplicationStatusWaitlisted)
	reviewing := newApplication(3, closed.ID, models.ApplicationStatusUnderReview)
	notYet := newApplication(4, open.ID, models.ApplicationStatusSubmitted)
	for _, app := range []*models.Application{&overdue, &waitlisted, &reviewing, &notYet} {
		require.NoError(t, repo.Create(ctx, app, creationEntry()))
	}

	found, err := repo.ListOverdue(ctx, repoNow)
	require.NoError(t, err)

	ids := map[string]bool{}
	for _, app := range found {
		ids[app.ID] = true
	}
	require.Len(t, found, 2)
	require.True(t, ids[overdue.ID])
	require.True(t, ids[waitlisted.ID])
}

func TestScholarshipRepositoryListOpen(t *testing.T) {
	db := setupTestDB(t)
	repo := NewScholarshipRepository(db)
	ctx := context.Background()

	later := seedScholarship(t, db, 1, repoNow.AddDate(0, 2, 0))
	sooner := seedScholarship(t, db, 1, repoNow.AddDate(0, 1, 0))
	seedScholarship(t, db, 1, repoNow.Add(-time.Hour))

	draft := models.Scholarship{
		Title:                "Unpublished",
		Status:               models.ScholarshipDraft,
		ApplicationStart:     repoNow.AddDate(0, -1, 0),
		ApplicationDeadline:  repoNow.AddDate(0, 1, 0),
		NumberOfAwards:       1,
		AmountPerBeneficiary: decimal.NewFromInt(1000),
	}
	require.NoError(t, db.Create(&draft).Error)

	open, err := repo.ListOpen(ctx, repoNow)
	require.NoError(t, err)
	require.Len(t, open, 2)
	require.Equal(t, sooner.ID, open[0].ID)
	require.Equal(t, later.ID, open[1].ID)

	got, err := repo.GetByID(ctx, later.ID)
	require.NoError(t, err)
	require.Equal(t, "Equity Wings", got.Title)
}

func TestStudentRepositoryGetByID(t *testing.T) {
	db := setupTestDB(t)
	repo := NewStudentRepository(db)

	student := models.Student{
		FirstName:      "Otieno",
		LastName:       "Ouma",
		County:         models.CountyKisumu,
		EducationLevel: models.EducationDiploma,
		Gender:         models.GenderMale,
		DateOfBirth:    time.Date(2003, 8, 9, 0, 0, 0, 0, time.UTC),
	}
	require.NoError(t, db.Create(&student).Error)

	got, err := repo.GetByID(context.Background(), student.ID)
	require.NoError(t, err)
	require.Equal(t, models.CountyKisumu, got.County)
	require.Equal(t, models.DisabilityNone, got.DisabilityStatus)

	_, err = repo.GetByID(context.Background(), 999)
	require.ErrorIs(t, err, gorm.ErrRecordNotFound)
}
