package repository

import (
	"context"
	"errors"
	"strings"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/noah-isme/scholarship-api/internal/lifecycle"
	"github.com/noah-isme/scholarship-api/internal/models"
)

var (
	// ErrDuplicateActive is returned when the partial unique index rejects a
	// second live application for the same student and scholarship.
	ErrDuplicateActive = errors.New("active application already exists for student and scholarship")
	// ErrStaleStatus means the application left the expected status before the
	// update could be applied.
	ErrStaleStatus = errors.New("application status changed concurrently")
)

// StatusUpdate is one atomic lifecycle write. Disbursement, when set, is the
// pending payout opened by an approval.
type StatusUpdate struct {
	Application       models.Application
	ExpectedStatus    models.ApplicationStatus
	History           models.ApplicationStatusHistory
	ConsumeCapacity   bool
	Disbursement      *models.Disbursement
	DisbursementEntry models.DisbursementStatusHistory
}

// ApplicationRepository persists applications and their status history.
type ApplicationRepository interface {
	Create(ctx context.Context, application *models.Application, entry models.ApplicationStatusHistory) error
	GetByID(ctx context.Context, id string) (models.Application, error)
	FindActive(ctx context.Context, studentID, scholarshipID uint) (models.Application, error)
	ListByStudent(ctx context.Context, studentID uint) ([]models.Application, error)
	ListOverdue(ctx context.Context, now time.Time) ([]models.Application, error)
	CommitTransition(ctx context.Context, update StatusUpdate) error
}

type applicationRepository struct {
	db *gorm.DB
}

// NewApplicationRepository constructs an application repository.
func NewApplicationRepository(db *gorm.DB) ApplicationRepository {
	return &applicationRepository{db: db}
}

func (r *applicationRepository) Create(ctx context.Context, application *models.Application, entry models.ApplicationStatusHistory) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit(clause.Associations).Create(application).Error; err != nil {
			if isUniqueViolation(err) {
				return ErrDuplicateActive
			}
			return err
		}

		entry.ApplicationID = application.ID
		return tx.Create(&entry).Error
	})
}

func (r *applicationRepository) GetByID(ctx context.Context, id string) (models.Application, error) {
	var application models.Application
	err := r.db.WithContext(ctx).
		Preload("History", func(db *gorm.DB) *gorm.DB {
			return db.Order("occurred_at ASC").Order("id ASC")
		}).
		First(&application, "id = ?", id).Error
	if err != nil {
		return models.Application{}, err
	}

	return application, nil
}

// FindActive returns the live application for the pair, or
// gorm.ErrRecordNotFound when none blocks a new one.
func (r *applicationRepository) FindActive(ctx context.Context, studentID, scholarshipID uint) (models.Application, error) {
	var application models.Application
	err := r.db.WithContext(ctx).
		Where("student_id = ? AND scholarship_id = ?", studentID, scholarshipID).
		Where("status NOT IN ?", []models.ApplicationStatus{models.ApplicationStatusWithdrawn, models.ApplicationStatusExpired}).
		Order("created_at DESC").
		First(&application).Error
	if err != nil {
		return models.Application{}, err
	}

	return application, nil
}

func (r *applicationRepository) ListByStudent(ctx context.Context, studentID uint) ([]models.Application, error) {
	var applications []models.Application
	err := r.db.WithContext(ctx).
		Where("student_id = ?", studentID).
		Order("created_at DESC").
		Find(&applications).Error
	if err != nil {
		return nil, err
	}

	return applications, nil
}

// ListOverdue returns submitted or waitlisted applications whose scholarship
// deadline is before now.
func (r *applicationRepository) ListOverdue(ctx context.Context, now time.Time) ([]models.Application, error) {
	var applications []models.Application
	err := r.db.WithContext(ctx).
		Select("applications.*").
		Joins("JOIN scholarships ON scholarships.id = applications.scholarship_id").
		Where("applications.status IN ?", []models.ApplicationStatus{models.ApplicationStatusSubmitted, models.ApplicationStatusWaitlisted}).
		Where("scholarships.application_deadline < ?", now).
		Order("applications.created_at ASC").
		Find(&applications).Error
	if err != nil {
		return nil, err
	}

	return applications, nil
}

// CommitTransition applies a planned transition in one transaction: a
// compare-and-swap on the application status, the scholarship counters, the
// optional pending disbursement, and the history append. Any failure leaves
// every row untouched.
func (r *applicationRepository) CommitTransition(ctx context.Context, update StatusUpdate) error {
	app := update.Application

	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&models.Application{}).
			Where("id = ? AND status = ?", app.ID, update.ExpectedStatus).
			Updates(map[string]interface{}{
				"status":           app.Status,
				"submission_date":  app.SubmissionDate,
				"decision_date":    app.DecisionDate,
				"evaluation_score": app.EvaluationScore,
				"awarded_amount":   app.AwardedAmount,
				"updated_at":       app.UpdatedAt,
			})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return ErrStaleStatus
		}

		if update.ConsumeCapacity {
			granted := tx.Model(&models.Scholarship{}).
				Where("id = ? AND awards_granted < number_of_awards", app.ScholarshipID).
				UpdateColumn("awards_granted", gorm.Expr("awards_granted + ?", 1))
			if granted.Error != nil {
				return granted.Error
			}
			if granted.RowsAffected == 0 {
				return lifecycle.ErrCapacityExceeded
			}
		}

		if update.ExpectedStatus == models.ApplicationStatusDraft && app.Status == models.ApplicationStatusSubmitted {
			err := tx.Model(&models.Scholarship{}).
				Where("id = ?", app.ScholarshipID).
				UpdateColumn("applications_submitted", gorm.Expr("applications_submitted + ?", 1)).Error
			if err != nil {
				return err
			}
		}

		if update.Disbursement != nil {
			disbursement := *update.Disbursement
			disbursement.ApplicationID = app.ID
			if err := tx.Omit(clause.Associations).Create(&disbursement).Error; err != nil {
				return err
			}

			opened := update.DisbursementEntry
			opened.DisbursementID = disbursement.ID
			if err := tx.Create(&opened).Error; err != nil {
				return err
			}
		}

		entry := update.History
		entry.ApplicationID = app.ID
		return tx.Create(&entry).Error
	})
}

func isUniqueViolation(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	message := strings.ToLower(err.Error())
	return strings.Contains(message, "unique constraint") || strings.Contains(message, "duplicate key")
}
