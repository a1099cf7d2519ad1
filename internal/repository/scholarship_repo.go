package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/noah-isme/scholarship-api/internal/models"
)

// ScholarshipRepository provides read access to scholarship criteria.
type ScholarshipRepository interface {
	GetByID(ctx context.Context, id uint) (models.Scholarship, error)
	ListOpen(ctx context.Context, now time.Time) ([]models.Scholarship, error)
}

type scholarshipRepository struct {
	db *gorm.DB
}

// NewScholarshipRepository constructs a scholarship repository.
func NewScholarshipRepository(db *gorm.DB) ScholarshipRepository {
	return &scholarshipRepository{db: db}
}

func (r *scholarshipRepository) GetByID(ctx context.Context, id uint) (models.Scholarship, error) {
	var scholarship models.Scholarship
	if err := r.db.WithContext(ctx).First(&scholarship, id).Error; err != nil {
		return models.Scholarship{}, err
	}

	return scholarship, nil
}

// ListOpen returns active scholarships whose application window contains now,
// soonest deadline first.
func (r *scholarshipRepository) ListOpen(ctx context.Context, now time.Time) ([]models.Scholarship, error) {
	var scholarships []models.Scholarship
	err := r.db.WithContext(ctx).
		Where("status = ?", models.ScholarshipActive).
		Where("application_start <= ?", now).
		Where("application_deadline >= ?", now).
		Order("application_deadline ASC").
		Order("id ASC").
		Find(&scholarships).Error
	if err != nil {
		return nil, err
	}

	return scholarships, nil
}
