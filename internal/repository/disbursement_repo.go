package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/noah-isme/scholarship-api/internal/models"
)

// ErrStaleDisbursement means the payout left the expected status before the
// update could be applied.
var ErrStaleDisbursement = errors.New("disbursement status changed concurrently")

// DisbursementUpdate is one atomic payout write.
type DisbursementUpdate struct {
	Disbursement      models.Disbursement
	ExpectedStatus    models.DisbursementStatus
	History           models.DisbursementStatusHistory
	CreditApplication bool
}

// DisbursementRepository persists payouts of approved awards.
type DisbursementRepository interface {
	GetByID(ctx context.Context, id string) (models.Disbursement, error)
	ListByApplication(ctx context.Context, applicationID string) ([]models.Disbursement, error)
	CommitTransition(ctx context.Context, update DisbursementUpdate) error
}

type disbursementRepository struct {
	db *gorm.DB
}

// NewDisbursementRepository constructs a disbursement repository.
func NewDisbursementRepository(db *gorm.DB) DisbursementRepository {
	return &disbursementRepository{db: db}
}

func (r *disbursementRepository) GetByID(ctx context.Context, id string) (models.Disbursement, error) {
	var disbursement models.Disbursement
	err := r.db.WithContext(ctx).
		Preload("History", func(db *gorm.DB) *gorm.DB {
			return db.Order("occurred_at ASC").Order("id ASC")
		}).
		First(&disbursement, "id = ?", id).Error
	if err != nil {
		return models.Disbursement{}, err
	}

	return disbursement, nil
}

func (r *disbursementRepository) ListByApplication(ctx context.Context, applicationID string) ([]models.Disbursement, error) {
	var disbursements []models.Disbursement
	err := r.db.WithContext(ctx).
		Preload("History", func(db *gorm.DB) *gorm.DB {
			return db.Order("occurred_at ASC").Order("id ASC")
		}).
		Where("application_id = ?", applicationID).
		Order("created_at ASC").
		Find(&disbursements).Error
	if err != nil {
		return nil, err
	}

	return disbursements, nil
}

// CommitTransition swaps the payout status, credits the application's total
// when the payout completed, and appends history, all in one transaction.
func (r *disbursementRepository) CommitTransition(ctx context.Context, update DisbursementUpdate) error {
	d := update.Disbursement

	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&models.Disbursement{}).
			Where("id = ? AND status = ?", d.ID, update.ExpectedStatus).
			Updates(map[string]interface{}{
				"status":           d.Status,
				"method":           d.Method,
				"reference_number": d.ReferenceNumber,
				"processed_by":     d.ProcessedBy,
				"processed_at":     d.ProcessedAt,
				"updated_at":       d.UpdatedAt,
			})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return ErrStaleDisbursement
		}

		if update.CreditApplication {
			err := tx.Model(&models.Application{}).
				Where("id = ?", d.ApplicationID).
				UpdateColumn("total_disbursed", gorm.Expr("total_disbursed + ?", d.Amount)).Error
			if err != nil {
				return err
			}
		}

		entry := update.History
		entry.DisbursementID = d.ID
		return tx.Create(&entry).Error
	})
}
