package database

import (
	"fmt"

	"gorm.io/gorm"

	"github.com/noah-isme/scholarship-api/internal/models"
)

// Migrate creates or updates the tables owned by this service, including the
// partial unique index on live applications.
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&models.Student{},
		&models.Scholarship{},
		&models.Application{},
		&models.ApplicationStatusHistory{},
		&models.Disbursement{},
		&models.DisbursementStatusHistory{},
	); err != nil {
		return fmt.Errorf("failed to migrate database: %w", err)
	}

	return nil
}
