package service

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/noah-isme/scholarship-api/internal/repository"
)

// DuplicateGuard decides whether a new application may be opened for a
// student and scholarship. Withdrawn and expired applications do not block.
type DuplicateGuard interface {
	CanCreate(ctx context.Context, studentID, scholarshipID uint) (bool, string, error)
}

type duplicateGuard struct {
	applications repository.ApplicationRepository
}

// NewDuplicateGuard constructs a guard backed by the application store.
func NewDuplicateGuard(applications repository.ApplicationRepository) DuplicateGuard {
	return &duplicateGuard{applications: applications}
}

func (g *duplicateGuard) CanCreate(ctx context.Context, studentID, scholarshipID uint) (bool, string, error) {
	existing, err := g.applications.FindActive(ctx, studentID, scholarshipID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return true, "", nil
		}
		return false, "", err
	}

	return false, existing.ID, nil
}
