package service

import (
	"errors"
	"fmt"

	"gorm.io/gorm"
)

// ErrApplicationNotFound indicates the requested application does not exist.
var ErrApplicationNotFound = errors.New("application not found")

// ErrScholarshipNotFound indicates the scholarship does not exist.
var ErrScholarshipNotFound = errors.New("scholarship not found")

// ErrStudentNotFound indicates the student profile does not exist.
var ErrStudentNotFound = errors.New("student not found")

// ErrDisbursementNotFound indicates the payout does not exist.
var ErrDisbursementNotFound = errors.New("disbursement not found")

// ErrForbidden indicates the actor may not act on the application.
var ErrForbidden = errors.New("not permitted to act on this application")

// ErrScholarshipNotOpen indicates the scholarship is not accepting applications.
var ErrScholarshipNotOpen = errors.New("scholarship is not accepting applications")

// ValidationError reports malformed input rejected before any state change.
type ValidationError struct {
	Field   string
	Message string
	Err     error
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}

func newValidationError(err error) *ValidationError {
	return &ValidationError{Message: "invalid request payload", Err: err}
}

// DuplicateApplicationError is returned when the student already holds a live
// application for the scholarship.
type DuplicateApplicationError struct {
	ExistingID string
}

func (e *DuplicateApplicationError) Error() string {
	return fmt.Sprintf("student already has an active application %s for this scholarship", e.ExistingID)
}

func notFoundOr(err, notFound error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return notFound
	}
	return err
}
