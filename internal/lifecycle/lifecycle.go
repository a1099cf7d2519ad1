// Package lifecycle is the application status state machine. Plan computes a
// transition without touching its inputs; persisting the result atomically is
// the repository's job.
package lifecycle

import (
	"errors"
	"fmt"

	"github.com/noah-isme/scholarship-api/internal/models"
)

var (
	// ErrCapacityExceeded means the scholarship has no awards left to grant.
	ErrCapacityExceeded = errors.New("scholarship award capacity exceeded")
	// ErrAwardAmountRequired means an approval was requested without a positive amount.
	ErrAwardAmountRequired = errors.New("awarded amount is required for approval")
	// ErrAwardAmountTooHigh means the awarded amount exceeds the per-beneficiary amount.
	ErrAwardAmountTooHigh = errors.New("awarded amount exceeds amount per beneficiary")
	// ErrEligibilityRequired means a submission was planned without an eligibility result.
	ErrEligibilityRequired = errors.New("eligibility result is required to submit")
	// ErrNotOverdue means expiry was requested before the deadline passed.
	ErrNotOverdue = errors.New("application is not past the scholarship deadline")
	// ErrSystemOnly means a non-system actor attempted a system transition.
	ErrSystemOnly = errors.New("transition may only be performed by the system")
	// ErrOwnerOnly means someone other than the applicant tried to withdraw.
	ErrOwnerOnly = errors.New("only the applicant may withdraw an application")
)

// InvalidTransitionError reports a status change outside the transition table.
type InvalidTransitionError struct {
	From models.ApplicationStatus
	To   models.ApplicationStatus
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("invalid status transition from %q to %q", e.From, e.To)
}

var transitions = map[models.ApplicationStatus][]models.ApplicationStatus{
	models.ApplicationStatusDraft: {
		models.ApplicationStatusSubmitted,
		models.ApplicationStatusWithdrawn,
	},
	models.ApplicationStatusSubmitted: {
		models.ApplicationStatusUnderReview,
		models.ApplicationStatusWithdrawn,
		models.ApplicationStatusExpired,
	},
	models.ApplicationStatusUnderReview: {
		models.ApplicationStatusShortlisted,
		models.ApplicationStatusRejected,
		models.ApplicationStatusWaitlisted,
		models.ApplicationStatusWithdrawn,
	},
	models.ApplicationStatusShortlisted: {
		models.ApplicationStatusInterviewScheduled,
		models.ApplicationStatusRejected,
		models.ApplicationStatusWaitlisted,
		models.ApplicationStatusWithdrawn,
	},
	models.ApplicationStatusInterviewScheduled: {
		models.ApplicationStatusInterviewCompleted,
		models.ApplicationStatusWithdrawn,
	},
	models.ApplicationStatusInterviewCompleted: {
		models.ApplicationStatusApproved,
		models.ApplicationStatusRejected,
		models.ApplicationStatusWaitlisted,
	},
	models.ApplicationStatusWaitlisted: {
		models.ApplicationStatusApproved,
		models.ApplicationStatusRejected,
		models.ApplicationStatusWithdrawn,
		models.ApplicationStatusExpired,
	},
}

// IsTerminal reports whether no transition may leave the status.
func IsTerminal(status models.ApplicationStatus) bool {
	switch status {
	case models.ApplicationStatusApproved,
		models.ApplicationStatusRejected,
		models.ApplicationStatusWithdrawn,
		models.ApplicationStatusExpired:
		return true
	}
	return false
}

// CanTransition reports whether from -> to is allowed. Withdrawal is allowed
// from every non-terminal status.
func CanTransition(from, to models.ApplicationStatus) bool {
	if IsTerminal(from) {
		return false
	}
	if to == models.ApplicationStatusWithdrawn {
		return from.Valid()
	}
	for _, allowed := range transitions[from] {
		if allowed == to {
			return true
		}
	}
	return false
}

// AllowedTransitions returns the statuses reachable from the given status.
func AllowedTransitions(from models.ApplicationStatus) []models.ApplicationStatus {
	if IsTerminal(from) {
		return nil
	}
	allowed := make([]models.ApplicationStatus, 0, len(transitions[from])+1)
	for _, to := range models.ApplicationStatuses {
		if CanTransition(from, to) {
			allowed = append(allowed, to)
		}
	}
	return allowed
}

// IsReviewDecision reports whether a reviewer may request the status through a decision.
func IsReviewDecision(status models.ApplicationStatus) bool {
	switch status {
	case models.ApplicationStatusUnderReview,
		models.ApplicationStatusShortlisted,
		models.ApplicationStatusInterviewScheduled,
		models.ApplicationStatusInterviewCompleted,
		models.ApplicationStatusApproved,
		models.ApplicationStatusRejected,
		models.ApplicationStatusWaitlisted:
		return true
	}
	return false
}
