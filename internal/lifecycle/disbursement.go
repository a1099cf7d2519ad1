package lifecycle

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/noah-isme/scholarship-api/internal/models"
)

var (
	// ErrDisbursementMethodRequired means a payout was processed without a valid method.
	ErrDisbursementMethodRequired = errors.New("a valid disbursement method is required")
	// ErrDisbursementReferenceRequired means a payout was completed without a transaction reference.
	ErrDisbursementReferenceRequired = errors.New("a reference number is required to complete a disbursement")
)

// InvalidDisbursementTransitionError reports a payout status change outside the table.
type InvalidDisbursementTransitionError struct {
	From models.DisbursementStatus
	To   models.DisbursementStatus
}

func (e *InvalidDisbursementTransitionError) Error() string {
	return fmt.Sprintf("invalid disbursement transition from %q to %q", e.From, e.To)
}

// A failed payout may be retried; completed and cancelled are final.
var disbursementTransitions = map[models.DisbursementStatus][]models.DisbursementStatus{
	models.DisbursementPending:   {models.DisbursementProcessed, models.DisbursementCancelled},
	models.DisbursementProcessed: {models.DisbursementCompleted, models.DisbursementFailed},
	models.DisbursementFailed:    {models.DisbursementPending, models.DisbursementCancelled},
}

// CanTransitionDisbursement reports whether from -> to is allowed.
func CanTransitionDisbursement(from, to models.DisbursementStatus) bool {
	for _, allowed := range disbursementTransitions[from] {
		if allowed == to {
			return true
		}
	}
	return false
}

// DisbursementInput carries payout details recorded while processing.
type DisbursementInput struct {
	Method          models.DisbursementMethod
	ReferenceNumber string
	Note            string
}

// DisbursementTransition is a planned, not yet persisted, payout change.
type DisbursementTransition struct {
	From         models.DisbursementStatus
	To           models.DisbursementStatus
	Disbursement models.Disbursement
	Entry        models.DisbursementStatusHistory
	// CreditsApplication is set when the amount counts towards the
	// application's total disbursed.
	CreditsApplication bool
}

// OpenDisbursement builds the pending payout recorded when an application is
// approved. The caller assigns the ID.
func OpenDisbursement(app models.Application, actor Actor, now time.Time) (models.Disbursement, models.DisbursementStatusHistory) {
	disbursement := models.Disbursement{
		ApplicationID:    app.ID,
		Amount:           app.AwardedAmount.Decimal,
		Status:           models.DisbursementPending,
		DisbursementDate: now,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	entry := models.DisbursementStatusHistory{
		ToStatus:   models.DisbursementPending,
		ActorID:    actor.ID,
		ActorRole:  actor.Role,
		OccurredAt: now,
	}
	return disbursement, entry
}

// PlanDisbursement validates a payout status change. The input is never
// modified; on error nothing changes.
func PlanDisbursement(d models.Disbursement, to models.DisbursementStatus, actor Actor, input DisbursementInput, now time.Time) (DisbursementTransition, error) {
	from := d.Status
	if !CanTransitionDisbursement(from, to) {
		return DisbursementTransition{}, &InvalidDisbursementTransitionError{From: from, To: to}
	}

	next := d
	next.History = nil

	switch to {
	case models.DisbursementProcessed:
		if !input.Method.Valid() {
			return DisbursementTransition{}, ErrDisbursementMethodRequired
		}
		next.Method = input.Method
		if reference := strings.TrimSpace(input.ReferenceNumber); reference != "" {
			next.ReferenceNumber = reference
		}
		processedBy := actor.ID
		processedAt := now
		next.ProcessedBy = &processedBy
		next.ProcessedAt = &processedAt

	case models.DisbursementCompleted:
		if reference := strings.TrimSpace(input.ReferenceNumber); reference != "" {
			next.ReferenceNumber = reference
		}
		if next.ReferenceNumber == "" {
			return DisbursementTransition{}, ErrDisbursementReferenceRequired
		}

	case models.DisbursementPending:
		next.ProcessedBy = nil
		next.ProcessedAt = nil
	}

	next.Status = to
	next.UpdatedAt = now

	return DisbursementTransition{
		From:         from,
		To:           to,
		Disbursement: next,
		Entry: models.DisbursementStatusHistory{
			DisbursementID: d.ID,
			FromStatus:     from,
			ToStatus:       to,
			ActorID:        actor.ID,
			ActorRole:      actor.Role,
			Note:           input.Note,
			OccurredAt:     now,
		},
		CreditsApplication: to == models.DisbursementCompleted,
	}, nil
}
