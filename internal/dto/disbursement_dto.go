package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/noah-isme/scholarship-api/internal/models"
)

// DisbursementTransitionRequest moves a payout to a new status.
type DisbursementTransitionRequest struct {
	Status          models.DisbursementStatus `json:"status" validate:"required"`
	Method          models.DisbursementMethod `json:"method" validate:"omitempty,oneof=bank_transfer mobile_money cheque cash direct_payment"`
	ReferenceNumber string                    `json:"reference_number" validate:"omitempty,max=100"`
	Note            string                    `json:"note" validate:"omitempty,max=2000"`
}

// DisbursementHistoryResponse serializes one payout audit entry.
type DisbursementHistoryResponse struct {
	FromStatus models.DisbursementStatus `json:"from_status"`
	ToStatus   models.DisbursementStatus `json:"to_status"`
	ActorID    uint                      `json:"actor_id"`
	ActorRole  string                    `json:"actor_role"`
	Note       string                    `json:"note"`
	OccurredAt time.Time                 `json:"occurred_at"`
}

// DisbursementResponse is the API view of a payout.
type DisbursementResponse struct {
	ID               string                        `json:"id"`
	ApplicationID    string                        `json:"application_id"`
	Amount           decimal.Decimal               `json:"amount"`
	Status           models.DisbursementStatus     `json:"status"`
	Method           models.DisbursementMethod     `json:"method"`
	ReferenceNumber  string                        `json:"reference_number"`
	DisbursementDate time.Time                     `json:"disbursement_date"`
	ProcessedBy      *uint                         `json:"processed_by"`
	ProcessedAt      *time.Time                    `json:"processed_at"`
	History          []DisbursementHistoryResponse `json:"history"`
	CreatedAt        time.Time                     `json:"created_at"`
	UpdatedAt        time.Time                     `json:"updated_at"`
}

// NewDisbursementResponse maps a model into its API representation.
func NewDisbursementResponse(d models.Disbursement) DisbursementResponse {
	history := make([]DisbursementHistoryResponse, 0, len(d.History))
	for _, entry := range d.History {
		history = append(history, DisbursementHistoryResponse{
			FromStatus: entry.FromStatus,
			ToStatus:   entry.ToStatus,
			ActorID:    entry.ActorID,
			ActorRole:  entry.ActorRole,
			Note:       entry.Note,
			OccurredAt: entry.OccurredAt,
		})
	}

	return DisbursementResponse{
		ID:               d.ID,
		ApplicationID:    d.ApplicationID,
		Amount:           d.Amount,
		Status:           d.Status,
		Method:           d.Method,
		ReferenceNumber:  d.ReferenceNumber,
		DisbursementDate: d.DisbursementDate,
		ProcessedBy:      d.ProcessedBy,
		ProcessedAt:      d.ProcessedAt,
		History:          history,
		CreatedAt:        d.CreatedAt,
		UpdatedAt:        d.UpdatedAt,
	}
}

// NewDisbursementResponseSlice maps a list of models.
func NewDisbursementResponseSlice(disbursements []models.Disbursement) []DisbursementResponse {
	responses := make([]DisbursementResponse, 0, len(disbursements))
	for _, d := range disbursements {
		responses = append(responses, NewDisbursementResponse(d))
	}
	return responses
}
