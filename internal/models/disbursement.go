package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// DisbursementStatus tracks a payout of an approved award.
type DisbursementStatus string

const (
	DisbursementPending   DisbursementStatus = "pending"
	DisbursementProcessed DisbursementStatus = "processed"
	DisbursementCompleted DisbursementStatus = "completed"
	DisbursementFailed    DisbursementStatus = "failed"
	DisbursementCancelled DisbursementStatus = "cancelled"
)

// DisbursementStatuses lists every payout status.
var DisbursementStatuses = []DisbursementStatus{
	DisbursementPending,
	DisbursementProcessed,
	DisbursementCompleted,
	DisbursementFailed,
	DisbursementCancelled,
}

// Valid reports whether the status is known.
func (s DisbursementStatus) Valid() bool {
	for _, status := range DisbursementStatuses {
		if status == s {
			return true
		}
	}
	return false
}

// DisbursementMethod is how the money reaches the beneficiary.
type DisbursementMethod string

const (
	MethodBankTransfer  DisbursementMethod = "bank_transfer"
	MethodMobileMoney   DisbursementMethod = "mobile_money"
	MethodCheque        DisbursementMethod = "cheque"
	MethodCash          DisbursementMethod = "cash"
	MethodDirectPayment DisbursementMethod = "direct_payment"
)

// Valid reports whether the method is known.
func (m DisbursementMethod) Valid() bool {
	switch m {
	case MethodBankTransfer, MethodMobileMoney, MethodCheque, MethodCash, MethodDirectPayment:
		return true
	}
	return false
}

// Disbursement is one payout of an application's awarded amount. A pending
// disbursement is opened in the same transaction that approves the application.
type Disbursement struct {
	ID               string                      `gorm:"primaryKey;size:36" json:"id"`
	ApplicationID    string                      `gorm:"size:36;not null;index" json:"application_id"`
	Amount           decimal.Decimal             `gorm:"type:numeric(14,2);not null" json:"amount"`
	Status           DisbursementStatus          `gorm:"size:16;not null;index" json:"status"`
	Method           DisbursementMethod          `gorm:"size:20" json:"method"`
	ReferenceNumber  string                      `gorm:"size:100" json:"reference_number"`
	DisbursementDate time.Time                   `gorm:"type:date;not null" json:"disbursement_date"`
	ProcessedBy      *uint                       `json:"processed_by"`
	ProcessedAt      *time.Time                  `json:"processed_at"`
	CreatedAt        time.Time                   `json:"created_at"`
	UpdatedAt        time.Time                   `json:"updated_at"`
	History          []DisbursementStatusHistory `gorm:"foreignKey:DisbursementID" json:"history"`
}

// DisbursementStatusHistory is the append-only audit trail of a payout.
type DisbursementStatusHistory struct {
	ID             uint               `gorm:"primaryKey" json:"id"`
	DisbursementID string             `gorm:"size:36;not null;index" json:"disbursement_id"`
	FromStatus     DisbursementStatus `gorm:"size:16" json:"from_status"`
	ToStatus       DisbursementStatus `gorm:"size:16;not null" json:"to_status"`
	ActorID        uint               `json:"actor_id"`
	ActorRole      string             `gorm:"size:32;not null" json:"actor_role"`
	Note           string             `gorm:"type:text" json:"note"`
	OccurredAt     time.Time          `gorm:"not null" json:"occurred_at"`
}

// TableName keeps the audit table name stable.
func (DisbursementStatusHistory) TableName() string {
	return "disbursement_status_history"
}
