package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/noah-isme/scholarship-api/internal/eligibility"
	"github.com/noah-isme/scholarship-api/internal/models"
)

// EligibilityResponse is the result of checking one student against one scholarship.
type EligibilityResponse struct {
	ScholarshipID     uint                  `json:"scholarship_id"`
	StudentID         uint                  `json:"student_id"`
	Eligible          bool                  `json:"eligible"`
	Reasons           []eligibility.Reason  `json:"reasons"`
	RequiredDocuments []models.DocumentType `json:"required_documents"`
	Score             int                   `json:"score"`
	ScoreVersion      string                `json:"score_version"`
}

// RecommendationResponse is one ranked scholarship.
type RecommendationResponse struct {
	ScholarshipID        uint                 `json:"scholarship_id"`
	Title                string               `json:"title"`
	Score                int                  `json:"score"`
	Eligible             bool                 `json:"eligible"`
	Reasons              []eligibility.Reason `json:"reasons"`
	ApplicationDeadline  time.Time            `json:"application_deadline"`
	AmountPerBeneficiary decimal.Decimal      `json:"amount_per_beneficiary"`
	RemainingAwards      int                  `json:"remaining_awards"`
}

// RecommendationListResponse wraps ranked scholarships for a student.
type RecommendationListResponse struct {
	StudentID    uint                     `json:"student_id"`
	ScoreVersion string                   `json:"score_version"`
	Items        []RecommendationResponse `json:"items"`
	GeneratedAt  time.Time                `json:"generated_at"`
	ValidUntil   time.Time                `json:"valid_until"`
}
