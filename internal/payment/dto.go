package payment

import (
	"time"

	"github.com/shopspring/decimal"
)

// SubmitProofRequest represents a payer's proof of payment
type SubmitProofRequest struct {
	ProofRef string `json:"proof_ref" validate:"required,max=500"`
}

// ApproveRequest represents the approval of a submitted proof
type ApproveRequest struct {
	Method string `json:"method" validate:"max=50"`
}

// RejectRequest represents the rejection of a submitted proof
type RejectRequest struct {
	Reason string `json:"reason" validate:"max=255"`
}

// SettleRequest represents a payment taken directly by staff
type SettleRequest struct {
	AmountPaid      decimal.Decimal  `json:"amount_paid" validate:"gte=0"`
	Method          string           `json:"method" validate:"required,max=50"`
	DiscountPercent *decimal.Decimal `json:"discount_percent,omitempty"`
	CreditToApply   decimal.Decimal  `json:"credit_to_apply" validate:"gte=0"`
}

// CancelRequest represents a cancellation
type CancelRequest struct {
	Reason string `json:"reason" validate:"required,min=1,max=255"`
}

// Statement lists what a student owes at a date
type Statement struct {
	StudentID string          `json:"student_id"`
	AsOf      time.Time       `json:"as_of"`
	Items     []LateFee       `json:"items"`
	Total     decimal.Decimal `json:"total"`
}
