package credit

import "github.com/shopspring/decimal"

// AddCreditRequest represents a manual credit addition (refund, prepayment, adjustment)
type AddCreditRequest struct {
	Amount decimal.Decimal `json:"amount" validate:"gt=0"`
	Reason string          `json:"reason" validate:"required,min=1,max=255"`
}

// ConsumeCreditRequest represents a manual credit consumption
type ConsumeCreditRequest struct {
	Amount          decimal.Decimal `json:"amount" validate:"gt=0"`
	RelatedChargeID string          `json:"related_charge_id" validate:"required"`
	Reason          string          `json:"reason" validate:"required,min=1,max=255"`
}

// BalanceResponse represents a student's credit position
type BalanceResponse struct {
	StudentID string          `json:"student_id"`
	Balance   decimal.Decimal `json:"balance"`
	History   []Entry         `json:"history,omitempty"`
}

// Verification is the outcome of replaying a ledger
type Verification struct {
	StudentID     string          `json:"student_id"`
	StoredBalance decimal.Decimal `json:"stored_balance"`
	Replayed      decimal.Decimal `json:"replayed_balance"`
	Entries       int             `json:"entries"`
	Consistent    bool            `json:"consistent"`
	Problem       string          `json:"problem,omitempty"`
}
