package audit

import "time"

// Action names a financial operation recorded in the audit trail
type Action string

const (
	ActionChargesGenerated Action = "CHARGES_GENERATED"
	ActionChargeCancelled  Action = "CHARGE_CANCELLED"
	ActionProofSubmitted   Action = "PAYMENT_PROOF_SUBMITTED"
	ActionPaymentApproved  Action = "PAYMENT_APPROVED"
	ActionPaymentRejected  Action = "PAYMENT_REJECTED"
	ActionChargeSettled    Action = "CHARGE_SETTLED"
	ActionCreditAdded      Action = "CREDIT_ADDED"
	ActionCreditConsumed   Action = "CREDIT_CONSUMED"
	ActionPayableCreated   Action = "PAYABLE_CREATED"
	ActionPayablePaid      Action = "PAYABLE_PAID"
	ActionMonthClosed      Action = "MONTH_CLOSED"
	ActionProfileSaved     Action = "FINANCIAL_PROFILE_SAVED"
)

// Details describes what an action touched
type Details struct {
	EntityID    string                 `json:"entity_id"`
	Description string                 `json:"description"`
	Changes     map[string]interface{} `json:"changes,omitempty"`
}

// Entry is one audit record
type Entry struct {
	ID          int64                  `json:"id,omitempty"`
	Action      Action                 `json:"action"`
	ActorID     string                 `json:"actor_id"`
	EntityID    string                 `json:"entity_id"`
	Description string                 `json:"description"`
	Changes     map[string]interface{} `json:"changes,omitempty"`
	CreatedAt   time.Time              `json:"created_at"`
}
