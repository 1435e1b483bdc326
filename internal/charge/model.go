package charge

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/fkhayef/schoolfinance/internal/money"
	"github.com/fkhayef/schoolfinance/internal/period"
)

// Kind is the type of obligation a charge represents
type Kind string

const (
	KindEnrollment Kind = "enrollment"
	KindMaterials  Kind = "materials"
	KindTuition    Kind = "tuition"
	KindOther      Kind = "other"
	// KindCredit charges fund the student's credit balance once paid
	KindCredit Kind = "credit"
)

// IsValid reports whether k is a known kind
func (k Kind) IsValid() bool {
	switch k {
	case KindEnrollment, KindMaterials, KindTuition, KindOther, KindCredit:
		return true
	}
	return false
}

// Status represents the payment status of a charge
type Status string

const (
	StatusPending     Status = "pending"
	StatusUnderReview Status = "under_review"
	StatusPaid        Status = "paid"
	StatusCancelled   Status = "cancelled"
)

var transitions = map[Status][]Status{
	StatusPending:     {StatusUnderReview, StatusPaid, StatusCancelled},
	StatusUnderReview: {StatusPaid, StatusPending, StatusCancelled},
}

// AllStatuses lists every status
var AllStatuses = []Status{StatusPending, StatusUnderReview, StatusPaid, StatusCancelled}

// IsValid reports whether s is a known status
func (s Status) IsValid() bool {
	switch s {
	case StatusPending, StatusUnderReview, StatusPaid, StatusCancelled:
		return true
	}
	return false
}

// IsTerminal reports whether no transition leaves s
func (s Status) IsTerminal() bool {
	return s == StatusPaid || s == StatusCancelled
}

// IsOpen reports whether the charge still awaits payment
func (s Status) IsOpen() bool {
	return s == StatusPending || s == StatusUnderReview
}

// CanTransitionTo reports whether the lifecycle allows moving from s to next
func (s Status) CanTransitionTo(next Status) bool {
	for _, allowed := range transitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// Charge is a financial obligation owed by a student.
// CurrentAmount = OriginalAmount × (1 − DiscountPercent/100) − CreditConsumed, never negative.
type Charge struct {
	ID              string          `json:"id"`
	StudentID       string          `json:"student_id"`
	Kind            Kind            `json:"kind"`
	Description     string          `json:"description"`
	OriginalAmount  decimal.Decimal `json:"original_amount"`
	CurrentAmount   decimal.Decimal `json:"current_amount"`
	DiscountPercent decimal.Decimal `json:"discount_percent"`
	CreditConsumed  decimal.Decimal `json:"credit_consumed"`
	DueDate         time.Time       `json:"due_date"`
	Competency      *period.Month   `json:"competency,omitempty"`
	Status          Status          `json:"status"`
	GeneratedAt     time.Time       `json:"generated_at"`
	GeneratedBy     string          `json:"generated_by"`

	// Proof review
	ProofRef        string     `json:"proof_ref,omitempty"`
	SubmittedAt     *time.Time `json:"submitted_at,omitempty"`
	ReviewedBy      string     `json:"reviewed_by,omitempty"`
	RejectionReason string     `json:"rejection_reason,omitempty"`

	// Settlement
	PaidAt        *time.Time      `json:"paid_at,omitempty"`
	PaymentMethod string          `json:"payment_method,omitempty"`
	AmountPaid    decimal.Decimal `json:"amount_paid"`
	SettledBy     string          `json:"settled_by,omitempty"`

	// Cancellation
	CancelReason string     `json:"cancel_reason,omitempty"`
	CancelledBy  string     `json:"cancelled_by,omitempty"`
	CancelledAt  *time.Time `json:"cancelled_at,omitempty"`

	UpdatedAt time.Time `json:"updated_at"`
}

// DiscountedAmount is the original amount after the discount, before any credit
func (c *Charge) DiscountedAmount() decimal.Decimal {
	return money.ApplyDiscount(c.OriginalAmount, c.DiscountPercent)
}

// ExpectedCurrentAmount derives the current amount from the other amount fields
func (c *Charge) ExpectedCurrentAmount() decimal.Decimal {
	return c.DiscountedAmount().Sub(c.CreditConsumed)
}

// Recompute refreshes CurrentAmount, refusing combinations that would make it negative
func (c *Charge) Recompute() error {
	current := c.ExpectedCurrentAmount()
	if current.IsNegative() {
		return ErrNegativeAmount.Withf("credit %s exceeds the discounted amount %s", c.CreditConsumed.StringFixed(2), c.DiscountedAmount().StringFixed(2)).For(c.ID)
	}
	c.CurrentAmount = current
	return nil
}

// TransitionTo moves the charge to next if the lifecycle allows it
func (c *Charge) TransitionTo(next Status, at time.Time) error {
	if !c.Status.CanTransitionTo(next) {
		return ErrInvalidTransition.Withf("cannot move charge from %s to %s", c.Status, next).For(c.ID)
	}
	c.Status = next
	c.UpdatedAt = at
	return nil
}

// Filter narrows charge listings
type Filter struct {
	StudentID string
	Status    Status
	Kind      Kind
	// DueIn restricts to charges due in that month
	DueIn *period.Month
}

// Matches reports whether c satisfies the filter
func (f Filter) Matches(c *Charge) bool {
	if f.StudentID != "" && c.StudentID != f.StudentID {
		return false
	}
	if f.Status != "" && c.Status != f.Status {
		return false
	}
	if f.Kind != "" && c.Kind != f.Kind {
		return false
	}
	if f.DueIn != nil && !f.DueIn.Contains(c.DueDate) {
		return false
	}
	return true
}
