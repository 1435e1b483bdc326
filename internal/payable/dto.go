package payable

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/fkhayef/schoolfinance/internal/payable/recurrence"
)

// CreatePayableRequest represents the registration of a school obligation
type CreatePayableRequest struct {
	Description    string          `json:"description" validate:"required,min=1,max=255"`
	Category       string          `json:"category" validate:"required,max=100"`
	Supplier       string          `json:"supplier" validate:"max=255"`
	Amount         decimal.Decimal `json:"amount" validate:"gt=0"`
	DueDate        *time.Time      `json:"due_date,omitempty"`
	Recurring      bool            `json:"recurring"`
	RecurrenceKind recurrence.Kind `json:"recurrence_kind,omitempty" validate:"omitempty,oneof=monthly quarterly yearly"`
	// Occurrences is how many future payables to materialize; 0 means the maximum (12)
	Occurrences   int        `json:"occurrences,omitempty" validate:"gte=0,lte=12"`
	RecurrenceEnd *time.Time `json:"recurrence_end,omitempty"`
	AlreadyPaid   bool       `json:"already_paid"`
	PaidDate      *time.Time `json:"paid_date,omitempty"`
	PaymentMethod string     `json:"payment_method,omitempty" validate:"max=50"`
	Notes         string     `json:"notes,omitempty" validate:"max=1000"`
}

// PayRequest represents the payment of a payable
type PayRequest struct {
	Method               string     `json:"method" validate:"required,max=50"`
	PaidAt               *time.Time `json:"paid_at,omitempty"`
	AllowNegativeBalance bool       `json:"allow_negative_balance"`
}

// CreatePayableResponse lists the template and the occurrences it spawned
type CreatePayableResponse struct {
	Payable     *Payable   `json:"payable"`
	Occurrences []*Payable `json:"occurrences"`
}

// ListResponse wraps a payable listing with its total
type ListResponse struct {
	Payables []*Payable      `json:"payables"`
	Total    decimal.Decimal `json:"total"`
}

// NewListResponse sums the listed payables
func NewListResponse(payables []*Payable) *ListResponse {
	if payables == nil {
		payables = []*Payable{}
	}
	total := decimal.Zero
	for _, p := range payables {
		total = total.Add(p.Amount)
	}
	return &ListResponse{Payables: payables, Total: total}
}
