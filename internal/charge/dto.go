package charge

import (
	"time"

	"github.com/shopspring/decimal"
)

// CreateChargeRequest represents a manual charge
type CreateChargeRequest struct {
	StudentID       string          `json:"student_id" validate:"required"`
	Kind            Kind            `json:"kind" validate:"required,oneof=enrollment materials tuition other credit"`
	Description     string          `json:"description" validate:"required,max=255"`
	Amount          decimal.Decimal `json:"amount" validate:"gt=0"`
	DiscountPercent decimal.Decimal `json:"discount_percent" validate:"gte=0,lte=100"`
	DueDate         time.Time       `json:"due_date" validate:"required"`
}

// ListResponse wraps a charge listing with its totals
type ListResponse struct {
	Charges []*Charge       `json:"charges"`
	Total   decimal.Decimal `json:"total"`
}

// NewListResponse sums the current amount of the listed charges
func NewListResponse(charges []*Charge) *ListResponse {
	if charges == nil {
		charges = []*Charge{}
	}
	total := decimal.Zero
	for _, c := range charges {
		total = total.Add(c.CurrentAmount)
	}
	return &ListResponse{Charges: charges, Total: total}
}
