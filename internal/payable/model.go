package payable

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/fkhayef/schoolfinance/internal/payable/recurrence"
	"github.com/fkhayef/schoolfinance/internal/period"
)

// Status represents the payment status of a payable
type Status string

const (
	StatusPending Status = "pending"
	StatusPaid    Status = "paid"
)

// Payable is a school obligation such as rent, utilities or payroll
type Payable struct {
	ID              string          `json:"id"`
	Description     string          `json:"description"`
	Category        string          `json:"category"`
	Supplier        string          `json:"supplier,omitempty"`
	Amount          decimal.Decimal `json:"amount"`
	DueDate         time.Time       `json:"due_date"`
	Status          Status          `json:"status"`
	Recurring       bool            `json:"recurring"`
	RecurrenceKind  recurrence.Kind `json:"recurrence_kind,omitempty"`
	ParentPayableID string          `json:"parent_payable_id,omitempty"`
	// MigratedFrom links a payable carried over by a monthly closing to the one it replaces
	MigratedFrom  string     `json:"migrated_from,omitempty"`
	PaidAt        *time.Time `json:"paid_at,omitempty"`
	PaymentMethod string     `json:"payment_method,omitempty"`
	PaidBy        string     `json:"paid_by,omitempty"`
	Notes         string     `json:"notes,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
	CreatedBy     string     `json:"created_by"`
	UpdatedAt     time.Time  `json:"updated_at"`
}

// IsPaid reports whether the payable has been paid
func (p *Payable) IsPaid() bool {
	return p.Status == StatusPaid
}

// Filter narrows payable listings
type Filter struct {
	Status Status
	// DueIn restricts to payables due in that month
	DueIn *period.Month
}

// Matches reports whether p satisfies the filter
func (f Filter) Matches(p *Payable) bool {
	if f.Status != "" && p.Status != f.Status {
		return false
	}
	if f.DueIn != nil && !f.DueIn.Contains(p.DueDate) {
		return false
	}
	return true
}

// SchoolBalance is the cash position of a month, always derived from paid records
type SchoolBalance struct {
	Period   period.Month    `json:"period"`
	Receipts decimal.Decimal `json:"receipts"`
	Payments decimal.Decimal `json:"payments"`
	Net      decimal.Decimal `json:"net"`
}
