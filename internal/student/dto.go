package student

import (
	"github.com/shopspring/decimal"

	"github.com/fkhayef/schoolfinance/internal/charge"
	"github.com/fkhayef/schoolfinance/internal/period"
)

// CreateStudentRequest represents the request body for registering a student
type CreateStudentRequest struct {
	Name         string `json:"name" validate:"required,min=2,max=120"`
	GuardianName string `json:"guardian_name" validate:"max=120"`
	Email        string `json:"email" validate:"omitempty,email"`
	ClassName    string `json:"class_name" validate:"max=50"`
}

// UpdateStudentRequest represents the request body for updating a student
type UpdateStudentRequest struct {
	Name         *string `json:"name,omitempty" validate:"omitempty,min=2,max=120"`
	GuardianName *string `json:"guardian_name,omitempty" validate:"omitempty,max=120"`
	Email        *string `json:"email,omitempty" validate:"omitempty,email"`
	ClassName    *string `json:"class_name,omitempty" validate:"omitempty,max=50"`
}

// ProfileRequest represents the billing terms of a student
type ProfileRequest struct {
	TuitionAmount   decimal.Decimal `json:"tuition_amount" validate:"gt=0"`
	DueDay          int             `json:"due_day" validate:"required,min=1,max=31"`
	DiscountPercent decimal.Decimal `json:"discount_percent" validate:"gte=0,lte=100"`
	EnrollmentFee   decimal.Decimal `json:"enrollment_fee" validate:"gte=0"`
	MaterialsFee    decimal.Decimal `json:"materials_fee" validate:"gte=0"`
	StartMonth      *period.Month   `json:"start_month,omitempty"`
	EndMonth        *period.Month   `json:"end_month,omitempty"`
}

// ToProfile converts the request into a financial profile
func (r *ProfileRequest) ToProfile() *charge.FinancialProfile {
	return &charge.FinancialProfile{
		TuitionAmount:   r.TuitionAmount,
		DueDay:          r.DueDay,
		DiscountPercent: r.DiscountPercent,
		EnrollmentFee:   r.EnrollmentFee,
		MaterialsFee:    r.MaterialsFee,
		StartMonth:      r.StartMonth,
		EndMonth:        r.EndMonth,
	}
}

// GenerateTuitionRequest represents a request for recurring tuition charges
type GenerateTuitionRequest struct {
	MonthCount        int  `json:"month_count" validate:"required,min=1,max=120"`
	StartMonth        int  `json:"start_month" validate:"required,min=1,max=12"`
	StartYear         int  `json:"start_year" validate:"required,min=2000,max=2100"`
	OverwriteExisting bool `json:"overwrite_existing"`
}

// EnrollResponse lists the charges created by an enrollment
type EnrollResponse struct {
	Student *Student         `json:"student"`
	Charges []*charge.Charge `json:"charges"`
}
