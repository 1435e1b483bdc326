package student

import (
	"time"

	"github.com/fkhayef/schoolfinance/internal/charge"
)

// Student represents a student with the billing terms agreed at enrollment
type Student struct {
	ID           string                   `json:"id"`
	Name         string                   `json:"name"`
	GuardianName string                   `json:"guardian_name,omitempty"`
	Email        string                   `json:"email,omitempty"`
	ClassName    string                   `json:"class_name,omitempty"`
	Profile      *charge.FinancialProfile `json:"profile,omitempty"`
	EnrolledAt   *time.Time               `json:"enrolled_at,omitempty"`
	CreatedAt    time.Time                `json:"created_at"`
	UpdatedAt    time.Time                `json:"updated_at"`
}
