package closing

import (
	"time"

	"github.com/fkhayef/schoolfinance/internal/payable"
	"github.com/fkhayef/schoolfinance/internal/period"
	"github.com/fkhayef/schoolfinance/pkg/apperr"
)

// Closure marks a period as closed. At most one exists per period.
type Closure struct {
	Period             period.Month           `json:"period"`
	ClosedAt           time.Time              `json:"closed_at"`
	ClosedBy           string                 `json:"closed_by"`
	MigratedPayableIDs []string               `json:"migrated_payable_ids"`
	Balance            *payable.SchoolBalance `json:"balance,omitempty"`
}

// Migration archives a payable removed from the pending set by a closing, with the id of the
// payable that replaces it in the next period
type Migration struct {
	Payable    *payable.Payable `json:"payable"`
	MigratedTo string           `json:"migrated_to"`
	Period     period.Month     `json:"period"`
	MigratedAt time.Time        `json:"migrated_at"`
}

// Result reports a closing run
type Result struct {
	Closure  *Closure             `json:"closure,omitempty"`
	Migrated int                  `json:"migrated"`
	Resumed  int                  `json:"resumed"`
	Failed   []apperr.ItemFailure `json:"failed"`
}
