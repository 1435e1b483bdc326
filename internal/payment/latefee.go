package payment

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/fkhayef/schoolfinance/internal/charge"
	"github.com/fkhayef/schoolfinance/internal/money"
	"github.com/fkhayef/schoolfinance/internal/period"
)

// Policy holds the late-payment rates as fractions (0.02 for 2%)
type Policy struct {
	PenaltyRate       decimal.Decimal `json:"penalty_rate"`
	DailyInterestRate decimal.Decimal `json:"daily_interest_rate"`
}

// PolicyFromPercent builds a policy from percentages such as 2 and 0.033
func PolicyFromPercent(penaltyPercent, dailyInterestPercent decimal.Decimal) Policy {
	return Policy{
		PenaltyRate:       money.Percent(penaltyPercent),
		DailyInterestRate: money.Percent(dailyInterestPercent),
	}
}

// DefaultPolicy is 2% penalty plus 0.033% interest per day
var DefaultPolicy = PolicyFromPercent(decimal.NewFromInt(2), decimal.RequireFromString("0.033"))

// LateFee is the amount owed on a charge at a given date.
// Penalty and Interest keep full precision; Total is rounded to cents.
type LateFee struct {
	ChargeID string          `json:"charge_id,omitempty"`
	AsOf     time.Time       `json:"as_of"`
	DaysLate int             `json:"days_late"`
	Base     decimal.Decimal `json:"base"`
	Penalty  decimal.Decimal `json:"penalty"`
	Interest decimal.Decimal `json:"interest"`
	Total    decimal.Decimal `json:"total"`
}

// ComputeLateFee returns what the charge costs if paid at asOf. It depends only on its arguments.
func ComputeLateFee(c *charge.Charge, asOf time.Time, policy Policy) LateFee {
	fee := LateFee{
		ChargeID: c.ID,
		AsOf:     period.Date(asOf),
		Base:     c.CurrentAmount,
		Penalty:  decimal.Zero,
		Interest: decimal.Zero,
		Total:    c.CurrentAmount,
	}

	days := period.DaysBetween(c.DueDate, asOf)
	if days <= 0 {
		return fee
	}

	fee.DaysLate = days
	fee.Penalty = c.CurrentAmount.Mul(policy.PenaltyRate)
	fee.Interest = c.CurrentAmount.Mul(policy.DailyInterestRate).Mul(decimal.NewFromInt(int64(days)))
	fee.Total = money.Round(money.Sum(c.CurrentAmount, fee.Penalty, fee.Interest))
	return fee
}
