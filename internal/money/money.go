// Package money holds the fixed-point currency helpers shared by the billing core.
// Amounts are shopspring decimals; persisted and reported amounts are rounded to cents.
package money

import (
	"strings"

	"github.com/shopspring/decimal"

	"github.com/fkhayef/schoolfinance/pkg/apperr"
)

// Places is the number of minor-unit digits kept for currency amounts
const Places = 2

var (
	ErrNotNumeric     = apperr.New(apperr.KindValidation, "NOT_NUMERIC", "amount is not a number")
	ErrInvalidPercent = apperr.New(apperr.KindValidation, "INVALID_PERCENT", "percentage must be between 0 and 100")
	hundred           = decimal.NewFromInt(100)
)

// Zero is the zero amount
var Zero = decimal.Zero

// Parse converts user input into an amount. Both "1234.5" and "1234,50" are accepted.
func Parse(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	if strings.Count(s, ",") == 1 && !strings.Contains(s, ".") {
		s = strings.Replace(s, ",", ".", 1)
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, ErrNotNumeric.Withf("amount %q is not a number", s)
	}
	return d, nil
}

// Round rounds an amount to cents
func Round(d decimal.Decimal) decimal.Decimal {
	return d.Round(Places)
}

// ValidatePercent checks that p is within [0, 100]
func ValidatePercent(p decimal.Decimal) error {
	if p.IsNegative() || p.GreaterThan(hundred) {
		return ErrInvalidPercent.Withf("percentage %s must be between 0 and 100", p.String())
	}
	return nil
}

// ApplyDiscount returns amount × (1 − percent/100), rounded to cents
func ApplyDiscount(amount, percent decimal.Decimal) decimal.Decimal {
	factor := decimal.NewFromInt(1).Sub(percent.Div(hundred))
	return Round(amount.Mul(factor))
}

// Percent converts a percentage such as 2 or 0.033 into a rate (0.02, 0.00033)
func Percent(p decimal.Decimal) decimal.Decimal {
	return p.Div(hundred)
}

// Sum adds amounts
func Sum(amounts ...decimal.Decimal) decimal.Decimal {
	total := decimal.Zero
	for _, a := range amounts {
		total = total.Add(a)
	}
	return total
}

// IsCents reports whether d has no more precision than the currency's minor unit
func IsCents(d decimal.Decimal) bool {
	return d.Equal(d.Round(Places))
}
