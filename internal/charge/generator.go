package charge

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/fkhayef/schoolfinance/internal/audit"
	"github.com/fkhayef/schoolfinance/internal/money"
	"github.com/fkhayef/schoolfinance/internal/period"
	"github.com/fkhayef/schoolfinance/internal/store"
	"github.com/fkhayef/schoolfinance/pkg/apperr"
)

const maxRecurringMonths = 120

// FinancialProfile holds the billing terms agreed for a student
type FinancialProfile struct {
	TuitionAmount   decimal.Decimal `json:"tuition_amount"`
	DueDay          int             `json:"due_day"`
	DiscountPercent decimal.Decimal `json:"discount_percent"`
	EnrollmentFee   decimal.Decimal `json:"enrollment_fee"`
	MaterialsFee    decimal.Decimal `json:"materials_fee"`
	StartMonth      *period.Month   `json:"start_month,omitempty"`
	EndMonth        *period.Month   `json:"end_month,omitempty"`
}

// ValidateTerms checks the amounts and due day, ignoring the competency window
func (p *FinancialProfile) ValidateTerms() error {
	if !p.TuitionAmount.IsPositive() {
		return ErrInvalidTuitionAmount
	}
	if p.DueDay < 1 || p.DueDay > 31 {
		return ErrInvalidDueDay.Withf("due day %d must be between 1 and 31", p.DueDay)
	}
	if err := money.ValidatePercent(p.DiscountPercent); err != nil {
		return err
	}
	if p.EnrollmentFee.IsNegative() || p.MaterialsFee.IsNegative() {
		return ErrInvalidFee
	}
	return nil
}

// Validate checks the terms and the competency window
func (p *FinancialProfile) Validate() error {
	if err := p.ValidateTerms(); err != nil {
		return err
	}
	if p.StartMonth == nil || p.EndMonth == nil || p.EndMonth.Before(*p.StartMonth) {
		return ErrInvalidCompetencyWindow
	}
	return nil
}

// TuitionDue is the tuition after the profile discount
func (p *FinancialProfile) TuitionDue() decimal.Decimal {
	return money.ApplyDiscount(p.TuitionAmount, p.DiscountPercent)
}

// RecurringOptions controls GenerateRecurringTuition
type RecurringOptions struct {
	MonthCount        int  `json:"month_count"`
	StartMonth        int  `json:"start_month"`
	StartYear         int  `json:"start_year"`
	OverwriteExisting bool `json:"overwrite_existing"`
}

// BatchResult reports the outcome of a batch generation per month
type BatchResult struct {
	Created   []*Charge            `json:"created"`
	Skipped   []string             `json:"skipped"`
	Cancelled []string             `json:"cancelled"`
	Failed    []apperr.ItemFailure `json:"failed"`
}

// GenerateEnrollmentCharges creates the enrollment fee, the materials fee and one tuition charge
// per month of the competency window. All charges are written in one transaction.
func (s *Service) GenerateEnrollmentCharges(ctx context.Context, studentID string, profile *FinancialProfile, actorID string) ([]*Charge, error) {
	var charges []*Charge
	err := s.store.Update(ctx, func(tx store.Tx) error {
		var err error
		charges, err = s.EnrollmentCharges(tx, studentID, profile, actorID)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.audit.LogAction(ctx, audit.ActionChargesGenerated, actorID, audit.Details{
		EntityID:    studentID,
		Description: "enrollment charges generated",
		Changes: map[string]interface{}{
			"count":  len(charges),
			"window": fmt.Sprintf("%s..%s", profile.StartMonth, profile.EndMonth),
		},
	})

	return charges, nil
}

// EnrollmentCharges builds and saves the enrollment charges inside an open transaction
func (s *Service) EnrollmentCharges(tx store.Tx, studentID string, profile *FinancialProfile, actorID string) ([]*Charge, error) {
	if studentID == "" {
		return nil, ErrStudentRequired
	}
	if profile == nil {
		return nil, ErrInvalidCompetencyWindow
	}
	if err := profile.Validate(); err != nil {
		return nil, err
	}

	now := s.now().UTC()
	feeDue := period.Date(now).AddDate(0, 0, s.feeDueDays)

	var charges []*Charge
	if profile.EnrollmentFee.IsPositive() {
		charges = append(charges, s.newCharge(studentID, KindEnrollment, "Enrollment fee", profile.EnrollmentFee, decimal.Zero, feeDue, now, actorID))
	}
	if profile.MaterialsFee.IsPositive() {
		charges = append(charges, s.newCharge(studentID, KindMaterials, "Materials fee", profile.MaterialsFee, decimal.Zero, feeDue, now, actorID))
	}
	for m := *profile.StartMonth; !profile.EndMonth.Before(m); m = m.Next() {
		charges = append(charges, s.newTuition(studentID, profile, m, now, actorID))
	}

	for _, c := range charges {
		if err := c.Recompute(); err != nil {
			return nil, err
		}
		if err := s.repo.Save(tx, c); err != nil {
			return nil, err
		}
	}
	return charges, nil
}

// GenerateRecurringTuition creates MonthCount monthly tuition charges starting at the given month.
// A month that already holds a tuition charge for the student is skipped unless OverwriteExisting
// is set, in which case its open charges are cancelled and replaced. Paid months are never replaced.
// Each month commits on its own; failures are reported per month.
func (s *Service) GenerateRecurringTuition(ctx context.Context, studentID string, profile *FinancialProfile, opts RecurringOptions, actorID string) (*BatchResult, error) {
	if studentID == "" {
		return nil, ErrStudentRequired
	}
	if profile == nil {
		return nil, ErrInvalidTuitionAmount
	}
	if err := profile.ValidateTerms(); err != nil {
		return nil, err
	}
	if opts.MonthCount < 1 || opts.MonthCount > maxRecurringMonths {
		return nil, ErrInvalidMonthCount.Withf("month count %d must be between 1 and %d", opts.MonthCount, maxRecurringMonths)
	}
	start, err := period.NewMonth(opts.StartYear, opts.StartMonth)
	if err != nil {
		return nil, err
	}

	result := &BatchResult{
		Created:   []*Charge{},
		Skipped:   []string{},
		Cancelled: []string{},
		Failed:    []apperr.ItemFailure{},
	}

	for i := 0; i < opts.MonthCount; i++ {
		month := start.AddMonths(i)
		if err := ctx.Err(); err != nil {
			return result, err
		}

		var (
			created   *Charge
			cancelled []string
			skipped   bool
		)
		err := s.store.Update(ctx, func(tx store.Tx) error {
			created, cancelled, skipped = nil, nil, false

			existing, err := s.repo.TuitionFor(tx, studentID, month)
			if err != nil {
				return err
			}
			if len(existing) > 0 {
				if !opts.OverwriteExisting || anyPaid(existing) {
					skipped = true
					return nil
				}
				now := s.now().UTC()
				for _, old := range existing {
					if err := old.TransitionTo(StatusCancelled, now); err != nil {
						return err
					}
					old.CancelReason = fmt.Sprintf("superseded by regenerated tuition for %s", month)
					old.CancelledBy = actorID
					old.CancelledAt = &now
					if err := s.repo.Save(tx, old); err != nil {
						return err
					}
					cancelled = append(cancelled, old.ID)
				}
			}

			c := s.newTuition(studentID, profile, month, s.now().UTC(), actorID)
			if err := c.Recompute(); err != nil {
				return err
			}
			if err := s.repo.Save(tx, c); err != nil {
				return err
			}
			created = c
			return nil
		})

		switch {
		case err != nil:
			s.log.WithFields(logrus.Fields{
				"module":  "charge",
				"student": studentID,
				"month":   month.String(),
			}).WithError(err).Warn("recurring tuition month failed")
			result.Failed = append(result.Failed, apperr.NewItemFailure(month.String(), err))
		case skipped:
			result.Skipped = append(result.Skipped, month.String())
		default:
			result.Created = append(result.Created, created)
			result.Cancelled = append(result.Cancelled, cancelled...)
		}
	}

	s.audit.LogAction(ctx, audit.ActionChargesGenerated, actorID, audit.Details{
		EntityID:    studentID,
		Description: "recurring tuition generated",
		Changes: map[string]interface{}{
			"created":   len(result.Created),
			"skipped":   len(result.Skipped),
			"cancelled": len(result.Cancelled),
			"failed":    len(result.Failed),
		},
	})

	return result, nil
}

func (s *Service) newTuition(studentID string, profile *FinancialProfile, month period.Month, now time.Time, actorID string) *Charge {
	c := s.newCharge(studentID, KindTuition, fmt.Sprintf("Tuition %s", month), profile.TuitionAmount, profile.DiscountPercent, month.Day(profile.DueDay), now, actorID)
	m := month
	c.Competency = &m
	return c
}

func anyPaid(charges []*Charge) bool {
	for _, c := range charges {
		if c.Status == StatusPaid {
			return true
		}
	}
	return false
}
