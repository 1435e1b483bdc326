package payment

import (
	"context"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/fkhayef/schoolfinance/internal/audit"
	"github.com/fkhayef/schoolfinance/internal/charge"
	"github.com/fkhayef/schoolfinance/internal/credit"
	"github.com/fkhayef/schoolfinance/internal/money"
	"github.com/fkhayef/schoolfinance/internal/store"
	"github.com/fkhayef/schoolfinance/pkg/apperr"
)

// Common errors
var (
	ErrAlreadyPaid         = apperr.New(apperr.KindStateConflict, "ALREADY_PAID", "charge is already paid")
	ErrCannotCancelPaid    = apperr.New(apperr.KindStateConflict, "CANNOT_CANCEL_PAID", "a paid charge cannot be cancelled")
	ErrInsufficientPayment = apperr.New(apperr.KindValidation, "INSUFFICIENT_PAYMENT", "amount paid does not cover the charge")
	ErrReasonRequired      = apperr.New(apperr.KindValidation, "REASON_REQUIRED", "a reason is required")
	ErrProofRequired       = apperr.New(apperr.KindValidation, "PROOF_REQUIRED", "a proof reference is required")
	ErrMethodRequired      = apperr.New(apperr.KindValidation, "METHOD_REQUIRED", "a payment method is required")
	ErrInvalidAmount       = apperr.New(apperr.KindValidation, "INVALID_AMOUNT", "amount must be non-negative and in cents")
	ErrCreditNotAllowed    = apperr.New(apperr.KindValidation, "CREDIT_NOT_ALLOWED", "credit cannot be applied to a credit charge")
)

// Service drives the charge payment lifecycle
type Service struct {
	store   store.Store
	charges *charge.Repository
	credits *credit.Service
	policy  Policy
	audit   *audit.Logger
	log     logrus.FieldLogger
	now     func() time.Time
}

// NewService creates a new payment service
func NewService(st store.Store, charges *charge.Repository, credits *credit.Service, policy Policy, auditLog *audit.Logger, log logrus.FieldLogger) *Service {
	return &Service{
		store:   st,
		charges: charges,
		credits: credits,
		policy:  policy,
		audit:   auditLog,
		log:     log,
		now:     time.Now,
	}
}

// SetClock replaces the time source
func (s *Service) SetClock(now func() time.Time) {
	s.now = now
}

// Policy returns the late-fee policy in effect
func (s *Service) Policy() Policy {
	return s.policy
}

// LateFeeFor computes the late fee of a stored charge
func (s *Service) LateFeeFor(ctx context.Context, chargeID string, asOf time.Time) (*LateFee, error) {
	var fee LateFee
	err := s.store.View(ctx, func(tx store.Tx) error {
		c, err := s.charges.Get(tx, chargeID)
		if err != nil {
			return err
		}
		fee = ComputeLateFee(c, asOf, s.policy)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &fee, nil
}

// mutate loads a charge, applies fn and saves it, all in one transaction.
// The status guards inside fn are what keeps concurrent callers from both succeeding.
func (s *Service) mutate(ctx context.Context, chargeID string, fn func(tx store.Tx, c *charge.Charge, now time.Time) error) (*charge.Charge, error) {
	var out *charge.Charge
	err := s.store.Update(ctx, func(tx store.Tx) error {
		c, err := s.charges.Get(tx, chargeID)
		if err != nil {
			return err
		}
		if err := fn(tx, c, s.now().UTC()); err != nil {
			return err
		}
		if err := s.charges.Save(tx, c); err != nil {
			return err
		}
		out = c
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// SubmitProof moves a pending charge under review
func (s *Service) SubmitProof(ctx context.Context, chargeID, proofRef, actorID string) (*charge.Charge, error) {
	if strings.TrimSpace(proofRef) == "" {
		return nil, ErrProofRequired.For(chargeID)
	}

	c, err := s.mutate(ctx, chargeID, func(tx store.Tx, c *charge.Charge, now time.Time) error {
		if c.Status != charge.StatusPending {
			return charge.ErrInvalidTransition.Withf("proof can only be submitted for a pending charge, status is %s", c.Status).For(c.ID)
		}
		if err := c.TransitionTo(charge.StatusUnderReview, now); err != nil {
			return err
		}
		c.ProofRef = proofRef
		c.SubmittedAt = &now
		c.RejectionReason = ""
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.audit.LogAction(ctx, audit.ActionProofSubmitted, actorID, audit.Details{
		EntityID:    c.ID,
		Description: "payment proof submitted",
		Changes:     map[string]interface{}{"proof_ref": proofRef},
	})
	return c, nil
}

// ApprovePayment marks a charge under review as paid. A credit charge funds the
// student's credit balance in the same transaction.
func (s *Service) ApprovePayment(ctx context.Context, chargeID string, req *ApproveRequest, approverID string) (*charge.Charge, error) {
	if req == nil {
		req = &ApproveRequest{}
	}
	c, err := s.mutate(ctx, chargeID, func(tx store.Tx, c *charge.Charge, now time.Time) error {
		if c.Status != charge.StatusUnderReview {
			return charge.ErrInvalidTransition.Withf("only a charge under review can be approved, status is %s", c.Status).For(c.ID)
		}
		if err := c.TransitionTo(charge.StatusPaid, now); err != nil {
			return err
		}
		c.PaidAt = &now
		c.AmountPaid = c.CurrentAmount
		c.PaymentMethod = req.Method
		c.ReviewedBy = approverID
		c.SettledBy = approverID
		return s.fundCredit(tx, c, approverID)
	})
	if err != nil {
		return nil, err
	}

	s.audit.LogAction(ctx, audit.ActionPaymentApproved, approverID, audit.Details{
		EntityID:    c.ID,
		Description: "payment approved",
		Changes:     map[string]interface{}{"amount_paid": c.AmountPaid.StringFixed(2), "kind": c.Kind},
	})
	return c, nil
}

// RejectPayment sends a charge under review back to pending
func (s *Service) RejectPayment(ctx context.Context, chargeID, reason, rejecterID string) (*charge.Charge, error) {
	c, err := s.mutate(ctx, chargeID, func(tx store.Tx, c *charge.Charge, now time.Time) error {
		if c.Status != charge.StatusUnderReview {
			return charge.ErrInvalidTransition.Withf("only a charge under review can be rejected, status is %s", c.Status).For(c.ID)
		}
		if err := c.TransitionTo(charge.StatusPending, now); err != nil {
			return err
		}
		c.ReviewedBy = rejecterID
		c.RejectionReason = reason
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.audit.LogAction(ctx, audit.ActionPaymentRejected, rejecterID, audit.Details{
		EntityID:    c.ID,
		Description: "payment rejected",
		Changes:     map[string]interface{}{"reason": reason, "proof_ref": c.ProofRef},
	})
	return c, nil
}

// SettleDirectly records a payment taken by staff. Credit is consumed and the charge is paid in
// one transaction, so a short payment leaves both the charge and the ledger untouched.
func (s *Service) SettleDirectly(ctx context.Context, chargeID string, req *SettleRequest, actorID string) (*charge.Charge, error) {
	if strings.TrimSpace(req.Method) == "" {
		return nil, ErrMethodRequired.For(chargeID)
	}
	if req.AmountPaid.IsNegative() || !money.IsCents(req.AmountPaid) {
		return nil, ErrInvalidAmount.For(chargeID)
	}
	if req.CreditToApply.IsNegative() || !money.IsCents(req.CreditToApply) {
		return nil, ErrInvalidAmount.Withf("credit to apply must be non-negative and in cents").For(chargeID)
	}
	if req.DiscountPercent != nil {
		if err := money.ValidatePercent(*req.DiscountPercent); err != nil {
			return nil, err
		}
	}

	c, err := s.mutate(ctx, chargeID, func(tx store.Tx, c *charge.Charge, now time.Time) error {
		if c.Status == charge.StatusPaid {
			return ErrAlreadyPaid.For(c.ID)
		}
		if c.Status != charge.StatusPending {
			return charge.ErrInvalidTransition.Withf("only a pending charge can be settled directly, status is %s", c.Status).For(c.ID)
		}

		if req.DiscountPercent != nil {
			c.DiscountPercent = *req.DiscountPercent
		}
		if req.CreditToApply.IsPositive() {
			if c.Kind == charge.KindCredit {
				return ErrCreditNotAllowed.For(c.ID)
			}
			c.CreditConsumed = c.CreditConsumed.Add(req.CreditToApply)
		}
		if err := c.Recompute(); err != nil {
			return err
		}
		if req.CreditToApply.IsPositive() {
			if _, err := s.credits.Consume(tx, c.StudentID, req.CreditToApply, "applied to charge "+c.Description, c.ID, actorID); err != nil {
				return err
			}
		}

		if req.AmountPaid.LessThan(c.CurrentAmount) {
			return ErrInsufficientPayment.Withf("amount paid %s is less than the remaining %s", req.AmountPaid.StringFixed(2), c.CurrentAmount.StringFixed(2)).For(c.ID)
		}

		if err := c.TransitionTo(charge.StatusPaid, now); err != nil {
			return err
		}
		c.PaidAt = &now
		c.AmountPaid = req.AmountPaid
		c.PaymentMethod = req.Method
		c.SettledBy = actorID
		return s.fundCredit(tx, c, actorID)
	})
	if err != nil {
		return nil, err
	}

	s.audit.LogAction(ctx, audit.ActionChargeSettled, actorID, audit.Details{
		EntityID:    c.ID,
		Description: "charge settled directly",
		Changes: map[string]interface{}{
			"amount_paid":      c.AmountPaid.StringFixed(2),
			"method":           c.PaymentMethod,
			"credit_applied":   req.CreditToApply.StringFixed(2),
			"discount_percent": c.DiscountPercent.String(),
		},
	})
	return c, nil
}

// Cancel cancels an open charge
func (s *Service) Cancel(ctx context.Context, chargeID, reason, actorID string) (*charge.Charge, error) {
	if strings.TrimSpace(reason) == "" {
		return nil, ErrReasonRequired.For(chargeID)
	}

	c, err := s.mutate(ctx, chargeID, func(tx store.Tx, c *charge.Charge, now time.Time) error {
		if c.Status == charge.StatusPaid {
			return ErrCannotCancelPaid.For(c.ID)
		}
		if err := c.TransitionTo(charge.StatusCancelled, now); err != nil {
			return err
		}
		c.CancelReason = reason
		c.CancelledBy = actorID
		c.CancelledAt = &now
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.audit.LogAction(ctx, audit.ActionChargeCancelled, actorID, audit.Details{
		EntityID:    c.ID,
		Description: "charge cancelled",
		Changes:     map[string]interface{}{"reason": reason},
	})
	return c, nil
}

func (s *Service) fundCredit(tx store.Tx, c *charge.Charge, actorID string) error {
	if c.Kind != charge.KindCredit || !c.CurrentAmount.IsPositive() {
		return nil
	}
	_, err := s.credits.Add(tx, c.StudentID, c.CurrentAmount, "credit charge paid: "+c.Description, c.ID, actorID)
	return err
}

// OutstandingFor lists a student's open charges with what each would cost at asOf
func (s *Service) OutstandingFor(ctx context.Context, studentID string, asOf time.Time) (*Statement, error) {
	stmt := &Statement{StudentID: studentID, AsOf: asOf, Items: []LateFee{}, Total: decimal.Zero}
	err := s.store.View(ctx, func(tx store.Tx) error {
		charges, err := s.charges.List(tx, charge.Filter{StudentID: studentID})
		if err != nil {
			return err
		}
		for _, c := range charges {
			if !c.Status.IsOpen() {
				continue
			}
			fee := ComputeLateFee(c, asOf, s.policy)
			stmt.Items = append(stmt.Items, fee)
			stmt.Total = stmt.Total.Add(fee.Total)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return stmt, nil
}
