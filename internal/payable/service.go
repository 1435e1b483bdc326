package payable

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/fkhayef/schoolfinance/internal/audit"
	"github.com/fkhayef/schoolfinance/internal/money"
	"github.com/fkhayef/schoolfinance/internal/payable/recurrence"
	"github.com/fkhayef/schoolfinance/internal/period"
	"github.com/fkhayef/schoolfinance/internal/store"
	"github.com/fkhayef/schoolfinance/pkg/apperr"
)

// Common errors
var (
	ErrPayableNotFound           = apperr.New(apperr.KindNotFound, "PAYABLE_NOT_FOUND", "payable not found")
	ErrAlreadyPaid               = apperr.New(apperr.KindStateConflict, "ALREADY_PAID", "payable is already paid")
	ErrInsufficientSchoolBalance = apperr.New(apperr.KindInsufficientFunds, "INSUFFICIENT_SCHOOL_BALANCE", "school balance does not cover the payment")
	ErrInvalidAmount             = apperr.New(apperr.KindValidation, "INVALID_AMOUNT", "payable amount must be positive and in cents")
	ErrDescriptionRequired       = apperr.New(apperr.KindValidation, "DESCRIPTION_REQUIRED", "description is required")
	ErrDueDateRequired           = apperr.New(apperr.KindValidation, "DUE_DATE_REQUIRED", "due date is required")
	ErrPaidDetailsRequired       = apperr.New(apperr.KindValidation, "PAID_DETAILS_REQUIRED", "paid date and payment method are required for an already paid payable")
	ErrMethodRequired            = apperr.New(apperr.KindValidation, "METHOD_REQUIRED", "a payment method is required")
)

// Service manages school accounts payable
type Service struct {
	store   store.Store
	repo    *Repository
	factory *recurrence.Factory
	audit   *audit.Logger
	log     logrus.FieldLogger
	now     func() time.Time
}

// NewService creates a new payable service
func NewService(st store.Store, repo *Repository, auditLog *audit.Logger, log logrus.FieldLogger) *Service {
	return &Service{
		store:   st,
		repo:    repo,
		factory: recurrence.NewFactory(),
		audit:   auditLog,
		log:     log,
		now:     time.Now,
	}
}

// SetClock replaces the time source
func (s *Service) SetClock(now func() time.Time) {
	s.now = now
}

// CreatePayable registers a payable. A recurring payable also materializes its future
// occurrences, each an independent pending payable linked to the first through ParentPayableID.
func (s *Service) CreatePayable(ctx context.Context, req *CreatePayableRequest, createdBy string) (*CreatePayableResponse, error) {
	if strings.TrimSpace(req.Description) == "" {
		return nil, ErrDescriptionRequired
	}
	if !req.Amount.IsPositive() || !money.IsCents(req.Amount) {
		return nil, ErrInvalidAmount
	}

	var due time.Time
	switch {
	case req.AlreadyPaid:
		if req.PaidDate == nil || strings.TrimSpace(req.PaymentMethod) == "" {
			return nil, ErrPaidDetailsRequired
		}
		due = *req.PaidDate
		if req.DueDate != nil {
			due = *req.DueDate
		}
	case req.DueDate == nil:
		return nil, ErrDueDateRequired
	default:
		due = *req.DueDate
	}
	due = period.Date(due)

	var strategy recurrence.Strategy
	if req.Recurring {
		var err error
		if strategy, err = s.factory.Create(req.RecurrenceKind); err != nil {
			return nil, err
		}
	}

	now := s.now().UTC()
	template := &Payable{
		ID:          uuid.NewString(),
		Description: req.Description,
		Category:    req.Category,
		Supplier:    req.Supplier,
		Amount:      req.Amount,
		DueDate:     due,
		Status:      StatusPending,
		Recurring:   req.Recurring,
		Notes:       req.Notes,
		CreatedAt:   now,
		CreatedBy:   createdBy,
		UpdatedAt:   now,
	}
	if req.AlreadyPaid {
		paidAt := req.PaidDate.UTC()
		template.Status = StatusPaid
		template.PaidAt = &paidAt
		template.PaymentMethod = req.PaymentMethod
		template.PaidBy = createdBy
	}

	occurrences := []*Payable{}
	if strategy != nil {
		template.RecurrenceKind = strategy.Kind()
		count := req.Occurrences
		if count == 0 {
			count = recurrence.MaxOccurrences
		}
		for _, date := range strategy.Occurrences(due, count, req.RecurrenceEnd) {
			occurrences = append(occurrences, &Payable{
				ID:              uuid.NewString(),
				Description:     req.Description,
				Category:        req.Category,
				Supplier:        req.Supplier,
				Amount:          req.Amount,
				DueDate:         date,
				Status:          StatusPending,
				Recurring:       true,
				RecurrenceKind:  strategy.Kind(),
				ParentPayableID: template.ID,
				Notes:           req.Notes,
				CreatedAt:       now,
				CreatedBy:       createdBy,
				UpdatedAt:       now,
			})
		}
	}

	err := s.store.Update(ctx, func(tx store.Tx) error {
		if err := s.repo.Save(tx, template); err != nil {
			return err
		}
		if template.IsPaid() {
			if err := s.repo.AppendPaid(tx, template); err != nil {
				return err
			}
		}
		for _, p := range occurrences {
			if err := s.repo.Save(tx, p); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.audit.LogAction(ctx, audit.ActionPayableCreated, createdBy, audit.Details{
		EntityID:    template.ID,
		Description: req.Description,
		Changes: map[string]interface{}{
			"amount":       req.Amount.StringFixed(2),
			"due_date":     due.Format("2006-01-02"),
			"occurrences":  len(occurrences),
			"already_paid": req.AlreadyPaid,
		},
	})

	return &CreatePayableResponse{Payable: template, Occurrences: occurrences}, nil
}

// PayPayable pays a pending payable. The school balance of the payment month is recomputed in
// the same transaction and must cover the amount unless allowNegativeBalance is set.
func (s *Service) PayPayable(ctx context.Context, id string, req *PayRequest, actorID string) (*Payable, error) {
	if strings.TrimSpace(req.Method) == "" {
		return nil, ErrMethodRequired.For(id)
	}

	var (
		paid    *Payable
		balance *SchoolBalance
	)
	err := s.store.Update(ctx, func(tx store.Tx) error {
		p, err := s.repo.Get(tx, id)
		if err != nil {
			return err
		}
		if p.IsPaid() {
			return ErrAlreadyPaid.For(p.ID)
		}

		now := s.now().UTC()
		paidAt := now
		if req.PaidAt != nil {
			paidAt = req.PaidAt.UTC()
		}

		balance, err = s.repo.Balance(tx, period.Of(paidAt))
		if err != nil {
			return err
		}
		if balance.Net.LessThan(p.Amount) && !req.AllowNegativeBalance {
			return ErrInsufficientSchoolBalance.Withf("school balance %s does not cover %s", balance.Net.StringFixed(2), p.Amount.StringFixed(2)).For(p.ID)
		}

		p.Status = StatusPaid
		p.PaidAt = &paidAt
		p.PaymentMethod = req.Method
		p.PaidBy = actorID
		p.UpdatedAt = now
		if err := s.repo.Save(tx, p); err != nil {
			return err
		}
		if err := s.repo.AppendPaid(tx, p); err != nil {
			return err
		}
		paid = p
		return nil
	})
	if err != nil {
		return nil, err
	}

	if balance.Net.LessThan(paid.Amount) {
		s.log.WithFields(logrus.Fields{
			"module":  "payable",
			"payable": paid.ID,
			"balance": balance.Net.StringFixed(2),
			"amount":  paid.Amount.StringFixed(2),
			"actor":   actorID,
		}).Warn("payable paid with insufficient school balance")
	}

	s.audit.LogAction(ctx, audit.ActionPayablePaid, actorID, audit.Details{
		EntityID:    paid.ID,
		Description: paid.Description,
		Changes: map[string]interface{}{
			"amount":         paid.Amount.StringFixed(2),
			"method":         paid.PaymentMethod,
			"balance_before": balance.Net.StringFixed(2),
			"override":       req.AllowNegativeBalance,
		},
	})
	return paid, nil
}

// GetSchoolBalance derives the school balance of month from the paid records
func (s *Service) GetSchoolBalance(ctx context.Context, month period.Month) (*SchoolBalance, error) {
	var balance *SchoolBalance
	err := s.store.View(ctx, func(tx store.Tx) error {
		var err error
		balance, err = s.repo.Balance(tx, month)
		return err
	})
	return balance, err
}

// GetPayable retrieves a payable by id
func (s *Service) GetPayable(ctx context.Context, id string) (*Payable, error) {
	var p *Payable
	err := s.store.View(ctx, func(tx store.Tx) error {
		var err error
		p, err = s.repo.Get(tx, id)
		return err
	})
	return p, err
}

// ListPayables returns the payables matching filter
func (s *Service) ListPayables(ctx context.Context, filter Filter) ([]*Payable, error) {
	var payables []*Payable
	err := s.store.View(ctx, func(tx store.Tx) error {
		var err error
		payables, err = s.repo.List(tx, filter)
		return err
	})
	return payables, err
}

// ListPaid returns the payments recorded in month
func (s *Service) ListPaid(ctx context.Context, month period.Month) ([]*Payable, error) {
	var paid []*Payable
	err := s.store.View(ctx, func(tx store.Tx) error {
		var err error
		paid, err = s.repo.PaidIn(tx, month)
		return err
	})
	return paid, err
}
