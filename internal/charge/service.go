package charge

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/fkhayef/schoolfinance/internal/audit"
	"github.com/fkhayef/schoolfinance/internal/money"
	"github.com/fkhayef/schoolfinance/internal/period"
	"github.com/fkhayef/schoolfinance/internal/store"
	"github.com/fkhayef/schoolfinance/pkg/apperr"
)

// Common errors
var (
	ErrChargeNotFound          = apperr.New(apperr.KindNotFound, "CHARGE_NOT_FOUND", "charge not found")
	ErrInvalidTransition       = apperr.New(apperr.KindStateConflict, "INVALID_TRANSITION", "charge status does not allow this operation")
	ErrNegativeAmount          = apperr.New(apperr.KindValidation, "NEGATIVE_AMOUNT", "charge amount cannot become negative")
	ErrInvalidCompetencyWindow = apperr.New(apperr.KindValidation, "INVALID_COMPETENCY_WINDOW", "competency window requires start and end months with end not before start")
	ErrInvalidTuitionAmount    = apperr.New(apperr.KindValidation, "INVALID_TUITION_AMOUNT", "tuition amount must be positive")
	ErrInvalidDueDay           = apperr.New(apperr.KindValidation, "INVALID_DUE_DAY", "due day must be between 1 and 31")
	ErrInvalidFee              = apperr.New(apperr.KindValidation, "INVALID_FEE", "fees cannot be negative")
	ErrInvalidMonthCount       = apperr.New(apperr.KindValidation, "INVALID_MONTH_COUNT", "month count must be between 1 and 120")
	ErrInvalidKind             = apperr.New(apperr.KindValidation, "INVALID_KIND", "unknown charge kind")
	ErrInvalidAmount           = apperr.New(apperr.KindValidation, "INVALID_AMOUNT", "charge amount must be positive and in cents")
	ErrStudentRequired         = apperr.New(apperr.KindValidation, "STUDENT_REQUIRED", "student id is required")
	ErrDueDateRequired         = apperr.New(apperr.KindValidation, "DUE_DATE_REQUIRED", "due date is required")
)

// DefaultFeeDueDays is how long after generation one-off fees fall due
const DefaultFeeDueDays = 7

// Service generates and reads charges
type Service struct {
	store      store.Store
	repo       *Repository
	audit      *audit.Logger
	log        logrus.FieldLogger
	now        func() time.Time
	feeDueDays int
}

// NewService creates a new charge service
func NewService(st store.Store, repo *Repository, auditLog *audit.Logger, log logrus.FieldLogger, feeDueDays int) *Service {
	if feeDueDays <= 0 {
		feeDueDays = DefaultFeeDueDays
	}
	return &Service{
		store:      st,
		repo:       repo,
		audit:      auditLog,
		log:        log,
		now:        time.Now,
		feeDueDays: feeDueDays,
	}
}

// SetClock replaces the time source
func (s *Service) SetClock(now func() time.Time) {
	s.now = now
}

// GetCharge retrieves a charge by id
func (s *Service) GetCharge(ctx context.Context, id string) (*Charge, error) {
	var c *Charge
	err := s.store.View(ctx, func(tx store.Tx) error {
		var err error
		c, err = s.repo.Get(tx, id)
		return err
	})
	return c, err
}

// ListCharges returns the charges matching filter
func (s *Service) ListCharges(ctx context.Context, filter Filter) ([]*Charge, error) {
	var charges []*Charge
	err := s.store.View(ctx, func(tx store.Tx) error {
		var err error
		charges, err = s.repo.List(tx, filter)
		return err
	})
	return charges, err
}

// CreateCharge records a single manual charge, for instance a credit top-up or an extra fee
func (s *Service) CreateCharge(ctx context.Context, req *CreateChargeRequest, actorID string) (*Charge, error) {
	if strings.TrimSpace(req.StudentID) == "" {
		return nil, ErrStudentRequired
	}
	if !req.Kind.IsValid() {
		return nil, ErrInvalidKind.Withf("unknown charge kind %q", req.Kind)
	}
	if !req.Amount.IsPositive() || !money.IsCents(req.Amount) {
		return nil, ErrInvalidAmount
	}
	if err := money.ValidatePercent(req.DiscountPercent); err != nil {
		return nil, err
	}
	if req.DueDate.IsZero() {
		return nil, ErrDueDateRequired
	}

	now := s.now().UTC()
	c := s.newCharge(req.StudentID, req.Kind, req.Description, req.Amount, req.DiscountPercent, period.Date(req.DueDate), now, actorID)
	if err := c.Recompute(); err != nil {
		return nil, err
	}

	err := s.store.Update(ctx, func(tx store.Tx) error {
		return s.repo.Save(tx, c)
	})
	if err != nil {
		return nil, err
	}

	s.audit.LogAction(ctx, audit.ActionChargesGenerated, actorID, audit.Details{
		EntityID:    c.ID,
		Description: "manual charge created",
		Changes:     map[string]interface{}{"kind": c.Kind, "student_id": c.StudentID, "amount": c.CurrentAmount.StringFixed(2)},
	})

	return c, nil
}

func (s *Service) newCharge(studentID string, kind Kind, description string, amount, discount decimal.Decimal, due, now time.Time, actorID string) *Charge {
	return &Charge{
		ID:              uuid.NewString(),
		StudentID:       studentID,
		Kind:            kind,
		Description:     description,
		OriginalAmount:  money.Round(amount),
		DiscountPercent: discount,
		CreditConsumed:  decimal.Zero,
		DueDate:         due,
		Status:          StatusPending,
		GeneratedAt:     now,
		GeneratedBy:     actorID,
		AmountPaid:      decimal.Zero,
		UpdatedAt:       now,
	}
}
