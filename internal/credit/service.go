package credit

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/fkhayef/schoolfinance/internal/audit"
	"github.com/fkhayef/schoolfinance/internal/money"
	"github.com/fkhayef/schoolfinance/internal/store"
	"github.com/fkhayef/schoolfinance/pkg/apperr"
)

// Common errors
var (
	ErrInvalidAmount      = apperr.New(apperr.KindValidation, "INVALID_AMOUNT", "credit amount must be positive and in cents")
	ErrInsufficientCredit = apperr.New(apperr.KindInsufficientFunds, "INSUFFICIENT_CREDIT", "insufficient credit balance")
	ErrStudentRequired    = apperr.New(apperr.KindValidation, "STUDENT_REQUIRED", "student id is required")
	ErrLedgerMismatch     = apperr.New(apperr.KindInternal, "LEDGER_MISMATCH", "credit ledger does not reconcile")
)

// Service maintains the per-student credit ledger
type Service struct {
	store store.Store
	repo  *Repository
	audit *audit.Logger
	log   logrus.FieldLogger
	now   func() time.Time
}

// NewService creates a new credit service
func NewService(st store.Store, repo *Repository, auditLog *audit.Logger, log logrus.FieldLogger) *Service {
	return &Service{
		store: st,
		repo:  repo,
		audit: auditLog,
		log:   log,
		now:   time.Now,
	}
}

// SetClock replaces the time source
func (s *Service) SetClock(now func() time.Time) {
	s.now = now
}

// Add appends an addition entry inside an open transaction
func (s *Service) Add(tx store.Tx, studentID string, amount decimal.Decimal, reason, relatedChargeID, actorID string) (*Entry, error) {
	return s.append(tx, EntryTypeAddition, studentID, amount, reason, relatedChargeID, actorID)
}

// Consume appends a consumption entry inside an open transaction
func (s *Service) Consume(tx store.Tx, studentID string, amount decimal.Decimal, reason, relatedChargeID, actorID string) (*Entry, error) {
	return s.append(tx, EntryTypeConsumption, studentID, amount, reason, relatedChargeID, actorID)
}

func (s *Service) append(tx store.Tx, typ EntryType, studentID string, amount decimal.Decimal, reason, relatedChargeID, actorID string) (*Entry, error) {
	if studentID == "" {
		return nil, ErrStudentRequired
	}
	if !amount.IsPositive() || !money.IsCents(amount) {
		return nil, ErrInvalidAmount.For(studentID)
	}

	acct, err := s.repo.Load(tx, studentID)
	if err != nil {
		return nil, err
	}

	// Refuse to build on a ledger that no longer reconciles
	if err := acct.Verify(); err != nil {
		return nil, err
	}

	after := acct.Balance.Add(amount)
	if typ == EntryTypeConsumption {
		if amount.GreaterThan(acct.Balance) {
			return nil, ErrInsufficientCredit.Withf("insufficient credit: balance %s, requested %s", acct.Balance.StringFixed(2), amount.StringFixed(2)).For(studentID)
		}
		after = acct.Balance.Sub(amount)
	}

	now := s.now().UTC()
	entry := Entry{
		ID:              uuid.NewString(),
		StudentID:       studentID,
		Type:            typ,
		Amount:          amount,
		BalanceBefore:   acct.Balance,
		BalanceAfter:    after,
		RelatedChargeID: relatedChargeID,
		Reason:          reason,
		ActorID:         actorID,
		CreatedAt:       now,
	}
	acct.Entries = append(acct.Entries, entry)
	acct.Balance = after
	acct.UpdatedAt = now

	if err := acct.Verify(); err != nil {
		return nil, err
	}
	if err := s.repo.Save(tx, acct); err != nil {
		return nil, err
	}

	return &entry, nil
}

// AddCredit adds credit to a student's balance and returns the new balance
func (s *Service) AddCredit(ctx context.Context, studentID string, amount decimal.Decimal, reason, actorID string) (decimal.Decimal, error) {
	var entry *Entry
	err := s.store.Update(ctx, func(tx store.Tx) error {
		var err error
		entry, err = s.Add(tx, studentID, amount, reason, "", actorID)
		return err
	})
	if err != nil {
		return decimal.Zero, err
	}

	s.audit.LogAction(ctx, audit.ActionCreditAdded, actorID, audit.Details{
		EntityID:    studentID,
		Description: reason,
		Changes:     map[string]interface{}{"amount": entry.Amount.StringFixed(2), "balance": entry.BalanceAfter.StringFixed(2)},
	})

	return entry.BalanceAfter, nil
}

// ConsumeCredit spends credit against a charge and returns the new balance
func (s *Service) ConsumeCredit(ctx context.Context, studentID string, amount decimal.Decimal, relatedChargeID, reason, actorID string) (decimal.Decimal, error) {
	var entry *Entry
	err := s.store.Update(ctx, func(tx store.Tx) error {
		var err error
		entry, err = s.Consume(tx, studentID, amount, reason, relatedChargeID, actorID)
		return err
	})
	if err != nil {
		return decimal.Zero, err
	}

	s.audit.LogAction(ctx, audit.ActionCreditConsumed, actorID, audit.Details{
		EntityID:    studentID,
		Description: reason,
		Changes: map[string]interface{}{
			"amount":    entry.Amount.StringFixed(2),
			"balance":   entry.BalanceAfter.StringFixed(2),
			"charge_id": relatedChargeID,
		},
	})

	return entry.BalanceAfter, nil
}

// GetBalance returns the student's current credit balance
func (s *Service) GetBalance(ctx context.Context, studentID string) (decimal.Decimal, error) {
	var balance decimal.Decimal
	err := s.store.View(ctx, func(tx store.Tx) error {
		acct, err := s.repo.Load(tx, studentID)
		if err != nil {
			return err
		}
		balance = acct.Balance
		return nil
	})
	return balance, err
}

// GetHistory returns the student's ledger entries, newest first
func (s *Service) GetHistory(ctx context.Context, studentID string) ([]Entry, error) {
	var history []Entry
	err := s.store.View(ctx, func(tx store.Tx) error {
		acct, err := s.repo.Load(tx, studentID)
		if err != nil {
			return err
		}
		history = make([]Entry, len(acct.Entries))
		for i, e := range acct.Entries {
			history[len(acct.Entries)-1-i] = e
		}
		return nil
	})
	return history, err
}

// Verify replays the student's ledger and reports whether it reproduces the stored balance
func (s *Service) Verify(ctx context.Context, studentID string) (*Verification, error) {
	var v *Verification
	err := s.store.View(ctx, func(tx store.Tx) error {
		acct, err := s.repo.Load(tx, studentID)
		if err != nil {
			return err
		}

		replayed, replayErr := Replay(acct.Entries)
		v = &Verification{
			StudentID:     studentID,
			StoredBalance: acct.Balance,
			Replayed:      replayed,
			Entries:       len(acct.Entries),
			Consistent:    replayErr == nil && replayed.Equal(acct.Balance),
		}
		if replayErr != nil {
			v.Problem = replayErr.Error()
			s.log.WithFields(logrus.Fields{
				"module":  "credit",
				"student": studentID,
			}).WithError(replayErr).Error("credit ledger failed replay")
		}
		return nil
	})
	return v, err
}
