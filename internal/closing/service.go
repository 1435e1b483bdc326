package closing

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/fkhayef/schoolfinance/internal/audit"
	"github.com/fkhayef/schoolfinance/internal/payable"
	"github.com/fkhayef/schoolfinance/internal/period"
	"github.com/fkhayef/schoolfinance/internal/store"
	"github.com/fkhayef/schoolfinance/pkg/apperr"
)

// Common errors
var (
	ErrAlreadyClosed     = apperr.New(apperr.KindStateConflict, "ALREADY_CLOSED", "period is already closed")
	ErrClosureNotFound   = apperr.New(apperr.KindNotFound, "CLOSURE_NOT_FOUND", "period is not closed")
	ErrClosingIncomplete = apperr.New(apperr.KindStateConflict, "CLOSING_INCOMPLETE", "some payables could not be migrated; the period stays open")
	ErrFuturePeriod      = apperr.New(apperr.KindValidation, "FUTURE_PERIOD", "a period that has not started cannot be closed")
	ErrActorRequired     = apperr.New(apperr.KindValidation, "ACTOR_REQUIRED", "closing requires an actor")
)

// Service runs the monthly closing
type Service struct {
	store    store.Store
	repo     *Repository
	payables *payable.Repository
	audit    *audit.Logger
	log      logrus.FieldLogger
	now      func() time.Time
}

// NewService creates a new closing service
func NewService(st store.Store, repo *Repository, payables *payable.Repository, auditLog *audit.Logger, log logrus.FieldLogger) *Service {
	return &Service{
		store:    st,
		repo:     repo,
		payables: payables,
		audit:    auditLog,
		log:      log,
		now:      time.Now,
	}
}

// SetClock replaces the time source
func (s *Service) SetClock(now func() time.Time) {
	s.now = now
}

// CloseMonth migrates the pending payables due in month to the following month and then writes
// the closure record. Each payable migrates in its own transaction and is skipped once migrated,
// so a run interrupted before the closure record is written can simply be repeated. The closure
// record is written only when every payable migrated.
func (s *Service) CloseMonth(ctx context.Context, month period.Month, actorID string) (*Result, error) {
	if actorID == "" {
		return nil, ErrActorRequired
	}
	if month.Start().After(s.now().UTC()) {
		return nil, ErrFuturePeriod.For(month.String())
	}

	var pending []*payable.Payable
	err := s.store.View(ctx, func(tx store.Tx) error {
		closed, err := s.repo.Exists(tx, month)
		if err != nil {
			return err
		}
		if closed {
			return ErrAlreadyClosed.For(month.String())
		}
		pending, err = s.payables.List(tx, payable.Filter{Status: payable.StatusPending, DueIn: &month})
		return err
	})
	if err != nil {
		return nil, err
	}

	result := &Result{Failed: []apperr.ItemFailure{}}
	for _, p := range pending {
		if err := ctx.Err(); err != nil {
			return result, err
		}

		migrated, err := s.migrate(ctx, month, p.ID, actorID)
		if err != nil {
			s.log.WithFields(logrus.Fields{
				"module":  "closing",
				"period":  month.String(),
				"payable": p.ID,
			}).WithError(err).Warn("payable migration failed")
			result.Failed = append(result.Failed, apperr.NewItemFailure(p.ID, err))
			continue
		}
		if migrated {
			result.Migrated++
		}
	}

	if len(result.Failed) > 0 {
		return result, ErrClosingIncomplete.Withf("%d of %d payables could not be migrated; the period stays open", len(result.Failed), len(pending)).For(month.String())
	}

	closure := &Closure{
		Period:   month,
		ClosedAt: s.now().UTC(),
		ClosedBy: actorID,
	}
	err = s.store.Update(ctx, func(tx store.Tx) error {
		ids, err := s.repo.MigratedIn(tx, month)
		if err != nil {
			return err
		}
		balance, err := s.payables.Balance(tx, month)
		if err != nil {
			return err
		}
		closure.MigratedPayableIDs = ids
		closure.Balance = balance
		return s.repo.Create(tx, closure)
	})
	if err != nil {
		return result, err
	}

	result.Closure = closure
	result.Resumed = len(closure.MigratedPayableIDs) - result.Migrated

	s.audit.LogAction(ctx, audit.ActionMonthClosed, actorID, audit.Details{
		EntityID:    month.String(),
		Description: "month closed",
		Changes: map[string]interface{}{
			"migrated":    len(closure.MigratedPayableIDs),
			"resumed":     result.Resumed,
			"net_balance": closure.Balance.Net.StringFixed(2),
			"payable_ids": closure.MigratedPayableIDs,
		},
	})

	return result, nil
}

// migrate moves one payable to the next month. It reports false when there was nothing to do.
func (s *Service) migrate(ctx context.Context, month period.Month, payableID, actorID string) (bool, error) {
	migrated := false
	err := s.store.Update(ctx, func(tx store.Tx) error {
		p, err := s.payables.Get(tx, payableID)
		if errors.Is(err, payable.ErrPayableNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		if p.IsPaid() || !month.Contains(p.DueDate) {
			return nil
		}

		archived, err := s.repo.Migration(tx, p.ID)
		if err != nil {
			return err
		}
		successorID, err := s.successorOf(tx, p.ID)
		if err != nil {
			return err
		}
		if archived != nil && successorID == "" {
			successorID = archived.MigratedTo
		}

		now := s.now().UTC()
		if successorID == "" {
			successor := *p
			successor.ID = uuid.NewString()
			successor.DueDate = period.AddMonthsClamped(p.DueDate, 1)
			successor.MigratedFrom = p.ID
			successor.CreatedAt = now
			successor.CreatedBy = actorID
			successor.UpdatedAt = now
			if err := s.payables.Save(tx, &successor); err != nil {
				return err
			}
			successorID = successor.ID
		}

		if archived == nil {
			if err := s.repo.Archive(tx, &Migration{Payable: p, MigratedTo: successorID, Period: month, MigratedAt: now}); err != nil {
				return err
			}
		}
		if err := s.payables.Delete(tx, p.ID); err != nil {
			return err
		}
		migrated = true
		return nil
	})
	return migrated, err
}

// successorOf finds a payable carrying a backlink to id
func (s *Service) successorOf(tx store.Tx, id string) (string, error) {
	successors, err := s.payables.List(tx, payable.Filter{})
	if err != nil {
		return "", err
	}
	for _, p := range successors {
		if p.MigratedFrom == id {
			return p.ID, nil
		}
	}
	return "", nil
}

// IsMonthClosed reports whether a closure record exists for month
func (s *Service) IsMonthClosed(ctx context.Context, month period.Month) (bool, error) {
	var closed bool
	err := s.store.View(ctx, func(tx store.Tx) error {
		var err error
		closed, err = s.repo.Exists(tx, month)
		return err
	})
	return closed, err
}

// GetClosure returns the closure record of month
func (s *Service) GetClosure(ctx context.Context, month period.Month) (*Closure, error) {
	var c *Closure
	err := s.store.View(ctx, func(tx store.Tx) error {
		var err error
		c, err = s.repo.Get(tx, month)
		return err
	})
	return c, err
}

// ListClosures returns every closure record
func (s *Service) ListClosures(ctx context.Context) ([]*Closure, error) {
	var closures []*Closure
	err := s.store.View(ctx, func(tx store.Tx) error {
		var err error
		closures, err = s.repo.List(tx)
		return err
	})
	if closures == nil {
		closures = []*Closure{}
	}
	return closures, err
}
