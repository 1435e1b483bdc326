package credit

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/fkhayef/schoolfinance/pkg/apperr"
)

// EntryType is the direction of a ledger movement
type EntryType string

const (
	EntryTypeAddition    EntryType = "addition"
	EntryTypeConsumption EntryType = "consumption"
)

// Entry is one append-only movement of a student's credit balance
type Entry struct {
	ID              string          `json:"id"`
	StudentID       string          `json:"student_id"`
	Type            EntryType       `json:"type"`
	Amount          decimal.Decimal `json:"amount"`
	BalanceBefore   decimal.Decimal `json:"balance_before"`
	BalanceAfter    decimal.Decimal `json:"balance_after"`
	RelatedChargeID string          `json:"related_charge_id,omitempty"`
	Reason          string          `json:"reason"`
	ActorID         string          `json:"actor_id"`
	CreatedAt       time.Time       `json:"created_at"`
}

// Account is the stored ledger of one student: entries oldest first plus the current balance
type Account struct {
	StudentID string          `json:"student_id"`
	Balance   decimal.Decimal `json:"balance"`
	Entries   []Entry         `json:"entries"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// Replay recomputes a balance from an empty ledger, checking that every entry chains onto
// the previous one
func Replay(entries []Entry) (decimal.Decimal, error) {
	balance := decimal.Zero
	for i, e := range entries {
		if !e.BalanceBefore.Equal(balance) {
			return balance, ErrLedgerMismatch.Withf("entry %d (%s) starts at %s, expected %s", i, e.ID, e.BalanceBefore, balance)
		}
		if !e.Amount.IsPositive() {
			return balance, ErrLedgerMismatch.Withf("entry %d (%s) has non-positive amount %s", i, e.ID, e.Amount)
		}

		var after decimal.Decimal
		switch e.Type {
		case EntryTypeAddition:
			after = balance.Add(e.Amount)
		case EntryTypeConsumption:
			after = balance.Sub(e.Amount)
		default:
			return balance, ErrLedgerMismatch.Withf("entry %d (%s) has unknown type %q", i, e.ID, e.Type)
		}

		if after.IsNegative() {
			return balance, ErrLedgerMismatch.Withf("entry %d (%s) drives the balance negative", i, e.ID)
		}
		if !e.BalanceAfter.Equal(after) {
			return balance, ErrLedgerMismatch.Withf("entry %d (%s) ends at %s, expected %s", i, e.ID, e.BalanceAfter, after)
		}
		balance = after
	}
	return balance, nil
}

// Verify checks that replaying the entries reproduces the stored balance
func (a *Account) Verify() error {
	replayed, err := Replay(a.Entries)
	if err != nil {
		if e, ok := apperr.As(err); ok {
			return e.For(a.StudentID)
		}
		return err
	}
	if !replayed.Equal(a.Balance) {
		return ErrLedgerMismatch.Withf("stored balance %s, replayed %s", a.Balance, replayed).For(a.StudentID)
	}
	return nil
}
