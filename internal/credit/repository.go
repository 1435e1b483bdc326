package credit

import (
	"errors"

	"github.com/fkhayef/schoolfinance/internal/store"
)

// Repository reads and writes credit accounts inside store transactions
type Repository struct{}

// NewRepository creates a new credit repository
func NewRepository() *Repository {
	return &Repository{}
}

// Load returns the student's account, or an empty one when the student has no ledger yet
func (r *Repository) Load(tx store.Tx, studentID string) (*Account, error) {
	var acct Account
	err := store.GetJSON(tx, store.BucketCreditLedger, studentID, &acct)
	if errors.Is(err, store.ErrNotFound) {
		return &Account{StudentID: studentID, Entries: []Entry{}}, nil
	}
	if err != nil {
		return nil, err
	}
	return &acct, nil
}

// Save writes the account back
func (r *Repository) Save(tx store.Tx, acct *Account) error {
	return store.PutJSON(tx, store.BucketCreditLedger, acct.StudentID, acct)
}
