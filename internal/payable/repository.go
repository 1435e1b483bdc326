package payable

import (
	"errors"
	"sort"

	"github.com/shopspring/decimal"

	"github.com/fkhayef/schoolfinance/internal/charge"
	"github.com/fkhayef/schoolfinance/internal/period"
	"github.com/fkhayef/schoolfinance/internal/store"
)

// Repository handles payable persistence inside store transactions.
// Open payables live in the payables bucket; every payment is also appended to paid_payables,
// which is never rewritten.
type Repository struct {
	charges *charge.Repository
}

// NewRepository creates a new payable repository
func NewRepository(charges *charge.Repository) *Repository {
	return &Repository{charges: charges}
}

// Get loads a payable by id
func (r *Repository) Get(tx store.Tx, id string) (*Payable, error) {
	var p Payable
	err := store.GetJSON(tx, store.BucketPayables, id, &p)
	if errors.Is(err, store.ErrNotFound) {
		return nil, ErrPayableNotFound.For(id)
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// Save writes a payable
func (r *Repository) Save(tx store.Tx, p *Payable) error {
	return store.PutJSON(tx, store.BucketPayables, p.ID, p)
}

// Delete removes a payable from the open collection
func (r *Repository) Delete(tx store.Tx, id string) error {
	return tx.Delete(store.BucketPayables, id)
}

// AppendPaid records a payment in the append-only paid collection
func (r *Repository) AppendPaid(tx store.Tx, p *Payable) error {
	exists, err := store.Exists(tx, store.BucketPaidPayables, p.ID)
	if err != nil {
		return err
	}
	if exists {
		return ErrAlreadyPaid.For(p.ID)
	}
	return store.PutJSON(tx, store.BucketPaidPayables, p.ID, p)
}

// List returns the payables matching the filter, ordered by due date then id
func (r *Repository) List(tx store.Tx, filter Filter) ([]*Payable, error) {
	var payables []*Payable
	err := store.EachJSON(tx, store.BucketPayables, func(key string, p *Payable) error {
		if filter.Matches(p) {
			payables = append(payables, p)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.Slice(payables, func(i, j int) bool {
		if !payables[i].DueDate.Equal(payables[j].DueDate) {
			return payables[i].DueDate.Before(payables[j].DueDate)
		}
		return payables[i].ID < payables[j].ID
	})
	return payables, nil
}

// PaidIn returns the payments recorded in month
func (r *Repository) PaidIn(tx store.Tx, month period.Month) ([]*Payable, error) {
	var paid []*Payable
	err := store.EachJSON(tx, store.BucketPaidPayables, func(key string, p *Payable) error {
		if p.PaidAt != nil && month.Contains(*p.PaidAt) {
			paid = append(paid, p)
		}
		return nil
	})
	return paid, err
}

// Balance derives the school balance of month from paid charges and paid payables
func (r *Repository) Balance(tx store.Tx, month period.Month) (*SchoolBalance, error) {
	charges, err := r.charges.PaidIn(tx, month)
	if err != nil {
		return nil, err
	}
	payables, err := r.PaidIn(tx, month)
	if err != nil {
		return nil, err
	}

	receipts := decimal.Zero
	for _, c := range charges {
		receipts = receipts.Add(c.AmountPaid)
	}
	payments := decimal.Zero
	for _, p := range payables {
		payments = payments.Add(p.Amount)
	}

	return &SchoolBalance{
		Period:   month,
		Receipts: receipts,
		Payments: payments,
		Net:      receipts.Sub(payments),
	}, nil
}
