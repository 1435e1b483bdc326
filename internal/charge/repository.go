package charge

import (
	"errors"
	"sort"

	"github.com/fkhayef/schoolfinance/internal/period"
	"github.com/fkhayef/schoolfinance/internal/store"
)

// Repository handles charge persistence inside store transactions
type Repository struct{}

// NewRepository creates a new charge repository
func NewRepository() *Repository {
	return &Repository{}
}

// Get loads a charge by id
func (r *Repository) Get(tx store.Tx, id string) (*Charge, error) {
	var c Charge
	err := store.GetJSON(tx, store.BucketCharges, id, &c)
	if errors.Is(err, store.ErrNotFound) {
		return nil, ErrChargeNotFound.For(id)
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// Save writes a charge
func (r *Repository) Save(tx store.Tx, c *Charge) error {
	return store.PutJSON(tx, store.BucketCharges, c.ID, c)
}

// List returns the charges matching the filter, ordered by due date then id
func (r *Repository) List(tx store.Tx, filter Filter) ([]*Charge, error) {
	var charges []*Charge
	err := store.EachJSON(tx, store.BucketCharges, func(key string, c *Charge) error {
		if filter.Matches(c) {
			charges = append(charges, c)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.Slice(charges, func(i, j int) bool {
		if !charges[i].DueDate.Equal(charges[j].DueDate) {
			return charges[i].DueDate.Before(charges[j].DueDate)
		}
		return charges[i].ID < charges[j].ID
	})
	return charges, nil
}

// TuitionFor returns the student's non-cancelled tuition charges due in month
func (r *Repository) TuitionFor(tx store.Tx, studentID string, month period.Month) ([]*Charge, error) {
	all, err := r.List(tx, Filter{StudentID: studentID, Kind: KindTuition, DueIn: &month})
	if err != nil {
		return nil, err
	}

	active := all[:0]
	for _, c := range all {
		if c.Status != StatusCancelled {
			active = append(active, c)
		}
	}
	return active, nil
}

// PaidIn returns the charges whose payment was recorded in month
func (r *Repository) PaidIn(tx store.Tx, month period.Month) ([]*Charge, error) {
	var charges []*Charge
	err := store.EachJSON(tx, store.BucketCharges, func(key string, c *Charge) error {
		if c.Status == StatusPaid && c.PaidAt != nil && month.Contains(*c.PaidAt) {
			charges = append(charges, c)
		}
		return nil
	})
	return charges, err
}
