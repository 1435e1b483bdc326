package closing

import (
	"errors"
	"sort"

	"github.com/fkhayef/schoolfinance/internal/period"
	"github.com/fkhayef/schoolfinance/internal/store"
)

// Repository handles closure records and the migration archive
type Repository struct{}

// NewRepository creates a new closing repository
func NewRepository() *Repository {
	return &Repository{}
}

// Get loads the closure of a period
func (r *Repository) Get(tx store.Tx, month period.Month) (*Closure, error) {
	var c Closure
	err := store.GetJSON(tx, store.BucketClosures, month.String(), &c)
	if errors.Is(err, store.ErrNotFound) {
		return nil, ErrClosureNotFound.For(month.String())
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// Exists reports whether the period is closed
func (r *Repository) Exists(tx store.Tx, month period.Month) (bool, error) {
	return store.Exists(tx, store.BucketClosures, month.String())
}

// Create writes the closure record, refusing to overwrite one
func (r *Repository) Create(tx store.Tx, c *Closure) error {
	exists, err := r.Exists(tx, c.Period)
	if err != nil {
		return err
	}
	if exists {
		return ErrAlreadyClosed.For(c.Period.String())
	}
	return store.PutJSON(tx, store.BucketClosures, c.Period.String(), c)
}

// List returns every closure in period order
func (r *Repository) List(tx store.Tx) ([]*Closure, error) {
	var closures []*Closure
	err := store.EachJSON(tx, store.BucketClosures, func(key string, c *Closure) error {
		closures = append(closures, c)
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Slice(closures, func(i, j int) bool {
		return closures[i].Period.Before(closures[j].Period)
	})
	return closures, nil
}

// Archive stores the original of a migrated payable
func (r *Repository) Archive(tx store.Tx, m *Migration) error {
	return store.PutJSON(tx, store.BucketMigratedPayables, m.Payable.ID, m)
}

// Migration loads the archive entry of a payable, or nil when it was never migrated
func (r *Repository) Migration(tx store.Tx, payableID string) (*Migration, error) {
	var m Migration
	err := store.GetJSON(tx, store.BucketMigratedPayables, payableID, &m)
	if errors.Is(err, store.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &m, nil
}

// MigratedIn returns the ids of the payables migrated out of month, sorted
func (r *Repository) MigratedIn(tx store.Tx, month period.Month) ([]string, error) {
	ids := []string{}
	err := store.EachJSON(tx, store.BucketMigratedPayables, func(key string, m *Migration) error {
		if m.Period == month {
			ids = append(ids, m.Payable.ID)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Strings(ids)
	return ids, nil
}
