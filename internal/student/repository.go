package student

import (
	"errors"
	"sort"

	"github.com/fkhayef/schoolfinance/internal/store"
)

// Repository handles student persistence inside store transactions
type Repository struct{}

// NewRepository creates a new student repository
func NewRepository() *Repository {
	return &Repository{}
}

// Get loads a student by id
func (r *Repository) Get(tx store.Tx, id string) (*Student, error) {
	var s Student
	err := store.GetJSON(tx, store.BucketStudents, id, &s)
	if errors.Is(err, store.ErrNotFound) {
		return nil, ErrStudentNotFound.For(id)
	}
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// Save writes a student
func (r *Repository) Save(tx store.Tx, s *Student) error {
	return store.PutJSON(tx, store.BucketStudents, s.ID, s)
}

// List returns a page of students ordered by name, and the total count
func (r *Repository) List(tx store.Tx, limit, offset int) ([]*Student, int, error) {
	var all []*Student
	err := store.EachJSON(tx, store.BucketStudents, func(key string, s *Student) error {
		all = append(all, s)
		return nil
	})
	if err != nil {
		return nil, 0, err
	}

	sort.Slice(all, func(i, j int) bool {
		if all[i].Name != all[j].Name {
			return all[i].Name < all[j].Name
		}
		return all[i].ID < all[j].ID
	})

	total := len(all)
	if offset >= total {
		return []*Student{}, total, nil
	}
	end := offset + limit
	if end > total {
		end = total
	}
	return all[offset:end], total, nil
}
