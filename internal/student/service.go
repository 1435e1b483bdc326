package student

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/fkhayef/schoolfinance/internal/audit"
	"github.com/fkhayef/schoolfinance/internal/charge"
	"github.com/fkhayef/schoolfinance/internal/store"
	"github.com/fkhayef/schoolfinance/pkg/apperr"
)

// Common errors
var (
	ErrStudentNotFound = apperr.New(apperr.KindNotFound, "STUDENT_NOT_FOUND", "student not found")
	ErrProfileRequired = apperr.New(apperr.KindValidation, "PROFILE_REQUIRED", "student has no financial profile")
	ErrAlreadyEnrolled = apperr.New(apperr.KindStateConflict, "ALREADY_ENROLLED", "student is already enrolled")
	ErrProfileLocked   = apperr.New(apperr.KindStateConflict, "PROFILE_LOCKED", "the competency window cannot change after enrollment")
	ErrNameRequired    = apperr.New(apperr.KindValidation, "NAME_REQUIRED", "student name is required")
)

// Service handles student registration and the billing actions driven by a student's profile
type Service struct {
	store   store.Store
	repo    *Repository
	charges *charge.Service
	audit   *audit.Logger
	log     logrus.FieldLogger
	now     func() time.Time
}

// NewService creates a new student service
func NewService(st store.Store, repo *Repository, charges *charge.Service, auditLog *audit.Logger, log logrus.FieldLogger) *Service {
	return &Service{
		store:   st,
		repo:    repo,
		charges: charges,
		audit:   auditLog,
		log:     log,
		now:     time.Now,
	}
}

// SetClock replaces the time source
func (s *Service) SetClock(now func() time.Time) {
	s.now = now
}

// Create registers a new student
func (s *Service) Create(ctx context.Context, req *CreateStudentRequest) (*Student, error) {
	if req.Name == "" {
		return nil, ErrNameRequired
	}

	now := s.now().UTC()
	st := &Student{
		ID:           uuid.NewString(),
		Name:         req.Name,
		GuardianName: req.GuardianName,
		Email:        req.Email,
		ClassName:    req.ClassName,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	err := s.store.Update(ctx, func(tx store.Tx) error {
		return s.repo.Save(tx, st)
	})
	if err != nil {
		return nil, err
	}
	return st, nil
}

// GetByID retrieves a student by id
func (s *Service) GetByID(ctx context.Context, id string) (*Student, error) {
	var st *Student
	err := s.store.View(ctx, func(tx store.Tx) error {
		var err error
		st, err = s.repo.Get(tx, id)
		return err
	})
	return st, err
}

// List retrieves students with pagination
func (s *Service) List(ctx context.Context, page, perPage int) ([]*Student, int, error) {
	if page < 1 {
		page = 1
	}
	if perPage < 1 || perPage > 100 {
		perPage = 20
	}

	var (
		students []*Student
		total    int
	)
	err := s.store.View(ctx, func(tx store.Tx) error {
		var err error
		students, total, err = s.repo.List(tx, perPage, (page-1)*perPage)
		return err
	})
	return students, total, err
}

// Update modifies an existing student
func (s *Service) Update(ctx context.Context, id string, req *UpdateStudentRequest) (*Student, error) {
	var st *Student
	err := s.store.Update(ctx, func(tx store.Tx) error {
		var err error
		st, err = s.repo.Get(tx, id)
		if err != nil {
			return err
		}
		if req.Name != nil {
			if *req.Name == "" {
				return ErrNameRequired
			}
			st.Name = *req.Name
		}
		if req.GuardianName != nil {
			st.GuardianName = *req.GuardianName
		}
		if req.Email != nil {
			st.Email = *req.Email
		}
		if req.ClassName != nil {
			st.ClassName = *req.ClassName
		}
		st.UpdatedAt = s.now().UTC()
		return s.repo.Save(tx, st)
	})
	if err != nil {
		return nil, err
	}
	return st, nil
}

// GetProfile returns the student's billing terms
func (s *Service) GetProfile(ctx context.Context, id string) (*charge.FinancialProfile, error) {
	st, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if st.Profile == nil {
		return nil, ErrProfileRequired.For(id)
	}
	return st.Profile, nil
}

// SaveProfile validates and stores a student's billing terms. Once enrolled, the
// competency window is fixed; amounts may still change for future generations.
func (s *Service) SaveProfile(ctx context.Context, id string, profile *charge.FinancialProfile, actorID string) (*Student, error) {
	if profile == nil {
		return nil, ErrProfileRequired.For(id)
	}
	if err := profile.Validate(); err != nil {
		return nil, err
	}

	var st *Student
	err := s.store.Update(ctx, func(tx store.Tx) error {
		var err error
		st, err = s.repo.Get(tx, id)
		if err != nil {
			return err
		}
		if st.EnrolledAt != nil && st.Profile != nil && !sameWindow(st.Profile, profile) {
			return ErrProfileLocked.For(id)
		}
		st.Profile = profile
		st.UpdatedAt = s.now().UTC()
		return s.repo.Save(tx, st)
	})
	if err != nil {
		return nil, err
	}

	s.audit.LogAction(ctx, audit.ActionProfileSaved, actorID, audit.Details{
		EntityID:    id,
		Description: "financial profile saved",
		Changes: map[string]interface{}{
			"tuition_amount":   profile.TuitionAmount.StringFixed(2),
			"due_day":          profile.DueDay,
			"discount_percent": profile.DiscountPercent.String(),
		},
	})
	return st, nil
}

// Enroll generates the enrollment charges from the stored profile and marks the student enrolled.
// Both happen in one transaction, so a student is never billed for enrollment twice.
func (s *Service) Enroll(ctx context.Context, id, actorID string) (*EnrollResponse, error) {
	var (
		st      *Student
		charges []*charge.Charge
	)
	err := s.store.Update(ctx, func(tx store.Tx) error {
		var err error
		st, err = s.repo.Get(tx, id)
		if err != nil {
			return err
		}
		if st.EnrolledAt != nil {
			return ErrAlreadyEnrolled.For(id)
		}
		if st.Profile == nil {
			return ErrProfileRequired.For(id)
		}

		charges, err = s.charges.EnrollmentCharges(tx, st.ID, st.Profile, actorID)
		if err != nil {
			return err
		}

		now := s.now().UTC()
		st.EnrolledAt = &now
		st.UpdatedAt = now
		return s.repo.Save(tx, st)
	})
	if err != nil {
		return nil, err
	}

	s.audit.LogAction(ctx, audit.ActionChargesGenerated, actorID, audit.Details{
		EntityID:    id,
		Description: "student enrolled",
		Changes: map[string]interface{}{
			"charges": len(charges),
			"window":  st.Profile.StartMonth.String() + ".." + st.Profile.EndMonth.String(),
		},
	})

	return &EnrollResponse{Student: st, Charges: charges}, nil
}

// GenerateTuition creates recurring tuition for a student from the stored profile
func (s *Service) GenerateTuition(ctx context.Context, id string, req *GenerateTuitionRequest, actorID string) (*charge.BatchResult, error) {
	st, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if st.Profile == nil {
		return nil, ErrProfileRequired.For(id)
	}

	result, err := s.charges.GenerateRecurringTuition(ctx, st.ID, st.Profile, charge.RecurringOptions{
		MonthCount:        req.MonthCount,
		StartMonth:        req.StartMonth,
		StartYear:         req.StartYear,
		OverwriteExisting: req.OverwriteExisting,
	}, actorID)
	if err != nil {
		return nil, err
	}

	if len(result.Failed) > 0 {
		s.log.WithFields(logrus.Fields{
			"module":  "student",
			"student": id,
			"failed":  len(result.Failed),
		}).Warn("recurring tuition generated with failures")
	}
	return result, nil
}

func sameWindow(a, b *charge.FinancialProfile) bool {
	return *a.StartMonth == *b.StartMonth && *a.EndMonth == *b.EndMonth
}
