package charge

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fkhayef/schoolfinance/internal/audit"
	"github.com/fkhayef/schoolfinance/internal/period"
	"github.com/fkhayef/schoolfinance/internal/store"
)

var genTime = time.Date(2025, 1, 20, 14, 30, 0, 0, time.UTC)

func newTestService(t *testing.T) (*Service, store.Store) {
	t.Helper()
	st, err := store.NewBoltStore(filepath.Join(t.TempDir(), "charges.db"))
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })

	log, _ := test.NewNullLogger()
	s := NewService(st, NewRepository(), audit.Nop(), log, 7)
	s.SetClock(func() time.Time { return genTime })
	return s, st
}

func month(t *testing.T, s string) *period.Month {
	t.Helper()
	m, err := period.Parse(s)
	require.NoError(t, err)
	return &m
}

func date(y int, m time.Month, day int) time.Time {
	return time.Date(y, m, day, 0, 0, 0, 0, time.UTC)
}

func TestGenerateEnrollmentCharges_TuitionWindow(t *testing.T) {
	s, _ := newTestService(t)
	ctx := context.Background()

	profile := &FinancialProfile{
		TuitionAmount: d("300"),
		DueDay:        10,
		StartMonth:    month(t, "2025-02"),
		EndMonth:      month(t, "2025-04"),
	}

	charges, err := s.GenerateEnrollmentCharges(ctx, "stu-1", profile, "clerk")
	require.NoError(t, err)
	require.Len(t, charges, 3)

	want := []time.Time{date(2025, 2, 10), date(2025, 3, 10), date(2025, 4, 10)}
	for i, c := range charges {
		assert.Equal(t, KindTuition, c.Kind)
		assert.Equal(t, StatusPending, c.Status)
		assert.True(t, c.DueDate.Equal(want[i]), "due %s", c.DueDate)
		assert.Equal(t, "300.00", c.CurrentAmount.StringFixed(2))
	}

	stored, err := s.ListCharges(ctx, Filter{StudentID: "stu-1"})
	require.NoError(t, err)
	assert.Len(t, stored, 3)
}

func TestGenerateEnrollmentCharges_FeesAndDiscount(t *testing.T) {
	s, _ := newTestService(t)

	profile := &FinancialProfile{
		TuitionAmount:   d("500"),
		DueDay:          31,
		DiscountPercent: d("10"),
		EnrollmentFee:   d("200"),
		MaterialsFee:    d("150.50"),
		StartMonth:      month(t, "2025-02"),
		EndMonth:        month(t, "2025-02"),
	}

	charges, err := s.GenerateEnrollmentCharges(context.Background(), "stu-1", profile, "clerk")
	require.NoError(t, err)
	require.Len(t, charges, 3)

	enrollment, materials, tuition := charges[0], charges[1], charges[2]
	assert.Equal(t, KindEnrollment, enrollment.Kind)
	assert.Equal(t, "200.00", enrollment.CurrentAmount.StringFixed(2))
	assert.True(t, enrollment.DueDate.Equal(date(2025, 1, 27)))
	assert.Equal(t, KindMaterials, materials.Kind)
	assert.Equal(t, "150.50", materials.CurrentAmount.StringFixed(2))

	assert.Equal(t, "450.00", tuition.CurrentAmount.StringFixed(2))
	assert.True(t, tuition.DueDate.Equal(date(2025, 2, 28)), "due day clamps to the month's end")
	require.NotNil(t, tuition.Competency)
	assert.Equal(t, "2025-02", tuition.Competency.String())
}

func TestGenerateEnrollmentCharges_Validation(t *testing.T) {
	s, st := newTestService(t)
	ctx := context.Background()

	valid := func() *FinancialProfile {
		return &FinancialProfile{
			TuitionAmount: d("300"),
			DueDay:        10,
			StartMonth:    month(t, "2025-02"),
			EndMonth:      month(t, "2025-04"),
		}
	}

	tests := []struct {
		name    string
		mutate  func(p *FinancialProfile)
		wantErr error
	}{
		{name: "missing start", mutate: func(p *FinancialProfile) { p.StartMonth = nil }, wantErr: ErrInvalidCompetencyWindow},
		{name: "missing end", mutate: func(p *FinancialProfile) { p.EndMonth = nil }, wantErr: ErrInvalidCompetencyWindow},
		{name: "end before start", mutate: func(p *FinancialProfile) { p.EndMonth = month(t, "2025-01") }, wantErr: ErrInvalidCompetencyWindow},
		{name: "zero tuition", mutate: func(p *FinancialProfile) { p.TuitionAmount = d("0") }, wantErr: ErrInvalidTuitionAmount},
		{name: "negative tuition", mutate: func(p *FinancialProfile) { p.TuitionAmount = d("-1") }, wantErr: ErrInvalidTuitionAmount},
		{name: "due day", mutate: func(p *FinancialProfile) { p.DueDay = 0 }, wantErr: ErrInvalidDueDay},
		{name: "negative fee", mutate: func(p *FinancialProfile) { p.MaterialsFee = d("-5") }, wantErr: ErrInvalidFee},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := valid()
			tt.mutate(p)
			_, err := s.GenerateEnrollmentCharges(ctx, "stu-1", p, "clerk")
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}

	var count int
	require.NoError(t, st.View(ctx, func(tx store.Tx) error {
		return tx.ForEach(store.BucketCharges, func(string, []byte) error { count++; return nil })
	}))
	assert.Zero(t, count, "rejected profiles must not write charges")
}

func TestGenerateRecurringTuition_SkipsExistingMonths(t *testing.T) {
	s, _ := newTestService(t)
	ctx := context.Background()
	profile := &FinancialProfile{TuitionAmount: d("300"), DueDay: 5}

	first, err := s.GenerateRecurringTuition(ctx, "stu-1", profile, RecurringOptions{MonthCount: 3, StartMonth: 2, StartYear: 2025}, "clerk")
	require.NoError(t, err)
	assert.Len(t, first.Created, 3)
	assert.Empty(t, first.Skipped)

	second, err := s.GenerateRecurringTuition(ctx, "stu-1", profile, RecurringOptions{MonthCount: 4, StartMonth: 2, StartYear: 2025}, "clerk")
	require.NoError(t, err)
	assert.Equal(t, []string{"2025-02", "2025-03", "2025-04"}, second.Skipped)
	require.Len(t, second.Created, 1)
	assert.True(t, second.Created[0].DueDate.Equal(date(2025, 5, 5)))

	all, err := s.ListCharges(ctx, Filter{StudentID: "stu-1", Kind: KindTuition})
	require.NoError(t, err)
	assert.Len(t, all, 4)
}

func TestGenerateRecurringTuition_Overwrite(t *testing.T) {
	s, st := newTestService(t)
	ctx := context.Background()
	profile := &FinancialProfile{TuitionAmount: d("300"), DueDay: 5}

	first, err := s.GenerateRecurringTuition(ctx, "stu-1", profile, RecurringOptions{MonthCount: 2, StartMonth: 2, StartYear: 2025}, "clerk")
	require.NoError(t, err)
	require.Len(t, first.Created, 2)

	// February gets paid; it must survive an overwrite
	paid := first.Created[0]
	require.NoError(t, st.Update(ctx, func(tx store.Tx) error {
		c, err := s.repo.Get(tx, paid.ID)
		if err != nil {
			return err
		}
		c.Status = StatusPaid
		return s.repo.Save(tx, c)
	}))

	profile.TuitionAmount = d("320")
	second, err := s.GenerateRecurringTuition(ctx, "stu-1", profile, RecurringOptions{MonthCount: 2, StartMonth: 2, StartYear: 2025, OverwriteExisting: true}, "clerk")
	require.NoError(t, err)
	assert.Equal(t, []string{"2025-02"}, second.Skipped)
	assert.Equal(t, []string{first.Created[1].ID}, second.Cancelled)
	require.Len(t, second.Created, 1)
	assert.Equal(t, "320.00", second.Created[0].CurrentAmount.StringFixed(2))

	old, err := s.GetCharge(ctx, first.Created[1].ID)
	require.NoError(t, err)
	assert.Equal(t, StatusCancelled, old.Status)
	assert.NotEmpty(t, old.CancelReason)
}

func TestGenerateRecurringTuition_Validation(t *testing.T) {
	s, _ := newTestService(t)
	ctx := context.Background()
	profile := &FinancialProfile{TuitionAmount: d("300"), DueDay: 5}

	_, err := s.GenerateRecurringTuition(ctx, "stu-1", profile, RecurringOptions{MonthCount: 0, StartMonth: 2, StartYear: 2025}, "clerk")
	assert.ErrorIs(t, err, ErrInvalidMonthCount)

	_, err = s.GenerateRecurringTuition(ctx, "stu-1", profile, RecurringOptions{MonthCount: 1, StartMonth: 13, StartYear: 2025}, "clerk")
	assert.ErrorIs(t, err, period.ErrInvalidMonth)

	_, err = s.GenerateRecurringTuition(ctx, "stu-1", &FinancialProfile{DueDay: 5}, RecurringOptions{MonthCount: 1, StartMonth: 1, StartYear: 2025}, "clerk")
	assert.ErrorIs(t, err, ErrInvalidTuitionAmount)
}

func TestCreateCharge(t *testing.T) {
	s, _ := newTestService(t)
	ctx := context.Background()

	c, err := s.CreateCharge(ctx, &CreateChargeRequest{
		StudentID:   "stu-1",
		Kind:        KindCredit,
		Description: "Prepayment",
		Amount:      d("250"),
		DueDate:     date(2025, 2, 1),
	}, "clerk")
	require.NoError(t, err)
	assert.Equal(t, StatusPending, c.Status)
	assert.Equal(t, "250.00", c.CurrentAmount.StringFixed(2))

	_, err = s.CreateCharge(ctx, &CreateChargeRequest{StudentID: "stu-1", Kind: "fine", Amount: d("1"), DueDate: date(2025, 2, 1)}, "clerk")
	assert.ErrorIs(t, err, ErrInvalidKind)

	_, err = s.GetCharge(ctx, "missing")
	assert.ErrorIs(t, err, ErrChargeNotFound)
}
