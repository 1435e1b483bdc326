package student

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fkhayef/schoolfinance/internal/audit"
	"github.com/fkhayef/schoolfinance/internal/charge"
	"github.com/fkhayef/schoolfinance/internal/period"
	"github.com/fkhayef/schoolfinance/internal/store"
	"github.com/fkhayef/schoolfinance/pkg/middleware"
)

var clock = time.Date(2025, 1, 20, 12, 0, 0, 0, time.UTC)

func newTestService(t *testing.T) (*Service, *charge.Service) {
	t.Helper()
	st, err := store.NewBoltStore(filepath.Join(t.TempDir(), "students.db"))
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })

	log, _ := test.NewNullLogger()
	charges := charge.NewService(st, charge.NewRepository(), audit.Nop(), log, 7)
	charges.SetClock(func() time.Time { return clock })
	s := NewService(st, NewRepository(), charges, audit.Nop(), log)
	s.SetClock(func() time.Time { return clock })
	return s, charges
}

func profile(start, end string) *charge.FinancialProfile {
	s, _ := period.Parse(start)
	e, _ := period.Parse(end)
	return &charge.FinancialProfile{
		TuitionAmount: decimal.NewFromInt(300),
		DueDay:        10,
		EnrollmentFee: decimal.NewFromInt(150),
		StartMonth:    &s,
		EndMonth:      &e,
	}
}

func TestEnroll(t *testing.T) {
	s, charges := newTestService(t)
	ctx := context.Background()

	st, err := s.Create(ctx, &CreateStudentRequest{Name: "Ana Souza", ClassName: "5A"})
	require.NoError(t, err)

	_, err = s.Enroll(ctx, st.ID, "clerk")
	assert.ErrorIs(t, err, ErrProfileRequired)

	_, err = s.SaveProfile(ctx, st.ID, profile("2025-02", "2025-04"), "clerk")
	require.NoError(t, err)

	res, err := s.Enroll(ctx, st.ID, "clerk")
	require.NoError(t, err)
	assert.Len(t, res.Charges, 4, "enrollment fee plus three tuition months")
	require.NotNil(t, res.Student.EnrolledAt)

	_, err = s.Enroll(ctx, st.ID, "clerk")
	assert.ErrorIs(t, err, ErrAlreadyEnrolled)

	stored, err := charges.ListCharges(ctx, charge.Filter{StudentID: st.ID})
	require.NoError(t, err)
	assert.Len(t, stored, 4, "a second enrollment must not bill again")
}

func TestSaveProfile_WindowLockedAfterEnrollment(t *testing.T) {
	s, _ := newTestService(t)
	ctx := context.Background()

	st, err := s.Create(ctx, &CreateStudentRequest{Name: "Bruno Lima"})
	require.NoError(t, err)

	_, err = s.SaveProfile(ctx, st.ID, profile("2025-04", "2025-02"), "clerk")
	assert.ErrorIs(t, err, charge.ErrInvalidCompetencyWindow)

	_, err = s.SaveProfile(ctx, st.ID, profile("2025-02", "2025-12"), "clerk")
	require.NoError(t, err)
	_, err = s.Enroll(ctx, st.ID, "clerk")
	require.NoError(t, err)

	raised := profile("2025-02", "2025-12")
	raised.TuitionAmount = decimal.NewFromInt(320)
	_, err = s.SaveProfile(ctx, st.ID, raised, "clerk")
	require.NoError(t, err)

	_, err = s.SaveProfile(ctx, st.ID, profile("2025-03", "2025-12"), "clerk")
	assert.ErrorIs(t, err, ErrProfileLocked)

	stored, err := s.GetProfile(ctx, st.ID)
	require.NoError(t, err)
	assert.True(t, decimal.NewFromInt(320).Equal(stored.TuitionAmount))
}

func TestGetProfile_Missing(t *testing.T) {
	s, _ := newTestService(t)
	ctx := context.Background()

	st, err := s.Create(ctx, &CreateStudentRequest{Name: "Caio Reis"})
	require.NoError(t, err)

	_, err = s.GetProfile(ctx, st.ID)
	assert.ErrorIs(t, err, ErrProfileRequired)

	_, err = s.GetProfile(ctx, "missing")
	assert.ErrorIs(t, err, ErrStudentNotFound)
}

func TestGenerateTuition_UsesStoredProfile(t *testing.T) {
	s, _ := newTestService(t)
	ctx := context.Background()

	st, err := s.Create(ctx, &CreateStudentRequest{Name: "Carla Dias"})
	require.NoError(t, err)

	_, err = s.GenerateTuition(ctx, st.ID, &GenerateTuitionRequest{MonthCount: 2, StartMonth: 1, StartYear: 2026}, "clerk")
	assert.ErrorIs(t, err, ErrProfileRequired)

	_, err = s.SaveProfile(ctx, st.ID, profile("2025-02", "2025-12"), "clerk")
	require.NoError(t, err)

	res, err := s.GenerateTuition(ctx, st.ID, &GenerateTuitionRequest{MonthCount: 2, StartMonth: 1, StartYear: 2026}, "clerk")
	require.NoError(t, err)
	require.Len(t, res.Created, 2)
	assert.True(t, res.Created[0].DueDate.Equal(time.Date(2026, 1, 10, 0, 0, 0, 0, time.UTC)))

	_, err = s.GenerateTuition(ctx, "missing", &GenerateTuitionRequest{MonthCount: 1, StartMonth: 1, StartYear: 2026}, "clerk")
	assert.ErrorIs(t, err, ErrStudentNotFound)
}

func TestList_Pagination(t *testing.T) {
	s, _ := newTestService(t)
	ctx := context.Background()

	for _, name := range []string{"Caio", "Ana", "Bia"} {
		_, err := s.Create(ctx, &CreateStudentRequest{Name: name})
		require.NoError(t, err)
	}

	page, total, err := s.List(ctx, 1, 2)
	require.NoError(t, err)
	assert.Equal(t, 3, total)
	require.Len(t, page, 2)
	assert.Equal(t, "Ana", page[0].Name)

	page, _, err = s.List(ctx, 3, 2)
	require.NoError(t, err)
	assert.Empty(t, page)
}

func TestHandler_ProfileAndEnroll(t *testing.T) {
	s, _ := newTestService(t)
	r := chi.NewRouter()
	r.Use(middleware.ActorMiddleware)
	r.Mount("/students", NewHandler(s).Routes())

	do := func(method, path string, body interface{}) *httptest.ResponseRecorder {
		var buf bytes.Buffer
		if body != nil {
			require.NoError(t, json.NewEncoder(&buf).Encode(body))
		}
		req := httptest.NewRequest(method, path, &buf)
		req.Header.Set(middleware.ActorHeader, "clerk")
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, req)
		return rec
	}

	rec := do(http.MethodPost, "/students", map[string]string{"name": "Duda"})
	require.Equal(t, http.StatusCreated, rec.Code)
	var created struct {
		Data Student `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	id := created.Data.ID

	rec = do(http.MethodPut, "/students/"+id+"/profile", map[string]interface{}{
		"tuition_amount": "0",
		"due_day":        10,
		"start_month":    "2025-02",
		"end_month":      "2025-03",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "tuition_amount")

	rec = do(http.MethodPut, "/students/"+id+"/profile", map[string]interface{}{
		"tuition_amount": "300",
		"due_day":        10,
		"start_month":    "2025-02",
		"end_month":      "2025-03",
	})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = do(http.MethodPost, "/students/"+id+"/enroll", nil)
	assert.Equal(t, http.StatusCreated, rec.Code)

	rec = do(http.MethodPost, "/students/"+id+"/enroll", nil)
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = do(http.MethodGet, "/students/nope", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
