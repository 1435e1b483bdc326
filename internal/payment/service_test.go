package payment

import (
	"context"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fkhayef/schoolfinance/internal/audit"
	"github.com/fkhayef/schoolfinance/internal/charge"
	"github.com/fkhayef/schoolfinance/internal/credit"
	"github.com/fkhayef/schoolfinance/internal/store"
)

var clock = time.Date(2025, 2, 14, 10, 0, 0, 0, time.UTC)

type fixture struct {
	svc     *Service
	credits *credit.Service
	charges *charge.Repository
	store   store.Store
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	st, err := store.NewBoltStore(filepath.Join(t.TempDir(), "payments.db"))
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })

	log, _ := test.NewNullLogger()
	charges := charge.NewRepository()
	credits := credit.NewService(st, credit.NewRepository(), audit.Nop(), log)
	svc := NewService(st, charges, credits, DefaultPolicy, audit.Nop(), log)
	svc.SetClock(func() time.Time { return clock })

	return &fixture{svc: svc, credits: credits, charges: charges, store: st}
}

func (f *fixture) seed(t *testing.T, id string, kind charge.Kind, amount string) *charge.Charge {
	t.Helper()
	c := &charge.Charge{
		ID:             id,
		StudentID:      "stu-1",
		Kind:           kind,
		Description:    "Tuition 2025-02",
		OriginalAmount: d(amount),
		DueDate:        time.Date(2025, 2, 10, 0, 0, 0, 0, time.UTC),
		Status:         charge.StatusPending,
	}
	require.NoError(t, c.Recompute())
	require.NoError(t, f.store.Update(context.Background(), func(tx store.Tx) error {
		return f.charges.Save(tx, c)
	}))
	return c
}

func (f *fixture) get(t *testing.T, id string) *charge.Charge {
	t.Helper()
	var c *charge.Charge
	require.NoError(t, f.store.View(context.Background(), func(tx store.Tx) error {
		var err error
		c, err = f.charges.Get(tx, id)
		return err
	}))
	return c
}

func TestProofReviewCycle(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.seed(t, "c1", charge.KindTuition, "300")

	c, err := f.svc.SubmitProof(ctx, "c1", "receipts/abc.pdf", "parent-1")
	require.NoError(t, err)
	assert.Equal(t, charge.StatusUnderReview, c.Status)

	_, err = f.svc.SubmitProof(ctx, "c1", "receipts/again.pdf", "parent-1")
	assert.ErrorIs(t, err, charge.ErrInvalidTransition)

	c, err = f.svc.RejectPayment(ctx, "c1", "illegible", "clerk")
	require.NoError(t, err)
	assert.Equal(t, charge.StatusPending, c.Status)
	assert.Equal(t, "illegible", c.RejectionReason)

	_, err = f.svc.ApprovePayment(ctx, "c1", &ApproveRequest{}, "clerk")
	assert.ErrorIs(t, err, charge.ErrInvalidTransition, "pending charges are not approvable")

	_, err = f.svc.SubmitProof(ctx, "c1", "receipts/clear.pdf", "parent-1")
	require.NoError(t, err)
	c, err = f.svc.ApprovePayment(ctx, "c1", &ApproveRequest{Method: "pix"}, "clerk")
	require.NoError(t, err)
	assert.Equal(t, charge.StatusPaid, c.Status)
	require.NotNil(t, c.PaidAt)
	assert.True(t, c.PaidAt.Equal(clock))
	assert.Equal(t, "300.00", c.AmountPaid.StringFixed(2))

	_, err = f.svc.SubmitProof(ctx, "", "x", "parent-1")
	assert.ErrorIs(t, err, charge.ErrChargeNotFound)
}

func TestApproveCreditCharge_FundsLedger(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.seed(t, "c1", charge.KindCredit, "150")

	_, err := f.svc.SubmitProof(ctx, "c1", "receipts/topup.pdf", "parent-1")
	require.NoError(t, err)
	_, err = f.svc.ApprovePayment(ctx, "c1", nil, "clerk")
	require.NoError(t, err)

	balance, err := f.credits.GetBalance(ctx, "stu-1")
	require.NoError(t, err)
	assert.Equal(t, "150.00", balance.StringFixed(2))

	history, err := f.credits.GetHistory(ctx, "stu-1")
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, "c1", history[0].RelatedChargeID)
}

func TestConcurrentApprovals_OnlyOneWins(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.seed(t, "c1", charge.KindCredit, "100")
	_, err := f.svc.SubmitProof(ctx, "c1", "receipts/1.pdf", "parent-1")
	require.NoError(t, err)

	const callers = 8
	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		wins int
	)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.svc.ApprovePayment(ctx, "c1", &ApproveRequest{}, "clerk")
			if err == nil {
				mu.Lock()
				wins++
				mu.Unlock()
				return
			}
			assert.ErrorIs(t, err, charge.ErrInvalidTransition)
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, wins)
	balance, err := f.credits.GetBalance(ctx, "stu-1")
	require.NoError(t, err)
	assert.Equal(t, "100.00", balance.StringFixed(2), "credit must be funded exactly once")
}

func TestSettleDirectly_WithDiscountAndCredit(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.seed(t, "c1", charge.KindTuition, "500")
	_, err := f.credits.AddCredit(ctx, "stu-1", d("50"), "prepayment", "clerk")
	require.NoError(t, err)

	discount := d("10")
	c, err := f.svc.SettleDirectly(ctx, "c1", &SettleRequest{
		AmountPaid:      d("400"),
		Method:          "cash",
		DiscountPercent: &discount,
		CreditToApply:   d("50"),
	}, "clerk")
	require.NoError(t, err)

	assert.Equal(t, charge.StatusPaid, c.Status)
	assert.Equal(t, "400.00", c.CurrentAmount.StringFixed(2))
	assert.Equal(t, "50.00", c.CreditConsumed.StringFixed(2))
	assert.True(t, c.CurrentAmount.Equal(c.ExpectedCurrentAmount()))
	assert.Equal(t, "cash", c.PaymentMethod)

	balance, err := f.credits.GetBalance(ctx, "stu-1")
	require.NoError(t, err)
	assert.True(t, balance.IsZero())

	_, err = f.svc.SettleDirectly(ctx, "c1", &SettleRequest{AmountPaid: d("400"), Method: "cash"}, "clerk")
	assert.ErrorIs(t, err, ErrAlreadyPaid)
}

func TestSettleDirectly_InsufficientPaymentRollsBackCredit(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.seed(t, "c1", charge.KindTuition, "300")
	_, err := f.credits.AddCredit(ctx, "stu-1", d("100"), "prepayment", "clerk")
	require.NoError(t, err)

	_, err = f.svc.SettleDirectly(ctx, "c1", &SettleRequest{
		AmountPaid:    d("199.99"),
		Method:        "cash",
		CreditToApply: d("100"),
	}, "clerk")
	assert.ErrorIs(t, err, ErrInsufficientPayment)

	c := f.get(t, "c1")
	assert.Equal(t, charge.StatusPending, c.Status)
	assert.True(t, c.CreditConsumed.IsZero())
	assert.Equal(t, "300.00", c.CurrentAmount.StringFixed(2))

	balance, err := f.credits.GetBalance(ctx, "stu-1")
	require.NoError(t, err)
	assert.Equal(t, "100.00", balance.StringFixed(2), "consumed credit must be rolled back")
}

func TestSettleDirectly_CreditGuards(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.seed(t, "c1", charge.KindTuition, "100")
	_, err := f.credits.AddCredit(ctx, "stu-1", d("500"), "prepayment", "clerk")
	require.NoError(t, err)

	_, err = f.svc.SettleDirectly(ctx, "c1", &SettleRequest{AmountPaid: d("0"), Method: "credit", CreditToApply: d("150")}, "clerk")
	assert.ErrorIs(t, err, charge.ErrNegativeAmount)

	f.seed(t, "c2", charge.KindTuition, "100")
	c, err := f.svc.SettleDirectly(ctx, "c2", &SettleRequest{AmountPaid: d("0"), Method: "credit", CreditToApply: d("100")}, "clerk")
	require.NoError(t, err)
	assert.True(t, c.CurrentAmount.IsZero())

	_, err = f.svc.SettleDirectly(ctx, "c1", &SettleRequest{AmountPaid: d("100")}, "clerk")
	assert.ErrorIs(t, err, ErrMethodRequired)
}

func TestSettleDirectly_UnderReviewIsConflict(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.seed(t, "c1", charge.KindTuition, "100")
	_, err := f.svc.SubmitProof(ctx, "c1", "receipts/1.pdf", "parent-1")
	require.NoError(t, err)

	_, err = f.svc.SettleDirectly(ctx, "c1", &SettleRequest{AmountPaid: d("100"), Method: "cash"}, "clerk")
	assert.ErrorIs(t, err, charge.ErrInvalidTransition)
}

func TestCancel(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.seed(t, "c1", charge.KindTuition, "100")
	f.seed(t, "c2", charge.KindTuition, "100")

	_, err := f.svc.Cancel(ctx, "c1", "  ", "clerk")
	assert.ErrorIs(t, err, ErrReasonRequired)

	c, err := f.svc.Cancel(ctx, "c1", "student withdrew", "clerk")
	require.NoError(t, err)
	assert.Equal(t, charge.StatusCancelled, c.Status)
	assert.Equal(t, "clerk", c.CancelledBy)
	require.NotNil(t, c.CancelledAt)

	_, err = f.svc.Cancel(ctx, "c1", "again", "clerk")
	assert.ErrorIs(t, err, charge.ErrInvalidTransition)

	_, err = f.svc.SettleDirectly(ctx, "c2", &SettleRequest{AmountPaid: d("100"), Method: "cash"}, "clerk")
	require.NoError(t, err)
	_, err = f.svc.Cancel(ctx, "c2", "mistake", "clerk")
	assert.ErrorIs(t, err, ErrCannotCancelPaid)
	assert.Equal(t, charge.StatusPaid, f.get(t, "c2").Status)
}

func TestOutstandingFor(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.seed(t, "c1", charge.KindTuition, "100")
	f.seed(t, "c2", charge.KindTuition, "200")
	_, err := f.svc.Cancel(ctx, "c2", "duplicate", "clerk")
	require.NoError(t, err)

	stmt, err := f.svc.OutstandingFor(ctx, "stu-1", time.Date(2025, 2, 10, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	require.Len(t, stmt.Items, 1)
	assert.Equal(t, "100.00", stmt.Total.StringFixed(2))
}
