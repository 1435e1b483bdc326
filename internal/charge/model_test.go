package charge

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func TestStatus_TransitionTable(t *testing.T) {
	allowed := map[Status]map[Status]bool{
		StatusPending:     {StatusUnderReview: true, StatusPaid: true, StatusCancelled: true},
		StatusUnderReview: {StatusPaid: true, StatusPending: true, StatusCancelled: true},
		StatusPaid:        {},
		StatusCancelled:   {},
	}

	for _, from := range AllStatuses {
		for _, to := range AllStatuses {
			assert.Equal(t, allowed[from][to], from.CanTransitionTo(to), "%s -> %s", from, to)
		}
	}
}

func TestStatus_TerminalStatesNeverMove(t *testing.T) {
	for _, s := range []Status{StatusPaid, StatusCancelled} {
		assert.True(t, s.IsTerminal())
		for _, to := range AllStatuses {
			c := &Charge{ID: "c1", Status: s}
			err := c.TransitionTo(to, time.Now())
			assert.ErrorIs(t, err, ErrInvalidTransition)
			assert.Equal(t, s, c.Status)
		}
	}
}

func TestCharge_Recompute(t *testing.T) {
	tests := []struct {
		name     string
		original string
		discount string
		credit   string
		want     string
		wantErr  error
	}{
		{name: "no discount", original: "300", discount: "0", credit: "0", want: "300"},
		{name: "ten percent", original: "500", discount: "10", credit: "0", want: "450"},
		{name: "discount and credit", original: "500", discount: "10", credit: "50", want: "400"},
		{name: "fully covered", original: "200", discount: "0", credit: "200", want: "0"},
		{name: "rounded to cents", original: "333.33", discount: "15", credit: "0", want: "283.33"},
		{name: "credit exceeds", original: "100", discount: "0", credit: "100.01", wantErr: ErrNegativeAmount},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := &Charge{
				ID:              "c1",
				OriginalAmount:  d(tt.original),
				DiscountPercent: d(tt.discount),
				CreditConsumed:  d(tt.credit),
			}
			err := c.Recompute()
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.True(t, c.CurrentAmount.Equal(d(tt.want)), "got %s", c.CurrentAmount)
			assert.True(t, c.CurrentAmount.Equal(c.ExpectedCurrentAmount()))
		})
	}
}

func TestFilter_Matches(t *testing.T) {
	c := &Charge{StudentID: "s1", Status: StatusPending, Kind: KindTuition, DueDate: time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC)}

	assert.True(t, Filter{}.Matches(c))
	assert.True(t, Filter{StudentID: "s1", Status: StatusPending, Kind: KindTuition}.Matches(c))
	assert.False(t, Filter{StudentID: "s2"}.Matches(c))
	assert.False(t, Filter{Status: StatusPaid}.Matches(c))
	assert.False(t, Filter{Kind: KindMaterials}.Matches(c))
}
