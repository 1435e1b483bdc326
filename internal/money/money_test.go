package money

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func TestParse(t *testing.T) {
	tests := []struct {
		in       string
		expected string
	}{
		{"500", "500"},
		{" 450.75 ", "450.75"},
		{"1234,50", "1234.5"},
		{"-3", "-3"},
	}

	for _, tc := range tests {
		t.Run(tc.in, func(t *testing.T) {
			got, err := Parse(tc.in)
			require.NoError(t, err)
			assert.True(t, got.Equal(d(tc.expected)), "got %s", got)
		})
	}
}

func TestParse_RejectsGarbage(t *testing.T) {
	for _, in := range []string{"", "abc", "1.2.3", "R$ 10"} {
		_, err := Parse(in)
		assert.True(t, errors.Is(err, ErrNotNumeric), "input %q", in)
	}
}

func TestApplyDiscount(t *testing.T) {
	tests := []struct {
		amount, pct, expected string
	}{
		{"500", "10", "450"},
		{"300", "0", "300"},
		{"100", "100", "0"},
		{"99.99", "33", "66.99"},
	}

	for _, tc := range tests {
		t.Run(tc.amount+"-"+tc.pct, func(t *testing.T) {
			assert.True(t, ApplyDiscount(d(tc.amount), d(tc.pct)).Equal(d(tc.expected)))
		})
	}
}

func TestValidatePercent(t *testing.T) {
	assert.NoError(t, ValidatePercent(d("0")))
	assert.NoError(t, ValidatePercent(d("100")))
	assert.ErrorIs(t, ValidatePercent(d("-0.01")), ErrInvalidPercent)
	assert.ErrorIs(t, ValidatePercent(d("100.5")), ErrInvalidPercent)
}

func TestPercentAndSum(t *testing.T) {
	assert.True(t, Percent(d("0.033")).Equal(d("0.00033")))
	assert.True(t, Sum(d("1.10"), d("2.20"), d("3.30")).Equal(d("6.6")))
	assert.True(t, Sum().IsZero())
}

func TestIsCents(t *testing.T) {
	assert.True(t, IsCents(d("10")))
	assert.True(t, IsCents(d("10.50")))
	assert.True(t, IsCents(d("10.500")))
	assert.False(t, IsCents(d("10.505")))
}
