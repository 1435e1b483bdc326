package request

import (
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sampleRequest struct {
	Amount  decimal.Decimal `json:"amount" validate:"gt=0"`
	Method  string          `json:"method" validate:"required,max=40"`
	DueDate string          `json:"due_date" validate:"omitempty,datetime=2006-01-02"`
}

func TestDecodeAndValidate(t *testing.T) {
	req := httptest.NewRequest("POST", "/", strings.NewReader(`{"amount":"12.50","method":"pix","due_date":"2025-01-10"}`))

	var dst sampleRequest
	require.NoError(t, DecodeAndValidate(req, &dst))
	assert.True(t, dst.Amount.Equal(decimal.RequireFromString("12.5")))
}

func TestDecodeAndValidate_Failures(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{"malformed", `{"amount":`, "invalid request body"},
		{"non numeric amount", `{"amount":"abc","method":"pix"}`, "invalid request body"},
		{"zero amount", `{"amount":"0","method":"pix"}`, "amount failed gt=0"},
		{"missing method", `{"amount":"1"}`, "method failed required"},
		{"bad date", `{"amount":"1","method":"pix","due_date":"10/01/2025"}`, "due_date failed datetime"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest("POST", "/", strings.NewReader(tc.body))
			var dst sampleRequest
			err := DecodeAndValidate(req, &dst)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.want)
		})
	}
}
