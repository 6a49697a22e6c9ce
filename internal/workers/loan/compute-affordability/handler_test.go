// internal/workers/loan/compute-affordability/handler_test.go
package computeaffordability

import (
	"context"
	"testing"

	apperrors "staff-loans/internal/common/errors"
	"staff-loans/internal/common/logger"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func amount(s string) *decimal.Decimal {
	d := decimal.RequireFromString(s)
	return &d
}

func TestHandler_Execute(t *testing.T) {
	tests := []struct {
		name        string
		input       *Input
		wantMax     string
		wantMonthly string
		wantAmount  string
		wantClamped bool
	}{
		{
			name:        "twelve months",
			input:       &Input{NetSalary: decimal.NewFromInt(1000), TenureDuration: 12},
			wantMax:     "7755.52",
			wantMonthly: "700",
			wantAmount:  "7755.52",
		},
		{
			name:        "amount over ceiling is capped",
			input:       &Input{NetSalary: decimal.NewFromInt(2000), TenureDuration: 24, LoanAmount: amount("50000")},
			wantMax:     "28873.93",
			wantMonthly: "1400",
			wantAmount:  "28873.93",
			wantClamped: true,
		},
		{
			name:        "amount under ceiling is kept",
			input:       &Input{NetSalary: decimal.NewFromInt(1000), TenureDuration: 1, LoanAmount: amount("500")},
			wantMax:     "691.36",
			wantMonthly: "700",
			wantAmount:  "500",
		},
	}

	h := NewHandler(LoadConfig(), nil, logger.NewTestLogger(t))
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := h.Execute(context.Background(), tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.wantMax, out.MaxLoanAmount.String())
			assert.Equal(t, tt.wantMonthly, out.MaxMonthlyRepayment.String())
			assert.Equal(t, tt.wantAmount, out.LoanAmount.String())
			assert.Equal(t, tt.wantClamped, out.Clamped)
		})
	}
}

func TestHandler_Execute_Undefined(t *testing.T) {
	h := NewHandler(LoadConfig(), nil, logger.NewNoOpLogger())

	for _, input := range []*Input{
		{NetSalary: decimal.Zero, TenureDuration: 12},
		{NetSalary: decimal.NewFromInt(1000), TenureDuration: 0},
	} {
		_, err := h.Execute(context.Background(), input)
		var stdErr *apperrors.StandardError
		require.ErrorAs(t, err, &stdErr)
		assert.Equal(t, apperrors.ErrCodeAffordabilityUndefined, stdErr.Code)
		assert.False(t, stdErr.Retryable)
	}
}

func TestHandler_Run_RejectsBadInput(t *testing.T) {
	h := NewHandler(LoadConfig(), nil, logger.NewNoOpLogger())

	tests := []struct {
		name      string
		variables string
	}{
		{"missing tenure", `{"netSalary": 1000}`},
		{"salary not numeric", `{"netSalary": "abc", "tenureDuration": 12}`},
		{"negative salary", `{"netSalary": -5, "tenureDuration": 12}`},
		{"tenure too long", `{"netSalary": 1000, "tenureDuration": 900}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := h.run(context.Background(), tt.variables)
			var stdErr *apperrors.StandardError
			require.ErrorAs(t, err, &stdErr)
			assert.Equal(t, apperrors.ErrCodeInvalidInput, stdErr.Code)
		})
	}

	out, err := h.run(context.Background(), `{"netSalary": "1000", "tenureDuration": 12, "loanAmount": "9000"}`)
	require.NoError(t, err)
	assert.True(t, out.Clamped)
}
