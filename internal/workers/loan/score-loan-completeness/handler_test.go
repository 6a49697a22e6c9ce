// internal/workers/loan/score-loan-completeness/handler_test.go
package scoreloancompleteness

import (
	"context"
	"testing"

	apperrors "staff-loans/internal/common/errors"
	"staff-loans/internal/common/logger"
	"staff-loans/internal/loan/completeness"
	"staff-loans/internal/models"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mortgageApplication(docs map[string]string) *models.LoanApplication {
	return &models.LoanApplication{
		ApplicationID:              "APP-1001",
		LoanProductName:            "Staff Mortgage",
		ProductType:                models.ProductStaffMortgages,
		LoanAmount:                 decimal.NewFromInt(25000),
		RepaymentAccount:           "1002003001",
		DisbursementAccount:        "1002003002",
		Purpose:                    "House purchase",
		SecurityDetails:            "Bond over stand 443",
		TermsAndConditionsAccepted: true,
		LoanAgreementAccepted:      true,
		SupportingDocuments:        docs,
	}
}

func TestHandler_Execute(t *testing.T) {
	tests := []struct {
		name          string
		app           *models.LoanApplication
		wantPercent   int
		wantIndicator completeness.Indicator
		wantComplete  bool
		wantResumable bool
	}{
		{
			name:          "complete mortgage",
			app:           mortgageApplication(map[string]string{"Title Deed": "d1", "Agreement of Sale": "d2"}),
			wantPercent:   100,
			wantIndicator: completeness.IndicatorHigh,
			wantComplete:  true,
		},
		{
			name:          "half the documents",
			app:           mortgageApplication(map[string]string{"Title Deed": "d1"}),
			wantPercent:   80,
			wantIndicator: completeness.IndicatorHigh,
			wantResumable: true,
		},
		{
			name:          "no documents",
			app:           mortgageApplication(nil),
			wantPercent:   60,
			wantIndicator: completeness.IndicatorMedium,
			wantResumable: true,
		},
		{
			name:          "empty draft",
			app:           &models.LoanApplication{},
			wantPercent:   0,
			wantIndicator: completeness.IndicatorLow,
		},
	}

	h := NewHandler(LoadConfig(), nil, logger.NewTestLogger(t))
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := h.Execute(context.Background(), &Input{Application: tt.app})
			require.NoError(t, err)
			assert.Equal(t, tt.wantPercent, out.Percent)
			assert.Equal(t, tt.wantIndicator, out.Indicator)
			assert.Equal(t, tt.wantComplete, out.Complete)
			assert.Equal(t, tt.wantResumable, out.Resumable)
		})
	}
}

func TestHandler_Parse(t *testing.T) {
	h := NewHandler(LoadConfig(), nil, logger.NewNoOpLogger())

	var input Input
	require.NoError(t, h.parse(`{"application": {"productType": "STAFF_MORTGAGES", "loanAmount": 25000}}`, &input))
	assert.Equal(t, models.ProductStaffMortgages, input.Application.ProductType)

	err := h.parse(`{"applicationId": "APP-1"}`, &Input{})
	var stdErr *apperrors.StandardError
	require.ErrorAs(t, err, &stdErr)
	assert.Equal(t, apperrors.ErrCodeInvalidInput, stdErr.Code)
}

func TestHandler_Execute_NilApplication(t *testing.T) {
	_, err := NewHandler(LoadConfig(), nil, logger.NewNoOpLogger()).Execute(context.Background(), &Input{})
	assert.Error(t, err)
}
