package wizard

import (
	"testing"

	apperrors "staff-loans/internal/common/errors"
	"staff-loans/internal/loan/documents"
	"staff-loans/internal/models"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func TestValidateStep(t *testing.T) {
	motor := documents.Resolve(models.ProductStaffMotorVehicle)
	people := []models.Person{{ID: "G-1"}, {ID: "A-1"}}

	tests := []struct {
		name       string
		step       Step
		mutate     func(app *models.LoanApplication)
		facts      Facts
		wantField  string
		wantReason string
	}{
		{
			name:       "no product",
			step:       StepProductSelect,
			mutate:     func(a *models.LoanApplication) { a.SelectedProduct = nil; a.LoanProductID = "" },
			wantField:  "selectedProduct",
			wantReason: "Please select a loan product.",
		},
		{
			name:       "zero salary",
			step:       StepApplicationDetails,
			mutate:     func(a *models.LoanApplication) { a.NetSalary = decimal.Zero },
			wantField:  "netSalary",
			wantReason: "Please fill in all required fields.",
		},
		{
			name:       "bad schedule",
			step:       StepApplicationDetails,
			mutate:     func(a *models.LoanApplication) { a.RepaymentSchedule = "DAILY" },
			wantField:  "repaymentSchedule",
			wantReason: "Please fill in all required fields.",
		},
		{
			name:       "missing guarantor",
			step:       StepGuarantorApprover,
			mutate:     func(a *models.LoanApplication) { a.GuarantorID = "" },
			wantField:  "guarantorId",
			wantReason: "Please select a guarantor.",
		},
		{
			name:       "guarantor not a candidate",
			step:       StepGuarantorApprover,
			mutate:     func(a *models.LoanApplication) { a.GuarantorID = "X-9" },
			facts:      Facts{Candidates: people},
			wantField:  "guarantorId",
			wantReason: "Please select a guarantor from the list.",
		},
		{
			name:       "approver not a candidate",
			step:       StepGuarantorApprover,
			mutate:     func(a *models.LoanApplication) { a.ApproverID = "X-9" },
			facts:      Facts{Candidates: people},
			wantField:  "approverId",
			wantReason: "Please select an approver from the list.",
		},
		{
			name:       "empty candidate list rejects everyone",
			step:       StepGuarantorApprover,
			mutate:     func(a *models.LoanApplication) {},
			facts:      Facts{Candidates: []models.Person{}},
			wantField:  "guarantorId",
			wantReason: "Please select a guarantor from the list.",
		},
		{
			name:       "annual salary",
			step:       StepGuarantorApprover,
			mutate:     func(a *models.LoanApplication) { a.AnnualBasicSalary = dec("-1") },
			wantField:  "annualBasicSalary",
			wantReason: "Please enter a valid annual basic salary.",
		},
		{
			name:       "security details",
			step:       StepDocuments,
			mutate:     func(a *models.LoanApplication) { a.SecurityDetails = "" },
			wantField:  "securityDetails",
			wantReason: "Please fill in the current account and security details.",
		},
		{
			name: "first missing document",
			step: StepDocuments,
			mutate: func(a *models.LoanApplication) {
				a.SupportingDocuments = map[string]string{"Police Clearance": "doc-1"}
			},
			facts:      Facts{Requirements: motor},
			wantField:  "Agreement of Sale",
			wantReason: "Please upload Copy of Agreement of Sale.",
		},
		{
			name:       "loan agreement",
			step:       StepDocuments,
			mutate:     func(a *models.LoanApplication) { a.LoanAgreementAccepted = false },
			wantField:  "loanAgreementAccepted",
			wantReason: "You must accept the loan agreement.",
		},
		{
			name:       "terms",
			step:       StepTerms,
			mutate:     func(a *models.LoanApplication) { a.TermsAndConditionsAccepted = false },
			wantField:  "termsAndConditionsAccepted",
			wantReason: "You must accept the terms and conditions.",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app := validApplication()
			tt.mutate(app)

			err := ValidateStep(tt.step, app, tt.facts)
			var verr *apperrors.ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Equal(t, int(tt.step), verr.Step)
			assert.Equal(t, tt.wantField, verr.Field)
			assert.Equal(t, tt.wantReason, verr.Reason)
		})
	}
}

func TestValidateStep_GuarantorNotRequired(t *testing.T) {
	app := validApplication()
	app.GuarantorRequired = false
	app.GuarantorID = ""

	assert.NoError(t, ValidateStep(StepGuarantorApprover, app, Facts{Candidates: []models.Person{{ID: "A-1"}}}))
}

func TestValidateStep_AllStepsPassForCompleteApplication(t *testing.T) {
	app := validApplication()
	facts := Facts{Requirements: documents.Resolve(app.ProductType)}
	for step := StepProductSelect; step <= StepReview; step++ {
		assert.NoError(t, ValidateStep(step, app, facts), step.String())
	}
}

func TestValidateStep_NilApplication(t *testing.T) {
	var verr *apperrors.ValidationError
	require.ErrorAs(t, ValidateStep(StepTerms, nil, Facts{}), &verr)
}
