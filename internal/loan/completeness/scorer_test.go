package completeness

import (
	"testing"

	"staff-loans/internal/loan/documents"
	"staff-loans/internal/models"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func createTestApplication(productType models.ProductType) *models.LoanApplication {
	return &models.LoanApplication{
		ApplicationID:              "APP-1001",
		LoanProductName:            "Staff Mortgage",
		ProductType:                productType,
		LoanAmount:                 decimal.NewFromInt(25000),
		RepaymentAccount:           "1002003001",
		DisbursementAccount:        "1002003002",
		Purpose:                    "House purchase",
		SecurityDetails:            "Bond over stand 443",
		TermsAndConditionsAccepted: true,
		LoanAgreementAccepted:      true,
		SupportingDocuments:        map[string]string{},
	}
}

func TestScore_Bands(t *testing.T) {
	tests := []struct {
		name        string
		productType models.ProductType
		mutate      func(*models.LoanApplication)
		wantOverall float64
		wantMain    bool
		wantAgree   bool
		wantDocs    float64
	}{
		{
			name:        "everything present",
			productType: models.ProductStaffMortgages,
			mutate: func(a *models.LoanApplication) {
				a.SupportingDocuments = map[string]string{"Title Deed": "d1", "Agreement of Sale": "d2"}
			},
			wantOverall: 100, wantMain: true, wantAgree: true, wantDocs: 40,
		},
		{
			name:        "no documents",
			productType: models.ProductStaffMortgages,
			mutate:      func(*models.LoanApplication) {},
			wantOverall: 60, wantMain: true, wantAgree: true, wantDocs: 0,
		},
		{
			name:        "one of two required documents",
			productType: models.ProductStaffMortgages,
			mutate: func(a *models.LoanApplication) {
				a.SupportingDocuments = map[string]string{"Title Deed": "d1"}
			},
			wantOverall: 80, wantMain: true, wantAgree: true, wantDocs: 20,
		},
		{
			name:        "optional only document present",
			productType: models.ProductPersonalLoan,
			mutate: func(a *models.LoanApplication) {
				a.SupportingDocuments = map[string]string{"Quotation": "q1"}
			},
			wantOverall: 100, wantMain: true, wantAgree: true, wantDocs: 40,
		},
		{
			name:        "missing purpose loses whole main band",
			productType: models.ProductStaffSchoolFees,
			mutate: func(a *models.LoanApplication) {
				a.Purpose = " "
				a.SupportingDocuments = map[string]string{"Invoice": "inv"}
			},
			wantOverall: 70, wantMain: false, wantAgree: true, wantDocs: 40,
		},
		{
			name:        "zero amount loses main band",
			productType: models.ProductStaffSchoolFees,
			mutate: func(a *models.LoanApplication) {
				a.LoanAmount = decimal.Zero
			},
			wantOverall: 30, wantMain: false, wantAgree: true, wantDocs: 0,
		},
		{
			name:        "one agreement is not enough",
			productType: models.ProductStaffSchoolFees,
			mutate: func(a *models.LoanApplication) {
				a.LoanAgreementAccepted = false
				a.SupportingDocuments = map[string]string{"Invoice": "inv"}
			},
			wantOverall: 70, wantMain: true, wantAgree: false, wantDocs: 40,
		},
		{
			name:        "unknown keys are ignored",
			productType: models.ProductStaffMortgages,
			mutate: func(a *models.LoanApplication) {
				a.SupportingDocuments = map[string]string{"Payslip": "p", "Bank Statement": "b"}
			},
			wantOverall: 60, wantMain: true, wantAgree: true, wantDocs: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app := createTestApplication(tt.productType)
			tt.mutate(app)

			got := ScoreApplication(app)

			assert.InDelta(t, tt.wantOverall, got.Overall, 1e-9)
			assert.Equal(t, tt.wantMain, got.MainFieldsComplete)
			assert.Equal(t, tt.wantAgree, got.AgreementsComplete)
			assert.InDelta(t, tt.wantDocs, got.DocumentScore, 1e-9)
		})
	}
}

func TestScore_MixedRequiredAndOptional(t *testing.T) {
	reqs := []documents.Requirement{
		{Key: "A", Required: true},
		{Key: "B", Required: false},
	}
	app := createTestApplication("")

	app.SupportingDocuments = map[string]string{"B": "b"}
	assert.InDelta(t, 40.0/1.5/2, Score(app, reqs).DocumentScore, 1e-9)

	app.SupportingDocuments = map[string]string{"A": "a", "B": "b"}
	assert.InDelta(t, 40.0, Score(app, reqs).DocumentScore, 1e-9)
}

func TestScore_NoRequirements(t *testing.T) {
	app := createTestApplication("")
	got := Score(app, nil)
	assert.Equal(t, 0.0, got.DocumentScore)
	assert.Equal(t, 60.0, got.Overall)
}

func TestScore_MotorVehicleProgress(t *testing.T) {
	app := createTestApplication(models.ProductStaffMotorVehicle)
	app.SupportingDocuments = map[string]string{
		"Police Clearance":  "a",
		"Agreement of Sale": "b",
		"Drivers Licence":   "c",
	}
	got := ScoreApplication(app)
	assert.InDelta(t, 20.0, got.DocumentScore, 1e-9)
	assert.InDelta(t, 80.0, got.Overall, 1e-9)
}

func TestScore_NilApplication(t *testing.T) {
	assert.Equal(t, models.CompletenessScore{}, ScoreApplication(nil))
}

func TestIndicatorFor(t *testing.T) {
	assert.Equal(t, IndicatorLow, IndicatorFor(models.CompletenessScore{Overall: 30}))
	assert.Equal(t, IndicatorMedium, IndicatorFor(models.CompletenessScore{Overall: 60}))
	assert.Equal(t, IndicatorHigh, IndicatorFor(models.CompletenessScore{Overall: 80}))
}

func TestSummarize(t *testing.T) {
	complete := createTestApplication(models.ProductStaffSchoolFees)
	complete.SupportingDocuments = map[string]string{"Invoice": "inv"}
	complete.Status = models.StatusUnderReview

	incomplete := createTestApplication(models.ProductStaffSchoolFees)
	incomplete.Status = models.StatusSubmitted

	accepted := createTestApplication(models.ProductStaffSchoolFees)
	accepted.Status = models.StatusAccepted

	got := Summarize([]*models.LoanApplication{complete, incomplete, accepted, nil})
	assert.Equal(t, Summary{Total: 3, Pending: 1, Accepted: 1}, got)
}
