// Package store declares the persistence contract the loan workflow depends
// on. Realizations live in sub-packages.
package store

import (
	"context"
	"errors"

	"staff-loans/internal/models"

	"github.com/shopspring/decimal"
)

var (
	ErrNotFound        = errors.New("NOT_FOUND")
	ErrAlreadyDecided  = errors.New("GUARANTOR_DECISION_ALREADY_TAKEN")
	ErrNotGuarantor    = errors.New("NOT_LOAN_GUARANTOR")
	ErrInvalidDecision = errors.New("INVALID_DECISION")
)

// ApplicationStore is everything the wizard and guarantor workflow need from
// the backend.
type ApplicationStore interface {
	// SubmitApplicationStep2 creates the application on first call and
	// updates it when payload.ApplicationID is set.
	SubmitApplicationStep2(ctx context.Context, payload Step2Payload) (string, error)
	SubmitApplicationStep3(ctx context.Context, applicationID string, payload Step3Payload) error
	SubmitApplicationStep4(ctx context.Context, applicationID string, payload Step4Payload) error
	AcceptTerms(ctx context.Context, applicationID string) error
	FetchApplicationDetails(ctx context.Context, applicationID string) (*models.LoanApplication, error)
	FetchLoanProducts(ctx context.Context, filter ProductFilter) ([]models.LoanProduct, error)
	FetchGuarantorCandidates(ctx context.Context, staffID string) ([]models.Person, error)
	DecideGuarantor(ctx context.Context, loanID, staffID string, decision models.GuarantorDecision) (string, error)
	FetchGuarantorLoans(ctx context.Context, staffID string) ([]models.GuarantorLoan, error)
}

// ApplicationLister feeds the loan list and dashboard.
type ApplicationLister interface {
	FetchStaffApplications(ctx context.Context, staffID string) ([]models.LoanApplication, error)
}

type ProductFilter struct {
	ClientType models.ClientType
	Query      string
}

type Step2Payload struct {
	ApplicationID       string                   `json:"applicationId,omitempty"`
	StaffID             string                   `json:"staffId"`
	LoanProductID       string                   `json:"loanProductId"`
	CurrencyID          string                   `json:"currencyId"`
	NetSalary           decimal.Decimal          `json:"netSalary"`
	TenureDuration      int                      `json:"tenureDuration"`
	LoanAmount          decimal.Decimal          `json:"loanAmount"`
	RepaymentSchedule   models.RepaymentSchedule `json:"repaymentSchedule"`
	RepaymentAccount    string                   `json:"repaymentAccount"`
	DisbursementAccount string                   `json:"disbursementAccount"`
}

type Step3Payload struct {
	Purpose           string          `json:"purpose"`
	GuarantorRequired bool            `json:"guarantorRequired"`
	GuarantorID       string          `json:"guarantorId,omitempty"`
	AnnualBasicSalary decimal.Decimal `json:"annualBasicSalary"`
	ApproverID        string          `json:"approverId"`
}

type Step4Payload struct {
	LoanAgreementAccepted   bool              `json:"loanAgreementAccepted"`
	CurrentOrSavingsAccount string            `json:"currentOrSavingsAccount"`
	SupportingDocuments     map[string]string `json:"supportingDocuments"`
	SecurityDetails         string            `json:"securityDetails"`
}

func NewStep2Payload(app *models.LoanApplication) Step2Payload {
	return Step2Payload{
		ApplicationID:       app.ApplicationID,
		StaffID:             app.StaffID,
		LoanProductID:       app.LoanProductID,
		CurrencyID:          app.CurrencyID,
		NetSalary:           app.NetSalary,
		TenureDuration:      app.TenureDuration,
		LoanAmount:          app.LoanAmount,
		RepaymentSchedule:   app.RepaymentSchedule,
		RepaymentAccount:    app.RepaymentAccount,
		DisbursementAccount: app.DisbursementAccount,
	}
}

// NewStep3Payload never carries a guarantor when none is required.
func NewStep3Payload(app *models.LoanApplication) Step3Payload {
	p := Step3Payload{
		Purpose:           app.Purpose,
		GuarantorRequired: app.GuarantorRequired,
		AnnualBasicSalary: app.AnnualBasicSalary,
		ApproverID:        app.ApproverID,
	}
	if app.GuarantorRequired {
		p.GuarantorID = app.GuarantorID
	}
	return p
}

// NewStep4Payload takes the already-filtered document map.
func NewStep4Payload(app *models.LoanApplication, docs map[string]string) Step4Payload {
	return Step4Payload{
		LoanAgreementAccepted:   app.LoanAgreementAccepted,
		CurrentOrSavingsAccount: app.CurrentOrSavingsAccount,
		SupportingDocuments:     docs,
		SecurityDetails:         app.SecurityDetails,
	}
}
