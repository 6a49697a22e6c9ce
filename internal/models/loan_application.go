// internal/models/loan_application.go
package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type RepaymentSchedule string

const (
	RepaymentWeekly  RepaymentSchedule = "WEEKLY"
	RepaymentMonthly RepaymentSchedule = "MONTHLY"
	RepaymentYearly  RepaymentSchedule = "YEARLY"
)

func (r RepaymentSchedule) Valid() bool {
	switch r {
	case RepaymentWeekly, RepaymentMonthly, RepaymentYearly:
		return true
	}
	return false
}

// ApplicationStatus is owned by the backend; the wizard never writes it.
type ApplicationStatus string

const (
	StatusSubmitted   ApplicationStatus = "SUBMITTED"
	StatusUnderReview ApplicationStatus = "UNDER_REVIEW"
	StatusEscalate    ApplicationStatus = "ESCALATE"
	StatusApproved    ApplicationStatus = "APPROVED"
	StatusAccepted    ApplicationStatus = "ACCEPTED"
	StatusRejected    ApplicationStatus = "REJECTED"
	StatusDisbursed   ApplicationStatus = "DISBURSED"
	StatusOnHold      ApplicationStatus = "ON_HOLD"
	StatusClosed      ApplicationStatus = "CLOSED"
)

// LoanApplication is filled incrementally by the wizard. Field groups follow
// the step that populates them.
type LoanApplication struct {
	// step 1, staged until step 2 is persisted
	SelectedProduct *LoanProduct `json:"-"`
	LoanProductID   string       `json:"loanProductId,omitempty"`
	LoanProductName string       `json:"loanProductName,omitempty"`
	ProductType     ProductType  `json:"productType,omitempty"`

	// step 2
	CurrencyID          string            `json:"currencyId,omitempty"`
	NetSalary           decimal.Decimal   `json:"netSalary"`
	TenureDuration      int               `json:"tenureDuration,omitempty"`
	LoanAmount          decimal.Decimal   `json:"loanAmount"`
	RepaymentSchedule   RepaymentSchedule `json:"repaymentSchedule,omitempty"`
	RepaymentAccount    string            `json:"repaymentAccount,omitempty"`
	DisbursementAccount string            `json:"disbursementAccount,omitempty"`

	// step 3
	Purpose           string          `json:"purpose,omitempty"`
	GuarantorRequired bool            `json:"guarantorRequired"`
	GuarantorID       string          `json:"guarantorId,omitempty"`
	AnnualBasicSalary decimal.Decimal `json:"annualBasicSalary"`
	ApproverID        string          `json:"approverId,omitempty"`

	// step 4
	LoanAgreementAccepted   bool              `json:"loanAgreementAccepted"`
	CurrentOrSavingsAccount string            `json:"currentOrSavingsAccount,omitempty"`
	SupportingDocuments     map[string]string `json:"supportingDocuments,omitempty"`
	SecurityDetails         string            `json:"securityDetails,omitempty"`

	// step 5
	TermsAndConditionsAccepted bool `json:"termsAndConditionsAccepted"`

	// server assigned
	ApplicationID string            `json:"applicationId,omitempty"`
	StaffID       string            `json:"staffId,omitempty"`
	Status        ApplicationStatus `json:"status,omitempty"`
	CreatedAt     *time.Time        `json:"createdAt,omitempty"`
}

// Clone returns a deep copy safe to hand to readers on other goroutines.
func (a *LoanApplication) Clone() *LoanApplication {
	if a == nil {
		return nil
	}
	out := *a
	if a.SelectedProduct != nil {
		p := *a.SelectedProduct
		out.SelectedProduct = &p
	}
	if a.SupportingDocuments != nil {
		out.SupportingDocuments = make(map[string]string, len(a.SupportingDocuments))
		for k, v := range a.SupportingDocuments {
			out.SupportingDocuments[k] = v
		}
	}
	if a.CreatedAt != nil {
		t := *a.CreatedAt
		out.CreatedAt = &t
	}
	return &out
}

// SelectProduct stages product on the application.
func (a *LoanApplication) SelectProduct(p LoanProduct) {
	a.SelectedProduct = &p
	a.LoanProductID = p.ID
	a.LoanProductName = p.Name
	a.ProductType = p.ProductType
}

// CompletenessScore is derived on demand and never persisted.
type CompletenessScore struct {
	Overall            float64 `json:"overall"`
	MainFieldsComplete bool    `json:"mainFieldsComplete"`
	AgreementsComplete bool    `json:"agreementsComplete"`
	DocumentScore      float64 `json:"documentScore"`
}

// Percent is the overall score rounded for display.
func (s CompletenessScore) Percent() int {
	return int(s.Overall + 0.5)
}
