package httpstore

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"

	"staff-loans/internal/models"
	"staff-loans/internal/store"

	"github.com/shopspring/decimal"
)

// id accepts both the numeric ids the backend emits and string ids.
type id string

func (i *id) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*i = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*i = id(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("id: %w", err)
	}
	*i = id(n.String())
	return nil
}

// number renders money the way the backend expects: a bare JSON number.
func number(d decimal.Decimal) json.Number {
	return json.Number(d.String())
}

// idValue sends numeric ids as numbers and anything else as a string.
func idValue(s string) interface{} {
	if s == "" {
		return nil
	}
	if _, err := decimal.NewFromString(s); err == nil {
		return json.Number(s)
	}
	return s
}

type step2Request struct {
	ApplicationID       interface{} `json:"applicationId"`
	StaffID             interface{} `json:"staffId"`
	LoanProductID       interface{} `json:"loanProductId"`
	CurrencyID          interface{} `json:"currencyId"`
	NetSalary           json.Number `json:"netSalary"`
	TenureDuration      int         `json:"tenureDuration"`
	LoanAmount          json.Number `json:"loanAmount"`
	RepaymentSchedule   string      `json:"repaymentSchedule"`
	RepaymentAccount    string      `json:"repaymentAccount"`
	DisbursementAccount string      `json:"disbursementAccount"`
}

func newStep2Request(p store.Step2Payload) step2Request {
	return step2Request{
		ApplicationID:       idValue(p.ApplicationID),
		StaffID:             idValue(p.StaffID),
		LoanProductID:       idValue(p.LoanProductID),
		CurrencyID:          idValue(p.CurrencyID),
		NetSalary:           number(p.NetSalary),
		TenureDuration:      p.TenureDuration,
		LoanAmount:          number(p.LoanAmount),
		RepaymentSchedule:   string(p.RepaymentSchedule),
		RepaymentAccount:    p.RepaymentAccount,
		DisbursementAccount: p.DisbursementAccount,
	}
}

type step2Response struct {
	ApplicationID id `json:"applicationId"`
}

type step3Request struct {
	Purpose           string      `json:"purpose"`
	GuarantorRequired bool        `json:"guarantorRequired"`
	GuarantorID       interface{} `json:"guarantorId"`
	AnnualBasicSalary json.Number `json:"annualBasicSalary"`
	ApproverID        interface{} `json:"approverId"`
}

func newStep3Request(p store.Step3Payload) step3Request {
	r := step3Request{
		Purpose:           p.Purpose,
		GuarantorRequired: p.GuarantorRequired,
		AnnualBasicSalary: number(p.AnnualBasicSalary),
		ApproverID:        idValue(p.ApproverID),
	}
	if p.GuarantorRequired {
		r.GuarantorID = idValue(p.GuarantorID)
	}
	return r
}

type personResponse struct {
	ID        id     `json:"id"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
}

type productResponse struct {
	ID           id              `json:"id"`
	Name         string          `json:"name"`
	Description  string          `json:"description"`
	ClientType   string          `json:"clientType"`
	ProductType  string          `json:"productType"`
	CurrencyCode string          `json:"currencyCode"`
	MinAmount    decimal.Decimal `json:"minAmount"`
	MaxAmount    decimal.Decimal `json:"maxAmount"`
}

func (p productResponse) model() models.LoanProduct {
	return models.LoanProduct{
		ID:           string(p.ID),
		Name:         p.Name,
		Description:  p.Description,
		ClientType:   models.ClientType(p.ClientType),
		ProductType:  models.ProductType(p.ProductType),
		CurrencyCode: p.CurrencyCode,
		MinAmount:    p.MinAmount,
		MaxAmount:    p.MaxAmount,
	}
}

type guarantorLoanResponse struct {
	LoanID            id              `json:"loanId"`
	StaffFirstName    string          `json:"staffFirstName"`
	StaffLastName     string          `json:"staffLastName"`
	LoanProductName   string          `json:"loanProductName"`
	LoanAmount        decimal.Decimal `json:"loanAmount"`
	Purpose           string          `json:"purpose"`
	GuarantorDecision *string         `json:"guarantorDecision"`
}

func (g guarantorLoanResponse) model() models.GuarantorLoan {
	loan := models.GuarantorLoan{
		LoanID:          string(g.LoanID),
		OwnerName:       models.Person{FirstName: g.StaffFirstName, LastName: g.StaffLastName}.FullName(),
		LoanProductName: g.LoanProductName,
		LoanAmount:      g.LoanAmount,
		Purpose:         g.Purpose,
	}
	if g.GuarantorDecision != nil {
		loan.GuarantorDecision = models.GuarantorDecision(*g.GuarantorDecision)
	}
	return loan
}

type decisionResponse struct {
	Message string `json:"message"`
}

// applicationResponse is the loan-details and staff details shape.
type applicationResponse struct {
	ApplicationID              id                `json:"applicationId"`
	StaffID                    id                `json:"staffId"`
	LoanProductID              id                `json:"loanProductId"`
	LoanProductName            string            `json:"loanProductName"`
	ProductType                string            `json:"productType"`
	CurrencyID                 id                `json:"currencyId"`
	NetSalary                  decimal.Decimal   `json:"netSalary"`
	TenureDuration             int               `json:"tenureDuration"`
	LoanAmount                 decimal.Decimal   `json:"loanAmount"`
	RepaymentSchedule          string            `json:"repaymentSchedule"`
	RepaymentAccount           string            `json:"repaymentAccount"`
	DisbursementAccount        string            `json:"disbursementAccount"`
	Purpose                    string            `json:"purpose"`
	GuarantorRequired          bool              `json:"guarantorRequired"`
	GuarantorID                id                `json:"guarantorId"`
	AnnualBasicSalary          decimal.Decimal   `json:"annualBasicSalary"`
	ApproverID                 id                `json:"approverId"`
	LoanAgreementAccepted      bool              `json:"loanAgreementAccepted"`
	CurrentOrSavingsAccount    string            `json:"currentOrSavingsAccount"`
	SupportingDocuments        map[string]string `json:"supportingDocuments"`
	SecurityDetails            string            `json:"securityDetails"`
	TermsAndConditionsAccepted bool              `json:"termsAndConditionsAccepted"`
	Status                     string            `json:"status"`
	CreatedAt                  *time.Time        `json:"createdAt"`
}

func (a applicationResponse) model() *models.LoanApplication {
	return &models.LoanApplication{
		ApplicationID:              string(a.ApplicationID),
		StaffID:                    string(a.StaffID),
		LoanProductID:              string(a.LoanProductID),
		LoanProductName:            a.LoanProductName,
		ProductType:                models.ProductType(a.ProductType),
		CurrencyID:                 string(a.CurrencyID),
		NetSalary:                  a.NetSalary,
		TenureDuration:             a.TenureDuration,
		LoanAmount:                 a.LoanAmount,
		RepaymentSchedule:          models.RepaymentSchedule(a.RepaymentSchedule),
		RepaymentAccount:           a.RepaymentAccount,
		DisbursementAccount:        a.DisbursementAccount,
		Purpose:                    a.Purpose,
		GuarantorRequired:          a.GuarantorRequired,
		GuarantorID:                string(a.GuarantorID),
		AnnualBasicSalary:          a.AnnualBasicSalary,
		ApproverID:                 string(a.ApproverID),
		LoanAgreementAccepted:      a.LoanAgreementAccepted,
		CurrentOrSavingsAccount:    a.CurrentOrSavingsAccount,
		SupportingDocuments:        a.SupportingDocuments,
		SecurityDetails:            a.SecurityDetails,
		TermsAndConditionsAccepted: a.TermsAndConditionsAccepted,
		Status:                     models.ApplicationStatus(a.Status),
		CreatedAt:                  a.CreatedAt,
	}
}
