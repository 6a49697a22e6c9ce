// internal/models/guarantor.go
package models

import (
	"strings"

	"github.com/shopspring/decimal"
)

// Person is a staff member offered as guarantor or approver.
type Person struct {
	ID        string `json:"id"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
}

func (p Person) FullName() string {
	return strings.TrimSpace(p.FirstName + " " + p.LastName)
}

type GuarantorDecision string

const (
	DecisionPending  GuarantorDecision = ""
	DecisionAccepted GuarantorDecision = "ACCEPTED"
	DecisionDeclined GuarantorDecision = "DECLINED"
)

func (d GuarantorDecision) Terminal() bool {
	return d == DecisionAccepted || d == DecisionDeclined
}

// GuarantorLoan is a loan seen from the guarantor's side.
type GuarantorLoan struct {
	LoanID            string            `json:"loanId"`
	OwnerName         string            `json:"ownerName"`
	LoanProductName   string            `json:"loanProductName"`
	LoanAmount        decimal.Decimal   `json:"loanAmount"`
	Purpose           string            `json:"purpose"`
	GuarantorDecision GuarantorDecision `json:"guarantorDecision,omitempty"`
}
