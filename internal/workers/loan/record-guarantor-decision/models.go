// internal/workers/loan/record-guarantor-decision/models.go
package recordguarantordecision

import (
	"time"

	"staff-loans/internal/models"
)

type Input struct {
	LoanID          string                   `json:"loanId"`
	StaffID         string                   `json:"guarantorStaffId"`
	Decision        models.GuarantorDecision `json:"decision"`
	LoanProductName string                   `json:"loanProductName,omitempty"`
	// Signature is the guarantor's raster signature, base64 encoded in the
	// process variables. Only an acceptance needs one.
	Signature []byte `json:"signature,omitempty"`
}

type Output struct {
	LoanID    string                   `json:"loanId"`
	Decision  models.GuarantorDecision `json:"guarantorDecision"`
	Message   string                   `json:"guarantorMessage"`
	DecidedAt time.Time                `json:"guarantorDecidedAt"`
}

const inputSchemaJSON = `{
	"type": "object",
	"required": ["loanId", "guarantorStaffId", "decision"],
	"properties": {
		"loanId": {"type": "string", "minLength": 1},
		"guarantorStaffId": {"type": "string", "minLength": 1},
		"decision": {"enum": ["ACCEPTED", "DECLINED"]},
		"loanProductName": {"type": "string"},
		"signature": {"type": "string"}
	}
}`
