package wizard

import (
	"fmt"
	"strings"

	apperrors "staff-loans/internal/common/errors"
	"staff-loans/internal/loan/documents"
	"staff-loans/internal/models"
)

// Facts is the reference data a step is validated against.
type Facts struct {
	Requirements []documents.Requirement
	// Candidates doubles as guarantor and approver list. nil means the list
	// is unknown and membership is not checked.
	Candidates []models.Person
}

// ValidateStep checks the preconditions to leave step. It returns the first
// failure as a *errors.ValidationError.
func ValidateStep(step Step, app *models.LoanApplication, facts Facts) error {
	if app == nil {
		return apperrors.NewValidationError(int(step), "", "No application data.")
	}

	switch step {
	case StepProductSelect:
		return validateProduct(app)
	case StepApplicationDetails:
		return validateDetails(app)
	case StepGuarantorApprover:
		return validateGuarantorApprover(app, facts.Candidates)
	case StepDocuments:
		return validateDocuments(app, facts.Requirements)
	case StepTerms:
		if !app.TermsAndConditionsAccepted {
			return fail(StepTerms, "termsAndConditionsAccepted", "You must accept the terms and conditions.")
		}
		return nil
	case StepReview:
		return nil
	default:
		return fmt.Errorf("%w: step %d", ErrInvalidState, step)
	}
}

func validateProduct(app *models.LoanApplication) error {
	if app.SelectedProduct == nil && blank(app.LoanProductID) {
		return fail(StepProductSelect, "selectedProduct", "Please select a loan product.")
	}
	return nil
}

func validateDetails(app *models.LoanApplication) error {
	const reason = "Please fill in all required fields."

	checks := []struct {
		field string
		ok    bool
	}{
		{"currencyId", !blank(app.CurrencyID)},
		{"netSalary", app.NetSalary.IsPositive()},
		{"tenureDuration", app.TenureDuration > 0},
		{"loanAmount", app.LoanAmount.IsPositive()},
		{"repaymentSchedule", app.RepaymentSchedule.Valid()},
		{"repaymentAccount", !blank(app.RepaymentAccount)},
		{"disbursementAccount", !blank(app.DisbursementAccount)},
	}
	for _, c := range checks {
		if !c.ok {
			return fail(StepApplicationDetails, c.field, reason)
		}
	}
	return nil
}

func validateGuarantorApprover(app *models.LoanApplication, candidates []models.Person) error {
	if blank(app.Purpose) {
		return fail(StepGuarantorApprover, "purpose", "Please enter the purpose of the loan.")
	}
	if app.GuarantorRequired {
		if blank(app.GuarantorID) {
			return fail(StepGuarantorApprover, "guarantorId", "Please select a guarantor.")
		}
		if candidates != nil && !hasCandidate(candidates, app.GuarantorID) {
			return fail(StepGuarantorApprover, "guarantorId", "Please select a guarantor from the list.")
		}
	}
	if !app.AnnualBasicSalary.IsPositive() {
		return fail(StepGuarantorApprover, "annualBasicSalary", "Please enter a valid annual basic salary.")
	}
	if blank(app.ApproverID) {
		return fail(StepGuarantorApprover, "approverId", "Please select an approver.")
	}
	if candidates != nil && !hasCandidate(candidates, app.ApproverID) {
		return fail(StepGuarantorApprover, "approverId", "Please select an approver from the list.")
	}
	return nil
}

// validateDocuments checks the account fields, every required document and
// finally the loan agreement. The agreement is required here because it is
// saved with this step's payload, so a stored application that passed step 4
// always resumes at step 5.
func validateDocuments(app *models.LoanApplication, reqs []documents.Requirement) error {
	if blank(app.CurrentOrSavingsAccount) {
		return fail(StepDocuments, "currentOrSavingsAccount", "Please fill in the current account and security details.")
	}
	if blank(app.SecurityDetails) {
		return fail(StepDocuments, "securityDetails", "Please fill in the current account and security details.")
	}
	if missing := documents.MissingRequired(reqs, app.SupportingDocuments); len(missing) > 0 {
		return fail(StepDocuments, missing[0].Key, fmt.Sprintf("Please upload %s.", documents.DisplayName(missing[0])))
	}
	if !app.LoanAgreementAccepted {
		return fail(StepDocuments, "loanAgreementAccepted", "You must accept the loan agreement.")
	}
	return nil
}

func hasCandidate(candidates []models.Person, id string) bool {
	for _, c := range candidates {
		if c.ID == id {
			return true
		}
	}
	return false
}

func fail(step Step, field, reason string) error {
	return apperrors.NewValidationError(int(step), field, reason)
}

func blank(s string) bool {
	return strings.TrimSpace(s) == ""
}
