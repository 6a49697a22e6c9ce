package wizard

import (
	"staff-loans/internal/loan/completeness"
	"staff-loans/internal/loan/documents"
	"staff-loans/internal/models"
)

// ResumePosition is the step a partially filled, persisted application
// re-enters the wizard at. It never returns less than StepGuarantorApprover.
func ResumePosition(app *models.LoanApplication, reqs []documents.Requirement) Step {
	if app == nil {
		return StepGuarantorApprover
	}

	var step Step
	switch {
	case blank(app.Purpose),
		app.GuarantorRequired && blank(app.GuarantorID),
		!app.AnnualBasicSalary.IsPositive(),
		blank(app.ApproverID):
		step = StepGuarantorApprover
	case blank(app.CurrentOrSavingsAccount),
		blank(app.SecurityDetails),
		len(documents.MissingRequired(reqs, app.SupportingDocuments)) > 0,
		!app.LoanAgreementAccepted:
		step = StepDocuments
	case !app.TermsAndConditionsAccepted:
		step = StepTerms
	default:
		step = StepReview
	}

	if step < StepGuarantorApprover {
		step = StepGuarantorApprover
	}
	return step
}

// CanResume reports whether the loan list should offer to continue app.
func CanResume(app *models.LoanApplication) bool {
	if app == nil || blank(app.ApplicationID) {
		return false
	}
	return !completeness.IsComplete(completeness.ScoreApplication(app))
}
