// Package completeness holds the single completeness formula used by the
// wizard review step, the loan list and the dashboard.
package completeness

import (
	"strings"

	"staff-loans/internal/loan/documents"
	"staff-loans/internal/models"
)

const (
	MainFieldsPoints = 30.0
	AgreementsPoints = 30.0
	DocumentsPoints  = 40.0
)

// Score computes the three-band completeness of app against reqs.
func Score(app *models.LoanApplication, reqs []documents.Requirement) models.CompletenessScore {
	if app == nil {
		return models.CompletenessScore{}
	}

	var score models.CompletenessScore
	score.MainFieldsComplete = mainFieldsComplete(app)
	score.AgreementsComplete = app.TermsAndConditionsAccepted && app.LoanAgreementAccepted
	score.DocumentScore = documentScore(reqs, app.SupportingDocuments)

	overall := score.DocumentScore
	if score.MainFieldsComplete {
		overall += MainFieldsPoints
	}
	if score.AgreementsComplete {
		overall += AgreementsPoints
	}
	score.Overall = clamp(overall, 0, 100)

	return score
}

// ScoreApplication resolves requirements from the application's own product
// type before scoring.
func ScoreApplication(app *models.LoanApplication) models.CompletenessScore {
	if app == nil {
		return models.CompletenessScore{}
	}
	return Score(app, documents.Resolve(app.ProductType))
}

// IsComplete reports a full score; only incomplete applications can be resumed.
func IsComplete(score models.CompletenessScore) bool {
	return score.Overall >= 100
}

func mainFieldsComplete(app *models.LoanApplication) bool {
	return present(app.LoanProductName) &&
		app.LoanAmount.IsPositive() &&
		present(app.RepaymentAccount) &&
		present(app.DisbursementAccount) &&
		present(app.Purpose) &&
		present(app.SecurityDetails)
}

// documentScore gives each required document a full weight and each optional
// one half a weight. Keys outside reqs never count.
func documentScore(reqs []documents.Requirement, docs map[string]string) float64 {
	required, optional := 0, 0
	for _, r := range reqs {
		if r.Required {
			required++
		} else {
			optional++
		}
	}

	denominator := float64(required) + 0.5*float64(optional)
	if denominator == 0 {
		return 0
	}
	weight := DocumentsPoints / denominator

	total := 0.0
	for _, r := range reqs {
		if !documents.Present(docs, r.Key) {
			continue
		}
		if r.Required {
			total += weight
		} else {
			total += weight / 2
		}
	}

	return clamp(total, 0, DocumentsPoints)
}

func present(s string) bool {
	return strings.TrimSpace(s) != ""
}

func clamp(value, min, max float64) float64 {
	if value < min {
		return min
	}
	if value > max {
		return max
	}
	return value
}
