// internal/workers/loan/score-loan-completeness/models.go
package scoreloancompleteness

import (
	"staff-loans/internal/loan/completeness"
	"staff-loans/internal/models"
)

type Input struct {
	Application *models.LoanApplication `json:"application"`
}

type Output struct {
	Score     models.CompletenessScore `json:"completeness"`
	Percent   int                      `json:"completenessPercent"`
	Indicator completeness.Indicator   `json:"completenessIndicator"`
	Complete  bool                     `json:"applicationComplete"`
	Resumable bool                     `json:"resumable"`
}

const inputSchemaJSON = `{
	"type": "object",
	"required": ["application"],
	"properties": {
		"application": {"type": "object"}
	}
}`
