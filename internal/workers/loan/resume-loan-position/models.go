// internal/workers/loan/resume-loan-position/models.go
package resumeloanposition

import "staff-loans/internal/models"

type Input struct {
	Application *models.LoanApplication `json:"application"`
}

type Output struct {
	Resumable  bool   `json:"resumable"`
	ResumeStep int    `json:"resumeStep"`
	StepName   string `json:"resumeStepName"`
}

const inputSchemaJSON = `{
	"type": "object",
	"required": ["application"],
	"properties": {
		"application": {"type": "object"}
	}
}`
