// internal/workers/loan/validate-loan-step/models.go
package validateloanstep

import "staff-loans/internal/models"

type Input struct {
	Step        int                     `json:"step"`
	Application *models.LoanApplication `json:"application"`
	// Candidates is the guarantor/approver list offered at step 3. When it is
	// absent membership is not checked.
	Candidates []models.Person `json:"candidates,omitempty"`
}

type Output struct {
	Valid    bool   `json:"stepValid"`
	Step     int    `json:"step"`
	StepName string `json:"stepName"`
	Field    string `json:"invalidField,omitempty"`
	Reason   string `json:"validationMessage,omitempty"`
	NextStep int    `json:"nextStep"`
}

const inputSchemaJSON = `{
	"type": "object",
	"required": ["step", "application"],
	"properties": {
		"step": {"type": "integer", "minimum": 1, "maximum": 6},
		"application": {"type": "object"},
		"candidates": {
			"type": ["array", "null"],
			"items": {
				"type": "object",
				"required": ["id"],
				"properties": {"id": {"type": "string", "minLength": 1}}
			}
		}
	}
}`
