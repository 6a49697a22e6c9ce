// internal/common/errors/domain.go
package errors

import "fmt"

// ValidationError blocks a wizard transition. It is recovered by re-prompting
// and never clears entered fields.
type ValidationError struct {
	Step   int    `json:"step"`
	Field  string `json:"field"`
	Reason string `json:"reason"`
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("step %d: %s", e.Step, e.Reason)
	}
	return fmt.Sprintf("step %d: %s: %s", e.Step, e.Field, e.Reason)
}

func NewValidationError(step int, field, reason string) *ValidationError {
	return &ValidationError{Step: step, Field: field, Reason: reason}
}

// StepPersistenceError means the store rejected or never received a step
// payload. The workflow stays on Step with its data intact.
type StepPersistenceError struct {
	Step          int
	ApplicationID string
	Err           error
}

func (e *StepPersistenceError) Error() string {
	return fmt.Sprintf("step %d: persist application %q: %v", e.Step, e.ApplicationID, e.Err)
}

func (e *StepPersistenceError) Unwrap() error { return e.Err }

var persistenceMessages = map[int]string{
	2: "Failed to submit application. Please try again.",
	3: "Failed to submit guarantor/approver details. Please try again.",
	4: "Failed to submit supporting documents. Please try again.",
	5: "Failed to submit terms acceptance. Please try again.",
}

// Message is the inline text shown on the failing step.
func (e *StepPersistenceError) Message() string {
	if msg, ok := persistenceMessages[e.Step]; ok {
		return msg
	}
	return "Failed to save this step. Please try again."
}

// GuarantorActionError is returned when an accept/decline could not be
// committed. The loan stays pending.
type GuarantorActionError struct {
	LoanID string
	Action string
	Err    error
}

func (e *GuarantorActionError) Error() string {
	return fmt.Sprintf("guarantor %s on loan %q: %v", e.Action, e.LoanID, e.Err)
}

func (e *GuarantorActionError) Unwrap() error { return e.Err }
