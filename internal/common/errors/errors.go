// internal/common/errors/errors.go
package errors

import (
	goerrors "errors"
	"fmt"
	"strings"
	"time"
)

type ErrorCode string

const (
	ErrCodeStepValidationFailed  ErrorCode = "STEP_VALIDATION_FAILED"
	ErrCodeStepPersistenceFailed ErrorCode = "STEP_PERSISTENCE_FAILED"
	ErrCodeGuarantorActionFailed ErrorCode = "GUARANTOR_ACTION_FAILED"
	ErrCodeDecisionAlreadyTaken  ErrorCode = "GUARANTOR_DECISION_ALREADY_TAKEN"
	ErrCodeDecisionLocked        ErrorCode = "GUARANTOR_DECISION_LOCKED"

	ErrCodeInvalidInput           ErrorCode = "INVALID_INPUT"
	ErrCodeApplicationNotFound    ErrorCode = "APPLICATION_NOT_FOUND"
	ErrCodeProductCatalogFailed   ErrorCode = "PRODUCT_CATALOG_FAILED"
	ErrCodeAffordabilityUndefined ErrorCode = "AFFORDABILITY_UNDEFINED"

	ErrCodeDatabaseConnectionFailed ErrorCode = "DATABASE_CONNECTION_FAILED"
	ErrCodeQueryExecutionFailed     ErrorCode = "QUERY_EXECUTION_FAILED"
	ErrCodeQueryTimeout             ErrorCode = "QUERY_TIMEOUT"
	ErrCodeSearchQueryFailed        ErrorCode = "SEARCH_QUERY_FAILED"

	ErrCodeInternal ErrorCode = "INTERNAL_ERROR"
)

type StandardError struct {
	Code      ErrorCode              `json:"code"`
	Message   string                 `json:"message"`
	Details   string                 `json:"details,omitempty"`
	Retryable bool                   `json:"retryable"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
}

func (e *StandardError) Error() string {
	return fmt.Sprintf("StandardError[%s]: %s", e.Code, e.Message)
}

type BPMNError struct {
	Code           string                 `json:"code"`
	Message        string                 `json:"message"`
	Details        string                 `json:"details,omitempty"`
	Retryable      bool                   `json:"retryable"`
	Retries        int                    `json:"retries"`
	ErrorVariables map[string]interface{} `json:"errorVariables,omitempty"`
}

func (e *BPMNError) Error() string {
	return fmt.Sprintf("BPMNError[%s]: %s", e.Code, e.Message)
}

func (e *BPMNError) ToErrorVariables() map[string]interface{} {
	vars := map[string]interface{}{
		"errorCode":    e.Code,
		"errorMessage": e.Message,
		"errorDetails": e.Details,
		"retryable":    e.Retryable,
	}
	for k, v := range e.ErrorVariables {
		vars[k] = v
	}
	return vars
}

func newStandard(code ErrorCode, message, details string, retryable bool) *StandardError {
	return &StandardError{
		Code:      code,
		Message:   message,
		Details:   details,
		Retryable: retryable,
		Timestamp: time.Now().UTC(),
	}
}

func NewInvalidInputError(details string) *StandardError {
	return newStandard(ErrCodeInvalidInput, "Invalid job input", details, false)
}

func NewApplicationNotFoundError(applicationID string) *StandardError {
	return newStandard(ErrCodeApplicationNotFound, "Loan application not found",
		fmt.Sprintf("applicationId: %s", applicationID), false)
}

func NewDecisionAlreadyTakenError(loanID string) *StandardError {
	return newStandard(ErrCodeDecisionAlreadyTaken, "Guarantor decision already recorded",
		fmt.Sprintf("loanId: %s", loanID), false)
}

func NewDecisionLockedError(loanID string) *StandardError {
	return newStandard(ErrCodeDecisionLocked, "Guarantor decision in progress",
		fmt.Sprintf("loanId: %s", loanID), true)
}

func NewProductCatalogFailedError(err error) *StandardError {
	return newStandard(ErrCodeProductCatalogFailed, "Loan product catalog unavailable", err.Error(), true)
}

func NewAffordabilityUndefinedError(details string) *StandardError {
	return newStandard(ErrCodeAffordabilityUndefined, "Affordability ceiling is undefined", details, false)
}

func NewDatabaseConnectionFailedError(err error) *StandardError {
	return newStandard(ErrCodeDatabaseConnectionFailed, "Database connection error", err.Error(), true)
}

func NewQueryExecutionFailedError(operation string, err error) *StandardError {
	return newStandard(ErrCodeQueryExecutionFailed, "Database query execution error",
		fmt.Sprintf("operation: %s, error: %s", operation, err.Error()), true)
}

func NewQueryTimeoutError(operation string) *StandardError {
	return newStandard(ErrCodeQueryTimeout, "Database query timeout",
		fmt.Sprintf("operation: %s", operation), true)
}

func NewSearchQueryFailedError(index string, err error) *StandardError {
	return newStandard(ErrCodeSearchQueryFailed, "Elasticsearch query error",
		fmt.Sprintf("index: %s, error: %s", index, err.Error()), true)
}

var BPMNErrorMapping = map[ErrorCode]string{
	ErrCodeStepValidationFailed:     "STEP_VALIDATION_FAILED",
	ErrCodeStepPersistenceFailed:    "STEP_PERSISTENCE_FAILED",
	ErrCodeGuarantorActionFailed:    "GUARANTOR_ACTION_FAILED",
	ErrCodeDecisionAlreadyTaken:     "GUARANTOR_DECISION_ALREADY_TAKEN",
	ErrCodeDecisionLocked:           "GUARANTOR_DECISION_LOCKED",
	ErrCodeInvalidInput:             "INVALID_INPUT",
	ErrCodeApplicationNotFound:      "APPLICATION_NOT_FOUND",
	ErrCodeProductCatalogFailed:     "PRODUCT_CATALOG_FAILED",
	ErrCodeAffordabilityUndefined:   "AFFORDABILITY_UNDEFINED",
	ErrCodeDatabaseConnectionFailed: "DATABASE_CONNECTION_FAILED",
	ErrCodeQueryExecutionFailed:     "QUERY_EXECUTION_FAILED",
	ErrCodeQueryTimeout:             "QUERY_TIMEOUT",
	ErrCodeSearchQueryFailed:        "SEARCH_QUERY_FAILED",
}

func GetRetryCount(code ErrorCode) int {
	switch code {
	case ErrCodeStepPersistenceFailed,
		ErrCodeGuarantorActionFailed,
		ErrCodeProductCatalogFailed,
		ErrCodeDatabaseConnectionFailed,
		ErrCodeQueryExecutionFailed,
		ErrCodeSearchQueryFailed:
		return 3

	case ErrCodeQueryTimeout, ErrCodeDecisionLocked:
		return 2

	default:
		return 0 // business errors: no retry
	}
}

func ConvertToBPMNError(stdErr *StandardError) *BPMNError {
	bpmnCode, exists := BPMNErrorMapping[stdErr.Code]
	if !exists {
		bpmnCode = string(stdErr.Code)
	}

	retries := GetRetryCount(stdErr.Code)
	if !stdErr.Retryable {
		retries = 0
	}

	vars := map[string]interface{}{
		"originalErrorCode": string(stdErr.Code),
		"timestamp":         stdErr.Timestamp.Format(time.RFC3339),
	}
	for k, v := range stdErr.Metadata {
		vars[k] = v
	}

	return &BPMNError{
		Code:           bpmnCode,
		Message:        stdErr.Message,
		Details:        stdErr.Details,
		Retryable:      stdErr.Retryable,
		Retries:        retries,
		ErrorVariables: vars,
	}
}

// Normalize maps any error raised by the loan core onto a StandardError.
// Domain errors take precedence over a StandardError they wrap.
func Normalize(err error) *StandardError {
	var validationErr *ValidationError
	if goerrors.As(err, &validationErr) {
		se := newStandard(ErrCodeStepValidationFailed, validationErr.Reason, validationErr.Error(), false)
		se.Metadata = map[string]interface{}{"step": validationErr.Step, "field": validationErr.Field}
		return se
	}

	var persistErr *StepPersistenceError
	if goerrors.As(err, &persistErr) {
		se := newStandard(ErrCodeStepPersistenceFailed, persistErr.Message(), persistErr.Error(), true)
		se.Metadata = map[string]interface{}{"step": persistErr.Step, "applicationId": persistErr.ApplicationID}
		return se
	}

	var guarantorErr *GuarantorActionError
	if goerrors.As(err, &guarantorErr) {
		se := newStandard(ErrCodeGuarantorActionFailed, "Guarantor decision could not be recorded", guarantorErr.Error(), true)
		se.Metadata = map[string]interface{}{"loanId": guarantorErr.LoanID, "action": guarantorErr.Action}
		return se
	}

	var stdErr *StandardError
	if goerrors.As(err, &stdErr) {
		return stdErr
	}

	return newStandard(ErrCodeInternal, "Unexpected error", err.Error(), false)
}

func IsRetryableErrorCode(code ErrorCode) bool {
	return GetRetryCount(code) > 0
}

func GetErrorCategory(code ErrorCode) string {
	codeStr := string(code)
	switch {
	case strings.HasPrefix(codeStr, "STEP_"):
		return "WIZARD"
	case strings.HasPrefix(codeStr, "GUARANTOR_"):
		return "GUARANTOR"
	case strings.Contains(codeStr, "DATABASE") || strings.Contains(codeStr, "QUERY"):
		return "DATABASE"
	case strings.Contains(codeStr, "SEARCH") || strings.Contains(codeStr, "CATALOG"):
		return "CATALOG"
	case strings.Contains(codeStr, "INVALID") || strings.Contains(codeStr, "NOT_FOUND"):
		return "VALIDATION"
	default:
		return "OTHER"
	}
}
