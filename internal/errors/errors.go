// Package errors defines the gateway's categorized error taxonomy and its
// mapping onto HTTP status codes. Expected business outcomes (unsupported
// token, insufficient balance) and infrastructure failures (RPC down) are
// kept apart so callers can tell them apart without string matching.
package errors

import (
	"fmt"
	"math/big"
	"net/http"

	"github.com/Moses-main/v0-cross-border-remittance-service-sub000/internal/types"
)

// ErrorCategory groups errors by where they arise in the submission pipeline.
type ErrorCategory string

const (
	// CategoryValidation covers preflight failures caught before any write.
	CategoryValidation ErrorCategory = "validation"
	// CategoryPlanning covers blocking read failures during plan construction.
	CategoryPlanning ErrorCategory = "planning"
	// CategorySubmission covers failures after zero or more calls were issued.
	CategorySubmission ErrorCategory = "submission"
	// CategoryHistory covers required-read failures during reconciliation.
	CategoryHistory ErrorCategory = "history"
	// CategoryChain covers raw chain transport failures.
	CategoryChain ErrorCategory = "chain"
	// CategoryStorage covers database and cache failures.
	CategoryStorage ErrorCategory = "storage"
	// CategoryUserInput covers malformed API input.
	CategoryUserInput ErrorCategory = "user_input"
)

// Error codes surfaced through the API.
const (
	CodeUnsupportedToken           = "UNSUPPORTED_TOKEN"
	CodeTokenNotAcceptedByContract = "TOKEN_NOT_ACCEPTED_BY_CONTRACT"
	CodeInsufficientBalance        = "INSUFFICIENT_BALANCE"
	CodeInvalidAddress             = "INVALID_ADDRESS"
	CodeInvalidAmount              = "INVALID_AMOUNT"
	CodePlanningBlocked            = "PLANNING_BLOCKED"
	CodeUserRejected               = "USER_REJECTED"
	CodeInsufficientGas            = "INSUFFICIENT_GAS"
	CodeReverted                   = "REVERTED"
	CodeConfirmationTimeout        = "CONFIRMATION_TIMEOUT"
	CodeSubmissionInProgress       = "SUBMISSION_IN_PROGRESS"
	CodeRequiredReadFailed         = "REQUIRED_READ_FAILED"
	CodeNotFound                   = "NOT_FOUND"
	CodeInternal                   = "INTERNAL_ERROR"
	CodeUnknown                    = "UNKNOWN"
)

// CategorizedError carries a category, an API code, a human-readable message
// and the raw cause for diagnostics. No failure is reduced to a generic
// message without preserving the original classification.
type CategorizedError struct {
	Category   ErrorCategory
	StatusCode int
	Code       string
	Message    string
	Details    map[string]interface{}
	Cause      error
}

func (e *CategorizedError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause.
func (e *CategorizedError) Unwrap() error {
	return e.Cause
}

// ToServiceError converts the error into the API response shape.
func (e *CategorizedError) ToServiceError() *types.ServiceError {
	return &types.ServiceError{
		Code:    e.Code,
		Message: e.Message,
		Details: e.Details,
	}
}

// Validation errors: always caught before any write, surfaced with the
// offending field.

// NewUnsupportedTokenError reports a token symbol absent from the registry.
func NewUnsupportedTokenError(symbol string) *CategorizedError {
	return &CategorizedError{
		Category:   CategoryValidation,
		StatusCode: http.StatusBadRequest,
		Code:       CodeUnsupportedToken,
		Message:    fmt.Sprintf("token %q is not supported by this gateway", symbol),
		Details:    map[string]interface{}{"token": symbol},
	}
}

// NewTokenNotAcceptedError reports a token the gateway knows but the contract
// rejects. Distinct from UNSUPPORTED_TOKEN: it typically signals an
// address/deployment mismatch rather than a bad user choice.
func NewTokenNotAcceptedError(symbol, address string) *CategorizedError {
	return &CategorizedError{
		Category:   CategoryValidation,
		StatusCode: http.StatusUnprocessableEntity,
		Code:       CodeTokenNotAcceptedByContract,
		Message:    fmt.Sprintf("token %q at %s is not accepted by the remittance contract", symbol, address),
		Details:    map[string]interface{}{"token": symbol, "address": address},
	}
}

// NewInsufficientBalanceError carries required and available amounts in raw
// token units.
func NewInsufficientBalanceError(required, available *big.Int) *CategorizedError {
	return &CategorizedError{
		Category:   CategoryValidation,
		StatusCode: http.StatusUnprocessableEntity,
		Code:       CodeInsufficientBalance,
		Message:    "sender balance is below the requested principal",
		Details: map[string]interface{}{
			"requiredUnits":  required.String(),
			"availableUnits": available.String(),
		},
	}
}

// NewInvalidAddressError reports a malformed or disallowed address field.
func NewInvalidAddressError(field, value string) *CategorizedError {
	return &CategorizedError{
		Category:   CategoryValidation,
		StatusCode: http.StatusBadRequest,
		Code:       CodeInvalidAddress,
		Message:    fmt.Sprintf("invalid %s address: %s", field, value),
		Details:    map[string]interface{}{"field": field, "value": value},
	}
}

// NewInvalidAmountError reports a non-positive or unparseable amount.
func NewInvalidAmountError(amount, reason string) *CategorizedError {
	return &CategorizedError{
		Category:   CategoryValidation,
		StatusCode: http.StatusBadRequest,
		Code:       CodeInvalidAmount,
		Message:    fmt.Sprintf("invalid amount %q: %s", amount, reason),
		Details:    map[string]interface{}{"amount": amount, "reason": reason},
	}
}

// NewPlanningBlockedError reports a required read failing during plan
// construction. No calls were issued.
func NewPlanningBlockedError(read string, cause error) *CategorizedError {
	return &CategorizedError{
		Category:   CategoryPlanning,
		StatusCode: http.StatusBadGateway,
		Code:       CodePlanningBlocked,
		Message:    fmt.Sprintf("planning blocked: required read %q failed", read),
		Details:    map[string]interface{}{"read": read},
		Cause:      cause,
	}
}

// NewSubmissionError wraps a failed call with how many calls landed before
// it. Callers need the distinction between "nothing happened" and "some
// calls landed, then it failed".
func NewSubmissionError(code string, callsCompleted, failedIndex int, cause error) *CategorizedError {
	return &CategorizedError{
		Category:   CategorySubmission,
		StatusCode: http.StatusBadGateway,
		Code:       code,
		Message:    fmt.Sprintf("submission failed at call %d after %d completed call(s)", failedIndex, callsCompleted),
		Details: map[string]interface{}{
			"callsCompleted": callsCompleted,
			"failedIndex":    failedIndex,
		},
		Cause: cause,
	}
}

// NewSubmissionBusyError reports a second submission attempted while the
// sender's previous one has not reached a terminal state.
func NewSubmissionBusyError(sender string) *CategorizedError {
	return &CategorizedError{
		Category:   CategorySubmission,
		StatusCode: http.StatusConflict,
		Code:       CodeSubmissionInProgress,
		Message:    fmt.Sprintf("a submission for %s is already in flight", sender),
		Details:    map[string]interface{}{"sender": sender},
	}
}

// NewRequiredReadFailedError reports a non-degradable history read failing.
func NewRequiredReadFailedError(read string, cause error) *CategorizedError {
	return &CategorizedError{
		Category:   CategoryHistory,
		StatusCode: http.StatusBadGateway,
		Code:       CodeRequiredReadFailed,
		Message:    fmt.Sprintf("history read %q failed", read),
		Details:    map[string]interface{}{"read": read},
		Cause:      cause,
	}
}

// NewNotFoundError reports a missing resource.
func NewNotFoundError(resource, id string) *CategorizedError {
	return &CategorizedError{
		Category:   CategoryUserInput,
		StatusCode: http.StatusNotFound,
		Code:       CodeNotFound,
		Message:    fmt.Sprintf("%s not found: %s", resource, id),
		Details:    map[string]interface{}{"resource": resource, "id": id},
	}
}

// NewStorageError wraps a database or cache failure.
func NewStorageError(operation string, cause error) *CategorizedError {
	return &CategorizedError{
		Category:   CategoryStorage,
		StatusCode: http.StatusInternalServerError,
		Code:       CodeInternal,
		Message:    fmt.Sprintf("storage error during %s", operation),
		Details:    map[string]interface{}{"operation": operation},
		Cause:      cause,
	}
}

// NewInternalError wraps an unexpected failure.
func NewInternalError(message string, cause error) *CategorizedError {
	return &CategorizedError{
		Category:   CategoryChain,
		StatusCode: http.StatusInternalServerError,
		Code:       CodeInternal,
		Message:    message,
		Cause:      cause,
	}
}

// Categorize coerces an arbitrary error into a CategorizedError.
func Categorize(err error) *CategorizedError {
	if err == nil {
		return nil
	}
	if catErr, ok := err.(*CategorizedError); ok {
		return catErr
	}
	if svcErr, ok := err.(*types.ServiceError); ok {
		return &CategorizedError{
			Category:   CategoryUserInput,
			StatusCode: http.StatusBadRequest,
			Code:       svcErr.Code,
			Message:    svcErr.Message,
			Details:    svcErr.Details,
		}
	}
	return NewInternalError("unexpected error", err)
}

// HTTPStatus returns the status code for an error.
func HTTPStatus(err error) int {
	if catErr := Categorize(err); catErr != nil {
		return catErr.StatusCode
	}
	return http.StatusInternalServerError
}

// IsValidation reports whether the error is an expected preflight outcome.
func IsValidation(err error) bool {
	catErr := Categorize(err)
	return catErr != nil && catErr.Category == CategoryValidation
}
