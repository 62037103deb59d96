// Package errors provides the error model shared by the match workers and
// the HTTP API, and its translation to BPMN errors.
package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// ==========================
// 1. Standard Error Types
// ==========================

// ErrorCode represents standardized internal error codes.
type ErrorCode string

const (
	ErrCodeInvalidMatchInput ErrorCode = "INVALID_MATCH_INPUT"

	ErrCodeProfileNotFound     ErrorCode = "PROFILE_NOT_FOUND"
	ErrCodeProfileLookupFailed ErrorCode = "PROFILE_LOOKUP_FAILED"

	ErrCodeLegNotFound    ErrorCode = "LEG_NOT_FOUND"
	ErrCodeLegQueryFailed ErrorCode = "LEG_QUERY_FAILED"

	ErrCodeLegSearchFailed  ErrorCode = "LEG_SEARCH_FAILED"
	ErrCodeLegSearchTimeout ErrorCode = "LEG_SEARCH_TIMEOUT"

	ErrCodeRankingFailed ErrorCode = "RANKING_FAILED"

	ErrCodeInternal        ErrorCode = "INTERNAL_ERROR"
	ErrCodeTimeout         ErrorCode = "TIMEOUT_ERROR"
	ErrCodeExternalService ErrorCode = "EXTERNAL_SERVICE_ERROR"
)

// StandardError represents a structured application error.
type StandardError struct {
	Code      ErrorCode              `json:"code"`
	Message   string                 `json:"message"`
	Details   string                 `json:"details,omitempty"`
	Retryable bool                   `json:"retryable"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
	Timestamp time.Time              `json:"timestamp"`

	cause error
}

func (e *StandardError) Error() string {
	return fmt.Sprintf("StandardError[%s]: %s", e.Code, e.Message)
}

// Unwrap exposes the underlying store or transport error.
func (e *StandardError) Unwrap() error {
	return e.cause
}

// WithMetadata attaches a key to the error's metadata and returns the error.
func (e *StandardError) WithMetadata(key string, value interface{}) *StandardError {
	if e.Metadata == nil {
		e.Metadata = make(map[string]interface{})
	}
	e.Metadata[key] = value
	return e
}

func newError(code ErrorCode, message, details string, retryable bool, cause error) *StandardError {
	return &StandardError{
		Code:      code,
		Message:   message,
		Details:   details,
		Retryable: retryable,
		Timestamp: time.Now().UTC(),
		cause:     cause,
	}
}

// ==========================
// 2. BPMN Error Integration
// ==========================

// BPMNError represents an error that can be thrown to the Camunda workflow engine.
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

// ToErrorVariables returns the variables sent along with a failed or thrown job.
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

// ==========================
// 3. Error Constructors
// ==========================

// NewInvalidMatchInputError rejects a malformed job or request payload.
func NewInvalidMatchInputError(details string) *StandardError {
	return newError(ErrCodeInvalidMatchInput, "Invalid match input", details, false, nil)
}

func NewProfileNotFoundError(userID string) *StandardError {
	return newError(ErrCodeProfileNotFound, "Crew profile not found",
		fmt.Sprintf("userId: %s", userID), false, nil)
}

func NewProfileLookupFailedError(userID string, err error) *StandardError {
	return newError(ErrCodeProfileLookupFailed, "Crew profile lookup failed",
		fmt.Sprintf("userId: %s, error: %s", userID, err.Error()), true, err)
}

func NewLegNotFoundError(details string) *StandardError {
	return newError(ErrCodeLegNotFound, "Leg not found", details, false, nil)
}

func NewLegQueryFailedError(err error) *StandardError {
	return newError(ErrCodeLegQueryFailed, "Leg query failed", err.Error(), true, err)
}

func NewLegSearchFailedError(index string, err error) *StandardError {
	return newError(ErrCodeLegSearchFailed, "Leg search failed",
		fmt.Sprintf("index: %s, error: %s", index, err.Error()), true, err)
}

func NewLegSearchTimeoutError(index string) *StandardError {
	return newError(ErrCodeLegSearchTimeout, "Leg search timeout",
		fmt.Sprintf("index: %s", index), true, nil)
}

func NewRankingFailedError(details string) *StandardError {
	return newError(ErrCodeRankingFailed, "Ranking failed", details, false, nil)
}

func NewInternalError(err error) *StandardError {
	return newError(ErrCodeInternal, "Unexpected error", err.Error(), false, err)
}

func NewExternalServiceError(service string, err error) *StandardError {
	return newError(ErrCodeExternalService, fmt.Sprintf("External service '%s' error", service),
		err.Error(), true, err)
}

func NewTimeoutError(service string, err error) *StandardError {
	return newError(ErrCodeTimeout, fmt.Sprintf("Service '%s' timeout", service),
		err.Error(), true, err)
}

// ==========================
// 4. Error Conversion to BPMN
// ==========================

// GetRetryCount returns the retry budget for a code. Zero means the failure
// is thrown as a BPMN error instead of retried.
func GetRetryCount(code ErrorCode) int {
	switch code {
	case ErrCodeProfileLookupFailed,
		ErrCodeLegQueryFailed,
		ErrCodeLegSearchFailed,
		ErrCodeExternalService:
		return 3

	case ErrCodeLegSearchTimeout,
		ErrCodeTimeout:
		return 2

	default:
		return 0
	}
}

// ConvertToBPMNError converts a StandardError to a BPMNError for Camunda.
// BPMN codes are the internal codes.
func ConvertToBPMNError(stdErr *StandardError) *BPMNError {
	retries := GetRetryCount(stdErr.Code)
	if !stdErr.Retryable {
		retries = 0
	}

	vars := map[string]interface{}{
		"originalErrorCode": string(stdErr.Code),
		"errorCategory":     GetErrorCategory(stdErr.Code),
		"timestamp":         stdErr.Timestamp.Format(time.RFC3339),
	}
	for k, v := range stdErr.Metadata {
		vars[k] = v
	}

	return &BPMNError{
		Code:           string(stdErr.Code),
		Message:        stdErr.Message,
		Details:        stdErr.Details,
		Retryable:      stdErr.Retryable,
		Retries:        retries,
		ErrorVariables: vars,
	}
}

// ==========================
// 5. Utility Functions
// ==========================

// AsStandardError finds a StandardError in err's chain, wrapping anything
// else as INTERNAL_ERROR.
func AsStandardError(err error) *StandardError {
	var stdErr *StandardError
	if stderrors.As(err, &stdErr) {
		return stdErr
	}
	return NewInternalError(err)
}

// IsRetryableErrorCode checks if an error code is retryable.
func IsRetryableErrorCode(code ErrorCode) bool {
	return GetRetryCount(code) > 0
}

// GetErrorCategory groups codes for logs and metrics labels.
func GetErrorCategory(code ErrorCode) string {
	s := string(code)
	switch {
	case strings.HasPrefix(s, "PROFILE"):
		return "PROFILE"
	case strings.HasPrefix(s, "LEG_SEARCH"):
		return "SEARCH"
	case strings.HasPrefix(s, "LEG"):
		return "LEG"
	case strings.Contains(s, "INVALID"):
		return "VALIDATION"
	case strings.Contains(s, "TIMEOUT"), strings.Contains(s, "EXTERNAL"):
		return "INFRASTRUCTURE"
	default:
		return "OTHER"
	}
}

// HTTPStatus maps a code to the status the HTTP API answers with.
func HTTPStatus(code ErrorCode) int {
	switch code {
	case ErrCodeInvalidMatchInput:
		return http.StatusBadRequest
	case ErrCodeProfileNotFound, ErrCodeLegNotFound:
		return http.StatusNotFound
	case ErrCodeLegSearchTimeout, ErrCodeTimeout:
		return http.StatusGatewayTimeout
	case ErrCodeProfileLookupFailed, ErrCodeLegQueryFailed, ErrCodeLegSearchFailed, ErrCodeExternalService:
		return http.StatusBadGateway
	case ErrCodeRankingFailed:
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}
