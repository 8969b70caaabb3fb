// Package errors provides standardized error handling for the assessment engine.
package errors

import (
	"fmt"
	"strings"
	"time"
)

// ==========================
// 1. Standard Error Types
// ==========================

// ErrorCode represents standardized internal error codes.
type ErrorCode string

const (
	ErrCodeInvalidTransition ErrorCode = "INVALID_TRANSITION"
	ErrCodeParseError        ErrorCode = "PARSE_ERROR"

	ErrCodeEmailValidationFailed ErrorCode = "EMAIL_VALIDATION_FAILED"
	ErrCodeEmailNotValidated     ErrorCode = "EMAIL_NOT_VALIDATED"

	ErrCodePDFRenderFailed     ErrorCode = "PDF_RENDER_FAILED"
	ErrCodeEmailDeliveryFailed ErrorCode = "EMAIL_DELIVERY_FAILED"

	ErrCodeSessionNotFound ErrorCode = "SESSION_NOT_FOUND"
	ErrCodeSessionExpired  ErrorCode = "SESSION_EXPIRED"
)

// StandardError represents a structured application error.
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

// ==========================
// 2. Error Constructors
// ==========================

// NewInvalidTransitionError creates a non-retryable error for an operation
// attempted in a phase that forbids it. This indicates a UI-contract defect,
// not a user mistake.
func NewInvalidTransitionError(operation, phase string) *StandardError {
	return &StandardError{
		Code:      ErrCodeInvalidTransition,
		Message:   fmt.Sprintf("Operation '%s' is not valid in phase '%s'", operation, phase),
		Details:   fmt.Sprintf("operation: %s, phase: %s", operation, phase),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewParseError creates a non-retryable error for malformed input payloads.
func NewParseError(details string) *StandardError {
	return &StandardError{
		Code:      ErrCodeParseError,
		Message:   "Failed to parse input",
		Details:   details,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewEmailValidationFailedError creates a non-retryable error carrying the
// validator's user-facing diagnostic.
func NewEmailValidationFailedError(diagnostic string) *StandardError {
	return &StandardError{
		Code:      ErrCodeEmailValidationFailed,
		Message:   "Email address validation failed",
		Details:   diagnostic,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewEmailNotValidatedError creates a non-retryable error for a send attempt
// before a successful email validation.
func NewEmailNotValidatedError() *StandardError {
	return &StandardError{
		Code:      ErrCodeEmailNotValidated,
		Message:   "No validated email address on the session",
		Details:   "call ValidateEmail with a well-formed address before sending",
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewPDFRenderFailedError creates a retryable error for a failed render call.
func NewPDFRenderFailedError(reason string) *StandardError {
	return &StandardError{
		Code:      ErrCodePDFRenderFailed,
		Message:   "Summary PDF rendering failed",
		Details:   reason,
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewEmailDeliveryFailedError creates a retryable error for a failed delivery call.
func NewEmailDeliveryFailedError(reason string) *StandardError {
	return &StandardError{
		Code:      ErrCodeEmailDeliveryFailed,
		Message:   "Summary email delivery failed",
		Details:   reason,
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewSessionNotFoundError creates a non-retryable error for an unknown session id.
func NewSessionNotFoundError(sessionID string) *StandardError {
	return &StandardError{
		Code:      ErrCodeSessionNotFound,
		Message:   "Assessment session not found",
		Details:   fmt.Sprintf("sessionId: %s", sessionID),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewSessionExpiredError creates a non-retryable error for an expired session.
func NewSessionExpiredError(sessionID string) *StandardError {
	return &StandardError{
		Code:      ErrCodeSessionExpired,
		Message:   "Assessment session has expired",
		Details:   fmt.Sprintf("sessionId: %s", sessionID),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// ==========================
// 3. Utility Functions
// ==========================

// IsRetryable reports whether err is a StandardError marked retryable.
func IsRetryable(err error) bool {
	if stdErr, ok := err.(*StandardError); ok {
		return stdErr.Retryable
	}
	return false
}

// CodeOf extracts the ErrorCode from err, or empty string for foreign errors.
func CodeOf(err error) ErrorCode {
	if stdErr, ok := err.(*StandardError); ok {
		return stdErr.Code
	}
	return ""
}

// GetErrorCategory returns the category of the error code.
func GetErrorCategory(code ErrorCode) string {
	codeStr := string(code)
	switch {
	case strings.Contains(codeStr, "SESSION"):
		return "SESSION"
	case strings.Contains(codeStr, "EMAIL_VALIDATION") || strings.Contains(codeStr, "PARSE"):
		return "VALIDATION"
	case strings.Contains(codeStr, "RENDER") || strings.Contains(codeStr, "DELIVERY"):
		return "DISPATCH"
	case strings.Contains(codeStr, "TRANSITION"):
		return "STATE_MACHINE"
	default:
		return "OTHER"
	}
}
