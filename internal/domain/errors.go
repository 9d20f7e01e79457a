package domain

import "errors"

// Common errors
var (
	ErrNotFound        = errors.New("record not found")
	ErrInvalidSnapshot = errors.New("invalid membership snapshot")
)

// ValidationError reports the business rule that rejected a membership request
type ValidationError struct {
	Code RejectionCode
}

// NewValidationError creates a ValidationError for code
func NewValidationError(code RejectionCode) *ValidationError {
	return &ValidationError{Code: code}
}

func (e *ValidationError) Error() string {
	return "membership rejected: " + string(e.Code)
}

// Message returns the client-facing message of the rejection
func (e *ValidationError) Message() string {
	return e.Code.Message()
}
