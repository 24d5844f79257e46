package domain

import (
	"errors"
	"fmt"
)

// Error codes shared by every domain error. They are stable and surface to API
// callers verbatim.
const (
	CodeValidation         = "VALIDATION_ERROR"
	CodeConfiguration      = "CONFIGURATION_ERROR"
	CodeInvalidTransition  = "INVALID_TRANSITION"
	CodePreconditionFailed = "PRECONDITION_FAILED"
	CodeConflict           = "CONFLICT"
	CodeNotFound           = "NOT_FOUND"
)

// DomainError is a business-rule failure with a stable code and a
// human-readable message.
type DomainError struct {
	Code    string
	Message string
}

func (e *DomainError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// NewValidationError reports malformed input.
func NewValidationError(message string) *DomainError {
	return &DomainError{Code: CodeValidation, Message: message}
}

// NewConfigurationError reports a rate configuration incompatible with its billing policy.
func NewConfigurationError(message string) *DomainError {
	return &DomainError{Code: CodeConfiguration, Message: message}
}

// NewInvalidTransitionError reports a status change not permitted from the current state.
func NewInvalidTransitionError(from, to string) *DomainError {
	return &DomainError{
		Code:    CodeInvalidTransition,
		Message: fmt.Sprintf("cannot transition from %s to %s", from, to),
	}
}

// NewPreconditionFailedError reports a transition blocked by a related entity's state.
func NewPreconditionFailedError(message string) *DomainError {
	return &DomainError{Code: CodePreconditionFailed, Message: message}
}

// NewConflictError reports a concurrent modification.
func NewConflictError(message string) *DomainError {
	return &DomainError{Code: CodeConflict, Message: message}
}

// NewNotFoundError reports a missing entity.
func NewNotFoundError(entity, id string) *DomainError {
	return &DomainError{
		Code:    CodeNotFound,
		Message: fmt.Sprintf("%s %s not found", entity, id),
	}
}

// CodeOf returns the code of the first DomainError in err's chain, or "".
func CodeOf(err error) string {
	var de *DomainError
	if errors.As(err, &de) {
		return de.Code
	}
	return ""
}

// IsCode reports whether err carries the given domain error code.
func IsCode(err error, code string) bool {
	return CodeOf(err) == code
}
