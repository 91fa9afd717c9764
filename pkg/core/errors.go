package core

import (
	"fmt"
)

// ExecutionError represents a structured error with category and details.
type ExecutionError struct {
	Category ErrorCategory
	Code     string                 // Machine-readable code: anchor_not_found, low_confidence_match, ...
	Message  string                 // Human-readable message
	Details  map[string]interface{} // Additional context: step index, action, coordinates
	Cause    error                  // Underlying error
}

// Error implements the error interface.
func (e *ExecutionError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

// Unwrap returns the underlying error for errors.Is/As support.
func (e *ExecutionError) Unwrap() error {
	return e.Cause
}

// Is matches errors by code, so derived copies still satisfy
// errors.Is(err, ErrAnchorNotFound).
func (e *ExecutionError) Is(target error) bool {
	t, ok := target.(*ExecutionError)
	return ok && t.Code == e.Code
}

// WithCause returns a copy of the error with the given cause.
func (e *ExecutionError) WithCause(cause error) *ExecutionError {
	return &ExecutionError{
		Category: e.Category,
		Code:     e.Code,
		Message:  e.Message,
		Details:  e.Details,
		Cause:    cause,
	}
}

// WithMessage returns a copy of the error with a custom message.
func (e *ExecutionError) WithMessage(msg string) *ExecutionError {
	return &ExecutionError{
		Category: e.Category,
		Code:     e.Code,
		Message:  msg,
		Details:  e.Details,
		Cause:    e.Cause,
	}
}

// WithDetails returns a copy of the error with additional details merged in.
func (e *ExecutionError) WithDetails(details map[string]interface{}) *ExecutionError {
	merged := make(map[string]interface{})
	for k, v := range e.Details {
		merged[k] = v
	}
	for k, v := range details {
		merged[k] = v
	}
	return &ExecutionError{
		Category: e.Category,
		Code:     e.Code,
		Message:  e.Message,
		Details:  merged,
		Cause:    e.Cause,
	}
}

// Predefined errors covering the replay/recording taxonomy.
var (
	// Locate errors
	ErrAnchorNotFound = &ExecutionError{
		Category: ErrCategoryLocate,
		Code:     "anchor_not_found",
		Message:  "anchor image not found on screen",
	}
	ErrLowConfidenceMatch = &ExecutionError{
		Category: ErrCategoryLocate,
		Code:     "low_confidence_match",
		Message:  "best anchor candidate scored below the confidence threshold",
	}

	// Resolve errors
	ErrCoordinateOutOfBounds = &ExecutionError{
		Category: ErrCategoryResolve,
		Code:     "coordinate_out_of_bounds",
		Message:  "resolved coordinate falls outside the screen",
	}

	// Injection errors
	ErrInputInjection = &ExecutionError{
		Category: ErrCategoryInjection,
		Code:     "input_injection_failure",
		Message:  "input injection failed",
	}

	// Flow errors
	ErrInvalidFlow = &ExecutionError{
		Category: ErrCategoryFlow,
		Code:     "flow_validation",
		Message:  "flow definition is invalid",
	}

	// Recorder errors
	ErrRecorderState = &ExecutionError{
		Category: ErrCategoryRecorder,
		Code:     "recorder_state",
		Message:  "illegal recorder state transition",
	}
)

// NewExecutionError creates a new ExecutionError with the given parameters.
func NewExecutionError(category ErrorCategory, code, message string) *ExecutionError {
	return &ExecutionError{
		Category: category,
		Code:     code,
		Message:  message,
	}
}
