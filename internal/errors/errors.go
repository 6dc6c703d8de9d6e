// Package errors defines the structured error type used across the engine.
// The taxonomy follows the degradation model: most failures downgrade a
// single relevance signal instead of failing the request, and only a rebuild
// against an unreachable store is user-visible.
package errors

import "fmt"

// EngineError is the structured error type for the retrieval engine.
type EngineError struct {
	// Code is the unique error code (e.g. "ERR_STORE_UNREACHABLE").
	Code string

	// Message is the human-readable error message.
	Message string

	// Category is the error category (Config, Store, Index, ...).
	Category Category

	// Severity tells callers whether to degrade, fail the request, or stop.
	Severity Severity

	// Cause is the underlying error.
	Cause error

	// Retryable indicates if the operation can be retried.
	Retryable bool
}

// Error implements the error interface.
func (e *EngineError) Error() string {
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause for error chain support.
func (e *EngineError) Unwrap() error {
	return e.Cause
}

// Is matches errors by code so errors.Is works with EngineError values.
func (e *EngineError) Is(target error) bool {
	if t, ok := target.(*EngineError); ok {
		return e.Code == t.Code
	}
	return false
}

// New creates an EngineError with the given code and message. Category,
// severity and retryability are derived from the code.
func New(code, message string, cause error) *EngineError {
	return &EngineError{
		Code:      code,
		Message:   message,
		Category:  categoryFromCode(code),
		Severity:  severityFromCode(code),
		Cause:     cause,
		Retryable: isRetryableCode(code),
	}
}

// Wrap creates an EngineError from an existing error, keeping its message.
func Wrap(code string, err error) *EngineError {
	if err == nil {
		return nil
	}
	return New(code, err.Error(), err)
}

// IsDegraded reports whether err represents a capability loss rather than a
// request failure.
func IsDegraded(err error) bool {
	if ee, ok := err.(*EngineError); ok {
		return ee.Severity == SeverityDegraded
	}
	return false
}

// GetCode extracts the error code, or "" for non-engine errors.
func GetCode(err error) string {
	if ee, ok := err.(*EngineError); ok {
		return ee.Code
	}
	return ""
}
