package errors

import (
	"errors"
	"fmt"
)

// Error is the structured error type for winwin-search.
// It provides rich context for error handling, logging, and user presentation.
type Error struct {
	// Code is the unique error code (e.g., "ERR_301_INDEX_BUSY").
	Code string

	// Message is the human-readable error message.
	Message string

	// Category is the error category (Config, IO, Contention, etc.).
	Category Category

	// Severity is the error severity level.
	Severity Severity

	// Details contains additional context as key-value pairs.
	Details map[string]string

	// Cause is the underlying error that caused this error.
	Cause error

	// Retryable indicates if the operation can be retried.
	Retryable bool

	// Suggestion is an actionable suggestion for the user.
	Suggestion string
}

// Error implements the error interface.
func (e *Error) Error() string {
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause for error chain support.
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is checks if this error matches the target error by code.
// This enables errors.Is() to work with Error.
func (e *Error) Is(target error) bool {
	if t, ok := target.(*Error); ok {
		return e.Code == t.Code
	}
	return false
}

// WithDetail adds a key-value detail to the error.
// Returns the error for method chaining.
func (e *Error) WithDetail(key, value string) *Error {
	if e.Details == nil {
		e.Details = make(map[string]string)
	}
	e.Details[key] = value
	return e
}

// WithSuggestion adds an actionable suggestion for the user.
// Returns the error for method chaining.
func (e *Error) WithSuggestion(suggestion string) *Error {
	e.Suggestion = suggestion
	return e
}

// New creates a new Error with the given code and message.
// Category, severity, and retryable flag are derived from the code.
func New(code string, message string, cause error) *Error {
	return &Error{
		Code:      code,
		Message:   message,
		Category:  categoryFromCode(code),
		Severity:  severityFromCode(code),
		Cause:     cause,
		Retryable: isRetryableCode(code),
	}
}

// Wrap creates an Error from an existing error.
// The error's message becomes the Error message.
func Wrap(code string, err error) *Error {
	if err == nil {
		return nil
	}
	return New(code, err.Error(), err)
}

// IOFailure creates a filesystem-level error. Fatal to the triggering scan,
// not to the process.
func IOFailure(message string, cause error) *Error {
	return New(ErrCodeIOFailure, message, cause)
}

// ExtractionFailure creates a per-file extraction error. Recorded against the
// file and skipped, never fatal to an indexing pass.
func ExtractionFailure(path, reason string, cause error) *Error {
	return New(ErrCodeExtractionFailed, reason, cause).WithDetail("path", path)
}

// ExtractionTimeout creates a per-file extraction timeout error.
func ExtractionTimeout(path string) *Error {
	return New(ErrCodeExtractionTimeout, "extraction timed out", nil).WithDetail("path", path)
}

// IndexCorruption creates an index invariant-violation error.
func IndexCorruption(message string) *Error {
	return New(ErrCodeCorruptIndex, message, nil).
		WithSuggestion("run 'winwin-search index --full' to rebuild the index")
}

// IndexBusy creates a concurrent-write contention error.
func IndexBusy(kbID string) *Error {
	return New(ErrCodeIndexBusy, fmt.Sprintf("knowledge base %q is already being indexed", kbID), nil).
		WithSuggestion("wait for the running pass to finish and retry")
}

// InvalidQuery creates a query validation error.
func InvalidQuery(message string) *Error {
	return New(ErrCodeInvalidQuery, message, nil)
}

// InvalidLimit creates a result-limit validation error.
func InvalidLimit(limit int) *Error {
	return New(ErrCodeInvalidLimit, fmt.Sprintf("limit must be positive, got %d", limit), nil)
}

// UnknownKB creates an unknown-knowledge-base error.
func UnknownKB(id string) *Error {
	return New(ErrCodeUnknownKB, fmt.Sprintf("unknown knowledge base %q", id), nil).
		WithSuggestion("run 'winwin-search kb list' to see registered knowledge bases")
}

// InternalError creates an internal error.
func InternalError(message string, cause error) *Error {
	return New(ErrCodeInternal, message, cause)
}

// IsRetryable checks if an error is retryable.
// Returns true if the error is an Error with Retryable flag set.
func IsRetryable(err error) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Retryable
	}
	return false
}

// IsFatal checks if an error has fatal severity.
// Fatal errors should abort the current operation.
func IsFatal(err error) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Severity == SeverityFatal
	}
	return false
}

// HasCode reports whether err carries the given error code anywhere in its chain.
func HasCode(err error, code string) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Code == code
	}
	return false
}

// GetCode extracts the error code from an Error.
// Returns empty string if not an Error.
func GetCode(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}
