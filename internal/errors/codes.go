// Package errors provides structured error handling for winwin-search.
//
// Error codes follow the pattern ERR_XXX_DESCRIPTION where:
//   - 1XX: Configuration and registry errors
//   - 2XX: IO and extraction errors
//   - 3XX: Lock and contention errors
//   - 4XX: Validation errors
//   - 5XX: Internal errors
package errors

// Category defines error categories for classification.
type Category string

const (
	// CategoryConfig indicates configuration or registry errors.
	CategoryConfig Category = "CONFIG"
	// CategoryIO indicates filesystem and extraction errors.
	CategoryIO Category = "IO"
	// CategoryContention indicates lock-contention errors.
	CategoryContention Category = "CONTENTION"
	// CategoryValidation indicates input validation errors.
	CategoryValidation Category = "VALIDATION"
	// CategoryInternal indicates unexpected internal errors.
	CategoryInternal Category = "INTERNAL"
)

// Severity defines error severity levels.
type Severity string

const (
	// SeverityFatal indicates unrecoverable error, must abort.
	SeverityFatal Severity = "FATAL"
	// SeverityError indicates operation failed but can continue.
	SeverityError Severity = "ERROR"
	// SeverityWarning indicates degraded operation, continuing.
	SeverityWarning Severity = "WARNING"
)

// Error codes organized by category.
const (
	// Config errors (100-199)
	ErrCodeConfigInvalid   = "ERR_101_CONFIG_INVALID"
	ErrCodeRegistryInvalid = "ERR_102_REGISTRY_INVALID"
	ErrCodeUnknownKB       = "ERR_103_UNKNOWN_KNOWLEDGE_BASE"

	// IO errors (200-299)
	ErrCodeIOFailure         = "ERR_201_IO_FAILURE"
	ErrCodeExtractionFailed  = "ERR_202_EXTRACTION_FAILED"
	ErrCodeExtractionTimeout = "ERR_203_EXTRACTION_TIMEOUT"
	ErrCodeCorruptIndex      = "ERR_205_CORRUPT_INDEX"

	// Contention errors (300-399)
	ErrCodeIndexBusy = "ERR_301_INDEX_BUSY"

	// Validation errors (400-499)
	ErrCodeInvalidQuery = "ERR_403_INVALID_QUERY"
	ErrCodeInvalidLimit = "ERR_404_INVALID_LIMIT"
	ErrCodeInvalidPath  = "ERR_406_INVALID_PATH"

	// Internal errors (500-599)
	ErrCodeInternal = "ERR_501_INTERNAL"
)

// categoryFromCode extracts category from error code.
func categoryFromCode(code string) Category {
	if len(code) < 7 {
		return CategoryInternal
	}

	switch code[4] {
	case '1':
		return CategoryConfig
	case '2':
		return CategoryIO
	case '3':
		return CategoryContention
	case '4':
		return CategoryValidation
	default:
		return CategoryInternal
	}
}

// severityFromCode determines severity based on error code.
func severityFromCode(code string) Severity {
	switch code {
	case ErrCodeCorruptIndex:
		return SeverityFatal
	}

	if isRetryableCode(code) {
		return SeverityWarning
	}

	return SeverityError
}

// isRetryableCode checks if an error code represents a retryable error.
func isRetryableCode(code string) bool {
	switch code {
	case ErrCodeIndexBusy, ErrCodeExtractionTimeout:
		return true
	default:
		return false
	}
}
