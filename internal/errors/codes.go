// Package errors provides structured error handling for MisMisQuote.
//
// Error codes follow the pattern ERR_XXX_DESCRIPTION where:
//   - 1XX: Configuration errors
//   - 2XX: IO errors (reference files, history store)
//   - 4XX: Validation errors (queries, suites)
//   - 5XX: Internal errors
//
// There is deliberately no retryable class: a scan is a pure function of
// (query, reference, configuration), so failures surface immediately and
// re-running without a change cannot succeed.
package errors

// Category defines error categories for classification.
type Category string

const (
	// CategoryConfig indicates configuration-related errors.
	CategoryConfig Category = "CONFIG"
	// CategoryIO indicates file and history-store I/O errors.
	CategoryIO Category = "IO"
	// CategoryValidation indicates query and suite validation errors.
	CategoryValidation Category = "VALIDATION"
	// CategoryInternal indicates unexpected internal errors.
	CategoryInternal Category = "INTERNAL"
)

// Severity defines error severity levels.
type Severity string

const (
	// SeverityFatal indicates the operation must abort before any scan starts.
	SeverityFatal Severity = "FATAL"
	// SeverityError indicates the operation failed but the process can continue.
	SeverityError Severity = "ERROR"
	// SeverityWarning indicates degraded operation, continuing.
	SeverityWarning Severity = "WARNING"
)

// Error codes organized by category.
const (
	// Config errors (100-199)
	ErrCodeConfigNotFound = "ERR_101_CONFIG_NOT_FOUND"
	ErrCodeConfigInvalid  = "ERR_102_CONFIG_INVALID"
	ErrCodeConfigConflict = "ERR_103_CONFIG_CONFLICT"

	// IO errors (200-299)
	ErrCodeFileNotFound   = "ERR_201_FILE_NOT_FOUND"
	ErrCodeFilePermission = "ERR_202_FILE_PERMISSION"
	ErrCodeFileTooLarge   = "ERR_203_FILE_TOO_LARGE"
	ErrCodeNotAFile       = "ERR_204_NOT_A_FILE"
	ErrCodeHistoryStore   = "ERR_205_HISTORY_STORE"

	// Validation errors (400-499)
	ErrCodeQueryEmpty   = "ERR_401_QUERY_EMPTY"
	ErrCodeQueryTooLong = "ERR_402_QUERY_TOO_LONG"
	ErrCodeInvalidQuery = "ERR_403_INVALID_QUERY"
	ErrCodeSuiteInvalid = "ERR_404_SUITE_INVALID"

	// Internal errors (500-599)
	ErrCodeInternal   = "ERR_501_INTERNAL"
	ErrCodeScanFailed = "ERR_502_SCAN_FAILED"
)

// categoryFromCode extracts category from error code.
func categoryFromCode(code string) Category {
	if len(code) < 7 {
		return CategoryInternal
	}

	// Numeric portion, e.g. "101" from "ERR_101_CONFIG_NOT_FOUND".
	numStr := code[4:7]
	if len(numStr) < 1 {
		return CategoryInternal
	}

	switch numStr[0] {
	case '1':
		return CategoryConfig
	case '2':
		return CategoryIO
	case '4':
		return CategoryValidation
	default:
		return CategoryInternal
	}
}

// severityFromCode determines severity based on error code.
// Configuration conflicts and invalid queries abort before any scan
// starts, so the whole config and validation classes are fatal.
func severityFromCode(code string) Severity {
	switch categoryFromCode(code) {
	case CategoryConfig, CategoryValidation:
		return SeverityFatal
	default:
		return SeverityError
	}
}

// Exit codes for the CLI, by category.
const (
	ExitInternal   = 1
	ExitValidation = 2
	ExitIO         = 3
)

// ExitCode maps an error to the process exit code the CLI should use.
// Nil maps to 0; non-coded errors map to the internal exit code.
func ExitCode(err error) int {
	if err == nil {
		return 0
	}
	switch GetCategory(err) {
	case CategoryConfig, CategoryValidation:
		return ExitValidation
	case CategoryIO:
		return ExitIO
	default:
		return ExitInternal
	}
}
