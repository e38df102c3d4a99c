// Package errors provides structured error handling for wikidex.
//
// Error codes follow the pattern ERR_XXX_DESCRIPTION where:
//   - 1XX: Configuration errors
//   - 2XX: IO errors (dump file, output directory)
//   - 3XX: Pipeline errors (per-record)
//   - 4XX: Index errors
//   - 5XX: Internal errors
package errors

// Category defines error categories for classification.
type Category string

const (
	// CategoryConfig indicates configuration or argument errors.
	CategoryConfig Category = "CONFIG"
	// CategoryIO indicates dump and output directory I/O errors.
	CategoryIO Category = "IO"
	// CategoryPipeline indicates errors raised while moving a single record.
	CategoryPipeline Category = "PIPELINE"
	// CategoryIndex indicates indexing engine errors.
	CategoryIndex Category = "INDEX"
	// CategoryInternal indicates unexpected internal errors.
	CategoryInternal Category = "INTERNAL"
)

// Severity defines error severity levels.
type Severity string

const (
	// SeverityFatal aborts before any worker starts.
	SeverityFatal Severity = "FATAL"
	// SeverityError aborts the current build; started workers are still drained.
	SeverityError Severity = "ERROR"
	// SeverityWarning affects one record only; the build continues.
	SeverityWarning Severity = "WARNING"
)

// Error codes organized by category.
const (
	// Config errors (100-199)
	ErrCodeConfigInvalid   = "ERR_101_CONFIG_INVALID"
	ErrCodeMissingArgument = "ERR_102_MISSING_ARGUMENT"

	// IO errors (200-299)
	ErrCodeDumpNotFound  = "ERR_201_DUMP_NOT_FOUND"
	ErrCodeDumpMalformed = "ERR_202_DUMP_MALFORMED"
	ErrCodeDecompression = "ERR_203_DECOMPRESSION"
	ErrCodeOutputLocked  = "ERR_204_OUTPUT_LOCKED"
	ErrCodeIndexExists   = "ERR_205_INDEX_EXISTS"

	// Pipeline errors (300-399)
	ErrCodeInterrupted   = "ERR_301_INTERRUPTED"
	ErrCodeTitleEncoding = "ERR_302_TITLE_ENCODING"

	// Index errors (400-499)
	ErrCodeIndexInit     = "ERR_401_INDEX_INIT"
	ErrCodeIndexWrite    = "ERR_402_INDEX_WRITE"
	ErrCodeInvalidQuery  = "ERR_403_INVALID_QUERY"
	ErrCodeIndexNotFound = "ERR_404_INDEX_NOT_FOUND"

	// Internal errors (500-599)
	ErrCodeInternal = "ERR_501_INTERNAL"
)

// categoryFromCode extracts category from error code.
func categoryFromCode(code string) Category {
	if len(code) < 7 {
		return CategoryInternal
	}

	// Extract numeric portion (e.g., "101" from "ERR_101_CONFIG_INVALID")
	switch code[4] {
	case '1':
		return CategoryConfig
	case '2':
		return CategoryIO
	case '3':
		return CategoryPipeline
	case '4':
		return CategoryIndex
	default:
		return CategoryInternal
	}
}

// severityFromCode maps a code onto the build's failure taxonomy.
func severityFromCode(code string) Severity {
	switch code {
	case ErrCodeConfigInvalid, ErrCodeMissingArgument, ErrCodeOutputLocked,
		ErrCodeIndexExists, ErrCodeIndexInit, ErrCodeIndexNotFound:
		return SeverityFatal
	case ErrCodeInterrupted, ErrCodeTitleEncoding, ErrCodeIndexWrite:
		return SeverityWarning
	default:
		return SeverityError
	}
}
