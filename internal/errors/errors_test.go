package errors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestError_Unwrap_PreservesOriginalError(t *testing.T) {
	// Given: an original error
	originalErr := errors.New("original error")

	// When: wrapping it
	err := New(ErrCodeDumpNotFound, "dump not found: enwiki.xml.bz2", originalErr)

	// Then: unwrapping returns the original error
	require.NotNil(t, err)
	assert.Equal(t, originalErr, errors.Unwrap(err))
	assert.True(t, errors.Is(err, originalErr))
}

func TestError_Error_ReturnsFormattedMessage(t *testing.T) {
	tests := []struct {
		name     string
		code     string
		message  string
		expected string
	}{
		{
			name:     "config error",
			code:     ErrCodeConfigInvalid,
			message:  "workers must be positive",
			expected: "[ERR_101_CONFIG_INVALID] workers must be positive",
		},
		{
			name:     "dump error",
			code:     ErrCodeDumpMalformed,
			message:  "unexpected EOF",
			expected: "[ERR_202_DUMP_MALFORMED] unexpected EOF",
		},
		{
			name:     "pipeline error",
			code:     ErrCodeInterrupted,
			message:  "put interrupted",
			expected: "[ERR_301_INTERRUPTED] put interrupted",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := New(tt.code, tt.message, nil)
			assert.Equal(t, tt.expected, err.Error())
		})
	}
}

func TestError_Is_MatchesByCode(t *testing.T) {
	// Given: two errors with the same code and different messages
	a := New(ErrCodeIndexWrite, "first", nil)
	b := New(ErrCodeIndexWrite, "second", nil)

	// Then: they match by code, including through fmt wrapping
	assert.True(t, errors.Is(a, b))
	assert.True(t, errors.Is(fmt.Errorf("worker: %w", a), b))
	assert.False(t, errors.Is(a, New(ErrCodeIndexInit, "other", nil)))
}

func TestCategoryAndSeverity_FollowBuildTaxonomy(t *testing.T) {
	tests := []struct {
		code     string
		category Category
		severity Severity
	}{
		{ErrCodeMissingArgument, CategoryConfig, SeverityFatal},
		{ErrCodeIndexInit, CategoryIndex, SeverityFatal},
		{ErrCodeOutputLocked, CategoryIO, SeverityFatal},
		{ErrCodeDumpMalformed, CategoryIO, SeverityError},
		{ErrCodeDecompression, CategoryIO, SeverityError},
		{ErrCodeTitleEncoding, CategoryPipeline, SeverityWarning},
		{ErrCodeInterrupted, CategoryPipeline, SeverityWarning},
		{ErrCodeIndexWrite, CategoryIndex, SeverityWarning},
		{ErrCodeInternal, CategoryInternal, SeverityError},
	}

	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			err := New(tt.code, "msg", nil)
			assert.Equal(t, tt.category, err.Category)
			assert.Equal(t, tt.severity, err.Severity)
		})
	}
}

func TestIsRecoverable(t *testing.T) {
	assert.True(t, IsRecoverable(New(ErrCodeTitleEncoding, "bad title", nil)))
	assert.True(t, IsRecoverable(fmt.Errorf("wrapped: %w", New(ErrCodeIndexWrite, "x", nil))))
	assert.False(t, IsRecoverable(New(ErrCodeDumpMalformed, "bad xml", nil)))
	assert.False(t, IsRecoverable(errors.New("plain")))
	assert.False(t, IsRecoverable(nil))
}

func TestIsFatal(t *testing.T) {
	assert.True(t, IsFatal(New(ErrCodeMissingArgument, "missing dump path", nil)))
	assert.False(t, IsFatal(New(ErrCodeDumpMalformed, "bad xml", nil)))
	assert.False(t, IsFatal(nil))
}

func TestGetCode(t *testing.T) {
	assert.Equal(t, ErrCodeIndexInit, GetCode(fmt.Errorf("open: %w", New(ErrCodeIndexInit, "x", nil))))
	assert.Equal(t, "", GetCode(errors.New("plain")))
}

func TestWrap_NilReturnsNil(t *testing.T) {
	assert.Nil(t, Wrap(ErrCodeInternal, nil))
}

func TestWithDetail_AddsDetails(t *testing.T) {
	err := New(ErrCodeDumpNotFound, "missing", nil).
		WithDetail("path", "/data/enwiki.xml").
		WithSuggestion("check the dump path")

	assert.Equal(t, "/data/enwiki.xml", err.Details["path"])
	assert.Equal(t, "check the dump path", err.Suggestion)
}

func TestFormatForCLI(t *testing.T) {
	// Given: a coded error with a hint
	err := New(ErrCodeIndexExists, "index already exists at out/", nil).
		WithSuggestion("pass --force to rebuild or --append to continue")

	// When: formatting for the terminal
	out := FormatForCLI(err)

	// Then: message, hint and code are shown
	assert.Contains(t, out, "Error: index already exists at out/")
	assert.Contains(t, out, "Hint: pass --force")
	assert.Contains(t, out, "Code: ERR_205_INDEX_EXISTS")

	// And: plain errors are reported as internal
	assert.Contains(t, FormatForCLI(errors.New("boom")), ErrCodeInternal)
	assert.Equal(t, "", FormatForCLI(nil))
}
