package mcp

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	wderrors "github.com/Aman-CERP/wikidex/internal/errors"
)

func TestMapError_Nil(t *testing.T) {
	assert.Nil(t, MapError(nil))
}

func TestMapError_CodedErrors(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"index not found", wderrors.New(wderrors.ErrCodeIndexNotFound, "no index", nil), ErrCodeIndexNotFound},
		{"invalid query", wderrors.New(wderrors.ErrCodeInvalidQuery, "empty", nil), ErrCodeInvalidQuery},
		{"interrupted", wderrors.New(wderrors.ErrCodeInterrupted, "stop", nil), ErrCodeTimeout},
		{"config", wderrors.New(wderrors.ErrCodeConfigInvalid, "bad", nil), ErrCodeInvalidParams},
		{"index write", wderrors.New(wderrors.ErrCodeIndexWrite, "disk", nil), ErrCodeInternalError},
		{"wrapped", fmt.Errorf("search: %w", wderrors.New(wderrors.ErrCodeIndexNotFound, "no index", nil)), ErrCodeIndexNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := MapError(tt.err)
			require.NotNil(t, got)
			assert.Equal(t, tt.want, got.Code)
		})
	}
}

func TestMapError_IncludesSuggestion(t *testing.T) {
	// Given: a coded error with a hint
	err := wderrors.New(wderrors.ErrCodeIndexNotFound, "no index in out/", nil).
		WithSuggestion("Run 'wikidex build' first.")

	// When: mapping
	got := MapError(err)

	// Then: the hint reaches the client
	assert.Equal(t, "no index in out/ Run 'wikidex build' first.", got.Message)
}

func TestMapError_ContextErrors(t *testing.T) {
	assert.Equal(t, ErrCodeTimeout, MapError(context.DeadlineExceeded).Code)
	assert.Equal(t, ErrCodeTimeout, MapError(context.Canceled).Code)
	assert.Equal(t, ErrCodeInternalError, MapError(errors.New("boom")).Code)
}

func TestMapError_PassesThroughMCPErrors(t *testing.T) {
	orig := NewInvalidParamsError("limit must be a number")
	assert.Same(t, orig, MapError(orig))
}

func TestMCPError_Error(t *testing.T) {
	assert.Equal(t, "MCP error -32601: Tool 'x' not found.", NewMethodNotFoundError("x").Error())
}
