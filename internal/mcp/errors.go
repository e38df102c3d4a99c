// Package mcp serves a built wikidex index over the Model Context Protocol.
package mcp

import (
	"context"
	"errors"
	"fmt"

	wderrors "github.com/Aman-CERP/wikidex/internal/errors"
)

// MCP error codes. Codes above -32600 are wikidex specific.
const (
	ErrCodeIndexNotFound = -32001
	ErrCodeTimeout       = -32003
	ErrCodeInvalidQuery  = -32006

	// Standard JSON-RPC error codes.
	ErrCodeInvalidRequest = -32600
	ErrCodeMethodNotFound = -32601
	ErrCodeInvalidParams  = -32602
	ErrCodeInternalError  = -32603
)

// MCPError is a protocol error with code and message.
type MCPError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// Error implements the error interface.
func (e *MCPError) Error() string {
	return fmt.Sprintf("MCP error %d: %s", e.Code, e.Message)
}

// MapError converts internal errors to MCP errors.
func MapError(err error) *MCPError {
	if err == nil {
		return nil
	}

	var mcpErr *MCPError
	if errors.As(err, &mcpErr) {
		return mcpErr
	}

	var wdErr *wderrors.Error
	if errors.As(err, &wdErr) {
		return mapCodedError(wdErr)
	}

	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return &MCPError{Code: ErrCodeTimeout, Message: "Request timed out."}
	case errors.Is(err, context.Canceled):
		return &MCPError{Code: ErrCodeTimeout, Message: "Request was canceled."}
	default:
		return &MCPError{Code: ErrCodeInternalError, Message: "Internal server error."}
	}
}

// NewInvalidParamsError creates an error for invalid parameters.
func NewInvalidParamsError(msg string) *MCPError {
	return &MCPError{Code: ErrCodeInvalidParams, Message: msg}
}

// NewMethodNotFoundError creates an error for unknown tools.
func NewMethodNotFoundError(name string) *MCPError {
	return &MCPError{
		Code:    ErrCodeMethodNotFound,
		Message: fmt.Sprintf("Tool '%s' not found.", name),
	}
}

func mapCodedError(e *wderrors.Error) *MCPError {
	message := e.Message
	if e.Suggestion != "" {
		message = fmt.Sprintf("%s %s", e.Message, e.Suggestion)
	}

	switch e.Code {
	case wderrors.ErrCodeIndexNotFound:
		return &MCPError{Code: ErrCodeIndexNotFound, Message: message}
	case wderrors.ErrCodeInvalidQuery:
		return &MCPError{Code: ErrCodeInvalidQuery, Message: message}
	case wderrors.ErrCodeInterrupted:
		return &MCPError{Code: ErrCodeTimeout, Message: message}
	}
	if e.Category == wderrors.CategoryConfig {
		return &MCPError{Code: ErrCodeInvalidParams, Message: message}
	}
	return &MCPError{Code: ErrCodeInternalError, Message: message}
}
