package errors

import (
	stderrors "errors"
	"fmt"
	"strings"
)

// FormatForCLI formats an error for CLI output.
// Uses a concise format suitable for terminal display.
func FormatForCLI(err error) string {
	if err == nil {
		return ""
	}

	var e *Error
	if !stderrors.As(err, &e) {
		e = Wrap(ErrCodeInternal, err)
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Error: %s\n", e.Message))
	if e.Cause != nil && e.Cause.Error() != e.Message {
		sb.WriteString(fmt.Sprintf("  Cause: %v\n", e.Cause))
	}
	if e.Suggestion != "" {
		sb.WriteString(fmt.Sprintf("  Hint: %s\n", e.Suggestion))
	}
	sb.WriteString(fmt.Sprintf("  Code: %s\n", e.Code))

	return sb.String()
}
