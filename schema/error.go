package schema

import (
	"fmt"
	"strings"
)

// ValidationError describes one failed schema assertion. Validation errors
// accumulate; they never abort parsing or validation.
type ValidationError struct {
	// Path locates the offending value from the document root.
	Path []string
	// Message is a human-readable description of the failure.
	Message string
	// Keyword names the failed assertion (`type`, `required`, `pattern`,
	// ...). Syntax errors recovered in lenient mode use the keyword
	// `syntax`.
	Keyword string
	// Schema is the sub-schema whose assertion failed.
	Schema *Schema
	// Value is the offending value, when one exists.
	Value any
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	at := strings.Join(e.Path, ".")
	if at == "" {
		at = "(root)"
	}

	return fmt.Sprintf("%s at %s: %s", e.Keyword, at, e.Message)
}
