package account

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

var (
	ErrInvalidInput       = errors.New("invalid input")
	ErrInvalidCredentials = errors.New("invalid credentials")
)

// ValidationError carries one message per offending form field. It unwraps
// to the sentinel that best describes the failure.
type ValidationError struct {
	Fields map[string]string
	cause  error
}

func newValidationError(cause error, fields map[string]string) *ValidationError {
	return &ValidationError{Fields: fields, cause: cause}
}

func fieldError(cause error, field, message string) *ValidationError {
	return newValidationError(cause, map[string]string{field: message})
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s: %s", k, e.Fields[k]))
	}
	return fmt.Sprintf("%v (%s)", e.cause, strings.Join(parts, ", "))
}

func (e *ValidationError) Unwrap() error {
	return e.cause
}
