// Package errors defines the structured errors reported by the preprocessor
// and a handler that logs them at the process boundary.
package errors

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
)

// ErrorType represents different categories of errors.
type ErrorType string

const (
	ErrorTypeParse  ErrorType = "parse"
	ErrorTypeShape  ErrorType = "shape"
	ErrorTypeIO     ErrorType = "io"
	ErrorTypeConfig ErrorType = "config"
)

// Common error codes.
const (
	ErrCodeParse             = "ERR_PARSE"
	ErrCodeInvalidInputShape = "ERR_INVALID_INPUT_SHAPE"
	ErrCodeIO                = "ERR_IO"
	ErrCodeConfigInvalid     = "ERR_CONFIG_INVALID"
)

// PreprocessorError is a structured error type with context.
type PreprocessorError struct {
	Type      ErrorType
	Code      string
	Message   string
	Cause     error
	Context   map[string]interface{}
	Component string
}

// Error implements the error interface.
func (e *PreprocessorError) Error() string {
	var parts []string

	if e.Code != "" {
		parts = append(parts, fmt.Sprintf("[%s]", e.Code))
	}

	if e.Component != "" {
		parts = append(parts, "component:"+e.Component)
	}

	parts = append(parts, e.Message)

	result := strings.Join(parts, " ")

	if e.Cause != nil {
		result += fmt.Sprintf(": %v", e.Cause)
	}

	return result
}

// Unwrap returns the underlying cause error.
func (e *PreprocessorError) Unwrap() error {
	return e.Cause
}

// Is reports whether target has the same type and code.
func (e *PreprocessorError) Is(target error) bool {
	var t *PreprocessorError
	if errors.As(target, &t) {
		return e.Type == t.Type && e.Code == t.Code
	}

	return false
}

// WithContext adds context information to the error.
func (e *PreprocessorError) WithContext(key string, value interface{}) *PreprocessorError {
	if e.Context == nil {
		e.Context = make(map[string]interface{})
	}
	e.Context[key] = value

	return e
}

// WithComponent adds component context.
func (e *PreprocessorError) WithComponent(component string) *PreprocessorError {
	e.Component = component

	return e
}

// Fields flattens the error into key/value pairs for structured logging.
func (e *PreprocessorError) Fields() []interface{} {
	fields := []interface{}{"type", string(e.Type), "code", e.Code}
	if e.Component != "" {
		fields = append(fields, "component", e.Component)
	}

	keys := make([]string, 0, len(e.Context))
	for k := range e.Context {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fields = append(fields, k, e.Context[k])
	}

	return fields
}

// NewParseError creates an error for input that is not well-formed JSON.
func NewParseError(message string, cause error) *PreprocessorError {
	return &PreprocessorError{
		Type:    ErrorTypeParse,
		Code:    ErrCodeParse,
		Message: message,
		Cause:   cause,
	}
}

// NewInvalidInputShapeError creates an error for a well-formed input with an
// unexpected top-level layout.
func NewInvalidInputShapeError(message string) *PreprocessorError {
	return &PreprocessorError{
		Type:    ErrorTypeShape,
		Code:    ErrCodeInvalidInputShape,
		Message: message,
	}
}

// NewIOError creates an I/O error.
func NewIOError(message string, cause error) *PreprocessorError {
	return &PreprocessorError{
		Type:    ErrorTypeIO,
		Code:    ErrCodeIO,
		Message: message,
		Cause:   cause,
	}
}

// NewConfigError creates a configuration error.
func NewConfigError(message string) *PreprocessorError {
	return &PreprocessorError{
		Type:    ErrorTypeConfig,
		Code:    ErrCodeConfigInvalid,
		Message: message,
	}
}

// ErrInvalidArity creates a shape error for an array envelope of the wrong
// length.
func ErrInvalidArity(length int) *PreprocessorError {
	return NewInvalidInputShapeError(
		fmt.Sprintf("expected array of length 2, got %d", length),
	).WithContext("length", length)
}

// ErrInvalidShape creates a shape error for an unsupported top-level value.
func ErrInvalidShape(kind string) *PreprocessorError {
	return NewInvalidInputShapeError(
		fmt.Sprintf("unexpected input format: %s, want [context, book] or {\"book\": ...}", kind),
	).WithContext("kind", kind)
}

func hasType(err error, typ ErrorType) bool {
	var pe *PreprocessorError
	if errors.As(err, &pe) {
		return pe.Type == typ
	}

	return false
}

// IsParseError checks if an error comes from malformed input.
func IsParseError(err error) bool {
	return hasType(err, ErrorTypeParse)
}

// IsInvalidInputShape checks if an error reports an unexpected envelope.
func IsInvalidInputShape(err error) bool {
	return hasType(err, ErrorTypeShape)
}

// IsIOError checks if an error is I/O-related.
func IsIOError(err error) bool {
	return hasType(err, ErrorTypeIO)
}

// IsConfigError checks if an error is configuration-related.
func IsConfigError(err error) bool {
	return hasType(err, ErrorTypeConfig)
}

// Logger interface for error logging.
type Logger interface {
	Error(ctx context.Context, err error, msg string, fields ...interface{})
}

// ErrorHandler reports errors that reach the process boundary.
type ErrorHandler struct {
	logger Logger
}

// NewErrorHandler creates a new error handler.
func NewErrorHandler(logger Logger) *ErrorHandler {
	return &ErrorHandler{logger: logger}
}

// Handle logs err with its structured fields.
func (h *ErrorHandler) Handle(ctx context.Context, err error) {
	if err == nil || h.logger == nil {
		return
	}

	var pe *PreprocessorError
	if !errors.As(err, &pe) {
		h.logger.Error(ctx, err, "Unhandled error occurred")
		return
	}

	switch pe.Type {
	case ErrorTypeParse:
		h.logger.Error(ctx, err, "Input is not valid JSON", pe.Fields()...)
	case ErrorTypeShape:
		h.logger.Error(ctx, err, "Input has an unsupported shape", pe.Fields()...)
	case ErrorTypeIO:
		h.logger.Error(ctx, err, "I/O error occurred", pe.Fields()...)
	default:
		h.logger.Error(ctx, err, "Error occurred", pe.Fields()...)
	}
}
