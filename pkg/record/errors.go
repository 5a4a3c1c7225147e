package record

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrNoIdentity is returned when identity is requested from a type that
	// defines no index. Callers fall back to pointer identity.
	ErrNoIdentity = errors.New("record type defines no identity")

	// ErrNoConversion is returned when no conversion is registered for the
	// source type of a transform.
	ErrNoConversion = errors.New("no conversion registered")

	// ErrTypeMismatch is returned when two records of different types are
	// combined.
	ErrTypeMismatch = errors.New("record type mismatch")

	// ErrUnsupportedHint is returned by TextRow for unknown format hints.
	ErrUnsupportedHint = errors.New("unsupported text format hint")

	// ErrUnknownField is returned when a field name is not part of the type.
	ErrUnknownField = errors.New("unknown field")
)

// FieldError describes one failed constraint of a raw value.
type FieldError struct {
	// Path is the dotted field path ("stats.battles").
	Path string

	// Message is a human-readable description.
	Message string
}

// Error implements the error interface.
func (e FieldError) Error() string {
	if e.Path == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Path, e.Message)
}

// ValidationError collects the field errors of one raw value.
type ValidationError struct {
	Type   string
	Errors []FieldError
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	switch len(e.Errors) {
	case 0:
		return fmt.Sprintf("validation of %s failed", e.Type)
	case 1:
		return fmt.Sprintf("validation of %s failed: %s", e.Type, e.Errors[0].Error())
	}
	var sb strings.Builder
	fmt.Fprintf(&sb, "validation of %s failed with %d errors:", e.Type, len(e.Errors))
	for _, fe := range e.Errors {
		sb.WriteString("\n  - ")
		sb.WriteString(fe.Error())
	}
	return sb.String()
}

// NewValidationError creates a ValidationError.
func NewValidationError(typeName string, errs ...FieldError) *ValidationError {
	return &ValidationError{Type: typeName, Errors: errs}
}

// ReadError wraps any failure to produce a record from raw input.
type ReadError struct {
	Type  string // Target record type
	From  string // Intermediate type when reading through a conversion
	Cause error
}

// Error implements the error interface.
func (e *ReadError) Error() string {
	if e.From != "" {
		return fmt.Sprintf("read %s (via %s): %v", e.Type, e.From, e.Cause)
	}
	return fmt.Sprintf("read %s: %v", e.Type, e.Cause)
}

// Unwrap returns the underlying cause error.
func (e *ReadError) Unwrap() error {
	return e.Cause
}

// NewReadError creates a ReadError.
func NewReadError(typeName, from string, cause error) *ReadError {
	return &ReadError{Type: typeName, From: from, Cause: cause}
}
