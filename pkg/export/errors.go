package export

import (
	"errors"
	"fmt"
)

var (
	// ErrDestinationExists is returned when the destination exists and
	// neither Force nor Append is set, or when it is not a regular file.
	ErrDestinationExists = errors.New("destination exists")

	// ErrUnknownFormat is returned for a format name that is not txt,
	// json or csv.
	ErrUnknownFormat = errors.New("unknown export format")

	// ErrNoDestination is returned for an empty destination path.
	ErrNoDestination = errors.New("no destination")

	// ErrNotExportable is returned for a row that does not implement the
	// renderer contract of the export format.
	ErrNotExportable = errors.New("record does not support the export format")
)

// ConfigError is a call-level configuration failure, detected before any
// destination is touched.
type ConfigError struct {
	Field string // Option that is invalid ("format", "path")
	Value string // Offending value
	Cause error  // Underlying error
}

// Error implements the error interface.
func (e *ConfigError) Error() string {
	return fmt.Sprintf("export config error [%s=%q]: %v", e.Field, e.Value, e.Cause)
}

// Unwrap returns the underlying cause error.
func (e *ConfigError) Unwrap() error {
	return e.Cause
}

// NewConfigError creates a new ConfigError.
func NewConfigError(field, value string, cause error) *ConfigError {
	return &ConfigError{
		Field: field,
		Value: value,
		Cause: cause,
	}
}

// ExportError is a destination-level failure that ends an export call.
type ExportError struct {
	Format    Format // Resolved format
	Path      string // Destination path, "-" for stdout
	Operation string // Operation that failed ("check", "open", "header", "close")
	Cause     error  // Underlying error
}

// Error implements the error interface.
func (e *ExportError) Error() string {
	return fmt.Sprintf("export error [format=%s, path=%s, operation=%s]: %v", e.Format, e.Path, e.Operation, e.Cause)
}

// Unwrap returns the underlying cause error.
func (e *ExportError) Unwrap() error {
	return e.Cause
}

// NewExportError creates a new ExportError.
func NewExportError(format Format, path, operation string, cause error) *ExportError {
	return &ExportError{
		Format:    format,
		Path:      path,
		Operation: operation,
		Cause:     cause,
	}
}
