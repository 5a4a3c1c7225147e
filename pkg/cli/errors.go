package cli

import (
	"context"
	"errors"
	"fmt"

	"mercator-hq/exportable/pkg/config"
	"mercator-hq/exportable/pkg/export"
	"mercator-hq/exportable/pkg/schema"
)

// Process exit codes.
const (
	ExitOK        = 0
	ExitFailure   = 1
	ExitConfig    = 2
	ExitConflict  = 3
	ExitCancelled = 130
)

// ConfigError represents an error in configuration or command-line usage.
type ConfigError struct {
	Field   string
	Message string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("config error in %s: %s", e.Field, e.Message)
}

// CommandError represents an error from a command execution.
type CommandError struct {
	Command string
	Err     error
}

func (e *CommandError) Error() string {
	return fmt.Sprintf("command %s failed: %v", e.Command, e.Err)
}

func (e *CommandError) Unwrap() error {
	return e.Err
}

// NewConfigError creates a new ConfigError.
func NewConfigError(field, message string) *ConfigError {
	return &ConfigError{
		Field:   field,
		Message: message,
	}
}

// NewCommandError creates a new CommandError.
func NewCommandError(command string, err error) *CommandError {
	return &CommandError{
		Command: command,
		Err:     err,
	}
}

// ExitCode maps an error returned by a command to the process exit code.
func ExitCode(err error) int {
	if err == nil {
		return ExitOK
	}

	var cfgErr *ConfigError
	var validationErr config.ValidationError
	var exportCfgErr *export.ConfigError
	var defErr *schema.DefinitionError
	switch {
	case errors.Is(err, context.Canceled):
		return ExitCancelled
	case errors.Is(err, export.ErrDestinationExists):
		return ExitConflict
	case errors.As(err, &cfgErr),
		errors.As(err, &validationErr),
		errors.As(err, &exportCfgErr),
		errors.As(err, &defErr),
		errors.Is(err, schema.ErrUnknownType):
		return ExitConfig
	}
	return ExitFailure
}
