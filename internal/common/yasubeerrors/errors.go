// Package yasubeerrors contains the errors returned while loading configuration and planning a run.
// The CLI looks for the error types defined in this file to pick the process exit code.
//
// If several problems are found at once (e.g., a configuration file with multiple invalid platforms),
// the caller should return a multierror.Error from github.com/hashicorp/go-multierror wrapping them.
package yasubeerrors

import (
	"fmt"
	"syscall"

	"github.com/hashicorp/go-multierror"
	"github.com/pkg/errors"
)

// ErrNotFound is returned whenever a referenced resource (platform, service, scenario) isn't configured.
// Type and Message are optional and are omitted from the error message if not provided.
type ErrNotFound struct {
	Type    string // Resource type, e.g., "platform" or "scenario"
	Value   string // Resource key, e.g., "DHUS"
	Message string
}

func (err *ErrNotFound) Error() (s string) {
	if err.Type != "" {
		s = fmt.Sprintf("%s %q does not exist", err.Type, err.Value)
	} else {
		s = fmt.Sprintf("resource %q does not exist", err.Value)
	}
	if err.Message != "" {
		return s + fmt.Sprintf("; %s", err.Message)
	}
	return s
}

// ErrInvalidArgument is returned when a configuration value or flag is invalid.
type ErrInvalidArgument struct {
	Name    string // Name of the field referred to, e.g., "platforms.DHUS.root_uri"
	Value   any    // The invalid value that was provided
	Message string // Optional explanation
}

func (err *ErrInvalidArgument) Error() string {
	if err.Message == "" {
		return fmt.Sprintf("value %q is invalid for field %q", fmt.Sprint(err.Value), err.Name)
	}
	return fmt.Sprintf("value %q is invalid for field %q; %s", fmt.Sprint(err.Value), err.Name, err.Message)
}

// ErrConfigFileNotFound is returned when the configuration file does not exist.
type ErrConfigFileNotFound struct {
	Path string
}

func (err *ErrConfigFileNotFound) Error() string {
	return fmt.Sprintf("configuration file %s not found", err.Path)
}

// ErrConfigNotReadable is returned when the configuration file exists but can't be opened or parsed.
type ErrConfigNotReadable struct {
	Path  string
	Cause error
}

func (err *ErrConfigNotReadable) Error() string {
	if err.Cause == nil {
		return fmt.Sprintf("configuration file %s is not readable", err.Path)
	}
	return fmt.Sprintf("configuration file %s is not readable: %s", err.Path, err.Cause)
}

func (err *ErrConfigNotReadable) Unwrap() error {
	return err.Cause
}

// ErrInvalidLoggingConfig is returned when the logging section can't be applied.
type ErrInvalidLoggingConfig struct {
	Cause error
}

func (err *ErrInvalidLoggingConfig) Error() string {
	return fmt.Sprintf("invalid logging configuration: %s", err.Cause)
}

func (err *ErrInvalidLoggingConfig) Unwrap() error {
	return err.Cause
}

// ErrMaxRetryExceeded is returned by a call whose retry budget has been used up.
// Attempts is the number of attempts made; Last is the error of the final attempt.
type ErrMaxRetryExceeded struct {
	Attempts uint
	Last     error
}

func (err *ErrMaxRetryExceeded) Error() string {
	return fmt.Sprintf("giving up after %d attempt(s): %s", err.Attempts, err.Last)
}

func (err *ErrMaxRetryExceeded) Unwrap() error {
	return err.Last
}

// ExitCode maps an error returned by the CLI to the process exit code.
// Uses errors.As so that wrapped and aggregated errors are recognised.
func ExitCode(err error) int {
	if err == nil {
		return 0
	}
	if merr, ok := err.(*multierror.Error); ok && len(merr.Errors) == 1 {
		return ExitCode(merr.Errors[0])
	}
	{
		var e *ErrConfigFileNotFound
		if errors.As(err, &e) {
			return int(syscall.ENOENT)
		}
	}
	{
		var e *ErrInvalidLoggingConfig
		if errors.As(err, &e) {
			return int(syscall.EINVAL)
		}
	}
	return 1
}
