package logging

import (
	"github.com/pkg/errors"
)

const Stacktrace = "stacktrace"

// Unexported but considered part of the stable interface of pkg/errors.
type causer interface {
	Cause() error
}

// ExtractStack walks down the list of errors and retrieves the first errors.StackTrace it encounters
// If no stacktraces are found, it returns nil
func ExtractStack(err error) errors.StackTrace {
	if stackErr, ok := err.(stackTracer); ok {
		return stackErr.StackTrace()
	} else if causeErr, ok := err.(causer); ok {
		return ExtractStack(causeErr.Cause())
	}
	return nil
}
