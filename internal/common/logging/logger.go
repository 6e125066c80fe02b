package logging

import (
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

// Logger wraps a zap SugaredLogger so that the rest of the codebase does not depend on zap directly.
type Logger struct {
	underlying *zap.SugaredLogger
}

// FromZap returns a Logger backed by the given zap logger.
func FromZap(l *zap.Logger) *Logger {
	return &Logger{underlying: l.Sugar()}
}

// Debug logs a message at level Debug
func (l *Logger) Debug(args ...any) {
	l.underlying.Debug(args...)
}

// Info logs a message at level Info
func (l *Logger) Info(args ...any) {
	l.underlying.Info(args...)
}

// Warn logs a message at level Warn
func (l *Logger) Warn(args ...any) {
	l.underlying.Warn(args...)
}

// Error logs a message at level Error
func (l *Logger) Error(args ...any) {
	l.underlying.Error(args...)
}

// Panic logs a message at level Panic
func (l *Logger) Panic(args ...any) {
	l.underlying.Panic(args...)
}

// Fatal logs a message at level Fatal then the process will exit with status set to 1.
func (l *Logger) Fatal(args ...any) {
	l.underlying.Fatal(args...)
}

func (l *Logger) Debugf(format string, args ...any) {
	l.underlying.Debugf(format, args...)
}

func (l *Logger) Infof(format string, args ...any) {
	l.underlying.Infof(format, args...)
}

func (l *Logger) Warnf(format string, args ...any) {
	l.underlying.Warnf(format, args...)
}

func (l *Logger) Errorf(format string, args ...any) {
	l.underlying.Errorf(format, args...)
}

func (l *Logger) Fatalf(format string, args ...any) {
	l.underlying.Fatalf(format, args...)
}

// WithField returns a new Logger with the key-value pair added as a new field
func (l *Logger) WithField(key string, value any) *Logger {
	return &Logger{underlying: l.underlying.With(key, value)}
}

// WithFields returns a new Logger with all key-value pairs in the map added as new fields
func (l *Logger) WithFields(args map[string]any) *Logger {
	fields := make([]any, 0, len(args)*2)
	for k, v := range args {
		fields = append(fields, k, v)
	}
	return &Logger{underlying: l.underlying.With(fields...)}
}

// WithError returns a new Logger with the error added as a field
func (l *Logger) WithError(err error) *Logger {
	if err == nil {
		return l
	}
	return &Logger{underlying: l.underlying.With("error", err.Error())}
}

// WithStacktrace returns a new Logger with the error and (if available) the stacktrace added as fields
func (l *Logger) WithStacktrace(err error) *Logger {
	logger := l.WithError(err)
	if stack := ExtractStack(err); stack != nil {
		return logger.WithField(Stacktrace, stack)
	}
	return logger
}

func (l *Logger) withCallerSkip(skip int) *Logger {
	return &Logger{underlying: l.underlying.Desugar().WithOptions(zap.AddCallerSkip(skip)).Sugar()}
}

// Sync flushes any buffered log entries.
func (l *Logger) Sync() error {
	return l.underlying.Sync()
}

// Unexported but considered part of the stable interface of pkg/errors.
type stackTracer interface {
	StackTrace() errors.StackTrace
}

