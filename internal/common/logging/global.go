package logging

import (
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// stdLogger is used by the package level helpers. The default writes text at debug level to stdout, which is
// what tests want; the CLI replaces it from the logging section of the configuration file.
var (
	stdLogger = &Logger{underlying: createDefaultLogger()}
	// helperLogger skips the extra frame of the package level helpers so that callers are reported correctly.
	helperLogger = stdLogger.withCallerSkip(1)
)

// ReplaceStdLogger replaces the global logger. Call once at startup.
func ReplaceStdLogger(l *Logger) {
	stdLogger = l
	helperLogger = l.withCallerSkip(1)
}

// StdLogger returns the global logger
func StdLogger() *Logger {
	return stdLogger
}

func Debug(args ...any) {
	helperLogger.Debug(args...)
}

func Info(args ...any) {
	helperLogger.Info(args...)
}

func Warn(args ...any) {
	helperLogger.Warn(args...)
}

func Error(args ...any) {
	helperLogger.Error(args...)
}

func Debugf(format string, args ...any) {
	helperLogger.Debugf(format, args...)
}

func Infof(format string, args ...any) {
	helperLogger.Infof(format, args...)
}

func Warnf(format string, args ...any) {
	helperLogger.Warnf(format, args...)
}

func Errorf(format string, args ...any) {
	helperLogger.Errorf(format, args...)
}

// WithField returns a new Logger with the key-value pair added as a new field
func WithField(key string, value any) *Logger {
	return stdLogger.WithField(key, value)
}

// WithFields returns a new Logger with all key-value pairs in the map added as new fields
func WithFields(args map[string]any) *Logger {
	return stdLogger.WithFields(args)
}

// WithError returns a new Logger with the error added as a field
func WithError(err error) *Logger {
	return stdLogger.WithError(err)
}

// WithStacktrace returns a new Logger with the error and (if available) the stacktrace added as fields
func WithStacktrace(err error) *Logger {
	return stdLogger.WithStacktrace(err)
}

func createDefaultLogger() *zap.SugaredLogger {
	core := zapcore.NewCore(newEncoder(FormatText), zapcore.AddSync(os.Stdout), zapcore.DebugLevel)
	return zap.New(core, zap.AddCaller(), zap.AddCallerSkip(1)).Sugar()
}
