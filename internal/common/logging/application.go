package logging

import (
	"io"
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

// ConfigureApplicationLogging builds a logger from the given config and installs it as the standard logger.
// Extra zap options (e.g. hooks) are applied to the resulting logger.
func ConfigureApplicationLogging(c Config, opts ...zap.Option) error {
	c = c.WithDefaults()
	if err := c.Validate(); err != nil {
		return err
	}
	logger, err := NewLogger(c, os.Stdout, opts...)
	if err != nil {
		return err
	}
	ReplaceStdLogger(logger)
	return nil
}

// NewLogger creates a Logger writing to console (and, if enabled, a rotated file).
func NewLogger(c Config, console io.Writer, opts ...zap.Option) (*Logger, error) {
	consoleLevel, err := parseLogLevel(c.Console.Level)
	if err != nil {
		return nil, err
	}
	cores := []zapcore.Core{
		zapcore.NewCore(newEncoder(c.Console.Format), zapcore.AddSync(console), consoleLevel),
	}

	if c.File.Enabled {
		fileLevel, err := parseLogLevel(c.File.Level)
		if err != nil {
			return nil, err
		}
		cores = append(cores, zapcore.NewCore(newEncoder(c.File.Format), zapcore.AddSync(newFileWriter(c)), fileLevel))
	}

	opts = append([]zap.Option{zap.AddCaller(), zap.AddCallerSkip(1)}, opts...)
	return &Logger{underlying: zap.New(zapcore.NewTee(cores...), opts...).Sugar()}, nil
}

func newFileWriter(c Config) io.Writer {
	if !c.File.Rotation.Enabled {
		// lumberjack with no limits still gives us lazy file creation and safe concurrent writes.
		return &lumberjack.Logger{Filename: c.File.LogFile}
	}
	return &lumberjack.Logger{
		Filename:   c.File.LogFile,
		MaxSize:    c.File.Rotation.MaxSizeMb,
		MaxBackups: c.File.Rotation.MaxBackups,
		MaxAge:     c.File.Rotation.MaxAgeDays,
		Compress:   c.File.Rotation.Compress,
	}
}

func newEncoder(format string) zapcore.Encoder {
	pe := zap.NewProductionEncoderConfig()
	pe.EncodeTime = zapcore.ISO8601TimeEncoder
	if format == FormatJSON {
		return zapcore.NewJSONEncoder(pe)
	}
	pe.ConsoleSeparator = " "
	pe.EncodeLevel = zapcore.CapitalLevelEncoder
	return zapcore.NewConsoleEncoder(pe)
}
