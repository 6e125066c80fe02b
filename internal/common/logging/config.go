package logging

import (
	"strings"

	"github.com/pkg/errors"
	"go.uber.org/zap/zapcore"
	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"
)

const (
	FormatText = "text"
	FormatJSON = "json"
)

var validLogFormats = map[string]bool{
	FormatText: true,
	FormatJSON: true,
}

// Config is the `logging` section of the configuration file.
type Config struct {
	Console struct {
		// Log level, e.g. INFO, ERROR etc
		Level string `yaml:"level"`
		// Either text or json
		Format string `yaml:"format"`
	} `yaml:"console"`
	File struct {
		Enabled bool   `yaml:"enabled"`
		Level   string `yaml:"level"`
		Format  string `yaml:"format"`
		LogFile string `yaml:"logfile"`
		// Rotation is handed to lumberjack as is.
		Rotation struct {
			Enabled    bool `yaml:"enabled"`
			MaxSizeMb  int  `yaml:"maxSizeMb"`
			MaxBackups int  `yaml:"maxBackups"`
			MaxAgeDays int  `yaml:"maxAgeDays"`
			Compress   bool `yaml:"compress"`
		} `yaml:"rotation"`
	} `yaml:"file"`
}

// DefaultConfig logs text at info level to stdout only.
func DefaultConfig() Config {
	c := Config{}
	c.Console.Level = "info"
	c.Console.Format = FormatText
	return c
}

// WithDefaults fills in console settings the user left blank.
func (c Config) WithDefaults() Config {
	if c.Console.Level == "" {
		c.Console.Level = "info"
	}
	if c.Console.Format == "" {
		c.Console.Format = FormatText
	}
	if c.File.Enabled && c.File.Format == "" {
		c.File.Format = c.Console.Format
	}
	if c.File.Enabled && c.File.Level == "" {
		c.File.Level = c.Console.Level
	}
	return c
}

// Validate checks levels, formats and rotation limits.
func (c Config) Validate() error {
	if _, err := parseLogLevel(c.Console.Level); err != nil {
		return err
	}
	if err := validateLogFormat(c.Console.Format); err != nil {
		return err
	}
	if !c.File.Enabled {
		return nil
	}
	if c.File.LogFile == "" {
		return errors.New("file.logfile must be set when file logging is enabled")
	}
	if _, err := parseLogLevel(c.File.Level); err != nil {
		return err
	}
	if err := validateLogFormat(c.File.Format); err != nil {
		return err
	}
	rotation := c.File.Rotation
	if rotation.Enabled {
		if rotation.MaxSizeMb <= 0 {
			return errors.New("rotation.maxSizeMb must be greater than zero")
		}
		if rotation.MaxBackups <= 0 {
			return errors.New("rotation.maxBackups must be greater than zero")
		}
		if rotation.MaxAgeDays <= 0 {
			return errors.New("rotation.maxAgeDays must be greater than zero")
		}
	}
	return nil
}

func validateLogFormat(f string) error {
	if _, ok := validLogFormats[f]; !ok {
		formats := maps.Keys(validLogFormats)
		slices.Sort(formats)
		return errors.Errorf("unknown log format: %s.  Valid formats are %s", f, formats)
	}
	return nil
}

func parseLogLevel(level string) (zapcore.Level, error) {
	switch strings.ToLower(level) {
	case "debug":
		return zapcore.DebugLevel, nil
	case "info":
		return zapcore.InfoLevel, nil
	case "warn", "warning":
		return zapcore.WarnLevel, nil
	case "error":
		return zapcore.ErrorLevel, nil
	case "panic":
		return zapcore.PanicLevel, nil
	case "fatal", "critical":
		return zapcore.FatalLevel, nil
	default:
		return zapcore.InfoLevel, errors.Errorf("unknown level: %s", level)
	}
}
