package testcase

import (
	"time"

	"github.com/pkg/errors"

	"github.com/yasube/yasube/internal/common/config"
	"github.com/yasube/yasube/internal/common/yasubeerrors"
)

// Config holds the tunables of one test case for the duration of a scenario run.
type Config struct {
	// How many calls to issue: repetitions for list cases, picked keys for detail cases.
	RequestsCount int `mapstructure:"requests_count"`
	// Pause after every attempt.
	RequestsDelay   time.Duration `mapstructure:"requests_delay"`
	RequestsTimeout time.Duration `mapstructure:"requests_timeout"`
	// nil means the first failure is terminal.
	MaxRetries *int          `mapstructure:"max_retries"`
	RetryDelay time.Duration `mapstructure:"retry_delay"`
	// Query template appended to list URLs.
	Query string `mapstructure:"query"`
	// Treat an empty list as a retryable failure.
	EnsureResults bool `mapstructure:"ensure_results"`
	// Items declaring a ContentLength at or above this are not picked for download.
	MaxDownloadSize *int64 `mapstructure:"max_download_size"`
	// Stop reading a download after this many bytes; 0 reads the whole stream.
	MaxDownloadBytes int64 `mapstructure:"max_download_bytes"`
}

// DefaultConfig is a single call with no retries, delay or timeout.
func DefaultConfig() Config {
	return Config{RequestsCount: 1}
}

// DecodeConfig reads a case section of the configuration file. Numbers are seconds for every duration.
func DecodeConfig(raw map[string]any) (Config, error) {
	c := DefaultConfig()
	if err := config.Decode(raw, &c); err != nil {
		return Config{}, err
	}
	return c, c.Validate()
}

func (c Config) Validate() error {
	if c.RequestsCount < 0 {
		return errors.WithStack(&yasubeerrors.ErrInvalidArgument{
			Name: "requests_count", Value: c.RequestsCount, Message: "must not be negative",
		})
	}
	if c.MaxRetries != nil && *c.MaxRetries < 0 {
		return errors.WithStack(&yasubeerrors.ErrInvalidArgument{
			Name: "max_retries", Value: *c.MaxRetries, Message: "must not be negative",
		})
	}
	for name, d := range map[string]time.Duration{
		"requests_delay":   c.RequestsDelay,
		"requests_timeout": c.RequestsTimeout,
		"retry_delay":      c.RetryDelay,
	} {
		if d < 0 {
			return errors.WithStack(&yasubeerrors.ErrInvalidArgument{Name: name, Value: d, Message: "must not be negative"})
		}
	}
	return nil
}

// RetryPolicy returns the retry policy configured for the case.
func (c Config) RetryPolicy() RetryPolicy {
	return RetryPolicy{MaxRetries: c.MaxRetries, Delay: c.RetryDelay}
}
