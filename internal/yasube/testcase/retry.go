package testcase

import (
	"context"
	"time"

	"github.com/avast/retry-go"

	"github.com/yasube/yasube/internal/common/yasubeerrors"
)

// State of a call under a retry policy.
type State int

const (
	Attempting State = iota
	Retrying
	Exhausted
	Succeeded
)

func (s State) String() string {
	switch s {
	case Attempting:
		return "attempting"
	case Retrying:
		return "retrying"
	case Exhausted:
		return "exhausted"
	case Succeeded:
		return "succeeded"
	}
	return "unknown"
}

// RetryPolicy bounds how many times a failing call is attempted.
type RetryPolicy struct {
	// nil means a single attempt.
	MaxRetries *int
	Delay      time.Duration
}

// Attempts is the total number of attempts allowed.
func (p RetryPolicy) Attempts() uint {
	if p.MaxRetries == nil || *p.MaxRetries < 0 {
		return 1
	}
	return uint(*p.MaxRetries) + 1
}

// Next is the state reached once the given (1-based) attempt has completed.
func (p RetryPolicy) Next(attempt uint, failed bool) State {
	switch {
	case !failed:
		return Succeeded
	case attempt < p.Attempts():
		return Retrying
	default:
		return Exhausted
	}
}

// Do runs f until it succeeds or the policy is exhausted, waiting Delay between attempts. f receives the
// 1-based attempt number. Only the calling goroutine waits. On exhaustion the error is an
// ErrMaxRetryExceeded wrapping the last failure.
func (p RetryPolicy) Do(ctx context.Context, f func(attempt uint) error) error {
	var attempt uint
	err := retry.Do(
		func() error {
			attempt++
			return f(attempt)
		},
		retry.Context(ctx),
		retry.Attempts(p.Attempts()),
		retry.Delay(p.Delay),
		retry.DelayType(retry.FixedDelay),
		retry.LastErrorOnly(true),
	)
	if err != nil {
		return &yasubeerrors.ErrMaxRetryExceeded{Attempts: attempt, Last: err}
	}
	return nil
}
