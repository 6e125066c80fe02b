package testcase

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/yasube/yasube/internal/common/yasubeerrors"
)

func TestRetryPolicy_Next(t *testing.T) {
	tests := map[string]struct {
		policy  RetryPolicy
		attempt uint
		failed  bool
		want    State
	}{
		"success":                   {policy: RetryPolicy{}, attempt: 1, failed: false, want: Succeeded},
		"no budget":                 {policy: RetryPolicy{}, attempt: 1, failed: true, want: Exhausted},
		"zero retries":              {policy: RetryPolicy{MaxRetries: intPtr(0)}, attempt: 1, failed: true, want: Exhausted},
		"within budget":             {policy: RetryPolicy{MaxRetries: intPtr(2)}, attempt: 2, failed: true, want: Retrying},
		"last attempt":              {policy: RetryPolicy{MaxRetries: intPtr(2)}, attempt: 3, failed: true, want: Exhausted},
		"success after retries":     {policy: RetryPolicy{MaxRetries: intPtr(2)}, attempt: 3, failed: false, want: Succeeded},
		"first attempt with budget": {policy: RetryPolicy{MaxRetries: intPtr(1)}, attempt: 1, failed: true, want: Retrying},
	}
	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			assert.Equal(t, tc.want, tc.policy.Next(tc.attempt, tc.failed))
		})
	}
}

func TestRetryPolicy_Do(t *testing.T) {
	boom := errors.New("boom")

	var attempts []uint
	err := RetryPolicy{MaxRetries: intPtr(2), Delay: time.Millisecond}.Do(context.Background(), func(attempt uint) error {
		attempts = append(attempts, attempt)
		return boom
	})
	assert.Equal(t, []uint{1, 2, 3}, attempts)
	var exceeded *yasubeerrors.ErrMaxRetryExceeded
	assert.ErrorAs(t, err, &exceeded)
	assert.Equal(t, uint(3), exceeded.Attempts)
	assert.ErrorIs(t, err, boom)

	attempts = nil
	err = RetryPolicy{MaxRetries: intPtr(5)}.Do(context.Background(), func(attempt uint) error {
		attempts = append(attempts, attempt)
		if attempt < 2 {
			return boom
		}
		return nil
	})
	assert.NoError(t, err)
	assert.Equal(t, []uint{1, 2}, attempts)
}

func TestState_String(t *testing.T) {
	assert.Equal(t, "retrying", Retrying.String())
	assert.Equal(t, "exhausted", Exhausted.String())
}
