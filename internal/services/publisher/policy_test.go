package publisher

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestRescuePolicy_EscalationOrder(t *testing.T) {
	policy := NewRescuePolicy(6, time.Second)

	assert.Equal(t, RescueNone, policy.ActionFor(0))
	assert.Equal(t, RescueDismiss, policy.ActionFor(1))
	assert.Equal(t, RescueReload, policy.ActionFor(2))
	// Every round past the table escalates to re-navigation
	assert.Equal(t, RescueNavigate, policy.ActionFor(3))
	assert.Equal(t, RescueNavigate, policy.ActionFor(10))
}

func TestRescuePolicy_NegativeRoundClamped(t *testing.T) {
	policy := NewRescuePolicy(3, time.Second)
	assert.Equal(t, RescueNone, policy.ActionFor(-1))
}

func TestRescuePolicy_Exhaustion(t *testing.T) {
	policy := NewRescuePolicy(4, time.Second)

	assert.False(t, policy.Exhausted(0))
	assert.False(t, policy.Exhausted(3))
	assert.True(t, policy.Exhausted(4))
	assert.True(t, policy.Exhausted(5))
}

func TestRetryPolicy_BackoffBounded(t *testing.T) {
	policy := NewRetryPolicy()

	for attempt := 0; attempt < 10; attempt++ {
		backoff := policy.CalculateBackoff(attempt)
		assert.Greater(t, backoff, time.Duration(0))
		// MaxBackoff plus the 25% jitter ceiling
		assert.LessOrEqual(t, backoff, policy.MaxBackoff+policy.MaxBackoff/4)
	}
}

func TestRetryPolicy_BackoffGrows(t *testing.T) {
	policy := &RetryPolicy{
		MaxAttempts:       5,
		InitialBackoff:    time.Second,
		MaxBackoff:        time.Minute,
		BackoffMultiplier: 2.0,
	}

	// Compare against jitter bounds rather than exact values
	first := policy.CalculateBackoff(0)
	assert.InDelta(t, float64(time.Second), float64(first), float64(time.Second)*0.26)

	third := policy.CalculateBackoff(2)
	assert.InDelta(t, float64(4*time.Second), float64(third), float64(4*time.Second)*0.26)
}

func fastRetryPolicy() *RetryPolicy {
	return &RetryPolicy{
		MaxAttempts:       3,
		InitialBackoff:    time.Millisecond,
		MaxBackoff:        4 * time.Millisecond,
		BackoffMultiplier: 2.0,
	}
}

func TestRetryPolicy_DoFirstAttemptSucceeds(t *testing.T) {
	calls := 0
	err := fastRetryPolicy().Do(context.Background(), func() error {
		calls++
		return nil
	})

	assert.NoError(t, err)
	assert.Equal(t, 1, calls)
}

func TestRetryPolicy_DoRecoversWithinBudget(t *testing.T) {
	calls := 0
	err := fastRetryPolicy().Do(context.Background(), func() error {
		calls++
		if calls < 3 {
			return errors.New("flaky")
		}
		return nil
	})

	assert.NoError(t, err)
	assert.Equal(t, 3, calls)
}

func TestRetryPolicy_DoExhaustsAttempts(t *testing.T) {
	calls := 0
	cause := errors.New("still broken")
	err := fastRetryPolicy().Do(context.Background(), func() error {
		calls++
		return cause
	})

	assert.Equal(t, 3, calls)
	assert.ErrorIs(t, err, cause)
}

func TestRetryPolicy_DoStopsOnCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	calls := 0
	err := fastRetryPolicy().Do(ctx, func() error {
		calls++
		cancel()
		return errors.New("fails once")
	})

	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, calls)
}
