package publisher

import (
	"context"
	"fmt"
	"math/rand"
	"time"
)

// RescueAction names the recovery step applied when a hydration round
// fails its readiness check
type RescueAction string

const (
	// RescueNone means keep waiting without intervening
	RescueNone RescueAction = "none"
	// RescueDismiss sends escape and a click-away, assuming a blocking overlay
	RescueDismiss RescueAction = "dismiss"
	// RescueReload hard-reloads the page, assuming a stalled fetch
	RescueReload RescueAction = "reload"
	// RescueNavigate forces a fresh navigation to the compose URL
	RescueNavigate RescueAction = "navigate"
)

// RescuePolicy maps a failed round index to an escalating rescue action.
// The table is data, not branching, so escalation order is testable
// without a browser.
type RescuePolicy struct {
	MaxRounds int
	Interval  time.Duration
	Actions   []RescueAction
}

// NewRescuePolicy builds the default escalation: wait, then dismiss,
// then reload, then re-navigate for every remaining round.
func NewRescuePolicy(maxRounds int, interval time.Duration) *RescuePolicy {
	return &RescuePolicy{
		MaxRounds: maxRounds,
		Interval:  interval,
		Actions: []RescueAction{
			RescueNone,
			RescueDismiss,
			RescueReload,
		},
	}
}

// ActionFor returns the rescue action for the given zero-based failed
// round. Rounds beyond the table escalate to re-navigation.
func (p *RescuePolicy) ActionFor(round int) RescueAction {
	if round < 0 {
		round = 0
	}
	if round < len(p.Actions) {
		return p.Actions[round]
	}
	return RescueNavigate
}

// Exhausted reports whether the given zero-based round is past the
// final allowed round
func (p *RescuePolicy) Exhausted(round int) bool {
	return round >= p.MaxRounds
}

// RetryPolicy bounds within-stage retries with exponential backoff
type RetryPolicy struct {
	MaxAttempts       int
	InitialBackoff    time.Duration
	MaxBackoff        time.Duration
	BackoffMultiplier float64
}

// NewRetryPolicy creates the default within-stage retry policy
func NewRetryPolicy() *RetryPolicy {
	return &RetryPolicy{
		MaxAttempts:       3,
		InitialBackoff:    time.Second,
		MaxBackoff:        10 * time.Second,
		BackoffMultiplier: 2.0,
	}
}

// CalculateBackoff returns the backoff for the given zero-based attempt
// with ±25% jitter
func (p *RetryPolicy) CalculateBackoff(attempt int) time.Duration {
	backoff := float64(p.InitialBackoff)
	for i := 0; i < attempt; i++ {
		backoff *= p.BackoffMultiplier
	}
	if backoff > float64(p.MaxBackoff) {
		backoff = float64(p.MaxBackoff)
	}

	jitter := backoff * 0.25 * (rand.Float64()*2 - 1)
	backoff += jitter
	if backoff < 0 {
		backoff = float64(p.InitialBackoff)
	}

	return time.Duration(backoff)
}

// Do runs fn up to MaxAttempts times, sleeping the jittered backoff
// between attempts. Cancellation interrupts the backoff wait, not a
// running attempt.
func (p *RetryPolicy) Do(ctx context.Context, fn func() error) error {
	var lastErr error
	for attempt := 0; attempt < p.MaxAttempts; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(p.CalculateBackoff(attempt - 1)):
			}
		}
		if lastErr = fn(); lastErr == nil {
			return nil
		}
	}
	return fmt.Errorf("all %d attempts failed: %w", p.MaxAttempts, lastErr)
}
