package llm

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"
)

// ErrThrottled is returned when a call could not get a slot before its
// context deadline.
var ErrThrottled = errors.New("model call throttled")

// throttled lets at most rpm calls start in any minute. After an idle
// minute a full burst of rpm calls may start at once. Slots are handed out
// in order, so waiting callers are served first come first served.
type throttled struct {
	next     Provider
	interval time.Duration // minute / rpm
	slack    time.Duration // minute - interval, the burst allowance
	now      func() time.Time

	mu  sync.Mutex
	due time.Time // when the next slot would be due at a steady rate
}

// NewRateLimitedProvider throttles p to rpm calls per minute. rpm <= 0
// returns p unchanged.
func NewRateLimitedProvider(p Provider, rpm int) Provider {
	if rpm <= 0 {
		return p
	}
	interval := time.Minute / time.Duration(rpm)
	return &throttled{next: p, interval: interval, slack: time.Minute - interval, now: time.Now}
}

func (t *throttled) Name() string { return t.next.Name() }

func (t *throttled) Complete(ctx context.Context, req CompletionRequest) (*CompletionResponse, error) {
	wait := t.reserve()
	if wait > 0 {
		if deadline, ok := ctx.Deadline(); ok && t.now().Add(wait).After(deadline) {
			t.release()
			return nil, fmt.Errorf("%w: %w", ErrThrottled, context.DeadlineExceeded)
		}
		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			t.release()
			return nil, ctx.Err()
		case <-timer.C:
		}
	}
	return t.next.Complete(ctx, req)
}

// reserve books the next slot and returns how long to wait for it.
func (t *throttled) reserve() time.Duration {
	t.mu.Lock()
	defer t.mu.Unlock()
	now := t.now()
	if t.due.Before(now) {
		t.due = now
	}
	start := t.due.Add(-t.slack)
	t.due = t.due.Add(t.interval)
	if start.Before(now) {
		return 0
	}
	return start.Sub(now)
}

// release returns a slot booked by a caller that gave up.
func (t *throttled) release() {
	t.mu.Lock()
	t.due = t.due.Add(-t.interval)
	t.mu.Unlock()
}
