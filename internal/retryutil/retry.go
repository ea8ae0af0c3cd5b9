// Package retryutil paces reconnect attempts against flaky collaborators.
package retryutil

import (
	"context"
	"time"
)

const (
	defaultBaseDelay  = 2 * time.Second
	defaultMaxBackoff = time.Minute
)

// Backoff tracks a doubling delay between reconnect attempts, reset on
// success.
type Backoff struct {
	base time.Duration
	max  time.Duration
	cur  time.Duration
}

func NewBackoff(base, max time.Duration) *Backoff {
	if base <= 0 {
		base = defaultBaseDelay
	}
	if max <= 0 {
		max = defaultMaxBackoff
	}
	return &Backoff{base: base, max: max}
}

// Wait sleeps for the current delay, doubling it for the next call. It
// returns early with ctx.Err() on cancellation.
func (b *Backoff) Wait(ctx context.Context) error {
	if b.cur <= 0 {
		b.cur = b.base
	}
	timer := time.NewTimer(b.cur)
	defer timer.Stop()
	b.cur *= 2
	if b.cur > b.max {
		b.cur = b.max
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func (b *Backoff) Reset() {
	b.cur = 0
}

// Delay reports the delay the next Wait call will use.
func (b *Backoff) Delay() time.Duration {
	if b.cur <= 0 {
		return b.base
	}
	return b.cur
}
