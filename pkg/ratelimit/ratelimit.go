// Package ratelimit spaces out outbound requests with a token bucket and an
// optional random delay on top.
package ratelimit

import (
	"context"
	"math/rand/v2"
	"time"

	"golang.org/x/time/rate"
)

// Limiter paces callers of Wait. A nil *Limiter never blocks.
type Limiter struct {
	bucket   *rate.Limiter
	interval time.Duration
	jitter   float64
}

// New returns a limiter allowing rps requests per second with a burst of one.
// jitter in [0,1] adds a random extra delay of up to jitter*interval after
// each token. rps <= 0 disables limiting.
func New(rps, jitter float64) *Limiter {
	if rps <= 0 {
		return nil
	}
	jitter = min(max(jitter, 0), 1)
	return &Limiter{
		bucket:   rate.NewLimiter(rate.Limit(rps), 1),
		interval: time.Duration(float64(time.Second) / rps),
		jitter:   jitter,
	}
}

// Wait blocks until the next request may go out or ctx is done.
func (l *Limiter) Wait(ctx context.Context) error {
	if l == nil {
		return nil
	}
	if err := l.bucket.Wait(ctx); err != nil {
		return err
	}
	if l.jitter == 0 {
		return nil
	}

	extra := time.Duration(rand.Float64() * l.jitter * float64(l.interval))
	if extra <= 0 {
		return nil
	}
	timer := time.NewTimer(extra)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Interval is the nominal spacing between requests.
func (l *Limiter) Interval() time.Duration {
	if l == nil {
		return 0
	}
	return l.interval
}
