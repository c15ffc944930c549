// Package ratelimit enforces a global minimum interval between probe
// starts, shared by every worker of a batch.
package ratelimit

import (
	"context"
	"time"

	"golang.org/x/time/rate"
)

// Limiter admits at most one caller per interval. Waiting callers are
// released in arrival order; a zero interval disables the limit.
type Limiter struct {
	interval time.Duration
	lim      *rate.Limiter
}

func New(interval time.Duration) *Limiter {
	if interval <= 0 {
		return &Limiter{lim: rate.NewLimiter(rate.Inf, 1)}
	}
	return &Limiter{interval: interval, lim: rate.NewLimiter(rate.Every(interval), 1)}
}

// Wait blocks until the caller may start a probe or ctx is done.
// A cancelled wait does not consume a slot.
func (l *Limiter) Wait(ctx context.Context) error {
	return l.lim.Wait(ctx)
}

// Interval returns the configured minimum spacing.
func (l *Limiter) Interval() time.Duration {
	return l.interval
}
