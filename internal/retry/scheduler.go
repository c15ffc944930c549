// Package retry runs a probe across a domain's mail exchangers with a
// per-host retry budget and cross-host fallback.
package retry

import (
	"context"
	"math"
	"time"

	"github.com/optimode/mxprobe/types"
)

// Backoff computes the wait before a retry on the same host.
// The delay grows by Multiplier per retry and is capped at Max.
type Backoff struct {
	Base       time.Duration
	Multiplier float64
	Max        time.Duration
}

// Fixed returns a constant backoff.
func Fixed(d time.Duration) Backoff {
	return Backoff{Base: d, Multiplier: 1}
}

// Exponential returns a backoff that doubles per retry up to limit (0 = uncapped).
func Exponential(base, limit time.Duration) Backoff {
	return Backoff{Base: base, Multiplier: 2, Max: limit}
}

// Delay returns the wait after the n-th failed attempt on a host (n >= 1).
// It never decreases as n grows.
func (b Backoff) Delay(n int) time.Duration {
	if b.Base <= 0 || n < 1 {
		return 0
	}
	m := b.Multiplier
	if m < 1 {
		m = 1
	}
	d := float64(b.Base) * math.Pow(m, float64(n-1))
	if b.Max > 0 && d > float64(b.Max) {
		return b.Max
	}
	if d > math.MaxInt64 {
		return time.Duration(math.MaxInt64)
	}
	return time.Duration(d)
}

// Policy bounds the retries for one host.
type Policy struct {
	MaxRetries int
	Backoff    Backoff
}

// ProbeFunc runs one probe attempt against host.
type ProbeFunc func(ctx context.Context, host types.MXHost) types.Outcome

// Report summarises a scheduler run.
type Report struct {
	// Outcome is the definitive outcome, or the last one observed.
	Outcome types.Outcome
	// Host produced Outcome.
	Host types.MXHost
	// Attempts counts probes across all hosts.
	Attempts int
	// Permanent is the last non-definitive permanent failure, if any.
	Permanent *types.Outcome
	// Cancelled is set when ctx ended the run before a definitive outcome.
	Cancelled bool
}

// Definitive reports whether some host accepted or rejected the recipient.
func (r Report) Definitive() bool { return r.Outcome.Definitive() }

// Scheduler implements the retry policy. It is stateless between runs.
type Scheduler struct {
	policy Policy
	sleep  func(ctx context.Context, d time.Duration) error
	gate   func(ctx context.Context) error
}

// Option configures a Scheduler.
type Option func(*Scheduler)

// WithGate runs fn before every probe attempt; an error ends the run as
// cancelled. Used to apply the shared rate limit.
func WithGate(fn func(ctx context.Context) error) Option {
	return func(s *Scheduler) { s.gate = fn }
}

// WithSleep replaces the backoff wait, for tests.
func WithSleep(fn func(ctx context.Context, d time.Duration) error) Option {
	return func(s *Scheduler) { s.sleep = fn }
}

func New(policy Policy, opts ...Option) *Scheduler {
	if policy.MaxRetries < 0 {
		policy.MaxRetries = 0
	}
	s := &Scheduler{policy: policy, sleep: sleepCtx}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Run probes hosts in order. Each host gets up to MaxRetries+1 attempts
// while outcomes are transient; a permanent failure moves on to the next
// host at once. The first Accepted or Rejected outcome ends the run.
// There is no wait between hosts.
func (s *Scheduler) Run(ctx context.Context, hosts []types.MXHost, probe ProbeFunc) Report {
	var rep Report
	if len(hosts) == 0 {
		rep.Outcome = types.Permanent("no mail hosts")
		return rep
	}

	for _, host := range hosts {
		for attempt := 1; attempt <= s.policy.MaxRetries+1; attempt++ {
			if ctx.Err() != nil {
				rep.Cancelled = true
				return rep
			}
			if s.gate != nil {
				if err := s.gate(ctx); err != nil {
					rep.Cancelled = true
					return rep
				}
			}

			out := probe(ctx, host)
			rep.Attempts++
			rep.Outcome, rep.Host = out, host

			if out.Definitive() {
				return rep
			}
			if ctx.Err() != nil {
				rep.Cancelled = true
				return rep
			}
			if out.Kind != types.OutcomeTransient {
				p := out
				rep.Permanent = &p
				break
			}
			if attempt <= s.policy.MaxRetries {
				if err := s.sleep(ctx, s.policy.Backoff.Delay(attempt)); err != nil {
					rep.Cancelled = true
					return rep
				}
			}
		}
	}
	return rep
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
