package mxprobe

import (
	"context"
	"errors"
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/optimode/mxprobe/check"
	"github.com/optimode/mxprobe/internal/classify"
	"github.com/optimode/mxprobe/internal/metrics"
	"github.com/optimode/mxprobe/internal/ratelimit"
	"github.com/optimode/mxprobe/internal/retry"
	"github.com/optimode/mxprobe/types"
)

// Option configures an Engine at construction.
type Option func(*engineOptions)

type engineOptions struct {
	logger   logrus.FieldLogger
	strategy check.Strategy
	resolver check.Resolver
	dial     func(ctx context.Context, network, address string) (net.Conn, error)
}

// WithLogger sets the logger. Default: logrus.StandardLogger().
func WithLogger(l logrus.FieldLogger) Option {
	return func(o *engineOptions) { o.logger = l }
}

// WithStrategy replaces the SMTP probe with another Strategy, e.g. a
// check.HTTPStrategy.
func WithStrategy(s check.Strategy) Option {
	return func(o *engineOptions) { o.strategy = s }
}

// WithResolver overrides the DNS backend. Caching and the A-record
// fallback policy still apply.
func WithResolver(r check.Resolver) Option {
	return func(o *engineOptions) { o.resolver = r }
}

// WithDialer overrides how SMTP connections are opened.
func WithDialer(dial func(ctx context.Context, network, address string) (net.Conn, error)) Option {
	return func(o *engineOptions) { o.dial = dial }
}

// Engine verifies addresses. It is safe for concurrent use; the
// configuration can only change between batches.
type Engine struct {
	opts engineOptions
	log  logrus.FieldLogger

	mu     sync.Mutex
	cfg    Config
	p      *pipeline
	active int
}

// pipeline is the immutable set of components built from one Config.
type pipeline struct {
	cfg        Config
	mx         *check.MXResolver
	strategy   check.Strategy
	skipMX     bool
	domains    *check.DomainChecker
	scheduler  *retry.Scheduler
	limiter    *ratelimit.Limiter
	dnsBackoff retry.Backoff
}

// New validates cfg and builds an Engine.
// Configuration errors wrap ErrInvalidConfig.
func New(cfg Config, opts ...Option) (*Engine, error) {
	o := engineOptions{logger: logrus.StandardLogger()}
	for _, opt := range opts {
		opt(&o)
	}

	e := &Engine{opts: o, log: o.logger}
	p, err := e.build(cfg)
	if err != nil {
		return nil, err
	}
	e.cfg, e.p = cfg, p
	return e, nil
}

// Config returns the current configuration.
func (e *Engine) Config() Config {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.cfg
}

// Reconfigure replaces the configuration. It fails with ErrEngineBusy
// while any batch or Verify call is in progress.
func (e *Engine) Reconfigure(cfg Config) error {
	p, err := e.build(cfg)
	if err != nil {
		return err
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.active > 0 {
		return ErrEngineBusy
	}
	e.cfg, e.p = cfg, p
	e.log.WithField("max_concurrency", cfg.MaxConcurrency).Info("engine reconfigured")
	return nil
}

func (e *Engine) build(cfg Config) (*pipeline, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	mxCfg := check.MXConfig{
		Timeout:     cfg.DNSTimeout,
		Nameserver:  cfg.Nameserver,
		FallbackToA: cfg.FallbackToA,
		CacheTTL:    cfg.MXCacheTTL,
	}
	var mx *check.MXResolver
	if e.opts.resolver != nil {
		mx = check.NewMXResolverWithBackend(mxCfg, e.opts.resolver)
	} else {
		mx = check.NewMXResolver(mxCfg)
	}

	strategy := e.opts.strategy
	if strategy == nil {
		s, err := check.NewSMTPStrategy(check.SMTPConfig{
			HeloDomain:     cfg.HeloDomain,
			MailFrom:       cfg.FromAddress,
			ConnectTimeout: cfg.ConnectTimeout,
			CommandTimeout: cfg.DialogueTimeout,
			Port:           cfg.Port,
			ProxyURL:       cfg.ProxyURL,
			Dial:           e.opts.dial,
		})
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
		}
		strategy = s
	}

	limiter := ratelimit.New(cfg.MinProbeInterval)
	if limiter.Interval() == 0 {
		e.log.Warn("MinProbeInterval is zero: probes are not paced and remote servers may throttle or block this client")
	}
	backoff := retry.Backoff{Base: cfg.RetryBackoff, Multiplier: cfg.BackoffMultiplier, Max: cfg.MaxBackoff}
	scheduler := retry.New(
		retry.Policy{MaxRetries: cfg.MaxRetries, Backoff: backoff},
		retry.WithGate(func(ctx context.Context) error {
			start := time.Now()
			err := limiter.Wait(ctx)
			metrics.RateLimitWait(time.Since(start))
			return err
		}),
	)

	return &pipeline{
		cfg:      cfg,
		mx:       mx,
		strategy: strategy,
		skipMX:   check.SkipsMX(strategy),
		domains: check.NewDomainChecker(check.DomainConfig{
			CheckDisposable: cfg.CheckDisposable,
			SuggestTypos:    cfg.SuggestTypos,
		}),
		scheduler:  scheduler,
		limiter:    limiter,
		dnsBackoff: backoff,
	}, nil
}

// acquire pins the current pipeline for one call.
func (e *Engine) acquire() (*pipeline, func()) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.active++
	return e.p, func() {
		e.mu.Lock()
		e.active--
		e.mu.Unlock()
	}
}

// Verify runs one address through the whole pipeline. Failures are
// reported in the result, never as an error.
func (e *Engine) Verify(ctx context.Context, raw string) types.VerificationResult {
	p, release := e.acquire()
	defer release()
	return p.verify(ctx, raw, e.log.WithField("address", raw))
}

func (p *pipeline) verify(ctx context.Context, raw string, log logrus.FieldLogger) types.VerificationResult {
	res := p.verifyAddress(ctx, raw, log)
	metrics.Result(res)
	log.WithFields(logrus.Fields{
		"status":   res.Status,
		"detail":   res.Detail,
		"attempts": res.Attempts,
	}).Debug("address verified")
	return res
}

func (p *pipeline) verifyAddress(ctx context.Context, raw string, log logrus.FieldLogger) types.VerificationResult {
	if ctx.Err() != nil {
		return classify.Cancelled(raw, 0)
	}

	parsed, err := check.Parse(raw)
	if err != nil {
		return classify.Format(raw, err)
	}
	hints := p.domains.Hints(parsed)

	hosts := []types.MXHost{{}}
	if !p.skipMX {
		hosts, err = p.resolve(ctx, parsed.Domain, log)
		if err != nil {
			if ctx.Err() != nil {
				return classify.Cancelled(raw, 0)
			}
			res := classify.DNS(raw, err)
			res.Disposable, res.Suggestion = hints.Disposable, hints.Suggestion
			return res
		}
	}

	attempt := 0
	rep := p.scheduler.Run(ctx, hosts, func(ctx context.Context, host types.MXHost) types.Outcome {
		attempt++
		start := time.Now()
		out := p.strategy.Probe(ctx, host, parsed)
		metrics.Probe(out, time.Since(start))
		log.WithFields(logrus.Fields{
			"mx_host": host.Host,
			"attempt": attempt,
			"outcome": out.Kind.String(),
			"code":    out.Code,
		}).Debug("probe finished")
		return out
	})

	res := classify.Report(raw, rep)
	res.Disposable, res.Suggestion = hints.Disposable, hints.Suggestion
	return res
}

// resolve looks up MX hosts, retrying transient failures with the same
// budget and backoff as probes.
func (p *pipeline) resolve(ctx context.Context, domain string, log logrus.FieldLogger) ([]types.MXHost, error) {
	var err error
	for attempt := 1; attempt <= p.cfg.MaxRetries+1; attempt++ {
		var hosts []types.MXHost
		hosts, err = p.mx.Resolve(ctx, domain)
		if err == nil {
			return hosts, nil
		}
		var dnsErr *check.DNSError
		if !errors.As(err, &dnsErr) || !dnsErr.Temporary() || ctx.Err() != nil {
			return nil, err
		}
		log.WithError(err).WithField("attempt", attempt).Debug("MX lookup failed, retrying")
		if attempt <= p.cfg.MaxRetries {
			if werr := wait(ctx, p.dnsBackoff.Delay(attempt)); werr != nil {
				return nil, err
			}
		}
	}
	return nil, err
}

func wait(ctx context.Context, d time.Duration) error {
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

// RunOption configures a single Run call.
type RunOption func(*runOptions)

type runOptions struct {
	progress func(types.Progress)
}

// WithProgress registers a callback invoked once per completed address,
// in completion order. Calls are serialised; the callback must not block
// for long since it holds up result collection.
func WithProgress(fn func(types.Progress)) RunOption {
	return func(o *runOptions) { o.progress = fn }
}

// Run verifies addrs on a pool of Config.MaxConcurrency workers and
// returns one result per input, in input order.
//
// Duplicates are not removed; each occurrence is verified. Network cost
// is linear in len(addrs): expect up to
// (MaxRetries+1) * hosts probes per address, paced by MinProbeInterval.
//
// When ctx is cancelled, in-flight probes are aborted, completed results
// are kept, every unfinished address gets an Undetermined "cancelled"
// result and ctx.Err() is returned.
func (e *Engine) Run(ctx context.Context, addrs []string, opts ...RunOption) ([]types.VerificationResult, error) {
	var o runOptions
	for _, opt := range opts {
		opt(&o)
	}

	p, release := e.acquire()
	defer release()
	if err := p.checkBatch(len(addrs)); err != nil {
		return nil, err
	}

	results := make([]types.VerificationResult, len(addrs))
	done := make([]bool, len(addrs))
	completed := 0
	e.dispatch(ctx, p, addrs, func(i int, res types.VerificationResult) {
		results[i], done[i] = res, true
		completed++
		if o.progress != nil {
			o.progress(types.Progress{Completed: completed, Total: len(addrs), Index: i, Result: res})
		}
	})

	for i := range results {
		if !done[i] {
			results[i] = classify.Cancelled(addrs[i], 0)
		}
	}
	return results, ctx.Err()
}

// Stream is the unordered form of Run: one Progress per input address is
// sent as soon as it completes, and the channel is closed after the last.
// After cancellation the unfinished addresses are sent with an
// Undetermined "cancelled" result. The caller must drain the channel.
func (e *Engine) Stream(ctx context.Context, addrs []string) (<-chan types.Progress, error) {
	p, release := e.acquire()
	if err := p.checkBatch(len(addrs)); err != nil {
		release()
		return nil, err
	}

	ch := make(chan types.Progress, min(len(addrs), 64))
	go func() {
		defer release()
		defer close(ch)

		done := make([]bool, len(addrs))
		completed := 0
		e.dispatch(ctx, p, addrs, func(i int, res types.VerificationResult) {
			done[i] = true
			completed++
			ch <- types.Progress{Completed: completed, Total: len(addrs), Index: i, Result: res}
		})
		for i, ok := range done {
			if !ok {
				completed++
				ch <- types.Progress{Completed: completed, Total: len(addrs), Index: i, Result: classify.Cancelled(addrs[i], 0)}
			}
		}
	}()
	return ch, nil
}

func (p *pipeline) checkBatch(n int) error {
	if p.cfg.MaxBatchSize > 0 && n > p.cfg.MaxBatchSize {
		return fmt.Errorf("%w: %d addresses, limit %d", ErrBatchTooLarge, n, p.cfg.MaxBatchSize)
	}
	return nil
}

type indexed struct {
	idx int
	res types.VerificationResult
}

// dispatch feeds addrs, in input order, to the worker pool and calls emit
// from the calling goroutine for each finished address. It returns once
// all workers have stopped. Addresses not started before ctx ends are
// never emitted.
func (e *Engine) dispatch(ctx context.Context, p *pipeline, addrs []string, emit func(int, types.VerificationResult)) {
	if len(addrs) == 0 {
		return
	}

	batchID := uuid.NewString()
	log := e.log.WithField("batch_id", batchID)
	workers := min(p.cfg.MaxConcurrency, len(addrs))
	log.WithFields(logrus.Fields{
		"size":           len(addrs),
		"workers":        workers,
		"probe_interval": p.limiter.Interval(),
	}).Info("batch started")
	metrics.BatchStarted()
	defer metrics.BatchFinished()
	start := time.Now()

	jobs := make(chan int)
	out := make(chan indexed, workers)

	go func() {
		defer close(jobs)
		for i := range addrs {
			select {
			case jobs <- i:
			case <-ctx.Done():
				return
			}
		}
	}()

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				res := p.verify(ctx, addrs[i], log.WithField("address", addrs[i]))
				out <- indexed{idx: i, res: res}
			}
		}()
	}
	go func() {
		wg.Wait()
		close(out)
	}()

	var summary Summary
	for r := range out {
		summary.add(r.res)
		emit(r.idx, r.res)
	}

	entry := log.WithFields(logrus.Fields{
		"valid":        summary.Valid,
		"invalid":      summary.Invalid,
		"undetermined": summary.Undetermined,
		"elapsed":      time.Since(start).Round(time.Millisecond).String(),
	})
	if ctx.Err() != nil {
		entry.WithError(ctx.Err()).Warn("batch cancelled")
		return
	}
	entry.Info("batch finished")
}
