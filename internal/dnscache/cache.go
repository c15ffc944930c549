// Package dnscache provides a thread-safe, TTL-based cache in front of a
// resolver.Resolver, coalescing concurrent lookups for the same domain.
package dnscache

import (
	"context"
	"errors"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/optimode/mxprobe/internal/resolver"
	"github.com/optimode/mxprobe/types"
)

// Cache is a thread-safe MX lookup cache.
// Only definitive answers are cached (host lists, NXDOMAIN, no MX);
// transient failures are returned to the caller and never stored, so a
// retry performs a fresh query.
type Cache struct {
	next    resolver.Resolver
	ttl     time.Duration
	timeout time.Duration
	group   singleflight.Group

	mu      sync.Mutex
	entries map[string]entry
	now     func() time.Time
}

type entry struct {
	hosts   []types.MXHost
	err     error
	expires time.Time
}

// New creates a cache in front of next. Each underlying lookup is bounded
// by lookupTimeout and detached from the caller's context, so one
// caller's cancellation cannot fail the lookup shared with others.
func New(next resolver.Resolver, lookupTimeout, ttl time.Duration) *Cache {
	return &Cache{
		next:    next,
		ttl:     ttl,
		timeout: lookupTimeout,
		entries: make(map[string]entry),
		now:     time.Now,
	}
}

// LookupMX returns MX hosts for the domain, using the cache when possible.
func (c *Cache) LookupMX(ctx context.Context, domain string) ([]types.MXHost, error) {
	if e, ok := c.get(domain); ok {
		return copyHosts(e.hosts), e.err
	}

	ch := c.group.DoChan(domain, func() (any, error) {
		lookupCtx, cancel := context.WithTimeout(context.Background(), c.timeout)
		defer cancel()

		hosts, err := c.next.LookupMX(lookupCtx, domain)
		if cacheable(err) {
			c.put(domain, hosts, err)
		}
		return hosts, err
	})

	select {
	case res := <-ch:
		hosts, _ := res.Val.([]types.MXHost)
		return copyHosts(hosts), res.Err
	case <-ctx.Done():
		return nil, &resolver.Error{Domain: domain, Kind: resolver.KindTransient, Err: ctx.Err()}
	}
}

// HasAddress is passed through uncached; it is only used by the
// A-record fallback policy.
func (c *Cache) HasAddress(ctx context.Context, domain string) (bool, error) {
	return c.next.HasAddress(ctx, domain)
}

// Len returns the number of entries in the cache (for diagnostics).
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

func (c *Cache) get(domain string) (entry, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[domain]
	if !ok {
		return entry{}, false
	}
	if !c.now().Before(e.expires) {
		delete(c.entries, domain)
		return entry{}, false
	}
	return e, true
}

func (c *Cache) put(domain string, hosts []types.MXHost, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[domain] = entry{hosts: copyHosts(hosts), err: err, expires: c.now().Add(c.ttl)}
}

func cacheable(err error) bool {
	if err == nil {
		return true
	}
	var rerr *resolver.Error
	return errors.As(err, &rerr) && !rerr.Temporary()
}

// copyHosts returns a copy so callers cannot mutate cached data.
func copyHosts(hosts []types.MXHost) []types.MXHost {
	if hosts == nil {
		return nil
	}
	out := make([]types.MXHost, len(hosts))
	copy(out, hosts)
	return out
}
