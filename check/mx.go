package check

import (
	"context"
	"errors"
	"time"

	"github.com/optimode/mxprobe/internal/dnscache"
	"github.com/optimode/mxprobe/internal/resolver"
	"github.com/optimode/mxprobe/types"
)

// DNSError is returned by MXResolver.Resolve. Use Kind to tell NXDOMAIN,
// no MX and transient failures apart.
type DNSError = resolver.Error

// DNSErrorKind classifies a DNSError.
type DNSErrorKind = resolver.Kind

const (
	DNSTransient = resolver.KindTransient
	DNSNXDomain  = resolver.KindNXDomain
	DNSNoMX      = resolver.KindNoMX
)

// Resolver is the lookup backend of an MXResolver.
type Resolver = resolver.Resolver

// MXConfig is the MX resolver configuration.
type MXConfig struct {
	Timeout time.Duration
	// Nameserver, when set, sends queries straight to this server
	// ("host" or "host:port") instead of the system resolver.
	Nameserver string
	// FallbackToA treats a domain without MX but with an address record
	// as its own mail host (RFC 5321 implicit MX). Default: false.
	FallbackToA bool
	// CacheTTL is how long definitive answers are cached. 0 disables caching.
	CacheTTL time.Duration
}

// MXResolver resolves a domain to its mail exchangers in preference order.
type MXResolver struct {
	cfg     MXConfig
	backend Resolver
}

func NewMXResolver(cfg MXConfig) *MXResolver {
	var backend Resolver
	if cfg.Nameserver != "" {
		backend = resolver.NewDirect(cfg.Nameserver, cfg.Timeout)
	} else {
		backend = resolver.NewSystem(cfg.Timeout)
	}
	return NewMXResolverWithBackend(cfg, backend)
}

// NewMXResolverWithBackend is a test-oriented constructor that overrides
// the lookup backend. Caching still applies when CacheTTL is set.
func NewMXResolverWithBackend(cfg MXConfig, backend Resolver) *MXResolver {
	if cfg.CacheTTL > 0 {
		backend = dnscache.New(backend, cfg.Timeout, cfg.CacheTTL)
	}
	return &MXResolver{cfg: cfg, backend: backend}
}

// Resolve returns the MX hosts for domain ordered by ascending priority.
// Failures are always *DNSError.
func (r *MXResolver) Resolve(ctx context.Context, domain string) ([]types.MXHost, error) {
	hosts, err := r.backend.LookupMX(ctx, domain)
	if err == nil {
		return hosts, nil
	}

	var dnsErr *DNSError
	if !errors.As(err, &dnsErr) {
		return nil, &DNSError{Domain: domain, Kind: DNSTransient, Err: err}
	}
	if dnsErr.Kind != DNSNoMX || !r.cfg.FallbackToA {
		return nil, dnsErr
	}

	ok, aErr := r.backend.HasAddress(ctx, domain)
	if aErr != nil {
		var aDNSErr *DNSError
		if errors.As(aErr, &aDNSErr) {
			return nil, aDNSErr
		}
		return nil, &DNSError{Domain: domain, Kind: DNSTransient, Err: aErr}
	}
	if !ok {
		return nil, dnsErr
	}
	return []types.MXHost{{Host: domain, Priority: 0}}, nil
}
