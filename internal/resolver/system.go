package resolver

import (
	"context"
	"errors"
	"net"
	"time"

	"github.com/optimode/mxprobe/types"
)

// netResolver is the subset of *net.Resolver used here; injectable for testing.
type netResolver interface {
	LookupMX(ctx context.Context, name string) ([]*net.MX, error)
	LookupHost(ctx context.Context, host string) ([]string, error)
	LookupTXT(ctx context.Context, name string) ([]string, error)
	LookupNS(ctx context.Context, name string) ([]*net.NS, error)
}

// System resolves through the operating system's configured resolver.
// The stdlib reports NXDOMAIN and NODATA alike as not-found, so a
// not-found MX answer is followed by A/AAAA, TXT and NS lookups: any
// record proves the name exists and the answer is "no MX". A name that
// only carries other types (CAA, SRV, ...) still reads as NXDOMAIN here;
// Direct sees the response code and has no such gap.
type System struct {
	timeout time.Duration
	r       netResolver
}

// NewSystem creates a System resolver whose queries are bounded by timeout.
func NewSystem(timeout time.Duration) *System {
	return &System{
		timeout: timeout,
		r: &net.Resolver{
			PreferGo: true,
			Dial: func(ctx context.Context, network, address string) (net.Conn, error) {
				d := net.Dialer{Timeout: timeout}
				return d.DialContext(ctx, network, address)
			},
		},
	}
}

// NewSystemWith creates a System resolver backed by r (for testing).
func NewSystemWith(timeout time.Duration, r netResolver) *System {
	return &System{timeout: timeout, r: r}
}

func (s *System) LookupMX(ctx context.Context, domain string) ([]types.MXHost, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	records, err := s.r.LookupMX(ctx, domain)
	if err != nil {
		if !isNotFound(err) {
			return nil, &Error{Domain: domain, Kind: KindTransient, Err: err}
		}
		// Distinguish "exists without MX" from "does not exist"
		exists, existErr := s.exists(ctx, domain)
		if existErr != nil {
			return nil, existErr
		}
		if exists {
			return nil, &Error{Domain: domain, Kind: KindNoMX}
		}
		return nil, &Error{Domain: domain, Kind: KindNXDomain, Err: err}
	}

	hosts := make([]types.MXHost, 0, len(records))
	for _, mx := range records {
		hosts = append(hosts, types.MXHost{Host: mx.Host, Priority: mx.Pref})
	}
	hosts = normalize(hosts)
	if len(hosts) == 0 {
		return nil, &Error{Domain: domain, Kind: KindNoMX}
	}
	return hosts, nil
}

// exists reports whether domain owns an address, TXT or NS record.
func (s *System) exists(ctx context.Context, domain string) (bool, error) {
	ok, err := s.HasAddress(ctx, domain)
	if err != nil || ok {
		return ok, err
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	txt, err := s.r.LookupTXT(ctx, domain)
	if err != nil && !isNotFound(err) {
		return false, &Error{Domain: domain, Kind: KindTransient, Err: err}
	}
	if len(txt) > 0 {
		return true, nil
	}
	ns, err := s.r.LookupNS(ctx, domain)
	if err != nil && !isNotFound(err) {
		return false, &Error{Domain: domain, Kind: KindTransient, Err: err}
	}
	return len(ns) > 0, nil
}

func (s *System) HasAddress(ctx context.Context, domain string) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	addrs, err := s.r.LookupHost(ctx, domain)
	if err != nil {
		if isNotFound(err) {
			return false, nil
		}
		return false, &Error{Domain: domain, Kind: KindTransient, Err: err}
	}
	return len(addrs) > 0, nil
}

func isNotFound(err error) bool {
	var dnsErr *net.DNSError
	return errors.As(err, &dnsErr) && dnsErr.IsNotFound
}
