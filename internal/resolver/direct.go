package resolver

import (
	"context"
	"fmt"
	"net"
	"time"

	"github.com/miekg/dns"

	"github.com/optimode/mxprobe/types"
)

// Direct queries a specific nameserver with miekg/dns, which exposes the
// response code so NXDOMAIN and NODATA are distinguished in one round trip.
type Direct struct {
	server string
	client *dns.Client
}

// NewDirect creates a resolver that sends queries to server ("host:port").
// A server without a port gets :53.
func NewDirect(server string, timeout time.Duration) *Direct {
	if _, _, err := net.SplitHostPort(server); err != nil {
		server = net.JoinHostPort(server, "53")
	}
	return &Direct{
		server: server,
		client: &dns.Client{Timeout: timeout},
	}
}

func (d *Direct) LookupMX(ctx context.Context, domain string) ([]types.MXHost, error) {
	in, err := d.query(ctx, domain, dns.TypeMX)
	if err != nil {
		return nil, err
	}

	switch in.Rcode {
	case dns.RcodeSuccess:
	case dns.RcodeNameError:
		return nil, &Error{Domain: domain, Kind: KindNXDomain}
	default:
		return nil, &Error{Domain: domain, Kind: KindTransient,
			Err: fmt.Errorf("server answered %s", dns.RcodeToString[in.Rcode])}
	}

	var hosts []types.MXHost
	for _, rr := range in.Answer {
		if mx, ok := rr.(*dns.MX); ok {
			hosts = append(hosts, types.MXHost{Host: mx.Mx, Priority: mx.Preference})
		}
	}
	hosts = normalize(hosts)
	if len(hosts) == 0 {
		return nil, &Error{Domain: domain, Kind: KindNoMX}
	}
	return hosts, nil
}

func (d *Direct) HasAddress(ctx context.Context, domain string) (bool, error) {
	for _, qtype := range []uint16{dns.TypeA, dns.TypeAAAA} {
		in, err := d.query(ctx, domain, qtype)
		if err != nil {
			return false, err
		}
		if in.Rcode == dns.RcodeNameError {
			return false, nil
		}
		for _, rr := range in.Answer {
			switch rr.(type) {
			case *dns.A, *dns.AAAA:
				return true, nil
			}
		}
	}
	return false, nil
}

func (d *Direct) query(ctx context.Context, domain string, qtype uint16) (*dns.Msg, error) {
	m := new(dns.Msg)
	m.SetQuestion(dns.Fqdn(domain), qtype)
	m.RecursionDesired = true

	in, _, err := d.client.ExchangeContext(ctx, m, d.server)
	if err != nil {
		return nil, &Error{Domain: domain, Kind: KindTransient, Err: err}
	}
	return in, nil
}
