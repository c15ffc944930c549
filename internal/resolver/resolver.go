// Package resolver looks up MX records and classifies DNS failures into
// NXDOMAIN, no-MX and transient outcomes.
package resolver

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/optimode/mxprobe/types"
)

// Kind classifies a DNS failure.
type Kind int

const (
	// KindTransient covers timeouts, SERVFAIL and network errors.
	KindTransient Kind = iota + 1
	// KindNXDomain means the domain does not exist.
	KindNXDomain
	// KindNoMX means the domain exists but publishes no usable MX record.
	KindNoMX
)

func (k Kind) String() string {
	switch k {
	case KindTransient:
		return "transient"
	case KindNXDomain:
		return "nxdomain"
	case KindNoMX:
		return "no MX"
	default:
		return "unknown"
	}
}

// Error is returned by every Resolver for failed lookups.
type Error struct {
	Domain string
	Kind   Kind
	Err    error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("resolve %s: %s: %v", e.Domain, e.Kind, e.Err)
	}
	return fmt.Sprintf("resolve %s: %s", e.Domain, e.Kind)
}

func (e *Error) Unwrap() error { return e.Err }

// Temporary reports whether a retry may succeed.
func (e *Error) Temporary() bool { return e.Kind == KindTransient }

// Resolver returns the MX hosts for a domain, ordered by preference.
type Resolver interface {
	LookupMX(ctx context.Context, domain string) ([]types.MXHost, error)
	// HasAddress reports whether the domain has an A or AAAA record.
	HasAddress(ctx context.Context, domain string) (bool, error)
}

// normalize trims trailing dots, drops duplicates and sorts by ascending
// priority with the hostname as tie-breaker. A lone null MX (".")
// yields no hosts.
func normalize(records []types.MXHost) []types.MXHost {
	seen := make(map[string]struct{}, len(records))
	out := make([]types.MXHost, 0, len(records))
	for _, r := range records {
		host := strings.ToLower(strings.TrimSuffix(r.Host, "."))
		if host == "" {
			continue
		}
		if _, dup := seen[host]; dup {
			continue
		}
		seen[host] = struct{}{}
		out = append(out, types.MXHost{Host: host, Priority: r.Priority})
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Priority != out[j].Priority {
			return out[i].Priority < out[j].Priority
		}
		return out[i].Host < out[j].Host
	})
	return out
}
