// Package disposable recognises throwaway mailbox providers.
package disposable

import (
	_ "embed"
	"strings"
)

//go:embed list.txt
var rawList string

var domains = load(rawList)

func load(raw string) map[string]struct{} {
	set := make(map[string]struct{})
	for _, line := range strings.Split(raw, "\n") {
		line = strings.TrimSpace(line)
		if line != "" && !strings.HasPrefix(line, "#") {
			set[strings.ToLower(line)] = struct{}{}
		}
	}
	return set
}

// IsDisposable reports whether domain, or any parent of it, is a known
// disposable provider. "x.mailinator.com" matches "mailinator.com".
func IsDisposable(domain string) bool {
	d := strings.TrimSuffix(strings.ToLower(domain), ".")
	for d != "" {
		if _, ok := domains[d]; ok {
			return true
		}
		i := strings.IndexByte(d, '.')
		if i < 0 {
			return false
		}
		d = d[i+1:]
	}
	return false
}

// Len returns the number of listed domains.
func Len() int { return len(domains) }
