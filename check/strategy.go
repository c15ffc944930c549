package check

import (
	"context"

	"github.com/optimode/mxprobe/types"
)

// Strategy produces a probe Outcome for one address against one host.
// Implementations must be safe for concurrent use and must honour ctx.
type Strategy interface {
	Probe(ctx context.Context, host types.MXHost, addr types.ParsedAddress) types.Outcome
}

// MXSkipper is implemented by strategies that do not talk to the
// domain's mail exchangers and therefore need no MX resolution.
type MXSkipper interface {
	SkipsMX() bool
}

// SkipsMX reports whether s opts out of MX resolution.
func SkipsMX(s Strategy) bool {
	sk, ok := s.(MXSkipper)
	return ok && sk.SkipsMX()
}
