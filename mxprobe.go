// Package mxprobe checks whether email addresses are likely to accept
// mail without sending any. Each address is parsed, its domain's mail
// exchangers are resolved, and the exchangers are asked over SMTP whether
// they would accept the recipient (DATA is never sent).
//
// Basic usage:
//
//	cfg := mxprobe.DefaultConfig()
//	cfg.HeloDomain = "probe.myapp.com"
//	cfg.FromAddress = "verify@myapp.com"
//	eng, err := mxprobe.New(cfg)
//	res := eng.Verify(ctx, "user@example.com")
//
// Batches run on a bounded worker pool and share one rate limiter:
//
//	results, err := eng.Run(ctx, addrs, mxprobe.WithProgress(func(p mxprobe.Progress) {
//	    fmt.Printf("%d/%d %s %s\n", p.Completed, p.Total, p.Result.Address, p.Result.Status)
//	}))
package mxprobe

import "github.com/optimode/mxprobe/types"

// VerificationResult is a re-export from the types package so that
// consumers don't need to import the types package directly.
type VerificationResult = types.VerificationResult

// Progress is a re-export.
type Progress = types.Progress

// Status is a re-export.
type Status = types.Status

// Status constants re-exported.
const (
	StatusValid        = types.StatusValid
	StatusInvalid      = types.StatusInvalid
	StatusUndetermined = types.StatusUndetermined
)
