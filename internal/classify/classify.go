// Package classify maps parse failures, DNS failures and probe reports
// onto the three-way verdict.
package classify

import (
	"context"
	"errors"
	"strings"

	"github.com/optimode/mxprobe/internal/resolver"
	"github.com/optimode/mxprobe/internal/retry"
	"github.com/optimode/mxprobe/types"
)

// Detail values. Detail is a stable category; Reason carries specifics.
const (
	DetailFormat         = "format"
	DetailNXDomain       = "nxdomain"
	DetailNoMX           = "no MX"
	DetailDNSUnavailable = "dns unavailable"
	DetailAccepted       = "accepted"
	DetailRejected       = "rejected"
	DetailExhausted      = "exhausted retries"
	DetailUnrecognized   = "unrecognized reply"
	DetailProbeFailed    = "probe failed"
	DetailCancelled      = "cancelled"
)

// Format classifies an address that failed to parse. Always Invalid.
func Format(raw string, err error) types.VerificationResult {
	return types.VerificationResult{
		Address: raw,
		Status:  types.StatusInvalid,
		Detail:  DetailFormat,
		Reason:  errText(err),
		Class:   types.ClassFormat,
	}
}

// DNS classifies a resolution failure. NXDOMAIN and no MX are Invalid;
// anything else is Undetermined.
func DNS(raw string, err error) types.VerificationResult {
	res := types.VerificationResult{Address: raw, Reason: errText(err)}

	var dnsErr *resolver.Error
	switch {
	case errors.Is(err, context.Canceled):
		return Cancelled(raw, 0)
	case errors.As(err, &dnsErr) && dnsErr.Kind == resolver.KindNXDomain:
		res.Status, res.Detail, res.Class = types.StatusInvalid, DetailNXDomain, types.ClassDNSPermanent
	case errors.As(err, &dnsErr) && dnsErr.Kind == resolver.KindNoMX:
		res.Status, res.Detail, res.Class = types.StatusInvalid, DetailNoMX, types.ClassDNSPermanent
	default:
		res.Status, res.Detail, res.Class = types.StatusUndetermined, DetailDNSUnavailable, types.ClassDNSTransient
	}
	return res
}

// Report classifies the outcome of the retry scheduler. Valid requires an
// Accepted outcome; Invalid requires an explicit rejection.
func Report(raw string, rep retry.Report) types.VerificationResult {
	if rep.Cancelled {
		return Cancelled(raw, rep.Attempts)
	}

	res := types.VerificationResult{
		Address:  raw,
		Attempts: rep.Attempts,
		MXHost:   rep.Host.Host,
		SMTPCode: rep.Outcome.Code,
	}

	switch rep.Outcome.Kind {
	case types.OutcomeAccepted:
		res.Status, res.Detail = types.StatusValid, DetailAccepted
		res.Reason = rep.Outcome.Message
		return res
	case types.OutcomeRejected:
		res.Status, res.Detail, res.Class = types.StatusInvalid, DetailRejected, types.ClassSMTPPermanent
		res.Reason = rep.Outcome.Message
		return res
	}

	res.Status = types.StatusUndetermined
	if p := rep.Permanent; p != nil {
		res.Class = types.ClassSMTPPermanent
		res.Reason = p.Reason
		res.SMTPCode = p.Code
		res.Detail = DetailProbeFailed
		if strings.HasPrefix(p.Reason, types.ReasonUnrecognized) {
			res.Detail = DetailUnrecognized
		}
		return res
	}
	if rep.Outcome.Kind == types.OutcomePermanent {
		res.Class, res.Detail, res.Reason = types.ClassSMTPPermanent, DetailProbeFailed, rep.Outcome.Reason
		return res
	}

	res.Class, res.Detail = types.ClassExhaustedRetries, DetailExhausted
	res.Reason = rep.Outcome.Reason
	return res
}

// Cancelled is the result for an address the batch could not finish.
func Cancelled(raw string, attempts int) types.VerificationResult {
	return types.VerificationResult{
		Address:  raw,
		Status:   types.StatusUndetermined,
		Detail:   DetailCancelled,
		Attempts: attempts,
		Class:    types.ClassCancelled,
	}
}

func errText(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}
