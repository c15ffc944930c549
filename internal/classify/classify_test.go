package classify_test

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/optimode/mxprobe/internal/classify"
	"github.com/optimode/mxprobe/internal/resolver"
	"github.com/optimode/mxprobe/internal/retry"
	"github.com/optimode/mxprobe/types"
)

func TestFormat(t *testing.T) {
	res := classify.Format("user@", errors.New("domain is empty"))
	assert.Equal(t, "user@", res.Address)
	assert.Equal(t, types.StatusInvalid, res.Status)
	assert.Equal(t, "format", res.Detail)
	assert.Equal(t, types.ClassFormat, res.Class)
	assert.Zero(t, res.Attempts)
}

func TestDNS(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status types.Status
		detail string
		class  types.ErrorClass
	}{
		{"nxdomain", &resolver.Error{Domain: "x.invalid", Kind: resolver.KindNXDomain}, types.StatusInvalid, "nxdomain", types.ClassDNSPermanent},
		{"no mx", &resolver.Error{Domain: "x.example", Kind: resolver.KindNoMX}, types.StatusInvalid, "no MX", types.ClassDNSPermanent},
		{"timeout", &resolver.Error{Domain: "x.example", Kind: resolver.KindTransient}, types.StatusUndetermined, "dns unavailable", types.ClassDNSTransient},
		{"wrapped", fmt.Errorf("resolve: %w", &resolver.Error{Kind: resolver.KindNoMX}), types.StatusInvalid, "no MX", types.ClassDNSPermanent},
		{"foreign", errors.New("boom"), types.StatusUndetermined, "dns unavailable", types.ClassDNSTransient},
		{"cancelled", context.Canceled, types.StatusUndetermined, "cancelled", types.ClassCancelled},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := classify.DNS("a@x.example", tt.err)
			assert.Equal(t, tt.status, res.Status)
			assert.Equal(t, tt.detail, res.Detail)
			assert.Equal(t, tt.class, res.Class)
		})
	}
}

func TestReport(t *testing.T) {
	mx := types.MXHost{Host: "mx.example.com", Priority: 10}
	unrecognized := types.Permanent(types.ReasonUnrecognized + ": 554 no")
	refused := types.Permanent("MAIL FROM refused: 553 sender")

	tests := []struct {
		name   string
		rep    retry.Report
		status types.Status
		detail string
		class  types.ErrorClass
	}{
		{"accepted", retry.Report{Outcome: types.Accepted(250, "OK"), Host: mx, Attempts: 1},
			types.StatusValid, "accepted", types.ClassNone},
		{"rejected", retry.Report{Outcome: types.Rejected(550, "unknown user"), Host: mx, Attempts: 1},
			types.StatusInvalid, "rejected", types.ClassSMTPPermanent},
		{"exhausted", retry.Report{Outcome: types.Transient("timeout"), Host: mx, Attempts: 4},
			types.StatusUndetermined, "exhausted retries", types.ClassExhaustedRetries},
		{"unrecognized", retry.Report{Outcome: unrecognized, Host: mx, Attempts: 1, Permanent: &unrecognized},
			types.StatusUndetermined, "unrecognized reply", types.ClassSMTPPermanent},
		{"permanent then transient", retry.Report{Outcome: types.Transient("timeout"), Host: mx, Attempts: 3, Permanent: &refused},
			types.StatusUndetermined, "probe failed", types.ClassSMTPPermanent},
		{"cancelled", retry.Report{Outcome: types.Transient("cancelled"), Attempts: 1, Cancelled: true},
			types.StatusUndetermined, "cancelled", types.ClassCancelled},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := classify.Report("user@example.com", tt.rep)
			assert.Equal(t, tt.status, res.Status)
			assert.Equal(t, tt.detail, res.Detail)
			assert.Equal(t, tt.class, res.Class)
			assert.Equal(t, tt.rep.Attempts, res.Attempts)
		})
	}
}

func TestReport_ValidOnlyFromAccepted(t *testing.T) {
	kinds := []types.Outcome{
		types.Rejected(550, ""),
		types.Transient("x"),
		types.Permanent("y"),
		types.Permanent(types.ReasonUnrecognized + ": 252 cannot verify"),
	}
	for _, out := range kinds {
		res := classify.Report("a@b.example", retry.Report{Outcome: out, Attempts: 1})
		assert.NotEqual(t, types.StatusValid, res.Status, out.Reason)
	}
}
