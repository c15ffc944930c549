package check_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/optimode/mxprobe/check"
	"github.com/optimode/mxprobe/types"
)

func TestHTTPStrategy_Probe(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		kind   types.OutcomeKind
	}{
		{"valid", http.StatusOK, `{"status":"valid"}`, types.OutcomeAccepted},
		{"invalid", http.StatusOK, `{"status":"invalid","reason":"mailbox not found"}`, types.OutcomeRejected},
		{"unknown", http.StatusOK, `{"status":"unknown"}`, types.OutcomeTransient},
		{"odd status", http.StatusOK, `{"status":"catch_all"}`, types.OutcomePermanent},
		{"bad json", http.StatusOK, `not json`, types.OutcomePermanent},
		{"rate limited", http.StatusTooManyRequests, ``, types.OutcomeTransient},
		{"server error", http.StatusBadGateway, ``, types.OutcomeTransient},
		{"unauthorized", http.StatusUnauthorized, ``, types.OutcomePermanent},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, "user@example.com", r.URL.Query().Get("email"))
				assert.Equal(t, "Bearer secret", r.Header.Get("Authorization"))
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			s, err := check.NewHTTPStrategy(check.HTTPConfig{Endpoint: srv.URL + "/verify", APIKey: "secret", Timeout: time.Second})
			require.NoError(t, err)

			addr, err := check.Parse("user@example.com")
			require.NoError(t, err)
			out := s.Probe(context.Background(), types.MXHost{}, addr)
			assert.Equal(t, tt.kind, out.Kind)
		})
	}
}

func TestHTTPStrategy_SkipsMX(t *testing.T) {
	s, err := check.NewHTTPStrategy(check.HTTPConfig{Endpoint: "https://api.example.com/verify"})
	require.NoError(t, err)
	assert.True(t, check.SkipsMX(s))
}

func TestHTTPStrategy_InvalidEndpoint(t *testing.T) {
	_, err := check.NewHTTPStrategy(check.HTTPConfig{Endpoint: "not a url"})
	assert.Error(t, err)
}

func TestHTTPStrategy_Cancelled(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))
	defer srv.Close()

	s, err := check.NewHTTPStrategy(check.HTTPConfig{Endpoint: srv.URL, Timeout: 5 * time.Second})
	require.NoError(t, err)
	addr, err := check.Parse("user@example.com")
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	out := s.Probe(ctx, types.MXHost{}, addr)
	assert.Equal(t, types.OutcomeTransient, out.Kind)
	assert.Equal(t, "cancelled", out.Reason)
}
