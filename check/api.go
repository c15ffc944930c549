package check

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/optimode/mxprobe/types"
)

// HTTPConfig configures an HTTPStrategy.
type HTTPConfig struct {
	// Endpoint receives GET requests with the address in the "email"
	// query parameter.
	Endpoint string
	// APIKey, when set, is sent as a bearer token.
	APIKey  string
	Timeout time.Duration
	Client  *http.Client
}

// HTTPStrategy delegates verification to an external HTTP service that
// answers {"status": "valid"|"invalid"|"unknown", "reason": "..."}.
// It does not use MX hosts.
type HTTPStrategy struct {
	endpoint *url.URL
	apiKey   string
	client   *http.Client
}

type apiResponse struct {
	Status string `json:"status"`
	Reason string `json:"reason"`
}

func NewHTTPStrategy(cfg HTTPConfig) (*HTTPStrategy, error) {
	u, err := url.Parse(cfg.Endpoint)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("invalid API endpoint %q", cfg.Endpoint)
	}
	client := cfg.Client
	if client == nil {
		client = &http.Client{Timeout: cfg.Timeout}
	}
	return &HTTPStrategy{endpoint: u, apiKey: cfg.APIKey, client: client}, nil
}

func (s *HTTPStrategy) SkipsMX() bool { return true }

// Probe asks the service about addr. HTTP 429 and 5xx are transient;
// other non-2xx statuses are permanent failures.
func (s *HTTPStrategy) Probe(ctx context.Context, _ types.MXHost, addr types.ParsedAddress) types.Outcome {
	u := *s.endpoint
	q := u.Query()
	q.Set("email", addr.Normalized)
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return types.Permanent(fmt.Sprintf("build request: %v", err))
	}
	req.Header.Set("Accept", "application/json")
	if s.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+s.apiKey)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		if errors.Is(err, context.Canceled) || ctx.Err() != nil {
			return types.Transient("cancelled")
		}
		return types.Transient(fmt.Sprintf("api request: %v", err))
	}
	defer func() { _ = resp.Body.Close() }()

	switch {
	case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500:
		out := types.Transient(fmt.Sprintf("api status %d", resp.StatusCode))
		out.Code = resp.StatusCode
		return out
	case resp.StatusCode < 200 || resp.StatusCode >= 300:
		out := types.Permanent(fmt.Sprintf("api status %d", resp.StatusCode))
		out.Code = resp.StatusCode
		return out
	}

	var body apiResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, 1<<20)).Decode(&body); err != nil {
		return types.Permanent(fmt.Sprintf("decode api response: %v", err))
	}

	switch body.Status {
	case "valid":
		return types.Accepted(resp.StatusCode, body.Reason)
	case "invalid":
		return types.Rejected(resp.StatusCode, body.Reason)
	case "unknown":
		return types.Transient("api: " + orDefault(body.Reason, "unknown"))
	default:
		return types.Permanent(fmt.Sprintf("%s: api status %q", types.ReasonUnrecognized, body.Status))
	}
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}
