package mxprobe_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/optimode/mxprobe"
)

func TestDefaultConfig(t *testing.T) {
	cfg := mxprobe.DefaultConfig()
	assert.Equal(t, time.Second, cfg.MinProbeInterval)
	assert.Equal(t, "25", cfg.Port)
	assert.False(t, cfg.FallbackToA)

	// Defaults alone are not enough: the identity fields are required.
	err := cfg.Validate()
	assert.ErrorIs(t, err, mxprobe.ErrInvalidConfig)
	assert.Contains(t, err.Error(), "HeloDomain is required")
	assert.Contains(t, err.Error(), "FromAddress is required")

	cfg.HeloDomain = "probe.example.com"
	cfg.FromAddress = "verify@example.com"
	assert.NoError(t, cfg.Validate())
}

func TestConfig_Validate(t *testing.T) {
	base := mxprobe.DefaultConfig()
	base.HeloDomain = "probe.example.com"
	base.FromAddress = "verify@example.com"

	tests := []struct {
		name   string
		mutate func(*mxprobe.Config)
		msg    string
	}{
		{"helo not fqdn", func(c *mxprobe.Config) { c.HeloDomain = "not a domain" }, "HeloDomain must be a fully qualified domain name"},
		{"bad sender", func(c *mxprobe.Config) { c.FromAddress = "verify" }, "FromAddress must be a valid email"},
		{"zero connect timeout", func(c *mxprobe.Config) { c.ConnectTimeout = 0 }, "ConnectTimeout must be greater than"},
		{"zero dialogue timeout", func(c *mxprobe.Config) { c.DialogueTimeout = 0 }, "DialogueTimeout must be greater than"},
		{"negative retries", func(c *mxprobe.Config) { c.MaxRetries = -1 }, "MaxRetries must be at least"},
		{"shrinking backoff", func(c *mxprobe.Config) { c.BackoffMultiplier = 0.5 }, "BackoffMultiplier must be at least"},
		{"no workers", func(c *mxprobe.Config) { c.MaxConcurrency = 0 }, "MaxConcurrency must be at least"},
		{"negative interval", func(c *mxprobe.Config) { c.MinProbeInterval = -time.Second }, "MinProbeInterval must be at least"},
		{"port", func(c *mxprobe.Config) { c.Port = "smtp" }, "Port must be numeric"},
		{"nameserver", func(c *mxprobe.Config) { c.Nameserver = "not a server!" }, "Nameserver"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := base
			tt.mutate(&cfg)
			err := cfg.Validate()
			assert.ErrorIs(t, err, mxprobe.ErrInvalidConfig)
			assert.Contains(t, err.Error(), tt.msg)
		})
	}
}

func TestConfig_ValidOptionalFields(t *testing.T) {
	cfg := mxprobe.DefaultConfig()
	cfg.HeloDomain = "probe.example.com"
	cfg.FromAddress = "verify@example.com"
	cfg.MinProbeInterval = 0
	cfg.MaxRetries = 0
	cfg.Nameserver = "1.1.1.1"
	assert.NoError(t, cfg.Validate())

	cfg.Nameserver = "127.0.0.1:5353"
	cfg.ProxyURL = "socks5://127.0.0.1:1080"
	assert.NoError(t, cfg.Validate())
}
