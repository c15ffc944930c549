package mxprobe

import (
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

// Config is the engine configuration. It is fixed for the lifetime of a
// batch; use Engine.Reconfigure between batches to change it.
type Config struct {
	// HeloDomain identifies the probing client in EHLO/HELO. Required, e.g. "probe.myapp.com"
	HeloDomain string `validate:"required,fqdn"`
	// FromAddress is the envelope sender used in MAIL FROM. Required.
	FromAddress string `validate:"required,email"`
	// ConnectTimeout bounds the TCP connect. Default: 10s
	ConnectTimeout time.Duration `validate:"gt=0"`
	// DialogueTimeout bounds each SMTP command/reply exchange. Default: 15s
	DialogueTimeout time.Duration `validate:"gt=0"`
	// MaxRetries is the number of extra attempts per MX host after a
	// transient failure. Default: 2
	MaxRetries int `validate:"gte=0,lte=20"`
	// RetryBackoff is the wait before the first retry on a host. Default: 2s
	RetryBackoff time.Duration `validate:"gte=0"`
	// BackoffMultiplier grows the wait per retry; 1 keeps it fixed. Default: 2
	BackoffMultiplier float64 `validate:"gte=1"`
	// MaxBackoff caps the wait; 0 leaves it uncapped. Default: 30s
	MaxBackoff time.Duration `validate:"gte=0"`
	// MaxConcurrency is the worker pool size. Default: 4
	MaxConcurrency int `validate:"gte=1"`
	// MinProbeInterval is the minimum time between the starts of any two
	// probes, across all workers. Zero disables pacing. Default: 1s
	MinProbeInterval time.Duration `validate:"gte=0"`

	// Port is the SMTP port. Default: 25
	Port string `validate:"required,numeric"`
	// DNSTimeout bounds each MX lookup. Default: 5s
	DNSTimeout time.Duration `validate:"gt=0"`
	// Nameserver sends DNS queries straight to this server instead of the
	// system resolver, e.g. "1.1.1.1" or "127.0.0.1:5353".
	Nameserver string `validate:"omitempty,hostname_port|ip"`
	// FallbackToA probes a domain's address record when it has no MX.
	// Default: false (no MX is Invalid)
	FallbackToA bool
	// MXCacheTTL is how long definitive DNS answers are reused. 0 disables. Default: 5m
	MXCacheTTL time.Duration `validate:"gte=0"`
	// MaxBatchSize rejects larger batches; 0 means unlimited.
	MaxBatchSize int `validate:"gte=0"`
	// ProxyURL routes SMTP connections through a SOCKS5 proxy.
	ProxyURL string `validate:"omitempty,url"`

	// CheckDisposable flags known throwaway providers. Default: true
	CheckDisposable bool
	// SuggestTypos suggests a correction for near-misses of major providers. Default: true
	SuggestTypos bool
}

// DefaultConfig returns a Config with every optional field set.
// HeloDomain and FromAddress must still be filled in.
func DefaultConfig() Config {
	return Config{
		ConnectTimeout:    10 * time.Second,
		DialogueTimeout:   15 * time.Second,
		MaxRetries:        2,
		RetryBackoff:      2 * time.Second,
		BackoffMultiplier: 2,
		MaxBackoff:        30 * time.Second,
		MaxConcurrency:    4,
		MinProbeInterval:  time.Second,
		Port:              "25",
		DNSTimeout:        5 * time.Second,
		MXCacheTTL:        5 * time.Minute,
		CheckDisposable:   true,
		SuggestTypos:      true,
	}
}

var validate = validator.New()

// Validate reports every invalid field, wrapped in ErrInvalidConfig.
func (c Config) Validate() error {
	err := validate.Struct(c)
	if err == nil {
		return nil
	}
	verrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}

	var msgs []string
	for _, fe := range verrs {
		field := fe.Field()
		param := fe.Param()

		switch fe.Tag() {
		case "required":
			msgs = append(msgs, field+" is required")
		case "fqdn":
			msgs = append(msgs, field+" must be a fully qualified domain name")
		case "email":
			msgs = append(msgs, field+" must be a valid email")
		case "gt":
			msgs = append(msgs, field+" must be greater than "+param)
		case "gte":
			msgs = append(msgs, field+" must be at least "+param)
		case "lte":
			msgs = append(msgs, field+" must be at most "+param)
		case "numeric":
			msgs = append(msgs, field+" must be numeric")
		case "url":
			msgs = append(msgs, field+" must be a URL")
		case "hostname_port|ip":
			msgs = append(msgs, field+" must be host or host:port")
		default:
			msgs = append(msgs, field+" is invalid")
		}
	}
	return fmt.Errorf("%w: %s", ErrInvalidConfig, strings.Join(msgs, ", "))
}
