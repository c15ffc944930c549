package main

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/optimode/mxprobe"
)

// envConfig holds settings read from the environment (and an optional
// .env file). Flags override them.
type envConfig struct {
	Engine      mxprobe.Config
	APIURL      string
	APIKey      string
	LogLevel    string
	MetricsAddr string
}

// loadEnv reads path (if it exists) into the process environment without
// overriding variables that are already set, then builds an envConfig.
func loadEnv(path string) (envConfig, error) {
	if path != "" {
		if err := godotenv.Load(path); err != nil && !os.IsNotExist(err) {
			return envConfig{}, err
		}
	}

	def := mxprobe.DefaultConfig()
	cfg := def
	cfg.HeloDomain = getEnv("MXPROBE_HELO_DOMAIN", "")
	cfg.FromAddress = getEnv("MXPROBE_FROM_ADDRESS", "")
	cfg.ConnectTimeout = getEnvAsDuration("MXPROBE_CONNECT_TIMEOUT", def.ConnectTimeout)
	cfg.DialogueTimeout = getEnvAsDuration("MXPROBE_DIALOGUE_TIMEOUT", def.DialogueTimeout)
	cfg.MaxRetries = getEnvAsInt("MXPROBE_MAX_RETRIES", def.MaxRetries)
	cfg.RetryBackoff = getEnvAsDuration("MXPROBE_RETRY_BACKOFF", def.RetryBackoff)
	cfg.MaxBackoff = getEnvAsDuration("MXPROBE_MAX_BACKOFF", def.MaxBackoff)
	cfg.MaxConcurrency = getEnvAsInt("MXPROBE_CONCURRENCY", def.MaxConcurrency)
	cfg.MinProbeInterval = getEnvAsDuration("MXPROBE_MIN_INTERVAL", def.MinProbeInterval)
	cfg.Port = getEnv("MXPROBE_SMTP_PORT", def.Port)
	cfg.DNSTimeout = getEnvAsDuration("MXPROBE_DNS_TIMEOUT", def.DNSTimeout)
	cfg.Nameserver = getEnv("MXPROBE_NAMESERVER", "")
	cfg.FallbackToA = getEnvAsBool("MXPROBE_FALLBACK_TO_A", def.FallbackToA)
	cfg.ProxyURL = getEnv("MXPROBE_PROXY_URL", "")
	cfg.MaxBatchSize = getEnvAsInt("MXPROBE_MAX_BATCH", 100)

	return envConfig{
		Engine:      cfg,
		APIURL:      getEnv("MXPROBE_API_URL", ""),
		APIKey:      getEnv("MXPROBE_API_KEY", ""),
		LogLevel:    getEnv("MXPROBE_LOG_LEVEL", "warning"),
		MetricsAddr: getEnv("MXPROBE_METRICS_ADDR", ""),
	}, nil
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return strings.TrimSpace(value)
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	if v, err := strconv.Atoi(getEnv(key, "")); err == nil {
		return v
	}
	return fallback
}

func getEnvAsBool(key string, fallback bool) bool {
	if v, err := strconv.ParseBool(getEnv(key, "")); err == nil {
		return v
	}
	return fallback
}

func getEnvAsDuration(key string, fallback time.Duration) time.Duration {
	if v, err := time.ParseDuration(getEnv(key, "")); err == nil {
		return v
	}
	return fallback
}
