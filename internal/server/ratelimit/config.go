package ratelimit

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// EndpointConfig is the limit for requests matching Method and Path.
// A Path ending in "/" matches every path below it.
type EndpointConfig struct {
	Path   string
	Method string
	Limit  int
	Window time.Duration
	Burst  int // defaults to Limit
}

// Config holds rate limiting configuration.
type Config struct {
	Enabled         bool
	DefaultLimit    int
	DefaultWindow   time.Duration
	CleanupInterval time.Duration
	IdleTTL         time.Duration
	Allowlist       map[string]bool
	Denylist        map[string]bool
	Endpoints       []EndpointConfig
}

// LoadConfig reads RATE_LIMIT_* environment variables.
func LoadConfig() *Config {
	if !envBool("RATE_LIMIT_ENABLED", true) {
		return &Config{Enabled: false}
	}
	return &Config{
		Enabled:         true,
		DefaultLimit:    envInt("RATE_LIMIT_DEFAULT_LIMIT", 600),
		DefaultWindow:   envDuration("RATE_LIMIT_DEFAULT_WINDOW", time.Minute),
		CleanupInterval: envDuration("RATE_LIMIT_CLEANUP_INTERVAL", 5*time.Minute),
		IdleTTL:         time.Hour,
		Allowlist:       parseIPList(os.Getenv("RATE_LIMIT_ALLOWLIST")),
		Denylist:        parseIPList(os.Getenv("RATE_LIMIT_DENYLIST")),
		Endpoints:       DefaultEndpoints(),
	}
}

// DefaultEndpoints limits credential endpoints hardest and pipeline writes moderately.
// Reads fall through to the default limit.
func DefaultEndpoints() []EndpointConfig {
	return []EndpointConfig{
		{Path: "/auth/login", Method: "POST", Limit: 10, Window: time.Minute, Burst: 5},
		{Path: "/auth/register", Method: "POST", Limit: 5, Window: time.Hour, Burst: 2},

		{Path: "/profiles", Method: "POST", Limit: 120, Window: time.Minute, Burst: 20},
		{Path: "/profiles/", Method: "PATCH", Limit: 120, Window: time.Minute, Burst: 20},
		{Path: "/applications", Method: "POST", Limit: 120, Window: time.Minute, Burst: 20},
		{Path: "/applications/", Method: "POST", Limit: 120, Window: time.Minute, Burst: 20},
		{Path: "/applications/", Method: "PATCH", Limit: 120, Window: time.Minute, Burst: 20},
		{Path: "/recruitments", Method: "POST", Limit: 30, Window: time.Minute, Burst: 5},
		{Path: "/recruitments/", Method: "PUT", Limit: 60, Window: time.Minute, Burst: 10},
	}
}

func envInt(key string, def int) int {
	if v, err := strconv.Atoi(os.Getenv(key)); err == nil {
		return v
	}
	return def
}

func envBool(key string, def bool) bool {
	if v, err := strconv.ParseBool(os.Getenv(key)); err == nil {
		return v
	}
	return def
}

func envDuration(key string, def time.Duration) time.Duration {
	if v, err := time.ParseDuration(os.Getenv(key)); err == nil {
		return v
	}
	return def
}

// parseIPList parses a comma-separated list of IP addresses into a set.
func parseIPList(list string) map[string]bool {
	result := make(map[string]bool)
	for _, ip := range strings.Split(list, ",") {
		if ip = strings.TrimSpace(ip); ip != "" {
			result[ip] = true
		}
	}
	return result
}
