package config

import (
	"time"
)

// RateLimitConfig controls the fixed-window rate limiter applied to the
// auth endpoints.  Limit is the number of requests allowed per Window for
// a single client key (user id when authenticated, client IP otherwise).
type RateLimitConfig struct {
	Enabled bool
	Limit   int
	Window  time.Duration
	Prefix  string
}

// LoadRateLimitConfig reads environment variables to build a
// RateLimitConfig, with defaults suitable for interactive clients.
func LoadRateLimitConfig() RateLimitConfig {
	return RateLimitConfig{
		Enabled: getenv("RATE_LIMIT_ENABLED", "true") == "true",
		Limit:   atoi(getenv("RATE_LIMIT_LIMIT", "30")),
		Window:  parseDur(getenv("RATE_LIMIT_WINDOW", "1m")),
		Prefix:  getenv("RATE_LIMIT_PREFIX", "ratelimit"),
	}
}
