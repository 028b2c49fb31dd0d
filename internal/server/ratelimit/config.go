package ratelimit

import (
	"net/http"
	"strings"
	"time"

	"github.com/jonathan/resume-builder/internal/config"
)

// EndpointConfig is the limit applied to one route.
type EndpointConfig struct {
	// Path is matched segment by segment; "*" matches any one segment and a
	// trailing "/" matches any suffix.
	Path   string
	Method string
	Limit  int           // requests per Window; 0 is unlimited
	Window time.Duration
	Burst  int // bucket capacity, defaults to Limit
}

// Config holds rate limiting configuration.
type Config struct {
	Enabled         bool
	DefaultLimit    int
	DefaultWindow   time.Duration
	CleanupInterval time.Duration
	Whitelist       map[string]bool
	Blacklist       map[string]bool
	EndpointConfigs []EndpointConfig
}

// FromSettings builds a limiter config from the rate_limit section.
func FromSettings(s config.RateLimitSettings) *Config {
	return &Config{
		Enabled:         s.Enabled,
		DefaultLimit:    s.DefaultLimit,
		DefaultWindow:   s.DefaultWindow,
		CleanupInterval: s.CleanupInterval,
		Whitelist:       ipSet(s.Whitelist),
		Blacklist:       ipSet(s.Blacklist),
		EndpointConfigs: DefaultEndpointConfigs(),
	}
}

// DefaultEndpointConfigs returns the per-route limits. Agent turns are the
// expensive calls; auth routes are throttled against credential stuffing.
func DefaultEndpointConfigs() []EndpointConfig {
	return []EndpointConfig{
		// Agent turns
		{Path: "/sessions/*/generate", Method: http.MethodPost, Limit: 20, Window: time.Hour, Burst: 3},
		{Path: "/sessions/*/chat", Method: http.MethodPost, Limit: 120, Window: time.Hour, Burst: 5},
		{Path: "/sessions/*/chat/stream", Method: http.MethodPost, Limit: 120, Window: time.Hour, Burst: 5},
		{Path: "/sessions/*/job", Method: http.MethodPut, Limit: 60, Window: time.Hour, Burst: 5},

		// Browser and scraper work
		{Path: "/sessions/*/pdf", Method: http.MethodGet, Limit: 30, Window: time.Hour, Burst: 5},
		{Path: "/profiles/me/github", Method: http.MethodPost, Limit: 10, Window: time.Hour, Burst: 2},
		{Path: "/uploads/resume", Method: http.MethodPost, Limit: 30, Window: time.Hour, Burst: 5},

		// Auth
		{Path: "/auth/register", Method: http.MethodPost, Limit: 10, Window: time.Hour, Burst: 3},
		{Path: "/auth/login", Method: http.MethodPost, Limit: 30, Window: time.Minute, Burst: 5},
		{Path: "/auth/password", Method: http.MethodPut, Limit: 10, Window: time.Hour, Burst: 3},

		// Writes
		{Path: "/sessions", Method: http.MethodPost, Limit: 60, Window: time.Hour, Burst: 10},
		{Path: "/profiles/me", Method: http.MethodPut, Limit: 100, Window: time.Minute, Burst: 10},
		{Path: "/render", Method: http.MethodPost, Limit: 100, Window: time.Minute, Burst: 20},
		{Path: "/jobs", Method: http.MethodPost, Limit: 100, Window: time.Hour, Burst: 10},

		// Health and scraping
		{Path: "/health", Method: http.MethodGet, Limit: 0},
		{Path: "/metrics", Method: http.MethodGet, Limit: 0},
	}
}

func ipSet(list []string) map[string]bool {
	result := make(map[string]bool, len(list))
	for _, ip := range list {
		if ip = strings.TrimSpace(ip); ip != "" {
			result[ip] = true
		}
	}
	return result
}
