// Package config loads service configuration by layering defaults, an
// optional YAML file and RESUME_* environment variables.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// EnvPrefix prefixes every environment override, e.g. RESUME_PORT.
const EnvPrefix = "RESUME_"

// FileEnv names the variable holding an optional YAML config path.
const FileEnv = "RESUME_CONFIG"

// Config is the process configuration.
type Config struct {
	Port         int           `koanf:"port"`
	DatabaseURL  string        `koanf:"database_url"`
	AgentURL     string        `koanf:"agent_url"`
	AgentTimeout time.Duration `koanf:"agent_timeout"`
	GeminiAPIKey string        `koanf:"gemini_api_key"`
	GeminiModel  string        `koanf:"gemini_model"`
	ChromePath   string        `koanf:"chrome_path"`
	LogLevel     string        `koanf:"log_level"`

	// SessionIdleTimeout closes builder sessions and agent conversations
	// left untouched this long. Zero keeps them until deleted.
	SessionIdleTimeout time.Duration `koanf:"session_idle_timeout"`

	JWT       JWTSettings       `koanf:"jwt"`
	Password  PasswordSettings  `koanf:"password"`
	RateLimit RateLimitSettings `koanf:"rate_limit"`
}

// JWTSettings is the jwt.* section.
type JWTSettings struct {
	Secret          string `koanf:"secret"`
	ExpirationHours int    `koanf:"expiration_hours"`
}

// PasswordSettings is the password.* section.
type PasswordSettings struct {
	BcryptCost int    `koanf:"bcrypt_cost"`
	Pepper     string `koanf:"pepper"`
}

// RateLimitSettings is the rate_limit.* section. Lists accept a
// comma-separated string from the environment.
type RateLimitSettings struct {
	Enabled         bool          `koanf:"enabled"`
	DefaultLimit    int           `koanf:"default_limit"`
	DefaultWindow   time.Duration `koanf:"default_window"`
	CleanupInterval time.Duration `koanf:"cleanup_interval"`
	Whitelist       []string      `koanf:"whitelist"`
	Blacklist       []string      `koanf:"blacklist"`
}

// Default returns the configuration used when nothing overrides it.
func Default() *Config {
	return &Config{
		Port:         8080,
		AgentTimeout: 120 * time.Second,
		LogLevel:     "info",

		SessionIdleTimeout: 2 * time.Hour,
		JWT:          JWTSettings{ExpirationHours: 24},
		Password:     PasswordSettings{BcryptCost: 12},
		RateLimit: RateLimitSettings{
			Enabled:         true,
			DefaultLimit:    1000,
			DefaultWindow:   time.Minute,
			CleanupInterval: 5 * time.Minute,
		},
	}
}

// Load builds a Config. Precedence (low -> high):
//  1. Default()
//  2. YAML file named by RESUME_CONFIG
//  3. RESUME_* environment variables
//
// DATABASE_URL and GEMINI_API_KEY are honored when their RESUME_ forms are unset.
func Load() (*Config, error) {
	k := koanf.New(".")

	if path := os.Getenv(FileEnv); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", path, err)
		}
	}

	// RESUME_JWT_SECRET -> jwt.secret, RESUME_AGENT_URL -> agent_url
	envProvider := env.Provider(EnvPrefix, ".", envKey)
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("failed to load environment: %w", err)
	}

	cfg := Default()
	if err := k.UnmarshalWithConf("", cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}

	if cfg.DatabaseURL == "" {
		cfg.DatabaseURL = os.Getenv("DATABASE_URL")
	}
	if cfg.GeminiAPIKey == "" {
		cfg.GeminiAPIKey = os.Getenv("GEMINI_API_KEY")
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// sections are the nested config blocks addressable from the environment.
var sections = []string{"jwt", "password", "rate_limit"}

func envKey(s string) string {
	s = strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
	for _, section := range sections {
		if strings.HasPrefix(s, section+"_") {
			return section + "." + strings.TrimPrefix(s, section+"_")
		}
	}
	return s
}

// Validate checks value ranges. Secrets are checked by JWTConfig and
// PasswordConfig, since commands like migrate do not need them.
func (c *Config) Validate() error {
	if c.Port < 1 || c.Port > 65535 {
		return fmt.Errorf("config error: 'port' out of range: %d", c.Port)
	}
	if c.AgentTimeout <= 0 {
		return fmt.Errorf("config error: 'agent_timeout' must be positive")
	}
	if c.SessionIdleTimeout < 0 {
		return fmt.Errorf("config error: 'session_idle_timeout' must not be negative")
	}
	switch c.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("config error: unknown 'log_level' %q", c.LogLevel)
	}
	if c.RateLimit.Enabled && (c.RateLimit.DefaultLimit <= 0 || c.RateLimit.DefaultWindow <= 0) {
		return fmt.Errorf("config error: 'rate_limit' needs a positive default_limit and default_window")
	}
	return nil
}

// Addr is the HTTP listen address.
func (c *Config) Addr() string {
	return fmt.Sprintf(":%d", c.Port)
}

// Debug reports whether verbose logging is enabled.
func (c *Config) Debug() bool {
	return c.LogLevel == "debug"
}
