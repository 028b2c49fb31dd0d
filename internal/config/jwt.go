package config

import "fmt"

// JWTConfig holds configuration for JWT token generation and validation.
type JWTConfig struct {
	Secret          string
	ExpirationHours int
}

// JWTConfig returns the validated jwt.* section.
func (c *Config) JWTConfig() (*JWTConfig, error) {
	cfg := &JWTConfig{
		Secret:          c.JWT.Secret,
		ExpirationHours: c.JWT.ExpirationHours,
	}
	if err := cfg.normalize(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *JWTConfig) normalize() error {
	if c.Secret == "" {
		return fmt.Errorf("jwt.secret is required but not set")
	}
	if len(c.Secret) < 32 {
		return fmt.Errorf("jwt.secret must be at least 32 characters, got: %d", len(c.Secret))
	}
	if c.ExpirationHours < 1 {
		return fmt.Errorf("jwt.expiration_hours must be at least 1 hour, got: %d", c.ExpirationHours)
	}
	return nil
}
