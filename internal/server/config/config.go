package config

import (
	"encoding/hex"
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

// Config holds runtime settings for the NoteIt server.
// All values come from environment variables with development defaults.
// NOTE: the default JWT secret is insecure and must be overridden in prod.
type Config struct {
	Addr            string        `env:"NOTEIT_ADDR" envDefault:":8080"`
	DatabasePath    string        `env:"NOTEIT_DB_PATH" envDefault:"noteit.db"`
	NotesDBPath     string        `env:"NOTEIT_NOTES_DB_PATH" envDefault:"notes.db"`
	JWTSecretHex    string        `env:"NOTEIT_JWT_SECRET" envDefault:"6e6f746569742d6465762d736563726574"`
	AccessTokenTTL  time.Duration `env:"NOTEIT_ACCESS_TOKEN_TTL" envDefault:"15m"`
	RefreshTokenTTL time.Duration `env:"NOTEIT_REFRESH_TOKEN_TTL" envDefault:"720h"`
	CookieTTL       time.Duration `env:"NOTEIT_COOKIE_TTL" envDefault:"24h"`
	OTPTTL          time.Duration `env:"NOTEIT_OTP_TTL" envDefault:"5m"`
	AuthRateLimit   int           `env:"NOTEIT_AUTH_RATE_LIMIT" envDefault:"10"`
	AuthRateWindow  time.Duration `env:"NOTEIT_AUTH_RATE_WINDOW" envDefault:"1m"`
	CORSOrigin      string        `env:"NOTEIT_CORS_ORIGIN" envDefault:"*"`
	LogLevel        string        `env:"NOTEIT_LOG_LEVEL" envDefault:"info"`
}

// Load builds a Config from the environment and validates it.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks that the configuration is usable.
func (c *Config) Validate() error {
	if _, err := c.JWTSecret(); err != nil {
		return err
	}
	if c.AccessTokenTTL <= 0 {
		return fmt.Errorf("access token TTL must be positive, got %s", c.AccessTokenTTL)
	}
	if c.RefreshTokenTTL <= 0 {
		return fmt.Errorf("refresh token TTL must be positive, got %s", c.RefreshTokenTTL)
	}
	return nil
}

// JWTSecret decodes the hex-encoded signing secret.
// The key is derived once at startup and is immutable for the process lifetime.
func (c *Config) JWTSecret() ([]byte, error) {
	key, err := hex.DecodeString(c.JWTSecretHex)
	if err != nil {
		return nil, fmt.Errorf("jwt secret is not valid hex: %w", err)
	}
	if len(key) == 0 {
		return nil, fmt.Errorf("jwt secret is empty")
	}
	return key, nil
}
