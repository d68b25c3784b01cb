package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/rs/zerolog/log"
)

var knownWeakSecrets = []string{
	"change-me", "dev-secret-change-me", "secret", "admin", "password", "jwt-secret",
}

type Config struct {
	Port                 int      `env:"PORT" envDefault:"4001"`
	AppEnv               string   `env:"APP_ENV" envDefault:"development"`
	DatabaseURL          string   `env:"DATABASE_URL,required"`
	RedisURL             string   `env:"REDIS_URL,required"`
	JWTSecret            string   `env:"JWT_SECRET,required"`
	JWTTTLHours          int      `env:"JWT_TTL_HOURS" envDefault:"24"`
	CORSOrigins          []string `env:"CORS_ORIGIN" envSeparator:","`
	UploadDir            string   `env:"UPLOAD_DIR" envDefault:"uploads"`
	LogLevel             string   `env:"LOG_LEVEL" envDefault:"info"`
	APIRateLimit         int      `env:"API_RATE_LIMIT" envDefault:"100"`
	APIRateWindowMinutes int      `env:"API_RATE_WINDOW_MINUTES" envDefault:"15"`
	RunMigrations        bool     `env:"RUN_MIGRATIONS" envDefault:"true"`
	TrustProxy           bool     `env:"TRUST_PROXY" envDefault:"false"`
}

func (c *Config) TokenTTL() time.Duration {
	return time.Duration(c.JWTTTLHours) * time.Hour
}

func (c *Config) APIRateWindow() time.Duration {
	return time.Duration(c.APIRateWindowMinutes) * time.Minute
}

func (c *Config) Addr() string {
	return fmt.Sprintf(":%d", c.Port)
}

func (c *Config) IsProduction() bool {
	return c.AppEnv == "production"
}

// AllowedOrigins returns the trimmed CORS origins. An empty result means any
// origin is reflected back.
func (c *Config) AllowedOrigins() []string {
	var origins []string
	for _, o := range c.CORSOrigins {
		if o = strings.TrimSpace(o); o != "" {
			origins = append(origins, o)
		}
	}
	return origins
}

func (c *Config) Validate() error {
	if c.JWTTTLHours <= 0 {
		return fmt.Errorf("JWT_TTL_HOURS must be positive")
	}
	if c.APIRateLimit <= 0 || c.APIRateWindowMinutes <= 0 {
		return fmt.Errorf("API_RATE_LIMIT and API_RATE_WINDOW_MINUTES must be positive")
	}

	if c.IsProduction() {
		if err := validateSecret("JWT_SECRET", c.JWTSecret); err != nil {
			return err
		}
		if len(c.AllowedOrigins()) == 0 {
			log.Warn().Msg("CORS_ORIGIN is empty in production: every origin is allowed")
		}
		if strings.HasPrefix(c.RedisURL, "redis://") {
			log.Warn().Msg("REDIS_URL uses redis:// (not TLS) in production: consider using rediss://")
		}
	}

	return nil
}

func validateSecret(name, value string) error {
	if len(value) < 32 {
		return fmt.Errorf("%s must be at least 32 characters in production (generate with: openssl rand -base64 32)", name)
	}
	for _, weak := range knownWeakSecrets {
		if value == weak {
			return fmt.Errorf("%s is a known weak default; set a strong secret in production", name)
		}
	}
	return nil
}

func Load() (*Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	return &cfg, nil
}
