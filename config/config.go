package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/caarlos0/env/v6"
	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
)

// ErrSigningKeyMissing is fatal: the server cannot issue or check tokens without it.
var ErrSigningKeyMissing = errors.New("JWT_KEY is required")

type Config struct {
	HTTPAddr    string `env:"HTTP_ADDR" envDefault:":8080"`
	DatabaseURL string `env:"DATABASE_URL" validate:"required"`
	LogLevel    string `env:"LOG_LEVEL" envDefault:"info"`
	// RunMigrations applies the schema and seeds roles on startup.
	RunMigrations bool `env:"RUN_MIGRATIONS" envDefault:"true"`

	JWT          JWTConfig
	Verification VerificationConfig
	Email        EmailConfig
	Redis        RedisConfig

	BcryptCost             int `env:"BCRYPT_COST" envDefault:"10" validate:"min=4,max=31"`
	AuthRateLimitPerMinute int `env:"AUTH_RATE_LIMIT_PER_MINUTE" envDefault:"30" validate:"min=1"`
}

type JWTConfig struct {
	Key            string `env:"JWT_KEY"`
	Issuer         string `env:"JWT_ISSUER" envDefault:"ToDoApp"`
	Audience       string `env:"JWT_AUDIENCE" envDefault:"ToDoAppClients"`
	ExpiresMinutes int    `env:"JWT_EXPIRES_MINUTES" envDefault:"60" validate:"min=1"`
}

type VerificationConfig struct {
	CodeDigits            int `env:"VERIFICATION_CODE_DIGITS" envDefault:"6" validate:"min=4,max=10"`
	CodeExpiryMinutes     int `env:"VERIFICATION_CODE_EXPIRY_MINUTES" envDefault:"15" validate:"min=1"`
	ResendCooldownSeconds int `env:"VERIFICATION_RESEND_COOLDOWN_SECONDS" envDefault:"60" validate:"min=0"`
}

type EmailConfig struct {
	ResendAPIKey string `env:"RESEND_API_KEY"`
	From         string `env:"EMAIL_FROM"`
}

type RedisConfig struct {
	Addr     string `env:"REDIS_ADDR"`
	Password string `env:"REDIS_PASSWORD"`
	DB       int    `env:"REDIS_DB" envDefault:"0" validate:"min=0"`
}

func (c JWTConfig) TTL() time.Duration {
	return time.Duration(c.ExpiresMinutes) * time.Minute
}

func (c VerificationConfig) CodeTTL() time.Duration {
	return time.Duration(c.CodeExpiryMinutes) * time.Minute
}

func (c VerificationConfig) ResendCooldown() time.Duration {
	return time.Duration(c.ResendCooldownSeconds) * time.Second
}

// Load reads .env when present, then the process environment.
func Load() (*Config, error) {
	if _, err := os.Stat(".env"); err == nil {
		if err := godotenv.Load(); err != nil {
			return nil, fmt.Errorf("load .env: %w", err)
		}
	}

	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("parse environment: %w", err)
	}
	if strings.TrimSpace(cfg.JWT.Key) == "" {
		return nil, ErrSigningKeyMissing
	}
	if err := validator.New().Struct(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}
