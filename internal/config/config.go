package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	defaultAppEnv            = "dev"
	defaultHTTPAddr          = ":8080"
	defaultDatabaseURL       = "buyerleads.db"
	defaultAppURL            = "http://localhost:8080"
	defaultSessionTTL        = "720h"
	defaultMagicLinkTTL      = "15m"
	defaultMagicLinkCooldown = "60s"
	defaultCookieSecure      = "false"
	defaultCookieSameSite    = "Lax"
	defaultRateLimitBackend  = "memory"
	defaultLogLevel          = "info"
	defaultSMTPPort          = "587"
	defaultSMTPFrom          = "Buyer Leads <no-reply@localhost>"
	defaultImportMaxFailures = "10"
	defaultJWTSecret         = "change-me-jwt-secret"
	defaultMagicLinkPepper   = "change-me-magic-link-pepper"
)

type AppConfig struct {
	AppEnv      string
	HTTPAddr    string
	DatabaseURL string
	AppURL      string
	LogLevel    string

	JWTSecret         string
	SessionTTL        time.Duration
	MagicLinkTTL      time.Duration
	MagicLinkCooldown time.Duration
	MagicLinkPepper   string
	CookieSecure      bool
	CookieSameSite    string

	CORSOrigins []string

	RateLimitBackend string
	RedisAddr        string
	RedisPassword    string

	SMTPHost string
	SMTPPort int
	SMTPUser string
	SMTPPass string
	SMTPFrom string

	ImportMaxFailures int
}

// Load reads configuration from the environment, after loading .env if
// one exists in the working directory.
func Load() (*AppConfig, error) {
	_ = godotenv.Load()
	return FromEnv()
}

// FromEnv reads configuration from the process environment only.
func FromEnv() (*AppConfig, error) {
	cfg := &AppConfig{}
	cfg.AppEnv = strings.ToLower(strings.TrimSpace(getEnv("APP_ENV", defaultAppEnv)))
	cfg.HTTPAddr = strings.TrimSpace(getEnv("HTTP_ADDR", defaultHTTPAddr))
	cfg.DatabaseURL = strings.TrimSpace(getEnv("DATABASE_URL", defaultDatabaseURL))
	cfg.AppURL = strings.TrimRight(strings.TrimSpace(getEnv("APP_URL", defaultAppURL)), "/")
	cfg.LogLevel = strings.TrimSpace(getEnv("LOG_LEVEL", defaultLogLevel))

	cfg.JWTSecret = strings.TrimSpace(getEnv("JWT_SECRET", defaultJWTSecret))
	cfg.MagicLinkPepper = strings.TrimSpace(getEnv("MAGIC_LINK_PEPPER", defaultMagicLinkPepper))

	var err error
	cfg.SessionTTL, err = parseDurationEnv("SESSION_TTL", defaultSessionTTL)
	if err != nil {
		return nil, err
	}
	cfg.MagicLinkTTL, err = parseDurationEnv("MAGIC_LINK_TTL", defaultMagicLinkTTL)
	if err != nil {
		return nil, err
	}
	cfg.MagicLinkCooldown, err = parseDurationEnv("MAGIC_LINK_COOLDOWN", defaultMagicLinkCooldown)
	if err != nil {
		return nil, err
	}

	cfg.CookieSecure = parseBoolEnv("COOKIE_SECURE", defaultCookieSecure)
	cfg.CookieSameSite = strings.TrimSpace(getEnv("COOKIE_SAMESITE", defaultCookieSameSite))
	cfg.CORSOrigins = parseListEnv("CORS_ORIGINS", cfg.AppURL)

	cfg.RateLimitBackend = strings.ToLower(strings.TrimSpace(getEnv("RATE_LIMIT_BACKEND", defaultRateLimitBackend)))
	cfg.RedisAddr = strings.TrimSpace(os.Getenv("REDIS_ADDR"))
	cfg.RedisPassword = os.Getenv("REDIS_PASSWORD")

	cfg.SMTPHost = strings.TrimSpace(os.Getenv("SMTP_HOST"))
	cfg.SMTPPort, err = parseIntEnv("SMTP_PORT", defaultSMTPPort)
	if err != nil {
		return nil, err
	}
	cfg.SMTPUser = strings.TrimSpace(os.Getenv("SMTP_USER"))
	cfg.SMTPPass = os.Getenv("SMTP_PASS")
	cfg.SMTPFrom = strings.TrimSpace(getEnv("SMTP_FROM", defaultSMTPFrom))

	cfg.ImportMaxFailures, err = parseIntEnv("IMPORT_MAX_FAILURES", defaultImportMaxFailures)
	if err != nil {
		return nil, err
	}

	if err := validateConfig(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// IsProdLike reports whether the config runs in a production environment.
func (c *AppConfig) IsProdLike() bool {
	return isProdLike(c.AppEnv)
}

func validateConfig(cfg *AppConfig) error {
	if cfg.SessionTTL <= 0 {
		return fmt.Errorf("SESSION_TTL must be > 0")
	}
	if cfg.MagicLinkTTL <= 0 {
		return fmt.Errorf("MAGIC_LINK_TTL must be > 0")
	}
	if cfg.MagicLinkCooldown < 0 {
		return fmt.Errorf("MAGIC_LINK_COOLDOWN must be >= 0")
	}
	if cfg.ImportMaxFailures <= 0 {
		return fmt.Errorf("IMPORT_MAX_FAILURES must be > 0")
	}
	if cfg.DatabaseURL == "" {
		return fmt.Errorf("DATABASE_URL must not be empty")
	}

	sameSite := strings.ToLower(cfg.CookieSameSite)
	if sameSite != "lax" && sameSite != "none" && sameSite != "strict" {
		return fmt.Errorf("COOKIE_SAMESITE must be one of: Lax, None, Strict")
	}
	if sameSite == "none" && !cfg.CookieSecure {
		return fmt.Errorf("COOKIE_SECURE must be true when COOKIE_SAMESITE=None")
	}

	switch cfg.RateLimitBackend {
	case "memory":
	case "redis":
		if cfg.RedisAddr == "" {
			return fmt.Errorf("REDIS_ADDR is required when RATE_LIMIT_BACKEND=redis")
		}
	default:
		return fmt.Errorf("RATE_LIMIT_BACKEND must be memory or redis")
	}

	if isProdLike(cfg.AppEnv) {
		if isEmptyOrDefault(cfg.JWTSecret, defaultJWTSecret) {
			return fmt.Errorf("in prod/release JWT_SECRET must be set and not default")
		}
		if isEmptyOrDefault(cfg.MagicLinkPepper, defaultMagicLinkPepper) {
			return fmt.Errorf("in prod/release MAGIC_LINK_PEPPER must be set and not default")
		}
		if !cfg.CookieSecure {
			return fmt.Errorf("in prod/release COOKIE_SECURE must be true")
		}
		if cfg.SMTPHost == "" {
			return fmt.Errorf("in prod/release SMTP_HOST must be set")
		}
	}

	return nil
}

func isProdLike(env string) bool {
	env = strings.ToLower(strings.TrimSpace(env))
	return env == "prod" || env == "production" || env == "release"
}

func isEmptyOrDefault(v, def string) bool {
	trimmed := strings.TrimSpace(v)
	return trimmed == "" || trimmed == def
}

func parseDurationEnv(name, fallback string) (time.Duration, error) {
	value := strings.TrimSpace(getEnv(name, fallback))
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s value %q: %w", name, value, err)
	}
	return d, nil
}

func parseIntEnv(name, fallback string) (int, error) {
	value := strings.TrimSpace(getEnv(name, fallback))
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s value %q: %w", name, value, err)
	}
	return n, nil
}

func parseBoolEnv(name, fallback string) bool {
	value := strings.ToLower(strings.TrimSpace(getEnv(name, fallback)))
	return value == "1" || value == "true" || value == "yes" || value == "on"
}

func parseListEnv(name, fallback string) []string {
	var out []string
	for _, part := range strings.Split(getEnv(name, fallback), ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func getEnv(name, fallback string) string {
	if v := os.Getenv(name); v != "" {
		return v
	}
	return fallback
}
