package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromEnv_Defaults(t *testing.T) {
	t.Setenv("APP_ENV", "")
	t.Setenv("DATABASE_URL", "")

	cfg, err := FromEnv()
	require.NoError(t, err)

	assert.Equal(t, "dev", cfg.AppEnv)
	assert.Equal(t, "buyerleads.db", cfg.DatabaseURL)
	assert.Equal(t, 720*time.Hour, cfg.SessionTTL)
	assert.Equal(t, 15*time.Minute, cfg.MagicLinkTTL)
	assert.Equal(t, "memory", cfg.RateLimitBackend)
	assert.Equal(t, 10, cfg.ImportMaxFailures)
	assert.False(t, cfg.IsProdLike())
}

func TestFromEnv_ProdRejectsDefaultSecrets(t *testing.T) {
	t.Setenv("APP_ENV", "production")
	t.Setenv("JWT_SECRET", "")
	t.Setenv("COOKIE_SECURE", "true")

	_, err := FromEnv()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "JWT_SECRET")
}

func TestFromEnv_ProdRequiresSecureCookie(t *testing.T) {
	t.Setenv("APP_ENV", "prod")
	t.Setenv("JWT_SECRET", "real-secret")
	t.Setenv("MAGIC_LINK_PEPPER", "real-pepper")
	t.Setenv("SMTP_HOST", "smtp.example.com")
	t.Setenv("COOKIE_SECURE", "false")

	_, err := FromEnv()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "COOKIE_SECURE")
}

func TestFromEnv_RedisNeedsAddr(t *testing.T) {
	t.Setenv("RATE_LIMIT_BACKEND", "redis")
	t.Setenv("REDIS_ADDR", "")

	_, err := FromEnv()
	assert.Error(t, err)
}

func TestFromEnv_InvalidDuration(t *testing.T) {
	t.Setenv("SESSION_TTL", "forever")

	_, err := FromEnv()
	assert.Error(t, err)
}

func TestFromEnv_SameSiteNoneNeedsSecure(t *testing.T) {
	t.Setenv("COOKIE_SAMESITE", "None")
	t.Setenv("COOKIE_SECURE", "false")

	_, err := FromEnv()
	assert.Error(t, err)
}

func TestFromEnv_CORSOriginsList(t *testing.T) {
	t.Setenv("CORS_ORIGINS", "http://a.test, http://b.test ,")

	cfg, err := FromEnv()
	require.NoError(t, err)
	assert.Equal(t, []string{"http://a.test", "http://b.test"}, cfg.CORSOrigins)
}
