package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoadDefaults(t *testing.T) {
	cfg := Load()

	assert.Equal(t, "0.0.0.0", cfg.Server.Host)
	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, "team@textbridge.at", cfg.Mail.Recipient)
	assert.Equal(t, 587, cfg.Mail.SMTPPort)
	assert.Equal(t, 5, cfg.RateLimit.MaxAttempts)
	assert.Equal(t, time.Hour, cfg.RateLimit.Period)
	assert.Equal(t, "file", cfg.RateLimit.Backend)
	assert.Equal(t, int64(2*1024*1024), cfg.Upload.MaxSizeBytes)
}

func TestLoadFromEnvironment(t *testing.T) {
	t.Setenv("SERVER_PORT", "9090")
	t.Setenv("SMTP_PORT", "2525")
	t.Setenv("RATE_LIMIT_MAX_ATTEMPTS", "3")
	t.Setenv("RATE_LIMIT_PERIOD", "600")
	t.Setenv("RATE_LIMIT_BACKEND", "redis")
	t.Setenv("ALLOWED_ORIGINS", "https://a.example, https://b.example")

	cfg := Load()

	assert.Equal(t, "9090", cfg.Server.Port)
	assert.Equal(t, 2525, cfg.Mail.SMTPPort)
	assert.Equal(t, 3, cfg.RateLimit.MaxAttempts)
	assert.Equal(t, 10*time.Minute, cfg.RateLimit.Period)
	assert.Equal(t, "redis", cfg.RateLimit.Backend)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.Server.AllowedOrigins)
}

func TestLoadIgnoresMalformedNumbers(t *testing.T) {
	t.Setenv("SMTP_PORT", "not-a-number")
	t.Setenv("RATE_LIMIT_PERIOD", "soon")

	cfg := Load()

	assert.Equal(t, 587, cfg.Mail.SMTPPort)
	assert.Equal(t, time.Hour, cfg.RateLimit.Period)
}

func TestStoragePathsDeriveFromDataDir(t *testing.T) {
	t.Setenv("DATA_DIR", "/var/lib/textbridge")

	cfg := Load()

	assert.Equal(t, "/var/lib/textbridge/contact_rate_limit.json", cfg.Storage.RateLimitStorePath())
	assert.Equal(t, "/var/lib/textbridge/contact_submissions.log", cfg.Storage.AuditLogPath())
	assert.Equal(t, "/var/lib/textbridge/contact_failed_submissions.log", cfg.Storage.FailureStorePath())
	assert.Equal(t, "/var/lib/textbridge/uploads", cfg.Upload.Dir)
}
