package config

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// Config holds all application configuration
type Config struct {
	Server    ServerConfig
	Mail      MailConfig
	RateLimit RateLimitConfig
	Upload    UploadConfig
	Storage   StorageConfig
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host           string
	Port           string
	AllowedOrigins []string
}

// MailConfig holds outbound mail delivery configuration
type MailConfig struct {
	Recipient    string
	FromAddress  string
	FromName     string
	SMTPHost     string
	SMTPPort     int
	SMTPUsername string
	SMTPPassword string
}

// RateLimitConfig holds submission rate limiting configuration
type RateLimitConfig struct {
	MaxAttempts int
	Period      time.Duration
	// Backend selects the rate window store: "file", "redis" or "memory"
	Backend   string
	RedisAddr string
}

// UploadConfig holds attachment upload configuration
type UploadConfig struct {
	Dir          string
	MaxSizeBytes int64
}

// StorageConfig holds paths for durable pipeline state
type StorageConfig struct {
	DataDir string
}

// Load reads configuration from environment variables
func Load() *Config {
	dataDir := getEnv("DATA_DIR", filepath.Join(os.TempDir(), "textbridge"))

	return &Config{
		Server: ServerConfig{
			Host:           getEnv("SERVER_HOST", "0.0.0.0"),
			Port:           getEnv("SERVER_PORT", "8080"),
			AllowedOrigins: getListEnv("ALLOWED_ORIGINS", []string{"https://textbridge.at", "http://localhost:3000"}),
		},
		Mail: MailConfig{
			Recipient:    getEnv("MAIL_RECIPIENT", "team@textbridge.at"),
			FromAddress:  getEnv("MAIL_FROM_ADDRESS", "noreply@textbridge.example"),
			FromName:     getEnv("MAIL_FROM_NAME", "TextBridge Website"),
			SMTPHost:     getEnv("SMTP_HOST", "localhost"),
			SMTPPort:     getIntEnv("SMTP_PORT", 587),
			SMTPUsername: getEnv("SMTP_USERNAME", ""),
			SMTPPassword: getEnv("SMTP_PASSWORD", ""),
		},
		RateLimit: RateLimitConfig{
			MaxAttempts: getIntEnv("RATE_LIMIT_MAX_ATTEMPTS", 5),
			Period:      getDurationEnv("RATE_LIMIT_PERIOD", time.Hour),
			Backend:     getEnv("RATE_LIMIT_BACKEND", "file"),
			RedisAddr:   getEnv("REDIS_ADDR", "localhost:6379"),
		},
		Upload: UploadConfig{
			Dir:          getEnv("UPLOAD_DIR", filepath.Join(dataDir, "uploads")),
			MaxSizeBytes: getInt64Env("UPLOAD_MAX_SIZE_BYTES", 2*1024*1024),
		},
		Storage: StorageConfig{
			DataDir: dataDir,
		},
	}
}

// RateLimitStorePath returns the path of the rate window mapping file
func (s *StorageConfig) RateLimitStorePath() string {
	return filepath.Join(s.DataDir, "contact_rate_limit.json")
}

// AuditLogPath returns the path of the append-only submission audit log
func (s *StorageConfig) AuditLogPath() string {
	return filepath.Join(s.DataDir, "contact_submissions.log")
}

// FailureStorePath returns the path of the failed submission store
func (s *StorageConfig) FailureStorePath() string {
	return filepath.Join(s.DataDir, "contact_failed_submissions.log")
}

// getEnv returns environment variable value or default
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getIntEnv returns integer from environment variable or default
func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return defaultValue
}

// getInt64Env returns int64 from environment variable or default
func getInt64Env(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.ParseInt(value, 10, 64); err == nil {
			return n
		}
	}
	return defaultValue
}

// getDurationEnv returns duration in seconds from environment variable or default
func getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if seconds, err := strconv.Atoi(value); err == nil {
			return time.Duration(seconds) * time.Second
		}
	}
	return defaultValue
}

// getListEnv returns a comma-separated list from environment variable or default
func getListEnv(key string, defaultValue []string) []string {
	if value := os.Getenv(key); value != "" {
		parts := strings.Split(value, ",")
		out := make([]string, 0, len(parts))
		for _, p := range parts {
			if trimmed := strings.TrimSpace(p); trimmed != "" {
				out = append(out, trimmed)
			}
		}
		if len(out) > 0 {
			return out
		}
	}
	return defaultValue
}
