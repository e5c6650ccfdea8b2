package config

import (
	"flag"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/mailprefs/internal/model"
)

type Config struct {
	// Server
	Port string
	Env  string // development, production

	// Storage
	DatabaseURL string
	RedisURL    string

	// Security
	SettingsEncryptionKey string
	SecureCookies         bool
	LoginRatePerMinute    int
	CheckinToken          string // bearer token for POST /api/checkins

	// First admin, created when the users table is empty
	SeedAdminUsername string
	SeedAdminPassword string

	// SMTP settings seeded into the database on first start
	SMTP model.AppSettings

	// Mail queue
	MailRate      time.Duration
	MailQueueSize int
	MailMaxRetry  int
}

// Load reads .env (if present), the environment and command-line flags.
func Load(args []string) (*Config, error) {
	// Load .env file if it exists (don't error if missing)
	_ = godotenv.Load()

	cfg := &Config{}
	fs := flag.NewFlagSet("mailprefs", flag.ContinueOnError)

	fs.StringVar(&cfg.Port, "port", getEnv("PORT", "8080"), "Server port")
	fs.StringVar(&cfg.Env, "env", getEnv("ENV", "development"), "Environment (development, production)")
	fs.StringVar(&cfg.DatabaseURL, "database-url", getEnv("DATABASE_URL", "mailprefs.db"), "SQLite path or PostgreSQL URL")
	fs.StringVar(&cfg.RedisURL, "redis-url", getEnv("REDIS_URL", ""), "Redis URL for sessions (optional)")

	cfg.SettingsEncryptionKey = getEnv("SETTINGS_ENCRYPTION_KEY", "")
	cfg.SecureCookies = getEnv("SECURE_COOKIES", "false") == "true"
	cfg.LoginRatePerMinute = getEnvInt("LOGIN_RATE_PER_MINUTE", 10)
	cfg.CheckinToken = getEnv("CHECKIN_TOKEN", "")

	cfg.SeedAdminUsername = getEnv("SEED_ADMIN_USERNAME", "")
	cfg.SeedAdminPassword = getEnv("SEED_ADMIN_PASSWORD", "")

	cfg.SMTP = model.AppSettings{
		SMTPHost:        getEnv("SMTP_HOST", ""),
		SMTPPort:        getEnvInt("SMTP_PORT", 587),
		SMTPUser:        getEnv("SMTP_USER", ""),
		SMTPPass:        getEnv("SMTP_PASS", ""),
		SMTPFromAddress: getEnv("SMTP_FROM_ADDRESS", ""),
		SMTPFromName:    getEnv("SMTP_FROM_NAME", ""),
	}

	cfg.MailRate = getEnvDuration("MAIL_RATE", time.Second)
	cfg.MailQueueSize = getEnvInt("MAIL_QUEUE_SIZE", 256)
	cfg.MailMaxRetry = getEnvInt("MAIL_MAX_RETRY", 3)

	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) Validate() error {
	if c.DatabaseURL == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}

	if len(c.SettingsEncryptionKey) < 32 {
		return fmt.Errorf("SETTINGS_ENCRYPTION_KEY must be at least 32 characters")
	}

	if c.Env != "development" && c.Env != "production" {
		return fmt.Errorf("ENV must be development or production, got %q", c.Env)
	}

	if c.MailQueueSize <= 0 {
		return fmt.Errorf("MAIL_QUEUE_SIZE must be positive")
	}

	if c.LoginRatePerMinute <= 0 {
		return fmt.Errorf("LOGIN_RATE_PER_MINUTE must be positive")
	}

	if c.MailRate <= 0 {
		return fmt.Errorf("MAIL_RATE must be positive")
	}
	return nil
}

func (c *Config) IsDevelopment() bool {
	return c.Env == "development"
}

func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v, ok := os.LookupEnv(key); ok {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if v, ok := os.LookupEnv(key); ok {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
