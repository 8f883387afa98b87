package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Config holds application configuration
type Config struct {
	Port     string
	DBConn   string
	LogLevel string

	// Daily digest job
	DigestEnabled bool
	DigestCron    string
	DigestTo      string

	// SMTP for digest delivery; digest falls back to log-only when unset
	SMTPHost     string
	SMTPPort     string
	SMTPUsername string
	SMTPPassword string
	SenderEmail  string
}

// NewConfig loads configuration from the environment, reading a .env
// file first when one exists.
func NewConfig() (*Config, error) {
	_ = godotenv.Load()

	digestEnabled, err := strconv.ParseBool(getEnv("DIGEST_ENABLED", "true"))
	if err != nil {
		return nil, fmt.Errorf("DIGEST_ENABLED must be a boolean: %w", err)
	}

	cfg := &Config{
		Port:          getEnv("PORT", "8080"),
		DBConn:        getEnv("DB_CONN", "host=localhost port=5432 user=easie password=easie dbname=easie sslmode=disable"),
		LogLevel:      getEnv("LOG_LEVEL", "INFO"),
		DigestEnabled: digestEnabled,
		DigestCron:    getEnv("DIGEST_CRON", "0 7 * * *"),
		DigestTo:      getEnv("DIGEST_EMAIL_TO", ""),
		SMTPHost:      getEnv("SMTP_HOST", ""),
		SMTPPort:      getEnv("SMTP_PORT", "587"),
		SMTPUsername:  getEnv("SMTP_USERNAME", ""),
		SMTPPassword:  getEnv("SMTP_PASSWORD", ""),
		SenderEmail:   getEnv("SENDER_EMAIL", ""),
	}

	if cfg.DBConn == "" {
		return nil, fmt.Errorf("DB_CONN is required")
	}

	return cfg, nil
}

// SMTPConfigured reports whether the digest can be delivered by mail.
func (c *Config) SMTPConfigured() bool {
	return c.SMTPHost != "" && c.SenderEmail != "" && c.DigestTo != ""
}

func getEnv(key, defaultVal string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultVal
}
