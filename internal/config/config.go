package config

import (
	"fmt"
	"os"
	"strconv"
)

// DefaultMaxEmailSize is the per-message byte ceiling applied when
// MAX_EMAIL_SIZE_BYTES is unset (25 MiB).
const DefaultMaxEmailSize = 25 * 1024 * 1024

type Config struct {
	DatabaseURL string

	HTTPListenAddr    string
	MetricsListenAddr string

	// SMTPListenAddr is where the inbound ingestion engine listens.
	// Port 25 so relaying MTAs can reach it directly.
	SMTPListenAddr string
	SMTPHostname   string
	MaxEmailSize   int64

	EmailBodyBucket   string
	AttachmentsBucket string
	S3Endpoint        string
	S3Region          string
	S3AccessKey       string
	S3SecretKey       string

	RelayAPIURL string
	RelayAPIKey string

	LogLevel    string
	ServiceName string
}

func Load() (*Config, error) {
	cfg := &Config{
		DatabaseURL:       getEnv("DATABASE_URL", ""),
		HTTPListenAddr:    getEnv("HTTP_LISTEN_ADDR", ":8080"),
		MetricsListenAddr: getEnv("METRICS_LISTEN_ADDR", ":9091"),
		SMTPListenAddr:    getEnv("SMTP_LISTEN_ADDR", ":25"),
		SMTPHostname:      getEnv("SMTP_HOSTNAME", "localhost"),
		EmailBodyBucket:   getEnv("EMAIL_BODY_BUCKET", ""),
		AttachmentsBucket: getEnv("ATTACHMENTS_BUCKET", ""),
		S3Endpoint:        getEnv("S3_ENDPOINT", ""),
		S3Region:          getEnv("S3_REGION", "us-east-1"),
		S3AccessKey:       getEnv("S3_ACCESS_KEY", ""),
		S3SecretKey:       getEnv("S3_SECRET_KEY", ""),
		RelayAPIURL:       getEnv("RELAY_API_URL", "https://api.sendgrid.com/v3"),
		RelayAPIKey:       getEnv("RELAY_API_KEY", ""),
		LogLevel:          getEnv("LOG_LEVEL", "info"),
		ServiceName:       getEnv("SERVICE_NAME", ""),
	}

	size, err := getEnvInt64("MAX_EMAIL_SIZE_BYTES", DefaultMaxEmailSize)
	if err != nil {
		return nil, err
	}
	cfg.MaxEmailSize = size

	return cfg, nil
}

// Validate checks the settings the named service cannot run without.
func (c *Config) Validate(service string) error {
	if c.DatabaseURL == "" {
		return fmt.Errorf("%s: DATABASE_URL is required", service)
	}
	if service == "smtp-ingest" && c.EmailBodyBucket == "" {
		return fmt.Errorf("%s: EMAIL_BODY_BUCKET is required", service)
	}
	if c.MaxEmailSize <= 0 {
		return fmt.Errorf("%s: MAX_EMAIL_SIZE_BYTES must be positive", service)
	}
	return nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt64(key string, fallback int64) (int64, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("parse %s: %w", key, err)
	}
	return n, nil
}
