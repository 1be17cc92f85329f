package config

import (
	"fmt"
	"os"
	"strconv"
)

type Config struct {
	// Clipdrop API
	ClipdropAPIKey     string
	ClipdropAPIBaseURL string

	// Supabase
	SupabaseURL            string
	SupabasePublishableKey string
	SupabaseJWTSecret      string
	OriginalsBucket        string
	ProcessedBucket        string

	// Database
	DatabaseURL string

	// Redis (optional quota read cache)
	RedisAddr string

	// Upload limits
	DailyRequestLimit int
	MaxUploadBytes    int64
	MaxMegapixels     float64

	// Server
	Port        string
	Environment string
}

func Load() (*Config, error) {
	cfg := &Config{
		ClipdropAPIKey:     getEnv("CLIPDROP_API_KEY", ""),
		ClipdropAPIBaseURL: getEnv("CLIPDROP_API_BASE_URL", "https://clipdrop-api.co"),

		SupabaseURL:            getEnv("SUPABASE_URL", ""),
		SupabasePublishableKey: getEnv("SUPABASE_PUBLISHABLE_KEY", ""),
		SupabaseJWTSecret:      getEnv("SUPABASE_JWT_SECRET", ""),
		OriginalsBucket:        getEnv("SUPABASE_ORIGINALS_BUCKET", "originals"),
		ProcessedBucket:        getEnv("SUPABASE_PROCESSED_BUCKET", "processed"),

		DatabaseURL: getEnv("DATABASE_URL", ""),

		RedisAddr: getEnv("REDIS_ADDR", ""),

		DailyRequestLimit: getEnvInt("DAILY_REQUEST_LIMIT", 20),
		MaxUploadBytes:    int64(getEnvInt("MAX_UPLOAD_BYTES", 10*1024*1024)),
		MaxMegapixels:     getEnvFloat("MAX_MEGAPIXELS", 25),

		Port:        getEnv("PORT", "8080"),
		Environment: getEnv("ENVIRONMENT", "development"),
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

func (c *Config) Validate() error {
	if c.ClipdropAPIKey == "" {
		return fmt.Errorf("CLIPDROP_API_KEY is required")
	}
	if c.SupabaseURL == "" {
		return fmt.Errorf("SUPABASE_URL is required")
	}
	if c.SupabasePublishableKey == "" {
		return fmt.Errorf("SUPABASE_PUBLISHABLE_KEY is required")
	}
	if c.SupabaseJWTSecret == "" {
		return fmt.Errorf("SUPABASE_JWT_SECRET is required")
	}
	if c.DailyRequestLimit <= 0 {
		return fmt.Errorf("DAILY_REQUEST_LIMIT must be positive")
	}
	if c.MaxUploadBytes <= 0 {
		return fmt.Errorf("MAX_UPLOAD_BYTES must be positive")
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultValue
}
