package internal

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Env      string
	Port     int
	LogLevel string

	// Backend catalog API
	APIBaseURL        string
	APIToken          string
	APITimeout        time.Duration
	APIMaxRetries     int
	APIRetryBaseDelay time.Duration
	APIRateLimit      float64 // requests per second; 0 disables throttling
	APIRateBurst      int

	// List views
	PageSize int

	// Image uploads
	MaxUploadBytes    int64
	MaxImageDimension int // longest edge after downscaling; 0 keeps originals

	// Dashboard access control
	// If both are empty, the dashboard is open (development only).
	AdminUsername string
	AdminPassword string

	// Metrics endpoint authentication
	// If both are empty, the /metrics endpoint will be unprotected (not recommended)
	MetricsUsername string
	MetricsPassword string

	// Write requests allowed per client IP per window
	MutationRateLimit  int
	MutationRateWindow time.Duration
}

// IsDevelopment reports whether the dashboard runs in development mode.
func (c *Config) IsDevelopment() bool {
	return c.Env == "development"
}

func NewConfig() (*Config, error) {
	// Load .env file if it exists (ignored in production)
	_ = godotenv.Load()

	cfg := &Config{
		Env:      getEnv("ENV", "development"),
		Port:     getEnvInt("PORT", 8080),
		LogLevel: getEnv("LOG_LEVEL", "debug"),

		APIToken:          getEnv("API_TOKEN", ""),
		APITimeout:        getEnvDuration("API_TIMEOUT", 15*time.Second),
		APIMaxRetries:     getEnvInt("API_MAX_RETRIES", 3),
		APIRetryBaseDelay: getEnvDuration("API_RETRY_BASE_DELAY", 200*time.Millisecond),
		APIRateLimit:      getEnvFloat("API_RATE_LIMIT", 20),
		APIRateBurst:      getEnvInt("API_RATE_BURST", 10),

		PageSize: getEnvInt("PAGE_SIZE", 10),

		MaxUploadBytes:    int64(getEnvInt("MAX_UPLOAD_BYTES", 10<<20)),
		MaxImageDimension: getEnvInt("MAX_IMAGE_DIMENSION", 2048),

		AdminUsername: getEnv("ADMIN_USERNAME", ""),
		AdminPassword: getEnv("ADMIN_PASSWORD", ""),

		MetricsUsername: getEnv("METRICS_USERNAME", ""),
		MetricsPassword: getEnv("METRICS_PASSWORD", ""),

		MutationRateLimit:  getEnvInt("MUTATION_RATE_LIMIT", 60),
		MutationRateWindow: getEnvDuration("MUTATION_RATE_WINDOW", time.Minute),
	}

	// Required
	cfg.APIBaseURL = os.Getenv("API_BASE_URL")
	if cfg.APIBaseURL == "" {
		return nil, fmt.Errorf("API_BASE_URL is required")
	}
	if u, err := url.Parse(cfg.APIBaseURL); err != nil || u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("API_BASE_URL must be an absolute URL, got: %s", cfg.APIBaseURL)
	}

	if cfg.PageSize < 1 {
		return nil, fmt.Errorf("PAGE_SIZE must be at least 1, got: %d", cfg.PageSize)
	}
	if cfg.MutationRateLimit < 1 {
		return nil, fmt.Errorf("MUTATION_RATE_LIMIT must be at least 1, got: %d", cfg.MutationRateLimit)
	}
	if cfg.MaxUploadBytes < 1 {
		return nil, fmt.Errorf("MAX_UPLOAD_BYTES must be positive, got: %d", cfg.MaxUploadBytes)
	}

	// A half-configured credential is almost certainly a typo.
	if (cfg.AdminUsername == "") != (cfg.AdminPassword == "") {
		return nil, fmt.Errorf("ADMIN_USERNAME and ADMIN_PASSWORD must be set together")
	}
	if !cfg.IsDevelopment() && cfg.AdminUsername == "" {
		return nil, fmt.Errorf("ADMIN_USERNAME and ADMIN_PASSWORD are required when ENV is %q", cfg.Env)
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return fallback
}

func getEnvFloat(key string, fallback float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return fallback
}
