// Package config handles loading and validation of application configuration
// from environment variables. Supports .env files via godotenv.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const defaultJWTSecret = "dev-secret-change-in-production"

// Config holds all application configuration
type Config struct {
	// Server settings
	Port        int
	Environment string // "development" | "staging" | "production"
	StaticDir   string // frontend build served at /, empty disables

	// Database
	DatabaseURL string

	// Security
	JWTSecret      string
	TokenTTL       time.Duration
	TokenIssuer    string
	AllowedOrigins []string
	PublicPrefixes []string // paths the access gate skips
	PolicyFile     string   // empty uses the built-in table
	BcryptCost     int
	// lets /auth/register create ADMIN and DEPARTMENT accounts
	AllowPrivilegedRegistration bool

	// Redis (department directory cache), empty disables
	RedisURL           string
	DepartmentCacheTTL time.Duration

	// Attachments
	UploadDir      string
	MaxUploadBytes int64
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if it exists (development)
	_ = godotenv.Load()

	cfg := &Config{
		Port:        getEnvInt("PORT", 8080),
		Environment: getEnv("ENVIRONMENT", "development"),
		StaticDir:   getEnv("STATIC_DIR", ""),

		DatabaseURL: getEnv("DATABASE_URL", ""),

		JWTSecret:      getEnv("JWT_SECRET", defaultJWTSecret),
		TokenTTL:       time.Duration(getEnvInt("TOKEN_TTL_MINUTES", 600)) * time.Minute,
		TokenIssuer:    getEnv("TOKEN_ISSUER", "civicpulse"),
		AllowedOrigins: splitList(getEnv("ALLOWED_ORIGINS", "http://localhost:5173,http://localhost:3000")),
		PublicPrefixes: splitList(getEnv("PUBLIC_PREFIXES", "/auth/,/uploads/")),
		PolicyFile:     getEnv("POLICY_FILE", ""),
		BcryptCost:     getEnvInt("BCRYPT_COST", 10),

		AllowPrivilegedRegistration: getEnvBool("ALLOW_PRIVILEGED_REGISTRATION", false),

		RedisURL:           getEnv("REDIS_URL", ""),
		DepartmentCacheTTL: time.Duration(getEnvInt("DEPARTMENT_CACHE_TTL_SECONDS", 300)) * time.Second,

		UploadDir:      getEnv("UPLOAD_DIR", "./uploads"),
		MaxUploadBytes: int64(getEnvInt("MAX_UPLOAD_MB", 20)) << 20,
	}

	if cfg.TokenTTL <= 0 {
		return nil, fmt.Errorf("TOKEN_TTL_MINUTES must be positive")
	}
	if cfg.MaxUploadBytes <= 0 {
		return nil, fmt.Errorf("MAX_UPLOAD_MB must be positive")
	}

	// Validate required fields in production
	if cfg.Environment == "production" {
		if cfg.DatabaseURL == "" {
			return nil, fmt.Errorf("DATABASE_URL is required in production")
		}
		if cfg.JWTSecret == defaultJWTSecret {
			return nil, fmt.Errorf("JWT_SECRET must be set in production")
		}
	}

	return cfg, nil
}

// IsDevelopment reports whether the server runs in development mode
func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if val := os.Getenv(key); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			return i
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if val := os.Getenv(key); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			return b
		}
	}
	return fallback
}

func splitList(s string) []string {
	var out []string
	for _, item := range strings.Split(s, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}
