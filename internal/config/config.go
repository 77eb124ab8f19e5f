package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

const PROD_STRING = "prod"

// Config holds all application configuration loaded from environment.
type Config struct {
	IsProduction      bool
	ProdOrigins       string
	HTTPAddr          string
	DBDSN             string
	JWTSecret         string
	JWTAccessTokenTTL time.Duration
	BcryptCost        int

	// CancelGrace is how long after a booking's start the renter may
	// still cancel it.
	CancelGrace time.Duration

	// RunMigrations applies pending schema migrations at startup.
	RunMigrations bool
	MigrationsDir string

	StoragePath string

	// RedisAddr enables the write-path rate limiter when non-empty.
	RedisAddr          string
	RateLimitPerMinute int
}

// Load loads configuration from .env (optional) and environment variables.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Printf("failed to load .env file: %v", err)
	}

	cfg := &Config{}

	cfg.ProdOrigins = getEnv("PROD_ORIGINS", "")

	appEnvStr := getEnv("APP_ENV", "dev")
	cfg.IsProduction = appEnvStr == PROD_STRING

	cfg.HTTPAddr = getEnv("HTTP_ADDR", ":8080")

	cfg.DBDSN = os.Getenv("DB_DSN")
	if cfg.DBDSN == "" {
		return nil, fmt.Errorf("DB_DSN is required")
	}

	cfg.JWTSecret = os.Getenv("JWT_SECRET")
	if cfg.JWTSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET is required")
	}

	ttl, err := getEnvAsDuration("JWT_ACCESS_TOKEN_TTL", "15m")
	if err != nil {
		return nil, fmt.Errorf("invalid JWT_ACCESS_TOKEN_TTL: %w", err)
	}
	cfg.JWTAccessTokenTTL = ttl

	cfg.BcryptCost, err = getEnvAsInt("BCRYPT_COST", 12)
	if err != nil {
		return nil, fmt.Errorf("invalid BCRYPT_COST: %w", err)
	}

	// The grace window is configuration, not a hard-coded business rule.
	cfg.CancelGrace, err = getEnvAsDuration("CANCEL_GRACE", "1h")
	if err != nil {
		return nil, fmt.Errorf("invalid CANCEL_GRACE: %w", err)
	}

	cfg.RunMigrations = getEnv("RUN_MIGRATIONS", "false") == "true"
	cfg.MigrationsDir = getEnv("MIGRATIONS_DIR", "migrations")

	cfg.StoragePath = getEnv("STORAGE_PATH", "data/storage")

	cfg.RedisAddr = getEnv("REDIS_ADDR", "")
	cfg.RateLimitPerMinute, err = getEnvAsInt("RATE_LIMIT_PER_MINUTE", 60)
	if err != nil {
		return nil, fmt.Errorf("invalid RATE_LIMIT_PER_MINUTE: %w", err)
	}

	return cfg, nil
}

// getEnv returns the value of the environment variable if set,
// otherwise returns the provided default value.
func getEnv(key, defaultValue string) string {
	if v, ok := os.LookupEnv(key); ok {
		return v
	}
	return defaultValue
}

// getEnvAsInt retrieves an environment variable as an integer, falling
// back to the default when unset and erroring when set but malformed.
func getEnvAsInt(key string, defaultValue int) (int, error) {
	valStr := getEnv(key, "")
	if valStr == "" {
		return defaultValue, nil
	}

	val, err := strconv.Atoi(valStr)
	if err != nil {
		return 0, fmt.Errorf("env %s value %q is not a valid integer: %w", key, valStr, err)
	}

	return val, nil
}

// getEnvAsDuration parses an environment variable as a time.Duration
// (e.g. "15m", "1h").
func getEnvAsDuration(key, defaultValue string) (time.Duration, error) {
	return time.ParseDuration(getEnv(key, defaultValue))
}
