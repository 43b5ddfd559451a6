package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/plateful/gate/internal/domain"
)

// Load reads the .env file specified by GATE_ENV (or .env by default),
// then loads the corresponding .secret file if it exists.
// All config is flat env vars read via os.Getenv after loading.
func Load() error {
	envFile := os.Getenv("GATE_ENV")
	if envFile == "" {
		envFile = ".env"
	}

	// Load main env file (ignore error if file doesn't exist)
	_ = godotenv.Load(envFile)

	// Load secret sidecar if it exists
	_ = godotenv.Load(envFile + ".secret")

	return nil
}

func ServerPort() int {
	port, err := strconv.Atoi(os.Getenv("SERVER_PORT"))
	if err != nil {
		return 8080
	}
	return port
}

func ServerAddr() string {
	return fmt.Sprintf(":%d", ServerPort())
}

func DatabaseURL() string {
	return os.Getenv("DATABASE_URL")
}

// Environment returns the deployment environment used as the default for
// flag evaluation when the caller does not pass one explicitly.
// Valid values: development, staging, production.
func Environment() domain.Environment {
	e := domain.Environment(os.Getenv("GATE_ENVIRONMENT"))
	if !e.Valid() || e == domain.EnvAll {
		return domain.EnvDevelopment
	}
	return e
}

// RateLimitRPS returns requests per second limit.
// Defaults to 100 if not set.
func RateLimitRPS() float64 {
	rps, err := strconv.ParseFloat(os.Getenv("RATE_LIMIT_RPS"), 64)
	if err != nil || rps <= 0 {
		return 100
	}
	return rps
}

// RateLimitBurst returns the burst size for rate limiting.
// Defaults to 20 if not set.
func RateLimitBurst() int {
	burst, err := strconv.Atoi(os.Getenv("RATE_LIMIT_BURST"))
	if err != nil || burst <= 0 {
		return 20
	}
	return burst
}

// FlagCacheTTL returns the flag cache TTL. Short by design: the cache only
// exists to keep the evaluation hot path off the database.
// Defaults to 5s.
func FlagCacheTTL() time.Duration {
	d, err := time.ParseDuration(os.Getenv("FLAG_CACHE_TTL"))
	if err != nil || d <= 0 {
		return 5 * time.Second
	}
	return d
}

// FlagCacheSize returns the max entries held by the flag cache.
// Defaults to 512.
func FlagCacheSize() int {
	n, err := strconv.Atoi(os.Getenv("FLAG_CACHE_SIZE"))
	if err != nil || n <= 0 {
		return 512
	}
	return n
}

// SweeperInterval returns how often the flag expiry sweeper runs.
// Defaults to 10m.
func SweeperInterval() time.Duration {
	d, err := time.ParseDuration(os.Getenv("SWEEPER_INTERVAL"))
	if err != nil || d <= 0 {
		return 10 * time.Minute
	}
	return d
}

// LogLevel returns the log level (debug, info, warn, error).
// Defaults to "info" if not set.
func LogLevel() string {
	level := os.Getenv("LOG_LEVEL")
	if level == "" {
		return "info"
	}
	return level
}
