package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
)

const (
	BackendPostgres = "postgres"
	BackendMemory   = "memory"
)

type Config struct {
	// HTTP server
	Port    string
	GinMode string

	// Storage
	StorageBackend string
	PostgresURL    string

	// Auth. An empty secret disables token checks.
	JWTSecret string
	JWTTTL    time.Duration

	// Logging
	LogLevel  string
	LogFormat string

	// Timezone used for day boundaries in date filters.
	Timezone string
}

// Load reads the environment, after loading files (default ".env") when
// they exist. Variables already set in the environment win.
func Load(files ...string) (*Config, error) {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("load %s: %w", f, err)
		}
	}

	cfg := &Config{
		Port:    getEnv("PORT", "8080"),
		GinMode: getEnv("GIN_MODE", "release"),

		StorageBackend: getEnv("STORAGE_BACKEND", BackendPostgres),
		PostgresURL:    getEnv("POSTGRES_URL", ""),

		JWTSecret: getEnv("JWT_SECRET", ""),
		JWTTTL:    getEnvDuration("JWT_TTL", 24*time.Hour),

		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogFormat: getEnv("LOG_FORMAT", "json"),

		Timezone: getEnv("TIMEZONE", "UTC"),
	}
	return cfg, nil
}

// Validate reports every problem at once.
func (c *Config) Validate() error {
	var problems []string

	if port, err := strconv.Atoi(c.Port); err != nil {
		problems = append(problems, fmt.Sprintf("invalid port '%s': must be a number", c.Port))
	} else if port < 1 || port > 65535 {
		problems = append(problems, fmt.Sprintf("invalid port %d: must be between 1 and 65535", port))
	}

	backends := []string{BackendPostgres, BackendMemory}
	if !slices.Contains(backends, c.StorageBackend) {
		problems = append(problems, fmt.Sprintf("invalid storage backend '%s': must be one of %v", c.StorageBackend, backends))
	}
	if c.StorageBackend == BackendPostgres && c.PostgresURL == "" {
		problems = append(problems, "POSTGRES_URL is required when using the postgres backend")
	}

	if c.JWTSecret != "" && c.JWTTTL <= 0 {
		problems = append(problems, fmt.Sprintf("invalid JWT TTL %v: must be positive", c.JWTTTL))
	}

	if _, err := zerolog.ParseLevel(c.LogLevel); err != nil {
		problems = append(problems, fmt.Sprintf("invalid log level '%s'", c.LogLevel))
	}
	if c.LogFormat != "json" && c.LogFormat != "console" {
		problems = append(problems, fmt.Sprintf("invalid log format '%s': must be json or console", c.LogFormat))
	}

	if _, err := time.LoadLocation(c.Timezone); err != nil {
		problems = append(problems, fmt.Sprintf("invalid timezone '%s': %v", c.Timezone, err))
	}

	switch c.GinMode {
	case "debug", "release", "test":
	default:
		problems = append(problems, fmt.Sprintf("invalid gin mode '%s'", c.GinMode))
	}

	if len(problems) > 0 {
		return fmt.Errorf("configuration validation failed:\n- %s", strings.Join(problems, "\n- "))
	}
	return nil
}

// AuthEnabled reports whether transaction routes require a bearer token.
func (c *Config) AuthEnabled() bool {
	return c.JWTSecret != ""
}

// Location returns the configured timezone, UTC if it cannot be loaded.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
