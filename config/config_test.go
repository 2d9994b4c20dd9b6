package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var envKeys = []string{
	"PORT", "GIN_MODE", "STORAGE_BACKEND", "POSTGRES_URL", "JWT_SECRET",
	"JWT_TTL", "LOG_LEVEL", "LOG_FORMAT", "TIMEZONE",
}

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range envKeys {
		t.Setenv(k, "")
		os.Unsetenv(k)
	}
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load(filepath.Join(t.TempDir(), "missing.env"))
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, BackendPostgres, cfg.StorageBackend)
	assert.Equal(t, 24*time.Hour, cfg.JWTTTL)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "json", cfg.LogFormat)
	assert.Equal(t, time.UTC, cfg.Location())
	assert.False(t, cfg.AuthEnabled())
}

func TestLoadFromFile(t *testing.T) {
	clearEnv(t)
	t.Setenv("PORT", "9000")

	path := filepath.Join(t.TempDir(), ".env")
	content := "PORT=7000\nSTORAGE_BACKEND=memory\nJWT_SECRET=s3cret\nJWT_TTL=2h\nTIMEZONE=Europe/Rome\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "9000", cfg.Port, "environment wins over the file")
	assert.Equal(t, BackendMemory, cfg.StorageBackend)
	assert.Equal(t, 2*time.Hour, cfg.JWTTTL)
	assert.True(t, cfg.AuthEnabled())
	assert.Equal(t, "Europe/Rome", cfg.Location().String())
	assert.NoError(t, cfg.Validate())
}

func TestValidate(t *testing.T) {
	valid := Config{
		Port:           "8080",
		GinMode:        "release",
		StorageBackend: BackendPostgres,
		PostgresURL:    "postgres://localhost/fintrack",
		JWTTTL:         time.Hour,
		LogLevel:       "info",
		LogFormat:      "json",
		Timezone:       "UTC",
	}
	require.NoError(t, valid.Validate())

	tests := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{"bad port", func(c *Config) { c.Port = "http" }, "invalid port"},
		{"port range", func(c *Config) { c.Port = "70000" }, "must be between 1 and 65535"},
		{"backend", func(c *Config) { c.StorageBackend = "mongo" }, "invalid storage backend"},
		{"postgres url", func(c *Config) { c.PostgresURL = "" }, "POSTGRES_URL is required"},
		{"ttl", func(c *Config) { c.JWTSecret = "x"; c.JWTTTL = 0 }, "invalid JWT TTL"},
		{"log level", func(c *Config) { c.LogLevel = "loud" }, "invalid log level"},
		{"log format", func(c *Config) { c.LogFormat = "xml" }, "invalid log format"},
		{"timezone", func(c *Config) { c.Timezone = "Mars/Olympus" }, "invalid timezone"},
		{"gin mode", func(c *Config) { c.GinMode = "prod" }, "invalid gin mode"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid
			tt.mutate(&cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}

	memory := valid
	memory.StorageBackend = BackendMemory
	memory.PostgresURL = ""
	assert.NoError(t, memory.Validate())
}
