package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultValidates(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())
	assert.False(t, cfg.IsProduction())
	assert.Equal(t, 7*24*time.Hour, cfg.GetSessionTTLDuration())
	assert.Equal(t, 24*time.Hour, cfg.GetSessionTouchAfterDuration())
	assert.Equal(t, 10*time.Second, cfg.GetShutdownTimeoutDuration())
}

func TestLoadEnvOverridesFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
service:
  port: "9000"
database:
  driver: postgres
  url: postgres://file
session:
  store: redis
`), 0o600))

	t.Setenv("CONFIG_FILE", path)
	t.Setenv("DATABASE_URL", "postgres://env")
	t.Setenv("MONGO_TRANSACTIONS", "true")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "9000", cfg.Service.Port)
	assert.Equal(t, "postgres", cfg.Database.Driver)
	assert.Equal(t, "postgres://env", cfg.Database.URL)
	assert.Equal(t, "redis", cfg.Session.Store)
	assert.True(t, cfg.Database.MongoTransactions)
	require.NoError(t, cfg.Validate())
}

func TestLoadMissingFile(t *testing.T) {
	t.Setenv("CONFIG_FILE", filepath.Join(t.TempDir(), "nope.yaml"))
	_, err := Load()
	require.Error(t, err)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"bad env", func(c *Config) { c.Service.Env = "staging" }},
		{"bad driver", func(c *Config) { c.Database.Driver = "sqlite" }},
		{"missing url", func(c *Config) { c.Database.URL = "" }},
		{"bad session store", func(c *Config) { c.Session.Store = "file" }},
		{"secret in production", func(c *Config) { c.Service.Env = EnvProduction }},
		{"bad ttl", func(c *Config) { c.Session.TTL = "a week" }},
		{"zero ttl", func(c *Config) { c.Session.TTL = "0s" }},
		{"minio without endpoint", func(c *Config) { c.Storage.Driver = "minio" }},
		{"sample rate", func(c *Config) { c.Tracing.SampleRate = 2 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestMemoryDriverNeedsNoURL(t *testing.T) {
	cfg := Default()
	cfg.Database.Driver = "memory"
	cfg.Database.URL = ""
	assert.NoError(t, cfg.Validate())
}
