// Package config loads service configuration from the environment.
//
// Values are resolved in three layers: built-in defaults, an optional YAML
// file named by CONFIG_FILE, then environment variables (a local .env file is
// loaded into the environment first when present).
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Environments.
const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
)

// Config is the full service configuration.
type Config struct {
	Service   ServiceConfig   `yaml:"service"`
	Logging   LoggingConfig   `yaml:"logging"`
	Database  DatabaseConfig  `yaml:"database"`
	Session   SessionConfig   `yaml:"session"`
	Storage   StorageConfig   `yaml:"storage"`
	Tracing   TracingConfig   `yaml:"tracing"`
	Profiling ProfilingConfig `yaml:"profiling"`
	Server    ServerConfig    `yaml:"server"`
}

// ServiceConfig identifies the running service.
type ServiceConfig struct {
	Name    string `yaml:"name"`
	Version string `yaml:"version"`
	Env     string `yaml:"env"`
	Port    string `yaml:"port"`
}

// LoggingConfig controls zerolog.
type LoggingConfig struct {
	Level string `yaml:"level"`
}

// DatabaseConfig selects the primary store.
type DatabaseConfig struct {
	Driver            string `yaml:"driver"`
	URL               string `yaml:"url"`
	MongoDatabase     string `yaml:"mongoDatabase"`
	MongoTransactions bool   `yaml:"mongoTransactions"`
}

// SessionConfig controls cookie sessions.
type SessionConfig struct {
	Secret        string `yaml:"secret"`
	Store         string `yaml:"store"`
	CookieName    string `yaml:"cookieName"`
	TTL           string `yaml:"ttl"`
	TouchAfter    string `yaml:"touchAfter"`
	RedisAddr     string `yaml:"redisAddr"`
	RedisPassword string `yaml:"redisPassword"`
}

// StorageConfig selects the image store.
type StorageConfig struct {
	Driver         string `yaml:"driver"`
	Endpoint       string `yaml:"endpoint"`
	AccessKey      string `yaml:"accessKey"`
	SecretKey      string `yaml:"secretKey"`
	Bucket         string `yaml:"bucket"`
	UseSSL         bool   `yaml:"useSSL"`
	PublicBaseURL  string `yaml:"publicBaseURL"`
	MaxUploadBytes int64  `yaml:"maxUploadBytes"`
}

// TracingConfig controls the OTLP exporter.
type TracingConfig struct {
	Enabled    bool    `yaml:"enabled"`
	Endpoint   string  `yaml:"endpoint"`
	SampleRate float64 `yaml:"sampleRate"`
}

// ProfilingConfig controls Pyroscope continuous profiling.
type ProfilingConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Endpoint string `yaml:"endpoint"`
}

// ServerConfig holds HTTP server timings as duration strings.
type ServerConfig struct {
	ShutdownTimeout     string `yaml:"shutdownTimeout"`
	ReadinessDrainDelay string `yaml:"readinessDrainDelay"`
	WriteTimeout        string `yaml:"writeTimeout"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Service: ServiceConfig{
			Name:    "wanderlust",
			Version: "dev",
			Env:     EnvDevelopment,
			Port:    "8080",
		},
		Logging: LoggingConfig{Level: "info"},
		Database: DatabaseConfig{
			Driver:        "mongo",
			URL:           "mongodb://127.0.0.1:27017",
			MongoDatabase: "wanderlust",
		},
		Session: SessionConfig{
			Store:      "database",
			CookieName: "session",
			TTL:        "168h",
			TouchAfter: "24h",
			RedisAddr:  "127.0.0.1:6379",
		},
		Storage: StorageConfig{
			Driver:         "memory",
			Bucket:         "wanderlust",
			MaxUploadBytes: 10 << 20,
		},
		Tracing: TracingConfig{
			Endpoint:   "localhost:4318",
			SampleRate: 1.0,
		},
		Profiling: ProfilingConfig{Endpoint: "http://localhost:4040"},
		Server: ServerConfig{
			ShutdownTimeout:     "10s",
			ReadinessDrainDelay: "0s",
			WriteTimeout:        "10s",
		},
	}
}

// Load resolves configuration from defaults, CONFIG_FILE and the environment.
func Load() (*Config, error) {
	// A missing .env file is normal outside local development.
	_ = godotenv.Load()

	cfg := Default()
	if path := os.Getenv("CONFIG_FILE"); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}
	cfg.applyEnv()
	return cfg, nil
}

func (c *Config) applyEnv() {
	setString(&c.Service.Name, "SERVICE_NAME")
	setString(&c.Service.Version, "SERVICE_VERSION")
	setString(&c.Service.Env, "ENV")
	setString(&c.Service.Port, "PORT")
	setString(&c.Logging.Level, "LOG_LEVEL")

	setString(&c.Database.Driver, "DB_DRIVER")
	setString(&c.Database.URL, "DATABASE_URL")
	setString(&c.Database.MongoDatabase, "MONGO_DATABASE")
	setBool(&c.Database.MongoTransactions, "MONGO_TRANSACTIONS")

	setString(&c.Session.Secret, "SESSION_SECRET")
	setString(&c.Session.Store, "SESSION_STORE")
	setString(&c.Session.CookieName, "SESSION_COOKIE_NAME")
	setString(&c.Session.TTL, "SESSION_TTL")
	setString(&c.Session.TouchAfter, "SESSION_TOUCH_AFTER")
	setString(&c.Session.RedisAddr, "REDIS_ADDR")
	setString(&c.Session.RedisPassword, "REDIS_PASSWORD")

	setString(&c.Storage.Driver, "STORAGE_DRIVER")
	setString(&c.Storage.Endpoint, "MINIO_ENDPOINT")
	setString(&c.Storage.AccessKey, "MINIO_ACCESS_KEY")
	setString(&c.Storage.SecretKey, "MINIO_SECRET_KEY")
	setString(&c.Storage.Bucket, "MINIO_BUCKET")
	setBool(&c.Storage.UseSSL, "MINIO_USE_SSL")
	setString(&c.Storage.PublicBaseURL, "IMAGE_PUBLIC_BASE_URL")
	setInt64(&c.Storage.MaxUploadBytes, "MAX_UPLOAD_BYTES")

	setBool(&c.Tracing.Enabled, "TRACING_ENABLED")
	setString(&c.Tracing.Endpoint, "OTEL_EXPORTER_OTLP_ENDPOINT")
	setFloat(&c.Tracing.SampleRate, "OTEL_SAMPLE_RATE")

	setBool(&c.Profiling.Enabled, "PROFILING_ENABLED")
	setString(&c.Profiling.Endpoint, "PYROSCOPE_SERVER_ADDRESS")

	setString(&c.Server.ShutdownTimeout, "SHUTDOWN_TIMEOUT")
	setString(&c.Server.ReadinessDrainDelay, "READINESS_DRAIN_DELAY")
	setString(&c.Server.WriteTimeout, "WRITE_TIMEOUT")
}

// Validate checks that the configuration is usable.
func (c *Config) Validate() error {
	var errs []error
	if c.Service.Port == "" {
		errs = append(errs, errors.New("PORT is required"))
	}
	if c.Service.Env != EnvDevelopment && c.Service.Env != EnvProduction {
		errs = append(errs, fmt.Errorf("ENV must be %q or %q, got %q", EnvDevelopment, EnvProduction, c.Service.Env))
	}
	switch c.Database.Driver {
	case "mongo", "postgres":
		if c.Database.URL == "" {
			errs = append(errs, errors.New("DATABASE_URL is required"))
		}
	case "memory":
	default:
		errs = append(errs, fmt.Errorf("DB_DRIVER must be mongo, postgres or memory, got %q", c.Database.Driver))
	}
	if c.Database.Driver == "mongo" && c.Database.MongoDatabase == "" {
		errs = append(errs, errors.New("MONGO_DATABASE is required"))
	}
	switch c.Session.Store {
	case "database", "memory":
	case "redis":
		if c.Session.RedisAddr == "" {
			errs = append(errs, errors.New("REDIS_ADDR is required for SESSION_STORE=redis"))
		}
	default:
		errs = append(errs, fmt.Errorf("SESSION_STORE must be database, redis or memory, got %q", c.Session.Store))
	}
	if c.Session.Secret == "" && c.IsProduction() {
		errs = append(errs, errors.New("SESSION_SECRET is required in production"))
	}
	if c.Session.CookieName == "" {
		errs = append(errs, errors.New("SESSION_COOKIE_NAME must not be empty"))
	}
	switch c.Storage.Driver {
	case "memory":
	case "minio":
		if c.Storage.Endpoint == "" || c.Storage.Bucket == "" {
			errs = append(errs, errors.New("MINIO_ENDPOINT and MINIO_BUCKET are required for STORAGE_DRIVER=minio"))
		}
	default:
		errs = append(errs, fmt.Errorf("STORAGE_DRIVER must be minio or memory, got %q", c.Storage.Driver))
	}
	if c.Storage.MaxUploadBytes <= 0 {
		errs = append(errs, errors.New("MAX_UPLOAD_BYTES must be positive"))
	}
	if c.Tracing.SampleRate < 0 || c.Tracing.SampleRate > 1 {
		errs = append(errs, errors.New("OTEL_SAMPLE_RATE must be within [0, 1]"))
	}
	for name, value := range map[string]string{
		"SESSION_TTL":           c.Session.TTL,
		"SESSION_TOUCH_AFTER":   c.Session.TouchAfter,
		"SHUTDOWN_TIMEOUT":      c.Server.ShutdownTimeout,
		"READINESS_DRAIN_DELAY": c.Server.ReadinessDrainDelay,
		"WRITE_TIMEOUT":         c.Server.WriteTimeout,
	} {
		if _, err := time.ParseDuration(value); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", name, err))
		}
	}
	if ttl, err := time.ParseDuration(c.Session.TTL); err == nil && ttl <= 0 {
		errs = append(errs, errors.New("SESSION_TTL must be positive"))
	}
	return errors.Join(errs...)
}

// IsProduction reports whether the service runs in production mode, which
// enables secure cookies and hides stack traces.
func (c *Config) IsProduction() bool {
	return c.Service.Env == EnvProduction
}

// GetShutdownTimeoutDuration returns the graceful shutdown budget.
func (c *Config) GetShutdownTimeoutDuration() time.Duration {
	return parseDuration(c.Server.ShutdownTimeout, 10*time.Second)
}

// GetReadinessDrainDelayDuration returns how long readiness reports 503 before shutdown.
func (c *Config) GetReadinessDrainDelayDuration() time.Duration {
	return parseDuration(c.Server.ReadinessDrainDelay, 0)
}

// GetWriteTimeoutDuration bounds detached store writes.
func (c *Config) GetWriteTimeoutDuration() time.Duration {
	return parseDuration(c.Server.WriteTimeout, 10*time.Second)
}

// GetSessionTTLDuration returns the rolling session lifetime.
func (c *Config) GetSessionTTLDuration() time.Duration {
	return parseDuration(c.Session.TTL, 7*24*time.Hour)
}

// GetSessionTouchAfterDuration returns how stale an unmodified session may get before it is re-saved.
func (c *Config) GetSessionTouchAfterDuration() time.Duration {
	return parseDuration(c.Session.TouchAfter, 24*time.Hour)
}

func parseDuration(s string, def time.Duration) time.Duration {
	d, err := time.ParseDuration(s)
	if err != nil {
		return def
	}
	return d
}

func setString(dst *string, key string) {
	if v, ok := os.LookupEnv(key); ok {
		*dst = strings.TrimSpace(v)
	}
}

func setBool(dst *bool, key string) {
	if v, ok := os.LookupEnv(key); ok {
		if b, err := strconv.ParseBool(strings.TrimSpace(v)); err == nil {
			*dst = b
		}
	}
}

func setInt64(dst *int64, key string) {
	if v, ok := os.LookupEnv(key); ok {
		if n, err := strconv.ParseInt(strings.TrimSpace(v), 10, 64); err == nil {
			*dst = n
		}
	}
}

func setFloat(dst *float64, key string) {
	if v, ok := os.LookupEnv(key); ok {
		if f, err := strconv.ParseFloat(strings.TrimSpace(v), 64); err == nil {
			*dst = f
		}
	}
}
