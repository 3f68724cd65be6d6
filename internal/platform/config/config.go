package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	defaultEnvFile          = ".env"
	defaultPort             = "8080"
	defaultReadTimeout      = 15 * time.Second
	defaultWriteTimeout     = 30 * time.Second
	defaultIdleTimeout      = 120 * time.Second
	defaultDBMaxOpenConns   = 25
	defaultDBMaxIdleConns   = 5
	defaultDBConnLifetime   = 30 * time.Minute
	defaultGatewayProvider  = "local"
	defaultGatewayTimeout   = 10 * time.Second
	defaultBreakerFailures  = 5
	defaultBreakerTimeout   = 30 * time.Second
	defaultRateLimitPerMin  = 120
	defaultRateLimitWindow  = time.Minute
	defaultLogLevel         = "info"
	defaultShutdownTimeout  = 20 * time.Second
	defaultMigrateOnStartup = true
)

// Config captures all runtime configuration organised by concern.
type Config struct {
	Server     ServerConfig
	Database   DatabaseConfig
	Gateway    GatewayConfig
	RateLimits RateLimitConfig
	Log        LogConfig
}

// ServerConfig configures HTTP server parameters.
type ServerConfig struct {
	Port            string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration
}

// DatabaseConfig stores Postgres connection parameters.
type DatabaseConfig struct {
	DSN              string
	MaxOpenConns     int
	MaxIdleConns     int
	ConnMaxLifetime  time.Duration
	MigrateOnStartup bool
}

// GatewayConfig configures the payment gateway adapter and its circuit breaker.
type GatewayConfig struct {
	Provider           string
	Timeout            time.Duration
	BreakerMaxFailures uint32
	BreakerTimeout     time.Duration
}

// RateLimitConfig controls request throttling.
type RateLimitConfig struct {
	PerMinute int
	Window    time.Duration
}

// LogConfig controls structured log output.
type LogConfig struct {
	Level string
}

// ValidationError is returned when required configuration fields are missing or invalid.
type ValidationError struct {
	fields []string
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	return fmt.Sprintf("config validation failed: missing or invalid fields [%s]", strings.Join(e.fields, ", "))
}

// Fields returns a copy of the missing/invalid field list.
func (e *ValidationError) Fields() []string {
	out := make([]string, len(e.fields))
	copy(out, e.fields)
	return out
}

// Option customises Load behaviour.
type Option func(*loaderOptions)

type loaderOptions struct {
	envFile      string
	envMap       map[string]string
	useSystemEnv bool
}

// WithEnvFile overrides the .env file path used for local overrides.
func WithEnvFile(path string) Option {
	return func(o *loaderOptions) {
		o.envFile = path
	}
}

// WithEnvMap injects an explicit key/value map for environment lookups. Values
// in the map take precedence over system environment variables.
func WithEnvMap(values map[string]string) Option {
	return func(o *loaderOptions) {
		o.envMap = values
	}
}

// WithoutSystemEnv disables reading from os.Getenv, relying only on provided
// maps and .env files.
func WithoutSystemEnv() Option {
	return func(o *loaderOptions) {
		o.useSystemEnv = false
	}
}

// Load assembles the application configuration by combining defaults, .env
// overrides, and environment variables. Precedence: explicit map > system env
// > .env file > defaults.
func Load(opts ...Option) (Config, error) {
	options := loaderOptions{
		envFile:      defaultEnvFile,
		useSystemEnv: true,
	}

	for _, opt := range opts {
		opt(&options)
	}

	dotEnvValues, err := loadDotEnv(options.envFile)
	if err != nil {
		return Config{}, err
	}

	lookup := func(key string) (string, bool) {
		if options.envMap != nil {
			if value, ok := options.envMap[key]; ok {
				return value, true
			}
		}
		if options.useSystemEnv {
			if value, ok := os.LookupEnv(key); ok {
				return value, true
			}
		}
		if dotEnvValues != nil {
			if value, ok := dotEnvValues[key]; ok {
				return value, true
			}
		}
		return "", false
	}

	cfg := Config{
		Server: ServerConfig{
			Port:            stringWithDefault(lookup, "API_SERVER_PORT", defaultPort),
			ReadTimeout:     durationWithDefault(lookup, "API_SERVER_READ_TIMEOUT", defaultReadTimeout),
			WriteTimeout:    durationWithDefault(lookup, "API_SERVER_WRITE_TIMEOUT", defaultWriteTimeout),
			IdleTimeout:     durationWithDefault(lookup, "API_SERVER_IDLE_TIMEOUT", defaultIdleTimeout),
			ShutdownTimeout: durationWithDefault(lookup, "API_SERVER_SHUTDOWN_TIMEOUT", defaultShutdownTimeout),
		},
		Database: DatabaseConfig{
			DSN:              stringWithDefault(lookup, "API_DATABASE_DSN", ""),
			MaxOpenConns:     intWithDefault(lookup, "API_DATABASE_MAX_OPEN_CONNS", defaultDBMaxOpenConns),
			MaxIdleConns:     intWithDefault(lookup, "API_DATABASE_MAX_IDLE_CONNS", defaultDBMaxIdleConns),
			ConnMaxLifetime:  durationWithDefault(lookup, "API_DATABASE_CONN_MAX_LIFETIME", defaultDBConnLifetime),
			MigrateOnStartup: boolWithDefault(lookup, "API_DATABASE_MIGRATE", defaultMigrateOnStartup),
		},
		Gateway: GatewayConfig{
			Provider:           strings.ToLower(stringWithDefault(lookup, "API_GATEWAY_PROVIDER", defaultGatewayProvider)),
			Timeout:            durationWithDefault(lookup, "API_GATEWAY_TIMEOUT", defaultGatewayTimeout),
			BreakerMaxFailures: uint32(intWithDefault(lookup, "API_GATEWAY_BREAKER_MAX_FAILURES", defaultBreakerFailures)),
			BreakerTimeout:     durationWithDefault(lookup, "API_GATEWAY_BREAKER_TIMEOUT", defaultBreakerTimeout),
		},
		RateLimits: RateLimitConfig{
			PerMinute: intWithDefault(lookup, "API_RATELIMIT_PER_MIN", defaultRateLimitPerMin),
			Window:    durationWithDefault(lookup, "API_RATELIMIT_WINDOW", defaultRateLimitWindow),
		},
		Log: LogConfig{
			Level: strings.ToLower(stringWithDefault(lookup, "LOG_LEVEL", defaultLogLevel)),
		},
	}

	if err := validateConfig(cfg); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func validateConfig(cfg Config) error {
	var missing []string

	if cfg.Server.Port == "" {
		missing = append(missing, "Server.Port")
	}
	if cfg.Database.DSN == "" {
		missing = append(missing, "Database.DSN")
	}
	if cfg.Database.MaxOpenConns <= 0 {
		missing = append(missing, "Database.MaxOpenConns")
	}
	if cfg.Gateway.Timeout <= 0 {
		missing = append(missing, "Gateway.Timeout")
	}

	if len(missing) > 0 {
		return &ValidationError{fields: missing}
	}
	return nil
}

func loadDotEnv(path string) (map[string]string, error) {
	if path == "" {
		return nil, nil
	}

	values, err := godotenv.Read(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("config: unable to read %s: %w", path, err)
	}
	return values, nil
}

func stringWithDefault(lookup func(string) (string, bool), key, fallback string) string {
	if value, ok := lookup(key); ok && value != "" {
		return value
	}
	return fallback
}

func durationWithDefault(lookup func(string) (string, bool), key string, fallback time.Duration) time.Duration {
	if value, ok := lookup(key); ok && value != "" {
		d, err := time.ParseDuration(value)
		if err == nil {
			return d
		}
	}
	return fallback
}

func intWithDefault(lookup func(string) (string, bool), key string, fallback int) int {
	if value, ok := lookup(key); ok && value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return fallback
}

func boolWithDefault(lookup func(string) (string, bool), key string, fallback bool) bool {
	if value, ok := lookup(key); ok && value != "" {
		switch strings.ToLower(value) {
		case "true", "1", "yes", "on":
			return true
		case "false", "0", "no", "off":
			return false
		}
	}
	return fallback
}
