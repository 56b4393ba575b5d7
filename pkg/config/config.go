// Package config loads the host configuration of the dispatch engine from a
// YAML file, then applies AWARE_* environment overrides.
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/aretw0/aware/pkg/domain"
	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "AWARE_"

// Store drivers.
const (
	DriverMemory = "memory"
	DriverFile   = "file"
	DriverSQLite = "sqlite"
	DriverRedis  = "redis"
)

// Config is the host configuration.
type Config struct {
	LogLevel string `yaml:"log_level" env:"LOG_LEVEL"`
	// World is the path of a YAML world fixture.
	World string `yaml:"world" env:"WORLD"`
	// Commands is the path of the allow-list used by the "cmd" action.
	Commands string `yaml:"commands" env:"COMMANDS"`

	Dispatch DispatchConfig `yaml:"dispatch" envPrefix:"DISPATCH_"`
	Store    StoreConfig    `yaml:"store" envPrefix:"STORE_"`
	HTTP     HTTPConfig     `yaml:"http" envPrefix:"HTTP_"`
	Tracing  TracingConfig  `yaml:"tracing" envPrefix:"OTEL_"`

	// Subscriptions are registered at startup, skipping duplicates.
	Subscriptions []domain.Subscription `yaml:"subscriptions"`
}

// DispatchConfig tunes the dispatcher.
type DispatchConfig struct {
	DefaultAction     string        `yaml:"default_action" env:"DEFAULT_ACTION"`
	MaxPropagation    int           `yaml:"max_propagation" env:"MAX_PROPAGATION"`
	InvocationTimeout time.Duration `yaml:"invocation_timeout" env:"INVOCATION_TIMEOUT"`
}

// StoreConfig selects where subscriptions and traces are persisted.
type StoreConfig struct {
	Driver string `yaml:"driver" env:"DRIVER"`
	// Path is the directory of the file driver or the database of the sqlite driver.
	Path          string        `yaml:"path" env:"PATH"`
	RedisAddr     string        `yaml:"redis_addr" env:"REDIS_ADDR"`
	RedisPassword string        `yaml:"redis_password" env:"REDIS_PASSWORD"`
	RedisDB       int           `yaml:"redis_db" env:"REDIS_DB"`
	Prefix        string        `yaml:"prefix" env:"PREFIX"`
	TraceTTL      time.Duration `yaml:"trace_ttl" env:"TRACE_TTL"`
	// Lock serializes registry mutations across replicas (redis only).
	Lock    bool          `yaml:"lock" env:"LOCK"`
	LockTTL time.Duration `yaml:"lock_ttl" env:"LOCK_TTL"`
	// EncryptionKey is a base64 AES-256 key sealing persisted subscription params.
	EncryptionKey string `yaml:"encryption_key" env:"ENCRYPTION_KEY"`
	// FallbackKeys decrypt records sealed with rotated keys.
	FallbackKeys []string `yaml:"fallback_keys" env:"FALLBACK_KEYS" envSeparator:","`
}

// HTTPConfig configures the admin API.
type HTTPConfig struct {
	Addr string `yaml:"addr" env:"ADDR"`
}

// TracingConfig configures OpenTelemetry export.
type TracingConfig struct {
	Enabled     bool   `yaml:"enabled" env:"ENABLED"`
	Endpoint    string `yaml:"endpoint" env:"ENDPOINT"`
	ServiceName string `yaml:"service_name" env:"SERVICE_NAME"`
}

// Default returns the configuration used when nothing is set.
func Default() *Config {
	return &Config{
		LogLevel: "info",
		Dispatch: DispatchConfig{
			DefaultAction:  domain.DefaultAction,
			MaxPropagation: domain.DefaultMaxPropagation,
		},
		Store: StoreConfig{
			Driver:  DriverMemory,
			Prefix:  "aware:",
			LockTTL: 30 * time.Second,
		},
		HTTP: HTTPConfig{
			Addr: ":8080",
		},
		Tracing: TracingConfig{
			ServiceName: "aware",
		},
	}
}

// Load reads the YAML file at path, when set, over the defaults, then applies
// environment overrides and validates the result.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", path, err)
		}
	}

	if err := ParseEnv(cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// ParseEnv applies AWARE_* environment variables onto target.
// Unset variables leave the current values untouched.
func ParseEnv(target any) error {
	if err := env.ParseWithOptions(target, env.Options{Prefix: EnvPrefix}); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}

// Validate checks the configuration for inconsistent values.
func (c *Config) Validate() error {
	var errs []error

	switch c.Store.Driver {
	case DriverMemory:
	case DriverFile, DriverSQLite:
		if c.Store.Path == "" {
			errs = append(errs, fmt.Errorf("store.path is required by the %s driver", c.Store.Driver))
		}
	case DriverRedis:
		if c.Store.RedisAddr == "" {
			errs = append(errs, errors.New("store.redis_addr is required by the redis driver"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown store driver %q", c.Store.Driver))
	}
	if c.Store.Lock && c.Store.Driver != DriverRedis {
		errs = append(errs, errors.New("store.lock requires the redis driver"))
	}
	if len(c.Store.FallbackKeys) > 0 && c.Store.EncryptionKey == "" {
		errs = append(errs, errors.New("store.fallback_keys require store.encryption_key"))
	}
	if c.Dispatch.MaxPropagation < 0 {
		errs = append(errs, fmt.Errorf("%w: max_propagation %d", domain.ErrInvalidPropagation, c.Dispatch.MaxPropagation))
	}
	if c.Dispatch.InvocationTimeout < 0 {
		errs = append(errs, errors.New("dispatch.invocation_timeout cannot be negative"))
	}
	return errors.Join(errs...)
}
