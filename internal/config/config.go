// Package config loads the server configuration from a YAML file, with
// defaults that run everything in process (memory stores, no Redis).
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the full server configuration.
type Config struct {
	ListenAddr string `yaml:"listen_addr"`
	LogLevel   string `yaml:"log_level"`

	FlowStore    FlowStoreConfig    `yaml:"flow_store"`
	ContextStore ContextStoreConfig `yaml:"context_store"`

	// DefaultDepartment receives hand-offs whose transfer node names none.
	DefaultDepartment string `yaml:"default_department"`

	// AssignStrategy is "round_robin" or "least_busy".
	AssignStrategy string `yaml:"assign_strategy"`
}

// FlowStoreConfig selects where flow definitions live.
type FlowStoreConfig struct {
	// Driver is "sqlite" or "memory".
	Driver string `yaml:"driver"`
	// Path is the sqlite database file.
	Path string `yaml:"path"`
}

// ContextStoreConfig selects where conversation contexts live.
type ContextStoreConfig struct {
	// Driver is "redis" or "memory".
	Driver string `yaml:"driver"`

	Redis RedisConfig `yaml:"redis"`

	// MaskPII masks captured variables with PII-looking names before they
	// are persisted.
	MaskPII bool `yaml:"mask_pii"`

	// EncryptionKey, when set, encrypts contexts at rest (AES-256-GCM).
	// Base64 of 32 bytes.
	EncryptionKey string `yaml:"encryption_key"`
}

// RedisConfig holds the Redis connection settings.
type RedisConfig struct {
	Addr     string        `yaml:"addr"`
	Password string        `yaml:"password"`
	DB       int           `yaml:"db"`
	Prefix   string        `yaml:"prefix"`
	TTL      time.Duration `yaml:"ttl"`

	// Lock enables cross-replica conversation locking.
	Lock bool `yaml:"lock"`
}

// Default returns the configuration used when no file is given.
func Default() Config {
	return Config{
		ListenAddr: ":8080",
		LogLevel:   "info",
		FlowStore: FlowStoreConfig{
			Driver: "sqlite",
			Path:   "atendo.db",
		},
		ContextStore: ContextStoreConfig{
			Driver: "memory",
			Redis: RedisConfig{
				Addr:   "localhost:6379",
				Prefix: "atendo:conversation:",
			},
		},
		DefaultDepartment: "Geral",
		AssignStrategy:    "round_robin",
	}
}

// Load reads path and merges it over the defaults. An empty path returns the
// defaults unchanged.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("failed to read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("failed to parse config file: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func (c Config) validate() error {
	switch c.FlowStore.Driver {
	case "sqlite", "memory":
	default:
		return fmt.Errorf("unknown flow_store driver %q", c.FlowStore.Driver)
	}
	switch c.ContextStore.Driver {
	case "redis", "memory":
	default:
		return fmt.Errorf("unknown context_store driver %q", c.ContextStore.Driver)
	}
	switch c.AssignStrategy {
	case "round_robin", "least_busy":
	default:
		return fmt.Errorf("unknown assign_strategy %q", c.AssignStrategy)
	}
	return nil
}
