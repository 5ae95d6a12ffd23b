package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "atendo.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.ListenAddr)
	assert.Equal(t, "sqlite", cfg.FlowStore.Driver)
	assert.Equal(t, "memory", cfg.ContextStore.Driver)
	assert.Equal(t, "Geral", cfg.DefaultDepartment)
	assert.Equal(t, "round_robin", cfg.AssignStrategy)
}

func TestLoadMergesOverDefaults(t *testing.T) {
	path := writeConfig(t, `
listen_addr: ":9090"
log_level: debug
context_store:
  driver: redis
  redis:
    addr: redis.internal:6379
    ttl: 24h
    lock: true
assign_strategy: least_busy
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, ":9090", cfg.ListenAddr)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, "redis", cfg.ContextStore.Driver)
	assert.Equal(t, "redis.internal:6379", cfg.ContextStore.Redis.Addr)
	assert.Equal(t, 24*time.Hour, cfg.ContextStore.Redis.TTL)
	assert.True(t, cfg.ContextStore.Redis.Lock)
	assert.Equal(t, "least_busy", cfg.AssignStrategy)

	// Untouched sections keep their defaults.
	assert.Equal(t, "sqlite", cfg.FlowStore.Driver)
	assert.Equal(t, "atendo:conversation:", cfg.ContextStore.Redis.Prefix)
}

func TestLoadRejectsUnknownDriver(t *testing.T) {
	path := writeConfig(t, "flow_store:\n  driver: postgres\n")
	_, err := Load(path)
	assert.ErrorContains(t, err, "unknown flow_store driver")
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}
