package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	chdir(t, t.TempDir())

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, DriverPostgres, cfg.Store.Driver)
	assert.Equal(t, SelectionRandom, cfg.Workflow.Selection)
	assert.Equal(t, "0.0.0.0:8080", cfg.App.Addr())
	assert.Equal(t, 30*time.Second, cfg.App.RequestTimeout())
	assert.Equal(t, time.Duration(0), cfg.Workflow.SessionTTL())
	assert.False(t, cfg.Kafka.Enabled())
	assert.Empty(t, cfg.Redis.Addr)
	assert.Empty(t, cfg.Channel.InboundSecret)
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	dir := t.TempDir()
	chdir(t, dir)

	path := filepath.Join(dir, "config.yaml")
	content := `
store:
  driver: sqlite
sqlite:
  path: /tmp/from-file.db
kafka:
  brokers: ["k1:9092"]
workflow:
  selection: first
  session_ttl_minutes: 15
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	t.Setenv("CONFIG_FILE", path)
	t.Setenv("SQLITE_PATH", "/tmp/from-env.db")
	t.Setenv("KAFKA_BROKERS", "a:9092, b:9092")
	t.Setenv("CHANNEL_INBOUND_SECRET", "hook-secret")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, DriverSQLite, cfg.Store.Driver)
	assert.Equal(t, "/tmp/from-env.db", cfg.SQLite.Path)
	assert.Equal(t, []string{"a:9092", "b:9092"}, cfg.Kafka.Brokers)
	assert.True(t, cfg.Kafka.Enabled())
	assert.Equal(t, SelectionFirst, cfg.Workflow.Selection)
	assert.Equal(t, 15*time.Minute, cfg.Workflow.SessionTTL())
	assert.Equal(t, "hook-secret", cfg.Channel.InboundSecret)
}

func TestLoad_RejectsUnknownDriver(t *testing.T) {
	chdir(t, t.TempDir())
	t.Setenv("STORE_DRIVER", "mysql")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "STORE_DRIVER")
}

func TestLoad_InvalidRedisDB(t *testing.T) {
	chdir(t, t.TempDir())
	t.Setenv("REDIS_DB", "zero")

	_, err := Load()
	require.Error(t, err)
}
