package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecode_Defaults(t *testing.T) {
	cfg, err := Decode(New(), "")
	require.NoError(t, err)

	assert.Equal(t, DriverMemory, cfg.Store.Driver)
	assert.Equal(t, ":8080", cfg.HTTP.Addr)
	assert.Equal(t, []string{"*"}, cfg.HTTP.CORSOrigins)
	assert.Equal(t, 4096, cfg.Input.MaxSize)
	assert.Equal(t, 30*time.Second, cfg.Lock.TTL)
	assert.Equal(t, "Invalid option. Please choose one of the options below.", cfg.Engine.InvalidNotice)
	assert.Zero(t, cfg.Engine.Pacing)
	assert.Equal(t, "info", cfg.Log.Level)
}

func TestDecode_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "chatflow.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
graph:
  path: flows/support.yaml
  watch: true
engine:
  pacing: 1500ms
store:
  driver: SQLite
  sqlite_path: /var/lib/chatflow/sessions.db
http:
  cors_origins: [https://example.com]
`), 0o600))

	cfg, err := Decode(New(), path)
	require.NoError(t, err)

	assert.Equal(t, "flows/support.yaml", cfg.Graph.Path)
	assert.True(t, cfg.Graph.Watch)
	assert.Equal(t, 1500*time.Millisecond, cfg.Engine.Pacing)
	assert.Equal(t, DriverSQLite, cfg.Store.Driver)
	assert.Equal(t, "/var/lib/chatflow/sessions.db", cfg.Store.SQLitePath)
	assert.Equal(t, []string{"https://example.com"}, cfg.HTTP.CORSOrigins)
}

func TestDecode_EnvOverridesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "chatflow.yaml")
	require.NoError(t, os.WriteFile(path, []byte("store:\n  driver: file\n"), 0o600))

	t.Setenv("CHATFLOW_STORE_DRIVER", "redis")
	t.Setenv("CHATFLOW_LOCK_DISTRIBUTED", "true")
	t.Setenv("CHATFLOW_ENGINE_PACING", "2s")
	t.Setenv("CHATFLOW_HTTP_CORS_ORIGINS", "https://a.test,https://b.test")

	cfg, err := Decode(New(), path)
	require.NoError(t, err)

	assert.Equal(t, DriverRedis, cfg.Store.Driver)
	assert.True(t, cfg.Lock.Distributed)
	assert.Equal(t, 2*time.Second, cfg.Engine.Pacing)
	assert.Equal(t, []string{"https://a.test", "https://b.test"}, cfg.HTTP.CORSOrigins)
}

func TestDecode_MissingExplicitFile(t *testing.T) {
	_, err := Decode(New(), filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		ok     bool
	}{
		{"defaults", func(*Config) {}, true},
		{"unknown driver", func(c *Config) { c.Store.Driver = "mongo" }, false},
		{"distributed lock without redis", func(c *Config) { c.Lock.Distributed = true }, false},
		{"distributed lock with redis", func(c *Config) {
			c.Lock.Distributed = true
			c.Store.Driver = DriverRedis
		}, true},
		{"negative pacing", func(c *Config) { c.Engine.Pacing = -time.Second }, false},
		{"zero input size", func(c *Config) { c.Input.MaxSize = 0 }, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &Config{Store: StoreConfig{Driver: DriverMemory}, Input: InputConfig{MaxSize: 10}}
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.ok {
				assert.NoError(t, err)
			} else {
				assert.Error(t, err)
			}
		})
	}
}

func TestLoadDotEnv(t *testing.T) {
	dir := t.TempDir()
	envFile := filepath.Join(dir, "test.env")
	require.NoError(t, os.WriteFile(envFile, []byte("CHATFLOW_LOG_LEVEL=debug\n"), 0o600))

	t.Setenv("CHATFLOW_LOG_LEVEL", "")
	require.NoError(t, os.Unsetenv("CHATFLOW_LOG_LEVEL"))

	require.NoError(t, LoadDotEnv(envFile, filepath.Join(dir, "missing.env")))

	cfg, err := Decode(New(), "")
	require.NoError(t, err)
	assert.Equal(t, "debug", cfg.Log.Level)
}

func TestLoadDotEnv_NothingPresent(t *testing.T) {
	assert.NoError(t, LoadDotEnv(filepath.Join(t.TempDir(), "absent.env")))
}
