package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func lookupFrom(env map[string]string) func(string) (string, bool) {
	return func(key string) (string, bool) {
		v, ok := env[key]
		return v, ok
	}
}

func TestDefaultIsValid(t *testing.T) {
	cfg := Default()
	assert.NoError(t, validate.Struct(cfg))
	assert.Equal(t, RunModeCombined, cfg.RunMode)
	assert.Equal(t, "sqlite", cfg.Storage.Driver)
}

func TestApplyEnv(t *testing.T) {
	cfg := Default()
	err := applyEnv(&cfg, lookupFrom(map[string]string{
		"RUN_MODE":       RunModeWorker,
		"TASK_QUEUE":     "loans",
		"STORAGE_DRIVER": "memory",
		"CACHE_SIZE":     "64",
		"CACHE_TTL":      "30s",
	}))
	require.NoError(t, err)
	assert.Equal(t, RunModeWorker, cfg.RunMode)
	assert.Equal(t, "loans", cfg.Temporal.TaskQueue)
	assert.Equal(t, "memory", cfg.Storage.Driver)
	assert.Equal(t, int64(64), cfg.Cache.Size)
	assert.Equal(t, 30*time.Second, cfg.Cache.TTL)
	assert.Equal(t, "localhost:7233", cfg.Temporal.HostPort)
}

func TestApplyEnvInvalidNumbers(t *testing.T) {
	cfg := Default()
	assert.Error(t, applyEnv(&cfg, lookupFrom(map[string]string{"CACHE_SIZE": "lots"})))

	cfg = Default()
	assert.Error(t, applyEnv(&cfg, lookupFrom(map[string]string{"CACHE_TTL": "soon"})))
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)
	assert.Equal(t, Default().Temporal, cfg.Temporal)
}

func TestLoadFileAndEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
logLevel: debug
temporal:
  hostPort: temporal:7233
  namespace: loans
  taskQueue: loans-queue
storage:
  driver: sqlite
  path: /tmp/loans.db
cache:
  size: 10
  ttl: 1m
`), 0o600))
	t.Setenv("TEMPORAL_NAMESPACE", "override")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, "temporal:7233", cfg.Temporal.HostPort)
	assert.Equal(t, "override", cfg.Temporal.Namespace)
	assert.Equal(t, "/tmp/loans.db", cfg.Storage.Path)
	assert.Equal(t, time.Minute, cfg.Cache.TTL)
}

func TestLoadRejectsInvalidSettings(t *testing.T) {
	t.Setenv("STORAGE_DRIVER", "postgres")
	_, err := Load("")
	assert.Error(t, err)
}

func TestLoadRejectsSqliteWithoutPath(t *testing.T) {
	t.Setenv("STORAGE_PATH", "")
	_, err := Load("")
	assert.Error(t, err)
}

func TestLoadRejectsUnknownRunMode(t *testing.T) {
	t.Setenv("RUN_MODE", "BOTH")
	_, err := Load("")
	assert.Error(t, err)
}
