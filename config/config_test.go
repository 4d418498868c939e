package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("EDA_CONFIG", "")
	cfg, err := Load("")
	require.NoError(t, err)
	require.Equal(t, DefaultMaxConcurrentRequests, cfg.MaxConcurrentRequests)
	require.Equal(t, DefaultOperationTimeout, cfg.OperationTimeout)
	require.Equal(t, []string{"python3", "python"}, cfg.Interpreters)
	require.True(t, cfg.EnablePython)
	require.Equal(t, DefaultModel, cfg.Model)

	lvl, err := cfg.Level()
	require.NoError(t, err)
	require.Equal(t, zerolog.InfoLevel, lvl)
}

func TestLoadYAMLThenEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "eda.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
max_concurrent_requests: 3
operation_timeout: 5s
enable_python: false
interpreters: [python3.12]
allowed_dirs:
  - /data
log_level: debug
`), 0o600))

	t.Setenv("EDA_MAX_CONCURRENT_REQUESTS", "7")
	t.Setenv("EDA_FETCH_RATE", "0.5")
	t.Setenv("EDA_ALLOWED_DIRS", "/srv/a, /srv/b")
	t.Setenv("EDA_SHEET", " Q3 ")
	t.Setenv("EDA_DISABLED_TOOLS", "exploratory-data-analysis")

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, 7, cfg.MaxConcurrentRequests, "env overrides yaml")
	require.Equal(t, 5*time.Second, cfg.OperationTimeout)
	require.False(t, cfg.EnablePython)
	require.Equal(t, []string{"python3.12"}, cfg.Interpreters)
	require.Equal(t, []string{"/srv/a", "/srv/b"}, cfg.AllowedDirs)
	require.InDelta(t, 0.5, cfg.FetchRate, 1e-9)
	require.Equal(t, "debug", cfg.LogLevel)
	require.Equal(t, "Q3", cfg.Sheet)
	require.Equal(t, []string{"exploratory-data-analysis"}, cfg.DisabledTools)
}

func TestLoadConfigFromEnvPath(t *testing.T) {
	path := filepath.Join(t.TempDir(), "eda.yaml")
	require.NoError(t, os.WriteFile(path, []byte("max_subprocesses: 2\n"), 0o600))
	t.Setenv("EDA_CONFIG", path)

	cfg, err := Load("")
	require.NoError(t, err)
	require.Equal(t, 2, cfg.MaxSubprocesses)
}

func TestLoadRejectsInvalid(t *testing.T) {
	t.Setenv("EDA_CONFIG", "")

	t.Setenv("EDA_MAX_SUBPROCESSES", "0")
	_, err := Load("")
	require.ErrorIs(t, err, ErrInvalid)
	require.Contains(t, err.Error(), "MaxSubprocesses")

	t.Setenv("EDA_MAX_SUBPROCESSES", "2")
	t.Setenv("EDA_LOG_LEVEL", "chatty")
	_, err = Load("")
	require.ErrorIs(t, err, ErrInvalid)

	t.Setenv("EDA_LOG_LEVEL", "warn")
	t.Setenv("EDA_OPERATION_TIMEOUT", "soon")
	_, err = Load("")
	require.Error(t, err)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.Error(t, err)
}

func TestEmptyInterpreterListFallsBack(t *testing.T) {
	cfg := Defaults()
	cfg.Interpreters = []string{" ", ""}
	cfg.normalize()
	require.Equal(t, DefaultInterpreters, cfg.Interpreters)
	require.NoError(t, cfg.Validate())
}
