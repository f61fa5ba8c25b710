package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("XDG_STATE_HOME", t.TempDir())
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.toml"))
	require.NoError(t, err)

	assert.Equal(t, "http://localhost:8000", cfg.APIURL)
	assert.Equal(t, 15*time.Second, cfg.Timeout.Duration)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, filepath.Join(cfg.StateDir, "reel.log"), cfg.LogFile)
}

func TestLoad_File(t *testing.T) {
	path := writeConfig(t, `
api_url = "https://fish.example.com"
timeout = "3s"
log_level = "debug"
state_dir = "/tmp/reel-test"
`)
	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "https://fish.example.com", cfg.APIURL)
	assert.Equal(t, 3*time.Second, cfg.Timeout.Duration)
	assert.Equal(t, "/tmp/reel-test", cfg.StateDir)
	level, err := cfg.Level()
	require.NoError(t, err)
	assert.Equal(t, slog.LevelDebug, level)
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	path := writeConfig(t, `api_url = "https://fish.example.com"`)
	t.Setenv("REEL_API_URL", "http://127.0.0.1:9000")
	t.Setenv("REEL_TIMEOUT", "1m")
	t.Setenv("REEL_LOG_LEVEL", "warn")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "http://127.0.0.1:9000", cfg.APIURL)
	assert.Equal(t, time.Minute, cfg.Timeout.Duration)
	assert.Equal(t, "warn", cfg.LogLevel)
}

func TestLoad_Errors(t *testing.T) {
	t.Run("unknown key", func(t *testing.T) {
		_, err := Load(writeConfig(t, `api_ur = "typo"`))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "api_ur")
	})

	t.Run("malformed toml", func(t *testing.T) {
		_, err := Load(writeConfig(t, `api_url = `))
		assert.Error(t, err)
	})

	t.Run("bad url", func(t *testing.T) {
		_, err := Load(writeConfig(t, `api_url = "localhost"`))
		assert.Error(t, err)
	})

	t.Run("bad timeout", func(t *testing.T) {
		_, err := Load(writeConfig(t, `timeout = "-1s"`))
		assert.Error(t, err)
	})

	t.Run("bad env timeout", func(t *testing.T) {
		t.Setenv("REEL_TIMEOUT", "soon")
		_, err := Load(writeConfig(t, ``))
		assert.Error(t, err)
	})

	t.Run("bad level", func(t *testing.T) {
		_, err := Load(writeConfig(t, `log_level = "loud"`))
		assert.Error(t, err)
	})
}

func TestSaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.toml")
	cfg := Default()
	cfg.APIURL = "https://fish.example.com"
	cfg.Timeout = Duration{42 * time.Second}
	require.NoError(t, Save(path, cfg))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, cfg.APIURL, loaded.APIURL)
	assert.Equal(t, cfg.Timeout, loaded.Timeout)
}
