package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	Reset()
	defer Reset()

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "console", cfg.Log.Format)
	assert.Equal(t, "sqlite", cfg.Storage.Driver)
	assert.Equal(t, "ask", cfg.Policy.DefaultMode)
	assert.Equal(t, "balanced", cfg.Policy.DefaultTrust)
	assert.Equal(t, "TARK_PLUGIN_PASSPHRASE", cfg.SecureStore.PassphraseEnv)
	assert.Equal(t, 5, cfg.EditorAdapter.TimeoutSeconds)
}

func TestLoad_FromFile(t *testing.T) {
	Reset()
	defer Reset()

	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := []byte(`
log:
  level: debug
policy:
  db_path: /tmp/custom-policy.db
  default_mode: build
`)
	require.NoError(t, os.WriteFile(path, content, 0600))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "/tmp/custom-policy.db", cfg.Policy.DBPath)
	assert.Equal(t, "build", cfg.Policy.DefaultMode)
}

func TestLoad_MissingFileIsNotFatal(t *testing.T) {
	Reset()
	defer Reset()

	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)
	assert.Equal(t, "info", cfg.Log.Level)
}

func TestSaveTo_RoundTrip(t *testing.T) {
	Reset()
	defer Reset()

	cfg, err := Load("")
	require.NoError(t, err)
	cfg.Log.Level = "warn"

	path := filepath.Join(t.TempDir(), "out.yaml")
	require.NoError(t, SaveTo(cfg, path))

	reloaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "warn", reloaded.Log.Level)
}

func TestSet(t *testing.T) {
	Reset()
	defer Reset()

	_, err := Load("")
	require.NoError(t, err)

	require.NoError(t, Set("log.level", "error"))
	assert.Equal(t, "error", GetConfig().Log.Level)
}
