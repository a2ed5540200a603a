package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig(t *testing.T) {
	t.Run("file values override defaults", func(t *testing.T) {
		dir := t.TempDir()
		path := filepath.Join(dir, "config.yaml")
		content := `
server:
  port: 9100
store:
  type: file
  file:
    root: /tmp/textlab-models
train:
  timeout_seconds: 30
normalization:
  stem: true
`
		require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

		cfg, err := LoadConfig(path)
		require.NoError(t, err)

		assert.Equal(t, 9100, cfg.Server.Port)
		assert.Equal(t, "/tmp/textlab-models", cfg.Store.File.Root)
		assert.Equal(t, 30, cfg.Train.TimeoutSeconds)
		assert.True(t, cfg.Normalization["stem"])

		// unset values come from Defaults
		defaults := Defaults()
		assert.Equal(t, defaults.Server.Host, cfg.Server.Host)
		assert.Equal(t, defaults.Vectorize.MaxFeatures, cfg.Vectorize.MaxFeatures)
		assert.Equal(t, defaults.Store.CacheSize, cfg.Store.CacheSize)
	})

	t.Run("env overrides file", func(t *testing.T) {
		dir := t.TempDir()
		path := filepath.Join(dir, "config.yaml")
		require.NoError(t, os.WriteFile(path, []byte("log:\n  level: debug\n"), 0o600))

		t.Setenv("TEXTLAB_LOG_LEVEL", "warn")
		cfg, err := LoadConfig(path)
		require.NoError(t, err)
		assert.Equal(t, "warn", cfg.Log.Level)
	})

	t.Run("missing explicit file is an error", func(t *testing.T) {
		_, err := LoadConfig(filepath.Join(t.TempDir(), "nope.yaml"))
		assert.Error(t, err)
	})
}

func TestApplyDefaults(t *testing.T) {
	cfg := &Config{Server: ServerConfig{Port: 1234}}
	require.NoError(t, ApplyDefaults(cfg))
	assert.Equal(t, 1234, cfg.Server.Port)
	assert.Equal(t, StoreTypeFile, cfg.Store.Type)
	assert.Equal(t, 300, cfg.Train.TimeoutSeconds)
}
