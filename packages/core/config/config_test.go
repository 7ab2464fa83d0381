package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.Equal(t, 30000, cfg.Timeout)
	assert.Equal(t, 1000, cfg.RetryDelay)
	assert.Equal(t, 10, cfg.MaxRedirects)
	assert.Equal(t, 5, cfg.Concurrency)
	assert.Equal(t, 1000, cfg.ResponseTimeThreshold)
	assert.Equal(t, []string{"console"}, cfg.Reporters)
	assert.True(t, cfg.GetFollowRedirects())
	assert.True(t, cfg.GetValidateSSL())
	assert.False(t, cfg.GetNoColor())
	assert.False(t, cfg.GetVerbose())
}

func TestLoadConfig_FromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "custom.json")
	require.NoError(t, os.WriteFile(path, []byte(`{
		"timeout": 5000,
		"validateSSL": false,
		"headers": {"X-Env": "staging"},
		"historyPath": "runs.db"
	}`), 0o644))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, 5000, cfg.Timeout)
	assert.False(t, cfg.GetValidateSSL())
	assert.Equal(t, "staging", cfg.Headers["X-Env"])
	assert.Equal(t, "runs.db", cfg.HistoryPath)

	// Unset fields keep their defaults.
	assert.Equal(t, 5, cfg.Concurrency)
	assert.True(t, cfg.GetFollowRedirects())
}

func TestFindAndLoadConfig(t *testing.T) {
	t.Run("finds known filename", func(t *testing.T) {
		dir := t.TempDir()
		require.NoError(t, os.WriteFile(filepath.Join(dir, ".webtest.config.json"), []byte(`{"timeout": 1234}`), 0o644))

		cfg, err := FindAndLoadConfig(dir)
		require.NoError(t, err)
		assert.Equal(t, 1234, cfg.Timeout)
	})

	t.Run("falls back to defaults", func(t *testing.T) {
		cfg, err := FindAndLoadConfig(t.TempDir())
		require.NoError(t, err)
		assert.Equal(t, DefaultConfig().Timeout, cfg.Timeout)
	})
}

func TestLoadConfig_InvalidJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "broken.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"timeout": `), 0o644))

	_, err := LoadConfig(path)
	assert.Error(t, err)
}

func TestConfig_Merge(t *testing.T) {
	base := DefaultConfig()
	base.Headers = map[string]string{"X-Base": "1", "X-Shared": "base"}

	merged := base.Merge(&Config{
		Timeout:     5000,
		Proxy:       "http://proxy.internal:8080",
		ValidateSSL: BoolPtr(false),
		Verbose:     BoolPtr(true),
		Headers:     map[string]string{"X-Shared": "override", "X-New": "2"},
		Reporters:   []string{"json"},
	})

	assert.Equal(t, 5000, merged.Timeout)
	assert.Equal(t, "http://proxy.internal:8080", merged.Proxy)
	assert.False(t, merged.GetValidateSSL())
	assert.True(t, merged.GetVerbose())
	assert.Equal(t, []string{"json"}, merged.Reporters)

	assert.Equal(t, "1", merged.Headers["X-Base"])
	assert.Equal(t, "override", merged.Headers["X-Shared"])
	assert.Equal(t, "2", merged.Headers["X-New"])

	// Zero values in the overlay leave the base untouched.
	assert.Equal(t, base.RetryDelay, merged.RetryDelay)
	assert.True(t, merged.GetFollowRedirects())

	// Merging nil is a no-op.
	assert.Equal(t, merged, merged.Merge(nil))
}
