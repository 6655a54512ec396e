package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/parleyhq/parley/config"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoad_MissingFileYieldsDefaults(t *testing.T) {
	t.Parallel()
	cfg, err := config.Load(filepath.Join(t.TempDir(), "absent.toml"))
	require.NoError(t, err)
	assert.Equal(t, config.Default(), cfg)
}

func TestLoad_OverridesLayerOverDefaults(t *testing.T) {
	t.Parallel()
	path := writeConfig(t, `
[backend]
url = "https://chat.example.com"
stream_timeout_secs = 45

[retry]
breaker_threshold = 8
`)

	cfg, err := config.Load(path)
	require.NoError(t, err)

	assert.Equal(t, "https://chat.example.com", cfg.Backend.URL)
	assert.Equal(t, 45*time.Second, cfg.Backend.StreamTimeout())
	assert.Equal(t, 8, cfg.Retry.BreakerThreshold)
	// Untouched values keep their defaults.
	assert.Equal(t, config.Default().Backend.HealthTimeoutSecs, cfg.Backend.HealthTimeoutSecs)
	assert.Equal(t, config.Default().Retry.MaxAttempts, cfg.Retry.MaxAttempts)
}

func TestLoad_ThemeOverride(t *testing.T) {
	t.Parallel()
	path := writeConfig(t, `
[ui.theme]
user_msg = 6
error = 9
`)

	cfg, err := config.Load(path)
	require.NoError(t, err)
	assert.Equal(t, 6, cfg.UI.Theme.UserMsg)
	assert.Equal(t, 9, cfg.UI.Theme.Error)
}

func TestLoad_InvalidTOML(t *testing.T) {
	t.Parallel()
	path := writeConfig(t, "backend = [not toml")
	_, err := config.Load(path)
	assert.ErrorContains(t, err, "parse config")
}

func TestLoad_InvalidURL(t *testing.T) {
	t.Parallel()
	path := writeConfig(t, `
[backend]
url = "not a url"
`)
	_, err := config.Load(path)
	assert.ErrorContains(t, err, "invalid backend url")
}

func TestLoad_NonPositiveTimeout(t *testing.T) {
	t.Parallel()
	path := writeConfig(t, `
[backend]
stream_timeout_secs = -1
`)
	_, err := config.Load(path)
	assert.ErrorContains(t, err, "stream_timeout_secs")
}

func TestDefault_Durations(t *testing.T) {
	t.Parallel()
	cfg := config.Default()
	assert.Equal(t, 30*time.Second, cfg.Backend.StreamTimeout())
	assert.Equal(t, 5*time.Second, cfg.Backend.HealthTimeout())
	assert.Equal(t, 10*time.Second, cfg.Backend.InitTimeout())
	assert.Equal(t, 60*time.Second, cfg.Retry.BreakerCooldown())
	assert.Equal(t, time.Second, cfg.Retry.InitialDelay())
	assert.Equal(t, 30*time.Second, cfg.Retry.MaxDelay())
}
