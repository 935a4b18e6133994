package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/jrsteele09/go-user-admin/internal/config"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	c, err := config.Load(config.WithEnvPrefix("USERADMIN_TEST_DEFAULTS_"))
	require.NoError(t, err)

	require.Equal(t, "User Admin", c.GetAppName())
	require.Equal(t, "https://qa-api-task-production.up.railway.app", c.GetBaseURL())
	require.Equal(t, 30*time.Second, c.GetRequestTimeout())
	require.Equal(t, 300*time.Second, c.GetExpirySkew())
	require.Equal(t, 60*time.Second, c.GetCheckInterval())
	require.Equal(t, "./data", c.GetDataFolder())
	require.Equal(t, "info", c.GetLogLevel())
}

func TestLoadFileThenEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "useradmin.yaml")
	err := os.WriteFile(path, []byte(`
api:
  base_url: http://file.example.com
  timeout: 5s
session:
  check_interval: 10s
`), 0o600)
	require.NoError(t, err)

	t.Setenv("USERADMIN_API_BASE_URL", "http://env.example.com")
	t.Setenv("USERADMIN_LOG_LEVEL", "debug")

	c, err := config.Load(config.WithConfigFile(path))
	require.NoError(t, err)

	require.Equal(t, "http://env.example.com", c.GetBaseURL())
	require.Equal(t, 5*time.Second, c.GetRequestTimeout())
	require.Equal(t, 10*time.Second, c.GetCheckInterval())
	require.Equal(t, "debug", c.GetLogLevel())
}

func TestLoadOverrides(t *testing.T) {
	c, err := config.Load(
		config.WithEnvPrefix("USERADMIN_TEST_OVERRIDES_"),
		config.WithOverrides(map[string]any{
			"api": map[string]any{"base_url": "http://flag.example.com"},
		}),
	)
	require.NoError(t, err)
	require.Equal(t, "http://flag.example.com", c.GetBaseURL())
}

func TestLoadRejectsInvalidInterval(t *testing.T) {
	_, err := config.Load(
		config.WithEnvPrefix("USERADMIN_TEST_INVALID_"),
		config.WithOverrides(map[string]any{
			"session": map[string]any{"check_interval": "0s"},
		}),
	)
	require.Error(t, err)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := config.Load(config.WithConfigFile(filepath.Join(t.TempDir(), "missing.yaml")))
	require.Error(t, err)
}

func TestGetEnvFallback(t *testing.T) {
	c := config.FromValues(config.Values{})
	t.Setenv("ENV", "")
	require.Equal(t, "DEV", c.GetEnv())

	t.Setenv("ENV", "PROD")
	require.Equal(t, "PROD", c.GetEnv())

	c = config.FromValues(config.Values{App: config.AppValues{Env: "STAGING"}})
	require.Equal(t, "STAGING", c.GetEnv())
}
