package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func chtmp(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	prev, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(prev) })
	return dir
}

func TestLoadConfigDefaults(t *testing.T) {
	chtmp(t)
	t.Setenv("MODEM_PASSWORD", "hunter2")

	config, err := LoadConfig()
	require.NoError(t, err)
	require.Equal(t, "https://192.168.100.1", config.BaseUrl)
	require.Equal(t, "admin", config.Username)
	require.Equal(t, "hunter2", config.Password)
	require.Equal(t, 8200, config.Port)
	require.Equal(t, 60, config.PollIntervalSeconds)
	require.Equal(t, "INFO", config.LogLevel)
}

func TestLoadConfigRequiresPassword(t *testing.T) {
	chtmp(t)
	t.Setenv("MODEM_PASSWORD", "")

	_, err := LoadConfig()
	require.ErrorContains(t, err, "MODEM_PASSWORD")
}

func TestLoadConfigFileProvidesValues(t *testing.T) {
	dir := chtmp(t)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.json5"), []byte(`{
		// local lab modem
		base_url: "https://10.0.0.1",
		password: "fromfile",
		poll_interval_seconds: 30,
	}`), 0o644))

	config, err := LoadConfig()
	require.NoError(t, err)
	require.Equal(t, "https://10.0.0.1", config.BaseUrl)
	require.Equal(t, "fromfile", config.Password)
	require.Equal(t, 30, config.PollIntervalSeconds)
	require.Equal(t, "admin", config.Username)
}

func TestLoadConfigEnvWinsOverFile(t *testing.T) {
	dir := chtmp(t)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.json5"), []byte(`{
		base_url: "https://10.0.0.1",
		password: "fromfile",
	}`), 0o644))
	t.Setenv("MODEM_BASE_URL", "https://192.168.100.1")
	t.Setenv("MODEM_PASSWORD", "fromenv")
	t.Setenv("METRICS_PORT", "9300")

	config, err := LoadConfig()
	require.NoError(t, err)
	require.Equal(t, "https://192.168.100.1", config.BaseUrl)
	require.Equal(t, "fromenv", config.Password)
	require.Equal(t, 9300, config.Port)
}

func TestLoadConfigRejectsBadEnvInts(t *testing.T) {
	chtmp(t)
	t.Setenv("MODEM_PASSWORD", "hunter2")
	t.Setenv("METRICS_PORT", "not-a-port")

	_, err := LoadConfig()
	require.Error(t, err)
}

func TestLoadConfigRejectsNonPositiveInterval(t *testing.T) {
	chtmp(t)
	t.Setenv("MODEM_PASSWORD", "hunter2")
	t.Setenv("METRICS_POLL_INTERVAL_SECONDS", "-5")

	_, err := LoadConfig()
	require.Error(t, err)
}
