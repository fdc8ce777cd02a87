package configutil

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

type testConfig struct {
	BaseUrl  string `json:"base_url"`
	Port     int    `json:"port"`
	Username string `json:"username"`
}

func writeFile(t *testing.T, path, contents string) {
	t.Helper()
	err := os.WriteFile(path, []byte(contents), 0o644)
	require.NoError(t, err)
}

func TestReadConfigMergesLocalOverrides(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "config.json5"), `{
		// base config
		base_url: "https://192.168.100.1",
		port: 8200,
		username: "admin",
	}`)
	writeFile(t, filepath.Join(dir, "config.local.json5"), `{
		base_url: "https://10.0.0.1",
	}`)

	cfg, err := ReadConfig[testConfig](filepath.Join(dir, "config.json5"))
	require.NoError(t, err)
	require.Equal(t, "https://10.0.0.1", cfg.BaseUrl)
	require.Equal(t, 8200, cfg.Port)
	require.Equal(t, "admin", cfg.Username)
}

func TestReadConfigMissing(t *testing.T) {
	dir := t.TempDir()
	_, err := ReadConfig[testConfig](filepath.Join(dir, "config.json5"))
	require.ErrorIs(t, err, os.ErrNotExist)
}

func TestEnvOverrides(t *testing.T) {
	cfg := testConfig{BaseUrl: "https://192.168.100.1", Port: 8200}

	t.Setenv("TEST_MODEM_BASE_URL", "https://172.16.0.1")
	t.Setenv("TEST_METRICS_PORT", "9100")

	EnvString(&cfg.BaseUrl, "TEST_MODEM_BASE_URL")
	require.NoError(t, EnvInt(&cfg.Port, "TEST_METRICS_PORT"))
	require.Equal(t, "https://172.16.0.1", cfg.BaseUrl)
	require.Equal(t, 9100, cfg.Port)

	t.Setenv("TEST_METRICS_PORT", "not-a-number")
	require.Error(t, EnvInt(&cfg.Port, "TEST_METRICS_PORT"))
	require.Equal(t, 9100, cfg.Port)
}
