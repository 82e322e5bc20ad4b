package configutil

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

type testConfig struct {
	Port  int    `json:"port"`
	Token string `json:"token"`
}

func TestReadConfigMergesLocalOverrides(t *testing.T) {
	dir := t.TempDir()

	err := os.WriteFile(
		filepath.Join(dir, "app.json5"),
		[]byte(`{port: 8080, token: "default"}`),
		0644,
	)
	require.NoError(t, err)
	err = os.WriteFile(
		filepath.Join(dir, "app.local.json5"),
		[]byte(`{token: "secret"}`),
		0644,
	)
	require.NoError(t, err)

	cfg, err := ReadConfig[testConfig](filepath.Join(dir, "app.json5"))
	require.NoError(t, err)
	require.Equal(t, 8080, cfg.Port)
	require.Equal(t, "secret", cfg.Token)
}

func TestReadConfigMissing(t *testing.T) {
	_, err := ReadConfig[testConfig](filepath.Join(t.TempDir(), "app.json5"))
	require.ErrorIs(t, err, os.ErrNotExist)
}

func TestReadConfigLocalOnly(t *testing.T) {
	dir := t.TempDir()
	err := os.WriteFile(
		filepath.Join(dir, "app.local.json5"),
		[]byte(`{port: 9090}`),
		0644,
	)
	require.NoError(t, err)

	cfg, err := ReadConfig[testConfig](filepath.Join(dir, "app.json5"))
	require.NoError(t, err)
	require.Equal(t, 9090, cfg.Port)
}
