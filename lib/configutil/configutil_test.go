package configutil

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

type testConfig struct {
	Name     string   `json:"name"`
	Port     int      `json:"port"`
	Sections []string `json:"sections"`
}

func writeFile(t *testing.T, path, contents string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(contents), 0600))
}

func TestReadConfig(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.json5")
	writeFile(t, path, `{
		// comments are fine
		name: "seatwatch",
		port: 8080,
	}`)

	cfg, err := ReadConfig[testConfig](path)
	require.NoError(t, err)
	require.Equal(t, testConfig{Name: "seatwatch", Port: 8080}, cfg)
}

func TestReadConfigLocalOverrides(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "config.json5"), `{name: "base", port: 8080}`)
	writeFile(t, filepath.Join(dir, "config.local.json5"), `{port: 9090}`)

	cfg, err := ReadConfig[testConfig](filepath.Join(dir, "config.json5"))
	require.NoError(t, err)
	require.Equal(t, testConfig{Name: "base", Port: 9090}, cfg)
}

func TestReadConfigLocalOnly(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "config.local.json5"), `{name: "local"}`)

	cfg, err := ReadConfig[testConfig](filepath.Join(dir, "config.json5"))
	require.NoError(t, err)
	require.Equal(t, "local", cfg.Name)
}

func TestReadConfigMissing(t *testing.T) {
	dir := t.TempDir()

	_, err := ReadConfig[testConfig](filepath.Join(dir, "config.json5"))
	require.True(t, os.IsNotExist(err))
}
