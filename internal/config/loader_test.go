package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Skizziik/tryll-dataset-builder/internal/history"
	"github.com/Skizziik/tryll-dataset-builder/internal/store"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	assert.False(t, cfg.Server.Enabled)
	assert.Equal(t, 8765, cfg.Server.Port)
	assert.Equal(t, history.DefaultLimit, cfg.Store.HistoryLimit)
	assert.Equal(t, store.DefaultLicense, cfg.Store.DefaultLicense)
	assert.Equal(t, "Imported", cfg.Store.ImportCategory)
	assert.True(t, cfg.Store.Watch)
	assert.NotEmpty(t, cfg.Store.DataDir)
	assert.Empty(t, cfg.Remote.URL)
	require.NoError(t, cfg.Validate())
}

func TestLoad_NoFile(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, Default().Server.Port, cfg.Server.Port)
}

func TestLoad_MissingExplicitFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.Error(t, err)
}

func TestLoad_YAMLFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `
server:
  enabled: true
  port: 9999
store:
  history_limit: 10
  default_license: "MIT"
logging:
  level: debug
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.True(t, cfg.Server.Enabled)
	assert.Equal(t, 9999, cfg.Server.Port)
	assert.Equal(t, 10, cfg.Store.HistoryLimit)
	assert.Equal(t, "MIT", cfg.Store.DefaultLicense)
	assert.Equal(t, "debug", cfg.Logging.Level)
	// untouched keys keep their defaults
	assert.Equal(t, "Imported", cfg.Store.ImportCategory)
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("server:\n  port: 9999\n"), 0o600))

	t.Setenv("TRYLL_SERVER__PORT", "7777")
	t.Setenv("TRYLL_STORE__DATA_DIR", "/tmp/tryll-test")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 7777, cfg.Server.Port)
	assert.Equal(t, "/tmp/tryll-test", cfg.Store.DataDir)
}

func TestLoad_InvalidYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("server: [broken"), 0o600))

	_, err := Load(path)
	require.Error(t, err)
}

func TestLoad_RejectsInvalidValues(t *testing.T) {
	t.Setenv("TRYLL_SERVER__PORT", "0")
	_, err := Load("")
	require.ErrorIs(t, err, ErrInvalidPort)
}

func TestValidate(t *testing.T) {
	cfg := Default()
	cfg.Server.Port = 70000
	require.ErrorIs(t, cfg.Validate(), ErrInvalidPort)

	cfg = Default()
	cfg.Store.HistoryLimit = 0
	require.ErrorIs(t, cfg.Validate(), ErrInvalidHistory)

	cfg = Default()
	cfg.Store.DataDir = ""
	require.Error(t, cfg.Validate())

	cfg = Default()
	cfg.Logging.Level = "noisy"
	require.Error(t, cfg.Validate())
}

func TestReadConfigFile_SizeLimit(t *testing.T) {
	path := filepath.Join(t.TempDir(), "huge.yaml")
	big := make([]byte, maxConfigFileSize+1)
	require.NoError(t, os.WriteFile(path, big, 0o600))

	_, err := Load(path)
	require.ErrorIs(t, err, ErrConfigFileTooBig)
}
