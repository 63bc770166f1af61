package config

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// chdirTemp switches into an empty directory so no stray tocfinder.yaml or
// .env is picked up.
func chdirTemp(t *testing.T) string {
	t.Helper()
	tmpDir := t.TempDir()
	originalWd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(tmpDir))
	t.Cleanup(func() { _ = os.Chdir(originalWd) })
	return tmpDir
}

func TestNewLoader(t *testing.T) {
	loader := NewLoader()
	require.NotNil(t, loader)
	assert.Same(t, viper.GetViper(), loader.v)
}

func TestLoadWithNoConfigFile(t *testing.T) {
	chdirTemp(t)
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	t.Setenv("HOME", t.TempDir())

	cfg, err := NewLoaderWithViper(viper.New()).Load()
	require.NoError(t, err)

	assert.Equal(t, infoLevel, cfg.LogLevel)
	assert.Equal(t, 10, cfg.Pages.Last)
	assert.Equal(t, []string{"rus", "eng"}, cfg.OCR.Languages)
}

func TestLoadWithValidYAMLFile(t *testing.T) {
	tmpDir := t.TempDir()
	configFile := filepath.Join(tmpDir, "tocfinder.yaml")

	yamlContent := `
log_level: debug
pages:
  first: 2
  last: 5
raster:
  engine: fitz
  dpi: 150
ocr:
  languages: [eng]
  psm: 4
classifier:
  threshold: 0.65
server:
  port: 9090
`
	require.NoError(t, os.WriteFile(configFile, []byte(yamlContent), 0o600))

	loader := NewLoaderWithViper(viper.New())
	cfg, err := loader.LoadWithFile(configFile)
	require.NoError(t, err)

	assert.Equal(t, debugLevel, cfg.LogLevel)
	assert.Equal(t, 2, cfg.Pages.First)
	assert.Equal(t, 5, cfg.Pages.Last)
	assert.Equal(t, RasterFitz, cfg.Raster.Engine)
	assert.Equal(t, 150, cfg.Raster.DPI)
	assert.Equal(t, []string{"eng"}, cfg.OCR.Languages)
	assert.Equal(t, 4, cfg.OCR.PSM)
	assert.Equal(t, 3, cfg.OCR.OEM)
	assert.InDelta(t, 0.65, cfg.Classifier.Threshold, 1e-9)
	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, configFile, loader.GetConfigFileUsed())
}

func TestLoadWithInvalidYAMLFile(t *testing.T) {
	configFile := filepath.Join(t.TempDir(), "tocfinder.yaml")
	require.NoError(t, os.WriteFile(configFile, []byte("pages: [unterminated"), 0o600))

	_, err := NewLoaderWithViper(viper.New()).LoadWithFile(configFile)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "error reading config file")
}

func TestLoadWithNonExistentFile(t *testing.T) {
	_, err := NewLoaderWithViper(viper.New()).LoadWithFile("/nonexistent/tocfinder.yaml")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "does not exist")
}

func TestLoadWithValidationFailure(t *testing.T) {
	configFile := filepath.Join(t.TempDir(), "tocfinder.yaml")
	require.NoError(t, os.WriteFile(configFile, []byte("pages:\n  first: 0\n"), 0o600))

	_, err := NewLoaderWithViper(viper.New()).LoadWithFile(configFile)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "configuration validation failed")
}

func TestEnvironmentVariableOverride(t *testing.T) {
	chdirTemp(t)
	t.Setenv("TOCFINDER_LOG_LEVEL", "warn")
	t.Setenv("TOCFINDER_PAGES_LAST", "4")
	t.Setenv("TOCFINDER_CLASSIFIER_LLM_MODEL", "local-model")

	cfg, err := NewLoaderWithViper(viper.New()).Load()
	require.NoError(t, err)

	assert.Equal(t, "warn", cfg.LogLevel)
	assert.Equal(t, 4, cfg.Pages.Last)
	assert.Equal(t, "local-model", cfg.Classifier.LLM.Model)
}

func TestDotEnvFileIsLoaded(t *testing.T) {
	dir := chdirTemp(t)
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("TOCFINDER_OCR_PSM=3\n"), 0o600))
	t.Cleanup(func() { _ = os.Unsetenv("TOCFINDER_OCR_PSM") })

	cfg, err := NewLoaderWithViper(viper.New()).Load()
	require.NoError(t, err)
	assert.Equal(t, 3, cfg.OCR.PSM)
}

func TestEnvironmentBeatsFile(t *testing.T) {
	configFile := filepath.Join(t.TempDir(), "tocfinder.yaml")
	require.NoError(t, os.WriteFile(configFile, []byte("raster:\n  dpi: 150\n"), 0o600))
	t.Setenv("TOCFINDER_RASTER_DPI", "400")

	cfg, err := NewLoaderWithViper(viper.New()).LoadWithFile(configFile)
	require.NoError(t, err)
	assert.Equal(t, 400, cfg.Raster.DPI)
}

func TestWriteYAMLMasksSecrets(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Classifier.LLM.APIKey = "sk-secret"
	cfg.Raster.Password = "hunter2"

	var buf bytes.Buffer
	require.NoError(t, WriteYAML(&buf, &cfg))

	out := buf.String()
	assert.Contains(t, out, "log_level: info")
	assert.Contains(t, out, "languages:")
	assert.NotContains(t, out, "sk-secret")
	assert.NotContains(t, out, "hunter2")
	assert.Equal(t, "sk-secret", cfg.Classifier.LLM.APIKey)
}

func TestGenerateDefaultConfigFile(t *testing.T) {
	configFile := filepath.Join(t.TempDir(), "tocfinder.yaml")
	require.NoError(t, GenerateDefaultConfigFile(configFile))

	cfg, err := NewLoaderWithViper(viper.New()).LoadWithFile(configFile)
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig().Pages, cfg.Pages)

	err = GenerateDefaultConfigFile(configFile)
	assert.Error(t, err, "existing file must not be overwritten")
}

func TestGetConfigSearchPaths(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", "/xdg")
	paths := GetConfigSearchPaths()

	assert.Equal(t, ".", paths[0])
	assert.Contains(t, paths, filepath.Join("/xdg", "tocfinder"))
	assert.Equal(t, "/etc/tocfinder", paths[len(paths)-1])
}
