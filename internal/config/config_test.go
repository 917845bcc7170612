package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GACLove/ComfyUI-Lightx2vWrapper/lightx2v"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), DefaultConfigName)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestDefaults(t *testing.T) {
	cfg := NewConfig()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, "localhost", cfg.Server.Host)
	assert.Equal(t, 8188, cfg.Server.Port)
	assert.Equal(t, 20, cfg.Defaults.Steps)
	assert.Equal(t, lightx2v.PrecisionBF16, cfg.Defaults.Precision)
}

func TestLoadFile(t *testing.T) {
	path := writeConfig(t, `
server:
  host: gpu-box
  port: 8200
paths:
  model_dir: /models/wan2.1-i2v-720p
  output_dir: /tmp/videos
defaults:
  steps: 40
  precision: fp16
  attention: sdpa
`)
	cfg, err := NewLoader().Load(path)
	require.NoError(t, err)
	assert.Equal(t, "gpu-box", cfg.Server.Host)
	assert.Equal(t, 8200, cfg.Server.Port)
	assert.Equal(t, "/models/wan2.1-i2v-720p", cfg.Paths.ModelDir)
	assert.Equal(t, 40, cfg.Defaults.Steps)
	assert.Equal(t, lightx2v.PrecisionFP16, cfg.Defaults.Precision)
	assert.Equal(t, lightx2v.AttentionSDPA, cfg.Defaults.Attention)
}

func TestLoadPartialFileKeepsDefaults(t *testing.T) {
	path := writeConfig(t, "server:\n  host: gpu-box\n")
	cfg, err := NewLoader().Load(path)
	require.NoError(t, err)
	assert.Equal(t, "gpu-box", cfg.Server.Host)
	assert.Equal(t, 8188, cfg.Server.Port)
	assert.Equal(t, 20, cfg.Defaults.Steps)
}

func TestLoadMissingExplicitPath(t *testing.T) {
	_, err := NewLoader().Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
	var loadErr *LoadError
	require.ErrorAs(t, err, &loadErr)
	assert.Contains(t, loadErr.Message, "not found")
}

func TestLoadFromDir(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, DefaultConfigName), []byte("server:\n  port: 9999\n"), 0o644))
	cfg, err := NewLoader().LoadFromDir(dir)
	require.NoError(t, err)
	assert.Equal(t, 9999, cfg.Server.Port)
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("LIGHTX2V_SERVER_HOST", "env-host")
	t.Setenv("LIGHTX2V_SERVER_PORT", "8300")
	t.Setenv("LIGHTX2V_DEFAULTS_PRECISION", "fp32")

	path := writeConfig(t, "server:\n  host: file-host\n")
	cfg, err := NewLoader().Load(path)
	require.NoError(t, err)
	assert.Equal(t, "env-host", cfg.Server.Host)
	assert.Equal(t, 8300, cfg.Server.Port)
	assert.Equal(t, lightx2v.PrecisionFP32, cfg.Defaults.Precision)
}

func TestValidateRejectsBadValues(t *testing.T) {
	path := writeConfig(t, "server:\n  port: 70000\n")
	_, err := NewLoader().Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "server.port")

	path = writeConfig(t, "defaults:\n  precision: fp8\n")
	_, err = NewLoader().Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "precision")
}
