package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("SENTINEL_BACKENDS_FILE", filepath.Join(t.TempDir(), "absent.yaml"))
	t.Setenv("GEMINI_API_KEY", "")
	t.Setenv("OPENAI_API_KEY", "")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Port)
	assert.Equal(t, 30*time.Second, cfg.Generation.Timeout)
	assert.Equal(t, 256, cfg.Generation.MaxTokens)
	assert.Empty(t, cfg.Generation.Backends)
	assert.Zero(t, cfg.Device.SimulateInterval)
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("SENTINEL_BACKENDS_FILE", filepath.Join(t.TempDir(), "absent.yaml"))
	t.Setenv("SENTINEL_PORT", "9090")
	t.Setenv("GENERATION_TIMEOUT", "10s")
	t.Setenv("DEVICE_SIMULATE_INTERVAL", "5s")
	t.Setenv("GEMINI_API_KEY", "test-key")
	t.Setenv("OPENAI_API_KEY", "")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Port)
	assert.Equal(t, 10*time.Second, cfg.Generation.Timeout)
	assert.Equal(t, 5*time.Second, cfg.Device.SimulateInterval)

	require.Len(t, cfg.Generation.Backends, 1)
	assert.Equal(t, "gemini", cfg.Generation.Backends[0].Kind)
	assert.Equal(t, "test-key", cfg.Generation.Backends[0].APIKey())
}

func TestLoadBackendsFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "backends.yaml")
	contents := `backends:
  - kind: openai
    name: primary
    model: gpt-4o
    endpoint: https://llm.internal/v1
    api_key_env: PRIMARY_KEY
  - kind: gemini
    name: fallback
    api_key_env: GEMINI_API_KEY
`
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o644))
	t.Setenv("SENTINEL_BACKENDS_FILE", path)
	t.Setenv("PRIMARY_KEY", "sk-primary")

	cfg, err := Load()
	require.NoError(t, err)

	require.Len(t, cfg.Generation.Backends, 2)
	assert.Equal(t, "primary", cfg.Generation.Backends[0].Name)
	assert.Equal(t, "https://llm.internal/v1", cfg.Generation.Backends[0].Endpoint)
	assert.Equal(t, "sk-primary", cfg.Generation.Backends[0].APIKey())
	assert.Equal(t, "fallback", cfg.Generation.Backends[1].Name)
}

func TestLoadBackendsFileUnknownKind(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "backends.yaml")
	require.NoError(t, os.WriteFile(path, []byte("backends:\n  - kind: mystery\n"), 0o644))
	t.Setenv("SENTINEL_BACKENDS_FILE", path)

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown kind")
}
