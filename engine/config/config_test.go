package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "prism.toml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoad(t *testing.T) {
	path := writeConfig(t, `
[app]
name = "Config Test"
width = 800
height = 600

[renderer]
backend = "null"
frame_buffers_count = 2
wait_strategy = "semaphores"
deferred_heap_allocation = true

[renderer.default_heap_sizes]
shader_resources = 128
render_targets = 16
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "Config Test", cfg.App.Name)
	assert.Equal(t, uint32(800), cfg.App.Width)
	assert.Equal(t, uint32(600), cfg.App.Height)
	assert.Equal(t, "null", cfg.Renderer.Backend)
	assert.Equal(t, uint32(2), cfg.Renderer.FrameBuffersCount)
	assert.Equal(t, "semaphores", cfg.Renderer.WaitStrategy)
	assert.True(t, cfg.Renderer.DeferredHeapAllocation)
	assert.Equal(t, uint32(128), cfg.Renderer.DefaultHeapSizes["shader_resources"])
	assert.Equal(t, uint32(16), cfg.Renderer.DefaultHeapSizes["render_targets"])
}

func TestLoadFillsDefaultsForMissingFields(t *testing.T) {
	path := writeConfig(t, `
[app]
name = "Partial Config"
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "Partial Config", cfg.App.Name)
	// Omitted fields keep their defaults.
	assert.Equal(t, uint32(1280), cfg.App.Width)
	assert.Equal(t, "vulkan", cfg.Renderer.Backend)
	assert.Equal(t, uint32(3), cfg.Renderer.FrameBuffersCount)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.toml"))
	require.Error(t, err)
}

func TestLoadInvalidToml(t *testing.T) {
	path := writeConfig(t, "[app\nname = broken")
	_, err := Load(path)
	require.Error(t, err)
}

func TestDefault(t *testing.T) {
	cfg := Default()
	assert.Equal(t, "vulkan", cfg.Renderer.Backend)
	assert.Equal(t, "fences", cfg.Renderer.WaitStrategy)
	assert.True(t, cfg.Renderer.VSyncEnabled)
	assert.NotZero(t, cfg.App.Width)
	assert.NotZero(t, cfg.App.Height)
}
