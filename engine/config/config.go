package config

import (
	"fmt"
	"os"

	"github.com/pelletier/go-toml/v2"
)

// AppConfig is the top-level TOML application configuration.
type AppConfig struct {
	App      AppSection      `toml:"app"`
	Renderer RendererSection `toml:"renderer"`
}

type AppSection struct {
	Name     string `toml:"name"`
	StartX   uint32 `toml:"start_x"`
	StartY   uint32 `toml:"start_y"`
	Width    uint32 `toml:"width"`
	Height   uint32 `toml:"height"`
	LogLevel string `toml:"log_level"`
}

type RendererSection struct {
	// Backend selects the native graphics API: "vulkan", "directx", "metal"
	// or "null" for headless runs.
	Backend           string `toml:"backend"`
	FrameBuffersCount uint32 `toml:"frame_buffers_count"`
	VSyncEnabled      bool   `toml:"vsync_enabled"`
	FullScreen        bool   `toml:"full_screen"`
	// WaitStrategy selects the GPU wait primitive: "fences" or "semaphores".
	WaitStrategy           string            `toml:"wait_strategy"`
	DeferredHeapAllocation bool              `toml:"deferred_heap_allocation"`
	DefaultHeapSizes       map[string]uint32 `toml:"default_heap_sizes"`
	ShaderVisibleHeapSizes map[string]uint32 `toml:"shader_visible_heap_sizes"`
}

// Default returns the configuration used when no config file is present.
func Default() *AppConfig {
	return &AppConfig{
		App: AppSection{
			Name:     "Prism Application",
			StartX:   100,
			StartY:   100,
			Width:    1280,
			Height:   720,
			LogLevel: "debug",
		},
		Renderer: RendererSection{
			Backend:                "vulkan",
			FrameBuffersCount:      3,
			VSyncEnabled:           true,
			WaitStrategy:           "fences",
			DeferredHeapAllocation: true,
		},
	}
}

// Load reads and decodes the TOML configuration at path.
func Load(path string) (*AppConfig, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config %q: %w", path, err)
	}
	cfg := Default()
	if err := toml.Unmarshal(raw, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config %q: %w", path, err)
	}
	return cfg, nil
}
