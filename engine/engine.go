package engine

import (
	"fmt"
	"runtime"

	"github.com/prismengine/prism/engine/config"
	"github.com/prismengine/prism/engine/core"
	"github.com/prismengine/prism/engine/graphics"
	"github.com/prismengine/prism/engine/graphics/null"
	"github.com/prismengine/prism/engine/graphics/vulkan"
	"github.com/prismengine/prism/engine/jobs"
	"github.com/prismengine/prism/engine/platform"
)

// Game is the application hook set driven by the engine loop.
type Game struct {
	State        interface{}
	FnInitialize func(context *graphics.RenderContext) error
	FnUpdate     func(deltaTime float64) error
	FnRender     func(frame *graphics.Frame, deltaTime float64) error
	FnOnResize   func(width, height uint32) error
	FnShutdown   func() error
}

// Engine wires the platform window, the selected graphics backend, the
// render context and the game callbacks into one frame loop.
type Engine struct {
	configuration *config.AppConfig
	gameInstance  *Game

	platform *platform.Platform
	workers  *jobs.Pool
	context  *graphics.RenderContext
	watcher  *config.Watcher
	clock    *core.Clock

	backendType graphics.BackendType
	isRunning   bool
	isSuspended bool

	pendingResize graphics.FrameSize
	lastTime      float64
}

func New(configPath string, g *Game) (*Engine, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		core.LogWarn("falling back to default configuration: %s", err)
		cfg = config.Default()
	}
	applyLogLevel(cfg.App.LogLevel)

	backendType, ok := graphics.ParseBackendType(cfg.Renderer.Backend)
	if !ok {
		return nil, fmt.Errorf("unknown renderer backend %q", cfg.Renderer.Backend)
	}

	p, err := platform.New()
	if err != nil {
		return nil, err
	}

	workers, err := jobs.NewPool(runtime.NumCPU(), 64)
	if err != nil {
		return nil, err
	}

	engine := &Engine{
		configuration: cfg,
		gameInstance:  g,
		platform:      p,
		workers:       workers,
		clock:         core.NewClock(),
		backendType:   backendType,
		isRunning:     true,
	}

	if watcher, err := config.NewWatcher(configPath); err == nil {
		engine.watcher = watcher
	} else {
		core.LogDebug("configuration watching disabled: %s", err)
	}

	return engine, nil
}

func (e *Engine) Initialize() error {
	cfg := e.configuration

	if e.backendType != graphics.BackendNull {
		if err := e.platform.Startup(cfg.App.Name, cfg.App.StartX, cfg.App.StartY,
			cfg.App.Width, cfg.App.Height, cfg.Renderer.FullScreen); err != nil {
			return err
		}
		e.platform.SetResizeHandler(func(width, height uint32) {
			e.pendingResize = graphics.FrameSize{Width: width, Height: height}
		})
	}

	backend, err := e.newBackend()
	if err != nil {
		return err
	}

	waitStrategy, ok := graphics.ParseWaitStrategy(cfg.Renderer.WaitStrategy)
	if !ok {
		return fmt.Errorf("unknown wait strategy %q", cfg.Renderer.WaitStrategy)
	}

	e.context = graphics.NewRenderContext(backend, e.workers, graphics.RenderContextSettings{
		AppName:           cfg.App.Name,
		FrameSize:         graphics.FrameSize{Width: cfg.App.Width, Height: cfg.App.Height},
		ColorFormat:       graphics.PixelFormatBGRA8Unorm,
		DepthFormat:       graphics.PixelFormatDepth32Float,
		FrameBuffersCount: cfg.Renderer.FrameBuffersCount,
		VSyncEnabled:      cfg.Renderer.VSyncEnabled,
		FullScreen:        cfg.Renderer.FullScreen,
		WaitStrategy:      waitStrategy,
		ClearColor:        graphics.Color4{R: 0.1, G: 0.1, B: 0.18, A: 1.0},
		ClearDepthStencil: graphics.DepthStencil{Depth: 1.0},
	})

	if err := e.context.Initialize(graphics.ResourceManagerSettings{
		DeferredHeapAllocation: cfg.Renderer.DeferredHeapAllocation,
		DefaultHeapSizes:       heapSizesFromConfig(cfg.Renderer.DefaultHeapSizes, defaultHeapSizes),
		ShaderVisibleHeapSizes: heapSizesFromConfig(cfg.Renderer.ShaderVisibleHeapSizes, defaultShaderVisibleHeapSizes),
	}); err != nil {
		return err
	}

	if e.gameInstance.FnInitialize != nil {
		if err := e.gameInstance.FnInitialize(e.context); err != nil {
			return err
		}
	}

	// Allocate deferred heaps and finalize all program bindings created
	// during game initialization.
	if err := e.context.CompleteInitialization(); err != nil {
		return err
	}

	if e.watcher != nil {
		go e.watchConfiguration()
	}
	return nil
}

func (e *Engine) Run() error {
	e.clock.Start()
	e.clock.Update()
	e.lastTime = e.clock.ElapsedSeconds()

	for e.isRunning {
		if e.backendType != graphics.BackendNull && !e.platform.PumpMessages() {
			e.isRunning = false
			break
		}

		if !e.pendingResize.IsZero() {
			size := e.pendingResize
			e.pendingResize = graphics.FrameSize{}
			if size.Width == 0 || size.Height == 0 {
				core.LogInfo("window minimized, suspending rendering")
				e.isSuspended = true
				continue
			}
			if e.isSuspended {
				core.LogInfo("window restored, resuming rendering")
				e.isSuspended = false
			}
			if err := e.context.Resize(size); err != nil {
				core.LogError(err.Error())
			}
			if e.gameInstance.FnOnResize != nil {
				if err := e.gameInstance.FnOnResize(size.Width, size.Height); err != nil {
					core.LogError(err.Error())
				}
			}
		}

		if e.isSuspended {
			continue
		}

		e.clock.Update()
		currentTime := e.clock.ElapsedSeconds()
		delta := currentTime - e.lastTime
		e.lastTime = currentTime

		if e.gameInstance.FnUpdate != nil {
			if err := e.gameInstance.FnUpdate(delta); err != nil {
				core.LogFatal("game update failed, shutting down: %s", err)
				e.isRunning = false
				break
			}
		}

		if err := e.context.WaitForGpu(graphics.WaitForFramePresented); err != nil {
			core.LogError(err.Error())
			e.isRunning = false
			break
		}

		frame, err := e.context.CurrentFrame()
		if err != nil {
			core.LogError(err.Error())
			e.isRunning = false
			break
		}

		if e.gameInstance.FnRender != nil {
			if err := e.gameInstance.FnRender(frame, delta); err != nil {
				core.LogFatal("game render failed, shutting down: %s", err)
				e.isRunning = false
				break
			}
		}

		if err := e.context.Present(); err != nil {
			core.LogError(err.Error())
			e.isRunning = false
			break
		}
	}
	return nil
}

func (e *Engine) Shutdown() error {
	e.isRunning = false

	if e.gameInstance.FnShutdown != nil {
		if err := e.gameInstance.FnShutdown(); err != nil {
			core.LogError(err.Error())
		}
	}
	if e.watcher != nil {
		e.watcher.Close()
	}
	if e.context != nil {
		if err := e.context.Release(); err != nil {
			return err
		}
	}
	e.workers.Shutdown()
	if e.backendType != graphics.BackendNull {
		return e.platform.Shutdown()
	}
	return nil
}

// RenderContext exposes the context for tooling and tests.
func (e *Engine) RenderContext() *graphics.RenderContext {
	return e.context
}

func (e *Engine) newBackend() (graphics.Backend, error) {
	switch e.backendType {
	case graphics.BackendVulkan:
		return vulkan.New(e.platform), nil
	case graphics.BackendNull:
		return null.NewBackend(), nil
	}
	return nil, fmt.Errorf("renderer backend %q is not supported on this platform", e.backendType)
}

// watchConfiguration applies hot-reloadable settings from config file
// changes: log level and vsync.
func (e *Engine) watchConfiguration() {
	for cfg := range e.watcher.Subscribe() {
		applyLogLevel(cfg.App.LogLevel)
		if e.context.SetVSyncEnabled(cfg.Renderer.VSyncEnabled) {
			core.LogInfo("vsync switched to %t", cfg.Renderer.VSyncEnabled)
		}
	}
}

var defaultHeapSizes = graphics.DescriptorHeapSizeByType{
	graphics.DescriptorHeapShaderResources: 1000,
	graphics.DescriptorHeapSamplers:        16,
	graphics.DescriptorHeapRenderTargets:   64,
	graphics.DescriptorHeapDepthStencil:    8,
}

var defaultShaderVisibleHeapSizes = graphics.DescriptorHeapSizeByType{
	graphics.DescriptorHeapShaderResources: 1000,
	graphics.DescriptorHeapSamplers:        16,
}

// heapSizesFromConfig overlays configured per-type sizes (keyed by snake
// case heap type name) on the given defaults.
func heapSizesFromConfig(configured map[string]uint32, defaults graphics.DescriptorHeapSizeByType) graphics.DescriptorHeapSizeByType {
	sizes := defaults
	for name, size := range configured {
		switch name {
		case "shader_resources":
			sizes[graphics.DescriptorHeapShaderResources] = size
		case "samplers":
			sizes[graphics.DescriptorHeapSamplers] = size
		case "render_targets":
			sizes[graphics.DescriptorHeapRenderTargets] = size
		case "depth_stencil":
			sizes[graphics.DescriptorHeapDepthStencil] = size
		default:
			core.LogWarn("unknown descriptor heap type %q in configuration", name)
		}
	}
	return sizes
}

func applyLogLevel(level string) {
	switch level {
	case "debug":
		core.SetLogLevel(core.DebugLevel)
	case "info":
		core.SetLogLevel(core.InfoLevel)
	case "warn":
		core.SetLogLevel(core.WarnLevel)
	case "error":
		core.SetLogLevel(core.ErrorLevel)
	}
}
