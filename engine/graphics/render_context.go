package graphics

import (
	"fmt"

	"github.com/prismengine/prism/engine/core"
	"github.com/prismengine/prism/engine/jobs"
)

// WaitFor selects the synchronization point of WaitForGpu.
type WaitFor uint8

const (
	// WaitForRenderComplete blocks until every submitted command list of
	// every frame finished on the GPU.
	WaitForRenderComplete WaitFor = iota
	// WaitForFramePresented blocks until the frame buffer the CPU is about
	// to reuse was presented and its command lists completed.
	WaitForFramePresented
)

func (w WaitFor) String() string {
	switch w {
	case WaitForRenderComplete:
		return "RenderComplete"
	case WaitForFramePresented:
		return "FramePresented"
	}
	return "Unknown"
}

// frameWaiter hides the two mutually exclusive GPU wait implementations
// behind one interface. The strategy is fixed at context initialization;
// switching it at runtime is not supported.
type frameWaiter interface {
	frameFence(frameBufferIndex uint32) Fence
	waitFramePresented(frameBufferIndex uint32) error
	waitRenderComplete() error
	release()
}

// fencesWaiter synchronizes with one fence per frame buffer: presenting a
// frame signals its fence, reuse of the frame buffer waits on it.
type fencesWaiter struct {
	fences []Fence
}

func newFencesWaiter(backend Backend, frameBuffersCount uint32) (*fencesWaiter, error) {
	fences := make([]Fence, frameBuffersCount)
	for i := range fences {
		fence, err := backend.CreateFence(true)
		if err != nil {
			return nil, fmt.Errorf("failed to create frame fence %d: %w", i, err)
		}
		fences[i] = fence
	}
	return &fencesWaiter{fences: fences}, nil
}

func (w *fencesWaiter) frameFence(frameBufferIndex uint32) Fence {
	return w.fences[frameBufferIndex%uint32(len(w.fences))]
}

func (w *fencesWaiter) waitFramePresented(frameBufferIndex uint32) error {
	fence := w.frameFence(frameBufferIndex)
	if err := fence.Wait(); err != nil {
		return err
	}
	return fence.Reset()
}

func (w *fencesWaiter) waitRenderComplete() error {
	for _, fence := range w.fences {
		if err := fence.Wait(); err != nil {
			return err
		}
		if err := fence.Reset(); err != nil {
			return err
		}
	}
	return nil
}

func (w *fencesWaiter) release() {
	w.fences = nil
}

// semaphoresWaiter relies on the backend's present path for per-frame
// pacing (swap-chain semaphores) and keeps a single flush fence for full
// render completion only.
type semaphoresWaiter struct {
	flushFence Fence
}

func newSemaphoresWaiter(backend Backend) (*semaphoresWaiter, error) {
	fence, err := backend.CreateFence(true)
	if err != nil {
		return nil, fmt.Errorf("failed to create flush fence: %w", err)
	}
	return &semaphoresWaiter{flushFence: fence}, nil
}

func (w *semaphoresWaiter) frameFence(uint32) Fence {
	return w.flushFence
}

func (w *semaphoresWaiter) waitFramePresented(uint32) error {
	// Per-frame pacing happens inside the backend present call.
	return nil
}

func (w *semaphoresWaiter) waitRenderComplete() error {
	if err := w.flushFence.Wait(); err != nil {
		return err
	}
	return w.flushFence.Reset()
}

func (w *semaphoresWaiter) release() {
	w.flushFence = nil
}

// Frame groups the per-frame-buffer rendering objects.
type Frame struct {
	Index         uint32
	ScreenTexture *Texture
	ScreenPass    *RenderPass
}

type RenderContextSettings struct {
	AppName              string
	FrameSize            FrameSize
	ColorFormat          PixelFormat
	DepthFormat          PixelFormat
	FrameBuffersCount    uint32
	VSyncEnabled         bool
	FullScreen           bool
	WaitStrategy         WaitStrategy
	ClearColor           Color4
	ClearDepthStencil    DepthStencil
	AveragedTimingsCount uint32
}

// RenderContext owns the swap-chain frame loop: the frame buffers and
// their render passes, the command queue, GPU synchronization and frame
// statistics. All graphics objects of an application hang off one context;
// there is no process-global state.
type RenderContext struct {
	Object

	backend  Backend
	settings RenderContextSettings

	manager *ResourceManager
	queue   *CommandQueue
	waiter  frameWaiter

	frames       []*Frame
	depthTexture *Texture

	// frameBufferIndex cycles over the swap-chain images; frameIndex grows
	// monotonically over the context lifetime.
	frameBufferIndex uint32
	frameIndex       uint32

	fpsCounter  *FpsCounter
	initialized bool
}

func NewRenderContext(backend Backend, workers *jobs.Pool, settings RenderContextSettings) *RenderContext {
	name := settings.AppName
	if name == "" {
		name = "Render Context"
	}
	averagedTimings := settings.AveragedTimingsCount
	if averagedTimings == 0 {
		averagedTimings = 100
	}
	context := &RenderContext{
		Object:     newObject(name),
		backend:    backend,
		settings:   settings,
		fpsCounter: NewFpsCounter(averagedTimings),
	}
	context.manager = NewResourceManager(backend, workers)
	return context
}

func (c *RenderContext) Settings() RenderContextSettings {
	return c.settings
}

func (c *RenderContext) GetResourceManager() *ResourceManager {
	return c.manager
}

func (c *RenderContext) GetCommandQueue() *CommandQueue {
	return c.queue
}

// GetFpsCounter exposes frame statistics read-only; only the present path
// inside the context feeds it.
func (c *RenderContext) GetFpsCounter() *FpsCounter {
	return c.fpsCounter
}

// FrameBufferIndex is the swap-chain image the CPU currently records for.
func (c *RenderContext) FrameBufferIndex() uint32 {
	return c.frameBufferIndex
}

// FrameIndex counts presented frames monotonically since initialization.
func (c *RenderContext) FrameIndex() uint32 {
	return c.frameIndex
}

// GetFrame returns the per-frame objects for the frame buffer index.
func (c *RenderContext) GetFrame(frameBufferIndex uint32) (*Frame, error) {
	if frameBufferIndex >= uint32(len(c.frames)) {
		return nil, fmt.Errorf("%w: there is no frame with buffer index %d (%d frame buffers)",
			ErrNotFound, frameBufferIndex, len(c.frames))
	}
	return c.frames[frameBufferIndex], nil
}

// CurrentFrame returns the frame objects for the current buffer index.
func (c *RenderContext) CurrentFrame() (*Frame, error) {
	return c.GetFrame(c.frameBufferIndex)
}

func (c *RenderContext) DepthTexture() *Texture {
	return c.depthTexture
}

// frameFence returns the fence signaled once per presented frame for the
// given frame buffer index.
func (c *RenderContext) frameFence(frameBufferIndex uint32) Fence {
	return c.waiter.frameFence(frameBufferIndex)
}

// invalidateFrameBuffersCount clamps the configured frame buffers count to
// the bounds supported by the backend.
func (c *RenderContext) invalidateFrameBuffersCount() {
	minCount, maxCount := c.backend.FrameBuffersBounds()
	count := core.Clamp(c.settings.FrameBuffersCount, minCount, maxCount)
	if count != c.settings.FrameBuffersCount {
		core.LogWarn("frame buffers count %d is out of backend bounds [%d, %d], using %d",
			c.settings.FrameBuffersCount, minCount, maxCount, count)
		c.settings.FrameBuffersCount = count
	}
}

// Initialize brings up the backend, the descriptor heaps, the GPU wait
// strategy, the command queue and the per-frame screen textures and passes.
func (c *RenderContext) Initialize(managerSettings ResourceManagerSettings) error {
	if c.initialized {
		return fmt.Errorf("%w: render context %q is already initialized", ErrInvalidState, c.Name())
	}
	if c.settings.FrameSize.IsZero() {
		return fmt.Errorf("%w: render context requires a non-zero frame size", ErrInvalidConfiguration)
	}

	c.invalidateFrameBuffersCount()

	if err := c.backend.Initialize(BackendSettings{
		AppName:           c.settings.AppName,
		FrameSize:         c.settings.FrameSize,
		FrameBuffersCount: c.settings.FrameBuffersCount,
		VSyncEnabled:      c.settings.VSyncEnabled,
		WaitStrategy:      c.settings.WaitStrategy,
	}); err != nil {
		return fmt.Errorf("failed to initialize %s backend: %w", c.backend.Name(), err)
	}

	if err := c.manager.Initialize(managerSettings); err != nil {
		return err
	}

	var err error
	switch c.settings.WaitStrategy {
	case WaitStrategySemaphores:
		c.waiter, err = newSemaphoresWaiter(c.backend)
	default:
		c.waiter, err = newFencesWaiter(c.backend, c.settings.FrameBuffersCount)
	}
	if err != nil {
		return err
	}

	c.queue = NewCommandQueue(c, c.Name()+" Command Queue")

	if err := c.createFrames(nil, nil); err != nil {
		return err
	}

	c.initialized = true
	c.fpsCounter.OnFrameStart()
	core.LogInfo("render context %q initialized with %d frame buffers (%s backend, %s waits)",
		c.Name(), c.settings.FrameBuffersCount, c.backend.Name(), c.settings.WaitStrategy)
	return nil
}

// createFrames builds the screen textures, the shared depth texture and
// one final render pass per frame buffer. Restore snapshots, when given,
// make the new textures claim their previous descriptor slots.
func (c *RenderContext) createFrames(screenRestore []ResourceRestoreInfo, depthRestore *ResourceRestoreInfo) error {
	depthTexture, err := NewDepthStencilTexture(c.manager, c.settings.FrameSize, c.settings.DepthFormat, depthRestore)
	if err != nil {
		return err
	}
	c.depthTexture = depthTexture

	recreate := screenRestore != nil && len(c.frames) == int(c.settings.FrameBuffersCount)

	frames := make([]*Frame, c.settings.FrameBuffersCount)
	for i := uint32(0); i < c.settings.FrameBuffersCount; i++ {
		var restore *ResourceRestoreInfo
		if screenRestore != nil && i < uint32(len(screenRestore)) {
			restore = &screenRestore[i]
		}
		screenTexture, err := NewFrameBufferTexture(c.manager, i, c.settings.FrameSize, c.settings.ColorFormat, restore)
		if err != nil {
			return err
		}

		passSettings := c.finalPassSettings(screenTexture)
		frame := &Frame{Index: i, ScreenTexture: screenTexture}
		if recreate {
			// Keep the existing pass objects alive across resize so held
			// references stay valid; Update rebuilds their cached state.
			frame.ScreenPass = c.frames[i].ScreenPass
			frame.ScreenPass.Update(passSettings)
		} else {
			frame.ScreenPass = NewRenderPass(fmt.Sprintf("Final Pass %d", i), passSettings)
		}
		frames[i] = frame
	}
	c.frames = frames
	return nil
}

func (c *RenderContext) finalPassSettings(screenTexture *Texture) RenderPassSettings {
	return RenderPassSettings{
		ColorAttachments: []ColorAttachment{{
			Attachment: Attachment{
				Texture:     screenTexture,
				LoadAction:  AttachmentLoadActionClear,
				StoreAction: AttachmentStoreActionStore,
			},
			ClearColor: c.settings.ClearColor,
		}},
		DepthAttachment: &DepthAttachment{
			Attachment: Attachment{
				Texture:     c.depthTexture,
				LoadAction:  AttachmentLoadActionClear,
				StoreAction: AttachmentStoreActionDontCare,
			},
			ClearValue: c.settings.ClearDepthStencil.Depth,
		},
		RenderArea:  c.settings.FrameSize,
		IsFinalPass: true,
	}
}

// WaitForGpu blocks the CPU until the requested synchronization point,
// completes the affected command lists and drains the deferred release
// pool that their completion unblocks.
func (c *RenderContext) WaitForGpu(waitFor WaitFor) error {
	if !c.initialized {
		return fmt.Errorf("%w: render context %q is not initialized", ErrInvalidState, c.Name())
	}

	c.fpsCounter.OnGpuWaitStart()
	defer c.fpsCounter.OnGpuWaitEnd()

	switch waitFor {
	case WaitForRenderComplete:
		if err := c.waiter.waitRenderComplete(); err != nil {
			return err
		}
		if err := c.queue.CompleteAllExecution(); err != nil {
			return err
		}
	case WaitForFramePresented:
		if err := c.waiter.waitFramePresented(c.frameBufferIndex); err != nil {
			return err
		}
		if err := c.queue.CompleteExecution(c.frameBufferIndex); err != nil {
			return err
		}
	default:
		return fmt.Errorf("%w: unsupported GPU wait target %q", ErrInvalidConfiguration, waitFor)
	}

	c.manager.GetReleasePool().ReleaseResources()
	return nil
}

// Present flips the current frame buffer to the screen, advances the frame
// buffer index as reported by the backend and grows the monotonic frame
// index by one.
func (c *RenderContext) Present() error {
	if !c.initialized {
		return fmt.Errorf("%w: render context %q is not initialized", ErrInvalidState, c.Name())
	}

	c.fpsCounter.OnPresentStart()
	presentedIndex := c.frameBufferIndex
	nextIndex, err := c.backend.Present(presentedIndex)
	if err != nil {
		return fmt.Errorf("failed to present frame buffer %d: %w", presentedIndex, err)
	}

	// One fence signal per presented frame, even when nothing was
	// submitted: reuse of the frame buffer must never wait forever.
	if err := c.frameFence(presentedIndex).Signal(); err != nil {
		return err
	}

	c.frameBufferIndex = nextIndex % c.settings.FrameBuffersCount
	c.frameIndex++
	c.fpsCounter.OnFramePresented()
	return nil
}

// Resize recreates the swap-chain dependent resources for the new size.
// Descriptor slots of the screen and depth textures are snapshotted before
// teardown and re-claimed by the recreated textures, so program bindings
// referencing them survive the resize untouched.
func (c *RenderContext) Resize(size FrameSize) error {
	if !c.initialized {
		return fmt.Errorf("%w: render context %q is not initialized", ErrInvalidState, c.Name())
	}
	if size.IsZero() || size == c.settings.FrameSize {
		return nil
	}
	core.LogInfo("render context %q resize from %dx%d to %dx%d",
		c.Name(), c.settings.FrameSize.Width, c.settings.FrameSize.Height, size.Width, size.Height)

	if err := c.WaitForGpu(WaitForRenderComplete); err != nil {
		return err
	}

	screenRestore := make([]ResourceRestoreInfo, len(c.frames))
	for i, frame := range c.frames {
		screenRestore[i] = NewResourceRestoreInfo(&frame.ScreenTexture.Resource)
		frame.ScreenTexture.Release()
	}
	depthRestore := NewResourceRestoreInfo(&c.depthTexture.Resource)
	c.depthTexture.Release()
	c.manager.GetReleasePool().ReleaseResources()

	if err := c.backend.Resize(size); err != nil {
		return fmt.Errorf("failed to resize %s backend: %w", c.backend.Name(), err)
	}
	c.settings.FrameSize = size

	return c.createFrames(screenRestore, &depthRestore)
}

// SetVSyncEnabled reports whether the setting actually changed. Changing
// vsync invalidates accumulated frame statistics.
func (c *RenderContext) SetVSyncEnabled(enabled bool) bool {
	if c.settings.VSyncEnabled == enabled {
		return false
	}
	c.settings.VSyncEnabled = enabled
	c.fpsCounter.Reset()
	return true
}

// SetFullScreen reports whether the setting actually changed.
func (c *RenderContext) SetFullScreen(fullScreen bool) bool {
	if c.settings.FullScreen == fullScreen {
		return false
	}
	c.settings.FullScreen = fullScreen
	return true
}

// SetFrameBuffersCount changes the number of swap-chain images, clamped to
// backend bounds, and reports whether the effective value changed. Takes
// effect on the next initialization.
func (c *RenderContext) SetFrameBuffersCount(count uint32) bool {
	previous := c.settings.FrameBuffersCount
	c.settings.FrameBuffersCount = count
	c.invalidateFrameBuffersCount()
	if c.settings.FrameBuffersCount == previous {
		return false
	}
	return true
}

// CompleteInitialization finalizes deferred descriptor heap allocation and
// all registered program bindings.
func (c *RenderContext) CompleteInitialization() error {
	return c.manager.CompleteInitialization()
}

// Release tears the context down: waits for the GPU, releases per-frame
// resources, the resource manager and the backend.
func (c *RenderContext) Release() error {
	if !c.initialized {
		return nil
	}
	if err := c.WaitForGpu(WaitForRenderComplete); err != nil {
		core.LogError(err.Error())
	}

	for _, frame := range c.frames {
		frame.ScreenPass.ReleaseAttachmentTextures()
	}
	c.frames = nil
	c.depthTexture = nil
	c.waiter.release()
	c.manager.Release()
	c.initialized = false

	if err := c.backend.Shutdown(); err != nil {
		return fmt.Errorf("failed to shut down %s backend: %w", c.backend.Name(), err)
	}
	core.LogInfo("render context %q released", c.Name())
	return nil
}
