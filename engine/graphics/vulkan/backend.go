// Package vulkan implements the rendering backend on top of the Vulkan
// API. It covers the capability surface the core needs: descriptor pools,
// command buffer submission, fences, pipeline barriers and swap-chain
// presentation.
package vulkan

import (
	"fmt"
	"sync"

	"github.com/go-gl/glfw/v3.3/glfw"
	vk "github.com/goki/vulkan"
	"github.com/prismengine/prism/engine/core"
	"github.com/prismengine/prism/engine/graphics"
	"github.com/prismengine/prism/engine/platform"
)

// commandBufferState tracks the native command buffer recording for one
// core command list.
type commandBufferState struct {
	handle    vk.CommandBuffer
	recording bool
}

type Backend struct {
	platform *platform.Platform
	context  *Context
	settings graphics.BackendSettings

	mutex          sync.Mutex
	commandBuffers map[*graphics.CommandList]*commandBufferState
	initialized    bool
}

func New(p *platform.Platform) *Backend {
	return &Backend{
		platform: p,
		context: &Context{
			Allocator: nil,
		},
		commandBuffers: make(map[*graphics.CommandList]*commandBufferState),
	}
}

func (b *Backend) Name() string {
	return "Vulkan"
}

func (b *Backend) FrameBuffersBounds() (uint32, uint32) {
	return 2, 4
}

func (b *Backend) Initialize(settings graphics.BackendSettings) error {
	if b.initialized {
		return fmt.Errorf("vulkan backend is already initialized")
	}
	b.settings = settings

	procAddr := glfw.GetVulkanGetInstanceProcAddress()
	if procAddr == nil {
		err := fmt.Errorf("GetInstanceProcAddress is nil")
		core.LogError(err.Error())
		return err
	}
	vk.SetGetInstanceProcAddr(procAddr)

	if err := vk.Init(); err != nil {
		core.LogError("failed to initialize vk: %s", err)
		return err
	}

	appInfo := &vk.ApplicationInfo{
		SType:              vk.StructureTypeApplicationInfo,
		ApiVersion:         uint32(vk.MakeVersion(1, 0, 0)),
		ApplicationVersion: uint32(vk.MakeVersion(1, 0, 0)),
		PApplicationName:   VulkanSafeString(settings.AppName),
		PEngineName:        VulkanSafeString("Prism Engine"),
	}

	requiredExtensions := []string{"VK_KHR_surface"}
	requiredExtensions = append(requiredExtensions, b.platform.GetRequiredExtensionNames()...)

	createInfo := vk.InstanceCreateInfo{
		SType:                   vk.StructureTypeInstanceCreateInfo,
		PApplicationInfo:        appInfo,
		EnabledExtensionCount:   uint32(len(requiredExtensions)),
		PpEnabledExtensionNames: VulkanSafeStrings(requiredExtensions),
	}

	var instance vk.Instance
	if res := vk.CreateInstance(&createInfo, b.context.Allocator, &instance); res != vk.Success {
		err := fmt.Errorf("failed to create vulkan instance")
		core.LogError(err.Error())
		return err
	}
	b.context.Instance = instance
	vk.InitInstance(instance)

	surfacePtr, err := b.platform.Window.CreateWindowSurface(instance, nil)
	if err != nil {
		core.LogError("Vulkan surface creation failed: %s", err)
		return err
	}
	b.context.Surface = vk.SurfaceFromPointer(surfacePtr)

	if err := DeviceCreate(b.context); err != nil {
		return err
	}

	b.context.FramebufferWidth = settings.FrameSize.Width
	b.context.FramebufferHeight = settings.FrameSize.Height

	swapchain, err := SwapchainCreate(b.context, settings.FrameSize.Width, settings.FrameSize.Height,
		settings.FrameBuffersCount, settings.VSyncEnabled)
	if err != nil {
		return err
	}
	b.context.Swapchain = swapchain

	b.initialized = true
	return nil
}

func (b *Backend) Shutdown() error {
	if !b.initialized {
		return nil
	}
	vk.DeviceWaitIdle(b.context.Device.LogicalDevice)

	b.mutex.Lock()
	for list, state := range b.commandBuffers {
		vk.FreeCommandBuffers(b.context.Device.LogicalDevice, b.context.Device.GraphicsCommandPool,
			1, []vk.CommandBuffer{state.handle})
		delete(b.commandBuffers, list)
	}
	b.mutex.Unlock()

	if b.context.Swapchain != nil {
		b.context.Swapchain.SwapchainDestroy(b.context)
		b.context.Swapchain = nil
	}
	DeviceDestroy(b.context)
	if b.context.Surface != nil {
		vk.DestroySurface(b.context.Instance, b.context.Surface, b.context.Allocator)
		b.context.Surface = nil
	}
	if b.context.Instance != nil {
		vk.DestroyInstance(b.context.Instance, b.context.Allocator)
		b.context.Instance = nil
	}
	b.initialized = false
	return nil
}

func (b *Backend) Resize(size graphics.FrameSize) error {
	if !b.initialized {
		return fmt.Errorf("vulkan backend is not initialized")
	}
	b.context.FramebufferWidth = size.Width
	b.context.FramebufferHeight = size.Height

	swapchain, err := b.context.Swapchain.SwapchainRecreate(b.context, size.Width, size.Height,
		b.settings.FrameBuffersCount, b.settings.VSyncEnabled)
	if err != nil {
		return err
	}
	b.context.Swapchain = swapchain
	b.settings.FrameSize = size
	return nil
}

func (b *Backend) AllocateDescriptors(heapType graphics.DescriptorHeapType, size uint32, shaderVisible bool) (graphics.DescriptorBlock, error) {
	return NewDescriptorBlock(b.context, heapType, size)
}

func (b *Backend) CreateFence(signaled bool) (graphics.Fence, error) {
	return NewFence(b.context, signaled)
}

// SubmitCommandList ends the native command buffer recorded for the list
// and submits it to the graphics queue, attaching the fence for completion
// signaling.
func (b *Backend) SubmitCommandList(list *graphics.CommandList, fence graphics.Fence) error {
	state, err := b.ensureCommandBuffer(list)
	if err != nil {
		return err
	}
	if state.recording {
		if res := vk.EndCommandBuffer(state.handle); res != vk.Success {
			err := fmt.Errorf("failed to end command buffer for list %q", list.Name())
			core.LogError(err.Error())
			return err
		}
		state.recording = false
	}

	submitInfo := vk.SubmitInfo{
		SType:              vk.StructureTypeSubmitInfo,
		CommandBufferCount: 1,
		PCommandBuffers:    []vk.CommandBuffer{state.handle},
	}

	var fenceHandle vk.Fence
	nativeFence, isNative := fence.(*Fence)
	if isNative {
		fenceHandle = nativeFence.Handle()
	}

	if res := vk.QueueSubmit(b.context.Device.GraphicsQueue, 1, []vk.SubmitInfo{submitInfo}, fenceHandle); res != vk.Success {
		err := fmt.Errorf("vkQueueSubmit failed for command list %q", list.Name())
		core.LogError(err.Error())
		return err
	}

	if fence != nil && !isNative {
		// Foreign fence implementation: complete synchronously.
		vk.QueueWaitIdle(b.context.Device.GraphicsQueue)
		return fence.Signal()
	}
	return nil
}

// ApplyResourceBarriers records the transitions as a global memory barrier
// into the list's command buffer.
func (b *Backend) ApplyResourceBarriers(list *graphics.CommandList, barriers *graphics.Barriers) error {
	if barriers.IsEmpty() {
		return nil
	}
	state, err := b.ensureCommandBuffer(list)
	if err != nil {
		return err
	}

	var srcAccess, dstAccess vk.AccessFlags
	for _, barrier := range barriers.Items() {
		srcAccess |= accessFlagsFor(barrier.StateBefore)
		dstAccess |= accessFlagsFor(barrier.StateAfter)
	}

	memoryBarrier := vk.MemoryBarrier{
		SType:         vk.StructureTypeMemoryBarrier,
		SrcAccessMask: srcAccess,
		DstAccessMask: dstAccess,
	}
	vk.CmdPipelineBarrier(state.handle,
		vk.PipelineStageFlags(vk.PipelineStageAllCommandsBit),
		vk.PipelineStageFlags(vk.PipelineStageAllCommandsBit),
		0,
		1, []vk.MemoryBarrier{memoryBarrier},
		0, nil,
		0, nil)
	return nil
}

// Present pairs image acquisition and queue presentation around an empty
// submission that links the two semaphores, then reports the acquired
// image index as the next frame buffer to target.
func (b *Backend) Present(frameBufferIndex uint32) (uint32, error) {
	if !b.initialized {
		return 0, fmt.Errorf("vulkan backend is not initialized")
	}
	swapchain := b.context.Swapchain

	imageIndex, err := swapchain.AcquireNextImageIndex(b.context)
	if err != nil {
		return 0, err
	}

	waitStage := vk.PipelineStageFlags(vk.PipelineStageColorAttachmentOutputBit)
	submitInfo := vk.SubmitInfo{
		SType:                vk.StructureTypeSubmitInfo,
		WaitSemaphoreCount:   1,
		PWaitSemaphores:      []vk.Semaphore{swapchain.ImageAvailableSemaphore},
		PWaitDstStageMask:    []vk.PipelineStageFlags{waitStage},
		SignalSemaphoreCount: 1,
		PSignalSemaphores:    []vk.Semaphore{swapchain.RenderCompleteSemaphore},
	}
	if res := vk.QueueSubmit(b.context.Device.GraphicsQueue, 1, []vk.SubmitInfo{submitInfo}, vk.Fence(nil)); res != vk.Success {
		err := fmt.Errorf("vkQueueSubmit failed on present of frame buffer %d", frameBufferIndex)
		core.LogError(err.Error())
		return 0, err
	}

	if err := swapchain.Present(b.context, imageIndex); err != nil {
		return 0, err
	}
	return (imageIndex + 1) % b.settings.FrameBuffersCount, nil
}

// ensureCommandBuffer lazily allocates and begins the native command
// buffer backing a core command list.
func (b *Backend) ensureCommandBuffer(list *graphics.CommandList) (*commandBufferState, error) {
	b.mutex.Lock()
	defer b.mutex.Unlock()

	state, ok := b.commandBuffers[list]
	if !ok {
		allocateInfo := vk.CommandBufferAllocateInfo{
			SType:              vk.StructureTypeCommandBufferAllocateInfo,
			CommandPool:        b.context.Device.GraphicsCommandPool,
			CommandBufferCount: 1,
			Level:              vk.CommandBufferLevelPrimary,
		}
		handles := make([]vk.CommandBuffer, 1)
		if res := vk.AllocateCommandBuffers(b.context.Device.LogicalDevice, &allocateInfo, handles); res != vk.Success {
			err := fmt.Errorf("failed to allocate command buffer for list %q", list.Name())
			core.LogError(err.Error())
			return nil, err
		}
		state = &commandBufferState{handle: handles[0]}
		b.commandBuffers[list] = state
	}

	if !state.recording {
		beginInfo := vk.CommandBufferBeginInfo{
			SType: vk.StructureTypeCommandBufferBeginInfo,
		}
		if res := vk.BeginCommandBuffer(state.handle, &beginInfo); res != vk.Success {
			err := fmt.Errorf("failed to begin command buffer for list %q", list.Name())
			core.LogError(err.Error())
			return nil, err
		}
		state.recording = true
	}
	return state, nil
}

func accessFlagsFor(state graphics.ResourceState) vk.AccessFlags {
	switch state {
	case graphics.ResourceStateVertexAndConstantBuffer:
		return vk.AccessFlags(vk.AccessVertexAttributeReadBit | vk.AccessUniformReadBit)
	case graphics.ResourceStateIndexBuffer:
		return vk.AccessFlags(vk.AccessIndexReadBit)
	case graphics.ResourceStateRenderTarget:
		return vk.AccessFlags(vk.AccessColorAttachmentReadBit | vk.AccessColorAttachmentWriteBit)
	case graphics.ResourceStateDepthWrite:
		return vk.AccessFlags(vk.AccessDepthStencilAttachmentWriteBit)
	case graphics.ResourceStateDepthRead:
		return vk.AccessFlags(vk.AccessDepthStencilAttachmentReadBit)
	case graphics.ResourceStateShaderResource:
		return vk.AccessFlags(vk.AccessShaderReadBit)
	case graphics.ResourceStateCopyDest:
		return vk.AccessFlags(vk.AccessTransferWriteBit)
	case graphics.ResourceStateCopySource:
		return vk.AccessFlags(vk.AccessTransferReadBit)
	case graphics.ResourceStatePresent:
		return vk.AccessFlags(vk.AccessMemoryReadBit)
	}
	return 0
}
