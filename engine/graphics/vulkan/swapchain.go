package vulkan

import (
	"fmt"
	"math"

	vk "github.com/goki/vulkan"
	"github.com/prismengine/prism/engine/core"
)

// Swapchain owns the presentable images and the semaphores pacing their
// acquisition and presentation.
type Swapchain struct {
	Handle      vk.Swapchain
	ImageFormat vk.SurfaceFormat
	ImageCount  uint32
	Images      []vk.Image
	Views       []vk.ImageView

	ImageAvailableSemaphore vk.Semaphore
	RenderCompleteSemaphore vk.Semaphore
}

func SwapchainCreate(context *Context, width, height uint32, imageCount uint32, vsync bool) (*Swapchain, error) {
	return createSwapchain(context, width, height, imageCount, vsync, nil)
}

func (vs *Swapchain) SwapchainRecreate(context *Context, width, height uint32, imageCount uint32, vsync bool) (*Swapchain, error) {
	oldHandle := vs.Handle
	vs.destroySwapchain(context, false)
	return createSwapchain(context, width, height, imageCount, vsync, oldHandle)
}

func (vs *Swapchain) SwapchainDestroy(context *Context) {
	vs.destroySwapchain(context, true)
}

// AcquireNextImageIndex blocks until the next presentable image is
// available and returns its index.
func (vs *Swapchain) AcquireNextImageIndex(context *Context) (uint32, error) {
	var imageIndex uint32
	result := vk.AcquireNextImage(context.Device.LogicalDevice, vs.Handle, math.MaxUint64,
		vs.ImageAvailableSemaphore, vk.Fence(nil), &imageIndex)
	if result != vk.Success && result != vk.Suboptimal {
		err := fmt.Errorf("failed to acquire swapchain image: result %d", result)
		core.LogError(err.Error())
		return 0, err
	}
	return imageIndex, nil
}

// Present returns the image to the swapchain for presentation, waiting on
// the render complete semaphore.
func (vs *Swapchain) Present(context *Context, presentImageIndex uint32) error {
	presentInfo := vk.PresentInfo{
		SType:              vk.StructureTypePresentInfo,
		WaitSemaphoreCount: 1,
		PWaitSemaphores:    []vk.Semaphore{vs.RenderCompleteSemaphore},
		SwapchainCount:     1,
		PSwapchains:        []vk.Swapchain{vs.Handle},
		PImageIndices:      []uint32{presentImageIndex},
	}

	result := vk.QueuePresent(context.Device.GraphicsQueue, &presentInfo)
	if result != vk.Success && result != vk.Suboptimal && result != vk.ErrorOutOfDate {
		err := fmt.Errorf("failed to present swapchain image: result %d", result)
		core.LogError(err.Error())
		return err
	}
	return nil
}

func createSwapchain(context *Context, width, height uint32, imageCount uint32, vsync bool, oldSwapchain vk.Swapchain) (*Swapchain, error) {
	swapchain := &Swapchain{}

	var capabilities vk.SurfaceCapabilities
	if res := vk.GetPhysicalDeviceSurfaceCapabilities(context.Device.PhysicalDevice, context.Surface, &capabilities); res != vk.Success {
		err := fmt.Errorf("failed to query surface capabilities")
		core.LogError(err.Error())
		return nil, err
	}
	capabilities.Deref()

	var formatCount uint32
	vk.GetPhysicalDeviceSurfaceFormats(context.Device.PhysicalDevice, context.Surface, &formatCount, nil)
	formats := make([]vk.SurfaceFormat, formatCount)
	vk.GetPhysicalDeviceSurfaceFormats(context.Device.PhysicalDevice, context.Surface, &formatCount, formats)

	found := false
	for i := range formats {
		formats[i].Deref()
		if formats[i].Format == vk.FormatB8g8r8a8Unorm && formats[i].ColorSpace == vk.ColorSpaceSrgbNonlinear {
			swapchain.ImageFormat = formats[i]
			found = true
			break
		}
	}
	if !found && formatCount > 0 {
		swapchain.ImageFormat = formats[0]
	}

	// Fifo is the vsync mode and the only one guaranteed to exist.
	presentMode := vk.PresentModeFifo
	if !vsync {
		var presentModeCount uint32
		vk.GetPhysicalDeviceSurfacePresentModes(context.Device.PhysicalDevice, context.Surface, &presentModeCount, nil)
		presentModes := make([]vk.PresentMode, presentModeCount)
		vk.GetPhysicalDeviceSurfacePresentModes(context.Device.PhysicalDevice, context.Surface, &presentModeCount, presentModes)
		for _, mode := range presentModes {
			if mode == vk.PresentModeMailbox || mode == vk.PresentModeImmediate {
				presentMode = mode
				break
			}
		}
	}

	swapchainExtent := vk.Extent2D{Width: width, Height: height}
	if capabilities.CurrentExtent.Width != math.MaxUint32 {
		swapchainExtent = capabilities.CurrentExtent
	}
	swapchainExtent.Width = clamp(swapchainExtent.Width, capabilities.MinImageExtent.Width, capabilities.MaxImageExtent.Width)
	swapchainExtent.Height = clamp(swapchainExtent.Height, capabilities.MinImageExtent.Height, capabilities.MaxImageExtent.Height)

	if imageCount < capabilities.MinImageCount {
		imageCount = capabilities.MinImageCount
	}
	if capabilities.MaxImageCount > 0 && imageCount > capabilities.MaxImageCount {
		imageCount = capabilities.MaxImageCount
	}

	swapchainCreateInfo := vk.SwapchainCreateInfo{
		SType:            vk.StructureTypeSwapchainCreateInfo,
		Surface:          context.Surface,
		MinImageCount:    imageCount,
		ImageFormat:      swapchain.ImageFormat.Format,
		ImageColorSpace:  swapchain.ImageFormat.ColorSpace,
		ImageExtent:      swapchainExtent,
		ImageArrayLayers: 1,
		ImageUsage:       vk.ImageUsageFlags(vk.ImageUsageColorAttachmentBit),
		ImageSharingMode: vk.SharingModeExclusive,
		PreTransform:     capabilities.CurrentTransform,
		CompositeAlpha:   vk.CompositeAlphaOpaqueBit,
		PresentMode:      presentMode,
		Clipped:          vk.True,
		OldSwapchain:     oldSwapchain,
	}

	var swapchainHandle vk.Swapchain
	if res := vk.CreateSwapchain(context.Device.LogicalDevice, &swapchainCreateInfo, context.Allocator, &swapchainHandle); res != vk.Success {
		err := fmt.Errorf("failed to create swapchain")
		core.LogError(err.Error())
		return nil, err
	}
	swapchain.Handle = swapchainHandle
	if oldSwapchain != nil {
		vk.DestroySwapchain(context.Device.LogicalDevice, oldSwapchain, context.Allocator)
	}

	if res := vk.GetSwapchainImages(context.Device.LogicalDevice, swapchain.Handle, &swapchain.ImageCount, nil); res != vk.Success {
		err := fmt.Errorf("failed to get swapchain images")
		core.LogError(err.Error())
		return nil, err
	}
	swapchain.Images = make([]vk.Image, swapchain.ImageCount)
	swapchain.Views = make([]vk.ImageView, swapchain.ImageCount)
	if res := vk.GetSwapchainImages(context.Device.LogicalDevice, swapchain.Handle, &swapchain.ImageCount, swapchain.Images); res != vk.Success {
		err := fmt.Errorf("failed to get swapchain images")
		core.LogError(err.Error())
		return nil, err
	}

	for i := 0; i < int(swapchain.ImageCount); i++ {
		viewInfo := vk.ImageViewCreateInfo{
			SType:    vk.StructureTypeImageViewCreateInfo,
			Image:    swapchain.Images[i],
			ViewType: vk.ImageViewType2d,
			Format:   swapchain.ImageFormat.Format,
			SubresourceRange: vk.ImageSubresourceRange{
				AspectMask: vk.ImageAspectFlags(vk.ImageAspectColorBit),
				LevelCount: 1,
				LayerCount: 1,
			},
		}
		if res := vk.CreateImageView(context.Device.LogicalDevice, &viewInfo, context.Allocator, &swapchain.Views[i]); res != vk.Success {
			err := fmt.Errorf("failed to create swapchain image view")
			core.LogError(err.Error())
			return nil, err
		}
	}

	semaphoreCreateInfo := vk.SemaphoreCreateInfo{
		SType: vk.StructureTypeSemaphoreCreateInfo,
	}
	if res := vk.CreateSemaphore(context.Device.LogicalDevice, &semaphoreCreateInfo, context.Allocator, &swapchain.ImageAvailableSemaphore); res != vk.Success {
		err := fmt.Errorf("failed to create semaphore on image available")
		core.LogError(err.Error())
		return nil, err
	}
	if res := vk.CreateSemaphore(context.Device.LogicalDevice, &semaphoreCreateInfo, context.Allocator, &swapchain.RenderCompleteSemaphore); res != vk.Success {
		err := fmt.Errorf("failed to create semaphore on render complete")
		core.LogError(err.Error())
		return nil, err
	}

	core.LogInfo("Swapchain created with %d images.", swapchain.ImageCount)
	return swapchain, nil
}

func (vs *Swapchain) destroySwapchain(context *Context, destroyHandle bool) {
	vk.DeviceWaitIdle(context.Device.LogicalDevice)

	if vs.ImageAvailableSemaphore != nil {
		vk.DestroySemaphore(context.Device.LogicalDevice, vs.ImageAvailableSemaphore, context.Allocator)
		vs.ImageAvailableSemaphore = nil
	}
	if vs.RenderCompleteSemaphore != nil {
		vk.DestroySemaphore(context.Device.LogicalDevice, vs.RenderCompleteSemaphore, context.Allocator)
		vs.RenderCompleteSemaphore = nil
	}

	// Only destroy the views, not the images, since those are owned by the
	// swapchain itself.
	for i := 0; i < int(vs.ImageCount); i++ {
		vk.DestroyImageView(context.Device.LogicalDevice, vs.Views[i], context.Allocator)
	}
	if destroyHandle && vs.Handle != nil {
		vk.DestroySwapchain(context.Device.LogicalDevice, vs.Handle, context.Allocator)
		vs.Handle = nil
	}
}

func clamp(value, low, high uint32) uint32 {
	if value < low {
		return low
	}
	if value > high {
		return high
	}
	return value
}
