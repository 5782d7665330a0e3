package vulkan

import vk "github.com/goki/vulkan"

// Context bundles the native Vulkan handles shared by the backend parts.
type Context struct {
	Instance  vk.Instance
	Allocator *vk.AllocationCallbacks
	Surface   vk.Surface

	Device *Device

	Swapchain *Swapchain

	FramebufferWidth  uint32
	FramebufferHeight uint32
}
