package vulkan

import (
	"fmt"

	vk "github.com/goki/vulkan"
	"github.com/prismengine/prism/engine/core"
)

// Device holds the selected physical device, its logical device and the
// graphics queue used for submission and presentation.
type Device struct {
	PhysicalDevice     vk.PhysicalDevice
	LogicalDevice      vk.Device
	GraphicsQueueIndex int32
	GraphicsQueue      vk.Queue

	GraphicsCommandPool vk.CommandPool

	Properties vk.PhysicalDeviceProperties
}

// DeviceCreate selects the first physical device exposing a graphics
// queue family, creates the logical device, fetches the graphics queue
// and creates the command pool for it.
func DeviceCreate(context *Context) error {
	var deviceCount uint32
	if res := vk.EnumeratePhysicalDevices(context.Instance, &deviceCount, nil); res != vk.Success || deviceCount == 0 {
		err := fmt.Errorf("no Vulkan capable physical devices found")
		core.LogError(err.Error())
		return err
	}
	physicalDevices := make([]vk.PhysicalDevice, deviceCount)
	if res := vk.EnumeratePhysicalDevices(context.Instance, &deviceCount, physicalDevices); res != vk.Success {
		err := fmt.Errorf("failed to enumerate physical devices")
		core.LogError(err.Error())
		return err
	}

	device := &Device{GraphicsQueueIndex: -1}
	for _, candidate := range physicalDevices {
		queueIndex := findGraphicsQueueFamily(candidate)
		if queueIndex < 0 {
			continue
		}
		device.PhysicalDevice = candidate
		device.GraphicsQueueIndex = queueIndex
		vk.GetPhysicalDeviceProperties(candidate, &device.Properties)
		device.Properties.Deref()
		break
	}
	if device.GraphicsQueueIndex < 0 {
		err := fmt.Errorf("no physical device with a graphics queue family found")
		core.LogError(err.Error())
		return err
	}

	queueCreateInfo := vk.DeviceQueueCreateInfo{
		SType:            vk.StructureTypeDeviceQueueCreateInfo,
		QueueFamilyIndex: uint32(device.GraphicsQueueIndex),
		QueueCount:       1,
		PQueuePriorities: []float32{1.0},
	}
	deviceCreateInfo := vk.DeviceCreateInfo{
		SType:                   vk.StructureTypeDeviceCreateInfo,
		QueueCreateInfoCount:    1,
		PQueueCreateInfos:       []vk.DeviceQueueCreateInfo{queueCreateInfo},
		EnabledExtensionCount:   1,
		PpEnabledExtensionNames: VulkanSafeStrings([]string{vk.KhrSwapchainExtensionName}),
	}

	var logicalDevice vk.Device
	if res := vk.CreateDevice(device.PhysicalDevice, &deviceCreateInfo, context.Allocator, &logicalDevice); res != vk.Success {
		err := fmt.Errorf("failed to create logical device")
		core.LogError(err.Error())
		return err
	}
	device.LogicalDevice = logicalDevice

	var queue vk.Queue
	vk.GetDeviceQueue(device.LogicalDevice, uint32(device.GraphicsQueueIndex), 0, &queue)
	device.GraphicsQueue = queue

	poolCreateInfo := vk.CommandPoolCreateInfo{
		SType:            vk.StructureTypeCommandPoolCreateInfo,
		QueueFamilyIndex: uint32(device.GraphicsQueueIndex),
		Flags:            vk.CommandPoolCreateFlags(vk.CommandPoolCreateResetCommandBufferBit),
	}
	if res := vk.CreateCommandPool(device.LogicalDevice, &poolCreateInfo, context.Allocator, &device.GraphicsCommandPool); res != vk.Success {
		err := fmt.Errorf("failed to create graphics command pool")
		core.LogError(err.Error())
		return err
	}

	context.Device = device
	core.LogInfo("Vulkan logical device created.")
	return nil
}

func DeviceDestroy(context *Context) {
	if context.Device == nil {
		return
	}
	if context.Device.GraphicsCommandPool != nil {
		vk.DestroyCommandPool(context.Device.LogicalDevice, context.Device.GraphicsCommandPool, context.Allocator)
	}
	if context.Device.LogicalDevice != nil {
		vk.DestroyDevice(context.Device.LogicalDevice, context.Allocator)
	}
	context.Device = nil
}

func findGraphicsQueueFamily(device vk.PhysicalDevice) int32 {
	var familyCount uint32
	vk.GetPhysicalDeviceQueueFamilyProperties(device, &familyCount, nil)
	families := make([]vk.QueueFamilyProperties, familyCount)
	vk.GetPhysicalDeviceQueueFamilyProperties(device, &familyCount, families)

	for i := range families {
		families[i].Deref()
		if families[i].QueueFlags&vk.QueueFlags(vk.QueueGraphicsBit) != 0 {
			return int32(i)
		}
	}
	return -1
}
