package vulkan

import (
	"fmt"
	"math"
	"sync"

	vk "github.com/goki/vulkan"
	"github.com/prismengine/prism/engine/core"
)

// Fence wraps a native Vulkan fence behind the core completion signal
// interface. Signal enqueues an empty submission on the graphics queue, so
// the fence signals once all previously submitted work has finished.
type Fence struct {
	context *Context

	mutex    sync.Mutex
	handle   vk.Fence
	signaled bool
	// pending is set while a queued signal is in flight: a fence must not
	// be handed to another queue submission until it was waited and reset.
	pending bool
}

func NewFence(context *Context, createSignaled bool) (*Fence, error) {
	fenceCreateInfo := vk.FenceCreateInfo{
		SType: vk.StructureTypeFenceCreateInfo,
	}
	if createSignaled {
		fenceCreateInfo.Flags = vk.FenceCreateFlags(vk.FenceCreateSignaledBit)
	}

	var handle vk.Fence
	if res := vk.CreateFence(context.Device.LogicalDevice, &fenceCreateInfo, context.Allocator, &handle); res != vk.Success {
		err := fmt.Errorf("failed to create fence")
		core.LogError(err.Error())
		return nil, err
	}
	return &Fence{
		context:  context,
		handle:   handle,
		signaled: createSignaled,
	}, nil
}

func (f *Fence) Handle() vk.Fence {
	return f.handle
}

func (f *Fence) Signal() error {
	f.mutex.Lock()
	defer f.mutex.Unlock()

	if f.signaled || f.pending {
		return nil
	}
	if res := vk.QueueSubmit(f.context.Device.GraphicsQueue, 0, nil, f.handle); res != vk.Success {
		err := fmt.Errorf("failed to enqueue fence signal: result %d", res)
		core.LogError(err.Error())
		return err
	}
	f.pending = true
	return nil
}

func (f *Fence) Wait() error {
	f.mutex.Lock()
	defer f.mutex.Unlock()

	if f.signaled {
		return nil
	}

	result := vk.WaitForFences(f.context.Device.LogicalDevice, 1, []vk.Fence{f.handle}, vk.True, math.MaxUint64)
	if result != vk.Success {
		err := fmt.Errorf("failed to wait for fence: result %d", result)
		core.LogError(err.Error())
		return err
	}
	f.signaled = true
	f.pending = false
	return nil
}

func (f *Fence) Reset() error {
	f.mutex.Lock()
	defer f.mutex.Unlock()

	if res := vk.ResetFences(f.context.Device.LogicalDevice, 1, []vk.Fence{f.handle}); res != vk.Success {
		err := fmt.Errorf("failed to reset fence")
		core.LogError(err.Error())
		return err
	}
	f.signaled = false
	f.pending = false
	return nil
}

func (f *Fence) IsSignaled() bool {
	f.mutex.Lock()
	defer f.mutex.Unlock()
	if f.signaled {
		return true
	}
	return vk.GetFenceStatus(f.context.Device.LogicalDevice, f.handle) == vk.Success
}

func (f *Fence) Destroy() {
	f.mutex.Lock()
	defer f.mutex.Unlock()
	if f.handle != nil {
		vk.DestroyFence(f.context.Device.LogicalDevice, f.handle, f.context.Allocator)
		f.handle = nil
	}
	f.signaled = false
}
