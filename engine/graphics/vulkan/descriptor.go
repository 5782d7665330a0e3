package vulkan

import (
	"fmt"

	vk "github.com/goki/vulkan"
	"github.com/prismengine/prism/engine/core"
	"github.com/prismengine/prism/engine/graphics"
)

// descriptorTypeFor maps a core heap type to the native descriptor type
// used to size the pool.
func descriptorTypeFor(heapType graphics.DescriptorHeapType) (vk.DescriptorType, error) {
	switch heapType {
	case graphics.DescriptorHeapShaderResources:
		return vk.DescriptorTypeCombinedImageSampler, nil
	case graphics.DescriptorHeapSamplers:
		return vk.DescriptorTypeSampler, nil
	case graphics.DescriptorHeapRenderTargets:
		return vk.DescriptorTypeInputAttachment, nil
	case graphics.DescriptorHeapDepthStencil:
		return vk.DescriptorTypeInputAttachment, nil
	}
	return vk.DescriptorTypeSampler, fmt.Errorf("unsupported descriptor heap type %q", heapType)
}

// DescriptorBlock owns one native descriptor pool sized for a heap.
type DescriptorBlock struct {
	context *Context
	handle  vk.DescriptorPool
	size    uint32
}

func NewDescriptorBlock(context *Context, heapType graphics.DescriptorHeapType, size uint32) (*DescriptorBlock, error) {
	descriptorType, err := descriptorTypeFor(heapType)
	if err != nil {
		core.LogError(err.Error())
		return nil, err
	}

	poolCreateInfo := vk.DescriptorPoolCreateInfo{
		SType:         vk.StructureTypeDescriptorPoolCreateInfo,
		Flags:         vk.DescriptorPoolCreateFlags(vk.DescriptorPoolCreateFreeDescriptorSetBit),
		MaxSets:       size,
		PoolSizeCount: 1,
		PPoolSizes: []vk.DescriptorPoolSize{{
			Type:            descriptorType,
			DescriptorCount: size,
		}},
	}

	var handle vk.DescriptorPool
	if res := vk.CreateDescriptorPool(context.Device.LogicalDevice, &poolCreateInfo, context.Allocator, &handle); res != vk.Success {
		err := fmt.Errorf("failed to create descriptor pool for %q heap of size %d", heapType, size)
		core.LogError(err.Error())
		return nil, err
	}
	return &DescriptorBlock{
		context: context,
		handle:  handle,
		size:    size,
	}, nil
}

func (b *DescriptorBlock) Size() uint32 {
	return b.size
}

func (b *DescriptorBlock) Release() {
	if b.handle != nil {
		vk.DestroyDescriptorPool(b.context.Device.LogicalDevice, b.handle, b.context.Allocator)
		b.handle = nil
	}
}
