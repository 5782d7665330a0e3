package graphics

import "fmt"

type TextureType uint8

const (
	TextureTypeImage TextureType = iota
	TextureTypeFrameBuffer
	TextureTypeDepthStencil
)

func (t TextureType) String() string {
	switch t {
	case TextureTypeImage:
		return "Image"
	case TextureTypeFrameBuffer:
		return "FrameBuffer"
	case TextureTypeDepthStencil:
		return "DepthStencil"
	}
	return "Unknown"
}

// Texture is a GPU image resource. Frame-buffer and depth-stencil textures
// are owned by the render context and recreated on resize; image textures
// are application assets.
type Texture struct {
	Resource

	textureType      TextureType
	format           PixelFormat
	size             FrameSize
	frameBufferIndex uint32
}

func (t *Texture) TextureType() TextureType {
	return t.textureType
}

func (t *Texture) Format() PixelFormat {
	return t.format
}

func (t *Texture) Size() FrameSize {
	return t.size
}

// FrameBufferIndex is meaningful for frame-buffer textures only.
func (t *Texture) FrameBufferIndex() uint32 {
	return t.frameBufferIndex
}

// NewFrameBufferTexture creates the render-target texture backing one
// frame buffer of the swap-chain. When a restore snapshot is given (after
// a resize), the texture claims the exact descriptor slots it held before
// so existing bindings keep working.
func NewFrameBufferTexture(manager *ResourceManager, frameBufferIndex uint32, size FrameSize, format PixelFormat, restore *ResourceRestoreInfo) (*Texture, error) {
	if size.IsZero() {
		return nil, fmt.Errorf("%w: frame buffer texture requires a non-zero size", ErrInvalidConfiguration)
	}

	name := fmt.Sprintf("Frame Buffer %d", frameBufferIndex)
	if restore != nil && restore.Name != "" {
		name = restore.Name
	}

	texture := &Texture{
		Resource:         newResource(manager, ResourceTypeTexture, name),
		textureType:      TextureTypeFrameBuffer,
		format:           format,
		size:             size,
		frameBufferIndex: frameBufferIndex,
	}
	if err := texture.initDescriptors(manager, DescriptorHeapRenderTargets, ResourceUsageRenderTarget, restore); err != nil {
		return nil, err
	}
	return texture, nil
}

// NewDepthStencilTexture creates the depth-stencil attachment texture
// shared by all frame buffers.
func NewDepthStencilTexture(manager *ResourceManager, size FrameSize, format PixelFormat, restore *ResourceRestoreInfo) (*Texture, error) {
	if size.IsZero() {
		return nil, fmt.Errorf("%w: depth stencil texture requires a non-zero size", ErrInvalidConfiguration)
	}
	if !format.IsDepth() {
		return nil, fmt.Errorf("%w: depth stencil texture requires a depth format, got %q",
			ErrInvalidConfiguration, format)
	}

	name := "Depth Stencil"
	if restore != nil && restore.Name != "" {
		name = restore.Name
	}

	texture := &Texture{
		Resource:    newResource(manager, ResourceTypeTexture, name),
		textureType: TextureTypeDepthStencil,
		format:      format,
		size:        size,
	}
	if err := texture.initDescriptors(manager, DescriptorHeapDepthStencil, ResourceUsageDepthStencil, restore); err != nil {
		return nil, err
	}
	return texture, nil
}

// NewImageTexture creates a shader-readable image texture.
func NewImageTexture(manager *ResourceManager, name string, size FrameSize, format PixelFormat) (*Texture, error) {
	if size.IsZero() {
		return nil, fmt.Errorf("%w: image texture %q requires a non-zero size", ErrInvalidConfiguration, name)
	}

	texture := &Texture{
		Resource:    newResource(manager, ResourceTypeTexture, name),
		textureType: TextureTypeImage,
		format:      format,
		size:        size,
	}
	if err := texture.initDescriptors(manager, DescriptorHeapShaderResources, ResourceUsageShaderRead, nil); err != nil {
		return nil, err
	}
	return texture, nil
}

// initDescriptors assigns descriptor slots for the texture's primary usage,
// either fresh from the default heap of heapType or re-claimed from a
// restore snapshot.
func (t *Texture) initDescriptors(manager *ResourceManager, heapType DescriptorHeapType, usage ResourceUsage, restore *ResourceRestoreInfo) error {
	if manager == nil {
		return nil
	}

	if restore != nil && len(restore.DescriptorByUsage) > 0 {
		for restoredUsage, descriptor := range restore.DescriptorByUsage {
			if descriptor.Heap == nil {
				continue
			}
			if err := descriptor.Heap.ReserveDescriptorAt(descriptor.Index); err != nil {
				return err
			}
			t.setDescriptor(restoredUsage, descriptor)
		}
		return nil
	}

	heap, err := manager.GetDefaultDescriptorHeap(heapType)
	if err != nil {
		return err
	}
	index, err := heap.ReserveDescriptor()
	if err != nil {
		return err
	}
	t.setDescriptor(usage, Descriptor{Heap: heap, Index: index})
	return nil
}
