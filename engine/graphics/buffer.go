package graphics

import "fmt"

type BufferType uint8

const (
	BufferTypeVertex BufferType = iota
	BufferTypeIndex
	BufferTypeConstant
)

func (t BufferType) String() string {
	switch t {
	case BufferTypeVertex:
		return "Vertex"
	case BufferTypeIndex:
		return "Index"
	case BufferTypeConstant:
		return "Constant"
	}
	return "Unknown"
}

// Buffer is a linear GPU resource holding vertex, index or constant data.
type Buffer struct {
	Resource

	bufferType BufferType
	byteSize   uint32
	stride     uint32
}

func (b *Buffer) BufferType() BufferType {
	return b.bufferType
}

func (b *Buffer) ByteSize() uint32 {
	return b.byteSize
}

// ElementCount derives the element count from size and stride.
func (b *Buffer) ElementCount() uint32 {
	if b.stride == 0 {
		return 0
	}
	return b.byteSize / b.stride
}

// NewVertexBuffer creates a vertex buffer for elements of the given stride.
func NewVertexBuffer(manager *ResourceManager, name string, byteSize, stride uint32) (*Buffer, error) {
	if byteSize == 0 || stride == 0 {
		return nil, fmt.Errorf("%w: vertex buffer %q requires non-zero size and stride",
			ErrInvalidConfiguration, name)
	}
	buffer := &Buffer{
		Resource:   newResource(manager, ResourceTypeBuffer, name),
		bufferType: BufferTypeVertex,
		byteSize:   byteSize,
		stride:     stride,
	}
	buffer.SetState(ResourceStateVertexAndConstantBuffer, nil)
	return buffer, nil
}

// NewIndexBuffer creates an index buffer of 32-bit indices.
func NewIndexBuffer(manager *ResourceManager, name string, indexCount uint32) (*Buffer, error) {
	if indexCount == 0 {
		return nil, fmt.Errorf("%w: index buffer %q requires a non-zero index count",
			ErrInvalidConfiguration, name)
	}
	const indexStride = 4
	buffer := &Buffer{
		Resource:   newResource(manager, ResourceTypeBuffer, name),
		bufferType: BufferTypeIndex,
		byteSize:   indexCount * indexStride,
		stride:     indexStride,
	}
	buffer.SetState(ResourceStateIndexBuffer, nil)
	return buffer, nil
}

// NewConstantBuffer creates a shader constant buffer and reserves its
// shader-read descriptor from the default CPU heap.
func NewConstantBuffer(manager *ResourceManager, name string, byteSize uint32) (*Buffer, error) {
	if byteSize == 0 {
		return nil, fmt.Errorf("%w: constant buffer %q requires a non-zero size",
			ErrInvalidConfiguration, name)
	}
	buffer := &Buffer{
		Resource:   newResource(manager, ResourceTypeBuffer, name),
		bufferType: BufferTypeConstant,
		byteSize:   byteSize,
		stride:     byteSize,
	}
	buffer.SetState(ResourceStateVertexAndConstantBuffer, nil)

	if manager != nil {
		heap, err := manager.GetDefaultDescriptorHeap(DescriptorHeapShaderResources)
		if err != nil {
			return nil, err
		}
		index, err := heap.ReserveDescriptor()
		if err != nil {
			return nil, err
		}
		buffer.setDescriptor(ResourceUsageShaderRead, Descriptor{Heap: heap, Index: index})
	}
	return buffer, nil
}
