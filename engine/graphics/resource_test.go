package graphics_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/prismengine/prism/engine/graphics"
)

func TestResourceSetStateRecordsBarriers(t *testing.T) {
	context, _ := newTestContext(t)
	texture, err := graphics.NewImageTexture(context.GetResourceManager(), "State Texture",
		graphics.FrameSize{Width: 16, Height: 16}, graphics.PixelFormatRGBA8Unorm)
	require.NoError(t, err)

	assert.Equal(t, graphics.ResourceStateCommon, texture.State())

	barriers := &graphics.Barriers{}
	assert.True(t, texture.SetState(graphics.ResourceStateShaderResource, barriers))
	require.Len(t, barriers.Items(), 1)
	barrier := barriers.Items()[0]
	assert.Equal(t, graphics.ResourceStateCommon, barrier.StateBefore)
	assert.Equal(t, graphics.ResourceStateShaderResource, barrier.StateAfter)

	// Setting the same state again records nothing.
	assert.False(t, texture.SetState(graphics.ResourceStateShaderResource, barriers))
	assert.Len(t, barriers.Items(), 1)
}

func TestResourceReleaseIsDeferred(t *testing.T) {
	context, _ := newTestContext(t)
	manager := context.GetResourceManager()
	pool := manager.GetReleasePool()

	texture, err := graphics.NewImageTexture(manager, "Deferred Texture",
		graphics.FrameSize{Width: 16, Height: 16}, graphics.PixelFormatRGBA8Unorm)
	require.NoError(t, err)
	descriptor, ok := texture.Descriptor(graphics.ResourceUsageShaderRead)
	require.True(t, ok)
	heap := descriptor.Heap
	reservedBefore := heap.AllocatedCount()

	texture.Release()
	assert.True(t, texture.IsReleased())
	assert.Equal(t, 1, pool.PendingCount())
	// The descriptor slot is still held until the pool drains.
	assert.Equal(t, reservedBefore, heap.AllocatedCount())

	// Releasing twice does not queue the resource again.
	texture.Release()
	assert.Equal(t, 1, pool.PendingCount())

	pool.ReleaseResources()
	assert.Equal(t, 0, pool.PendingCount())
	assert.Equal(t, reservedBefore-1, heap.AllocatedCount())
	_, ok = texture.Descriptor(graphics.ResourceUsageShaderRead)
	assert.False(t, ok)
}

func TestResourceRestoreInfoSnapshot(t *testing.T) {
	context, _ := newTestContext(t)
	texture, err := graphics.NewImageTexture(context.GetResourceManager(), "Snapshot Texture",
		graphics.FrameSize{Width: 16, Height: 16}, graphics.PixelFormatRGBA8Unorm)
	require.NoError(t, err)

	restore := graphics.NewResourceRestoreInfo(&texture.Resource)
	assert.Equal(t, "Snapshot Texture", restore.Name)
	require.Len(t, restore.DescriptorByUsage, 1)

	descriptor, ok := texture.Descriptor(graphics.ResourceUsageShaderRead)
	require.True(t, ok)
	assert.Equal(t, descriptor, restore.DescriptorByUsage[graphics.ResourceUsageShaderRead])

	assert.Empty(t, graphics.NewResourceRestoreInfo(nil).DescriptorByUsage)
}

func TestBufferConstructors(t *testing.T) {
	context, _ := newTestContext(t)
	manager := context.GetResourceManager()

	vertex, err := graphics.NewVertexBuffer(manager, "Vertices", 4*32, 32)
	require.NoError(t, err)
	assert.Equal(t, graphics.BufferTypeVertex, vertex.BufferType())
	assert.Equal(t, uint32(4), vertex.ElementCount())
	assert.Equal(t, graphics.ResourceStateVertexAndConstantBuffer, vertex.State())

	index, err := graphics.NewIndexBuffer(manager, "Indices", 6)
	require.NoError(t, err)
	assert.Equal(t, uint32(6), index.ElementCount())
	assert.Equal(t, uint32(24), index.ByteSize())
	assert.Equal(t, graphics.ResourceStateIndexBuffer, index.State())

	constant, err := graphics.NewConstantBuffer(manager, "Uniforms", 256)
	require.NoError(t, err)
	assert.Equal(t, graphics.ResourceStateVertexAndConstantBuffer, constant.State())
	_, ok := constant.Descriptor(graphics.ResourceUsageShaderRead)
	assert.True(t, ok)

	_, err = graphics.NewVertexBuffer(manager, "Broken", 0, 32)
	require.ErrorIs(t, err, graphics.ErrInvalidConfiguration)
	_, err = graphics.NewIndexBuffer(manager, "Broken", 0)
	require.ErrorIs(t, err, graphics.ErrInvalidConfiguration)
	_, err = graphics.NewConstantBuffer(manager, "Broken", 0)
	require.ErrorIs(t, err, graphics.ErrInvalidConfiguration)
}

func TestTextureConstructorsValidateInput(t *testing.T) {
	context, _ := newTestContext(t)
	manager := context.GetResourceManager()

	_, err := graphics.NewFrameBufferTexture(manager, 0, graphics.FrameSize{}, graphics.PixelFormatBGRA8Unorm, nil)
	require.ErrorIs(t, err, graphics.ErrInvalidConfiguration)

	_, err = graphics.NewDepthStencilTexture(manager, graphics.FrameSize{Width: 4, Height: 4}, graphics.PixelFormatRGBA8Unorm, nil)
	require.ErrorIs(t, err, graphics.ErrInvalidConfiguration)

	_, err = graphics.NewImageTexture(manager, "Broken", graphics.FrameSize{}, graphics.PixelFormatRGBA8Unorm)
	require.ErrorIs(t, err, graphics.ErrInvalidConfiguration)
}
