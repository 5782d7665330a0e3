package null

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/prismengine/prism/engine/graphics"
)

func newInitializedBackend(t *testing.T) *Backend {
	t.Helper()
	backend := NewBackend()
	require.NoError(t, backend.Initialize(graphics.BackendSettings{
		AppName:           "Null Test",
		FrameSize:         graphics.FrameSize{Width: 640, Height: 480},
		FrameBuffersCount: 3,
	}))
	return backend
}

func TestBackendInitialize(t *testing.T) {
	backend := newInitializedBackend(t)

	err := backend.Initialize(graphics.BackendSettings{FrameBuffersCount: 3})
	require.Error(t, err)

	require.NoError(t, backend.Shutdown())
	// Shut down backends can be initialized again.
	require.NoError(t, backend.Initialize(graphics.BackendSettings{FrameBuffersCount: 2}))
}

func TestBackendRejectsZeroFrameBuffers(t *testing.T) {
	err := NewBackend().Initialize(graphics.BackendSettings{})
	require.Error(t, err)
}

func TestBackendFenceSignalsOnSubmit(t *testing.T) {
	backend := newInitializedBackend(t)

	fence, err := backend.CreateFence(false)
	require.NoError(t, err)
	assert.False(t, fence.IsSignaled())

	require.NoError(t, backend.SubmitCommandList(nil, fence))
	assert.True(t, fence.IsSignaled())
	assert.Equal(t, 1, backend.SubmittedCount())

	require.NoError(t, fence.Reset())
	assert.False(t, fence.IsSignaled())
	// Wait never blocks: there is no GPU to wait for.
	require.NoError(t, fence.Wait())
}

func TestBackendPresentRoundRobin(t *testing.T) {
	backend := newInitializedBackend(t)

	next, err := backend.Present(0)
	require.NoError(t, err)
	assert.Equal(t, uint32(1), next)

	next, err = backend.Present(2)
	require.NoError(t, err)
	assert.Equal(t, uint32(0), next)
	assert.Equal(t, 2, backend.PresentedCount())
}

func TestBackendPresentRequiresInitialization(t *testing.T) {
	_, err := NewBackend().Present(0)
	require.Error(t, err)
}

func TestBackendAllocateDescriptors(t *testing.T) {
	backend := newInitializedBackend(t)

	block, err := backend.AllocateDescriptors(graphics.DescriptorHeapShaderResources, 32, true)
	require.NoError(t, err)
	assert.Equal(t, uint32(32), block.Size())

	_, err = backend.AllocateDescriptors(graphics.DescriptorHeapUndefined, 32, false)
	require.Error(t, err)
}
