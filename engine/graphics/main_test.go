package graphics_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/prismengine/prism/engine/graphics"
	"github.com/prismengine/prism/engine/graphics/null"
)

func testHeapSizes() graphics.DescriptorHeapSizeByType {
	return graphics.DescriptorHeapSizeByType{
		graphics.DescriptorHeapShaderResources: 32,
		graphics.DescriptorHeapSamplers:        4,
		graphics.DescriptorHeapRenderTargets:   8,
		graphics.DescriptorHeapDepthStencil:    4,
	}
}

func newTestContext(t *testing.T) (*graphics.RenderContext, *null.Backend) {
	t.Helper()

	backend := null.NewBackend()
	context := graphics.NewRenderContext(backend, nil, graphics.RenderContextSettings{
		AppName:           "Test App",
		FrameSize:         graphics.FrameSize{Width: 640, Height: 480},
		ColorFormat:       graphics.PixelFormatBGRA8Unorm,
		DepthFormat:       graphics.PixelFormatDepth32Float,
		FrameBuffersCount: 3,
		WaitStrategy:      graphics.WaitStrategyFences,
	})
	require.NoError(t, context.Initialize(graphics.ResourceManagerSettings{
		DeferredHeapAllocation: true,
		DefaultHeapSizes:       testHeapSizes(),
		ShaderVisibleHeapSizes: testHeapSizes(),
	}))
	t.Cleanup(func() {
		_ = context.Release()
	})
	return context, backend
}
