package graphics_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/prismengine/prism/engine/graphics"
)

func TestParseBackendType(t *testing.T) {
	tests := []struct {
		name   string
		want   graphics.BackendType
		wantOk bool
	}{
		{"vulkan", graphics.BackendVulkan, true},
		{"directx", graphics.BackendDirectX, true},
		{"metal", graphics.BackendMetal, true},
		{"null", graphics.BackendNull, true},
		{"", graphics.BackendNull, true},
		{"opengl", graphics.BackendNull, false},
	}
	for _, tt := range tests {
		got, ok := graphics.ParseBackendType(tt.name)
		assert.Equal(t, tt.want, got, "backend %q", tt.name)
		assert.Equal(t, tt.wantOk, ok, "backend %q", tt.name)
	}
}

func TestParseWaitStrategy(t *testing.T) {
	strategy, ok := graphics.ParseWaitStrategy("fences")
	assert.True(t, ok)
	assert.Equal(t, graphics.WaitStrategyFences, strategy)

	strategy, ok = graphics.ParseWaitStrategy("semaphores")
	assert.True(t, ok)
	assert.Equal(t, graphics.WaitStrategySemaphores, strategy)

	strategy, ok = graphics.ParseWaitStrategy("")
	assert.True(t, ok)
	assert.Equal(t, graphics.WaitStrategyFences, strategy)

	_, ok = graphics.ParseWaitStrategy("busy-wait")
	assert.False(t, ok)
}
