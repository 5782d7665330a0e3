package graphics_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/prismengine/prism/engine/graphics"
)

func TestFpsCounterMeasuresPresentedFrames(t *testing.T) {
	counter := graphics.NewFpsCounter(4)
	assert.Equal(t, 0, counter.MeasuredFramesCount())
	assert.Equal(t, uint32(0), counter.FramesPerSecond())

	counter.OnFrameStart()
	time.Sleep(time.Millisecond)
	counter.OnPresentStart()
	counter.OnFramePresented()

	assert.Equal(t, 1, counter.MeasuredFramesCount())
	assert.Greater(t, counter.AverageFrameTiming().TotalSeconds, 0.0)
	assert.Greater(t, counter.FramesPerSecond(), uint32(0))
}

func TestFpsCounterIgnoresPresentWithoutFrameStart(t *testing.T) {
	counter := graphics.NewFpsCounter(4)
	counter.OnFramePresented()
	assert.Equal(t, 0, counter.MeasuredFramesCount())
}

func TestFpsCounterAccumulatesGpuWait(t *testing.T) {
	counter := graphics.NewFpsCounter(4)
	counter.OnFrameStart()

	counter.OnGpuWaitStart()
	time.Sleep(time.Millisecond)
	counter.OnGpuWaitEnd()
	counter.OnGpuWaitStart()
	time.Sleep(time.Millisecond)
	counter.OnGpuWaitEnd()

	counter.OnFramePresented()
	assert.Greater(t, counter.AverageFrameTiming().GpuWaitSeconds, 0.0)
}

func TestFpsCounterWindowOverwritesOldest(t *testing.T) {
	counter := graphics.NewFpsCounter(2)
	counter.OnFrameStart()
	for i := 0; i < 5; i++ {
		counter.OnFramePresented()
	}
	assert.Equal(t, 2, counter.MeasuredFramesCount())
}

func TestFpsCounterReset(t *testing.T) {
	counter := graphics.NewFpsCounter(4)
	counter.OnFrameStart()
	counter.OnFramePresented()
	assert.Equal(t, 1, counter.MeasuredFramesCount())

	counter.Reset()
	assert.Equal(t, 0, counter.MeasuredFramesCount())

	// The first present after a reset only restarts measurement; the one
	// after it records again.
	counter.OnFramePresented()
	assert.Equal(t, 0, counter.MeasuredFramesCount())
	counter.OnFramePresented()
	assert.Equal(t, 1, counter.MeasuredFramesCount())
}
