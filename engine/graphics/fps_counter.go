package graphics

import (
	"math"
	"time"

	"github.com/prismengine/prism/engine/containers"
)

// FrameTiming breaks one presented frame down into its CPU wait and
// present components, all in seconds.
type FrameTiming struct {
	TotalSeconds   float64
	PresentSeconds float64
	GpuWaitSeconds float64
}

// FpsCounter averages frame timings over a sliding window of recently
// presented frames. It is owned by the render context, which feeds it from
// the present path; everything else reads it.
type FpsCounter struct {
	timings *containers.RingQueue[FrameTiming]

	frameStart    time.Time
	presentStart  time.Time
	gpuWaitStart  time.Time
	gpuWaitTotal  time.Duration
	measureActive bool
}

func NewFpsCounter(averagedTimingsCount uint32) *FpsCounter {
	if averagedTimingsCount == 0 {
		averagedTimingsCount = 1
	}
	return &FpsCounter{
		timings: containers.NewRingQueue[FrameTiming](int(averagedTimingsCount)),
	}
}

// OnFrameStart marks the beginning of CPU work for the next frame.
func (fc *FpsCounter) OnFrameStart() {
	fc.frameStart = time.Now()
	fc.gpuWaitTotal = 0
	fc.measureActive = true
}

// OnGpuWaitStart marks the start of a GPU wait inside the current frame.
func (fc *FpsCounter) OnGpuWaitStart() {
	fc.gpuWaitStart = time.Now()
}

// OnGpuWaitEnd accumulates the elapsed GPU wait into the current frame.
func (fc *FpsCounter) OnGpuWaitEnd() {
	if fc.gpuWaitStart.IsZero() {
		return
	}
	fc.gpuWaitTotal += time.Since(fc.gpuWaitStart)
	fc.gpuWaitStart = time.Time{}
}

// OnPresentStart marks the beginning of the present call.
func (fc *FpsCounter) OnPresentStart() {
	fc.presentStart = time.Now()
}

// OnFramePresented closes the current frame measurement and records its
// timing into the averaging window, overwriting the oldest entry when the
// window is full. The first present after a reset restarts measurement
// without a recordable timing.
func (fc *FpsCounter) OnFramePresented() {
	now := time.Now()
	if !fc.measureActive {
		fc.frameStart = now
		fc.presentStart = time.Time{}
		fc.gpuWaitTotal = 0
		fc.measureActive = true
		return
	}

	timing := FrameTiming{
		TotalSeconds:   now.Sub(fc.frameStart).Seconds(),
		GpuWaitSeconds: fc.gpuWaitTotal.Seconds(),
	}
	if !fc.presentStart.IsZero() {
		timing.PresentSeconds = now.Sub(fc.presentStart).Seconds()
	}
	fc.timings.EnqueueOverwrite(timing)

	fc.frameStart = now
	fc.presentStart = time.Time{}
	fc.gpuWaitTotal = 0
}

// MeasuredFramesCount reports how many frames are in the window.
func (fc *FpsCounter) MeasuredFramesCount() int {
	return fc.timings.Len()
}

// AverageFrameTiming returns the mean timing over the window.
func (fc *FpsCounter) AverageFrameTiming() FrameTiming {
	count := fc.timings.Len()
	if count == 0 {
		return FrameTiming{}
	}

	var sum FrameTiming
	fc.timings.Each(func(t FrameTiming) {
		sum.TotalSeconds += t.TotalSeconds
		sum.PresentSeconds += t.PresentSeconds
		sum.GpuWaitSeconds += t.GpuWaitSeconds
	})
	return FrameTiming{
		TotalSeconds:   sum.TotalSeconds / float64(count),
		PresentSeconds: sum.PresentSeconds / float64(count),
		GpuWaitSeconds: sum.GpuWaitSeconds / float64(count),
	}
}

// FramesPerSecond is the rounded reciprocal of the average frame time.
func (fc *FpsCounter) FramesPerSecond() uint32 {
	average := fc.AverageFrameTiming().TotalSeconds
	if average <= 0 {
		return 0
	}
	return uint32(math.Round(1.0 / average))
}

// Reset clears the averaging window, used after resize or vsync changes
// which invalidate past timings. Measurement resumes on the next present.
func (fc *FpsCounter) Reset() {
	for !fc.timings.IsEmpty() {
		_, _ = fc.timings.Dequeue()
	}
	fc.frameStart = time.Time{}
	fc.presentStart = time.Time{}
	fc.gpuWaitStart = time.Time{}
	fc.gpuWaitTotal = 0
	fc.measureActive = false
}
