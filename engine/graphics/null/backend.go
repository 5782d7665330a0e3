// Package null provides a headless backend used for tests and tooling
// that needs the full rendering core without a GPU: command lists complete
// immediately on submission and presentation is a round-robin flip.
package null

import (
	"fmt"
	"sync"

	"github.com/prismengine/prism/engine/graphics"
)

type fence struct {
	mutex    sync.Mutex
	signaled bool
}

func (f *fence) Signal() error {
	f.mutex.Lock()
	defer f.mutex.Unlock()
	f.signaled = true
	return nil
}

// Wait never blocks: submissions complete instantly, so there is nothing
// outstanding to wait for.
func (f *fence) Wait() error {
	return nil
}

func (f *fence) Reset() error {
	f.mutex.Lock()
	defer f.mutex.Unlock()
	f.signaled = false
	return nil
}

func (f *fence) IsSignaled() bool {
	f.mutex.Lock()
	defer f.mutex.Unlock()
	return f.signaled
}

type descriptorBlock struct {
	size     uint32
	released bool
}

func (b *descriptorBlock) Size() uint32 {
	return b.size
}

func (b *descriptorBlock) Release() {
	b.released = true
}

// Backend is the headless graphics.Backend implementation.
type Backend struct {
	mutex       sync.Mutex
	settings    graphics.BackendSettings
	initialized bool

	submittedLists  int
	appliedBarriers int
	presentedFrames int
}

func NewBackend() *Backend {
	return &Backend{}
}

func (b *Backend) Name() string {
	return "Null"
}

func (b *Backend) FrameBuffersBounds() (uint32, uint32) {
	return 2, 4
}

func (b *Backend) Initialize(settings graphics.BackendSettings) error {
	b.mutex.Lock()
	defer b.mutex.Unlock()
	if b.initialized {
		return fmt.Errorf("null backend is already initialized")
	}
	if settings.FrameBuffersCount == 0 {
		return fmt.Errorf("null backend requires at least one frame buffer")
	}
	b.settings = settings
	b.initialized = true
	return nil
}

func (b *Backend) Shutdown() error {
	b.mutex.Lock()
	defer b.mutex.Unlock()
	b.initialized = false
	return nil
}

func (b *Backend) Resize(size graphics.FrameSize) error {
	b.mutex.Lock()
	defer b.mutex.Unlock()
	if !b.initialized {
		return fmt.Errorf("null backend is not initialized")
	}
	b.settings.FrameSize = size
	return nil
}

func (b *Backend) AllocateDescriptors(heapType graphics.DescriptorHeapType, size uint32, shaderVisible bool) (graphics.DescriptorBlock, error) {
	if heapType >= graphics.DescriptorHeapTypeCount {
		return nil, fmt.Errorf("can not allocate descriptors of type %q", heapType)
	}
	return &descriptorBlock{size: size}, nil
}

func (b *Backend) CreateFence(signaled bool) (graphics.Fence, error) {
	return &fence{signaled: signaled}, nil
}

// SubmitCommandList completes the list instantly: there is no GPU, so the
// fence is signaled before the call returns.
func (b *Backend) SubmitCommandList(list *graphics.CommandList, fence graphics.Fence) error {
	b.mutex.Lock()
	b.submittedLists++
	b.mutex.Unlock()

	if fence != nil {
		return fence.Signal()
	}
	return nil
}

func (b *Backend) ApplyResourceBarriers(list *graphics.CommandList, barriers *graphics.Barriers) error {
	b.mutex.Lock()
	defer b.mutex.Unlock()
	b.appliedBarriers += len(barriers.Items())
	return nil
}

func (b *Backend) Present(frameBufferIndex uint32) (uint32, error) {
	b.mutex.Lock()
	defer b.mutex.Unlock()
	if !b.initialized {
		return 0, fmt.Errorf("null backend is not initialized")
	}
	b.presentedFrames++
	return (frameBufferIndex + 1) % b.settings.FrameBuffersCount, nil
}

// SubmittedCount reports how many command lists were submitted.
func (b *Backend) SubmittedCount() int {
	b.mutex.Lock()
	defer b.mutex.Unlock()
	return b.submittedLists
}

// AppliedBarrierCount reports how many barriers were recorded.
func (b *Backend) AppliedBarrierCount() int {
	b.mutex.Lock()
	defer b.mutex.Unlock()
	return b.appliedBarriers
}

// PresentedCount reports how many frames were presented.
func (b *Backend) PresentedCount() int {
	b.mutex.Lock()
	defer b.mutex.Unlock()
	return b.presentedFrames
}
