package graphics

// BackendType tags the native graphics API implementing the capability
// interface. The concrete backend is selected once at startup.
type BackendType uint8

const (
	BackendVulkan BackendType = iota
	BackendDirectX
	BackendMetal
	BackendNull
)

func (bt BackendType) String() string {
	switch bt {
	case BackendVulkan:
		return "Vulkan"
	case BackendDirectX:
		return "DirectX"
	case BackendMetal:
		return "Metal"
	case BackendNull:
		return "Null"
	}
	return "Unknown"
}

// ParseBackendType maps a configuration string to a backend tag.
func ParseBackendType(name string) (BackendType, bool) {
	switch name {
	case "vulkan":
		return BackendVulkan, true
	case "directx":
		return BackendDirectX, true
	case "metal":
		return BackendMetal, true
	case "null", "":
		return BackendNull, true
	}
	return BackendNull, false
}

// WaitStrategy selects the GPU wait primitive. The two strategies are
// mutually exclusive alternatives behind the same interface: fences wait on
// explicit per-frame fence objects, semaphores rely on the backend's
// in-queue signaling.
type WaitStrategy uint8

const (
	WaitStrategyFences WaitStrategy = iota
	WaitStrategySemaphores
)

func (ws WaitStrategy) String() string {
	switch ws {
	case WaitStrategyFences:
		return "fences"
	case WaitStrategySemaphores:
		return "semaphores"
	}
	return "unknown"
}

// ParseWaitStrategy maps a configuration string to a wait strategy.
func ParseWaitStrategy(name string) (WaitStrategy, bool) {
	switch name {
	case "fences", "":
		return WaitStrategyFences, true
	case "semaphores":
		return WaitStrategySemaphores, true
	}
	return WaitStrategyFences, false
}

// Fence is a GPU completion signal. Wait blocks the calling thread until
// the GPU (or the backend's equivalent timeline) has signaled.
type Fence interface {
	Signal() error
	Wait() error
	Reset() error
	IsSignaled() bool
}

// DescriptorBlock is a native allocation of descriptor slots within a
// typed heap.
type DescriptorBlock interface {
	Size() uint32
	Release()
}

// BackendSettings carries everything a backend needs at initialization.
type BackendSettings struct {
	AppName           string
	FrameSize         FrameSize
	FrameBuffersCount uint32
	VSyncEnabled      bool
	WaitStrategy      WaitStrategy
}

// Backend is the capability interface consumed from each native graphics
// API: descriptor allocation, command buffer submission, completion
// signaling, barrier application and swap-chain presentation. The core
// never reaches past this interface.
type Backend interface {
	Name() string

	// FrameBuffersBounds reports the supported in-flight frame buffer
	// count range of the swap chain.
	FrameBuffersBounds() (min, max uint32)

	Initialize(settings BackendSettings) error
	Shutdown() error
	Resize(size FrameSize) error

	// AllocateDescriptors creates a native block of descriptor slots
	// within a typed heap.
	AllocateDescriptors(heapType DescriptorHeapType, size uint32, shaderVisible bool) (DescriptorBlock, error)

	// CreateFence creates a completion signal object.
	CreateFence(signaled bool) (Fence, error)

	// SubmitCommandList hands a committed command list to the GPU queue.
	// The fence, when non-nil, is signaled when the GPU finished
	// executing it; a nil fence means completion is tracked elsewhere.
	SubmitCommandList(list *CommandList, fence Fence) error

	// ApplyResourceBarriers records the state transitions into the
	// command list's native command buffer.
	ApplyResourceBarriers(list *CommandList, barriers *Barriers) error

	// Present hands the frame buffer back to the swap chain and returns
	// the next frame buffer index to target (backend-defined policy,
	// typically round-robin).
	Present(frameBufferIndex uint32) (uint32, error)
}
