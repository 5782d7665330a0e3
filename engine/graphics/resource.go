package graphics

import "sync"

// ResourceState is the pipeline-visible state of a GPU resource, used for
// transition barrier insertion.
type ResourceState uint8

const (
	ResourceStateCommon ResourceState = iota
	ResourceStateVertexAndConstantBuffer
	ResourceStateIndexBuffer
	ResourceStateRenderTarget
	ResourceStateDepthWrite
	ResourceStateDepthRead
	ResourceStateShaderResource
	ResourceStateCopyDest
	ResourceStateCopySource
	ResourceStatePresent
)

func (rs ResourceState) String() string {
	switch rs {
	case ResourceStateCommon:
		return "Common"
	case ResourceStateVertexAndConstantBuffer:
		return "VertexAndConstantBuffer"
	case ResourceStateIndexBuffer:
		return "IndexBuffer"
	case ResourceStateRenderTarget:
		return "RenderTarget"
	case ResourceStateDepthWrite:
		return "DepthWrite"
	case ResourceStateDepthRead:
		return "DepthRead"
	case ResourceStateShaderResource:
		return "ShaderResource"
	case ResourceStateCopyDest:
		return "CopyDest"
	case ResourceStateCopySource:
		return "CopySource"
	case ResourceStatePresent:
		return "Present"
	}
	return "Unknown"
}

// ResourceUsage is the way a shader or output-merger references a resource,
// keying its descriptor assignments.
type ResourceUsage uint8

const (
	ResourceUsageUnknown ResourceUsage = iota
	ResourceUsageShaderRead
	ResourceUsageShaderWrite
	ResourceUsageRenderTarget
	ResourceUsageDepthStencil
)

// Descriptor is an allocated slot within a descriptor heap.
type Descriptor struct {
	Heap  *DescriptorHeap
	Index uint32
}

// DescriptorByUsage maps each usage of a resource to its descriptor slot.
// Captured into restore snapshots so bindings survive a swap-chain resize.
type DescriptorByUsage map[ResourceUsage]Descriptor

type BarrierType uint8

const (
	BarrierTypeTransition BarrierType = iota
)

// Barrier declares a single resource state change for the GPU timeline.
type Barrier struct {
	Type        BarrierType
	Resource    *Resource
	StateBefore ResourceState
	StateAfter  ResourceState
}

// Barriers collects barrier descriptors to be applied in one backend call.
type Barriers struct {
	items []Barrier
}

func (b *Barriers) Add(barrier Barrier) {
	b.items = append(b.items, barrier)
}

func (b *Barriers) IsEmpty() bool {
	return b == nil || len(b.items) == 0
}

func (b *Barriers) Items() []Barrier {
	if b == nil {
		return nil
	}
	return b.items
}

type ResourceType uint8

const (
	ResourceTypeBuffer ResourceType = iota
	ResourceTypeTexture
)

// Resource is the base of every GPU-backed object (buffers, textures). It
// tracks the current pipeline state for barrier insertion and the
// descriptor slots assigned per usage. Resources are never destroyed
// synchronously: Release queues them into the manager's release pool,
// reclaimed once the GPU confirmed completion.
type Resource struct {
	Object

	resourceType ResourceType
	manager      *ResourceManager

	mutex             sync.Mutex
	state             ResourceState
	descriptorByUsage DescriptorByUsage
	released          bool
}

func newResource(manager *ResourceManager, resourceType ResourceType, name string) Resource {
	return Resource{
		Object:            newObject(name),
		resourceType:      resourceType,
		manager:           manager,
		state:             ResourceStateCommon,
		descriptorByUsage: make(DescriptorByUsage),
	}
}

func (r *Resource) ResourceType() ResourceType {
	return r.resourceType
}

func (r *Resource) State() ResourceState {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	return r.state
}

// SetState is the only mutation path for the resource state. It reports
// whether a transition actually occurred and, when a barrier collector is
// provided, records the transition into it.
func (r *Resource) SetState(state ResourceState, barriers *Barriers) bool {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	if r.state == state {
		return false
	}

	if barriers != nil {
		barriers.Add(Barrier{
			Type:        BarrierTypeTransition,
			Resource:    r,
			StateBefore: r.state,
			StateAfter:  state,
		})
	}
	r.state = state
	return true
}

// Descriptor returns the descriptor assigned for the given usage.
func (r *Resource) Descriptor(usage ResourceUsage) (Descriptor, bool) {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	d, ok := r.descriptorByUsage[usage]
	return d, ok
}

func (r *Resource) setDescriptor(usage ResourceUsage, descriptor Descriptor) {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	r.descriptorByUsage[usage] = descriptor
}

// DescriptorByUsage returns a copy of the usage to descriptor mapping,
// suitable for restore snapshots.
func (r *Resource) DescriptorByUsage() DescriptorByUsage {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	snapshot := make(DescriptorByUsage, len(r.descriptorByUsage))
	for usage, descriptor := range r.descriptorByUsage {
		snapshot[usage] = descriptor
	}
	return snapshot
}

// Release queues the resource for deferred destruction in the manager's
// release pool. The resource is treated as absent by every non-owning
// reader from this point on.
func (r *Resource) Release() {
	r.mutex.Lock()
	if r.released {
		r.mutex.Unlock()
		return
	}
	r.released = true
	r.mutex.Unlock()

	if r.manager != nil {
		r.manager.GetReleasePool().Add(r)
	}
}

func (r *Resource) IsReleased() bool {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	return r.released
}

// freeNative returns the resource's descriptor slots to their heaps. Called
// by the release pool once GPU usage is confirmed complete.
func (r *Resource) freeNative() {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	for usage, descriptor := range r.descriptorByUsage {
		if descriptor.Heap != nil {
			descriptor.Heap.ReleaseDescriptor(descriptor.Index)
		}
		delete(r.descriptorByUsage, usage)
	}
}

// ResourceRestoreInfo snapshots the identity of a resource before teardown
// so a recreated resource can take over the same descriptor assignments.
type ResourceRestoreInfo struct {
	DescriptorByUsage DescriptorByUsage
	Name              string
}

func NewResourceRestoreInfo(r *Resource) ResourceRestoreInfo {
	if r == nil {
		return ResourceRestoreInfo{}
	}
	return ResourceRestoreInfo{
		DescriptorByUsage: r.DescriptorByUsage(),
		Name:              r.Name(),
	}
}
