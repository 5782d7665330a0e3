package graphics

import (
	"fmt"
	"sync"

	"github.com/prismengine/prism/engine/core"
	"github.com/prismengine/prism/engine/jobs"
)

// DescriptorHeapSizeByType carries one size per descriptor heap type.
type DescriptorHeapSizeByType [DescriptorHeapTypeCount]uint32

type ResourceManagerSettings struct {
	DeferredHeapAllocation bool
	DefaultHeapSizes       DescriptorHeapSizeByType
	ShaderVisibleHeapSizes DescriptorHeapSizeByType
}

// ResourceManager is the central place for creating and accessing
// descriptor heaps and for deferred releasing of GPU resources. The heap
// buckets and the program-bindings registry are the only cross-component
// shared mutable state of the core; all mutation is mutex-guarded.
type ResourceManager struct {
	backend     Backend
	workers     *jobs.Pool
	releasePool *ReleasePool

	deferredHeapAllocation bool
	heapsMutex             sync.Mutex
	heaps                  [DescriptorHeapTypeCount][]*DescriptorHeap

	bindingsMutex   sync.Mutex
	programBindings []*ProgramBindings
}

func NewResourceManager(backend Backend, workers *jobs.Pool) *ResourceManager {
	return &ResourceManager{
		backend:     backend,
		workers:     workers,
		releasePool: NewReleasePool(),
	}
}

// Initialize creates, for every descriptor heap type, one CPU-only heap
// used for default resource creation and, for shader-visible heap types,
// one GPU-visible heap for program resource bindings. Heap sizes come from
// the two per-type size arrays of the settings.
func (rm *ResourceManager) Initialize(settings ResourceManagerSettings) error {
	rm.heapsMutex.Lock()
	defer rm.heapsMutex.Unlock()

	rm.deferredHeapAllocation = settings.DeferredHeapAllocation

	for typeIndex := DescriptorHeapType(0); typeIndex < DescriptorHeapTypeCount; typeIndex++ {
		rm.heaps[typeIndex] = nil

		cpuHeap, err := NewDescriptorHeap(rm.backend, DescriptorHeapSettings{
			Type:               typeIndex,
			Size:               settings.DefaultHeapSizes[typeIndex],
			DeferredAllocation: rm.deferredHeapAllocation,
			ShaderVisible:      false,
		})
		if err != nil {
			return err
		}
		rm.heaps[typeIndex] = append(rm.heaps[typeIndex], cpuHeap)

		if !typeIndex.IsShaderVisible() {
			continue
		}
		gpuHeap, err := NewDescriptorHeap(rm.backend, DescriptorHeapSettings{
			Type:               typeIndex,
			Size:               settings.ShaderVisibleHeapSizes[typeIndex],
			DeferredAllocation: rm.deferredHeapAllocation,
			ShaderVisible:      true,
		})
		if err != nil {
			return err
		}
		rm.heaps[typeIndex] = append(rm.heaps[typeIndex], gpuHeap)
	}
	return nil
}

func (rm *ResourceManager) IsDeferredHeapAllocation() bool {
	return rm.deferredHeapAllocation
}

// SetDeferredHeapAllocation propagates the allocation mode to every heap.
func (rm *ResourceManager) SetDeferredHeapAllocation(deferred bool) error {
	if rm.deferredHeapAllocation == deferred {
		return nil
	}
	rm.deferredHeapAllocation = deferred
	return rm.forEachDescriptorHeap(func(heap *DescriptorHeap) error {
		heap.SetDeferredAllocation(deferred)
		return nil
	})
}

// CompleteInitialization physically allocates every descriptor heap, prunes
// expired program-bindings handles and completes initialization of every
// still-alive binding in parallel. The bindings are independent of each
// other by construction, so the parallel pass fans out over an immutable
// snapshot taken under the lock.
func (rm *ResourceManager) CompleteInitialization() error {
	if !rm.IsDeferredHeapAllocation() {
		return nil
	}

	// Heap allocation takes the heaps lock on its own so concurrent heap
	// creation can not race the walk.
	if err := rm.forEachDescriptorHeapLocked(func(heap *DescriptorHeap) error {
		return heap.Allocate()
	}); err != nil {
		return err
	}

	rm.bindingsMutex.Lock()
	live := rm.programBindings[:0]
	for _, pb := range rm.programBindings {
		if !pb.IsReleased() {
			live = append(live, pb)
		}
	}
	rm.programBindings = live

	snapshot := make([]*ProgramBindings, len(live))
	copy(snapshot, live)
	rm.bindingsMutex.Unlock()

	if rm.workers == nil {
		for _, pb := range snapshot {
			if err := pb.CompleteInitialization(); err != nil {
				return err
			}
		}
		return nil
	}

	return jobs.ForEach(rm.workers, snapshot, func(pb *ProgramBindings) error {
		return pb.CompleteInitialization()
	})
}

// Release drains the deferred release pool and clears every heap bucket.
func (rm *ResourceManager) Release() {
	rm.releasePool.ReleaseResources()

	rm.heapsMutex.Lock()
	defer rm.heapsMutex.Unlock()
	for typeIndex := range rm.heaps {
		for _, heap := range rm.heaps[typeIndex] {
			heap.Release()
		}
		rm.heaps[typeIndex] = nil
	}
}

// AddProgramBindings stores a non-owning handle to the bindings so the
// deferred completion pass can reach them.
func (rm *ResourceManager) AddProgramBindings(bindings *ProgramBindings) error {
	if bindings == nil {
		return fmt.Errorf("%w: program bindings must not be nil", ErrInvalidConfiguration)
	}

	rm.bindingsMutex.Lock()
	defer rm.bindingsMutex.Unlock()

	if debugChecks {
		// O(n) scan acceptable only outside release builds: registering
		// the same bindings twice is a caller bug.
		for _, existing := range rm.programBindings {
			if existing == bindings && !existing.IsReleased() {
				return fmt.Errorf("%w: program bindings %q are already registered",
					ErrInvalidConfiguration, bindings.Name())
			}
		}
	}

	rm.programBindings = append(rm.programBindings, bindings)
	return nil
}

// CreateDescriptorHeap grows the bucket of the settings' type with a new
// heap and returns its index within that bucket. The Undefined/Count
// sentinel is invalid configuration, not an allocatable category.
func (rm *ResourceManager) CreateDescriptorHeap(settings DescriptorHeapSettings) (uint32, error) {
	if settings.Type >= DescriptorHeapTypeCount {
		return 0, fmt.Errorf("%w: can not create descriptor heap of type %q",
			ErrInvalidConfiguration, settings.Type)
	}
	settings.DeferredAllocation = rm.deferredHeapAllocation

	heap, err := NewDescriptorHeap(rm.backend, settings)
	if err != nil {
		return 0, err
	}

	rm.heapsMutex.Lock()
	defer rm.heapsMutex.Unlock()
	rm.heaps[settings.Type] = append(rm.heaps[settings.Type], heap)
	return uint32(len(rm.heaps[settings.Type]) - 1), nil
}

// GetDescriptorHeap returns the heap at (type, index).
func (rm *ResourceManager) GetDescriptorHeap(heapType DescriptorHeapType, heapIndex uint32) (*DescriptorHeap, error) {
	if heapType >= DescriptorHeapTypeCount {
		return nil, fmt.Errorf("%w: can not get %q descriptor heap", ErrInvalidConfiguration, heapType)
	}

	rm.heapsMutex.Lock()
	defer rm.heapsMutex.Unlock()

	bucket := rm.heaps[heapType]
	if heapIndex >= uint32(len(bucket)) {
		return nil, fmt.Errorf("%w: there is no %q descriptor heap at index %d (there are only %d heaps of this type)",
			ErrNotFound, heapType, heapIndex, len(bucket))
	}
	heap := bucket[heapIndex]
	if heap == nil {
		return nil, fmt.Errorf("%w: descriptor heap of type %q and index %d does not exist",
			ErrNotFound, heapType, heapIndex)
	}
	return heap, nil
}

// GetDefaultDescriptorHeap returns the CPU-only heap used for default
// resource creation of the given type.
func (rm *ResourceManager) GetDefaultDescriptorHeap(heapType DescriptorHeapType) (*DescriptorHeap, error) {
	return rm.GetDescriptorHeap(heapType, 0)
}

// GetDefaultShaderVisibleDescriptorHeap returns the first shader-visible
// heap of the given type.
func (rm *ResourceManager) GetDefaultShaderVisibleDescriptorHeap(heapType DescriptorHeapType) (*DescriptorHeap, error) {
	if heapType >= DescriptorHeapTypeCount {
		return nil, fmt.Errorf("%w: can not get %q descriptor heap", ErrInvalidConfiguration, heapType)
	}

	rm.heapsMutex.Lock()
	defer rm.heapsMutex.Unlock()

	for _, heap := range rm.heaps[heapType] {
		if heap != nil && heap.IsShaderVisible() {
			return heap, nil
		}
	}
	return nil, fmt.Errorf("%w: there is no shader visible descriptor heap of type %q",
		ErrNotFound, heapType)
}

// GetDescriptorHeapSizes scans all heaps of the requested visibility class
// and returns per type the maximum of either the allocated or the deferred
// size, so callers can size future allocations without over-shooting.
func (rm *ResourceManager) GetDescriptorHeapSizes(getAllocated, forShaderVisible bool) (DescriptorHeapSizeByType, error) {
	var sizes DescriptorHeapSizeByType
	err := rm.forEachDescriptorHeapLocked(func(heap *DescriptorHeap) error {
		if heap.IsShaderVisible() != forShaderVisible {
			return nil
		}
		size := heap.DeferredSize()
		if getAllocated {
			size = heap.AllocatedSize()
		}
		if size > sizes[heap.Type()] {
			sizes[heap.Type()] = size
		}
		return nil
	})
	return sizes, err
}

// GetReleasePool returns the deferred resource release pool.
func (rm *ResourceManager) GetReleasePool() *ReleasePool {
	return rm.releasePool
}

func (rm *ResourceManager) forEachDescriptorHeapLocked(process func(heap *DescriptorHeap) error) error {
	rm.heapsMutex.Lock()
	defer rm.heapsMutex.Unlock()
	return rm.forEachDescriptorHeap(process)
}

// forEachDescriptorHeap walks all buckets, defensively verifying the heap
// type invariant: a stored heap must report the type of its bucket, and a
// nil heap must never be stored.
func (rm *ResourceManager) forEachDescriptorHeap(process func(heap *DescriptorHeap) error) error {
	for typeIndex := DescriptorHeapType(0); typeIndex < DescriptorHeapTypeCount; typeIndex++ {
		for _, heap := range rm.heaps[typeIndex] {
			if heap == nil {
				return fmt.Errorf("%w: empty descriptor heap pointer should not be stored in resource manager",
					ErrInvalidConfiguration)
			}
			if heap.Type() != typeIndex {
				return fmt.Errorf("%w: wrong type of descriptor heap (%q) was found in container assuming heaps of %q",
					ErrInvalidConfiguration, heap.Type(), typeIndex)
			}
			if err := process(heap); err != nil {
				core.LogError(err.Error())
				return err
			}
		}
	}
	return nil
}
