package graphics

import (
	"fmt"
	"sync"

	"github.com/prismengine/prism/engine/core"
)

// DescriptorHeapType identifies the kind of descriptors stored in a heap.
// Count doubles as the Undefined sentinel: neither is a valid heap type
// for allocation.
type DescriptorHeapType uint8

const (
	DescriptorHeapShaderResources DescriptorHeapType = iota
	DescriptorHeapSamplers
	DescriptorHeapRenderTargets
	DescriptorHeapDepthStencil
	DescriptorHeapTypeCount
	DescriptorHeapUndefined = DescriptorHeapTypeCount
)

func (t DescriptorHeapType) String() string {
	switch t {
	case DescriptorHeapShaderResources:
		return "ShaderResources"
	case DescriptorHeapSamplers:
		return "Samplers"
	case DescriptorHeapRenderTargets:
		return "RenderTargets"
	case DescriptorHeapDepthStencil:
		return "DepthStencil"
	}
	return "Undefined"
}

// IsShaderVisible reports whether heaps of this type can be made visible
// to shaders (used for program resource bindings).
func (t DescriptorHeapType) IsShaderVisible() bool {
	return t == DescriptorHeapShaderResources || t == DescriptorHeapSamplers
}

type DescriptorHeapSettings struct {
	Type               DescriptorHeapType
	Size               uint32
	DeferredAllocation bool
	ShaderVisible      bool
}

// DescriptorHeap owns a pool of descriptor slots of one type. Under
// deferred allocation the native block is not created until Allocate is
// called (from ResourceManager.CompleteInitialization); slot reservations
// made before that only grow the deferred size.
type DescriptorHeap struct {
	backend  Backend
	settings DescriptorHeapSettings

	mutex         sync.Mutex
	block         DescriptorBlock
	deferredSize  uint32
	allocatedSize uint32
	// nextIndex is the high watermark: highest slot index ever reserved,
	// plus one. Released slots below it go to freeIndices for reuse.
	nextIndex   uint32
	freeIndices map[uint32]struct{}
}

func NewDescriptorHeap(backend Backend, settings DescriptorHeapSettings) (*DescriptorHeap, error) {
	heap := &DescriptorHeap{
		backend:      backend,
		settings:     settings,
		deferredSize: settings.Size,
		freeIndices:  make(map[uint32]struct{}),
	}
	if !settings.DeferredAllocation {
		if err := heap.Allocate(); err != nil {
			return nil, err
		}
	}
	return heap, nil
}

func (h *DescriptorHeap) Settings() DescriptorHeapSettings {
	return h.settings
}

func (h *DescriptorHeap) Type() DescriptorHeapType {
	return h.settings.Type
}

func (h *DescriptorHeap) IsShaderVisible() bool {
	return h.settings.ShaderVisible
}

// SetDeferredAllocation switches the allocation mode for future growth.
func (h *DescriptorHeap) SetDeferredAllocation(deferred bool) {
	h.mutex.Lock()
	defer h.mutex.Unlock()
	h.settings.DeferredAllocation = deferred
}

// AllocatedSize is the native block size, zero until Allocate happened.
func (h *DescriptorHeap) AllocatedSize() uint32 {
	h.mutex.Lock()
	defer h.mutex.Unlock()
	return h.allocatedSize
}

// DeferredSize is the requested slot count, including reservations made
// before the native block exists.
func (h *DescriptorHeap) DeferredSize() uint32 {
	h.mutex.Lock()
	defer h.mutex.Unlock()
	return h.deferredSize
}

// AllocatedCount is the number of currently reserved slots.
func (h *DescriptorHeap) AllocatedCount() uint32 {
	h.mutex.Lock()
	defer h.mutex.Unlock()
	return h.nextIndex - uint32(len(h.freeIndices))
}

// ReserveDescriptor reserves one slot and returns its index. With deferred
// allocation pending, the reservation grows the deferred size; otherwise
// reservations beyond the allocated block fail.
func (h *DescriptorHeap) ReserveDescriptor() (uint32, error) {
	h.mutex.Lock()
	defer h.mutex.Unlock()

	for index := range h.freeIndices {
		delete(h.freeIndices, index)
		return index, nil
	}

	index := h.nextIndex
	if h.block != nil && index >= h.allocatedSize && !h.settings.DeferredAllocation {
		return 0, fmt.Errorf("%w: descriptor heap %q is full (%d slots)",
			ErrInvalidConfiguration, h.settings.Type, h.allocatedSize)
	}
	if index >= h.deferredSize {
		h.deferredSize = index + 1
	}
	h.nextIndex++
	return index, nil
}

// ReserveDescriptorAt claims a specific slot, used when restoring a
// resource's descriptors after a resize.
func (h *DescriptorHeap) ReserveDescriptorAt(index uint32) error {
	h.mutex.Lock()
	defer h.mutex.Unlock()

	if _, ok := h.freeIndices[index]; ok {
		delete(h.freeIndices, index)
		return nil
	}
	if index < h.nextIndex {
		return fmt.Errorf("%w: descriptor index %d of heap %q is already reserved",
			ErrInvalidConfiguration, index, h.settings.Type)
	}
	if h.block != nil && index >= h.allocatedSize && !h.settings.DeferredAllocation {
		return fmt.Errorf("%w: descriptor index %d is out of heap %q bounds (%d slots)",
			ErrInvalidConfiguration, index, h.settings.Type, h.allocatedSize)
	}
	// Slots between the watermark and the claimed index stay reusable.
	for i := h.nextIndex; i < index; i++ {
		h.freeIndices[i] = struct{}{}
	}
	h.nextIndex = index + 1
	if index >= h.deferredSize {
		h.deferredSize = index + 1
	}
	return nil
}

// ReleaseDescriptor returns a slot to the heap's free list.
func (h *DescriptorHeap) ReleaseDescriptor(index uint32) {
	h.mutex.Lock()
	defer h.mutex.Unlock()

	if index >= h.nextIndex {
		return
	}
	h.freeIndices[index] = struct{}{}
}

// Allocate physically creates (or grows) the native descriptor block to
// cover the deferred size. Safe to call repeatedly.
func (h *DescriptorHeap) Allocate() error {
	h.mutex.Lock()
	defer h.mutex.Unlock()

	if h.block != nil && h.allocatedSize >= h.deferredSize {
		return nil
	}

	size := h.deferredSize
	if size == 0 {
		size = h.settings.Size
	}

	block, err := h.backend.AllocateDescriptors(h.settings.Type, size, h.settings.ShaderVisible)
	if err != nil {
		core.LogError("failed to allocate %q descriptor heap of size %d: %s", h.settings.Type, size, err.Error())
		return err
	}
	if h.block != nil {
		h.block.Release()
	}
	h.block = block
	h.allocatedSize = size
	return nil
}

// Release destroys the native block and forgets all reservations.
func (h *DescriptorHeap) Release() {
	h.mutex.Lock()
	defer h.mutex.Unlock()

	if h.block != nil {
		h.block.Release()
		h.block = nil
	}
	h.allocatedSize = 0
	h.nextIndex = 0
	h.freeIndices = make(map[uint32]struct{})
}
