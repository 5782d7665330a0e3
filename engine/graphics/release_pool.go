package graphics

import "sync"

// ReleasePool is the staging area for resources whose GPU-side usage has
// not yet been confirmed complete. Resources queue themselves here on
// Release instead of freeing immediately; the render context drains the
// pool at its wait/present synchronization points.
type ReleasePool struct {
	mutex     sync.Mutex
	resources []*Resource
}

func NewReleasePool() *ReleasePool {
	return &ReleasePool{}
}

func (p *ReleasePool) Add(resource *Resource) {
	if resource == nil {
		return
	}
	p.mutex.Lock()
	defer p.mutex.Unlock()
	p.resources = append(p.resources, resource)
}

// ReleaseResources frees every pending resource now. Callers must have
// confirmed GPU completion before invoking this.
func (p *ReleasePool) ReleaseResources() {
	p.mutex.Lock()
	pending := p.resources
	p.resources = nil
	p.mutex.Unlock()

	for _, resource := range pending {
		resource.freeNative()
	}
}

// PendingCount reports how many resources await reclamation.
func (p *ReleasePool) PendingCount() int {
	p.mutex.Lock()
	defer p.mutex.Unlock()
	return len(p.resources)
}
