package graphics

import (
	"fmt"
	"sync"

	"github.com/prismengine/prism/engine/core"
)

// ShaderSettings describes one shader stage of a program.
type ShaderSettings struct {
	Type       ShaderType
	EntryPoint string
	Source     []byte
}

// ProgramArgument uniquely identifies a shader argument of a program.
// Being a comparable struct it serves directly as a map key.
type ProgramArgument struct {
	ShaderType ShaderType
	Name       string
}

func (a ProgramArgument) String() string {
	return fmt.Sprintf("%s shader argument %q", a.ShaderType, a.Name)
}

type ProgramSettings struct {
	Shaders      []ShaderSettings
	Arguments    []ProgramArgument
	ColorFormats []PixelFormat
	DepthFormat  PixelFormat
	// IgnoreMissingArguments suppresses the configuration error when
	// bindings name an argument the program does not declare.
	IgnoreMissingArguments bool
}

// Program describes the shader stage composition of a pipeline. It is
// consumed by command lists when drawing; the heavy lifting (resource to
// argument assignment) lives in ProgramBindings.
type Program struct {
	Object
	settings  ProgramSettings
	arguments map[ProgramArgument]struct{}
}

func NewProgram(name string, settings ProgramSettings) *Program {
	args := make(map[ProgramArgument]struct{}, len(settings.Arguments))
	for _, arg := range settings.Arguments {
		args[arg] = struct{}{}
	}
	return &Program{
		Object:    newObject(name),
		settings:  settings,
		arguments: args,
	}
}

func (p *Program) Settings() ProgramSettings {
	return p.settings
}

func (p *Program) HasArgument(arg ProgramArgument) bool {
	_, ok := p.arguments[arg]
	return ok
}

// ApplyBehavior controls how program bindings are applied to a command list.
type ApplyBehavior uint8

const (
	ApplyBehaviorConstantOnce ApplyBehavior = 1 << iota
	ApplyBehaviorChangesOnly
	ApplyBehaviorStateBarriers

	ApplyBehaviorAllIncremental = ApplyBehaviorConstantOnce | ApplyBehaviorChangesOnly | ApplyBehaviorStateBarriers
)

// ProgramBindings associates each program shader argument with a resource.
// The resource manager tracks bindings through non-owning handles so that
// CompleteInitialization can finalize all live bindings once deferred
// descriptor heaps are allocated; Release marks the bindings expired
// without touching the owner's reference.
type ProgramBindings struct {
	Object
	program *Program
	manager *ResourceManager

	mutex               sync.Mutex
	resourcesByArgument map[ProgramArgument]*Resource
	initialized         bool
	completions         int
	released            bool
}

// NewProgramBindings creates bindings for the program's arguments and
// registers them with the resource manager for deferred completion.
func NewProgramBindings(manager *ResourceManager, program *Program, resourcesByArgument map[ProgramArgument]*Resource) (*ProgramBindings, error) {
	if program == nil {
		return nil, fmt.Errorf("%w: program bindings require a program", ErrInvalidConfiguration)
	}
	for arg := range resourcesByArgument {
		if !program.HasArgument(arg) && !program.settings.IgnoreMissingArguments {
			return nil, fmt.Errorf("%w: program %q does not declare %s",
				ErrInvalidConfiguration, program.Name(), arg)
		}
	}

	pb := &ProgramBindings{
		Object:              newObject(program.Name() + " bindings"),
		program:             program,
		manager:             manager,
		resourcesByArgument: resourcesByArgument,
	}
	if manager != nil {
		if err := manager.AddProgramBindings(pb); err != nil {
			return nil, err
		}
	}
	return pb, nil
}

func (pb *ProgramBindings) Program() *Program {
	return pb.program
}

// Resource returns the resource bound to the argument, or nil when absent
// or already destroyed.
func (pb *ProgramBindings) Resource(arg ProgramArgument) *Resource {
	pb.mutex.Lock()
	defer pb.mutex.Unlock()

	resource := pb.resourcesByArgument[arg]
	if resource == nil || resource.IsReleased() {
		return nil
	}
	return resource
}

// apply emits state transition barriers for every bound resource so the
// GPU sees them in shader-readable state. Called by the command list while
// it is pending.
func (pb *ProgramBindings) apply(list *CommandList, behavior ApplyBehavior) error {
	pb.mutex.Lock()
	resources := make([]*Resource, 0, len(pb.resourcesByArgument))
	for _, resource := range pb.resourcesByArgument {
		if resource != nil && !resource.IsReleased() {
			resources = append(resources, resource)
		}
	}
	pb.mutex.Unlock()

	if behavior&ApplyBehaviorStateBarriers == 0 {
		return nil
	}

	barriers := &Barriers{}
	for _, resource := range resources {
		resource.SetState(ResourceStateShaderResource, barriers)
	}
	if barriers.IsEmpty() {
		return nil
	}
	return list.SetResourceBarriers(barriers)
}

// CompleteInitialization reserves shader-visible descriptor slots for all
// bound resources. Invoked by the resource manager once deferred heaps are
// physically allocated; each live bindings object is completed exactly once
// per completion pass.
func (pb *ProgramBindings) CompleteInitialization() error {
	pb.mutex.Lock()
	defer pb.mutex.Unlock()

	if pb.released {
		return nil
	}
	if pb.initialized {
		return nil
	}

	for arg, resource := range pb.resourcesByArgument {
		if resource == nil || resource.IsReleased() {
			continue
		}
		if _, ok := resource.Descriptor(ResourceUsageShaderRead); ok {
			continue
		}
		heap, err := pb.manager.GetDefaultShaderVisibleDescriptorHeap(DescriptorHeapShaderResources)
		if err != nil {
			return err
		}
		index, err := heap.ReserveDescriptor()
		if err != nil {
			core.LogError("failed to reserve descriptor for %s: %s", arg, err.Error())
			return err
		}
		resource.setDescriptor(ResourceUsageShaderRead, Descriptor{Heap: heap, Index: index})
	}

	pb.initialized = true
	pb.completions++
	return nil
}

// CompletionCount reports how many times the completion hook ran.
func (pb *ProgramBindings) CompletionCount() int {
	pb.mutex.Lock()
	defer pb.mutex.Unlock()
	return pb.completions
}

// Release marks the bindings expired. The resource manager prunes expired
// entries from its registry on the next completion pass.
func (pb *ProgramBindings) Release() {
	pb.mutex.Lock()
	defer pb.mutex.Unlock()
	pb.released = true
}

func (pb *ProgramBindings) IsReleased() bool {
	pb.mutex.Lock()
	defer pb.mutex.Unlock()
	return pb.released
}
