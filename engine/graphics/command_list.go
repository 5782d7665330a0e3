package graphics

import (
	"fmt"

	"github.com/prismengine/prism/engine/core"
)

// CommandListState is the lifecycle state of a command list:
// Pending -> Committed -> Executing -> back to Pending.
type CommandListState uint8

const (
	CommandListStatePending CommandListState = iota
	CommandListStateCommitted
	CommandListStateExecuting
)

func (s CommandListState) String() string {
	switch s {
	case CommandListStatePending:
		return "Pending"
	case CommandListStateCommitted:
		return "Committed"
	case CommandListStateExecuting:
		return "Executing"
	}
	return "Undefined"
}

type CommandListType uint8

const (
	CommandListTypeRender CommandListType = iota
	CommandListTypeBlit
)

// CommandState holds the mutable recording state of one Reset/Complete
// cycle. A fresh object is created on every cycle.
type CommandState struct {
	ProgramBindings *ProgramBindings
	DrawCount       uint32
}

// CommandList sequences GPU commands recorded on the CPU and submitted as
// a unit. Recording is single-threaded per list; execution happens on the
// GPU timeline driven by the command queue.
type CommandList struct {
	Object

	listType CommandListType
	queue    *CommandQueue

	state               CommandListState
	commandState        *CommandState
	committedFrameIndex uint32

	// Debug group names are interned so instrumentation spans covering
	// re-entered groups reference stable storage.
	debugGroupNames map[string]string
	openDebugGroups []string
}

func NewCommandList(queue *CommandQueue, listType CommandListType, name string) *CommandList {
	return &CommandList{
		Object:          newObject(name),
		listType:        listType,
		queue:           queue,
		state:           CommandListStatePending,
		commandState:    &CommandState{},
		debugGroupNames: make(map[string]string),
	}
}

func (cl *CommandList) Type() CommandListType {
	return cl.listType
}

func (cl *CommandList) State() CommandListState {
	return cl.state
}

func (cl *CommandList) CommandQueue() *CommandQueue {
	return cl.queue
}

// CommandState returns the state of the current recording cycle.
func (cl *CommandList) CommandState() *CommandState {
	return cl.commandState
}

// CommittedFrameIndex reports the frame the last Commit was recorded for.
func (cl *CommandList) CommittedFrameIndex() uint32 {
	return cl.committedFrameIndex
}

// Reset prepares the list for a new recording cycle. Only legal in
// Pending state. The previous open debug group is closed if its name
// differs from debugGroup; a new group is opened when debugGroup is
// non-empty and different.
func (cl *CommandList) Reset(debugGroup string) error {
	if cl.state != CommandListStatePending {
		return fmt.Errorf("%w: command list %q in %s state can not be reset, only Pending command lists can be",
			ErrInvalidState, cl.Name(), cl.state)
	}

	cl.commandState = &CommandState{}

	if len(cl.openDebugGroups) > 0 && cl.topOpenDebugGroup() != debugGroup {
		if err := cl.PopDebugGroup(); err != nil {
			return err
		}
	}
	if debugGroup != "" && cl.topOpenDebugGroup() != debugGroup {
		cl.PushDebugGroup(debugGroup)
	}
	return nil
}

// PushDebugGroup opens a named instrumentation scope on the list.
func (cl *CommandList) PushDebugGroup(name string) {
	interned, ok := cl.debugGroupNames[name]
	if !ok {
		interned = name
		cl.debugGroupNames[name] = interned
	}
	cl.openDebugGroups = append(cl.openDebugGroups, interned)
	core.LogDebug("command list %q PUSH debug group %q", cl.Name(), interned)
}

// PopDebugGroup closes the innermost open scope. Popping with no open
// groups is a pairing mistake.
func (cl *CommandList) PopDebugGroup() error {
	if len(cl.openDebugGroups) == 0 {
		return fmt.Errorf("%w: can not pop debug group, since no debug groups were pushed", ErrUnderflow)
	}
	core.LogDebug("command list %q POP debug group %q", cl.Name(), cl.topOpenDebugGroup())
	cl.openDebugGroups = cl.openDebugGroups[:len(cl.openDebugGroups)-1]
	return nil
}

// TopOpenDebugGroup returns the innermost open group name, or "".
func (cl *CommandList) TopOpenDebugGroup() string {
	return cl.topOpenDebugGroup()
}

func (cl *CommandList) topOpenDebugGroup() string {
	if len(cl.openDebugGroups) == 0 {
		return ""
	}
	return cl.openDebugGroups[len(cl.openDebugGroups)-1]
}

// OpenDebugGroupCount reports the depth of the debug group stack.
func (cl *CommandList) OpenDebugGroupCount() int {
	return len(cl.openDebugGroups)
}

// SetProgramBindings applies the bindings to the list (emitting resource
// state barriers as a side effect) and records the bound program in the
// command state. Only legal while Pending.
func (cl *CommandList) SetProgramBindings(bindings *ProgramBindings, behavior ApplyBehavior) error {
	if cl.state != CommandListStatePending {
		return fmt.Errorf("%w: can not set program bindings on %s command list %q",
			ErrInvalidState, cl.state, cl.Name())
	}
	if bindings == nil {
		return fmt.Errorf("%w: program bindings must not be nil", ErrInvalidConfiguration)
	}
	if err := bindings.apply(cl, behavior); err != nil {
		return err
	}
	cl.commandState.ProgramBindings = bindings
	return nil
}

// Draw records a non-indexed draw of vertexCount vertices.
func (cl *CommandList) Draw(vertexCount uint32) error {
	if cl.state != CommandListStatePending {
		return fmt.Errorf("%w: can not draw on %s command list %q", ErrInvalidState, cl.state, cl.Name())
	}
	cl.commandState.DrawCount++
	_ = vertexCount
	return nil
}

// Commit seals the recording and records the frame index the list belongs
// to. Any still-open debug group is closed. Only legal while Pending.
func (cl *CommandList) Commit() error {
	if cl.state != CommandListStatePending {
		return fmt.Errorf("%w: command list %q in %s state can not be committed, only Pending command lists can be",
			ErrInvalidState, cl.Name(), cl.state)
	}

	cl.committedFrameIndex = cl.queue.CurrentFrameBufferIndex()
	cl.state = CommandListStateCommitted

	if len(cl.openDebugGroups) > 0 {
		if err := cl.PopDebugGroup(); err != nil {
			return err
		}
	}
	return nil
}

// Execute transitions the list to Executing. The frame index must equal
// the one recorded at Commit time: executing stale work against another
// frame's resources is a correctness violation.
func (cl *CommandList) Execute(frameIndex uint32) error {
	if cl.state != CommandListStateCommitted {
		return fmt.Errorf("%w: command list %q in %s state can not be executed, only Committed command lists can be",
			ErrInvalidState, cl.Name(), cl.state)
	}
	if cl.committedFrameIndex != frameIndex {
		return fmt.Errorf("%w: command list %q committed on frame %d can not be executed on frame %d",
			ErrInvalidState, cl.Name(), cl.committedFrameIndex, frameIndex)
	}
	cl.state = CommandListStateExecuting
	return nil
}

// Complete returns the list to Pending once the GPU finished it, with the
// same frame index equality check as Execute. The command state is reset
// for the next recording cycle.
func (cl *CommandList) Complete(frameIndex uint32) error {
	if cl.state != CommandListStateExecuting {
		return fmt.Errorf("%w: command list %q in %s state can not be completed, only Executing command lists can be",
			ErrInvalidState, cl.Name(), cl.state)
	}
	if cl.committedFrameIndex != frameIndex {
		return fmt.Errorf("%w: command list %q committed on frame %d can not be completed on frame %d",
			ErrInvalidState, cl.Name(), cl.committedFrameIndex, frameIndex)
	}
	cl.state = CommandListStatePending
	cl.commandState = &CommandState{}
	return nil
}

// IsCommitted reports whether the list awaits execution for frameIndex.
func (cl *CommandList) IsCommitted(frameIndex uint32) bool {
	return cl.state == CommandListStateCommitted && cl.committedFrameIndex == frameIndex
}

// IsExecuting reports whether the list is executing for frameIndex.
func (cl *CommandList) IsExecuting(frameIndex uint32) bool {
	return cl.state == CommandListStateExecuting && cl.committedFrameIndex == frameIndex
}

// SetResourceTransitionBarriers builds one transition barrier per resource
// and forwards them to the backend barrier application.
func (cl *CommandList) SetResourceTransitionBarriers(resources []*Resource, stateBefore, stateAfter ResourceState) error {
	barriers := &Barriers{}
	for _, resource := range resources {
		barriers.Add(Barrier{
			Type:        BarrierTypeTransition,
			Resource:    resource,
			StateBefore: stateBefore,
			StateAfter:  stateAfter,
		})
	}
	return cl.SetResourceBarriers(barriers)
}

// SetResourceBarriers records the barriers into the native command buffer.
func (cl *CommandList) SetResourceBarriers(barriers *Barriers) error {
	if barriers.IsEmpty() {
		return nil
	}
	return cl.queue.backend.ApplyResourceBarriers(cl, barriers)
}
