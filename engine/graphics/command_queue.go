package graphics

import (
	"fmt"
	"sync"

	"github.com/prismengine/prism/engine/core"
)

// CommandQueue owns the submission order of its command lists and the
// frame-buffer indexing they are committed against. One queue serves one
// render context.
type CommandQueue struct {
	Object

	context *RenderContext
	backend Backend

	mutex     sync.Mutex
	executing []*CommandList
}

func NewCommandQueue(context *RenderContext, name string) *CommandQueue {
	return &CommandQueue{
		Object:  newObject(name),
		context: context,
		backend: context.backend,
	}
}

// CurrentFrameBufferIndex is the frame buffer the CPU currently targets;
// command lists record it at Commit time.
func (q *CommandQueue) CurrentFrameBufferIndex() uint32 {
	return q.context.FrameBufferIndex()
}

// CreateCommandList creates a new pending command list owned by the queue.
func (q *CommandQueue) CreateCommandList(listType CommandListType, name string) *CommandList {
	return NewCommandList(q, listType, name)
}

// Execute submits every given committed command list for the frame to the
// backend. Lists must have been committed for exactly this frame index.
// Frame completion is tracked by the frame fence signaled once on present,
// not per submission, so no fence is attached here.
func (q *CommandQueue) Execute(frameIndex uint32, lists ...*CommandList) error {
	for _, list := range lists {
		if err := list.Execute(frameIndex); err != nil {
			return err
		}
		if err := q.backend.SubmitCommandList(list, nil); err != nil {
			// Submission failed after the state transition; roll the list
			// back so the caller can retry after fixing the cause.
			if completeErr := list.Complete(frameIndex); completeErr != nil {
				core.LogError(completeErr.Error())
			}
			return fmt.Errorf("failed to submit command list %q: %w", list.Name(), err)
		}

		q.mutex.Lock()
		q.executing = append(q.executing, list)
		q.mutex.Unlock()
	}
	return nil
}

// CompleteExecution returns every list executing for frameIndex back to
// Pending. Called by the render context once the GPU confirmed completion
// of that frame.
func (q *CommandQueue) CompleteExecution(frameIndex uint32) error {
	q.mutex.Lock()
	remaining := q.executing[:0]
	completing := []*CommandList{}
	for _, list := range q.executing {
		if list.IsExecuting(frameIndex) {
			completing = append(completing, list)
		} else {
			remaining = append(remaining, list)
		}
	}
	q.executing = remaining
	q.mutex.Unlock()

	for _, list := range completing {
		if err := list.Complete(frameIndex); err != nil {
			return err
		}
	}
	return nil
}

// CompleteAllExecution drains every executing list regardless of frame,
// used when waiting for full render completion at shutdown.
func (q *CommandQueue) CompleteAllExecution() error {
	q.mutex.Lock()
	executing := q.executing
	q.executing = nil
	q.mutex.Unlock()

	for _, list := range executing {
		if err := list.Complete(list.CommittedFrameIndex()); err != nil {
			return err
		}
	}
	return nil
}

// ExecutingCount reports how many lists are on the GPU timeline.
func (q *CommandQueue) ExecutingCount() int {
	q.mutex.Lock()
	defer q.mutex.Unlock()
	return len(q.executing)
}
