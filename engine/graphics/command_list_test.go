package graphics_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/prismengine/prism/engine/graphics"
)

func TestCommandListLifecycle(t *testing.T) {
	context, _ := newTestContext(t)
	queue := context.GetCommandQueue()
	list := queue.CreateCommandList(graphics.CommandListTypeRender, "Lifecycle List")

	assert.Equal(t, graphics.CommandListStatePending, list.State())

	require.NoError(t, list.Reset(""))
	require.NoError(t, list.Commit())
	assert.Equal(t, graphics.CommandListStateCommitted, list.State())
	assert.True(t, list.IsCommitted(context.FrameBufferIndex()))

	// Committed lists can neither be reset nor committed again.
	err := list.Reset("")
	require.ErrorIs(t, err, graphics.ErrInvalidState)
	err = list.Commit()
	require.ErrorIs(t, err, graphics.ErrInvalidState)

	frameIndex := list.CommittedFrameIndex()
	require.NoError(t, list.Execute(frameIndex))
	assert.Equal(t, graphics.CommandListStateExecuting, list.State())
	assert.True(t, list.IsExecuting(frameIndex))

	require.NoError(t, list.Complete(frameIndex))
	assert.Equal(t, graphics.CommandListStatePending, list.State())
}

func TestCommandListFrameIndexMismatch(t *testing.T) {
	context, _ := newTestContext(t)
	queue := context.GetCommandQueue()
	list := queue.CreateCommandList(graphics.CommandListTypeRender, "Mismatch List")

	require.NoError(t, list.Commit())
	frameIndex := list.CommittedFrameIndex()

	err := list.Execute(frameIndex + 1)
	require.ErrorIs(t, err, graphics.ErrInvalidState)
	assert.Equal(t, graphics.CommandListStateCommitted, list.State())

	require.NoError(t, list.Execute(frameIndex))
	err = list.Complete(frameIndex + 1)
	require.ErrorIs(t, err, graphics.ErrInvalidState)
	assert.Equal(t, graphics.CommandListStateExecuting, list.State())

	require.NoError(t, list.Complete(frameIndex))
}

func TestCommandListExecuteRequiresCommit(t *testing.T) {
	context, _ := newTestContext(t)
	list := context.GetCommandQueue().CreateCommandList(graphics.CommandListTypeBlit, "Uncommitted List")

	err := list.Execute(0)
	require.ErrorIs(t, err, graphics.ErrInvalidState)

	err = list.Complete(0)
	require.ErrorIs(t, err, graphics.ErrInvalidState)
}

func TestCommandListDebugGroups(t *testing.T) {
	context, _ := newTestContext(t)
	list := context.GetCommandQueue().CreateCommandList(graphics.CommandListTypeRender, "Debug Group List")

	list.PushDebugGroup("Outer")
	list.PushDebugGroup("Inner")
	assert.Equal(t, 2, list.OpenDebugGroupCount())
	assert.Equal(t, "Inner", list.TopOpenDebugGroup())

	require.NoError(t, list.PopDebugGroup())
	assert.Equal(t, "Outer", list.TopOpenDebugGroup())
	require.NoError(t, list.PopDebugGroup())

	err := list.PopDebugGroup()
	require.ErrorIs(t, err, graphics.ErrUnderflow)
}

func TestCommandListResetKeepsMatchingDebugGroup(t *testing.T) {
	context, _ := newTestContext(t)
	list := context.GetCommandQueue().CreateCommandList(graphics.CommandListTypeRender, "Reset Group List")

	require.NoError(t, list.Reset("Frame"))
	assert.Equal(t, 1, list.OpenDebugGroupCount())
	assert.Equal(t, "Frame", list.TopOpenDebugGroup())

	// Resetting with the same group name keeps the open group.
	require.NoError(t, list.Reset("Frame"))
	assert.Equal(t, 1, list.OpenDebugGroupCount())

	// A different name closes the old group and opens the new one.
	require.NoError(t, list.Reset("Other"))
	assert.Equal(t, 1, list.OpenDebugGroupCount())
	assert.Equal(t, "Other", list.TopOpenDebugGroup())
}

func TestCommandListResetClosesInnerDebugGroup(t *testing.T) {
	context, _ := newTestContext(t)
	list := context.GetCommandQueue().CreateCommandList(graphics.CommandListTypeRender, "Nested Group List")

	list.PushDebugGroup("Frame")
	list.PushDebugGroup("Shadow Pass")

	// Resetting with the outer group's name closes the inner group and
	// keeps the outer one open.
	require.NoError(t, list.Reset("Frame"))
	assert.Equal(t, 1, list.OpenDebugGroupCount())
	assert.Equal(t, "Frame", list.TopOpenDebugGroup())
}

func TestCommandListCommitClosesOpenDebugGroup(t *testing.T) {
	context, _ := newTestContext(t)
	list := context.GetCommandQueue().CreateCommandList(graphics.CommandListTypeRender, "Commit Group List")

	require.NoError(t, list.Reset("Frame"))
	require.NoError(t, list.Commit())
	assert.Equal(t, 0, list.OpenDebugGroupCount())
}

func TestCommandQueueExecuteAndComplete(t *testing.T) {
	context, backend := newTestContext(t)
	queue := context.GetCommandQueue()
	list := queue.CreateCommandList(graphics.CommandListTypeRender, "Queue List")

	require.NoError(t, list.Commit())
	frameIndex := list.CommittedFrameIndex()

	require.NoError(t, queue.Execute(frameIndex, list))
	assert.Equal(t, 1, queue.ExecutingCount())
	assert.Equal(t, 1, backend.SubmittedCount())

	require.NoError(t, queue.CompleteExecution(frameIndex))
	assert.Equal(t, 0, queue.ExecutingCount())
	assert.Equal(t, graphics.CommandListStatePending, list.State())
}

func TestCommandListDrawRecordsCommandState(t *testing.T) {
	context, _ := newTestContext(t)
	list := context.GetCommandQueue().CreateCommandList(graphics.CommandListTypeRender, "Draw List")

	require.NoError(t, list.Draw(3))
	require.NoError(t, list.Draw(3))
	assert.Equal(t, uint32(2), list.CommandState().DrawCount)

	// Completing a cycle resets the recording state.
	require.NoError(t, list.Commit())
	frameIndex := list.CommittedFrameIndex()
	require.NoError(t, list.Execute(frameIndex))
	require.NoError(t, list.Complete(frameIndex))
	assert.Equal(t, uint32(0), list.CommandState().DrawCount)
}
