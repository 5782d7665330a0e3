package containers

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRingQueueEnqueueDequeue(t *testing.T) {
	rq := NewRingQueue[int](3)
	assert.True(t, rq.IsEmpty())

	require.NoError(t, rq.Enqueue(1))
	require.NoError(t, rq.Enqueue(2))
	require.NoError(t, rq.Enqueue(3))
	assert.True(t, rq.IsFull())
	assert.Equal(t, 3, rq.Len())

	err := rq.Enqueue(4)
	require.ErrorIs(t, err, ErrQueueFull)

	value, err := rq.Dequeue()
	require.NoError(t, err)
	assert.Equal(t, 1, value)

	value, err = rq.Peek()
	require.NoError(t, err)
	assert.Equal(t, 2, value)
	assert.Equal(t, 2, rq.Len())
}

func TestRingQueueEmpty(t *testing.T) {
	rq := NewRingQueue[string](2)

	_, err := rq.Dequeue()
	require.ErrorIs(t, err, ErrQueueEmpty)
	_, err = rq.Peek()
	require.ErrorIs(t, err, ErrQueueEmpty)
}

func TestRingQueueWrapsAround(t *testing.T) {
	rq := NewRingQueue[int](2)
	require.NoError(t, rq.Enqueue(1))
	require.NoError(t, rq.Enqueue(2))

	for i := 3; i <= 10; i++ {
		_, err := rq.Dequeue()
		require.NoError(t, err)
		require.NoError(t, rq.Enqueue(i))
	}

	value, err := rq.Dequeue()
	require.NoError(t, err)
	assert.Equal(t, 9, value)
	value, err = rq.Dequeue()
	require.NoError(t, err)
	assert.Equal(t, 10, value)
}

func TestRingQueueEnqueueOverwrite(t *testing.T) {
	rq := NewRingQueue[int](3)
	for i := 1; i <= 5; i++ {
		rq.EnqueueOverwrite(i)
	}
	assert.Equal(t, 3, rq.Len())

	// The oldest two entries were dropped.
	var values []int
	rq.Each(func(v int) { values = append(values, v) })
	assert.Equal(t, []int{3, 4, 5}, values)
}

func TestRingQueueEachOldestFirst(t *testing.T) {
	rq := NewRingQueue[int](4)
	require.NoError(t, rq.Enqueue(1))
	require.NoError(t, rq.Enqueue(2))
	_, err := rq.Dequeue()
	require.NoError(t, err)
	require.NoError(t, rq.Enqueue(3))

	var values []int
	rq.Each(func(v int) { values = append(values, v) })
	assert.Equal(t, []int{2, 3}, values)
}
