package jobs

import (
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewPoolValidation(t *testing.T) {
	_, err := NewPool(0, 10)
	require.ErrorIs(t, err, ErrNoWorkers)

	_, err = NewPool(4, -1)
	require.ErrorIs(t, err, ErrNegativeChannelSize)
}

func TestPoolRunsSubmittedTasks(t *testing.T) {
	pool, err := NewPool(4, 16)
	require.NoError(t, err)

	var counter atomic.Int64
	var wg sync.WaitGroup
	for i := 0; i < 100; i++ {
		wg.Add(1)
		pool.Submit(func() error {
			defer wg.Done()
			counter.Add(1)
			return nil
		})
	}
	wg.Wait()
	require.NoError(t, pool.Shutdown())

	assert.Equal(t, int64(100), counter.Load())
}

func TestForEachProcessesEveryItem(t *testing.T) {
	pool, err := NewPool(4, 16)
	require.NoError(t, err)
	defer pool.Shutdown()

	items := make([]int, 50)
	for i := range items {
		items[i] = i
	}

	var mutex sync.Mutex
	seen := make(map[int]bool)
	err = ForEach(pool, items, func(item int) error {
		mutex.Lock()
		defer mutex.Unlock()
		seen[item] = true
		return nil
	})

	require.NoError(t, err)
	assert.Len(t, seen, 50)
}

func TestForEachReturnsFirstError(t *testing.T) {
	pool, err := NewPool(4, 16)
	require.NoError(t, err)
	defer pool.Shutdown()

	failure := errors.New("item rejected")
	items := []int{0, 1, 2, 3, 4, 5, 6, 7}

	var processed atomic.Int64
	err = ForEach(pool, items, func(item int) error {
		processed.Add(1)
		if item%2 == 1 {
			return failure
		}
		return nil
	})

	require.ErrorIs(t, err, failure)
	// Every item still runs; the error does not cancel remaining work.
	assert.Equal(t, int64(len(items)), processed.Load())
}

func TestForEachWithEmptyItems(t *testing.T) {
	pool, err := NewPool(2, 4)
	require.NoError(t, err)
	defer pool.Shutdown()

	require.NoError(t, ForEach(pool, nil, func(int) error { return nil }))
}
