package jobs

import (
	"fmt"
	"sync"

	"github.com/prismengine/prism/engine/core"
)

// Task is a unit of independent work executed by the pool.
type Task func() error

type Pool struct {
	numWorkers int
	jobQueue   chan Task
	wg         sync.WaitGroup
}

var ErrNoWorkers = fmt.Errorf("attempting to create worker pool with less than 1 worker")
var ErrNegativeChannelSize = fmt.Errorf("attempting to create worker pool with a negative channel size")

func NewPool(numWorkers int, channelSize int) (*Pool, error) {
	if numWorkers <= 0 {
		return nil, ErrNoWorkers
	}
	if channelSize < 0 {
		return nil, ErrNegativeChannelSize
	}

	jq := make(chan Task, channelSize)
	p := &Pool{
		numWorkers: numWorkers,
		jobQueue:   jq,
	}

	p.start()

	return p, nil
}

func (p *Pool) start() {
	for i := 0; i < p.numWorkers; i++ {
		p.wg.Add(1)
		go func() {
			defer p.wg.Done()
			for job := range p.jobQueue {
				if err := job(); err != nil {
					core.LogError(err.Error())
				}
			}
		}()
	}
}

// Shutdown stops accepting work and waits for all workers to drain.
func (p *Pool) Shutdown() error {
	close(p.jobQueue)
	p.wg.Wait()
	return nil
}

// Submit queues the provided task for execution.
func (p *Pool) Submit(t Task) {
	p.jobQueue <- t
}

// ForEach runs fn over every element of items on the pool's workers and
// blocks until all of them finished, returning the first error any of them
// produced. The elements must be independent of each other: no ordering is
// guaranteed.
func ForEach[T any](p *Pool, items []T, fn func(item T) error) error {
	var wg sync.WaitGroup
	var mutex sync.Mutex
	var firstErr error

	wg.Add(len(items))
	for _, item := range items {
		item := item
		p.Submit(func() error {
			defer wg.Done()
			err := fn(item)
			if err != nil {
				mutex.Lock()
				if firstErr == nil {
					firstErr = err
				}
				mutex.Unlock()
			}
			return err
		})
	}
	wg.Wait()
	return firstErr
}
