package core

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestClamp(t *testing.T) {
	assert.Equal(t, 5, Clamp(5, 0, 10))
	assert.Equal(t, 0, Clamp(-5, 0, 10))
	assert.Equal(t, 10, Clamp(15, 0, 10))
	assert.Equal(t, uint32(2), Clamp(uint32(1), uint32(2), uint32(4)))
	assert.Equal(t, 1.5, Clamp(1.5, 1.0, 2.0))
}

func TestClockElapsed(t *testing.T) {
	clock := NewClock()

	// Non-started clocks do not accumulate time.
	clock.Update()
	assert.Equal(t, 0.0, clock.Elapsed())

	clock.Start()
	time.Sleep(time.Millisecond)
	clock.Update()
	assert.Greater(t, clock.Elapsed(), 0.0)
	assert.Greater(t, clock.ElapsedSeconds(), 0.0)
	assert.Less(t, clock.ElapsedSeconds(), 1.0)

	elapsed := clock.Elapsed()
	clock.Stop()
	clock.Update()
	assert.Equal(t, elapsed, clock.Elapsed())

	clock.Start()
	assert.Equal(t, 0.0, clock.Elapsed())
}
