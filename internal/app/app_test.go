package app

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestSweepLoopTicksUntilStopped(t *testing.T) {
	var sweeps int64
	stop := make(chan struct{})
	done := make(chan struct{})

	go func() {
		sweepLoop(5*time.Millisecond, stop, func() {
			atomic.AddInt64(&sweeps, 1)
		})
		close(done)
	}()

	// Let a few ticks land before stopping.
	time.Sleep(50 * time.Millisecond)
	close(stop)

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("sweep loop did not exit after stop")
	}

	count := atomic.LoadInt64(&sweeps)
	assert.Greater(t, count, int64(0))

	// No further sweeps once the loop has returned.
	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, count, atomic.LoadInt64(&sweeps))
}

func TestSweepLoopStopsWithoutAnyTick(t *testing.T) {
	stop := make(chan struct{})
	done := make(chan struct{})

	go func() {
		sweepLoop(time.Hour, stop, func() {
			t.Error("sweep fired before the first interval elapsed")
		})
		close(done)
	}()

	close(stop)

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("sweep loop did not exit after stop")
	}
}
