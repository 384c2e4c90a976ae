package spend

import (
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cobaltwallet/libcobalt-go/config"
)

// --- Pool tests ---

func TestNewPool_SizeFallback(t *testing.T) {
	assert.Equal(t, config.DefaultWorkers, NewPool(0).Size())
	assert.Equal(t, config.DefaultWorkers, NewPool(-3).Size())
	assert.Equal(t, 2, NewPool(2).Size())
}

func TestPool_ExecutesSubmittedTasks(t *testing.T) {
	p := NewPool(2)
	p.Start()
	defer p.Stop()

	var done sync.WaitGroup
	var count atomic.Int64
	for i := 0; i < 20; i++ {
		done.Add(1)
		require.NoError(t, p.Submit(func() {
			count.Add(1)
			done.Done()
		}))
	}
	done.Wait()
	assert.Equal(t, int64(20), count.Load())
}

func TestPool_SubmitNil(t *testing.T) {
	p := NewPool(1)
	p.Start()
	defer p.Stop()

	assert.ErrorIs(t, p.Submit(nil), ErrNilParam)
}

func TestPool_SubmitAfterStop(t *testing.T) {
	p := NewPool(1)
	p.Start()
	p.Stop()

	assert.ErrorIs(t, p.Submit(func() {}), ErrPoolStopped)
}

func TestPool_QueueFull(t *testing.T) {
	// The pool is never started, so nothing drains the queue.
	p := NewPool(1)
	for i := 0; i < queueFactor; i++ {
		require.NoError(t, p.Submit(func() {}))
	}
	assert.ErrorIs(t, p.Submit(func() {}), ErrPoolBusy)
}

func TestPool_StopDrainsQueuedTasks(t *testing.T) {
	p := NewPool(1)

	var count atomic.Int64
	for i := 0; i < 5; i++ {
		require.NoError(t, p.Submit(func() { count.Add(1) }))
	}

	// Start and immediately stop: every accepted task still runs before
	// Stop returns.
	p.Start()
	p.Stop()
	assert.Equal(t, int64(5), count.Load())
}

func TestPool_SingleWorkerSerializes(t *testing.T) {
	p := NewPool(1)
	p.Start()
	defer p.Stop()

	entered := make(chan struct{})
	release := make(chan struct{})
	require.NoError(t, p.Submit(func() {
		close(entered)
		<-release
	}))

	var second atomic.Bool
	secondDone := make(chan struct{})
	require.NoError(t, p.Submit(func() {
		second.Store(true)
		close(secondDone)
	}))

	// The only worker is provably inside the first task, so the second
	// cannot have run yet.
	<-entered
	assert.False(t, second.Load())

	close(release)
	<-secondDone
	assert.True(t, second.Load())
}

func TestPool_WorkersRunConcurrently(t *testing.T) {
	p := NewPool(2)
	p.Start()
	defer p.Stop()

	// Both tasks block until the other has entered; a single worker would
	// deadlock here.
	var entered sync.WaitGroup
	entered.Add(2)
	for i := 0; i < 2; i++ {
		require.NoError(t, p.Submit(func() {
			entered.Done()
			entered.Wait()
		}))
	}
	entered.Wait()
}

func TestPool_StopIdempotent(t *testing.T) {
	p := NewPool(1)
	p.Start()
	p.Stop()
	p.Stop()

	assert.ErrorIs(t, p.Submit(func() {}), ErrPoolStopped)
}
