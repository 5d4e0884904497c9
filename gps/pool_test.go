package gps

import (
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Every write done inside a task is visible after the barrier.
func TestWorkerPoolBarrierVisibility(t *testing.T) {
	p := newWorkerPool(4)
	defer p.Close()

	const totalTasks = 100
	results := make([]int, totalTasks)
	for i := 0; i < totalTasks; i++ {
		i := i
		p.Submit(func() {
			results[i] = i + 1
		})
	}
	p.Barrier()

	for i, v := range results {
		require.Equal(t, i+1, v)
	}
}

func TestWorkerPoolMultipleBatches(t *testing.T) {
	p := newWorkerPool(2)
	defer p.Close()

	var counter atomic.Int64
	for batch := 0; batch < 5; batch++ {
		for i := 0; i < 20; i++ {
			p.Submit(func() {
				counter.Add(1)
			})
		}
		p.Barrier()
		assert.Equal(t, int64((batch+1)*20), counter.Load())
	}
}

func TestWorkerPoolEmptyBarrier(t *testing.T) {
	p := newWorkerPool(3)
	defer p.Close()
	p.Barrier() // nothing submitted; must not block
}

func TestWorkerPoolSingleWorker(t *testing.T) {
	p := newWorkerPool(1)
	defer p.Close()

	var counter atomic.Int64
	for i := 0; i < 50; i++ {
		p.Submit(func() {
			counter.Add(1)
		})
	}
	p.Barrier()
	assert.Equal(t, int64(50), counter.Load())
}

func TestDefaultWorkerCountBounds(t *testing.T) {
	assert.Equal(t, 1, defaultWorkerCount(1))
	assert.GreaterOrEqual(t, defaultWorkerCount(TotalPRNCodes), 1)
	assert.LessOrEqual(t, defaultWorkerCount(TotalPRNCodes), TotalPRNCodes)
}
