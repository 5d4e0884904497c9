package gps

import (
	"runtime"
	"sync"
)

// workerPool runs independent tasks on a bounded set of goroutines with
// a fire-and-join barrier per batch. Tasks must not submit further
// tasks.
type workerPool struct {
	tasks   chan func()
	batch   sync.WaitGroup // outstanding tasks in the current batch
	workers sync.WaitGroup // running worker goroutines
}

func newWorkerPool(totalWorkers int) *workerPool {
	if totalWorkers < 1 {
		totalWorkers = 1
	}
	p := &workerPool{
		tasks: make(chan func(), totalWorkers),
	}
	p.workers.Add(totalWorkers)
	for i := 0; i < totalWorkers; i++ {
		go func() {
			defer p.workers.Done()
			for task := range p.tasks {
				task()
				p.batch.Done()
			}
		}()
	}
	return p
}

// defaultWorkerCount bounds the pool at the hardware parallelism or the
// task fan-out, whichever is smaller.
func defaultWorkerCount(totalTasks int) int {
	w := runtime.GOMAXPROCS(0)
	if w > totalTasks {
		w = totalTasks
	}
	if w < 1 {
		w = 1
	}
	return w
}

// Submit enqueues a task. It may block while all workers are busy but
// never rejects work.
func (p *workerPool) Submit(task func()) {
	p.batch.Add(1)
	p.tasks <- task
}

// Barrier blocks until every submitted task has completed. The
// WaitGroup gives the caller an acquire of all memory written inside
// the tasks.
func (p *workerPool) Barrier() {
	p.batch.Wait()
}

// Close drains the pool and joins the workers. No Submit may follow.
func (p *workerPool) Close() {
	p.batch.Wait()
	close(p.tasks)
	p.workers.Wait()
}
