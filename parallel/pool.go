// Package parallel runs independent jobs on a fixed number of workers.
package parallel

import (
	"errors"
	"runtime"
	"sync"
)

type Pool struct {
	wg   sync.WaitGroup
	work chan func()

	mu   sync.Mutex
	errs []error
	done int

	stop func()
}

// Start launches numWorkers workers. Less than one means one per CPU; a
// single worker runs every job inline on the calling goroutine.
func Start(numWorkers int) *Pool {
	if numWorkers < 1 {
		numWorkers = runtime.GOMAXPROCS(0)
	}

	pool := &Pool{stop: func() {}}
	if numWorkers == 1 {
		return pool
	}

	pool.work = make(chan func(), numWorkers)
	for range numWorkers {
		pool.wg.Go(func() {
			for f := range pool.work {
				f()
			}
		})
	}
	pool.stop = sync.OnceFunc(func() { close(pool.work) })

	return pool
}

func (p *Pool) record(err error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.done++
	if err != nil {
		p.errs = append(p.errs, err)
	}
}

// Go queues f. It blocks while every worker is busy and the queue is full.
func (p *Pool) Go(f func() error) {
	job := func() { p.record(f()) }
	if p.work == nil {
		job()
		return
	}
	p.work <- job
}

// Wait stops accepting work, waits for queued jobs and returns how many ran
// and their errors joined together.
func (p *Pool) Wait() (int, error) {
	p.stop()
	p.wg.Wait()

	p.mu.Lock()
	defer p.mu.Unlock()
	return p.done, errors.Join(p.errs...)
}
