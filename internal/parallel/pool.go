package parallel

import (
	"image"
	"runtime"
	"sync"
	"sync/atomic"
)

// minBandHeight keeps bands large enough that scheduling does not dominate.
const minBandHeight = 8

// Pool is a pool of goroutines for band-parallel pass work.
//
// Thread safety: Pool is safe for concurrent use.
type Pool struct {
	workers int
	work    chan func()
	done    chan struct{}
	wg      sync.WaitGroup
	running atomic.Bool

	// mu is held for reading by Rows and for writing by Close, so workers
	// outlive every Rows call in flight.
	mu sync.RWMutex
}

// NewPool creates a pool with the specified number of workers.
// If workers is 0 or negative, GOMAXPROCS is used.
// The pool starts immediately.
func NewPool(workers int) *Pool {
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}

	p := &Pool{
		workers: workers,
		work:    make(chan func(), workers*4),
		done:    make(chan struct{}),
	}
	p.running.Store(true)

	p.wg.Add(workers)
	for range workers {
		go p.worker()
	}
	return p
}

func (p *Pool) worker() {
	defer p.wg.Done()
	for {
		select {
		case <-p.done:
			return
		case fn := <-p.work:
			fn()
		}
	}
}

// Rows splits r into horizontal bands, calls fn for each band on the
// pool and waits for all of them. Every row of r is covered by exactly one
// band. After Close, fn runs once on the caller's goroutine with r.
func (p *Pool) Rows(r image.Rectangle, fn func(band image.Rectangle)) {
	if r.Empty() {
		return
	}
	p.mu.RLock()
	defer p.mu.RUnlock()
	if !p.running.Load() {
		fn(r)
		return
	}

	bands := min(p.workers*2, max(r.Dy()/minBandHeight, 1))
	step := (r.Dy() + bands - 1) / bands

	var wg sync.WaitGroup
	for y := r.Min.Y; y < r.Max.Y; y += step {
		band := image.Rect(r.Min.X, y, r.Max.X, min(y+step, r.Max.Y))
		wg.Add(1)
		task := func() {
			defer wg.Done()
			fn(band)
		}
		p.work <- task
	}
	wg.Wait()
}

// Close waits for running Rows calls and stops the workers.
// Close is safe to call multiple times.
func (p *Pool) Close() {
	p.mu.Lock()
	if !p.running.CompareAndSwap(true, false) {
		p.mu.Unlock()
		return
	}
	close(p.done)
	p.mu.Unlock()
	p.wg.Wait()
}

// Workers returns the number of workers in the pool.
func (p *Pool) Workers() int {
	return p.workers
}

// IsRunning returns true if the pool is still accepting work.
func (p *Pool) IsRunning() bool {
	return p.running.Load()
}
