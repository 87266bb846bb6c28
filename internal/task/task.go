// Package task provides the two-verb task submission capability the
// workspace core depends on: background work (network, file IO) and
// context-mutating work. Each verb executes FIFO per queue.
package task

import (
	"sync"

	"go.uber.org/zap"
)

// Handle tracks completion of a submitted task.
type Handle struct {
	done chan struct{}

	mu  sync.Mutex
	err error
}

func newHandle() *Handle {
	return &Handle{done: make(chan struct{})}
}

// Done is closed when the task has finished.
func (h *Handle) Done() <-chan struct{} { return h.done }

// Wait blocks until the task finishes and returns its error.
func (h *Handle) Wait() error {
	<-h.done
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.err
}

func (h *Handle) complete(err error) {
	h.mu.Lock()
	h.err = err
	h.mu.Unlock()
	close(h.done)
}

// Executor accepts tasks for serial execution. Implementations guarantee
// FIFO ordering per queue; the two queues run independently.
type Executor interface {
	// SubmitBackground runs fn on the background queue (IO, network,
	// parsing). It must not mutate the snapshot chain.
	SubmitBackground(name string, fn func() error) *Handle

	// SubmitContext runs fn on the context queue. All snapshot chain
	// mutations go through this queue.
	SubmitContext(name string, fn func() error) *Handle
}

type queued struct {
	name   string
	fn     func() error
	handle *Handle
}

// Runner is the in-process Executor: one worker goroutine per queue.
type Runner struct {
	background chan queued
	context    chan queued
	wg         sync.WaitGroup
	log        *zap.Logger
}

// NewRunner starts the two queue workers.
func NewRunner(log *zap.Logger) *Runner {
	r := &Runner{
		background: make(chan queued, 64),
		context:    make(chan queued, 64),
		log:        log,
	}
	r.wg.Add(2)
	go r.drain(r.background)
	go r.drain(r.context)
	return r
}

func (r *Runner) drain(ch chan queued) {
	defer r.wg.Done()
	for q := range ch {
		err := q.fn()
		if err != nil {
			r.log.Debug("task failed", zap.String("task", q.name), zap.Error(err))
		}
		q.handle.complete(err)
	}
}

// SubmitBackground implements Executor.
func (r *Runner) SubmitBackground(name string, fn func() error) *Handle {
	return submit(r.background, name, fn)
}

// SubmitContext implements Executor.
func (r *Runner) SubmitContext(name string, fn func() error) *Handle {
	return submit(r.context, name, fn)
}

func submit(ch chan queued, name string, fn func() error) *Handle {
	h := newHandle()
	ch <- queued{name: name, fn: fn, handle: h}
	return h
}

// Close stops accepting tasks and waits for queued work to finish.
func (r *Runner) Close() {
	close(r.background)
	close(r.context)
	r.wg.Wait()
}

// Synchronous runs every task inline on the calling goroutine. Tests use it
// to make async flows deterministic.
type Synchronous struct{}

// SubmitBackground implements Executor.
func (Synchronous) SubmitBackground(name string, fn func() error) *Handle {
	h := newHandle()
	h.complete(fn())
	return h
}

// SubmitContext implements Executor.
func (Synchronous) SubmitContext(name string, fn func() error) *Handle {
	h := newHandle()
	h.complete(fn())
	return h
}
