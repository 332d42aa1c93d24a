// Package serial provides a single logical event queue. Every task posted to
// a Queue runs alone, in FIFO order, so state touched only from tasks needs no
// further locking.
package serial

import "sync"

// Executor runs tasks one at a time.
type Executor interface {
	Post(fn func())
}

// Queue is an Executor that runs tasks on the goroutine that posts into an
// idle queue. Tasks posted while another task is running are appended and run
// by that goroutine once the current task returns, so a task never nests
// inside another.
type Queue struct {
	mu      sync.Mutex
	pending []func()
	running bool
}

// New returns an empty Queue.
func New() *Queue {
	return &Queue{}
}

// Post enqueues fn. If the queue is idle, Post drains it before returning.
func (q *Queue) Post(fn func()) {
	q.mu.Lock()
	q.pending = append(q.pending, fn)
	if q.running {
		q.mu.Unlock()
		return
	}
	q.running = true
	for len(q.pending) > 0 {
		next := q.pending[0]
		q.pending[0] = nil
		q.pending = q.pending[1:]
		q.mu.Unlock()
		next()
		q.mu.Lock()
	}
	q.running = false
	q.mu.Unlock()
}

// Call posts fn and waits until it has run. It must not be called from inside
// a task on the same queue.
func (q *Queue) Call(fn func()) {
	done := make(chan struct{})
	q.Post(func() {
		defer close(done)
		fn()
	})
	<-done
}
