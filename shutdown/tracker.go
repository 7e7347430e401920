package shutdown

import (
	"errors"
	"sync"
	"sync/atomic"
	"time"
)

// ErrTrackerClosed is returned when an operation starts after shutdown began.
var ErrTrackerClosed = errors.New("server is shutting down")

// ErrWaitTimeout is returned when in-flight operations outlive the wait.
var ErrWaitTimeout = errors.New("timed out waiting for in-flight operations")

// Tracker counts in-flight pipeline requests so shutdown can wait for them.
//
//	if !tracker.Start() {
//	    // reject with 503
//	}
//	defer tracker.Done()
type Tracker struct {
	mu     sync.Mutex
	wg     sync.WaitGroup
	active atomic.Int64
	closed bool
}

// NewTracker creates an open Tracker.
func NewTracker() *Tracker {
	return &Tracker{}
}

// Start registers an operation. It returns false once Close was called; a
// true result must be paired with Done.
func (t *Tracker) Start() bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.closed {
		return false
	}
	t.wg.Add(1)
	t.active.Add(1)
	return true
}

// Done marks an operation finished.
func (t *Tracker) Done() {
	t.active.Add(-1)
	t.wg.Done()
}

// Close stops new operations from starting.
func (t *Tracker) Close() {
	t.mu.Lock()
	t.closed = true
	t.mu.Unlock()
}

// Wait blocks until all operations finish or timeout passes.
func (t *Tracker) Wait(timeout time.Duration) error {
	done := make(chan struct{})
	go func() {
		t.wg.Wait()
		close(done)
	}()

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case <-done:
		return nil
	case <-timer.C:
		return ErrWaitTimeout
	}
}

// Active returns the number of running operations.
func (t *Tracker) Active() int64 {
	return t.active.Load()
}

// IsClosed reports whether Close was called.
func (t *Tracker) IsClosed() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.closed
}
