// Package shutdown coordinates graceful termination of the server: signal
// handling, draining in-flight pipeline requests and running cleanup
// handlers in priority order.
package shutdown

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
)

// Func is a cleanup handler run during shutdown. It should respect ctx's
// deadline and be safe to call once.
type Func func(ctx context.Context) error

type handler struct {
	name     string
	priority int // lower runs first
	fn       Func
}

// Registry holds cleanup handlers ordered by priority.
//
// Priorities used by the server:
//   - 10: stop the HTTP listener
//   - 20: flush the history writer
//   - 30: close the database
//   - 40: remove uploaded files
//   - 50: sync the logger
type Registry struct {
	mu       sync.Mutex
	handlers []handler
	closed   bool
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{}
}

// Register adds fn under name. Registration after Run is ignored.
func (r *Registry) Register(name string, priority int, fn Func) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return
	}
	r.handlers = append(r.handlers, handler{name: name, priority: priority, fn: fn})
}

// sorted returns a priority-ordered copy; equal priorities keep
// registration order. Callers hold r.mu.
func (r *Registry) sorted() []handler {
	out := make([]handler, len(r.handlers))
	copy(out, r.handlers)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].priority < out[j].priority
	})
	return out
}

// Run calls every handler in priority order, even after failures, and
// returns the failures joined. Only the first call runs the handlers.
func (r *Registry) Run(ctx context.Context) error {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return nil
	}
	r.closed = true
	handlers := r.sorted()
	r.mu.Unlock()

	var errs []error
	for _, h := range handlers {
		if err := h.fn(ctx); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", h.name, err))
		}
	}
	return errors.Join(errs...)
}

// Names returns handler names in execution order.
func (r *Registry) Names() []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	handlers := r.sorted()
	names := make([]string, len(handlers))
	for i, h := range handlers {
		names[i] = h.name
	}
	return names
}

// Count returns the number of registered handlers.
func (r *Registry) Count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.handlers)
}

// IsClosed reports whether Run has been called.
func (r *Registry) IsClosed() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.closed
}
