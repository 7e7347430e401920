package db

import (
	"context"
	"sync"
	"sync/atomic"
	"time"
)

// DefaultChannelCapacity is the default number of queued writes.
const DefaultChannelCapacity = 100

// DefaultDrainTimeout bounds how long Stop waits for queued writes.
const DefaultDrainTimeout = 30 * time.Second

// WriteOperation is one queued write.
type WriteOperation struct {
	Data      any
	Timestamp time.Time
}

// WriteHandler performs a queued write.
type WriteHandler func(op WriteOperation) error

// AsyncWriterConfig holds configuration for the async writer.
type AsyncWriterConfig struct {
	// ChannelCapacity is the buffer size for pending writes
	ChannelCapacity int
	// DrainTimeout is the maximum wait time during shutdown
	DrainTimeout time.Duration
	// OnError is called when the handler fails (optional)
	OnError func(op WriteOperation, err error)
}

// DefaultAsyncWriterConfig returns the default configuration.
func DefaultAsyncWriterConfig() AsyncWriterConfig {
	return AsyncWriterConfig{
		ChannelCapacity: DefaultChannelCapacity,
		DrainTimeout:    DefaultDrainTimeout,
	}
}

// AsyncWriter moves database writes off the request path. Writes are
// processed in order by one background goroutine; queued writes are drained
// on Stop.
type AsyncWriter struct {
	writeChan chan WriteOperation
	handler   WriteHandler
	config    AsyncWriterConfig
	wg        sync.WaitGroup
	ctx       context.Context
	cancel    context.CancelFunc
	started   bool
	mu        sync.Mutex

	processed atomic.Int64
	failed    atomic.Int64
}

// NewAsyncWriter creates a writer with the default configuration.
func NewAsyncWriter(handler WriteHandler) *AsyncWriter {
	return NewAsyncWriterWithConfig(handler, DefaultAsyncWriterConfig())
}

// NewAsyncWriterWithConfig creates a writer with a custom configuration.
func NewAsyncWriterWithConfig(handler WriteHandler, config AsyncWriterConfig) *AsyncWriter {
	if config.ChannelCapacity <= 0 {
		config.ChannelCapacity = DefaultChannelCapacity
	}
	if config.DrainTimeout <= 0 {
		config.DrainTimeout = DefaultDrainTimeout
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &AsyncWriter{
		writeChan: make(chan WriteOperation, config.ChannelCapacity),
		handler:   handler,
		config:    config,
		ctx:       ctx,
		cancel:    cancel,
	}
}

// Start launches the background goroutine. Calling Start twice is a no-op.
func (w *AsyncWriter) Start() {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.started {
		return
	}
	w.started = true
	w.wg.Add(1)
	go w.processWrites()
}

func (w *AsyncWriter) processWrites() {
	defer w.wg.Done()

	for {
		select {
		case <-w.ctx.Done():
			w.drainChannel()
			return
		case op := <-w.writeChan:
			w.handle(op)
		}
	}
}

func (w *AsyncWriter) drainChannel() {
	for {
		select {
		case op := <-w.writeChan:
			w.handle(op)
		default:
			return
		}
	}
}

func (w *AsyncWriter) handle(op WriteOperation) {
	if err := w.handler(op); err != nil {
		w.failed.Add(1)
		if w.config.OnError != nil {
			w.config.OnError(op, err)
		}
		return
	}
	w.processed.Add(1)
}

// Write queues data without blocking. It returns false when the queue is
// full or the writer is stopping.
func (w *AsyncWriter) Write(data any) bool {
	if w.ctx.Err() != nil {
		return false
	}
	select {
	case w.writeChan <- WriteOperation{Data: data, Timestamp: time.Now()}:
		return true
	default:
		return false
	}
}

// Pending returns the number of queued writes.
func (w *AsyncWriter) Pending() int {
	return len(w.writeChan)
}

// Processed returns how many writes succeeded.
func (w *AsyncWriter) Processed() int64 {
	return w.processed.Load()
}

// Failed returns how many writes returned an error.
func (w *AsyncWriter) Failed() int64 {
	return w.failed.Load()
}

// Stop drains queued writes and waits up to the configured drain timeout.
// It returns false if the timeout expired first.
func (w *AsyncWriter) Stop() bool {
	w.cancel()

	done := make(chan struct{})
	go func() {
		w.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return true
	case <-time.After(w.config.DrainTimeout):
		return false
	}
}

// IsStarted reports whether Start has been called.
func (w *AsyncWriter) IsStarted() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.started
}
