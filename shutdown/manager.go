package shutdown

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"go.uber.org/zap"
)

// DefaultTimeout bounds the whole shutdown sequence.
const DefaultTimeout = 30 * time.Second

// Manager combines a Tracker, a Registry and a SignalCounter.
//
//	manager := shutdown.NewManager(logger)
//	manager.Register("database", 30, shutdown.Close(database))
//	manager.Start()
//	<-manager.Context().Done()
//	err := manager.Shutdown()
type Manager struct {
	logger  *zap.Logger
	timeout time.Duration
	onForce func()

	mu       sync.Mutex
	started  bool
	shutdown bool

	ctx    context.Context
	cancel context.CancelFunc

	tracker  *Tracker
	registry *Registry
	signals  *SignalCounter
	sigChan  chan os.Signal
}

// Option configures a Manager.
type Option func(*Manager)

// WithTimeout sets how long Shutdown may take.
func WithTimeout(timeout time.Duration) Option {
	return func(m *Manager) {
		if timeout > 0 {
			m.timeout = timeout
		}
	}
}

// WithForceExit replaces the os.Exit(1) called on a second signal.
func WithForceExit(fn func()) Option {
	return func(m *Manager) {
		m.onForce = fn
	}
}

// NewManager creates a Manager whose context is cancelled by the first
// SIGINT or SIGTERM once Start is called.
func NewManager(logger *zap.Logger, opts ...Option) *Manager {
	if logger == nil {
		logger = zap.NewNop()
	}
	ctx, cancel := context.WithCancel(context.Background())

	m := &Manager{
		logger:   logger,
		timeout:  DefaultTimeout,
		onForce:  func() { os.Exit(1) },
		ctx:      ctx,
		cancel:   cancel,
		tracker:  NewTracker(),
		registry: NewRegistry(),
		sigChan:  make(chan os.Signal, 1),
	}
	for _, opt := range opts {
		opt(m)
	}

	m.signals = NewSignalCounter(2, func() {
		m.logger.Warn("Received second signal, forcing exit")
		m.onForce()
	})
	return m
}

// Context is cancelled when shutdown begins.
func (m *Manager) Context() context.Context {
	return m.ctx
}

// Tracker returns the tracker used to drain in-flight requests.
func (m *Manager) Tracker() *Tracker {
	return m.tracker
}

// Register adds a cleanup handler; lower priorities run first.
func (m *Manager) Register(name string, priority int, fn Func) {
	m.registry.Register(name, priority, fn)
	m.logger.Debug("Registered shutdown handler",
		zap.String("name", name),
		zap.Int("priority", priority))
}

// Start listens for SIGINT and SIGTERM. Repeated calls are no-ops.
func (m *Manager) Start() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.started {
		return
	}
	m.started = true

	signal.Notify(m.sigChan, os.Interrupt, syscall.SIGTERM)
	go func() {
		for sig := range m.sigChan {
			m.HandleSignal(sig)
		}
	}()
}

// HandleSignal processes one shutdown signal as if it came from the OS.
func (m *Manager) HandleSignal(sig os.Signal) {
	if m.signals.Increment() == 1 {
		m.logger.Info("Received shutdown signal, draining",
			zap.String("signal", sig.String()))
		m.cancel()
	}
}

// Trigger begins shutdown without a signal, e.g. when a server goroutine
// fails.
func (m *Manager) Trigger() {
	m.cancel()
}

// Shutdown stops new operations, waits for in-flight ones and then runs
// the cleanup handlers with whatever time is left, at least one second.
// Only the first call does anything.
func (m *Manager) Shutdown() error {
	m.mu.Lock()
	if m.shutdown {
		m.mu.Unlock()
		return nil
	}
	m.shutdown = true
	started := m.started
	m.mu.Unlock()

	m.cancel()
	if started {
		signal.Stop(m.sigChan)
	}

	begin := time.Now()
	m.tracker.Close()

	if active := m.tracker.Active(); active > 0 {
		m.logger.Info("Waiting for in-flight requests", zap.Int64("active", active))
	}
	if err := m.tracker.Wait(m.timeout); err != nil {
		m.logger.Warn("In-flight requests did not finish",
			zap.Int64("remaining", m.tracker.Active()),
			zap.Duration("waited", time.Since(begin)))
	}

	remaining := m.timeout - time.Since(begin)
	if remaining < time.Second {
		remaining = time.Second
	}
	ctx, cancel := context.WithTimeout(context.Background(), remaining)
	defer cancel()

	m.logger.Info("Running shutdown handlers", zap.Strings("handlers", m.registry.Names()))
	if err := m.registry.Run(ctx); err != nil {
		m.logger.Error("Shutdown completed with errors",
			zap.Duration("duration", time.Since(begin)),
			zap.Error(err))
		return fmt.Errorf("shutdown: %w", err)
	}

	m.logger.Info("Shutdown complete", zap.Duration("duration", time.Since(begin)))
	return nil
}

// IsShuttingDown reports whether shutdown has begun.
func (m *Manager) IsShuttingDown() bool {
	return m.ctx.Err() != nil
}

// Handlers returns the registered handler names in execution order.
func (m *Manager) Handlers() []string {
	return m.registry.Names()
}
