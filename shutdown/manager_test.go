package shutdown

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync/atomic"
	"syscall"
	"testing"
	"time"

	"mindmap_backend/tempfiles"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"
	"go.uber.org/zap/zaptest/observer"
)

func TestManager_HandleSignal(t *testing.T) {
	var forced atomic.Int32
	manager := NewManager(zaptest.NewLogger(t), WithForceExit(func() { forced.Add(1) }))

	if manager.IsShuttingDown() {
		t.Fatal("new manager is shutting down")
	}

	manager.HandleSignal(syscall.SIGTERM)
	select {
	case <-manager.Context().Done():
	default:
		t.Fatal("first signal did not cancel the context")
	}
	if forced.Load() != 0 {
		t.Error("first signal forced exit")
	}

	manager.HandleSignal(os.Interrupt)
	if forced.Load() != 1 {
		t.Errorf("second signal forced = %d, want 1", forced.Load())
	}
}

func TestManager_ShutdownWaitsForRequests(t *testing.T) {
	manager := NewManager(zaptest.NewLogger(t), WithTimeout(2*time.Second))
	tracker := manager.Tracker()

	if !tracker.Start() {
		t.Fatal("Start() rejected before shutdown")
	}

	var finished atomic.Bool
	var handlerSawFinished atomic.Bool
	manager.Register("database", 30, func(context.Context) error {
		handlerSawFinished.Store(finished.Load())
		return nil
	})

	go func() {
		time.Sleep(20 * time.Millisecond)
		finished.Store(true)
		tracker.Done()
	}()

	if err := manager.Shutdown(); err != nil {
		t.Fatalf("Shutdown() error = %v", err)
	}
	if !handlerSawFinished.Load() {
		t.Error("cleanup ran before the in-flight request finished")
	}
	if !manager.IsShuttingDown() {
		t.Error("IsShuttingDown() = false after Shutdown")
	}
	if tracker.Start() {
		t.Error("Start() accepted after Shutdown")
	}
	if err := manager.Shutdown(); err != nil {
		t.Errorf("second Shutdown() error = %v", err)
	}
}

func TestManager_ShutdownErrors(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	manager := NewManager(zap.New(core), WithTimeout(time.Second))

	errClose := errors.New("close failed")
	manager.Register("database", 30, func(context.Context) error { return errClose })
	manager.Register("logger", 50, func(context.Context) error { return nil })

	if got := manager.Handlers(); len(got) != 2 || got[0] != "database" {
		t.Errorf("Handlers() = %v", got)
	}

	err := manager.Shutdown()
	if !errors.Is(err, errClose) {
		t.Fatalf("Shutdown() error = %v, want wrapped close failure", err)
	}
	if logs.FilterMessage("Shutdown completed with errors").Len() != 1 {
		t.Error("expected an error log for failed handlers")
	}
}

func TestManager_Trigger(t *testing.T) {
	manager := NewManager(nil)
	manager.Trigger()
	if !manager.IsShuttingDown() {
		t.Error("Trigger() did not cancel the context")
	}
}

func TestCleanupUploads(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"a.pdf", "b.pdf", tempfiles.KeepFile} {
		if err := os.WriteFile(filepath.Join(dir, name), []byte("x"), 0o600); err != nil {
			t.Fatal(err)
		}
	}

	logger := zaptest.NewLogger(t)
	store := tempfiles.NewStore(dir, time.Hour, logger)

	if err := CleanupUploads(logger, store)(context.Background()); err != nil {
		t.Fatalf("CleanupUploads() error = %v", err)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 || entries[0].Name() != tempfiles.KeepFile {
		t.Errorf("remaining entries = %v, want only %s", entries, tempfiles.KeepFile)
	}
}

type closerFunc func() error

func (f closerFunc) Close() error { return f() }

func TestClose(t *testing.T) {
	called := false
	fn := Close(closerFunc(func() error { called = true; return nil }))
	if err := fn(context.Background()); err != nil || !called {
		t.Errorf("Close() handler err = %v called = %v", err, called)
	}
	if err := SyncLogger(zap.NewNop())(context.Background()); err != nil {
		t.Errorf("SyncLogger() error = %v", err)
	}
}
