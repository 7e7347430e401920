package shutdown

import (
	"errors"
	"testing"
	"time"
)

func TestTracker(t *testing.T) {
	tracker := NewTracker()

	if !tracker.Start() || !tracker.Start() {
		t.Fatal("Start() rejected on an open tracker")
	}
	if tracker.Active() != 2 {
		t.Errorf("Active() = %d, want 2", tracker.Active())
	}

	tracker.Close()
	if tracker.Start() {
		t.Error("Start() accepted after Close")
	}
	if !tracker.IsClosed() {
		t.Error("IsClosed() = false after Close")
	}

	if err := tracker.Wait(10 * time.Millisecond); !errors.Is(err, ErrWaitTimeout) {
		t.Errorf("Wait() = %v, want ErrWaitTimeout", err)
	}

	go func() {
		time.Sleep(5 * time.Millisecond)
		tracker.Done()
		tracker.Done()
	}()
	if err := tracker.Wait(time.Second); err != nil {
		t.Errorf("Wait() = %v, want nil", err)
	}
	if tracker.Active() != 0 {
		t.Errorf("Active() = %d, want 0", tracker.Active())
	}
}

func TestSignalCounter(t *testing.T) {
	forced := 0
	counter := NewSignalCounter(2, func() { forced++ })

	if counter.Increment() != 1 || forced != 0 {
		t.Errorf("first signal forced exit")
	}
	if counter.Increment() != 2 || forced != 1 {
		t.Errorf("second signal forced = %d, want 1", forced)
	}
	if counter.Count() != 2 {
		t.Errorf("Count() = %d, want 2", counter.Count())
	}

	// A nil callback is allowed.
	NewSignalCounter(1, nil).Increment()
}
