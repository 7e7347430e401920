package shutdown

import (
	"context"
	"errors"
	"reflect"
	"strings"
	"testing"
)

func TestRegistry_RunOrder(t *testing.T) {
	registry := NewRegistry()
	var order []string
	record := func(name string) Func {
		return func(context.Context) error {
			order = append(order, name)
			return nil
		}
	}

	registry.Register("uploads", 40, record("uploads"))
	registry.Register("http", 10, record("http"))
	registry.Register("database", 30, record("database"))
	registry.Register("history", 30, record("history"))

	want := []string{"http", "database", "history", "uploads"}
	if got := registry.Names(); !reflect.DeepEqual(got, want) {
		t.Errorf("Names() = %v, want %v", got, want)
	}

	if err := registry.Run(context.Background()); err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if !reflect.DeepEqual(order, want) {
		t.Errorf("run order = %v, want %v", order, want)
	}
	if !registry.IsClosed() {
		t.Error("IsClosed() = false after Run")
	}

	// Second run and late registration do nothing.
	registry.Register("late", 0, record("late"))
	if err := registry.Run(context.Background()); err != nil {
		t.Errorf("second Run() error = %v", err)
	}
	if len(order) != 4 || registry.Count() != 4 {
		t.Errorf("handlers ran again or late registration accepted: %v", order)
	}
}

func TestRegistry_RunCollectsErrors(t *testing.T) {
	registry := NewRegistry()
	errDB := errors.New("database locked")
	ran := 0

	registry.Register("database", 30, func(context.Context) error { ran++; return errDB })
	registry.Register("uploads", 40, func(context.Context) error { ran++; return nil })
	registry.Register("http", 10, func(context.Context) error { ran++; return errors.New("listener busy") })

	err := registry.Run(context.Background())
	if err == nil {
		t.Fatal("Run() error = nil, want joined failures")
	}
	if ran != 3 {
		t.Errorf("ran %d handlers, want 3", ran)
	}
	if !errors.Is(err, errDB) {
		t.Errorf("Run() error %v does not wrap the database failure", err)
	}
	for _, name := range []string{"database: database locked", "http: listener busy"} {
		if !strings.Contains(err.Error(), name) {
			t.Errorf("Run() error %q missing %q", err, name)
		}
	}
}
