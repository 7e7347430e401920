package pipeline

import (
	"context"
	"time"
)

// Run statuses.
const (
	StatusSucceeded = "succeeded"
	StatusFailed    = "failed"
)

// Run summarizes one finished pipeline invocation.
type Run struct {
	CorrelationID string
	Pipeline      string
	FileName      string
	Topic         string
	Status        string
	ErrorKind     string
	ErrorMessage  string
	TopicCount    int
	NodeCount     int
	StartedAt     time.Time
	Duration      time.Duration
}

// Recorder stores finished runs. Recording failures are logged and never
// fail the pipeline.
type Recorder interface {
	RecordRun(ctx context.Context, run Run) error
}

type correlationKey struct{}

// WithCorrelationID attaches a request id that is copied into every Run.
func WithCorrelationID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, correlationKey{}, id)
}

// CorrelationID returns the id set by WithCorrelationID, or "".
func CorrelationID(ctx context.Context) string {
	id, _ := ctx.Value(correlationKey{}).(string)
	return id
}
