package llm

import (
	"context"
	"fmt"
	"strings"
	"time"

	"mindmap_backend/core"

	"go.uber.org/zap"
)

// RetryPolicy describes how often and how long to wait before repeating a
// failed backend call.
type RetryPolicy struct {
	// MaxRetries is the number of extra attempts after the first (default: 1)
	MaxRetries int

	// Delay is the fixed wait between attempts (default: 1s)
	Delay time.Duration
}

// DefaultRetryPolicy retries once after one second.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxRetries: 1,
		Delay:      time.Second,
	}
}

// Attempts returns the total number of calls the policy allows.
func (p RetryPolicy) Attempts() int {
	if p.MaxRetries < 0 {
		return 1
	}
	return p.MaxRetries + 1
}

// AttemptErrors collects the failure of every attempt in order.
type AttemptErrors []error

func (e AttemptErrors) Error() string {
	parts := make([]string, len(e))
	for i, err := range e {
		parts[i] = fmt.Sprintf("attempt %d: %v", i+1, err)
	}
	return strings.Join(parts, "; ")
}

// Unwrap exposes the individual failures to errors.Is and errors.As.
func (e AttemptErrors) Unwrap() []error {
	return e
}

// Retry runs op until it succeeds or the policy is exhausted. When every
// attempt fails the result is a BackendFailure carrying each attempt's error
// and the attempt count. Cancelling ctx stops the wait between attempts.
func Retry[T any](ctx context.Context, policy RetryPolicy, logger *zap.Logger, op func(ctx context.Context) (T, error)) (T, error) {
	var zero T
	if logger == nil {
		logger = zap.NewNop()
	}

	attempts := policy.Attempts()
	var failures AttemptErrors

	for attempt := 1; attempt <= attempts; attempt++ {
		result, err := op(ctx)
		if err == nil {
			return result, nil
		}
		failures = append(failures, err)

		logger.Warn("backend call failed",
			zap.Int("attempt", attempt),
			zap.Int("max_attempts", attempts),
			zap.Error(err))

		if attempt < attempts {
			select {
			case <-ctx.Done():
				return zero, core.WrapError(core.KindBackendFailure, ctx.Err(),
					fmt.Sprintf("backend call cancelled after %d attempts", attempt))
			case <-time.After(policy.Delay):
			}
		}
	}

	return zero, core.WrapError(core.KindBackendFailure, failures,
		fmt.Sprintf("backend call failed after %d attempts", len(failures)))
}

type retryCompleter struct {
	next   Completer
	policy RetryPolicy
	logger *zap.Logger
}

// WithRetry decorates next so that every Complete call follows policy.
func WithRetry(next Completer, policy RetryPolicy, logger *zap.Logger) Completer {
	return &retryCompleter{next: next, policy: policy, logger: logger}
}

func (r *retryCompleter) Complete(ctx context.Context, prompt string) (string, error) {
	return Retry(ctx, r.policy, r.logger, func(ctx context.Context) (string, error) {
		return r.next.Complete(ctx, prompt)
	})
}
