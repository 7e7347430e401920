package db

import (
	"context"
	"fmt"
	"time"
)

// CleanupResult reports one retention pass.
type CleanupResult struct {
	// Deleted is the number of pipeline_runs rows removed
	Deleted int64
	// Duration is how long the pass took
	Duration time.Duration
}

// DeleteOlderThan removes runs created more than retentionDays ago. Zero
// days removes everything created before now.
func (r *Repository) DeleteOlderThan(ctx context.Context, retentionDays int) (CleanupResult, error) {
	start := time.Now()
	if retentionDays < 0 {
		return CleanupResult{}, fmt.Errorf("retentionDays must be non-negative, got %d", retentionDays)
	}
	if r.db == nil {
		return CleanupResult{}, fmt.Errorf("database connection is nil")
	}

	res, err := r.db.exec(ctx,
		"DELETE FROM pipeline_runs WHERE created_at < datetime('now', ?)",
		fmt.Sprintf("-%d days", retentionDays))
	if err != nil {
		return CleanupResult{}, fmt.Errorf("failed to delete old pipeline runs: %w", err)
	}

	deleted, err := res.RowsAffected()
	if err != nil {
		return CleanupResult{}, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return CleanupResult{Deleted: deleted, Duration: time.Since(start)}, nil
}

// CleanupSchedulerConfig configures RunCleanupScheduler.
type CleanupSchedulerConfig struct {
	// RetentionDays is the number of days to retain runs
	RetentionDays int
	// Interval is how often to run cleanup
	Interval time.Duration
	// OnCleanup is called after each pass (optional)
	OnCleanup func(result CleanupResult, err error)
}

// DefaultCleanupSchedulerConfig keeps 30 days and cleans daily.
func DefaultCleanupSchedulerConfig() CleanupSchedulerConfig {
	return CleanupSchedulerConfig{
		RetentionDays: 30,
		Interval:      24 * time.Hour,
	}
}

// RunCleanupScheduler runs one pass immediately and then every interval
// until ctx is done. It returns nil on cancellation so it can run under an
// errgroup.
func (r *Repository) RunCleanupScheduler(ctx context.Context, config CleanupSchedulerConfig) error {
	if config.Interval <= 0 {
		config.Interval = 24 * time.Hour
	}

	run := func() {
		result, err := r.DeleteOlderThan(ctx, config.RetentionDays)
		if config.OnCleanup != nil && ctx.Err() == nil {
			config.OnCleanup(result, err)
		}
	}

	run()
	ticker := time.NewTicker(config.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			run()
		}
	}
}
