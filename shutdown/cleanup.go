package shutdown

import (
	"context"
	"io"

	"mindmap_backend/tempfiles"

	"go.uber.org/zap"
)

// CleanupUploads removes every upload left in the store's directory. It
// never fails shutdown; problems are logged by the store.
func CleanupUploads(logger *zap.Logger, store *tempfiles.Store) Func {
	return func(ctx context.Context) error {
		result := store.Sweep(ctx, 0)
		logger.Info("Removed leftover uploads",
			zap.String("directory", store.Dir()),
			zap.Int("removed", result.Removed),
			zap.Int("failed", result.Failed))
		return nil
	}
}

// Close adapts an io.Closer such as the history database.
func Close(c io.Closer) Func {
	return func(context.Context) error {
		return c.Close()
	}
}

// SyncLogger flushes buffered log entries. Sync errors on stdout/stderr
// are expected on some platforms and ignored.
func SyncLogger(logger *zap.Logger) Func {
	return func(context.Context) error {
		_ = logger.Sync()
		return nil
	}
}
