// Package tempfiles stores uploaded PDFs on disk for the duration of a
// request and sweeps files that outlive the retention window.
package tempfiles

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// KeepFile is never removed by Sweep.
const KeepFile = ".gitkeep"

// Store manages one upload directory.
type Store struct {
	dir       string
	retention time.Duration
	logger    *zap.Logger
	now       func() time.Time
}

// NewStore creates a Store rooted at dir. Files older than retention are
// removed by Sweep and the background sweeper.
func NewStore(dir string, retention time.Duration, logger *zap.Logger) *Store {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Store{
		dir:       dir,
		retention: retention,
		logger:    logger,
		now:       time.Now,
	}
}

// Dir returns the upload directory.
func (s *Store) Dir() string {
	return s.dir
}

// Retention returns the configured retention window.
func (s *Store) Retention() time.Duration {
	return s.retention
}

// EnsureDir creates the upload directory if needed.
func (s *Store) EnsureDir() error {
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return fmt.Errorf("create temp directory %s: %w", s.dir, err)
	}
	return nil
}

// GenerateFileName returns "<8 hex chars>_<YYYYMMDD_HHMMSS><ext>", keeping
// only the extension of originalName.
func GenerateFileName(originalName string, now time.Time) string {
	id := uuid.New().String()[:8]
	ext := filepath.Ext(filepath.Base(originalName))
	return fmt.Sprintf("%s_%s%s", id, now.Format("20060102_150405"), ext)
}

// Save copies r into a new uniquely named file and returns its path. A
// partially written file is removed on error.
func (s *Store) Save(r io.Reader, originalName string) (string, error) {
	if err := s.EnsureDir(); err != nil {
		return "", err
	}

	path := filepath.Join(s.dir, GenerateFileName(originalName, s.now()))
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o600)
	if err != nil {
		return "", fmt.Errorf("create temp file: %w", err)
	}

	written, err := io.Copy(f, r)
	if closeErr := f.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		_ = os.Remove(path)
		return "", fmt.Errorf("write temp file: %w", err)
	}

	s.logger.Debug("saved upload",
		zap.String("file", filepath.Base(path)),
		zap.Int64("bytes", written))
	return path, nil
}

// Remove deletes path and reports whether a file was removed. Missing files
// and failures return false; failures are logged.
func (s *Store) Remove(path string) bool {
	if path == "" {
		return false
	}
	if err := os.Remove(path); err != nil {
		if !os.IsNotExist(err) {
			s.logger.Warn("failed to remove temp file",
				zap.String("file", filepath.Base(path)),
				zap.Error(err))
		}
		return false
	}
	return true
}

// SweepResult counts the outcome of one sweep.
type SweepResult struct {
	Scanned int
	Removed int
	Failed  int
}

// Sweep removes regular files last modified more than maxAge ago. Directories
// and KeepFile are skipped. A missing directory is not an error. Files still
// being read by a pipeline may be removed if they are older than maxAge.
func (s *Store) Sweep(ctx context.Context, maxAge time.Duration) SweepResult {
	var result SweepResult

	entries, err := os.ReadDir(s.dir)
	if err != nil {
		if !os.IsNotExist(err) {
			s.logger.Error("failed to list temp directory",
				zap.String("directory", s.dir),
				zap.Error(err))
		}
		return result
	}

	cutoff := s.now().Add(-maxAge)
	for _, entry := range entries {
		select {
		case <-ctx.Done():
			s.logger.Warn("temp sweep cancelled",
				zap.Int("removed", result.Removed))
			return result
		default:
		}

		if entry.IsDir() || entry.Name() == KeepFile {
			continue
		}
		result.Scanned++

		info, err := entry.Info()
		if err != nil {
			// Removed concurrently.
			continue
		}
		if !info.ModTime().Before(cutoff) {
			continue
		}

		if err := os.Remove(filepath.Join(s.dir, entry.Name())); err != nil {
			if !os.IsNotExist(err) {
				result.Failed++
				s.logger.Warn("failed to remove old temp file",
					zap.String("file", entry.Name()),
					zap.Error(err))
			}
			continue
		}
		result.Removed++
		s.logger.Debug("removed old temp file", zap.String("file", entry.Name()))
	}

	if result.Removed > 0 || result.Failed > 0 {
		s.logger.Info("temp sweep complete",
			zap.Int("removed", result.Removed),
			zap.Int("failed", result.Failed))
	}
	return result
}

// RunSweeper sweeps with the store's retention every interval until ctx is
// done. It always returns nil so it can run under an errgroup.
func (s *Store) RunSweeper(ctx context.Context, interval time.Duration) error {
	if interval <= 0 {
		interval = time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			s.Sweep(ctx, s.retention)
		}
	}
}
